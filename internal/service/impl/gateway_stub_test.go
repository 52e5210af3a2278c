package impl

import (
	"context"
	"sync"
	"time"

	"carlink/internal/domain"
	"carlink/internal/presence"
	"carlink/internal/store"
)

// memGateway is an in-memory Gateway for exercising the facade without a
// database. It honors the same contract as the real backends.
type memGateway struct {
	mu       sync.Mutex
	now      func() time.Time
	accounts map[string]*domain.Account
	codes    map[string]store.StoredCode
	cars     map[domain.CarID]*domain.Car
	seen     map[domain.CarID]domain.PresenceRecord

	failWith error // when set, every call fails with it
}

var _ store.Gateway = (*memGateway)(nil)

func newMemGateway(now func() time.Time) *memGateway {
	return &memGateway{
		now:      now,
		accounts: make(map[string]*domain.Account),
		codes:    make(map[string]store.StoredCode),
		cars:     make(map[domain.CarID]*domain.Car),
		seen:     make(map[domain.CarID]domain.PresenceRecord),
	}
}

func (m *memGateway) RecordLogin(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	now := m.now()
	if acct, ok := m.accounts[email]; ok {
		acct.LastSignin = now
		return nil
	}
	m.accounts[email] = &domain.Account{Email: email, LastSignin: now, CreatedAt: now}
	return nil
}

func (m *memGateway) CreateOneTimeCode(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.codes[email] = store.StoredCode{Code: code, Created: m.now()}
	return nil
}

func (m *memGateway) FetchOneTimeCode(_ context.Context, email string) (*store.StoredCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	code, ok := m.codes[email]
	if !ok {
		return nil, nil
	}
	return &code, nil
}

func (m *memGateway) DeleteOneTimeCode(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	delete(m.codes, email)
	return nil
}

func (m *memGateway) FetchAccount(_ context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	acct, ok := m.accounts[email]
	if !ok {
		return nil, nil
	}
	cp := *acct
	return &cp, nil
}

func (m *memGateway) ListCarsFor(_ context.Context, email string) ([]domain.CarSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	now := m.now()
	var out []domain.CarSummary
	for id, car := range m.cars {
		if car.OwnerEmail != email {
			continue
		}
		var lastSeen *time.Time
		if rec, ok := m.seen[id]; ok {
			ts := rec.LastSeen
			lastSeen = &ts
		}
		out = append(out, domain.CarSummary{
			UUID:   id,
			Name:   car.Name,
			Status: presence.Classify(lastSeen, now, presence.Window),
		})
	}
	return out, nil
}

func (m *memGateway) FetchCar(_ context.Context, id domain.CarID) (*domain.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	car, ok := m.cars[id]
	if !ok {
		return nil, nil
	}
	cp := *car
	return &cp, nil
}

func (m *memGateway) PutCar(_ context.Context, car *domain.Car) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	cp := *car
	m.cars[car.UUID] = &cp
	return nil
}

func (m *memGateway) DeleteCar(_ context.Context, id domain.CarID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	delete(m.cars, id)
	delete(m.seen, id)
	return nil
}

func (m *memGateway) Heartbeat(_ context.Context, id domain.CarID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.cars[id]; !ok {
		return store.ErrDoesNotExist
	}
	rec := m.seen[id]
	rec.LastSeen = m.now()
	m.seen[id] = rec
	return nil
}

func (m *memGateway) PutCarState(_ context.Context, id domain.CarID, state *domain.Telemetry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.cars[id]; !ok {
		return store.ErrDoesNotExist
	}
	m.seen[id] = domain.PresenceRecord{LastSeen: m.now(), Telemetry: state}
	return nil
}

func (m *memGateway) GetCarState(_ context.Context, id domain.CarID) (*domain.Telemetry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	if _, ok := m.cars[id]; !ok {
		return nil, store.ErrDoesNotExist
	}
	return m.seen[id].Telemetry, nil
}

// stubMailer records outbound messages instead of sending them.
type stubMailer struct {
	mu    sync.Mutex
	sends []struct {
		to, subject, body string
	}
	failWith error
}

func (s *stubMailer) Send(_ context.Context, to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.sends = append(s.sends, struct {
		to, subject, body string
	}{to, subject, body})
	return nil
}

func (s *stubMailer) last() (to, subject, body string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sends) == 0 {
		return "", "", "", false
	}
	m := s.sends[len(s.sends)-1]
	return m.to, m.subject, m.body, true
}
