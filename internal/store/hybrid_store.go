package store

import (
	"context"
	"errors"
	"time"

	"carlink/internal/domain"
	"carlink/internal/presence"
	"carlink/internal/ttlstore"

	"gorm.io/gorm"
)

var _ Gateway = (*HybridStore)(nil)

// HybridStore keeps accounts and cars in the relational store but one-time
// codes and presence entirely in process-local volatile stores. SQLite is the
// usual durable half for embedded deployments, but any *gorm.DB works.
type HybridStore struct {
	db    *gorm.DB
	codes *ttlstore.Store[string]
	seen  *ttlstore.Store[domain.PresenceRecord]
	now   func() time.Time
}

func NewHybridStore(db *gorm.DB) *HybridStore {
	return &HybridStore{
		db:    db,
		codes: ttlstore.New[string](),
		seen:  ttlstore.New[domain.PresenceRecord](),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// NewHybridStoreWithClock is for tests that need a fake clock.
func NewHybridStoreWithClock(db *gorm.DB, now func() time.Time) *HybridStore {
	s := NewHybridStore(db)
	s.now = now
	s.codes = ttlstore.NewWithClock[string](now)
	s.seen = ttlstore.NewWithClock[domain.PresenceRecord](now)
	return s
}

// Codes exposes the one-time-code store so main can run its sweep loop.
func (s *HybridStore) Codes() *ttlstore.Store[string] { return s.codes }

// Presence exposes the liveness store so main can run its sweep loop.
func (s *HybridStore) Presence() *ttlstore.Store[domain.PresenceRecord] { return s.seen }

func (s *HybridStore) RecordLogin(ctx context.Context, email string) error {
	now := s.now()
	var acct domain.Account
	err := s.db.WithContext(ctx).First(&acct, "email = ?", email).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		acct = domain.Account{Email: email, LastSignin: now, CreatedAt: now}
		return translate(s.db.WithContext(ctx).Create(&acct).Error)
	case err != nil:
		return translate(err)
	}
	return translate(s.db.WithContext(ctx).Model(&domain.Account{}).
		Where("email = ?", email).
		Update("last_signin", now).Error)
}

func (s *HybridStore) CreateOneTimeCode(ctx context.Context, email, code string) error {
	s.codes.Put(email, code)
	return nil
}

func (s *HybridStore) FetchOneTimeCode(ctx context.Context, email string) (*StoredCode, error) {
	code, created, ok := s.codes.Get(email)
	if !ok {
		return nil, nil
	}
	return &StoredCode{Code: code, Created: created}, nil
}

func (s *HybridStore) DeleteOneTimeCode(ctx context.Context, email string) error {
	s.codes.Remove(email)
	return nil
}

func (s *HybridStore) FetchAccount(ctx context.Context, email string) (*domain.Account, error) {
	var acct domain.Account
	err := s.db.WithContext(ctx).First(&acct, "email = ?", email).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, translate(err)
	}
	return &acct, nil
}

func (s *HybridStore) ListCarsFor(ctx context.Context, email string) ([]domain.CarSummary, error) {
	var cars []domain.Car
	if err := s.db.WithContext(ctx).Where("owner_email = ?", email).Find(&cars).Error; err != nil {
		return nil, translate(err)
	}
	now := s.now()
	summaries := make([]domain.CarSummary, 0, len(cars))
	for _, car := range cars {
		var lastSeen *time.Time
		if rec, _, ok := s.seen.Get(car.UUID.String()); ok {
			t := rec.LastSeen
			lastSeen = &t
		}
		summaries = append(summaries, domain.CarSummary{
			UUID:   car.UUID,
			Name:   car.Name,
			Status: presence.Classify(lastSeen, now, presence.Window),
		})
	}
	return summaries, nil
}

func (s *HybridStore) FetchCar(ctx context.Context, id domain.CarID) (*domain.Car, error) {
	var car domain.Car
	err := s.db.WithContext(ctx).First(&car, "uuid = ?", id).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, translate(err)
	}
	return &car, nil
}

func (s *HybridStore) PutCar(ctx context.Context, car *domain.Car) error {
	now := s.now()
	existing, err := s.FetchCar(ctx, car.UUID)
	if err != nil {
		return err
	}
	if existing != nil {
		return translate(s.db.WithContext(ctx).Model(&domain.Car{}).
			Where("uuid = ?", car.UUID).
			Updates(map[string]any{
				"name":          car.Name,
				"secret_hash":   car.SecretHash,
				"secret_salt":   car.SecretSalt,
				"secret_params": car.SecretParams,
				"owner_email":   car.OwnerEmail,
				"updated_at":    now,
			}).Error)
	}
	car.CreatedAt = now
	car.UpdatedAt = now
	return translate(s.db.WithContext(ctx).Create(car).Error)
}

func (s *HybridStore) DeleteCar(ctx context.Context, id domain.CarID) error {
	if err := translate(s.db.WithContext(ctx).Delete(&domain.Car{}, "uuid = ?", id).Error); err != nil {
		return err
	}
	s.seen.Remove(id.String())
	return nil
}

func (s *HybridStore) Heartbeat(ctx context.Context, id domain.CarID) error {
	car, err := s.FetchCar(ctx, id)
	if err != nil {
		return err
	}
	if car == nil {
		return ErrDoesNotExist
	}
	rec, _, _ := s.seen.Get(id.String())
	rec.LastSeen = s.now()
	s.seen.Put(id.String(), rec)
	return nil
}

func (s *HybridStore) PutCarState(ctx context.Context, id domain.CarID, state *domain.Telemetry) error {
	car, err := s.FetchCar(ctx, id)
	if err != nil {
		return err
	}
	if car == nil {
		return ErrDoesNotExist
	}
	s.seen.Put(id.String(), domain.PresenceRecord{LastSeen: s.now(), Telemetry: state})
	return nil
}

func (s *HybridStore) GetCarState(ctx context.Context, id domain.CarID) (*domain.Telemetry, error) {
	car, err := s.FetchCar(ctx, id)
	if err != nil {
		return nil, err
	}
	if car == nil {
		return nil, ErrDoesNotExist
	}
	rec, _, ok := s.seen.Get(id.String())
	if !ok {
		return nil, nil
	}
	return rec.Telemetry, nil
}
