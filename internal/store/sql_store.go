package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"carlink/internal/domain"
	"carlink/internal/presence"

	"gorm.io/gorm"
)

var _ Gateway = (*SQLStore)(nil)

// SQLStore keeps durable entities and presence in the same relational store:
// presence is the nullable last_ping column on the cars table, one-time codes
// are a durable table. Production runs this over Postgres; any *gorm.DB works.
type SQLStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{
		db: db,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// NewSQLStoreWithClock is for tests that need a fake clock.
func NewSQLStoreWithClock(db *gorm.DB, now func() time.Time) *SQLStore {
	s := NewSQLStore(db)
	s.now = now
	return s
}

func (s *SQLStore) RecordLogin(ctx context.Context, email string) error {
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

func (s *SQLStore) CreateOneTimeCode(ctx context.Context, email, code string) error {
	// Supersession: any prior code for this email is removed first.
	if err := s.DeleteOneTimeCode(ctx, email); err != nil {
		return err
	}
	rec := domain.OneTimeCode{Email: email, Code: code, CreatedAt: s.now()}
	return translate(s.db.WithContext(ctx).Create(&rec).Error)
}

func (s *SQLStore) FetchOneTimeCode(ctx context.Context, email string) (*StoredCode, error) {
	var rec domain.OneTimeCode
	err := s.db.WithContext(ctx).First(&rec, "email = ?", email).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, translate(err)
	}
	return &StoredCode{Code: rec.Code, Created: rec.CreatedAt}, nil
}

func (s *SQLStore) DeleteOneTimeCode(ctx context.Context, email string) error {
	return translate(s.db.WithContext(ctx).
		Where("email = ?", email).
		Delete(&domain.OneTimeCode{}).Error)
}

// SweepExpiredCodes is the durable counterpart of the volatile store's sweep;
// main runs it on the same fixed interval.
func (s *SQLStore) SweepExpiredCodes(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := s.now().Add(-maxAge)
	tx := s.db.WithContext(ctx).
		Where("created_at <= ?", cutoff).
		Delete(&domain.OneTimeCode{})
	return tx.RowsAffected, translate(tx.Error)
}

func (s *SQLStore) FetchAccount(ctx context.Context, email string) (*domain.Account, error) {
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

func (s *SQLStore) ListCarsFor(ctx context.Context, email string) ([]domain.CarSummary, error) {
	var cars []domain.Car
	if err := s.db.WithContext(ctx).Where("owner_email = ?", email).Find(&cars).Error; err != nil {
		return nil, translate(err)
	}
	now := s.now()
	summaries := make([]domain.CarSummary, 0, len(cars))
	for _, car := range cars {
		summaries = append(summaries, domain.CarSummary{
			UUID:   car.UUID,
			Name:   car.Name,
			Status: presence.Classify(car.LastPing, now, presence.Window),
		})
	}
	return summaries, nil
}

func (s *SQLStore) FetchCar(ctx context.Context, id domain.CarID) (*domain.Car, error) {
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

func (s *SQLStore) PutCar(ctx context.Context, car *domain.Car) error {
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

func (s *SQLStore) DeleteCar(ctx context.Context, id domain.CarID) error {
	// Deleting an absent car is a successful no-op.
	return translate(s.db.WithContext(ctx).Delete(&domain.Car{}, "uuid = ?", id).Error)
}

func (s *SQLStore) Heartbeat(ctx context.Context, id domain.CarID) error {
	tx := s.db.WithContext(ctx).Model(&domain.Car{}).
		Where("uuid = ?", id).
		Update("last_ping", s.now())
	if tx.Error != nil {
		return translate(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrDoesNotExist
	}
	return nil
}

func (s *SQLStore) PutCarState(ctx context.Context, id domain.CarID, state *domain.Telemetry) error {
	buf, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: encode car state: %v", ErrServer, err)
	}
	tx := s.db.WithContext(ctx).Model(&domain.Car{}).
		Where("uuid = ?", id).
		Update("state_snapshot", buf)
	if tx.Error != nil {
		return translate(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrDoesNotExist
	}
	return nil
}

func (s *SQLStore) GetCarState(ctx context.Context, id domain.CarID) (*domain.Telemetry, error) {
	car, err := s.FetchCar(ctx, id)
	if err != nil {
		return nil, err
	}
	if car == nil {
		return nil, ErrDoesNotExist
	}
	if len(car.StateSnapshot) == 0 {
		return nil, nil
	}
	var t domain.Telemetry
	if err := json.Unmarshal(car.StateSnapshot, &t); err != nil {
		return nil, fmt.Errorf("%w: decode car state: %v", ErrServer, err)
	}
	return &t, nil
}

// translate wraps a gorm error into the store taxonomy: unreachable-backend
// failures become ErrConnection, everything else ErrQuery.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return fmt.Errorf("%w: %v", ErrQuery, err)
}
