// Package store abstracts durable and volatile persistence behind a single
// capability interface so the login and presence lifecycle runs unchanged
// against either backend.
package store

import (
	"context"
	"errors"
	"time"

	"carlink/internal/domain"
)

var (
	ErrServer       = errors.New("server error")
	ErrDoesNotExist = errors.New("does not exist")
	ErrQuery        = errors.New("query error")
	ErrConnection   = errors.New("connection error")
)

// StoredCode is a live one-time login code and when it was created. Age
// policy belongs to the caller; the store only reports what it holds.
type StoredCode struct {
	Code    string
	Created time.Time
}

// Gateway is the persistence capability consumed by the session lifecycle.
// Both implementations must be observably identical through this interface.
//
// Fetch methods return (nil, nil) for absent entities; only backend failures
// produce errors. Deletes of absent entities succeed as no-ops. Heartbeat is
// the exception: pinging a car that was never registered is ErrDoesNotExist.
type Gateway interface {
	// RecordLogin upserts the account: created with last-signin = now on
	// first login, last-signin bumped on every later one.
	RecordLogin(ctx context.Context, email string) error

	CreateOneTimeCode(ctx context.Context, email, code string) error
	FetchOneTimeCode(ctx context.Context, email string) (*StoredCode, error)
	DeleteOneTimeCode(ctx context.Context, email string) error

	FetchAccount(ctx context.Context, email string) (*domain.Account, error)

	// ListCarsFor returns summaries with a derived online/offline status,
	// never a raw timestamp. The freshness policy lives here so callers
	// cannot reimplement it inconsistently.
	ListCarsFor(ctx context.Context, email string) ([]domain.CarSummary, error)
	FetchCar(ctx context.Context, id domain.CarID) (*domain.Car, error)
	PutCar(ctx context.Context, car *domain.Car) error
	DeleteCar(ctx context.Context, id domain.CarID) error

	Heartbeat(ctx context.Context, id domain.CarID) error
	PutCarState(ctx context.Context, id domain.CarID, state *domain.Telemetry) error
	GetCarState(ctx context.Context, id domain.CarID) (*domain.Telemetry, error)
}
