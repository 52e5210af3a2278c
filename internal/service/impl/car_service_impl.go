package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"carlink/internal/domain"
	"carlink/internal/dto"
	"carlink/internal/observability/metrics"
	"carlink/internal/service"
	"carlink/internal/store"
	"carlink/internal/token"

	"github.com/google/uuid"
)

var _ service.CarService = (*CarServiceImpl)(nil)

// uuidRetries bounds the fetch-then-insert uniqueness check; the combination
// is not atomic, so a collision retries with a fresh id.
const uuidRetries = 3

type CarServiceImpl struct {
	gateway store.Gateway
	tokens  *token.Authority
	secrets service.SecretService
	now     func() time.Time
}

func NewCarServiceImpl(gw store.Gateway, tokens *token.Authority, secrets service.SecretService) *CarServiceImpl {
	return &CarServiceImpl{
		gateway: gw,
		tokens:  tokens,
		secrets: secrets,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (c *CarServiceImpl) List(ctx context.Context, sessionToken string) ([]domain.CarSummary, string, error) {
	claims, refreshed, err := c.authorize(sessionToken)
	if err != nil {
		return nil, "", err
	}
	cars, err := c.gateway.ListCarsFor(ctx, claims.Email)
	if err != nil {
		return nil, "", err
	}
	return cars, refreshed, nil
}

func (c *CarServiceImpl) Register(ctx context.Context, sessionToken, name string) (*dto.CreateCarResponse, string, error) {
	claims, refreshed, err := c.authorize(sessionToken)
	if err != nil {
		return nil, "", err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", ErrEmptyCarName
	}
	if len(name) > domain.MaxCarNameLen {
		return nil, "", ErrCarNameTooLong
	}

	existing, err := c.gateway.ListCarsFor(ctx, claims.Email)
	if err != nil {
		return nil, "", err
	}
	if len(existing) >= domain.MaxCarsPerAccount {
		return nil, "", domain.ErrTooManyCars
	}

	id, err := c.freshCarID(ctx)
	if err != nil {
		return nil, "", err
	}

	plaintext, hash, salt, params, err := c.secrets.Generate()
	if err != nil {
		return nil, "", err
	}

	car := &domain.Car{
		UUID:         id,
		Name:         name,
		SecretHash:   hash,
		SecretSalt:   salt,
		SecretParams: params,
		OwnerEmail:   claims.Email,
	}
	if err := c.gateway.PutCar(ctx, car); err != nil {
		return nil, "", err
	}

	slog.Info("car registered", "car_id", id, "owner", claims.Email)
	return &dto.CreateCarResponse{
		UUID:   id.String(),
		Name:   name,
		Secret: plaintext,
	}, refreshed, nil
}

func (c *CarServiceImpl) Deregister(ctx context.Context, sessionToken string, id domain.CarID) ([]domain.CarSummary, string, error) {
	claims, refreshed, err := c.authorize(sessionToken)
	if err != nil {
		return nil, "", err
	}

	car, err := c.gateway.FetchCar(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if car != nil {
		if car.OwnerEmail != claims.Email {
			// Not the owner; report the same as absent.
			return nil, "", domain.ErrCarNotFound
		}
		if err := c.gateway.DeleteCar(ctx, id); err != nil {
			return nil, "", err
		}
		slog.Info("car deregistered", "car_id", id, "owner", claims.Email)
	}

	cars, err := c.gateway.ListCarsFor(ctx, claims.Email)
	if err != nil {
		return nil, "", err
	}
	return cars, refreshed, nil
}

func (c *CarServiceImpl) Heartbeat(ctx context.Context, id domain.CarID) error {
	result := "success"
	defer func() {
		metrics.HeartbeatsTotal.WithLabelValues(result).Inc()
	}()
	if err := c.gateway.Heartbeat(ctx, id); err != nil {
		result = "failure"
		return err
	}
	return nil
}

func (c *CarServiceImpl) ReportState(ctx context.Context, id domain.CarID, t *domain.Telemetry) error {
	return c.gateway.PutCarState(ctx, id, t)
}

func (c *CarServiceImpl) authorize(sessionToken string) (*token.SessionClaims, string, error) {
	claims, refreshed, err := c.tokens.ValidateAndRefresh(sessionToken)
	if err != nil {
		return nil, "", err
	}
	if refreshed != "" {
		metrics.TokensRefreshedTotal.WithLabelValues().Inc()
	}
	return claims, refreshed, nil
}

func (c *CarServiceImpl) freshCarID(ctx context.Context) (domain.CarID, error) {
	for i := 0; i < uuidRetries; i++ {
		id := uuid.New()
		existing, err := c.gateway.FetchCar(ctx, id)
		if err != nil {
			return uuid.Nil, err
		}
		if existing == nil {
			return id, nil
		}
	}
	return uuid.Nil, store.ErrServer
}
