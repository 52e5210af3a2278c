package service

import (
	"context"

	"carlink/internal/domain"
	"carlink/internal/dto"
)

// CarService covers the session-authenticated car operations plus the
// unauthenticated heartbeat path. Every session-authenticated call returns
// the refreshed session token ("" when none was minted) which the transport
// must relay to the client.
type CarService interface {
	List(ctx context.Context, sessionToken string) (cars []domain.CarSummary, refreshed string, err error)
	Register(ctx context.Context, sessionToken, name string) (created *dto.CreateCarResponse, refreshed string, err error)
	Deregister(ctx context.Context, sessionToken string, id domain.CarID) (cars []domain.CarSummary, refreshed string, err error)

	Heartbeat(ctx context.Context, id domain.CarID) error
	ReportState(ctx context.Context, id domain.CarID, t *domain.Telemetry) error
}
