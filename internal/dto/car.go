package dto

import "carlink/internal/domain"

type GetCarsResponse struct {
	Cars []domain.CarSummary `json:"cars"`
}

type CreateCarRequest struct {
	Name string `json:"name"`
}

// CreateCarResponse carries the generated plaintext secret exactly once; only
// its hash is ever persisted.
type CreateCarResponse struct {
	UUID   string `json:"uuid"`
	Name   string `json:"name"`
	Secret string `json:"secret"`
}

type TelemetryRequest struct {
	Telemetry domain.Telemetry `json:"telemetry"`
}
