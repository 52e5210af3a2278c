package domain

import "time"

// PresenceRecord is the volatile per-car liveness marker kept by the hybrid
// backend. LastSeen is refreshed on every heartbeat; Telemetry is whatever
// the car last reported, if anything.
type PresenceRecord struct {
	LastSeen  time.Time
	Telemetry *Telemetry
}
