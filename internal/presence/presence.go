// Package presence derives a car's online/offline classification from the
// recency of its last heartbeat.
package presence

import (
	"time"

	"carlink/internal/domain"
)

// Window is how recent a heartbeat must be for a car to count as online.
const Window = 2 * time.Minute

// SweepMaxAge bounds how long a stale presence record may linger before the
// background sweep evicts it. It is deliberately larger than Window: the
// freshness check below is the online/offline authority, the sweep only
// bounds memory.
const SweepMaxAge = 5 * time.Minute

// Classify reports Online iff a last-seen timestamp exists and is at most
// window old. The boundary is inclusive: a heartbeat exactly window ago is
// still Online.
func Classify(lastSeen *time.Time, now time.Time, window time.Duration) domain.CarStatus {
	if lastSeen == nil {
		return domain.CarOffline
	}
	if now.Sub(*lastSeen) > window {
		return domain.CarOffline
	}
	return domain.CarOnline
}
