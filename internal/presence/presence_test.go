package presence

import (
	"testing"
	"time"

	"carlink/internal/domain"
)

func TestClassify(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	ago := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	tests := []struct {
		name     string
		lastSeen *time.Time
		want     domain.CarStatus
	}{
		{"never seen", nil, domain.CarOffline},
		{"just seen", ago(0), domain.CarOnline},
		{"one minute ago", ago(60 * time.Second), domain.CarOnline},
		{"exactly at window", ago(Window), domain.CarOnline},
		{"one second past window", ago(Window + time.Second), domain.CarOffline},
		{"long stale", ago(time.Hour), domain.CarOffline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.lastSeen, now, Window); got != tt.want {
				t.Fatalf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}
