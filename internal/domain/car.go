package domain

import "time"

// MaxCarNameLen bounds the display name accepted at registration.
const MaxCarNameLen = 64

// MaxCarsPerAccount is the registration quota enforced per owning account.
const MaxCarsPerAccount = 2

type Car struct {
	UUID          CarID      `gorm:"type:uuid;primaryKey" db:"uuid" json:"uuid"`
	Name          string     `gorm:"type:text;not null" db:"name" json:"name"`
	SecretHash    []byte     `gorm:"type:bytea;not null" db:"secret_hash" json:"-"`
	SecretSalt    []byte     `gorm:"type:bytea;not null" db:"secret_salt" json:"-"`
	SecretParams  []byte     `gorm:"type:jsonb;not null" db:"secret_params" json:"-"`
	OwnerEmail    string     `gorm:"type:citext;index;not null" db:"owner_email" json:"ownerEmail"`
	LastPing      *time.Time `db:"last_ping" json:"-"`
	StateSnapshot []byte     `gorm:"type:jsonb" db:"state_snapshot" json:"-"`
	CreatedAt     time.Time  `gorm:"not null" db:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" db:"updated_at"`
}

func (Car) TableName() string { return "cars" }

type CarStatus string

const (
	CarOnline  CarStatus = "online"
	CarOffline CarStatus = "offline"
)

// CarSummary is what listing exposes: notably a derived status, never the raw
// last-ping timestamp.
type CarSummary struct {
	UUID   CarID     `json:"uuid"`
	Name   string    `json:"name"`
	Status CarStatus `json:"status"`
}
