package domain

import "time"

type Account struct {
	Email      string    `gorm:"type:citext;primaryKey" db:"email" json:"email"`
	LastSignin time.Time `gorm:"not null" db:"last_signin" json:"lastSignin"`
	CreatedAt  time.Time `gorm:"not null" db:"created_at" json:"createdAt"`
}

func (Account) TableName() string { return "accounts" }

// OneTimeCode is the durable form of a login code. The hybrid backend never
// persists these; it keeps them in the volatile store instead.
type OneTimeCode struct {
	Email     string    `gorm:"type:citext;primaryKey" db:"email"`
	Code      string    `gorm:"type:text;not null" db:"code"`
	CreatedAt time.Time `gorm:"not null" db:"created_at"`
}

func (OneTimeCode) TableName() string { return "one_time_codes" }
