package domain

import "errors"

var (
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrNoSuchChallenge = errors.New("no such challenge")
	ErrCodeMismatch    = errors.New("code mismatch")
	ErrTooManyCars     = errors.New("car quota reached")
	ErrCarNotFound     = errors.New("car not found")
)
