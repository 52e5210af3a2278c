package impl

import "errors"

var (
	ErrEmptyCarName   = errors.New("empty car name")
	ErrCarNameTooLong = errors.New("car name too long")
)
