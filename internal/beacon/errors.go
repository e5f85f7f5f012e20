package beacon

import "errors"

var (
	ErrTooShort  = errors.New("beacon payload too short")
	ErrBadMagic  = errors.New("not a soulstar beacon")
	ErrMalformed = errors.New("malformed beacon payload")
)
