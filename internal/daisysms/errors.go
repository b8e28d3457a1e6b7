package daisysms

import "errors"

var (
	ErrRemote               = errors.New("provider request failed")
	ErrBadKey               = errors.New("invalid api key")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrMaxPriceExceeded     = errors.New("max price exceeded")
	ErrNoNumbers            = errors.New("no numbers available")
	ErrTooManyActiveRentals = errors.New("too many active rentals")
)
