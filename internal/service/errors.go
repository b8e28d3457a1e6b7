package service

import "errors"

var (
	ErrUnknownVerification = errors.New("unknown verification id")
	ErrUnknownCustomer     = errors.New("unknown customer")
	ErrNoActiveNumber      = errors.New("customer has no active number")
)
