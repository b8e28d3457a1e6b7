package service

import (
	"context"
	"time"

	"customerforge/internal/daisysms"
	"customerforge/internal/mailtm"
	"customerforge/internal/mapquest"
)

// RentalProvider is the phone-rental vendor as the verification service
// sees it. The daisysms client satisfies it; tests substitute a fake.
type RentalProvider interface {
	Balance(ctx context.Context) (float64, error)
	RentNumber(ctx context.Context, service string, maxPrice float64, country int) (daisysms.Grant, error)
	PollStatus(ctx context.Context, verificationID string) (daisysms.Result, error)
	MarkDone(ctx context.Context, verificationID string) bool
	Cancel(ctx context.Context, verificationID string) (bool, error)
}

// EmailProvider creates disposable email accounts for new customers.
type EmailProvider interface {
	CreateAccount(ctx context.Context, firstName, lastName string) (mailtm.Account, error)
}

// AddressProvider supplies and validates real street addresses.
type AddressProvider interface {
	ValidateAddress(ctx context.Context, address string) (*mapquest.Address, error)
	RandomAddressNear(ctx context.Context, origin string, radiusMiles float64) (*mapquest.Address, error)
	RandomUSAddress(ctx context.Context) (*mapquest.Address, error)
}

type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
