package entity

import "time"

type VerificationStatus string

const (
	VerificationRented    VerificationStatus = "rented"
	VerificationCompleted VerificationStatus = "completed"
	VerificationCancelled VerificationStatus = "cancelled"
)

// Verification is one rented phone number plus its SMS-code-retrieval
// lifecycle. It lives in memory for the duration of the rental; only the
// finalized outcome is persisted onto the customer record.
type Verification struct {
	ID          string
	PhoneNumber string

	ServiceCode string
	Country     int
	MaxPrice    float64

	Status  VerificationStatus
	SMSCode string

	CreatedAt   time.Time
	TimeoutAt   time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

// Terminal reports whether the verification can no longer change state.
func (v *Verification) Terminal() bool {
	return v.Status == VerificationCompleted || v.Status == VerificationCancelled
}
