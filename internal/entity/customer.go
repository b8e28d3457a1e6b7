package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Customer struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName  string    `gorm:"type:varchar(255);not null;index"`
	FirstName string    `gorm:"type:varchar(100)"`
	LastName  string    `gorm:"type:varchar(100)"`

	Email    string `gorm:"type:varchar(255);uniqueIndex;not null"`
	Password string `gorm:"type:text"`

	FullAddress      string `gorm:"type:text"`
	AddressLine1     string `gorm:"type:varchar(255)"`
	City             string `gorm:"type:varchar(100)"`
	State            string `gorm:"type:varchar(10)"`
	ZipCode          string `gorm:"type:varchar(10)"`
	Latitude         *float64
	Longitude        *float64
	AddressSource    string `gorm:"type:varchar(50)"`
	AddressValidated bool

	PrimaryPhone          *string `gorm:"type:varchar(20);index"`
	PrimaryVerificationID *string `gorm:"type:varchar(50);index"`
	VerificationCompleted bool
	VerificationCode      *string `gorm:"type:varchar(20)"`

	Metadata datatypes.JSON `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time

	PhoneNumbers []PhoneNumber `gorm:"constraint:OnDelete:CASCADE"`
	SMSMessages  []SMSMessage  `gorm:"constraint:OnDelete:CASCADE"`
}

// PhoneNumber is one rented number in a customer's history. Numbers are
// never removed; replacing a number demotes the old rows to non-primary.
type PhoneNumber struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index"`

	PhoneNumber    string `gorm:"type:varchar(20);not null"`
	VerificationID string `gorm:"type:varchar(50);not null"`
	IsPrimary      bool
	Status         string `gorm:"type:varchar(20);default:'active'"`

	CreatedAt time.Time
}

// SMSMessage is an append-only history entry for a received code.
type SMSMessage struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index"`

	PhoneNumber string `gorm:"type:varchar(20)"`
	SMSCode     string `gorm:"type:varchar(20);not null"`
	ServiceUsed string `gorm:"type:varchar(50);default:'daisysms'"`

	ReceivedAt time.Time
}
