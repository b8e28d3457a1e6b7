package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"customerforge/internal/entity"
	"customerforge/internal/mapquest"
	"customerforge/internal/repository"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type CustomerConfig struct {
	GenderPreference string
	RadiusMiles      float64
}

// CustomerService assembles complete customer identities: generated name,
// disposable email, real address and a rented phone number, persisted as
// one record.
type CustomerService struct {
	customers     repository.CustomerRepository
	verifications *VerificationService
	email         EmailProvider
	addresses     AddressProvider
	config        CustomerConfig
	log           logrus.FieldLogger
}

func NewCustomerService(
	customers repository.CustomerRepository,
	verifications *VerificationService,
	email EmailProvider,
	addresses AddressProvider,
	config CustomerConfig,
	log logrus.FieldLogger,
) *CustomerService {
	return &CustomerService{
		customers:     customers,
		verifications: verifications,
		email:         email,
		addresses:     addresses,
		config:        config,
		log:           log,
	}
}

type CreateOptions struct {
	// CustomAddress pins the customer to a specific validated address.
	CustomAddress string
	// OriginAddress picks a real address near this location instead.
	OriginAddress string
	// SkipPhone creates the customer without renting a number.
	SkipPhone bool
}

// CreateCustomer generates and persists a new customer. Email and address
// providers are best-effort: when one is unreachable the customer still
// gets generated stand-in data, marked as such in the record.
func (s *CustomerService) CreateCustomer(ctx context.Context, opts CreateOptions) (*entity.Customer, error) {
	identity := GenerateIdentity(s.config.GenderPreference)

	customer := &entity.Customer{
		ID:        uuid.New(),
		FullName:  identity.FullName,
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
	}

	account, err := s.email.CreateAccount(ctx, identity.FirstName, identity.LastName)
	if err != nil {
		s.log.WithError(err).Warn("email provider unavailable, using generated address")
		customer.Email = strings.ToLower(fmt.Sprintf("%s.%s%d@%s",
			identity.FirstName, identity.LastName, gofakeit.Number(100, 9999), gofakeit.DomainName()))
		customer.Password = identity.Password
	} else {
		customer.Email = account.Email
		customer.Password = account.Password
	}

	s.applyAddress(ctx, customer, opts)

	metadata, _ := json.Marshal(map[string]string{
		"generation_method": "gofakeit",
		"gender_preference": s.config.GenderPreference,
	})
	customer.Metadata = metadata

	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("save customer: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"customer": customer.ID,
		"email":    customer.Email,
	}).Info("customer created")

	if !opts.SkipPhone {
		if _, err := s.rentAndAttach(ctx, customer.ID); err != nil {
			// The customer record is still useful without a number.
			s.log.WithError(err).WithField("customer", customer.ID).Warn("number rental failed")
		}
	}

	return s.customers.FindByID(ctx, customer.ID)
}

func (s *CustomerService) applyAddress(ctx context.Context, customer *entity.Customer, opts CreateOptions) {
	addr, err := s.lookupAddress(ctx, opts)
	if err != nil {
		s.log.WithError(err).Warn("address provider unavailable, using generated address")
		fake := gofakeit.Address()
		customer.FullAddress = fake.Address
		customer.AddressLine1 = fake.Street
		customer.City = fake.City
		customer.State = fake.State
		customer.ZipCode = fake.Zip
		customer.Latitude = &fake.Latitude
		customer.Longitude = &fake.Longitude
		customer.AddressSource = "generated_fallback"
		customer.AddressValidated = false
		return
	}

	customer.FullAddress = addr.FullAddress
	customer.AddressLine1 = addr.Line1
	customer.City = addr.City
	customer.State = addr.State
	customer.ZipCode = addr.ZipCode
	customer.Latitude = addr.Latitude
	customer.Longitude = addr.Longitude
	customer.AddressSource = addr.Source
	customer.AddressValidated = true
}

func (s *CustomerService) lookupAddress(ctx context.Context, opts CreateOptions) (*addressResult, error) {
	switch {
	case opts.CustomAddress != "":
		addr, err := s.addresses.ValidateAddress(ctx, opts.CustomAddress)
		if err != nil {
			return nil, err
		}
		return fromMapQuest(addr), nil
	case opts.OriginAddress != "":
		addr, err := s.addresses.RandomAddressNear(ctx, opts.OriginAddress, s.config.RadiusMiles)
		if err != nil {
			return nil, err
		}
		return fromMapQuest(addr), nil
	default:
		addr, err := s.addresses.RandomUSAddress(ctx)
		if err != nil {
			return nil, err
		}
		return fromMapQuest(addr), nil
	}
}

// PollForCustomer retrieves the SMS code for the customer's active number,
// persisting the outcome. On a confirmed code the history is appended
// exactly once; re-reads of an already-completed verification hit the
// dedupe in the repository.
func (s *CustomerService) PollForCustomer(ctx context.Context, customerID uuid.UUID, attempts int, interval time.Duration) (string, error) {
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return "", err
	}
	if customer == nil {
		return "", ErrUnknownCustomer
	}
	if customer.PrimaryVerificationID == nil {
		return "", ErrNoActiveNumber
	}

	// Verifications rented by an earlier process are not in memory yet.
	phone := ""
	if customer.PrimaryPhone != nil {
		phone = *customer.PrimaryPhone
	}
	s.verifications.Adopt(*customer.PrimaryVerificationID, phone)

	code, err := s.verifications.Poll(ctx, *customer.PrimaryVerificationID, attempts, interval)
	if err != nil || code == "" {
		return "", err
	}

	return code, s.recordCode(ctx, customer, code)
}

func (s *CustomerService) recordCode(ctx context.Context, customer *entity.Customer, code string) error {
	phone := ""
	if customer.PrimaryPhone != nil {
		phone = *customer.PrimaryPhone
	}
	logged, err := s.customers.LogSMS(ctx, customer.ID, phone, code)
	if err != nil {
		return err
	}
	if logged {
		s.log.WithFields(logrus.Fields{"customer": customer.ID, "phone": phone}).Info("sms code received")
	}
	return s.customers.UpdateVerification(ctx, customer.ID, true, code)
}

// AssignNewNumber replaces the customer's current number. The old
// verification is always cancelled first so no paid rental is orphaned.
func (s *CustomerService) AssignNewNumber(ctx context.Context, customerID uuid.UUID) (entity.Verification, error) {
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return entity.Verification{}, err
	}
	if customer == nil {
		return entity.Verification{}, ErrUnknownCustomer
	}

	if customer.PrimaryVerificationID != nil {
		old := *customer.PrimaryVerificationID
		// Rentals from an earlier process are not in memory; adopt them
		// so the cancel reaches the vendor for a refund. A genuinely
		// stale id comes back as a soft vendor error and is logged.
		phone := ""
		if customer.PrimaryPhone != nil {
			phone = *customer.PrimaryPhone
		}
		s.verifications.Adopt(old, phone)
		if _, err := s.verifications.Cancel(ctx, old); err != nil {
			s.log.WithError(err).WithField("id", old).Warn("cancel of previous number failed")
		}
	}

	return s.rentAndAttach(ctx, customerID)
}

func (s *CustomerService) rentAndAttach(ctx context.Context, customerID uuid.UUID) (entity.Verification, error) {
	verification, err := s.verifications.Create(ctx, "", 0)
	if err != nil {
		return entity.Verification{}, err
	}
	if err := s.customers.AssignNumber(ctx, customerID, verification.PhoneNumber, verification.ID); err != nil {
		return entity.Verification{}, err
	}
	return verification, nil
}

// addressResult normalizes provider addresses for applyAddress.
type addressResult struct {
	FullAddress string
	Line1       string
	City        string
	State       string
	ZipCode     string
	Latitude    *float64
	Longitude   *float64
	Source      string
}

func fromMapQuest(a *mapquest.Address) *addressResult {
	return &addressResult{
		FullAddress: a.FullAddress,
		Line1:       a.Line1,
		City:        a.City,
		State:       a.State,
		ZipCode:     a.ZipCode,
		Latitude:    a.Latitude,
		Longitude:   a.Longitude,
		Source:      a.Source,
	}
}
