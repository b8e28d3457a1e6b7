package service

import (
	"context"
	"sync"
	"time"

	"customerforge/internal/daisysms"
	"customerforge/internal/entity"

	"github.com/sirupsen/logrus"
)

type VerificationConfig struct {
	ServiceCode        string
	MaxPrice           float64
	Country            int
	VerificationWindow time.Duration
	PollInterval       time.Duration
}

// VerificationService owns the lifecycle of every rented number: rent,
// poll, complete, cancel. It is the only mutator of the verification map;
// transitions are serialized under the mutex because cancel/complete are
// check-then-act.
type VerificationService struct {
	provider RentalProvider
	clock    Clock
	config   VerificationConfig
	log      logrus.FieldLogger

	mu            sync.Mutex
	verifications map[string]*entity.Verification
}

func NewVerificationService(provider RentalProvider, clock Clock, config VerificationConfig, log logrus.FieldLogger) *VerificationService {
	return &VerificationService{
		provider:      provider,
		clock:         clock,
		config:        config,
		log:           log,
		verifications: make(map[string]*entity.Verification),
	}
}

// Create rents a number and registers a verification in status Rented.
// Empty serviceCode or zero maxPrice fall back to the configured defaults.
// The timeout window is fixed here and never extended.
func (s *VerificationService) Create(ctx context.Context, serviceCode string, maxPrice float64) (entity.Verification, error) {
	if serviceCode == "" {
		serviceCode = s.config.ServiceCode
	}
	if maxPrice <= 0 {
		maxPrice = s.config.MaxPrice
	}

	grant, err := s.provider.RentNumber(ctx, serviceCode, maxPrice, s.config.Country)
	if err != nil {
		return entity.Verification{}, err
	}

	now := s.clock.Now()
	v := &entity.Verification{
		ID:          grant.VerificationID,
		PhoneNumber: grant.PhoneNumber,
		ServiceCode: serviceCode,
		Country:     s.config.Country,
		MaxPrice:    maxPrice,
		Status:      entity.VerificationRented,
		CreatedAt:   now,
		TimeoutAt:   now.Add(s.config.VerificationWindow),
	}

	s.mu.Lock()
	s.verifications[v.ID] = v
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"id":      v.ID,
		"number":  v.PhoneNumber,
		"service": serviceCode,
	}).Info("verification created")

	return *v, nil
}

// Adopt registers a verification rented by an earlier process, under a
// fresh window. Already-known ids are returned as-is.
func (s *VerificationService) Adopt(id, phoneNumber string) entity.Verification {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.verifications[id]; ok {
		return *v
	}
	now := s.clock.Now()
	v := &entity.Verification{
		ID:          id,
		PhoneNumber: phoneNumber,
		ServiceCode: s.config.ServiceCode,
		Country:     s.config.Country,
		MaxPrice:    s.config.MaxPrice,
		Status:      entity.VerificationRented,
		CreatedAt:   now,
		TimeoutAt:   now.Add(s.config.VerificationWindow),
	}
	s.verifications[id] = v
	return *v
}

// Get returns a snapshot of a verification.
func (s *VerificationService) Get(id string) (entity.Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.verifications[id]
	if !ok {
		return entity.Verification{}, ErrUnknownVerification
	}
	return *v, nil
}

// Active returns snapshots of all verifications still in status Rented.
func (s *VerificationService) Active() []entity.Verification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Verification
	for _, v := range s.verifications {
		if v.Status == entity.VerificationRented {
			out = append(out, *v)
		}
	}
	return out
}

// Poll checks for the SMS code, retrying up to attempts times with the
// given interval between checks. It returns the code, or "" when the
// verification ended without one.
//
// Already-terminal verifications short-circuit without a network call:
// Cancelled always yields "", Completed always yields the cached code.
//
// Exhausting a multi-attempt poll cancels the rental for a refund.
// A single-attempt check (attempts == 1) never does: the caller may simply
// be peeking and intends to check again later, and cancelling would throw
// away a still-paid-for rental.
func (s *VerificationService) Poll(ctx context.Context, id string, attempts int, interval time.Duration) (string, error) {
	if interval <= 0 {
		interval = s.config.PollInterval
	}
	// At least one iteration always runs so unknown ids and terminal
	// states are reported even for a zero-attempt call.
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		s.mu.Lock()
		v, ok := s.verifications[id]
		if !ok {
			s.mu.Unlock()
			return "", ErrUnknownVerification
		}
		switch v.Status {
		case entity.VerificationCancelled:
			s.mu.Unlock()
			return "", nil
		case entity.VerificationCompleted:
			code := v.SMSCode
			s.mu.Unlock()
			return code, nil
		}
		timedOut := s.clock.Now().After(v.TimeoutAt)
		s.mu.Unlock()

		if timedOut {
			s.log.WithField("id", id).Warn("verification timed out")
			if _, err := s.Cancel(ctx, id); err != nil {
				s.log.WithError(err).WithField("id", id).Warn("cancel after timeout failed")
			}
			return "", nil
		}

		result, err := s.provider.PollStatus(ctx, id)
		if err != nil {
			// Transport failures never advance verification status.
			return "", err
		}

		switch result.Kind {
		case daisysms.KindCodeReady:
			if s.complete(id, result.Code) {
				s.provider.MarkDone(ctx, id)
			}
			return result.Code, nil

		case daisysms.KindWaiting:
			if err := s.clock.Sleep(ctx, interval); err != nil {
				return "", err
			}

		case daisysms.KindCancelled:
			s.markCancelled(id)
			s.log.WithField("id", id).Info("verification cancelled by vendor")
			return "", nil

		case daisysms.KindNotFound:
			// Ambiguous: the id may be stale or foreign. Leave status
			// alone rather than firing a refund against an id that may
			// not be ours.
			s.log.WithField("id", id).Warn("vendor reports no activation")
			return "", nil

		default:
			if code, ok := daisysms.ExtractCode(result.Raw); ok {
				if s.complete(id, code) {
					s.provider.MarkDone(ctx, id)
				}
				return code, nil
			}
			s.log.WithFields(logrus.Fields{"id": id, "reply": result.Raw}).Warn("unparsed vendor reply")
			if err := s.clock.Sleep(ctx, interval); err != nil {
				return "", err
			}
		}
	}

	if attempts > 1 {
		s.log.WithField("id", id).Warn("no code after all attempts, cancelling")
		if _, err := s.Cancel(ctx, id); err != nil {
			s.log.WithError(err).WithField("id", id).Warn("cancel after exhaustion failed")
		}
	}
	return "", nil
}

// Cancel ends a verification for a refund. Idempotent from the caller's
// viewpoint: a second cancel on an already-cancelled verification returns
// true without touching the network. A vendor reply that the rental was
// already finalized leaves local status unchanged and returns false.
func (s *VerificationService) Cancel(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	v, ok := s.verifications[id]
	if !ok {
		s.mu.Unlock()
		return false, ErrUnknownVerification
	}
	if v.Status == entity.VerificationCancelled {
		s.mu.Unlock()
		return true, nil
	}
	s.mu.Unlock()

	refunded, err := s.provider.Cancel(ctx, id)
	if err != nil {
		return false, err
	}
	if refunded {
		s.markCancelled(id)
		s.log.WithField("id", id).Info("verification cancelled, refund issued")
	}
	return refunded, nil
}

// CleanupExpired cancels every non-terminal verification past its window.
func (s *VerificationService) CleanupExpired(ctx context.Context) int {
	now := s.clock.Now()

	s.mu.Lock()
	var expired []string
	for id, v := range s.verifications {
		if !v.Terminal() && now.After(v.TimeoutAt) {
			expired = append(expired, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		if _, err := s.Cancel(ctx, id); err != nil {
			s.log.WithError(err).WithField("id", id).Warn("expired cleanup cancel failed")
		}
	}
	return len(expired)
}

// Summary reports balance and verification counts for status displays.
type Summary struct {
	Balance   float64
	Active    int
	Completed int
	Cancelled int
	Total     int
}

func (s *VerificationService) Summary(ctx context.Context) (Summary, error) {
	balance, err := s.provider.Balance(ctx)
	if err != nil {
		return Summary{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := Summary{Balance: balance, Total: len(s.verifications)}
	for _, v := range s.verifications {
		switch v.Status {
		case entity.VerificationRented:
			out.Active++
		case entity.VerificationCompleted:
			out.Completed++
		case entity.VerificationCancelled:
			out.Cancelled++
		}
	}
	return out, nil
}

// complete transitions to Completed exactly once; a second caller loses
// the race and must not re-finalize.
func (s *VerificationService) complete(id, code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.verifications[id]
	if !ok || v.Terminal() {
		return false
	}
	now := s.clock.Now()
	v.Status = entity.VerificationCompleted
	v.SMSCode = code
	v.CompletedAt = &now
	return true
}

func (s *VerificationService) markCancelled(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.verifications[id]
	if !ok || v.Status == entity.VerificationCompleted {
		return
	}
	if v.Status != entity.VerificationCancelled {
		now := s.clock.Now()
		v.Status = entity.VerificationCancelled
		v.CancelledAt = &now
	}
}
