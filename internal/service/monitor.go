package service

import (
	"context"
	"sync"
	"time"

	"customerforge/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MonitorUpdate is emitted once per watched verification that resolves.
type MonitorUpdate struct {
	CustomerID     uuid.UUID
	VerificationID string
	PhoneNumber    string
	Code           string
	TimedOut       bool
	Attempts       int
	WaitTime       time.Duration
}

type MonitorStats struct {
	Completed int
	Failed    int
	Remaining int
}

type watchEntry struct {
	customerID  uuid.UUID
	phoneNumber string
	startedAt   time.Time
	attempts    int
}

// Monitor sweeps all watched verifications with single-attempt polls.
// Single checks never cancel a rental, so a monitored number survives any
// number of sweeps until its code arrives or the watch window lapses.
type Monitor struct {
	customers     repository.CustomerRepository
	verifications *VerificationService
	clock         Clock
	log           logrus.FieldLogger

	// OnUpdate, when set, receives each resolved watch. Called from Run's
	// goroutine; presentation only.
	OnUpdate func(MonitorUpdate)

	mu      sync.Mutex
	watches map[string]*watchEntry
}

func NewMonitor(customers repository.CustomerRepository, verifications *VerificationService, clock Clock, log logrus.FieldLogger) *Monitor {
	return &Monitor{
		customers:     customers,
		verifications: verifications,
		clock:         clock,
		log:           log,
		watches:       make(map[string]*watchEntry),
	}
}

// Watch adds a verification to the sweep set.
func (m *Monitor) Watch(customerID uuid.UUID, verificationID, phoneNumber string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watches[verificationID] = &watchEntry{
		customerID:  customerID,
		phoneNumber: phoneNumber,
		startedAt:   m.clock.Now(),
	}
}

// WatchPending adds every stored customer with an active, unverified
// number to the sweep set, adopting verifications from earlier runs.
func (m *Monitor) WatchPending(ctx context.Context) (int, error) {
	customers, err := m.customers.List(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, c := range customers {
		if c.PrimaryVerificationID == nil || c.VerificationCompleted {
			continue
		}
		phone := ""
		if c.PrimaryPhone != nil {
			phone = *c.PrimaryPhone
		}
		m.verifications.Adopt(*c.PrimaryVerificationID, phone)
		m.Watch(c.ID, *c.PrimaryVerificationID, phone)
		count++
	}
	return count, nil
}

// Run sweeps until every watch resolves, the watch window lapses, or ctx
// is cancelled. An interrupt between sweeps loses nothing: verification
// state is whatever the last completed poll produced.
func (m *Monitor) Run(ctx context.Context, sweepInterval, watchWindow time.Duration) MonitorStats {
	stats := MonitorStats{}

	for {
		m.mu.Lock()
		remaining := len(m.watches)
		m.mu.Unlock()
		if remaining == 0 {
			return stats
		}

		m.sweep(ctx, watchWindow, &stats)

		if err := m.clock.Sleep(ctx, sweepInterval); err != nil {
			m.mu.Lock()
			stats.Remaining = len(m.watches)
			m.mu.Unlock()
			m.log.Info("monitoring stopped")
			return stats
		}
	}
}

func (m *Monitor) sweep(ctx context.Context, watchWindow time.Duration, stats *MonitorStats) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.watches))
	for id := range m.watches {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.mu.Lock()
		entry, ok := m.watches[id]
		m.mu.Unlock()
		if !ok {
			continue
		}
		entry.attempts++

		code, err := m.verifications.Poll(ctx, id, 1, 0)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.log.WithError(err).WithField("id", id).Warn("monitor poll failed")
			continue
		}

		waited := m.clock.Now().Sub(entry.startedAt)
		switch {
		case code != "":
			if _, err := m.customers.LogSMS(ctx, entry.customerID, entry.phoneNumber, code); err != nil {
				m.log.WithError(err).WithField("customer", entry.customerID).Error("log sms failed")
			}
			if err := m.customers.UpdateVerification(ctx, entry.customerID, true, code); err != nil {
				m.log.WithError(err).WithField("customer", entry.customerID).Error("update verification failed")
			}
			m.resolve(id)
			stats.Completed++
			m.notify(MonitorUpdate{
				CustomerID:     entry.customerID,
				VerificationID: id,
				PhoneNumber:    entry.phoneNumber,
				Code:           code,
				Attempts:       entry.attempts,
				WaitTime:       waited,
			})

		case waited > watchWindow:
			m.resolve(id)
			stats.Failed++
			m.notify(MonitorUpdate{
				CustomerID:     entry.customerID,
				VerificationID: id,
				PhoneNumber:    entry.phoneNumber,
				TimedOut:       true,
				Attempts:       entry.attempts,
				WaitTime:       waited,
			})
		}
	}
}

func (m *Monitor) resolve(id string) {
	m.mu.Lock()
	delete(m.watches, id)
	m.mu.Unlock()
}

func (m *Monitor) notify(update MonitorUpdate) {
	if m.OnUpdate != nil {
		m.OnUpdate(update)
	}
}
