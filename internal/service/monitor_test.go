package service

import (
	"context"
	"testing"
	"time"

	"customerforge/internal/daisysms"
	"customerforge/internal/entity"

	"github.com/google/uuid"
)

func TestMonitorResolvesOnCode(t *testing.T) {
	provider := &fakeProvider{
		grant: daisysms.Grant{VerificationID: "555", PhoneNumber: "12025550123"},
		results: []daisysms.Result{
			{Kind: daisysms.KindWaiting},
			{Kind: daisysms.KindWaiting},
			{Kind: daisysms.KindCodeReady, Code: "482913"},
		},
	}
	clock := &fakeClock{now: time.Now()}
	verifications := newTestService(provider, clock)
	repo := newMemRepo()
	monitor := NewMonitor(repo, verifications, clock, testLogger())

	v, err := verifications.Create(context.Background(), "", 0)
	if err != nil {
		t.Fatal(err)
	}
	customerID := uuid.New()
	if err := repo.Create(context.Background(), customerEntity(customerID)); err != nil {
		t.Fatal(err)
	}

	var updates []MonitorUpdate
	monitor.OnUpdate = func(u MonitorUpdate) { updates = append(updates, u) }
	monitor.Watch(customerID, v.ID, v.PhoneNumber)

	stats := monitor.Run(context.Background(), 5*time.Second, time.Hour)

	if stats.Completed != 1 || stats.Failed != 0 || stats.Remaining != 0 {
		t.Errorf("stats = %+v, want 1 completed", stats)
	}
	if len(updates) != 1 || updates[0].Code != "482913" || updates[0].TimedOut {
		t.Errorf("updates = %+v, want one with code 482913", updates)
	}
	if updates[0].Attempts != 3 {
		t.Errorf("attempts = %d, want 3 sweeps before the code arrived", updates[0].Attempts)
	}
	if n := repo.smsCount(customerID); n != 1 {
		t.Errorf("sms history rows = %d, want 1", n)
	}
	if provider.cancels != 0 {
		t.Errorf("monitoring cancelled %d rentals, want 0: sweeps are single checks", provider.cancels)
	}
}

func TestMonitorTimesOutWithoutCancelling(t *testing.T) {
	provider := &fakeProvider{
		grant:   daisysms.Grant{VerificationID: "555", PhoneNumber: "12025550123"},
		results: []daisysms.Result{{Kind: daisysms.KindWaiting}},
	}
	clock := &fakeClock{now: time.Now()}
	verifications := newTestService(provider, clock)
	repo := newMemRepo()
	monitor := NewMonitor(repo, verifications, clock, testLogger())

	v, err := verifications.Create(context.Background(), "", 0)
	if err != nil {
		t.Fatal(err)
	}
	customerID := uuid.New()
	if err := repo.Create(context.Background(), customerEntity(customerID)); err != nil {
		t.Fatal(err)
	}

	var updates []MonitorUpdate
	monitor.OnUpdate = func(u MonitorUpdate) { updates = append(updates, u) }
	monitor.Watch(customerID, v.ID, v.PhoneNumber)

	stats := monitor.Run(context.Background(), 10*time.Second, 25*time.Second)

	if stats.Failed != 1 || stats.Completed != 0 {
		t.Errorf("stats = %+v, want 1 failed", stats)
	}
	if len(updates) != 1 || !updates[0].TimedOut {
		t.Errorf("updates = %+v, want one timed-out", updates)
	}
	// The rental itself is left alone: the verification window, not the
	// watch window, decides when to cancel.
	if provider.cancels != 0 {
		t.Errorf("watch expiry cancelled %d rentals, want 0", provider.cancels)
	}
}

func TestMonitorStopsOnContextCancel(t *testing.T) {
	provider := &fakeProvider{
		grant:   daisysms.Grant{VerificationID: "555", PhoneNumber: "12025550123"},
		results: []daisysms.Result{{Kind: daisysms.KindWaiting}},
	}
	clock := &fakeClock{now: time.Now()}
	verifications := newTestService(provider, clock)
	repo := newMemRepo()
	monitor := NewMonitor(repo, verifications, clock, testLogger())

	v, err := verifications.Create(context.Background(), "", 0)
	if err != nil {
		t.Fatal(err)
	}
	monitor.Watch(uuid.New(), v.ID, v.PhoneNumber)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats := monitor.Run(ctx, time.Second, time.Hour)
	if stats.Remaining != 1 {
		t.Errorf("stats = %+v, want the unresolved watch reported as remaining", stats)
	}
}

func TestWatchPendingSelectsUnverified(t *testing.T) {
	provider := &fakeProvider{
		results: []daisysms.Result{{Kind: daisysms.KindCodeReady, Code: "482913"}},
	}
	clock := &fakeClock{now: time.Now()}
	verifications := newTestService(provider, clock)
	repo := newMemRepo()
	monitor := NewMonitor(repo, verifications, clock, testLogger())
	ctx := context.Background()

	pending := customerEntity(uuid.New())
	phone, vid := "12025550123", "from-last-run"
	pending.PrimaryPhone = &phone
	pending.PrimaryVerificationID = &vid

	done := customerEntity(uuid.New())
	doneVid := "already-done"
	done.PrimaryVerificationID = &doneVid
	done.VerificationCompleted = true

	phoneless := customerEntity(uuid.New())

	for _, c := range []*entity.Customer{pending, done, phoneless} {
		if err := repo.Create(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	count, err := monitor.WatchPending(ctx)
	if err != nil {
		t.Fatalf("WatchPending() error: %v", err)
	}
	if count != 1 {
		t.Fatalf("watched %d customers, want only the pending one", count)
	}

	stats := monitor.Run(ctx, time.Second, time.Hour)
	if stats.Completed != 1 {
		t.Errorf("stats = %+v, want the adopted verification completed", stats)
	}
}

func customerEntity(id uuid.UUID) *entity.Customer {
	return &entity.Customer{ID: id, FullName: "Dana Smith", Email: id.String() + "@x.example"}
}
