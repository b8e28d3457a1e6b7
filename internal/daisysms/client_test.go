package daisysms

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// vendorStub serves scripted text replies and records incoming queries.
type vendorStub struct {
	replies map[string]string // keyed by action
	headers map[string]string
	queries []map[string]string
	calls   map[string]int
}

func newVendorStub() *vendorStub {
	return &vendorStub{
		replies: map[string]string{},
		headers: map[string]string{},
		calls:   map[string]int{},
	}
}

func (v *vendorStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := map[string]string{}
		for k := range r.URL.Query() {
			q[k] = r.URL.Query().Get(k)
		}
		v.queries = append(v.queries, q)
		action := q["action"]
		v.calls[action]++
		for k, val := range v.headers {
			w.Header().Set(k, val)
		}
		io.WriteString(w, v.replies[action])
	}
}

func newTestClient(t *testing.T, stub *vendorStub) *Client {
	t.Helper()
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)
	return NewClient("test-key", srv.URL, testLogger())
}

func TestBalanceParsesAndCaches(t *testing.T) {
	stub := newVendorStub()
	stub.replies["getBalance"] = "ACCESS_BALANCE:12.34"
	client := newTestClient(t, stub)

	for i := 0; i < 3; i++ {
		balance, err := client.Balance(context.Background())
		if err != nil {
			t.Fatalf("Balance() error: %v", err)
		}
		if balance != 12.34 {
			t.Fatalf("Balance() = %v, want 12.34", balance)
		}
	}

	if stub.calls["getBalance"] != 1 {
		t.Errorf("getBalance called %d times, want 1 (cached)", stub.calls["getBalance"])
	}
}

func TestBalanceBadKey(t *testing.T) {
	stub := newVendorStub()
	stub.replies["getBalance"] = "BAD_KEY"
	client := newTestClient(t, stub)

	if _, err := client.Balance(context.Background()); !errors.Is(err, ErrBadKey) {
		t.Errorf("Balance() error = %v, want ErrBadKey", err)
	}
}

func TestRentNumber(t *testing.T) {
	stub := newVendorStub()
	stub.replies["getBalance"] = "ACCESS_BALANCE:5.00"
	stub.replies["getNumber"] = "ACCESS_NUMBER:555:12025550123"
	client := newTestClient(t, stub)

	grant, err := client.RentNumber(context.Background(), "ac", 0.50, 0)
	if err != nil {
		t.Fatalf("RentNumber() error: %v", err)
	}
	if grant.VerificationID != "555" || grant.PhoneNumber != "12025550123" {
		t.Errorf("grant = %+v, want id 555 number 12025550123", grant)
	}

	last := stub.queries[len(stub.queries)-1]
	if last["service"] != "ac" {
		t.Errorf("service param = %q, want ac", last["service"])
	}
	if last["max_price"] != "0.50" {
		t.Errorf("max_price param = %q, want 0.50", last["max_price"])
	}
	if _, present := last["country"]; present {
		t.Error("country param should be omitted for country 0")
	}
}

func TestRentNumberLocalBalancePrecheck(t *testing.T) {
	stub := newVendorStub()
	stub.replies["getBalance"] = "ACCESS_BALANCE:0.10"
	client := newTestClient(t, stub)

	_, err := client.RentNumber(context.Background(), "ac", 0.50, 0)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("error = %v, want ErrInsufficientBalance", err)
	}
	if stub.calls["getNumber"] != 0 {
		t.Error("getNumber should not be called when the cached balance is too low")
	}
}

func TestRentNumberVendorRejections(t *testing.T) {
	tests := []struct {
		reply string
		want  error
	}{
		{"MAX_PRICE_EXCEEDED", ErrMaxPriceExceeded},
		{"NO_NUMBERS", ErrNoNumbers},
		{"TOO_MANY_ACTIVE_RENTALS", ErrTooManyActiveRentals},
		{"NO_MONEY", ErrInsufficientBalance},
		{"BAD_KEY", ErrBadKey},
		{"SOMETHING_ELSE", ErrRemote},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			stub := newVendorStub()
			stub.replies["getBalance"] = "ACCESS_BALANCE:5.00"
			stub.replies["getNumber"] = tt.reply
			client := newTestClient(t, stub)

			_, err := client.RentNumber(context.Background(), "ac", 0.50, 0)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPollStatusRequestsSideChannel(t *testing.T) {
	stub := newVendorStub()
	stub.replies["getStatus"] = "STATUS_WAIT_CODE"
	client := newTestClient(t, stub)

	result, err := client.PollStatus(context.Background(), "555")
	if err != nil {
		t.Fatalf("PollStatus() error: %v", err)
	}
	if result.Kind != KindWaiting {
		t.Errorf("kind = %s, want %s", result.Kind, KindWaiting)
	}

	last := stub.queries[len(stub.queries)-1]
	if last["text"] != "1" {
		t.Errorf("text param = %q, want 1", last["text"])
	}
	if last["id"] != "555" {
		t.Errorf("id param = %q, want 555", last["id"])
	}
}

func TestPollStatusUsesHeaderText(t *testing.T) {
	stub := newVendorStub()
	stub.replies["getStatus"] = "FULL_SMS"
	stub.headers["X-Text"] = "Your code is 884422"
	client := newTestClient(t, stub)

	result, err := client.PollStatus(context.Background(), "555")
	if err != nil {
		t.Fatalf("PollStatus() error: %v", err)
	}
	if result.Kind != KindCodeReady || result.Code != "884422" {
		t.Errorf("result = %+v, want side-channel code 884422", result)
	}
}

func TestPollStatusTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	client := NewClient("test-key", srv.URL, testLogger())

	if _, err := client.PollStatus(context.Background(), "555"); !errors.Is(err, ErrRemote) {
		t.Errorf("error = %v, want ErrRemote", err)
	}
}

func TestCancel(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    bool
		wantErr bool
	}{
		{"refunded", "ACCESS_CANCEL", true, false},
		{"already finalized", "ACCESS_READY", false, false},
		{"unexpected", "NO_ACTIVATION", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newVendorStub()
			stub.replies["setStatus"] = tt.reply
			client := newTestClient(t, stub)

			ok, err := client.Cancel(context.Background(), "555")
			if ok != tt.want {
				t.Errorf("Cancel() = %v, want %v", ok, tt.want)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("Cancel() error = %v, wantErr %v", err, tt.wantErr)
			}
			last := stub.queries[len(stub.queries)-1]
			if last["status"] != "8" {
				t.Errorf("status param = %q, want 8", last["status"])
			}
		})
	}
}

func TestMarkDone(t *testing.T) {
	stub := newVendorStub()
	stub.replies["setStatus"] = "ACCESS_ACTIVATION"
	client := newTestClient(t, stub)

	if !client.MarkDone(context.Background(), "555") {
		t.Error("MarkDone() = false, want true")
	}
	last := stub.queries[len(stub.queries)-1]
	if last["status"] != "6" {
		t.Errorf("status param = %q, want 6", last["status"])
	}

	stub.replies["setStatus"] = "NO_ACTIVATION"
	if client.MarkDone(context.Background(), "555") {
		t.Error("MarkDone() = true on refusal, want false")
	}
}

func TestKeepNumber(t *testing.T) {
	stub := newVendorStub()
	stub.replies["keep"] = "OK"
	client := newTestClient(t, stub)

	if !client.KeepNumber(context.Background(), "555") {
		t.Error("KeepNumber() = false, want true")
	}
	last := stub.queries[len(stub.queries)-1]
	if last["id"] != "555" {
		t.Errorf("id param = %q, want 555", last["id"])
	}

	stub.replies["keep"] = "NO_ACTIVATION"
	if client.KeepNumber(context.Background(), "555") {
		t.Error("KeepNumber() = true on refusal, want false")
	}
}
