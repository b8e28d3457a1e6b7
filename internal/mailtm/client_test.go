package mailtm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// mailStub is a scripted mail.tm lookalike.
type mailStub struct {
	mu           sync.Mutex
	domainCalls  int
	accountCalls int
	taken        map[string]bool
	addresses    []string
	tokens       map[string]string
}

func newMailStub() *mailStub {
	return &mailStub{
		taken:  make(map[string]bool),
		tokens: make(map[string]string),
	}
}

func (s *mailStub) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /domains", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.domainCalls++
		s.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{
			"hydra:member": []map[string]string{{"domain": "dropmail.example"}},
		})
	})

	mux.HandleFunc("POST /accounts", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Address  string `json:"address"`
			Password string `json:"password"`
		}
		json.NewDecoder(r.Body).Decode(&payload)

		s.mu.Lock()
		s.accountCalls++
		s.addresses = append(s.addresses, payload.Address)
		exists := s.taken[payload.Address]
		if !exists {
			s.taken[payload.Address] = true
		}
		s.mu.Unlock()

		if exists {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "acct-" + payload.Address})
	})

	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Address string `json:"address"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-" + payload.Address})
	})

	mux.HandleFunc("GET /messages", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer tok-") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"hydra:member": []map[string]any{
				{"id": "m1", "subject": "Your code", "intro": "Use code 482913"},
			},
		})
	})

	mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "acct-1"})
	})

	mux.HandleFunc("DELETE /accounts/acct-1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return mux
}

func newTestClient(t *testing.T, stub *mailStub) *Client {
	t.Helper()
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "shared-pass", time.Hour, testLogger())
}

func TestCreateAccount(t *testing.T) {
	stub := newMailStub()
	c := newTestClient(t, stub)

	account, err := c.CreateAccount(context.Background(), "Dana", "Smith")
	if err != nil {
		t.Fatalf("CreateAccount() error: %v", err)
	}
	if account.Password != "shared-pass" {
		t.Errorf("password = %q, want the shared password", account.Password)
	}
	ok, _ := regexp.MatchString(`^dsmith\d{3}@dropmail\.example$`, account.Email)
	if !ok {
		t.Errorf("email = %q, want dsmith<nnn>@dropmail.example", account.Email)
	}
	if account.ID == "" {
		t.Error("account id missing")
	}
}

func TestCreateAccountRetriesOnTaken(t *testing.T) {
	stub := newMailStub()
	c := newTestClient(t, stub)

	// Every address the first attempt could pick is already registered.
	stub.mu.Lock()
	for i := 100; i < 1000; i++ {
		stub.taken["dsmith"+strconv.Itoa(i)+"@dropmail.example"] = true
	}
	stub.mu.Unlock()

	account, err := c.CreateAccount(context.Background(), "Dana", "Smith")
	if err != nil {
		t.Fatalf("CreateAccount() error: %v", err)
	}

	stub.mu.Lock()
	calls := stub.accountCalls
	stub.mu.Unlock()
	if calls != 2 {
		t.Errorf("account posts = %d, want 2 (original then suffixed retry)", calls)
	}
	if !strings.HasSuffix(account.Email, "@dropmail.example") {
		t.Errorf("email = %q", account.Email)
	}
}

func TestDomainCaching(t *testing.T) {
	stub := newMailStub()
	c := newTestClient(t, stub)

	for i := 0; i < 3; i++ {
		if _, err := c.CreateAccount(context.Background(), "Dana", "Smith"); err != nil {
			t.Fatalf("CreateAccount() #%d error: %v", i+1, err)
		}
	}

	stub.mu.Lock()
	calls := stub.domainCalls
	stub.mu.Unlock()
	if calls != 1 {
		t.Errorf("domain lookups = %d, want 1 within the cache window", calls)
	}
}

func TestUsernameSanitization(t *testing.T) {
	c := NewClient("http://unused", "pw", time.Hour, testLogger())

	got := c.username("Mary-Jane", "O'Brien")
	ok, _ := regexp.MatchString(`^mobrien\d{3}$`, got)
	if !ok {
		t.Errorf("username = %q, want mobrien<nnn> with punctuation stripped", got)
	}
}

func TestMessages(t *testing.T) {
	stub := newMailStub()
	c := newTestClient(t, stub)

	messages, err := c.Messages(context.Background(), "dana@dropmail.example", "shared-pass")
	if err != nil {
		t.Fatalf("Messages() error: %v", err)
	}
	if len(messages) != 1 || messages[0].Subject != "Your code" {
		t.Errorf("messages = %+v, want the one stub message", messages)
	}
}

func TestDeleteAccount(t *testing.T) {
	stub := newMailStub()
	c := newTestClient(t, stub)

	if err := c.DeleteAccount(context.Background(), "dana@dropmail.example", "shared-pass"); err != nil {
		t.Fatalf("DeleteAccount() error: %v", err)
	}
}
