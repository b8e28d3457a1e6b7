package mailtm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Account is a freshly created disposable mailbox.
type Account struct {
	ID       string
	Email    string
	Password string
}

// Message is one received email, as listed by the messages endpoint.
type Message struct {
	ID      string    `json:"id"`
	From    address   `json:"from"`
	Subject string    `json:"subject"`
	Intro   string    `json:"intro"`
	SentAt  time.Time `json:"createdAt"`
}

type address struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// hydraList is the JSON-LD collection envelope mail.tm wraps lists in.
type hydraList[T any] struct {
	Members []T `json:"hydra:member"`
}

// Client is the mail.tm API client. Accounts share one configured
// password so stored customers stay able to log in later.
type Client struct {
	baseURL  string
	password string
	http     *http.Client
	log      logrus.FieldLogger

	domainTTL time.Duration
	mu        sync.Mutex
	domain    string
	domainAt  time.Time
}

func NewClient(baseURL, password string, domainTTL time.Duration, log logrus.FieldLogger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		password:  password,
		http:      &http.Client{Timeout: 30 * time.Second},
		log:       log,
		domainTTL: domainTTL,
	}
}

// CreateAccount creates a mailbox named after the customer. A 422 means
// the address is taken; one retry with a timestamp suffix is enough in
// practice.
func (c *Client) CreateAccount(ctx context.Context, firstName, lastName string) (Account, error) {
	username := c.username(firstName, lastName)
	domain, err := c.availableDomain(ctx)
	if err != nil {
		return Account{}, err
	}

	email := fmt.Sprintf("%s@%s", username, domain)
	account, status, err := c.postAccount(ctx, email)
	if err != nil {
		return Account{}, err
	}
	if status == http.StatusCreated {
		c.log.WithField("email", email).Info("email account created")
		return account, nil
	}
	if status != http.StatusUnprocessableEntity {
		return Account{}, fmt.Errorf("account creation failed with status %d", status)
	}

	email = fmt.Sprintf("%s%d@%s", username, time.Now().Unix()%10000, domain)
	account, status, err = c.postAccount(ctx, email)
	if err != nil {
		return Account{}, err
	}
	if status != http.StatusCreated {
		return Account{}, fmt.Errorf("account creation retry failed with status %d", status)
	}
	c.log.WithField("email", email).Info("email account created on retry")
	return account, nil
}

func (c *Client) postAccount(ctx context.Context, email string) (Account, int, error) {
	payload := map[string]string{"address": email, "password": c.password}
	var created struct {
		ID string `json:"id"`
	}
	status, err := c.do(ctx, http.MethodPost, "/accounts", "", payload, &created)
	if err != nil {
		return Account{}, 0, err
	}
	return Account{ID: created.ID, Email: email, Password: c.password}, status, nil
}

// Token authenticates a mailbox and returns its bearer token.
func (c *Client) Token(ctx context.Context, email, password string) (string, error) {
	payload := map[string]string{"address": email, "password": password}
	var out struct {
		Token string `json:"token"`
	}
	status, err := c.do(ctx, http.MethodPost, "/token", "", payload, &out)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK || out.Token == "" {
		return "", fmt.Errorf("token request failed with status %d", status)
	}
	return out.Token, nil
}

// Messages lists the mailbox inbox.
func (c *Client) Messages(ctx context.Context, email, password string) ([]Message, error) {
	token, err := c.Token(ctx, email, password)
	if err != nil {
		return nil, err
	}

	var list hydraList[Message]
	status, err := c.do(ctx, http.MethodGet, "/messages", token, nil, &list)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("messages request failed with status %d", status)
	}
	return list.Members, nil
}

// DeleteAccount removes a mailbox.
func (c *Client) DeleteAccount(ctx context.Context, email, password string) error {
	token, err := c.Token(ctx, email, password)
	if err != nil {
		return err
	}

	var me struct {
		ID string `json:"id"`
	}
	status, err := c.do(ctx, http.MethodGet, "/me", token, nil, &me)
	if err != nil {
		return err
	}
	if status != http.StatusOK || me.ID == "" {
		return fmt.Errorf("account lookup failed with status %d", status)
	}

	status, err = c.do(ctx, http.MethodDelete, "/accounts/"+me.ID, token, nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusNoContent {
		return fmt.Errorf("account deletion failed with status %d", status)
	}
	return nil
}

// Ping checks the service has at least one usable domain.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.availableDomain(ctx)
	return err
}

func (c *Client) availableDomain(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.domain != "" && time.Since(c.domainAt) < c.domainTTL {
		domain := c.domain
		c.mu.Unlock()
		return domain, nil
	}
	c.mu.Unlock()

	var list hydraList[struct {
		Domain string `json:"domain"`
	}]
	status, err := c.do(ctx, http.MethodGet, "/domains", "", nil, &list)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("domains request failed with status %d", status)
	}
	if len(list.Members) == 0 {
		return "", fmt.Errorf("no available domains")
	}

	domain := list.Members[0].Domain
	c.mu.Lock()
	c.domain = domain
	c.domainAt = time.Now()
	c.mu.Unlock()
	return domain, nil
}

func (c *Client) username(firstName, lastName string) string {
	initial := firstName
	if len(initial) > 1 {
		initial = initial[:1]
	}
	base := strings.ToLower(initial + lastName)
	var clean strings.Builder
	for _, r := range base {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			clean.WriteRune(r)
		}
	}
	return fmt.Sprintf("%s%d", clean.String(), 100+rand.Intn(900))
}

func (c *Client) do(ctx context.Context, method, path, token string, payload, out any) (int, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
