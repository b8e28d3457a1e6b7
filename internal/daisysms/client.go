package daisysms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const balanceCacheTTL = 60 * time.Second

// Grant is a successful number rental: the vendor-issued activation id and
// the assigned phone number.
type Grant struct {
	VerificationID string
	PhoneNumber    string
}

type ServiceInfo struct {
	Code  string
	Name  string
	Price float64
}

// Client talks to the DaisySMS handler API. The wire protocol is text over
// HTTP GET; every call is stateless apart from the HTTP session and a short
// lived balance cache. The client never loops or sleeps on behalf of the
// caller.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     logrus.FieldLogger

	mu            sync.Mutex
	cachedBalance float64
	balanceAt     time.Time
}

func NewClient(apiKey, baseURL string, log logrus.FieldLogger) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(5), 5),
		log:     log,
	}
}

// reply is one raw wire response: the trimmed body plus the optional
// X-Text header carrying the full SMS message.
type reply struct {
	body     string
	fullText string
}

func (c *Client) request(ctx context.Context, action string, params url.Values) (reply, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return reply{}, fmt.Errorf("%w: %v", ErrRemote, err)
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("action", action)
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return reply{}, fmt.Errorf("%w: %v", ErrRemote, err)
	}
	req.Header.Set("Accept", "text/plain, */*")

	resp, err := c.http.Do(req)
	if err != nil {
		return reply{}, fmt.Errorf("%w: %v", ErrRemote, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return reply{}, fmt.Errorf("%w: status %d", ErrRemote, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return reply{}, fmt.Errorf("%w: %v", ErrRemote, err)
	}

	return reply{
		body:     strings.TrimSpace(string(body)),
		fullText: resp.Header.Get("X-Text"),
	}, nil
}

// Balance returns the account balance, served from a 60 second cache so
// repeated UI refreshes do not hammer the balance endpoint.
func (c *Client) Balance(ctx context.Context) (float64, error) {
	c.mu.Lock()
	if !c.balanceAt.IsZero() && time.Since(c.balanceAt) < balanceCacheTTL {
		balance := c.cachedBalance
		c.mu.Unlock()
		return balance, nil
	}
	c.mu.Unlock()

	r, err := c.request(ctx, "getBalance", nil)
	if err != nil {
		return 0, err
	}

	head, rest, _ := strings.Cut(r.body, ":")
	switch head {
	case "ACCESS_BALANCE":
		balance, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid balance %q", ErrRemote, r.body)
		}
		c.mu.Lock()
		c.cachedBalance = balance
		c.balanceAt = time.Now()
		c.mu.Unlock()
		return balance, nil
	case "BAD_KEY":
		return 0, ErrBadKey
	default:
		return 0, fmt.Errorf("%w: %s", ErrRemote, r.body)
	}
}

// RentNumber rents a phone number for the given service. The cached
// balance is checked first for a precise local error, but the vendor's own
// verdict stays authoritative.
func (c *Client) RentNumber(ctx context.Context, service string, maxPrice float64, country int) (Grant, error) {
	balance, err := c.Balance(ctx)
	if err != nil {
		return Grant{}, err
	}
	if balance < maxPrice {
		return Grant{}, fmt.Errorf("%w: $%.2f < $%.2f", ErrInsufficientBalance, balance, maxPrice)
	}

	params := url.Values{}
	params.Set("service", service)
	params.Set("max_price", strconv.FormatFloat(maxPrice, 'f', 2, 64))
	if country != 0 {
		params.Set("country", strconv.Itoa(country))
	}

	r, err := c.request(ctx, "getNumber", params)
	if err != nil {
		return Grant{}, err
	}

	head, rest, _ := strings.Cut(r.body, ":")
	switch head {
	case "ACCESS_NUMBER":
		id, number, ok := strings.Cut(rest, ":")
		if !ok || id == "" || number == "" {
			return Grant{}, fmt.Errorf("%w: malformed grant %q", ErrRemote, r.body)
		}
		// Tolerate trailing fields after the number.
		number, _, _ = strings.Cut(number, ":")
		c.log.WithFields(logrus.Fields{"id": id, "number": number}).Info("number rented")
		return Grant{VerificationID: id, PhoneNumber: number}, nil
	case "MAX_PRICE_EXCEEDED":
		return Grant{}, ErrMaxPriceExceeded
	case "NO_NUMBERS":
		return Grant{}, ErrNoNumbers
	case "TOO_MANY_ACTIVE_RENTALS":
		return Grant{}, ErrTooManyActiveRentals
	case "NO_MONEY":
		return Grant{}, ErrInsufficientBalance
	case "BAD_KEY":
		return Grant{}, ErrBadKey
	default:
		return Grant{}, fmt.Errorf("%w: %s", ErrRemote, r.body)
	}
}

// PollStatus makes a single status call and classifies the reply. Looping
// and sleeping belong to the verification service, not here.
func (c *Client) PollStatus(ctx context.Context, verificationID string) (Result, error) {
	params := url.Values{}
	params.Set("id", verificationID)
	params.Set("text", "1")

	r, err := c.request(ctx, "getStatus", params)
	if err != nil {
		return Result{}, err
	}
	return Classify(r.body, r.fullText), nil
}

// MarkDone tells the vendor the rental was used successfully. Best effort:
// a failure is logged and swallowed, the number is abandoned either way.
func (c *Client) MarkDone(ctx context.Context, verificationID string) bool {
	params := url.Values{}
	params.Set("id", verificationID)
	params.Set("status", "6")

	r, err := c.request(ctx, "setStatus", params)
	if err != nil {
		c.log.WithError(err).WithField("id", verificationID).Warn("mark done failed")
		return false
	}

	head, _, _ := strings.Cut(r.body, ":")
	if head != "ACCESS_ACTIVATION" {
		c.log.WithFields(logrus.Fields{"id": verificationID, "reply": r.body}).Warn("could not mark done")
		return false
	}
	return true
}

// Cancel ends the rental early for a refund. ACCESS_READY means the rental
// was already finalized server-side and cannot be cancelled; that is a soft
// failure, not an error.
func (c *Client) Cancel(ctx context.Context, verificationID string) (bool, error) {
	params := url.Values{}
	params.Set("id", verificationID)
	params.Set("status", "8")

	r, err := c.request(ctx, "setStatus", params)
	if err != nil {
		return false, err
	}

	head, _, _ := strings.Cut(r.body, ":")
	switch head {
	case "ACCESS_CANCEL":
		return true, nil
	case "ACCESS_READY":
		c.log.WithField("id", verificationID).Warn("rental already finalized, cannot cancel")
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s", ErrRemote, r.body)
	}
}

// KeepNumber pays for a number without receiving a message.
func (c *Client) KeepNumber(ctx context.Context, verificationID string) bool {
	params := url.Values{}
	params.Set("id", verificationID)

	r, err := c.request(ctx, "keep", params)
	if err != nil {
		c.log.WithError(err).WithField("id", verificationID).Warn("keep number failed")
		return false
	}
	return r.body == "OK"
}

// Services returns the supported service catalog with reference pricing.
func Services() []ServiceInfo {
	return []ServiceInfo{
		{Code: "ac", Name: "DoorDash", Price: 0.05},
		{Code: "ub", Name: "Uber", Price: 0.08},
		{Code: "tu", Name: "Lyft", Price: 0.08},
		{Code: "ds", Name: "Discord", Price: 0.05},
		{Code: "go", Name: "Google", Price: 0.08},
		{Code: "tg", Name: "Telegram", Price: 0.03},
		{Code: "wa", Name: "WhatsApp", Price: 0.12},
		{Code: "fb", Name: "Facebook", Price: 0.10},
		{Code: "ig", Name: "Instagram", Price: 0.08},
		{Code: "tw", Name: "Twitter", Price: 0.15},
		{Code: "li", Name: "LinkedIn", Price: 0.20},
	}
}
