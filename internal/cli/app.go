// Package cli provides the cobra command tree.
package cli

import (
	"context"
	"fmt"

	"customerforge/config"
	"customerforge/internal/daisysms"
	"customerforge/internal/mailtm"
	"customerforge/internal/mapquest"
	"customerforge/internal/repository"
	"customerforge/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// app wires configuration, clients and services once per invocation.
// Construction is lazy: read-only database commands work without any
// vendor API key configured.
type app struct {
	cfg config.Config
	log *logrus.Logger

	repo          repository.CustomerRepository
	verifications *service.VerificationService
	customers     *service.CustomerService
	monitor       *service.Monitor
	rental        *daisysms.Client
	email         *mailtm.Client
	addresses     *mapquest.Client
}

func newApp() (*app, error) {
	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if err := cfg.Validate(validator.New()); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &app{cfg: cfg, log: log}, nil
}

func (a *app) database() (repository.CustomerRepository, error) {
	if a.repo != nil {
		return a.repo, nil
	}
	db, err := config.ConnectionDb(a.cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := repository.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	a.repo = repository.NewCustomerRepository(db)
	return a.repo, nil
}

func (a *app) rentalClient() (*daisysms.Client, error) {
	if a.rental != nil {
		return a.rental, nil
	}
	if a.cfg.DaisySMS.APIKey == "" {
		return nil, fmt.Errorf("DAISYSMS_API_KEY is not set")
	}
	a.rental = daisysms.NewClient(a.cfg.DaisySMS.APIKey, a.cfg.DaisySMS.BaseURL, a.log)
	return a.rental, nil
}

func (a *app) emailClient() *mailtm.Client {
	if a.email == nil {
		a.email = mailtm.NewClient(a.cfg.MailTm.BaseURL, a.cfg.MailTm.DefaultPassword,
			a.cfg.MailTm.DomainCacheTTL, a.log)
	}
	return a.email
}

func (a *app) addressClient() (*mapquest.Client, error) {
	if a.addresses != nil {
		return a.addresses, nil
	}
	if a.cfg.MapQuest.APIKey == "" {
		return nil, fmt.Errorf("MAPQUEST_API_KEY is not set")
	}
	a.addresses = mapquest.NewClient(a.cfg.MapQuest.APIKey, a.cfg.MapQuest.BaseURL, a.log)
	return a.addresses, nil
}

func (a *app) verificationService() (*service.VerificationService, error) {
	if a.verifications != nil {
		return a.verifications, nil
	}
	rental, err := a.rentalClient()
	if err != nil {
		return nil, err
	}
	a.verifications = service.NewVerificationService(rental, service.RealClock{}, service.VerificationConfig{
		ServiceCode:        a.cfg.DaisySMS.ServiceCode,
		MaxPrice:           a.cfg.DaisySMS.MaxPrice,
		VerificationWindow: a.cfg.DaisySMS.VerificationTimeout,
		PollInterval:       a.cfg.DaisySMS.PollingInterval,
	}, a.log)
	return a.verifications, nil
}

func (a *app) customerService() (*service.CustomerService, error) {
	if a.customers != nil {
		return a.customers, nil
	}
	repo, err := a.database()
	if err != nil {
		return nil, err
	}
	verifications, err := a.verificationService()
	if err != nil {
		return nil, err
	}
	a.customers = service.NewCustomerService(repo, verifications, a.emailClient(), &lazyAddresses{a: a},
		service.CustomerConfig{
			GenderPreference: a.cfg.Customer.GenderPreference,
			RadiusMiles:      a.cfg.MapQuest.RadiusMiles,
		}, a.log)
	return a.customers, nil
}

// lazyAddresses defers the MapQuest key check until an address is
// actually requested, so phone-only commands run without the key. The
// customer service treats provider errors as a fallback signal.
type lazyAddresses struct {
	a *app
}

func (l *lazyAddresses) ValidateAddress(ctx context.Context, address string) (*mapquest.Address, error) {
	c, err := l.a.addressClient()
	if err != nil {
		return nil, err
	}
	return c.ValidateAddress(ctx, address)
}

func (l *lazyAddresses) RandomAddressNear(ctx context.Context, origin string, radiusMiles float64) (*mapquest.Address, error) {
	c, err := l.a.addressClient()
	if err != nil {
		return nil, err
	}
	return c.RandomAddressNear(ctx, origin, radiusMiles)
}

func (l *lazyAddresses) RandomUSAddress(ctx context.Context) (*mapquest.Address, error) {
	c, err := l.a.addressClient()
	if err != nil {
		return nil, err
	}
	return c.RandomUSAddress(ctx)
}

func (a *app) monitorService() (*service.Monitor, error) {
	if a.monitor != nil {
		return a.monitor, nil
	}
	repo, err := a.database()
	if err != nil {
		return nil, err
	}
	verifications, err := a.verificationService()
	if err != nil {
		return nil, err
	}
	a.monitor = service.NewMonitor(repo, verifications, service.RealClock{}, a.log)
	return a.monitor, nil
}
