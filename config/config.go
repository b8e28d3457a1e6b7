package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config carries everything the application reads from the environment.
type Config struct {
	DaisySMS DaisySMSConfig
	MailTm   MailTmConfig
	MapQuest MapQuestConfig
	Database DatabaseConfig
	Customer CustomerConfig
	LogLevel string
}

type DaisySMSConfig struct {
	APIKey              string  `validate:"required"`
	BaseURL             string  `validate:"required,url"`
	ServiceCode         string  `validate:"required"`
	MaxPrice            float64 `validate:"gt=0"`
	VerificationTimeout time.Duration
	PollingInterval     time.Duration
}

type MailTmConfig struct {
	BaseURL         string `validate:"required,url"`
	DefaultPassword string `validate:"required,min=8"`
	DomainCacheTTL  time.Duration
}

type MapQuestConfig struct {
	APIKey      string `validate:"required"`
	BaseURL     string `validate:"required,url"`
	RadiusMiles float64
}

type DatabaseConfig struct {
	Path string `validate:"required"`
}

type CustomerConfig struct {
	GenderPreference string `validate:"oneof=female male both"`
}

// Load reads configuration from the environment, with .env overrides
// applied first. Missing optional values fall back to defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("error load env %s", err)
	}

	return Config{
		DaisySMS: DaisySMSConfig{
			APIKey:              os.Getenv("DAISYSMS_API_KEY"),
			BaseURL:             getEnv("DAISYSMS_BASE_URL", "https://daisysms.com/stubs/handler_api.php"),
			ServiceCode:         getEnv("DAISYSMS_SERVICE_CODE", "ac"),
			MaxPrice:            getFloat("DAISYSMS_MAX_PRICE", 0.50),
			VerificationTimeout: getSeconds("DAISYSMS_VERIFICATION_TIMEOUT", 180),
			PollingInterval:     getSeconds("DAISYSMS_POLLING_INTERVAL", 3),
		},
		MailTm: MailTmConfig{
			BaseURL:         getEnv("MAILTM_BASE_URL", "https://api.mail.tm"),
			DefaultPassword: getEnv("MAILTM_DEFAULT_PASSWORD", ""),
			DomainCacheTTL:  getSeconds("MAILTM_DOMAIN_CACHE_DURATION", 3600),
		},
		MapQuest: MapQuestConfig{
			APIKey:      os.Getenv("MAPQUEST_API_KEY"),
			BaseURL:     getEnv("MAPQUEST_BASE_URL", "https://www.mapquestapi.com"),
			RadiusMiles: getFloat("MAPQUEST_DEFAULT_RADIUS_MILES", 10.0),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "data/customers.db"),
		},
		Customer: CustomerConfig{
			GenderPreference: getEnv("CUSTOMER_GENDER_PREFERENCE", "both"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks the loaded configuration. The DaisySMS and MapQuest
// sections are only validated when their API keys are set, so read-only
// database commands still work without credentials.
func (c Config) Validate(validate *validator.Validate) error {
	if c.DaisySMS.APIKey != "" {
		if err := validate.Struct(c.DaisySMS); err != nil {
			return err
		}
	}
	if c.MapQuest.APIKey != "" {
		if err := validate.Struct(c.MapQuest); err != nil {
			return err
		}
	}
	if c.MailTm.DefaultPassword != "" {
		if err := validate.Struct(c.MailTm); err != nil {
			return err
		}
	}
	if err := validate.Struct(c.Database); err != nil {
		return err
	}
	return validate.Struct(c.Customer)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("invalid value for %s: %s", key, v)
		return fallback
	}
	return f
}

func getSeconds(key string, fallback int) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return time.Duration(fallback) * time.Second
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid value for %s: %s", key, v)
		return time.Duration(fallback) * time.Second
	}
	return time.Duration(n) * time.Second
}
