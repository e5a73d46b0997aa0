package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Paystack PaystackConfig
	Billing  BillingConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret string
	AccessExpiry time.Duration
	Issuer       string
}

// PaystackConfig holds the Paystack API credentials. PublicKey is the
// client-exposed key ("pk_..."); SecretKey ("sk_...") never leaves the server
// and also signs webhook payloads.
type PaystackConfig struct {
	BaseURL   string
	PublicKey string
	SecretKey string
	Currency  string
}

type BillingConfig struct {
	ReferencePrefix string
	VerifyAttempts  int
	VerifyBackoff   time.Duration
}

// Load reads configuration from the environment, with an optional .env file
// for local development.
func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		Server: ServerConfig{
			Port:         getenv("PORT", "8099"),
			Env:          getenv("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getenv("DATABASE_DSN", "velt:velt@tcp(localhost:3306)/velt?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    getenvInt("DATABASE_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getenvInt("DATABASE_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret: getenv("JWT_ACCESS_SECRET", "change-me-in-production"),
			AccessExpiry: 15 * time.Minute,
			Issuer:       "velt",
		},
		Paystack: PaystackConfig{
			BaseURL:   getenv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			PublicKey: getenv("PAYSTACK_PUBLIC_KEY", ""),
			SecretKey: getenv("PAYSTACK_SECRET_KEY", ""),
			Currency:  getenv("PAYSTACK_CURRENCY", "GHS"),
		},
		Billing: BillingConfig{
			ReferencePrefix: getenv("BILLING_REFERENCE_PREFIX", "VELT"),
			VerifyAttempts:  getenvInt("BILLING_VERIFY_ATTEMPTS", 3),
			VerifyBackoff:   2 * time.Second,
		},
	}
}

// PublicKeyValid reports whether the configured public key has the expected
// "pk_" prefix. A deployment that fails this check must never open a checkout.
func (c PaystackConfig) PublicKeyValid() bool {
	return strings.HasPrefix(c.PublicKey, "pk_")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
