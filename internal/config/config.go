package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// CreditPolicy selects which order transition credits the farmer's wallet.
type CreditPolicy string

const (
	CreditOnCompleted CreditPolicy = "COMPLETED"
	CreditOnDelivered CreditPolicy = "DELIVERED"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	// Marketplace business rules.
	PlatformFeeRate  decimal.Decimal
	AdvanceRate      decimal.Decimal
	RequireAdvance   bool
	AllowSkipTransit bool
	WholesaleMinQty  decimal.Decimal
	MaxCounterRounds int
	CreditOn         CreditPolicy
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		AppPort:    os.Getenv("APP_PORT"),
		AppEnv:     os.Getenv("APP_ENV"),

		PlatformFeeRate:  envDecimal("PLATFORM_FEE_RATE", "0.05"),
		AdvanceRate:      envDecimal("ADVANCE_RATE", "0.2"),
		RequireAdvance:   envBool("REQUIRE_ADVANCE", false),
		AllowSkipTransit: envBool("ALLOW_SKIP_TRANSIT", false),
		WholesaleMinQty:  envDecimal("WHOLESALE_MIN_QTY", "100"),
		MaxCounterRounds: envInt("MAX_COUNTER_ROUNDS", 2),
		CreditOn:         CreditPolicy(envString("CREDIT_ON", string(CreditOnCompleted))),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	if cfg.CreditOn != CreditOnCompleted && cfg.CreditOn != CreditOnDelivered {
		log.Fatalf("CREDIT_ON must be %s or %s", CreditOnCompleted, CreditOnDelivered)
	}

	return cfg
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Fatalf("%s must be a boolean, got %q", key, v)
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("%s must be an integer, got %q", key, v)
	}
	return n
}

func envDecimal(key, fallback string) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		v = fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		log.Fatalf("%s must be a decimal, got %q", key, v)
	}
	return d
}
