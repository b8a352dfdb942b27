package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "testuser")
	t.Setenv("DB_PASSWORD", "testpass")
	t.Setenv("DB_NAME", "testdb")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("APP_ENV", "test")
}

func TestLoadConfig(t *testing.T) {
	t.Run("Success loading from env", func(t *testing.T) {
		setBaseEnv(t)

		cfg := LoadConfig()

		require.NotNil(t, cfg)
		assert.Equal(t, "localhost", cfg.DBHost)
		assert.Equal(t, "testuser", cfg.DBUser)
		assert.Equal(t, "testpass", cfg.DBPassword)
		assert.Equal(t, "testdb", cfg.DBName)
		assert.Equal(t, "5432", cfg.DBPort)
		assert.Equal(t, "8080", cfg.AppPort)
		assert.Equal(t, "test", cfg.AppEnv)
	})

	t.Run("Business rule defaults", func(t *testing.T) {
		setBaseEnv(t)

		cfg := LoadConfig()

		assert.True(t, cfg.PlatformFeeRate.Equal(decimal.RequireFromString("0.05")))
		assert.True(t, cfg.AdvanceRate.Equal(decimal.RequireFromString("0.2")))
		assert.False(t, cfg.RequireAdvance)
		assert.False(t, cfg.AllowSkipTransit)
		assert.True(t, cfg.WholesaleMinQty.Equal(decimal.RequireFromString("100")))
		assert.Equal(t, 2, cfg.MaxCounterRounds)
		assert.Equal(t, CreditOnCompleted, cfg.CreditOn)
	})

	t.Run("Business rule overrides", func(t *testing.T) {
		setBaseEnv(t)
		t.Setenv("PLATFORM_FEE_RATE", "0.1")
		t.Setenv("REQUIRE_ADVANCE", "true")
		t.Setenv("ALLOW_SKIP_TRANSIT", "true")
		t.Setenv("MAX_COUNTER_ROUNDS", "5")
		t.Setenv("CREDIT_ON", "DELIVERED")

		cfg := LoadConfig()

		assert.True(t, cfg.PlatformFeeRate.Equal(decimal.RequireFromString("0.1")))
		assert.True(t, cfg.RequireAdvance)
		assert.True(t, cfg.AllowSkipTransit)
		assert.Equal(t, 5, cfg.MaxCounterRounds)
		assert.Equal(t, CreditOnDelivered, cfg.CreditOn)
	})
}

func TestEnvHelpers(t *testing.T) {
	t.Run("envString fallback", func(t *testing.T) {
		assert.Equal(t, "fallback", envString("UNSET_TEST_KEY", "fallback"))
	})

	t.Run("envBool fallback", func(t *testing.T) {
		assert.True(t, envBool("UNSET_TEST_KEY", true))
	})

	t.Run("envInt fallback", func(t *testing.T) {
		assert.Equal(t, 7, envInt("UNSET_TEST_KEY", 7))
	})

	t.Run("envDecimal fallback", func(t *testing.T) {
		d := envDecimal("UNSET_TEST_KEY", "1.25")
		assert.True(t, d.Equal(decimal.RequireFromString("1.25")))
	})
}
