package config_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/warp/folio-engine/config"
	"github.com/warp/folio-engine/hotel"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "sqlite", cfg.Store)
	assert.False(t, cfg.IsProduction())

	tax, err := cfg.TaxSettings()
	require.NoError(t, err)
	assert.True(t, tax.Enabled)
	assert.True(t, tax.Rate.Equal(decimal.RequireFromString("7.5")))

	program, err := cfg.LoyaltyProgram()
	require.NoError(t, err)
	assert.Equal(t, hotel.Major(1), program.PointValue)
	assert.Equal(t, hotel.TierGold, program.TierFor(5000))
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("FOLIO_STORE", "memory")
	t.Setenv("FOLIO_TAX_RATE", "10")
	t.Setenv("FOLIO_LOYALTY_SILVER", "500")
	t.Setenv("FOLIO_CORS_ORIGINS", "https://desk.example.com")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store)
	assert.Equal(t, []string{"https://desk.example.com"}, cfg.CORSOrigins)

	program, err := cfg.LoyaltyProgram()
	require.NoError(t, err)
	assert.Equal(t, hotel.TierSilver, program.TierFor(500))
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("FOLIO_STORE", "postgres")
	_, err := config.Load()
	assert.Error(t, err)

	t.Setenv("FOLIO_STORE", "memory")
	t.Setenv("FOLIO_TAX_RATE", "150")
	_, err = config.Load()
	assert.ErrorIs(t, err, hotel.ErrInvalidTaxRate)
}

func TestLoyaltyProgram_RejectsOutOfOrderThresholds(t *testing.T) {
	t.Setenv("FOLIO_LOYALTY_SILVER", "5000")
	t.Setenv("FOLIO_LOYALTY_GOLD", "1000")

	cfg, err := config.Load()
	require.NoError(t, err)
	_, err = cfg.LoyaltyProgram()
	assert.ErrorIs(t, err, hotel.ErrValidation)
}

func TestNewLogger(t *testing.T) {
	logger, err := config.NewLogger("warn", "console", "folio-test")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
}
