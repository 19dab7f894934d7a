package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		"DATABASE_PATH", "LOG_LEVEL", "SERVER_PORT",
		"BROKER_KEY_ID", "BROKER_SECRET_KEY", "BROKER_BASE_URL",
		"ACCOUNT_SIZE", "RISK_PCT", "MAX_SIGNAL_AGE_MINUTES", "CRYPTO_NOTIONAL_LIMIT",
		"KINGS_LIST", "TRAIL_PERCENT_DEFAULT",
		"ACTIVE_SLEEP_SECONDS", "PASSIVE_SLEEP_SECONDS",
	}
	for _, v := range vars {
		require.NoError(t, os.Unsetenv(v))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./data/trading.db", cfg.DatabasePath)
	assert.Equal(t, 100000.0, cfg.AccountSize)
	assert.Equal(t, 0.01, cfg.RiskPct)
	assert.Equal(t, 60, cfg.MaxSignalAgeMinutes)
	assert.Equal(t, 1000.0, cfg.CryptoNotionalLimit)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "TSLA", "META"}, cfg.KingsList)
	assert.Equal(t, 2.0, cfg.TrailPercentDefault)
	assert.Equal(t, 300, cfg.ActiveSleepSeconds)
	assert.Equal(t, 3600, cfg.PassiveSleepSeconds)
	assert.False(t, cfg.HasLiveBroker())
}

func TestLoad_CustomKingsList(t *testing.T) {
	clearEnv(t)
	os.Setenv("KINGS_LIST", "AAPL, MSFT , NFLX")
	defer os.Unsetenv("KINGS_LIST")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "NFLX"}, cfg.KingsList)
}

func TestValidate_RejectsPartialBrokerCreds(t *testing.T) {
	cfg := &Config{
		DatabasePath: "x.db", LogLevel: "info",
		AccountSize: 1, RiskPct: 0.01, MaxSignalAgeMinutes: 60,
		KingsList: []string{"AAPL"}, ActiveSleepSeconds: 300, PassiveSleepSeconds: 3600,
		BrokerKeyID: "key-only",
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be set together")
}

func TestValidate_RejectsBadRiskPct(t *testing.T) {
	cfg := &Config{
		DatabasePath: "x.db", LogLevel: "info",
		AccountSize: 1, RiskPct: 1.5, MaxSignalAgeMinutes: 60,
		KingsList: []string{"AAPL"}, ActiveSleepSeconds: 300, PassiveSleepSeconds: 3600,
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RISK_PCT")
}

func TestHasLiveBroker_AllThreeSet(t *testing.T) {
	cfg := &Config{BrokerKeyID: "k", BrokerSecretKey: "s", BrokerBaseURL: "https://example.com"}
	assert.True(t, cfg.HasLiveBroker())
}
