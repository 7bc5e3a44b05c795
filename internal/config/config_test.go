package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for key, value := range values {
		v.Set(key, value)
	}
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{"DB_DSN": "postgres://localhost/ledger"}))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 3001, cfg.HTTP.Port)
	assert.Equal(t, AuthModeHeader, cfg.Auth.Mode)
	assert.Equal(t, "0.25", cfg.Ledger.DepositCapRatio.String())
	assert.Equal(t, 2, cfg.Reports.DefaultLimit)
	assert.Equal(t, 5*time.Second, cfg.DB.TxTimeout)
	assert.Equal(t, 30*time.Second, cfg.Reports.CacheTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.HTTP.CORSAllowedOrigins)
}

func TestFromViperRequiresDSN(t *testing.T) {
	_, err := fromViper(newViper(nil))
	assert.EqualError(t, err, "DB_DSN is required")
}

func TestFromViperJWTNeedsSecret(t *testing.T) {
	_, err := fromViper(newViper(map[string]any{
		"DB_DSN":    "postgres://localhost/ledger",
		"AUTH_MODE": "JWT",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_ACCESS_SECRET")
}

func TestFromViperRejectsBadRatio(t *testing.T) {
	_, err := fromViper(newViper(map[string]any{
		"DB_DSN":                   "postgres://localhost/ledger",
		"LEDGER_DEPOSIT_CAP_RATIO": "abc",
	}))
	require.Error(t, err)

	_, err = fromViper(newViper(map[string]any{
		"DB_DSN":                   "postgres://localhost/ledger",
		"LEDGER_DEPOSIT_CAP_RATIO": "-1",
	}))
	require.Error(t, err)
}

func TestParseList(t *testing.T) {
	assert.Nil(t, parseList("  "))
	assert.Equal(t, []string{"a", "b"}, parseList(" a, ,b "))
}
