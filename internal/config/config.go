package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	AuthModeHeader = "header"
	AuthModeJWT    = "jwt"
)

type HTTPConfig struct {
	Host               string
	Port               int
	CORSAllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
	TxTimeout       time.Duration
}

type AuthConfig struct {
	Mode         string
	AccessSecret string
}

type LedgerConfig struct {
	DepositCapRatio decimal.Decimal
}

type ReportsConfig struct {
	DefaultLimit int
	MaxLimit     int
	CacheTTL     time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Ledger      LedgerConfig
	Reports     ReportsConfig
	Redis       RedisConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	setDefaults(v)

	_ = v.ReadInConfig()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 3001)
	v.SetDefault("DB_TX_TIMEOUT", "5s")
	v.SetDefault("AUTH_MODE", AuthModeHeader)
	v.SetDefault("LEDGER_DEPOSIT_CAP_RATIO", "0.25")
	v.SetDefault("REPORTS_DEFAULT_LIMIT", 2)
	v.SetDefault("REPORTS_MAX_LIMIT", 100)
	v.SetDefault("REPORTS_CACHE_TTL", "30s")
}

func fromViper(v *viper.Viper) (*Config, error) {
	capRatio, err := decimal.NewFromString(strings.TrimSpace(v.GetString("LEDGER_DEPOSIT_CAP_RATIO")))
	if err != nil {
		return nil, fmt.Errorf("invalid LEDGER_DEPOSIT_CAP_RATIO: %w", err)
	}

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:               v.GetString("HTTP_HOST"),
			Port:               v.GetInt("HTTP_PORT"),
			CORSAllowedOrigins: parseList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
			TxTimeout:       v.GetDuration("DB_TX_TIMEOUT"),
		},
		Auth: AuthConfig{
			Mode:         strings.ToLower(strings.TrimSpace(v.GetString("AUTH_MODE"))),
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Ledger: LedgerConfig{
			DepositCapRatio: capRatio,
		},
		Reports: ReportsConfig{
			DefaultLimit: v.GetInt("REPORTS_DEFAULT_LIMIT"),
			MaxLimit:     v.GetInt("REPORTS_MAX_LIMIT"),
			CacheTTL:     v.GetDuration("REPORTS_CACHE_TTL"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
	}

	if len(cfg.HTTP.CORSAllowedOrigins) == 0 {
		cfg.HTTP.CORSAllowedOrigins = []string{"http://localhost:3000"}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	switch cfg.Auth.Mode {
	case AuthModeHeader:
	case AuthModeJWT:
		if cfg.Auth.AccessSecret == "" {
			return fmt.Errorf("JWT_ACCESS_SECRET is required when AUTH_MODE=jwt")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be %q or %q", AuthModeHeader, AuthModeJWT)
	}
	if !cfg.Ledger.DepositCapRatio.IsPositive() {
		return fmt.Errorf("LEDGER_DEPOSIT_CAP_RATIO must be positive")
	}
	if cfg.Reports.DefaultLimit <= 0 {
		return fmt.Errorf("REPORTS_DEFAULT_LIMIT must be positive")
	}
	if cfg.Reports.MaxLimit < cfg.Reports.DefaultLimit {
		return fmt.Errorf("REPORTS_MAX_LIMIT must be >= REPORTS_DEFAULT_LIMIT")
	}
	if cfg.DB.TxTimeout <= 0 {
		return fmt.Errorf("DB_TX_TIMEOUT must be positive")
	}
	return nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
