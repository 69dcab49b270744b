package config

import (
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server-side settings
	DatabaseDSN string        `env:"DATABASE_URI"`
	AuthSecret  string        `env:"AUTH_SECRET"`
	RedisURL    string        `env:"REDIS_URL"`
	TokenTTL    time.Duration `env:"TOKEN_TTL"`

	// Shared settings
	BaseURL     string `env:"BASE_URL"`
	EnableHTTPS bool   `env:"ENABLE_HTTPS"`

	// Client-side settings
	ServerURL       string        `env:"-"`
	ClientDBPath    string        `env:"CLIENT_DB_PATH"`
	TokenFile       string        `env:"TOKEN_FILE"`
	TokenStore      string        `env:"TOKEN_STORE"` // file | sqlite
	ValidateTimeout time.Duration `env:"VALIDATE_TIMEOUT"`
	Debug           bool          `env:"DEBUG"`
	Version         bool          `env:"-"` // show client version and exit (flag only)
}

const (
	TokenStoreFile   = "file"
	TokenStoreSQLite = "sqlite"
)

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// flags работают ТОЛЬКО если переменные из env не заданы
	// Server flags
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД (postgres DSN или путь к файлу sqlite)")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет для подписи JWT")
	flag.StringVar(&cfg.RedisURL, "redis", cfg.RedisURL, "redis URL for token change fan-out (optional)")
	flag.DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "lifetime of issued auth tokens")
	// Shared/client flags
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "base URL of the SessionSync server (host:port)")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "enable HTTPS (client: prefer https scheme for BaseURL)")
	// Client flags
	flag.StringVar(&cfg.ClientDBPath, "client-db", cfg.ClientDBPath, "path to client SQLite DB")
	flag.StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "path to auth token file (client)")
	flag.StringVar(&cfg.TokenStore, "token-store", cfg.TokenStore, "token store backend: file|sqlite")
	flag.DurationVar(&cfg.ValidateTimeout, "validate-timeout", cfg.ValidateTimeout, "timeout for background session calls")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "verbose logging")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show client version and exit")

	flag.Parse()

	// Defaults
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = "dev-secret-key"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.ValidateTimeout <= 0 {
		cfg.ValidateTimeout = 10 * time.Second
	}
	if cfg.TokenStore != TokenStoreSQLite {
		cfg.TokenStore = TokenStoreFile
	}
	// validate BaseURL: must be in "address:port" (no scheme, no path). Otherwise use default.
	hostPortRe := regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:8081"
	}

	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
	}

	// Fill client defaults if empty
	home, _ := os.UserHomeDir()
	if cfg.ClientDBPath == "" {
		cfg.ClientDBPath = filepath.Join(home, "sscli.db")
	}
	if cfg.TokenFile == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			cfg.TokenFile = filepath.Join(dir, "SessionSync", "auth_token.json")
		} else {
			cfg.TokenFile = filepath.Join(home, ".ss_token.json")
		}
	}
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = filepath.Join(home, "sessionsync-server.db")
	}

	return cfg
}

// WebsocketURL returns the ws:// or wss:// base matching ServerURL.
func (c *Config) WebsocketURL() string {
	if c.EnableHTTPS {
		return "wss://" + c.BaseURL
	}
	return "ws://" + c.BaseURL
}
