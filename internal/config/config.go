// Package config содержит логику чтения конфигурации сервиса PizzaPortal.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

const (
	defaultRunAddress = "localhost:3000"
	defaultDataDir    = ".data"
	defaultRateLimit  = 10
)

// Config содержит параметры конфигурации сервиса PizzaPortal.
type Config struct {
	RunAddress   string `env:"RUN_ADDRESS"`
	HTTPSAddress string `env:"HTTPS_ADDRESS"`
	TLSCertFile  string `env:"TLS_CERT_FILE"`
	TLSKeyFile   string `env:"TLS_KEY_FILE"`

	Storage       string `env:"STORAGE"`
	DataDir       string `env:"DATA_DIR"`
	DatabaseURI   string `env:"DATABASE_URI"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	HashingSecret string `env:"HASHING_SECRET"`
	MenuFile      string `env:"MENU_FILE"`

	StripeURL      string `env:"STRIPE_URL" envDefault:"https://api.stripe.com"`
	StripeAPIKey   string `env:"STRIPE_API_KEY"`
	StripeCurrency string `env:"STRIPE_CURRENCY" envDefault:"usd"`

	MailgunURL    string `env:"MAILGUN_URL" envDefault:"https://api.mailgun.net"`
	MailgunAPIKey string `env:"MAILGUN_API_KEY"`
	MailgunDomain string `env:"MAILGUN_DOMAIN"`
	MailgunFrom   string `env:"MAILGUN_FROM"`

	AppName     string `env:"APP_NAME" envDefault:"Pizza Portal"`
	CompanyName string `env:"COMPANY_NAME" envDefault:"Pizza Portal Inc."`
	BaseURL     string `env:"BASE_URL"`

	LoginRateLimit int `env:"LOGIN_RATE_LIMIT"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fromEnv := *cfg

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DataDir, "f", defaultDataDir, "directory for file storage")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.RedisAddr, "r", "", "redis address")
	flag.StringVar(&cfg.HashingSecret, "s", "", "password hashing secret")
	flag.StringVar(&cfg.MenuFile, "m", "", "menu YAML file used to seed storage")
	flag.IntVar(&cfg.LoginRateLimit, "l", defaultRateLimit, "login requests per minute per IP")

	flag.Parse()

	if fromEnv.RunAddress != "" {
		cfg.RunAddress = fromEnv.RunAddress
	}
	if fromEnv.DataDir != "" {
		cfg.DataDir = fromEnv.DataDir
	}
	if fromEnv.DatabaseURI != "" {
		cfg.DatabaseURI = fromEnv.DatabaseURI
	}
	if fromEnv.RedisAddr != "" {
		cfg.RedisAddr = fromEnv.RedisAddr
	}
	if fromEnv.HashingSecret != "" {
		cfg.HashingSecret = fromEnv.HashingSecret
	}
	if fromEnv.MenuFile != "" {
		cfg.MenuFile = fromEnv.MenuFile
	}
	if fromEnv.LoginRateLimit > 0 {
		cfg.LoginRateLimit = fromEnv.LoginRateLimit
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.LoginRateLimit <= 0 {
		cfg.LoginRateLimit = defaultRateLimit
	}
	if cfg.HashingSecret == "" {
		return nil, fmt.Errorf("hashing secret is required (HASHING_SECRET or -s)")
	}
	if cfg.HTTPSAddress != "" && (cfg.TLSCertFile == "" || cfg.TLSKeyFile == "") {
		return nil, fmt.Errorf("HTTPS_ADDRESS requires TLS_CERT_FILE and TLS_KEY_FILE")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://" + cfg.RunAddress
	}

	return cfg, nil
}
