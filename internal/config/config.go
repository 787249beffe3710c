package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr      string   `mapstructure:"HTTP_ADDR"`
	PublicBaseURL string   `mapstructure:"PUBLIC_BASE_URL"`
	CORSOrigins   []string `mapstructure:"CORS_ORIGINS"`
	DatabaseURL   string   `mapstructure:"DATABASE_URL"`

	JWTSecret   string `mapstructure:"JWT_SECRET"`
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`

	LLMProvider  string `mapstructure:"LLM_PROVIDER"`
	LLMModel     string `mapstructure:"LLM_MODEL"`
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`

	StripeSecretKey     string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	StripePriceID       string `mapstructure:"STRIPE_PRICE_ID"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`

	FreePageLimit         int `mapstructure:"FREE_PAGE_LIMIT"`
	GenerateRatePerMinute int `mapstructure:"GENERATE_RATE_PER_MINUTE"`

	LogJSON  bool `mapstructure:"LOG_JSON"`
	LogDebug bool `mapstructure:"LOG_DEBUG"`
}

var keys = []string{
	"HTTP_ADDR", "PUBLIC_BASE_URL", "CORS_ORIGINS", "DATABASE_URL",
	"JWT_SECRET", "JWT_AUDIENCE",
	"LLM_PROVIDER", "LLM_MODEL", "GEMINI_API_KEY",
	"STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET", "STRIPE_PRICE_ID",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "SMTP_FROM",
	"FREE_PAGE_LIMIT", "GENERATE_RATE_PER_MINUTE",
	"LOG_JSON", "LOG_DEBUG",
}

// secretKeys may also be given as <KEY>_FILE.
var secretKeys = []string{
	"JWT_SECRET", "GEMINI_API_KEY", "STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET", "SMTP_PASSWORD",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("LLM_PROVIDER", "googleai")
	v.SetDefault("LLM_MODEL", "gemini-2.5-flash")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("FREE_PAGE_LIMIT", 3)
	v.SetDefault("GENERATE_RATE_PER_MINUTE", 6)
	v.SetDefault("JWT_AUDIENCE", "authenticated")
	v.SetDefault("LOG_JSON", false)
	v.SetDefault("LOG_DEBUG", false)
}

// Load reads .env (if present), an optional YAML file and the environment.
// Environment values win over the file.
func Load(file string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("binding %s: %w", k, err)
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %q: %w", file, err)
		}
	}

	for _, k := range secretKeys {
		path := strings.TrimSpace(os.Getenv(k + "_FILE"))
		if path == "" {
			continue
		}
		secret, err := LoadSecret(k, v.GetString(k), path)
		if err != nil {
			return nil, err
		}
		v.Set(k, secret)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	return cfg, nil
}

// LoadSecret returns the trimmed secret, preferring the file contents when a file is set.
func LoadSecret(name, value, file string) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		value = string(data)
	}
	secret := strings.TrimSpace(value)
	if secret == "" {
		if file != "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return "", fmt.Errorf("%s is not configured", name)
	}
	return secret, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.LLMProvider {
	case "googleai", "genai", "none":
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}
	if c.FreePageLimit < 0 {
		errs = append(errs, errors.New("FREE_PAGE_LIMIT must not be negative"))
	}
	return errors.Join(errs...)
}

// BillingEnabled reports whether the payment processor is configured.
func (c *Config) BillingEnabled() bool {
	return c.StripeSecretKey != "" && c.StripePriceID != ""
}

// MailEnabled reports whether SMTP delivery is configured.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
