package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port    string
	GinMode string
	AppEnv  string
	// Logging
	LogLevel string
	LogFile  string
	// Comma-separated in ALLOWED_ORIGINS; empty disables origin checks.
	AllowedOrigins []string
	// SMTP relay
	SMTPHost          string
	SMTPPort          int
	SMTPSecure        bool
	SMTPUsername      string
	SMTPPassword      string
	MailFrom          string
	MailTo            string
	MailSendPerMinute int
	// Contact rate limiting
	RateLimitWindowSeconds int
	RateLimitMax           int
	RateLimitMaxKeys       int
	// Email domain reachability cache
	DomainCacheMaxEntries int
	// Optional shared state
	RedisURL        string
	RedisPassword   string
	DBUrl           string
	SecurityLogToDB bool
	// Squad sheet proxy
	SquadAPIURL string
	SquadAPIKey string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 465)
	v.SetDefault("SMTP_SECURE", true)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASS", "")
	v.SetDefault("MAIL_FROM", "")
	v.SetDefault("MAIL_TO", "")
	v.SetDefault("MAIL_SEND_PER_MINUTE", 30)
	v.SetDefault("CONTACT_RATE_LIMIT_WINDOW_SECONDS", 60)
	v.SetDefault("CONTACT_RATE_LIMIT_MAX", 5)
	v.SetDefault("RATE_LIMIT_MAX_KEYS", 10000)
	v.SetDefault("DOMAIN_CACHE_MAX_ENTRIES", 10000)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SECURITY_LOG_TO_DB", true)
	v.SetDefault("SQUAD_API_URL", "")
	v.SetDefault("SQUAD_API_KEY", "")
}

// LoadConfig reads .env (if present), then the optional config file, then the
// environment. Environment variables win over the file.
func LoadConfig(configFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		Port:     v.GetString("PORT"),
		GinMode:  v.GetString("GIN_MODE"),
		AppEnv:   v.GetString("APP_ENV"),
		LogLevel: v.GetString("LOG_LEVEL"),
		LogFile:  v.GetString("LOG_FILE"),

		AllowedOrigins: parseList(v.GetString("ALLOWED_ORIGINS")),

		SMTPHost:          strings.TrimSpace(v.GetString("SMTP_HOST")),
		SMTPPort:          v.GetInt("SMTP_PORT"),
		SMTPSecure:        v.GetBool("SMTP_SECURE"),
		SMTPUsername:      v.GetString("SMTP_USER"),
		SMTPPassword:      v.GetString("SMTP_PASS"),
		MailFrom:          strings.TrimSpace(v.GetString("MAIL_FROM")),
		MailTo:            strings.TrimSpace(v.GetString("MAIL_TO")),
		MailSendPerMinute: v.GetInt("MAIL_SEND_PER_MINUTE"),

		RateLimitWindowSeconds: v.GetInt("CONTACT_RATE_LIMIT_WINDOW_SECONDS"),
		RateLimitMax:           v.GetInt("CONTACT_RATE_LIMIT_MAX"),
		RateLimitMaxKeys:       v.GetInt("RATE_LIMIT_MAX_KEYS"),

		DomainCacheMaxEntries: v.GetInt("DOMAIN_CACHE_MAX_ENTRIES"),

		RedisURL:        v.GetString("REDIS_URL"),
		RedisPassword:   v.GetString("REDIS_PASSWORD"),
		DBUrl:           v.GetString("DATABASE_URL"),
		SecurityLogToDB: v.GetBool("SECURITY_LOG_TO_DB"),

		SquadAPIURL: strings.TrimSpace(v.GetString("SQUAD_API_URL")),
		SquadAPIKey: strings.TrimSpace(v.GetString("SQUAD_API_KEY")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		errs = append(errs, fmt.Errorf("SMTP_PORT out of range: %d", c.SMTPPort))
	}
	if c.RateLimitWindowSeconds <= 0 {
		errs = append(errs, fmt.Errorf("CONTACT_RATE_LIMIT_WINDOW_SECONDS must be positive: %d", c.RateLimitWindowSeconds))
	}
	if c.RateLimitMax <= 0 {
		errs = append(errs, fmt.Errorf("CONTACT_RATE_LIMIT_MAX must be positive: %d", c.RateLimitMax))
	}
	return errors.Join(errs...)
}

// RateLimitWindow is the contact limiter window as a duration.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production" || c.GinMode == "release"
}

func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
