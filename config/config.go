package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration. Behavioral knobs live in the
// yaml file; credentials and connection strings come from the environment.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Lifecycle LifecycleConfig `yaml:"lifecycle"`
	Push      PushConfig      `yaml:"push"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	Reminder  ReminderConfig  `yaml:"reminder"`

	// From environment only.
	RedisAddr string `yaml:"-"`
	RedisPwd  string `yaml:"-"`
}

// ServerConfig holds the HTTP-facing settings.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	WebOrigin       string  `yaml:"web_origin"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// LifecycleConfig holds the request/borrow timing rules.
type LifecycleConfig struct {
	TokenWindowMinutes    int `yaml:"token_window_minutes"`
	ExtendWindowMinutes   int `yaml:"extend_window_minutes"`
	OverdueAfterHours     int `yaml:"overdue_after_hours"`
	ReminderCooldownHours int `yaml:"reminder_cooldown_hours"`
}

func (l LifecycleConfig) TokenWindow() time.Duration {
	return time.Duration(l.TokenWindowMinutes) * time.Minute
}

func (l LifecycleConfig) ExtendWindow() time.Duration {
	return time.Duration(l.ExtendWindowMinutes) * time.Minute
}

func (l LifecycleConfig) OverdueAfter() time.Duration {
	return time.Duration(l.OverdueAfterHours) * time.Hour
}

func (l LifecycleConfig) ReminderCooldown() time.Duration {
	return time.Duration(l.ReminderCooldownHours) * time.Hour
}

// PushConfig holds the VAPID keys for manager web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
	PoolSize   int    `yaml:"pool_size"`
}

// SMTPConfig holds the manager-mail settings. Password comes from SMTP_PASSWORD.
type SMTPConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	From string `yaml:"from"`
}

// ReminderConfig points at the messaging gateway used for overdue reminders.
type ReminderConfig struct {
	WebhookURL     string `yaml:"webhook_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// LoadEnv loads a .env file when present. Missing files are fine; containers
// set real environment variables instead.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded:", err)
	}
}

// Load reads the yaml config from path, applies defaults, and overlays the
// environment-only settings.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	cfg.RedisAddr = getenv("REDIS_ADDR", "127.0.0.1:6379")
	cfg.RedisPwd = os.Getenv("REDIS_PASSWORD")
	return &cfg, nil
}

// Default returns a config with all defaults applied, for tests and for
// running without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port <= 0 {
		c.Server.Port = 3001
	}
	if c.Server.RateLimitPerSec <= 0 {
		c.Server.RateLimitPerSec = 10
	}
	if c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = 5
	}
	if c.Server.CacheTTLSeconds <= 0 {
		c.Server.CacheTTLSeconds = 60
	}
	if c.Lifecycle.TokenWindowMinutes <= 0 {
		c.Lifecycle.TokenWindowMinutes = 30
	}
	if c.Lifecycle.ExtendWindowMinutes <= 0 {
		c.Lifecycle.ExtendWindowMinutes = 60
	}
	if c.Lifecycle.OverdueAfterHours <= 0 {
		c.Lifecycle.OverdueAfterHours = 24
	}
	if c.Lifecycle.ReminderCooldownHours <= 0 {
		c.Lifecycle.ReminderCooldownHours = 24
	}
	if c.Push.TTL <= 0 {
		c.Push.TTL = 3600
	}
	if c.Push.PoolSize <= 0 {
		c.Push.PoolSize = 1
	}
	if c.Reminder.TimeoutSeconds <= 0 {
		c.Reminder.TimeoutSeconds = 10
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
