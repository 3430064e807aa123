package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Database  DatabaseConfig  `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	Scheduler SchedulerConfig `mapstructure:",squash"`
	Logging   LoggingConfig   `mapstructure:",squash"`
	Business  BusinessConfig  `mapstructure:",squash"`
	SMTP      SMTPConfig      `mapstructure:",squash"`
	Health    HealthConfig    `mapstructure:",squash"`

	location *time.Location
}

type ServerConfig struct {
	Port         string        `mapstructure:"SERVER_PORT"`
	Host         string        `mapstructure:"SERVER_HOST"`
	Env          string        `mapstructure:"ENV"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"DATABASE_DRIVER"`
	URL             string        `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int           `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

type RedisConfig struct {
	Host     string        `mapstructure:"REDIS_HOST"`
	Port     string        `mapstructure:"REDIS_PORT"`
	Password string        `mapstructure:"REDIS_PASSWORD"`
	DB       int           `mapstructure:"REDIS_DB"`
	TTL      time.Duration `mapstructure:"CACHE_TTL"`
}

type SchedulerConfig struct {
	ReconcileCron string `mapstructure:"SCHEDULER_RECONCILE_CRON"`
	ReminderCron  string `mapstructure:"SCHEDULER_REMINDER_CRON"`
	Timezone      string `mapstructure:"SCHEDULER_TIMEZONE"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type BusinessConfig struct {
	MonthlyMatchWindowDays int `mapstructure:"MONTHLY_MATCH_WINDOW_DAYS"`
	ScheduleLookaheadDays  int `mapstructure:"SCHEDULE_LOOKAHEAD_DAYS"`
	DefaultPageSize        int `mapstructure:"DEFAULT_PAGE_SIZE"`
	MaxPageSize            int `mapstructure:"MAX_PAGE_SIZE"`
	ReminderLeadDays       int `mapstructure:"REMINDER_LEAD_DAYS"`
}

type SMTPConfig struct {
	Host        string `mapstructure:"SMTP_HOST"`
	Port        string `mapstructure:"SMTP_PORT"`
	Username    string `mapstructure:"SMTP_USERNAME"`
	Password    string `mapstructure:"SMTP_PASSWORD"`
	SenderEmail string `mapstructure:"SENDER_EMAIL"`
}

type HealthConfig struct {
	Timeout string `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

var defaults = map[string]interface{}{
	"SERVER_PORT":                "8080",
	"SERVER_HOST":                "0.0.0.0",
	"ENV":                        "development",
	"SERVER_READ_TIMEOUT":        "10s",
	"SERVER_WRITE_TIMEOUT":       "10s",
	"DATABASE_DRIVER":            "postgres",
	"DATABASE_URL":               "",
	"DATABASE_MAX_OPEN_CONNS":    25,
	"DATABASE_MAX_IDLE_CONNS":    5,
	"DATABASE_CONN_MAX_LIFETIME": "30m",
	"REDIS_HOST":                 "localhost",
	"REDIS_PORT":                 "6379",
	"REDIS_PASSWORD":             "",
	"REDIS_DB":                   0,
	"CACHE_TTL":                  "10m",
	"SCHEDULER_RECONCILE_CRON":   "0 30 0 * * *",
	"SCHEDULER_REMINDER_CRON":    "0 0 9 * * *",
	"SCHEDULER_TIMEZONE":         "Asia/Kolkata",
	"LOG_LEVEL":                  "info",
	"LOG_FORMAT":                 "",
	"MONTHLY_MATCH_WINDOW_DAYS":  14,
	"SCHEDULE_LOOKAHEAD_DAYS":    7,
	"DEFAULT_PAGE_SIZE":          10,
	"MAX_PAGE_SIZE":              100,
	"REMINDER_LEAD_DAYS":         3,
	"SMTP_HOST":                  "",
	"SMTP_PORT":                  "587",
	"SMTP_USERNAME":              "",
	"SMTP_PASSWORD":              "",
	"SENDER_EMAIL":               "",
	"HEALTH_CHECK_TIMEOUT":       "5s",
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// .env files are optional; real environment variables take precedence
	for _, file := range []string{".env", "./deployments/.env"} {
		_ = godotenv.Load(file)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Readable logs locally, JSON everywhere else unless set explicitly
	if config.Logging.Format == "" {
		config.Logging.Format = "json"
		if config.IsDevelopment() {
			config.Logging.Format = "text"
		}
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite3" {
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite3, got %q", c.Database.Driver)
	}

	if c.Business.MonthlyMatchWindowDays <= 0 {
		return fmt.Errorf("MONTHLY_MATCH_WINDOW_DAYS must be greater than 0")
	}

	if c.Business.ScheduleLookaheadDays < 0 {
		return fmt.Errorf("SCHEDULE_LOOKAHEAD_DAYS must not be negative")
	}

	if c.Business.DefaultPageSize <= 0 || c.Business.MaxPageSize < c.Business.DefaultPageSize {
		return fmt.Errorf("DEFAULT_PAGE_SIZE must be positive and not exceed MAX_PAGE_SIZE")
	}

	if c.Business.ReminderLeadDays < 0 {
		return fmt.Errorf("REMINDER_LEAD_DAYS must not be negative")
	}

	// Validate scheduler specs and timezone
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Scheduler.ReconcileCron); err != nil {
		return fmt.Errorf("SCHEDULER_RECONCILE_CRON is invalid: %w", err)
	}
	if _, err := parser.Parse(c.Scheduler.ReminderCron); err != nil {
		return fmt.Errorf("SCHEDULER_REMINDER_CRON is invalid: %w", err)
	}
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid location: %w", err)
	}
	c.location = loc

	// Validate health check timeout
	if _, err := time.ParseDuration(c.Health.Timeout); err != nil {
		return fmt.Errorf("HEALTH_CHECK_TIMEOUT must be a valid duration: %w", err)
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// Addr is the HTTP listen address
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// RedisAddr is the host:port of the cache
func (c *Config) RedisAddr() string {
	return c.Redis.Host + ":" + c.Redis.Port
}

// Location returns the timezone business dates are evaluated in. The zone
// resolved by Validate is reused while the name still matches.
func (c *Config) Location() *time.Location {
	if c.location != nil && c.location.String() == c.Scheduler.Timezone {
		return c.location
	}
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetHealthTimeout returns the health check timeout as duration
func (c *Config) GetHealthTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Health.Timeout)
	return timeout
}

// MailEnabled reports whether reminder mail can be sent
func (c *Config) MailEnabled() bool {
	return c.SMTP.Host != "" && c.SMTP.SenderEmail != ""
}
