package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Backend   BackendConfig
	Session   SessionConfig
	Monitor   MonitorConfig
	Reporting ReportingConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
	MongoDB   MongoDBConfig
	RabbitMQ  RabbitMQConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port          string
	SessionCookie string
	SecureCookie  bool
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string
	Development bool
}

// Backend drivers.
const (
	DriverSupabase = "supabase"
	DriverMemory   = "memory"
)

// BackendConfig describes the hosted backend-as-a-service project.
type BackendConfig struct {
	Driver     string
	URL        string
	AnonKey    string
	ServiceKey string
	JWTSecret  string
	Timeout    time.Duration
	RetryDelay time.Duration
	// Demo account seeded into the memory driver.
	DemoEmail    string
	DemoPassword string
}

// Session store drivers.
const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

// SessionConfig selects where per-browser session state is kept.
type SessionConfig struct {
	Store         string
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// MonitorConfig holds the live-update polling settings.
type MonitorConfig struct {
	RefreshInterval time.Duration
	AlertInterval   time.Duration
	Jitter          time.Duration
	Debounce        time.Duration
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
}

// WhatsAppConfig contains credentials for the alert channel over the Meta WhatsApp Cloud API.
// The channel is disabled when AccessToken is empty.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
	AlertTo       []string
}

// Enabled reports whether alerts should be pushed over WhatsApp.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != "" && len(c.AlertTo) > 0
}

// SheetsConfig contains configuration required to export to Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	ExportSheet     string
}

// Enabled reports whether the Google Sheets export sink is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// MongoDBConfig holds settings for the snapshot archive.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Enabled reports whether daily snapshots are archived.
func (c MongoDBConfig) Enabled() bool {
	return c.URI != ""
}

// RabbitMQConfig holds settings for the alert event queue.
type RabbitMQConfig struct {
	URL        string
	AlertQueue string
}

// Enabled reports whether alert events are published to RabbitMQ.
func (c RabbitMQConfig) Enabled() bool {
	return c.URL != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable when configuration comes from the
		// environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:          getenvWithDefault("APP_PORT", "8080"),
			SessionCookie: getenvWithDefault("SESSION_COOKIE", "telurku_session"),
			SecureCookie:  getenvBool("SESSION_COOKIE_SECURE", false),
		},
		Log: LogConfig{
			Level:       getenvWithDefault("LOG_LEVEL", "info"),
			Development: getenvBool("LOG_DEVELOPMENT", false),
		},
		Backend: BackendConfig{
			Driver:     strings.ToLower(getenvWithDefault("BACKEND_DRIVER", DriverSupabase)),
			URL:        os.Getenv("SUPABASE_URL"),
			AnonKey:    os.Getenv("SUPABASE_ANON_KEY"),
			ServiceKey: os.Getenv("SUPABASE_SERVICE_KEY"),
			JWTSecret:  os.Getenv("SUPABASE_JWT_SECRET"),
			Timeout:    getenvDuration("SUPABASE_TIMEOUT", 15*time.Second),
			RetryDelay: getenvDuration("SUPABASE_INIT_RETRY_DELAY", time.Second),

			DemoEmail:    os.Getenv("DEMO_ADMIN_EMAIL"),
			DemoPassword: os.Getenv("DEMO_ADMIN_PASSWORD"),
		},
		Session: SessionConfig{
			Store:         strings.ToLower(getenvWithDefault("SESSION_STORE", SessionMemory)),
			TTL:           getenvDuration("SESSION_TTL", 12*time.Hour),
			RedisAddr:     getenvWithDefault("REDIS_ADDR", "localhost:6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       getenvInt("REDIS_DB", 0),
			RedisPrefix:   getenvWithDefault("REDIS_SESSION_PREFIX", "telurku:session"),
		},
		Monitor: MonitorConfig{
			RefreshInterval: getenvDuration("DASHBOARD_REFRESH_INTERVAL", 30*time.Second),
			AlertInterval:   getenvDuration("ALERT_CHECK_INTERVAL", 10*time.Second),
			Jitter:          getenvDuration("POLL_JITTER", 0),
			Debounce:        getenvDuration("REFRESH_DEBOUNCE", 300*time.Millisecond),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "Africa/Conakry"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			AlertTo:       splitList(os.Getenv("WHATSAPP_ALERT_TO")),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_EXPORT_ID"),
			ExportSheet:     getenvWithDefault("GOOGLE_SHEET_EXPORT_TAB", "Export"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "telurku"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:        os.Getenv("RABBITMQ_URL"),
			AlertQueue: getenvWithDefault("RABBITMQ_ALERT_QUEUE", "barn.alerts"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}
	if c.Server.SessionCookie == "" {
		return errors.New("SESSION_COOKIE must not be empty")
	}

	switch c.Backend.Driver {
	case DriverSupabase:
		if c.Backend.URL == "" {
			return errors.New("SUPABASE_URL must be provided")
		}
		if c.Backend.AnonKey == "" {
			return errors.New("SUPABASE_ANON_KEY must be provided")
		}
	case DriverMemory:
		if c.Backend.DemoEmail != "" && c.Backend.DemoPassword == "" {
			return errors.New("DEMO_ADMIN_PASSWORD must be provided when DEMO_ADMIN_EMAIL is set")
		}
	default:
		return fmt.Errorf("unsupported BACKEND_DRIVER %q", c.Backend.Driver)
	}

	switch c.Session.Store {
	case SessionMemory:
	case SessionRedis:
		if c.Session.RedisAddr == "" {
			return errors.New("REDIS_ADDR must be provided for the redis session store")
		}
	default:
		return fmt.Errorf("unsupported SESSION_STORE %q", c.Session.Store)
	}

	if c.Session.TTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}

	if c.Monitor.RefreshInterval <= 0 {
		return errors.New("DASHBOARD_REFRESH_INTERVAL must be positive")
	}
	if c.Monitor.AlertInterval <= 0 {
		return errors.New("ALERT_CHECK_INTERVAL must be positive")
	}
	if c.Monitor.Jitter < 0 {
		return errors.New("POLL_JITTER must not be negative")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}
	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	if c.WhatsApp.AccessToken != "" && c.WhatsApp.PhoneNumberID == "" {
		return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided when WHATSAPP_TOKEN is set")
	}

	if c.Sheets.SpreadsheetID != "" && c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided when GOOGLE_SHEET_EXPORT_ID is set")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
