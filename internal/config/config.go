package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // farm time zones resolve in minimal containers

	"github.com/joho/godotenv"
)

// Record source backends.
const (
	SourceMongoDB = "mongodb"
	SourceSheets  = "sheets"
)

// Notification state backends.
const (
	StateMemory = "memory"
	StateRedis  = "redis"
	StateSQLite = "sqlite"
)

// Config represents the full application configuration surface.
type Config struct {
	Server        ServerConfig
	Log           LogConfig
	Records       RecordsConfig
	MongoDB       MongoDBConfig
	Sheets        SheetsConfig
	WhatsApp      WhatsAppConfig
	Scheduler     SchedulerConfig
	Sessions      SessionsConfig
	State         StateConfig
	Notifications NotificationsConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LogConfig selects the log level.
type LogConfig struct {
	Level string
}

// RecordsConfig selects where herd records are read from.
type RecordsConfig struct {
	Source string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Enabled reports whether a MongoDB connection is configured.
func (c MongoDBConfig) Enabled() bool {
	return c.URI != ""
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether a spreadsheet is configured.
func (c SheetsConfig) Enabled() bool {
	return c.SpreadsheetID != ""
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
	RetryCount    int
}

// Enabled reports whether WhatsApp credentials are present.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != ""
}

// SchedulerConfig holds cron specs and the farm time zone.
type SchedulerConfig struct {
	EvaluationSpec string
	SessionSpec    string
	Timezone       string
}

// SessionsConfig holds milking session boundaries as HH:MM.
type SessionsConfig struct {
	MorningStart  string
	MorningEnd    string
	EveningStart  string
	EveningEnd    string
	TriggerMode   string
	CatchupWindow time.Duration
}

// StateConfig selects the notification state backend.
type StateConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SQLitePath    string
	RetentionDays int
}

// NotificationsConfig lists delivery recipients.
type NotificationsConfig struct {
	Recipients []string
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
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	retryCount, err := getenvInt("WHATSAPP_RETRY_COUNT", 2)
	if err != nil {
		return nil, err
	}
	redisDB, err := getenvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	retention, err := getenvInt("STATE_RETENTION_DAYS", 30)
	if err != nil {
		return nil, err
	}
	catchupWindow, err := time.ParseDuration(getenvWithDefault("SESSION_CATCHUP_WINDOW", "2h"))
	if err != nil {
		return nil, fmt.Errorf("SESSION_CATCHUP_WINDOW: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Records: RecordsConfig{
			Source: strings.ToLower(getenvWithDefault("RECORD_SOURCE", SourceMongoDB)),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "dairy"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			RetryCount:    retryCount,
		},
		Scheduler: SchedulerConfig{
			EvaluationSpec: getenvWithDefault("EVALUATION_CRON_SCHEDULE", "@every 5m"),
			SessionSpec:    getenvWithDefault("SESSION_CRON_SCHEDULE", "* * * * *"),
			Timezone:       getenvWithDefault("TIMEZONE", "Africa/Conakry"),
		},
		Sessions: SessionsConfig{
			MorningStart:  getenvWithDefault("SESSION_MORNING_START", "06:00"),
			MorningEnd:    getenvWithDefault("SESSION_MORNING_END", "08:00"),
			EveningStart:  getenvWithDefault("SESSION_EVENING_START", "17:00"),
			EveningEnd:    getenvWithDefault("SESSION_EVENING_END", "19:00"),
			TriggerMode:   getenvWithDefault("SESSION_TRIGGER_MODE", "exact"),
			CatchupWindow: catchupWindow,
		},
		State: StateConfig{
			Backend:       strings.ToLower(getenvWithDefault("STATE_BACKEND", StateMemory)),
			RedisAddr:     getenvWithDefault("REDIS_ADDR", "localhost:6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       redisDB,
			SQLitePath:    getenvWithDefault("SQLITE_PATH", "data/dairy.db"),
			RetentionDays: retention,
		},
		Notifications: NotificationsConfig{
			Recipients: splitList(os.Getenv("NOTIFY_RECIPIENTS")),
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

	switch c.Records.Source {
	case SourceMongoDB:
		if !c.MongoDB.Enabled() {
			return errors.New("MONGODB_URI must be provided when RECORD_SOURCE=mongodb")
		}
	case SourceSheets:
		if !c.Sheets.Enabled() {
			return errors.New("GOOGLE_SHEET_DATABASE_ID must be provided when RECORD_SOURCE=sheets")
		}
		if c.Sheets.CredentialsPath == "" {
			return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided when RECORD_SOURCE=sheets")
		}
	default:
		return fmt.Errorf("RECORD_SOURCE %q is not supported", c.Records.Source)
	}

	if c.MongoDB.Enabled() && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must not be empty")
	}

	if (c.WhatsApp.AccessToken == "") != (c.WhatsApp.PhoneNumberID == "") {
		return errors.New("WHATSAPP_TOKEN and WHATSAPP_PHONE_NUMBER_ID must be provided together")
	}
	if c.WhatsApp.Enabled() && (c.WhatsApp.BaseURL == "" || c.WhatsApp.APIVersion == "") {
		return errors.New("WHATSAPP_BASE_URL and WHATSAPP_API_VERSION must not be empty")
	}

	if c.Scheduler.EvaluationSpec == "" {
		return errors.New("EVALUATION_CRON_SCHEDULE must be provided")
	}
	if c.Scheduler.SessionSpec == "" {
		return errors.New("SESSION_CRON_SCHEDULE must be provided")
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Scheduler.Timezone, err)
	}

	switch c.State.Backend {
	case StateMemory:
	case StateRedis:
		if c.State.RedisAddr == "" {
			return errors.New("REDIS_ADDR must be provided when STATE_BACKEND=redis")
		}
	case StateSQLite:
		if c.State.SQLitePath == "" {
			return errors.New("SQLITE_PATH must be provided when STATE_BACKEND=sqlite")
		}
	default:
		return fmt.Errorf("STATE_BACKEND %q is not supported", c.State.Backend)
	}

	return nil
}

// Location returns the farm time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
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
