package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string

	// Local storage
	FileDataPath string
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Supabase cloud mirror
	SupabaseURL    string
	SupabaseAPIKey string
	SupabaseTable  string

	// Reporting
	MonthlyGoalYen      int64
	RecurringMarkers    []string
	GoogleSpreadsheetID string

	// freee
	FreeeClientID     string
	FreeeClientSecret string
	FreeeCompanyID    int64
	FreeeRedirectURL  string
	FreeeTokenFile    string
	PDFDir            string

	// Worker
	SyncInterval     time.Duration
	WorkerHealthPort string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:  getEnv("DATA_BACKEND", "file"),
		FileDataPath: getEnv("FILE_DATA_PATH", "./data/projects.json"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/uriage.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "uriage"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_records"),

		SupabaseURL:    getEnv("SUPABASE_URL", ""),
		SupabaseAPIKey: getEnv("SUPABASE_API_KEY", ""),
		SupabaseTable:  getEnv("SUPABASE_TABLE", "projects"),

		MonthlyGoalYen:      getEnvInt64("MONTHLY_GOAL_YEN", 800_000),
		RecurringMarkers:    getEnvCSV("RECURRING_MARKERS", []string{"hosting", "domain"}),
		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),

		FreeeClientID:     getEnv("FREEE_CLIENT_ID", ""),
		FreeeClientSecret: getEnv("FREEE_CLIENT_SECRET", ""),
		FreeeCompanyID:    getEnvInt64("FREEE_COMPANY_ID", 0),
		FreeeRedirectURL:  getEnv("FREEE_REDIRECT_URL", "http://localhost:8090/callback"),
		FreeeTokenFile:    getEnv("FREEE_TOKEN_FILE", "./data/freee_token.json"),
		PDFDir:            getEnv("PDF_DIR", "./data/invoices"),

		SyncInterval:     getEnvDuration("SYNC_INTERVAL", 30*time.Second),
		WorkerHealthPort: getEnv("WORKER_HEALTH_PORT", "8091"),
	}

	return cfg
}

// SupabaseEnabled reports whether the cloud mirror is configured.
func (c *Config) SupabaseEnabled() bool {
	return c.SupabaseURL != "" && c.SupabaseAPIKey != ""
}

// FreeeEnabled reports whether the freee wrapper is configured.
func (c *Config) FreeeEnabled() bool {
	return c.FreeeClientID != "" && c.FreeeClientSecret != "" && c.FreeeCompanyID != 0
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate ports
	if msg := portError("port", c.Port); msg != "" {
		errors = append(errors, msg)
	}
	if msg := portError("worker health port", c.WorkerHealthPort); msg != "" {
		errors = append(errors, msg)
	}

	// Validate data backend
	validBackends := []string{"file", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate local storage paths per backend
	switch c.DataBackend {
	case "file":
		if c.FileDataPath == "" {
			errors = append(errors, "file data path cannot be empty when using file backend")
		} else {
			errors = append(errors, ensureParentDir(c.FileDataPath, "file data")...)
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			errors = append(errors, ensureParentDir(c.SQLiteDBPath, "SQLite database")...)
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate Supabase configuration
	if c.SupabaseURL != "" || c.SupabaseAPIKey != "" {
		if c.SupabaseURL == "" {
			errors = append(errors, "SUPABASE_URL is required when SUPABASE_API_KEY is set")
		} else if parsedURL, err := url.Parse(c.SupabaseURL); err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid Supabase URL '%s'", c.SupabaseURL))
		}
		if c.SupabaseAPIKey == "" {
			errors = append(errors, "SUPABASE_API_KEY is required when SUPABASE_URL is set")
		}
		if c.SupabaseTable == "" {
			errors = append(errors, "Supabase table name cannot be empty")
		}
	}

	// Validate reporting configuration
	if c.MonthlyGoalYen < 1 {
		errors = append(errors, fmt.Sprintf("invalid monthly goal %d: must be at least 1 yen", c.MonthlyGoalYen))
	}
	for _, m := range c.RecurringMarkers {
		if strings.TrimSpace(m) == "" {
			errors = append(errors, "recurring markers cannot contain empty entries")
			break
		}
	}

	// Validate freee configuration when partially set
	freeeAny := c.FreeeClientID != "" || c.FreeeClientSecret != "" || c.FreeeCompanyID != 0
	if freeeAny {
		if c.FreeeClientID == "" {
			errors = append(errors, "FREEE_CLIENT_ID is required when freee is configured")
		}
		if c.FreeeClientSecret == "" {
			errors = append(errors, "FREEE_CLIENT_SECRET is required when freee is configured")
		}
		if c.FreeeCompanyID == 0 {
			errors = append(errors, "FREEE_COMPANY_ID is required when freee is configured")
		}
	}

	// Validate worker configuration
	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func portError(name, value string) string {
	port, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Sprintf("invalid %s '%s': must be a number", name, value)
	}
	if port < 1 || port > 65535 {
		return fmt.Sprintf("invalid %s %d: must be between 1 and 65535", name, port)
	}
	return ""
}

func ensureParentDir(path, what string) []string {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return []string{fmt.Sprintf("cannot create %s directory '%s': %v", what, dir, err)}
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvCSV(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
