package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"invoicer/internal/logger"
)

// Workspace backends.
const (
	BackendNotion = "notion"
	BackendSheets = "sheets"
	BackendProxy  = "proxy"
)

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	// Local state
	StateDir  string
	DraftPath string
	ExportDir string

	// Workspace
	WorkspaceBackend string

	// Notion Configuration
	NotionAPIKey     string
	NotionClientsDB  string
	NotionInvoicesDB string
	NotionVersion    string

	// Google Sheets Configuration
	GoogleSheetURL      string
	GoogleSheetClients  string
	GoogleSheetInvoices string

	// Relay Configuration
	APIURL        string
	ProxyAddr     string
	ProxyPath     string
	ImageCacheTTL  time.Duration
	ImageCacheSize int
	HTTPTimeout    time.Duration

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	stateDir := getEnv("INVOICER_STATE_DIR", defaultStateDir())

	config := &Config{
		StateDir:            stateDir,
		DraftPath:           getEnv("INVOICER_DRAFT", filepath.Join(stateDir, "draft.json")),
		ExportDir:           getEnv("INVOICER_EXPORT_DIR", "."),
		WorkspaceBackend:    getEnv("WORKSPACE_BACKEND", BackendNotion),
		NotionAPIKey:        getEnv("NOTION_API_KEY", ""),
		NotionClientsDB:     getEnv("NOTION_CLIENTS_DB", ""),
		NotionInvoicesDB:    getEnv("NOTION_INVOICES_DB", ""),
		NotionVersion:       getEnv("NOTION_VERSION", "2022-06-28"),
		GoogleSheetURL:      getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetClients:  getEnv("GOOGLE_SHEET_CLIENTS", "Clients"),
		GoogleSheetInvoices: getEnv("GOOGLE_SHEET_INVOICES", "Invoices"),
		APIURL:              getEnv("INVOICER_API_URL", ""),
		ProxyAddr:           getEnv("PROXY_ADDR", ":8888"),
		ProxyPath:           getEnv("PROXY_PATH", "/api/workspace"),
		LogLevel:            getEnv("LOG_LEVEL", "warn"),
		LogFormat:           getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:       getEnv("LOG_TIME_FORMAT", "RFC3339"),
		LogOutput:           getEnv("LOG_OUTPUT", "stderr"),
	}

	var err error
	if config.ImageCacheTTL, err = getDuration("IMAGE_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if config.ImageCacheSize, err = getInt("IMAGE_CACHE_SIZE", 64); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if config.HTTPTimeout, err = getDuration("HTTP_TIMEOUT", 30*time.Second); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.WorkspaceBackend {
	case BackendNotion, BackendSheets, BackendProxy:
	default:
		return fmt.Errorf("WORKSPACE_BACKEND must be notion, sheets or proxy, got %q: %w", c.WorkspaceBackend, ErrInvalidConfig)
	}
	if c.StateDir == "" {
		return fmt.Errorf("INVOICER_STATE_DIR is required: %w", ErrInvalidConfig)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive: %w", ErrInvalidConfig)
	}
	if c.ImageCacheTTL < 0 {
		return fmt.Errorf("IMAGE_CACHE_TTL must not be negative: %w", ErrInvalidConfig)
	}
	if c.ImageCacheSize <= 0 {
		return fmt.Errorf("IMAGE_CACHE_SIZE must be positive: %w", ErrInvalidConfig)
	}
	return nil
}

// ValidateWorkspace checks the settings the selected backend needs. It is only
// called by commands that reach the workspace.
func (c *Config) ValidateWorkspace() error {
	switch c.WorkspaceBackend {
	case BackendNotion:
		if c.NotionAPIKey == "" {
			return fmt.Errorf("NOTION_API_KEY is required: %w", ErrInvalidConfig)
		}
		if c.NotionClientsDB == "" {
			return fmt.Errorf("NOTION_CLIENTS_DB is required: %w", ErrInvalidConfig)
		}
		if c.NotionInvoicesDB == "" {
			return fmt.Errorf("NOTION_INVOICES_DB is required: %w", ErrInvalidConfig)
		}
	case BackendSheets:
		if c.GoogleSheetURL == "" {
			return fmt.Errorf("GOOGLE_SHEET_URL is required: %w", ErrInvalidConfig)
		}
	case BackendProxy:
		if c.APIURL == "" {
			return fmt.Errorf("INVOICER_API_URL is required: %w", ErrInvalidConfig)
		}
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, errors.Join(ErrInvalidConfig, err))
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, errors.Join(ErrInvalidConfig, err))
	}
	return n, nil
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".invoicer"
	}
	return filepath.Join(home, ".invoicer")
}
