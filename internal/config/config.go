// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Data      DataConfig
	Server    ServerConfig
	Share     ShareConfig
	Invoice   InvoiceConfig
	Backup    BackupConfig
	RateLimit RateLimitConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds board-store storage configuration.
type DataConfig struct {
	BasePath string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Name          string
	LocalURL      string        // Optional
	RemoteURL     string        // Optional
	Port          string        // Server port (default: 8080)
	ReadTimeout   time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout  time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout   time.Duration // HTTP idle timeout (default: 60s)
	AdvertiseMDNS bool          // Advertise via mDNS/Zeroconf (default: true)
	CORSOrigins   []string      // Allowed browser origins (default: *)
}

// ShareConfig holds public share-link configuration.
type ShareConfig struct {
	// PASETO v4 symmetric key for share tokens, hex-encoded (64 chars).
	// Generated and persisted under the data directory when empty.
	TokenKey string
	// Lifetime of issued share links (default: 720h).
	TokenDuration time.Duration
}

// InvoiceConfig holds the invoice ledger configuration.
type InvoiceConfig struct {
	// LedgerPath is the sqlite file for confirmed invoices (default: {data}/invoices.db).
	LedgerPath string
}

// BackupConfig holds backup configuration.
type BackupConfig struct {
	// Dir is where backup archives are written (default: {data}/backups).
	Dir string
}

// RateLimitConfig holds command rate limiting configuration.
type RateLimitConfig struct {
	// Enabled toggles per-client command rate limiting (default: true).
	Enabled bool
	// PerSecond is the sustained command rate per client key (default: 25).
	PerSecond int
	// Burst is the burst allowance per client key (default: 50).
	Burst int
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for board data storage")
	serverName := flag.String("server-name", "", "Name for the server")
	serverLocalURL := flag.String("local-url", "", "Internal server url")
	serverRemoteURL := flag.String("remote-url", "", "Remote server url")

	// Share-link flags
	shareTokenKey := flag.String("share-token-key", "", "Hex-encoded 32-byte key for share tokens")
	shareTokenDuration := flag.String("share-token-duration", "", "Share link lifetime (e.g., 720h)")

	// Server flags
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	advertiseMDNS := flag.String("advertise-mdns", "", "Advertise via mDNS/Zeroconf (default: true)")
	corsOrigins := flag.String("cors-origins", "", "Comma-separated allowed CORS origins (default: *)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	// Invoice / backup flags
	invoiceLedgerPath := flag.String("invoice-ledger-path", "", "Path to sqlite invoice ledger")
	backupDir := flag.String("backup-dir", "", "Directory for backup archives")

	// Rate limit flags
	rateLimitEnabled := flag.String("rate-limit", "", "Enable command rate limiting (default: true)")
	rateLimitPerSecond := flag.String("rate-limit-per-second", "", "Sustained commands per second per client (default: 25)")
	rateLimitBurst := flag.String("rate-limit-burst", "", "Command burst per client (default: 50)")

	// Parse flags but don't exit on error - we want to handle it gracefully.
	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},

		Server: ServerConfig{
			Name:          getConfigValue(*serverName, "SERVER_NAME", "FlowDeck Server"),
			LocalURL:      getConfigValue(*serverLocalURL, "SERVER_LOCAL_URL", ""),
			RemoteURL:     getConfigValue(*serverRemoteURL, "SERVER_REMOTE_URL", ""),
			Port:          getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			AdvertiseMDNS: getBoolConfigValue(*advertiseMDNS, "ADVERTISE_MDNS", true),
			CORSOrigins:   splitAndTrim(getConfigValue(*corsOrigins, "CORS_ORIGINS", "*")),
		},

		Share: ShareConfig{
			TokenKey: getConfigValue(*shareTokenKey, "SHARE_TOKEN_KEY", ""),
		},

		Invoice: InvoiceConfig{
			LedgerPath: getConfigValue(*invoiceLedgerPath, "INVOICE_LEDGER_PATH", ""),
		},

		Backup: BackupConfig{
			Dir: getConfigValue(*backupDir, "BACKUP_DIR", ""),
		},

		RateLimit: RateLimitConfig{
			Enabled:   getBoolConfigValue(*rateLimitEnabled, "RATE_LIMIT", true),
			PerSecond: getIntConfigValue(*rateLimitPerSecond, "RATE_LIMIT_PER_SECOND", 25),
			Burst:     getIntConfigValue(*rateLimitBurst, "RATE_LIMIT_BURST", 50),
		},
	}

	// Parse share token duration.
	shareDurationStr := getConfigValue(*shareTokenDuration, "SHARE_TOKEN_DURATION", "720h")
	shareDuration, err := time.ParseDuration(shareDurationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid share token duration %q: %w", shareDurationStr, err)
	}
	cfg.Share.TokenDuration = shareDuration

	// Parse server timeouts.
	readTimeoutStr := getConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	readTimeoutDuration, err := time.ParseDuration(readTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout %q: %w", readTimeoutStr, err)
	}
	cfg.Server.ReadTimeout = readTimeoutDuration

	writeTimeoutStr := getConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s")
	writeTimeoutDuration, err := time.ParseDuration(writeTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout %q: %w", writeTimeoutStr, err)
	}
	cfg.Server.WriteTimeout = writeTimeoutDuration

	idleTimeoutStr := getConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	idleTimeoutDuration, err := time.ParseDuration(idleTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid idle timeout %q: %w", idleTimeoutStr, err)
	}
	cfg.Server.IdleTimeout = idleTimeoutDuration

	// Expand and validate the data path.
	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	// Expand derived paths (default under the data directory).
	if err := cfg.expandInvoiceLedgerPath(); err != nil {
		return nil, fmt.Errorf("invalid invoice ledger path: %w", err)
	}
	if err := cfg.expandBackupDir(); err != nil {
		return nil, fmt.Errorf("invalid backup dir: %w", err)
	}

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.RateLimit.PerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("rate limit values must be positive")
	}

	// Share key is generated and persisted by the share service when empty.

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "FlowDeck", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// expandInvoiceLedgerPath defaults to {data}/invoices.db if not specified.
func (c *Config) expandInvoiceLedgerPath() error {
	defaultPath := filepath.Join(c.Data.BasePath, "invoices.db")

	expanded, err := expandPath(c.Invoice.LedgerPath, defaultPath)
	if err != nil {
		return err
	}
	c.Invoice.LedgerPath = expanded
	return nil
}

// expandBackupDir defaults to {data}/backups if not specified.
func (c *Config) expandBackupDir() error {
	defaultPath := filepath.Join(c.Data.BasePath, "backups")

	expanded, err := expandPath(c.Backup.Dir, defaultPath)
	if err != nil {
		return err
	}
	c.Backup.Dir = expanded
	return nil
}

// splitAndTrim splits a comma-separated list and trims whitespace.
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
