// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"posbackend/internal/logger"
)

// Variables available everywhere
var (
	baseDir       string
	dataDirectory string
	logsDirectory string

	// Exported settings
	LogFileFormat    string
	AllowedOrigin    string // For CORS
	CatalogSource    string // "embedded", a file path, or an http(s) URL
	DatabasePath     string
	LogRetentionDays int
)

//
// --- Utility Helpers ---
//

// Helper: get a setting based on ENVIRONMENT (dev or prod)
func GetEnvBasedSetting(base string) string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}
	return os.Getenv(fmt.Sprintf("%s_%s", base, strings.ToUpper(env)))
}

// Helper: log which environment is running
func LogCurrentEnvironment() {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}

	if env == "dev" {
		logger.LogInfo("Running in development environment")
	} else {
		logger.LogInfo("Running in production environment")
	}
}

//
// --- Loaders ---
//

// LoadEnv reads .env file
func LoadEnv() {
	wd, err := os.Getwd()
	if err != nil {
		log.Printf("Could not determine working directory: %v", err)
	}

	err = godotenv.Load(".env")
	if err != nil {
		log.Printf("No .env file found in %s. Using system environment variables.", wd)
	} else {
		log.Printf("Loaded environment variables from .env file in %s", wd)
	}
}

// LoggerConfig returns a logger.Config struct populated from environment
func LoggerConfig() logger.Config {
	logDir := GetEnvBasedSetting("LOGS_DIRECTORY")
	if logDir == "" {
		logDir = "./logs"
	}

	logFormat := GetEnvBasedSetting("LOG_FILE_FORMAT")
	if logFormat == "" {
		logFormat = "pos_%s.log"
	}

	timezone := os.Getenv("TIME_ZONE")
	if timezone == "" {
		timezone = "Asia/Bangkok"
	}

	return logger.Config{
		LogsDirectory: logDir,
		LogFileFormat: logFormat,
		TimeZone:      timezone,
	}
}

// ConfigurePaths sets up folders and paths
func ConfigurePaths() {
	wd, err := os.Getwd()
	if err != nil {
		logger.LogFatal("Failed to get working directory: %v", err)
	}
	baseDir = wd

	dataDir := GetEnvBasedSetting("DATA_DIRECTORY")
	if dataDir != "" {
		dataDirectory = dataDir
	} else {
		dataDirectory = filepath.Join(baseDir, "data")
	}

	logsDir := GetEnvBasedSetting("LOGS_DIRECTORY")
	if logsDir != "" {
		logsDirectory = logsDir
	} else {
		logsDirectory = filepath.Join(baseDir, "logs")
	}

	LogFileFormat = "pos_%s.log"
}

// LoadCatalogConfig decides where product data comes from.
// CATALOG_SOURCE accepts "embedded" (the baked-in dataset), a path to a
// JSON file, or an http(s) URL serving product-list.json.
func LoadCatalogConfig() {
	CatalogSource = os.Getenv("CATALOG_SOURCE")
	if CatalogSource == "" {
		CatalogSource = "embedded"
		logger.LogInfo("CATALOG_SOURCE not set, using embedded product dataset")
	} else {
		logger.LogInfo("Catalog source: %s", CatalogSource)
	}
}

// LoadStorageConfig sets the SQLite path backing the cart and override stores.
func LoadStorageConfig() {
	DatabasePath = GetEnvBasedSetting("DATABASE_PATH")
	if DatabasePath == "" {
		DatabasePath = filepath.Join(dataDirectory, "pos.db")
	}
	if err := os.MkdirAll(filepath.Dir(DatabasePath), 0775); err != nil {
		logger.LogFatal("Failed to create data directory for %s: %v", DatabasePath, err)
	}
	logger.LogInfo("Storage database: %s", DatabasePath)
}

// LoadCORSConfig loads CORS settings
func LoadCORSConfig() {
	AllowedOrigin = GetEnvBasedSetting("ALLOWED_ORIGIN")
	if AllowedOrigin == "" {
		AllowedOrigin = "*" // Allow all - be careful in prod
		logger.LogWarn("ALLOWED_ORIGIN not set, using '*' (allow all origins) - SECURITY RISK")
	} else {
		logger.LogInfo("Allowed Origin: %s", AllowedOrigin)
	}
}

// LoadRetentionConfig loads how long dated log files are kept.
func LoadRetentionConfig() {
	LogRetentionDays = 30
	if raw := os.Getenv("LOG_RETENTION_DAYS"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			logger.LogWarn("Invalid LOG_RETENTION_DAYS: %s, using default %d", raw, LogRetentionDays)
		} else {
			LogRetentionDays = days
		}
	}
}

//
// --- Getters (exported) ---
//

func DataDirectory() string {
	return dataDirectory
}

func LogsDirectory() string {
	return logsDirectory
}
