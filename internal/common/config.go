package common

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Batch    BatchConfig
	PDF      PDFConfig
	Queue    QueueConfig
	Store    StoreConfig
	LogLevel slog.Level
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string
	HTTPAddr string
}

// BatchConfig controls where batches live and what they produce.
type BatchConfig struct {
	WorkRoot          string
	InboxDir          string // empty disables the inbox watcher
	InboxDebounce     time.Duration
	MinArchiveBytes   int64
	RenameDefault     bool
	SpreadsheetName   string
	ArchiveName       string
	CleanupOnDownload bool
	SourceRoots       []string // directories path-based submissions may read from; empty disables them
}

// PDFConfig selects the text extraction backend.
type PDFConfig struct {
	Backend   string
	Pdftotext string
	Validate  bool
}

// QueueConfig sizes the batch worker pool.
type QueueConfig struct {
	Workers int
	Size    int
	Timeout time.Duration
}

// StoreConfig holds job store configuration
type StoreConfig struct {
	Driver          string
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// LoadConfig loads configuration from environment variables, after merging a local .env if present.
func LoadConfig() *Config {
	_ = godotenv.Load()
	return &Config{
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
			HTTPAddr: getEnv("HTTP_ADDR", ":8081"),
		},
		Batch: BatchConfig{
			WorkRoot:          getEnv("WORK_ROOT", "./batches"),
			InboxDir:          getEnv("INBOX_DIR", ""),
			InboxDebounce:     getEnvAsDuration("INBOX_DEBOUNCE", 5*time.Second),
			MinArchiveBytes:   int64(getEnvAsInt("MIN_ARCHIVE_BYTES", 7*1024)),
			RenameDefault:     getEnvAsBool("RENAME_DEFAULT", true),
			SpreadsheetName:   getEnv("SPREADSHEET_NAME", "finished.xlsx"),
			ArchiveName:       getEnv("ARCHIVE_NAME", "finished.zip"),
			CleanupOnDownload: getEnvAsBool("CLEANUP_ON_DOWNLOAD", true),
			SourceRoots:       getEnvAsList("SOURCE_ROOTS"),
		},
		PDF: PDFConfig{
			Backend:   getEnv("PDF_BACKEND", "auto"),
			Pdftotext: getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Validate:  getEnvAsBool("PDF_VALIDATE", false),
		},
		Queue: QueueConfig{
			Workers: getEnvAsInt("QUEUE_WORKERS", 2),
			Size:    getEnvAsInt("QUEUE_SIZE", 64),
			Timeout: getEnvAsDuration("QUEUE_TIMEOUT", 10*time.Minute),
		},
		Store: StoreConfig{
			Driver:          getEnv("JOB_STORE_DRIVER", "memory"),
			DSN:             getEnv("JOB_STORE_DSN", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		LogLevel: getEnvAsLevel("LOG_LEVEL", slog.LevelInfo),
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsLevel(key string, defaultValue slog.Level) slog.Level {
	if value := os.Getenv(key); value != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(strings.ToUpper(value))); err == nil {
			return lvl
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.GRPCAddr == "" && c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR or HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Batch.WorkRoot == "" {
		return NewAppError("CONFIG_ERROR", "WORK_ROOT is required", ErrInvalidInput)
	}
	if c.Batch.SpreadsheetName == "" || c.Batch.ArchiveName == "" {
		return NewAppError("CONFIG_ERROR", "SPREADSHEET_NAME and ARCHIVE_NAME must be set", ErrInvalidInput)
	}
	if c.Batch.SpreadsheetName == c.Batch.ArchiveName {
		return NewAppError("CONFIG_ERROR", "SPREADSHEET_NAME and ARCHIVE_NAME must differ", ErrInvalidInput)
	}
	switch c.PDF.Backend {
	case "auto", "native", "pdftotext":
	default:
		return NewAppError("CONFIG_ERROR", "PDF_BACKEND must be auto, native or pdftotext", ErrInvalidInput)
	}
	switch c.Store.Driver {
	case "memory":
	case "sqlite", "postgres":
		if c.Store.DSN == "" && c.Store.Driver == "postgres" {
			return NewAppError("CONFIG_ERROR", "JOB_STORE_DSN is required for postgres", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "JOB_STORE_DRIVER must be memory, sqlite or postgres", ErrInvalidInput)
	}
	if c.Queue.Workers <= 0 {
		return NewAppError("CONFIG_ERROR", "QUEUE_WORKERS must be positive", ErrInvalidInput)
	}
	return nil
}
