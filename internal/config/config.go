package config

import (
	"errors"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Upload
		Session
		Cleanup
		Audit
		Log
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string // Application database (audit events, sessions)
	}
	Upload struct {
		MaxSizeMB    int
		WorkspaceDir string // Where working copies of uploads live; empty means os.TempDir()
		RateLimit    int    // Uploads per client IP per RateWindow; 0 disables
		RateWindow   time.Duration
	}
	Session struct {
		Lifetime      time.Duration
		SecureCookies bool   // Set to false for local dev without HTTPS
		CSRFSecret    string // Generated on startup if empty
	}
	Cleanup struct {
		Schedule        string        // Cron format: "*/15 * * * *" = every 15 minutes
		WorkspaceMaxAge time.Duration // Orphaned working copies older than this are removed
	}
	Audit struct {
		RetentionDays int // Days to keep audit events (default: 30)
	}
	Log struct {
		Level  string
		Format string // "console" or "json"
	}
)

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; existing variables win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		log.Printf("Loaded environment from %s", file)
	}
	return nil
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Upload defaults
	v.SetDefault("max_upload_size_mb", DefaultMaxUploadSizeMB)
	v.SetDefault("workspace_dir", "")
	v.SetDefault("upload_rate_limit", 30)
	v.SetDefault("upload_rate_window", "10m")

	// Session defaults
	v.SetDefault("session_lifetime", "12h")
	v.SetDefault("secure_cookies", false)
	v.SetDefault("csrf_secret", "") // Auto-generated if empty

	// Cleanup defaults
	v.SetDefault("cleanup_schedule", "*/15 * * * *")
	v.SetDefault("workspace_max_age", "24h")
	v.SetDefault("audit_retention_days", 30)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Upload: Upload{
			MaxSizeMB:    v.GetInt("MAX_UPLOAD_SIZE_MB"),
			WorkspaceDir: v.GetString("WORKSPACE_DIR"),
			RateLimit:    v.GetInt("UPLOAD_RATE_LIMIT"),
			RateWindow:   v.GetDuration("UPLOAD_RATE_WINDOW"),
		},
		Session: Session{
			Lifetime:      v.GetDuration("SESSION_LIFETIME"),
			SecureCookies: v.GetBool("SECURE_COOKIES"),
			CSRFSecret:    v.GetString("CSRF_SECRET"),
		},
		Cleanup: Cleanup{
			Schedule:        v.GetString("CLEANUP_SCHEDULE"),
			WorkspaceMaxAge: v.GetDuration("WORKSPACE_MAX_AGE"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}

// MaxUploadBytes is the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Upload.MaxSizeMB) * 1024 * 1024
}
