// Package config provides application configuration loaded from the environment,
// an optional config.yaml and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Club     ClubConfig
	Uploads  UploadsConfig
	Log      LogConfig
	PDF      PDFConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// DatabaseConfig selects the store. Driver is "sqlite" (file at Path) or
// "postgres" (DSN).
type DatabaseConfig struct {
	Driver string
	Path   string
	DSN    string
	Debug  bool
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev           bool
	Migrations    bool
	SessionSecret string
	DefaultLang   string
}

// ClubConfig seeds the singleton club row on first start.
type ClubConfig struct {
	Name    string
	Email   string
	Address string
	OIB     string
	Web     string
	IBAN    string
}

// UploadsConfig locates the uploads tree.
type UploadsConfig struct {
	Root       string
	StagingTTL time.Duration
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string
	Format string // text | json
}

// PDFConfig configures the membership form generator.
type PDFConfig struct {
	FontPath string
}

// IsSQLite reports whether the embedded store is selected.
func (d DatabaseConfig) IsSQLite() bool {
	return d.Driver == "" || d.Driver == "sqlite"
}

// SQLiteDSN returns the sqlite DSN with foreign keys enabled.
func (d DatabaseConfig) SQLiteDSN() string {
	sep := "?"
	if strings.Contains(d.Path, "?") {
		sep = "&"
	}
	return "file:" + d.Path + sep + "_foreign_keys=on"
}

type binding struct {
	key string
	env string
	def any
}

var bindings = []binding{
	{"server.port", "PORT", "8080"},
	{"server.read_timeout", "SERVER_READ_TIMEOUT", 15},
	{"server.write_timeout", "SERVER_WRITE_TIMEOUT", 15},
	{"server.idle_timeout", "SERVER_IDLE_TIMEOUT", 60},

	{"database.driver", "DB_DRIVER", "sqlite"},
	{"database.path", "DB_PATH", "hk_podravka.db"},
	{"database.dsn", "DATABASE_DSN", ""},
	{"database.debug", "DB_DEBUG", false},

	{"app.dev", "DEV", false},
	{"app.migrations", "MIGRATIONS", false},
	{"app.session_secret", "SESSION_SECRET", "devsessionsecret"},
	{"app.default_lang", "DEFAULT_LANG", "hr"},

	{"club.name", "CLUB_NAME", "Hrvački klub Podravka"},
	{"club.email", "CLUB_EMAIL", "hsk-podravka@gmail.com"},
	{"club.address", "CLUB_ADDRESS", "Miklinovec 6a, 48000 Koprivnica"},
	{"club.oib", "CLUB_OIB", "60911784858"},
	{"club.web", "CLUB_WEB", "https://hk-podravka.com"},
	{"club.iban", "CLUB_IBAN", "HR6923860021100518154"},

	{"uploads.root", "UPLOAD_DIR", "uploads"},
	{"uploads.staging_ttl", "UPLOAD_STAGING_TTL", "24h"},

	{"log.level", "LOG_LEVEL", "info"},
	{"log.format", "LOG_FORMAT", "text"},

	{"pdf.font_path", "PDF_FONT_PATH", "fonts/DejaVuSans.ttf"},
}

// Load reads .env (if present), config.yaml from ./ or ./config (if present)
// and the environment. Environment values win over the file.
// Invalid values fall back to defaults and are reported in warnings.
func Load() (*Config, []string, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	for _, b := range bindings {
		v.SetDefault(b.key, b.def)
		if err := v.BindEnv(b.key, b.env); err != nil {
			return nil, nil, fmt.Errorf("bind %s: %w", b.env, err)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("read config file: %w", err)
		}
	}
	cfg, warnings := fromViper(v)
	return cfg, warnings, nil
}

func fromViper(v *viper.Viper) (*Config, []string) {
	var warnings []string
	intOr := func(key string, def int) int {
		n := v.GetInt(key)
		if n <= 0 {
			warnings = append(warnings, fmt.Sprintf("%s: invalid value %q, using %d", key, v.GetString(key), def))
			return def
		}
		return n
	}
	durationOr := func(key string, def time.Duration) time.Duration {
		d := v.GetDuration(key)
		if d <= 0 {
			warnings = append(warnings, fmt.Sprintf("%s: invalid value %q, using %s", key, v.GetString(key), def))
			return def
		}
		return d
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("server.port"),
			ReadTimeout:  intOr("server.read_timeout", 15),
			WriteTimeout: intOr("server.write_timeout", 15),
			IdleTimeout:  intOr("server.idle_timeout", 60),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
			Path:   v.GetString("database.path"),
			DSN:    v.GetString("database.dsn"),
			Debug:  getBool(v, "database.debug"),
		},
		App: AppConfig{
			Dev:           getBool(v, "app.dev"),
			Migrations:    getBool(v, "app.migrations"),
			SessionSecret: v.GetString("app.session_secret"),
			DefaultLang:   v.GetString("app.default_lang"),
		},
		Club: ClubConfig{
			Name:    v.GetString("club.name"),
			Email:   v.GetString("club.email"),
			Address: v.GetString("club.address"),
			OIB:     v.GetString("club.oib"),
			Web:     v.GetString("club.web"),
			IBAN:    v.GetString("club.iban"),
		},
		Uploads: UploadsConfig{
			Root:       v.GetString("uploads.root"),
			StagingTTL: durationOr("uploads.staging_ttl", 24*time.Hour),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
		PDF: PDFConfig{FontPath: v.GetString("pdf.font_path")},
	}

	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	default:
		warnings = append(warnings, fmt.Sprintf("database.driver: unknown driver %q, using sqlite", cfg.Database.Driver))
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Driver == "postgres" && cfg.Database.DSN == "" {
		warnings = append(warnings, "database.dsn: empty DATABASE_DSN with DB_DRIVER=postgres, using sqlite")
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Uploads.Root == "" {
		cfg.Uploads.Root = "uploads"
	}
	if cfg.App.DefaultLang == "" {
		cfg.App.DefaultLang = "hr"
	}
	return cfg, warnings
}

// getBool accepts "1", "true", "yes" (any case) as true; everything else is false.
func getBool(v *viper.Viper, key string) bool {
	switch strings.ToLower(strings.TrimSpace(v.GetString(key))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
