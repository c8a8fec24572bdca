package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configuration validation errors.
var (
	ErrNoInput          = errors.New("input_paths is required for the csv source")
	ErrUnknownSource    = errors.New("source must be one of: csv, postgres, sqlite")
	ErrNoTable          = errors.New("table is required for sql sources")
	ErrNoSQLitePath     = errors.New("sqlite_path is required for the sqlite source")
	ErrBadReferenceYear = errors.New("reference_year must not be negative")
)

// Source kinds.
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
)

// Config holds all application configuration. Values come from, in
// increasing precedence: defaults, the config file, .env, the environment.
type Config struct {
	Source     string   `mapstructure:"source"`
	InputPaths []string `mapstructure:"input_paths"`
	Delimiter  string   `mapstructure:"delimiter"`
	Table      string   `mapstructure:"table"`

	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     string `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"`
	PostgresDB       string `mapstructure:"postgres_db"`
	PostgresSSLMode  string `mapstructure:"postgres_sslmode"`
	SQLitePath       string `mapstructure:"sqlite_path"`

	// ReferenceYear 0 means the current calendar year.
	ReferenceYear int    `mapstructure:"reference_year"`
	BucketFile    string `mapstructure:"bucket_file"`

	MaxConcurrency int `mapstructure:"max_concurrency"`
	MaxRetries     int `mapstructure:"max_retries"`
	RetryBaseMs    int `mapstructure:"retry_base_ms"`

	ExportPath string `mapstructure:"export_path"`
	AuditPath  string `mapstructure:"audit_path"`
	HTTPAddr   string `mapstructure:"http_addr"`
	Debug      bool   `mapstructure:"debug"`
}

// Load reads the .env file, an optional YAML config file and USEDCAR_*
// environment variables. The result is not validated; callers apply their
// overrides first and then call Validate.
func Load(cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	v := viper.New()
	v.SetEnvPrefix("USEDCAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("source", SourceCSV)
	v.SetDefault("input_paths", []string{"vehicles_us.csv"})
	v.SetDefault("delimiter", ",")
	v.SetDefault("table", "vehicles")
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", "5432")
	v.SetDefault("postgres_user", "vehicles")
	v.SetDefault("postgres_password", "")
	v.SetDefault("postgres_db", "vehicles")
	v.SetDefault("postgres_sslmode", "disable")
	v.SetDefault("sqlite_path", "")
	v.SetDefault("reference_year", 0)
	v.SetDefault("bucket_file", "")
	v.SetDefault("max_concurrency", 4)
	v.SetDefault("max_retries", 3)
	v.SetDefault("retry_base_ms", 500)
	v.SetDefault("export_path", "")
	v.SetDefault("audit_path", "")
	v.SetDefault("http_addr", "127.0.0.1:8501")
	v.SetDefault("debug", false)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", cfgFile, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	// Env values are split on commas but not trimmed.
	c.InputPaths = splitList(strings.Join(c.InputPaths, ","))
	return &c, nil
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceCSV:
		if len(c.InputPaths) == 0 {
			return ErrNoInput
		}
	case SourcePostgres:
		if c.Table == "" {
			return ErrNoTable
		}
	case SourceSQLite:
		if c.Table == "" {
			return ErrNoTable
		}
		if c.SQLitePath == "" {
			return ErrNoSQLitePath
		}
	default:
		return fmt.Errorf("%w (got %q)", ErrUnknownSource, c.Source)
	}
	if c.ReferenceYear < 0 {
		return ErrBadReferenceYear
	}
	return nil
}

// EffectiveReferenceYear resolves a zero ReferenceYear to the current year.
func (c *Config) EffectiveReferenceYear(now time.Time) int {
	if c.ReferenceYear > 0 {
		return c.ReferenceYear
	}
	return now.Year()
}

// DelimiterRune returns the first rune of Delimiter; "\t" and "tab" mean
// a tab character.
func (c *Config) DelimiterRune() rune {
	switch c.Delimiter {
	case "", ",":
		return ','
	case "\\t", "tab":
		return '\t'
	}
	return []rune(c.Delimiter)[0]
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     c.PostgresHost + ":" + c.PostgresPort,
		Path:     "/" + c.PostgresDB,
		RawQuery: "sslmode=" + url.QueryEscape(c.PostgresSSLMode),
	}
	return u.String()
}

// RetryBaseDelay returns the first back-off delay.
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseMs) * time.Millisecond
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
