package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"makerchecker-backend/makerchecker"
)

type DatabaseOptions struct {
	Driver   string `env:"DB_DRIVER" envDefault:"postgres"` // postgres or sqlite
	Host     string `env:"DB_HOST" envDefault:"db"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME" envDefault:"makerchecker"`
	Path     string `env:"DB_PATH" envDefault:"makerchecker.db"` // sqlite only
}

func (d *DatabaseOptions) ConnectionString() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port)
}

type HTTPOptions struct {
	Port                   string `env:"PORT" envDefault:"8080"`
	AllowedOrigins         string `env:"ALLOWED_ORIGINS" envDefault:"*"`
	BodyLimitMB            int    `env:"BODY_LIMIT_MB" envDefault:"4"`
	RateLimitMax           int    `env:"RATE_LIMIT_MAX" envDefault:"60"`
	RateLimitWindowSeconds int    `env:"RATE_LIMIT_WINDOW_SECONDS" envDefault:"60"`
	JWTSecret              string `env:"JWT_SECRET_KEY"`
}

type MetricsOptions struct {
	Enabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	Path    string `env:"METRICS_PATH" envDefault:"/metrics"`
}

// MakerCheckerOptions holds who may make and check requests and how they expire.
type MakerCheckerOptions struct {
	Makers            []string      `env:"MAKERCHECKER_MAKERS" envSeparator:","`
	Checkers          []string      `env:"MAKERCHECKER_CHECKERS" envSeparator:","`
	RequestExpiration time.Duration `env:"MAKERCHECKER_REQUEST_EXPIRATION" envDefault:"0"`
	EnsureUnique      bool          `env:"MAKERCHECKER_ENSURE_UNIQUE" envDefault:"false"`
}

type Configuration struct {
	Database     DatabaseOptions
	HTTP         HTTPOptions
	Metrics      MetricsOptions
	MakerChecker MakerCheckerOptions

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // text or json
}

// LoadEnv loads the env files that exist and returns how many were read.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load reads .env files (if present) and parses the process environment.
func Load() (*Configuration, error) {
	if _, err := LoadEnv([]string{".env", ".env.local"}); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}
	return Parse(env.Options{})
}

// Parse builds a Configuration from opts; tests pass opts.Environment.
func Parse(opts env.Options) (*Configuration, error) {
	c := &Configuration{}
	if err := env.ParseWithOptions(c, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Configuration) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be 'postgres' or 'sqlite', got '%s'", c.Database.Driver)
	}
	if c.MakerChecker.RequestExpiration < 0 {
		return fmt.Errorf("MAKERCHECKER_REQUEST_EXPIRATION must not be negative, got %s", c.MakerChecker.RequestExpiration)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be 'text' or 'json', got '%s'", c.LogFormat)
	}
	return nil
}

// Options converts the environment settings into the engine's immutable options.
func (o MakerCheckerOptions) Options() makerchecker.Options {
	return makerchecker.Options{
		Makers:            trimAll(o.Makers),
		Checkers:          trimAll(o.Checkers),
		RequestExpiration: o.RequestExpiration,
		EnsureUnique:      o.EnsureUnique,
	}
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

// Logger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Configuration) Logger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(c.LogrusLogLevel())
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
