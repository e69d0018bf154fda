package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// dev-only signing secret; Load refuses it outside dev.
const devJWTSecret = "dev-secret-change-me"

type Config struct {
	Env  string `env:"APP_ENV" envDefault:"dev"`
	Port int    `env:"PORT" envDefault:"8080"`

	StoreDriver    string `env:"STORE_DRIVER" envDefault:"postgres"`
	DBURL          string `env:"DATABASE_URL"`
	DBHost         string `env:"DB_HOST" envDefault:"127.0.0.1"`
	DBPort         string `env:"DB_PORT" envDefault:"5432"`
	DBUser         string `env:"DB_USER" envDefault:"noteflow"`
	DBPassword     string `env:"DB_PASSWORD" envDefault:"noteflow"`
	DBName         string `env:"DB_NAME" envDefault:"noteflow"`
	DBSSLMode      string `env:"DB_SSLMODE" envDefault:"disable"`
	DBMaxConns     int32  `env:"DB_MAX_CONNS" envDefault:"5"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"true"`

	JWTSecret  string        `env:"JWT_SECRET"`
	JWTTTL     time.Duration `env:"JWT_TTL" envDefault:"720h"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"`

	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"https://personal-note-manager-phi.vercel.app,http://localhost:3000,http://localhost:5173"`
	MaxBodyBytes   int64    `env:"MAX_BODY_BYTES" envDefault:"1048576"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	NotesCacheTTL time.Duration `env:"NOTES_CACHE_TTL" envDefault:"30s"`

	OTELEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `env:"OTEL_SERVICE_NAME" envDefault:"noteflow-api"`

	SeedUserEmail    string `env:"SEED_USER_EMAIL"`
	SeedUserPassword string `env:"SEED_USER_PASSWORD"`
	SeedUserName     string `env:"SEED_USER_NAME" envDefault:"Demo User"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	// a missing .env is fine, real deployments set the environment directly
	_ = godotenv.Load()

	return FromEnv()
}

// FromEnv parses the process environment without touching .env files.
func FromEnv() (Config, error) {
	var cfg Config

	err := env.Parse(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DBURL == "" {
		cfg.DBURL = cfg.buildDBURL()
	}

	cfg.AllowedOrigins = cleanOrigins(cfg.AllowedOrigins)

	if cfg.JWTSecret == "" {
		if cfg.Env != "dev" && cfg.Env != "test" {
			return Config{}, errors.New("JWT_SECRET is required outside dev")
		}
		cfg.JWTSecret = devJWTSecret
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	return cfg, nil
}

func (c Config) buildDBURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.DBSSLMode}}.Encode(),
	}

	return u.String()
}

// WithTimeout bounds a unit of work. A nil parent means context.Background.
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
}

func cleanOrigins(in []string) []string {
	out := make([]string, 0, len(in))

	for _, o := range in {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			out = append(out, o)
		}
	}

	return out
}
