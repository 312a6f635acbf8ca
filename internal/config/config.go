package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Postgres PostgresConfig `env:",prefix=POSTGRES_"`
	Redis    RedisConfig    `env:",prefix=REDIS_"`
	Session  SessionConfig  `env:",prefix=SESSION_"`
	Security SecurityConfig `env:",prefix="`
	Journeys JourneysConfig `env:",prefix=JOURNEYS_"`
	CORS     CORSConfig     `env:",prefix=CORS_"`
	Env      string         `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
}

type PostgresConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=5432"`
	User     string `env:"USER,default=companion"`
	Password string `env:"PASSWORD,default=companion_password"`
	DBName   string `env:"DB,default=companion_db"`
	SSLMode  string `env:"SSLMODE,default=disable"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

// SessionConfig controls bearer-session lifetime and the short-lived
// Redis lookup cache in front of the sessions table.
type SessionConfig struct {
	TokenTTL Duration `env:"TOKEN_TTL,default=30d"`
	CacheTTL Duration `env:"CACHE_TTL,default=30s"`
}

type SecurityConfig struct {
	BCryptCost        int      `env:"BCRYPT_COST,default=10"`
	RateLimitRequests int      `env:"RATE_LIMIT_REQUESTS,default=10"`
	RateLimitWindow   Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
}

// JourneysConfig holds the catalog sizes used for the
// "all journeys complete" achievement thresholds.
type JourneysConfig struct {
	CoreTotal  int `env:"CORE_TOTAL,default=7"`
	GmailTotal int `env:"GMAIL_TOTAL,default=6"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if config.Session.TokenTTL.Duration <= 0 {
		return nil, fmt.Errorf("SESSION_TOKEN_TTL must be positive")
	}

	if config.Journeys.CoreTotal <= 0 || config.Journeys.GmailTotal <= 0 {
		return nil, fmt.Errorf("journey catalog totals must be positive")
	}

	return &config, nil
}

// LoadWithDefaults loads configuration with default context
func LoadWithDefaults() (*Config, error) {
	return Load(context.Background())
}
