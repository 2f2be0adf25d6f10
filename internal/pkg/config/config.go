package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

type Config struct {
	Port        string   `env:"PORT,         default=8080"`
	Env         string   `env:"ENV,          default=development"`
	LogLevel    string   `env:"LOG_LEVEL,    default=info"`
	CORSOrigins []string `env:"CORS_ORIGINS, default=*"`

	Auth    Auth
	Storage Storage
}

// Auth is the signing and hashing configuration. It is copied by value into
// the components that use it and never changes after Load.
type Auth struct {
	JWTSecret       string        `env:"JWT_SECRET, required"`
	TokenTTL        time.Duration `env:"JWT_EXPIRE,  default=720h"`
	Issuer          string        `env:"JWT_ISSUER,  default=bookmarket"`
	BcryptCost      int           `env:"BCRYPT_COST, default=10"`
	HashConcurrency int           `env:"HASH_CONCURRENCY, default=0"`
	DefaultRole     string        `env:"DEFAULT_ROLE, default=buyer"`
}

type Storage struct {
	Driver string `env:"STORAGE_DRIVER, default=mongo"`

	MongoURI      string `env:"MONGO_URI,   default=mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DB,    default=bookmarket"`
	SQLitePath    string `env:"SQLITE_PATH, default=./identity.db"`
}

// IsDevelopment reports whether the service runs in a local environment.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT_EXPIRE must be positive")
	}
	switch c.Storage.Driver {
	case DriverMongo, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	return nil
}
