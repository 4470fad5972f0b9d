package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	GinMode         string        `env:"GIN_MODE" envDefault:"release"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	OTelEndpoint    string        `env:"OTEL_ENDPOINT"`

	Database DatabaseConfig
	JWT      JWTConfig
	Password PasswordConfig
	Redis    RedisConfig
	GRPC     GRPCConfig
}

type DatabaseConfig struct {
	Driver          string        `env:"DB_DRIVER" envDefault:"postgres"`
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
}

type JWTConfig struct {
	SigningMethod  string        `env:"JWT_SIGNING_METHOD" envDefault:"HS256"`
	Secret         string        `env:"JWT_SECRET"`
	PrivateKeyFile string        `env:"JWT_PRIVATE_KEY_FILE"`
	Issuer         string        `env:"JWT_ISSUER"`
	AccessTTL      time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"5m"`
	RefreshTTL     time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"24h"`
	Leeway         time.Duration `env:"JWT_LEEWAY" envDefault:"0s"`
}

type PasswordConfig struct {
	Hasher            string `env:"PASSWORD_HASHER" envDefault:"argon2id"`
	Argon2MemoryKB    uint32 `env:"ARGON2_MEMORY_KB" envDefault:"65536"`
	Argon2Iterations  uint32 `env:"ARGON2_ITERATIONS" envDefault:"3"`
	Argon2Parallelism uint8  `env:"ARGON2_PARALLELISM" envDefault:"2"`
	BcryptCost        int    `env:"BCRYPT_COST" envDefault:"10"`
	MinLength         int    `env:"PASSWORD_MIN_LENGTH" envDefault:"1"`
	RegisterActive    bool   `env:"REGISTER_ACTIVE" envDefault:"true"`
}

type RedisConfig struct {
	Addr          string        `env:"REDIS_ADDR"`
	Password      string        `env:"REDIS_PASSWORD"`
	DB            int           `env:"REDIS_DB" envDefault:"0"`
	MaxFailures   int           `env:"LOGIN_MAX_FAILURES" envDefault:"5"`
	LockoutWindow time.Duration `env:"LOGIN_LOCKOUT_WINDOW" envDefault:"15m"`
}

type GRPCConfig struct {
	Addr        string `env:"GRPC_ADDR" envDefault:":50051"`
	TLSCertFile string `env:"GRPC_TLS_CERT_FILE"`
	TLSKeyFile  string `env:"GRPC_TLS_KEY_FILE"`
	CACertFile  string `env:"GRPC_TLS_CA_FILE"`
}

// TLSEnabled reports whether both halves of the server key pair are set.
func (g GRPCConfig) TLSEnabled() bool {
	return g.TLSCertFile != "" && g.TLSKeyFile != ""
}

// Load reads optional .env files, then the process environment.
// With no arguments godotenv looks for ./.env; a missing file is not an error.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case DriverPostgres, DriverPgx, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not supported", c.Database.Driver))
	}
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}

	switch strings.ToUpper(c.JWT.SigningMethod) {
	case "HS256":
		if c.JWT.Secret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required for HS256"))
		}
	case "EDDSA":
		if c.JWT.PrivateKeyFile == "" {
			errs = append(errs, errors.New("JWT_PRIVATE_KEY_FILE is required for EdDSA"))
		}
	default:
		errs = append(errs, fmt.Errorf("JWT_SIGNING_METHOD %q is not supported", c.JWT.SigningMethod))
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.AccessTTL >= c.JWT.RefreshTTL {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be positive and shorter than REFRESH_TOKEN_TTL"))
	}

	switch c.Password.Hasher {
	case "argon2id", "bcrypt":
	default:
		errs = append(errs, fmt.Errorf("PASSWORD_HASHER %q is not supported", c.Password.Hasher))
	}

	if (c.GRPC.TLSCertFile == "") != (c.GRPC.TLSKeyFile == "") {
		errs = append(errs, errors.New("GRPC_TLS_CERT_FILE and GRPC_TLS_KEY_FILE must be set together"))
	}

	return errors.Join(errs...)
}
