package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	UploadDisk = "disk"
	UploadS3   = "s3"
)

type Config struct {
	Port         string        `env:"PORT,           default=3333"`
	Env          string        `env:"ENV,            default=development"`
	LogLevel     string        `env:"LOG_LEVEL,      default=info"`
	JWTSecret    string        `env:"JWT_SECRET"`
	JWTExpiresIn time.Duration `env:"JWT_EXPIRES_IN, default=1h"`
	BcryptCost   int           `env:"BCRYPT_COST,    default=8"`

	DB     DBConfig
	Redis  RedisConfig
	Upload UploadConfig
	Seed   SeedConfig
}

// SeedConfig creates the first manager at startup when Email is set;
// managers can only be registered by other managers.
type SeedConfig struct {
	Name     string `env:"SEED_MANAGER_NAME, default=Manager"`
	Email    string `env:"SEED_MANAGER_EMAIL"`
	Password string `env:"SEED_MANAGER_PASSWORD"`
}

type DBConfig struct {
	Driver      string `env:"DB_DRIVER,    default=mongo"`
	MongoURI    string `env:"MONGO_URI,    default=mongodb://localhost:27017"`
	MongoDB     string `env:"MONGO_DB,     default=refunds"`
	PostgresDSN string `env:"POSTGRES_DSN"`
	SQLitePath  string `env:"SQLITE_PATH,  default=refunds.db"`
}

// RedisConfig leaves Addr empty by default, which disables idempotency keys.
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

type UploadConfig struct {
	Driver         string `env:"UPLOAD_DRIVER,    default=disk"`
	Dir            string `env:"UPLOAD_DIR,       default=uploads"`
	MaxBytes       int64  `env:"UPLOAD_MAX_BYTES, default=3145728"`
	CleanupWorkers int    `env:"CLEANUP_WORKERS,  default=2"`

	S3 S3Config
}

type S3Config struct {
	Bucket          string `env:"S3_BUCKET"`
	Region          string `env:"S3_REGION, default=auto"`
	Endpoint        string `env:"S3_ENDPOINT"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
}

func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// Load reads an optional .env file and then the process environment.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWTExpiresIn <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_IN must be positive"))
	}

	switch c.DB.Driver {
	case DriverMongo:
	case DriverPostgres:
		if c.DB.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required for the postgres driver"))
		}
	case DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DB.Driver))
	}

	switch c.Upload.Driver {
	case UploadDisk:
	case UploadS3:
		if c.Upload.S3.Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for the s3 upload driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown UPLOAD_DRIVER %q", c.Upload.Driver))
	}

	if c.Seed.Email != "" && len(c.Seed.Password) < 6 {
		errs = append(errs, errors.New("SEED_MANAGER_PASSWORD must be at least 6 characters"))
	}

	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_BYTES must be positive"))
	}
	if c.Upload.CleanupWorkers <= 0 {
		errs = append(errs, errors.New("CLEANUP_WORKERS must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
