package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Storage backends.
const (
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Admin     AdminConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Listing   ListingConfig
	Quota     QuotaConfig
	Views     ViewsConfig
	Retention RetentionConfig
}

// AdminConfig holds the moderation override secret. At most one of Key,
// KeyFile and KeyBcrypt should be set; none disables the override.
type AdminConfig struct {
	Key        string        `env:"ADMIN_KEY"`
	KeyFile    string        `env:"ADMIN_KEY_FILE"`
	KeyBcrypt  string        `env:"ADMIN_KEY_BCRYPT"`
	SessionTTL time.Duration `env:"ADMIN_SESSION_TTL, default=1h"`
}

type MongoConfig struct {
	URI          string        `env:"MONGO_URI,            default=mongodb://localhost:27017"`
	Database     string        `env:"MONGO_DB,             default=saudi_jobs"`
	Timeout      time.Duration `env:"MONGO_TIMEOUT,        default=10s"`
	RetryDelay   time.Duration `env:"MONGO_RETRY_DELAY,    default=5s"`
	OpRetries    int           `env:"MONGO_OP_RETRIES,     default=2"`
	OpRetryDelay time.Duration `env:"MONGO_OP_RETRY_DELAY, default=500ms"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type ListingConfig struct {
	// StoreBackend selects the job store: mongo or memory.
	StoreBackend   string        `env:"STORE_BACKEND,   default=mongo"`
	TTL            time.Duration `env:"LISTING_TTL,     default=360h"`
	UrgentDuration time.Duration `env:"URGENT_DURATION, default=24h"`
}

type QuotaConfig struct {
	// Backend selects the quota store: redis, mongo or memory.
	Backend        string        `env:"QUOTA_BACKEND,          default=redis"`
	DailyAllowance int           `env:"URGENT_DAILY_ALLOWANCE, default=2"`
	Timezone       string        `env:"QUOTA_TIMEZONE,         default=Local"`
	RecordTTL      time.Duration `env:"QUOTA_RECORD_TTL,       default=72h"`
	RewardDelay    time.Duration `env:"REWARD_DELAY,           default=5s"`

	location *time.Location
}

// Location is Timezone resolved by Load.
func (q QuotaConfig) Location() *time.Location {
	if q.location == nil {
		return time.Local
	}
	return q.location
}

type ViewsConfig struct {
	Workers int `env:"VIEW_WORKERS, default=4"`
}

type RetentionConfig struct {
	// Days is how long records are kept; 0 disables the purge.
	Days     int    `env:"RETENTION_DAYS,     default=90"`
	Schedule string `env:"RETENTION_SCHEDULE, default=@daily"`
}

// Duration returns the retention window.
func (r RetentionConfig) Duration() time.Duration {
	return time.Duration(r.Days) * 24 * time.Hour
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom is Load with an explicit lookuper, used by tests.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.resolve(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) resolve() error {
	var errs []error

	switch c.Quota.Backend {
	case BackendRedis, BackendMongo, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("QUOTA_BACKEND %q must be redis, mongo or memory", c.Quota.Backend))
	}
	switch c.Listing.StoreBackend {
	case BackendMongo, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND %q must be mongo or memory", c.Listing.StoreBackend))
	}
	if c.Quota.Backend == BackendMongo && c.Listing.StoreBackend == BackendMemory {
		errs = append(errs, errors.New("QUOTA_BACKEND=mongo requires STORE_BACKEND=mongo"))
	}
	if c.Quota.DailyAllowance < 0 {
		errs = append(errs, errors.New("URGENT_DAILY_ALLOWANCE must not be negative"))
	}
	if c.Retention.Days < 0 {
		errs = append(errs, errors.New("RETENTION_DAYS must not be negative"))
	}

	loc, err := time.LoadLocation(c.Quota.Timezone)
	if err != nil {
		errs = append(errs, fmt.Errorf("QUOTA_TIMEZONE: %w", err))
	}
	c.Quota.location = loc

	if c.Admin.KeyFile != "" {
		if c.Admin.Key != "" {
			errs = append(errs, errors.New("set only one of ADMIN_KEY and ADMIN_KEY_FILE"))
		}
		raw, err := os.ReadFile(c.Admin.KeyFile)
		if err != nil {
			errs = append(errs, fmt.Errorf("ADMIN_KEY_FILE: %w", err))
		}
		c.Admin.Key = strings.TrimSpace(string(raw))
	}
	if c.Admin.Key != "" && c.Admin.KeyBcrypt != "" {
		errs = append(errs, errors.New("set only one of ADMIN_KEY(_FILE) and ADMIN_KEY_BCRYPT"))
	}

	return errors.Join(errs...)
}

// AdminEnabled reports whether an admin secret is configured.
func (c *Config) AdminEnabled() bool {
	return c.Admin.Key != "" || c.Admin.KeyBcrypt != ""
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
