package config

import (
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Environment string `mapstructure:"environment"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type RedisConfig struct {
	Address      string `mapstructure:"address"`
	AuditChannel string `mapstructure:"audit_channel"`
}

type CacheConfig struct {
	DefaultTTL    string `mapstructure:"default_ttl"`
	CollectionTTL string `mapstructure:"collection_ttl"`
}

type BreakerConfig struct {
	VolumeThreshold       int     `mapstructure:"volume_threshold"`
	ErrorThresholdPercent float64 `mapstructure:"error_threshold_percent"`
	ResetTimeout          string  `mapstructure:"reset_timeout"`
	RollingWindow         string  `mapstructure:"rolling_window"`
	RollingBuckets        int     `mapstructure:"rolling_buckets"`
	CallTimeout           string  `mapstructure:"call_timeout"`
}

type DependenciesConfig struct {
	UsersURL string `mapstructure:"users_url"`
	AuthURL  string `mapstructure:"auth_url"`
	Timeout  string `mapstructure:"timeout"`
}

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Breaker      BreakerConfig      `mapstructure:"breaker"`
	Dependencies DependenciesConfig `mapstructure:"dependencies"`
}

func Load() (*Config, error) {
	viper.SetDefault("server.environment", EnvDev)
	viper.SetDefault("server.address", ":8003")
	viper.SetDefault("logging.level", LogLevelInfo)
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.audit_channel", "log_channel")
	viper.SetDefault("cache.default_ttl", "5m")
	viper.SetDefault("cache.collection_ttl", "10m")
	viper.SetDefault("breaker.volume_threshold", 5)
	viper.SetDefault("breaker.error_threshold_percent", 50.0)
	viper.SetDefault("breaker.reset_timeout", "30s")
	viper.SetDefault("breaker.rolling_window", "10s")
	viper.SetDefault("breaker.rolling_buckets", 10)
	viper.SetDefault("breaker.call_timeout", "3s")
	viper.SetDefault("dependencies.users_url", "http://users-api:8002")
	viper.SetDefault("dependencies.auth_url", "http://auth-api:8000")
	viper.SetDefault("dependencies.timeout", "2s")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Info("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", viper.ConfigFileUsed()))
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(validateHostPort),
					),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
		validation.Field(&c.Redis,
			validation.Required,
			validation.By(func(value interface{}) error {
				rc, ok := value.(RedisConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a RedisConfig")
				}
				return validation.ValidateStruct(&rc,
					validation.Field(&rc.Address,
						validation.Required,
						validation.By(validateHostPort),
					),
					validation.Field(&rc.AuditChannel,
						validation.Required,
					),
				)
			}),
		),
		validation.Field(&c.Cache,
			validation.Required,
			validation.By(func(value interface{}) error {
				cc, ok := value.(CacheConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a CacheConfig")
				}
				return validation.ValidateStruct(&cc,
					validation.Field(&cc.DefaultTTL,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&cc.CollectionTTL,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
		validation.Field(&c.Breaker,
			validation.Required,
			validation.By(func(value interface{}) error {
				bc, ok := value.(BreakerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a BreakerConfig")
				}
				return validation.ValidateStruct(&bc,
					validation.Field(&bc.VolumeThreshold,
						validation.Required,
						validation.Min(1),
					),
					validation.Field(&bc.ErrorThresholdPercent,
						validation.Required,
						validation.Min(1.0),
						validation.Max(100.0),
					),
					validation.Field(&bc.ResetTimeout,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&bc.RollingWindow,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&bc.RollingBuckets,
						validation.Required,
						validation.Min(1),
					),
					validation.Field(&bc.CallTimeout,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
		validation.Field(&c.Dependencies,
			validation.Required,
			validation.By(func(value interface{}) error {
				dc, ok := value.(DependenciesConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a DependenciesConfig")
				}
				return validation.ValidateStruct(&dc,
					validation.Field(&dc.UsersURL,
						validation.Required,
						validation.By(validateServerURL),
					),
					validation.Field(&dc.AuthURL,
						validation.Required,
						validation.By(validateServerURL),
					),
					validation.Field(&dc.Timeout,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
	)
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if _, err := time.ParseDuration(durationStr); err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}

	return nil
}

func validateServerURL(value interface{}) error {
	serverURL, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if serverURL == "" {
		return validation.NewError("validation_empty_url", "URL cannot be empty")
	}

	parsedURL, err := url.Parse(serverURL)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	return nil
}

// MustDuration parses a duration string that has already passed validation.
// It panics on malformed input, so callers must only pass validated Config fields.
func MustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		panic("config: invalid duration " + s)
	}

	return d
}
