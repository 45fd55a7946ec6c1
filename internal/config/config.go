// Package config loads the engine's operator-tunable settings via
// github.com/spf13/viper, grounded on el-gladiador-medflow-backend's
// pkg/config loader: env-prefixed keys bound to a typed Config struct, with
// documented defaults applied before the environment is read.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the environment-variable prefix every SCCE_* setting uses.
const EnvPrefix = "SCCE"

// Config is the full set of settings the ambient stack (server, worker,
// solver defaults, resilience thresholds) reads at start-up.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Solver     SolverConfig
	Resilience ResilienceConfig
	LogLevel   string `mapstructure:"log_level"`
}

// ServerConfig configures cmd/server's HTTP listener.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig configures the Postgres Entity Store implementation.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig configures the asynq job queue's Redis connection.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SolverConfig carries the default solver selection, seed, and timeout that
// spec.md §6's GenerateSchedule opts fall back to when a caller omits them.
type SolverConfig struct {
	DefaultKind string        `mapstructure:"default_kind"`
	DefaultSeed int64         `mapstructure:"default_seed"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ResilienceConfig makes spec.md §4.11's burnout-cascade constants operator-
// tunable instead of buried literals in internal/resilience.
type ResilienceConfig struct {
	BurnoutThreshold  float64       `mapstructure:"burnout_threshold"`
	BurnoutMultiplier float64       `mapstructure:"burnout_multiplier"`
	MinimumViable     int           `mapstructure:"minimum_viable"`
	HiringDelay       time.Duration `mapstructure:"hiring_delay"`
}

// Load reads configuration from SCCE_-prefixed environment variables (and an
// optional ./config/scce.yaml / /etc/scce/scce.yaml file), layered over the
// defaults below.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("scce")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/scce")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("database.dsn", "host=localhost port=5432 user=scce password=scce dbname=scce sslmode=disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("solver.default_kind", "cpsat")
	v.SetDefault("solver.default_seed", 42)
	v.SetDefault("solver.timeout", 30*time.Second)

	v.SetDefault("resilience.burnout_threshold", 1.5)
	v.SetDefault("resilience.burnout_multiplier", 5.0)
	v.SetDefault("resilience.minimum_viable", 3)
	v.SetDefault("resilience.hiring_delay", 45*24*time.Hour)

	v.SetDefault("log_level", "production")
}
