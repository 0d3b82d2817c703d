// Package config provides configuration management for the MLFQ simulator.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/limiquantix/mlfq/internal/domain"
	"github.com/limiquantix/mlfq/internal/scheduler"
	"github.com/limiquantix/mlfq/internal/workload"
)

// Clock modes for the simulation.
const (
	ClockVirtual = "virtual"
	ClockReal    = "real"
)

// Storage backends for run records.
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Config holds all configuration for the application.
type Config struct {
	Scheduler  scheduler.Config `mapstructure:"scheduler"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Workload   workload.Spec    `mapstructure:"workload"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// SimulationConfig controls how a scheduler run is driven.
type SimulationConfig struct {
	// Clock is "virtual" (every tick advances by Tick) or "real" (wall clock).
	Clock   string        `mapstructure:"clock"`
	Tick    time.Duration `mapstructure:"tick"`
	Timeout time.Duration `mapstructure:"timeout"`

	// MaxProcesses caps the size of any workload run.
	MaxProcesses int `mapstructure:"max_processes"`
}

// StorageConfig selects where run records are kept.
type StorageConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Address returns the Redis address string.
func (c RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address returns the server address string.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Environment variables
	v.SetEnvPrefix("MLFQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-section constraints.
func (c *Config) Validate() error {
	if err := c.Scheduler.Validate(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	switch c.Simulation.Clock {
	case ClockVirtual:
		if c.Simulation.Tick <= 0 {
			return fmt.Errorf("%w: simulation.tick must be positive for the virtual clock", domain.ErrInvalidArgument)
		}
	case ClockReal:
	default:
		return fmt.Errorf("%w: unknown simulation.clock %q", domain.ErrInvalidArgument, c.Simulation.Clock)
	}

	switch c.Storage.Backend {
	case StorageMemory, StorageRedis:
	default:
		return fmt.Errorf("%w: unknown storage.backend %q", domain.ErrInvalidArgument, c.Storage.Backend)
	}

	if c.Simulation.MaxProcesses < 0 {
		return fmt.Errorf("%w: simulation.max_processes must not be negative", domain.ErrInvalidArgument)
	}
	c.Workload.MaxProcesses = c.Simulation.MaxProcesses

	if err := c.Workload.Validate(); err != nil {
		return fmt.Errorf("workload: %w", err)
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	sched := scheduler.DefaultConfig()

	// Scheduler
	v.SetDefault("scheduler.priority_levels", sched.PriorityLevels)
	v.SetDefault("scheduler.base_quantum", sched.BaseQuantum)
	v.SetDefault("scheduler.quantum_increment", sched.QuantumIncrement)
	v.SetDefault("scheduler.blocking_quantum", sched.BlockingQuantum)
	v.SetDefault("scheduler.global_quantum", sched.GlobalQuantum)

	// Simulation
	v.SetDefault("simulation.clock", ClockVirtual)
	v.SetDefault("simulation.tick", "10ms")
	v.SetDefault("simulation.timeout", "30s")
	v.SetDefault("simulation.max_processes", workload.DefaultMaxProcesses)

	// Workload
	v.SetDefault("workload.random.count", 10)
	v.SetDefault("workload.random.seed", 1)
	v.SetDefault("workload.random.min_cpu", "5ms")
	v.SetDefault("workload.random.max_cpu", "300ms")
	v.SetDefault("workload.random.min_io", "10ms")
	v.SetDefault("workload.random.max_io", "200ms")
	v.SetDefault("workload.random.io_probability", 0.5)

	// Storage
	v.SetDefault("storage.backend", StorageMemory)
	v.SetDefault("storage.ttl", "168h")

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
