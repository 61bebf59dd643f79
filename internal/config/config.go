// Package config loads runtime settings for the onnxcast CLI from the
// environment and an optional config file.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/born-ml/onnxcast/internal/parallel"
	"github.com/born-ml/onnxcast/internal/tensor"
)

// EnvPrefix prefixes every environment variable, e.g. ONNXCAST_LOG_LEVEL.
const EnvPrefix = "ONNXCAST"

// Config holds the tunables of a cast run.
type Config struct {
	LogLevel        string `mapstructure:"log_level"`
	Workers         int    `mapstructure:"workers"`
	MinChunkSize    int    `mapstructure:"min_chunk_size"`
	AllocLimitBytes int64  `mapstructure:"alloc_limit_bytes"`
	FastHalf        bool   `mapstructure:"fast_half"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	p := parallel.DefaultConfig()
	return Config{
		LogLevel:     "info",
		Workers:      p.NumWorkers,
		MinChunkSize: p.MinChunkSize,
		FastHalf:     true,
	}
}

// Load reads configuration from v. Keys come from, in increasing priority:
// defaults, the file named by path (if non-empty), and ONNXCAST_* variables.
func Load(v *viper.Viper, path string) (Config, error) {
	d := Defaults()
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("min_chunk_size", d.MinChunkSize)
	v.SetDefault("alloc_limit_bytes", d.AllocLimitBytes)
	v.SetDefault("fast_half", d.FastHalf)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no run can use.
func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("config: log_level: %w", err)
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: workers must be >= 0, got %d", c.Workers)
	}
	if c.MinChunkSize < 0 {
		return fmt.Errorf("config: min_chunk_size must be >= 0, got %d", c.MinChunkSize)
	}
	if c.AllocLimitBytes < 0 {
		return fmt.Errorf("config: alloc_limit_bytes must be >= 0, got %d", c.AllocLimitBytes)
	}
	return nil
}

// Parallel returns the chunking settings. Zero or one worker runs inline.
func (c Config) Parallel() parallel.Config {
	return parallel.Config{
		Enabled:      c.Workers > 1,
		NumWorkers:   c.Workers,
		MinChunkSize: c.MinChunkSize,
	}
}

// Allocator returns the allocator for one run. AllocLimitBytes, when set,
// caps the bytes held at once by output tensors and fast-path scratch
// together.
func (c Config) Allocator() *tensor.PoolAllocator {
	return tensor.NewPoolAllocator(c.AllocLimitBytes)
}

// InitLogger sets the global zerolog level and routes log output to w
// through a console writer.
func InitLogger(c Config, w io.Writer) error {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return fmt.Errorf("config: log_level: %w", err)
	}
	if w == nil {
		w = os.Stderr
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w})
	return nil
}
