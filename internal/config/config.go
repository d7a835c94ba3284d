package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds everything sgraph reads from flags, config files and
// the environment. Precedence: flags > ./sgraph.yaml > ~/.sgraph/sgraph.yaml
// > SGRAPH_* env vars > defaults.
type Config struct {
	Graph    GraphConfig    `mapstructure:"graph"`
	Loader   LoaderConfig   `mapstructure:"loader"`
	Generate GenerateConfig `mapstructure:"generate"`
	Scenario ScenarioConfig `mapstructure:"scenario"`
	Log      LogConfig      `mapstructure:"log"`
}

type GraphConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type LoaderConfig struct {
	BatchSize int `mapstructure:"batch_size"`
}

type GenerateConfig struct {
	Count int   `mapstructure:"count"`
	Seed  int64 `mapstructure:"seed"`
}

type ScenarioConfig struct {
	Dir string `mapstructure:"dir"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the built-in configuration, used when no cascade
// source is available.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("graph.uri", "bolt://localhost:7687")
	v.SetDefault("graph.username", "neo4j")
	v.SetDefault("graph.password", "")
	v.SetDefault("loader.batch_size", 100)
	v.SetDefault("generate.count", 1000)
	v.SetDefault("generate.seed", 0)
	v.SetDefault("scenario.dir", "./scenarios")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load builds the configuration from the standard cascade. The config
// file is optional; a missing file is not an error.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v)

	v.SetConfigName("sgraph")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".sgraph"))
	}

	v.SetEnvPrefix("SGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Graph.URI == "" {
		return errors.New("graph.uri must not be empty")
	}
	if c.Loader.BatchSize <= 0 {
		return fmt.Errorf("loader.batch_size must be positive, got %d", c.Loader.BatchSize)
	}
	if c.Generate.Count <= 0 {
		return fmt.Errorf("generate.count must be positive, got %d", c.Generate.Count)
	}
	return nil
}
