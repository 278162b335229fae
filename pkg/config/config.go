package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/yurifrl/faturas/pkg/export"
)

const envPrefix = "FATURAS"

type Config struct {
	OutputDir   string        `mapstructure:"output_dir"`
	Format      export.Format `mapstructure:"format"`
	Year        int           `mapstructure:"year"`
	Issuer      string        `mapstructure:"issuer"`
	LogLevel    string        `mapstructure:"log_level"`
	MetricsFile string        `mapstructure:"metrics_file"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Format:   export.CSV,
		LogLevel: "info",
	}
}

// Level resolves LogLevel, falling back to info.
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// Build merges, from lowest to highest priority: defaults, the config file,
// FATURAS_* environment variables (a .env file is loaded first when present)
// and command line flags. Flags are bound by name with dashes replaced by
// underscores, so --output-dir sets output_dir.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	def := Default()
	v.SetDefault("output_dir", def.OutputDir)
	v.SetDefault("format", string(def.Format))
	v.SetDefault("year", def.Year)
	v.SetDefault("issuer", def.Issuer)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("metrics_file", def.MetricsFile)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("faturas")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if !isConfigKey(key) {
				return
			}
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", bindErr)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	format, err := export.ParseFormat(string(cfg.Format))
	if err != nil {
		return nil, err
	}
	cfg.Format = format

	if cfg.Year < 0 {
		return nil, fmt.Errorf("invalid year: %d", cfg.Year)
	}
	return cfg, nil
}

func isConfigKey(key string) bool {
	switch key {
	case "output_dir", "format", "year", "issuer", "log_level", "metrics_file":
		return true
	}
	return false
}
