package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/tabular-dev/tabular/pkg/taberrors"
)

// Load reads the configuration from an optional YAML file plus TABULAR_*
// environment overrides, layered over the defaults. An empty path skips the
// file and uses defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TABULAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("read.na_strings", def.Read.NAStrings)
	v.SetDefault("read.skip_empty_lines", def.Read.SkipEmptyLines)
	v.SetDefault("read.workers", def.Read.Workers)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.encoding", def.Logging.Encoding)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, taberrors.Wrap(err, taberrors.ErrorTypeConfig, "failed to read config file")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, taberrors.Wrap(err, taberrors.ErrorTypeConfig, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
