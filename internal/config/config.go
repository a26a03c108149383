// Package config loads service configuration from defaults, environment
// variables, and an optional config file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the extraction service.
type Config struct {
	Data    DataConfig
	Output  OutputConfig
	Extract ExtractConfig
	Log     LogConfig
	Server  ServerConfig
}

type DataConfig struct {
	Dir string // Directory holding NetCDF datasets.
}

type OutputConfig struct {
	Dir string // Directory result tables are written to.
}

type ExtractConfig struct {
	Workers int // Concurrent samplers per dataset; 1 means sequential.
}

type LogConfig struct {
	Level  string
	Format string // "console" or "json".
}

type ServerConfig struct {
	Host        string
	Port        int
	CORSOrigins []string // Empty means allow all origins.
}

// Load loads configuration from defaults, the EXTRACT_* environment, and an
// optional extract.toml config file.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("EXTRACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("extract")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/extract/")
	v.AddConfigPath("$HOME/.extract/")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file is fine; defaults and environment apply.
	}

	cfg := &Config{
		Data: DataConfig{
			Dir: v.GetString("data.dir"),
		},
		Output: OutputConfig{
			Dir: v.GetString("output.dir"),
		},
		Extract: ExtractConfig{
			Workers: v.GetInt("extract.workers"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Server: ServerConfig{
			Host:        v.GetString("server.host"),
			Port:        v.GetInt("server.port"),
			CORSOrigins: v.GetStringSlice("server.cors_origins"),
		},
	}

	if cfg.Extract.Workers < 1 {
		cfg.Extract.Workers = 1
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.dir", "./data")
	v.SetDefault("output.dir", "./output")
	v.SetDefault("extract.workers", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{})
}
