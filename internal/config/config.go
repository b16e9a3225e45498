package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Node     NodeConfig     `mapstructure:"node"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	Addr       string `mapstructure:"addr"`
	CORSOrigin string `mapstructure:"cors_origin"`
}

type NodeConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// Load reads the YAML config at configPath. Environment variables override
// file values (SERVER_ADDR for server.addr, and so on), and ${VAR} references
// inside values are expanded.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_origin", "*")
	v.SetDefault("node.data_dir", "./data")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if expanded := os.ExpandEnv(val); expanded != val {
			v.Set(key, expanded)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Node.DataDir == "" {
		return nil, fmt.Errorf("node.data_dir must not be empty")
	}
	return &config, nil
}
