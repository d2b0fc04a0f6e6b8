package config

import (
	"os"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	LLM         LLMConfig
	Server      ServerConfig
	Log         LogConfig
	Negotiation NegotiationConfig
}

// LLMConfig holds the LLM configuration.
type LLMConfig struct {
	Provider string `mapstructure:"provider"`
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// NegotiationConfig tunes the simulated seller and offer generation.
type NegotiationConfig struct {
	MinPrice      float64 `mapstructure:"min_price"`
	MaxPrice      float64 `mapstructure:"max_price"`
	OffersPerTurn int     `mapstructure:"offers_per_turn"`
	DBPath        string  `mapstructure:"db_path"`
}

// Load reads config.yaml from the working directory, or the file named by the
// CONFIG_PATH environment variable when set.
func Load() (*Config, error) {
	v := viper.New()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		// Defaults are static; unmarshaling them cannot fail.
		panic(err)
	}
	return &config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8000")
	v.SetDefault("log.level", "info")
	v.SetDefault("negotiation.min_price", 18000.0)
	v.SetDefault("negotiation.max_price", 30000.0)
	v.SetDefault("negotiation.offers_per_turn", 4)
	v.SetDefault("negotiation.db_path", "negotiations.db")
}
