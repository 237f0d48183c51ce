// Package config loads operational settings for the posting pipeline.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

// Config holds the central application configuration
type Config struct {
	// Bluesky service configuration
	Service struct {
		URL       string `mapstructure:"url"`        // XRPC service base URL
		UserAgent string `mapstructure:"user_agent"` // User-Agent for all outbound requests
	} `mapstructure:"service"`

	// Outbound request timeouts
	Timeouts struct {
		FeedFetch time.Duration `mapstructure:"feed_fetch"` // Feed download timeout
		Metadata  time.Duration `mapstructure:"metadata"`   // Link preview fetch timeout
		Image     time.Duration `mapstructure:"image"`      // Preview image download timeout
		Service   time.Duration `mapstructure:"service"`    // XRPC call timeout
	} `mapstructure:"timeouts"`

	// Login retry behaviour
	Login struct {
		Backoff     time.Duration `mapstructure:"backoff"`      // initial delay after a failed login
		BackoffStep time.Duration `mapstructure:"backoff_step"` // linear increase per failure
		BackoffMax  time.Duration `mapstructure:"backoff_max"`  // delay cap
	} `mapstructure:"login"`

	// Link metadata cache
	Cache struct {
		Path string        `mapstructure:"path"` // sqlite file path; empty disables caching
		TTL  time.Duration `mapstructure:"ttl"`  // cache entry lifetime
	} `mapstructure:"cache"`
}

// Load loads the configuration from a file. A missing file is not an error;
// defaults cover every setting.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.yaml"
	}

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	// Set default values
	viper.SetDefault("service.url", "https://bsky.social")
	viper.SetDefault("service.user_agent", "rss2sky/1.0")

	viper.SetDefault("timeouts.feed_fetch", 30*time.Second)
	viper.SetDefault("timeouts.metadata", 10*time.Second)
	viper.SetDefault("timeouts.image", 15*time.Second)
	viper.SetDefault("timeouts.service", 30*time.Second)

	viper.SetDefault("login.backoff", time.Minute)
	viper.SetDefault("login.backoff_step", time.Minute)
	viper.SetDefault("login.backoff_max", 10*time.Minute)

	viper.SetDefault("cache.path", "")
	viper.SetDefault("cache.ttl", 24*time.Hour)

	// Read configuration file
	if err := viper.ReadInConfig(); err != nil {
		// If config file doesn't exist, that's okay - we'll use defaults
		var notFound viper.ConfigFileNotFoundError
		var pathErr *fs.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}
