package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultStartingGrant = 50
	DefaultCorrectReward = 10
	DefaultSaveAttempts  = 3
	// DefaultCatalogTTL is how long the Redis catalog cache lives, in seconds.
	DefaultCatalogTTL = 300
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Mode string `yaml:"mode"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
		// CatalogTTL caches the Postgres catalog in Redis; zero or negative disables the cache.
		CatalogTTL int `yaml:"catalog_ttl_seconds"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Catalog struct {
		Path string `yaml:"path"`
	} `yaml:"catalog"`
	Points struct {
		StartingGrant int `yaml:"starting_grant"`
		CorrectReward int `yaml:"correct_reward"`
	} `yaml:"points"`
	Persistence struct {
		SaveAttempts int `yaml:"save_attempts"`
	} `yaml:"persistence"`
}

// Default returns a config with every default filled in.
func Default() Config {
	cfg := Config{}
	cfg.Points.StartingGrant = DefaultStartingGrant
	cfg.Points.CorrectReward = DefaultCorrectReward
	cfg.Persistence.SaveAttempts = DefaultSaveAttempts
	cfg.Redis.Prefix = "quizprog:"
	cfg.Redis.CatalogTTL = DefaultCatalogTTL
	cfg.Log.Mode = "dev"
	return cfg
}

// Load reads YAML config from path over the defaults, so keys absent from the
// file keep their default while explicit zeros (starting_grant: 0) are honoured.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.fixup()
	return cfg, nil
}

// fixup replaces values that cannot be meaningful.
func (c *Config) fixup() {
	if c.Persistence.SaveAttempts <= 0 {
		c.Persistence.SaveAttempts = DefaultSaveAttempts
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "quizprog:"
	}
	if c.Log.Mode == "" {
		c.Log.Mode = "dev"
	}
}
