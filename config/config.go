// Package config loads application settings from config.yaml and the
// environment using viper. Environment variables use the CINETRACK_ prefix
// with dots replaced by underscores, e.g. CINETRACK_OMDB_API_KEY.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings holds all runtime configuration for the server.
type Settings struct {
	Server struct {
		Host         string   `mapstructure:"host"`
		Port         int      `mapstructure:"port"`
		ExtraOrigins []string `mapstructure:"extra_origins"`
	} `mapstructure:"server"`

	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`

	Cache struct {
		Dir string        `mapstructure:"dir"`
		TTL time.Duration `mapstructure:"ttl"`
	} `mapstructure:"cache"`

	OMDB struct {
		APIKey string `mapstructure:"api_key"`
	} `mapstructure:"omdb"`

	Gemini struct {
		APIKey string `mapstructure:"api_key"`
		Model  string `mapstructure:"model"`
	} `mapstructure:"gemini"`

	Log struct {
		File string `mapstructure:"file"`
	} `mapstructure:"log"`
}

// Addr returns the host:port the HTTP server should bind to.
func (s *Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Server.Host, s.Server.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8085)
	v.SetDefault("database.path", "./data/cinetrack.db")
	v.SetDefault("cache.dir", "./data/cache")
	v.SetDefault("cache.ttl", "24h")
	// empty defaults so AutomaticEnv can see the keys
	v.SetDefault("omdb.api_key", "")
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("log.file", "")
}

// Load reads config.yaml from dir (falling back to defaults when the file is
// missing) and overlays CINETRACK_* environment variables.
func Load(dir string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("CINETRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &settings, nil
}
