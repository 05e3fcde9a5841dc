package config

import (
	"errors"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	ServerAddress    string `mapstructure:"SERVER_ADDRESS"`
	DBSource         string `mapstructure:"DB_SOURCE"`
	LogLevel         string `mapstructure:"LOG_LEVEL"`
	GeocodeCachePath string `mapstructure:"GEOCODE_CACHE_PATH"`
	CacheKeyPolicy   string `mapstructure:"CACHE_KEY_POLICY"`
	MapboxToken      string `mapstructure:"MAPBOX_TOKEN"`
	MapboxBaseURL    string `mapstructure:"MAPBOX_BASE_URL"`
	SheetName        string `mapstructure:"SHEET_NAME"`
	HeaderRow        int    `mapstructure:"HEADER_ROW"`
	ResolveWorkers   int    `mapstructure:"RESOLVE_WORKERS"`
	SkipUnresolved   bool   `mapstructure:"SKIP_UNRESOLVED"`
	TopWords         int    `mapstructure:"TOP_WORDS"`
	MaxUploadMB      int64  `mapstructure:"MAX_UPLOAD_MB"`
}

var defaults = map[string]interface{}{
	"SERVER_ADDRESS":     ":8080",
	"DB_SOURCE":          "",
	"LOG_LEVEL":          "info",
	"GEOCODE_CACHE_PATH": "location_dump.json",
	"CACHE_KEY_POLICY":   "exact",
	"MAPBOX_TOKEN":       "",
	"MAPBOX_BASE_URL":    "",
	"SHEET_NAME":         "Student Lifestyle Surveys",
	"HEADER_ROW":         24,
	"RESOLVE_WORKERS":    1,
	"SKIP_UNRESOLVED":    false,
	"TOP_WORDS":          20,
	"MAX_UPLOAD_MB":      32,
}

// LoadConfig reads app.env from path, overlaid by environment variables.
// A missing app.env is not an error.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
	}

	err = v.Unmarshal(&config)
	return
}
