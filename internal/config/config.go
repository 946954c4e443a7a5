package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env              string        `mapstructure:"ENV"`
	Port             string        `mapstructure:"PORT"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	AdminKey         string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed      string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout   time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	CacheTTL         time.Duration `mapstructure:"CACHE_TTL"`
	FetchTimeout     time.Duration `mapstructure:"FETCH_TIMEOUT"`
	DBConnectTimeout time.Duration `mapstructure:"DB_CONNECT_TIMEOUT"`
	Timezone         string        `mapstructure:"TIMEZONE"`
	RecencyFallback  bool          `mapstructure:"RECENCY_FALLBACK"`
	DefaultEase      int           `mapstructure:"DEFAULT_IMPLEMENTATION_EASE"`
	EaseFile         string        `mapstructure:"IMPLEMENTATION_EASE_FILE"`
	AutoMigrate      bool          `mapstructure:"AUTO_MIGRATE"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("ADMIN_KEY", "")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("FETCH_TIMEOUT", "20s")
	v.SetDefault("DB_CONNECT_TIMEOUT", "30s")
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("RECENCY_FALLBACK", true)
	v.SetDefault("DEFAULT_IMPLEMENTATION_EASE", 3)
	v.SetDefault("IMPLEMENTATION_EASE_FILE", "")
	v.SetDefault("AUTO_MIGRATE", true)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Location resolves the configured timezone used for time-of-day buckets.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}
