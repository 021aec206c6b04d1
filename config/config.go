package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	OAuth       OAuthConfig       `mapstructure:"oauth"`
	Cloudinary  CloudinaryConfig  `mapstructure:"cloudinary"`
	Redis       RedisConfig       `mapstructure:"redis"`
	NATS        NATSConfig        `mapstructure:"nats"`
	SMTP        SMTPConfig        `mapstructure:"smtp"`
	Log         LogConfig         `mapstructure:"log"`
	Marketplace MarketplaceConfig `mapstructure:"marketplace"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Env          string        `mapstructure:"env"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
	RateLimit    int           `mapstructure:"rate_limit"`
	RateWindow   time.Duration `mapstructure:"rate_window"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type JWTConfig struct {
	AccessSecret  string        `mapstructure:"access_secret"`
	RefreshSecret string        `mapstructure:"refresh_secret"`
	AccessExpiry  time.Duration `mapstructure:"access_expiry"`
	RefreshExpiry time.Duration `mapstructure:"refresh_expiry"`
	Issuer        string        `mapstructure:"issuer"`
}

type OAuthConfig struct {
	GoogleClientID     string `mapstructure:"google_client_id"`
	GoogleClientSecret string `mapstructure:"google_client_secret"`
	GoogleRedirectURL  string `mapstructure:"google_redirect_url"`
}

type CloudinaryConfig struct {
	CloudName string `mapstructure:"cloud_name"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	Folder    string `mapstructure:"folder"`
}

// RedisConfig is optional; an empty Addr keeps anonymous view cooldowns in process memory.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NATSConfig is optional; an empty URL disables event publishing.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type MarketplaceConfig struct {
	ViewCooldown      time.Duration `mapstructure:"view_cooldown"`
	ResetCodeTTL      time.Duration `mapstructure:"reset_code_ttl"`
	HistorySize       int           `mapstructure:"history_size"`
	AttributeMaxKeys  int           `mapstructure:"attribute_max_keys"`
	AttributeMaxDepth int           `mapstructure:"attribute_max_depth"`
	AttributeMaxBytes int           `mapstructure:"attribute_max_bytes"`
	BoostSweepEvery   time.Duration `mapstructure:"boost_sweep_every"`
	AdminEmail        string        `mapstructure:"admin_email"`
	AdminPassword     string        `mapstructure:"admin_password"`
}

var defaults = map[string]interface{}{
	"server.port":          "8000",
	"server.env":           "development",
	"server.read_timeout":  10 * time.Second,
	"server.write_timeout": 10 * time.Second,
	"server.cors_origins":  []string{"http://localhost:3000"},
	"server.rate_limit":    120,
	"server.rate_window":   time.Minute,

	"database.dsn":               "chezben:chezben@tcp(localhost:3306)/chezben?charset=utf8mb4&parseTime=True&loc=UTC",
	"database.max_idle_conns":    10,
	"database.max_open_conns":    100,
	"database.conn_max_lifetime": time.Hour,

	"jwt.access_secret":  "change-me-in-production",
	"jwt.refresh_secret": "change-me-refresh",
	"jwt.access_expiry":  60 * time.Minute,
	"jwt.refresh_expiry": 7 * 24 * time.Hour,
	"jwt.issuer":         "chezben",

	"oauth.google_client_id":     "",
	"oauth.google_client_secret": "",
	"oauth.google_redirect_url":  "http://localhost:8000/api/v1/auth/google/callback",

	"cloudinary.cloud_name": "",
	"cloudinary.api_key":    "",
	"cloudinary.api_secret": "",
	"cloudinary.folder":     "chezben",

	"redis.addr":     "",
	"redis.password": "",
	"redis.db":       0,

	"nats.url":            "",
	"nats.subject_prefix": "marketplace",

	"smtp.host":     "smtp.gmail.com",
	"smtp.port":     587,
	"smtp.username": "",
	"smtp.password": "",
	"smtp.from":     "no-reply@chezben.cm",

	"log.level": "info",

	"marketplace.view_cooldown":       5 * time.Minute,
	"marketplace.reset_code_ttl":      15 * time.Minute,
	"marketplace.history_size":        50,
	"marketplace.attribute_max_keys":  50,
	"marketplace.attribute_max_depth": 4,
	"marketplace.attribute_max_bytes": 16 << 10,
	"marketplace.boost_sweep_every":   10 * time.Minute,
	"marketplace.admin_email":         "",
	"marketplace.admin_password":      "",
}

// Load reads configuration from the environment. Nested keys map to upper-case
// variables joined by underscores, e.g. server.port -> SERVER_PORT.
func Load() (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
