package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// MemoryDatabaseURI selects the in-memory repositories instead of MongoDB.
const MemoryDatabaseURI = "memory://"

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	App      AppConfig      `mapstructure:"app"`
	Log      LogConfig      `mapstructure:"log"`
	S3       S3Config       `mapstructure:"s3"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address is the listen address for the HTTP server.
func (s ServerConfig) Address() string {
	if strings.HasPrefix(s.Port, ":") {
		return s.Port
	}
	return ":" + s.Port
}

type DatabaseConfig struct {
	URI      string `mapstructure:"uri"`
	Name     string `mapstructure:"name"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// InMemory reports whether the map-backed repositories were requested.
func (d DatabaseConfig) InMemory() bool {
	return d.URI == MemoryDatabaseURI
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
	// APIURL overrides the Bot API server, e.g. for a local bot-api instance.
	APIURL string `mapstructure:"api_url"`
}

type AppConfig struct {
	PublicURL       string `mapstructure:"public_url"`
	DefaultTimezone string `mapstructure:"default_timezone"`
}

// MiniAppURL is the public address of the embedded mini-app page.
func (a AppConfig) MiniAppURL() string {
	return strings.TrimRight(a.PublicURL, "/") + "/mini-app"
}

// WebhookURL is where Telegram should deliver updates.
func (a AppConfig) WebhookURL() string {
	return strings.TrimRight(a.PublicURL, "/") + "/webhook"
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type S3Config struct {
	Endpoint        string        `mapstructure:"endpoint"`
	Region          string        `mapstructure:"region"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	BucketName      string        `mapstructure:"bucket_name"`
	URLExpiry       time.Duration `mapstructure:"url_expiry"`
}

// Enabled reports whether exports have somewhere to go.
func (s S3Config) Enabled() bool {
	return s.BucketName != ""
}

// Validate lists every missing required key in one error.
func (c Config) Validate() error {
	var missing []string
	if c.Database.URI == "" {
		missing = append(missing, "database.uri")
	}
	if c.Telegram.Token == "" {
		missing = append(missing, "telegram.token")
	}
	if c.App.PublicURL == "" {
		missing = append(missing, "app.public_url")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if _, err := time.LoadLocation(c.App.DefaultTimezone); err != nil {
		return fmt.Errorf("app.default_timezone: %w", err)
	}
	return nil
}

// envAliases maps config keys to the environment names used by existing
// deployments, in addition to the derived KEY_NAME form.
var envAliases = map[string][]string{
	"server.port":    {"SERVER_PORT", "PORT"},
	"database.uri":   {"DATABASE_URI", "MONGODB_URI"},
	"telegram.token": {"TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN"},
	"app.public_url": {"APP_PUBLIC_URL", "MINI_APP_URL"},
}

// LoadConfig reads configuration from config.yaml under path (optional) and
// the environment, then validates it.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	// server.port -> SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))
	for key, names := range envAliases {
		if err = v.BindEnv(append([]string{key}, names...)...); err != nil {
			return config, err
		}
	}

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.name", "spot_buddy")
	v.SetDefault("app.default_timezone", "UTC")
	v.SetDefault("log.level", "info")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.url_expiry", "15m")
	// Keys without defaults still need to be known for Unmarshal to see env.
	for _, key := range []string{
		"database.username", "database.password", "telegram.api_url",
		"s3.endpoint", "s3.access_key_id", "s3.secret_access_key", "s3.bucket_name",
	} {
		if err = v.BindEnv(key); err != nil {
			return config, err
		}
	}

	err = v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		err = nil
	} else if err != nil {
		return config, err
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, err
	}
	return config, config.Validate()
}
