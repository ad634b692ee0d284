package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds all configuration for the server.
// Tags use mapstructure for Viper unmarshalling.
type ServerConfig struct {
	HTTPPort    string `mapstructure:"HTTP_PORT"`
	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	LogPretty   bool   `mapstructure:"LOG_PRETTY"`

	OtelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// RedisAddr enables the Redis-backed token cache when non-empty;
	// otherwise the in-memory TTL cache is used.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// Internal bearer token settings.
	JWTSecretKey      string `mapstructure:"JWT_SECRET_KEY"`
	JWTIssuer         string `mapstructure:"JWT_ISSUER"`
	AccessTokenTTLMin int    `mapstructure:"ACCESS_TOKEN_TTL_MIN"`

	// Token rendezvous budget. The defaults reproduce the historical
	// 2s x 100 polling contract; clients depend on the ~200s ceiling.
	RendezvousIntervalSec int `mapstructure:"RENDEZVOUS_INTERVAL_SEC"`
	RendezvousAttempts    int `mapstructure:"RENDEZVOUS_ATTEMPTS"`

	// OAuth application credentials, one pair per provider.
	GithubClientID        string `mapstructure:"GITHUB_CLIENT_ID"`
	GithubClientSecret    string `mapstructure:"GITHUB_CLIENT_SECRET"`
	BitbucketClientID     string `mapstructure:"BITBUCKET_CLIENT_ID"`
	BitbucketClientSecret string `mapstructure:"BITBUCKET_CLIENT_SECRET"`
}

// TokenTTL returns the configured internal token lifetime.
func (c *ServerConfig) TokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMin) * time.Minute
}

// RendezvousInterval returns the poll interval of the token rendezvous.
func (c *ServerConfig) RendezvousInterval() time.Duration {
	return time.Duration(c.RendezvousIntervalSec) * time.Second
}

// LoadConfig reads configuration from file, environment variables, and defaults.
func LoadConfig() (*ServerConfig, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/cloudteams/")
	v.AddConfigPath("$HOME/.cloudteams")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/cloudteams_dev")
	v.SetDefault("MONGO_DB_NAME", "cloudteams_dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("OTEL_SERVICE_NAME", "developer-services")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("GITHUB_CLIENT_ID", "")
	v.SetDefault("GITHUB_CLIENT_SECRET", "")
	v.SetDefault("BITBUCKET_CLIENT_ID", "")
	v.SetDefault("BITBUCKET_CLIENT_SECRET", "")
	v.SetDefault("JWT_SECRET_KEY", "a_very_secret_jwt_key_change_me") // CHANGE IN PRODUCTION
	v.SetDefault("JWT_ISSUER", "cloudteams")
	v.SetDefault("ACCESS_TOKEN_TTL_MIN", 60)
	v.SetDefault("RENDEZVOUS_INTERVAL_SEC", 2)
	v.SetDefault("RENDEZVOUS_ATTEMPTS", 100)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, we fall back to defaults and
		// environment variables. Anything else is a real error.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &cfg, nil
}
