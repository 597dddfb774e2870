// config/config.go
package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Configuration stores all the configurations
type Configuration struct {
	Server        ServerConfiguration
	Keycloak      KeycloakConfiguration
	OPA           OPAConfiguration
	Redis         RedisConfiguration
	Postgres      PostgresConfiguration
	Elasticsearch ElasticsearchConfiguration
}

// ServerConfiguration stores the port and other web server settings
type ServerConfiguration struct {
	Port string
}

// KeycloakConfiguration stores the identity provider connection settings
type KeycloakConfiguration struct {
	URL                string
	Realm              string
	ClientID           string
	ClientSecret       string
	AdminClientID      string
	AdminClientSecret  string
	Timeout            string
	ValidationStrategy string
}

// OPAConfiguration stores the policy engine connection settings
type OPAConfiguration struct {
	URL        string
	PolicyPath string
	Timeout    string
}

// RedisConfiguration stores data for Redis connection
type RedisConfiguration struct {
	Addr            string
	DefaultCacheTTL string
}

// PostgresConfiguration stores the user profile store DSN
type PostgresConfiguration struct {
	DSN string
}

// ElasticsearchConfiguration stores data for Elasticsearch connection
type ElasticsearchConfiguration struct {
	URL string
}

var config *Configuration

func InitConfig() error {
	viper.AddConfigPath("config") // path to look for the config file in
	viper.SetConfigName("config") // name of the config file (without extension)
	viper.SetConfigType("yaml")   // REQUIRED if the config file does not have the extension in the name

	viper.AutomaticEnv() // read in environment variables that match

	// Set default configurations
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.rateLimitRequests", 100)
	viper.SetDefault("server.rateLimitWindow", "1m")
	viper.SetDefault("keycloak.url", "http://localhost:8081")
	viper.SetDefault("keycloak.realm", "warden")
	viper.SetDefault("keycloak.clientId", "warden-client")
	viper.SetDefault("keycloak.clientSecret", "")
	viper.SetDefault("keycloak.timeout", "5s")
	viper.SetDefault("keycloak.validationStrategy", "userinfo")
	viper.SetDefault("opa.url", "http://localhost:8181")
	viper.SetDefault("opa.policyPath", "/v1/data/authz/decision")
	viper.SetDefault("opa.timeout", "5s")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.defaultCacheTTL", "1h")
	viper.SetDefault("cache.tokenTTL", "1h")
	viper.SetDefault("cache.userTTL", "1h")
	viper.SetDefault("cache.rolesTTL", "1h")
	viper.SetDefault("cache.decisionTTL", "5m")
	viper.SetDefault("postgres.dsn", "postgres://localhost:5432/warden?sslmode=disable")
	viper.SetDefault("elasticsearch.url", "http://localhost:9200")
	viper.SetDefault("audit.archiveEnabled", false)
	viper.SetDefault("log.dir", "logs")

	// Attempt to read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found. Using default settings and environment variables.")
		} else {
			return err
		}
	}

	// Unmarshal the configuration into the Configuration struct
	err := viper.Unmarshal(&config)
	if err != nil {
		return err
	}

	return nil
}

// GetConfig returns the loaded configuration
func GetConfig() *Configuration {
	return config
}

// GetString retrieves a string value from the configuration
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt retrieves an integer value from the configuration
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool retrieves a boolean value from the configuration
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration retrieves a duration value from the configuration
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}
