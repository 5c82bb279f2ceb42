/**
 * @description
 * This package handles the configuration management for the service. It uses
 * the Viper library to read configuration from environment variables, with
 * an optional .env file for local development.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the assistant-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort           string `mapstructure:"SERVER_PORT"`
	DatabaseURL          string `mapstructure:"DATABASE_URL"`
	RedisURL             string `mapstructure:"REDIS_URL"`
	RedisSessionPrefix   string `mapstructure:"REDIS_SESSION_PREFIX"`
	RabbitMQURL          string `mapstructure:"RABBITMQ_URL"`
	ChatExchange         string `mapstructure:"CHAT_EXCHANGE"`
	ChatInboundQueue     string `mapstructure:"CHAT_INBOUND_QUEUE"`
	CredentialFile       string `mapstructure:"CREDENTIAL_FILE"`
	LLMAPIBaseURL        string `mapstructure:"LLM_API_BASE_URL"`
	LLMAPIKey            string `mapstructure:"LLM_API_KEY"`
	LLMModel             string `mapstructure:"LLM_MODEL"`
	WebsiteURL           string `mapstructure:"WEBSITE_URL"`
	SessionTTLSeconds    int    `mapstructure:"SESSION_TTL_SECONDS"`
	ReconnectMaxAttempts int    `mapstructure:"RECONNECT_MAX_ATTEMPTS"`
	MaturityJobSchedule  string `mapstructure:"MATURITY_JOB_SCHEDULE"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("CHAT_EXCHANGE", "chat.gateway")
	viper.SetDefault("CHAT_INBOUND_QUEUE", "assistant_service.inbound")
	viper.SetDefault("CREDENTIAL_FILE", "./session/creds.json")
	viper.SetDefault("LLM_API_BASE_URL", "https://api.openai.com/v1")
	viper.SetDefault("LLM_MODEL", "gpt-4o-mini")
	viper.SetDefault("REDIS_SESSION_PREFIX", "assistant:session")
	viper.SetDefault("SESSION_TTL_SECONDS", 600)
	viper.SetDefault("RECONNECT_MAX_ATTEMPTS", 5)
	viper.SetDefault("MATURITY_JOB_SCHEDULE", "0 * * * *")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_SESSION_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("CHAT_EXCHANGE")
	_ = viper.BindEnv("CHAT_INBOUND_QUEUE")
	_ = viper.BindEnv("CREDENTIAL_FILE")
	_ = viper.BindEnv("LLM_API_BASE_URL")
	_ = viper.BindEnv("LLM_API_KEY")
	_ = viper.BindEnv("LLM_MODEL")
	_ = viper.BindEnv("WEBSITE_URL")
	_ = viper.BindEnv("SESSION_TTL_SECONDS")
	_ = viper.BindEnv("RECONNECT_MAX_ATTEMPTS")
	_ = viper.BindEnv("MATURITY_JOB_SCHEDULE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisSessionPrefix = strings.TrimSpace(config.RedisSessionPrefix)
	if config.SessionTTLSeconds <= 0 {
		config.SessionTTLSeconds = 600
	}
	if config.ReconnectMaxAttempts <= 0 {
		config.ReconnectMaxAttempts = 5
	}

	return
}
