package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "recruit-bot"
)

type Config struct {
	Database *DatabaseConfig `mapstructure:"database"`
	Redis    *RedisConfig    `mapstructure:"redis"`
	AI       *AIConfig       `mapstructure:"ai"`
	Twilio   *TwilioConfig   `mapstructure:"twilio"`
	Server   *ServerConfig   `mapstructure:"server"`
	Worker   *WorkerConfig   `mapstructure:"worker"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type TwilioConfig struct {
	AccountSID    string `mapstructure:"account-sid"`
	AuthToken     string `mapstructure:"auth-token"`
	AuthTokenFile string `mapstructure:"auth-token-file"`
	From          string `mapstructure:"from"`
	BaseURL       string `mapstructure:"base-url"`
	MediaDomain   string `mapstructure:"media-domain"`
	// ValidateSignature enables X-Twilio-Signature checks on the webhook.
	ValidateSignature bool `mapstructure:"validate-signature"`
}

type ServerConfig struct {
	Addr       string `mapstructure:"addr"`
	AdminToken string `mapstructure:"admin-token"`
	// PublicURL is the externally visible base URL, used for signature checks.
	PublicURL string `mapstructure:"public-url"`
}

type WorkerConfig struct {
	QueueSize       int           `mapstructure:"queue-size"`
	Concurrency     int           `mapstructure:"concurrency"`
	FetchTimeout    time.Duration `mapstructure:"fetch-timeout"`
	RescoreSchedule string        `mapstructure:"rescore-schedule"`
	SweepGrace      time.Duration `mapstructure:"sweep-grace"`
	SweepAttempts   int           `mapstructure:"sweep-max-attempts"`
	LockTTL         time.Duration `mapstructure:"lock-ttl"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "recruit-bot runs a WhatsApp screening conversation and scores the submitted documents",
	}
)

// envBindings maps config keys to the environment variables deployments use.
var envBindings = map[string]string{
	"database.driver":           "DATABASE_DRIVER",
	"database.dsn":              "DATABASE_URL",
	"redis.url":                 "REDIS_URL",
	"ai.gemini.api-key":         "GEMINI_API_KEY",
	"ai.gemini.api-key-file":    "GEMINI_API_KEY_FILE",
	"twilio.account-sid":        "TWILIO_ACCOUNT_SID",
	"twilio.auth-token":         "TWILIO_AUTH_TOKEN",
	"twilio.auth-token-file":    "TWILIO_AUTH_TOKEN_FILE",
	"twilio.from":               "TWILIO_WHATSAPP_NUMBER",
	"twilio.validate-signature": "TWILIO_VALIDATE_SIGNATURE",
	"server.addr":               "SERVER_ADDR",
	"server.admin-token":        "ADMIN_TOKEN",
	"server.public-url":         "PUBLIC_URL",
	"worker.rescore-schedule":   "RESCORE_SCHEDULE",
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}
	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is recruit-bot.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.dsn", "recruit-bot.db")
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.max-retries", 3)
	viper.SetDefault("ai.gemini.max-log-length", 300)
	viper.SetDefault("twilio.media-domain", "twilio.com")
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("worker.queue-size", 64)
	viper.SetDefault("worker.concurrency", 2)
	viper.SetDefault("worker.fetch-timeout", "15s")
	viper.SetDefault("worker.rescore-schedule", "@every 15m")
	viper.SetDefault("worker.sweep-grace", "10m")
	viper.SetDefault("worker.sweep-max-attempts", 3)
	viper.SetDefault("worker.lock-ttl", "10m")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The bot runs from environment variables alone, so only an explicit or
	// broken config file is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.Database == nil {
		config.Database = &DatabaseConfig{}
	}
	if config.Redis == nil {
		config.Redis = &RedisConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.Twilio == nil {
		config.Twilio = &TwilioConfig{}
	}
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}
	if config.Worker == nil {
		config.Worker = &WorkerConfig{}
	}

	return config, nil
}
