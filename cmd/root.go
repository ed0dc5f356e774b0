package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/suhbatai/suhbat/internal/ai/gemini"
	"github.com/suhbatai/suhbat/internal/client"
	"github.com/suhbatai/suhbat/internal/logger"
	"github.com/suhbatai/suhbat/internal/server"
	"github.com/suhbatai/suhbat/internal/store"
)

const (
	app = "suhbat"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Client    ClientConfig    `mapstructure:"client"`
	Store     StoreConfig     `mapstructure:"store"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	CORSOrigins     []string      `mapstructure:"cors-origins"`
	ReadTimeout     time.Duration `mapstructure:"read-timeout"`
	WriteTimeout    time.Duration `mapstructure:"write-timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
}

type GeminiConfig struct {
	APIKey          string  `mapstructure:"api-key"`
	APIKeyFile      string  `mapstructure:"api-key-file"`
	Model           string  `mapstructure:"model"`
	MaxAttempts     int     `mapstructure:"max-attempts"`
	Temperature     float32 `mapstructure:"temperature"`
	TopP            float32 `mapstructure:"top-p"`
	TopK            float32 `mapstructure:"top-k"`
	MaxOutputTokens int32   `mapstructure:"max-output-tokens"`
	MaxLogLength    int     `mapstructure:"max-log-length"`
}

type ClientConfig struct {
	ServerURL string        `mapstructure:"server-url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type TelemetryConfig struct {
	OTelEndpoint string `mapstructure:"otel-endpoint"`
	ServiceName  string `mapstructure:"service-name"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "suhbat is an AI mock-interview server and terminal client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

// envBindings maps configuration keys to the environment variables that
// override them.
var envBindings = map[string]string{
	"gemini.api-key":          "GEMINI_API_KEY",
	"gemini.api-key-file":     "GEMINI_API_KEY_FILE",
	"gemini.model":            "GEMINI_MODEL",
	"server.port":             "PORT",
	"client.server-url":       "SUHBAT_SERVER_URL",
	"store.path":              "SUHBAT_STORE_PATH",
	"telemetry.otel-endpoint": "SUHBAT_OTEL_ENDPOINT",
}

func init() {
	setDefaults()

	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is suhbat.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("server.port", server.DefaultPort)
	viper.SetDefault("server.cors-origins", []string{"*"})
	viper.SetDefault("server.read-timeout", server.DefaultReadTimeout)
	viper.SetDefault("server.write-timeout", server.DefaultWriteTimeout)
	viper.SetDefault("server.shutdown-timeout", server.DefaultShutdownTimeout)

	viper.SetDefault("gemini.model", gemini.DefaultModel)
	viper.SetDefault("gemini.max-attempts", gemini.DefaultMaxAttempts)
	viper.SetDefault("gemini.temperature", gemini.DefaultTemperature)
	viper.SetDefault("gemini.top-p", gemini.DefaultTopP)
	viper.SetDefault("gemini.top-k", gemini.DefaultTopK)
	viper.SetDefault("gemini.max-output-tokens", gemini.DefaultMaxOutputTokens)
	viper.SetDefault("gemini.max-log-length", 200)

	viper.SetDefault("client.server-url", client.DefaultServerURL)
	viper.SetDefault("client.timeout", client.DefaultTimeout)

	viper.SetDefault("store.path", store.DefaultPath())

	viper.SetDefault("telemetry.service-name", app)
}

func initConfig() {
	// A .env file next to the binary is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("loading .env file: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// The config file is optional unless it was asked for explicitly.
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		return nil, errors.New("config is empty")
	}

	return config, nil
}

func newLogger() (*zap.Logger, error) {
	l, err := logger.New(logger.Options{
		JSON:  viper.GetBool("json"),
		Debug: viper.GetBool("debug"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}
	return l, nil
}
