package cmd

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/suhbatai/suhbat/internal/client"
	"github.com/suhbatai/suhbat/internal/logger"
	"github.com/suhbatai/suhbat/internal/store"
)

// newClientLogger keeps terminal sessions quiet: logs go to stderr and only
// with --debug.
func newClientLogger() (*zap.Logger, error) {
	if !viper.GetBool("debug") {
		return zap.NewNop(), nil
	}

	l, err := logger.New(logger.Options{
		JSON:        viper.GetBool("json"),
		Debug:       true,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}
	return l, nil
}

func newAPIClient(config *Config, logger *zap.Logger) (*client.Client, error) {
	c, err := client.New(config.Client.ServerURL, config.Client.Timeout, logger)
	if err != nil {
		return nil, fmt.Errorf("creating api client: %w", err)
	}
	return c, nil
}

func openStore(config *Config) (*store.SQLiteStore, error) {
	s, err := store.NewSQLiteStore(config.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening results store: %w", err)
	}
	return s, nil
}
