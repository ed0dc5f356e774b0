package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/suhbatai/suhbat/internal/ai"
	"github.com/suhbatai/suhbat/internal/ai/gemini"
	"github.com/suhbatai/suhbat/internal/api"
	"github.com/suhbatai/suhbat/internal/interview"
	"github.com/suhbatai/suhbat/internal/profession"
	"github.com/suhbatai/suhbat/internal/secrets"
	"github.com/suhbatai/suhbat/internal/server"
	"github.com/suhbatai/suhbat/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the interview HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 0, "port to listen on (default 3000, or PORT)")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

func serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	config, err := getConfig()
	if err != nil {
		return fmt.Errorf("getting a config: %w", err)
	}

	logger.Info("starting the suhbat server", zap.String("version", version))

	shutdownTracing, err := telemetry.Setup(ctx, config.Telemetry.ServiceName, config.Telemetry.OTelEndpoint, version)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("flushing traces", zap.Error(err))
		}
	}()

	generator, configured, err := newGenerator(ctx, config.Gemini, logger)
	if err != nil {
		return err
	}

	keyStatus := api.KeyMissing
	if configured {
		keyStatus = api.KeyConfigured
	}
	logger.Info("language model ready",
		zap.String("provider", api.HealthProvider),
		zap.String("model", config.Gemini.Model),
		zap.String("api_key", keyStatus),
	)

	svc := interview.NewService(generator, profession.Default(), logger)

	srv, err := server.New(svc, server.Options{
		Port:            config.Server.Port,
		CORSOrigins:     config.Server.CORSOrigins,
		ReadTimeout:     config.Server.ReadTimeout,
		WriteTimeout:    config.Server.WriteTimeout,
		ShutdownTimeout: config.Server.ShutdownTimeout,
		KeyConfigured:   configured,
	}, logger)
	if err != nil {
		return err
	}

	return srv.ListenAndServe(ctx)
}

// newGenerator builds the Gemini generator. A missing API key is not fatal:
// the server starts with a generator that fails every call and reports the
// missing key through the health check.
func newGenerator(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (ai.Generator, bool, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.APIKeyFile,
		Value: cfg.APIKey,
		Env:   "GEMINI_API_KEY",
	})
	if errors.Is(err, secrets.ErrNotConfigured) {
		logger.Warn("gemini api key is missing, model calls will fail",
			zap.String("hint", "set GEMINI_API_KEY, GEMINI_API_KEY_FILE or gemini.api-key in the configuration file"),
		)
		return ai.Unconfigured{Provider: gemini.Provider}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading gemini api key: %w", err)
	}

	generator, err := gemini.NewGenerator(ctx, gemini.Options{
		APIKey:          apiKey,
		Model:           cfg.Model,
		MaxAttempts:     cfg.MaxAttempts,
		Temperature:     cfg.Temperature,
		TopP:            cfg.TopP,
		TopK:            cfg.TopK,
		MaxOutputTokens: cfg.MaxOutputTokens,
		MaxLogLength:    cfg.MaxLogLength,
	}, logger)
	if err != nil {
		return nil, false, fmt.Errorf("creating gemini generator: %w", err)
	}

	return generator, true, nil
}
