package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/suhbatai/suhbat/internal/ai"
	"github.com/suhbatai/suhbat/internal/logger"
	"github.com/suhbatai/suhbat/internal/metrics"
	"github.com/suhbatai/suhbat/internal/retry"
	"github.com/suhbatai/suhbat/internal/telemetry"
)

const (
	Provider = "gemini"

	DefaultModel           = "gemini-flash-latest"
	DefaultMaxAttempts     = 3
	DefaultTemperature     = 0.9
	DefaultTopP            = 0.95
	DefaultTopK            = 64
	DefaultMaxOutputTokens = 8192

	defaultMaxLogLength = 200

	overloadStep = 2 * time.Second
	errorBackoff = time.Second
)

// sleep is swapped in tests to avoid real waits.
var sleep retry.SleepFunc = retry.Wait

// contentModel is the subset of genai.Models used by the generator.
type contentModel interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Options configures a Generator.
type Options struct {
	APIKey          string
	Model           string
	MaxAttempts     int
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int32
	MaxLogLength    int
}

// Generator sends prompts to Gemini with bounded retries.
type Generator struct {
	models      contentModel
	model       string
	maxAttempts int
	config      *genai.GenerateContentConfig
	maxLogLen   int
	logger      *zap.Logger
}

// NewGenerator creates a Generator for the Gemini API backend.
func NewGenerator(ctx context.Context, opts Options, log *zap.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, ai.ErrNotConfigured
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, opts, log), nil
}

func newGenerator(models contentModel, opts Options, log *zap.Logger) *Generator {
	modelName := strings.TrimSpace(opts.Model)
	if modelName == "" {
		modelName = DefaultModel
	}

	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	maxLogLen := opts.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	cfg := &genai.GenerateContentConfig{}
	if opts.Temperature > 0 {
		cfg.Temperature = genai.Ptr(opts.Temperature)
	}
	if opts.TopP > 0 {
		cfg.TopP = genai.Ptr(opts.TopP)
	}
	if opts.TopK > 0 {
		cfg.TopK = genai.Ptr(opts.TopK)
	}
	if opts.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = opts.MaxOutputTokens
	}

	return &Generator{
		models:      models,
		model:       modelName,
		maxAttempts: maxAttempts,
		config:      cfg,
		maxLogLen:   maxLogLen,
		logger:      logger.WithCommonFields(log, Provider, modelName),
	}
}

// Generate sends system and user as one combined prompt and returns the trimmed
// response text. Failures are reported as *ai.ModelError once all attempts are
// used.
func (g *Generator) Generate(ctx context.Context, system, user string) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt := combine(system, user)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	ctx, span := telemetry.Tracer().Start(ctx, "gemini.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.model", g.model),
		attribute.Int("ai.prompt_length", utf8.RuneCountInString(prompt)),
	)

	started := time.Now()
	defer func() {
		metrics.ModelCallDuration.WithLabelValues(Provider).Observe(time.Since(started).Seconds())
	}()

	policy := retry.Policy{
		MaxAttempts: g.maxAttempts,
		Backoff:     backoff,
		Sleep:       sleep,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			g.logger.Warn("gemini attempt failed, retrying",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", g.maxAttempts),
				zap.Bool("overloaded", IsOverloaded(err)),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
		},
	}

	text, res, err := retry.Do(ctx, policy, func(ctx context.Context) (string, error) {
		return g.attempt(ctx, prompt)
	})
	span.SetAttributes(attribute.Int("ai.attempts", res.Attempts))
	if err != nil {
		g.logger.Error("gemini call failed", zap.Int("attempts", res.Attempts), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "model call failed")
		return "", &ai.ModelError{Provider: Provider, Attempts: res.Attempts, Err: err}
	}

	return text, nil
}

func (g *Generator) attempt(ctx context.Context, prompt string) (string, error) {
	g.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.Preview(prompt, g.maxLogLen)),
	)

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config)
	if err != nil {
		outcome := metrics.OutcomeError
		if IsOverloaded(err) {
			outcome = metrics.OutcomeOverloaded
		}
		metrics.ModelAttempts.WithLabelValues(Provider, outcome).Inc()
		return "", fmt.Errorf("generate content: %w", err)
	}

	output := responseText(resp)
	if output == "" {
		metrics.ModelAttempts.WithLabelValues(Provider, metrics.OutcomeError).Inc()
		return "", errors.New("gemini api returned empty response")
	}

	metrics.ModelAttempts.WithLabelValues(Provider, metrics.OutcomeSuccess).Inc()
	g.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(output)),
		zap.String("response_preview", logger.Preview(output, g.maxLogLen)),
	)

	return output, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// IsOverloaded reports whether err is Gemini's transient "model overloaded"
// condition (HTTP 503).
func IsOverloaded(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return overloaded(apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return overloaded(*apiErrPtr)
	}
	return false
}

func overloaded(e genai.APIError) bool {
	return e.Code == http.StatusServiceUnavailable || strings.EqualFold(e.Status, "UNAVAILABLE")
}

// backoff waits attempt*2s after an overload and 1s after anything else.
func backoff(attempt int, err error) time.Duration {
	if IsOverloaded(err) {
		return retry.Linear(overloadStep)(attempt, err)
	}
	return errorBackoff
}

func combine(system, user string) string {
	system = strings.TrimSpace(system)
	user = strings.TrimSpace(user)
	switch {
	case system == "":
		return user
	case user == "":
		return system
	default:
		return system + "\n\n" + user
	}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}
