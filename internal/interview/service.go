// Package interview runs the stateless interview operations: opening
// question, follow-up questions and the final evaluation. The caller supplies
// the full conversation on every call.
package interview

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/suhbatai/suhbat/internal/ai"
	"github.com/suhbatai/suhbat/internal/evaluation"
	"github.com/suhbatai/suhbat/internal/logger"
	"github.com/suhbatai/suhbat/internal/metrics"
	"github.com/suhbatai/suhbat/internal/model"
	"github.com/suhbatai/suhbat/internal/profession"
	"github.com/suhbatai/suhbat/internal/prompts"
	"github.com/suhbatai/suhbat/internal/telemetry"
)

// Fallback reasons reported in logs and metrics.
const (
	FallbackUpstream  = "upstream"
	FallbackMalformed = "malformed"
)

// Service is safe for concurrent use; it holds no per-interview state.
type Service struct {
	generator ai.Generator
	catalog   *profession.Catalog
	logger    *zap.Logger
}

// NewService wires the generator and catalog. A nil catalog selects the
// built-in professions.
func NewService(generator ai.Generator, catalog *profession.Catalog, log *zap.Logger) *Service {
	if catalog == nil {
		catalog = profession.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		generator: generator,
		catalog:   catalog,
		logger:    log,
	}
}

// Catalog exposes the professions the service accepts.
func (s *Service) Catalog() *profession.Catalog {
	return s.catalog
}

// Start generates the opening question.
func (s *Service) Start(ctx context.Context, professionID string) (string, error) {
	profile, err := s.lookup(professionID)
	if err != nil {
		return "", err
	}

	ctx, span := s.span(ctx, "interview.Start", profile)
	defer span.End()

	log := s.log(ctx, profile)
	log.Info("starting interview", zap.String("role", profile.Name))

	pair, err := prompts.Opening(profile)
	if err != nil {
		return "", fail(span, fmt.Errorf("build opening prompt: %w", err))
	}

	question, err := s.generate(ctx, "start interview", pair)
	if err != nil {
		log.Error("opening question failed", zap.Error(err))
		return "", fail(span, err)
	}

	metrics.QuestionsGenerated.WithLabelValues(profile.ID, prompts.StageBackground.Key()).Inc()
	log.Debug("opening question generated", zap.String("question", question))

	return question, nil
}

// Next generates question number questionNumber from the recent history.
func (s *Service) Next(ctx context.Context, professionID string, history []model.Turn, questionNumber int) (string, error) {
	profile, err := s.lookup(professionID)
	if err != nil {
		return "", err
	}

	stage := prompts.StageFor(questionNumber)

	ctx, span := s.span(ctx, "interview.Next", profile)
	defer span.End()
	span.SetAttributes(
		attribute.Int("interview.question_number", questionNumber),
		attribute.String("interview.stage", stage.Key()),
		attribute.Int("interview.history_length", len(history)),
	)

	log := s.log(ctx, profile)
	log.Info("generating next question",
		zap.Int("question_number", questionNumber),
		zap.Int("max_questions", model.MaxQuestions),
		zap.Stringer("stage", stage),
	)

	pair, err := prompts.Next(profile, history, questionNumber)
	if err != nil {
		return "", fail(span, fmt.Errorf("build next prompt: %w", err))
	}

	question, err := s.generate(ctx, "next question", pair)
	if err != nil {
		log.Error("next question failed", zap.Int("question_number", questionNumber), zap.Error(err))
		return "", fail(span, err)
	}

	metrics.QuestionsGenerated.WithLabelValues(profile.ID, stage.Key()).Inc()

	return question, nil
}

// Evaluate scores the transcript. Only an unknown profession is reported as an
// error: model and parse failures are logged and answered with
// evaluation.Fallback so the client always gets a result.
func (s *Service) Evaluate(ctx context.Context, professionID string, history []model.Turn) (*model.Evaluation, error) {
	profile, err := s.lookup(professionID)
	if err != nil {
		return nil, err
	}

	ctx, span := s.span(ctx, "interview.Evaluate", profile)
	defer span.End()

	log := s.log(ctx, profile)
	pairs := prompts.PairTurns(history)
	span.SetAttributes(attribute.Int("interview.answered", len(pairs)))
	log.Info("evaluating interview", zap.Int("answered", len(pairs)))

	result, reason, err := s.evaluate(ctx, profile, history)
	if err != nil {
		metrics.EvaluationFallbacks.WithLabelValues(reason).Inc()
		span.SetAttributes(attribute.String("interview.fallback", reason))
		span.RecordError(err)
		log.Warn("evaluation unavailable, using fallback result",
			zap.String("reason", reason),
			zap.Error(err),
		)
		return evaluation.Fallback(), nil
	}

	log.Info("evaluation complete", zap.Float64("average_score", result.AverageScore))

	return result, nil
}

func (s *Service) evaluate(ctx context.Context, profile profession.Profile, history []model.Turn) (*model.Evaluation, string, error) {
	pair, err := prompts.Evaluation(profile, history)
	if err != nil {
		return nil, FallbackMalformed, fmt.Errorf("build evaluation prompt: %w", err)
	}

	raw, err := s.generate(ctx, "evaluate interview", pair)
	if err != nil {
		return nil, FallbackUpstream, err
	}

	result, err := evaluation.Parse(raw)
	if err != nil {
		var malformed *evaluation.MalformedResponseError
		if errors.As(err, &malformed) {
			s.log(ctx, profile).Debug("unparseable evaluation response",
				zap.String("response_preview", logger.Preview(malformed.Raw, 200)),
			)
		}
		return nil, FallbackMalformed, err
	}

	if len(result.Violations) > 0 {
		s.log(ctx, profile).Warn("evaluation does not match the expected shape",
			zap.Strings("violations", result.Violations),
		)
	}

	return result.Evaluation, "", nil
}

func (s *Service) lookup(id string) (profession.Profile, error) {
	profile, err := s.catalog.Lookup(id)
	if err != nil {
		return profession.Profile{}, &ValidationError{Profession: id, Err: err}
	}
	return profile, nil
}

func (s *Service) generate(ctx context.Context, op string, pair prompts.Pair) (string, error) {
	if s.generator == nil {
		return "", &UpstreamError{Op: op, Err: ai.ErrNotConfigured}
	}

	text, err := s.generator.Generate(ctx, pair.System, pair.User)
	if err != nil {
		return "", &UpstreamError{Op: op, Err: err}
	}
	return text, nil
}

func (s *Service) span(ctx context.Context, name string, profile profession.Profile) (context.Context, trace.Span) {
	ctx, span := telemetry.Tracer().Start(ctx, name)
	span.SetAttributes(attribute.String("interview.profession", profile.ID))
	return ctx, span
}

func (s *Service) log(ctx context.Context, profile profession.Profile) *zap.Logger {
	return logger.WithInterview(s.logger, profile.ID, logger.RequestIDFromContext(ctx))
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
