package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/suhbatai/suhbat/internal/api"
	"github.com/suhbatai/suhbat/internal/interview"
	"github.com/suhbatai/suhbat/internal/model"
	"github.com/suhbatai/suhbat/internal/profession"
)

// Interviewer runs the interview operations behind the HTTP handlers.
type Interviewer interface {
	Start(ctx context.Context, professionID string) (string, error)
	Next(ctx context.Context, professionID string, history []model.Turn, questionNumber int) (string, error)
	Evaluate(ctx context.Context, professionID string, history []model.Turn) (*model.Evaluation, error)
	Catalog() *profession.Catalog
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	key := api.KeyMissing
	if s.keyConfigured {
		key = api.KeyConfigured
	}

	_ = writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:      api.HealthStatusOK,
		Message:     api.HealthMessage,
		APIProvider: api.HealthProvider,
		APIKey:      key,
	})
}

func (s *Server) handleProfessions(w http.ResponseWriter, _ *http.Request) {
	_ = writeJSON(w, http.StatusOK, s.interviewer.Catalog().List())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req api.StartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, api.ErrInvalidRequestBody)
		return
	}

	question, err := s.interviewer.Start(r.Context(), req.Profession)
	if err != nil {
		writeQuestionError(w, err)
		return
	}

	_ = writeJSON(w, http.StatusOK, api.QuestionResponse{Question: question})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	var req api.NextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, api.ErrInvalidRequestBody)
		return
	}

	question, err := s.interviewer.Next(r.Context(), req.Profession, req.ConversationHistory, req.QuestionNumber)
	if err != nil {
		writeQuestionError(w, err)
		return
	}

	_ = writeJSON(w, http.StatusOK, api.QuestionResponse{Question: question})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req api.EvaluateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, api.ErrInvalidRequestBody)
		return
	}

	result, err := s.interviewer.Evaluate(r.Context(), req.Profession, req.ConversationHistory)
	if err != nil {
		if isValidation(err) {
			writeError(w, http.StatusBadRequest, api.ErrInvalidProfession)
			return
		}
		writeError(w, http.StatusInternalServerError, api.ErrEvaluate)
		return
	}

	_ = writeJSON(w, http.StatusOK, result)
}

func writeQuestionError(w http.ResponseWriter, err error) {
	if isValidation(err) {
		writeError(w, http.StatusBadRequest, api.ErrInvalidProfession)
		return
	}
	writeError(w, http.StatusInternalServerError, api.ErrGenerateQuestion)
}

func isValidation(err error) bool {
	var validation *interview.ValidationError
	return errors.As(err, &validation)
}
