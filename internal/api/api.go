// Package api holds the JSON documents exchanged between the interview server
// and its clients.
package api

import (
	"github.com/suhbatai/suhbat/internal/model"
)

// Routes served by the interview server.
const (
	PathHealth      = "/health"
	PathProfessions = "/professions"
	PathStart       = "/interview/start"
	PathNext        = "/interview/next"
	PathEvaluate    = "/interview/evaluate"
	PathMetrics     = "/metrics"
)

// Health check values.
const (
	HealthStatusOK = "ok"
	HealthMessage  = "SuhbatAI Backend - AI-Driven"
	HealthProvider = "Google Gemini"
	KeyConfigured  = "✓ Configured"
	KeyMissing     = "✗ MISSING!"
)

// Error messages returned in ErrorResponse.
const (
	ErrInvalidProfession  = "Invalid profession"
	ErrInvalidRequestBody = "Invalid request body"
	ErrGenerateQuestion   = "Failed to generate question"
	ErrEvaluate           = "Failed to evaluate interview"
)

type HealthResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	APIProvider string `json:"apiProvider"`
	APIKey      string `json:"apiKey"`
}

type StartRequest struct {
	Profession string `json:"profession"`
}

type NextRequest struct {
	Profession          string       `json:"profession"`
	ConversationHistory []model.Turn `json:"conversationHistory"`
	QuestionNumber      int          `json:"questionNumber"`
}

type EvaluateRequest struct {
	Profession          string       `json:"profession"`
	ConversationHistory []model.Turn `json:"conversationHistory"`
}

type QuestionResponse struct {
	Question string `json:"question"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
