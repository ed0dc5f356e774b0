package model

import (
	"fmt"
	"strings"
)

// MaxQuestions is the fixed length of an interview in answered questions.
const MaxQuestions = 6

// SkillLabels are the skill ratings an evaluation is asked for, in the order
// the model is asked to emit them.
var SkillLabels = []string{"Communication", "Structure", "Confidence", "Technical Knowledge"}

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleInterviewer Role = "interviewer"
	RoleCandidate   Role = "candidate"
)

// UnmarshalText accepts the canonical role names and the chat-style aliases
// "assistant" and "user" that older clients send.
func (r *Role) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "interviewer", "assistant", "model":
		*r = RoleInterviewer
	case "candidate", "user":
		*r = RoleCandidate
	default:
		return fmt.Errorf("unknown conversation role %q", text)
	}
	return nil
}

// Turn is a single message of the interview transcript.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Evaluation is the structured feedback produced at the end of an interview.
type Evaluation struct {
	AverageScore    float64            `json:"averageScore" mapstructure:"averageScore"`
	SkillRatings    map[string]float64 `json:"skillRatings" mapstructure:"skillRatings"`
	Strengths       []string           `json:"strengths" mapstructure:"strengths"`
	WeakPoints      []string           `json:"weakPoints" mapstructure:"weakPoints"`
	Recommendations []string           `json:"recommendations" mapstructure:"recommendations"`
}
