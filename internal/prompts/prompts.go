// Package prompts renders the text sent to the language model at each step
// of an interview. Everything here is pure: no I/O, no model calls.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/suhbatai/suhbat/internal/model"
	"github.com/suhbatai/suhbat/internal/profession"
)

// RecentTurns is how much of the transcript is shown when asking for the next question.
const RecentTurns = 4

//go:embed templates/*.md
var templateFS embed.FS

var templates = template.Must(template.New("prompts").Funcs(template.FuncMap{
	"join":    strings.Join,
	"speaker": speaker,
	"inc":     func(i int) int { return i + 1 },
}).ParseFS(templateFS, "templates/*.md"))

// Pair is the role framing and the task instruction for a single model call.
type Pair struct {
	System string
	User   string
}

// Stage is a coarse phase of the interview derived from the question index.
type Stage int

const (
	StageBackground Stage = iota + 1
	StageTechnical
	StageBehavioral
)

func (s Stage) String() string {
	switch s {
	case StageBackground:
		return "Background & Experience"
	case StageTechnical:
		return "Technical Skills & Knowledge"
	case StageBehavioral:
		return "Behavioral & Problem-Solving"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Key is a short lowercase identifier suitable for metric labels.
func (s Stage) Key() string {
	switch s {
	case StageBackground:
		return "background"
	case StageTechnical:
		return "technical"
	case StageBehavioral:
		return "behavioral"
	default:
		return "unknown"
	}
}

// StageFor maps a 1-based question number to its stage.
func StageFor(questionNumber int) Stage {
	switch {
	case questionNumber <= 2:
		return StageBackground
	case questionNumber <= 4:
		return StageTechnical
	default:
		return StageBehavioral
	}
}

// Guidance returns the stage-specific instruction for p.
func Guidance(p profession.Profile, stage Stage) string {
	switch stage {
	case StageBackground:
		return fmt.Sprintf("Ask about their practical experience with %s or %s.", skill(p, 0), skill(p, 1))
	case StageTechnical:
		return fmt.Sprintf("Ask a technical question about %s or %s. Make it specific to %s work.", skill(p, 2), skill(p, 3), p.Name)
	default:
		return fmt.Sprintf("Ask a behavioral question: \"Tell me about a time when...\" or \"How would you handle...\". Focus on real scenarios a %s faces.", p.Name)
	}
}

// QA is one interviewer question with the candidate's reply.
type QA struct {
	Question string
	Answer   string
}

// PairTurns groups the transcript into consecutive (question, answer) pairs.
// A trailing turn without a partner is dropped.
func PairTurns(history []model.Turn) []QA {
	pairs := make([]QA, 0, len(history)/2)
	for i := 0; i+1 < len(history); i += 2 {
		pairs = append(pairs, QA{
			Question: history[i].Content,
			Answer:   history[i+1].Content,
		})
	}
	return pairs
}

// Recent returns the last n turns of history.
func Recent(history []model.Turn, n int) []model.Turn {
	if n <= 0 {
		return nil
	}
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// Opening builds the prompt for the first question.
func Opening(p profession.Profile) (Pair, error) {
	return render("opening", struct {
		Profile profession.Profile
	}{Profile: p})
}

// Next builds the prompt for question number questionNumber.
func Next(p profession.Profile, history []model.Turn, questionNumber int) (Pair, error) {
	stage := StageFor(questionNumber)
	return render("next", struct {
		Profile        profession.Profile
		Stage          Stage
		Guidance       string
		QuestionNumber int
		MaxQuestions   int
		Recent         []model.Turn
	}{
		Profile:        p,
		Stage:          stage,
		Guidance:       Guidance(p, stage),
		QuestionNumber: questionNumber,
		MaxQuestions:   model.MaxQuestions,
		Recent:         Recent(history, RecentTurns),
	})
}

// Evaluation builds the prompt asking for the final JSON evaluation.
func Evaluation(p profession.Profile, history []model.Turn) (Pair, error) {
	return render("evaluation", struct {
		Profile profession.Profile
		Pairs   []QA
	}{
		Profile: p,
		Pairs:   PairTurns(history),
	})
}

func render(name string, data any) (Pair, error) {
	system, err := execute(name+".system", data)
	if err != nil {
		return Pair{}, err
	}
	user, err := execute(name+".user", data)
	if err != nil {
		return Pair{}, err
	}
	return Pair{System: system, User: user}, nil
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func speaker(role model.Role) string {
	if role == model.RoleCandidate {
		return "CANDIDATE"
	}
	return "INTERVIEWER"
}

func skill(p profession.Profile, i int) string {
	if i < len(p.Skills) {
		return p.Skills[i]
	}
	return p.Name
}
