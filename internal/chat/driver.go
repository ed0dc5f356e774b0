// Package chat drives one interview from the client side: it asks the server
// for questions, collects answers and requests the final evaluation.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/suhbatai/suhbat/internal/model"
)

// Messages shown to the candidate.
const (
	MsgStartFailed    = "Sorry, there was an error starting the interview. Please try again later."
	MsgNextFailed     = "Sorry, there was an error. Please try again."
	MsgEvaluateFailed = "There was an error evaluating your interview. Please try again."
	MsgEvaluating     = "Thank you for completing the interview! Evaluating your responses..."
	MsgOpeningDefault = "Hello! Let's start your interview. Tell me about yourself."
	MsgElaborate      = "Could you elaborate on that?"
)

// ErrInterrupted is returned when the candidate closes the input before the
// interview is complete.
var ErrInterrupted = errors.New("interview interrupted")

// State is a step of the interview flow.
type State int

const (
	StateStarting State = iota
	StateAwaitingAnswer
	StateAsking
	StateEvaluating
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateAwaitingAnswer:
		return "awaiting-answer"
	case StateAsking:
		return "asking"
	case StateEvaluating:
		return "evaluating"
	case StateComplete:
		return "complete"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// API is the server side of the interview.
type API interface {
	Start(ctx context.Context, professionID string) (string, error)
	Next(ctx context.Context, professionID string, history []model.Turn, questionNumber int) (string, error)
	Evaluate(ctx context.Context, professionID string, history []model.Turn) (*model.Evaluation, error)
}

// UI presents the conversation. ReadAnswer returns io.EOF when the candidate
// leaves.
type UI interface {
	ShowQuestion(text string)
	ShowNotice(text string)
	ShowError(text string)
	SetBusy(busy bool)
	ReadAnswer(ctx context.Context) (string, error)
}

// Driver runs a single interview. It is not safe for concurrent use; exactly
// one request is in flight at a time.
type Driver struct {
	api        API
	ui         UI
	profession string
	logger     *zap.Logger

	state    State
	answered int
	history  []model.Turn
}

func NewDriver(api API, ui UI, professionID string, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}

	return &Driver{
		api:        api,
		ui:         ui,
		profession: professionID,
		logger:     log.With(zap.String("profession", professionID)),
		state:      StateStarting,
	}
}

// State reports the current step.
func (d *Driver) State() State {
	return d.state
}

// History returns a copy of the conversation so far.
func (d *Driver) History() []model.Turn {
	out := make([]model.Turn, len(d.history))
	copy(out, d.history)
	return out
}

// Run executes the interview until an evaluation is received. Start and next
// question failures are shown to the candidate and the interview continues
// with a placeholder question. An evaluation failure ends the run with an
// error.
func (d *Driver) Run(ctx context.Context) (*model.Evaluation, error) {
	for {
		switch d.state {
		case StateStarting:
			d.start(ctx)
			d.transition(StateAwaitingAnswer)

		case StateAwaitingAnswer:
			if err := d.awaitAnswer(ctx); err != nil {
				return nil, err
			}

		case StateAsking:
			d.ask(ctx)
			d.transition(StateAwaitingAnswer)

		case StateEvaluating:
			result, err := d.evaluate(ctx)
			if err != nil {
				return nil, err
			}
			d.transition(StateComplete)
			return result, nil

		default:
			return nil, fmt.Errorf("interview already finished (%s)", d.state)
		}
	}
}

func (d *Driver) start(ctx context.Context) {
	question, err := d.call(func() (string, error) {
		return d.api.Start(ctx, d.profession)
	})
	if err != nil {
		d.logger.Debug("start failed", zap.Error(err))
		d.ui.ShowError(MsgStartFailed)
		question = ""
	}

	d.askQuestion(question, MsgOpeningDefault)
}

func (d *Driver) awaitAnswer(ctx context.Context) error {
	answer, err := d.ui.ReadAnswer(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ErrInterrupted
		}
		return fmt.Errorf("read answer: %w", err)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil
	}

	d.history = append(d.history, model.Turn{Role: model.RoleCandidate, Content: answer})
	d.answered++

	if d.answered >= model.MaxQuestions {
		d.transition(StateEvaluating)
		return nil
	}

	d.transition(StateAsking)
	return nil
}

func (d *Driver) ask(ctx context.Context) {
	history := d.History()
	question, err := d.call(func() (string, error) {
		return d.api.Next(ctx, d.profession, history, d.answered+1)
	})
	if err != nil {
		d.logger.Debug("next question failed", zap.Int("question_number", d.answered+1), zap.Error(err))
		d.ui.ShowError(MsgNextFailed)
		question = ""
	}

	d.askQuestion(question, MsgElaborate)
}

func (d *Driver) evaluate(ctx context.Context) (*model.Evaluation, error) {
	d.ui.ShowNotice(MsgEvaluating)

	d.ui.SetBusy(true)
	result, err := d.api.Evaluate(ctx, d.profession, d.History())
	d.ui.SetBusy(false)

	if err == nil && result == nil {
		err = errors.New("empty evaluation")
	}
	if err != nil {
		d.ui.ShowError(MsgEvaluateFailed)
		return nil, fmt.Errorf("evaluate interview: %w", err)
	}

	return result, nil
}

// askQuestion shows question and records it. An empty question is replaced by
// placeholder so the history keeps alternating between interviewer and
// candidate.
func (d *Driver) askQuestion(question, placeholder string) {
	question = strings.TrimSpace(question)
	if question == "" {
		question = placeholder
	}

	d.ui.ShowQuestion(question)
	d.history = append(d.history, model.Turn{Role: model.RoleInterviewer, Content: question})
}

func (d *Driver) call(fn func() (string, error)) (string, error) {
	d.ui.SetBusy(true)
	defer d.ui.SetBusy(false)
	return fn()
}

func (d *Driver) transition(next State) {
	d.logger.Debug("chat state changed",
		zap.Stringer("from", d.state),
		zap.Stringer("to", next),
		zap.Int("answered", d.answered),
	)
	d.state = next
}
