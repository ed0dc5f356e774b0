package chat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/suhbatai/suhbat/internal/model"
)

type nextCall struct {
	questionNumber int
	history        []model.Turn
}

type fakeAPI struct {
	startQuestion string
	startErr      error
	nextErr       error
	nextEmpty     bool
	evalErr       error

	starts    int
	nexts     []nextCall
	evaluated [][]model.Turn
}

func (f *fakeAPI) Start(context.Context, string) (string, error) {
	f.starts++
	return f.startQuestion, f.startErr
}

func (f *fakeAPI) Next(_ context.Context, _ string, history []model.Turn, questionNumber int) (string, error) {
	f.nexts = append(f.nexts, nextCall{questionNumber: questionNumber, history: history})
	if f.nextErr != nil {
		return "", f.nextErr
	}
	if f.nextEmpty {
		return "", nil
	}
	return fmt.Sprintf("Question %d?", questionNumber), nil
}

func (f *fakeAPI) Evaluate(_ context.Context, _ string, history []model.Turn) (*model.Evaluation, error) {
	f.evaluated = append(f.evaluated, history)
	if f.evalErr != nil {
		return nil, f.evalErr
	}
	return &model.Evaluation{AverageScore: 8.5}, nil
}

type fakeUI struct {
	answers   []string
	questions []string
	notices   []string
	errors    []string
	busy      bool
	busyCalls int
	// readWhileBusy is set when an answer is requested during a request.
	readWhileBusy bool
}

func (f *fakeUI) ShowQuestion(text string) { f.questions = append(f.questions, text) }
func (f *fakeUI) ShowNotice(text string)   { f.notices = append(f.notices, text) }
func (f *fakeUI) ShowError(text string)    { f.errors = append(f.errors, text) }

func (f *fakeUI) SetBusy(busy bool) {
	f.busy = busy
	if busy {
		f.busyCalls++
	}
}

func (f *fakeUI) ReadAnswer(context.Context) (string, error) {
	if f.busy {
		f.readWhileBusy = true
	}
	if len(f.answers) == 0 {
		return "", io.EOF
	}
	answer := f.answers[0]
	f.answers = f.answers[1:]
	return answer, nil
}

// assertAlternates checks that history starts with the interviewer and
// alternates roles.
func assertAlternates(t *testing.T, history []model.Turn) {
	t.Helper()

	for i, turn := range history {
		expected := model.RoleInterviewer
		if i%2 == 1 {
			expected = model.RoleCandidate
		}
		if turn.Role != expected {
			t.Fatalf("turn %d: expected %s, got %s in %+v", i, expected, turn.Role, history)
		}
	}
}

func answers(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("answer %d", i+1)
	}
	return out
}

func TestDriverRunsFullInterview(t *testing.T) {
	api := &fakeAPI{startQuestion: "Question 1?"}
	ui := &fakeUI{answers: answers(model.MaxQuestions)}

	d := NewDriver(api, ui, "frontend", zap.NewNop())
	result, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.AverageScore != 8.5 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if d.State() != StateComplete {
		t.Fatalf("expected complete state, got %s", d.State())
	}

	if api.starts != 1 {
		t.Fatalf("expected one start call, got %d", api.starts)
	}
	if len(api.nexts) != model.MaxQuestions-1 {
		t.Fatalf("expected %d next calls, got %d", model.MaxQuestions-1, len(api.nexts))
	}
	for i, call := range api.nexts {
		if call.questionNumber != i+2 {
			t.Fatalf("call %d: expected question number %d, got %d", i, i+2, call.questionNumber)
		}
		if len(call.history) != 2*(i+1) {
			t.Fatalf("call %d: expected %d turns, got %d", i, 2*(i+1), len(call.history))
		}
	}

	if len(api.evaluated) != 1 {
		t.Fatalf("expected one evaluation, got %d", len(api.evaluated))
	}
	history := api.evaluated[0]
	if len(history) != 2*model.MaxQuestions {
		t.Fatalf("expected %d turns, got %d", 2*model.MaxQuestions, len(history))
	}
	assertAlternates(t, history)

	if len(ui.questions) != model.MaxQuestions {
		t.Fatalf("expected %d questions shown, got %d", model.MaxQuestions, len(ui.questions))
	}
	if len(ui.notices) != 1 || ui.notices[0] != MsgEvaluating {
		t.Fatalf("expected evaluating notice, got %q", ui.notices)
	}
	if ui.busyCalls != 1+(model.MaxQuestions-1)+1 {
		t.Fatalf("expected every request to mark the UI busy, got %d", ui.busyCalls)
	}
	if ui.readWhileBusy || ui.busy {
		t.Fatal("input must not be read while a request is in flight")
	}
}

func TestDriverIgnoresEmptyAnswers(t *testing.T) {
	api := &fakeAPI{startQuestion: "Question 1?"}
	ui := &fakeUI{answers: append([]string{"", "   ", "\t"}, answers(model.MaxQuestions)...)}

	d := NewDriver(api, ui, "backend", nil)
	if _, err := d.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(api.nexts) != model.MaxQuestions-1 {
		t.Fatalf("empty answers must not count, got %d next calls", len(api.nexts))
	}
	if api.nexts[0].history[1].Content != "answer 1" {
		t.Fatalf("unexpected first answer: %+v", api.nexts[0].history[1])
	}
}

func TestDriverStartFailureIsRecoverable(t *testing.T) {
	api := &fakeAPI{startErr: errors.New("500")}
	ui := &fakeUI{answers: answers(model.MaxQuestions)}

	d := NewDriver(api, ui, "designer", nil)
	if _, err := d.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ui.errors) != 1 || ui.errors[0] != MsgStartFailed {
		t.Fatalf("expected start error message, got %q", ui.errors)
	}
	if ui.questions[0] != MsgOpeningDefault {
		t.Fatalf("expected the opening placeholder, got %q", ui.questions)
	}

	first := api.nexts[0].history
	if len(first) != 2 || first[0].Content != MsgOpeningDefault || first[1].Content != "answer 1" {
		t.Fatalf("expected the first answer to follow the placeholder, got %+v", first)
	}
	assertAlternates(t, api.evaluated[0])
}

func TestDriverNextFailureKeepsCounting(t *testing.T) {
	api := &fakeAPI{startQuestion: "Question 1?", nextErr: errors.New("overloaded")}
	ui := &fakeUI{answers: answers(model.MaxQuestions)}

	d := NewDriver(api, ui, "data-scientist", nil)
	if _, err := d.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ui.errors) != model.MaxQuestions-1 {
		t.Fatalf("expected an error per failed question, got %d", len(ui.errors))
	}
	for _, msg := range ui.errors {
		if msg != MsgNextFailed {
			t.Fatalf("unexpected error message: %q", msg)
		}
	}
	if api.nexts[len(api.nexts)-1].questionNumber != model.MaxQuestions {
		t.Fatalf("expected the counter to advance despite failures")
	}
	if len(api.evaluated) != 1 {
		t.Fatal("expected evaluation after the last answer")
	}

	history := api.evaluated[0]
	if len(history) != 2*model.MaxQuestions {
		t.Fatalf("expected %d turns, got %d", 2*model.MaxQuestions, len(history))
	}
	assertAlternates(t, history)
	if history[2].Content != MsgElaborate {
		t.Fatalf("expected the placeholder in place of the failed question, got %+v", history[2])
	}
}

func TestDriverEmptyQuestionUsesPlaceholder(t *testing.T) {
	api := &fakeAPI{nextEmpty: true}
	ui := &fakeUI{answers: answers(2)}

	d := NewDriver(api, ui, "frontend", nil)
	_, err := d.Run(context.Background())
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}

	if ui.questions[0] != MsgOpeningDefault || ui.questions[1] != MsgElaborate {
		t.Fatalf("unexpected placeholders: %q", ui.questions)
	}

	history := d.History()
	assertAlternates(t, history)
	if len(history) != 5 || history[0].Content != MsgOpeningDefault || history[2].Content != MsgElaborate {
		t.Fatalf("expected placeholders to be recorded as questions: %+v", history)
	}
}

func TestDriverEvaluationFailure(t *testing.T) {
	api := &fakeAPI{startQuestion: "Question 1?", evalErr: errors.New("connection refused")}
	ui := &fakeUI{answers: answers(model.MaxQuestions)}

	d := NewDriver(api, ui, "marketing-manager", nil)
	_, err := d.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected evaluation error, got %v", err)
	}

	if ui.errors[len(ui.errors)-1] != MsgEvaluateFailed {
		t.Fatalf("expected evaluation error message, got %q", ui.errors)
	}
	if d.State() != StateEvaluating {
		t.Fatalf("expected to stay in evaluating state, got %s", d.State())
	}
}

func TestDriverInterruptedByInputClose(t *testing.T) {
	api := &fakeAPI{startQuestion: "Question 1?"}
	ui := &fakeUI{answers: answers(3)}

	d := NewDriver(api, ui, "frontend", nil)
	_, err := d.Run(context.Background())
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
	if len(api.evaluated) != 0 {
		t.Fatal("an interrupted interview must not be evaluated")
	}
	if d.State() != StateAwaitingAnswer {
		t.Fatalf("unexpected state: %s", d.State())
	}
}

func TestTerminalOutput(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(io.NopCloser(strings.NewReader("")), &out)

	term.Header("Frontend Developer")
	term.ShowQuestion("Why React?")
	term.SetBusy(true)
	term.SetBusy(true)
	term.SetBusy(false)
	term.ShowError(MsgNextFailed)

	got := out.String()
	for _, want := range []string{"Frontend Developer Interview", "Interviewer:", "Why React?", thinking, MsgNextFailed} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in output:\n%s", want, got)
		}
	}
	if strings.Count(got, thinking) != 1 {
		t.Fatalf("expected a single thinking line, got:\n%s", got)
	}
}

func TestTerminalReadAnswerHonoursContext(t *testing.T) {
	term := NewTerminal(io.NopCloser(strings.NewReader("")), io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := term.ReadAnswer(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
