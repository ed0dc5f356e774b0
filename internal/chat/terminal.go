package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/manifoldco/promptui"
)

const thinking = "Thinking..."

var (
	interviewerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6366f1"))
	noticeStyle      = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#10b981"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
	busyStyle        = lipgloss.NewStyle().Faint(true)
	headerStyle      = lipgloss.NewStyle().Bold(true).Underline(true)
)

// Terminal is a UI on an interactive terminal.
type Terminal struct {
	in  io.ReadCloser
	out io.Writer
	// busy tracks whether the thinking line needs to be cleared.
	busy bool
}

// NewTerminal creates a Terminal on stdin/stdout when in or out are nil.
func NewTerminal(in io.ReadCloser, out io.Writer) *Terminal {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Terminal{in: in, out: out}
}

// Header prints the interview title.
func (t *Terminal) Header(professionName string) {
	fmt.Fprintln(t.out, headerStyle.Render(professionName+" Interview"))
	fmt.Fprintln(t.out)
}

func (t *Terminal) ShowQuestion(text string) {
	fmt.Fprintf(t.out, "%s %s\n\n", interviewerStyle.Render("Interviewer:"), text)
}

func (t *Terminal) ShowNotice(text string) {
	fmt.Fprintln(t.out, noticeStyle.Render(text))
}

func (t *Terminal) ShowError(text string) {
	fmt.Fprintln(t.out, errorStyle.Render(text))
}

// SetBusy prints a thinking line while a request is in flight and erases it
// afterwards. No input is read while busy.
func (t *Terminal) SetBusy(busy bool) {
	switch {
	case busy && !t.busy:
		fmt.Fprint(t.out, busyStyle.Render(thinking))
	case !busy && t.busy:
		fmt.Fprint(t.out, "\r\033[2K")
	}
	t.busy = busy
}

// ReadAnswer prompts for one answer. Ctrl+C and Ctrl+D end the interview.
func (t *Terminal) ReadAnswer(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	prompt := promptui.Prompt{
		Label:  "You",
		Stdin:  t.in,
		Stdout: nopWriteCloser{t.out},
	}

	answer, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return "", io.EOF
		}
		return "", err
	}

	fmt.Fprintln(t.out)
	return answer, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
