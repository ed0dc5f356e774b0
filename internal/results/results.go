// Package results paints a finished interview evaluation for the terminal.
package results

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/suhbatai/suhbat/internal/model"
)

// Tier classifies a score.
type Tier int

const (
	TierWeak Tier = iota
	TierFair
	TierStrong
)

// Tier colours.
const (
	ColorStrong = "#10b981"
	ColorFair   = "#f59e0b"
	ColorWeak   = "#ef4444"
)

// TierFor maps a 1-10 score to its tier: 8 and above is strong, 6 and above
// is fair.
func TierFor(score float64) Tier {
	switch {
	case score >= 8:
		return TierStrong
	case score >= 6:
		return TierFair
	default:
		return TierWeak
	}
}

// Color returns the hex colour of the tier.
func (t Tier) Color() string {
	switch t {
	case TierStrong:
		return ColorStrong
	case TierFair:
		return ColorFair
	default:
		return ColorWeak
	}
}

func (t Tier) String() string {
	switch t {
	case TierStrong:
		return "strong"
	case TierFair:
		return "fair"
	default:
		return "weak"
	}
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	sectionStyle = lipgloss.NewStyle().Bold(true).MarginTop(1)
	skillStyle   = lipgloss.NewStyle().Width(24)
	scoreStyle   = lipgloss.NewStyle().Bold(true)
	bulletStyle  = lipgloss.NewStyle().PaddingLeft(2)
)

// Render writes the evaluation report for professionName to w. Missing
// sections are skipped.
func Render(w io.Writer, professionName string, ev *model.Evaluation) error {
	if ev == nil {
		return fmt.Errorf("no evaluation to render")
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(professionName+" Interview Results") + "\n\n")

	score := FormatScore(ev.AverageScore)
	b.WriteString("Average score: ")
	b.WriteString(scoreStyle.Foreground(lipgloss.Color(TierFor(ev.AverageScore).Color())).Render(score))
	b.WriteString("\n")

	if ev.SkillRatings != nil {
		b.WriteString(sectionStyle.Render("Skill ratings") + "\n")
		for _, skill := range skillOrder(ev.SkillRatings) {
			rating := ev.SkillRatings[skill]
			b.WriteString(bulletStyle.Render(skillStyle.Render(skill)))
			b.WriteString(scoreStyle.Render(FormatScore(rating)))
			b.WriteString("\n")
		}
	}

	writeList(&b, "Strengths", ev.Strengths, lipgloss.NewStyle().Foreground(lipgloss.Color(ColorStrong)))
	writeList(&b, "Areas to improve", ev.WeakPoints, lipgloss.NewStyle().Foreground(lipgloss.Color(ColorFair)))
	writeList(&b, "Recommendations", ev.Recommendations, lipgloss.NewStyle())

	_, err := io.WriteString(w, b.String())
	return err
}

// FormatScore renders a score as "7.5/10", using the shortest decimal form.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64) + "/10"
}

func writeList(b *strings.Builder, title string, items []string, style lipgloss.Style) {
	if items == nil {
		return
	}

	b.WriteString(sectionStyle.Render(title) + "\n")
	for _, item := range items {
		b.WriteString(bulletStyle.Render("• "+style.Render(item)) + "\n")
	}
}

// skillOrder lists the known skill labels first, in the order they are
// requested from the model, followed by any other labels sorted by name.
func skillOrder(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for _, label := range model.SkillLabels {
		if _, ok := m[label]; ok {
			keys = append(keys, label)
		}
	}

	extra := make([]string, 0, len(m)-len(keys))
	for k := range m {
		if !slices.Contains(model.SkillLabels, k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)

	return append(keys, extra...)
}
