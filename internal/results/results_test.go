package results

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/suhbatai/suhbat/internal/model"
)

func TestTierFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score  float64
		tier   Tier
		colour string
	}{
		{score: 10, tier: TierStrong, colour: "#10b981"},
		{score: 8, tier: TierStrong, colour: "#10b981"},
		{score: 7.9, tier: TierFair, colour: "#f59e0b"},
		{score: 6, tier: TierFair, colour: "#f59e0b"},
		{score: 5.99, tier: TierWeak, colour: "#ef4444"},
		{score: 1, tier: TierWeak, colour: "#ef4444"},
	}

	for _, tt := range tests {
		got := TierFor(tt.score)
		if got != tt.tier {
			t.Fatalf("score %v: expected %s, got %s", tt.score, tt.tier, got)
		}
		if got.Color() != tt.colour {
			t.Fatalf("score %v: expected colour %s, got %s", tt.score, tt.colour, got.Color())
		}
	}
}

func TestFormatScore(t *testing.T) {
	for score, want := range map[float64]string{
		7:    "7/10",
		7.5:  "7.5/10",
		8.25: "8.25/10",
	} {
		if got := FormatScore(score); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}

func TestRenderFullEvaluation(t *testing.T) {
	ev := &model.Evaluation{
		AverageScore: 7.5,
		SkillRatings: map[string]float64{
			"Technical Knowledge": 8,
			"Communication":       7,
		},
		Strengths:       []string{"Clear answers"},
		WeakPoints:      []string{"Few examples"},
		Recommendations: []string{"Use STAR"},
	}

	var out bytes.Buffer
	if err := Render(&out, "Backend Developer", ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"Backend Developer Interview Results",
		"7.5/10",
		"Skill ratings",
		"Clear answers",
		"Few examples",
		"Use STAR",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in output:\n%s", want, got)
		}
	}

	if strings.Index(got, "Communication") > strings.Index(got, "Technical Knowledge") {
		t.Fatalf("expected skills in requested order:\n%s", got)
	}
}

func TestSkillOrder(t *testing.T) {
	ratings := map[string]float64{
		"Technical Knowledge": 7,
		"Python":              9,
		"Confidence":          6,
		"Communication":       8,
		"Empathy":             5,
		"Structure":           7,
	}

	got := skillOrder(ratings)
	want := []string{"Communication", "Structure", "Confidence", "Technical Knowledge", "Empathy", "Python"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}

	if got := skillOrder(map[string]float64{"Zeal": 1, "Confidence": 2}); !reflect.DeepEqual(got, []string{"Confidence", "Zeal"}) {
		t.Fatalf("unexpected order for partial ratings: %q", got)
	}
}

func TestRenderSkipsMissingSections(t *testing.T) {
	var out bytes.Buffer
	if err := Render(&out, "Designer", &model.Evaluation{AverageScore: 4}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "4/10") {
		t.Fatalf("expected score in output:\n%s", got)
	}
	for _, section := range []string{"Skill ratings", "Strengths", "Areas to improve", "Recommendations"} {
		if strings.Contains(got, section) {
			t.Fatalf("did not expect %q section:\n%s", section, got)
		}
	}
}

func TestRenderNilEvaluation(t *testing.T) {
	if err := Render(&bytes.Buffer{}, "Designer", nil); err == nil {
		t.Fatal("expected error for nil evaluation")
	}
}
