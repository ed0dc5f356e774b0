package evaluation

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/suhbatai/suhbat/internal/model"
)

func sampleEvaluation() *model.Evaluation {
	return &model.Evaluation{
		AverageScore: 8.5,
		SkillRatings: map[string]float64{
			"Communication":       9,
			"Structure":           8,
			"Confidence":          8.5,
			"Technical Knowledge": 7,
		},
		Strengths:       []string{"Explained React hooks clearly", "Gave concrete project examples", "Structured answers well"},
		WeakPoints:      []string{"Light on testing strategy", "Skipped accessibility", "Short behavioral answers"},
		Recommendations: []string{"Practice STAR answers", "Read about web vitals", "Prepare a testing story"},
	}
}

func TestParseRecoversObjectFromFencesAndNoise(t *testing.T) {
	expected := sampleEvaluation()

	payload, err := json.MarshalIndent(expected, "", "  ")
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	raw := "Sure! Here is the evaluation you asked for:\n```json\n" + string(payload) + "\n```\nLet me know if you need anything else."

	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(got.Evaluation, expected) {
		t.Fatalf("round trip mismatch:\nexpected %+v\ngot      %+v", expected, got.Evaluation)
	}
	if len(got.Violations) != 0 {
		t.Fatalf("expected no violations, got %q", got.Violations)
	}
}

func TestParseHandlesPlainJSON(t *testing.T) {
	raw := `{"averageScore": 6, "skillRatings": {"Communication": 6}, "strengths": ["  Calm  ", ""], "weakPoints": [], "recommendations": ["Practice"]}`

	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Evaluation.AverageScore != 6 {
		t.Fatalf("unexpected score: %v", got.Evaluation.AverageScore)
	}
	if len(got.Evaluation.Strengths) != 1 || got.Evaluation.Strengths[0] != "Calm" {
		t.Fatalf("expected list items to be trimmed, got %q", got.Evaluation.Strengths)
	}
}

func TestParseSkipsBracesInLeadingProse(t *testing.T) {
	payload, _ := json.Marshal(sampleEvaluation())
	raw := "Format {as requested}: " + string(payload) + " trailing } brace"

	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Evaluation.AverageScore != 8.5 {
		t.Fatalf("unexpected score: %v", got.Evaluation.AverageScore)
	}
}

func TestParseKeepsEvaluationOutsideSchema(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       string
		check     func(t *testing.T, ev *model.Evaluation)
		violation string
	}{
		{
			name: "missing recommendations",
			raw:  `{"averageScore": 8.5, "skillRatings": {"Communication": 9}, "strengths": ["a"], "weakPoints": ["b"]}`,
			check: func(t *testing.T, ev *model.Evaluation) {
				if ev.AverageScore != 8.5 || ev.SkillRatings["Communication"] != 9 {
					t.Fatalf("expected the model scores to be kept, got %+v", ev)
				}
				if ev.Recommendations != nil {
					t.Fatalf("expected no recommendations, got %q", ev.Recommendations)
				}
			},
			violation: "recommendations",
		},
		{
			name: "score below range",
			raw:  `{"averageScore": 0, "skillRatings": {}, "strengths": [], "weakPoints": [], "recommendations": []}`,
			check: func(t *testing.T, ev *model.Evaluation) {
				if ev.AverageScore != 0 {
					t.Fatalf("expected the score to be kept, got %v", ev.AverageScore)
				}
			},
			violation: "averageScore",
		},
		{
			name: "score as string",
			raw:  `{"averageScore": "7.5", "skillRatings": {"Structure": "8"}, "strengths": [], "weakPoints": [], "recommendations": []}`,
			check: func(t *testing.T, ev *model.Evaluation) {
				if ev.AverageScore != 7.5 || ev.SkillRatings["Structure"] != 8 {
					t.Fatalf("expected converted scores, got %+v", ev)
				}
			},
			violation: "averageScore",
		},
		{
			name: "only a score",
			raw:  `{"averageScore": 7}`,
			check: func(t *testing.T, ev *model.Evaluation) {
				if ev.SkillRatings != nil || ev.Strengths != nil || ev.WeakPoints != nil {
					t.Fatalf("expected missing sections to stay nil, got %+v", ev)
				}
			},
			violation: "skillRatings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, got.Evaluation)

			if !strings.Contains(strings.Join(got.Violations, "; "), tt.violation) {
				t.Fatalf("expected a violation about %s, got %q", tt.violation, got.Violations)
			}
		})
	}
}

func TestParseRejectsMalformedOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "prose only", raw: "I am unable to evaluate this interview."},
		{name: "broken json", raw: "```json\n{\"averageScore\": 7,\n```"},
		{name: "score not a number", raw: `{"averageScore": "high", "skillRatings": {}, "strengths": [], "weakPoints": [], "recommendations": []}`},
		{name: "rating not a number", raw: `{"averageScore": 7, "skillRatings": {"Communication": "great"}}`},
		{name: "ratings not an object", raw: `{"averageScore": 7, "skillRatings": "all good"}`},
		{name: "empty", raw: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(tt.raw)
			var malformed *MalformedResponseError
			if !errors.As(err, &malformed) {
				t.Fatalf("expected MalformedResponseError, got %v", err)
			}
			if malformed.Raw != tt.raw {
				t.Fatalf("expected raw response to be preserved")
			}
		})
	}
}

func TestClean(t *testing.T) {
	got := Clean("```json\n{\"a\": 1}\n```")
	if got != `{"a": 1}` {
		t.Fatalf("unexpected cleaned output: %q", got)
	}
}

func TestFallback(t *testing.T) {
	f := Fallback()

	if f.AverageScore != 7.0 {
		t.Fatalf("unexpected fallback score: %v", f.AverageScore)
	}

	for _, skill := range []string{"Communication", "Structure", "Confidence", "Technical Knowledge"} {
		if f.SkillRatings[skill] != 7 {
			t.Fatalf("expected %s to be rated 7, got %v", skill, f.SkillRatings[skill])
		}
	}
	if len(f.SkillRatings) != 4 {
		t.Fatalf("expected four skill ratings, got %d", len(f.SkillRatings))
	}

	if len(f.Strengths) != 3 || len(f.WeakPoints) != 3 || len(f.Recommendations) != 3 {
		t.Fatalf("expected three items per list: %+v", f)
	}
	if !strings.Contains(f.Recommendations[0], "STAR") {
		t.Fatalf("unexpected first recommendation: %q", f.Recommendations[0])
	}

	f.SkillRatings["Communication"] = 1
	if Fallback().SkillRatings["Communication"] != 7 {
		t.Fatal("expected Fallback to return a fresh copy")
	}
}
