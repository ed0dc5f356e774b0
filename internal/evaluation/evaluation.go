// Package evaluation turns raw model output into a structured interview
// evaluation.
package evaluation

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"

	"github.com/suhbatai/suhbat/internal/model"
)

//go:embed schema.json
var schemaJSON []byte

var (
	schema = mustSchema(schemaJSON)
	fences = regexp.MustCompile("```(?:json|JSON)?\\s*")

	errNoObject = errors.New("no JSON object found in response")
)

// MalformedResponseError is returned when the model output cannot be turned
// into an evaluation.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed evaluation response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// Result is a decoded evaluation together with the schema rules it breaks.
// Violations do not stop the evaluation from being used.
type Result struct {
	Evaluation *model.Evaluation
	Violations []string
}

// Parse extracts the first JSON object from raw and decodes it. Code fences
// and surrounding prose are ignored. Only output that holds no object, or
// whose fields cannot be converted to the evaluation types, is rejected.
func Parse(raw string) (*Result, error) {
	cleaned := Clean(raw)

	doc, err := firstObject(cleaned)
	if err != nil {
		return nil, &MalformedResponseError{Raw: raw, Err: err}
	}

	ev, err := decode(doc)
	if err != nil {
		return nil, &MalformedResponseError{Raw: raw, Err: err}
	}

	return &Result{Evaluation: ev, Violations: violations(doc)}, nil
}

// Clean removes markdown code fences and surrounding whitespace.
func Clean(raw string) string {
	return strings.TrimSpace(fences.ReplaceAllString(raw, ""))
}

// firstObject decodes the first complete JSON object in s. Braces in leading
// prose that do not open a valid object are skipped.
func firstObject(s string) (map[string]any, error) {
	offset := 0
	for {
		idx := strings.IndexByte(s[offset:], '{')
		if idx < 0 {
			return nil, errNoObject
		}
		start := offset + idx

		var doc map[string]any
		if err := json.NewDecoder(strings.NewReader(s[start:])).Decode(&doc); err == nil {
			return doc, nil
		} else if !strings.Contains(s[start+1:], "{") {
			return nil, fmt.Errorf("parse evaluation json: %w", err)
		}

		offset = start + 1
	}
}

func decode(doc map[string]any) (*model.Evaluation, error) {
	var out model.Evaluation

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return nil, fmt.Errorf("create evaluation decoder: %w", err)
	}

	if err := decoder.Decode(doc); err != nil {
		return nil, fmt.Errorf("decode evaluation: %w", err)
	}

	out.Strengths = tidy(out.Strengths)
	out.WeakPoints = tidy(out.WeakPoints)
	out.Recommendations = tidy(out.Recommendations)

	return &out, nil
}

// violations lists where doc departs from the evaluation schema: missing
// sections, scores outside 1-10 or values that needed conversion.
func violations(doc map[string]any) []string {
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return []string{fmt.Sprintf("validate evaluation: %v", err)}
	}

	if result.Valid() {
		return nil
	}

	out := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		out[i] = desc.String()
	}
	return out
}

func tidy(items []string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func mustSchema(data []byte) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		panic(fmt.Sprintf("compile evaluation schema: %v", err))
	}
	return s
}

// Fallback returns the neutral evaluation used when the model cannot produce
// one.
func Fallback() *model.Evaluation {
	return &model.Evaluation{
		AverageScore: 7.0,
		SkillRatings: fallbackRatings(),
		Strengths: []string{
			"Clear communication throughout the interview",
			"Demonstrated understanding of key concepts",
			"Maintained professional demeanor",
		},
		WeakPoints: []string{
			"Could provide more specific examples from experience",
			"Some answers would benefit from better structure",
			"Technical explanations could go deeper",
		},
		Recommendations: []string{
			"Use the STAR method for behavioral questions",
			"Prepare 3-5 concrete examples beforehand",
			"Practice explaining complex concepts simply",
		},
	}
}

func fallbackRatings() map[string]float64 {
	out := make(map[string]float64, len(model.SkillLabels))
	for _, label := range model.SkillLabels {
		out[label] = 7
	}
	return out
}
