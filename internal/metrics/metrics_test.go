package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestEvaluationFallbacksCounter(t *testing.T) {
	before := testutil.ToFloat64(EvaluationFallbacks.WithLabelValues("malformed"))
	EvaluationFallbacks.WithLabelValues("malformed").Inc()

	if got := testutil.ToFloat64(EvaluationFallbacks.WithLabelValues("malformed")); got != before+1 {
		t.Fatalf("expected counter to grow by one, got %v -> %v", before, got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	ModelAttempts.WithLabelValues("gemini", OutcomeSuccess).Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "suhbat_model_attempts_total") {
		t.Fatalf("expected model attempts metric in exposition")
	}
}
