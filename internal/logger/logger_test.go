package logger

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  provider  ", Value: "  Gemini  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "provider" || fields[0].String != "Gemini" {
		t.Fatalf("unexpected provider field: %+v", fields[0])
	}
}

func TestWithCommonFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithCommonFields(zap.New(core), "gemini", "gemini-flash-latest").Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx[FieldProvider] != "gemini" {
		t.Fatalf("expected provider field to be gemini, got %q", ctx[FieldProvider])
	}
	if ctx[FieldModel] != "gemini-flash-latest" {
		t.Fatalf("unexpected model field: %q", ctx[FieldModel])
	}

	if WithCommonFields(nil, "gemini", "m") == nil {
		t.Fatal("expected fallback logger when nil provided")
	}
}

func TestWithInterviewSkipsEmptyValues(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithInterview(zap.New(core), "frontend", "").Info("test log")

	ctx := observed.All()[0].ContextMap()
	if ctx[FieldProfession] != "frontend" {
		t.Fatalf("unexpected profession field: %v", ctx[FieldProfession])
	}
	if _, ok := ctx[FieldRequestID]; ok {
		t.Fatal("expected empty request id to be omitted")
	}
}

func TestPreview(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{name: "non-positive limit", input: "hello world", limit: 0, expect: ""},
		{name: "shorter than limit", input: "hello", limit: 10, expect: "hello"},
		{name: "truncates", input: "hello world", limit: 5, expect: "hello..."},
		{name: "counts runes", input: "привет мир", limit: 6, expect: "привет..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Preview(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestNewWritesToConfiguredOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")

	l, err := New(Options{JSON: true, Debug: true, OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected debug level to be enabled")
	}
	l.Debug("hello")
	_ = l.Sync()
}

func TestRequestIDContext(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}

	ctx := ContextWithRequestID(context.Background(), "req-42")
	if got := RequestIDFromContext(ctx); got != "req-42" {
		t.Fatalf("unexpected request id: %q", got)
	}
}
