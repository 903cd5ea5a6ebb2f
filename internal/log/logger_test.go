package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	return m
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Format: "json", Component: ComponentStorage, Output: &buf})

	l.Info("hello", "k", "v")
	m := decodeLine(t, &buf)
	if m[FieldComponent] != ComponentStorage || m["k"] != "v" {
		t.Errorf("unexpected record: %v", m)
	}

	buf.Reset()
	l.WithComponent(ComponentAMQP).Debug("x")
	if m := decodeLine(t, &buf); m[FieldComponent] != ComponentAMQP {
		t.Errorf("component = %v", m[FieldComponent])
	}
}

func TestStructuredLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf}))
	r := httptest.NewRequest("GET", "/api/expenses?page=2", nil)

	sl.LogHTTPEnd(context.Background(), r, 404, 3, "10.0.0.1")
	m := decodeLine(t, &buf)
	if m["level"] != "WARN" || m[FieldPath] != "/api/expenses" || m[FieldSuccess] != false {
		t.Errorf("unexpected record: %v", m)
	}

	buf.Reset()
	sl.LogError(context.Background(), "boom", errors.New("db down"), ComponentStorage, OpList, nil)
	m = decodeLine(t, &buf)
	if m["level"] != "ERROR" || m[FieldError] != "db down" || m[FieldOperation] != OpList {
		t.Errorf("unexpected record: %v", m)
	}
}

func TestFromContextFallback(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Fatalf("unexpected fallback logger: %+v", l)
	}
	want := New(DefaultConfig())
	if got := FromContext(NewContext(context.Background(), want)); got != want {
		t.Error("expected stored logger")
	}
}
