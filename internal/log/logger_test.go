package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":      slog.LevelInfo,
		"DEBUG": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentEngine, Output: &buf})
	l.WithComponent(ComponentSink).WarnContext(context.Background(), "Skipped file",
		NewFields().WithFile("a.csv").WithError(errors.New("boom")).ToSlice()...)

	out := buf.String()
	for _, want := range []string{"component=sink", "file=a.csv", "error=boom", "Skipped file"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}

func TestFromContext(t *testing.T) {
	l := New(Config{Component: ComponentSource, Output: &bytes.Buffer{}})
	if got := FromContext(NewContext(context.Background(), l)); got != l {
		t.Fatal("expected stored logger")
	}
	if got := FromContext(context.Background()); got.Component() != ComponentApp {
		t.Fatalf("unexpected fallback component %q", got.Component())
	}
}
