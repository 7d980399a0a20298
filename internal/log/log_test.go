package log

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentLedger, Output: &buf})
	l.Info("built", FieldAccountID, "food")
	l.WithComponent(ComponentWorker).Debug("tick")

	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "account_id=food") {
		t.Fatalf("missing fields in %q", out)
	}
	if !strings.Contains(out, "component=worker") {
		t.Fatalf("WithComponent not applied: %q", out)
	}
}

func TestForUsesDefaultHandler(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetDefault(New(Config{Level: slog.LevelInfo, Output: &buf}))
	For(ComponentStorage).Info("saved", FieldAmountCents, 1250)

	out := buf.String()
	if !strings.Contains(out, "component=storage") || !strings.Contains(out, "amount_cents=1250") {
		t.Fatalf("missing fields in %q", out)
	}
}

func TestLogFields(t *testing.T) {
	got := NewFields().
		WithOperation(OpImport).
		WithImport(3, 1).
		WithAccount("food", "").
		WithError(errors.New("boom")).
		ToSlice()
	want := []any{FieldAccountID, "food", FieldError, "boom", FieldImported, 3, FieldOperation, OpImport, FieldSkipped, 1}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pair %d: got %v, want %v", i, got[i], want[i])
		}
	}
}
