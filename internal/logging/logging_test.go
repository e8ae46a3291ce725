package logging

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecorderKeepsWarningsAndAbove(t *testing.T) {
	rec := NewRecorder(LevelWarn)
	log := Tee(Nop(), rec.Sink())

	log.Debug("debug %d", 1)
	log.Info("info")
	log.Warn("skipped row %d: %s", 4, "blank")
	log.Error("boom")

	lines := rec.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %v", len(lines), lines)
	}
	if lines[0] != "skipped row 4: blank" {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if lines[1] != "boom" {
		t.Fatalf("unexpected second line %q", lines[1])
	}
}

func TestTeeForwardsToZap(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := Tee(FromZap(zap.New(core)), nil)

	log.Info("processed %s", "a.pdf")
	log.Warn("careful")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "processed a.pdf" {
		t.Fatalf("unexpected message %q", entries[0].Message)
	}
	if entries[1].Level != zap.WarnLevel {
		t.Fatalf("expected warn level, got %s", entries[1].Level)
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(Config{Level: "debug", Format: "json", OutputPath: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.With("component", "test").Info("hello %s", "world")
	_ = l.Sync()
}

func TestNewFallsBackToInfoOnBadLevel(t *testing.T) {
	l, err := New(Config{Level: "loud"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.Zap().Core().Enabled(zap.DebugLevel) {
		t.Fatalf("debug should be disabled at default level")
	}
}
