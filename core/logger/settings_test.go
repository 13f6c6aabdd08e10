package logger

import (
	"log/slog"
	"path/filepath"
	"slices"
	"testing"

	coreconfig "github.com/m3rciful/cardbot/core/config"
)

func TestSettingsDefaults(t *testing.T) {
	t.Setenv("TRACE", "")
	t.Setenv("LOG_TRACE", "")
	s := settingsFrom(nil)
	if s.level != slog.LevelInfo || s.format != formatJSON || s.profile != "prod" {
		t.Fatalf("unexpected defaults: %+v", s)
	}
	if s.sampleNum != 1 || s.sampleDen != 50 || s.trace || s.file != "" {
		t.Fatalf("unexpected defaults: %+v", s)
	}
	if !slices.Equal(s.keyOrder, defaultKeyOrder) {
		t.Fatal("default key order expected")
	}
}

func TestSettingsFromConfig(t *testing.T) {
	t.Setenv("LOG_TRACE", "on")
	dir := t.TempDir()
	s := settingsFrom(&coreconfig.Config{Logging: coreconfig.LoggingConfig{
		Level:       "debug",
		Profile:     "Dev",
		KeysOrder:   " ts, event ,, card ",
		DebugSample: "0",
		Dir:         dir,
		BotFile:     "bot.log",
	}})
	if s.level != slog.LevelDebug || s.format != formatKV || s.profile != "dev" {
		t.Fatalf("unexpected settings: %+v", s)
	}
	if !slices.Equal(s.keyOrder, []string{"ts", "event", "card"}) {
		t.Fatalf("key order = %v", s.keyOrder)
	}
	if s.sampleNum != 0 || s.sampleDen != 0 || !s.trace {
		t.Fatalf("sampling = %d/%d trace=%v", s.sampleNum, s.sampleDen, s.trace)
	}
	if s.file != filepath.Join(dir, "bot.log") {
		t.Fatalf("file = %s", s.file)
	}

	writers, closers := s.outputs()
	if len(writers) != 2 || len(closers) != 1 {
		t.Fatalf("outputs = %d writers, %d closers", len(writers), len(closers))
	}
	for _, c := range closers {
		_ = c.Close()
	}
}

func TestSettingsExplicitJSONOverridesProfile(t *testing.T) {
	s := settingsFrom(&coreconfig.Config{Logging: coreconfig.LoggingConfig{Format: "json", Profile: "debug", DebugSample: "1/0"}})
	if s.format != formatJSON {
		t.Fatal("explicit json format should win over debug profile")
	}
	if s.sampleNum != 1 || s.sampleDen != 50 {
		t.Fatalf("invalid ratio should keep the default, got %d/%d", s.sampleNum, s.sampleDen)
	}
}
