package logger

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_NilConfig(t *testing.T) {
	l, err := New(nil)
	if err != nil {
		t.Fatalf("New(nil) failed: %v", err)
	}
	if l == nil {
		t.Fatal("New(nil) returned nil logger")
	}
	l.Info("test")
}

func TestNew_Config(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{"partial", &Config{Level: "info", Encoding: "json"}, false},
		{"empty level", &Config{Encoding: "json"}, false},
		{"upper case level", &Config{Level: "DEBUG", Encoding: "console"}, false},
		{"named", &Config{Level: "info", Name: "seatsync"}, false},
		{"invalid level", &Config{Level: "verbose", Encoding: "json"}, true},
		{"invalid encoding", &Config{Level: "info", Encoding: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_InvalidEncodingListsChoices(t *testing.T) {
	err := (&Config{Level: "info", Encoding: "xml"}).Validate()
	if err == nil {
		t.Fatal("Validate() accepted encoding xml")
	}
	if !strings.Contains(err.Error(), "json, console") {
		t.Errorf("error = %q, want the supported encodings listed", err)
	}
}

func TestConfig_MergeDefaults(t *testing.T) {
	cfg := (&Config{Level: "warn"}).MergeDefaults()
	if cfg.Level != "warn" {
		t.Errorf("expected level to be kept, got %q", cfg.Level)
	}
	if cfg.Encoding != "json" || len(cfg.OutputPaths) != 1 || len(cfg.ErrorOutputPaths) != 1 {
		t.Errorf("defaults not merged: %+v", cfg)
	}
}

func TestLogger_InterfaceSatisfiedByZap(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	var l Logger = zap.New(core)

	l.Debug("fetch started", zap.String("event_id", "evt-1"))
	l.Warn("rate limited", zap.String("event_id", "evt-1"))

	entries := recorded.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].Level != zapcore.WarnLevel {
		t.Errorf("expected warn level, got %v", entries[1].Level)
	}
	if got := entries[0].ContextMap()["event_id"]; got != "evt-1" {
		t.Errorf("expected event_id field, got %v", got)
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("discarded")
	_ = l.Sync()
}
