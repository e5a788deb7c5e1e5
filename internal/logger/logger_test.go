package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSetupRejectsUnknownLevel(t *testing.T) {
	if err := Setup(LogConfig{Level: "chatty"}); err == nil {
		t.Error("Setup accepted an unknown level")
	}
}

func TestSetupWritesJSONToFile(t *testing.T) {
	t.Cleanup(func() {
		_ = Setup(DefaultConfig())
	})

	path := filepath.Join(t.TempDir(), "invoicer.log")
	if err := Setup(LogConfig{Level: "info", Format: "json", Output: path}); err != nil {
		t.Fatal(err)
	}
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("GlobalLevel = %v", zerolog.GlobalLevel())
	}

	log := WithComponent("session")
	log.Info().Msg("hello")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"component":"session"`) {
		t.Errorf("log line = %s", data)
	}
}

func TestResolveTimeFormat(t *testing.T) {
	tests := map[string]string{
		"":           time.RFC3339,
		"RFC3339":    time.RFC3339,
		"unix":       zerolog.TimeFormatUnix,
		"UnixMs":     zerolog.TimeFormatUnixMs,
		"2006-01-02": "2006-01-02",
	}
	for name, want := range tests {
		if got := resolveTimeFormat(name); got != want {
			t.Errorf("resolveTimeFormat(%q) = %q, want %q", name, got, want)
		}
	}
}
