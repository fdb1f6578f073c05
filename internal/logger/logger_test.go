package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/samvad-hq/dbl-go/internal/config"
)

func TestInitToWritesJSON(t *testing.T) {
	t.Cleanup(func() { S = nil })

	var buf bytes.Buffer
	if _, err := InitTo(&config.Config{AppName: "dbl-test", Env: "test", LogLevel: "debug"}, &buf); err != nil {
		t.Fatalf("InitTo: %v", err)
	}
	Default().DebugObj("vote received", "vote", map[string]any{"bot": "1"})

	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %q", line)
	}
	if entry["msg"] != "vote received" || entry["app"] != "dbl-test" {
		t.Fatalf("unexpected entry: %#v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("missing ts field: %#v", entry)
	}
	if vote, ok := entry["vote"].(map[string]any); !ok || vote["bot"] != "1" {
		t.Fatalf("vote field = %#v", entry["vote"])
	}
}

func TestLevelFiltering(t *testing.T) {
	t.Cleanup(func() { S = nil })

	var buf bytes.Buffer
	if _, err := InitTo(&config.Config{LogLevel: "warn"}, &buf); err != nil {
		t.Fatalf("InitTo: %v", err)
	}
	InfoObj("dropped", "k", 1)
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level: %s", buf.String())
	}
	WarnObj("kept", "k", 1)
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("warn entry missing: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARNING": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDefaultBeforeInitIsNop(t *testing.T) {
	S = nil
	if _, ok := Default().(NopLogger); !ok {
		t.Fatalf("expected NopLogger before Init")
	}
	ErrorObj("ignored", "k", nil)
}
