package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_WritesKeyValueFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelInfo, &buf).Named("test")

	logger.InfoContext(context.Background(), "profile created", "user_id", "u-1", "error", errors.New("boom"))

	var line map[string]any
	if err := sonic.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if line["msg"] != "profile created" {
		t.Fatalf("unexpected msg: %v", line["msg"])
	}
	if line["user_id"] != "u-1" {
		t.Fatalf("unexpected user_id: %v", line["user_id"])
	}
	if line["error"] != "boom" {
		t.Fatalf("unexpected error field: %v", line["error"])
	}
	if line["logger"] != "test" {
		t.Fatalf("unexpected logger name: %v", line["logger"])
	}
}

func TestLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelWarn, &buf)

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("expected info line to be filtered, got %s", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("expected warn line, got %s", out)
	}
}

func TestLogger_NilReceiverFallsBackToDefault(t *testing.T) {
	var logger *Logger
	logger.Info("no panic")
}

func TestLogger_TeeWritesToBothCores(t *testing.T) {
	var buf bytes.Buffer
	core, observed := observer.New(zapcore.WarnLevel)
	logger := New(LevelInfo, &buf).Tee(core)

	logger.Info("primary only")
	logger.Warn("both", "user_id", "u-1")

	if !strings.Contains(buf.String(), "primary only") || !strings.Contains(buf.String(), "both") {
		t.Fatalf("expected both lines in primary output, got %s", buf.String())
	}
	entries := observed.All()
	if len(entries) != 1 || entries[0].Message != "both" {
		t.Fatalf("unexpected teed entries: %+v", entries)
	}
	if entries[0].ContextMap()["user_id"] != "u-1" {
		t.Fatalf("expected user_id field on teed entry")
	}
}
