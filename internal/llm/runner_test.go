package llm

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRunnerCollectsOutput(t *testing.T) {
	// "echo run <model> <prompt>" prints its arguments, which is enough to
	// verify wiring without a real model CLI.
	r := NewRunner(Config{Command: "echo", Model: "test-model", Timeout: 5 * time.Second})

	res, err := r.Run(context.Background(), "summarize this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if !strings.Contains(res.Output, "summarize this") {
		t.Fatalf("expected prompt in output, got %q", res.Output)
	}
}

func TestRunnerTimeoutKillsProcess(t *testing.T) {
	script := filepath.Join(t.TempDir(), "slow-model.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nsleep 5\n"), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	r := NewRunner(Config{Command: script, Timeout: 100 * time.Millisecond})

	start := time.Now()
	res, err := r.Run(context.Background(), "ignored")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("process was not killed at the timeout")
	}
	if res.Success {
		t.Fatalf("expected failure result")
	}
	if !strings.Contains(res.Error, "timeout") {
		t.Fatalf("expected timeout error, got %q", res.Error)
	}
}

func TestRunnerMissingBinary(t *testing.T) {
	r := NewRunner(Config{Command: "definitely-not-a-binary-xyz", Timeout: time.Second})

	res, err := r.Run(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("missing binary must be a failure result, not an error: %v", err)
	}
	if res.Success {
		t.Fatalf("expected failure result")
	}
	if res.Code != 127 {
		t.Fatalf("expected code 127, got %d", res.Code)
	}
}

func TestRunnerEmptyPrompt(t *testing.T) {
	r := NewRunner(Config{Command: "echo"})
	if _, err := r.Run(context.Background(), "   "); err == nil {
		t.Fatalf("expected error for empty prompt")
	}
}
