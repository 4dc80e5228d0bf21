// Package llm shells out to a local model CLI for detection analysis.
package llm

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// Config configures the subprocess runner.
type Config struct {
	Command string        // model CLI binary, e.g. "ollama"
	Model   string        // model name passed to the CLI
	Timeout time.Duration // hard wall-clock limit per invocation
}

// Result is the outcome of one model invocation.
type Result struct {
	Success  bool          `json:"success"`
	Output   string        `json:"output"`
	Error    string        `json:"error,omitempty"`
	Code     int           `json:"code"`
	Duration time.Duration `json:"duration"`
}

// Runner spawns one OS process per analysis request. There is no pooling
// or queueing; concurrent requests each get their own subprocess.
type Runner struct {
	command string
	model   string
	timeout time.Duration
}

// NewRunner creates a runner.
func NewRunner(cfg Config) *Runner {
	if cfg.Command == "" {
		cfg.Command = "ollama"
	}
	if cfg.Model == "" {
		cfg.Model = "codellama:7b-instruct"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Runner{command: cfg.Command, model: cfg.Model, timeout: cfg.Timeout}
}

// Run invokes the model CLI with the prompt and collects its output. The
// process is killed once the timeout elapses; timeouts and missing binaries
// come back as failure results rather than errors, so callers only see an
// error for structural problems (an empty prompt).
func (r *Runner) Run(ctx context.Context, prompt string) (*Result, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("empty prompt")
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.command, "run", r.model, prompt)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Model CLIs spawn their own children; killing only the direct child
	// leaves grandchildren holding the output pipes and Run never returns.
	// Put the invocation in its own process group, signal the whole group on
	// deadline, and stop waiting on the pipes shortly after.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 3 * time.Second

	start := time.Now()
	err := cmd.Run()
	res := &Result{
		Output:   strings.TrimSpace(stdout.String()),
		Error:    strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
	}

	switch {
	case err == nil:
		res.Success = true
	case runCtx.Err() == context.DeadlineExceeded:
		res.Code = 1
		res.Error = "timeout after " + r.timeout.String()
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.Code = exitErr.ExitCode()
		} else {
			res.Code = 127
		}
		if res.Error == "" {
			res.Error = err.Error()
		}
	}

	return res, nil
}
