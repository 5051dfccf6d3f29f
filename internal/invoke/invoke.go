// Package invoke runs external commands with an enforced deadline and
// classifies how they ended.
//
// Every call spawns exactly one process and never retries. Outcomes are
// reported as a *Result plus, on failure, a *Failure describing whether the
// binary could not be launched, exited non-zero, timed out, or was canceled
// by the caller.
package invoke

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultWaitDelay bounds how long Run waits for output pipes to drain after
// the process has been killed. Children that inherited stdout would otherwise
// hold Wait open past the deadline.
const DefaultWaitDelay = 500 * time.Millisecond

// Kind classifies a failed invocation.
type Kind int

const (
	// KindLaunch means the binary was missing or not executable.
	KindLaunch Kind = iota + 1
	// KindRuntime means the process ran and exited non-zero.
	KindRuntime
	// KindTimeout means the deadline passed before the process finished.
	KindTimeout
	// KindCanceled means the caller canceled the context.
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindLaunch:
		return "launch"
	case KindRuntime:
		return "runtime"
	case KindTimeout:
		return "timeout"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Result holds the captured output of a finished process.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// Combined returns stdout followed by stderr.
func (r *Result) Combined() []byte {
	if r == nil {
		return nil
	}

	if len(r.Stderr) == 0 {
		return r.Stdout
	}

	out := make([]byte, 0, len(r.Stdout)+len(r.Stderr)+1)
	out = append(out, r.Stdout...)

	if len(r.Stdout) > 0 && !bytes.HasSuffix(r.Stdout, []byte("\n")) {
		out = append(out, '\n')
	}

	return append(out, r.Stderr...)
}

// Failure describes why an invocation did not succeed.
type Failure struct {
	Kind    Kind
	Command string
	Timeout time.Duration
	// Result is the partial output captured before the failure. It is nil
	// for launch failures.
	Result *Result
	Err    error
}

func (f *Failure) Error() string {
	switch f.Kind {
	case KindLaunch:
		return fmt.Sprintf("launch %s: %v", f.Command, f.Err)
	case KindRuntime:
		msg := ""
		if f.Result != nil {
			msg = strings.TrimSpace(string(f.Result.Stderr))
			if msg == "" {
				msg = strings.TrimSpace(string(f.Result.Combined()))
			}
		}

		if msg == "" && f.Err != nil {
			msg = f.Err.Error()
		}

		code := -1
		if f.Result != nil {
			code = f.Result.ExitCode
		}

		return fmt.Sprintf("%s exited with code %d: %s", f.Command, code, msg)
	case KindTimeout:
		return fmt.Sprintf("%s timed out after %s", f.Command, f.Timeout)
	case KindCanceled:
		return fmt.Sprintf("%s canceled: %v", f.Command, f.Err)
	default:
		return fmt.Sprintf("%s failed: %v", f.Command, f.Err)
	}
}

// Unwrap returns the underlying error.
func (f *Failure) Unwrap() error {
	return f.Err
}

// KindOf returns the failure kind carried by err, or 0 when err is not a
// *Failure.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}

	return 0
}

// Runner runs a single external command.
type Runner interface {
	// Run starts name with args and waits for it to exit or for timeout to
	// elapse. A timeout of zero or less means no deadline beyond ctx.
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) (*Result, error)
}

// ExecRunner runs commands on the host with os/exec.
type ExecRunner struct {
	// Env, when non-nil, replaces the inherited environment.
	Env []string
	// WaitDelay overrides DefaultWaitDelay.
	WaitDelay time.Duration
}

// NewExecRunner returns an ExecRunner with default settings.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{WaitDelay: DefaultWaitDelay}
}

// Run executes the command. It returns a non-nil *Result for every outcome
// except launch failures, together with a *Failure when the command did not
// exit cleanly.
func (r *ExecRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) (*Result, error) {
	command := commandString(name, args)

	if err := ctx.Err(); err != nil {
		return nil, &Failure{Kind: KindCanceled, Command: command, Err: err}
	}

	runCtx := ctx
	cancel := func() {}

	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	cmd := exec.CommandContext(runCtx, name, args...) //nolint:gosec // G204: binary and args come from local configuration
	configureProcess(cmd)

	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	if r.Env != nil {
		cmd.Env = r.Env
	}

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	startedAt := time.Now()

	if err := cmd.Start(); err != nil {
		return nil, &Failure{Kind: KindLaunch, Command: command, Err: err}
	}

	waitErr := cmd.Wait()

	result := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: cmd.ProcessState.ExitCode(),
		Duration: time.Since(startedAt),
	}

	if waitErr == nil {
		return result, nil
	}

	if ctxErr := runCtx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return result, &Failure{Kind: KindTimeout, Command: command, Timeout: timeout, Result: result, Err: ctxErr}
		}

		return result, &Failure{Kind: KindCanceled, Command: command, Result: result, Err: ctxErr}
	}

	// ErrWaitDelay after a clean exit means a child kept the pipes open;
	// the command itself succeeded.
	if errors.Is(waitErr, exec.ErrWaitDelay) && result.ExitCode == 0 {
		return result, nil
	}

	return result, &Failure{Kind: KindRuntime, Command: command, Result: result, Err: waitErr}
}

func commandString(name string, args []string) string {
	if len(args) == 0 {
		return name
	}

	return name + " " + strings.Join(args, " ")
}

var _ Runner = (*ExecRunner)(nil)
