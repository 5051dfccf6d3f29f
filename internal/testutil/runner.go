package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/musher-dev/clawdash/internal/invoke"
)

// Response scripts what FakeRunner returns for one command line.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Fail makes the call fail with this kind. KindRuntime defaults the exit
	// code to 1.
	Fail invoke.Kind
	// Block, when non-nil, holds the call until it is closed or ctx ends. A
	// ctx deadline is reported as a timeout.
	Block <-chan struct{}
}

// FakeRunner is an invoke.Runner that answers from a script keyed by the
// full command line ("bin arg1 arg2"). Unscripted commands fail to launch.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     []string
}

// NewFakeRunner returns an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{responses: make(map[string]Response)}
}

// On scripts the response for a command line.
func (f *FakeRunner) On(commandLine string, resp Response) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.responses[commandLine] = resp

	return f
}

// Calls returns the command lines run so far, in order.
func (f *FakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.calls...)
}

// Run implements invoke.Runner.
func (f *FakeRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) (*invoke.Result, error) {
	line := strings.Join(append([]string{name}, args...), " ")

	f.mu.Lock()
	f.calls = append(f.calls, line)
	resp, ok := f.responses[line]
	f.mu.Unlock()

	if !ok {
		return nil, &invoke.Failure{Kind: invoke.KindLaunch, Command: line, Err: errNotScripted}
	}

	if resp.Block != nil {
		runCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc

			runCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		select {
		case <-resp.Block:
		case <-runCtx.Done():
			kind := invoke.KindCanceled
			if ctx.Err() == nil {
				kind = invoke.KindTimeout
			}

			return &invoke.Result{ExitCode: -1}, &invoke.Failure{Kind: kind, Command: line, Timeout: timeout, Err: runCtx.Err()}
		}
	}

	result := &invoke.Result{
		Stdout:   []byte(resp.Stdout),
		Stderr:   []byte(resp.Stderr),
		ExitCode: resp.ExitCode,
	}

	switch resp.Fail {
	case 0:
		return result, nil
	case invoke.KindLaunch:
		return nil, &invoke.Failure{Kind: invoke.KindLaunch, Command: line, Err: errNotScripted}
	case invoke.KindRuntime:
		if result.ExitCode == 0 {
			result.ExitCode = 1
		}
	}

	return result, &invoke.Failure{Kind: resp.Fail, Command: line, Timeout: timeout, Result: result}
}

type fakeError string

func (e fakeError) Error() string { return string(e) }

const errNotScripted = fakeError("executable file not found in $PATH")

var _ invoke.Runner = (*FakeRunner)(nil)
