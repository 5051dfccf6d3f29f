package errors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/musher-dev/clawdash/internal/testutil"
)

func TestGatewayCommandFailed(t *testing.T) {
	tests := []struct {
		name     string
		stderr   string
		wantHint string
	}{
		{
			name:     "gateway down",
			stderr:   "Error: connect ECONNREFUSED 127.0.0.1:18789",
			wantHint: "clawdbot gateway start",
		},
		{
			name:     "old cli",
			stderr:   "error: unknown command 'cron'",
			wantHint: "clawdash doctor",
		},
		{
			name:     "permissions",
			stderr:   "EACCES: permission denied, open '/home/u/.clawdbot/clawdbot.json'",
			wantHint: "permissions",
		},
		{
			name:     "unrecognized output",
			stderr:   "something broke",
			wantHint: "--log-level=debug",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := GatewayCommandFailed("list sessions", tt.stderr, nil)

			if !strings.Contains(err.Hint, tt.wantHint) {
				t.Errorf("hint = %q, want to contain %q", err.Hint, tt.wantHint)
			}

			if err.Code != ExitGatewayUnavailable {
				t.Errorf("code = %d, want %d", err.Code, ExitGatewayUnavailable)
			}
		})
	}
}

func TestContainsAny(t *testing.T) {
	tests := []struct {
		s    string
		subs []string
		want bool
	}{
		{"Connection Refused", []string{"connection refused"}, true},
		{"all good", []string{"refused", "denied"}, false},
		{"", []string{"x"}, false},
	}

	for _, tt := range tests {
		if got := containsAny(tt.s, tt.subs...); got != tt.want {
			t.Errorf("containsAny(%q, %v) = %v, want %v", tt.s, tt.subs, got, tt.want)
		}
	}
}

// TestAllErrorsHaveHints verifies that all error constructors provide actionable hints.
func TestAllErrorsHaveHints(t *testing.T) {
	for _, tt := range constructors() {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Hint == "" {
				t.Errorf("%s() should have a hint, got empty string", tt.name)
			}

			if tt.err.Message == "" {
				t.Errorf("%s() should have a message, got empty string", tt.name)
			}
		})
	}
}

func TestCLIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *CLIError
		want string
	}{
		{
			name: "message only",
			err:  &CLIError{Message: "test error"},
			want: "test error",
		},
		{
			name: "message with cause",
			err:  &CLIError{Message: "test error", Cause: New(1, "underlying")},
			want: "test error: underlying",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCLIError_Unwrap(t *testing.T) {
	cause := New(1, "cause")
	err := &CLIError{Message: "wrapper", Cause: cause}

	if got := err.Unwrap(); got != cause { //nolint:errorlint // testing identity
		t.Errorf("Unwrap() = %v, want %v", got, cause)
	}
}

func TestWithHint(t *testing.T) {
	err := New(1, "test").WithHint("do this")

	if err.Hint != "do this" {
		t.Errorf("WithHint() hint = %q, want %q", err.Hint, "do this")
	}
}

func TestWrap(t *testing.T) {
	cause := New(1, "cause")
	err := Wrap(ExitNetwork, "wrapped", cause)

	if err.Code != ExitNetwork {
		t.Errorf("Wrap() code = %d, want %d", err.Code, ExitNetwork)
	}

	if err.Cause != cause { //nolint:errorlint // testing struct field identity
		t.Errorf("Wrap() cause = %v, want %v", err.Cause, cause)
	}

	var target *CLIError
	if !As(fmt.Errorf("outer: %w", err), &target) || target != err {
		t.Error("As() did not find wrapped CLIError")
	}
}

type namedError struct {
	name string
	err  *CLIError
}

func constructors() []namedError {
	return []namedError{
		{"GatewayNotFound", GatewayNotFound("clawdbot", nil)},
		{"GatewayCommandFailed", GatewayCommandFailed("list jobs", "connection refused", nil)},
		{"GatewayTimedOut", GatewayTimedOut("list sessions", "15s")},
		{"GatewayOutputUnreadable", GatewayOutputUnreadable("sessions.list", nil)},
		{"GatewayConfigUnreadable", GatewayConfigUnreadable("/home/u/.clawdbot", nil)},
		{"MutationFailed", MutationFailed("run", "nightly")},
		{"InvalidJobID", InvalidJobID("--all")},
		{"APIUnreachable", APIUnreachable("http://localhost:3001", nil)},
		{"APIRequestFailed", APIRequestFailed("list jobs", nil)},
		{"ServerFailed", ServerFailed(":3001", nil)},
		{"ConfigFailed", ConfigFailed("save config", nil)},
		{"UnknownConfigKey", UnknownConfigKey("worker.poll_interval")},
		{"InvalidPatch", InvalidPatch(nil)},
		{"DashboardRequiresTTY", DashboardRequiresTTY()},
	}
}

// formatCLIError produces a deterministic string representation of a CLIError for golden file comparison.
func formatCLIError(err *CLIError) string {
	return fmt.Sprintf("Message: %s\nHint: %s\nCode: %d\n", err.Message, err.Hint, err.Code)
}

func TestErrorMessages_Golden(t *testing.T) {
	var sb strings.Builder
	for _, tt := range constructors() {
		fmt.Fprintf(&sb, "--- %s ---\n", tt.name)
		sb.WriteString(formatCLIError(tt.err))
		sb.WriteString("\n")
	}

	testutil.AssertGolden(t, sb.String(), "error_messages.golden")
}
