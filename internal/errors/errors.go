// Package errors provides structured CLI error types for clawdash.
//
// CLIError wraps errors with user-facing messages, hints, and exit codes
// to provide consistent, actionable error output across all commands.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Exit codes for CLI errors.
const (
	ExitSuccess            = 0  // Successful execution
	ExitGeneral            = 1  // General error
	ExitGatewayUnavailable = 2  // Gateway CLI missing, failing, or unreadable
	ExitNetwork            = 3  // API server unreachable or erroring
	ExitConfig             = 4  // Configuration error
	ExitTimeout            = 5  // Gateway call timed out
	ExitExecution          = 6  // Gateway rejected a mutation
	ExitUsage              = 64 // Command line usage error (BSD convention)
)

// CLIError represents a user-facing CLI error with actionable guidance.
type CLIError struct {
	// Message is the primary error message shown to the user.
	Message string

	// Hint provides actionable guidance on how to fix the error.
	Hint string

	// Cause is the underlying error, if any.
	Cause error

	// Code is the exit code for the CLI.
	Code int
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}

	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// New creates a new CLIError with the given message and exit code.
func New(code int, message string) *CLIError {
	return &CLIError{
		Message: message,
		Code:    code,
	}
}

// Wrap wraps an existing error with a CLIError.
func Wrap(code int, message string, cause error) *CLIError {
	return &CLIError{
		Message: message,
		Cause:   cause,
		Code:    code,
	}
}

// WithHint adds a hint to the error.
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}

// As is a convenience function for errors.As with CLIError.
func As(err error, target **CLIError) bool {
	return errors.As(err, target)
}

// --- Common error constructors ---

// GatewayNotFound returns an error when the gateway CLI cannot be started.
func GatewayNotFound(bin string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Gateway CLI not found: %s", bin),
		Hint:    "Install clawdbot or point gateway.bin (CLAWDASH_GATEWAY_BIN) at it",
		Cause:   cause,
		Code:    ExitGatewayUnavailable,
	}
}

// GatewayCommandFailed returns an error for a gateway CLI call that exited
// non-zero. Common stderr patterns get specific hints.
func GatewayCommandFailed(operation, stderr string, cause error) *CLIError {
	hint := "Run with --log-level=debug for the full gateway output"

	switch {
	case containsAny(stderr, "not running", "econnrefused", "connection refused"):
		hint = "Start the gateway with 'clawdbot gateway start'"
	case containsAny(stderr, "unknown command", "unknown flag", "unrecognized"):
		hint = "The installed clawdbot may be too old. Run 'clawdash doctor'"
	case containsAny(stderr, "permission denied", "eacces"):
		hint = "Check permissions on the gateway config directory"
	}

	return &CLIError{
		Message: fmt.Sprintf("Gateway failed to %s", operation),
		Hint:    hint,
		Cause:   cause,
		Code:    ExitGatewayUnavailable,
	}
}

// GatewayTimedOut returns an error for a gateway call that hit its deadline.
func GatewayTimedOut(operation, timeout string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Gateway timed out after %s while trying to %s", timeout, operation),
		Hint:    "Raise gateway.timeout or check that the gateway is responsive",
		Code:    ExitTimeout,
	}
}

// GatewayOutputUnreadable returns an error when the gateway answered
// without a usable JSON payload.
func GatewayOutputUnreadable(operation string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Could not read gateway output for %s", operation),
		Hint:    "Check that 'clawdbot --version' is supported by running 'clawdash doctor'",
		Cause:   cause,
		Code:    ExitGatewayUnavailable,
	}
}

// GatewayConfigUnreadable returns an error when neither the gateway nor its
// config directory could supply the agent configuration.
func GatewayConfigUnreadable(dir string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Could not read gateway configuration in %s", dir),
		Hint:    "Set gateway.config_dir to a directory holding clawdbot.json or config.yaml",
		Cause:   cause,
		Code:    ExitConfig,
	}
}

// MutationFailed returns an error when the gateway rejected a job command.
func MutationFailed(action, jobID string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Failed to %s job: %s", action, jobID),
		Hint:    "Check the job id with 'clawdash jobs list'",
		Code:    ExitExecution,
	}
}

// InvalidJobID returns an error for ids the gateway CLI would misparse.
func InvalidJobID(jobID string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Invalid job id: %q", jobID),
		Hint:    "Job ids must be non-empty and must not start with '-'",
		Code:    ExitUsage,
	}
}

// APIUnreachable returns an error when the clawdash API server cannot be reached.
func APIUnreachable(url string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("API server unreachable: %s", url),
		Hint:    "Start it with 'clawdash serve' or set server.api_url",
		Cause:   cause,
		Code:    ExitNetwork,
	}
}

// APIRequestFailed returns an error for a non-2xx API response.
func APIRequestFailed(operation string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("API request failed: %s", operation),
		Hint:    "Check the server log or retry with --log-level=debug",
		Cause:   cause,
		Code:    ExitNetwork,
	}
}

// ServerFailed returns an error when the API server cannot start or stops
// unexpectedly.
func ServerFailed(addr string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("API server failed on %s", addr),
		Hint:    "Check that the port is free or choose another with --port",
		Cause:   cause,
		Code:    ExitGeneral,
	}
}

// ConfigFailed returns an error for configuration save failures.
func ConfigFailed(operation string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Failed to %s", operation),
		Hint:    "Check file permissions for your clawdash config directory or run 'clawdash doctor'",
		Cause:   cause,
		Code:    ExitConfig,
	}
}

// UnknownConfigKey returns an error for keys clawdash does not recognize.
func UnknownConfigKey(key string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Unknown config key: %s", key),
		Hint:    "Run 'clawdash config list' to see supported keys",
		Code:    ExitUsage,
	}
}

// InvalidPatch returns an error for a job patch that is not a JSON object.
func InvalidPatch(cause error) *CLIError {
	return &CLIError{
		Message: "Invalid job patch",
		Hint:    `Pass a JSON object, for example '{"enabled":false}'`,
		Cause:   cause,
		Code:    ExitUsage,
	}
}

// DashboardRequiresTTY returns an error when watch runs without a terminal.
func DashboardRequiresTTY() *CLIError {
	return &CLIError{
		Message: "The dashboard needs an interactive terminal",
		Hint:    "Use 'clawdash sessions --json' or 'clawdash status --json' in scripts",
		Code:    ExitUsage,
	}
}

// containsAny checks if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrings {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}

	return false
}
