// Package doctor provides diagnostic checks for the clawdash gateway
// integration.
//
// The default checks validate:
//   - the gateway CLI is on PATH and new enough
//   - the gateway config directory holds a readable configuration
//   - the gateway daemon is running
//   - the clawdash API server answers (optional)
package doctor

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sync/errgroup"

	"github.com/musher-dev/clawdash/internal/agentconfig"
	"github.com/musher-dev/clawdash/internal/model"
)

// MinGatewayVersion is the oldest clawdbot release whose sessions, cron and
// config commands emit the JSON shapes clawdash understands.
const MinGatewayVersion = "2026.1.0"

// CheckTimeout bounds each individual check.
const CheckTimeout = 10 * time.Second

// Status represents the result of a diagnostic check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical failure.
	StatusFail
)

// String returns the lowercase status name used in JSON output.
func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result holds the outcome of a single check.
type Result struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Check is a diagnostic check function.
type Check func(ctx context.Context) Result

// Gateway is the part of the gateway facade the checks probe.
type Gateway interface {
	Bin() string
	Version(ctx context.Context) (string, error)
	Status(ctx context.Context) model.GatewayStatus
	ConfigReader() *agentconfig.Reader
}

// API is the part of the API client the checks probe.
type API interface {
	BaseURL() string
	Health(ctx context.Context) (*model.HealthResponse, error)
}

// Runner executes diagnostic checks.
type Runner struct {
	checks []namedCheck
}

type namedCheck struct {
	name  string
	check Check
}

// New creates a runner with the default checks. api may be nil to skip the
// API server probe.
func New(gw Gateway, api API) *Runner {
	r := &Runner{}

	r.AddCheck("Gateway CLI", func(ctx context.Context) Result { return checkGatewayCLI(ctx, gw) })
	r.AddCheck("Gateway Config", func(ctx context.Context) Result { return checkGatewayConfig(ctx, gw.ConfigReader()) })
	r.AddCheck("Gateway Daemon", func(ctx context.Context) Result { return checkGatewayDaemon(ctx, gw) })

	if api != nil {
		r.AddCheck("API Server", func(ctx context.Context) Result { return checkAPIServer(ctx, api) })
	}

	return r
}

// AddCheck registers a diagnostic check.
func (r *Runner) AddCheck(name string, check Check) {
	r.checks = append(r.checks, namedCheck{name: name, check: check})
}

// Run executes all registered checks concurrently and returns the results in
// registration order.
func (r *Runner) Run(ctx context.Context) []Result {
	results := make([]Result, len(r.checks))

	var g errgroup.Group

	for i, nc := range r.checks {
		g.Go(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, CheckTimeout)
			defer cancel()

			result := nc.check(checkCtx)
			result.Name = nc.name
			results[i] = result

			return nil
		})
	}

	_ = g.Wait()

	return results
}

// Summary returns counts of passed, failed, and warning checks.
func Summary(results []Result) (passed, failed, warnings int) {
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			passed++
		case StatusFail:
			failed++
		case StatusWarn:
			warnings++
		}
	}

	return passed, failed, warnings
}

var versionPattern = regexp.MustCompile(`v?\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z.-]+)?`)

// ParseVersion pulls the first version number out of CLI version output
// such as "clawdbot 2026.1.24 (abc123)".
func ParseVersion(output string) (*semver.Version, error) {
	match := versionPattern.FindString(output)
	if match == "" {
		return nil, fmt.Errorf("no version number in %q", strings.TrimSpace(output))
	}

	return semver.NewVersion(match)
}

func checkGatewayCLI(ctx context.Context, gw Gateway) Result {
	path, err := exec.LookPath(gw.Bin())
	if err != nil {
		return Result{
			Status:  StatusFail,
			Message: fmt.Sprintf("%s not found in PATH", gw.Bin()),
			Detail:  "Install clawdbot or set gateway.bin",
		}
	}

	out, err := gw.Version(ctx)
	if err != nil {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("Found at %s but version unknown", path),
			Detail:  err.Error(),
		}
	}

	version, err := ParseVersion(out)
	if err != nil {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("Found at %s but version unreadable", path),
			Detail:  err.Error(),
		}
	}

	constraint, err := semver.NewConstraint(">= " + MinGatewayVersion)
	if err != nil {
		return Result{Status: StatusFail, Message: "invalid minimum version", Detail: err.Error()}
	}

	if !constraint.Check(version) {
		return Result{
			Status:  StatusFail,
			Message: fmt.Sprintf("v%s at %s is older than v%s", version, path, MinGatewayVersion),
			Detail:  "Upgrade clawdbot to a supported release",
		}
	}

	return Result{
		Status:  StatusPass,
		Message: fmt.Sprintf("v%s at %s", version, path),
	}
}

func checkGatewayConfig(ctx context.Context, reader *agentconfig.Reader) Result {
	format, err := reader.Detect()
	if err != nil {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("No usable configuration in %s", reader.Dir),
			Detail:  err.Error(),
		}
	}

	overview, _, err := reader.Read(ctx)
	if err != nil {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("%s format detected but unreadable", format),
			Detail:  err.Error(),
		}
	}

	path := reader.StructuredPath()
	if format == agentconfig.FormatLegacy {
		path = reader.LegacyPath()
	}

	return Result{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s (%s, %d agents, %d bindings)", path, format, len(overview.Agents), len(overview.Bindings)),
	}
}

func checkGatewayDaemon(ctx context.Context, gw Gateway) Result {
	status := gw.Status(ctx)
	if !status.Running {
		return Result{
			Status:  StatusWarn,
			Message: "Not running",
			Detail:  "Start it with 'clawdbot gateway start'",
		}
	}

	msg := "Running"
	if status.PID > 0 {
		msg += fmt.Sprintf(" (pid %d)", status.PID)
	}

	if status.Uptime != "" {
		msg += ", up " + status.Uptime
	}

	return Result{
		Status:  StatusPass,
		Message: msg,
		Detail:  "via " + status.Source,
	}
}

func checkAPIServer(ctx context.Context, api API) Result {
	start := time.Now()

	if _, err := api.Health(ctx); err != nil {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("%s not reachable", api.BaseURL()),
			Detail:  "Start it with 'clawdash serve' if you use the web or remote dashboard",
		}
	}

	return Result{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s (%dms)", api.BaseURL(), time.Since(start).Milliseconds()),
	}
}

// RenderResults formats diagnostic results through the given print functions.
func RenderResults(results []Result, printFn, successFn, warningFn, failureFn, mutedFn func(format string, args ...any)) {
	maxNameLen := 0
	for _, r := range results {
		maxNameLen = max(maxNameLen, len(r.Name))
	}

	for _, r := range results {
		width := maxNameLen + 4

		switch r.Status {
		case StatusPass:
			successFn("%-*s%s", width, r.Name, r.Message)
		case StatusWarn:
			warningFn("%-*s%s", width, r.Name, r.Message)
		case StatusFail:
			failureFn("%-*s%s", width, r.Name, r.Message)
		default:
			printFn("? %-*s%s\n", width, r.Name, r.Message)
		}

		if r.Detail != "" {
			mutedFn("    %s", r.Detail)
		}
	}
}
