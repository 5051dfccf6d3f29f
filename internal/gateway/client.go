// Package gateway is the query and command facade over the clawdbot gateway.
//
// Reads shell out to the gateway CLI, pull the JSON payload from its output,
// and normalize every known output variant into the canonical model. A read
// that fails returns an empty value together with a *QueryError. Mutations
// report only success or failure. Status never fails.
package gateway

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/musher-dev/clawdash/internal/agentconfig"
	"github.com/musher-dev/clawdash/internal/extract"
	"github.com/musher-dev/clawdash/internal/invoke"
	"github.com/musher-dev/clawdash/internal/observability"
)

// Defaults applied by New when Options leaves a field unset.
const (
	DefaultBin           = "clawdbot"
	DefaultProcessName   = "clawdbot-gateway"
	DefaultTimeout       = 15 * time.Second
	DefaultStatusTimeout = 5 * time.Second
)

const tracerName = "github.com/musher-dev/clawdash/internal/gateway"

// Options configures a Client.
type Options struct {
	// Bin is the gateway CLI, resolved through PATH when not absolute.
	Bin string
	// ConfigDir is the gateway configuration directory read when the CLI
	// cannot dump its configuration.
	ConfigDir   string
	ProcessName string
	// Timeout bounds each CLI call except the status probe.
	Timeout       time.Duration
	StatusTimeout time.Duration
	DefaultModel  string

	Runner invoke.Runner
	Now    func() time.Time
	// SelfPID is excluded from process-table matches. Defaults to os.Getpid.
	SelfPID int
}

// Client queries and commands one gateway installation.
type Client struct {
	opts   Options
	reader *agentconfig.Reader
	tracer trace.Tracer
}

// New returns a Client with defaults filled in.
func New(opts Options) *Client {
	if opts.Bin == "" {
		opts.Bin = DefaultBin
	}

	if opts.ProcessName == "" {
		opts.ProcessName = DefaultProcessName
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	if opts.StatusTimeout <= 0 {
		opts.StatusTimeout = DefaultStatusTimeout
	}

	if opts.Runner == nil {
		opts.Runner = invoke.NewExecRunner()
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.SelfPID == 0 {
		opts.SelfPID = os.Getpid()
	}

	return &Client{
		opts:   opts,
		reader: agentconfig.NewReader(opts.ConfigDir, opts.DefaultModel),
		tracer: observability.Tracer(tracerName),
	}
}

// Bin returns the configured gateway CLI.
func (c *Client) Bin() string {
	return c.opts.Bin
}

// ConfigReader returns the on-disk configuration reader.
func (c *Client) ConfigReader() *agentconfig.Reader {
	return c.reader
}

// run invokes the gateway CLI inside a span.
func (c *Client) run(ctx context.Context, op string, timeout time.Duration, args ...string) (*invoke.Result, error) {
	return c.exec(ctx, op, timeout, c.opts.Bin, args...)
}

func (c *Client) exec(ctx context.Context, op string, timeout time.Duration, name string, args ...string) (*invoke.Result, error) {
	ctx, span := c.tracer.Start(ctx, "gateway.invoke", trace.WithAttributes(
		attribute.String("gateway.operation", op),
		attribute.String("process.command", name),
		attribute.String("process.command_args", strings.Join(args, " ")),
	))
	defer span.End()

	result, err := c.opts.Runner.Run(ctx, timeout, name, args...)

	if result != nil {
		span.SetAttributes(
			attribute.Int("process.exit_code", result.ExitCode),
			attribute.Int64("process.duration_ms", result.Duration.Milliseconds()),
		)
	}

	if err != nil {
		span.SetAttributes(attribute.String("gateway.failure_kind", invoke.KindOf(err).String()))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return result, err
}

// query runs a read subcommand and decodes its JSON payload into dst. The
// returned error is always a *QueryError.
func (c *Client) query(ctx context.Context, op string, dst any, args ...string) error {
	result, err := c.run(ctx, op, c.opts.Timeout, args...)
	if err != nil {
		observability.LogFailure(ctx, op, string(KindInvocation), err,
			slog.String("failure", invoke.KindOf(err).String()),
		)

		return &QueryError{Op: op, Kind: KindInvocation, Err: err}
	}

	if err := extract.Into(result.Stdout, dst); err != nil {
		observability.LogFailure(ctx, op, string(KindExtraction), err,
			slog.Int("stdout_bytes", len(result.Stdout)),
		)

		return &QueryError{Op: op, Kind: KindExtraction, Err: err}
	}

	return nil
}

// Version returns the gateway CLI's self-reported version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	result, err := c.run(ctx, "version", c.opts.StatusTimeout, "--version")
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(result.Stdout)), nil
}
