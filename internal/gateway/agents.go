package gateway

import (
	"context"
	"log/slog"

	"github.com/musher-dev/clawdash/internal/agentconfig"
	"github.com/musher-dev/clawdash/internal/extract"
	"github.com/musher-dev/clawdash/internal/model"
	"github.com/musher-dev/clawdash/internal/observability"
)

const opAgentsOverview = "agents.overview"

// AgentsOverview returns agent definitions and channel bindings. It prefers
// the CLI's own configuration dump and falls back to reading the
// configuration directory. When both fail the overview is empty and the
// error is a *QueryError of kind KindConfigRead.
func (c *Client) AgentsOverview(ctx context.Context) (model.AgentsOverview, error) {
	overview, err := c.overviewFromCLI(ctx)
	if err == nil {
		return overview, nil
	}

	observability.FromContext(ctx).Debug("config show unavailable, reading config directory",
		slog.String("operation", opAgentsOverview),
		slog.String("error", err.Error()),
	)

	overview, format, err := c.reader.Read(ctx)
	if err != nil {
		return model.EmptyOverview(), &QueryError{Op: opAgentsOverview, Kind: KindConfigRead, Err: err}
	}

	observability.FromContext(ctx).Debug("agents read from config directory", slog.String("format", string(format)))

	return overview, nil
}

func (c *Client) overviewFromCLI(ctx context.Context) (model.AgentsOverview, error) {
	result, err := c.run(ctx, opAgentsOverview, c.opts.Timeout, "config", "show", "--json")
	if err != nil {
		return model.AgentsOverview{}, err
	}

	raw, err := extract.Object(result.Stdout)
	if err != nil {
		return model.AgentsOverview{}, err
	}

	return agentconfig.ProjectStructured(raw, c.opts.DefaultModel)
}
