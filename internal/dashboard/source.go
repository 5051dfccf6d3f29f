package dashboard

import (
	"context"

	"github.com/musher-dev/clawdash/internal/client"
	"github.com/musher-dev/clawdash/internal/model"
	"github.com/musher-dev/clawdash/internal/observability"
)

// Source supplies the dashboard's four resources and job commands.
//
// Read errors are reported alongside the value; the polling controller keeps
// the previous snapshot on screen when a fetch fails.
type Source interface {
	Sessions(ctx context.Context) ([]model.Session, error)
	Jobs(ctx context.Context) ([]model.ScheduledJob, error)
	Agents(ctx context.Context) (model.AgentsOverview, error)
	Status(ctx context.Context) (model.SystemStatus, error)
	UpdateJob(ctx context.Context, id string, patch model.JobPatch) bool
	RunJob(ctx context.Context, id string) bool
}

// Gateway is the local gateway facade, satisfied by *gateway.Client.
type Gateway interface {
	ListSessions(ctx context.Context) ([]model.Session, error)
	ListJobs(ctx context.Context) ([]model.ScheduledJob, error)
	AgentsOverview(ctx context.Context) (model.AgentsOverview, error)
	Status(ctx context.Context) model.GatewayStatus
	UpdateJob(ctx context.Context, id string, patch model.JobPatch) bool
	RunJob(ctx context.Context, id string) bool
}

// FromGateway reads straight from the local gateway.
func FromGateway(gw Gateway) Source {
	return gatewaySource{gw: gw}
}

type gatewaySource struct {
	gw Gateway
}

func (s gatewaySource) Sessions(ctx context.Context) ([]model.Session, error) {
	return s.gw.ListSessions(ctx)
}

func (s gatewaySource) Jobs(ctx context.Context) ([]model.ScheduledJob, error) {
	return s.gw.ListJobs(ctx)
}

func (s gatewaySource) Agents(ctx context.Context) (model.AgentsOverview, error) {
	return s.gw.AgentsOverview(ctx)
}

func (s gatewaySource) Status(ctx context.Context) (model.SystemStatus, error) {
	return model.SystemStatus{Gateway: s.gw.Status(ctx)}, nil
}

func (s gatewaySource) UpdateJob(ctx context.Context, id string, patch model.JobPatch) bool {
	return s.gw.UpdateJob(ctx, id, patch)
}

func (s gatewaySource) RunJob(ctx context.Context, id string) bool {
	return s.gw.RunJob(ctx, id)
}

// FromAPI reads through a remote clawdash API server.
func FromAPI(c *client.Client) Source {
	return apiSource{c: c}
}

type apiSource struct {
	c *client.Client
}

func (s apiSource) Sessions(ctx context.Context) ([]model.Session, error) {
	return s.c.ListSessions(ctx)
}

func (s apiSource) Jobs(ctx context.Context) ([]model.ScheduledJob, error) {
	return s.c.ListJobs(ctx)
}

func (s apiSource) Agents(ctx context.Context) (model.AgentsOverview, error) {
	return s.c.AgentsOverview(ctx)
}

func (s apiSource) Status(ctx context.Context) (model.SystemStatus, error) {
	status, err := s.c.Status(ctx)
	if err != nil {
		return model.SystemStatus{}, err
	}

	return *status, nil
}

func (s apiSource) UpdateJob(ctx context.Context, id string, patch model.JobPatch) bool {
	ok, err := s.c.UpdateJob(ctx, id, patch)
	if err != nil {
		observability.LogFailure(ctx, "jobs.update", "transport", err)
		return false
	}

	return ok
}

func (s apiSource) RunJob(ctx context.Context, id string) bool {
	ok, err := s.c.RunJob(ctx, id)
	if err != nil {
		observability.LogFailure(ctx, "jobs.run", "transport", err)
		return false
	}

	return ok
}
