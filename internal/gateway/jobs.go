package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/musher-dev/clawdash/internal/invoke"
	"github.com/musher-dev/clawdash/internal/model"
	"github.com/musher-dev/clawdash/internal/observability"
)

const (
	opListJobs  = "jobs.list"
	opUpdateJob = "jobs.update"
	opRunJob    = "jobs.run"
)

type jobsEnvelope struct {
	Jobs []json.RawMessage `json:"jobs"`
}

type wireJob struct {
	ID       optString       `json:"id"`
	Name     optString       `json:"name"`
	Enabled  optBool         `json:"enabled"`
	Schedule json.RawMessage `json:"schedule"`
	State    *wireJobState   `json:"state"`
	AgentID  optString       `json:"agentId"`
	Payload  json.RawMessage `json:"payload"`
}

type wireSchedule struct {
	Kind    optString `json:"kind"`
	Expr    optString `json:"expr"`
	Cron    optString `json:"cron"`
	TZ      optString `json:"tz"`
	EveryMs optInt    `json:"everyMs"`
}

type wireJobState struct {
	NextRunAtMs    optInt    `json:"nextRunAtMs"`
	LastRunAtMs    optInt    `json:"lastRunAtMs"`
	LastStatus     optString `json:"lastStatus"`
	LastDurationMs optInt    `json:"lastDurationMs"`
	LastError      optString `json:"lastError"`
}

// ListJobs returns the gateway's scheduled jobs ordered by name, then id.
func (c *Client) ListJobs(ctx context.Context) ([]model.ScheduledJob, error) {
	var env jobsEnvelope
	if err := c.query(ctx, opListJobs, &env, "cron", "list", "--json"); err != nil {
		return []model.ScheduledJob{}, err
	}

	return normalizeJobs(ctx, env.Jobs), nil
}

func normalizeJobs(ctx context.Context, raws []json.RawMessage) []model.ScheduledJob {
	logger := observability.FromContext(ctx)

	jobs := make([]model.ScheduledJob, 0, len(raws))
	seen := make(map[string]bool, len(raws))

	for _, raw := range raws {
		var w wireJob
		if err := json.Unmarshal(raw, &w); err != nil || w.ID == "" {
			logger.Debug("skipping unrecognized job entry", slog.String("operation", opListJobs))
			continue
		}

		if seen[string(w.ID)] {
			logger.Debug("dropping duplicate job", slog.String("id", string(w.ID)))
			continue
		}

		seen[string(w.ID)] = true

		job := model.ScheduledJob{
			ID:       string(w.ID),
			Name:     string(w.Name),
			Enabled:  w.Enabled.or(false),
			Schedule: decodeSchedule(w.Schedule),
			AgentID:  string(w.AgentID),
		}

		if len(w.Payload) > 0 && !bytes.Equal(w.Payload, []byte("null")) {
			job.Payload = w.Payload
		}

		if w.State != nil {
			job.State = decodeJobState(ctx, job.ID, w.State)
		}

		jobs = append(jobs, job)
	}

	slices.SortStableFunc(jobs, func(a, b model.ScheduledJob) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}

		return strings.Compare(a.ID, b.ID)
	})

	return jobs
}

// decodeSchedule accepts the object form or a bare cron expression string.
func decodeSchedule(raw json.RawMessage) model.Schedule {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return model.Schedule{}
	}

	if raw[0] == '"' {
		var expr string
		if err := json.Unmarshal(raw, &expr); err != nil {
			return model.Schedule{}
		}

		return model.Schedule{Kind: "cron", Expr: expr}
	}

	var w wireSchedule
	if err := json.Unmarshal(raw, &w); err != nil {
		return model.Schedule{}
	}

	s := model.Schedule{
		Kind:    string(w.Kind),
		Expr:    string(w.Expr),
		TZ:      string(w.TZ),
		EveryMs: w.EveryMs.value,
	}

	if s.Expr == "" {
		s.Expr = string(w.Cron)
	}

	if s.Kind == "" {
		switch {
		case s.Expr != "":
			s.Kind = "cron"
		case s.EveryMs > 0:
			s.Kind = "every"
		}
	}

	return s
}

func decodeJobState(ctx context.Context, id string, w *wireJobState) *model.JobState {
	state := &model.JobState{
		NextRunAtMs:    w.NextRunAtMs.ptr(),
		LastRunAtMs:    w.LastRunAtMs.ptr(),
		LastDurationMs: w.LastDurationMs.ptr(),
		LastError:      string(w.LastError),
	}

	if w.LastStatus != "" {
		status, ok := model.ParseJobStatus(string(w.LastStatus))
		if ok {
			state.LastStatus = status
		} else {
			observability.FromContext(ctx).Debug("ignoring unknown job status",
				slog.String("id", id),
				slog.String("status", string(w.LastStatus)),
			)
		}
	}

	return state
}

// ValidateJobID rejects ids the gateway CLI would misparse.
func ValidateJobID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return fmt.Errorf("%w: empty", ErrInvalidJobID)
	case strings.HasPrefix(id, "-"):
		return fmt.Errorf("%w: %q starts with '-'", ErrInvalidJobID, id)
	case strings.ContainsAny(id, "\x00\n\r"):
		return fmt.Errorf("%w: %q contains control characters", ErrInvalidJobID, id)
	}

	return nil
}

// EncodePatch renders a merge patch as the single argument "cron update"
// expects. The patch travels as one argv element, so no shell quoting is
// involved.
func EncodePatch(patch model.JobPatch) (string, error) {
	if patch == nil {
		patch = model.JobPatch{}
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(patch); err != nil {
		return "", fmt.Errorf("encode job patch: %w", err)
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// UpdateJob applies a merge patch to a job. It reports whether the gateway
// accepted it; failure details are logged.
func (c *Client) UpdateJob(ctx context.Context, id string, patch model.JobPatch) bool {
	if err := ValidateJobID(id); err != nil {
		observability.LogFailure(ctx, opUpdateJob, "validation", err)
		return false
	}

	arg, err := EncodePatch(patch)
	if err != nil {
		observability.LogFailure(ctx, opUpdateJob, "validation", err, slog.String("id", id))
		return false
	}

	return c.mutate(ctx, opUpdateJob, id, "cron", "update", id, arg)
}

// RunJob triggers an immediate run of a job.
func (c *Client) RunJob(ctx context.Context, id string) bool {
	if err := ValidateJobID(id); err != nil {
		observability.LogFailure(ctx, opRunJob, "validation", err)
		return false
	}

	return c.mutate(ctx, opRunJob, id, "cron", "run", id)
}

func (c *Client) mutate(ctx context.Context, op, id string, args ...string) bool {
	if _, err := c.run(ctx, op, c.opts.Timeout, args...); err != nil {
		observability.LogFailure(ctx, op, string(KindInvocation), err,
			slog.String("id", id),
			slog.String("failure", invoke.KindOf(err).String()),
		)

		return false
	}

	observability.FromContext(ctx).Info("job command accepted", slog.String("operation", op), slog.String("id", id))

	return true
}
