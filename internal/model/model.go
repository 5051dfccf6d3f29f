// Package model defines the canonical shapes for everything clawdash observes
// on the gateway: sessions, scheduled jobs, agents, channel bindings, and
// gateway liveness.
//
// Values are snapshots. They are fetched fresh on every poll and never
// written back anywhere except through the gateway's own CLI.
package model

import (
	"encoding/json"
	"time"
)

// Session is one conversation tracked by the gateway.
type Session struct {
	Key       string `json:"key"`
	SessionID string `json:"sessionId,omitempty"`
	Kind      string `json:"kind,omitempty"`
	AgentID   string `json:"agentId,omitempty"`
	// UpdatedAt is the last activity time in Unix milliseconds.
	UpdatedAt int64 `json:"updatedAt,omitempty"`
	// AgeMs is the time since UpdatedAt when the snapshot was taken.
	AgeMs        int64  `json:"ageMs,omitempty"`
	Model        string `json:"model,omitempty"`
	MessageCount *int   `json:"messageCount,omitempty"`
	Status       string `json:"status,omitempty"`

	InputTokens  *int64 `json:"inputTokens,omitempty"`
	OutputTokens *int64 `json:"outputTokens,omitempty"`
	TotalTokens  *int64 `json:"totalTokens,omitempty"`
}

// ReconcileTokens enforces total = input + output when both parts are known.
func (s *Session) ReconcileTokens() {
	if s.InputTokens == nil || s.OutputTokens == nil {
		return
	}

	total := *s.InputTokens + *s.OutputTokens
	s.TotalTokens = &total
}

// UpdatedTime returns UpdatedAt as a time.Time, or the zero time when unset.
func (s Session) UpdatedTime() time.Time {
	if s.UpdatedAt == 0 {
		return time.Time{}
	}

	return time.UnixMilli(s.UpdatedAt)
}

// JobStatus is the outcome of a job's most recent run.
type JobStatus string

// Job run outcomes.
const (
	JobStatusSuccess JobStatus = "success"
	JobStatusError   JobStatus = "error"
	JobStatusSkipped JobStatus = "skipped"
)

// ParseJobStatus maps the gateway's spellings onto the closed status set.
// Unknown values report ok=false.
func ParseJobStatus(s string) (JobStatus, bool) {
	switch s {
	case "success", "ok", "succeeded":
		return JobStatusSuccess, true
	case "error", "failed", "failure":
		return JobStatusError, true
	case "skipped", "skip":
		return JobStatusSkipped, true
	default:
		return "", false
	}
}

// Schedule describes when a job fires.
type Schedule struct {
	// Kind is the schedule type reported by the gateway, e.g. "cron",
	// "every", or "at".
	Kind    string `json:"kind"`
	Expr    string `json:"expr,omitempty"`
	TZ      string `json:"tz,omitempty"`
	EveryMs int64  `json:"everyMs,omitempty"`
}

// JobState is the runtime state of a job.
type JobState struct {
	NextRunAtMs    *int64    `json:"nextRunAtMs,omitempty"`
	LastRunAtMs    *int64    `json:"lastRunAtMs,omitempty"`
	LastStatus     JobStatus `json:"lastStatus,omitempty"`
	LastDurationMs *int64    `json:"lastDurationMs,omitempty"`
	LastError      string    `json:"lastError,omitempty"`
}

// ScheduledJob is a cron-style job registered with the gateway.
type ScheduledJob struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Enabled  bool            `json:"enabled"`
	Schedule Schedule        `json:"schedule"`
	State    *JobState       `json:"state,omitempty"`
	AgentID  string          `json:"agentId,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// JobPatch is a JSON merge patch applied to a job.
type JobPatch map[string]any

// EnablePatch returns the patch that sets a job's enabled flag.
func EnablePatch(enabled bool) JobPatch {
	return JobPatch{"enabled": enabled}
}

// Binding routes a channel or message pattern to an agent.
type Binding struct {
	Channel string `json:"channel,omitempty"`
	Pattern string `json:"pattern,omitempty"`
	// Agent is an agent id. It may not match any known agent.
	Agent string `json:"agent"`
}

// Valid reports whether the binding has a target and something to match.
func (b Binding) Valid() bool {
	return b.Agent != "" && (b.Channel != "" || b.Pattern != "")
}

// Agent is one agent definition from the gateway configuration.
type Agent struct {
	ID            string   `json:"id"`
	Name          string   `json:"name,omitempty"`
	Model         string   `json:"model,omitempty"`
	ThinkingLevel string   `json:"thinkingLevel,omitempty"`
	MaxTurns      *int     `json:"maxTurns,omitempty"`
	AllowAgents   []string `json:"allowAgents"`
	// Bindings is derived from AgentsOverview.Bindings and never read from
	// storage.
	Bindings []Binding `json:"bindings"`
}

// AgentsOverview is the set of agents plus the global binding table.
type AgentsOverview struct {
	Agents   []Agent   `json:"agents"`
	Bindings []Binding `json:"bindings"`
}

// EmptyOverview returns an overview with non-nil empty slices.
func EmptyOverview() AgentsOverview {
	return AgentsOverview{Agents: []Agent{}, Bindings: []Binding{}}
}

// DeriveBindings recomputes every agent's Bindings from the global list,
// preserving global order. Whatever Bindings held before is discarded.
func (o *AgentsOverview) DeriveBindings() {
	if o.Agents == nil {
		o.Agents = []Agent{}
	}

	if o.Bindings == nil {
		o.Bindings = []Binding{}
	}

	for i := range o.Agents {
		derived := []Binding{}

		for _, b := range o.Bindings {
			if b.Agent == o.Agents[i].ID {
				derived = append(derived, b)
			}
		}

		o.Agents[i].Bindings = derived

		if o.Agents[i].AllowAgents == nil {
			o.Agents[i].AllowAgents = []string{}
		}
	}
}

// Status sources.
const (
	StatusSourceCommand      = "command"
	StatusSourceProcessTable = "process-table"
	StatusSourceNone         = "none"
)

// GatewayStatus reports whether the gateway process is alive.
type GatewayStatus struct {
	Running bool   `json:"running"`
	PID     int    `json:"pid,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
	// Source names the probe that produced this status.
	Source string `json:"source,omitempty"`
}
