package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"

	"github.com/musher-dev/clawdash/internal/model"
	"github.com/musher-dev/clawdash/internal/observability"
)

const opListSessions = "sessions.list"

// sessionVariant tags which output convention a session entry uses.
type sessionVariant int

const (
	// sessionsV1 entries carry key/updatedAt/ageMs and token counters.
	sessionsV1 sessionVariant = iota + 1
	// sessionsV2 entries carry sessionKey/lastMessageAtMs/messageCount.
	sessionsV2
)

type sessionsEnvelope struct {
	Sessions []json.RawMessage `json:"sessions"`
}

type wireSessionV1 struct {
	Key          optString `json:"key"`
	SessionID    optString `json:"sessionId"`
	Kind         optString `json:"kind"`
	AgentID      optString `json:"agentId"`
	UpdatedAt    optInt    `json:"updatedAt"`
	AgeMs        optInt    `json:"ageMs"`
	Model        optString `json:"model"`
	InputTokens  optInt    `json:"inputTokens"`
	OutputTokens optInt    `json:"outputTokens"`
	TotalTokens  optInt    `json:"totalTokens"`
}

type wireSessionV2 struct {
	SessionKey      optString `json:"sessionKey"`
	SessionID       optString `json:"sessionId"`
	AgentID         optString `json:"agentId"`
	Kind            optString `json:"kind"`
	CreatedAtMs     optInt    `json:"createdAtMs"`
	LastMessageAtMs optInt    `json:"lastMessageAtMs"`
	MessageCount    optInt    `json:"messageCount"`
	Model           optString `json:"model"`
	Status          optString `json:"status"`
}

func classifySession(raw json.RawMessage) sessionVariant {
	if hasKey(raw, "sessionKey") {
		return sessionsV2
	}

	return sessionsV1
}

// ListSessions returns the gateway's sessions, most recently active first.
func (c *Client) ListSessions(ctx context.Context) ([]model.Session, error) {
	var env sessionsEnvelope
	if err := c.query(ctx, opListSessions, &env, "sessions", "list", "--json"); err != nil {
		return []model.Session{}, err
	}

	return c.normalizeSessions(ctx, env.Sessions), nil
}

func (c *Client) normalizeSessions(ctx context.Context, raws []json.RawMessage) []model.Session {
	logger := observability.FromContext(ctx)
	nowMs := c.opts.Now().UnixMilli()

	sessions := make([]model.Session, 0, len(raws))
	seen := make(map[string]bool, len(raws))

	for _, raw := range raws {
		s, ok := decodeSession(raw)
		if !ok {
			logger.Debug("skipping unrecognized session entry", slog.String("operation", opListSessions))
			continue
		}

		if seen[s.Key] {
			logger.Debug("dropping duplicate session", slog.String("key", s.Key))
			continue
		}

		seen[s.Key] = true

		if s.AgeMs == 0 && s.UpdatedAt > 0 && nowMs > s.UpdatedAt {
			s.AgeMs = nowMs - s.UpdatedAt
		}

		s.ReconcileTokens()
		sessions = append(sessions, s)
	}

	slices.SortStableFunc(sessions, func(a, b model.Session) int {
		switch {
		case a.UpdatedAt > b.UpdatedAt:
			return -1
		case a.UpdatedAt < b.UpdatedAt:
			return 1
		default:
			return 0
		}
	})

	return sessions
}

func decodeSession(raw json.RawMessage) (model.Session, bool) {
	switch classifySession(raw) {
	case sessionsV2:
		var w wireSessionV2
		if err := json.Unmarshal(raw, &w); err != nil || w.SessionKey == "" {
			return model.Session{}, false
		}

		updated := w.LastMessageAtMs
		if !updated.set {
			updated = w.CreatedAtMs
		}

		return model.Session{
			Key:          string(w.SessionKey),
			SessionID:    string(w.SessionID),
			Kind:         string(w.Kind),
			AgentID:      string(w.AgentID),
			UpdatedAt:    updated.value,
			Model:        string(w.Model),
			MessageCount: w.MessageCount.intPtr(),
			Status:       string(w.Status),
		}, true
	default:
		var w wireSessionV1
		if err := json.Unmarshal(raw, &w); err != nil {
			return model.Session{}, false
		}

		key := string(w.Key)
		if key == "" {
			key = string(w.SessionID)
		}

		if key == "" {
			return model.Session{}, false
		}

		return model.Session{
			Key:          key,
			SessionID:    string(w.SessionID),
			Kind:         string(w.Kind),
			AgentID:      string(w.AgentID),
			UpdatedAt:    w.UpdatedAt.value,
			AgeMs:        w.AgeMs.value,
			Model:        string(w.Model),
			InputTokens:  w.InputTokens.ptr(),
			OutputTokens: w.OutputTokens.ptr(),
			TotalTokens:  w.TotalTokens.ptr(),
		}, true
	}
}
