package agentconfig

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/musher-dev/clawdash/internal/model"
)

// modelRef accepts either "provider/model" or {"primary": "provider/model"}.
type modelRef string

func (m *modelRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		*m = modelRef(s)

		return nil
	}

	var obj struct {
		Primary string `json:"primary"`
	}

	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("model: %w", err)
	}

	*m = modelRef(obj.Primary)

	return nil
}

type structuredDoc struct {
	Agents *struct {
		Defaults struct {
			Model modelRef `json:"model"`
		} `json:"defaults"`
		List []json.RawMessage `json:"list"`
	} `json:"agents"`
	Bindings []json.RawMessage `json:"bindings"`
}

type structuredAgent struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Model           modelRef `json:"model"`
	ThinkingLevel   string   `json:"thinkingLevel"`
	ThinkingDefault string   `json:"thinkingDefault"`
	MaxTurns        *int     `json:"maxTurns"`
	AllowAgents     []string `json:"allowAgents"`
	Subagents       *struct {
		AllowAgents []string `json:"allowAgents"`
	} `json:"subagents"`
}

type structuredBinding struct {
	Agent   string `json:"agent"`
	AgentID string `json:"agentId"`
	Channel string `json:"channel"`
	Pattern string `json:"pattern"`
	Match   *struct {
		Channel string `json:"channel"`
		Pattern string `json:"pattern"`
	} `json:"match"`
}

// ProjectStructured maps a structured configuration document onto the
// canonical overview. It accepts the on-disk clawdbot.json as well as the
// output of "config show --json", which share a shape.
//
// Entries that fail to decode are skipped. A document without agents.list
// returns ErrShape.
func ProjectStructured(data []byte, defaultModel string) (model.AgentsOverview, error) {
	var doc structuredDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.EmptyOverview(), fmt.Errorf("%w: %v", ErrShape, err) //nolint:errorlint // ErrShape is the contract
	}

	if doc.Agents == nil || doc.Agents.List == nil {
		return model.EmptyOverview(), fmt.Errorf("%w: missing agents.list", ErrShape)
	}

	fallbackModel := firstNonEmpty(string(doc.Agents.Defaults.Model), defaultModel)

	agents := make([]model.Agent, 0, len(doc.Agents.List))

	for _, raw := range doc.Agents.List {
		var entry structuredAgent
		if err := json.Unmarshal(raw, &entry); err != nil || entry.ID == "" {
			continue
		}

		allow := entry.AllowAgents
		if entry.Subagents != nil && entry.Subagents.AllowAgents != nil {
			allow = entry.Subagents.AllowAgents
		}

		agents = append(agents, model.Agent{
			ID:            entry.ID,
			Name:          entry.Name,
			Model:         firstNonEmpty(string(entry.Model), fallbackModel),
			ThinkingLevel: firstNonEmpty(entry.ThinkingLevel, entry.ThinkingDefault),
			MaxTurns:      entry.MaxTurns,
			AllowAgents:   append([]string{}, allow...),
		})
	}

	bindings := make([]model.Binding, 0, len(doc.Bindings))

	for _, raw := range doc.Bindings {
		var entry structuredBinding
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}

		b := model.Binding{
			Agent:   firstNonEmpty(entry.Agent, entry.AgentID),
			Channel: entry.Channel,
			Pattern: entry.Pattern,
		}

		if entry.Match != nil {
			b.Channel = firstNonEmpty(b.Channel, entry.Match.Channel)
			b.Pattern = firstNonEmpty(b.Pattern, entry.Match.Pattern)
		}

		bindings = append(bindings, b)
	}

	return finish(agents, bindings), nil
}
