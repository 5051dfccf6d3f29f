package agentconfig

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/musher-dev/clawdash/internal/model"
)

func TestParseLegacy(t *testing.T) {
	doc := `
# clawdbot configuration
defaults:
  model: anthropic/claude-sonnet-4

gateway:
  port: 18789
  agents:
    not: an-agent

agents:
  main:
    name: "Main Agent"
    thinkingLevel: medium   # inline comment
    maxTurns: 25
    allowAgents: [research, "ops"]
  research:
    model: openai/gpt-5
    allowAgents:
      - main
      - ops
    name: Research
  ops:
    maxTurns: lots
  bad line without colon
  "quoted-id":
    name: Quoted

bindings:
  - channel: slack agent: main
  - channel: telegram
    agentId: research
  - pattern: "^deploy .*" agent: ops
  - {channel: discord, agent: ghost}
  - channel: orphan
  -
    agent: research
    pattern: '^help'
`

	overview, err := ParseLegacy([]byte(doc), "configured/default")
	if err != nil {
		t.Fatalf("ParseLegacy() error = %v", err)
	}

	slack := model.Binding{Channel: "slack", Agent: "main"}
	telegram := model.Binding{Channel: "telegram", Agent: "research"}
	deploy := model.Binding{Pattern: "^deploy .*", Agent: "ops"}
	discord := model.Binding{Channel: "discord", Agent: "ghost"}
	help := model.Binding{Pattern: "^help", Agent: "research"}

	want := model.AgentsOverview{
		Agents: []model.Agent{
			{
				ID:            "main",
				Name:          "Main Agent",
				Model:         "anthropic/claude-sonnet-4",
				ThinkingLevel: "medium",
				MaxTurns:      intPtr(25),
				AllowAgents:   []string{"research", "ops"},
				Bindings:      []model.Binding{slack},
			},
			{
				ID:          "ops",
				Model:       "anthropic/claude-sonnet-4",
				AllowAgents: []string{},
				Bindings:    []model.Binding{deploy},
			},
			{
				ID:          "quoted-id",
				Name:        "Quoted",
				Model:       "anthropic/claude-sonnet-4",
				AllowAgents: []string{},
				Bindings:    []model.Binding{},
			},
			{
				ID:          "research",
				Name:        "Research",
				Model:       "openai/gpt-5",
				AllowAgents: []string{"main", "ops"},
				Bindings:    []model.Binding{telegram, help},
			},
		},
		Bindings: []model.Binding{slack, telegram, deploy, discord, help},
	}

	if diff := cmp.Diff(want, overview); diff != "" {
		t.Errorf("overview mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLegacy_ConfiguredDefaultModel(t *testing.T) {
	overview, err := ParseLegacy([]byte("agents:\n  solo:\n    name: Solo\n"), "configured/default")
	if err != nil {
		t.Fatalf("ParseLegacy() error = %v", err)
	}

	if got := overview.Agents[0].Model; got != "configured/default" {
		t.Errorf("model = %q, want configured/default", got)
	}
}

func TestParseLegacy_NoSections(t *testing.T) {
	for _, doc := range []string{"", "# only comments\n", "gateway:\n  port: 1\n"} {
		_, err := ParseLegacy([]byte(doc), "")
		if !errors.Is(err, ErrShape) {
			t.Errorf("ParseLegacy(%q) error = %v, want ErrShape", doc, err)
		}
	}
}

func TestParseLegacy_BindingsOnly(t *testing.T) {
	overview, err := ParseLegacy([]byte("bindings:\n  - channel: sms agent: pager\n"), "")
	if err != nil {
		t.Fatalf("ParseLegacy() error = %v", err)
	}

	if len(overview.Agents) != 0 {
		t.Errorf("agents = %+v, want none", overview.Agents)
	}

	want := []model.Binding{{Channel: "sms", Agent: "pager"}}
	if diff := cmp.Diff(want, overview.Bindings); diff != "" {
		t.Errorf("bindings mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLegacy_CompactSequences(t *testing.T) {
	doc := `
agents:
  main:
    model: m1
    allowAgents:
    - research
    - ops
    name: Main
bindings:
- channel: c1
  agent: main
- pattern: '^ops'
  agent: ops
extra:
- channel: ignored
  agent: main
`

	overview, err := ParseLegacy([]byte(doc), "")
	if err != nil {
		t.Fatalf("ParseLegacy() error = %v", err)
	}

	c1 := model.Binding{Channel: "c1", Agent: "main"}
	ops := model.Binding{Pattern: "^ops", Agent: "ops"}

	want := model.AgentsOverview{
		Agents: []model.Agent{
			{
				ID:          "main",
				Name:        "Main",
				Model:       "m1",
				AllowAgents: []string{"research", "ops"},
				Bindings:    []model.Binding{c1},
			},
		},
		Bindings: []model.Binding{c1, ops},
	}

	if diff := cmp.Diff(want, overview); diff != "" {
		t.Errorf("overview mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		raw    string
		want   line
		wantOK bool
	}{
		{raw: "agents:", want: line{indent: 0, text: "agents:"}, wantOK: true},
		{raw: "    name: x  ", want: line{indent: 4, text: "name: x"}, wantOK: true},
		{raw: "\tname: x", want: line{indent: 2, text: "name: x"}, wantOK: true},
		{raw: "   # comment", wantOK: false},
		{raw: "   ", wantOK: false},
		{raw: "name: x\r", want: line{indent: 0, text: "name: x"}, wantOK: true},
	}

	for _, tt := range tests {
		got, ok := splitLine(tt.raw)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("splitLine(%q) = (%+v, %v), want (%+v, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}
