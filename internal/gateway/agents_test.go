package gateway

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/musher-dev/clawdash/internal/agentconfig"
	"github.com/musher-dev/clawdash/internal/invoke"
	"github.com/musher-dev/clawdash/internal/model"
	"github.com/musher-dev/clawdash/internal/testutil"
)

const configShowOutput = `Config: /home/u/.clawdbot/clawdbot.json
{"agents": {"list": [{"id": "cli-agent", "model": "anthropic/claude-opus-4"}]},
 "bindings": [{"agentId": "cli-agent", "match": {"channel": "whatsapp"}}]}`

func TestAgentsOverview_PrefersConfigShow(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, agentconfig.StructuredFile, `{"agents": {"list": [{"id": "disk-agent"}]}}`)

	runner := fake().On("clawdbot config show --json", testutil.Response{Stdout: configShowOutput})

	got, err := newTestClient(runner, dir).AgentsOverview(testContext())
	if err != nil {
		t.Fatalf("AgentsOverview() error = %v", err)
	}

	binding := model.Binding{Channel: "whatsapp", Agent: "cli-agent"}
	want := model.AgentsOverview{
		Agents: []model.Agent{{
			ID: "cli-agent", Model: "anthropic/claude-opus-4",
			AllowAgents: []string{}, Bindings: []model.Binding{binding},
		}},
		Bindings: []model.Binding{binding},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("overview mismatch (-want +got):\n%s", diff)
	}
}

func TestAgentsOverview_FallsBackToConfigDir(t *testing.T) {
	tests := []struct {
		name string
		resp *testutil.Response
	}{
		{name: "command missing"},
		{name: "command failed", resp: &testutil.Response{Fail: invoke.KindRuntime}},
		{name: "command output without JSON", resp: &testutil.Response{Stdout: "unknown command: config"}},
		{name: "command output wrong shape", resp: &testutil.Response{Stdout: `{"gateway": {"port": 1}}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			testutil.WriteFile(t, dir, agentconfig.LegacyFile, "agents:\n  disk:\n    name: Disk\n")

			runner := fake()
			if tt.resp != nil {
				runner.On("clawdbot config show --json", *tt.resp)
			}

			got, err := newTestClient(runner, dir).AgentsOverview(testContext())
			if err != nil {
				t.Fatalf("AgentsOverview() error = %v", err)
			}

			if len(got.Agents) != 1 || got.Agents[0].ID != "disk" {
				t.Errorf("agents = %+v, want disk agent", got.Agents)
			}
		})
	}
}

func TestAgentsOverview_AllSourcesFail(t *testing.T) {
	got, err := newTestClient(fake(), t.TempDir()).AgentsOverview(testContext())

	if !isQueryKind(err, KindConfigRead) {
		t.Fatalf("error = %v, want config-read QueryError", err)
	}

	if diff := cmp.Diff(model.EmptyOverview(), got); diff != "" {
		t.Errorf("overview not empty (-want +got):\n%s", diff)
	}
}
