package gateway

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/musher-dev/clawdash/internal/invoke"
	"github.com/musher-dev/clawdash/internal/model"
	"github.com/musher-dev/clawdash/internal/testutil"
)

func i64(n int64) *int64 { return &n }

func TestListSessions_V1(t *testing.T) {
	runner := fake().On("clawdbot sessions list --json", testutil.Response{Stdout: `
[plugins] loaded 3 plugins
{"count": 4, "sessions": [
  {"key": "agent:main:slack:C1", "kind": "group", "updatedAt": 1759999990000, "ageMs": 10000, "sessionId": "s-1",
   "model": "claude-sonnet-4", "inputTokens": 1200, "outputTokens": 300, "totalTokens": 1},
  {"key": "agent:main:main", "kind": "direct", "updatedAt": 1759999999000, "sessionId": "s-2"},
  {"key": "agent:main:slack:C1", "kind": "dup", "updatedAt": 1},
  {"kind": "no key"},
  {"key": "agent:ops:cron", "kind": "direct", "updatedAt": "1759999000000", "totalTokens": 42.0}
]}
`})

	got, err := newTestClient(runner, t.TempDir()).ListSessions(testContext())
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}

	want := []model.Session{
		{Key: "agent:main:main", Kind: "direct", UpdatedAt: 1759999999000, AgeMs: 1000, SessionID: "s-2"},
		{
			Key: "agent:main:slack:C1", Kind: "group", UpdatedAt: 1759999990000, AgeMs: 10000, SessionID: "s-1",
			Model: "claude-sonnet-4", InputTokens: i64(1200), OutputTokens: i64(300), TotalTokens: i64(1500),
		},
		{Key: "agent:ops:cron", Kind: "direct", UpdatedAt: 1759999000000, AgeMs: 1000000, TotalTokens: i64(42)},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sessions mismatch (-want +got):\n%s", diff)
	}
}

func TestListSessions_V2(t *testing.T) {
	runner := fake().On("clawdbot sessions list --json", testutil.Response{Stdout: `{"sessions": [
  {"sessionKey": "telegram:42", "agentId": "main", "kind": "direct", "createdAtMs": 1759990000000,
   "lastMessageAtMs": 1759999000000, "messageCount": 12, "model": "gpt-5", "status": "active"},
  {"sessionKey": "discord:7", "agentId": "ops", "createdAtMs": 1759999500000}
]}`})

	got, err := newTestClient(runner, t.TempDir()).ListSessions(testContext())
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}

	twelve := 12
	want := []model.Session{
		{Key: "discord:7", AgentID: "ops", UpdatedAt: 1759999500000, AgeMs: 500000},
		{
			Key: "telegram:42", AgentID: "main", Kind: "direct", UpdatedAt: 1759999000000, AgeMs: 1000000,
			MessageCount: &twelve, Model: "gpt-5", Status: "active",
		},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sessions mismatch (-want +got):\n%s", diff)
	}
}

func TestListSessions_Failures(t *testing.T) {
	tests := []struct {
		name     string
		resp     *testutil.Response
		wantKind ErrorKind
	}{
		{name: "binary missing", resp: nil, wantKind: KindInvocation},
		{name: "non-zero exit", resp: &testutil.Response{Stderr: "gateway not running", Fail: invoke.KindRuntime}, wantKind: KindInvocation},
		{name: "timeout", resp: &testutil.Response{Fail: invoke.KindTimeout}, wantKind: KindInvocation},
		{name: "no JSON", resp: &testutil.Response{Stdout: "No sessions."}, wantKind: KindExtraction},
		{name: "truncated JSON", resp: &testutil.Response{Stdout: `{"sessions": [{"key": "a"`}, wantKind: KindExtraction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := fake()
			if tt.resp != nil {
				runner.On("clawdbot sessions list --json", *tt.resp)
			}

			got, err := newTestClient(runner, t.TempDir()).ListSessions(testContext())

			if !isQueryKind(err, tt.wantKind) {
				t.Fatalf("error = %v, want QueryError kind %q", err, tt.wantKind)
			}

			if got == nil || len(got) != 0 {
				t.Errorf("sessions = %#v, want empty non-nil slice", got)
			}
		})
	}
}

func TestListSessions_MissingArrayIsEmpty(t *testing.T) {
	runner := fake().On("clawdbot sessions list --json", testutil.Response{Stdout: `{"count": 0}`})

	got, err := newTestClient(runner, t.TempDir()).ListSessions(testContext())
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}

	if got == nil || len(got) != 0 {
		t.Errorf("sessions = %#v, want empty non-nil slice", got)
	}
}
