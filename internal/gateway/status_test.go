package gateway

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/musher-dev/clawdash/internal/invoke"
	"github.com/musher-dev/clawdash/internal/model"
	"github.com/musher-dev/clawdash/internal/testutil"
)

const psTable = `    1 12-03:14:15 /sbin/init
  777       01:02 grep clawdbot-gateway
  999       00:01 clawdash status --process clawdbot-gateway
 4321  1-02:03:04 node /usr/lib/node_modules/clawdbot/dist/clawdbot-gateway.js --port 18789
 5555       00:10 clawdbot-gateway --second
`

func TestStatus(t *testing.T) {
	never := make(chan struct{})

	tests := []struct {
		name   string
		status *testutil.Response
		ps     *testutil.Response
		want   model.GatewayStatus
	}{
		{
			name:   "structured status without running field",
			status: &testutil.Response{Stdout: `{"pid": 4242}`},
			want:   model.GatewayStatus{Running: true, PID: 4242, Source: model.StatusSourceCommand},
		},
		{
			name:   "structured status nested under gateway",
			status: &testutil.Response{Stdout: `gateway ok {"gateway": {"running": true, "pid": 10, "uptimeMs": 3723000}}`},
			want:   model.GatewayStatus{Running: true, PID: 10, Uptime: "01:02:03", Source: model.StatusSourceCommand},
		},
		{
			name:   "structured status says stopped",
			status: &testutil.Response{Stdout: `{"running": false}`},
			ps:     &testutil.Response{Stdout: psTable},
			want:   model.GatewayStatus{Running: false, Source: model.StatusSourceCommand},
		},
		{
			name:   "status times out, process table matches",
			status: &testutil.Response{Block: never},
			ps:     &testutil.Response{Stdout: psTable},
			want:   model.GatewayStatus{Running: true, PID: 4321, Uptime: "1-02:03:04", Source: model.StatusSourceProcessTable},
		},
		{
			name:   "status undecodable, process table matches",
			status: &testutil.Response{Stdout: "Gateway: running"},
			ps:     &testutil.Response{Stdout: psTable},
			want:   model.GatewayStatus{Running: true, PID: 4321, Uptime: "1-02:03:04", Source: model.StatusSourceProcessTable},
		},
		{
			name:   "status failed, no match in process table",
			status: &testutil.Response{Fail: invoke.KindRuntime},
			ps:     &testutil.Response{Stdout: "    1 00:01 /sbin/init\n"},
			want:   model.GatewayStatus{Running: false, Source: model.StatusSourceNone},
		},
		{
			name: "every probe fails",
			want: model.GatewayStatus{Running: false, Source: model.StatusSourceNone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := fake()

			if tt.status != nil {
				runner.On("clawdbot gateway status --json", *tt.status)
			}

			if tt.ps != nil {
				runner.On("ps -eo pid=,etime=,args=", *tt.ps)
			}

			start := time.Now()
			got := newTestClient(runner, t.TempDir()).Status(testContext())

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("status mismatch (-want +got):\n%s", diff)
			}

			if elapsed := time.Since(start); elapsed > 2*time.Second {
				t.Errorf("Status() took %s, want bounded by status timeout", elapsed)
			}
		})
	}
}

func TestFindProcess(t *testing.T) {
	pid, etime, ok := findProcess([]byte(psTable), "clawdbot-gateway", 999)
	if !ok || pid != 4321 || etime != "1-02:03:04" {
		t.Fatalf("findProcess() = (%d, %q, %v), want (4321, 1-02:03:04, true)", pid, etime, ok)
	}

	if _, _, ok := findProcess([]byte(psTable), "nonexistent-daemon", 999); ok {
		t.Fatal("findProcess() matched a missing process")
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00"},
		{-time.Second, "00:00"},
		{75 * time.Second, "01:15"},
		{3723 * time.Second, "01:02:03"},
		{26*time.Hour + 3*time.Minute + 4*time.Second, "1-02:03:04"},
	}

	for _, tt := range tests {
		if got := FormatUptime(tt.in); got != tt.want {
			t.Errorf("FormatUptime(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
