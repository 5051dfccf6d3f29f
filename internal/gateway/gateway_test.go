package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/musher-dev/clawdash/internal/invoke"
	"github.com/musher-dev/clawdash/internal/observability"
	"github.com/musher-dev/clawdash/internal/testutil"
)

var fixedNow = time.UnixMilli(1_760_000_000_000)

func testContext() context.Context {
	return observability.WithLogger(context.Background(), observability.Discard())
}

func newTestClient(runner invoke.Runner, configDir string) *Client {
	return New(Options{
		Bin:           "clawdbot",
		ConfigDir:     configDir,
		Timeout:       time.Second,
		StatusTimeout: 50 * time.Millisecond,
		Runner:        runner,
		Now:           func() time.Time { return fixedNow },
		SelfPID:       999,
	})
}

func fake() *testutil.FakeRunner {
	return testutil.NewFakeRunner()
}

func isQueryKind(err error, kind ErrorKind) bool {
	var qe *QueryError
	return errors.As(err, &qe) && qe.Kind == kind
}
