package main

import (
	"github.com/spf13/cobra"

	"github.com/musher-dev/clawdash/internal/config"
	"github.com/musher-dev/clawdash/internal/dashboard"
	clierrors "github.com/musher-dev/clawdash/internal/errors"
	"github.com/musher-dev/clawdash/internal/output"
)

func newWatchCmd() *cobra.Command {
	var (
		flags         sourceFlags
		noAutoRefresh bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Open the live terminal dashboard",
		Long: `Open a full-screen dashboard with tabs for sessions, jobs, and agents. Each
resource refreshes on its own interval (poll.* settings) and keeps showing
the last good data when a refresh fails. On the jobs tab, e toggles the
selected job and r runs it. Editing the gateway configuration refreshes
the agents tab.`,
		Example: `  clawdash watch
  clawdash watch --no-auto-refresh
  clawdash watch --api-url http://dash.internal:3001`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			if !out.Terminal().DashboardEnabled() {
				return clierrors.DashboardRequiresTTY()
			}

			cfg := config.Load()
			t := flags.open(cfg)

			opts := dashboard.Options{
				Intervals: dashboard.Intervals{
					Sessions: cfg.PollSessions(),
					Jobs:     cfg.PollJobs(),
					Agents:   cfg.PollAgents(),
					Status:   cfg.PollStatus(),
				},
				NoAutoRefresh: noAutoRefresh,
				Label:         t.label,
			}

			// Only a local gateway has a config directory to watch.
			if t.apiURL == "" {
				opts.WatchDir = t.gw.ConfigDir
			}

			return dashboard.Run(cmd.Context(), t.src, opts)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&noAutoRefresh, "no-auto-refresh", false, "Start paused; press R to refresh or a to resume")

	return cmd
}
