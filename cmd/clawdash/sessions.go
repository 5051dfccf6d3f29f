package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/musher-dev/clawdash/internal/config"
	"github.com/musher-dev/clawdash/internal/dashboard"
	"github.com/musher-dev/clawdash/internal/model"
	"github.com/musher-dev/clawdash/internal/output"
)

func newSessionsCmd() *cobra.Command {
	var flags sourceFlags

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List gateway sessions",
		Long: `List the gateway's conversation sessions, most recently active first, with
their agent, model, message count, and token usage.`,
		Example: `  clawdash sessions
  clawdash sessions --json
  clawdash sessions --api-url http://dash.internal:3001`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			t := flags.open(config.Load())

			sessions, err := t.src.Sessions(cmd.Context())
			if err != nil {
				return t.queryFailed("list sessions", err)
			}

			return out.Emit(model.SessionsResponse{Sessions: sessions}, func() {
				now := time.Now()

				rows := make([][]string, 0, len(sessions))
				for _, s := range sessions {
					rows = append(rows, dashboard.SessionRow(s, now))
				}

				out.Table(dashboard.SessionHeaders, rows)
			})
		},
	}

	flags.register(cmd)

	return cmd
}
