package main

import (
	"github.com/spf13/cobra"

	"github.com/musher-dev/clawdash/internal/config"
	"github.com/musher-dev/clawdash/internal/dashboard"
	"github.com/musher-dev/clawdash/internal/output"
)

func newAgentsCmd() *cobra.Command {
	var flags sourceFlags

	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Show configured agents and bindings",
		Long: `Show the agents configured in the gateway, their models and subagents, and
the bindings that route channels and message patterns to them. When the
gateway CLI cannot dump its configuration, the configuration directory is
read directly.`,
		Example: `  clawdash agents
  clawdash agents --gateway-config-dir ~/.clawdbot
  clawdash agents --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			t := flags.open(config.Load())

			overview, err := t.src.Agents(cmd.Context())
			if err != nil {
				return t.queryFailed("read agents", err)
			}

			return out.Emit(overview, func() {
				rows := make([][]string, 0, len(overview.Agents))
				for _, a := range overview.Agents {
					rows = append(rows, dashboard.AgentRow(a))
				}

				out.Table(dashboard.AgentHeaders, rows)

				if len(overview.Bindings) == 0 {
					return
				}

				out.Println()

				bindings := make([][]string, 0, len(overview.Bindings))
				for _, b := range overview.Bindings {
					bindings = append(bindings, []string{orDash(b.Channel), orDash(b.Pattern), b.Agent})
				}

				out.Table([]string{"CHANNEL", "PATTERN", "AGENT"}, bindings)
			})
		},
	}

	flags.register(cmd)

	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
