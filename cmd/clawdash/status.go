package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/musher-dev/clawdash/internal/config"
	"github.com/musher-dev/clawdash/internal/output"
)

func newStatusCmd() *cobra.Command {
	var flags sourceFlags

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the gateway daemon is running",
		Long: `Report whether the gateway daemon is running, with its pid and uptime when
known. The gateway's own status command is asked first; the process table
is the fallback. Through --api the server's memory use is shown as well.`,
		Example: `  clawdash status
  clawdash status --json
  clawdash status --api`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			t := flags.open(config.Load())

			status, err := t.src.Status(cmd.Context())
			if err != nil {
				return t.queryFailed("read gateway status", err)
			}

			return out.Emit(status, func() {
				gw := status.Gateway

				if gw.Running {
					out.Success("Gateway running")
				} else {
					out.Warning("Gateway not running")
				}

				fields := []output.Field{{Label: "source", Value: t.label}}

				if gw.PID > 0 {
					fields = append(fields, output.Field{Label: "pid", Value: strconv.Itoa(gw.PID)})
				}

				fields = append(fields,
					output.Field{Label: "uptime", Value: gw.Uptime},
					output.Field{Label: "probe", Value: gw.Source},
				)

				if mem := status.Memory; mem != nil {
					fields = append(fields, output.Field{
						Label: "api memory",
						Value: fmt.Sprintf("rss %s, heap %s / %s", megabytes(mem.RSS), megabytes(mem.HeapUsed), megabytes(mem.HeapTotal)),
					})
				}

				out.KeyValues(fields...)
			})
		},
	}

	flags.register(cmd)

	return cmd
}

func megabytes(n uint64) string {
	return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
}
