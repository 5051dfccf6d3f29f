package main

import (
	"github.com/spf13/cobra"

	"github.com/musher-dev/clawdash/internal/client"
	"github.com/musher-dev/clawdash/internal/config"
	"github.com/musher-dev/clawdash/internal/doctor"
	"github.com/musher-dev/clawdash/internal/gateway"
	"github.com/musher-dev/clawdash/internal/output"
)

// doctorReport is the JSON output of doctor.
type doctorReport struct {
	Checks   []doctor.Result `json:"checks"`
	Passed   int             `json:"passed"`
	Failed   int             `json:"failed"`
	Warnings int             `json:"warnings"`
}

func newDoctorCmd() *cobra.Command {
	var (
		gwFlags gatewayFlags
		apiURL  string
		skipAPI bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the gateway integration",
		Long: `Run diagnostic checks to identify installation and connectivity issues.

Checks performed:
  - Gateway CLI on PATH and at a supported version
  - Gateway configuration directory readable, and which format it holds
  - Gateway daemon running
  - clawdash API server reachable`,
		Example: `  clawdash doctor
  clawdash doctor --skip-api
  clawdash doctor --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			cfg := config.Load()

			gw := gateway.New(gwFlags.options(cfg))

			var api doctor.API
			if !skipAPI {
				if apiURL == "" {
					apiURL = cfg.APIURL()
				}

				api = client.New(apiURL)
			}

			spin := out.Spinner("Running checks")
			spin.Start()

			results := doctor.New(gw, api).Run(cmd.Context())

			spin.Stop()

			passed, failed, warnings := doctor.Summary(results)

			return out.Emit(doctorReport{Checks: results, Passed: passed, Failed: failed, Warnings: warnings}, func() {
				out.Println("clawdash doctor")
				out.Println("===============")
				out.Println()

				doctor.RenderResults(results, out.Print, out.Success, out.Warning, out.Failure, out.Muted)

				out.Println()
				out.Print("%d passed", passed)

				if failed > 0 {
					out.Print(", %d failed", failed)
				}

				if warnings > 0 {
					out.Print(", %d warning(s)", warnings)
				}

				out.Println()
			})
		},
	}

	cmd.Flags().AddFlagSet(gwFlags.flagSet())
	cmd.Flags().StringVar(&apiURL, "api-url", "", "API server to probe (default: server.api_url)")
	cmd.Flags().BoolVar(&skipAPI, "skip-api", false, "Skip the API server check")

	return cmd
}
