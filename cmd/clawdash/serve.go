package main

import (
	"net"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/musher-dev/clawdash/internal/config"
	clierrors "github.com/musher-dev/clawdash/internal/errors"
	"github.com/musher-dev/clawdash/internal/gateway"
	"github.com/musher-dev/clawdash/internal/observability"
	"github.com/musher-dev/clawdash/internal/output"
	"github.com/musher-dev/clawdash/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		gwFlags gatewayFlags
		host    string
		port    int
		origins string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the gateway data over HTTP",
		Long: `Serve sessions, jobs, agents, and daemon status as a JSON API for browser
and remote dashboards. Query routes always answer 200; when the gateway
cannot be queried the response carries an empty collection and a "degraded"
field naming the failure. The server stops cleanly on SIGINT or SIGTERM.`,
		Example: `  clawdash serve
  clawdash serve --port 8080 --origins http://localhost:5173
  CLAWDASH_SERVER_ALLOWED_ORIGINS=https://dash.example.com clawdash serve`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			cfg := config.Load()

			if !cmd.Flags().Changed("port") {
				port = cfg.ServerPort()
			}

			if !cmd.Flags().Changed("origins") {
				origins = cfg.AllowedOrigins()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			gw := gateway.New(gwFlags.options(cfg))
			srv := server.New(gw, server.Options{
				AllowedOrigins: server.ParseOrigins(origins),
				Logger:         observability.FromContext(ctx),
			})

			addr := net.JoinHostPort(host, strconv.Itoa(port))

			displayHost := host
			if displayHost == "" {
				displayHost = "localhost"
			}

			out.Success("Serving clawdash API on http://%s", net.JoinHostPort(displayHost, strconv.Itoa(port)))
			out.Muted("  gateway: %s", gw.Bin())

			if err := srv.ListenAndServe(ctx, addr); err != nil {
				return clierrors.ServerFailed(addr, err)
			}

			out.Info("Server stopped")

			return nil
		},
	}

	cmd.Flags().AddFlagSet(gwFlags.flagSet())
	cmd.Flags().StringVar(&host, "host", "", "Interface to listen on (default: all)")
	cmd.Flags().IntVarP(&port, "port", "p", config.DefaultServerPort, "Port to listen on (default: server.port)")
	cmd.Flags().StringVar(&origins, "origins", "", "Comma-separated CORS origins, * for any (default: server.allowed_origins)")

	return cmd
}
