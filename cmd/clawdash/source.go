package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/musher-dev/clawdash/internal/client"
	"github.com/musher-dev/clawdash/internal/config"
	"github.com/musher-dev/clawdash/internal/dashboard"
	clierrors "github.com/musher-dev/clawdash/internal/errors"
	"github.com/musher-dev/clawdash/internal/gateway"
	"github.com/musher-dev/clawdash/internal/invoke"
	"github.com/musher-dev/clawdash/internal/paths"
)

// gatewayFlags overrides the configured gateway settings for one command.
type gatewayFlags struct {
	bin       string
	configDir string
	timeout   time.Duration
}

func (f *gatewayFlags) flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("gateway", pflag.ContinueOnError)
	fs.StringVar(&f.bin, "gateway-bin", "", "Gateway CLI to run (default: gateway.bin)")
	fs.StringVar(&f.configDir, "gateway-config-dir", "", "Gateway configuration directory (default: gateway.config_dir)")
	fs.DurationVar(&f.timeout, "gateway-timeout", 0, "Timeout for each gateway CLI call (default: gateway.timeout)")

	return fs
}

// options merges the flags over cfg.
func (f *gatewayFlags) options(cfg *config.Config) gateway.Options {
	opts := gateway.Options{
		Bin:           cfg.GatewayBin(),
		ConfigDir:     cfg.GatewayConfigDir(),
		ProcessName:   cfg.GatewayProcessName(),
		Timeout:       cfg.GatewayTimeout(),
		StatusTimeout: cfg.GatewayStatusTimeout(),
		DefaultModel:  cfg.DefaultModel(),
	}

	if f.bin != "" {
		opts.Bin = f.bin
	}

	if f.configDir != "" {
		opts.ConfigDir = paths.ExpandHome(f.configDir)
	}

	if f.timeout > 0 {
		opts.Timeout = f.timeout
	}

	return opts
}

// sourceFlags selects between the local gateway and a clawdash API server.
type sourceFlags struct {
	gatewayFlags

	api    bool
	apiURL string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().AddFlagSet(f.flagSet())
	cmd.Flags().BoolVar(&f.api, "api", false, "Read through a clawdash API server instead of the local gateway")
	cmd.Flags().StringVar(&f.apiURL, "api-url", "", "API server URL, implies --api (default: server.api_url)")
}

// target is an opened data source plus what is needed to explain its
// failures.
type target struct {
	src   dashboard.Source
	label string
	// apiURL is set when reading through an API server.
	apiURL string
	gw     gateway.Options
}

func (f *sourceFlags) open(cfg *config.Config) *target {
	if f.api || f.apiURL != "" {
		url := f.apiURL
		if url == "" {
			url = cfg.APIURL()
		}

		c := client.New(url)

		return &target{src: dashboard.FromAPI(c), label: c.BaseURL(), apiURL: c.BaseURL()}
	}

	opts := f.options(cfg)

	return &target{src: dashboard.FromGateway(gateway.New(opts)), label: "gateway " + opts.Bin, gw: opts}
}

// queryFailed turns a read error into a CLIError.
func (t *target) queryFailed(operation string, err error) error {
	if t.apiURL != "" {
		var statusErr *client.StatusError

		switch {
		case errors.As(err, &statusErr):
			return clierrors.APIRequestFailed(operation, err)
		case gateway.KindOf(err) == "":
			return clierrors.APIUnreachable(t.apiURL, err)
		}
	}

	var failure *invoke.Failure
	if errors.As(err, &failure) {
		switch failure.Kind {
		case invoke.KindLaunch:
			return clierrors.GatewayNotFound(t.gw.Bin, err)
		case invoke.KindTimeout:
			return clierrors.GatewayTimedOut(operation, failure.Timeout.String())
		case invoke.KindRuntime:
			stderr := ""
			if failure.Result != nil {
				stderr = string(failure.Result.Stderr)
			}

			return clierrors.GatewayCommandFailed(operation, stderr, err)
		}
	}

	switch gateway.KindOf(err) {
	case gateway.KindExtraction:
		return clierrors.GatewayOutputUnreadable(operation, err)
	case gateway.KindConfigRead:
		dir := t.gw.ConfigDir
		if t.apiURL != "" {
			dir = "the gateway directory of " + t.apiURL
		}

		return clierrors.GatewayConfigUnreadable(dir, err)
	case gateway.KindInvocation:
		return clierrors.GatewayCommandFailed(operation, "", err)
	}

	return clierrors.Wrap(clierrors.ExitGeneral, fmt.Sprintf("Failed to %s", operation), err)
}
