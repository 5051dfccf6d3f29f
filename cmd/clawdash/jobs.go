package main

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/musher-dev/clawdash/internal/config"
	"github.com/musher-dev/clawdash/internal/dashboard"
	clierrors "github.com/musher-dev/clawdash/internal/errors"
	"github.com/musher-dev/clawdash/internal/gateway"
	"github.com/musher-dev/clawdash/internal/model"
	"github.com/musher-dev/clawdash/internal/output"
)

// jobResult is the JSON output of the job commands.
type jobResult struct {
	ID      string `json:"id"`
	Action  string `json:"action"`
	Success bool   `json:"success"`
}

func newJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List, toggle, and run scheduled jobs",
		Long:  `Inspect the gateway's cron jobs and enable, disable, patch, or trigger them.`,
	}

	cmd.AddCommand(newJobsListCmd())
	cmd.AddCommand(newJobsToggleCmd("enable", true))
	cmd.AddCommand(newJobsToggleCmd("disable", false))
	cmd.AddCommand(newJobsRunCmd())
	cmd.AddCommand(newJobsUpdateCmd())

	return cmd
}

func newJobsListCmd() *cobra.Command {
	var flags sourceFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List scheduled jobs",
		Long: `List the gateway's scheduled jobs ordered by name, with their schedule,
time to the next run, and the status of the last run.`,
		Example: `  clawdash jobs list
  clawdash jobs list --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			t := flags.open(config.Load())

			jobs, err := t.src.Jobs(cmd.Context())
			if err != nil {
				return t.queryFailed("list jobs", err)
			}

			return out.Emit(model.JobsResponse{Jobs: jobs}, func() {
				now := time.Now()

				rows := make([][]string, 0, len(jobs))
				for _, j := range jobs {
					rows = append(rows, dashboard.JobRow(j, false, now))
				}

				out.Table(dashboard.JobHeaders, rows)
			})
		},
	}

	flags.register(cmd)

	return cmd
}

func newJobsToggleCmd(action string, enabled bool) *cobra.Command {
	var flags sourceFlags

	short := "Enable a scheduled job"
	if !enabled {
		short = "Disable a scheduled job"
	}

	cmd := &cobra.Command{
		Use:     action + " <job-id>",
		Short:   short,
		Long:    `Set a job's enabled flag through the gateway. The job keeps its schedule.`,
		Example: "  clawdash jobs " + action + " nightly-digest",
		Args:    jobIDArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateJob(cmd, &flags, action, args[0], func(t *target, id string) bool {
				return t.src.UpdateJob(cmd.Context(), id, model.EnablePatch(enabled))
			})
		},
	}

	flags.register(cmd)

	return cmd
}

func newJobsRunCmd() *cobra.Command {
	var flags sourceFlags

	cmd := &cobra.Command{
		Use:     "run <job-id>",
		Short:   "Run a scheduled job now",
		Long:    `Trigger one run of a job immediately, regardless of its schedule or enabled flag.`,
		Example: `  clawdash jobs run nightly-digest`,
		Args:    jobIDArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateJob(cmd, &flags, "run", args[0], func(t *target, id string) bool {
				return t.src.RunJob(cmd.Context(), id)
			})
		},
	}

	flags.register(cmd)

	return cmd
}

func newJobsUpdateCmd() *cobra.Command {
	var (
		flags sourceFlags
		patch string
	)

	cmd := &cobra.Command{
		Use:   "update <job-id>",
		Short: "Apply a JSON merge patch to a job",
		Long: `Apply a JSON merge patch to a job definition. The patch must be a JSON
object; keys it names replace the job's values and null removes them.`,
		Example: `  clawdash jobs update nightly-digest --patch '{"enabled":false}'
  clawdash jobs update nightly-digest --patch '{"schedule":{"kind":"cron","expr":"0 7 * * *"}}'`,
		Args: jobIDArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parsePatch(patch)
			if err != nil {
				return err
			}

			return mutateJob(cmd, &flags, "update", args[0], func(t *target, id string) bool {
				return t.src.UpdateJob(cmd.Context(), id, parsed)
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&patch, "patch", "", "JSON merge patch to apply")
	_ = cmd.MarkFlagRequired("patch")

	return cmd
}

// parsePatch accepts only a JSON object.
func parsePatch(raw string) (model.JobPatch, error) {
	var patch model.JobPatch
	if err := json.Unmarshal([]byte(raw), &patch); err != nil {
		return nil, clierrors.InvalidPatch(err)
	}

	if patch == nil {
		return nil, clierrors.InvalidPatch(errors.New("patch is null"))
	}

	return patch, nil
}

func mutateJob(cmd *cobra.Command, flags *sourceFlags, action, id string, fn func(*target, string) bool) error {
	if err := gateway.ValidateJobID(id); err != nil {
		return clierrors.InvalidJobID(id)
	}

	out := output.FromContext(cmd.Context())
	t := flags.open(config.Load())

	spin := out.Spinner(actionProgress(action, id))
	spin.Start()

	if !fn(t, id) {
		spin.StopWithFailure("")

		return clierrors.MutationFailed(action, id)
	}

	if out.JSON {
		spin.Stop()

		return out.PrintJSON(jobResult{ID: id, Action: action, Success: true})
	}

	spin.StopWithSuccess(actionDone(action) + " " + id)

	return nil
}

func actionProgress(action, id string) string {
	switch action {
	case "enable":
		return "Enabling " + id
	case "disable":
		return "Disabling " + id
	case "run":
		return "Starting " + id
	default:
		return "Updating " + id
	}
}

func actionDone(action string) string {
	switch action {
	case "enable":
		return "Enabled"
	case "disable":
		return "Disabled"
	case "run":
		return "Started"
	default:
		return "Updated"
	}
}
