package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SecretPocketCat/chela/internal/daemon"
	"github.com/SecretPocketCat/chela/internal/deps"
	"github.com/SecretPocketCat/chela/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, cache, and dependency status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			base := commandBaseContext(cmd)

			status, err := ctx.client().status(base)
			if err != nil {
				if !errors.Is(err, errDaemonUnreachable) {
					return err
				}
				status = daemon.Status{
					Running:      false,
					LockFilePath: cfg.LockPath(),
					LogPath:      cfg.LogPath(),
					Dependencies: preflight.CheckSystemDeps(base, cfg),
				}
			}
			checks := preflight.RunAll(base, cfg)

			if jsonOutput {
				return writeJSON(cmd, struct {
					daemon.Status
					Checks []preflight.Result `json:"checks"`
				}{status, checks})
			}

			colorize := shouldColorize(cmd.OutOrStdout())
			var lines []string
			lines = append(lines, renderSectionHeader("Daemon", colorize)...)
			if status.Running {
				lines = append(lines, renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d, up %s)", status.PID, status.Uptime), colorize))
				lines = append(lines, renderStatusLine("Address", statusInfo, status.Address, colorize))
				active := status.ActiveDir
				if active == "" {
					active = "none"
				}
				lines = append(lines, renderStatusLine("Active dir", statusInfo, active, colorize))
			} else {
				lines = append(lines, renderStatusLine("Daemon", statusWarn, "not running (start with `chela serve`)", colorize))
			}
			lines = append(lines, renderStatusLine("Log", statusInfo, status.LogPath, colorize))

			if status.Running {
				lines = append(lines, "")
				lines = append(lines, renderSectionHeader("Cache", colorize)...)
				c := status.Cache
				lines = append(lines, renderStatusLine("Tracked", statusInfo,
					fmt.Sprintf("%d (pending %d, ready %d, failed %d)", c.Tracked, c.Pending, c.Ready, c.Failed), colorize))
				p := status.Pool
				poolKind := statusOK
				if p.Failed > 0 {
					poolKind = statusWarn
				}
				lines = append(lines, renderStatusLine("Workers", poolKind,
					fmt.Sprintf("%d (generated %d, existing %d, failed %d, queued %d)", p.Workers, p.Generated, p.Existing, p.Failed, p.Queued), colorize))
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			lines = append(lines, dependencyLines(status.Dependencies, colorize)...)

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Checks", colorize)...)
			for _, check := range checks {
				kind := statusOK
				if !check.Passed {
					kind = statusError
				}
				lines = append(lines, renderStatusLine(check.Name, kind, check.Detail, colorize))
			}

			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(lines, "\n"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	if len(statuses) == 0 {
		return []string{renderStatusLine("Dependencies", statusInfo, "none reported", colorize)}
	}
	lines := make([]string, 0, len(statuses))
	for _, st := range statuses {
		kind := statusOK
		message := st.Detail
		if !st.Available {
			kind = statusError
			if st.Optional {
				kind = statusWarn
			}
		}
		if message == "" {
			message = st.Command
		}
		lines = append(lines, renderStatusLine(st.Name, kind, message, colorize))
	}
	return lines
}
