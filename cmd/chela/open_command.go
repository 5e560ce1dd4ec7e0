package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newOpenCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "open <dir>",
		Short: "Open a directory in the running daemon and queue its previews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve directory: %w", err)
			}
			result, err := ctx.client().openDir(commandBaseContext(cmd), dir)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Opened %s (%d images)\n", result.Path, len(result.Images))
			if result.Pending == 0 {
				fmt.Fprintln(out, "All previews already exist")
				return nil
			}
			fmt.Fprintf(out, "Queued %d previews in batch %s\n", result.Pending, result.BatchID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
