package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/SecretPocketCat/chela/internal/images"
)

type listRow struct {
	images.Image
	PreviewExists bool `json:"previewExists"`
	Burst         int  `json:"burst"`
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list [dir]",
		Short: "List images in a directory with preview and cull state",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir := cfg.Paths.CullRoot
			if len(args) == 1 {
				dir = args[0]
			}
			dir, err = filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolve directory: %w", err)
			}

			imgs, err := images.Enumerate(commandBaseContext(cmd), dir, images.Options{
				Subdir:    cfg.Preview.Subdir,
				Extension: cfg.PreviewExtension(),
			})
			if err != nil {
				return err
			}

			var rows []listRow
			separators := make(map[int]bool)
			for burst, group := range images.GroupBursts(imgs, cfg.BurstGap()) {
				for _, img := range group {
					_, statErr := os.Stat(img.PreviewPath)
					rows = append(rows, listRow{Image: img, PreviewExists: statErr == nil, Burst: burst + 1})
				}
				separators[len(rows)-1] = true
			}

			if jsonOutput {
				return writeJSON(cmd, rows)
			}

			colorize := shouldColorize(cmd.OutOrStdout())
			cells := make([][]string, 0, len(rows))
			for i, row := range rows {
				cells = append(cells, []string{
					strconv.Itoa(i + 1),
					filepath.Base(row.SourcePath),
					row.Created.Local().Format("2006-01-02 15:04:05.000"),
					yesNo(row.PreviewExists),
					cullStateCell(row.State, colorize),
					strconv.Itoa(row.Burst),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(tableSpec{
				Title:      dir,
				Headers:    []string{"#", "File", "Created", "Preview", "State", "Burst"},
				Aligns:     []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				Rows:       cells,
				Separators: separators,
			}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
