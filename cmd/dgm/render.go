package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inamate/inamate/diagram-go/internal/export"
	"github.com/inamate/inamate/diagram-go/internal/scene"
)

var renderCmd = &cobra.Command{
	Use:   "render [snapshot.json]",
	Short: "Render a document snapshot to PNG",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		sample, _ := cmd.Flags().GetBool("sample")
		scale, _ := cmd.Flags().GetFloat64("scale")

		var st *scene.Store
		switch {
		case sample:
			st = scene.NewSampleDocument()
		case len(args) == 1:
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if st, err = scene.Load(data); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
		default:
			return fmt.Errorf("pass a snapshot file or --sample")
		}

		img, err := export.Render(st, export.RenderOptions{Scale: scale})
		if err != nil {
			return err
		}
		if err := img.SavePNG(out); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
		return nil
	},
}

func init() {
	renderCmd.Flags().StringP("out", "o", "diagram.png", "Output PNG path")
	renderCmd.Flags().Bool("sample", false, "Render the built-in sample document")
	renderCmd.Flags().Float64("scale", 1, "Zoom factor")
	rootCmd.AddCommand(renderCmd)
}
