package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/inamate/inamate/diagram-go/internal/editor"
	"github.com/inamate/inamate/diagram-go/internal/export"
	"github.com/inamate/inamate/diagram-go/internal/handlers"
	"github.com/inamate/inamate/diagram-go/internal/script"
	"github.com/inamate/inamate/diagram-go/internal/txn"
)

var replayCmd = &cobra.Command{
	Use:   "replay <scenario.yaml>",
	Short: "Replay a scripted editing session and write the resulting snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		png, _ := cmd.Flags().GetString("png")
		strict, _ := cmd.Flags().GetBool("strict")

		sc, err := script.LoadFile(args[0])
		if err != nil {
			return err
		}
		st, err := sc.LoadDocument()
		if err != nil {
			return fmt.Errorf("load document: %w", err)
		}

		ed := editor.New(st, nil, editor.WithStrict(strict), editor.WithLogger(slog.Default()))
		handlers.Install(ed)
		commits := 0
		ed.Tx().OnCommit(func(c txn.Commit) {
			commits++
			slog.Debug("commit", "label", c.Label, "ops", c.Ops)
		})

		if err := script.Run(ed, sc); err != nil {
			return err
		}

		data, err := ed.Store().Snapshot()
		if err != nil {
			return err
		}
		if out == "-" {
			_, err = cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "replayed %d steps, %d commits, wrote %s\n", len(sc.Steps), commits, out)

		if png != "" {
			img, err := export.Render(ed.Store(), export.RenderOptions{})
			if err != nil {
				return err
			}
			if err := img.SavePNG(png); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", png)
		}
		return nil
	},
}

func init() {
	replayCmd.Flags().StringP("out", "o", "-", "Snapshot output path, - for stdout")
	replayCmd.Flags().String("png", "", "Also render the result to this PNG path")
	replayCmd.Flags().Bool("strict", true, "Panic on invalid gesture states")
	rootCmd.AddCommand(replayCmd)
}
