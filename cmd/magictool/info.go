package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/magic-maker/internal/logger"
	"github.com/Faultbox/magic-maker/pkg/calibrate"
)

var infoCmd = &cobra.Command{
	Use:   "info [project]",
	Short: "Display areas, reference faces and calibration of a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	snap, err := projectFile(args[0]).Snapshot(cmd.Context())
	if err != nil {
		return err
	}

	table := snap.AreaTable()
	marked := 0
	for _, f := range snap.Faces {
		if _, ok := table.Resolve(f); ok {
			marked++
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Project Information")
	fmt.Fprintln(out, "===================")
	fmt.Fprintf(out, "Name: %s\n", snap.Name)
	fmt.Fprintf(out, "File: %s\n\n", args[0])

	fmt.Fprintln(out, "Mesh:")
	fmt.Fprintf(out, "  Vertices: %d\n", len(snap.Vertices))
	fmt.Fprintf(out, "  Faces: %d (%d marked)\n", len(snap.Faces), marked)
	fmt.Fprintf(out, "  Materials: %d\n\n", len(snap.Materials))

	labels := cfg.LabelSet()
	fmt.Fprintf(out, "Areas (%d):\n", len(snap.Areas))
	for _, a := range snap.Areas {
		fmt.Fprintf(out, "  [%d] %s -> %s (%s) %q\n", a.Index, a.Label, labels.Canonical(a.Label), a.Gesture, a.Content)
	}
	fmt.Fprintln(out)

	xz, yz := snap.ReferencePoints()
	fmt.Fprintln(out, "Calibration:")
	fmt.Fprintf(out, "  Reference points: %d xz, %d yz\n", len(xz), len(yz))
	frame, err := calibrate.Calibrate(xz, yz, cfg.Targets())
	if err != nil {
		logger.Warn("project cannot be calibrated", zap.String("project", args[0]), zap.Error(err))
		fmt.Fprintf(out, "  Status: %v\n", err)
		return nil
	}
	fmt.Fprintf(out, "  A: %s\n  B: %s (origin)\n  C: %s\n  D: %s\n", frame.A, frame.B, frame.C, frame.D)
	return nil
}
