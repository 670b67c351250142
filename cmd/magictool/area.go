package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/magic-maker/internal/logger"
	"github.com/Faultbox/magic-maker/pkg/mesh"
)

var areaCmd = &cobra.Command{
	Use:   "area",
	Short: "Edit the labelled areas of a project file",
}

var (
	areaFaces   []int
	areaLabel   string
	areaContent string
	areaGesture string
	areaColor   []float64
)

var areaAddCmd = &cobra.Command{
	Use:   "add [project]",
	Short: "Label the given faces with a new area",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gesture, err := mesh.ParseGesture(areaGesture)
		if err != nil {
			return err
		}
		color := mesh.DefaultAreaColor
		if len(areaColor) > 0 {
			if len(areaColor) != 4 {
				return fmt.Errorf("--color needs 4 components (r,g,b,a), got %d", len(areaColor))
			}
			copy(color[:], areaColor)
		}

		return editProject(cmd, args[0], func(s *mesh.Snapshot) (string, error) {
			a, err := s.AddArea(areaFaces, areaLabel, areaContent, gesture, color)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Labelled %d faces as %q (area %d)", len(areaFaces), a.Label, a.Index), nil
		})
	},
}

var areaClearCmd = &cobra.Command{
	Use:   "clear [project]",
	Short: "Remove every area owning one of the given faces",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editProject(cmd, args[0], func(s *mesh.Snapshot) (string, error) {
			removed, err := s.ClearAreas(areaFaces)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Removed areas %v", removed), nil
		})
	},
}

var areaPruneCmd = &cobra.Command{
	Use:   "prune [project]",
	Short: "Remove area records no face refers to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editProject(cmd, args[0], func(s *mesh.Snapshot) (string, error) {
			return fmt.Sprintf("Pruned areas %v", s.PruneAreas()), nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{areaAddCmd, areaClearCmd} {
		c.Flags().IntSliceVarP(&areaFaces, "faces", "f", nil, "face indices to edit")
		_ = c.MarkFlagRequired("faces")
	}
	areaAddCmd.Flags().StringVarP(&areaLabel, "label", "l", "", "area label")
	areaAddCmd.Flags().StringVarP(&areaContent, "content", "c", "", "content shown for the area")
	areaAddCmd.Flags().StringVarP(&areaGesture, "gesture", "g", "Select", "gesture: Select, Point or Cancel")
	areaAddCmd.Flags().Float64SliceVar(&areaColor, "color", nil, "area color as r,g,b,a in [0,1]")
	_ = areaAddCmd.MarkFlagRequired("label")

	areaCmd.AddCommand(areaAddCmd, areaClearCmd, areaPruneCmd)
	rootCmd.AddCommand(areaCmd)
}

// editProject loads a project, applies edit and writes it back.
func editProject(cmd *cobra.Command, path string, edit func(*mesh.Snapshot) (string, error)) error {
	pf := projectFile(path)
	snap, err := pf.Snapshot(cmd.Context())
	if err != nil {
		return err
	}

	msg, err := edit(snap)
	if err != nil {
		return err
	}
	if err := snap.Validate(); err != nil {
		return err
	}
	if err := pf.Import(snap); err != nil {
		return err
	}

	logger.Debug("project updated", zap.String("project", pf.Path), zap.Int("areas", len(snap.Areas)))
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}
