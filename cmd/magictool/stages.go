package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var intermediateCmd = &cobra.Command{
	Use:   "intermediate [project]",
	Short: "Snapshot a project into <name>.intermediate.json",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPipeline()
		snap, err := p.Snapshot(cmd.Context(), projectFile(args[0]))
		if err != nil {
			return err
		}
		path, err := p.WriteIntermediate(snap)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var stageCmd = &cobra.Command{
	Use:   "stage [file.intermediate.json]",
	Short: "Partition faces and write the staged record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := newPipeline().Stage(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var finalizeCmd = &cobra.Command{
	Use:   "finalize [file.stage]",
	Short: "Calibrate a staged record and write the device catalogue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := newPipeline().Finalize(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(intermediateCmd)
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(finalizeCmd)
}
