package main

import (
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [project]",
	Short: "Run every export stage for a project file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	res, err := newPipeline().Run(cmd.Context(), projectFile(args[0]))
	if err != nil {
		return err
	}
	printResult(cmd, res)
	return nil
}
