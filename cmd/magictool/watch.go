package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/magic-maker/internal/logger"
	"github.com/Faultbox/magic-maker/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [project]",
	Short: "Export a project and re-export whenever it changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p := newPipeline()
	src := projectFile(args[0])
	log := logger.Named("watch")

	export := func() {
		res, err := p.Run(ctx, src)
		if err != nil {
			log.Error("export failed", zap.String("project", src.Path), zap.Error(err))
			return
		}
		printResult(cmd, res)
	}

	w, err := watch.New(cfg.Watch.Debounce, log)
	if err != nil {
		return err
	}
	if err := w.Watch([]string{src.Path}, func(string) { export() }); err != nil {
		w.Close()
		return err
	}

	export()
	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl+C to stop)\n", src.Path)
	return w.Run(ctx)
}
