// Command magictool exports annotated meshes to Talkit++ face catalogues.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/magic-maker/internal/config"
	"github.com/Faultbox/magic-maker/internal/host"
	"github.com/Faultbox/magic-maker/internal/logger"
	"github.com/Faultbox/magic-maker/internal/pipeline"
)

var (
	overrides config.Overrides
	cfg       *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "magictool",
	Short: "Label mesh faces and export them for Talkit++",
	Long: `magictool turns an annotated mesh project into the face catalogue used by
Talkit++ devices. Each export goes through durable stages:

  project -> <name>.intermediate.json -> <name>.stage -> <name>.talkit.json

Every stage can also be run on its own.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(overrides)
		if err != nil {
			return err
		}
		return logger.Init(cfg.Logging.Level, cfg.Logging.LogFile)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&overrides.ConfigPath, "config", "", "path to config file")
	flags.BoolVar(&overrides.Debug, "debug", false, "enable debug logging")
	flags.StringVarP(&overrides.OutputDir, "out", "o", "", "directory for exported artifacts")
	flags.StringVar(&overrides.ModelName, "name", "", "model name (defaults to the project file name)")
	flags.StringVar(&overrides.ModelIntro, "intro", "", "model introduction shown on the device")
	flags.Float64Var(&overrides.UnitSize, "unit", 0, "real-world length of one calibration unit")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Error("command failed", zap.Error(err))
		logger.Sync()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newPipeline builds a pipeline from the loaded config.
func newPipeline() *pipeline.Pipeline {
	return pipeline.New(pipeline.Options{
		OutputDir: cfg.Export.OutputDir,
		Labels:    cfg.LabelSet(),
		Targets:   cfg.Targets(),
	}, logger.Named("pipeline"))
}

// projectFile opens a project with the configured model metadata.
func projectFile(path string) *host.ProjectFile {
	return &host.ProjectFile{
		Path:        path,
		Name:        cfg.Export.ModelName,
		Description: cfg.Export.ModelIntro,
	}
}

func printResult(cmd *cobra.Command, res *pipeline.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Exported %s (run %s)\n", res.Model, res.RunID)
	fmt.Fprintf(out, "  Faces: %d (%d marked)\n", res.Faces, res.Marked)
	fmt.Fprintf(out, "  Intermediate: %s\n", res.Intermediate)
	fmt.Fprintf(out, "  Staged:       %s\n", res.Staged)
	fmt.Fprintf(out, "  Catalogue:    %s\n", res.Catalogue)
	logger.Info("export result", zap.String("run", res.RunID), zap.String("catalogue", res.Catalogue))
}
