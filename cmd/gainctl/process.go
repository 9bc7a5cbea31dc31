package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	gainctl "github.com/audiolane/gainctl"
	"github.com/audiolane/gainctl/application/batchconfig"
	"github.com/audiolane/gainctl/domain/model"
	"github.com/audiolane/gainctl/pkg/render"
)

var (
	processConfig    string
	processOutputDir string
	processFormat    string
	processClip      bool
	processRecursive bool
	processDryRun    bool
	processReanalyze bool
)

var processCmd = &cobra.Command{
	Use:   "process [files or directories...]",
	Short: "Apply gain corrections and export",
	Long: `Measure each input file, resolve its gain correction, and export the
corrected audio to the output directory.

Corrections come from a batch config (--config, CSV or JSON) or, without
one, from an interactive per-file prompt. A malformed or invalid config
aborts the run before any file is touched; a failure on one file never
stops the others.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := model.ParseFormat(processFormat)
		if err != nil {
			return err
		}

		p, cleanup, err := newProcessor()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()

		var source gainctl.RequestSource
		runWorkers := workers
		if processConfig != "" {
			reqs, err := batchconfig.Load(processConfig)
			if err != nil {
				return err
			}
			// Enumerate inputs up front so config references are checked
			// against them before any file is touched
			files, err := p.Discover(ctx, args, processRecursive)
			if err != nil {
				return err
			}
			if err := batchconfig.Validate(reqs, files); err != nil {
				return err
			}
			source = p.ConfigSource(reqs)
		} else {
			// Prompting cannot overlap between files
			runWorkers = 1
			source = p.InteractiveSource(os.Stdin, os.Stdout)
		}

		report, err := p.Process(ctx, args, source, processOutputDir,
			gainctl.WithFormat(format),
			gainctl.WithHardClip(processClip),
			gainctl.WithDryRun(processDryRun),
			gainctl.WithRecursive(processRecursive),
			gainctl.WithWorkers(runWorkers),
			gainctl.WithReanalysis(processReanalyze),
		)
		if err != nil {
			return err
		}

		render.Comparison(os.Stdout, report.Results)
		render.Summary(os.Stdout, report)

		if report.Failed > 0 {
			return fmt.Errorf("%d of %d file(s) failed", report.Failed, len(report.Results))
		}
		return nil
	},
}

func init() {
	processCmd.Flags().StringVarP(&processConfig, "config", "c", "", "Batch config file (.csv or .json)")
	processCmd.Flags().StringVarP(&processOutputDir, "output", "o", "out", "Output directory")
	processCmd.Flags().StringVarP(&processFormat, "format", "f", "wav", "Output format (wav, ogg, flac, mp3)")
	processCmd.Flags().BoolVar(&processClip, "clip", false, "Hard clip at -0.3 dBFS after gain")
	processCmd.Flags().BoolVarP(&processRecursive, "recursive", "r", false, "Recurse into directories")
	processCmd.Flags().BoolVar(&processDryRun, "dry-run", false, "Resolve and predict only, export nothing")
	processCmd.Flags().BoolVar(&processReanalyze, "reanalyze", false, "Re-measure exported files instead of predicting")
}
