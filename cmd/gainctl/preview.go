package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	gainctl "github.com/audiolane/gainctl"
	"github.com/audiolane/gainctl/domain/model"
	"github.com/audiolane/gainctl/pkg/render"
)

var (
	previewGainDB     float64
	previewTargetLUFS float64
	previewClip       bool
)

var previewCmd = &cobra.Command{
	Use:   "preview FILE",
	Short: "Show what a gain correction would do, without exporting",
	Long: `Measure one file and resolve the requested correction against it.
Prints the applied gain and the predicted loudness after export. Nothing is
written.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gainSet := cmd.Flags().Changed("gain")
		targetSet := cmd.Flags().Changed("target")
		if gainSet == targetSet {
			return fmt.Errorf("exactly one of --gain or --target is required")
		}

		file := args[0]
		var req model.GainRequest
		if gainSet {
			req = model.ExplicitGain(file, previewGainDB)
		} else {
			req = model.TargetLoudness(file, previewTargetLUFS)
		}

		p, cleanup, err := newProcessor()
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := p.Preview(cmd.Context(), req, previewClip)
		if err != nil {
			return err
		}

		render.Comparison(os.Stdout, []model.PipelineResult{*result})

		if result.Resolved.Clamped {
			fmt.Printf("note: correction clamped to %+.1f dB, target will not be reached\n", result.Resolved.AppliedGainDB)
		}
		if !previewClip && result.AfterPredicted.TruePeakDBTP > gainctl.HardClipThresholdDBFS {
			fmt.Printf("warning: predicted true peak %.1f dBTP exceeds %.1f dBFS, consider --clip\n",
				result.AfterPredicted.TruePeakDBTP, gainctl.HardClipThresholdDBFS)
		}
		return nil
	},
}

func init() {
	previewCmd.Flags().Float64VarP(&previewGainDB, "gain", "g", 0, "Explicit gain in dB")
	previewCmd.Flags().Float64VarP(&previewTargetLUFS, "target", "t", 0, "Target integrated loudness in LUFS")
	previewCmd.Flags().BoolVar(&previewClip, "clip", false, "Assume hard clipping at -0.3 dBFS")
}
