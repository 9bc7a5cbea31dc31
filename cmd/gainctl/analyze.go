package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	gainctl "github.com/audiolane/gainctl"
	"github.com/audiolane/gainctl/pkg/render"
)

var (
	analyzeRecursive bool
	analyzeJSON      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [files or directories...]",
	Short: "Measure loudness without modifying anything",
	Long: `Measure integrated, momentary and short-term loudness plus true peak
for each input file per EBU R128. Directories are expanded to the supported
audio files they contain.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, cleanup, err := newProcessor()
		if err != nil {
			return err
		}
		defer cleanup()

		results, err := p.Analyze(cmd.Context(), args, analyzeRecursive)
		if err != nil {
			return err
		}

		if analyzeJSON {
			return writeAnalysisJSON(results)
		}

		rows := make([]render.AnalysisRow, len(results))
		for i, r := range results {
			rows[i] = render.AnalysisRow{File: r.File, Meta: r.Meta, Measurement: r.Measurement, Err: r.Err}
		}
		render.Analysis(os.Stdout, rows)

		if n := countErrs(results); n > 0 {
			return fmt.Errorf("%d file(s) could not be measured", n)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVarP(&analyzeRecursive, "recursive", "r", false, "Recurse into directories")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Output measurements as JSON")
}

type analysisJSON struct {
	File             string   `json:"file"`
	IntegratedLUFS   *float64 `json:"integrated_lufs,omitempty"`
	MaxMomentaryLUFS *float64 `json:"max_momentary_lufs,omitempty"`
	MaxShortTermLUFS *float64 `json:"max_short_term_lufs,omitempty"`
	TruePeakDBTP     *float64 `json:"true_peak_dbtp,omitempty"`
	Error            string   `json:"error,omitempty"`
}

func writeAnalysisJSON(results []gainctl.FileAnalysis) error {
	out := make([]analysisJSON, len(results))
	for i, r := range results {
		out[i].File = r.File
		if r.Err != nil {
			out[i].Error = r.Err.Error()
			continue
		}
		m := r.Measurement
		out[i].IntegratedLUFS = &m.IntegratedLUFS
		out[i].MaxMomentaryLUFS = &m.MaxMomentaryLUFS
		out[i].MaxShortTermLUFS = &m.MaxShortTermLUFS
		out[i].TruePeakDBTP = &m.TruePeakDBTP
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func countErrs(results []gainctl.FileAnalysis) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
