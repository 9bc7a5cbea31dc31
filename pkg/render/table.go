// Package render formats analysis and batch results for terminal output.
package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/audiolane/gainctl/domain/model"
)

// Color palette
var (
	ColorHeader = lipgloss.Color("#569FC6") // column headers
	ColorFile   = lipgloss.Color("#FFFFFF") // file names
	ColorGood   = lipgloss.Color("#4CAF50") // success / in range
	ColorWarn   = lipgloss.Color("#DDA036") // clamped / clipped
	ColorBad    = lipgloss.Color("#E95420") // errors
	ColorSubtle = lipgloss.Color("#9A9EA0") // secondary values
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorHeader)
	fileStyle   = lipgloss.NewStyle().Foreground(ColorFile)
	goodStyle   = lipgloss.NewStyle().Foreground(ColorGood)
	warnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	badStyle    = lipgloss.NewStyle().Foreground(ColorBad)
	subtleStyle = lipgloss.NewStyle().Foreground(ColorSubtle)
)

// AnalysisRow is one file's analysis outcome for display
type AnalysisRow struct {
	File        string
	Meta        *model.AudioMetadata
	Measurement *model.LoudnessMeasurement
	Err         error
}

// Analysis writes the measurement table for analyzed files
func Analysis(w io.Writer, rows []AnalysisRow) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-40s %10s %10s %10s %10s", "FILE", "I (LUFS)", "M (LUFS)", "S (LUFS)", "TP (dBTP)")))

	for _, r := range rows {
		name := truncateName(r.File, 40)
		if r.Err != nil {
			fmt.Fprintf(w, "%s %s\n", fileStyle.Render(fmt.Sprintf("%-40s", name)), badStyle.Render("error: "+r.Err.Error()))
			continue
		}
		m := r.Measurement
		fmt.Fprintf(w, "%s %s %s %s %s\n",
			fileStyle.Render(fmt.Sprintf("%-40s", name)),
			lufsCell(m.IntegratedLUFS),
			lufsCell(m.MaxMomentaryLUFS),
			lufsCell(m.MaxShortTermLUFS),
			peakCell(m.TruePeakDBTP),
		)
		if r.Meta != nil {
			fmt.Fprintf(w, "  %s\n", subtleStyle.Render(fmt.Sprintf("%s | %d Hz | %d ch | %s",
				r.Meta.Duration.Round(1e9), r.Meta.SampleRate, r.Meta.Channels, r.Meta.Codec)))
		}
	}
}

// Comparison writes the before/after table for batch results, flagging
// clamped gains and per-file failures
func Comparison(w io.Writer, results []model.PipelineResult) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-40s %10s %12s %12s  %s", "FILE", "GAIN (dB)", "I BEFORE", "I AFTER", "NOTE")))

	for _, r := range results {
		name := truncateName(r.File, 40)
		if r.Err != nil {
			fmt.Fprintf(w, "%s %s\n", fileStyle.Render(fmt.Sprintf("%-40s", name)), badStyle.Render("failed: "+r.Err.Error()))
			continue
		}

		gainText := fmt.Sprintf("%+10.1f", r.Resolved.AppliedGainDB)
		note := ""
		noteStyle := goodStyle
		switch {
		case r.Resolved.Clamped:
			note = "clamped"
			noteStyle = warnStyle
		case r.Resolved.ClipEnabled:
			note = "clip on"
			noteStyle = warnStyle
		case !r.Exported && r.OutputPath == "":
			note = "dry run"
			noteStyle = subtleStyle
		}

		fmt.Fprintf(w, "%s %s %12s %12s  %s\n",
			fileStyle.Render(fmt.Sprintf("%-40s", name)),
			subtleStyle.Render(gainText),
			lufsText(r.Before.IntegratedLUFS),
			lufsText(r.AfterPredicted.IntegratedLUFS),
			noteStyle.Render(note),
		)
	}
}

// Summary writes the final batch counters
func Summary(w io.Writer, report *model.BatchReport) {
	line := fmt.Sprintf("%d succeeded, %d failed", report.Succeeded, report.Failed)
	if report.Failed > 0 {
		fmt.Fprintln(w, badStyle.Render(line))
		return
	}
	fmt.Fprintln(w, goodStyle.Render(line))
}

func lufsCell(v float64) string {
	return subtleStyle.Render(lufsText(v))
}

func lufsText(v float64) string {
	if math.IsInf(v, -1) || math.IsNaN(v) {
		return fmt.Sprintf("%10s", "-inf")
	}
	return fmt.Sprintf("%10.1f", v)
}

func peakCell(v float64) string {
	text := fmt.Sprintf("%10.1f", v)
	if v > model.HardClipThresholdDBFS {
		return warnStyle.Render(text)
	}
	return subtleStyle.Render(text)
}

func truncateName(name string, max int) string {
	if len(name) <= max {
		return name
	}
	return "..." + name[len(name)-(max-3):]
}

// Divider returns a horizontal rule sized to the table width
func Divider() string {
	return subtleStyle.Render(strings.Repeat("─", 88))
}
