// Package interactive drives the per-file prompt/parse/confirm cycle used
// when no batch config is supplied. The input source is injectable so tests
// can script the operator.
package interactive

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/audiolane/gainctl/application/gain"
	"github.com/audiolane/gainctl/domain/model"
	pkgerrors "github.com/audiolane/gainctl/pkg/errors"
	"github.com/audiolane/gainctl/pkg/logger"
)

// Loop prompts for one gain decision per file. Each file's cycle is
// independent; there is no cross-file memory.
type Loop struct {
	in  *bufio.Scanner
	out io.Writer
	log *logger.Logger
}

// NewLoop creates a loop reading operator input from in and writing prompts
// to out.
func NewLoop(in io.Reader, out io.Writer, log *logger.Logger) *Loop {
	if log == nil {
		log = logger.Nop()
	}
	return &Loop{
		in:  bufio.NewScanner(in),
		out: out,
		log: log,
	}
}

// ResolveFile shows the file's measurement, prompts until the operator
// supplies parseable input, resolves it, and displays the before/after
// prediction. Parse failures re-prompt; only input exhaustion (EOF) ends the
// cycle with an error, leaving the file skipped.
func (l *Loop) ResolveFile(file string, m model.LoudnessMeasurement, clipEnabled bool) (*model.ResolvedGain, error) {
	fmt.Fprintf(l.out, "\n%s\n  %s\n", file, m)

	for {
		fmt.Fprintf(l.out, "Gain for %s (dB like '+3', '-2.5', target like '-14 LUFS', Enter = no change): ", file)

		if !l.in.Scan() {
			if err := l.in.Err(); err != nil {
				return nil, fmt.Errorf("reading operator input: %w", err)
			}
			return nil, fmt.Errorf("operator input ended before %s was resolved: %w", file, io.EOF)
		}

		req, err := ParseGainInput(file, l.in.Text())
		if err != nil {
			fmt.Fprintf(l.out, "  %v\n", err)
			continue
		}

		res, err := gain.Resolve(req, m, clipEnabled)
		if err != nil {
			// Target resolution can fail for silent input; treat it like bad
			// input for this file and re-prompt.
			fmt.Fprintf(l.out, "  %v\n", err)
			continue
		}

		fmt.Fprintf(l.out, "  %+.1f dB -> predicted %.1f LUFS\n", res.AppliedGainDB, res.PredictedIntegratedLUFS)
		if res.Clamped {
			fmt.Fprintf(l.out, "  note: correction clamped to %+.1f dB, target will not be reached\n", res.AppliedGainDB)
			l.log.Warn("gain clamped",
				zap.String("file", file),
				zap.Float64("applied_db", res.AppliedGainDB),
			)
		}
		return res, nil
	}
}

// ParseGainInput parses raw operator text into a gain request.
//
// Grammar: a signed number is an explicit gain in dB; a number followed by
// "LUFS" (case-insensitive, space optional) is a target loudness; empty input
// or a literal 0 means no change. Explicit gains outside the ±12 dB bound are
// rejected here so the operator can re-enter them.
func ParseGainInput(file, input string) (model.GainRequest, error) {
	s := strings.ToUpper(strings.TrimSpace(input))

	if s == "" || s == "0" {
		return model.NoChange(file), nil
	}

	if strings.HasSuffix(s, "LUFS") {
		target := strings.TrimSpace(strings.TrimSuffix(s, "LUFS"))
		v, err := strconv.ParseFloat(target, 64)
		if err != nil {
			return model.GainRequest{}, pkgerrors.NewParseInputError(input,
				fmt.Sprintf("invalid LUFS value %q", target))
		}
		return model.TargetLoudness(file, v), nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return model.GainRequest{}, pkgerrors.NewParseInputError(input,
			"use dB (e.g. '+3', '-2') or a target (e.g. '-14 LUFS')")
	}
	if v < -model.MaxGainDB || v > model.MaxGainDB {
		return model.GainRequest{}, pkgerrors.NewParseInputError(input,
			fmt.Sprintf("gain must be between %.0f and +%.0f dB", -model.MaxGainDB, model.MaxGainDB))
	}
	return model.ExplicitGain(file, v), nil
}
