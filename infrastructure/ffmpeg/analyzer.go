package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/audiolane/gainctl/domain/model"
	"github.com/audiolane/gainctl/domain/ports"
	pkgerrors "github.com/audiolane/gainctl/pkg/errors"
	"github.com/audiolane/gainctl/pkg/logger"
)

// The ebur128 filter logs one frame line per 100ms with momentary (M) and
// short-term (S) values; the loudnorm filter prints a JSON block with the
// integrated loudness and true peak. Two passes give the four measurements.
const (
	ebur128Filter  = "ebur128=framelog=verbose"
	loudnormFilter = "loudnorm=I=-24:TP=-2:LRA=7:print_format=json"
)

var (
	frameRe    = regexp.MustCompile(`M:\s*(-?[\d.]+|-inf)\s+S:\s*(-?[\d.]+|-inf)`)
	summaryRe  = regexp.MustCompile(`Summary:[\s\S]*?I:\s*(-?[\d.]+|-inf)\s*LUFS`)
	loudnormRe = regexp.MustCompile(`\{[^{}]*"input_i"[^{}]*\}`)
)

// Analyzer measures loudness per EBU R128 by driving ffmpeg's analysis
// filters. It implements ports.LoudnessAnalyzer and ports.MetadataProber.
type Analyzer struct {
	exec ports.FFmpegExecutor
	log  *logger.Logger
}

// NewAnalyzer creates an analyzer on top of an executor
func NewAnalyzer(exec ports.FFmpegExecutor, log *logger.Logger) *Analyzer {
	if log == nil {
		log = logger.Nop()
	}
	return &Analyzer{exec: exec, log: log}
}

// Measure runs both analysis passes over the unmodified source file
func (a *Analyzer) Measure(ctx context.Context, path string) (*model.LoudnessMeasurement, error) {
	ebur128Out, err := a.exec.Analyze(ctx, analysisArgs(path, ebur128Filter))
	if err != nil {
		return nil, pkgerrors.NewMeasurementError(path, "ebur128 analysis failed", err)
	}
	maxMomentary, maxShortTerm, err := parseEBUR128(string(ebur128Out))
	if err != nil {
		return nil, pkgerrors.NewMeasurementError(path, "cannot parse ebur128 output", err)
	}

	loudnormOut, err := a.exec.Analyze(ctx, analysisArgs(path, loudnormFilter))
	if err != nil {
		return nil, pkgerrors.NewMeasurementError(path, "loudnorm analysis failed", err)
	}
	integrated, truePeak, err := parseLoudnorm(string(loudnormOut))
	if err != nil {
		return nil, pkgerrors.NewMeasurementError(path, "cannot parse loudnorm output", err)
	}

	m := &model.LoudnessMeasurement{
		IntegratedLUFS:   integrated,
		MaxMomentaryLUFS: maxMomentary,
		MaxShortTermLUFS: maxShortTerm,
		TruePeakDBTP:     truePeak,
	}

	a.log.Debug("measured loudness",
		zap.String("file", path),
		zap.Float64("integrated_lufs", m.IntegratedLUFS),
		zap.Float64("true_peak_dbtp", m.TruePeakDBTP),
	)
	return m, nil
}

func analysisArgs(path, filter string) []string {
	return []string{
		"-hide_banner",
		"-nostats",
		"-i", path,
		"-af", filter,
		"-f", "null",
		"-",
	}
}

// parseEBUR128 scans frame lines for the maximum momentary and short-term
// loudness. When no frame lines are present (very short input) the summary's
// integrated value is used for both.
func parseEBUR128(stderr string) (maxMomentary, maxShortTerm float64, err error) {
	maxMomentary = math.Inf(-1)
	maxShortTerm = math.Inf(-1)

	for _, match := range frameRe.FindAllStringSubmatch(stderr, -1) {
		m, errM := strconv.ParseFloat(match[1], 64)
		s, errS := strconv.ParseFloat(match[2], 64)
		if errM != nil || errS != nil {
			continue
		}
		maxMomentary = math.Max(maxMomentary, m)
		maxShortTerm = math.Max(maxShortTerm, s)
	}

	if math.IsInf(maxMomentary, -1) {
		if match := summaryRe.FindStringSubmatch(stderr); match != nil {
			integrated, perr := strconv.ParseFloat(match[1], 64)
			if perr == nil {
				return integrated, integrated, nil
			}
		}
		// -inf momentary throughout is legitimate for silent input; only the
		// filter marker being absent means this was not ebur128 output.
		if !strings.Contains(stderr, "Parsed_ebur128") {
			return 0, 0, fmt.Errorf("no ebur128 measurements in ffmpeg output")
		}
	}

	return maxMomentary, maxShortTerm, nil
}

// loudnormStats maps the JSON block printed by loudnorm. Values are strings
// in ffmpeg's output, including "-inf" for silence.
type loudnormStats struct {
	InputI  string `json:"input_i"`
	InputTP string `json:"input_tp"`
}

func parseLoudnorm(stderr string) (integrated, truePeak float64, err error) {
	block := loudnormRe.FindString(stderr)
	if block == "" {
		return 0, 0, fmt.Errorf("no loudnorm JSON block in ffmpeg output")
	}

	var stats loudnormStats
	if err := json.Unmarshal([]byte(block), &stats); err != nil {
		return 0, 0, fmt.Errorf("malformed loudnorm JSON: %w", err)
	}

	integrated, err = strconv.ParseFloat(stats.InputI, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad input_i %q: %w", stats.InputI, err)
	}
	truePeak, err = strconv.ParseFloat(stats.InputTP, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad input_tp %q: %w", stats.InputTP, err)
	}
	return integrated, truePeak, nil
}

// ffprobeOutput maps key fields from ffprobe JSON
type ffprobeOutput struct {
	Format struct {
		Duration   string `json:"duration"`
		Size       string `json:"size"`
		FormatName string `json:"format_name"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
}

// ProbeAudio returns container metadata for a file
func (a *Analyzer) ProbeAudio(ctx context.Context, path string) (*model.AudioMetadata, error) {
	data, err := a.exec.Probe(ctx, path)
	if err != nil {
		return nil, pkgerrors.NewMeasurementError(path, "probe failed", err)
	}

	var probe ffprobeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, pkgerrors.NewMeasurementError(path, "cannot parse ffprobe output", err)
	}

	meta := &model.AudioMetadata{
		FormatName: probe.Format.FormatName,
	}

	var durationSec float64
	if _, err := fmt.Sscanf(probe.Format.Duration, "%f", &durationSec); err == nil {
		meta.Duration = time.Duration(durationSec * float64(time.Second))
	}
	fmt.Sscanf(probe.Format.Size, "%d", &meta.Size)

	for _, s := range probe.Streams {
		if s.CodecType != "" && s.CodecType != "audio" {
			continue
		}
		meta.Codec = s.CodecName
		meta.Channels = s.Channels
		fmt.Sscanf(s.SampleRate, "%d", &meta.SampleRate)
		break // first audio stream
	}

	return meta, nil
}
