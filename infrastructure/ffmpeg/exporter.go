package ffmpeg

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/audiolane/gainctl/domain/model"
	"github.com/audiolane/gainctl/domain/ports"
	"github.com/audiolane/gainctl/pkg/dbmath"
	pkgerrors "github.com/audiolane/gainctl/pkg/errors"
	"github.com/audiolane/gainctl/pkg/logger"
)

// Exporter writes processed audio through ffmpeg. It implements
// ports.Exporter and owns the gain-before-clip ordering: the filter chain is
// always built gain first, clipper second.
type Exporter struct {
	exec ports.FFmpegExecutor
	log  *logger.Logger
}

// NewExporter creates an exporter on top of an executor
func NewExporter(exec ports.FFmpegExecutor, log *logger.Logger) *Exporter {
	if log == nil {
		log = logger.Nop()
	}
	return &Exporter{exec: exec, log: log}
}

// Export transcodes one file with the resolved gain and clip decision,
// returning the output path.
func (e *Exporter) Export(ctx context.Context, req ports.ExportRequest) (string, error) {
	outPath := outputPath(req)

	args := []string{"-y", "-hide_banner", "-i", req.InputPath}

	fb := NewFilterChainBuilder()
	if req.GainDB != 0 {
		fb.AddGain(req.GainDB)
	}
	if req.HardClip {
		fb.AddHardClip(model.HardClipThresholdDBFS)
	}
	if !fb.IsEmpty() {
		args = append(args, "-af", fb.Build())
	}

	codecArgs, err := buildCodecArgs(req.Format)
	if err != nil {
		return "", pkgerrors.NewExportError(req.InputPath, string(req.Format), "cannot build codec args", err)
	}
	args = append(args, codecArgs...)
	args = append(args, outPath)

	e.log.Info("exporting",
		zap.String("input", req.InputPath),
		zap.String("output", outPath),
		zap.Float64("gain_db", req.GainDB),
		zap.Bool("hard_clip", req.HardClip),
	)

	if err := e.exec.Execute(ctx, args); err != nil {
		return "", pkgerrors.NewExportError(req.InputPath, string(req.Format), "ffmpeg export failed", err)
	}
	return outPath, nil
}

func outputPath(req ports.ExportRequest) string {
	base := filepath.Base(req.InputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(req.OutputDir, stem+req.Format.Extension())
}

// buildCodecArgs maps an output format to its encoder settings
func buildCodecArgs(format model.Format) ([]string, error) {
	switch format {
	case model.FormatWAV:
		return []string{"-c:a", "pcm_s16le"}, nil
	case model.FormatOGG:
		return []string{"-c:a", "libvorbis", "-q:a", "6"}, nil
	case model.FormatFLAC:
		return []string{"-c:a", "flac", "-compression_level", "5"}, nil
	case model.FormatMP3:
		return []string{"-c:a", "libmp3lame", "-b:a", "320k"}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// FilterChainBuilder constructs an ffmpeg audio filter string
type FilterChainBuilder struct {
	filters []string
}

func NewFilterChainBuilder() *FilterChainBuilder {
	return &FilterChainBuilder{}
}

// AddGain appends a volume adjustment in dB
func (b *FilterChainBuilder) AddGain(db float64) *FilterChainBuilder {
	b.filters = append(b.filters, fmt.Sprintf("volume=%.2fdB", db))
	return b
}

// AddHardClip appends a hard limiter at the given ceiling in dBFS. It must
// come after AddGain in the chain; samples never exceed the ceiling.
func (b *FilterChainBuilder) AddHardClip(ceilingDBFS float64) *FilterChainBuilder {
	limit := dbmath.DBToLinear(ceilingDBFS)
	b.filters = append(b.filters, fmt.Sprintf("alimiter=limit=%.4f:attack=0.1:release=1:level=disabled", limit))
	return b
}

func (b *FilterChainBuilder) Build() string {
	return strings.Join(b.filters, ",")
}

func (b *FilterChainBuilder) IsEmpty() bool {
	return len(b.filters) == 0
}
