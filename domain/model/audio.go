package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Gain bound and clipper constants. The clip threshold is fixed: clipping is
// always applied after gain, never before, and never lets a sample exceed it.
const (
	MaxGainDB             = 12.0
	HardClipThresholdDBFS = -0.3
)

// Format represents a supported output format
type Format string

const (
	FormatWAV  Format = "wav"
	FormatOGG  Format = "ogg"
	FormatFLAC Format = "flac"
	FormatMP3  Format = "mp3"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatWAV:
		return FormatWAV, nil
	case FormatOGG:
		return FormatOGG, nil
	case FormatFLAC:
		return FormatFLAC, nil
	case FormatMP3:
		return FormatMP3, nil
	default:
		return "", fmt.Errorf("unsupported output format: %q (wav, ogg, flac, mp3)", s)
	}
}

// Extension returns the file extension for the format, with leading dot
func (f Format) Extension() string {
	return "." + string(f)
}

// SupportedInputExtensions lists the input extensions accepted by file
// discovery, lowercase with leading dot.
var SupportedInputExtensions = map[string]bool{
	".wav":  true,
	".ogg":  true,
	".flac": true,
}

// LoudnessMeasurement holds the EBU R128 measurements of one file. All four
// values come from the same unmodified source; the struct is never mutated
// after creation.
type LoudnessMeasurement struct {
	IntegratedLUFS   float64 // whole-file integrated loudness
	MaxMomentaryLUFS float64 // peak of 400ms-window loudness
	MaxShortTermLUFS float64 // peak of 3s-window loudness
	TruePeakDBTP     float64 // maximum inter-sample peak
}

// Silent reports whether the integrated loudness is undefined, which happens
// for silent or near-silent input. Target-loudness resolution is impossible
// for such files.
func (m LoudnessMeasurement) Silent() bool {
	return math.IsInf(m.IntegratedLUFS, -1) || math.IsNaN(m.IntegratedLUFS)
}

// Shifted returns the predicted measurement after applying gainDB. When
// clipped is true the predicted true peak is capped at the hard clip
// threshold, since the clipper runs after gain.
func (m LoudnessMeasurement) Shifted(gainDB float64, clipped bool) LoudnessMeasurement {
	out := LoudnessMeasurement{
		IntegratedLUFS:   m.IntegratedLUFS + gainDB,
		MaxMomentaryLUFS: m.MaxMomentaryLUFS + gainDB,
		MaxShortTermLUFS: m.MaxShortTermLUFS + gainDB,
		TruePeakDBTP:     m.TruePeakDBTP + gainDB,
	}
	if clipped && out.TruePeakDBTP > HardClipThresholdDBFS {
		out.TruePeakDBTP = HardClipThresholdDBFS
	}
	return out
}

func (m LoudnessMeasurement) String() string {
	return fmt.Sprintf("I: %.1f LUFS | Max M: %.1f LUFS | Max S: %.1f LUFS | TP: %.1f dBTP",
		m.IntegratedLUFS, m.MaxMomentaryLUFS, m.MaxShortTermLUFS, m.TruePeakDBTP)
}

// AudioMetadata holds container-level metadata of an audio file
type AudioMetadata struct {
	Duration   time.Duration
	SampleRate int
	Channels   int
	Codec      string
	FormatName string
	Size       int64
}

// ProcessingOptions holds batch run configuration
type ProcessingOptions struct {
	Format    Format
	HardClip  bool
	DryRun    bool
	Recursive bool

	// Workers > 1 enables parallel per-file processing. Never honored for
	// interactive runs, which require serialized prompting.
	Workers int

	// Reanalyze re-measures exported files instead of predicting their
	// loudness arithmetically.
	Reanalyze bool

	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultProcessingOptions returns sane defaults
func DefaultProcessingOptions() *ProcessingOptions {
	return &ProcessingOptions{
		Format:     FormatWAV,
		HardClip:   false,
		DryRun:     false,
		Recursive:  false,
		Workers:    1,
		Reanalyze:  false,
		Timeout:    5 * time.Minute,
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}
