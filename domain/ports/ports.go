package ports

import (
	"context"
	"time"

	"github.com/audiolane/gainctl/domain/model"
)

// LoudnessAnalyzer is the measurement collaborator. Implementations meter a
// file per EBU R128 and return the four-value measurement, or a measurement
// failure for unreadable or unsupported input.
type LoudnessAnalyzer interface {
	Measure(ctx context.Context, path string) (*model.LoudnessMeasurement, error)
}

// MetadataProber returns container metadata without processing
type MetadataProber interface {
	ProbeAudio(ctx context.Context, path string) (*model.AudioMetadata, error)
}

// ExportRequest carries everything the export collaborator needs for one
// file. Gain is applied before clipping; the clipper, when enabled, keeps
// every sample at or below the fixed threshold.
type ExportRequest struct {
	InputPath string
	OutputDir string
	Format    model.Format
	GainDB    float64
	HardClip  bool
}

// Exporter is the export collaborator. Export returns the written output
// path.
type Exporter interface {
	Export(ctx context.Context, req ExportRequest) (string, error)
}

// FFmpegExecutor is the abstraction for FFmpeg command execution
type FFmpegExecutor interface {
	// Execute runs an ffmpeg command, discarding output
	Execute(ctx context.Context, args []string) error

	// Analyze runs an ffmpeg command and returns its stderr, where the
	// analysis filters print their results
	Analyze(ctx context.Context, args []string) ([]byte, error)

	// Probe runs ffprobe and returns JSON output
	Probe(ctx context.Context, inputPath string) ([]byte, error)
}

// StorageProvider abstracts filesystem operations and input file discovery
type StorageProvider interface {
	// Exists checks if a file exists
	Exists(ctx context.Context, path string) (bool, error)

	// Size returns file size in bytes
	Size(ctx context.Context, path string) (int64, error)

	// Remove deletes a file
	Remove(ctx context.Context, path string) error

	// EnsureDir creates a directory and its parents if missing
	EnsureDir(ctx context.Context, path string) error

	// Discover expands files and directories into a sorted, de-duplicated
	// list of supported audio files
	Discover(ctx context.Context, paths []string, recursive bool) ([]string, error)
}

// Option is the functional option type
type Option func(*model.ProcessingOptions)

// WithFormat sets the output format
func WithFormat(f model.Format) Option {
	return func(o *model.ProcessingOptions) {
		o.Format = f
	}
}

// WithHardClip enables the hard clipper at the fixed threshold
func WithHardClip(enabled bool) Option {
	return func(o *model.ProcessingOptions) {
		o.HardClip = enabled
	}
}

// WithDryRun disables export; results carry predictions only
func WithDryRun(enabled bool) Option {
	return func(o *model.ProcessingOptions) {
		o.DryRun = enabled
	}
}

// WithRecursive enables recursive directory discovery
func WithRecursive(enabled bool) Option {
	return func(o *model.ProcessingOptions) {
		o.Recursive = enabled
	}
}

// WithWorkers sets the number of parallel batch workers
func WithWorkers(n int) Option {
	return func(o *model.ProcessingOptions) {
		if n > 0 {
			o.Workers = n
		}
	}
}

// WithReanalysis re-measures exported files instead of predicting
func WithReanalysis(enabled bool) Option {
	return func(o *model.ProcessingOptions) {
		o.Reanalyze = enabled
	}
}

// WithTimeout bounds one run
func WithTimeout(d time.Duration) Option {
	return func(o *model.ProcessingOptions) {
		o.Timeout = d
	}
}

// WithRetry sets export retry attempts and base delay
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(o *model.ProcessingOptions) {
		o.MaxRetries = maxRetries
		o.RetryDelay = delay
	}
}
