package gainctl

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/audiolane/gainctl/application/interactive"
	"github.com/audiolane/gainctl/application/pipeline"
	"github.com/audiolane/gainctl/application/usecase"
	"github.com/audiolane/gainctl/domain/model"
	"github.com/audiolane/gainctl/domain/ports"
	"github.com/audiolane/gainctl/infrastructure/ffmpeg"
	"github.com/audiolane/gainctl/infrastructure/storage"
	"github.com/audiolane/gainctl/pkg/logger"
	"github.com/audiolane/gainctl/pkg/progress"
	"github.com/audiolane/gainctl/pkg/retry"
)

// Re-export types for convenient use by callers
type (
	Format              = model.Format
	LoudnessMeasurement = model.LoudnessMeasurement
	AudioMetadata       = model.AudioMetadata
	GainRequest         = model.GainRequest
	ResolvedGain        = model.ResolvedGain
	PipelineResult      = model.PipelineResult
	BatchReport         = model.BatchReport
	FileAnalysis        = usecase.FileAnalysis
	RequestSource       = pipeline.RequestSource
	ProgressUpdate      = progress.Update
	ProgressStage       = progress.Stage
)

// Re-export format and stage constants
const (
	FormatWAV  = model.FormatWAV
	FormatOGG  = model.FormatOGG
	FormatFLAC = model.FormatFLAC
	FormatMP3  = model.FormatMP3

	MaxGainDB             = model.MaxGainDB
	HardClipThresholdDBFS = model.HardClipThresholdDBFS

	StageMeasure   = progress.StageMeasure
	StageResolve   = progress.StageResolve
	StageExport    = progress.StageExport
	StageReanalyze = progress.StageReanalyze
	StageDone      = progress.StageDone
)

// Re-export request constructors and option functions
var (
	NoChange       = model.NoChange
	ExplicitGain   = model.ExplicitGain
	TargetLoudness = model.TargetLoudness

	WithFormat     = ports.WithFormat
	WithHardClip   = ports.WithHardClip
	WithDryRun     = ports.WithDryRun
	WithRecursive  = ports.WithRecursive
	WithWorkers    = ports.WithWorkers
	WithReanalysis = ports.WithReanalysis
	WithTimeout    = ports.WithTimeout
	WithRetry      = ports.WithRetry
)

// Config holds top-level configuration for the processor
type Config struct {
	// FFmpegPath is the path to ffmpeg binary (auto-detected if empty)
	FFmpegPath string

	// FFprobePath is the path to ffprobe binary (auto-detected if empty)
	FFprobePath string

	// Logger is an optional custom logger. Uses production zap if nil.
	Logger *logger.Logger

	// ZapLogger allows passing a *zap.Logger directly
	ZapLogger *zap.Logger

	// ProgressCh is an optional channel for receiving progress updates
	ProgressCh chan<- ProgressUpdate

	// Workers sets the number of parallel batch workers (default: 1)
	Workers int

	// RetryConfig overrides default export retry behavior
	RetryConfig *retry.Config
}

// Processor is the main entry point
type Processor struct {
	service *usecase.GainService
	log     *logger.Logger
}

// New creates a new Processor with the given configuration
func New(cfg Config) (*Processor, error) {
	log := cfg.Logger
	if log == nil && cfg.ZapLogger != nil {
		log = logger.FromZap(cfg.ZapLogger)
	}
	if log == nil {
		var err error
		log, err = logger.New(false)
		if err != nil {
			return nil, err
		}
	}

	exec, err := ffmpeg.NewExecutor(ffmpeg.ExecutorConfig{
		FFmpegPath:  cfg.FFmpegPath,
		FFprobePath: cfg.FFprobePath,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}

	analyzer := ffmpeg.NewAnalyzer(exec, log)
	exporter := ffmpeg.NewExporter(exec, log)
	store := storage.NewLocalStorage()

	var reporter progress.Reporter = progress.NoopReporter{}
	if cfg.ProgressCh != nil {
		reporter = progress.NewChannelReporter(cfg.ProgressCh)
	}

	retryCfg := retry.DefaultConfig()
	if cfg.RetryConfig != nil {
		retryCfg = *cfg.RetryConfig
	}

	svc, err := usecase.NewGainService(usecase.Config{
		Analyzer:    analyzer,
		Prober:      analyzer,
		Exporter:    exporter,
		Storage:     store,
		Reporter:    reporter,
		Logger:      log,
		Workers:     cfg.Workers,
		RetryConfig: retryCfg,
	})
	if err != nil {
		return nil, err
	}

	return &Processor{
		service: svc,
		log:     log,
	}, nil
}

// Discover expands files and directories into the supported input set
func (p *Processor) Discover(ctx context.Context, paths []string, recursive bool) ([]string, error) {
	return p.service.Discover(ctx, paths, recursive)
}

// Analyze measures loudness for the given files and directories
func (p *Processor) Analyze(ctx context.Context, paths []string, recursive bool) ([]FileAnalysis, error) {
	return p.service.Analyze(ctx, paths, recursive)
}

// Preview resolves one gain request against a file's measurement without
// writing output
func (p *Processor) Preview(ctx context.Context, req GainRequest, clipEnabled bool) (*PipelineResult, error) {
	return p.service.Preview(ctx, req, clipEnabled)
}

// Process runs the batch pipeline over the given paths
func (p *Processor) Process(ctx context.Context, paths []string, source RequestSource, outputDir string, opts ...ports.Option) (*BatchReport, error) {
	return p.service.Process(ctx, paths, source, outputDir, opts...)
}

// ConfigSource builds a request source from loaded batch requests
func (p *Processor) ConfigSource(reqs []GainRequest) RequestSource {
	return pipeline.NewConfigSource(reqs, p.log)
}

// InteractiveSource builds a request source that prompts on the given
// reader and writer. Use with a single worker.
func (p *Processor) InteractiveSource(in io.Reader, out io.Writer) RequestSource {
	return interactive.NewLoop(in, out, p.log)
}

// Close flushes the logger and releases resources
func (p *Processor) Close() {
	_ = p.log.Sync()
}
