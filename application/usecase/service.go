package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/audiolane/gainctl/application/gain"
	"github.com/audiolane/gainctl/application/pipeline"
	"github.com/audiolane/gainctl/domain/model"
	"github.com/audiolane/gainctl/domain/ports"
	pkgerrors "github.com/audiolane/gainctl/pkg/errors"
	"github.com/audiolane/gainctl/pkg/logger"
	"github.com/audiolane/gainctl/pkg/progress"
	"github.com/audiolane/gainctl/pkg/retry"
)

// GainService is the main application service. It discovers input files,
// measures their loudness, and runs the gain pipeline over them.
type GainService struct {
	analyzer ports.LoudnessAnalyzer
	prober   ports.MetadataProber
	exporter ports.Exporter
	storage  ports.StorageProvider
	reporter progress.Reporter
	log      *logger.Logger
	retryCfg retry.Config
	workers  int
}

// Config holds GainService configuration
type Config struct {
	Analyzer    ports.LoudnessAnalyzer
	Prober      ports.MetadataProber
	Exporter    ports.Exporter
	Storage     ports.StorageProvider
	Reporter    progress.Reporter
	Logger      *logger.Logger
	Workers     int
	RetryConfig retry.Config
}

// NewGainService creates a new GainService
func NewGainService(cfg Config) (*GainService, error) {
	if cfg.Analyzer == nil {
		return nil, fmt.Errorf("LoudnessAnalyzer is required")
	}
	if cfg.Exporter == nil {
		return nil, fmt.Errorf("Exporter is required")
	}
	if cfg.Storage == nil {
		return nil, fmt.Errorf("StorageProvider is required")
	}

	log := cfg.Logger
	if log == nil {
		var err error
		log, err = logger.New(false)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	reporter := cfg.Reporter
	if reporter == nil {
		reporter = progress.NoopReporter{}
	}

	retryCfg := cfg.RetryConfig
	if retryCfg.MaxAttempts == 0 {
		retryCfg = retry.DefaultConfig()
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &GainService{
		analyzer: cfg.Analyzer,
		prober:   cfg.Prober,
		exporter: cfg.Exporter,
		storage:  cfg.Storage,
		reporter: reporter,
		log:      log,
		retryCfg: retryCfg,
		workers:  workers,
	}, nil
}

// FileAnalysis pairs one discovered file with its metadata and measurement.
// Err is set when the file could not be measured; the rest of the batch is
// unaffected.
type FileAnalysis struct {
	File        string
	Meta        *model.AudioMetadata
	Measurement *model.LoudnessMeasurement
	Err         error
}

// Discover expands files and directories into the supported input set
func (s *GainService) Discover(ctx context.Context, paths []string, recursive bool) ([]string, error) {
	return s.storage.Discover(ctx, paths, recursive)
}

// Analyze discovers the given paths and measures each file. Per-file
// failures are recorded in the result, not returned.
func (s *GainService) Analyze(ctx context.Context, paths []string, recursive bool) ([]FileAnalysis, error) {
	files, err := s.storage.Discover(ctx, paths, recursive)
	if err != nil {
		return nil, err
	}

	s.log.Info("analyzing files", zap.Int("count", len(files)))

	out := make([]FileAnalysis, len(files))
	for i, file := range files {
		out[i] = s.analyzeOne(ctx, file)
	}
	return out, nil
}

func (s *GainService) analyzeOne(ctx context.Context, file string) FileAnalysis {
	fa := FileAnalysis{File: file}

	if s.prober != nil {
		meta, err := s.prober.ProbeAudio(ctx, file)
		if err != nil {
			s.log.Warn("probe failed", zap.String("file", file), zap.Error(err))
		} else {
			fa.Meta = meta
		}
	}

	m, err := s.analyzer.Measure(ctx, file)
	if err != nil {
		s.log.Error("measurement failed", zap.String("file", file), zap.Error(err))
		fa.Err = err
		return fa
	}
	fa.Measurement = m
	return fa
}

// Preview measures one file and resolves the requested gain without
// exporting anything. The result carries the before measurement, the
// resolved gain, and the predicted after measurement.
func (s *GainService) Preview(ctx context.Context, req model.GainRequest, clipEnabled bool) (*model.PipelineResult, error) {
	file := req.File

	exists, err := s.storage.Exists(ctx, file)
	if err == nil && !exists {
		return nil, pkgerrors.NewMeasurementError(file, "input file does not exist", nil)
	}

	before, err := s.analyzer.Measure(ctx, file)
	if err != nil {
		return nil, err
	}

	resolved, err := gain.Resolve(req, *before, clipEnabled)
	if err != nil {
		return nil, err
	}

	after := before.Shifted(resolved.AppliedGainDB, resolved.ClipEnabled)
	return &model.PipelineResult{
		File:           file,
		Before:         before,
		Resolved:       resolved,
		AfterPredicted: &after,
	}, nil
}

// Process discovers inputs and runs the full batch pipeline against the
// given request source. Options are applied on top of defaults.
func (s *GainService) Process(ctx context.Context, paths []string, source pipeline.RequestSource, outputDir string, opts ...ports.Option) (*model.BatchReport, error) {
	options := model.DefaultProcessingOptions()
	options.Workers = s.workers
	for _, o := range opts {
		o(options)
	}

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	files, err := s.storage.Discover(ctx, paths, options.Recursive)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, pkgerrors.NewValidationError("paths", fmt.Sprint(paths), "no supported audio files found")
	}

	retryCfg := s.retryCfg
	if options.MaxRetries > 0 {
		retryCfg.MaxAttempts = options.MaxRetries
	}
	if options.RetryDelay > 0 {
		retryCfg.Delay = options.RetryDelay
	}

	orch := pipeline.NewOrchestrator(s.analyzer, s.exporter, s.storage, s.reporter, retryCfg, s.log)
	return orch.Run(ctx, pipeline.RunSpec{
		Files:     files,
		Source:    source,
		OutputDir: outputDir,
		Format:    options.Format,
		HardClip:  options.HardClip,
		DryRun:    options.DryRun,
		Workers:   options.Workers,
		Reanalyze: options.Reanalyze,
	})
}
