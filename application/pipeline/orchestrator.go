package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/audiolane/gainctl/application/gain"
	"github.com/audiolane/gainctl/domain/model"
	"github.com/audiolane/gainctl/domain/ports"
	pkgerrors "github.com/audiolane/gainctl/pkg/errors"
	"github.com/audiolane/gainctl/pkg/logger"
	"github.com/audiolane/gainctl/pkg/progress"
	"github.com/audiolane/gainctl/pkg/retry"
)

// RequestSource yields the gain decision for one file once its measurement
// is known. The batch config source and the interactive loop both implement
// it.
type RequestSource interface {
	ResolveFile(file string, m model.LoudnessMeasurement, clipEnabled bool) (*model.ResolvedGain, error)
}

// ConfigSource resolves files against a loaded batch config. Files without
// an entry resolve to no change.
type ConfigSource struct {
	byPath map[string]model.GainRequest
	byBase map[string]model.GainRequest
	log    *logger.Logger
}

// NewConfigSource indexes the request sequence by cleaned path and by base
// name, matching the batch descriptor's file references against enumerated
// inputs.
func NewConfigSource(reqs []model.GainRequest, log *logger.Logger) *ConfigSource {
	if log == nil {
		log = logger.Nop()
	}
	s := &ConfigSource{
		byPath: make(map[string]model.GainRequest, len(reqs)),
		byBase: make(map[string]model.GainRequest, len(reqs)),
		log:    log,
	}
	for _, r := range reqs {
		s.byPath[filepath.Clean(r.File)] = r
		s.byBase[filepath.Base(r.File)] = r
	}
	return s
}

func (s *ConfigSource) ResolveFile(file string, m model.LoudnessMeasurement, clipEnabled bool) (*model.ResolvedGain, error) {
	req, ok := s.byPath[filepath.Clean(file)]
	if !ok {
		req, ok = s.byBase[filepath.Base(file)]
	}
	if !ok {
		s.log.Warn("no config entry for file, leaving unchanged", zap.String("file", file))
		req = model.NoChange(file)
	}
	// The request may carry the config's spelling of the path; resolve under
	// the enumerated file name so results stay keyed consistently.
	req = rekey(req, file)
	return gain.Resolve(req, m, clipEnabled)
}

func rekey(req model.GainRequest, file string) model.GainRequest {
	switch req.Source() {
	case model.GainSourceExplicit:
		db, _ := req.GainDB()
		return model.ExplicitGain(file, db)
	case model.GainSourceNormalized:
		target, _ := req.TargetLUFS()
		return model.TargetLoudness(file, target)
	default:
		return model.NoChange(file)
	}
}

// RunSpec describes one batch invocation. It is passed explicitly so
// concurrent or repeated runs share no state.
type RunSpec struct {
	// Files in enumeration order. Results preserve this order.
	Files []string

	Source    RequestSource
	OutputDir string
	Format    model.Format
	HardClip  bool
	DryRun    bool

	// Workers > 1 processes files in parallel. Callers must keep interactive
	// sources at 1 worker; prompting cannot be parallelized.
	Workers int

	// Reanalyze re-measures exported output instead of predicting.
	Reanalyze bool
}

// Orchestrator sequences measure, resolve, clip decision, and export per
// file, and owns the only cross-file state: the result accumulator.
type Orchestrator struct {
	analyzer ports.LoudnessAnalyzer
	exporter ports.Exporter
	storage  ports.StorageProvider
	reporter progress.Reporter
	retryCfg retry.Config
	log      *logger.Logger
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(analyzer ports.LoudnessAnalyzer, exporter ports.Exporter, storage ports.StorageProvider, reporter progress.Reporter, retryCfg retry.Config, log *logger.Logger) *Orchestrator {
	if reporter == nil {
		reporter = progress.NoopReporter{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if retryCfg.MaxAttempts == 0 {
		retryCfg = retry.DefaultConfig()
	}
	return &Orchestrator{
		analyzer: analyzer,
		exporter: exporter,
		storage:  storage,
		reporter: reporter,
		retryCfg: retryCfg,
		log:      log,
	}
}

// Run executes the batch. A failure on one file is recorded in that file's
// result and never aborts the rest; only setup failures (such as an
// uncreatable output directory) return an error.
func (o *Orchestrator) Run(ctx context.Context, spec RunSpec) (*model.BatchReport, error) {
	if !spec.DryRun && spec.OutputDir != "" {
		if err := o.storage.EnsureDir(ctx, spec.OutputDir); err != nil {
			return nil, pkgerrors.NewExportError("", string(spec.Format), "cannot create output directory", err)
		}
	}

	o.log.Info("starting batch run",
		zap.Int("files", len(spec.Files)),
		zap.String("format", string(spec.Format)),
		zap.Bool("hard_clip", spec.HardClip),
		zap.Bool("dry_run", spec.DryRun),
		zap.Int("workers", spec.Workers),
	)

	results := make([]model.PipelineResult, len(spec.Files))
	if spec.Workers > 1 {
		runPool(ctx, o, spec, results)
	} else {
		for i, file := range spec.Files {
			results[i] = o.processFile(ctx, i, file, spec)
		}
	}

	report := &model.BatchReport{Results: results}
	for _, r := range results {
		if r.Err != nil {
			report.Failed++
		} else {
			report.Succeeded++
		}
	}

	o.log.Info("batch run finished",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

func (o *Orchestrator) processFile(ctx context.Context, idx int, file string, spec RunSpec) model.PipelineResult {
	result := model.PipelineResult{File: file}
	total := len(spec.Files)

	o.report(file, progress.StageMeasure, idx, total, "measuring loudness")

	exists, err := o.storage.Exists(ctx, file)
	if err == nil && !exists {
		result.Err = pkgerrors.NewMeasurementError(file, "input file does not exist", nil)
		return result
	}

	before, err := o.analyzer.Measure(ctx, file)
	if err != nil {
		o.log.Error("measurement failed", zap.String("file", file), zap.Error(err))
		result.Err = err
		return result
	}
	result.Before = before

	o.report(file, progress.StageResolve, idx, total, "resolving gain")

	resolved, err := spec.Source.ResolveFile(file, *before, spec.HardClip)
	if err != nil {
		o.log.Error("gain resolution failed", zap.String("file", file), zap.Error(err))
		result.Err = err
		return result
	}
	result.Resolved = resolved

	if resolved.Clamped {
		o.log.Warn("requested correction exceeds gain bound",
			zap.String("file", file),
			zap.Float64("applied_db", resolved.AppliedGainDB),
			zap.Float64("predicted_lufs", resolved.PredictedIntegratedLUFS),
		)
	}

	after := before.Shifted(resolved.AppliedGainDB, resolved.ClipEnabled)
	result.AfterPredicted = &after

	if spec.DryRun {
		o.report(file, progress.StageDone, idx, total, "dry run, not exported")
		return result
	}

	o.report(file, progress.StageExport, idx, total, "exporting")

	var outPath string
	err = retry.Do(ctx, o.retryCfg, func() error {
		var expErr error
		outPath, expErr = o.exporter.Export(ctx, ports.ExportRequest{
			InputPath: file,
			OutputDir: spec.OutputDir,
			Format:    spec.Format,
			GainDB:    resolved.AppliedGainDB,
			HardClip:  resolved.ClipEnabled,
		})
		return expErr
	})
	if err != nil {
		o.log.Error("export failed", zap.String("file", file), zap.Error(err))
		result.Err = err
		return result
	}
	result.OutputPath = outPath
	result.Exported = true

	if spec.Reanalyze {
		o.report(file, progress.StageReanalyze, idx, total, "re-measuring output")
		measured, err := o.analyzer.Measure(ctx, outPath)
		if err != nil {
			// keep the prediction rather than failing an already-exported file
			o.log.Warn("post-export re-analysis failed, keeping prediction",
				zap.String("file", file), zap.Error(err))
		} else {
			result.AfterPredicted = measured
		}
	}

	o.report(file, progress.StageDone, idx, total, "done")
	return result
}

func (o *Orchestrator) report(file string, stage progress.Stage, idx, total int, msg string) {
	o.reporter.Report(progress.Update{
		File:      file,
		Stage:     stage,
		Index:     idx,
		Total:     total,
		Message:   msg,
		Timestamp: time.Now(),
	})
}
