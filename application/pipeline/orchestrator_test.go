package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/audiolane/gainctl/domain/model"
	"github.com/audiolane/gainctl/domain/ports"
	"github.com/audiolane/gainctl/internal/mocks"
	pkgerrors "github.com/audiolane/gainctl/pkg/errors"
	"github.com/audiolane/gainctl/pkg/retry"
)

func quickRetry() retry.Config {
	return retry.Config{MaxAttempts: 1, Delay: time.Millisecond, Multiplier: 1, MaxDelay: time.Millisecond}
}

func newOrchestrator(analyzer *mocks.MockAnalyzer, exporter *mocks.MockExporter, storage *mocks.MockStorage) *Orchestrator {
	if analyzer == nil {
		analyzer = &mocks.MockAnalyzer{}
	}
	if exporter == nil {
		exporter = &mocks.MockExporter{}
	}
	if storage == nil {
		storage = &mocks.MockStorage{}
	}
	return NewOrchestrator(analyzer, exporter, storage, nil, quickRetry(), nil)
}

func configSource(reqs ...model.GainRequest) *ConfigSource {
	return NewConfigSource(reqs, nil)
}

func TestRunExportsEveryFile(t *testing.T) {
	exporter := &mocks.MockExporter{}
	o := newOrchestrator(nil, exporter, nil)

	report, err := o.Run(context.Background(), RunSpec{
		Files: []string{"a.wav", "b.wav"},
		Source: configSource(
			model.ExplicitGain("a.wav", 3),
			model.TargetLoudness("b.wav", -14),
		),
		OutputDir: "out",
		Format:    model.FormatFLAC,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Succeeded != 2 || report.Failed != 0 {
		t.Fatalf("expected 2/0, got %d/%d", report.Succeeded, report.Failed)
	}
	if len(exporter.Requests) != 2 {
		t.Fatalf("expected 2 exports, got %d", len(exporter.Requests))
	}
	if exporter.Requests[0].GainDB != 3 {
		t.Errorf("expected explicit gain 3 passed to exporter, got %v", exporter.Requests[0].GainDB)
	}
	// -14 target on the mock's -20 integrated measurement
	if exporter.Requests[1].GainDB != 6 {
		t.Errorf("expected normalized gain 6 passed to exporter, got %v", exporter.Requests[1].GainDB)
	}

	for _, r := range report.Results {
		if !r.Exported {
			t.Errorf("%s should be exported", r.File)
		}
		if r.AfterPredicted == nil {
			t.Errorf("%s missing predicted measurement", r.File)
		}
	}
}

func TestRunFailureIsolation(t *testing.T) {
	analyzer := &mocks.MockAnalyzer{
		MeasureFunc: func(_ context.Context, path string) (*model.LoudnessMeasurement, error) {
			if path == "bad.wav" {
				return nil, pkgerrors.NewMeasurementError(path, "unreadable file", nil)
			}
			return &model.LoudnessMeasurement{IntegratedLUFS: -20, MaxMomentaryLUFS: -17, MaxShortTermLUFS: -18, TruePeakDBTP: -4}, nil
		},
	}
	o := newOrchestrator(analyzer, nil, nil)

	report, err := o.Run(context.Background(), RunSpec{
		Files: []string{"a.wav", "bad.wav", "c.wav"},
		Source: configSource(
			model.ExplicitGain("a.wav", 1),
			model.ExplicitGain("bad.wav", 1),
			model.ExplicitGain("c.wav", 1),
		),
		OutputDir: "out",
		Format:    model.FormatWAV,
	})
	if err != nil {
		t.Fatalf("one bad file must not abort the batch: %v", err)
	}

	if len(report.Results) != 3 {
		t.Fatalf("expected a result per file, got %d", len(report.Results))
	}
	if report.Succeeded != 2 || report.Failed != 1 {
		t.Fatalf("expected 2/1, got %d/%d", report.Succeeded, report.Failed)
	}

	bad := report.Results[1]
	if bad.File != "bad.wav" || bad.Err == nil {
		t.Errorf("expected the failure recorded on bad.wav, got %+v", bad)
	}
	if _, ok := pkgerrors.As[*pkgerrors.MeasurementError](bad.Err); !ok {
		t.Errorf("expected *MeasurementError, got %T", bad.Err)
	}
	for _, i := range []int{0, 2} {
		if report.Results[i].Err != nil || !report.Results[i].Exported {
			t.Errorf("file %s should still be processed", report.Results[i].File)
		}
	}
}

func TestRunExportFailureRecordedPerFile(t *testing.T) {
	exporter := &mocks.MockExporter{
		ExportFunc: func(_ context.Context, req ports.ExportRequest) (string, error) {
			return "", pkgerrors.NewExportError(req.InputPath, string(req.Format), "disk full", nil)
		},
	}
	o := newOrchestrator(nil, exporter, nil)

	report, err := o.Run(context.Background(), RunSpec{
		Files:     []string{"a.wav"},
		Source:    configSource(model.NoChange("a.wav")),
		OutputDir: "out",
		Format:    model.FormatMP3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Failed != 1 {
		t.Fatalf("expected 1 failure, got %d", report.Failed)
	}
	if report.Results[0].Exported {
		t.Error("failed export must not be marked exported")
	}
}

func TestRunDryRunSkipsExport(t *testing.T) {
	exporter := &mocks.MockExporter{}
	o := newOrchestrator(nil, exporter, nil)

	report, err := o.Run(context.Background(), RunSpec{
		Files:  []string{"a.wav"},
		Source: configSource(model.ExplicitGain("a.wav", 3)),
		Format: model.FormatWAV,
		DryRun: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(exporter.Requests) != 0 {
		t.Errorf("dry run must not export, got %d exports", len(exporter.Requests))
	}
	r := report.Results[0]
	if r.Exported {
		t.Error("dry run result must not be marked exported")
	}
	if r.AfterPredicted == nil || r.AfterPredicted.IntegratedLUFS != -17 {
		t.Errorf("dry run must still carry predictions, got %+v", r.AfterPredicted)
	}
}

func TestRunMissingInputFile(t *testing.T) {
	storage := &mocks.MockStorage{
		ExistsFunc: func(_ context.Context, path string) (bool, error) {
			return path != "gone.wav", nil
		},
	}
	o := newOrchestrator(nil, nil, storage)

	report, err := o.Run(context.Background(), RunSpec{
		Files:     []string{"gone.wav", "a.wav"},
		Source:    configSource(model.NoChange("gone.wav"), model.NoChange("a.wav")),
		OutputDir: "out",
		Format:    model.FormatWAV,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Results[0].Err == nil {
		t.Error("missing file must fail its own result")
	}
	if report.Results[1].Err != nil {
		t.Error("remaining files must still process")
	}
}

func TestRunPredictionCapsTruePeakWhenClipping(t *testing.T) {
	analyzer := &mocks.MockAnalyzer{
		MeasureFunc: func(_ context.Context, _ string) (*model.LoudnessMeasurement, error) {
			return &model.LoudnessMeasurement{IntegratedLUFS: -20, MaxMomentaryLUFS: -17, MaxShortTermLUFS: -18, TruePeakDBTP: -2}, nil
		},
	}
	o := newOrchestrator(analyzer, nil, nil)

	report, err := o.Run(context.Background(), RunSpec{
		Files:    []string{"a.wav"},
		Source:   configSource(model.ExplicitGain("a.wav", 6)),
		Format:   model.FormatWAV,
		HardClip: true,
		DryRun:   true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after := report.Results[0].AfterPredicted
	if after.TruePeakDBTP != model.HardClipThresholdDBFS {
		t.Errorf("clipped prediction must cap true peak at %v, got %v",
			model.HardClipThresholdDBFS, after.TruePeakDBTP)
	}
	if after.IntegratedLUFS != -14 {
		t.Errorf("expected predicted integrated -14, got %v", after.IntegratedLUFS)
	}
}

func TestRunParallelPreservesOrder(t *testing.T) {
	files := []string{"a.wav", "b.wav", "c.wav", "d.wav", "e.wav"}
	reqs := make([]model.GainRequest, len(files))
	for i, f := range files {
		reqs[i] = model.ExplicitGain(f, 1)
	}
	o := newOrchestrator(nil, nil, nil)

	report, err := o.Run(context.Background(), RunSpec{
		Files:     files,
		Source:    configSource(reqs...),
		OutputDir: "out",
		Format:    model.FormatWAV,
		Workers:   4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, r := range report.Results {
		if r.File != files[i] {
			t.Fatalf("result %d is %s, want %s", i, r.File, files[i])
		}
		if !r.Exported {
			t.Errorf("%s not exported", r.File)
		}
	}
}

func TestConfigSourceMissingEntryMeansNoChange(t *testing.T) {
	src := configSource(model.ExplicitGain("other.wav", 3))
	m := model.LoudnessMeasurement{IntegratedLUFS: -20}

	res, err := src.ResolveFile("unlisted.wav", m, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.AppliedGainDB != 0 || res.Source != model.GainSourceNone {
		t.Errorf("unlisted file must resolve to no change, got %+v", res)
	}
}

func TestConfigSourceMatchesByBaseName(t *testing.T) {
	src := configSource(model.ExplicitGain("a.wav", 3))
	m := model.LoudnessMeasurement{IntegratedLUFS: -20}

	res, err := src.ResolveFile("input/a.wav", m, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.AppliedGainDB != 3 {
		t.Errorf("expected config entry matched by base name, got %+v", res)
	}
	if res.File != "input/a.wav" {
		t.Errorf("resolution must be keyed by the enumerated path, got %q", res.File)
	}
}
