package usecase

import (
	"context"
	"testing"

	"github.com/audiolane/gainctl/application/pipeline"
	"github.com/audiolane/gainctl/domain/model"
	"github.com/audiolane/gainctl/internal/mocks"
	pkgerrors "github.com/audiolane/gainctl/pkg/errors"
	"github.com/audiolane/gainctl/pkg/logger"
)

func newService(t *testing.T, analyzer *mocks.MockAnalyzer, exporter *mocks.MockExporter, storage *mocks.MockStorage) *GainService {
	t.Helper()
	svc, err := NewGainService(Config{
		Analyzer: analyzer,
		Exporter: exporter,
		Storage:  storage,
		Logger:   logger.Nop(),
	})
	if err != nil {
		t.Fatalf("NewGainService() error = %v", err)
	}
	return svc
}

func TestNewGainServiceRequiresCollaborators(t *testing.T) {
	_, err := NewGainService(Config{Exporter: &mocks.MockExporter{}, Storage: &mocks.MockStorage{}})
	if err == nil {
		t.Error("expected error without analyzer")
	}
	_, err = NewGainService(Config{Analyzer: &mocks.MockAnalyzer{}, Storage: &mocks.MockStorage{}})
	if err == nil {
		t.Error("expected error without exporter")
	}
	_, err = NewGainService(Config{Analyzer: &mocks.MockAnalyzer{}, Exporter: &mocks.MockExporter{}})
	if err == nil {
		t.Error("expected error without storage")
	}
}

func TestAnalyzeMeasuresDiscoveredFiles(t *testing.T) {
	analyzer := &mocks.MockAnalyzer{}
	storage := &mocks.MockStorage{
		DiscoverFunc: func(_ context.Context, _ []string, _ bool) ([]string, error) {
			return []string{"a.wav", "b.flac"}, nil
		},
	}
	svc := newService(t, analyzer, &mocks.MockExporter{}, storage)

	results, err := svc.Analyze(context.Background(), []string{"music"}, false)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("%s: unexpected error %v", r.File, r.Err)
		}
		if r.Measurement == nil || r.Measurement.IntegratedLUFS != -20.0 {
			t.Errorf("%s: measurement not recorded", r.File)
		}
	}
}

func TestAnalyzeIsolatesMeasurementFailure(t *testing.T) {
	analyzer := &mocks.MockAnalyzer{
		MeasureFunc: func(_ context.Context, path string) (*model.LoudnessMeasurement, error) {
			if path == "bad.wav" {
				return nil, pkgerrors.NewMeasurementError(path, "corrupt stream", nil)
			}
			return &model.LoudnessMeasurement{IntegratedLUFS: -18.0, MaxMomentaryLUFS: -15.0, MaxShortTermLUFS: -16.0, TruePeakDBTP: -3.0}, nil
		},
	}
	storage := &mocks.MockStorage{
		DiscoverFunc: func(_ context.Context, _ []string, _ bool) ([]string, error) {
			return []string{"good.wav", "bad.wav"}, nil
		},
	}
	svc := newService(t, analyzer, &mocks.MockExporter{}, storage)

	results, err := svc.Analyze(context.Background(), []string{"music"}, false)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if results[0].Err != nil {
		t.Errorf("good.wav should succeed, got %v", results[0].Err)
	}
	if results[1].Err == nil {
		t.Error("bad.wav should carry its measurement error")
	}
}

func TestPreviewResolvesWithoutExport(t *testing.T) {
	analyzer := &mocks.MockAnalyzer{}
	exporter := &mocks.MockExporter{}
	svc := newService(t, analyzer, exporter, &mocks.MockStorage{})

	result, err := svc.Preview(context.Background(), model.TargetLoudness("track.wav", -14.0), false)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}

	if result.Resolved.AppliedGainDB != 6.0 {
		t.Errorf("AppliedGainDB = %v, want 6.0", result.Resolved.AppliedGainDB)
	}
	if result.AfterPredicted.IntegratedLUFS != -14.0 {
		t.Errorf("predicted integrated = %v, want -14.0", result.AfterPredicted.IntegratedLUFS)
	}
	if result.Exported || result.OutputPath != "" {
		t.Error("preview must not export")
	}
	if len(exporter.Requests) != 0 {
		t.Errorf("exporter called %d times during preview", len(exporter.Requests))
	}
}

func TestPreviewMissingFile(t *testing.T) {
	storage := &mocks.MockStorage{
		ExistsFunc: func(_ context.Context, _ string) (bool, error) { return false, nil },
	}
	svc := newService(t, &mocks.MockAnalyzer{}, &mocks.MockExporter{}, storage)

	_, err := svc.Preview(context.Background(), model.ExplicitGain("ghost.wav", 3.0), false)
	if _, ok := pkgerrors.As[*pkgerrors.MeasurementError](err); !ok {
		t.Errorf("expected MeasurementError, got %v", err)
	}
}

func TestProcessRunsBatch(t *testing.T) {
	analyzer := &mocks.MockAnalyzer{}
	exporter := &mocks.MockExporter{}
	storage := &mocks.MockStorage{
		DiscoverFunc: func(_ context.Context, _ []string, _ bool) ([]string, error) {
			return []string{"a.wav", "b.wav"}, nil
		},
	}
	svc := newService(t, analyzer, exporter, storage)

	source := pipeline.NewConfigSource([]model.GainRequest{
		model.ExplicitGain("a.wav", 2.0),
		model.TargetLoudness("b.wav", -16.0),
	}, logger.Nop())

	report, err := svc.Process(context.Background(), []string{"music"}, source, "out")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if report.Succeeded != 2 || report.Failed != 0 {
		t.Errorf("report = %d/%d, want 2/0", report.Succeeded, report.Failed)
	}
	if len(exporter.Requests) != 2 {
		t.Fatalf("exports = %d, want 2", len(exporter.Requests))
	}
}

func TestProcessNoFilesFound(t *testing.T) {
	storage := &mocks.MockStorage{
		DiscoverFunc: func(_ context.Context, _ []string, _ bool) ([]string, error) {
			return nil, nil
		},
	}
	svc := newService(t, &mocks.MockAnalyzer{}, &mocks.MockExporter{}, storage)

	_, err := svc.Process(context.Background(), []string{"empty"}, pipeline.NewConfigSource(nil, logger.Nop()), "out")
	if _, ok := pkgerrors.As[*pkgerrors.ValidationError](err); !ok {
		t.Errorf("expected ValidationError, got %v", err)
	}
}
