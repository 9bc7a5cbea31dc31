package mocks

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/audiolane/gainctl/domain/model"
	"github.com/audiolane/gainctl/domain/ports"
)

// MockAnalyzer is a test double for ports.LoudnessAnalyzer
type MockAnalyzer struct {
	MeasureFunc func(ctx context.Context, path string) (*model.LoudnessMeasurement, error)

	mu       sync.Mutex
	Measured []string
}

func (m *MockAnalyzer) Measure(ctx context.Context, path string) (*model.LoudnessMeasurement, error) {
	m.mu.Lock()
	m.Measured = append(m.Measured, path)
	m.mu.Unlock()

	if m.MeasureFunc != nil {
		return m.MeasureFunc(ctx, path)
	}
	return &model.LoudnessMeasurement{
		IntegratedLUFS:   -20.0,
		MaxMomentaryLUFS: -17.0,
		MaxShortTermLUFS: -18.5,
		TruePeakDBTP:     -4.0,
	}, nil
}

// MockExporter is a test double for ports.Exporter
type MockExporter struct {
	ExportFunc func(ctx context.Context, req ports.ExportRequest) (string, error)

	mu       sync.Mutex
	Requests []ports.ExportRequest
}

func (m *MockExporter) Export(ctx context.Context, req ports.ExportRequest) (string, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()

	if m.ExportFunc != nil {
		return m.ExportFunc(ctx, req)
	}
	base := filepath.Base(req.InputPath)
	ext := filepath.Ext(base)
	return filepath.Join(req.OutputDir, base[:len(base)-len(ext)]+req.Format.Extension()), nil
}

// MockExecutor is a test double for ports.FFmpegExecutor
type MockExecutor struct {
	ExecuteFunc func(ctx context.Context, args []string) error
	AnalyzeFunc func(ctx context.Context, args []string) ([]byte, error)
	ProbeFunc   func(ctx context.Context, inputPath string) ([]byte, error)

	mu           sync.Mutex
	ExecutedArgs [][]string
	AnalyzedArgs [][]string
}

func (m *MockExecutor) Execute(ctx context.Context, args []string) error {
	m.mu.Lock()
	m.ExecutedArgs = append(m.ExecutedArgs, args)
	m.mu.Unlock()

	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, args)
	}
	return nil
}

func (m *MockExecutor) Analyze(ctx context.Context, args []string) ([]byte, error) {
	m.mu.Lock()
	m.AnalyzedArgs = append(m.AnalyzedArgs, args)
	m.mu.Unlock()

	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, args)
	}
	return nil, nil
}

func (m *MockExecutor) Probe(ctx context.Context, inputPath string) ([]byte, error) {
	if m.ProbeFunc != nil {
		return m.ProbeFunc(ctx, inputPath)
	}
	return []byte(`{"format":{"duration":"120.5","size":"2880000","format_name":"wav"},"streams":[{"codec_name":"pcm_s16le","sample_rate":"44100","channels":2}]}`), nil
}

// MockStorage is a test double for ports.StorageProvider
type MockStorage struct {
	ExistsFunc    func(ctx context.Context, path string) (bool, error)
	SizeFunc      func(ctx context.Context, path string) (int64, error)
	RemoveFunc    func(ctx context.Context, path string) error
	EnsureDirFunc func(ctx context.Context, path string) error
	DiscoverFunc  func(ctx context.Context, paths []string, recursive bool) ([]string, error)
}

func (m *MockStorage) Exists(ctx context.Context, path string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, path)
	}
	return true, nil
}

func (m *MockStorage) Size(ctx context.Context, path string) (int64, error) {
	if m.SizeFunc != nil {
		return m.SizeFunc(ctx, path)
	}
	return 1024, nil
}

func (m *MockStorage) Remove(ctx context.Context, path string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, path)
	}
	return nil
}

func (m *MockStorage) EnsureDir(ctx context.Context, path string) error {
	if m.EnsureDirFunc != nil {
		return m.EnsureDirFunc(ctx, path)
	}
	return nil
}

func (m *MockStorage) Discover(ctx context.Context, paths []string, recursive bool) ([]string, error) {
	if m.DiscoverFunc != nil {
		return m.DiscoverFunc(ctx, paths, recursive)
	}
	return paths, nil
}
