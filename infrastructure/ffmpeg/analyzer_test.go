package ffmpeg

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/audiolane/gainctl/internal/mocks"
	pkgerrors "github.com/audiolane/gainctl/pkg/errors"
)

const ebur128Stderr = `[Parsed_ebur128_0 @ 0x5555] t: 0.4      TARGET:-23 LUFS    M: -28.5 S: -120.7     I: -28.5 LUFS       LRA:   0.0 LU
[Parsed_ebur128_0 @ 0x5555] t: 0.5      TARGET:-23 LUFS    M: -22.5 S: -22.8     I: -24.1 LUFS       LRA:   1.2 LU
[Parsed_ebur128_0 @ 0x5555] t: 0.6      TARGET:-23 LUFS    M: -23.9 S: -21.4     I: -23.8 LUFS       LRA:   1.4 LU
[Parsed_ebur128_0 @ 0x5555] Summary:

  Integrated loudness:
    I:         -23.0 LUFS
    Threshold: -33.6 LUFS
`

const loudnormStderr = `[Parsed_loudnorm_0 @ 0x5555]
{
	"input_i" : "-23.00",
	"input_tp" : "-1.20",
	"input_lra" : "5.00",
	"input_thresh" : "-33.60",
	"output_i" : "-24.10",
	"output_tp" : "-2.00",
	"output_lra" : "4.90",
	"output_thresh" : "-34.70",
	"normalization_type" : "dynamic",
	"target_offset" : "0.10"
}
`

func TestParseEBUR128(t *testing.T) {
	maxM, maxS, err := parseEBUR128(ebur128Stderr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if maxM != -22.5 {
		t.Errorf("max momentary = %v, want -22.5", maxM)
	}
	if maxS != -21.4 {
		t.Errorf("max short-term = %v, want -21.4", maxS)
	}
}

func TestParseEBUR128SummaryFallback(t *testing.T) {
	stderr := `[Parsed_ebur128_0 @ 0x5555] Summary:

  Integrated loudness:
    I:         -23.0 LUFS
`
	maxM, maxS, err := parseEBUR128(stderr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if maxM != -23.0 || maxS != -23.0 {
		t.Errorf("fallback should use integrated for both, got M=%v S=%v", maxM, maxS)
	}
}

func TestParseEBUR128NotEbur128Output(t *testing.T) {
	if _, _, err := parseEBUR128("frame=  100 fps= 25"); err == nil {
		t.Fatal("expected error for non-ebur128 output")
	}
}

func TestParseLoudnorm(t *testing.T) {
	integrated, truePeak, err := parseLoudnorm(loudnormStderr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if integrated != -23.0 {
		t.Errorf("integrated = %v, want -23.0", integrated)
	}
	if truePeak != -1.2 {
		t.Errorf("true peak = %v, want -1.2", truePeak)
	}
}

func TestParseLoudnormSilence(t *testing.T) {
	stderr := `[Parsed_loudnorm_0 @ 0x5555]
{
	"input_i" : "-inf",
	"input_tp" : "-inf",
	"input_lra" : "0.00",
	"input_thresh" : "-inf"
}
`
	integrated, truePeak, err := parseLoudnorm(stderr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsInf(integrated, -1) || !math.IsInf(truePeak, -1) {
		t.Errorf("silence should parse to -Inf, got I=%v TP=%v", integrated, truePeak)
	}
}

func TestParseLoudnormMissingBlock(t *testing.T) {
	if _, _, err := parseLoudnorm("no json here"); err == nil {
		t.Fatal("expected error for missing loudnorm block")
	}
}

func TestMeasureCombinesBothPasses(t *testing.T) {
	exec := &mocks.MockExecutor{
		AnalyzeFunc: func(_ context.Context, args []string) ([]byte, error) {
			for _, a := range args {
				if a == ebur128Filter {
					return []byte(ebur128Stderr), nil
				}
				if a == loudnormFilter {
					return []byte(loudnormStderr), nil
				}
			}
			return nil, errors.New("unexpected args")
		},
	}
	a := NewAnalyzer(exec, nil)

	m, err := a.Measure(context.Background(), "track.wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.IntegratedLUFS != -23.0 || m.TruePeakDBTP != -1.2 {
		t.Errorf("loudnorm values wrong: %+v", m)
	}
	if m.MaxMomentaryLUFS != -22.5 || m.MaxShortTermLUFS != -21.4 {
		t.Errorf("ebur128 values wrong: %+v", m)
	}
	if len(exec.AnalyzedArgs) != 2 {
		t.Errorf("expected 2 analysis passes, got %d", len(exec.AnalyzedArgs))
	}
}

func TestMeasureExecutionFailure(t *testing.T) {
	exec := &mocks.MockExecutor{
		AnalyzeFunc: func(_ context.Context, args []string) ([]byte, error) {
			return nil, pkgerrors.NewFFmpegError("ffmpeg analysis failed", args, 1, "No such file", nil)
		},
	}
	a := NewAnalyzer(exec, nil)

	_, err := a.Measure(context.Background(), "missing.wav")
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := pkgerrors.As[*pkgerrors.MeasurementError](err); !ok {
		t.Errorf("expected *MeasurementError, got %T", err)
	}
}

func TestProbeAudio(t *testing.T) {
	a := NewAnalyzer(&mocks.MockExecutor{}, nil)

	meta, err := a.ProbeAudio(context.Background(), "track.wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.SampleRate != 44100 || meta.Channels != 2 || meta.Codec != "pcm_s16le" {
		t.Errorf("unexpected metadata: %+v", meta)
	}
}
