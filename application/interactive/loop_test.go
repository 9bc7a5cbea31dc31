package interactive

import (
	"bytes"
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/audiolane/gainctl/domain/model"
	pkgerrors "github.com/audiolane/gainctl/pkg/errors"
)

var measurement = model.LoudnessMeasurement{
	IntegratedLUFS:   -20.0,
	MaxMomentaryLUFS: -17.0,
	MaxShortTermLUFS: -18.5,
	TruePeakDBTP:     -4.0,
}

func TestParseGainInput(t *testing.T) {
	cases := []struct {
		input string
		want  model.GainRequest
	}{
		{"+3", model.ExplicitGain("a.wav", 3)},
		{"-2.5", model.ExplicitGain("a.wav", -2.5)},
		{"3.5", model.ExplicitGain("a.wav", 3.5)},
		{"-14 LUFS", model.TargetLoudness("a.wav", -14)},
		{"-14LUFS", model.TargetLoudness("a.wav", -14)},
		{"-14 lufs", model.TargetLoudness("a.wav", -14)},
		{"", model.NoChange("a.wav")},
		{"   ", model.NoChange("a.wav")},
		{"0", model.NoChange("a.wav")},
	}

	for _, c := range cases {
		got, err := ParseGainInput("a.wav", c.input)
		if err != nil {
			t.Errorf("ParseGainInput(%q) error: %v", c.input, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseGainInput(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestParseGainInputErrors(t *testing.T) {
	for _, input := range []string{"loud", "++3", "13", "-12.5", "abc LUFS", "LUFS"} {
		_, err := ParseGainInput("a.wav", input)
		if err == nil {
			t.Errorf("ParseGainInput(%q) should fail", input)
			continue
		}
		if _, ok := pkgerrors.As[*pkgerrors.ParseInputError](err); !ok {
			t.Errorf("ParseGainInput(%q): expected *ParseInputError, got %T", input, err)
		}
	}
}

func TestResolveFileExplicit(t *testing.T) {
	var out bytes.Buffer
	loop := NewLoop(strings.NewReader("+3\n"), &out, nil)

	res, err := loop.ResolveFile("a.wav", measurement, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.AppliedGainDB != 3 || res.Source != model.GainSourceExplicit {
		t.Errorf("unexpected resolution: %+v", res)
	}
	if !strings.Contains(out.String(), "-17.0 LUFS") {
		t.Errorf("prompt output should show the predicted loudness, got %q", out.String())
	}
}

func TestResolveFileRetriesOnBadInput(t *testing.T) {
	var out bytes.Buffer
	loop := NewLoop(strings.NewReader("garbage\n-14 LUFS\n"), &out, nil)

	res, err := loop.ResolveFile("a.wav", measurement, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.AppliedGainDB != 6 || res.Source != model.GainSourceNormalized {
		t.Errorf("unexpected resolution after retry: %+v", res)
	}
	if !strings.Contains(out.String(), "PARSE_INPUT_ERROR") {
		t.Errorf("parse failure should be reported before re-prompting, got %q", out.String())
	}
}

func TestResolveFileEmptyInputMeansNoChange(t *testing.T) {
	var out bytes.Buffer
	loop := NewLoop(strings.NewReader("\n"), &out, nil)

	res, err := loop.ResolveFile("a.wav", measurement, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.AppliedGainDB != 0 || res.Source != model.GainSourceNone {
		t.Errorf("unexpected resolution: %+v", res)
	}
}

func TestResolveFileEOF(t *testing.T) {
	var out bytes.Buffer
	loop := NewLoop(strings.NewReader(""), &out, nil)

	_, err := loop.ResolveFile("a.wav", measurement, false)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF error, got %v", err)
	}
}

func TestResolveFileRepromptsOnSilentTarget(t *testing.T) {
	m := measurement
	m.IntegratedLUFS = math.Inf(-1)

	var out bytes.Buffer
	loop := NewLoop(strings.NewReader("-14 LUFS\n+2\n"), &out, nil)

	res, err := loop.ResolveFile("silence.wav", m, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.AppliedGainDB != 2 {
		t.Errorf("expected explicit +2 after silent-target retry, got %+v", res)
	}
	if !strings.Contains(out.String(), "VALIDATION_ERROR") {
		t.Errorf("silent-target failure should be reported, got %q", out.String())
	}
}

func TestResolveFileClampWarning(t *testing.T) {
	m := measurement
	m.IntegratedLUFS = -30.0

	var out bytes.Buffer
	loop := NewLoop(strings.NewReader("-14 LUFS\n"), &out, nil)

	res, err := loop.ResolveFile("quiet.wav", m, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Clamped {
		t.Fatal("expected clamped resolution")
	}
	if !strings.Contains(out.String(), "clamped") {
		t.Errorf("clamp must be surfaced to the operator, got %q", out.String())
	}
}
