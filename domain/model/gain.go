package model

import "fmt"

// GainSource identifies how an applied gain was decided
type GainSource string

const (
	GainSourceNone       GainSource = "none"
	GainSourceExplicit   GainSource = "explicit"
	GainSourceNormalized GainSource = "normalized"
)

// GainRequest is the per-file gain instruction. It is a tagged variant:
// exactly one of no-change, explicit gain, or target loudness. The value and
// tag are unexported so a request carrying both an explicit gain and a target
// cannot be constructed; loaders report that conflict at their own boundary.
type GainRequest struct {
	File string

	source GainSource
	value  float64
}

// NoChange returns a request that leaves the file untouched
func NoChange(file string) GainRequest {
	return GainRequest{File: file, source: GainSourceNone}
}

// ExplicitGain returns a request for a fixed gain in dB
func ExplicitGain(file string, db float64) GainRequest {
	return GainRequest{File: file, source: GainSourceExplicit, value: db}
}

// TargetLoudness returns a request to normalize to a target integrated LUFS
func TargetLoudness(file string, lufs float64) GainRequest {
	return GainRequest{File: file, source: GainSourceNormalized, value: lufs}
}

// Source returns the request variant. The zero value is a no-change request.
func (r GainRequest) Source() GainSource {
	if r.source == "" {
		return GainSourceNone
	}
	return r.source
}

// GainDB returns the explicit gain and whether the request carries one
func (r GainRequest) GainDB() (float64, bool) {
	if r.source == GainSourceExplicit {
		return r.value, true
	}
	return 0, false
}

// TargetLUFS returns the target loudness and whether the request carries one
func (r GainRequest) TargetLUFS() (float64, bool) {
	if r.source == GainSourceNormalized {
		return r.value, true
	}
	return 0, false
}

func (r GainRequest) String() string {
	switch r.Source() {
	case GainSourceExplicit:
		return fmt.Sprintf("%s: %+.1f dB", r.File, r.value)
	case GainSourceNormalized:
		return fmt.Sprintf("%s: target %.1f LUFS", r.File, r.value)
	default:
		return fmt.Sprintf("%s: no change", r.File)
	}
}

// ResolvedGain is the validated, bounded gain decision for one file.
// Immutable once created; consumed by the orchestrator to drive export and
// reporting.
type ResolvedGain struct {
	File          string
	AppliedGainDB float64 // clamped to [-MaxGainDB, +MaxGainDB]
	Source        GainSource

	// Clamped records that the requested correction exceeded the gain bound.
	// Resolution still succeeds, but the predicted loudness will not reach a
	// requested target and callers must surface that.
	Clamped bool

	PredictedIntegratedLUFS float64
	ClipEnabled             bool
}

// PipelineResult is the final per-file outcome of one batch run
type PipelineResult struct {
	File           string
	Before         *LoudnessMeasurement
	Resolved       *ResolvedGain
	AfterPredicted *LoudnessMeasurement
	OutputPath     string
	Exported       bool
	Err            error
}

// BatchReport aggregates one run's results in enumeration order
type BatchReport struct {
	Results   []PipelineResult
	Succeeded int
	Failed    int
}
