// Package gain turns a per-file gain request and its loudness measurement
// into a bounded, applied gain decision.
package gain

import (
	"github.com/audiolane/gainctl/domain/model"
	"github.com/audiolane/gainctl/pkg/dbmath"
	pkgerrors "github.com/audiolane/gainctl/pkg/errors"
)

// Resolve computes the applied gain for one file.
//
// Explicit requests apply their dB value; target requests apply the
// difference between the target and the measured integrated loudness;
// no-change requests apply 0. The result is clamped to ±model.MaxGainDB.
// Clamping is non-fatal: the ResolvedGain records it, and the predicted
// loudness uses the clamped value, so a target needing more than the bound
// yields a prediction short of the target that the caller must surface.
//
// Target resolution fails when the measurement reports no usable integrated
// loudness (silent input).
func Resolve(req model.GainRequest, m model.LoudnessMeasurement, clipEnabled bool) (*model.ResolvedGain, error) {
	var applied float64

	switch req.Source() {
	case model.GainSourceExplicit:
		applied, _ = req.GainDB()

	case model.GainSourceNormalized:
		target, _ := req.TargetLUFS()
		if m.Silent() {
			return nil, pkgerrors.NewValidationError("target_lufs", target,
				"integrated loudness is undefined for this file, cannot normalize to a target")
		}
		applied = dbmath.GainForTarget(m.IntegratedLUFS, target)

	default:
		applied = 0
	}

	clamped := dbmath.Clamp(applied, -model.MaxGainDB, model.MaxGainDB)

	return &model.ResolvedGain{
		File:                    req.File,
		AppliedGainDB:           clamped,
		Source:                  req.Source(),
		Clamped:                 clamped != applied,
		PredictedIntegratedLUFS: m.IntegratedLUFS + clamped,
		ClipEnabled:             clipEnabled,
	}, nil
}
