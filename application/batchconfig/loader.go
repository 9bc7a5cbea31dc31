// Package batchconfig parses CSV and JSON batch descriptors into gain
// requests. Both serializations parse to the identical request sequence, and
// any config-level error is fatal to the run before a single file is touched.
package batchconfig

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/audiolane/gainctl/domain/model"
	pkgerrors "github.com/audiolane/gainctl/pkg/errors"
)

var csvHeader = []string{"file", "gain_db", "target_lufs"}

// Load reads a batch config from path, dispatching on the file extension.
// Returned requests preserve file order.
func Load(path string) ([]model.GainRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.NewConfigFormatError(path, 0, "cannot open config file", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(f, path)
	case ".json":
		return LoadJSON(f, path)
	default:
		return nil, pkgerrors.NewConfigFormatError(path, 0,
			fmt.Sprintf("unsupported config format %q (csv, json)", filepath.Ext(path)), nil)
	}
}

// LoadCSV parses the CSV serialization: a header row `file,gain_db,target_lufs`
// followed by one row per file. Empty numeric fields mean absent, never zero.
// The name argument only labels errors.
func LoadCSV(r io.Reader, name string) ([]model.GainRequest, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, pkgerrors.NewConfigFormatError(name, 0, "malformed CSV", err)
	}
	if len(records) == 0 {
		return nil, pkgerrors.NewConfigFormatError(name, 0, "empty config, header row required", nil)
	}

	header := records[0]
	for i, want := range csvHeader {
		if strings.ToLower(strings.TrimSpace(header[i])) != want {
			return nil, pkgerrors.NewConfigFormatError(name, 1,
				fmt.Sprintf("unexpected header %q, want %q", strings.Join(header, ","), strings.Join(csvHeader, ",")), nil)
		}
	}

	var (
		reqs    []model.GainRequest
		invalid error
	)
	for i, row := range records[1:] {
		line := i + 2 // header is line 1
		gainDB, err := optionalField(row[1])
		if err != nil {
			return nil, pkgerrors.NewConfigFormatError(name, line,
				fmt.Sprintf("gain_db %q is not a number", strings.TrimSpace(row[1])), err)
		}
		targetLUFS, err := optionalField(row[2])
		if err != nil {
			return nil, pkgerrors.NewConfigFormatError(name, line,
				fmt.Sprintf("target_lufs %q is not a number", strings.TrimSpace(row[2])), err)
		}

		req, err := buildRequest(name, line, strings.TrimSpace(row[0]), gainDB, targetLUFS)
		if err != nil {
			invalid = multierr.Append(invalid, err)
			continue
		}
		reqs = append(reqs, req)
	}
	if invalid != nil {
		return nil, invalid
	}
	return reqs, nil
}

type jsonEntry struct {
	File       string   `json:"file"`
	GainDB     *float64 `json:"gain_db"`
	TargetLUFS *float64 `json:"target_lufs"`
}

// LoadJSON parses the JSON serialization: an array of objects with a required
// `file` key and optional `gain_db` / `target_lufs` keys.
func LoadJSON(r io.Reader, name string) ([]model.GainRequest, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var entries []jsonEntry
	if err := dec.Decode(&entries); err != nil {
		return nil, pkgerrors.NewConfigFormatError(name, 0, "malformed JSON", err)
	}

	var (
		reqs    []model.GainRequest
		invalid error
	)
	for i, e := range entries {
		req, err := buildRequest(name, i+1, e.File, e.GainDB, e.TargetLUFS)
		if err != nil {
			invalid = multierr.Append(invalid, err)
			continue
		}
		reqs = append(reqs, req)
	}
	if invalid != nil {
		return nil, invalid
	}
	return reqs, nil
}

// Validate checks the assembled request sequence: duplicate file entries are
// rejected, and when knownFiles is non-nil every request must reference a
// file from that set (matched on the full path or on the base name). All
// violations are reported together.
func Validate(reqs []model.GainRequest, knownFiles []string) error {
	var errs error

	seen := make(map[string]bool, len(reqs))
	for _, req := range reqs {
		key := filepath.Clean(req.File)
		if seen[key] {
			errs = multierr.Append(errs, pkgerrors.NewConfigValidationError("", 0,
				fmt.Sprintf("duplicate entry for file %q", req.File)))
			continue
		}
		seen[key] = true
	}

	if knownFiles != nil {
		known := make(map[string]bool, 2*len(knownFiles))
		for _, f := range knownFiles {
			known[filepath.Clean(f)] = true
			known[filepath.Base(f)] = true
		}
		for _, req := range reqs {
			if !known[filepath.Clean(req.File)] && !known[filepath.Base(req.File)] {
				errs = multierr.Append(errs, pkgerrors.NewConfigValidationError("", 0,
					fmt.Sprintf("config references %q which is not among the input files", req.File)))
			}
		}
	}

	return errs
}

// optionalField parses an optional CSV numeric: empty means absent
func optionalField(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func buildRequest(name string, line int, file string, gainDB, targetLUFS *float64) (model.GainRequest, error) {
	if file == "" {
		return model.GainRequest{}, pkgerrors.NewConfigValidationError(name, line, "file is required")
	}
	if gainDB != nil && targetLUFS != nil {
		return model.GainRequest{}, pkgerrors.NewConfigValidationError(name, line,
			fmt.Sprintf("%s: gain_db and target_lufs are mutually exclusive", file))
	}

	switch {
	case gainDB != nil:
		if *gainDB < -model.MaxGainDB || *gainDB > model.MaxGainDB {
			return model.GainRequest{}, pkgerrors.NewConfigValidationError(name, line,
				fmt.Sprintf("%s: gain_db %.1f outside [%.0f, +%.0f]", file, *gainDB, -model.MaxGainDB, model.MaxGainDB))
		}
		return model.ExplicitGain(file, *gainDB), nil
	case targetLUFS != nil:
		return model.TargetLoudness(file, *targetLUFS), nil
	default:
		return model.NoChange(file), nil
	}
}
