package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/keagan/framesieve/pkg/util"
	"gopkg.in/yaml.v3"
)

// Report summarizes a finished run.
type Report struct {
	RunID        string        `json:"run_id" yaml:"run_id" cbor:"run_id"`
	Input        string        `json:"input" yaml:"input" cbor:"input"`
	Output       string        `json:"output" yaml:"output" cbor:"output"`
	Width        int           `json:"width" yaml:"width" cbor:"width"`
	Height       int           `json:"height" yaml:"height" cbor:"height"`
	Processed    int           `json:"processed" yaml:"processed" cbor:"processed"`
	Evaluated    int           `json:"evaluated" yaml:"evaluated" cbor:"evaluated"`
	Kept         int           `json:"kept" yaml:"kept" cbor:"kept"`
	Dropped      int           `json:"dropped" yaml:"dropped" cbor:"dropped"`
	SourceFPS    float64       `json:"source_fps" yaml:"source_fps" cbor:"source_fps"`
	OutputFPS    float64       `json:"output_fps" yaml:"output_fps" cbor:"output_fps"`
	RateFallback bool          `json:"rate_fallback" yaml:"rate_fallback" cbor:"rate_fallback"`
	Elapsed      time.Duration `json:"elapsed_ns" yaml:"elapsed" cbor:"elapsed_ns"`
}

// Reduction is the percentage of processed frames that did not make it
// into the output.
func (r *Report) Reduction() float64 {
	if r.Processed == 0 {
		return 0
	}
	return (1 - float64(r.Kept)/float64(r.Processed)) * 100
}

// reportDoc adds the derived reduction to the serialized form.
type reportDoc struct {
	Report       `yaml:",inline"`
	ReductionPct float64 `json:"reduction_pct" yaml:"reduction_pct" cbor:"reduction_pct"`
}

// WriteReport serializes r to path. The format follows the extension:
// .yaml/.yml, .cbor, otherwise JSON.
func WriteReport(path string, r *Report) error {
	doc := reportDoc{Report: *r, ReductionPct: r.Reduction()}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(util.GetExtension(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(doc)
	case ".cbor":
		data, err = cbor.Marshal(doc)
	default:
		data, err = json.MarshalIndent(doc, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := util.EnsureDir(dir); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
