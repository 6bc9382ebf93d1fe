package dispatcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfstudio/internal/artifact"
	"github.com/local/pdfstudio/internal/compress"
	"github.com/local/pdfstudio/internal/rebuild"
	"github.com/local/pdfstudio/internal/source"
)

// Runner executes one job end to end: fetch inputs, run the operation,
// persist the result artifact.
type Runner struct {
	pipeline  *compress.Pipeline
	artifacts *artifact.Store
}

func NewRunner(pipeline *compress.Pipeline, artifacts *artifact.Store) *Runner {
	return &Runner{pipeline: pipeline, artifacts: artifacts}
}

// Run executes job and returns the reference of the saved result.
func (r *Runner) Run(ctx context.Context, job Job) (string, error) {
	if len(job.Inputs) == 0 {
		return "", &ValidationError{Message: "job has no inputs"}
	}

	inputs := make([]rebuild.Input, len(job.Inputs))
	for i, in := range job.Inputs {
		data, err := source.Fetch(ctx, in.Ref)
		if err != nil {
			return "", fmt.Errorf("fetching input %s: %w", in.Name, err)
		}
		inputs[i] = rebuild.Input{Name: in.Name, Data: data}
	}

	var (
		out  []byte
		name string
		err  error
	)
	switch job.Op {
	case OpRemove:
		out, err = rebuild.Remove(inputs[0].Data, job.Order, job.Selected)
		name = derivedName(inputs[0].Name, "_modified")
	case OpExtract:
		out, err = rebuild.Extract(inputs[0].Data, job.Selected)
		name = derivedName(inputs[0].Name, "_extracted_pages")
	case OpMerge:
		if len(inputs) < 2 {
			return "", &ValidationError{Message: "merge needs at least two inputs"}
		}
		out, err = rebuild.Merge(inputs)
		name = "merged.pdf"
	case OpCompress:
		out, err = r.pipeline.Compress(ctx, inputs[0].Data, compress.Level(job.Level))
		name = derivedName(inputs[0].Name, "_compressed")
	case OpLock:
		return "", &ValidationError{Message: "lock is not supported"}
	default:
		return "", &ValidationError{Message: fmt.Sprintf("unknown operation %q", job.Op)}
	}
	if err != nil {
		return "", err
	}

	ref, err := r.artifacts.Save(ctx, job.ID, name, out)
	if err != nil {
		return "", err
	}
	log.Info().Str("job_id", job.ID).Str("op", job.Op).Str("result", ref).Int("size", len(out)).Msg("job completed")
	return ref, nil
}

// derivedName turns input.pdf into input<suffix>.pdf.
func derivedName(input, suffix string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if base == "" {
		base = "document"
	}
	return base + suffix + ".pdf"
}
