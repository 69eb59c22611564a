// Package chaintag labels token sequences with a trained linear-chain
// Conditional Random Field.
//
//	l, _ := chaintag.Load("model.crf")
//	out, _ := l.Tag(seqs)
//	for _, tok := range out[0].Tokens {
//	    fmt.Println(tok.Tags[0], tok.Label) // "Berlin" "B-LOC"
//	}
//
// The model is immutable and shared read-only; Tag fans the sequences out
// over a worker pool and every decode is independent, so results never
// depend on scheduling.
package chaintag

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/sequencelabel/chaintag/crf"
)

// Labeler wraps a trained CRF model for concurrent sequence labeling.
type Labeler struct {
	model *crf.Model
}

// New wraps an already-constructed model.
func New(m *crf.Model) (*Labeler, error) {
	if err := m.Check(); err != nil {
		return nil, fmt.Errorf("chaintag: %w", err)
	}
	return &Labeler{model: m}, nil
}

// Load reads a text-format model file.
func Load(path string) (*Labeler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("chaintag: %w", err)
	}
	m, err := crf.Load(string(data))
	if err != nil {
		return nil, fmt.Errorf("chaintag: %w", err)
	}
	return &Labeler{model: m}, nil
}

// LoadBinary reads a split binary model directory (head + alpha files).
func LoadBinary(dir string) (*Labeler, error) {
	m, err := crf.LoadBinary(dir)
	if err != nil {
		return nil, fmt.Errorf("chaintag: %w", err)
	}
	return &Labeler{model: m}, nil
}

// Save writes the model in the text format.
func (l *Labeler) Save(path string) error {
	if err := os.WriteFile(path, []byte(l.model.String()), 0o644); err != nil {
		return fmt.Errorf("chaintag: %w", err)
	}
	return nil
}

// SaveBinary writes the model in the split binary format.
func (l *Labeler) SaveBinary(dir string) error {
	return l.model.SaveBinary(dir)
}

// Model returns the underlying model.
func (l *Labeler) Model() *crf.Model { return l.model }

// Labels returns the model's label set in index order.
func (l *Labeler) Labels() ([]string, error) {
	labels, err := l.model.Labels()
	if err != nil {
		return nil, fmt.Errorf("chaintag: %w", err)
	}
	return labels, nil
}

// Tag labels every sequence with cost factor 1.0.
func (l *Labeler) Tag(seqs []crf.Sequence) ([]crf.Sequence, error) {
	return l.TagWithCostFactor(seqs, 1.0)
}

// TagWithCostFactor decodes the sequences across a bounded worker pool. Each
// worker owns a contiguous slice of the input and writes into its own slots
// of the output, so the result is identical to a sequential
// Model.PredictWithCostFactor pass. The model is validated once up front; a
// malformed model aborts before any sequence is decoded.
func (l *Labeler) TagWithCostFactor(seqs []crf.Sequence, costFactor float64) ([]crf.Sequence, error) {
	if err := l.model.Check(); err != nil {
		return nil, fmt.Errorf("chaintag: %w", err)
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(seqs) {
		workers = len(seqs)
	}
	if workers <= 1 {
		return l.model.PredictWithCostFactor(seqs, costFactor)
	}

	per := (len(seqs) + workers - 1) / workers
	out := make([]crf.Sequence, len(seqs))
	errs := make([]error, workers)
	var wg sync.WaitGroup

	for w := range workers {
		start := w * per
		end := min(start+per, len(seqs))
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			part, err := l.model.PredictWithCostFactor(seqs[start:end], costFactor)
			if err != nil {
				errs[w] = err
				return
			}
			copy(out[start:end], part)
		}(w, start, end)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("chaintag: %w", err)
		}
	}
	return out, nil
}

// TagMarginals returns per-position label posteriors for every sequence.
func (l *Labeler) TagMarginals(seqs []crf.Sequence) ([][]map[string]float64, error) {
	out, err := l.model.PredictMarginals(seqs)
	if err != nil {
		return nil, fmt.Errorf("chaintag: %w", err)
	}
	return out, nil
}
