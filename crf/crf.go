// Package crf implements a linear-chain Conditional Random Field decoder.
//
// A trained Model holds header metadata, a frozen feature dictionary and a
// dense weight vector. Decoding one Sequence pairs a FeatureIndex (which
// resolves template-derived feature keys to weight offsets) with a Tagger
// (the per-sequence lattice and Viterbi scratch). Models are immutable after
// construction and may be shared by any number of concurrent decodes.
package crf

import (
	"sort"
	"strconv"
	"strings"
)

// Token is one observation position: an ordered list of string attributes
// (word, part-of-speech, ...) plus an optional label. Tokens are treated as
// immutable; attaching a label produces a new Token.
type Token struct {
	Tags  []string
	Label string
}

// Sequence is one ordered, finite chain of tokens. Order defines the chain.
type Sequence struct {
	Tokens []Token
}

// Len returns the number of tokens.
func (s Sequence) Len() int { return len(s.Tokens) }

// WithLabels returns a new Sequence of equal length whose tokens carry the
// given labels. Tag slices are shared, not copied.
func (s Sequence) WithLabels(labels []string) Sequence {
	tokens := make([]Token, len(s.Tokens))
	for i, tok := range s.Tokens {
		tokens[i] = Token{Tags: tok.Tags, Label: labels[i]}
	}
	return Sequence{Tokens: tokens}
}

// Model is the trained CRF artifact. Head is the order-significant header:
//
//	head[0]            format version
//	head[1]            maxID, the weight vector length
//	head[2]            ySize, the label count
//	head[3]            xSize, attribute columns per token
//	head[4:4+ySize]    label strings
//	head[4+ySize:]     feature template strings
//
// Dic maps each observed feature key to the offset of its weight block in
// Alpha: ySize weights per unigram key, ySize*ySize per bigram key. The
// blocks tile Alpha exactly; Check verifies that identity. A Model is never
// mutated after construction.
type Model struct {
	Head  []string
	Dic   map[string]int
	Alpha []float64
}

// Fixed header field positions.
const (
	headVersion = iota
	headMaxID
	headYSize
	headXSize
	headFixed
)

// header is the parsed, validated view of Model.Head.
type header struct {
	version   string
	maxID     int
	ySize     int
	xSize     int
	labels    []string
	templates []template
}

// NewModel assembles a model from its three parts and verifies it is
// well-formed.
func NewModel(head []string, dic map[string]int, alpha []float64) (*Model, error) {
	m := &Model{Head: head, Dic: dic, Alpha: alpha}
	if err := m.Check(); err != nil {
		return nil, err
	}
	return m, nil
}

// Check verifies the arithmetic identity between the header, the dictionary
// and the weight vector. A nil error means the model is safe to decode with.
func (m *Model) Check() error {
	h, err := parseHeader(m.Head)
	if err != nil {
		return err
	}
	return h.validate(m.Dic, m.Alpha)
}

// Labels returns the model's label strings in index order.
func (m *Model) Labels() ([]string, error) {
	h, err := parseHeader(m.Head)
	if err != nil {
		return nil, err
	}
	return h.labels, nil
}

func parseHeader(head []string) (*header, error) {
	if len(head) < headFixed {
		return nil, formatErrorf("crf: model header has %d fields, want at least %d", len(head), headFixed)
	}
	maxID, err := strconv.Atoi(head[headMaxID])
	if err != nil || maxID < 0 {
		return nil, formatErrorf("crf: invalid weight count %q in model header", head[headMaxID])
	}
	ySize, err := strconv.Atoi(head[headYSize])
	if err != nil || ySize <= 0 {
		return nil, formatErrorf("crf: invalid label count %q in model header", head[headYSize])
	}
	xSize, err := strconv.Atoi(head[headXSize])
	if err != nil || xSize <= 0 {
		return nil, formatErrorf("crf: invalid column count %q in model header", head[headXSize])
	}
	if len(head) < headFixed+ySize {
		return nil, formatErrorf("crf: model header declares %d labels but carries %d", ySize, len(head)-headFixed)
	}
	h := &header{
		version: head[headVersion],
		maxID:   maxID,
		ySize:   ySize,
		xSize:   xSize,
		labels:  head[headFixed : headFixed+ySize],
	}
	for _, raw := range head[headFixed+ySize:] {
		tpl, err := parseTemplate(raw)
		if err != nil {
			return nil, err
		}
		for _, c := range tpl.chunks {
			if c.ref && c.col >= xSize {
				return nil, formatErrorf("crf: template %q references column %d, model has %d", raw, c.col, xSize)
			}
		}
		h.templates = append(h.templates, tpl)
	}
	return h, nil
}

// validate checks that the dictionary's weight blocks tile the weight vector
// exactly, which is what makes every Alpha lookup during decoding in-bounds.
func (h *header) validate(dic map[string]int, alpha []float64) error {
	if len(alpha) != h.maxID {
		return formatErrorf("crf: weight vector has %d values, header declares %d", len(alpha), h.maxID)
	}
	type block struct{ id, size int }
	blocks := make([]block, 0, len(dic))
	for key, id := range dic {
		if id < 0 {
			return formatErrorf("crf: negative feature ID %d for key %q", id, key)
		}
		size := h.ySize
		switch {
		case strings.HasPrefix(key, "B"):
			size = h.ySize * h.ySize
		case strings.HasPrefix(key, "U"):
		default:
			return formatErrorf("crf: feature key %q has no unigram or bigram prefix", key)
		}
		blocks = append(blocks, block{id, size})
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].id < blocks[j].id })
	next := 0
	for _, b := range blocks {
		if b.id != next {
			return formatErrorf("crf: feature ID blocks do not tile the weight vector at offset %d", next)
		}
		next += b.size
	}
	if next != h.maxID {
		return formatErrorf("crf: feature ID blocks cover %d weights, header declares %d", next, h.maxID)
	}
	return nil
}

// Predict decodes every sequence independently with cost factor 1.0 and
// returns new sequences carrying the decoded labels.
func (m *Model) Predict(seqs []Sequence) ([]Sequence, error) {
	return m.PredictWithCostFactor(seqs, 1.0)
}

// PredictWithCostFactor decodes every sequence independently: a fresh
// FeatureIndex and Tagger pair per sequence, the model shared read-only.
// The model is validated up front, so a malformed model aborts before any
// sequence is processed. Results do not depend on evaluation order.
func (m *Model) PredictWithCostFactor(seqs []Sequence, costFactor float64) ([]Sequence, error) {
	if costFactor < 0 {
		return nil, formatErrorf("crf: cost factor must be non-negative, got %v", costFactor)
	}
	if err := m.Check(); err != nil {
		return nil, err
	}
	out := make([]Sequence, len(seqs))
	for i, seq := range seqs {
		labeled, err := m.decode(seq, costFactor)
		if err != nil {
			return nil, err
		}
		out[i] = labeled
	}
	return out, nil
}

// decode runs one independent FeatureIndex+Tagger pair over one sequence.
func (m *Model) decode(seq Sequence, costFactor float64) (Sequence, error) {
	fi, err := NewFeatureIndex(m)
	if err != nil {
		return Sequence{}, err
	}
	tg := NewTagger(fi.NumLabels())
	if err := tg.SetCostFactor(costFactor); err != nil {
		return Sequence{}, err
	}
	if err := tg.Read(seq, fi); err != nil {
		return Sequence{}, err
	}
	if err := fi.BuildFeatures(tg); err != nil {
		return Sequence{}, err
	}
	if err := tg.Parse(); err != nil {
		return Sequence{}, err
	}
	labels := make([]string, seq.Len())
	for t := range labels {
		labels[t] = fi.Label(tg.path[t])
	}
	return seq.WithLabels(labels), nil
}

// PredictMarginals returns, for every sequence, per-position label
// posteriors keyed by label string. Like Predict, each sequence is decoded
// independently against the shared read-only model.
func (m *Model) PredictMarginals(seqs []Sequence) ([][]map[string]float64, error) {
	if err := m.Check(); err != nil {
		return nil, err
	}
	out := make([][]map[string]float64, len(seqs))
	for i, seq := range seqs {
		fi, err := NewFeatureIndex(m)
		if err != nil {
			return nil, err
		}
		tg := NewTagger(fi.NumLabels())
		if err := tg.Read(seq, fi); err != nil {
			return nil, err
		}
		if err := fi.BuildFeatures(tg); err != nil {
			return nil, err
		}
		marginals, err := tg.Marginals()
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]float64, seq.Len())
		for t := range rows {
			rows[t] = make(map[string]float64, fi.NumLabels())
			for y := range fi.NumLabels() {
				rows[t][fi.Label(y)] = marginals[t][y]
			}
		}
		out[i] = rows
	}
	return out, nil
}
