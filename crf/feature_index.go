package crf

import (
	"strconv"
	"strings"
)

// FeatureIndex binds one decode to a model's dictionary, templates and
// weight vector. It never owns the dictionary, only reads it, and is
// rebuilt for every decode call; there is no cross-call state.
type FeatureIndex struct {
	dic       map[string]int
	alpha     []float64
	labels    []string
	templates []template
}

// NewFeatureIndex parses and validates the model header against the
// dictionary and weight vector sizes, then returns an index bound to the
// model. An inconsistent model yields a *FormatError.
func NewFeatureIndex(m *Model) (*FeatureIndex, error) {
	h, err := parseHeader(m.Head)
	if err != nil {
		return nil, err
	}
	if err := h.validate(m.Dic, m.Alpha); err != nil {
		return nil, err
	}
	return &FeatureIndex{
		dic:       m.Dic,
		alpha:     m.Alpha,
		labels:    h.labels,
		templates: h.templates,
	}, nil
}

// NumLabels returns the size of the label set.
func (fi *FeatureIndex) NumLabels() int { return len(fi.labels) }

// Label returns the label string for an index.
func (fi *FeatureIndex) Label(y int) string { return fi.labels[y] }

// BuildFeatures expands every template at every lattice position of the
// tagger's sequence and attaches the resolved weight-block offsets: unigram
// offsets to nodes, bigram offsets to the edges entering each position.
// A key absent from the dictionary contributes nothing — the trained model
// has no weight for features it never observed, so unknown keys are
// zero-weight rather than an error.
func (fi *FeatureIndex) BuildFeatures(tg *Tagger) error {
	if tg.state != stateRead {
		return &IllegalStateError{Op: "BuildFeatures", State: tg.state.String()}
	}
	for t := range tg.seq.Tokens {
		for _, tpl := range fi.templates {
			id, ok := fi.dic[tpl.expand(tg.seq, t)]
			if !ok {
				continue
			}
			if tpl.bigram {
				if t > 0 {
					tg.edgeFeatures[t] = append(tg.edgeFeatures[t], id)
				}
			} else {
				tg.nodeFeatures[t] = append(tg.nodeFeatures[t], id)
			}
		}
	}
	tg.fillPotentials(fi.alpha)
	tg.state = stateFeaturesBuilt
	return nil
}

// template is one parsed feature template. Unigram templates start with 'U'
// and contribute per-label node features; bigram templates start with 'B'
// and contribute per-transition edge features. The raw form round-trips
// through the model header unchanged.
type template struct {
	raw    string
	bigram bool
	chunks []chunk
}

// chunk is either a literal run or a %x[row,col] token-attribute reference.
type chunk struct {
	literal  string
	row, col int
	ref      bool
}

func parseTemplate(raw string) (template, error) {
	if raw == "" {
		return template{}, formatErrorf("crf: empty feature template in model header")
	}
	switch raw[0] {
	case 'U', 'B':
	default:
		return template{}, formatErrorf("crf: template %q must start with U or B", raw)
	}
	tpl := template{raw: raw, bigram: raw[0] == 'B'}
	rest := raw
	for rest != "" {
		i := strings.Index(rest, "%x[")
		if i < 0 {
			tpl.chunks = append(tpl.chunks, chunk{literal: rest})
			break
		}
		if i > 0 {
			tpl.chunks = append(tpl.chunks, chunk{literal: rest[:i]})
		}
		rest = rest[i+len("%x["):]
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return template{}, formatErrorf("crf: unterminated %%x reference in template %q", raw)
		}
		parts := strings.Split(rest[:end], ",")
		if len(parts) != 2 {
			return template{}, formatErrorf("crf: malformed %%x reference in template %q", raw)
		}
		row, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return template{}, formatErrorf("crf: bad row in template %q", raw)
		}
		col, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || col < 0 {
			return template{}, formatErrorf("crf: bad column in template %q", raw)
		}
		tpl.chunks = append(tpl.chunks, chunk{row: row, col: col, ref: true})
		rest = rest[end+1:]
	}
	return tpl, nil
}

// expand derives the feature key for one position by substituting every
// %x[row,col] reference with the attribute at the window offset.
func (tpl template) expand(seq Sequence, pos int) string {
	if len(tpl.chunks) == 1 && !tpl.chunks[0].ref {
		return tpl.chunks[0].literal
	}
	var b strings.Builder
	for _, c := range tpl.chunks {
		if c.ref {
			b.WriteString(attrAt(seq, pos+c.row, c.col))
		} else {
			b.WriteString(c.literal)
		}
	}
	return b.String()
}

// attrAt resolves a window reference. Positions outside the sequence expand
// to the boundary symbols _B-1, _B-2, ... and _B+1, _B+2, ... so that keys
// near the edges stay distinct from ordinary attribute values.
func attrAt(seq Sequence, pos, col int) string {
	if pos < 0 {
		return "_B" + strconv.Itoa(pos)
	}
	if n := len(seq.Tokens); pos >= n {
		return "_B+" + strconv.Itoa(pos-n+1)
	}
	tags := seq.Tokens[pos].Tags
	if col >= len(tags) {
		return ""
	}
	return tags[col]
}
