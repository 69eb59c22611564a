package crf

import "math"

// taggerState tracks the required decode order. Each Tagger is a fresh,
// independent object; there is no reset and no retry.
type taggerState int

const (
	stateNew taggerState = iota
	stateRead
	stateFeaturesBuilt
	stateParsed
)

func (s taggerState) String() string {
	switch s {
	case stateNew:
		return "New"
	case stateRead:
		return "Read"
	case stateFeaturesBuilt:
		return "FeaturesBuilt"
	case stateParsed:
		return "Parsed"
	}
	return "Unknown"
}

// Tagger is the per-sequence decode scratch: the label lattice, its node and
// edge potentials, and the Viterbi backpointers. The lattice lives in flat
// pre-sized arrays indexed by (pos*L + y) and (pos*L*L + prev*L + y). A
// Tagger serves exactly one decode and owns no state that outlives it.
type Tagger struct {
	state      taggerState
	nLabels    int
	costFactor float64

	seq Sequence

	// weight-block offsets attached by FeatureIndex.BuildFeatures
	nodeFeatures [][]int
	edgeFeatures [][]int

	node []float64 // [T*L] node potentials
	edge []float64 // [T*L*L] edge potentials, positions >= 1

	path  []int // decoded label indices, set by Parse
	score float64
}

// NewTagger creates a tagger for a lattice with nLabels labels per position
// and cost factor 1.0.
func NewTagger(nLabels int) *Tagger {
	return &Tagger{nLabels: nLabels, costFactor: 1.0}
}

// SetCostFactor sets the non-negative scalar applied to every edge potential
// before decoding. 1.0 reproduces the model's raw decision; 0 reduces
// decoding to independent per-position maximization. Node potentials are
// never scaled. Must be called before Read.
func (t *Tagger) SetCostFactor(c float64) error {
	if t.state != stateNew {
		return &IllegalStateError{Op: "SetCostFactor", State: t.state.String()}
	}
	t.costFactor = c
	return nil
}

// Read allocates the lattice for the sequence: one node per (position,
// label) and one edge per (position, previous label, label) for positions
// past the first.
func (t *Tagger) Read(seq Sequence, index *FeatureIndex) error {
	if t.state != stateNew {
		return &IllegalStateError{Op: "Read", State: t.state.String()}
	}
	if index.NumLabels() != t.nLabels {
		return formatErrorf("crf: tagger built for %d labels, index has %d", t.nLabels, index.NumLabels())
	}
	T := seq.Len()
	L := t.nLabels
	t.seq = seq
	t.nodeFeatures = make([][]int, T)
	t.edgeFeatures = make([][]int, T)
	t.node = make([]float64, T*L)
	t.edge = make([]float64, T*L*L)
	t.state = stateRead
	return nil
}

// fillPotentials sums the weights of the active feature blocks into the
// lattice. Unigram block offsets carry one weight per label, bigram offsets
// one per (previous label, label) pair. The cost factor scales edges only.
func (t *Tagger) fillPotentials(alpha []float64) {
	L := t.nLabels
	for pos, feats := range t.nodeFeatures {
		base := pos * L
		for _, id := range feats {
			for y := range L {
				t.node[base+y] += alpha[id+y]
			}
		}
	}
	for pos, feats := range t.edgeFeatures {
		base := pos * L * L
		for _, id := range feats {
			for i := range L * L {
				t.edge[base+i] += alpha[id+i]
			}
		}
	}
	if t.costFactor != 1.0 {
		for i := range t.edge {
			t.edge[i] *= t.costFactor
		}
	}
}

// Parse runs Viterbi over the lattice: a forward pass recording, for each
// (position, label), the best cumulative score over all previous labels and
// its backpointer, then a backward pass from the best terminal node. Ties
// break toward the lowest label index so decodes are reproducible. An empty
// sequence parses to an empty path.
func (t *Tagger) Parse() error {
	if t.state != stateFeaturesBuilt {
		return &IllegalStateError{Op: "Parse", State: t.state.String()}
	}
	T := t.seq.Len()
	L := t.nLabels
	if T == 0 {
		t.path = nil
		t.score = 0
		t.state = stateParsed
		return nil
	}

	delta := make([]float64, T*L)
	psi := make([]int, T*L)
	copy(delta[:L], t.node[:L])

	for pos := 1; pos < T; pos++ {
		prevBase := (pos - 1) * L
		nodeBase := pos * L
		edgeBase := pos * L * L
		for y := range L {
			best := math.Inf(-1)
			bestPrev := 0
			for prev := range L {
				// strict > keeps the lowest previous index on ties
				if s := delta[prevBase+prev] + t.edge[edgeBase+prev*L+y]; s > best {
					best = s
					bestPrev = prev
				}
			}
			delta[nodeBase+y] = best + t.node[nodeBase+y]
			psi[nodeBase+y] = bestPrev
		}
	}

	best := math.Inf(-1)
	bestY := 0
	for y := range L {
		if delta[(T-1)*L+y] > best {
			best = delta[(T-1)*L+y]
			bestY = y
		}
	}
	t.score = best

	t.path = make([]int, T)
	t.path[T-1] = bestY
	for pos := T - 1; pos > 0; pos-- {
		t.path[pos-1] = psi[pos*L+t.path[pos]]
	}
	t.state = stateParsed
	return nil
}

// Result returns the decoded label index at a position. Valid only after
// Parse has completed.
func (t *Tagger) Result(pos int) (int, error) {
	if t.state != stateParsed {
		return 0, &IllegalStateError{Op: "Result", State: t.state.String()}
	}
	return t.path[pos], nil
}

// BestScore returns the cumulative score of the decoded path.
func (t *Tagger) BestScore() (float64, error) {
	if t.state != stateParsed {
		return 0, &IllegalStateError{Op: "BestScore", State: t.state.String()}
	}
	return t.score, nil
}
