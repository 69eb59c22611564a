package crf

import "math"

// Marginals computes per-position label posteriors P(y_t = y | x) with the
// scaled forward-backward recursion over the same lattice potentials Parse
// decodes. Valid once features are built; it does not consume the tagger, so
// Parse may still follow.
func (t *Tagger) Marginals() ([][]float64, error) {
	if t.state != stateFeaturesBuilt && t.state != stateParsed {
		return nil, &IllegalStateError{Op: "Marginals", State: t.state.String()}
	}
	T := t.seq.Len()
	L := t.nLabels
	if T == 0 {
		return nil, nil
	}

	expNode := make([]float64, T*L)
	for i, v := range t.node {
		expNode[i] = math.Exp(v)
	}
	expEdge := make([]float64, T*L*L)
	for i, v := range t.edge {
		expEdge[i] = math.Exp(v)
	}

	// Forward pass with per-position scaling to keep values in range.
	alpha := make([]float64, T*L)
	scale := make([]float64, T)

	var sum float64
	for y := range L {
		alpha[y] = expNode[y]
		sum += alpha[y]
	}
	scale[0] = 1.0 / sum
	for y := range L {
		alpha[y] *= scale[0]
	}

	for pos := 1; pos < T; pos++ {
		prevBase := (pos - 1) * L
		base := pos * L
		edgeBase := pos * L * L
		sum = 0
		for y := range L {
			var s float64
			for prev := range L {
				s += alpha[prevBase+prev] * expEdge[edgeBase+prev*L+y]
			}
			alpha[base+y] = s * expNode[base+y]
			sum += alpha[base+y]
		}
		if sum == 0 {
			scale[pos] = 1.0
		} else {
			scale[pos] = 1.0 / sum
		}
		for y := range L {
			alpha[base+y] *= scale[pos]
		}
	}

	// Backward pass reusing the forward scale factors.
	beta := make([]float64, T*L)
	for y := range L {
		beta[(T-1)*L+y] = scale[T-1]
	}
	for pos := T - 2; pos >= 0; pos-- {
		base := pos * L
		nextBase := (pos + 1) * L
		edgeBase := (pos + 1) * L * L
		for y := range L {
			var s float64
			for next := range L {
				s += expEdge[edgeBase+y*L+next] * expNode[nextBase+next] * beta[nextBase+next]
			}
			beta[base+y] = s * scale[pos]
		}
	}

	marginals := make([][]float64, T)
	for pos := range T {
		marginals[pos] = make([]float64, L)
		for y := range L {
			marginals[pos][y] = alpha[pos*L+y] * beta[pos*L+y] / scale[pos]
		}
	}
	return marginals, nil
}
