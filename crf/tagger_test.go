package crf

import (
	"errors"
	"testing"
)

// tieModel gives every feature the same weight so every path scores equally.
func tieModel(t *testing.T) *Model {
	t.Helper()
	m, err := NewModel(
		[]string{"100", "6", "2", "1", "A", "B", "U00:%x[0,0]", "B"},
		map[string]int{"U00:x": 0, "B": 2},
		[]float64{1.0, 1.0, 0.5, 0.5, 0.5, 0.5},
	)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestViterbiTieBreaksLowestIndex(t *testing.T) {
	m := tieModel(t)
	out, err := m.Predict([]Sequence{seq("x", "x", "x")})
	if err != nil {
		t.Fatal(err)
	}
	for i, tok := range out[0].Tokens {
		if tok.Label != "A" {
			t.Errorf("position %d decoded %q, want A (lowest label index)", i, tok.Label)
		}
	}
}

// edgeFlipModel is built so the transition weights overturn the
// per-position node decision: node scores prefer A at position 0, but the
// B->A transition is strong enough that the best path starts with B.
func edgeFlipModel(t *testing.T) *Model {
	t.Helper()
	m, err := NewModel(
		[]string{"100", "8", "2", "1", "A", "B", "U00:%x[0,0]", "B"},
		map[string]int{"U00:u": 0, "U00:v": 2, "B": 4},
		[]float64{
			1.0, 0.9, // u: A slightly preferred
			0.0, 0.0, // v: indifferent
			-5.0, -5.0, 3.0, 2.0, // AA AB BA BB
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestCostFactorOneMatchesDefault(t *testing.T) {
	m := edgeFlipModel(t)
	s := []Sequence{seq("u", "v")}
	plain, err := m.Predict(s)
	if err != nil {
		t.Fatal(err)
	}
	scaled, err := m.PredictWithCostFactor(s, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	for i := range plain[0].Tokens {
		if plain[0].Tokens[i].Label != scaled[0].Tokens[i].Label {
			t.Fatalf("cost factor 1.0 changed the decode: %v vs %v",
				labelsOf(plain[0]), labelsOf(scaled[0]))
		}
	}
	// and with these weights the transitions win: path is [B, A]
	if got := labelsOf(plain[0]); got[0] != "B" || got[1] != "A" {
		t.Errorf("labels = %v, want [B A]", got)
	}
}

func TestCostFactorZeroDropsEdges(t *testing.T) {
	m := edgeFlipModel(t)
	out, err := m.PredictWithCostFactor([]Sequence{seq("u", "v")}, 0)
	if err != nil {
		t.Fatal(err)
	}
	// without edges this is per-position argmax: u -> A, v -> tie -> A
	if got := labelsOf(out[0]); got[0] != "A" || got[1] != "A" {
		t.Errorf("labels = %v, want [A A]", got)
	}
}

func TestTaggerStateOrder(t *testing.T) {
	m := testModel(t)
	fi, err := NewFeatureIndex(m)
	if err != nil {
		t.Fatal(err)
	}

	var ise *IllegalStateError

	// Parse before Read
	tg := NewTagger(fi.NumLabels())
	if err := tg.Parse(); !errors.As(err, &ise) {
		t.Errorf("Parse on new tagger: err = %v, want *IllegalStateError", err)
	}

	// BuildFeatures before Read
	tg = NewTagger(fi.NumLabels())
	if err := fi.BuildFeatures(tg); !errors.As(err, &ise) {
		t.Errorf("BuildFeatures on new tagger: err = %v, want *IllegalStateError", err)
	}

	// Result before Parse
	tg = NewTagger(fi.NumLabels())
	if _, err := tg.Result(0); !errors.As(err, &ise) {
		t.Errorf("Result on new tagger: err = %v, want *IllegalStateError", err)
	}

	tg = NewTagger(fi.NumLabels())
	if err := tg.Read(seq("hello"), fi); err != nil {
		t.Fatal(err)
	}

	// SetCostFactor after Read
	if err := tg.SetCostFactor(2.0); !errors.As(err, &ise) {
		t.Errorf("SetCostFactor after Read: err = %v, want *IllegalStateError", err)
	}

	// Read twice
	if err := tg.Read(seq("hello"), fi); !errors.As(err, &ise) {
		t.Errorf("second Read: err = %v, want *IllegalStateError", err)
	}

	// Parse before BuildFeatures
	if err := tg.Parse(); !errors.As(err, &ise) {
		t.Errorf("Parse before BuildFeatures: err = %v, want *IllegalStateError", err)
	}

	if err := fi.BuildFeatures(tg); err != nil {
		t.Fatal(err)
	}
	if err := tg.Parse(); err != nil {
		t.Fatal(err)
	}

	// Parse twice
	if err := tg.Parse(); !errors.As(err, &ise) {
		t.Errorf("second Parse: err = %v, want *IllegalStateError", err)
	}
}

func TestTaggerEmptySequence(t *testing.T) {
	m := testModel(t)
	fi, err := NewFeatureIndex(m)
	if err != nil {
		t.Fatal(err)
	}
	tg := NewTagger(fi.NumLabels())
	if err := tg.Read(Sequence{}, fi); err != nil {
		t.Fatal(err)
	}
	if err := fi.BuildFeatures(tg); err != nil {
		t.Fatal(err)
	}
	if err := tg.Parse(); err != nil {
		t.Fatal(err)
	}
	if tg.path != nil {
		t.Errorf("path = %v, want empty", tg.path)
	}
}
