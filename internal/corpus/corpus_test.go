package corpus

import (
	"bytes"
	"strings"
	"testing"
)

const labeledInput = "the\tDT\tO\ncat\tNN\tB-ANIMAL\n\nsat\tVBD\tO\n"

func TestReadLabeled(t *testing.T) {
	seqs, err := Read(strings.NewReader(labeledInput), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(seqs) != 2 {
		t.Fatalf("got %d sequences, want 2", len(seqs))
	}
	if seqs[0].Len() != 2 || seqs[1].Len() != 1 {
		t.Fatalf("lengths = %d, %d; want 2, 1", seqs[0].Len(), seqs[1].Len())
	}
	tok := seqs[0].Tokens[1]
	if tok.Tags[0] != "cat" || tok.Tags[1] != "NN" || tok.Label != "B-ANIMAL" {
		t.Errorf("token = %+v", tok)
	}
}

func TestReadUnlabeled(t *testing.T) {
	seqs, err := Read(strings.NewReader("the\tDT\ncat\tNN\n"), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(seqs) != 1 || seqs[0].Len() != 2 {
		t.Fatalf("seqs = %+v", seqs)
	}
	if seqs[0].Tokens[0].Label != "" {
		t.Errorf("unlabeled read produced label %q", seqs[0].Tokens[0].Label)
	}
	if len(seqs[0].Tokens[0].Tags) != 2 {
		t.Errorf("tags = %v, want 2 columns", seqs[0].Tokens[0].Tags)
	}
}

func TestReadRaggedColumns(t *testing.T) {
	if _, err := Read(strings.NewReader("a\tb\nc\n"), false); err == nil {
		t.Fatal("expected error for inconsistent column count")
	}
	if _, err := Read(strings.NewReader("a\n"), true); err == nil {
		t.Fatal("expected error for labeled line without label column")
	}
}

func TestWriteRoundTrip(t *testing.T) {
	seqs, err := Read(strings.NewReader(labeledInput), true)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, seqs); err != nil {
		t.Fatal(err)
	}
	again, err := Read(&buf, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != len(seqs) {
		t.Fatalf("got %d sequences, want %d", len(again), len(seqs))
	}
	for i := range seqs {
		for j := range seqs[i].Tokens {
			a, b := seqs[i].Tokens[j], again[i].Tokens[j]
			if a.Label != b.Label || strings.Join(a.Tags, "|") != strings.Join(b.Tags, "|") {
				t.Errorf("sequence %d token %d: %+v vs %+v", i, j, a, b)
			}
		}
	}
}

func TestFromHTML(t *testing.T) {
	html := `<html><head><title>News</title>
	<style>p { color: red }</style>
	<script>var x = "ignore me";</script></head>
	<body><p>Berlin is rainy today</p><p></p><li>Second block</li></body></html>`

	seqs, err := FromHTML(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	if len(seqs) != 3 {
		t.Fatalf("got %d sequences, want 3", len(seqs))
	}
	if seqs[1].Len() != 4 || seqs[1].Tokens[0].Tags[0] != "Berlin" {
		t.Errorf("paragraph tokens = %+v", seqs[1].Tokens)
	}
	for _, seq := range seqs {
		for _, tok := range seq.Tokens {
			if strings.Contains(tok.Tags[0], "ignore") || strings.Contains(tok.Tags[0], "color") {
				t.Errorf("script/style text leaked into tokens: %q", tok.Tags[0])
			}
		}
	}
}
