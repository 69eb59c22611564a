// Package corpus reads and writes token sequences in the tab-separated
// column format: one token per line, attribute columns joined by tabs, an
// optional label as the final column, and a blank line between sequences.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/sequencelabel/chaintag/crf"
)

// Read parses sequences from r. If labeled is true the last column of every
// line is taken as the token's label. All tokens must carry the same number
// of attribute columns.
func Read(r io.Reader, labeled bool) ([]crf.Sequence, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var seqs []crf.Sequence
	var tokens []crf.Token
	width := -1
	line := 0

	flush := func() {
		if len(tokens) > 0 {
			seqs = append(seqs, crf.Sequence{Tokens: tokens})
			tokens = nil
		}
	}

	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			flush()
			continue
		}
		cols := strings.Split(text, "\t")
		var label string
		if labeled {
			if len(cols) < 2 {
				return nil, fmt.Errorf("corpus: line %d has no label column", line)
			}
			label = cols[len(cols)-1]
			cols = cols[:len(cols)-1]
		}
		if width < 0 {
			width = len(cols)
		} else if len(cols) != width {
			return nil, fmt.Errorf("corpus: line %d has %d columns, want %d", line, len(cols), width)
		}
		tokens = append(tokens, crf.Token{Tags: cols, Label: label})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("corpus: %w", err)
	}
	flush()
	return seqs, nil
}

// Write emits sequences in the same format. A token's label, when present,
// becomes the final column.
func Write(w io.Writer, seqs []crf.Sequence) error {
	bw := bufio.NewWriter(w)
	for i, seq := range seqs {
		if i > 0 {
			fmt.Fprintln(bw)
		}
		for _, tok := range seq.Tokens {
			bw.WriteString(strings.Join(tok.Tags, "\t"))
			if tok.Label != "" {
				bw.WriteByte('\t')
				bw.WriteString(tok.Label)
			}
			bw.WriteByte('\n')
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("corpus: %w", err)
	}
	return nil
}
