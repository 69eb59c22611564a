package corpus

import (
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"

	"github.com/sequencelabel/chaintag/crf"
	"github.com/sequencelabel/chaintag/internal/textutil"
)

// textSelectors are the block-level elements whose text becomes one sequence
// each. Headings and cells stay separate so tagging never crosses a visual
// boundary.
const textSelectors = "title, h1, h2, h3, h4, h5, h6, p, li, td, th, blockquote, figcaption"

// FromHTML extracts the visible text of an HTML document and returns it as
// single-column token sequences, one per block of text. Scripts, styles and
// hidden markup are dropped. The result fits models trained with xSize 1.
func FromHTML(r io.Reader) ([]crf.Sequence, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("corpus: %w", err)
	}
	doc.Find("script, style, noscript, template").Remove()

	var seqs []crf.Sequence
	doc.Find(textSelectors).Each(func(_ int, sel *goquery.Selection) {
		words := textutil.Tokenize(textutil.NormalizeWhitespaces(sel.Text()))
		if len(words) == 0 {
			return
		}
		tokens := make([]crf.Token, len(words))
		for i, w := range words {
			tokens[i] = crf.Token{Tags: []string{w}}
		}
		seqs = append(seqs, crf.Sequence{Tokens: tokens})
	})
	return seqs, nil
}
