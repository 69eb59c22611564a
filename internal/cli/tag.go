package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sequencelabel/chaintag"
	"github.com/sequencelabel/chaintag/crf"
	"github.com/sequencelabel/chaintag/internal/corpus"
)

func (c *CLI) newTagCommand() *cobra.Command {
	var (
		binary     bool
		html       bool
		costFactor float64
		output     string
	)

	cmd := &cobra.Command{
		Use:   "tag <model> [input]",
		Short: "Label token sequences with a trained model",
		Args:  cobra.RangeArgs(1, 2),
		Example: `  # Tag a tab-separated token file
  chaintag tag model.crf input.tsv

  # Pipe tokens from stdin
  cat input.tsv | chaintag tag model.crf

  # Tag the visible text of an HTML page
  chaintag tag model.crf page.html --html

  # Use a binary model directory and a flattened decision
  chaintag tag model.bin/ input.tsv --binary --cost-factor 0.5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			labeler, err := loadLabeler(args[0], binary)
			if err != nil {
				return err
			}

			in, closeIn, err := openInput(args)
			if err != nil {
				return err
			}
			defer closeIn()

			var seqs []crf.Sequence
			if html {
				seqs, err = corpus.FromHTML(in)
			} else {
				seqs, err = corpus.Read(in, false)
			}
			if err != nil {
				return err
			}
			slog.Debug("Input read", "sequences", len(seqs))

			start := time.Now()
			tagged, err := labeler.TagWithCostFactor(seqs, costFactor)
			if err != nil {
				return err
			}
			slog.Debug("Tagging completed", "sequences", len(tagged), "duration", time.Since(start))

			out := os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return corpus.Write(out, tagged)
		},
	}

	cmd.Flags().BoolVar(&binary, "binary", false, "Load the model from a binary directory")
	cmd.Flags().BoolVar(&html, "html", false, "Treat the input as an HTML document")
	cmd.Flags().Float64Var(&costFactor, "cost-factor", 1.0, "Edge potential multiplier")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write tagged output to a file instead of stdout")
	return cmd
}

func loadLabeler(path string, binary bool) (*chaintag.Labeler, error) {
	start := time.Now()
	var (
		labeler *chaintag.Labeler
		err     error
	)
	if binary {
		labeler, err = chaintag.LoadBinary(path)
	} else {
		labeler, err = chaintag.Load(path)
	}
	if err != nil {
		return nil, err
	}
	slog.Debug("Model loaded", "path", path, "duration", time.Since(start))
	return labeler, nil
}

func openInput(args []string) (io.Reader, func(), error) {
	if len(args) < 2 {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(args[1])
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { f.Close() }, nil
}
