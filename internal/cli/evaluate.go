package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sequencelabel/chaintag/internal/corpus"
)

func (c *CLI) newEvaluateCommand() *cobra.Command {
	var (
		binary     bool
		costFactor float64
	)

	cmd := &cobra.Command{
		Use:   "evaluate <model> <labeled-input>",
		Short: "Evaluate model accuracy against a labeled corpus",
		Args:  cobra.ExactArgs(2),
		Example: `  chaintag evaluate model.crf gold.tsv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			labeler, err := loadLabeler(args[0], binary)
			if err != nil {
				return err
			}

			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("open corpus: %w", err)
			}
			defer f.Close()

			gold, err := corpus.Read(f, true)
			if err != nil {
				return err
			}

			start := time.Now()
			tagged, err := labeler.TagWithCostFactor(gold, costFactor)
			if err != nil {
				return err
			}
			slog.Debug("Evaluation decode completed", "sequences", len(tagged), "duration", time.Since(start))

			var tokCorrect, tokTotal, seqCorrect int
			for i, seq := range gold {
				match := true
				for j, tok := range seq.Tokens {
					tokTotal++
					if tagged[i].Tokens[j].Label == tok.Label {
						tokCorrect++
					} else {
						match = false
					}
				}
				if match {
					seqCorrect++
				}
			}

			if tokTotal > 0 {
				fmt.Printf("Token accuracy: %.1f%% (%d/%d)\n",
					float64(tokCorrect)/float64(tokTotal)*100, tokCorrect, tokTotal)
				fmt.Printf("Sequence accuracy: %.1f%% (%d/%d)\n",
					float64(seqCorrect)/float64(len(gold))*100, seqCorrect, len(gold))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&binary, "binary", false, "Load the model from a binary directory")
	cmd.Flags().Float64Var(&costFactor, "cost-factor", 1.0, "Edge potential multiplier")
	return cmd
}
