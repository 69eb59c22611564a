package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// modelSummary is the JSON shape printed by the inspect command.
type modelSummary struct {
	Version  string   `json:"version"`
	Labels   []string `json:"labels"`
	Features int      `json:"features"`
	Weights  int      `json:"weights"`
}

func (c *CLI) newInspectCommand() *cobra.Command {
	var binary bool

	cmd := &cobra.Command{
		Use:   "inspect <model>",
		Short: "Print a summary of a trained model",
		Args:  cobra.ExactArgs(1),
		Example: `  chaintag inspect model.crf
  chaintag inspect model.bin/ --binary`,
		RunE: func(cmd *cobra.Command, args []string) error {
			labeler, err := loadLabeler(args[0], binary)
			if err != nil {
				return err
			}
			labels, err := labeler.Labels()
			if err != nil {
				return err
			}
			m := labeler.Model()
			summary := modelSummary{
				Version:  m.Head[0],
				Labels:   labels,
				Features: len(m.Dic),
				Weights:  len(m.Alpha),
			}
			output, _ := json.MarshalIndent(summary, "", "  ")
			fmt.Println(string(output))
			return nil
		},
	}

	cmd.Flags().BoolVar(&binary, "binary", false, "Load the model from a binary directory")
	return cmd
}
