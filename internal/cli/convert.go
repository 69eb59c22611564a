package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sequencelabel/chaintag/crf"
)

func (c *CLI) newConvertCommand() *cobra.Command {
	var toText bool

	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a model between the text and binary formats",
		Args:  cobra.ExactArgs(2),
		Example: `  # Text model file -> binary model directory
  chaintag convert model.crf model.bin/

  # Binary model directory -> text model file
  chaintag convert model.bin/ model.crf --to-text`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if toText {
				m, err := crf.LoadBinary(args[0])
				if err != nil {
					return err
				}
				if err := os.WriteFile(args[1], []byte(m.String()), 0o644); err != nil {
					return fmt.Errorf("write model: %w", err)
				}
				slog.Info("Model converted", "from", args[0], "to", args[1], "format", "text")
				return nil
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read model: %w", err)
			}
			m, err := crf.Load(string(data))
			if err != nil {
				return err
			}
			if err := m.SaveBinary(args[1]); err != nil {
				return err
			}
			slog.Info("Model converted", "from", args[0], "to", args[1], "format", "binary")
			return nil
		},
	}

	cmd.Flags().BoolVar(&toText, "to-text", false, "Convert binary to text instead of text to binary")
	return cmd
}
