package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	decodeCommand := &cobra.Command{
		Use:   "decode [input image] [output file]",
		Short: "Extract a file hidden in a PNG image",
		Long: "Extract a file hidden in a PNG image. Without an output file the hidden\n" +
			"file is written to the current directory under the name it was hidden with.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outPath := ""
			if len(args) == 2 {
				outPath = args[1]
			}

			written, n, err := newService().DecodeFile(args[0], outPath)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", n, written)
			return nil
		},
	}
	RootCommand.AddCommand(decodeCommand)
}
