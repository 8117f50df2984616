package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	encodeCommand := &cobra.Command{
		Use:   "encode [input image] [file to hide] [output image]",
		Short: "Hide a file in a PNG image",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := newService().EncodeFile(args[0], args[1], args[2])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Hid %d bytes in %s (capacity %d bytes, PSNR %.2f dB)\n",
				result.Hidden, args[2], result.Metadata.MaxSecretSize, result.PSNR)
			return nil
		},
	}
	RootCommand.AddCommand(encodeCommand)
}
