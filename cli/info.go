package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	infoCommand := &cobra.Command{
		Use:   "info [image]",
		Short: "Describe a PNG image and how much it can hide",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := newService().Inspect(args[0])
			if err != nil {
				return err
			}

			meta := img.Metadata()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Image dimensions: %d x %d\n", meta.Width, meta.Height)
			fmt.Fprintf(out, "Bit depth: %d\n", meta.BitDepth)
			fmt.Fprintf(out, "Pixel format: %s\n", meta.PixelFormat)
			fmt.Fprintf(out, "Pixel size: %d bytes\n", meta.BytesPerPixel)
			fmt.Fprintf(out, "Uncompressed image size: %d bytes\n", meta.GridBytes)
			fmt.Fprintf(out, "Bits hidden per image byte: %d\n", meta.BitsPerByte)
			fmt.Fprintf(out, "Maximum size of file that can be hidden: %d bytes\n", meta.MaxSecretSize)

			fmt.Fprintln(out, "Chunks:")
			for _, c := range img.Chunks() {
				fmt.Fprintf(out, "  %s: %d bytes\n", c.Type, c.Length())
			}
			total := 0
			for _, c := range img.DataChunks() {
				total += c.Length()
			}
			fmt.Fprintf(out, "  IDAT: %d bytes in %d chunks\n", total, len(img.DataChunks()))
			return nil
		},
	}
	RootCommand.AddCommand(infoCommand)
}
