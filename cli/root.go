// Package cli is the command-line surface: encode, decode, info and serve.
package cli

import (
	"fmt"
	"os"

	"png-steganography/config"
	"png-steganography/filter"
	"png-steganography/logging"
	"png-steganography/pngparser"
	"png-steganography/service"

	"github.com/spf13/cobra"
)

var cfg config.Config

var RootCommand = &cobra.Command{
	Use:           "pngstego",
	Short:         "Hide a file inside the pixels of a PNG image, or get it back out",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

var (
	flagLogLevel  string
	flagFilter    string
	flagLevel     int
	flagChunkSize int
)

func init() {
	flags := RootCommand.PersistentFlags()
	flags.StringVar(&flagLogLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	flags.StringVar(&flagFilter, "filter", "", "scanline filter for written images: none, sub, up, average, paeth, adaptive")
	flags.IntVar(&flagLevel, "level", 0, "zlib compression level, -2 to 9")
	flags.IntVar(&flagChunkSize, "chunk-size", 0, "maximum IDAT chunk size in bytes")
}

func loadConfig(cmd *cobra.Command) error {
	var err error
	cfg, err = config.FromEnv()
	if err != nil {
		return err
	}

	flags := cmd.Root().PersistentFlags()
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if flags.Changed("filter") {
		t, err := filter.ParseType(flagFilter)
		if err != nil {
			return err
		}
		cfg.Filter = t
	}
	if flags.Changed("level") {
		cfg.CompressionLevel = flagLevel
	}
	if flags.Changed("chunk-size") {
		cfg.MaxChunkSize = flagChunkSize
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	return logging.Init(cfg.LogLevel, cfg.PrettyLogs)
}

func newService() *service.StegoService {
	return service.NewStegoService(pngparser.EncodeOptions{
		Filter:       cfg.Filter,
		Level:        cfg.CompressionLevel,
		MaxChunkSize: cfg.MaxChunkSize,
	})
}

// Execute runs the command line and returns the process exit status.
func Execute() int {
	if err := RootCommand.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
