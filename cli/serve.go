package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"png-steganography/handlers"
	"png-steganography/logging"
	"png-steganography/oops"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func init() {
	serveCommand := &cobra.Command{
		Use:   "serve",
		Short: "Serve the steganography HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gin.SetMode(gin.ReleaseMode)
			stegoHandler := handlers.NewStegoHandler(newService(), cfg.MaxUploadBytes)
			server := &http.Server{
				Addr:    cfg.Addr,
				Handler: handlers.NewRouter(stegoHandler, cfg.AllowedOrigins),
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			serverErr := make(chan error, 1)
			go func() {
				logging.Info().Str("addr", cfg.Addr).Msg("Serving the steganography API")
				logging.Info().Msg("  POST /api/v1/stego/insert   - Hide a file in a PNG (returns stego PNG)")
				logging.Info().Msg("  POST /api/v1/stego/extract  - Extract a hidden file from a PNG")
				logging.Info().Msg("  POST /api/v1/stego/capacity - Report how much a PNG can hide")
				logging.Info().Msg("  GET  /api/v1/health         - Health check")
				serverErr <- server.ListenAndServe()
			}()

			select {
			case err := <-serverErr:
				if !errors.Is(err, http.ErrServerClosed) {
					return oops.New(err, "server shut down unexpectedly")
				}
				return nil
			case <-ctx.Done():
			}

			logging.Info().Msg("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return oops.New(err, "failed to shut down cleanly")
			}
			return nil
		},
	}
	RootCommand.AddCommand(serveCommand)
}
