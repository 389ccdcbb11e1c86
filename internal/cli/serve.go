package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"time"

	"github.com/jaa/ytbr/internal/api"
	"github.com/jaa/ytbr/internal/config"
	"github.com/jaa/ytbr/internal/engine"
	"github.com/jaa/ytbr/internal/exitcode"
	"github.com/jaa/ytbr/internal/provider"
	"github.com/spf13/cobra"
)

func newServeCommand(app *AppContext) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API for submitting and polling jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(app)
			if err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}
			if err := config.Validate(cfg); err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}

			listenAddr := addr
			if listenAddr == "" {
				listenAddr = cfg.Defaults.ServeAddr
			}
			dest, err := config.ExpandPath(cfg.Defaults.DestinationDir)
			if err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), interruptSignals()...)
			defer stop()

			emitter := newEmitter(app)
			merger := engine.NewFFmpegMerger(cfg.Defaults.MergeTool, nil)
			manager := engine.NewManager(provider.NewYouTube(), merger, emitter, "", cfg.Defaults.MaxParallelJobs)
			server := api.NewServer(ctx, manager, dest)

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start(listenAddr)
			}()
			fmt.Fprintf(app.IO.ErrOut, "listening on %s\n", listenAddr)

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return withExitCode(exitcode.RuntimeFailure, err)
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return withExitCode(exitcode.RuntimeFailure, err)
			}
			manager.Wait()
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
