package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/yegors/flightboard/internal/api"
	"github.com/yegors/flightboard/internal/notify"
	"github.com/yegors/flightboard/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the flight board over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.ListenAddr = addr
		}

		var hub *api.NoticeHub
		a, err := newApp(cfg, os.Stdout, func(log *logger.Logger) notify.Sink {
			hub = api.NewNoticeHub(cfg.Server.NoticeBufferSize, cfg.Server.CORSAllowedOrigins, log)
			return hub
		})
		if err != nil {
			return err
		}
		defer a.Close()

		return serve(cmd.Context(), a, hub)
	},
}

func serve(ctx context.Context, a *app, hub *api.NoticeHub) error {
	var metricsHandler http.Handler
	if a.promReg != nil {
		metricsHandler = promhttp.HandlerFor(a.promReg, promhttp.HandlerOpts{})
	}

	handler := api.NewHandler(a.registry, a.history, a.cfg.Storage.HistoryLimit, hub, a.logger)
	router := api.NewRouter(handler, metricsHandler, a.cfg, a.logger)

	server := &http.Server{
		Addr:    a.cfg.Server.ListenAddr,
		Handler: router.Routes(),
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}

func init() {
	serveCmd.Flags().String("addr", "", "Override server.listen_addr")
	rootCmd.AddCommand(serveCmd)
}
