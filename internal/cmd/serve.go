package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/astrathh/taskify-habitory/internal/auth"
	"github.com/astrathh/taskify-habitory/internal/config"
	"github.com/astrathh/taskify-habitory/internal/handler"
	"github.com/astrathh/taskify-habitory/internal/logging"
	"github.com/astrathh/taskify-habitory/internal/router"
	"github.com/astrathh/taskify-habitory/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if addr != "" {
				cfg.ListenAddr = addr
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides LISTEN_ADDR/PORT)")
	return cmd
}

func serve(ctx context.Context, cfg config.AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	log, err := logging.NewLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer log.Close()

	loc, _ := cfg.Location()
	gin.SetMode(cfg.GinMode)

	backend, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backend.Close(context.Background())

	snapshots, closeSnapshots, err := openSnapshots(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSnapshots()

	hub := auth.NewHub()
	unsubscribe := service.DropOnSignOut(hub, snapshots)
	defer unsubscribe()

	api := handler.NewAPI(backend, handler.Options{
		Snapshots:       snapshots,
		Hub:             hub,
		Tokens:          auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL),
		Logger:          log,
		Location:        loc,
		DefaultLanguage: cfg.DefaultLanguage,
	})
	engine := router.SetupRouter(api, router.Options{
		SessionSecret: cfg.SessionSecret,
		SecureCookie:  cfg.CookieSecure,
		Logger:        log,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.ListenAddr, "driver", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("run server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}
