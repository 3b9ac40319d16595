package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/core"
)

const shutdownTimeout = 10 * time.Second

// RunConfig loads config from a path and serves until SIGINT or SIGTERM.
func RunConfig(configPath string) error {
	logger := core.NewLogger("server")
	config, err := core.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return Run(ctx, config, logger)
}

// Run builds the handler and serves it until ctx is canceled.
func Run(ctx context.Context, config core.Config, logger *log.Logger) error {
	if logger == nil {
		logger = core.NewLogger("server")
	}
	handler, cleanup, err := BuildHandler(ctx, config, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if config.Endpoint != "" {
		logger.Printf("server endpoint=%s webhook_url=%s%s?workspace=<team id>", config.Endpoint, config.Endpoint, config.Webhook.Path)
	}
	return serve(ctx, newHTTPServer(config, handler), logger)
}

func newHTTPServer(config core.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + strconv.Itoa(config.Server.Port),
		Handler:           handler,
		ReadTimeout:       time.Duration(config.Server.ReadTimeoutMS) * time.Millisecond,
		WriteTimeout:      time.Duration(config.Server.WriteTimeoutMS) * time.Millisecond,
		IdleTimeout:       time.Duration(config.Server.IdleTimeoutMS) * time.Millisecond,
		ReadHeaderTimeout: time.Duration(config.Server.ReadHeaderMS) * time.Millisecond,
	}
}

// serve runs srv and shuts it down gracefully once ctx is done.
func serve(ctx context.Context, srv *http.Server, logger *log.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("shutdown: %v", err)
		}
		logger.Printf("server stopped")
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	}
}
