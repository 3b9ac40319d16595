package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/core"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/notify"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/slack"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/telemetry"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/webhook"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// BuildHandler constructs the HTTP handler and returns a cleanup function.
func BuildHandler(ctx context.Context, config core.Config, logger *log.Logger, middlewares ...Middleware) (http.Handler, func(), error) {
	if logger == nil {
		logger = core.NewLogger("server")
	}
	var closers []func()
	addCloser := func(fn func()) {
		if fn != nil {
			closers = append(closers, fn)
		}
	}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (http.Handler, func(), error) {
		cleanup()
		return nil, nil, err
	}

	stores, err := openStores(config, logger, addCloser)
	if err != nil {
		return fail(err)
	}

	caches, err := buildCaches(ctx, stores, config, logger, addCloser)
	if err != nil {
		return fail(err)
	}

	reporter, err := telemetry.NewSentry(telemetry.SentryConfig{
		DSN:         config.Diagnostics.SentryDSN,
		Environment: config.Diagnostics.Environment,
	})
	if err != nil {
		return fail(fmt.Errorf("sentry: %w", err))
	}
	addCloser(func() { reporter.Flush(2 * time.Second) })
	if config.Diagnostics.SentryDSN != "" {
		logger.Printf("error reporting enabled environment=%s", config.Diagnostics.Environment)
	}

	notifier := slack.NewNotifier(slack.NotifierOptions{
		APIURL:       config.Slack.APIURL,
		DefaultToken: config.Slack.BotToken,
		Workspaces:   stores.workspaces,
		Logger:       core.NewLogger("slack"),
	})
	router := &notify.Router{
		Resolver: &notify.LinkResolver{Links: caches.links},
		Notifier: notifier,
		Logger:   core.NewLogger("notify"),
	}
	webhookHandler := webhook.NewHandler(webhook.HandlerOptions{
		Router:            router,
		Logs:              stores.logs,
		Reporter:          reporter,
		Logger:            core.NewLogger("webhook"),
		MaxBodyBytes:      config.Server.MaxBodyBytes,
		DebugEvents:       config.Server.DebugEvents,
		LogRequestOnError: config.Diagnostics.LogRequestOnError,
		DecodePayload:     config.Diagnostics.DecodePayloadEnabled(),
	})

	mux := http.NewServeMux()
	mux.Handle("/healthz", healthHandler())
	mux.Handle("/readyz", readyHandler(readinessChecks(caches)))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle(config.Webhook.Path, webhookHandler)
	logger.Printf("webhook enabled path=%s log_request_on_error=%t", config.Webhook.Path, config.Diagnostics.LogRequestOnError)

	if config.Slack.OAuth.Enabled() {
		installer := &slack.Installer{
			OAuth:       config.Slack.OAuth,
			Endpoint:    config.Endpoint,
			WebhookPath: config.Webhook.Path,
			Workspaces:  stores.workspaces,
			OnInstall:   notifier.Forget,
			Logger:      core.NewLogger("install"),
		}
		mux.Handle(slack.StartPath, installer.StartHandler())
		mux.Handle(slack.CallbackPath, installer.CallbackHandler())
		logger.Printf("slack install enabled start=%s callback=%s", slack.StartPath, slack.CallbackPath)
	} else {
		logger.Printf("slack install disabled (missing slack.oauth.client_id or client_secret)")
	}

	corsHandler := cors.New(corsOptions(config.Server.CORSAllowedOrigins))
	appHandler := applyMiddlewares(recoverMiddleware(logger)(mux), middlewares)
	appHandler = requestLogMiddleware(logger)(appHandler)
	handler := h2c.NewHandler(corsHandler.Handler(appHandler), &http2.Server{})

	return handler, cleanup, nil
}

func corsOptions(origins []string) cors.Options {
	opts := cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         int(2 * time.Hour / time.Second),
	}
	if len(origins) == 0 {
		opts.AllowOriginFunc = func(_ string) bool { return true }
	} else {
		opts.AllowedOrigins = origins
	}
	return opts
}

func readinessChecks(caches serverCaches) map[string]func(context.Context) error {
	checks := make(map[string]func(context.Context) error)
	if caches.redis != nil {
		client := caches.redis
		checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}
	return checks
}
