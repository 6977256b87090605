package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/datastar-go/datastar/internal/config"
	"github.com/datastar-go/datastar/pkg/middleware"
	"github.com/datastar-go/datastar/pkg/sse"
)

// serveCmd runs the demo server.
func serveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.ConfigFileName, "path to configuration file")
	return cmd
}

// serve builds the router and runs the HTTP server until interrupted.
func serve(cfg *config.Config) error {
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	if cfg.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
		}))
	}
	if cfg.Metrics {
		r.Use(middleware.Metrics())
		r.Handle("/metrics", promhttp.Handler())
	}
	if cfg.Tracing {
		r.Use(middleware.OpenTelemetry())
	}

	r.Route(cfg.BasePath, func(r chi.Router) {
		r.Get("/", indexHandler)
		r.Post("/increment", incrementHandler(logger))
		r.Post("/decrement", decrementHandler(logger))
		r.Post("/save", saveHandler(logger))
		r.Get("/clock", clockHandler(logger))
	})

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("demo server listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-stop:
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

// newLogger builds a slog logger at the configured level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// counterSignals is the shape of the client state the demo works with.
type counterSignals struct {
	Count int    `json:"count"`
	Name  string `json:"name"`
}

const indexPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>datastar-demo</title>
  <script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar/bundles/datastar.js"></script>
</head>
<body data-signals='{"count":0,"name":""}'>
  <main id="app">
    <h1>Counter</h1>
    <p id="count" data-text="$count">0</p>
    <button data-on-click="@post('/increment')">+1</button>
    <button data-on-click="@post('/decrement')">-1</button>
    <input data-bind-name placeholder="your name">
    <button data-on-click="@post('/save')">Save</button>
    <div id="clock" data-on-load="@get('/clock')"></div>
    <div id="status"></div>
  </main>
</body>
</html>
`

// indexHandler serves the demo page.
func indexHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexPage)
}

// incrementHandler bumps the counter signal and patches the count element.
func incrementHandler(logger *slog.Logger) http.HandlerFunc {
	return counterHandler(logger, +1)
}

// decrementHandler lowers the counter signal and patches the count element.
func decrementHandler(logger *slog.Logger) http.HandlerFunc {
	return counterHandler(logger, -1)
}

func counterHandler(logger *slog.Logger, delta int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var signals counterSignals
		if err := sse.ReadSignalsAs(r, &signals); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		session, err := sse.New(w, r,
			sse.WithLogger(logger),
			sse.WithMonitor(middleware.StreamMonitor()))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer session.Close()

		signals.Count += delta
		if err := session.MarshalAndPatchSignals(map[string]int{"count": signals.Count}); err != nil {
			logger.Warn("patch signals failed", "error", err)
			return
		}
		if err := session.PatchElementsf("#count", `<p id="count">%d</p>`, signals.Count); err != nil {
			logger.Warn("patch elements failed", "error", err)
		}
	}
}

// saveHandler greets the user by name and demonstrates the script runner.
func saveHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		signals := sse.ReadSignals(r)
		name, _ := signals["name"].(string)

		session, err := sse.New(w, r,
			sse.WithLogger(logger),
			sse.WithMonitor(middleware.StreamMonitor()))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer session.Close()

		if name == "" {
			if err := session.PatchElements("#status", `<div id="status">Tell me your name first.</div>`); err != nil {
				logger.Warn("patch elements failed", "error", err)
			}
			return
		}

		if err := session.PatchElementsf("#status", `<div id="status">Saved, %s.</div>`, name); err != nil {
			logger.Warn("patch elements failed", "error", err)
			return
		}
		if err := session.ConsoleLogf("saved name %q", name); err != nil {
			logger.Warn("console log failed", "error", err)
			return
		}
		if err := session.DispatchCustomEvent("demo:saved", map[string]string{"name": name}); err != nil {
			logger.Warn("dispatch event failed", "error", err)
		}
	}
}

// clockHandler holds a long-lived stream open and patches the time once a
// second, with keepalives in between, until the client goes away.
func clockHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sse.New(w, r,
			sse.WithLogger(logger),
			sse.WithMonitor(middleware.StreamMonitor()))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer session.Close()

		tick := time.NewTicker(time.Second)
		defer tick.Stop()
		keepalive := time.NewTicker(15 * time.Second)
		defer keepalive.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-keepalive.C:
				if err := session.KeepAlive(); err != nil {
					return
				}
			case now := <-tick.C:
				err := session.PatchElementsf("#clock",
					`<div id="clock">%s</div>`, now.Format(time.TimeOnly))
				if err != nil {
					// Client gone; the session is already closed.
					return
				}
			}
		}
	}
}
