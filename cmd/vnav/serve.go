package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vnav/internal/errors"
	"github.com/vango-dev/vnav/internal/watch"
	"github.com/vango-dev/vnav/pkg/devtools"
	"github.com/vango-dev/vnav/pkg/middleware"
	"github.com/vango-dev/vnav/pkg/router"
)

const shutdownTimeout = 5 * time.Second

func serveCmd(a *app) *cobra.Command {
	var (
		addr        string
		watchRoutes bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the devtools server",
		Long: `Start an HTTP server exposing a router built from the route table.

Endpoints:
  GET  /routes      registered records
  GET  /current     the current route
  GET  /resolve     resolve without navigating
  POST /navigate    push or replace
  POST /go          move through history
  GET  /ws          bind a browser address bar to its own router
  GET  /metrics     Prometheus metrics (serve.metrics)

Examples:
  vnav serve
  vnav serve --addr=0.0.0.0:7070 --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			if addr != "" {
				a.cfg.Serve.Addr = addr
			}
			if watchRoutes {
				a.cfg.Watch = true
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, a)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().BoolVarP(&watchRoutes, "watch", "w", false, "Add routes as the route table changes")

	return cmd
}

// devServer is the router and handler behind vnav serve.
type devServer struct {
	router  *router.Router
	handler http.Handler
}

func newDevServer(a *app) (*devServer, error) {
	routes, err := a.routes()
	if err != nil {
		return nil, err
	}
	if err := validateRoutes(routes); err != nil {
		return nil, err
	}

	var (
		observers []router.Option
		dtOpts    = []devtools.Option{devtools.WithLogger(a.logger)}
	)
	observers = append(observers, router.WithObserver(middleware.OpenTelemetry()))
	if a.cfg.Serve.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		observers = append(observers, router.WithObserver(middleware.Prometheus(middleware.WithRegistry(reg))))
		dtOpts = append(dtOpts, devtools.WithGatherer(reg))
	}

	r, err := a.newRouter(routes, append([]router.Option{router.WithMode(router.ModeAbstract)}, observers...)...)
	if err != nil {
		return nil, errors.FromError(err, errors.CodeRoutesInvalid)
	}

	// Each socket gets a router over the table as it is when the client
	// connects.
	dtOpts = append(dtOpts, devtools.WithRouterFactory(func(b router.Backend) (*router.Router, error) {
		routes, err := a.routes()
		if err != nil {
			return nil, err
		}
		opts := slices.Concat(observers, []router.Option{router.WithBackend(b)})
		if router.Mode(a.cfg.Mode) == router.ModeAbstract {
			opts = append(opts, router.WithMode(router.ModeHistory))
		}
		return a.newRouter(routes, opts...)
	}))

	return &devServer{
		router:  r,
		handler: devtools.New(r, dtOpts...).Handler(),
	}, nil
}

func runServe(ctx context.Context, cmd *cobra.Command, a *app) error {
	ds, err := newDevServer(a)
	if err != nil {
		return err
	}

	if a.cfg.Watch {
		w, err := watch.NewWatcher(watch.WatcherConfig{
			Files:  []string{a.cfg.RoutesPath()},
			Logger: a.logger,
		})
		if err != nil {
			return errors.New(errors.CodeWatchFailure).Wrap(err)
		}
		rl := watch.NewReloader(ds.router, a.routes, a.logger)
		go func() {
			if err := rl.Watch(ctx, w); err != nil && !stderrors.Is(err, context.Canceled) {
				a.logger.Error("route table watcher stopped", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              a.cfg.Serve.Addr,
		Handler:           ds.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	fmt.Fprint(cmd.OutOrStdout(), banner)
	success(cmd, "devtools listening on http://%s", a.cfg.Serve.Addr)
	if a.cfg.Watch {
		success(cmd, "watching %s", a.cfg.RoutesPath())
	}

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.New(errors.CodeServeFailure).
			WithDetail("Could not listen on " + a.cfg.Serve.Addr).
			Wrap(err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.New(errors.CodeServeFailure).Wrap(err)
	}
	return nil
}
