package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/docker/go-units"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/routetable/pkg/middleware"
	"github.com/vango-dev/routetable/pkg/server"
)

func serveCmd(opts *options) *cobra.Command {
	var preload bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the route table server",
		Long: `Run an HTTP server for the single-page app.

Deep links are answered with the app shell (404 when no route matches,
302 when the path redirects), /api/resolve and /api/routes expose the
table as JSON, and /ws drives live navigation: the client sends
navigate messages and receives the components to mount.

Examples:
  routetable serve
  routetable serve --addr :9000 --static dist --metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, opts, preload)
		},
	}

	cmd.Flags().StringVarP(&opts.overlay.Server.Addr, "addr", "a", "", "Listen address (default from config, :8080)")
	cmd.Flags().StringVar(&opts.overlay.Server.StaticDir, "static", "", "Directory with the built client")
	cmd.Flags().BoolVar(&opts.overlay.Server.Metrics, "metrics", false, "Expose Prometheus metrics on /metrics")
	cmd.Flags().BoolVar(&preload, "preload", false, "Load every component before accepting connections")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, opts *options, preload bool) error {
	out := cmd.OutOrStdout()

	e, err := opts.setup(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	for _, w := range e.table.Warnings() {
		warn(out, "%s", w.Error())
	}

	if preload {
		if err := e.registry.Preload(ctx); err != nil {
			return err
		}
		success(out, "preloaded %d components", len(e.registry.Names()))
	}

	srvOpts := []server.Option{
		server.WithLogger(e.logger),
		server.WithNavigationMiddleware(middleware.OpenTelemetry()),
		server.WithChunks(e.chunks),
	}
	if e.cfg.Server.Metrics {
		srvOpts = append(srvOpts, server.WithMetrics(middleware.NewMetrics(), prometheus.DefaultGatherer))
	}

	srv, err := server.New(e.table, &server.ServerConfig{
		Address:         e.cfg.Server.Addr,
		StaticDir:       e.cfg.Server.StaticDir,
		Metrics:         e.cfg.Server.Metrics,
		ShutdownTimeout: e.cfg.Server.ShutdownTimeoutDuration(),
	}, srvOpts...)
	if err != nil {
		return err
	}

	success(out, "serving %d routes on %s", len(e.table.Routes()), e.cfg.Server.Addr)
	info(out, "loader: %s (max chunk %s)", e.cfg.Loader.Backend, units.HumanSize(float64(e.cfg.Loader.MaxChunkSizeBytes())))
	info(out, "chunks: %s", e.cfg.Loader.PublicPath)
	if e.cfg.Server.Metrics {
		info(out, "metrics: /metrics")
	}

	return srv.Run(ctx)
}
