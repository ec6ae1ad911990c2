package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/funvibe/matchkit/internal/audit"
	"github.com/funvibe/matchkit/internal/config"
	"github.com/funvibe/matchkit/internal/rules"
	"github.com/funvibe/matchkit/internal/server"
)

type serveOptions struct {
	rulesPath   string
	addr        string
	metricsAddr string
	auditPath   string
	watch       bool
}

func (a *app) serveCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve --rules FILE",
		Short: "Serve rule sets over gRPC",
		Long: `Serve the rule sets of FILE as the matchkit.v1.Classifier gRPC service.

Prometheus metrics are exposed on --metrics-addr at /metrics; an empty
address disables them. With --watch the rule file is reloaded when it
changes; a file that fails to load leaves the previous rules in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if opts.rulesPath, err = requireFlag(opts.rulesPath, "rules", config.EnvRules); err != nil {
				return err
			}
			opts.addr = envDefault(opts.addr, config.EnvAddr)
			if opts.addr == "" {
				opts.addr = config.DefaultGRPCAddr
			}
			if !cmd.Flags().Changed("metrics-addr") {
				if env := os.Getenv(config.EnvMetricsAddr); env != "" {
					opts.metricsAddr = env
				}
			}
			opts.auditPath = envDefault(opts.auditPath, config.EnvAuditDB)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, opts)
		},
	}
	cmd.Flags().StringVar(&opts.rulesPath, "rules", "", "rule file (env "+config.EnvRules+")")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "gRPC listen address (env "+config.EnvAddr+", default "+config.DefaultGRPCAddr+")")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", config.DefaultMetricsAddr, "metrics listen address (env "+config.EnvMetricsAddr+")")
	cmd.Flags().StringVar(&opts.auditPath, "audit", "", "record decisions in this SQLite database (env "+config.EnvAuditDB+")")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "reload the rule file when it changes")
	return cmd
}

func (a *app) serve(ctx context.Context, opts serveOptions) error {
	registry := rules.NewRegistry(opts.rulesPath, a.logger)
	if err := registry.Reload(); err != nil {
		return loadFailure(err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := server.NewMetrics(reg)

	var store *audit.Store
	if opts.auditPath != "" {
		var err error
		store, err = audit.Open(ctx, opts.auditPath, a.logger)
		if err != nil {
			return withCode(exitUsage, err)
		}
		defer store.Close()
	}

	srv, err := server.New(server.Options{
		Registry: registry,
		Audit:    store,
		Metrics:  metrics,
		Logger:   a.logger,
	})
	if err != nil {
		return err
	}
	gs := server.NewGRPCServer(a.logger)
	srv.Register(gs)

	var watcher *rules.Watcher
	if opts.watch {
		if watcher, err = rules.NewWatcher(registry, a.logger); err != nil {
			return withCode(exitUsage, err)
		}
		defer watcher.Stop()
		watcher.OnReload = metrics.ObserveReload
	}

	lis, err := net.Listen("tcp", opts.addr)
	if err != nil {
		return withCode(exitUsage, err)
	}
	a.logger.Info("Serving", "addr", lis.Addr().String(), "rulesets", len(registry.Book().Names()))

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Serve(gCtx, gs, lis) })
	if opts.metricsAddr != "" {
		g.Go(func() error {
			return server.ServeMetrics(gCtx, opts.metricsAddr, server.MetricsHandler(reg), a.logger)
		})
	}
	if watcher != nil {
		g.Go(func() error { return watcher.Start(gCtx) })
	}

	if err := g.Wait(); err != nil {
		return withCode(exitUsage, err)
	}
	a.logger.Info("Server stopped")
	return nil
}
