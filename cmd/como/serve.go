package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/como-monitor/como/internal/config"
	"github.com/como-monitor/como/internal/logger"
	"github.com/como-monitor/como/internal/producer"
	"github.com/como-monitor/como/internal/server"
	"github.com/como-monitor/como/internal/ws"
)

func serveCmd(g *globalFlags) *cobra.Command {
	var (
		port    int
		noAdmin bool
		noDemo  bool
		system  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the broadcast server",
		Long: `Run the broadcast server. Configuration is read from the config file,
then a .env file in the working directory, then COMO_* environment
variables, then flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Resolve(g.configPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.Server.Port = port
			}
			if noAdmin {
				cfg.Admin.Enabled = false
			}
			if noDemo {
				cfg.Producers.Demo = false
			}
			if system {
				cfg.Producers.System = true
			}
			if g.logLevel != "" {
				cfg.Log.Level = g.logLevel
			}
			if g.logFormat != "" {
				cfg.Log.Format = g.logFormat
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log, err := logger.New(os.Stderr, cfg.Log.Format, cfg.Log.Level)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg, log)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "override server port")
	cmd.Flags().BoolVar(&noAdmin, "no-admin", false, "disable the admin HTTP server")
	cmd.Flags().BoolVar(&noDemo, "no-demo", false, "disable the demo sources")
	cmd.Flags().BoolVar(&system, "system", false, "publish host metrics as sources")

	return cmd
}

// runServer serves until ctx is done or a component fails.
func runServer(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	srv := server.New(
		server.WithLogger(log),
		server.WithKeepAlive(cfg.Server.KeepAlive),
		server.WithWriteTimeout(cfg.Server.WriteTimeout),
		server.WithMaxQueuedFrames(cfg.Server.MaxQueuedFrames),
	)
	defer srv.Close()

	ln, err := srv.Listen(ctx, cfg.Server.Addr())
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx, ln)
	})

	if cfg.Admin.Enabled {
		b := ws.NewBroadcaster(srv, cfg.Admin.MaxConnections, log)
		admin := ws.NewServer(srv, b, cfg.Admin.AllowedOrigins, log)
		g.Go(func() error {
			return admin.ListenAndServe(gctx, cfg.Admin.Addr)
		})
	}

	var producers []producer.Producer
	if cfg.Producers.Demo {
		producers = append(producers, producer.NewDemo(srv, cfg.Producers.Interval, log))
	}
	if cfg.Producers.System {
		producers = append(producers, producer.NewSystem(srv, cfg.Producers.SystemInterval, log))
	}
	for _, p := range producers {
		p := p
		g.Go(func() error {
			if err := p.Run(gctx); err != nil {
				return fmt.Errorf("%s producer: %w", p.Name(), err)
			}
			return nil
		})
	}

	log.Info("como started",
		logger.Addr(ln.Addr().String()),
		slog.Bool("admin", cfg.Admin.Enabled),
		logger.Count("producers", len(producers)),
	)

	err = g.Wait()
	log.Info("como stopped")
	return err
}
