package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mcoot/cloudserver/internal/api"
	"github.com/mcoot/cloudserver/internal/config"
	"github.com/mcoot/cloudserver/internal/factory"
	"github.com/mcoot/cloudserver/internal/platform/otel"
)

const serviceName = "cloudserver"

type serveOptions struct {
	dataDir  string
	projects string
	storage  string
	httpAddr string
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Connect to every configured project and serve users",
		Long: `Connect to the cloud variable channel of every project listed in the
projects file and serve save/load sessions until interrupted.

Settings come from CLOUDSERVER_* environment variables; flags override them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.Load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("data-dir") {
				env.DataDir = opts.dataDir
			}
			if flags.Changed("projects") {
				env.ProjectsFile = opts.projects
			}
			if flags.Changed("storage") {
				env.StorageType = opts.storage
			}
			if flags.Changed("http-addr") {
				env.HTTPAddr = opts.httpAddr
			}
			return runServe(cmd.Context(), env)
		},
	}

	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "Data directory for filesystem storage (env: CLOUDSERVER_DATA_DIR)")
	cmd.Flags().StringVar(&opts.projects, "projects", "", "Projects file (env: CLOUDSERVER_PROJECTS_FILE)")
	cmd.Flags().StringVar(&opts.storage, "storage", "", "Storage backend: filesystem, memory, redis, sqlite (env: CLOUDSERVER_STORAGE_TYPE)")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", "", "Status API listen address, empty to disable (env: CLOUDSERVER_HTTP_ADDR)")

	return cmd
}

func runServe(ctx context.Context, env *config.Config) error {
	if err := env.Validate(); err != nil {
		return err
	}
	level, err := env.SlogLevel()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	projects, err := config.LoadProjects(env.ProjectsFile)
	if err != nil {
		return err
	}
	settings, err := config.LoadSettings(env.SettingsFile)
	if err != nil {
		return err
	}

	shutdownTracing, err := otel.Setup(ctx, serviceName, env.OtelEndpoint)
	if err != nil {
		return fmt.Errorf("set up tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("failed to flush traces", slog.String("error", err.Error()))
		}
	}()

	app, err := factory.New(ctx, factory.FromEnv(env, projects, settings, logger))
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("server starting",
		slog.String("storage", env.StorageType),
		slog.Int("projects", len(projects)),
		slog.Duration("idle_timeout", env.IdleTimeout),
		slog.Bool("require_account", env.RequireAccount))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.Manager.Run(gctx) })

	if env.HTTPAddr != "" {
		router := api.NewRouter(api.RouterConfig{
			Logger:  logger,
			Status:  app.Manager,
			Storage: app.Storage,
		})
		serverConfig := api.DefaultServerConfig()
		serverConfig.Addr = env.HTTPAddr
		httpServer := api.NewServer(router, serverConfig, logger)

		g.Go(httpServer.Start)
		g.Go(func() error {
			<-gctx.Done()
			return httpServer.Shutdown(context.Background())
		})
	}

	err = g.Wait()
	if ctx.Err() != nil {
		logger.Info("shutdown signal received")
	}
	if err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
