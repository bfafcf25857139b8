package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nmolargik/setdeck/internal/config"
	"github.com/nmolargik/setdeck/internal/web"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API server",
	Long: `Serve the workout store over HTTP. On startup the legacy migration
runs automatically unless disabled via migration.auto_run.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides web.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cobraCmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cobraCmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	pipe, closeSource, err := a.newPipeline()
	if err != nil {
		return err
	}
	defer closeSource()

	if a.cfg.Migration.AutoRun {
		if err := pipe.Run(ctx); err != nil {
			return err
		}
	}

	webCfg := web.DefaultConfig()
	webCfg.Addr = a.cfg.Web.Addr
	if serveAddr != "" {
		webCfg.Addr = serveAddr
	}
	webCfg.CORSOrigins = a.cfg.Web.CORSOrigins

	srv := web.New(webCfg, a.store, a.logger.WithComponent("web"), web.WithPipeline(pipe))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil {
			return err
		}
		<-gctx.Done()
		return srv.Shutdown(context.Background())
	})

	// Hot log-level reload while serving, when a config file is in use.
	if watcher, err := config.NewWatcher(a.loader, a.logger.WithComponent("config"), func(cfg *config.Config) {
		a.logger.SetLevel(cfg.Log.Level)
	}); err == nil {
		g.Go(func() error {
			if err := watcher.Watch(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	a.logger.Info("setdeck serving", "addr", webCfg.Addr, "version", appVersion)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
