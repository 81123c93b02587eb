package main

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/njoerd114/kvault/internal/refresh"
	"github.com/njoerd114/kvault/internal/web"
)

func runWeb(ctx context.Context, args []string) error {
	fs, g := newFlagSet("web")
	listen := fs.StringP("listen", "l", "", "address to listen on (default: web.listen from config)")
	noWait := fs.Bool("no-wait", false, "start without waiting for the backend health check")

	return withApp(ctx, fs, g, args, 0, 0, func(a *app, _ []string) error {
		addr := a.cfg.Web.Listen
		if *listen != "" {
			addr = *listen
		}

		if err := a.store.Hydrate(ctx); err != nil {
			a.logger.Warn("starting without snapshot", "error", err)
		}

		if !*noWait {
			a.logger.Info("waiting for backend", "url", a.client.BaseURL())
			if err := a.client.WaitHealthy(ctx); err != nil {
				return fmt.Errorf("%w\n\nStart the KnowledgeVault server or pass --no-wait", err)
			}
		}

		settings := web.Settings{
			ServerURL:       a.cfg.ServerURL,
			BaseURL:         a.client.BaseURL(),
			Timeout:         a.client.Timeout(),
			AITimeout:       a.client.AITimeout(),
			RefreshInterval: a.cfg.RefreshInterval,
		}
		handler := web.NewHandler(a.store, settings, a.cfg.Web.CORSOrigins, a.logger)
		srv := web.NewServer(addr, handler, a.logger)
		ref := refresh.New(a.store, a.cfg.RefreshInterval, a.logger)

		grp, gctx := errgroup.WithContext(ctx)
		grp.Go(func() error { return srv.Run(gctx) })
		grp.Go(func() error { return ref.Run(gctx) })

		err := grp.Wait()
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		a.logger.Info("shutdown complete")
		return nil
	})
}
