package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jask/menutree/internal/appmenu"
	"github.com/jask/menutree/internal/bus"
	"github.com/jask/menutree/internal/controller"
	"github.com/jask/menutree/internal/database"
	"github.com/jask/menutree/internal/database/repository"
	"github.com/jask/menutree/internal/host"
	"github.com/jask/menutree/internal/menu"
	"github.com/jask/menutree/internal/prefs"
	"github.com/jask/menutree/internal/rules"
	"github.com/jask/menutree/internal/sections"
	"github.com/jask/menutree/internal/service"
	"github.com/jask/menutree/internal/statestore"
	"github.com/jask/menutree/internal/template"
	"github.com/jask/menutree/internal/transport"
	"github.com/jask/menutree/internal/tui"
)

func loadTemplate(path string) ([]menu.Node, error) {
	if path == "" {
		return appmenu.Template(), nil
	}
	return template.Load(path)
}

func loadCatalog(path string) (sections.Catalog, error) {
	if path == "" {
		return sections.Catalog{}, nil
	}
	return sections.LoadCatalog(path)
}

// seriesKey prefers the configured series over the remembered one.
func seriesKey() string {
	if cfg.Menu.Series != "" {
		return cfg.Menu.Series
	}
	p, err := prefs.Load()
	if err != nil {
		logger.Warn("read menu prefs", zap.Error(err))
		return ""
	}
	return p.Series
}

func runHost(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.RunMigrations(cfg.Recent.DatabasePath); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.Recent.DatabasePath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	tmpl, err := loadTemplate(cfg.Menu.TemplatePath)
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(cfg.Menu.CatalogPath)
	if err != nil {
		return err
	}

	b := bus.New(logger, cfg.Transport.QueueSize)
	defer b.Close()
	reg := transport.NewRegistry()

	ctrl := controller.New(
		controller.WithLogger(logger),
		controller.WithRules(appmenu.Rules()),
		controller.WithCatalog(catalog),
		controller.WithTransportFactory(func(f controller.PlatformFlags) (transport.Transport, error) {
			return transport.Select(ctx, transport.Config{
				NativeShell: f.NativeShell,
				ShellPath:   cfg.Host.ShellPath,
				ShellArgs:   cfg.Host.ShellArgs,
				QueueSize:   cfg.Transport.QueueSize,
			}, reg, b, logger)
		}),
	)
	defer ctrl.Close()

	store := statestore.New(ctrl, logger, cfg.Transport.QueueSize)
	recent := &service.RecentFiles{
		Repo: repository.NewRecentFileRepo(db),
		Keep: cfg.Recent.Keep,
		Log:  logger,
		Sink: func(items []sections.RecentFile) {
			if err := store.Submit(ctx, statestore.RecentFilesChanged(items)); err != nil {
				logger.Debug("recent files not applied", zap.Error(err))
			}
		},
	}

	session := &host.Session{Store: store, Recent: recent, Log: logger.Named("host")}
	if err := session.Register(reg); err != nil {
		return err
	}

	flags := controller.PlatformFlags{
		NativeShell:   cfg.Host.NativeShell,
		Platform:      cfg.Host.Platform,
		DeveloperHost: cfg.Host.Developer,
	}
	if err := ctrl.Init(tmpl, flags); err != nil {
		return err
	}
	ctrl.OnContextChanged(rules.Patch{Route: rules.Ptr(appmenu.RouteHome)})
	ctrl.UpdateTemplateGallery(seriesKey())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return store.Run(gctx) })

	if cfg.Menu.CatalogPath != "" && cfg.Menu.WatchCatalog {
		onLoad := func(c sections.Catalog) {
			if err := store.Submit(gctx, statestore.CatalogChanged(c)); err != nil {
				logger.Debug("catalog not applied", zap.Error(err))
			}
		}
		w := sections.NewWatcher(cfg.Menu.CatalogPath, onLoad, sections.WithWatchLogger(logger))
		if err := w.Start(gctx); err != nil {
			logger.Warn("catalog watcher not started", zap.Error(err))
		} else {
			defer w.Stop()
		}
	}

	if cfg.Host.NativeShell {
		// The shell owns the user interface; wait for a signal.
		if _, err := recent.Load(gctx); err != nil {
			logger.Warn("load recent files", zap.Error(err))
		}
		g.Go(func() error {
			<-gctx.Done()
			return nil
		})
		err := g.Wait()
		session.Wait()
		return err
	}

	if logger.Core().Enabled(zap.DebugLevel) {
		g.Go(func() error { return traceSnapshots(gctx, b) })
	}

	prog := tea.NewProgram(tui.New(ctrl, flags.Platform), tea.WithAltScreen(), tea.WithContext(gctx))
	session.Attach(func(msg string) { prog.Send(tui.StatusMsg(msg)) }, prog.Quit)
	unsubscribe := ctrl.Subscribe(func(s menu.Snapshot) { prog.Send(tui.SnapshotMsg(s)) })
	defer unsubscribe()

	g.Go(func() error {
		if _, err := recent.Load(gctx); err != nil {
			logger.Warn("load recent files", zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		defer stop()
		_, err := prog.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})
	err = g.Wait()
	session.Wait()
	return err
}

// traceSnapshots logs every snapshot mirrored on the bus.
func traceSnapshots(ctx context.Context, b *bus.Bus) error {
	ch := b.Subscribe(bus.TopicSnapshot)
	defer b.Unsubscribe(bus.TopicSnapshot, ch)
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s, ok := msg.Payload.(menu.Snapshot)
			if !ok {
				continue
			}
			logger.Debug("snapshot",
				zap.Uint64("version", s.Version),
				zap.String("route", s.Route),
				zap.Int("suspendDepth", s.SuspendDepth),
				zap.String("active", s.ActiveID))
		}
	}
}
