package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"neom/internal/platform/httpserver"
	"neom/internal/platform/metrics"
	"neom/internal/platform/postgres"
	platformredis "neom/internal/platform/redis"
	"neom/internal/preview"
	"neom/internal/repository"
	"neom/internal/repository/store/cache"
	"neom/internal/repository/store/entity"
	"neom/pkg/ddd"
	"neom/pkg/kit"
	"neom/pkg/wire"
)

func previewCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kit-preview",
		Short: "Serve a gallery of the md2 template tags",
		Long: `Serve every md2 component on its own page, a staff directory backed by
the entity repository, and Prometheus metrics on /metrics.

Storage is PostgreSQL when NEOM_DATABASE_URL is set, a SQLite file when
NEOM_SQLITE_PATH is set, and in-memory otherwise. NEOM_REDIS_URL adds a
read-through cache in front of it.

Examples:
  neom kit-preview
  neom kit-preview --addr :9090 --minify`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.servePreview(ctx, cmd)
		},
	}

	cmd.Flags().StringVar(&a.cfg.Preview.Addr, "addr", a.cfg.Preview.Addr, "Listen address")
	cmd.Flags().BoolVar(&a.cfg.Preview.Minify, "minify", a.cfg.Preview.Minify, "Minify CSS class names")
	return cmd
}

func (a *app) servePreview(ctx context.Context, cmd *cobra.Command) error {
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewWithRegisterer(promReg)

	store, cleanup, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	repo, err := repository.New(store, repository.WithLogger(a.log), repository.WithMetrics(m))
	if err != nil {
		return err
	}
	schema, err := preview.MemberSchema(ddd.WithObserver(m))
	if err != nil {
		return err
	}
	roster := preview.NewStoredRoster(repo, schema)
	if err := preview.Seed(ctx, roster); err != nil {
		return err
	}

	gallery, err := preview.NewGallery(kit.Tokens{Minify: a.cfg.Preview.Minify})
	if err != nil {
		return err
	}

	reg := wire.New(wire.WithLogger(a.log), wire.WithObserver(m))
	if err := wire.BindFactory[preview.Renderer](reg, func() preview.Renderer { return gallery }, wire.WithLifetime(wire.Shared)); err != nil {
		return err
	}
	if err := wire.BindFactory[preview.Roster](reg, func() preview.Roster { return roster }, wire.WithLifetime(wire.Shared)); err != nil {
		return err
	}
	a.log.Debug("capabilities wired", "bindings", reg.Bindings())

	h, err := preview.NewHandler(reg.Freeze(), a.log)
	if err != nil {
		return err
	}
	srv := httpserver.New(a.cfg.Preview.Addr, preview.NewRouter(h, a.log, promReg))
	return httpserver.ListenAndRun(ctx, srv, func(addr string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s http://%s\n", color.CyanString("serving"), addr)
	})
}

// openStore picks the entity store from configuration: PostgreSQL when a
// database URL is set, then a SQLite file, then memory, optionally behind a
// Redis cache.
func (a *app) openStore(ctx context.Context) (repository.Store, func(), error) {
	var (
		store    repository.Store = entity.NewInMemory()
		closers  []func()
		teardown = func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	)

	db, err := postgres.Open(ctx, a.cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if db != nil {
		closers = append(closers, func() { _ = db.Close() })
		pg := entity.NewPostgres(db, a.cfg.Database.Table)
		if err := pg.Migrate(ctx); err != nil {
			teardown()
			return nil, nil, err
		}
		store = pg
		a.log.Info("using postgres entity store", "table", a.cfg.Database.Table)
	} else if path := a.cfg.Database.SQLitePath; path != "" {
		lite, err := entity.OpenSQLite(ctx, path, a.cfg.Database.Table)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = lite.Close() })
		store = lite
		a.log.Info("using sqlite entity store", "path", path, "table", a.cfg.Database.Table)
	}

	rc, err := platformredis.New(ctx, a.cfg.Redis)
	if err != nil {
		teardown()
		return nil, nil, err
	}
	if rc != nil {
		closers = append(closers, func() { _ = rc.Close() })
		store = cache.NewRedis(store, rc.Client, a.cfg.Redis.CacheTTL, cache.WithLogger(a.log))
		a.log.Info("using redis entity cache", "ttl", a.cfg.Redis.CacheTTL)
	}
	return store, teardown, nil
}
