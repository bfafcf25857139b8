package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/nmolargik/setdeck/internal/adapters/legacy"
	"github.com/nmolargik/setdeck/internal/adapters/state"
	"github.com/nmolargik/setdeck/internal/config"
	"github.com/nmolargik/setdeck/internal/events"
	"github.com/nmolargik/setdeck/internal/logging"
	"github.com/nmolargik/setdeck/internal/migration"
	"github.com/nmolargik/setdeck/internal/store"
)

// app bundles the wired application pieces shared by the commands.
type app struct {
	cfg       *config.Config
	loader    *config.Loader
	logger    *logging.Logger
	bus       *events.Bus
	persister *state.SQLiteStore
	store     *store.Store
}

// newApp loads config, opens the database, and builds the store.
func newApp(ctx context.Context) (*app, error) {
	loader := config.NewLoaderWithViper(viper.GetViper())
	if cfgFile != "" {
		loader.WithConfigFile(cfgFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	persister, err := state.NewSQLiteStore(cfg.State.Path)
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}

	bus := events.New(cfg.Events.BufferSize)
	st, err := store.New(ctx, persister,
		store.WithLogger(logger.WithComponent("store")),
		store.WithBus(bus))
	if err != nil {
		_ = persister.Close()
		bus.Close()
		return nil, err
	}

	return &app{
		cfg:       cfg,
		loader:    loader,
		logger:    logger,
		bus:       bus,
		persister: persister,
		store:     st,
	}, nil
}

// newPipeline opens the legacy source and builds the migration pipeline. The
// returned close function releases the source.
func (a *app) newPipeline() (*migration.Pipeline, func(), error) {
	source, err := legacy.NewSQLiteSource(a.cfg.Legacy.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening legacy database: %w", err)
	}
	pipe := migration.New(a.store, source, a.persister,
		migration.WithLogger(a.logger.WithComponent("migration")),
		migration.WithBus(a.bus))
	return pipe, func() { _ = source.Close() }, nil
}

func (a *app) close() {
	a.bus.Close()
	_ = a.persister.Close()
}

// weekdayName maps a weekday slot to its display name.
func weekdayName(day int) string {
	names := []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	if day < 0 || day >= len(names) {
		return fmt.Sprintf("day %d", day)
	}
	return names[day]
}
