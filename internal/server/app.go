package server

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"StreetEncounters/internal/authority"
	"StreetEncounters/internal/catalog"
	"StreetEncounters/internal/store"
)

// App is a fully wired authority process.
type App struct {
	Config    Config
	Log       zerolog.Logger
	Catalog   *catalog.Catalog
	NpcBlips  bool
	Store     store.KV
	Authority *authority.Authority
	Hub       *Hub
}

// NewApp opens the store, loads the catalog, and wires the authority to
// the hub. Close releases the store.
func NewApp(cfg Config) (*App, error) {
	log := newLogger(cfg.LogLevel)

	cat, root, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	log.Info().Int("encounters", cat.Len()).Str("path", cfg.CatalogPath).Msg("catalog loaded")

	kv, err := store.OpenSQL(store.Dialect(cfg.StoreDialect), cfg.StoreDSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	hub := NewHub(cfg, log)
	auth := authority.New(cat, kv, authority.NewLogRewarder(log), hub, log)
	hub.SetAuthority(auth)

	return &App{
		Config:    cfg,
		Log:       log,
		Catalog:   cat,
		NpcBlips:  root.NpcBlips,
		Store:     kv,
		Authority: auth,
		Hub:       hub,
	}, nil
}

// Run serves until the context ends.
func (a *App) Run(ctx context.Context) error {
	return a.serveHTTP(ctx)
}

// Close releases the app's resources.
func (a *App) Close() error {
	return a.Store.Close()
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger()
}
