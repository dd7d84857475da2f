package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"StreetEncounters/internal/store"
)

func (a *App) serveHTTP(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", a.Hub.ServeWS)
	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/export", a.handleExport)

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	a.Log.Info().Str("addr", a.Config.Addr).Msg("authority listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errc:
		return err
	}
}

func (a *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":     "ok",
		"encounters": a.Catalog.Len(),
	})
}

// handleExport streams a compressed dump of the session store, for backups
// and for migrating between store dialects.
func (a *App) handleExport(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/zstd")
	w.Header().Set("Content-Disposition", `attachment; filename="encounters.jsonl.zst"`)
	if err := store.Export(a.Store, w); err != nil {
		a.Log.Error().Err(err).Msg("export failed")
	}
}
