package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"StreetEncounters/internal/server"
)

func main() {
	configDir := flag.String("config-dir", ".", "directory containing encounters.cfg.json")
	addr := flag.String("addr", "", "override listen address (e.g., 127.0.0.1:8090)")
	catalogPath := flag.String("catalog", "", "override encounter catalog path")
	storeDialect := flag.String("store-dialect", "", "override store dialect (sqlite or postgres)")
	storeDSN := flag.String("store-dsn", "", "override store DSN")
	logLevel := flag.String("log-level", "", "override log level (trace..error)")
	flag.Parse()

	cfg, err := server.LoadConfig(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *catalogPath != "" {
		cfg.CatalogPath = *catalogPath
	}
	if *storeDialect != "" {
		cfg.StoreDialect = *storeDialect
	}
	if *storeDSN != "" {
		cfg.StoreDSN = *storeDSN
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	app, err := server.NewApp(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		app.Log.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}
