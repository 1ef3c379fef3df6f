package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/i474232898/tray-weather/internal/api/http"
	"github.com/i474232898/tray-weather/internal/app"
	"github.com/i474232898/tray-weather/internal/applog"
	"github.com/i474232898/tray-weather/internal/config"
	"github.com/i474232898/tray-weather/internal/mainloop"
	"github.com/i474232898/tray-weather/internal/store"
	"github.com/i474232898/tray-weather/internal/theme"
	"github.com/i474232898/tray-weather/internal/weather"
	"github.com/i474232898/tray-weather/internal/weather/providers"
)

func main() {
	// Load process settings (.env and environment).
	settings, err := config.Load()
	if err != nil {
		log.Fatalf("ERROR: failed to load config: %v", err)
	}

	logFile, err := applog.Setup(settings.LogPath, false)
	if err != nil {
		log.Printf("ERROR: log file unavailable: %v", err)
	} else {
		defer logFile.Close()
	}

	// User configuration never blocks startup; failures fall back to defaults.
	appCfg := config.LoadFile(settings.ConfigPath)
	applog.SetDebug(appCfg.Debug)
	log.Printf("INFO: Config loaded from %s", settings.ConfigPath)

	// Last-known records, in SQLite when STORE_PATH is set.
	var recordStore interface {
		weather.Store
		Close() error
	}
	if settings.StorePath != "" {
		sqliteStore, err := store.NewSQLite(settings.StorePath, settings.StoreMaxHistory)
		if err != nil {
			log.Printf("ERROR: record store unavailable, keeping records in memory: %v", err)
			recordStore = store.NewMemoryStore(settings.StoreMaxHistory)
		} else {
			recordStore = sqliteStore
		}
	} else {
		recordStore = store.NewMemoryStore(settings.StoreMaxHistory)
	}
	defer recordStore.Close()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: settings.HTTPTimeout,
	}

	loop := mainloop.New(64)
	go loop.Run()

	application := app.New(loop, app.Options{
		ConfigPath:    settings.ConfigPath,
		Config:        appCfg,
		Fetcher:       providers.NewOpenMeteoClient(httpClient),
		Store:         recordStore,
		Themes:        theme.NewManager(settings.ThemesDir),
		FetchInterval: settings.FetchInterval,
		CancelGrace:   settings.CancelGrace,
	})
	if err := application.Start(); err != nil {
		log.Fatalf("ERROR: failed to start app: %v", err)
	}

	server := httpapi.NewServer(application)

	go func() {
		log.Printf("INFO: control API listening on %s", settings.Addr())
		if err := server.Listen(settings.Addr()); err != nil {
			log.Printf("ERROR: fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Println("INFO: Quitting")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("ERROR: shutdown failed: %v", err)
	}
	application.Quit()
	<-loop.Done()
}
