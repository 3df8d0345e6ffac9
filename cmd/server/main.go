// Package main is the entry point for the QLove server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/bbernstein/qlove-go/internal/api"
	"github.com/bbernstein/qlove-go/internal/config"
	"github.com/bbernstein/qlove-go/internal/database"
	"github.com/bbernstein/qlove-go/internal/logger"
	"github.com/bbernstein/qlove-go/internal/services/cues"
	"github.com/bbernstein/qlove-go/internal/services/dmx"
	"github.com/bbernstein/qlove-go/internal/services/export"
	"github.com/bbernstein/qlove-go/internal/services/maps"
	"github.com/bbernstein/qlove-go/internal/services/network"
	"github.com/bbernstein/qlove-go/internal/services/presets"
	"github.com/bbernstein/qlove-go/internal/services/pubsub"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "qlove: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	envErr := godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	if envErr != nil {
		log.Debug("No .env file found, using environment variables")
	}

	printBanner(os.Stdout, cfg)

	db, err := database.Connect(database.Config{
		URL:         cfg.DatabaseURL,
		MaxIdleConn: 5,
		MaxOpenConn: 10,
		Debug:       cfg.IsDevelopment(),
		Log:         log,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() { _ = database.Close() }()

	log.Info("Running database migrations...")
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	catalog, err := presets.Catalog(cfg.PresetsFile)
	if err != nil {
		log.WithError(err).Warn("Could not load presets file, using built-in presets")
		catalog = presets.Default()
	}

	ps := pubsub.New()
	dmxService := dmx.NewService(
		dmx.Config{KeepAliveHz: cfg.DMXKeepAliveRate},
		newTransport(cfg, log),
		log,
		ps,
	)

	mapService := maps.NewService(db, catalog, dmxService, ps, log)
	active, err := mapService.Bootstrap(context.Background())
	if err != nil {
		return fmt.Errorf("failed to prepare maps: %w", err)
	}
	log.With(logger.Fields{"map": active.Name, "fixtures": active.FixtureCount}).Info("Active map loaded")

	cueService := cues.NewService(db, dmxService, ps, log)
	exportService := export.NewService(mapService, log)

	if cfg.DMXTransport != config.TransportNone {
		if err := dmxService.Connect(context.Background()); err != nil {
			// The output can be connected later through the API.
			log.WithError(err).Warn("DMX output not connected")
		}
	}

	h := api.NewHandler(mapService, cueService, exportService, dmxService, ps, log)
	h.Version = Version

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin, "http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		Debug:            cfg.IsDevelopment(),
	})

	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     corsMiddleware.Handler(h.Router()),
		ReadTimeout: 15 * time.Second,
		// No write timeout: /ws/dmx is long lived.
		IdleTimeout: 60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Server listening on http://localhost:%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}
	log.Info("Shutting down server...")

	if err := dmxService.Disconnect(); err != nil {
		log.WithError(err).Warn("DMX disconnect failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

// newTransport builds the DMX output selected by DMX_TRANSPORT.
func newTransport(cfg *config.Config, log *logger.Log) dmx.Transport {
	switch cfg.DMXTransport {
	case config.TransportSerial:
		return dmx.NewSerialTransport(cfg.DMXSerialPort, cfg.DMXSerialBaud, dmx.OpenSerial)
	case config.TransportArtNet:
		broadcast := cfg.ArtNetBroadcast
		if broadcast == "" {
			broadcast = network.DefaultBroadcast()
		}
		return dmx.NewArtNetTransport(broadcast, cfg.ArtNetPort, cfg.ArtNetUniverse)
	case config.TransportMQTT:
		return dmx.NewMQTTTransport(dmx.MQTTConfig{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Topic:    cfg.MQTTTopic,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		}, log)
	default:
		return &dmx.NullTransport{}
	}
}

// printBanner prints the startup banner.
func printBanner(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "============================================")
	fmt.Fprintln(w, "  QLove Server")
	fmt.Fprintf(w, "  Version: %s\n", Version)
	fmt.Fprintf(w, "  Build:   %s\n", BuildTime)
	fmt.Fprintf(w, "  Commit:  %s\n", GitCommit)
	fmt.Fprintln(w, "============================================")
	fmt.Fprintf(w, "  Environment: %s\n", cfg.Env)
	fmt.Fprintf(w, "  Port:        %s\n", cfg.Port)
	fmt.Fprintf(w, "  Database:    %s\n", cfg.DatabaseURL)
	fmt.Fprintf(w, "  DMX output:  %s\n", cfg.DMXTransport)
	fmt.Fprintln(w, "============================================")
}
