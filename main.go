package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fivestack-gg/fivestack/config"
	_ "github.com/fivestack-gg/fivestack/docs"
	"github.com/fivestack-gg/fivestack/internal/roster"
	"github.com/fivestack-gg/fivestack/internal/store"
	"github.com/fivestack-gg/fivestack/internal/sweeper"
	"github.com/fivestack-gg/fivestack/internal/ws"
	"github.com/fivestack-gg/fivestack/routes"
)

// @title fivestack REST API
// @version 1.0
// @description Team formation service: 5 slots, 2 reserve spots, one leader.
// @host localhost:8090
// @BasePath /api
func main() {
	if err := config.Initialize(); err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	cfg := config.GetConfig()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	hub := ws.NewHub(logger)
	notifiers := roster.Fanout{hub}

	if cfg.DB.Enabled {
		if err := config.DB.AutoMigrate(&store.TeamRecord{}); err != nil {
			log.Fatalf("AutoMigrate failed: %v", err)
		}
		log.Println("AutoMigrate successful")
		notifiers = append(notifiers, store.NewRecorder(store.NewTeamStore(config.DB), logger))
	}

	registry := roster.NewRegistry()
	engine := roster.NewEngine(registry, roster.SystemClock(), roster.RandomPicker(), notifiers, logger)

	sw := sweeper.New(engine, roster.SystemClock(), cfg.Roster.TeamTTL, cfg.Roster.SweepInterval, logger)
	sw.Start(context.Background())

	r := routes.SetupRoutes(cfg, engine, hub, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Starting server on port %s in %s mode\n", cfg.App.Port, cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to run server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	sw.Stop()
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
}
