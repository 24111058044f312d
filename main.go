// GoSessionEngine is a fingerprinted HTTP request proxy engine.
//
// Startup sequence:
//  1. Initialise the structured logger.
//  2. Load configuration from the environment and create the Prometheus registry.
//  3. Create the session registry and start its background sweeper.
//  4. Build the request orchestrator.
//  5. Start the HTTP surface.
//  6. Block until OS signals SIGINT or SIGTERM, then perform a clean shutdown.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/firasghr/GoSessionEngine/apiserver"
	"github.com/firasghr/GoSessionEngine/config"
	"github.com/firasghr/GoSessionEngine/logger"
	"github.com/firasghr/GoSessionEngine/metrics"
	"github.com/firasghr/GoSessionEngine/orchestrator"
	"github.com/firasghr/GoSessionEngine/session"
)

func main() {
	log := logger.New(logger.LevelInfo)
	log.Info("GoSessionEngine starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Errorf("failed to load configuration: %v", err)
		os.Exit(1)
	}
	if cfg.APIKey == "" {
		log.Error("API_KEY is not set; every authenticated route will reject all requests")
	}
	log.Infof("configuration loaded: port=%d max_sessions=%d session_ttl=%s request_timeout=%s",
		cfg.Port, cfg.MaxSessions, cfg.SessionTTL, cfg.RequestTimeout)

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)

	registry := session.NewRegistry(cfg, m)

	sweeper := session.NewSweeper(registry, cfg.SessionTTL)
	sweeper.Start()
	log.Info("session sweeper started")

	eng := orchestrator.NewEngine(registry, m)

	srv := apiserver.New(cfg, eng, registry, log, reg)
	go func() {
		if err := srv.Start(); err != nil {
			log.Errorf("apiserver error: %v", err)
			os.Exit(1)
		}
	}()

	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			m.SetActiveSessions(registry.Count())
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	fmt.Println()
	log.Infof("received signal %s; shutting down", sig)

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("apiserver shutdown error: %v", err)
	}

	log.Info("GoSessionEngine shut down cleanly")
	log.Sync()
}
