package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"github.com/hkmon/hknews/internal/app"
	"github.com/hkmon/hknews/internal/classify"
	"github.com/hkmon/hknews/internal/config"
	"github.com/hkmon/hknews/internal/feed"
	"github.com/hkmon/hknews/internal/logger"
	"github.com/hkmon/hknews/internal/metrics"
	"github.com/hkmon/hknews/internal/page"
	"github.com/hkmon/hknews/internal/store"
	"github.com/hkmon/hknews/internal/telegram"
)

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}

	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		go startMonitoringServer(cfg)
	}

	var remote classify.Remote
	if cfg.ClassifierAPIKey != "" {
		remote = classify.NewRemoteClient(cfg.ClassifierAPIURL, cfg.ClassifierAPIKey,
			cfg.ClassifierGroupID, cfg.ClassifierModel, cfg.RequestTimeout)
	} else {
		logger.Info("no classifier credential, keyword rule only")
	}

	a := app.New(
		cfg,
		feed.New(cfg.RequestTimeout, cfg.MaxEntriesPerFeed),
		classify.New(cfg.CoreKeywords, cfg.RegionKeywords, cfg.ExcludedRegions,
			remote, cfg.MaxClassifierRequests),
		telegram.NewClient(cfg.TelegramToken, cfg.TelegramChatID, cfg.RequestTimeout),
		store.New(cfg.SentFilePath),
	)

	// Exit status reflects process completion; delivery failures are logged
	// inside the cycle, not fatal.
	a.RunCycle(context.Background())
}

func startMonitoringServer(cfg *config.Config) {
	port := os.Getenv("MONITORING_PORT")
	if port == "" {
		port = "8080"
	}

	renderer := page.NewRenderer(cfg.PageSources, cfg.RequestTimeout, cfg.Location())

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/metrics", metricsHandler)
	mux.HandleFunc("/digest", renderer.Handler)

	logger.Info("starting monitoring server", "port", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		logger.Error("monitoring server", "error", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !stats["is_healthy"].(bool) {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	})
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(metrics.Global.GetStats())
}
