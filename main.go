package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"card-flipper/internal/api"
	"card-flipper/internal/config"
	"card-flipper/internal/db"
	"card-flipper/internal/ebay"
	"card-flipper/internal/engine"
	"card-flipper/internal/logger"
)

var version = "dev"

func main() {
	port := flag.Int("port", 13380, "HTTP server port")
	configDir := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	logger.Banner(version)

	// .env carries marketplace credentials (EBAY_APP_ID); absence is fine.
	godotenv.Load()

	cfg, err := config.Load(*configDir)
	if err != nil {
		logger.Error("Config", fmt.Sprintf("Load failed: %v", err))
		os.Exit(1)
	}

	database, err := db.Open()
	if err != nil {
		logger.Error("DB", fmt.Sprintf("Failed to open database: %v", err))
		os.Exit(1)
	}
	defer database.Close()

	// Persisted user overrides win over file/env values.
	cfg = database.LoadConfig(cfg)

	var ebayClient *ebay.Client
	if appID := os.Getenv("EBAY_APP_ID"); appID != "" {
		ebayClient = ebay.NewClient(appID)
		logger.Success("eBay", "Ingestion client configured")
	} else {
		logger.Warn("eBay", "EBAY_APP_ID not set; ingestion endpoint disabled")
	}

	svc := engine.NewService(database, database, cfg)
	srv := api.NewServer(cfg, svc, database, ebayClient)

	logger.Section("Analytics")
	logger.Stats("cache TTL", fmt.Sprintf("%dm", cfg.CacheTTLMinutes))
	logger.Stats("lookback", fmt.Sprintf("%dd", cfg.LookbackDays))
	logger.Stats("fee percent", cfg.FeePercent)

	addr := fmt.Sprintf("127.0.0.1:%d", *port)
	logger.Server(addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		logger.Error("Server", fmt.Sprintf("Failed: %v", err))
		os.Exit(1)
	}
}
