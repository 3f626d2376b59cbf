package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"domain-parser/internal/api"
	"domain-parser/internal/config"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	envPath := flag.String("env", ".env", "Path to a .env file, ignored when missing")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	cfg.ConfigureLogging()

	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logrus.Fatalf("create data directory: %v", err)
		}
	}

	server, err := api.NewServer(api.Config{
		DBPath:         cfg.DBPath,
		AllowedOrigins: cfg.AllowedOrigins,
		SilentDB:       cfg.LogLevel != "debug" && cfg.LogLevel != "trace",
		RecordLookups:  cfg.RecordLookups,
		Metrics:        cfg.Metrics,
		Defaults:       cfg.Defaults,
	})
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}
	defer server.Close()

	router, err := server.Router()
	if err != nil {
		logrus.Fatalf("configure router: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"port":    cfg.Port,
		"db_path": cfg.DBPath,
	}).Info("starting domain-parser server")
	if err := router.Run(":" + cfg.Port); err != nil {
		logrus.Fatalf("server exited: %v", err)
	}
}
