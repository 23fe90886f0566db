package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"tradepilot/internal/app"
	"tradepilot/internal/config"
	"tradepilot/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("TRADEPILOT_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		log.Fatalf("log file setup failed: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.SetLevel(cfg.App.LogLevel)

	logger.SetOracleWriter(nil)
	if cfg.App.OracleDump {
		f, err := setupOracleDump(cfg.App.OracleDumpPath)
		if err != nil {
			log.Fatalf("oracle dump setup failed: %v", err)
		}
		if f != nil {
			defer f.Close()
		}
	}

	printBanner(cfg)

	agent, err := app.New(cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer agent.Close()

	if err := agent.Run(ctx); err != nil {
		log.Fatalf("agent stopped: %v", err)
	}
	logger.Infof("agent stopped cleanly")
}

func printBanner(cfg *config.Config) {
	intervals := make([]string, 0, len(cfg.Trading.Timeframes))
	for _, tf := range cfg.Trading.Timeframes {
		intervals = append(intervals, fmt.Sprintf("%s×%d", tf.Interval, tf.Limit))
	}
	logger.InfoBlock(fmt.Sprintf(`tradepilot starting
env:        %s
symbol:     %s
timeframes: %s
model:      %s
dashboard:  %s
database:   %s`,
		cfg.App.Env,
		cfg.Trading.Symbol,
		strings.Join(intervals, " "),
		cfg.Oracle.Model,
		cfg.App.HTTPAddr,
		cfg.Store.Path,
	))
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}

func setupOracleDump(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	logger.SetOracleWriter(f)
	return f, nil
}
