package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"stakevault/config"
	"stakevault/core"
	"stakevault/core/state"
	"stakevault/native/stake"
	"stakevault/observability/logging"
	"stakevault/rpc"
	"stakevault/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	memoryFlag := flag.Bool("memory", false, "DEV ONLY: keep ledger state in memory instead of on disk")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("STAKEVAULT_ENV"))

	cfg, err := config.Load(*configFile)
	if err != nil {
		logging.Setup("stakevaultd", env, slog.LevelInfo)
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.Setup("stakevaultd", env, logging.ParseLevel(cfg.LogLevel))

	admin, err := cfg.Admin()
	if err != nil {
		logger.Error("invalid admin address", slog.Any("error", err))
		os.Exit(1)
	}

	var db storage.Database
	if *memoryFlag {
		db = storage.NewMemDB()
	} else {
		path := filepath.Join(cfg.DataDir, "ledger")
		leveldb, err := storage.NewLevelDB(path)
		if err != nil {
			logger.Error("failed to open database", slog.String("path", path), slog.Any("error", err))
			os.Exit(1)
		}
		db = leveldb
	}
	defer db.Close()

	ledger := core.NewLedger(state.NewManager(db), admin)
	if err := seedConfig(ledger, cfg); err != nil {
		logger.Error("failed to seed staking config", slog.Any("error", err))
		os.Exit(1)
	}

	server := rpc.NewServer(ledger, logger)
	httpServer := &http.Server{
		Addr:              cfg.RPCAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting JSON-RPC server", slog.String("address", cfg.RPCAddress))
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("rpc server failed", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-sigCh:
		logger.Info("shutting down", slog.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed", slog.Any("error", err))
		}
	}
}

// seedConfig installs the staking configuration from the config file when the
// ledger has none yet. An existing on-disk configuration always wins.
func seedConfig(ledger *core.Ledger, cfg *config.Config) error {
	token, err := cfg.Token()
	if err != nil {
		return err
	}
	treasury, treasuryEnabled, err := cfg.Treasury()
	if err != nil {
		return err
	}
	return ledger.InitializeConfig(&stake.Config{
		UnbondSeconds:     cfg.UnbondSeconds,
		StakedToken:       token,
		DecimalDifference: cfg.DecimalDifference,
		Treasury:          treasury,
		TreasuryEnabled:   treasuryEnabled,
	})
}
