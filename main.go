package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/Polqt/siphonophore/actor"
	"github.com/Polqt/siphonophore/config"
	"github.com/Polqt/siphonophore/hook"
	"github.com/Polqt/siphonophore/storage"
	"github.com/Polqt/siphonophore/transport"
)

func main() {
	configPath := os.Getenv("SIPHONOPHORE_CONFIG_FILE")
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "siphonophore: config:", err)
		os.Exit(1)
	}

	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	var hooks []hook.Hook
	if cfg.EnableFileStorage {
		fs, err := storage.NewFileStorage(cfg.DataDir, log.With("component", "storage"))
		if err != nil {
			log.Error("failed to initialize file storage", "err", err)
			os.Exit(1)
		}
		hooks = append(hooks, fs)
	}

	chain := hook.NewChain(log, hooks...)
	root := actor.NewRoot(cfg, chain, log)

	mux := http.NewServeMux()
	mux.Handle(cfg.WSPath, transport.NewHandler(root, chain, log, cfg))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "ok")
	})

	srv := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("siphonophore listening", "addr", cfg.BindAddr, "ws_path", cfg.WSPath)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
	}
}
