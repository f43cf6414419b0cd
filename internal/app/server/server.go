package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"airdrop-engine/internal/api"
	"airdrop-engine/internal/config"
	"airdrop-engine/internal/engine"
	"airdrop-engine/internal/genesis"
	"airdrop-engine/internal/listener"
	"airdrop-engine/internal/storage"
)

func Run(cfg config.Config) {
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	store, err := storage.New(rootCtx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init storage")
	}
	defer store.Close()

	// Engine
	eng := engine.New(store)

	// Genesis bootstrap (first boot only)
	if gen, err := genesis.Load(cfg.Genesis.Path); err == nil {
		applied, err := genesis.Apply(rootCtx, eng, gen)
		if err != nil {
			log.Fatal().Err(err).Msg("apply genesis")
		}
		if applied {
			log.Info().Str("admin", gen.Platform.Admin).Uint64("max_batch_size", gen.Platform.MaxBatchSize).Msg("platform instantiated from genesis")
		}
	} else if !os.IsNotExist(err) {
		log.Fatal().Err(err).Str("path", cfg.Genesis.Path).Msg("load genesis")
	}

	// HTTP
	h := api.NewHandler(eng, time.Now)
	r := api.Router(h)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Campaign change listener (LISTEN/NOTIFY)
	go listener.ListenAndRefresh(rootCtx, store, cfg.Listener.Channel, cfg.Backoff())

	// Server goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server crashed")
		}
	}()

	// Wait for signal
	waitForSignal()
	log.Info().Msg("shutdown...")

	// Graceful shutdown
	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	cancel() // stop background goroutines
	_ = srv.Shutdown(shCtx)
}

func waitForSignal() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}
