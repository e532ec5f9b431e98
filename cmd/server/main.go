package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/bracket-battle/internal/config"
	"github.com/DoyleJ11/bracket-battle/internal/httpapi"
	"github.com/DoyleJ11/bracket-battle/internal/hub"
	"github.com/DoyleJ11/bracket-battle/internal/logging"
	"github.com/DoyleJ11/bracket-battle/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, cfg.Dev)
	if err != nil {
		return err
	}
	defer log.Sync()

	st, err := store.Open(cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, hub.Options{
		MaxPlayers:  cfg.MaxPlayers,
		IdleTimeout: cfg.IdleTimeout,
		Store:       st,
		Logger:      log.Named("hub"),
	})
	defer h.Shutdown()

	// Build the router *with* the hub injected
	handler := httpapi.SetupRoutes(httpapi.Deps{
		Hub:            h,
		Store:          st,
		Logger:         log.Named("http"),
		PublicURL:      cfg.PublicURL,
		OriginPatterns: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		// Hijacked websocket connections outlive Shutdown; cancelling their
		// request context on signal is what closes them.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("store", cfg.StoreDriver),
			zap.Int("max_players", cfg.MaxPlayers),
		)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
