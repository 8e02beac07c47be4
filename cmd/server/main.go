package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"golang.org/x/sync/errgroup"

	"watchrelay/internal/config"
	"watchrelay/internal/hertzapi"
	"watchrelay/internal/httpapi"
	"watchrelay/internal/rooms"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	registry := rooms.NewRegistry()

	// Hertz listener: REST + WebSocket.
	hertzSrv := server.Default(server.WithHostPorts(cfg.HertzAddr))
	hertzapi.NewRouter(hertzSrv, registry, cfg.KeepAliveInterval, cfg.SubscriberBuffer)

	// net/http listener: REST + WebSocket + the SSE event stream, which
	// needs a flushable response writer.
	api := httpapi.NewServer(registry, cfg.KeepAliveInterval, cfg.SubscriberBuffer)
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: api.Router()}

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		log.Printf("Starting Hertz server on %s", cfg.HertzAddr)
		hertzSrv.Spin()
		return nil
	})
	g.Go(func() error {
		log.Printf("Starting HTTP server on %s", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stop:
	case <-ctx.Done():
	}
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := hertzSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Hertz shutdown failed: %v", err)
	}
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown failed: %v", err)
	}
	if err := g.Wait(); err != nil {
		log.Printf("Listener error: %v", err)
	}

	log.Println("Server stopped")
}
