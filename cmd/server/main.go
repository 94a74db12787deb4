package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stream-delivery/internal/engine"
	"stream-delivery/internal/platform/config"
	"stream-delivery/internal/platform/logger"
	"stream-delivery/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()
	cfg := config.FromEnv()

	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	store := engine.NewInMemoryStore()
	resolver := engine.NewSourceResolver(cfg.LiveNamespace)
	transcoder := engine.NewFFmpegTranscoder(cfg.FFmpegBinary)
	previews := engine.NewPreviewCache(transcoder, cfg.PreviewSeek)
	svc := engine.NewService(store, resolver, previews)
	met := metrics.New()
	h := engine.NewHandler(svc, log, met)

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() { met.SetLiveStreams(store.LiveStreamCount()) }).ServeHTTP(w, r)
	})
	r.Route("/streams", func(r chi.Router) {
		r.Get("/", h.ListStreams)
		r.Post("/", h.CreateStream)
		r.Get("/selection/{amount}", h.GetSelection)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/video", h.GetVideo)
			r.Get("/preview", h.GetPreview)
		})
	})
	r.Get("/users/{user_id}/streams", h.GetUserStreams)
	r.Route("/keys", func(r chi.Router) {
		r.Get("/new", h.NewKey)
		r.Get("/latest", h.LatestKey)
	})

	addr := ":" + cfg.Port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", cfg.Port,
		"live_namespace", cfg.LiveNamespace,
		"ffmpeg", cfg.FFmpegBinary,
		"log_level", cfg.LogLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
