package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/1siamBot/fisheye-engine/engine/app"
	"github.com/1siamBot/fisheye-engine/engine/config"
	"github.com/1siamBot/fisheye-engine/engine/core"
	"github.com/1siamBot/fisheye-engine/engine/export"
	"github.com/1siamBot/fisheye-engine/engine/preview"
)

func main() {
	fs := flag.CommandLine
	flags := config.RegisterFlags(fs)
	if err := flags.Parse(fs, os.Args[1:]); err != nil {
		os.Exit(2)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	cfg, err := config.LoadOptional(flags.ConfigPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", flags.ConfigPath).Msg("config load failed")
	}
	cfg.Resolve(flags)

	a, err := app.New(cfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	hub := preview.NewHub()
	hub.Log = log.Logger
	if cfg.Export.Format == export.FormatWebP {
		hub.Encoder = export.WebPEncoder{}
	}

	// Exports run on the render goroutine between live frames
	exports := make(chan export.Options, 1)

	mux := http.NewServeMux()
	mux.Handle("/frames", hub)
	mux.HandleFunc("/export", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}
		select {
		case exports <- cfg.ExportOptions():
			w.WriteHeader(http.StatusAccepted)
		default:
			http.Error(w, "export already queued", http.StatusConflict)
		}
	})

	srv := &http.Server{
		Addr:              cfg.Preview.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.Preview.Addr).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server crashed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exporter := a.Exporter(export.MultiSink{a.DirSink(), hub})
	err = core.Run(ctx, a.Driver, float64(cfg.Preview.FPS), func() error {
		if err := hub.Publish(a.Renderer.Snapshot()); err != nil {
			log.Warn().Err(err).Msg("preview publish")
		}
		select {
		case opts := <-exports:
			if _, err := exporter.Run(ctx, opts); err != nil {
				log.Error().Err(err).Msg("export failed")
			}
		default:
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("render loop stopped")
	}

	log.Info().Msg("shutting down")
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
