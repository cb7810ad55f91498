package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/1siamBot/fisheye-engine/engine/app"
	"github.com/1siamBot/fisheye-engine/engine/config"
)

func main() {
	fs := flag.CommandLine
	flags := config.RegisterFlags(fs)
	verbose := fs.Bool("v", false, "log every written frame")
	if err := flags.Parse(fs, os.Args[1:]); err != nil {
		os.Exit(2)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := config.LoadOptional(flags.ConfigPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", flags.ConfigPath).Msg("config load failed")
	}
	cfg.Resolve(flags)

	a, err := app.New(cfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	// Progress is logged from the export events, dispatched once per frame
	s, err := a.RunExport(ctx, a.DirSink())
	if err != nil {
		written := 0
		if s != nil {
			written = s.Written()
		}
		log.Fatal().Err(err).Int("written", written).Msg("export failed")
	}
	log.Info().
		Int("files", s.Written()).
		Str("dir", cfg.Export.OutputDir).
		Dur("took", time.Since(start)).
		Msg("done")
}
