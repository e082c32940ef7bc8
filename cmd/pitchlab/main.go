package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/mattn/go-isatty"
	"github.com/mcdev12/pitchlab/internal/audio"
	"github.com/mcdev12/pitchlab/internal/config"
	"github.com/mcdev12/pitchlab/internal/game/events"
	"github.com/mcdev12/pitchlab/internal/game/gateway"
	"github.com/mcdev12/pitchlab/internal/game/machine"
	"github.com/mcdev12/pitchlab/internal/game/orchestrator"
	"github.com/mcdev12/pitchlab/internal/game/relay"
	"github.com/mcdev12/pitchlab/internal/game/timer"
	"github.com/mcdev12/pitchlab/internal/history"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if isatty.IsTerminal(os.Stdout.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	clock := clockwork.NewRealClock()
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var player audio.Player = audio.NopPlayer{}
	if cfg.Audio.Enabled {
		synth := audio.NewSynthPlayer()
		if err := synth.Initialize(ctx); err != nil {
			log.Error().Err(err).Msg("audio init failed; continuing silent")
		} else {
			player = synth
		}
	}

	orchCfg := orchestrator.Config{
		Machine: machine.Config{
			SessionDirection: timer.DirectionUp,
			SessionDuration:  cfg.SessionDuration(),
			RoundDuration:    cfg.RoundDuration(),
			TickInterval:     timer.DefaultTickInterval,
		},
		AutoAdvanceSeconds: cfg.Game.AutoAdvanceSeconds,
	}

	manager := gateway.NewSessionManager(gateway.DefaultConnectionConfig(), orchCfg, player, clock)

	if cfg.NATSURL != "" {
		r, err := relay.New(relay.DefaultConfig(cfg.NATSURL))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect event relay")
		}
		defer r.Close()
		manager.AddEventSink(r.Publish)
		log.Info().Str("url", cfg.NATSURL).Msg("event relay enabled")
	}

	if cfg.PostgresDSN != "" {
		repo, err := history.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open session history store")
		}
		defer repo.Close()
		manager.AddEventSink(func(ev orchestrator.Event) {
			if ev.Type != events.TypeSessionComplete {
				return
			}
			payload, ok := ev.Data.(events.SessionCompletePayload)
			if !ok {
				return
			}
			// Sinks run on the game goroutine; keep the DB write off it.
			go func() {
				saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer saveCancel()
				if err := repo.SaveSummary(saveCtx, payload.Session); err != nil {
					log.Error().Err(err).Msg("failed to persist session history")
				}
			}()
		})
		log.Info().Msg("session history store enabled")
	}

	server := gateway.NewServer(gateway.ServerConfig{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, manager)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("gateway server failed")
		}
	}
}
