package relay

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcdev12/pitchlab/internal/game/orchestrator"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Config holds the NATS relay configuration.
type Config struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConfig returns the default relay configuration.
func DefaultConfig(url string) Config {
	return Config{
		URL:           url,
		SubjectPrefix: "pitchlab.sessions",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// Relay republishes game events to NATS so other consumers (dashboards,
// analytics) can observe sessions. Publishing is fire-and-forget:
// failures are logged, never surfaced to the game.
type Relay struct {
	nc     *nats.Conn
	config Config
}

// New connects to NATS.
func New(config Config) (*Relay, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &Relay{nc: nc, config: config}, nil
}

// Publish republishes one orchestrator event.
func (r *Relay) Publish(ev orchestrator.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for relay")
		return
	}
	subject := fmt.Sprintf("%s.%s.%s", r.config.SubjectPrefix, ev.SessionID, ev.Type)
	if err := r.nc.Publish(subject, data); err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("failed to publish event")
	}
}

// Close drains the connection.
func (r *Relay) Close() {
	if err := r.nc.Drain(); err != nil {
		log.Error().Err(err).Msg("failed to drain NATS connection")
	}
}
