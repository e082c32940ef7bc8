package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pitchlab/internal/audio"
	"github.com/mcdev12/pitchlab/internal/game/mode"
	"github.com/mcdev12/pitchlab/internal/game/orchestrator"
	"github.com/mcdev12/pitchlab/internal/game/strategy"
	"github.com/mcdev12/pitchlab/internal/game/timer"
	"github.com/mcdev12/pitchlab/internal/music"
	"github.com/rs/zerolog/log"
)

// ConnectionConfig holds WebSocket tuning for game sessions.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Origin filtering is handled by the CORS layer in front.
			return true
		},
	}
}

// EventSink receives every orchestrator event of every session, on top of
// the per-connection forwarding. The relay and history subscribers hang
// off this.
type EventSink func(orchestrator.Event)

// SessionManager upgrades browser connections and runs one game session
// (one orchestrator instance) per connection.
type SessionManager struct {
	config   ConnectionConfig
	upgrader websocket.Upgrader
	clock    clockwork.Clock
	player   audio.Player
	orchCfg  orchestrator.Config

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	sinks    []EventSink
}

// Session is one connected client and its game state.
type Session struct {
	ID      uuid.UUID
	Conn    *websocket.Conn
	Send    chan []byte
	manager *SessionManager

	mu   sync.Mutex
	orch *orchestrator.Orchestrator

	ConnectedAt time.Time
}

// NewSessionManager creates a manager.
func NewSessionManager(config ConnectionConfig, orchCfg orchestrator.Config, player audio.Player, clock clockwork.Clock) *SessionManager {
	return &SessionManager{
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		clock:    clock,
		player:   player,
		orchCfg:  orchCfg,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// AddEventSink registers a cross-session event consumer. Must be called
// before serving.
func (sm *SessionManager) AddEventSink(sink EventSink) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sinks = append(sm.sinks, sink)
}

// HandleWS upgrades an HTTP request into a game session.
func (sm *SessionManager) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := sm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return
	}

	session := &Session{
		ID:          uuid.New(),
		Conn:        conn,
		Send:        make(chan []byte, 256),
		manager:     sm,
		ConnectedAt: sm.clock.Now(),
	}

	sm.mu.Lock()
	sm.sessions[session.ID] = session
	sm.mu.Unlock()

	go session.writePump()
	go session.readPump()

	log.Info().
		Str("session_id", session.ID.String()).
		Str("remote", r.RemoteAddr).
		Msg("game session connected")
}

// SessionCount returns the number of live sessions.
func (sm *SessionManager) SessionCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

func (sm *SessionManager) removeSession(s *Session) {
	sm.mu.Lock()
	if _, ok := sm.sessions[s.ID]; ok {
		delete(sm.sessions, s.ID)
		close(s.Send)
	}
	sm.mu.Unlock()

	s.mu.Lock()
	if s.orch != nil {
		s.orch.Stop()
		s.orch = nil
	}
	s.mu.Unlock()

	log.Info().Str("session_id", s.ID.String()).Msg("game session disconnected")
}

// configure builds a fresh orchestrator for the requested mode and
// strategy, replacing (and stopping) any previous one.
func (s *Session) configure(cmd ClientCommand) error {
	sm := s.manager

	gen := music.NewGenerator(sm.clock.Now().UnixNano())
	chordMode := cmd.Training == "chord"

	machineCfg := sm.orchCfg.Machine
	var gameMode mode.GameMode
	switch cmd.Mode {
	case mode.ModeRush:
		settings := mode.RushSettings{ChordMode: chordMode}
		if len(cmd.Settings) > 0 {
			if err := json.Unmarshal(cmd.Settings, &settings); err != nil {
				return fmt.Errorf("invalid rush settings: %w", err)
			}
		}
		settings.ChordMode = chordMode
		gameMode = mode.NewRush(settings, gen)
	case mode.ModeSurvival:
		settings := mode.DefaultSurvivalSettings()
		if len(cmd.Settings) > 0 {
			if err := json.Unmarshal(cmd.Settings, &settings); err != nil {
				return fmt.Errorf("invalid survival settings: %w", err)
			}
		}
		settings.ChordMode = chordMode
		gameMode = mode.NewSurvival(settings, gen)
	case mode.ModeSandbox:
		settings := mode.SandboxSettings{SessionDuration: 2 * time.Minute}
		if len(cmd.Settings) > 0 {
			if err := json.Unmarshal(cmd.Settings, &settings); err != nil {
				return fmt.Errorf("invalid sandbox settings: %w", err)
			}
		}
		settings.ChordMode = chordMode
		gameMode = mode.NewSandbox(settings, gen)
		machineCfg.SessionDirection = timer.DirectionDown
		machineCfg.SessionDuration = settings.SessionDuration
	default:
		return fmt.Errorf("unknown game mode %q", cmd.Mode)
	}

	var strat strategy.Strategy
	if chordMode {
		strat = strategy.NewChordTraining(sm.player, sm.clock)
	} else {
		strat = strategy.NewEarTraining(sm.player, sm.clock)
	}

	filter := music.DefaultFilter()
	if len(cmd.Filter) > 0 {
		if err := json.Unmarshal(cmd.Filter, &filter); err != nil {
			return fmt.Errorf("invalid note filter: %w", err)
		}
	}

	orchCfg := sm.orchCfg
	orchCfg.Machine = machineCfg
	orch := orchestrator.New(orchCfg, sm.player, sm.clock)
	orch.SetGameMode(gameMode)
	orch.SetStrategy(strat)
	orch.SetNoteFilter(filter)

	// Forward every orchestrator event to this client and to the
	// cross-session sinks. The handler runs under the orchestrator lock,
	// so it only hands bytes to the send channel.
	orch.Emitter().SubscribeAll(func(ev orchestrator.Event) {
		data, err := json.Marshal(ev)
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal game event")
			return
		}
		select {
		case s.Send <- data:
		default:
			log.Warn().Str("session_id", s.ID.String()).Msg("send buffer full, dropping event")
		}
		sm.mu.RLock()
		sinks := sm.sinks
		sm.mu.RUnlock()
		for _, sink := range sinks {
			sink(ev)
		}
	})
	orch.Start()

	s.mu.Lock()
	if s.orch != nil {
		s.orch.Stop()
	}
	s.orch = orch
	s.mu.Unlock()

	log.Info().
		Str("session_id", s.ID.String()).
		Str("mode", cmd.Mode).
		Str("training", cmd.Training).
		Msg("session configured")
	return nil
}

func (s *Session) handleCommand(raw []byte) {
	var cmd ClientCommand
	if err := json.Unmarshal(raw, &cmd); err != nil {
		s.sendError(cmd.Type, fmt.Sprintf("malformed command: %v", err))
		return
	}

	if cmd.Type == CommandSetMode {
		if err := s.configure(cmd); err != nil {
			s.sendError(cmd.Type, err.Error())
		}
		return
	}

	s.mu.Lock()
	orch := s.orch
	s.mu.Unlock()
	if orch == nil {
		s.sendError(cmd.Type, "session not configured: send set_mode first")
		return
	}

	var err error
	switch cmd.Type {
	case CommandStartGame:
		orch.StartGame()
	case CommandStartRound:
		err = orch.StartNewRound()
	case CommandPianoKeyClick:
		var n music.Note
		if n, err = music.ParseNote(cmd.Note); err == nil {
			err = orch.HandlePianoKeyClick(n)
		}
	case CommandSubmitGuess:
		orch.SubmitGuess(cmd.Guess)
	case CommandSubmit:
		err = orch.Submit()
	case CommandAdvanceRound:
		orch.AdvanceRound()
	case CommandReplayNote:
		orch.ReplayNote()
	case CommandPause:
		orch.Pause()
	case CommandResume:
		orch.Resume()
	case CommandReset:
		orch.Reset()
	case CommandPlayAgain:
		orch.PlayAgain()
	default:
		err = fmt.Errorf("unknown command %q", cmd.Type)
	}
	if err != nil {
		s.sendError(cmd.Type, err.Error())
	}
}

func (s *Session) sendError(cmd CommandType, msg string) {
	payload, err := json.Marshal(map[string]any{
		"type": "error",
		"data": ErrorPayload{Command: cmd, Message: msg},
	})
	if err != nil {
		return
	}
	select {
	case s.Send <- payload:
	default:
	}
	log.Warn().Str("session_id", s.ID.String()).Str("command", string(cmd)).Str("error", msg).Msg("client command failed")
}

// writePump sends events to the client and keeps the connection alive.
func (s *Session) writePump() {
	ticker := time.NewTicker(s.manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		s.Conn.Close()
		s.manager.removeSession(s)
	}()

	for {
		select {
		case message, ok := <-s.Send:
			s.Conn.SetWriteDeadline(time.Now().Add(s.manager.config.WriteTimeout))
			if !ok {
				s.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("session_id", s.ID.String()).Msg("failed to write to WebSocket")
				return
			}
		case <-ticker.C:
			s.Conn.SetWriteDeadline(time.Now().Add(s.manager.config.WriteTimeout))
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump decodes client commands.
func (s *Session) readPump() {
	defer func() {
		s.manager.removeSession(s)
		s.Conn.Close()
	}()

	s.Conn.SetReadLimit(s.manager.config.MaxMessageSize)
	s.Conn.SetReadDeadline(time.Now().Add(s.manager.config.ReadTimeout))
	s.Conn.SetPongHandler(func(string) error {
		s.Conn.SetReadDeadline(time.Now().Add(s.manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := s.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("session_id", s.ID.String()).Msg("unexpected WebSocket close")
			}
			break
		}
		s.handleCommand(message)
		s.Conn.SetReadDeadline(time.Now().Add(s.manager.config.ReadTimeout))
	}
}
