package mode

import (
	"fmt"
	"time"

	"github.com/mcdev12/pitchlab/internal/game/events"
	"github.com/mcdev12/pitchlab/internal/music"
)

// SurvivalSettings configures a survival session: a health pool that drains
// over time, recovers on correct guesses and takes damage on incorrect
// ones. The session completes when health is depleted.
type SurvivalSettings struct {
	MaxHealth      int     `json:"max_health"`
	HealthDamage   int     `json:"health_damage"`
	HealthRecovery int     `json:"health_recovery"`
	DrainPerSecond float64 `json:"drain_per_second"`
	ChordMode      bool    `json:"chord_mode"`
}

// DefaultSurvivalSettings is the standard survival configuration.
func DefaultSurvivalSettings() SurvivalSettings {
	return SurvivalSettings{
		MaxHealth:      100,
		HealthDamage:   20,
		HealthRecovery: 10,
		DrainPerSecond: 1.0,
	}
}

// Survival tracks a health pool clamped to [0, MaxHealth].
type Survival struct {
	base
	settings SurvivalSettings
	health   float64
}

// NewSurvival creates a survival mode at full health.
func NewSurvival(settings SurvivalSettings, gen *music.Generator) *Survival {
	if settings.MaxHealth <= 0 {
		settings.MaxHealth = 100
	}
	return &Survival{
		base:     newBase(gen, settings.ChordMode),
		settings: settings,
		health:   float64(settings.MaxHealth),
	}
}

func (s *Survival) Mode() string { return ModeSurvival }

// Health returns the current health, rounded down.
func (s *Survival) Health() int { return int(s.health) }

// Tick drains health with the session clock.
func (s *Survival) Tick(dt time.Duration) {
	s.adjustHealth(-s.settings.DrainPerSecond * dt.Seconds())
}

var _ TimeDriven = (*Survival)(nil)

func (s *Survival) HandleCorrectGuess() events.GuessResult {
	s.recordCorrect()
	s.adjustHealth(float64(s.settings.HealthRecovery))
	result := events.GuessResult{
		IsCorrect:     true,
		Feedback:      fmt.Sprintf("Correct! Health %d", s.Health()),
		ShouldAdvance: true,
		GameCompleted: s.IsGameComplete(),
	}
	if result.GameCompleted {
		stats := s.Stats()
		result.Stats = &stats
	}
	return result
}

func (s *Survival) HandleIncorrectGuess() events.GuessResult {
	s.recordIncorrect()
	s.adjustHealth(-float64(s.settings.HealthDamage))
	result := events.GuessResult{
		IsCorrect:     false,
		Feedback:      fmt.Sprintf("Incorrect! Health %d", s.Health()),
		GameCompleted: s.IsGameComplete(),
	}
	if result.GameCompleted {
		stats := s.Stats()
		result.Stats = &stats
	}
	return result
}

func (s *Survival) adjustHealth(delta float64) {
	s.health += delta
	if s.health < 0 {
		s.health = 0
	}
	if max := float64(s.settings.MaxHealth); s.health > max {
		s.health = max
	}
}

func (s *Survival) IsGameComplete() bool { return s.health <= 0 }

func (s *Survival) Stats() events.Stats {
	stats := s.stats()
	health := s.Health()
	stats.Health = &health
	return stats
}

func (s *Survival) Reset() {
	s.resetCounters()
	s.health = float64(s.settings.MaxHealth)
}

// Settings returns the session configuration for history records.
func (s *Survival) Settings() any { return s.settings }

var _ GameMode = (*Survival)(nil)
