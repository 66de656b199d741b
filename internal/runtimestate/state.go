// Package runtimestate holds the small set of mutable, process-wide flags
// shared between the scheduler loop and the control API: the live owner
// card pointer, emergency mode, and curator mode. Everything here is
// guarded by one RWMutex — reads are frequent (every scheduler tick, every
// /v1/status call), writes are rare (a handful of control signals a day).
package runtimestate

import (
	"sync"

	"github.com/danvoulez/voulezvous-tv/internal/config"
)

type State struct {
	mu            sync.RWMutex
	card          *config.OwnerCard
	emergencyMode bool
	curatorMode   string
}

func New(card *config.OwnerCard) *State {
	return &State{card: card, curatorMode: "auto"}
}

func (s *State) OwnerCard() *config.OwnerCard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.card
}

func (s *State) ReplaceOwnerCard(card *config.OwnerCard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.card = card
}

func (s *State) EmergencyMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emergencyMode
}

func (s *State) SetEmergencyMode(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emergencyMode = on
}

func (s *State) CuratorMode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.curatorMode
}

// SetCuratorMode accepts "auto" or "manual"; any other value is rejected by
// the caller (the control handler validates before calling this).
func (s *State) SetCuratorMode(mode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.curatorMode = mode
}
