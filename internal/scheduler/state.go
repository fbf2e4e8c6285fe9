package scheduler

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// State remembers what the daily loop already sent.
type State struct {
	// LastSentDate is the YYYY-MM-DD of the last handled day.
	LastSentDate string `json:"last_sent_date,omitempty"`
	// LastClosingKey is the YYYY-MM of the last month whose closing was sent.
	LastClosingKey string `json:"last_fechamento_key,omitempty"`
}

// StateStore persists State as a JSON file.
type StateStore struct {
	path string
}

func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Load returns the stored state. A missing or unreadable file yields an
// empty state.
func (s *StateStore) Load() State {
	var st State
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return st
	}
	if err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("scheduler: state unreadable, starting empty")
		return State{}
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("scheduler: state corrupt, starting empty")
		return State{}
	}
	return st
}

// Save writes the state atomically.
func (s *StateStore) Save(st State) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
