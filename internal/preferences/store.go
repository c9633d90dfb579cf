// Package preferences persists the UI preferences of the local user.
package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"eduplatform-web/internal/domain"
	"eduplatform-web/internal/observability"
)

// Store holds the theme and sidebar preferences
type Store struct {
	backend domain.StateStore
	key     string
	logger  *slog.Logger

	mu    sync.Mutex
	prefs domain.Preferences
}

// NewStore restores preferences from backend, falling back to defaults when
// the entry is missing or unreadable.
func NewStore(ctx context.Context, backend domain.StateStore, logger *slog.Logger) *Store {
	if logger == nil {
		logger = observability.Logger()
	}
	s := &Store{
		backend: backend,
		key:     domain.StateKey(domain.PreferencesStateName),
		logger:  logger,
		prefs:   domain.DefaultPreferences(),
	}

	data, err := backend.Load(ctx, s.key)
	switch {
	case errors.Is(err, domain.ErrStateNotFound):
	case err != nil:
		logger.Warn("Failed to load preferences, using defaults", "error", err)
	default:
		var p domain.Preferences
		if err := json.Unmarshal(data, &p); err != nil || !p.Theme.Valid() {
			logger.Warn("Stored preferences are corrupt, using defaults", "key", s.key)
		} else {
			s.prefs = p
		}
	}
	return s
}

// Snapshot returns the current preferences
func (s *Store) Snapshot() domain.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

func (s *Store) Theme() domain.Theme {
	return s.Snapshot().Theme
}

func (s *Store) SidebarCollapsed() bool {
	return s.Snapshot().SidebarCollapsed
}

// SetTheme rejects unknown themes with domain.ErrInvalidInput
func (s *Store) SetTheme(theme domain.Theme) error {
	if !theme.Valid() {
		return fmt.Errorf("%w: unknown theme %q", domain.ErrInvalidInput, theme)
	}
	s.update(func(p *domain.Preferences) { p.Theme = theme })
	return nil
}

// ToggleTheme cycles light → dark → system and returns the new theme
func (s *Store) ToggleTheme() domain.Theme {
	return s.update(func(p *domain.Preferences) { p.Theme = p.Theme.Next() }).Theme
}

func (s *Store) SetSidebarCollapsed(collapsed bool) {
	s.update(func(p *domain.Preferences) { p.SidebarCollapsed = collapsed })
}

func (s *Store) ToggleSidebarCollapsed() bool {
	return s.update(func(p *domain.Preferences) { p.SidebarCollapsed = !p.SidebarCollapsed }).SidebarCollapsed
}

func (s *Store) update(fn func(*domain.Preferences)) domain.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.prefs)

	data, err := json.Marshal(s.prefs)
	if err != nil {
		s.logger.Error("Failed to encode preferences", "error", err)
		return s.prefs
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.backend.Save(ctx, s.key, data); err != nil {
		s.logger.Warn("Failed to persist preferences", "error", err)
	}
	return s.prefs
}
