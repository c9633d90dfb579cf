package preferences

import (
	"context"
	"testing"

	"eduplatform-web/internal/domain"
	"eduplatform-web/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Defaults(t *testing.T) {
	s := NewStore(context.Background(), storage.NewMemoryStore(), nil)

	assert.Equal(t, domain.ThemeSystem, s.Theme())
	assert.False(t, s.SidebarCollapsed())
}

func TestStore_ToggleTheme(t *testing.T) {
	s := NewStore(context.Background(), storage.NewMemoryStore(), nil)
	require.NoError(t, s.SetTheme(domain.ThemeLight))

	assert.Equal(t, domain.ThemeDark, s.ToggleTheme())
	assert.Equal(t, domain.ThemeSystem, s.ToggleTheme())
	assert.Equal(t, domain.ThemeLight, s.ToggleTheme())
}

func TestStore_SetTheme_Invalid(t *testing.T) {
	s := NewStore(context.Background(), storage.NewMemoryStore(), nil)

	err := s.SetTheme("neon")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, domain.ThemeSystem, s.Theme())
}

func TestStore_Sidebar(t *testing.T) {
	s := NewStore(context.Background(), storage.NewMemoryStore(), nil)

	assert.True(t, s.ToggleSidebarCollapsed())
	assert.False(t, s.ToggleSidebarCollapsed())
	s.SetSidebarCollapsed(true)
	assert.True(t, s.SidebarCollapsed())
}

func TestStore_Persistence(t *testing.T) {
	ctx := context.Background()
	key := domain.StateKey(domain.PreferencesStateName)

	t.Run("round_trip", func(t *testing.T) {
		backend := storage.NewMemoryStore()
		first := NewStore(ctx, backend, nil)
		require.NoError(t, first.SetTheme(domain.ThemeDark))
		first.SetSidebarCollapsed(true)

		raw, err := backend.Load(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"theme":"dark","sidebarCollapsed":true}`, string(raw))

		second := NewStore(ctx, backend, nil)
		assert.Equal(t, domain.Preferences{Theme: domain.ThemeDark, SidebarCollapsed: true}, second.Snapshot())
	})

	t.Run("corrupt_falls_back_to_defaults", func(t *testing.T) {
		backend := storage.NewMemoryStore()
		require.NoError(t, backend.Save(ctx, key, []byte(`{"theme":"neon"}`)))

		s := NewStore(ctx, backend, nil)
		assert.Equal(t, domain.DefaultPreferences(), s.Snapshot())
	})

	t.Run("garbage_falls_back_to_defaults", func(t *testing.T) {
		backend := storage.NewMemoryStore()
		require.NoError(t, backend.Save(ctx, key, []byte(`\x00\x01`)))

		s := NewStore(ctx, backend, nil)
		assert.Equal(t, domain.DefaultPreferences(), s.Snapshot())
	})
}
