package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"eduplatform-web/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_PlainRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewFileStore(dir, nil)
	require.NoError(t, err)

	key := domain.StateKey(domain.AuthStateName)
	_, err = s.Load(ctx, key)
	assert.ErrorIs(t, err, domain.ErrStateNotFound)

	require.NoError(t, s.Save(ctx, key, []byte(`{"isAuthenticated":false}`)))

	raw, err := os.ReadFile(filepath.Join(dir, key+".json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"isAuthenticated":false}`, string(raw))

	got, err := s.Load(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"isAuthenticated":false}`, string(got))

	require.NoError(t, s.Delete(ctx, key))
	require.NoError(t, s.Delete(ctx, key), "deleting a missing key is not an error")
	_, err = s.Load(ctx, key)
	assert.ErrorIs(t, err, domain.ErrStateNotFound)
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir, nil)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Save(ctx, "eduplatform_ui-storage", []byte(`{"theme":"light"}`)))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "eduplatform_ui-storage.json", entries[0].Name())
}

func TestFileStore_Sealed(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	sealer, err := NewSealer("an-installation-secret-of-32-chars!!")
	require.NoError(t, err)
	s, err := NewFileStore(dir, sealer)
	require.NoError(t, err)

	key := domain.StateKey(domain.AuthStateName)
	plaintext := []byte(`{"tokens":{"accessToken":"tok1"}}`)
	require.NoError(t, s.Save(ctx, key, plaintext))

	raw, err := os.ReadFile(filepath.Join(dir, key+".json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "tok1")

	got, err := s.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)

	other, err := NewSealer("a-different-secret-of-32-chars!!!!!")
	require.NoError(t, err)
	wrong, err := NewFileStore(dir, other)
	require.NoError(t, err)
	_, err = wrong.Load(ctx, key)
	assert.ErrorIs(t, err, ErrUnsealFailed)
}

func TestFileStore_RejectsUnsafeKeys(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)

	for _, key := range []string{"../escape", "a/b", ""} {
		assert.Error(t, s.Save(context.Background(), key, []byte("{}")), key)
	}
}
