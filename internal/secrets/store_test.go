package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutGetRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Put("openai", "sk-test-123"))
	got, err := s.Get("openai")
	require.NoError(t, err)
	require.Equal(t, "sk-test-123", got)

	// names are normalized
	got, err = s.Get("  OpenAI ")
	require.NoError(t, err)
	require.Equal(t, "sk-test-123", got)
}

func TestGetMissing(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	_, err = s.Get("plaid")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Put("plaid", "secret"))
	require.NoError(t, s.Delete("plaid"))
	_, err = s.Get("plaid")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileIsNotPlainText(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, s.Put("openai", "sk-very-secret"))
	raw, err := os.ReadFile(filepath.Join(dir, fileName))
	require.NoError(t, err)
	require.NotContains(t, string(raw), "sk-very-secret")
}
