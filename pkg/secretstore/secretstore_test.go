package secretstore

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMem(t *testing.T) *Store {
	t.Helper()
	s, err := Open(OpenOptions{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCookieRoundTrip(t *testing.T) {
	s := openMem(t)

	_, ok, err := s.Cookie("a1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetCookie("a1", "BDUSS=1"))
	require.NoError(t, s.SetCookie("a2", ""))

	v, ok, err := s.Cookie("a1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "BDUSS=1", v)

	// 空值也算存在
	v, ok, err = s.Cookie("a2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, v)

	ids, err := s.AccountIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a1", "a2"}, ids)

	require.NoError(t, s.DeleteCookie("a1"))
	_, ok, err = s.Cookie("a1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetCookieRejectsEmptyID(t *testing.T) {
	s := openMem(t)
	assert.Error(t, s.SetCookie(" ", "x"))
}

func TestNilStore(t *testing.T) {
	var s *Store
	_, _, err := s.Cookie("a1")
	assert.ErrorIs(t, err, ErrNotOpened)
	assert.NoError(t, s.Close())
}

func TestParseKey(t *testing.T) {
	k, err := ParseKey("")
	require.NoError(t, err)
	assert.Nil(t, k)

	hexKey := strings.Repeat("ab", 32)
	k, err = ParseKey("0x" + hexKey)
	require.NoError(t, err)
	assert.Len(t, k, 32)

	b64 := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
	k, err = ParseKey(b64)
	require.NoError(t, err)
	assert.Equal(t, []byte(strings.Repeat("k", 32)), k)

	_, err = ParseKey("abcd")
	assert.Error(t, err)
	_, err = ParseKey("not a key!")
	assert.Error(t, err)
}
