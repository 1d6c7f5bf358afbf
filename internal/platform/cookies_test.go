package platform

import (
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieFile_RoundTrip(t *testing.T) {
	f := NewCookieFile(filepath.Join(t.TempDir(), "cookies.yml"))

	cookies, err := f.Load()
	require.NoError(t, err)
	assert.Empty(t, cookies, "missing file yields no cookies")

	require.NoError(t, f.Save([]*http.Cookie{
		{Name: "session", Value: "abc", Path: "/", HttpOnly: true},
		{Name: "old", Value: "x", Expires: time.Now().Add(-time.Hour)},
	}))

	cookies, err = f.Load()
	require.NoError(t, err)
	require.Len(t, cookies, 1, "expired cookies are dropped")
	assert.Equal(t, "session", cookies[0].Name)
	assert.Equal(t, "abc", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}
