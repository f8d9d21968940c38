package credstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestCookieStoreSetWritesFlags(t *testing.T) {
	ctx := context.Background()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	store, err := NewCookieProvider("/").Open(w, r)
	require.NoError(t, err)

	err = store.Set(ctx, "twitter_access_token", "tok", Options{
		TTL:      2 * time.Hour,
		HTTPOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	require.NoError(t, err)

	c := cookieByName(w.Result().Cookies(), "twitter_access_token")
	require.NotNil(t, c)
	assert.Equal(t, "tok", c.Value)
	assert.Equal(t, 7200, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestCookieStoreRoundTripsJSONValues(t *testing.T) {
	ctx := context.Background()
	value := `{"id":"1","name":"Jane Doe, Esq."}`

	w := httptest.NewRecorder()
	store, err := NewCookieProvider("/").Open(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "twitter_user", value, Options{TTL: time.Hour}))

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		next.AddCookie(c)
	}

	store, err = NewCookieProvider("/").Open(httptest.NewRecorder(), next)
	require.NoError(t, err)

	got, ok, err := store.Get(ctx, "twitter_user")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, value, got)
}

func TestCookieStoreReadsOwnWrites(t *testing.T) {
	ctx := context.Background()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "twitter_state", Value: "old"})

	store, err := NewCookieProvider("/").Open(httptest.NewRecorder(), r)
	require.NoError(t, err)

	got, ok, _ := store.Get(ctx, "twitter_state")
	assert.True(t, ok)
	assert.Equal(t, "old", got)

	require.NoError(t, store.Delete(ctx, "twitter_state"))
	_, ok, _ = store.Get(ctx, "twitter_state")
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "twitter_state", "new", Options{TTL: time.Minute}))
	got, ok, _ = store.Get(ctx, "twitter_state")
	assert.True(t, ok)
	assert.Equal(t, "new", got)
}

func TestCookieStoreDeleteExpiresCookie(t *testing.T) {
	w := httptest.NewRecorder()
	store, err := NewCookieProvider("/").Open(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), "missing"))

	c := cookieByName(w.Result().Cookies(), "missing")
	require.NotNil(t, c)
	assert.Equal(t, -1, c.MaxAge)
}
