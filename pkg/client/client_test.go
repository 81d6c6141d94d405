package client

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCreds struct {
	token, key string
}

func (s staticCreds) Token() string    { return s.token }
func (s staticCreds) AdminKey() string { return s.key }

func echoHeaders(t *testing.T) (*httptest.Server, *http.Header) {
	t.Helper()
	var seen http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestAnonymousRequestsCarryNoAuth(t *testing.T) {
	srv, seen := echoHeaders(t)
	c := New(srv.URL, time.Second, nil)

	_, err := c.R().Get("/health")
	require.NoError(t, err)

	assert.Empty(t, seen.Get("Authorization"))
	assert.Empty(t, seen.Get(AdminKeyHeader))
	assert.Equal(t, userAgent, seen.Get("User-Agent"))
	assert.Equal(t, srv.URL, c.BaseURL())
}

func TestCredentialsReadPerRequest(t *testing.T) {
	srv, seen := echoHeaders(t)
	c := New(srv.URL, time.Second, staticCreds{token: "abc"})

	_, err := c.R().Get("/api/auth/me")
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", seen.Get("Authorization"))
	assert.Empty(t, seen.Get(AdminKeyHeader))

	c.SetCredentials(staticCreds{token: "def", key: "s3cret"})
	_, err = c.R().Get("/api/admin/stats")
	require.NoError(t, err)
	assert.Equal(t, "Bearer def", seen.Get("Authorization"))
	assert.Equal(t, "s3cret", seen.Get(AdminKeyHeader))
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(srv.URL, 20*time.Millisecond, nil)
	_, err := c.R().Get("/slow")
	assert.Error(t, err)
}
