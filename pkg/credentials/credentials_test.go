package credentials

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialsIsValid(t *testing.T) {
	testCases := []struct {
		name        string
		accessToken string
		expiresAt   time.Time
		expect      bool
	}{
		{"valid credentials", "tok", time.Now().Add(time.Hour), true},
		{"empty access token", "", time.Now().Add(time.Hour), false},
		{"expired token", "tok", time.Now().Add(-time.Hour), false},
		{"recently expired", "tok", time.Now().Add(-time.Minute), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			creds := &Credentials{AccessToken: tc.accessToken, ExpiresAt: tc.expiresAt}
			assert.Equal(t, tc.expect, creds.IsValid())
		})
	}

	var none *Credentials
	assert.False(t, none.IsValid())
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "credentials.json")
	store := NewFileStore(path)

	creds, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, creds, "missing file is not an error")

	want := &Credentials{
		AccessToken: "tok",
		ExpiresAt:   time.Now().Add(time.Hour).UTC().Truncate(time.Second),
		UserID:      "u1",
		Pseudonym:   "alice",
		Role:        "admin",
		AdminKey:    "k",
	}
	require.NoError(t, store.Save(want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	if os.Getenv("OS") != "Windows_NT" {
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want.AccessToken, got.AccessToken)
	assert.Equal(t, want.Pseudonym, got.Pseudonym)
	assert.Equal(t, want.AdminKey, got.AdminKey)
	assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, store.Delete())
	require.NoError(t, store.Delete())
	got, err = store.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewFileStore(path).Load()
	assert.Error(t, err)
}
