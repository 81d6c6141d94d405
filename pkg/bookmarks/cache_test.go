package bookmarks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	ids   []string
	err   error
	calls int
}

func (f *fakeLoader) load(context.Context) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]string(nil), f.ids...), nil
}

func newCache(f *fakeLoader) (*Cache, *time.Time) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := New(f.load, 0)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestHasLoadsOnceWithinTTL(t *testing.T) {
	f := &fakeLoader{ids: []string{"p1", "p2"}}
	c, now := newCache(f)
	ctx := context.Background()

	ok, err := c.Has(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Has(ctx, "p3")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, f.calls)

	*now = now.Add(59 * time.Second)
	_, _ = c.Has(ctx, "p1")
	assert.Equal(t, 1, f.calls)

	*now = now.Add(time.Second)
	_, _ = c.Has(ctx, "p1")
	assert.Equal(t, 2, f.calls, "reloads once the TTL has passed")
}

func TestApplyUsesServerState(t *testing.T) {
	f := &fakeLoader{ids: []string{"p1"}}
	c, _ := newCache(f)
	ctx := context.Background()

	_, err := c.Has(ctx, "p1")
	require.NoError(t, err)

	c.Apply("p2", true)
	ok, _ := c.Has(ctx, "p2")
	assert.True(t, ok)

	// applying the same state twice is idempotent
	c.Apply("p1", false)
	c.Apply("p1", false)
	ok, _ = c.Has(ctx, "p1")
	assert.False(t, ok)
	assert.Equal(t, 1, f.calls)
	assert.Equal(t, 1, c.Len())
}

func TestInvalidateForcesReload(t *testing.T) {
	f := &fakeLoader{ids: []string{"p1"}}
	c, _ := newCache(f)
	ctx := context.Background()

	_, _ = c.Has(ctx, "p1")
	f.ids = nil
	c.Invalidate()

	ok, err := c.Has(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, f.calls)
}

func TestLoadErrorKeepsPreviousSet(t *testing.T) {
	f := &fakeLoader{ids: []string{"p1"}}
	c, now := newCache(f)
	ctx := context.Background()

	_, _ = c.Has(ctx, "p1")
	f.err = errors.New("offline")
	*now = now.Add(2 * DefaultTTL)

	_, err := c.Has(ctx, "p1")
	assert.Error(t, err)
	assert.Equal(t, 1, c.Len())

	f.err = nil
	ok, err := c.Has(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClear(t *testing.T) {
	f := &fakeLoader{ids: []string{"p1", "p2"}}
	c, _ := newCache(f)

	_, _ = c.Has(context.Background(), "p1")
	c.Clear()
	assert.Equal(t, 0, c.Len())
}
