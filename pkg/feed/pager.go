// Package feed pages through the home feed and keeps the merged result free
// of duplicates.
package feed

import (
	"context"
	"errors"
	"sync"

	"github.com/maskapp/mask/pkg/api"
)

const (
	TabForYou   = "forYou"
	TabTrending = "trending"

	DefaultLimit = 20
	MaxLimit     = 50
)

var ErrInvalidTab = errors.New("tab must be forYou or trending")

// Fetcher loads one page of a tab
type Fetcher func(ctx context.Context, tab string, page, limit int) (*api.FeedPage, error)

// Pager is safe for concurrent use; concurrent Next calls are serialised.
type Pager struct {
	mu      sync.Mutex
	fetch   Fetcher
	tab     string
	limit   int
	next    int
	hasMore bool
	seen    map[string]struct{}
	posts   []api.Post
}

func NewPager(fetch Fetcher, tab string, limit int) (*Pager, error) {
	if tab == "" {
		tab = TabForYou
	}
	if tab != TabForYou && tab != TabTrending {
		return nil, ErrInvalidTab
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	p := &Pager{fetch: fetch, tab: tab, limit: limit}
	p.reset()
	return p, nil
}

func (p *Pager) reset() {
	p.next = 1
	p.hasMore = true
	p.seen = make(map[string]struct{})
	p.posts = nil
}

// Next fetches the following page and returns only the posts not seen
// before. When the server reports no more pages, Next returns nil, nil.
func (p *Pager) Next(ctx context.Context) ([]api.Post, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.hasMore {
		return nil, nil
	}
	added, more, err := p.load(ctx, p.next)
	if err != nil {
		return nil, err
	}
	p.next++
	p.hasMore = more
	return added, nil
}

// Fetch loads a specific page, for example to retry after a timeout. Posts
// already held are skipped, so asking for the same page twice is harmless.
func (p *Pager) Fetch(ctx context.Context, page int) ([]api.Post, error) {
	if page < 1 {
		page = 1
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	added, more, err := p.load(ctx, page)
	if err != nil {
		return nil, err
	}
	if page >= p.next {
		p.next = page + 1
		p.hasMore = more
	}
	return added, nil
}

func (p *Pager) load(ctx context.Context, page int) ([]api.Post, bool, error) {
	res, err := p.fetch(ctx, p.tab, page, p.limit)
	if err != nil {
		return nil, false, err
	}

	var added []api.Post
	for _, post := range res.Posts {
		if _, dup := p.seen[post.ID]; dup {
			continue
		}
		p.seen[post.ID] = struct{}{}
		p.posts = append(p.posts, post)
		added = append(added, post)
	}
	return added, res.Meta.HasMore, nil
}

func (p *Pager) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

// Posts returns a copy of everything loaded so far, in arrival order
func (p *Pager) Posts() []api.Post {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]api.Post(nil), p.posts...)
}

func (p *Pager) Tab() string { return p.tab }

// Reset starts over from page one, for pull-to-refresh
func (p *Pager) Reset() {
	p.mu.Lock()
	p.reset()
	p.mu.Unlock()
}
