// Package notify polls the server for the daily motivation notification.
package notify

import (
	"context"
	"time"

	"github.com/maskapp/mask/pkg/api"
	"github.com/maskapp/mask/pkg/logger"
)

const DefaultInterval = 60 * time.Second

// Fetcher returns the pending notification, or nil when there is none
type Fetcher func(ctx context.Context) (*api.Notification, error)

// Poller checks at a fixed interval. Failed polls are logged and the next
// tick tries again at the same interval.
type Poller struct {
	fetch    Fetcher
	interval time.Duration
	ticker   func(time.Duration) (<-chan time.Time, func())
	seen     map[string]struct{}
}

func NewPoller(fetch Fetcher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		fetch:    fetch,
		interval: interval,
		ticker: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
		seen: make(map[string]struct{}),
	}
}

// Run polls once immediately and then on every tick until ctx is done.
// handle sees each notification ID at most once.
func (p *Poller) Run(ctx context.Context, handle func(api.Notification)) error {
	ticks, stop := p.ticker(p.interval)
	defer stop()

	p.poll(ctx, handle)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticks:
			p.poll(ctx, handle)
		}
	}
}

func (p *Poller) poll(ctx context.Context, handle func(api.Notification)) {
	n, err := p.fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("notification poll failed", "error", err)
		}
		return
	}
	if n == nil {
		return
	}
	if _, ok := p.seen[n.ID]; ok {
		return
	}
	p.seen[n.ID] = struct{}{}
	handle(*n)
}
