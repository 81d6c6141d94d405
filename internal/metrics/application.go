package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ApplicationMetrics tracks domain events: posting, engagement, fact-checks,
// uploads and realtime connections.
type ApplicationMetrics struct {
	PostsCreated      *prometheus.CounterVec
	ReactionsToggled  *prometheus.CounterVec
	CommentsTotal     prometheus.Counter
	ResharesTotal     *prometheus.CounterVec
	BookmarksToggled  *prometheus.CounterVec
	FactChecks        *prometheus.CounterVec
	UploadsTotal      *prometheus.CounterVec
	MessagesSent      prometheus.Counter
	NotificationsSent *prometheus.CounterVec
	WebSocketClients  prometheus.Gauge
	PostsExpired      prometheus.Counter
}

var (
	app     *ApplicationMetrics
	appOnce sync.Once
)

// App returns the application metrics, registering them on first use
func App() *ApplicationMetrics {
	appOnce.Do(func() {
		app = &ApplicationMetrics{
			PostsCreated: promauto.NewCounterVec(
				prometheus.CounterOpts{Name: "mask_posts_created_total", Help: "Posts created by scope and type"},
				[]string{"scope", "type"},
			),
			ReactionsToggled: promauto.NewCounterVec(
				prometheus.CounterOpts{Name: "mask_reactions_toggled_total", Help: "Reaction toggles by outcome"},
				[]string{"outcome"},
			),
			CommentsTotal: promauto.NewCounter(
				prometheus.CounterOpts{Name: "mask_comments_total", Help: "Comments created"},
			),
			ResharesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{Name: "mask_reshares_total", Help: "Reshare attempts by result"},
				[]string{"result"},
			),
			BookmarksToggled: promauto.NewCounterVec(
				prometheus.CounterOpts{Name: "mask_bookmarks_toggled_total", Help: "Bookmark toggles by resulting state"},
				[]string{"state"},
			),
			FactChecks: promauto.NewCounterVec(
				prometheus.CounterOpts{Name: "mask_factchecks_total", Help: "Fact-check annotations by status"},
				[]string{"status"},
			),
			UploadsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{Name: "mask_uploads_total", Help: "Uploads by kind and content type"},
				[]string{"kind", "content_type"},
			),
			MessagesSent: promauto.NewCounter(
				prometheus.CounterOpts{Name: "mask_messages_sent_total", Help: "Direct messages sent"},
			),
			NotificationsSent: promauto.NewCounterVec(
				prometheus.CounterOpts{Name: "mask_notifications_total", Help: "Notifications emitted by type"},
				[]string{"type"},
			),
			WebSocketClients: promauto.NewGauge(
				prometheus.GaugeOpts{Name: "mask_websocket_clients", Help: "Open websocket connections"},
			),
			PostsExpired: promauto.NewCounter(
				prometheus.CounterOpts{Name: "mask_posts_expired_total", Help: "Ephemeral posts removed by the expiry sweep"},
			),
		}
	})
	return app
}
