package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the global metrics registry. Collectors register with the
// default prometheus registry and are served at /metrics.
var Metrics = struct {
	BallsApplied     prometheus.Counter
	BallsRejected    *prometheus.CounterVec
	Wickets          prometheus.Counter
	Undos            prometheus.Counter
	Edits            prometheus.Counter
	InningsCompleted *prometheus.CounterVec
	PersistWrites    prometheus.Counter
	PersistErrors    prometheus.Counter
	PersistLatency   prometheus.Histogram
	RemoteMerges     *prometheus.CounterVec
	ReadOnlyRejects  prometheus.Counter
	ActiveMatches    prometheus.Gauge
	FanoutClients    prometheus.Gauge
	InboxOverflows   prometheus.Counter
}{
	BallsApplied: promauto.NewCounter(prometheus.CounterOpts{
		Name: "cricket_balls_applied_total",
		Help: "Deliveries applied to live matches.",
	}),
	BallsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cricket_balls_rejected_total",
		Help: "Deliveries rejected by the engine, by reason.",
	}, []string{"reason"}),
	Wickets: promauto.NewCounter(prometheus.CounterOpts{
		Name: "cricket_wickets_total",
		Help: "Wickets recorded.",
	}),
	Undos: promauto.NewCounter(prometheus.CounterOpts{
		Name: "cricket_undos_total",
		Help: "Successful undo operations.",
	}),
	Edits: promauto.NewCounter(prometheus.CounterOpts{
		Name: "cricket_ball_edits_total",
		Help: "Ball corrections applied.",
	}),
	InningsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cricket_innings_completed_total",
		Help: "Innings completions, by reason.",
	}, []string{"reason"}),
	PersistWrites: promauto.NewCounter(prometheus.CounterOpts{
		Name: "cricket_persist_writes_total",
		Help: "Match snapshots written to the remote store.",
	}),
	PersistErrors: promauto.NewCounter(prometheus.CounterOpts{
		Name: "cricket_persist_errors_total",
		Help: "Failed remote store writes.",
	}),
	PersistLatency: promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cricket_persist_latency_seconds",
		Help:    "Remote store write latency.",
		Buckets: prometheus.DefBuckets,
	}),
	RemoteMerges: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cricket_remote_merges_total",
		Help: "Remote snapshots received, by outcome (applied, equal, stale).",
	}, []string{"outcome"}),
	ReadOnlyRejects: promauto.NewCounter(prometheus.CounterOpts{
		Name: "cricket_read_only_rejects_total",
		Help: "Mutations refused because another scorer holds the match.",
	}),
	ActiveMatches: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cricket_active_matches",
		Help: "Live match contexts held in memory.",
	}),
	FanoutClients: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cricket_fanout_clients",
		Help: "Connected fanout websocket clients.",
	}),
	InboxOverflows: promauto.NewCounter(prometheus.CounterOpts{
		Name: "cricket_inbox_overflows_total",
		Help: "Closures dropped because a match inbox was full.",
	}),
}
