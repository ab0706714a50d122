package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Process-wide counters for both roles. A coordinator leaves the lock
// counters at zero and vice versa.
var (
	CommitsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collage_commits_started_total",
		Help: "Commits accepted by StartCommit.",
	})
	CommitsCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collage_commits_committed_total",
		Help: "Commits that finished with decision YES.",
	})
	CommitsAborted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collage_commits_aborted_total",
		Help: "Commits that finished with decision NO or ABORT.",
	})
	DecisionResends = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collage_decision_resends_total",
		Help: "Phase II decision rebroadcasts after an ack timeout.",
	})
	MessagesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collage_messages_dropped_total",
		Help: "Messages dropped: unroutable, unknown commit, or send failure.",
	})
	LocksPrepared = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collage_locks_prepared_total",
		Help: "Source files tentatively locked by a commit query.",
	})
	LocksReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collage_locks_released_total",
		Help: "Source files released from the prepared state.",
	})
	FilesCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collage_files_committed_total",
		Help: "Source files deleted in service of a committed collage.",
	})
)

// Serve exposes /metrics on the given address. An empty address disables
// the listener.
func Serve(addr string) {
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Errorln("Metrics listener failed: ", err)
		}
	}()
}
