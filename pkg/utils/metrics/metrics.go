package metrics

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "meetlink"

// Sync holds the collectors updated by every sync run. A nil *Sync is valid and records nothing.
type Sync struct {
	runs        *prometheus.CounterVec
	duration    prometheus.Histogram
	meetings    *prometheus.CounterVec
	contacts    prometheus.Counter
	needsReview prometheus.Counter
	resolutions *prometheus.CounterVec
	lastSuccess prometheus.Gauge
}

// NewSync creates the sync collectors and registers them to reg.
func NewSync(reg prometheus.Registerer) (*Sync, error) {
	s := &Sync{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "runs_total",
			Help:      "Number of sync runs by type and final status",
		}, []string{"type", "status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "duration_seconds",
			Help:      "Duration of sync runs",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		meetings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "meetings_total",
			Help:      "Meetings seen by sync runs, labeled processed or new",
		}, []string{"kind"}),
		contacts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "contacts_created_total",
			Help:      "Contacts created by the matching cascade",
		}),
		needsReview: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "needs_review_total",
			Help:      "Calls flagged for human review",
		}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "match",
			Name:      "resolutions_total",
			Help:      "Cascade resolutions by strategy and confidence",
		}, []string{"strategy", "confidence"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last completed sync run",
		}),
	}

	for _, c := range []prometheus.Collector{s.runs, s.duration, s.meetings, s.contacts, s.needsReview, s.resolutions, s.lastSuccess} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, goerr.Wrap(err, "failed to register sync collector")
			}
		}
	}

	return s, nil
}

// ObserveRun records the outcome of one sync run.
func (s *Sync) ObserveRun(syncType, status string, elapsed time.Duration) {
	if s == nil {
		return
	}
	s.runs.WithLabelValues(syncType, status).Inc()
	s.duration.Observe(elapsed.Seconds())
	if status == "completed" {
		s.lastSuccess.SetToCurrentTime()
	}
}

// AddMeetings records processed and newly inserted meeting counts.
func (s *Sync) AddMeetings(processed, inserted int) {
	if s == nil {
		return
	}
	s.meetings.WithLabelValues("processed").Add(float64(processed))
	s.meetings.WithLabelValues("new").Add(float64(inserted))
}

// AddContactsCreated records auto-created contacts.
func (s *Sync) AddContactsCreated(n int) {
	if s == nil {
		return
	}
	s.contacts.Add(float64(n))
}

// AddNeedsReview records calls flagged for review.
func (s *Sync) AddNeedsReview(n int) {
	if s == nil {
		return
	}
	s.needsReview.Add(float64(n))
}

// ObserveResolution records which strategy resolved a meeting.
func (s *Sync) ObserveResolution(strategy, confidence string) {
	if s == nil {
		return
	}
	s.resolutions.WithLabelValues(strategy, confidence).Inc()
}
