package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	publicationDecisions *prometheus.CounterVec
	canonicalizations    *prometheus.CounterVec
	submissionDecisions  *prometheus.CounterVec
	conferenceSubmits    prometheus.Counter
	httpRequests         *prometheus.CounterVec
	httpDuration         *prometheus.HistogramVec
}

// New registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{}

	m.publicationDecisions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "publication_decisions_total",
			Help: "moderation decisions applied to publications",
		},
		[]string{"status"},
	)
	m.canonicalizations = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "publication_canonicalizations_total",
			Help: "file canonicalizations by where the source file was found",
		},
		[]string{"location"},
	)
	m.submissionDecisions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conference_submission_decisions_total",
			Help: "decisions applied to conference submissions",
		},
		[]string{"status"},
	)
	m.conferenceSubmits = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "conference_submissions_total",
			Help: "papers submitted to conferences",
		},
	)
	m.httpRequests = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status code",
		},
		[]string{"route", "method", "code"},
	)
	m.httpDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	return m
}

func (m *Metrics) PublicationDecided(status string) {
	if m == nil {
		return
	}
	m.publicationDecisions.WithLabelValues(status).Inc()
}

func (m *Metrics) Canonicalized(location string) {
	if m == nil {
		return
	}
	m.canonicalizations.WithLabelValues(location).Inc()
}

func (m *Metrics) SubmissionDecided(status string) {
	if m == nil {
		return
	}
	m.submissionDecisions.WithLabelValues(status).Inc()
}

func (m *Metrics) ConferenceSubmitted() {
	if m == nil {
		return
	}
	m.conferenceSubmits.Inc()
}

func (m *Metrics) ObserveRequest(route, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}
