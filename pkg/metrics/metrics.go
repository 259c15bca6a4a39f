// Package metrics holds the service's Prometheus collectors. Every method is
// safe to call on a nil *Metrics so callers can run without instrumentation.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cricket"

// Submission outcomes recorded on contact_submissions_total.
const (
	OutcomeSent             = "sent"
	OutcomeRateLimited      = "rate_limited"
	OutcomeForbiddenOrigin  = "forbidden_origin"
	OutcomeInvalidJSON      = "invalid_json"
	OutcomeInvalid          = "invalid"
	OutcomeHoneypot         = "honeypot"
	OutcomeTiming           = "timing"
	OutcomeTypo             = "typo"
	OutcomeBadDomain        = "bad_domain"
	OutcomeUnreachable      = "unreachable_domain"
	OutcomeMailUnconfigured = "mail_unconfigured"
	OutcomeMailFailed       = "mail_failed"
)

type Metrics struct {
	registry *prometheus.Registry

	ContactSubmissions  *prometheus.CounterVec
	RateLimitBlocks     prometheus.Counter
	RateLimitStoreError prometheus.Counter
	DomainChecks        *prometheus.CounterVec
	MailSendDuration    *prometheus.HistogramVec
	SquadRequests       *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers every collector on reg. A nil reg gets a fresh registry that
// also carries the Go runtime and process collectors.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ContactSubmissions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "contact_submissions_total",
				Help:      "Contact form submissions by pipeline outcome.",
			},
			[]string{"outcome"},
		),

		RateLimitBlocks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_blocks_total",
			Help:      "Requests rejected by the contact rate limiter.",
		}),

		RateLimitStoreError: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_store_errors_total",
			Help:      "Shared rate limit store failures that fell back to memory.",
		}),

		DomainChecks: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "domain_checks_total",
				Help:      "Email domain reachability checks by source and result.",
			},
			[]string{"source", "result"},
		),

		MailSendDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "mail_send_duration_seconds",
				Help:      "Time spent relaying contact messages over SMTP.",
				Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"result"},
		),

		SquadRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "squad_upstream_requests_total",
				Help:      "Squad proxy upstream calls by status code.",
			},
			[]string{"status"},
		),

		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   []float64{0.01, 0.1, 0.3, 1.2, 5},
			},
			[]string{"path", "method", "status"},
		),
	}
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) IncSubmission(outcome string) {
	if m == nil {
		return
	}
	m.ContactSubmissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncRateLimitBlock() {
	if m == nil {
		return
	}
	m.RateLimitBlocks.Inc()
}

func (m *Metrics) IncRateLimitStoreError() {
	if m == nil {
		return
	}
	m.RateLimitStoreError.Inc()
}

// ObserveDomainCheck records where a reachability answer came from
// ("cache" or "dns") and whether the domain accepts mail.
func (m *Metrics) ObserveDomainCheck(source string, ok bool) {
	if m == nil {
		return
	}
	m.DomainChecks.WithLabelValues(source, strconv.FormatBool(ok)).Inc()
}

func (m *Metrics) ObserveMailSend(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.MailSendDuration.WithLabelValues(result).Observe(d.Seconds())
}

func (m *Metrics) IncSquadRequest(status int) {
	if m == nil {
		return
	}
	m.SquadRequests.WithLabelValues(strconv.Itoa(status)).Inc()
}

// ObserveHTTP records one request. path should be the route template.
func (m *Metrics) ObserveHTTP(path, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if status < 100 || status > 599 {
		status = http.StatusInternalServerError
	}
	m.HTTPRequestDuration.WithLabelValues(path, method, strconv.Itoa(status)).Observe(d.Seconds())
}
