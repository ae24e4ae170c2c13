package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fazumclube"

// Collector holds the API's Prometheus metrics on a private registry. A nil
// *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	WebhookEvents       *prometheus.CounterVec
	CheckoutSessions    *prometheus.CounterVec
	Payments            *prometheus.CounterVec
	DeliveryUpdates     *prometheus.CounterVec
	EmailsSent          *prometheus.CounterVec
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	c := &Collector{
		registry: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status_code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Gateway webhook events by kind and outcome",
		}, []string{"kind", "outcome"}),
		CheckoutSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_sessions_total",
			Help:      "Checkout attempts by outcome",
		}, []string{"outcome"}),
		Payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Recorded payments by status",
		}, []string{"status"}),
		DeliveryUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_updates_total",
			Help:      "Delivery status updates by resulting status",
		}, []string{"status"}),
		EmailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_total",
			Help:      "Transactional emails by type and outcome",
		}, []string{"type", "outcome"}),
	}

	reg.MustRegister(
		c.HTTPRequestsTotal,
		c.HTTPRequestDuration,
		c.WebhookEvents,
		c.CheckoutSessions,
		c.Payments,
		c.DeliveryUpdates,
		c.EmailsSent,
	)
	return c
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) RecordWebhookEvent(kind, outcome string) {
	if c == nil {
		return
	}
	c.WebhookEvents.WithLabelValues(kind, outcome).Inc()
}

func (c *Collector) RecordCheckout(outcome string) {
	if c == nil {
		return
	}
	c.CheckoutSessions.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordPayment(status string) {
	if c == nil {
		return
	}
	c.Payments.WithLabelValues(status).Inc()
}

func (c *Collector) RecordDeliveryUpdate(status string) {
	if c == nil {
		return
	}
	c.DeliveryUpdates.WithLabelValues(status).Inc()
}

func (c *Collector) RecordEmail(emailType string, err error) {
	if c == nil {
		return
	}
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	c.EmailsSent.WithLabelValues(emailType, outcome).Inc()
}
