package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorRecords(t *testing.T) {
	c := NewCollector()

	c.RecordWebhookEvent("invoice.payment_failed", "processed")
	c.RecordWebhookEvent("invoice.payment_failed", "processed")
	c.RecordEmail("shipment", nil)
	c.RecordEmail("shipment", errors.New("boom"))
	c.RecordHTTPRequest("GET", "/health", 200, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.WebhookEvents.WithLabelValues("invoice.payment_failed", "processed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.EmailsSent.WithLabelValues("shipment", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequestsTotal.WithLabelValues("GET", "/health", "200")))
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordCheckout("created")
		c.RecordPayment("PAID")
		c.RecordDeliveryUpdate("SHIPPED")
		c.RecordEmail("welcome", nil)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := NewCollector()
	c.RecordPayment("PAID")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `fazumclube_payments_total{status="PAID"} 1`))
}
