package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makerchecker-backend/events"
)

func TestCollector_CountsEvents(t *testing.T) {
	c := New()
	bus := events.NewBus(logrus.New())
	c.Subscribe(bus)

	bus.Emit(events.Event{Kind: events.Initiated})
	bus.Emit(events.Event{Kind: events.Initiated})
	bus.Emit(events.Event{Kind: events.Approved})
	bus.Emit(events.Event{Kind: events.Failed})

	assert.Equal(t, 2.0, promtest.ToFloat64(c.requests.WithLabelValues("initiated")))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.requests.WithLabelValues("approved")))
	assert.Equal(t, 0.0, promtest.ToFloat64(c.requests.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.requests.WithLabelValues("failed")))
}

func TestCollector_ObserveExpired(t *testing.T) {
	c := New()
	c.ObserveExpired(3)
	c.ObserveExpired(0)
	assert.Equal(t, 3.0, promtest.ToFloat64(c.expired))
}

func TestCollector_Handler(t *testing.T) {
	c := New()
	c.ObserveExpired(1)

	app := fiber.New()
	app.Get("/metrics", c.Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "makerchecker_requests_expired_total 1")
}
