package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveReservation(t *testing.T) {
	m := New()

	m.ObserveReservation("reserve", true)
	m.ObserveReservation("reserve", false)
	m.ObserveReservation("reserve", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReservationTransitions.WithLabelValues("reserve", OutcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReservationTransitions.WithLabelValues("reserve", OutcomeFailure)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ReservationTransitions.WithLabelValues("unreserve", OutcomeSuccess)))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.ObserveReservation("unreserve", true)
	m.HTTPRequests.WithLabelValues("GET", "/health", "200").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `wishlist_reservation_transitions_total{action="unreserve",outcome="success"} 1`)
	assert.Contains(t, string(body), "wishlist_http_requests_total")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNewUsesPrivateRegistry(t *testing.T) {
	// two instances must not collide on registration
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
