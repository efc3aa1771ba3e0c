package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/inertial_decoder/internal/framing"
)

func TestTrackerAddsDeltas(t *testing.T) {
	m := New()
	tr := m.Tracker("nmea")

	tr.Observe(framing.Stats{Frames: 3, ChecksumErrors: 1}, 1)
	tr.Observe(framing.Stats{Frames: 5, ChecksumErrors: 1, Garbage: 4}, 0)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.events.WithLabelValues("nmea", "frame")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("nmea", "checksum_error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.events.WithLabelValues("nmea", "garbage_byte")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.state.WithLabelValues("nmea")))
}

func TestTrackersAreIndependent(t *testing.T) {
	m := New()
	m.Tracker("nmea").Observe(framing.Stats{Frames: 2}, 0)
	m.Tracker("ubx").Observe(framing.Stats{Frames: 7}, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues("nmea", "frame")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.events.WithLabelValues("ubx", "frame")))
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.Reading("esf_raw")
	m.Reading("esf_raw")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `inertial_decoder_readings_total{kind="esf_raw"} 2`)
}
