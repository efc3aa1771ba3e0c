package app

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/inertial_decoder/internal/framing"
)

func TestLatestAndStats(t *testing.T) {
	hub := newWebHub("inertial/stats")
	srv := httptest.NewServer(newWebMux(hub, ""))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/latest")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	hub.handleMessage("inertial/pose", []byte(`{"roll":1,"pitch":2,"yaw":0}`))
	hub.handleMessage("inertial/gps", []byte(`{"lat":48.1}`))
	hub.handleMessage("inertial/gps", []byte(`not json`))
	report, err := json.Marshal(StatsReport{Source: "nmea+ubx", Decoders: map[string]framing.Stats{"ubx": {Frames: 3}}})
	require.NoError(t, err)
	hub.handleMessage("inertial/stats", report)

	resp, err = http.Get(srv.URL + "/api/latest?topic=inertial/gps")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var latest map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&latest))
	assert.Len(t, latest, 1)
	assert.JSONEq(t, `{"lat":48.1}`, string(latest["inertial/gps"]))

	resp2, err := http.Get(srv.URL + "/api/stats")
	require.NoError(t, err)
	defer resp2.Body.Close()
	body, err := io.ReadAll(resp2.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"nmea+ubx"`)
	assert.Contains(t, string(body), `"frames":3`)
}

func TestReadingsWebsocket(t *testing.T) {
	hub := newWebHub("inertial/stats")
	srv := httptest.NewServer(newWebMux(hub, ""))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/readings?topic=inertial/imu"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// wait for the handler to register its subscription
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients) == 1
	}, time.Second, 10*time.Millisecond)

	hub.handleMessage("inertial/pose", []byte(`{"roll":0}`))
	hub.handleMessage("inertial/imu", []byte(`{"source":"ubx","ax":1}`))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev readingEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "inertial/imu", ev.Topic)
	assert.JSONEq(t, `{"source":"ubx","ax":1}`, string(ev.Payload))
}
