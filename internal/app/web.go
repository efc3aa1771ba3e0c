package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/inertial_decoder/internal/config"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// readingEvent is what /ws/readings streams for every MQTT message.
type readingEvent struct {
	Topic   string          `json:"topic"`
	Time    string          `json:"time"`
	Payload json.RawMessage `json:"payload"`
}

// webHub keeps the latest payload per topic and fans messages out to
// websocket clients.
type webHub struct {
	statsTopic string

	mu      sync.RWMutex
	latest  map[string]json.RawMessage
	stats   map[string]json.RawMessage // by stream source
	clients map[chan readingEvent]struct{}
}

func newWebHub(statsTopic string) *webHub {
	return &webHub{
		statsTopic: statsTopic,
		latest:     make(map[string]json.RawMessage),
		stats:      make(map[string]json.RawMessage),
		clients:    make(map[chan readingEvent]struct{}),
	}
}

func (h *webHub) handleMessage(topic string, payload []byte) {
	if !json.Valid(payload) {
		log.Printf("web: dropping non-JSON payload on %s", topic)
		return
	}
	raw := json.RawMessage(append([]byte(nil), payload...))
	ev := readingEvent{Topic: topic, Time: time.Now().UTC().Format(time.RFC3339Nano), Payload: raw}

	h.mu.Lock()
	defer h.mu.Unlock()
	if topic == h.statsTopic {
		var r StatsReport
		if err := json.Unmarshal(payload, &r); err == nil {
			h.stats[r.Source] = raw
		}
	} else {
		h.latest[topic] = raw
	}
	for ch := range h.clients {
		select {
		case ch <- ev:
		default: // slow client, drop
		}
	}
}

func (h *webHub) subscribe() (<-chan readingEvent, func()) {
	ch := make(chan readingEvent, 64)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.clients, ch)
		h.mu.Unlock()
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

// handleLatest serves the latest payload of every topic, or of the topics
// starting with ?topic=.
func (h *webHub) handleLatest(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("topic")
	h.mu.RLock()
	out := make(map[string]json.RawMessage, len(h.latest))
	for topic, raw := range h.latest {
		if strings.HasPrefix(topic, prefix) {
			out[topic] = raw
		}
	}
	h.mu.RUnlock()

	if len(out) == 0 {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, out)
}

func (h *webHub) handleStats(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	out := make(map[string]json.RawMessage, len(h.stats))
	for source, raw := range h.stats {
		out[source] = raw
	}
	h.mu.RUnlock()

	if len(out) == 0 {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, out)
}

// handleReadings streams every message, optionally filtered by ?topic=
// prefix, until the client goes away.
func (h *webHub) handleReadings(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("topic")
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	events, unsubscribe := h.subscribe()
	defer unsubscribe()

	// the read side only detects the close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("web: websocket error: %v", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case ev := <-events:
			if !strings.HasPrefix(ev.Topic, prefix) {
				continue
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}

func newWebMux(h *webHub, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/latest", h.handleLatest)
	mux.HandleFunc("/api/stats", h.handleStats)
	mux.HandleFunc("/ws/readings", h.handleReadings)
	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	return mux
}

// RunWeb serves the latest readings over HTTP and a websocket.
func RunWeb() error {
	cfg := config.Get()
	if err := cfg.ValidateMQTT(); err != nil {
		return err
	}
	topics := TopicsFromConfig(cfg)
	hub := newWebHub(topics.Stats)

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb, "web")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	for _, topic := range []string{topics.Accel, topics.Gyro, topics.IMU, topics.Pose, topics.GPS, topics.ESFRaw, topics.Temp, topics.Stats, topics.Vector + "/#"} {
		if err := subscribeJSON(client, "web", topic, hub.handleMessage); err != nil {
			return err
		}
	}

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, newWebMux(hub, "web"))
}
