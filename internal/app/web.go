package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/gesture_computer/internal/config"
	"github.com/relabs-tech/gesture_computer/internal/pipeline"
)

// wsHub fans incoming MQTT messages out to all connected websocket clients.
type wsHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{conns: make(map[*websocket.Conn]struct{})}
}

func (h *wsHub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
}

func (h *wsHub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	c.Close()
}

// broadcast sends payload to every client, dropping clients that fail.
func (h *wsHub) broadcast(kind string, payload []byte) {
	msg, err := json.Marshal(struct {
		Kind string          `json:"kind"`
		Data json.RawMessage `json:"data"`
	}{Kind: kind, Data: payload})
	if err != nil {
		log.Printf("web: broadcast marshal error: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("web: websocket write error, dropping client: %v", err)
			delete(h.conns, c)
			c.Close()
		}
	}
}

// RunWeb serves the latest classification over HTTP, streams results and
// gesture events over a websocket, and serves static files from ./web.
func RunWeb() error {
	cfg := config.Get()

	var (
		mu         sync.RWMutex
		lastResult resultMessage
		lastEvent  pipeline.Event
		haveResult bool
		haveEvent  bool
	)

	hub := newWSHub()

	// 1) Connect to MQTT broker
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Subscribe to results and keep the latest for the JSON API
	token := client.Subscribe(cfg.TopicResults, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var r resultMessage
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Printf("web: result unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastResult = r
		haveResult = true
		mu.Unlock()
		hub.broadcast("result", msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: subscribed to %s", cfg.TopicResults)

	token = client.Subscribe(cfg.TopicEvents, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var ev pipeline.Event
		if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
			log.Printf("web: event unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastEvent = ev
		haveEvent = true
		mu.Unlock()
		hub.broadcast("event", msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: subscribed to %s", cfg.TopicEvents)

	// 3) JSON API: latest classification and latest gesture event
	http.HandleFunc("/api/gesture", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()

		if !haveResult {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastResult); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	http.HandleFunc("/api/event", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()

		if !haveEvent {
			http.Error(w, "no gesture yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastEvent); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// 4) Websocket stream of results and events
	upgrader := websocket.Upgrader{}
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		hub.add(conn)
		log.Printf("web: websocket client connected from %s", r.RemoteAddr)

		// Reads are only needed to notice the client going away.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					hub.remove(conn)
					return
				}
			}
		}()
	})

	// 5) Static files from ./web as the root
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
