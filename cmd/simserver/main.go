package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"apexdrive/internal/shared/logger"
	"apexdrive/internal/shared/types"
	"apexdrive/internal/sim"
)

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

type server struct {
	log          *logger.Logger
	world        *sim.World
	upgrader     websocket.Upgrader
	telemetryURL string
	httpClient   *http.Client

	mu      sync.RWMutex
	clients map[string]*client
}

func main() {
	log := logger.New("simserver")
	addr := getEnv("SIM_ADDR", ":9003")
	telemetryURL := getEnv("TELEMETRY_HTTP", "")
	configPath := getEnv("SIM_CONFIG", "")

	cfg := sim.DefaultConfig()
	if configPath != "" {
		loaded, err := sim.Load(configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	s := &server{
		log:          log,
		world:        sim.NewWorld(uuid.NewString(), cfg),
		telemetryURL: telemetryURL,
		httpClient:   &http.Client{Timeout: 2 * time.Second},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[string]*client),
	}

	go s.runSimulationLoop()
	go s.runReplicationLoop()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/config", s.handleConfig)
	mux.HandleFunc("/ws", s.handleWS)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("simulation server listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleConfig lets a tuning UI read and replace the tunable set between
// steps.
func (s *server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.world.Config())
	case http.MethodPost:
		cfg := s.world.Config()
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, `{"error":"bad_request"}`, http.StatusBadRequest)
			return
		}
		if err := s.world.SetConfig(cfg); err != nil {
			s.log.Printf("config rejected: %v", err)
			http.Error(w, `{"error":"invalid_config"}`, http.StatusUnprocessableEntity)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "applied"})
	default:
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
	}
}

func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Printf("websocket upgrade error: %v", err)
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, 64)}
	s.register(c)
	s.log.Printf("client connected id=%s remote=%s", c.id, r.RemoteAddr)

	welcome := types.ServerEnvelope{
		Type:     "welcome",
		State:    ptrState(s.world.View()),
		ServerMS: time.Now().UTC().UnixMilli(),
		Message:  "connected",
	}
	if payload, err := json.Marshal(welcome); err == nil {
		select {
		case c.send <- payload:
		default:
		}
	}

	go s.writePump(c)
	s.readPump(c)
}

func (s *server) readPump(c *client) {
	defer func() {
		s.unregister(c.id)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Printf("client disconnected id=%s", c.id)
				return
			}
			s.log.Printf("read error id=%s err=%v", c.id, err)
			return
		}

		var in types.ClientEnvelope
		if err := json.Unmarshal(msg, &in); err != nil {
			s.sendError(c, "bad_payload")
			continue
		}

		switch in.Type {
		case "input":
			if in.Input == nil {
				s.sendError(c, "missing_input")
				continue
			}
			s.world.ApplyInput(*in.Input)
		case "ping":
			pong := types.ServerEnvelope{Type: "pong", ServerMS: time.Now().UTC().UnixMilli()}
			if payload, err := json.Marshal(pong); err == nil {
				select {
				case c.send <- payload:
				default:
				}
			}
		default:
			s.sendError(c, "unsupported_message_type")
		}
	}
}

func (s *server) writePump(c *client) {
	ticker := time.NewTicker(20 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				return
			}
		}
	}
}

func (s *server) register(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.id] = c
}

func (s *server) unregister(id string) {
	s.mu.Lock()
	if c, ok := s.clients[id]; ok {
		close(c.send)
		delete(s.clients, id)
	}
	s.mu.Unlock()
}

func (s *server) sendError(c *client, message string) {
	errPayload, _ := json.Marshal(types.ServerEnvelope{
		Type:    "error",
		Message: message,
	})
	select {
	case c.send <- errPayload:
	default:
	}
}

// runSimulationLoop drives the fixed-timestep accumulator from a real
// frame clock; each wakeup advances the world by zero or more fixed dt
// steps regardless of ticker jitter.
func (s *server) runSimulationLoop() {
	ticker := time.NewTicker(4 * time.Millisecond)
	defer ticker.Stop()

	clock := sim.NewClock(8)
	last := time.Now()
	for now := range ticker.C {
		elapsed := now.Sub(last).Seconds()
		last = now
		clock.Advance(s.world, elapsed)
	}
}

func (s *server) runReplicationLoop() {
	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()

	for range ticker.C {
		state := s.world.Snapshot()
		if len(state.Events) > 0 && s.telemetryURL != "" {
			go s.forwardEvents(state.SessionID, state.Events)
		}

		env := types.ServerEnvelope{
			Type:     "state",
			Tick:     state.Tick,
			State:    &state,
			ServerMS: time.Now().UTC().UnixMilli(),
		}
		payload, err := json.Marshal(env)
		if err != nil {
			s.log.Printf("marshal state failed: %v", err)
			continue
		}

		s.mu.RLock()
		for _, c := range s.clients {
			select {
			case c.send <- payload:
			default:
			}
		}
		s.mu.RUnlock()
	}
}

// forwardEvents posts simulation events to the telemetry service,
// best-effort.
func (s *server) forwardEvents(sessionID string, events []types.SimEvent) {
	for _, ev := range events {
		body, err := json.Marshal(types.TelemetryEvent{
			EventID:   uuid.NewString(),
			EventType: ev.Type,
			SessionID: sessionID,
			Timestamp: ev.OccurredMS,
			Payload:   map[string]interface{}{"detail": ev.Detail},
		})
		if err != nil {
			continue
		}
		resp, err := s.httpClient.Post(s.telemetryURL+"/v1/events", "application/json", bytes.NewReader(body))
		if err != nil {
			s.log.Printf("telemetry post failed: %v", err)
			return
		}
		_ = resp.Body.Close()
	}
}

func ptrState(s types.SimState) *types.SimState {
	return &s
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
