package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"apexdrive/internal/shared/logger"
	"apexdrive/internal/shared/types"
	"apexdrive/internal/telemetry"
)

func main() {
	log := logger.New("telemetry")
	addr := getEnv("TELEMETRY_ADDR", ":9002")
	capacity := getEnvInt("TELEMETRY_CAPACITY", 512)
	store := telemetry.NewStore(capacity)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/v1/events", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var ev types.TelemetryEvent
			if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
				return
			}
			if ev.EventType == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "event_type_required"})
				return
			}
			if ev.EventID == "" {
				ev.EventID = uuid.NewString()
			}
			if ev.Timestamp == 0 {
				ev.Timestamp = time.Now().UTC().UnixMilli()
			}
			store.Ingest(ev)
			writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "event_id": ev.EventID})
		case http.MethodGet:
			limit := 100
			if v := r.URL.Query().Get("limit"); v != "" {
				if n, err := strconv.Atoi(v); err == nil && n > 0 {
					limit = n
				}
			}
			recent := store.Recent(limit)
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"count":  len(recent),
				"events": recent,
			})
		default:
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method_not_allowed"})
		}
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		summary := store.Summary()
		_, _ = fmt.Fprintln(w, "# HELP apexdrive_telemetry_events_total Total telemetry events ingested")
		_, _ = fmt.Fprintln(w, "# TYPE apexdrive_telemetry_events_total counter")
		_, _ = fmt.Fprintf(w, "apexdrive_telemetry_events_total %d\n", summary.Total)
		for typ, count := range summary.ByType {
			_, _ = fmt.Fprintf(w, "apexdrive_telemetry_events_by_type{event_type=%q} %d\n", typ, count)
		}
	})

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("telemetry service listening on %s (capacity=%d)", addr, capacity)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
