package mcp

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const defaultHeartbeatInterval = 30 * time.Second

// handleSSE streams a connection event, the capability descriptor, and then
// periodic heartbeats until the client disconnects. The stream never carries
// tool results; those always travel over POST.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeEvent := func(payload any) bool {
		data, err := json.Marshal(payload)
		if err != nil {
			slog.Error("failed to marshal sse event", "error", err)
			return false
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !writeEvent(map[string]any{"type": "connection", "status": "connected"}) {
		return
	}
	if !writeEvent(capabilityDescriptor()) {
		return
	}

	slog.Info("sse client connected", "remote", r.RemoteAddr)

	ticker := time.NewTicker(s.heartbeatInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			slog.Info("sse client disconnected", "remote", r.RemoteAddr)
			return
		case <-ticker.C:
			heartbeat := map[string]any{
				"type":      "heartbeat",
				"timestamp": s.clock().UTC().Format(time.RFC3339),
			}
			if !writeEvent(heartbeat) {
				return
			}
		}
	}
}
