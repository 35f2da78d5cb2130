package live

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mcoot/osrsbingo/internal/model"
)

// Time between SSE keepalive comments
const ssePingPeriod = 15 * time.Second

// ServeSSE streams a hub's events to the client as server-sent events until
// the client disconnects or the hub stops
func ServeSSE(w http.ResponseWriter, r *http.Request, hub *Hub) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	client := NewClient(hub, "sse")
	if !hub.Register(client) {
		http.Error(w, "Event stream closed", http.StatusServiceUnavailable)
		return
	}
	defer hub.Unregister(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)

	_, _ = w.Write(formatSSEMessage("connected", `{"topic":"`+string(hub.topic)+`"}`))
	flusher.Flush()

	ticker := time.NewTicker(ssePingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-client.send:
			if !ok {
				return
			}
			if _, err := w.Write(encodeSSE(event)); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

func encodeSSE(event model.Event) []byte {
	data, err := json.Marshal(event)
	if err != nil {
		data = []byte(`{"type":"` + string(event.Type) + `"}`)
	}
	return formatSSEMessage(string(event.Type), string(data))
}
