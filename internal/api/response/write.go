package response

import (
	"encoding/json"
	"net/http"
)

// JSON writes data as a JSON body with the given status. A nil body sends
// only the status line.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// Drop writes a recorded drop: 201 when it was stored, 200 when it matched
// an earlier drop inside the dedupe window.
func Drop(w http.ResponseWriter, result DropResult) {
	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	JSON(w, status, result)
}

// PNG writes an uncached image, such as the webhook QR code
func PNG(w http.ResponseWriter, image []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(image)
}

// NoContent writes a bare 204, used after logout
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
