// Package response holds the JSON bodies served by the status API.
package response

import (
	"encoding/json"
	"net/http"
)

// JSON writes data as a JSON response. Status data goes stale quickly, so
// responses are never cached.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}
