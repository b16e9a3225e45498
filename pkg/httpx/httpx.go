package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// maxBodyBytes caps request bodies; every payload on this API is small JSON.
const maxBodyBytes = 1 << 20

func NewRequestID() string { return "req_" + uuid.NewString() }

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ReadJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	resp := map[string]any{
		"request_id": NewRequestID(),
		"error": map[string]any{
			"code": code, "message": message,
		},
	}
	WriteJSON(w, status, resp)
}
