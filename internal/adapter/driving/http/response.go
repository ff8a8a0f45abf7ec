package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ekorchagin/commitwatch/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// healthResponse is the health endpoint body.
type healthResponse struct {
	Status string `json:"status"`
}

// watchResponse is the JSON representation of a watched repository.
type watchResponse struct {
	Repository     string    `json:"repository"`
	Subscribers    int       `json:"subscribers"`
	LastSeenCommit string    `json:"last_seen_commit,omitempty"`
	AddedAt        time.Time `json:"added_at"`
}

func toWatchResponse(w model.WatchedRepository) watchResponse {
	return watchResponse{
		Repository:     w.FullName,
		Subscribers:    len(w.Subscribers),
		LastSeenCommit: w.LastSeenCommit,
		AddedAt:        w.AddedAt,
	}
}
