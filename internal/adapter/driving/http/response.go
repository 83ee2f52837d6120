package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/homeworkbot/internal/domain/model"
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

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// StatusResponse is the JSON representation of the poll loop snapshot.
type StatusResponse struct {
	State               string `json:"state"`
	Cursor              int64  `json:"cursor"`
	BackoffDelay        string `json:"backoff_delay"`
	BackoffDelaySeconds int64  `json:"backoff_delay_seconds"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	LastError           string `json:"last_error,omitempty"`
	LastIterationAt     string `json:"last_iteration_at,omitempty"`
	LastSuccessAt       string `json:"last_success_at,omitempty"`
	Iterations          int64  `json:"iterations"`
	Notifications       int64  `json:"notifications"`
}

// DeliveryResponse is the JSON representation of a journal entry.
type DeliveryResponse struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Text      string `json:"text"`
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
}

// PollResponse is the body returned by the manual poll endpoint.
type PollResponse struct {
	Error  string         `json:"error,omitempty"`
	Status StatusResponse `json:"status"`
}

// toStatusResponse converts a LoopStatus to its JSON representation.
// Zero timestamps are omitted.
func toStatusResponse(s model.LoopStatus) StatusResponse {
	return StatusResponse{
		State:               string(s.State),
		Cursor:              s.Cursor,
		BackoffDelay:        s.BackoffDelay.String(),
		BackoffDelaySeconds: int64(s.BackoffDelay / time.Second),
		ConsecutiveFailures: s.ConsecutiveFailures,
		LastError:           s.LastError,
		LastIterationAt:     formatTime(s.LastIterationAt),
		LastSuccessAt:       formatTime(s.LastSuccessAt),
		Iterations:          s.Iterations,
		Notifications:       s.Notifications,
	}
}

// toDeliveryResponse converts a domain Delivery to its JSON representation.
func toDeliveryResponse(d model.Delivery) DeliveryResponse {
	return DeliveryResponse{
		ID:        d.ID,
		Kind:      string(d.Kind),
		Text:      d.Text,
		Delivered: d.Delivered,
		Error:     d.Error,
		CreatedAt: d.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
