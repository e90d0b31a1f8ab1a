// Package apierror renders the gateway's JSON error envelope.
package apierror

import (
	"encoding/json"
	"net/http"
)

type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type Envelope struct {
	Error *APIError `json:"error"`
}

func Write(w http.ResponseWriter, status int, code, message, requestID string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Error: &APIError{
		Code:      code,
		Message:   message,
		RequestID: requestID,
	}})
}

func Unauthorized(w http.ResponseWriter, requestID string) {
	Write(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", requestID)
}

func TooManyRequests(w http.ResponseWriter, requestID string) {
	Write(w, http.StatusTooManyRequests, "rate_limited", "Too Many Requests", requestID)
}

func ServerError(w http.ResponseWriter, requestID string) {
	Write(w, http.StatusInternalServerError, "server_error", "Server error", requestID)
}

func MethodNotAllowed(w http.ResponseWriter, requestID string) {
	Write(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", requestID)
}

func BadRequest(w http.ResponseWriter, message, requestID string) {
	Write(w, http.StatusBadRequest, "bad_request", message, requestID)
}
