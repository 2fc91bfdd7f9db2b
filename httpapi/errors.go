package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	codeInvalidEventID  = "invalid_event_id"
	codeUnknownEvent    = "unknown_event"
	codeInvalidInterval = "invalid_interval"
	codeInvalidRefresh  = "invalid_refresh"
	codeRateLimited     = "rate_limited"
	codeUpstreamError   = "upstream_error"
	codeStreamingFailed = "streaming_unsupported"
	codeNotFound        = "not_found"
)

// ErrInvalidConfig invalid config
func ErrInvalidConfig(msg string) error {
	return fmt.Errorf("httpapi: invalid config: %s", msg)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{Error: msg, Code: code})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// ErrServe server failure
func ErrServe(err error) error {
	return fmt.Errorf("httpapi: serve failed: %w", err)
}
