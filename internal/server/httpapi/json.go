package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// accessDenied is the body shape for every capability denial, so callers
// cannot tell apart a missing row from a row they may not see except by
// the status code and message.
func accessDenied(msg string) errResponse {
	return errResponse{Error: "Access Denied", Message: msg}
}
