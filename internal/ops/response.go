package ops

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/m3rciful/rentbot/core/logger"
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Warn(ctx, componentOps, "response.encode.fail", slog.String("err", err.Error()))
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	respondJSON(ctx, w, status, map[string]string{"error": message})
}
