package admission

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// rejectionBody is the contract for admission rejections.
type rejectionBody struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Success   bool   `json:"success"`
	Timestamp string `json:"timestamp"`
}

// Middleware wraps a handler with admission control. The route key is the mux
// pattern (method + path template), so all requests for one route share one
// counter regardless of path parameters.
type Middleware struct {
	Limiter *Limiter
	Clock   func() time.Time
	Logger  *slog.Logger
}

func (m Middleware) Wrap(routeID string, next http.Handler) http.Handler {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		if m.Clock != nil {
			now = m.Clock()
		}

		if !m.Limiter.Allow(routeID, now) {
			logger.Warn("request rejected by admission control",
				"event", "admission_request_rejected",
				"module", "internal/platform/admission",
				"layer", "platform",
				"route", routeID,
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(rejectionBody{
				Code:      http.StatusTooManyRequests,
				Message:   "too many requests",
				Success:   false,
				Timestamp: now.UTC().Format(time.RFC3339),
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
