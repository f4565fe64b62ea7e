package observability

import (
	"context"
	"encoding/json"
	"net/http"
)

// Health check paths served next to MetricsPath.
const (
	HealthPath = "/healthz"
	ReadyPath  = "/readyz"
)

const (
	healthStatusOK          = "ok"
	healthStatusUnavailable = "unavailable"
)

// ReadyCheck returns nil while its subsystem can serve.
type ReadyCheck func(ctx context.Context) error

// HealthHandler always answers 200 {"status":"ok"}.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		writeHealth(rw, http.StatusOK, healthStatusOK, "")
	})
}

// ReadyHandler answers 503 with the first failing check's message, or 200
// when every check passes.
func ReadyHandler(checks ...ReadyCheck) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		for _, check := range checks {
			if err := check(req.Context()); err != nil {
				writeHealth(rw, http.StatusServiceUnavailable, healthStatusUnavailable, err.Error())

				return
			}
		}

		writeHealth(rw, http.StatusOK, healthStatusOK, "")
	})
}

func writeHealth(rw http.ResponseWriter, code int, status, reason string) {
	body := map[string]string{"status": status}
	if reason != "" {
		body["reason"] = reason
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	// The status line is already out; a failed body write has no recovery.
	_ = json.NewEncoder(rw).Encode(body)
}
