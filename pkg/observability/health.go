package observability

import (
	"encoding/json"
	"net/http"
)

const (
	healthPath     = "/healthz"
	healthStatusOK = "ok"
)

// HealthHandler answers liveness probes with HTTP 200 and {"status":"ok"}
// for as long as the process serves metrics.
func HealthHandler() http.Handler {
	body, _ := json.Marshal(map[string]string{"status": healthStatusOK})

	return http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write(body)
	})
}
