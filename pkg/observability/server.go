package observability

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const (
	metricsPath       = "/metrics"
	readHeaderTimeout = 5 * time.Second
	serverStopTimeout = 5 * time.Second
)

// MetricsServer serves a metrics handler until stopped.
type MetricsServer struct {
	server   *http.Server
	listener net.Listener
	done     chan error
}

// StartMetricsServer listens on addr and serves handler at /metrics, plus
// a liveness probe at /healthz, in the background.
func StartMetricsServer(addr string, handler http.Handler, logger *slog.Logger) (*MetricsServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(metricsPath, handler)
	mux.Handle(healthPath, HealthHandler())

	ms := &MetricsServer{
		server:   &http.Server{Handler: mux, ReadHeaderTimeout: readHeaderTimeout},
		listener: listener,
		done:     make(chan error, 1),
	}

	go func() {
		serveErr := ms.server.Serve(listener)
		if errors.Is(serveErr, http.ErrServerClosed) {
			serveErr = nil
		}

		ms.done <- serveErr
	}()

	logger.Info("serving metrics", "addr", listener.Addr().String(), "path", metricsPath)

	return ms, nil
}

// Addr returns the bound address.
func (ms *MetricsServer) Addr() string {
	return ms.listener.Addr().String()
}

// Stop shuts the server down gracefully.
func (ms *MetricsServer) Stop(ctx context.Context) error {
	stopCtx, cancel := context.WithTimeout(ctx, serverStopTimeout)
	defer cancel()

	return errors.Join(ms.server.Shutdown(stopCtx), <-ms.done)
}
