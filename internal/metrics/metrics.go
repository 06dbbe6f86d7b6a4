// Package metrics exposes Prometheus counters for the bridge. All
// observe functions are no-ops until Enable registers the collectors,
// so a deployment without a metrics listener pays nothing.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	enableOnce sync.Once
	enabled    bool

	commandsIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rayonics_bridge_commands_issued_total",
		Help: "Commands sent to the BLE device, by command name.",
	}, []string{"command"})

	commandsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rayonics_bridge_commands_failed_total",
		Help: "Commands that returned an error, by command name and error kind.",
	}, []string{"command", "kind"})

	sessionsAuthenticated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rayonics_bridge_sessions_authenticated_total",
		Help: "Sessions that completed the CONNECT/VERIFY handshake.",
	})

	wsFrames = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rayonics_bridge_ws_frames_total",
		Help: "WebSocket frames exchanged with the browser UI, by direction.",
	}, []string{"direction"})
)

// Enable registers the collectors with the default Prometheus registry.
// Safe to call more than once; only the first call takes effect.
func Enable() {
	enableOnce.Do(func() {
		prometheus.MustRegister(commandsIssued, commandsFailed, sessionsAuthenticated, wsFrames)
		enabled = true
	})
}

// StartMetricsServer serves /metrics on addr until ctx is canceled.
func StartMetricsServer(ctx context.Context, addr string) error {
	if strings.TrimSpace(addr) == "" {
		return errors.New("empty metrics address")
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

// ObserveCommandIssued records that a command was sent to the device.
func ObserveCommandIssued(command string) {
	if !enabled {
		return
	}
	commandsIssued.WithLabelValues(command).Inc()
}

// ObserveCommandFailed records that a command returned an error of kind.
func ObserveCommandFailed(command, kind string) {
	if !enabled {
		return
	}
	commandsFailed.WithLabelValues(command, kind).Inc()
}

// ObserveSessionAuthenticated records a completed handshake.
func ObserveSessionAuthenticated() {
	if !enabled {
		return
	}
	sessionsAuthenticated.Inc()
}

// ObserveWSFrame records an inbound or outbound WebSocket frame.
func ObserveWSFrame(direction string) {
	if !enabled {
		return
	}
	wsFrames.WithLabelValues(direction).Inc()
}
