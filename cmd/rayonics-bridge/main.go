// Command rayonics-bridge serves the browser-facing WebSocket endpoint
// that drives a Rayonics smart-key over BLE: one session.Session and
// one bridge.Facade per connection, with an optional Prometheus
// metrics listener and signal-triggered shutdown around the accept
// loop.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"rayonics-ble-bridge/internal/bridge"
	"rayonics-ble-bridge/internal/config"
	"rayonics-ble-bridge/internal/metrics"
	"rayonics-ble-bridge/internal/session"
	"rayonics-ble-bridge/internal/transport"
	"rayonics-ble-bridge/internal/wsconn"
)

var (
	cfgPath     string
	listenAddr  string
	metricsAddr string
	production  bool
)

var rootCmd = &cobra.Command{
	Use:   "rayonics-bridge",
	Short: "WebSocket bridge between a browser UI and a Rayonics BLE smart key",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "config.yaml", "config path")
	rootCmd.Flags().StringVar(&listenAddr, "listen", "", "WebSocket listen address, overrides config")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics", "", "prometheus metrics listen address, overrides config")
	rootCmd.Flags().BoolVar(&production, "production", false, "use zap's production logging encoder")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	var zlog *zap.Logger
	var err error
	if production {
		zlog, err = zap.NewProduction()
	} else {
		zlog, err = zap.NewDevelopment()
	}
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer zlog.Sync()
	log := zlog.Sugar()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if listenAddr != "" {
		cfg.Listen.Address = listenAddr
	}
	if metricsAddr != "" {
		cfg.Metrics.Address = metricsAddr
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Metrics.Address != "" {
		metrics.Enable()
		go func() {
			if err := metrics.StartMetricsServer(ctx, cfg.Metrics.Address); err != nil {
				log.Warnw("metrics server stopped", "error", err)
			}
		}()
		log.Infow("prometheus metrics listening", "address", cfg.Metrics.Address)
	}

	adapter, err := newAdapter()
	if err != nil {
		return fmt.Errorf("ble adapter: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveConn(r.Context(), w, r, adapter, cfg, log)
	})
	srv := &http.Server{Addr: cfg.Listen.Address, Handler: mux}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		log.Infow("shutting down")
		cancel()
		_ = srv.Shutdown(context.Background())
	}()

	log.Infow("rayonics-bridge listening", "address", cfg.Listen.Address)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// serveConn upgrades one HTTP request to a WebSocket, runs its
// read/dispatch loop to completion, and tears down the BLE session
// behind it no matter how the loop ends.
func serveConn(ctx context.Context, w http.ResponseWriter, r *http.Request, adapter transport.Adapter, cfg *config.Config, log *zap.SugaredLogger) {
	connID := uuid.NewString()
	connLog := log.With("connId", connID)

	wsc, err := websocket.Accept(w, r, nil)
	if err != nil {
		connLog.Warnw("websocket accept failed", "error", err)
		return
	}
	defer wsc.Close(websocket.StatusInternalError, "connection closed")
	conn := wsconn.Wrap(wsc)

	sessCfg := cfg.SessionConfig()
	sess := session.New(adapter, sessCfg)
	defer sess.Disconnect()

	sender := &wsSender{conn: conn}
	f := bridge.New(sess, sender, connLog, sessCfg.EventPacingDelay, cfg.Timeouts.Scan)
	connLog.Infow("connection opened")

	for {
		msg, err := conn.Read(ctx)
		if err != nil {
			connLog.Infow("connection closed", "error", err)
			return
		}
		metrics.ObserveWSFrame("in")
		f.HandleMessage(ctx, msg)
	}
}

// wsSender adapts wsconn.Conn to bridge.Sender, marshaling every
// outbound message as JSON text.
type wsSender struct {
	conn wsconn.Conn
}

func (s *wsSender) Send(ctx context.Context, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.conn.Write(ctx, b)
}
