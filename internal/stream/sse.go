// Package stream implements Server-Sent Events (SSE) notification of model
// reloads. Clients connect via GET /api/v1/stream/model and receive the
// active model on connect and again every time the snapshot is replaced.
//
// SSE message format:
//
//	data: {"type":"model","kind":"analytic","source":"analytic","cospar":[70,0.3,0.7,-1,0],...}\n\n
//
// With ?z=0.1,0.5 each message also carries μ at those redshifts, evaluated
// with the snapshot the message describes.
//
// Keep-alive comments (:\n\n) are sent every KeepaliveInterval to prevent timeout.
package stream

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Shin107/Anisotropic-SNANA/internal/httputil"
	"github.com/Shin107/Anisotropic-SNANA/internal/metrics"
	"github.com/Shin107/Anisotropic-SNANA/internal/modelstore"
	"github.com/Shin107/Anisotropic-SNANA/internal/physconst"
)

// maxSamples bounds the ?z= list.
const maxSamples = 64

// Config holds streaming configuration.
type Config struct {
	PollInterval      time.Duration // How often the snapshot is checked for replacement.
	KeepaliveInterval time.Duration // Keep-alive ping interval.
}

// DefaultConfig polls once a second and pings every 30s.
var DefaultConfig = Config{
	PollInterval:      time.Second,
	KeepaliveInterval: 30 * time.Second,
}

// Source yields the active snapshot, or nil before the first load.
type Source interface {
	Get() *modelstore.Snapshot
}

// Handler serves the model event stream.
type Handler struct {
	source Source
	config Config
	logger *slog.Logger
}

// NewHandler creates a new streaming handler. Zero intervals take the
// DefaultConfig values.
func NewHandler(source Source, config Config, logger *slog.Logger) *Handler {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultConfig.PollInterval
	}
	if config.KeepaliveInterval <= 0 {
		config.KeepaliveInterval = DefaultConfig.KeepaliveInterval
	}
	return &Handler{source: source, config: config, logger: logger}
}

// HandleModel serves the SSE model stream.
// GET /api/v1/stream/model?z=0.1,0.5
func (h *Handler) HandleModel(w http.ResponseWriter, r *http.Request) {
	zs, err := parseSamples(r.URL.Query().Get("z"))
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorBody{Error: err.Error()})
		return
	}

	metrics.IncStreamConnections("connect")
	metrics.IncStreamsActive()

	startTime := time.Now()
	h.logger.Info("stream connected",
		"request_id", httputil.RequestID(r.Context()),
		"user_agent", r.Header.Get("User-Agent"),
		"samples", len(zs),
	)

	defer func() {
		metrics.IncStreamConnections("disconnect")
		metrics.DecStreamsActive()
		h.logger.Info("stream disconnected",
			"request_id", httputil.RequestID(r.Context()),
			"duration_seconds", int(time.Since(startTime).Seconds()),
		)
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)

	// Clear the server's default WriteTimeout for this connection.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("could not clear write deadline", "error", err)
	}
	if err := rc.Flush(); err != nil {
		metrics.IncStreamErrors("flush_unsupported")
		h.logger.Warn("streaming not supported", "error", err)
		return
	}

	c := &client{w: w, rc: rc, logger: h.logger}

	// Jittered retry interval (3-7s) so clients do not reconnect in lockstep.
	if err := c.sendRetry(3000 + rand.Intn(4000)); err != nil {
		return
	}

	var last *modelstore.Snapshot
	publish := func() bool {
		snap := h.source.Get()
		if snap == nil || snap == last {
			return true
		}
		last = snap
		err := c.sendJSON(buildModelMessage(snap, zs))
		if errors.Is(err, errEncode) {
			metrics.IncStreamErrors("marshal_error")
			h.logger.Warn("stream message skipped", "source", snap.Source, "error", err)
			return true
		}
		if err != nil {
			metrics.IncStreamErrors("send_error")
			h.logger.Warn("stream send error", "error", err)
			return false
		}
		return true
	}
	if !publish() {
		return
	}

	poll := time.NewTicker(h.config.PollInterval)
	defer poll.Stop()
	keepalive := time.NewTicker(h.config.KeepaliveInterval)
	defer keepalive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return

		case <-poll.C:
			sent := c.messagesSent
			if !publish() {
				return
			}
			if c.messagesSent != sent {
				keepalive.Reset(h.config.KeepaliveInterval)
			}

		case <-keepalive.C:
			if err := c.sendKeepalive(); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream keepalive error", "error", err)
				return
			}
		}
	}
}

// parseSamples reads a comma-separated redshift list.
func parseSamples(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) > maxSamples {
		return nil, fmt.Errorf("at most %d redshifts allowed", maxSamples)
	}
	zs := make([]float64, len(parts))
	for i, p := range parts {
		z, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || z <= 0 || z > physconst.ZMaxSNANA {
			return nil, fmt.Errorf("invalid redshift %q, must be in (0, %g]", p, physconst.ZMaxSNANA)
		}
		zs[i] = z
	}
	return zs, nil
}

// buildModelMessage describes snap and evaluates μ at zs with it.
func buildModelMessage(snap *modelstore.Snapshot, zs []float64) modelMessage {
	msg := modelMessage{
		Type:     "model",
		Kind:     snap.Model.Kind().String(),
		Source:   snap.Source,
		CosPar:   snap.Model.Params().Tuple(),
		LoadedAt: snap.LoadedAt.UTC().Format(time.RFC3339),
	}
	for _, z := range zs {
		msg.Samples = append(msg.Samples, sample{Z: z, Mu: snap.Calculator.Modulus(z, z)})
	}
	return msg
}

// SSE message payload types.

type modelMessage struct {
	Type     string     `json:"type"`
	Kind     string     `json:"kind"`
	Source   string     `json:"source"`
	CosPar   [5]float64 `json:"cospar"`
	LoadedAt string     `json:"loaded_at"`
	Samples  []sample   `json:"samples,omitempty"`
}

type sample struct {
	Z  float64 `json:"z"`
	Mu float64 `json:"mu"`
}
