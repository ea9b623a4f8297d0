// Package alert delivers risk assessments to an external webhook sink.
//
// Delivery is best-effort with a bounded timeout: every outcome is logged
// and counted, but failures never propagate back into the scoring path.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mbd888/fraudwatch/internal/circuitbreaker"
	"github.com/mbd888/fraudwatch/internal/feature"
	"github.com/mbd888/fraudwatch/internal/metrics"
	"github.com/mbd888/fraudwatch/internal/scoring"
)

// DefaultTimeout bounds a single delivery attempt.
const DefaultTimeout = 5 * time.Second

// breakerKey identifies the single sink in the circuit breaker.
const breakerKey = "sink"

// Delivery is the explicit outcome of one dispatch attempt.
type Delivery struct {
	Delivered bool
	Reason    string
}

// Delivered is the successful delivery outcome.
func Delivered() Delivery { return Delivery{Delivered: true} }

// Failed builds a failure outcome with a human-readable reason.
func Failed(reason string) Delivery { return Delivery{Reason: reason} }

// payload is the wire shape sent to the sink.
type payload struct {
	Tx    feature.Transaction `json:"tx"`
	Risk  float64             `json:"risk"`
	Level string              `json:"level"`
}

// Dispatcher posts qualifying assessments to a webhook sink URL. A circuit
// breaker sheds delivery attempts while the sink keeps failing, so a dead
// sink costs one timeout per probe window instead of one per alert.
type Dispatcher struct {
	sinkURL string
	client  *http.Client
	breaker *circuitbreaker.Breaker
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher for the given sink URL.
func NewDispatcher(sinkURL string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		sinkURL: sinkURL,
		client:  &http.Client{Timeout: DefaultTimeout},
		breaker: circuitbreaker.New(5, 30*time.Second),
		logger:  logger,
	}
}

// WithTimeout overrides the per-attempt delivery timeout.
func (d *Dispatcher) WithTimeout(timeout time.Duration) *Dispatcher {
	d.client.Timeout = timeout
	return d
}

// Notify implements scoring.Alerter. It dispatches and logs the outcome;
// errors stay inside the dispatcher.
func (d *Dispatcher) Notify(ctx context.Context, tx feature.Transaction, assessment *scoring.Assessment) {
	result := d.Dispatch(ctx, tx, assessment)

	// One structured record per alert regardless of delivery outcome.
	if result.Delivered {
		metrics.AlertDeliveries.WithLabelValues("delivered").Inc()
		d.logger.Info("alert delivered",
			"tx", assessment.TxRef,
			"risk", assessment.Risk,
			"level", assessment.Severity,
		)
	} else {
		metrics.AlertDeliveries.WithLabelValues("failed").Inc()
		d.logger.Warn("alert delivery failed",
			"tx", assessment.TxRef,
			"risk", assessment.Risk,
			"level", assessment.Severity,
			"reason", result.Reason,
		)
	}
}

// Dispatch performs one delivery attempt and returns its outcome. A 2xx
// response counts as delivered; anything else, including transport errors,
// is a soft failure.
func (d *Dispatcher) Dispatch(ctx context.Context, tx feature.Transaction, assessment *scoring.Assessment) Delivery {
	if d.sinkURL == "" {
		return Failed("no sink configured")
	}
	if !d.breaker.Allow(breakerKey) {
		return Failed("circuit open")
	}

	body, err := json.Marshal(payload{
		Tx:    tx,
		Risk:  assessment.Risk,
		Level: string(assessment.Severity),
	})
	if err != nil {
		return Failed(fmt.Sprintf("encode: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.sinkURL, bytes.NewReader(body))
	if err != nil {
		return Failed(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		d.breaker.RecordFailure(breakerKey)
		return Failed(fmt.Sprintf("post: %v", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		d.breaker.RecordFailure(breakerKey)
		return Failed(fmt.Sprintf("sink returned %d", resp.StatusCode))
	}

	d.breaker.RecordSuccess(breakerKey)
	return Delivered()
}
