// Package stream consumes the live payment event feed over WebSocket.
//
// Each message is an envelope {event, payload}; only events whose name is
// prefixed "payment:" are scored. Malformed or unrelated messages are
// counted and skipped; the loop runs until the context is cancelled or the
// reconnect budget is exhausted.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mbd888/fraudwatch/internal/feature"
	"github.com/mbd888/fraudwatch/internal/metrics"
	"github.com/mbd888/fraudwatch/internal/retry"
	"github.com/mbd888/fraudwatch/internal/scoring"
	"github.com/mbd888/fraudwatch/internal/traces"
)

const (
	// paymentPrefix selects the event names we score.
	paymentPrefix = "payment:"

	// DefaultMaxReconnects bounds consecutive failed dial attempts.
	DefaultMaxReconnects = 5

	reconnectBaseDelay = time.Second
)

// envelope is the wire shape of one feed message.
type envelope struct {
	Event   string              `json:"event"`
	Payload feature.Transaction `json:"payload"`
}

// Processor scores one transaction. Satisfied by *scoring.Pipeline.
type Processor interface {
	Process(ctx context.Context, tx feature.Transaction) *scoring.Assessment
}

// Listener runs the ingestion loop against a WebSocket feed URL.
type Listener struct {
	url           string
	processor     Processor
	logger        *slog.Logger
	dialer        *websocket.Dialer
	maxReconnects int
}

// NewListener creates a listener for the given feed URL.
func NewListener(url string, processor Processor, logger *slog.Logger) *Listener {
	return &Listener{
		url:           url,
		processor:     processor,
		logger:        logger,
		dialer:        websocket.DefaultDialer,
		maxReconnects: DefaultMaxReconnects,
	}
}

// WithMaxReconnects overrides the consecutive dial-attempt budget.
func (l *Listener) WithMaxReconnects(n int) *Listener {
	if n > 0 {
		l.maxReconnects = n
	}
	return l
}

// Listen consumes the feed until ctx is cancelled (returns nil) or the
// reconnect budget is exhausted (returns the last dial error). A dropped
// connection triggers a fresh dial with backoff; messages already scored
// are never replayed by this side.
func (l *Listener) Listen(ctx context.Context) error {
	for {
		conn, err := l.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("stream: connect to %s: %w", l.url, err)
		}

		err = l.consume(ctx, conn)
		if ctx.Err() != nil {
			return nil
		}
		l.logger.Warn("feed connection lost, reconnecting", "error", err)
	}
}

func (l *Listener) dial(ctx context.Context) (*websocket.Conn, error) {
	var conn *websocket.Conn
	err := retry.Do(ctx, l.maxReconnects, reconnectBaseDelay, func() error {
		c, _, err := l.dialer.DialContext(ctx, l.url, nil)
		if err != nil {
			l.logger.Warn("feed dial failed", "url", l.url, "error", err)
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.StreamConnections.Inc()
	l.logger.Info("connected to payment feed", "url", l.url)
	return conn, nil
}

// consume reads one connection until it breaks or ctx is cancelled.
func (l *Listener) consume(ctx context.Context, conn *websocket.Conn) error {
	defer metrics.StreamConnections.Dec()
	defer func() { _ = conn.Close() }()

	// Unblock the read loop when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		l.handle(ctx, message)
	}
}

func (l *Listener) handle(ctx context.Context, message []byte) {
	var env envelope
	if err := json.Unmarshal(message, &env); err != nil {
		metrics.StreamMessages.WithLabelValues("malformed").Inc()
		l.logger.Debug("skipping malformed feed message", "error", err)
		return
	}

	if !strings.HasPrefix(env.Event, paymentPrefix) {
		metrics.StreamMessages.WithLabelValues("skipped").Inc()
		return
	}

	// An envelope is an event name plus a payload object; a payment event
	// without one is not a scoreable transaction.
	if env.Payload == nil {
		metrics.StreamMessages.WithLabelValues("skipped").Inc()
		l.logger.Debug("skipping payment event without payload", "event", env.Event)
		return
	}

	metrics.StreamMessages.WithLabelValues("scored").Inc()

	ctx, span := traces.StartSpan(ctx, "stream.handle", traces.Event(env.Event))
	defer span.End()
	l.processor.Process(ctx, env.Payload)
}
