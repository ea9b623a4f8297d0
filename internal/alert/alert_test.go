package alert

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/fraudwatch/internal/feature"
	"github.com/mbd888/fraudwatch/internal/scoring"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAssessment() *scoring.Assessment {
	return &scoring.Assessment{
		ID:       "asmt_test",
		TxRef:    "tx_42",
		Risk:     0.913,
		Severity: scoring.SeverityCritical,
		ScoredAt: time.Now(),
	}
}

func TestDispatchDelivers(t *testing.T) {
	bodies := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var decoded map[string]any
		_ = json.Unmarshal(body, &decoded)
		bodies <- decoded
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, testLogger())
	tx := feature.Transaction{"txId": "tx_42", "amount": 91000.0}

	result := d.Dispatch(context.Background(), tx, testAssessment())

	assert.True(t, result.Delivered)
	var received map[string]any
	select {
	case received = <-bodies:
	case <-time.After(time.Second):
		t.Fatal("sink never saw the request")
	}
	require.NotNil(t, received)
	assert.Equal(t, 0.913, received["risk"])
	assert.Equal(t, "critical", received["level"])

	sent, ok := received["tx"].(map[string]any)
	require.True(t, ok, "payload must carry the original transaction")
	assert.Equal(t, "tx_42", sent["txId"])
}

func TestDispatchNon2xxIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	result := NewDispatcher(srv.URL, testLogger()).Dispatch(context.Background(), feature.Transaction{}, testAssessment())

	assert.False(t, result.Delivered)
	assert.Contains(t, result.Reason, "500")
}

func TestDispatchNetworkErrorIsFailure(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	result := NewDispatcher(url, testLogger()).Dispatch(context.Background(), feature.Transaction{}, testAssessment())

	assert.False(t, result.Delivered)
	assert.NotEmpty(t, result.Reason)
}

func TestDispatchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, testLogger()).WithTimeout(50 * time.Millisecond)
	result := d.Dispatch(context.Background(), feature.Transaction{}, testAssessment())

	assert.False(t, result.Delivered)
}

func TestDispatchNoSink(t *testing.T) {
	result := NewDispatcher("", testLogger()).Dispatch(context.Background(), feature.Transaction{}, testAssessment())

	assert.False(t, result.Delivered)
	assert.Equal(t, "no sink configured", result.Reason)
}

func TestDispatchCircuitOpensAfterRepeatedFailures(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, testLogger())

	for i := 0; i < 5; i++ {
		result := d.Dispatch(context.Background(), feature.Transaction{}, testAssessment())
		assert.False(t, result.Delivered)
	}
	require.Equal(t, int64(5), hits.Load())

	// Circuit tripped: further attempts are shed without touching the sink.
	result := d.Dispatch(context.Background(), feature.Transaction{}, testAssessment())
	assert.False(t, result.Delivered)
	assert.Equal(t, "circuit open", result.Reason)
	assert.Equal(t, int64(5), hits.Load())
}

func TestNotifyNeverPanics(t *testing.T) {
	// Notify swallows all failures, including an unreachable sink.
	d := NewDispatcher("http://127.0.0.1:1", testLogger()).WithTimeout(100 * time.Millisecond)

	assert.NotPanics(t, func() {
		d.Notify(context.Background(), feature.Transaction{}, testAssessment())
	})
}
