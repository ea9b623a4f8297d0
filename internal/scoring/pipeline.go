package scoring

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/mbd888/fraudwatch/internal/feature"
	"github.com/mbd888/fraudwatch/internal/idgen"
	"github.com/mbd888/fraudwatch/internal/metrics"
	"github.com/mbd888/fraudwatch/internal/traces"
)

// Alerter notifies an external sink about a severity-qualifying assessment.
// Implementations must be best-effort: failures are theirs to log, never to
// propagate back into the scoring path.
type Alerter interface {
	Notify(ctx context.Context, tx feature.Transaction, assessment *Assessment)
}

// Pipeline runs the full per-transaction path: extract → score → classify →
// (alert). It holds no mutable state besides the read-only artifact inside
// the scorer, so one pipeline serves any number of concurrent callers.
type Pipeline struct {
	scorer    *Scorer
	threshold float64
	alerter   Alerter
	store     Store
	logger    *slog.Logger
}

// NewPipeline assembles a scoring pipeline. alerter and store may be nil.
func NewPipeline(scorer *Scorer, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		scorer:    scorer,
		threshold: DefaultThreshold,
		logger:    logger,
	}
}

// WithThreshold overrides the high-severity threshold.
func (p *Pipeline) WithThreshold(t float64) *Pipeline {
	p.threshold = t
	return p
}

// WithAlerter attaches an alert dispatcher for high/critical assessments.
func (p *Pipeline) WithAlerter(a Alerter) *Pipeline {
	p.alerter = a
	return p
}

// WithStore attaches an audit store; recording is async and best-effort.
func (p *Pipeline) WithStore(s Store) *Pipeline {
	p.store = s
	return p
}

// Threshold returns the configured high-severity threshold.
func (p *Pipeline) Threshold() float64 { return p.threshold }

// Process scores one transaction and returns its assessment. It never
// fails: malformed fields zero-default in extraction and model problems
// degrade to neutral sub-scores.
func (p *Pipeline) Process(ctx context.Context, tx feature.Transaction) *Assessment {
	return p.ProcessWithThreshold(ctx, tx, p.threshold)
}

// ProcessWithThreshold scores one transaction against a caller-supplied
// high-severity threshold instead of the configured one.
func (p *Pipeline) ProcessWithThreshold(ctx context.Context, tx feature.Transaction, threshold float64) *Assessment {
	start := time.Now()
	ctx, span := traces.StartSpan(ctx, "scoring.process", traces.TxRef(feature.Ref(tx)))
	defer span.End()

	vec := feature.Extract(tx)
	risk, parts := p.scorer.Score(vec)
	severity := Classify(risk, threshold)

	assessment := &Assessment{
		ID:       idgen.WithPrefix("asmt_"),
		TxRef:    feature.Ref(tx),
		Risk:     math.Round(risk*1000) / 1000, // 3 decimal places
		Severity: severity,
		Parts:    parts,
		ScoredAt: time.Now(),
	}

	span.SetAttributes(traces.Risk(assessment.Risk), traces.Severity(string(severity)))
	metrics.TransactionsScored.WithLabelValues(string(severity)).Inc()
	metrics.ScoringDuration.Observe(time.Since(start).Seconds())

	p.logger.Info("transaction scored",
		"tx", assessment.TxRef,
		"risk", assessment.Risk,
		"level", severity,
	)

	// Persist asynchronously (best-effort audit trail)
	if p.store != nil {
		go func() {
			recCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := p.store.Record(recCtx, assessment); err != nil {
				p.logger.Warn("assessment audit record failed", "id", assessment.ID, "error", err)
			}
		}()
	}

	if severity.Alertable() && p.alerter != nil {
		// Async so a stalled sink cannot delay the caller's loop.
		go p.alerter.Notify(context.WithoutCancel(ctx), tx, assessment)
	}

	return assessment
}
