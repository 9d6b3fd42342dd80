package alerts

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/metrics"
	"github.com/mamadbah2/dairy/internal/service/rules"
	"github.com/mamadbah2/dairy/pkg/datemath"
)

// ConfigLoader returns the alert configuration, falling back to defaults.
type ConfigLoader interface {
	Load(ctx context.Context) models.AlertConfig
}

// Evaluator runs the rule set for one day.
type Evaluator interface {
	Evaluate(ctx context.Context, cfg models.AlertConfig, today time.Time) rules.Result
}

// Deliverer hands newly raised alerts to the notification channel.
type Deliverer interface {
	DeliverAlerts(ctx context.Context, alerts []models.Alert)
}

// Summary describes one pipeline run.
type Summary struct {
	EvaluationDate string   `json:"evaluation_date"`
	Active         int      `json:"active"`
	New            int      `json:"new"`
	FailedRules    []string `json:"failed_rules,omitempty"`
}

// Pipeline chains settings, rule evaluation, aggregation, the feed and delivery.
type Pipeline struct {
	settings  ConfigLoader
	engine    Evaluator
	feed      *Feed
	deliverer Deliverer
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewPipeline wires the evaluation pipeline. deliverer may be nil.
func NewPipeline(settings ConfigLoader, engine Evaluator, feed *Feed, deliverer Deliverer, m *metrics.Metrics, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		settings:  settings,
		engine:    engine,
		feed:      feed,
		deliverer: deliverer,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the pipeline clock.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	if now != nil {
		p.now = now
	}
	return p
}

// Run executes one evaluation cycle. Failing rules keep their alerts from
// earlier runs on the same day; delivery and mirroring problems are logged
// and never block the feed.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	if err := ctx.Err(); err != nil {
		p.metrics.EvaluationFailed()
		return Summary{}, fmt.Errorf("run evaluation: %w", err)
	}

	start := p.now()
	today := datemath.StartOfDay(start)
	cfg := p.settings.Load(ctx)

	res := p.engine.Evaluate(ctx, cfg, today)
	alerts := Aggregate(res.Candidates, today, start)

	failed := make(map[models.RuleType]bool, len(res.Failures))
	summary := Summary{EvaluationDate: datemath.Format(today)}
	for _, f := range res.Failures {
		failed[f.Rule] = true
		summary.FailedRules = append(summary.FailedRules, string(f.Rule))
	}
	retain := func(a models.Alert) bool {
		return failed[a.Type] && a.EvaluationDate == summary.EvaluationDate
	}

	fresh, err := p.feed.Replace(ctx, alerts, retain)
	if err != nil {
		p.logger.Warn("alert feed mirror failed", zap.Error(err))
	}

	active := p.feed.Snapshot()
	summary.Active = len(active)
	summary.New = len(fresh)
	p.metrics.SetActiveAlerts(countByPriority(active))
	p.metrics.EvaluationCompleted(p.now().Sub(start), len(res.Failures) > 0)

	if len(fresh) > 0 && p.deliverer != nil {
		p.deliverer.DeliverAlerts(ctx, fresh)
	}

	p.logger.Info("alert evaluation completed",
		zap.String("evaluation_date", summary.EvaluationDate),
		zap.Int("active", summary.Active),
		zap.Int("new", summary.New),
		zap.Strings("failed_rules", summary.FailedRules),
	)
	return summary, nil
}

func countByPriority(alerts []models.Alert) map[string]int {
	counts := map[string]int{
		models.PriorityHigh.String():   0,
		models.PriorityMedium.String(): 0,
		models.PriorityLow.String():    0,
	}
	for _, a := range alerts {
		counts[a.Priority.String()]++
	}
	return counts
}
