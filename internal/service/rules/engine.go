package rules

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/domain/records"
	"github.com/mamadbah2/dairy/internal/metrics"
)

// Rule evaluates one alert condition over a read-only view of the record store.
type Rule interface {
	Type() models.RuleType
	Category() models.Category
	Evaluate(ctx context.Context, src records.Source, cfg models.AlertConfig, today time.Time) ([]models.CandidateAlert, error)
}

// RuleFailure records a rule that could not complete in a cycle.
type RuleFailure struct {
	Rule models.RuleType
	Err  error
}

// Result aggregates one evaluation cycle.
type Result struct {
	Candidates []models.CandidateAlert
	Failures   []RuleFailure
	Skipped    []models.RuleType
}

// Engine runs the registered rules in order. Rules are isolated from each
// other: an error or panic in one rule drops only that rule's candidates.
type Engine struct {
	source  records.Source
	rules   []Rule
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewEngine constructs an engine without rules.
func NewEngine(source records.Source, logger *zap.Logger, m *metrics.Metrics) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{source: source, logger: logger, metrics: m}
}

// NewDefaultEngine builds an engine with the built-in rule set.
func NewDefaultEngine(source records.Source, logger *zap.Logger, m *metrics.Metrics) *Engine {
	engine := NewEngine(source, logger, m)
	engine.Register(PregnancyCheckRule())
	engine.Register(DeliveryRule())
	engine.Register(VaccinationRule())
	engine.Register(LowStockRule())
	return engine
}

// Register appends a rule to the engine.
func (e *Engine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Evaluate runs every enabled rule for the given day.
func (e *Engine) Evaluate(ctx context.Context, cfg models.AlertConfig, today time.Time) Result {
	var res Result
	for _, rule := range e.rules {
		if !cfg.Enabled(rule.Category()) {
			res.Skipped = append(res.Skipped, rule.Type())
			continue
		}

		candidates, err := e.run(ctx, rule, cfg, today)
		if err != nil {
			e.logger.Error("rule evaluation failed", zap.String("rule", string(rule.Type())), zap.Error(err))
			e.metrics.RuleFailed(string(rule.Type()))
			res.Failures = append(res.Failures, RuleFailure{Rule: rule.Type(), Err: err})
			continue
		}

		e.logger.Debug("rule evaluated", zap.String("rule", string(rule.Type())), zap.Int("candidates", len(candidates)))
		res.Candidates = append(res.Candidates, candidates...)
	}
	return res
}

func (e *Engine) run(ctx context.Context, rule Rule, cfg models.AlertConfig, today time.Time) (candidates []models.CandidateAlert, err error) {
	defer func() {
		if r := recover(); r != nil {
			candidates = nil
			err = fmt.Errorf("rule %s panicked: %v", rule.Type(), r)
		}
	}()
	return rule.Evaluate(ctx, e.source, cfg, today)
}
