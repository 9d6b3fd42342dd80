package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/metrics"
	"github.com/mamadbah2/dairy/internal/service/alerts"
	"github.com/mamadbah2/dairy/internal/service/delivery"
)

const (
	evaluationTimeout = 2 * time.Minute
	sessionTimeout    = 30 * time.Second
)

// Evaluator runs one alert pipeline cycle.
type Evaluator interface {
	Run(ctx context.Context) (alerts.Summary, error)
}

// Notifier sends free-form notifications.
type Notifier interface {
	Notify(ctx context.Context, title, body string, data map[string]any) delivery.Result
}

// ConfigLoader supplies the category switches.
type ConfigLoader interface {
	Load(ctx context.Context) models.AlertConfig
}

// Options configures the scheduler.
type Options struct {
	EvaluationSpec string
	SessionSpec    string
	Location       *time.Location
}

// Scheduler drives periodic evaluation and session notifications.
type Scheduler struct {
	cron      *cron.Cron
	opts      Options
	evaluator Evaluator
	sessions  *SessionTracker
	notifier  Notifier
	settings  ConfigLoader
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduler creates a new scheduler instance. sessions and notifier may be
// nil to disable session triggers.
func NewScheduler(opts Options, evaluator Evaluator, sessions *SessionTracker, notifier Notifier, settings ConfigLoader, m *metrics.Metrics, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.EvaluationSpec == "" {
		opts.EvaluationSpec = "@every 5m"
	}
	if opts.SessionSpec == "" {
		opts.SessionSpec = "* * * * *"
	}

	c := cron.New(
		cron.WithLocation(opts.Location),
		cron.WithLogger(cronLogger{logger.Sugar()}),
		cron.WithChain(cron.Recover(cronLogger{logger.Sugar()})),
	)

	loc := opts.Location
	return &Scheduler{
		cron:      c,
		opts:      opts,
		evaluator: evaluator,
		sessions:  sessions,
		notifier:  notifier,
		settings:  settings,
		metrics:   m,
		logger:    logger,
		now:       func() time.Time { return time.Now().In(loc) },
	}
}

// WithClock overrides the clock used for session checks.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	if now != nil {
		s.now = now
	}
	return s
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler",
		zap.String("evaluation_spec", s.opts.EvaluationSpec),
		zap.String("session_spec", s.opts.SessionSpec),
		zap.String("location", s.opts.Location.String()),
	)

	if _, err := s.cron.AddFunc(s.opts.EvaluationSpec, s.runEvaluation); err != nil {
		return fmt.Errorf("schedule evaluation: %w", err)
	}
	if s.sessions != nil && s.notifier != nil {
		if _, err := s.cron.AddFunc(s.opts.SessionSpec, s.checkSessions); err != nil {
			return fmt.Errorf("schedule session checks: %w", err)
		}
	}

	s.cron.Start()
	return nil
}

// AddMaintenance schedules a housekeeping job. It must be called before Start.
func (s *Scheduler) AddMaintenance(spec, name string, fn func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), evaluationTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.logger.Error("maintenance job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.logger.Debug("maintenance job completed", zap.String("job", name))
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runEvaluation() {
	ctx, cancel := context.WithTimeout(context.Background(), evaluationTimeout)
	defer cancel()

	if _, err := s.evaluator.Run(ctx); err != nil {
		s.logger.Error("alert evaluation failed", zap.Error(err))
	}
}

func (s *Scheduler) checkSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), sessionTimeout)
	defer cancel()

	s.CheckSessions(ctx, s.now())
}

// CheckSessions fires the session notifications due at now and returns the
// names of the triggers that fired.
func (s *Scheduler) CheckSessions(ctx context.Context, now time.Time) []string {
	due := s.sessions.Due(now)
	if len(due) == 0 {
		return nil
	}
	if s.settings != nil && !s.settings.Load(ctx).Enabled(models.CategoryUpdates) {
		s.logger.Debug("updates disabled, session notifications suppressed", zap.Int("due", len(due)))
		return nil
	}

	fired := make([]string, 0, len(due))
	for _, t := range due {
		res := s.notifier.Notify(ctx, t.Title, t.Message, map[string]any{
			"trigger": t.Name,
			"at":      t.At,
			"date":    now.Format("2006-01-02"),
		})
		s.metrics.SessionTriggered(t.Name)
		s.logger.Info("session notification fired",
			zap.String("trigger", t.Name),
			zap.String("mode", string(s.sessions.Mode())),
			zap.Int("sent", res.Sent),
			zap.Int("failed", res.Failed),
		)
		fired = append(fired, t.Name)
	}
	return fired
}

// cronLogger adapts zap to cron's logger interface.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
