// Package retention runs the periodic purge of job records that are past the
// retention window.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/saudijob/jobboard/internal/api/metrics"
)

// DefaultSchedule fires once a day at midnight in the purger's location.
const DefaultSchedule = "@daily"

// Purger deletes records older than the configured retention.
type Purger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler wraps robfig/cron and owns the purge loop.
type Scheduler struct {
	cron   *cron.Cron
	purger Purger
	spec   string
	now    func() time.Time
	log    zerolog.Logger
}

// New creates a Scheduler for spec in loc. An empty spec uses DefaultSchedule.
// Overlapping runs are skipped, not queued.
func New(purger Purger, spec string, loc *time.Location, log zerolog.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultSchedule
	}
	if loc == nil {
		loc = time.Local
	}
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		purger: purger,
		spec:   spec,
		now:    time.Now,
		log:    log,
	}
}

// Start registers the purge job and starts the scheduler. ctx bounds every run.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.log.Info().Str("schedule", s.spec).Msg("retention purge scheduled")
	return nil
}

// Stop halts the scheduler and waits for a running purge to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("retention purge stopped")
}

// RunOnce performs a single purge and reports how many records were removed.
func (s *Scheduler) RunOnce(ctx context.Context) int64 {
	n, err := s.purger.PurgeExpired(ctx, s.now())
	if err != nil {
		s.log.Error().Err(err).Msg("retention purge failed")
		return 0
	}
	metrics.JobsPurgedTotal.Add(float64(n))
	return n
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
