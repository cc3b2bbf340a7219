// Package schedule runs the data refresh on a cron timetable.
package schedule

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"investnotes/internal/utils"
)

// Job is one scheduled task. The context is canceled when the scheduler
// stops.
type Job func(ctx context.Context) error

type Scheduler struct {
	cron   *cron.Cron
	logger *utils.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	runs map[string]int
}

// New creates a scheduler whose specs include a seconds field, e.g.
// "0 30 18 * * *". A run that is still going when the next one is due is
// skipped.
func New(logger *utils.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cl := cronLogger{logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		runs:   make(map[string]int),
	}
}

// Add registers job under name.
func (s *Scheduler) Add(spec, name string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.run(name, job)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", spec, name, err)
	}
	s.logger.Info("Scheduled %s at %q", name, spec)
	return nil
}

func (s *Scheduler) run(name string, job Job) {
	s.mu.Lock()
	s.runs[name]++
	n := s.runs[name]
	s.mu.Unlock()

	s.logger.Info("Running %s (#%d)", name, n)
	if err := job(s.ctx); err != nil {
		s.logger.Error("%s failed: %v", name, err)
		return
	}
	s.logger.Info("%s finished", name)
}

// Runs reports how many times name has started.
func (s *Scheduler) Runs(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[name]
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

// cronLogger routes the cron library's messages to the application logger.
type cronLogger struct {
	l *utils.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: %s %v", msg, keysAndValues)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: %s: %v %v", msg, err, keysAndValues)
}
