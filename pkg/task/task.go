// Package task runs periodic work at fixed per-task frequencies.
//
// A Scheduler is driven by calling Update with the time elapsed since the previous call. Every task
// accumulates that time and runs once for each full period it has accumulated, so a 10ms task runs
// five times when Update is given 50ms. Accumulated time is capped at one second, which drops work
// after long stalls instead of running a burst of catch-up steps.
package task

import (
	"math"
	"time"

	"github.com/argus-labs/component-container/pkg/assert"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

const (
	// MaxAccumulated is the most time a task can carry over between updates.
	MaxAccumulated = time.Second

	// Idle is returned by Update when no task is scheduled.
	Idle = time.Duration(math.MaxInt64)
)

// Func is the work a task performs each period.
type Func func() error

// Task is a unit of periodic work registered with a Scheduler.
type Task struct {
	name        string
	frequency   time.Duration
	accumulated time.Duration
	runs        uint64
	fn          Func
}

// Name returns the name the task was added with.
func (t *Task) Name() string { return t.name }

// Frequency returns the period of the task.
func (t *Task) Frequency() time.Duration { return t.frequency }

// Runs returns how many times the task has run.
func (t *Task) Runs() uint64 { return t.runs }

// Scheduler runs tasks at fixed timesteps. It is not safe for concurrent use.
type Scheduler struct {
	tasks   []*Task // Removed tasks leave a nil slot until the next Update
	removed bool
	now     func() time.Time
	log     zerolog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Scheduler) {
		s.log = log
	}
}

// WithClock sets the clock used to measure how long tasks take to run.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// NewScheduler creates a scheduler without tasks.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		now: time.Now,
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("component", "scheduler").Logger()
	return s
}

// Add registers fn to run every frequency. The frequency must be positive and no longer than
// MaxAccumulated, or the task could never accumulate a full period.
func (s *Scheduler) Add(name string, frequency time.Duration, fn Func) *Task {
	assert.That(frequency > 0, "task %s: frequency must be positive", name)
	assert.That(frequency <= MaxAccumulated, "task %s: frequency must be at most %s", name, MaxAccumulated)
	assert.That(fn != nil, "task %s: nil function", name)

	t := &Task{name: name, frequency: frequency, fn: fn}
	s.tasks = append(s.tasks, t)
	s.log.Debug().Str("task", name).Dur("frequency", frequency).Msg("task added")
	return t
}

// Remove unregisters t. Removing a nil or unknown task is a no-op. It is safe to call from inside a
// running task.
func (s *Scheduler) Remove(t *Task) {
	if t == nil {
		return
	}
	for i, task := range s.tasks {
		if task == t {
			s.tasks[i] = nil
			s.removed = true
			s.log.Debug().Str("task", t.name).Msg("task removed")
			return
		}
	}
}

// Len returns the number of registered tasks.
func (s *Scheduler) Len() int {
	n := 0
	for _, t := range s.tasks {
		if t != nil {
			n++
		}
	}
	return n
}

// Update advances every task by elapsed and runs the ones that are due, in the order they were
// added. It returns how long the caller can wait before the next task is due, less the time spent
// running tasks after that was determined.
//
// If a task fails, Update stops and returns its error. The failed period counts as run.
func (s *Scheduler) Update(elapsed time.Duration) (time.Duration, error) {
	s.compact()

	next := Idle
	mark := s.now()

	// Tasks added while updating wait for the next call.
	for i, t := range s.tasks {
		if t == nil {
			continue
		}

		t.accumulated = min(max(t.accumulated+elapsed, 0), MaxAccumulated)
		for t.accumulated >= t.frequency && s.tasks[i] == t {
			t.accumulated -= t.frequency
			t.runs++
			if err := t.fn(); err != nil {
				s.log.Error().Err(err).Str("task", t.name).Uint64("run", t.runs).Msg("task failed")
				return 0, eris.Wrapf(err, "task %s failed", t.name)
			}
		}
		if s.tasks[i] != t {
			continue // Removed itself
		}

		due := t.frequency - t.accumulated
		if next-s.now().Sub(mark) > due {
			next = due
			mark = s.now()
		}
	}

	if next == Idle {
		return Idle, nil
	}
	return max(next-s.now().Sub(mark), 0), nil
}

// compact drops the slots of removed tasks.
func (s *Scheduler) compact() {
	if !s.removed {
		return
	}
	live := s.tasks[:0]
	for _, t := range s.tasks {
		if t != nil {
			live = append(live, t)
		}
	}
	clear(s.tasks[len(live):])
	s.tasks = live
	s.removed = false
}
