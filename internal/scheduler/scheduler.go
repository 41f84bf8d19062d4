package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler runs the game's countdowns and delayed transitions.
type Scheduler struct {
	// gocron builds jobs through chained calls on shared state, so job creation is serialized.
	mu        sync.Mutex
	scheduler *gocron.Scheduler
}

// New creates a scheduler and starts it in a non-blocking manner.
func New() *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.StartAsync()
	return &Scheduler{scheduler: s}
}

// Every runs fn every interval, first after one interval has passed. The returned func cancels it.
func (s *Scheduler) Every(interval time.Duration, fn func()) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, err := s.scheduler.Every(interval).WaitForSchedule().Do(fn)
	if err != nil {
		return nil, fmt.Errorf("schedule every %s: %w", interval, err)
	}
	return s.cancel(job), nil
}

// After runs fn once, delay from now. The returned func cancels it if it has not run yet.
func (s *Scheduler) After(delay time.Duration, fn func()) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, err := s.scheduler.Every(delay).WaitForSchedule().LimitRunsTo(1).Do(fn)
	if err != nil {
		return nil, fmt.Errorf("schedule after %s: %w", delay, err)
	}
	return s.cancel(job), nil
}

func (s *Scheduler) cancel(job *gocron.Job) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.scheduler.RemoveByReference(job)
		})
	}
}

// Len reports how many jobs are scheduled.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduler.Len()
}

// Stop terminates all scheduled tasks.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
