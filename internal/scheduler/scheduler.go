package scheduler

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"rental-scout/internal/usecase"
)

const (
	defaultPollInterval = time.Minute
	stopGracePeriod     = 5 * time.Second
)

type BatchRunner interface {
	SyncAllUsers(ctx context.Context) (usecase.BatchResult, error)
}

// TimeOfDay is one daily trigger, wall clock.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimes parses a comma-separated list of "HH:MM" triggers.
func ParseTimes(raw string) ([]TimeOfDay, error) {
	parts := strings.Split(raw, ",")
	out := make([]TimeOfDay, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		hm := strings.SplitN(p, ":", 2)
		if len(hm) != 2 {
			return nil, fmt.Errorf("bad trigger time %q", p)
		}
		h, err := strconv.Atoi(hm[0])
		if err != nil || h < 0 || h > 23 {
			return nil, fmt.Errorf("bad trigger hour %q", p)
		}
		m, err := strconv.Atoi(hm[1])
		if err != nil || m < 0 || m > 59 {
			return nil, fmt.Errorf("bad trigger minute %q", p)
		}
		out = append(out, TimeOfDay{Hour: h, Minute: m})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no trigger times in %q", raw)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hour != out[j].Hour {
			return out[i].Hour < out[j].Hour
		}
		return out[i].Minute < out[j].Minute
	})
	return out, nil
}

// Scheduler fires the sync batch at fixed wall-clock times from one
// background goroutine. Each trigger keeps its own next-fire timestamp,
// recomputed after every fire, so a delayed poll never double-fires and
// occurrences missed while stopped are skipped rather than queued.
type Scheduler struct {
	runner   BatchRunner
	times    []TimeOfDay
	interval time.Duration
	logger   *log.Logger
	now      func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	next    []time.Time
}

func New(runner BatchRunner, times []TimeOfDay, interval time.Duration, logger *log.Logger) *Scheduler {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		runner:   runner,
		times:    times,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Start launches the trigger loop. Calling it while already running is a
// reported no-op.
func (s *Scheduler) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Printf("[Scheduler] start ignored | reason=already_running")
		return false
	}

	now := s.now()
	s.next = make([]time.Time, len(s.times))
	for i, t := range s.times {
		s.next[i] = nextOccurrence(t, now)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.loop(ctx, s.done)

	s.logger.Printf("[Scheduler] started | triggers=%s poll_interval=%s", formatTimes(s.times), s.interval)
	return true
}

// Stop cancels the loop and waits a bounded grace period for it to wind
// down. Calling it while stopped is a reported no-op.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.logger.Printf("[Scheduler] stop ignored | reason=not_running")
		return false
	}
	cancel := s.cancel
	done := s.done
	s.running = false
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(stopGracePeriod):
		s.logger.Printf("[Scheduler] stop grace period elapsed before loop exit")
	}

	s.logger.Printf("[Scheduler] stopped")
	return true
}

// RunNow triggers the batch immediately. It shares no mutable state with
// the timer path beyond what the repositories manage, so it is safe to
// call while the loop is running.
func (s *Scheduler) RunNow(ctx context.Context) (usecase.BatchResult, error) {
	return s.runBatch(ctx)
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextFires reports the pending occurrence per trigger, for the control
// surface. Empty when stopped.
func (s *Scheduler) NextFires() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	out := make([]time.Time, len(s.next))
	copy(out, s.next)
	return out
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fireDue(ctx)
		}
	}
}

func (s *Scheduler) fireDue(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	due := false
	for i := range s.next {
		if !now.Before(s.next[i]) {
			due = true
			// Recomputing from now (not from the fired occurrence)
			// collapses any boundaries a delayed poll skipped over into
			// a single fire.
			s.next[i] = nextOccurrence(s.times[i], now)
		}
	}
	s.mu.Unlock()

	if !due {
		return
	}

	if _, err := s.runBatch(ctx); err != nil {
		s.logger.Printf("[Scheduler] batch run failed | error=%v", err)
	}
}

func (s *Scheduler) runBatch(ctx context.Context) (usecase.BatchResult, error) {
	start := s.now()
	s.logger.Printf("[Scheduler] running matching batch | at=%s", start.Format(time.RFC3339))

	res, err := s.runner.SyncAllUsers(ctx)
	if err != nil {
		return usecase.BatchResult{}, err
	}

	s.logger.Printf("[Scheduler] batch completed | users=%d new_matches=%d", res.TotalUsers, res.TotalNewMatches)
	for _, ur := range res.UserResults {
		if len(ur.Errors) > 0 {
			s.logger.Printf("[Scheduler] user errors | user_id=%s errors=%v", ur.UserID, ur.Errors)
		}
	}
	return res, nil
}

// nextOccurrence returns the first wall-clock occurrence of t strictly
// after the given instant.
func nextOccurrence(t TimeOfDay, after time.Time) time.Time {
	candidate := time.Date(after.Year(), after.Month(), after.Day(), t.Hour, t.Minute, 0, 0, after.Location())
	if !candidate.After(after) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

func formatTimes(times []TimeOfDay) string {
	parts := make([]string, 0, len(times))
	for _, t := range times {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, ",")
}
