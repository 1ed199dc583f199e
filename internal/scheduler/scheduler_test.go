package scheduler

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"rental-scout/internal/usecase"
)

type countingRunner struct {
	mu   sync.Mutex
	runs int
	res  usecase.BatchResult
}

func (r *countingRunner) SyncAllUsers(context.Context) (usecase.BatchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
	return r.res, nil
}

func (r *countingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestParseTimes(t *testing.T) {
	times, err := ParseTimes("16:30, 09:00")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(times) != 2 {
		t.Fatalf("expected 2 triggers, got %d", len(times))
	}
	if times[0].String() != "09:00" || times[1].String() != "16:30" {
		t.Fatalf("triggers not sorted: %v", times)
	}

	for _, bad := range []string{"", "25:00", "09:61", "morning"} {
		if _, err := ParseTimes(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestNextOccurrence(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	got := nextOccurrence(TimeOfDay{Hour: 16, Minute: 0}, base)
	if got.Day() != 10 || got.Hour() != 16 {
		t.Fatalf("same-day trigger wrong: %v", got)
	}

	// A trigger at exactly now must land on tomorrow, never refire today.
	got = nextOccurrence(TimeOfDay{Hour: 10, Minute: 0}, base)
	if got.Day() != 11 {
		t.Fatalf("boundary trigger must move to next day: %v", got)
	}

	got = nextOccurrence(TimeOfDay{Hour: 9, Minute: 0}, base)
	if got.Day() != 11 || got.Hour() != 9 {
		t.Fatalf("passed trigger wrong: %v", got)
	}
}

func TestStartAndStopAreNoOpsWhenRepeated(t *testing.T) {
	times, _ := ParseTimes("09:00,16:00")
	s := New(&countingRunner{}, times, time.Hour, quietLogger())

	if !s.Start() {
		t.Fatalf("first start must succeed")
	}
	if s.Start() {
		t.Fatalf("second start must be a no-op")
	}
	if !s.Running() {
		t.Fatalf("expected running")
	}

	if !s.Stop() {
		t.Fatalf("first stop must succeed")
	}
	if s.Stop() {
		t.Fatalf("second stop must be a no-op")
	}
	if s.Running() {
		t.Fatalf("expected stopped")
	}
}

func TestNextFiresAreStrictlyInTheFuture(t *testing.T) {
	times, _ := ParseTimes("09:00,16:00")
	s := New(&countingRunner{}, times, time.Hour, quietLogger())

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	s.now = func() time.Time { return now }

	s.Start()
	defer s.Stop()

	for _, n := range s.NextFires() {
		if !n.After(now) {
			t.Fatalf("next fire %v not after %v", n, now)
		}
	}
}

func TestFireDueRunsOnceAndAdvances(t *testing.T) {
	times, _ := ParseTimes("09:00,16:00")
	runner := &countingRunner{}
	s := New(runner, times, time.Hour, quietLogger())

	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)
	s.now = func() time.Time { return now }
	s.Start()
	defer s.Stop()

	// Not due yet.
	s.fireDue(context.Background())
	if runner.count() != 0 {
		t.Fatalf("fired before any trigger was due")
	}

	// Past the morning trigger: exactly one batch.
	now = now.Add(90 * time.Minute)
	s.fireDue(context.Background())
	if runner.count() != 1 {
		t.Fatalf("expected 1 run, got %d", runner.count())
	}

	// Same instant again: must not double-fire.
	s.fireDue(context.Background())
	if runner.count() != 1 {
		t.Fatalf("double fire at same instant, runs=%d", runner.count())
	}

	for _, n := range s.NextFires() {
		if !n.After(now) {
			t.Fatalf("next fire %v not advanced past %v", n, now)
		}
	}
}

func TestFireDueCollapsesMissedOccurrences(t *testing.T) {
	times, _ := ParseTimes("09:00,16:00")
	runner := &countingRunner{}
	s := New(runner, times, time.Hour, quietLogger())

	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)
	s.now = func() time.Time { return now }
	s.Start()
	defer s.Stop()

	// Two days of downtime: four missed occurrences become one run.
	now = now.AddDate(0, 0, 2)
	s.fireDue(context.Background())
	if runner.count() != 1 {
		t.Fatalf("missed occurrences must collapse into one run, got %d", runner.count())
	}
}

func TestRunNowWorksWhileStopped(t *testing.T) {
	times, _ := ParseTimes("09:00")
	runner := &countingRunner{res: usecase.BatchResult{TotalUsers: 3, TotalNewMatches: 2}}
	s := New(runner, times, time.Hour, quietLogger())

	res, err := s.RunNow(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.TotalUsers != 3 || res.TotalNewMatches != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if runner.count() != 1 {
		t.Fatalf("expected 1 run, got %d", runner.count())
	}
}

func TestNextFiresEmptyWhenStopped(t *testing.T) {
	times, _ := ParseTimes("09:00")
	s := New(&countingRunner{}, times, time.Hour, quietLogger())
	if got := s.NextFires(); got != nil {
		t.Fatalf("expected nil next fires while stopped, got %v", got)
	}
}
