package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type stubPending struct {
	ids         []uint
	err         error
	before      time.Time
	maxAttempts int
	attempts    map[uint]int
	recordErr   error
}

func (s *stubPending) PendingScoring(_ context.Context, before time.Time, maxAttempts int) ([]uint, error) {
	s.before = before
	s.maxAttempts = maxAttempts
	if s.err != nil {
		return nil, s.err
	}
	var ids []uint
	for _, id := range s.ids {
		if s.attempts[id] < maxAttempts {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *stubPending) RecordScoringAttempt(_ context.Context, id uint) error {
	if s.recordErr != nil {
		return s.recordErr
	}
	if s.attempts == nil {
		s.attempts = map[uint]int{}
	}
	s.attempts[id]++
	return nil
}

type stubScheduler struct {
	accepted []uint
	capacity int
}

func (s *stubScheduler) Schedule(id uint) bool {
	if len(s.accepted) >= s.capacity {
		return false
	}
	s.accepted = append(s.accepted, id)
	return true
}

func TestSweep(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	source := &stubPending{ids: []uint{4, 8, 15}}
	scheduler := &stubScheduler{capacity: 2}

	s := NewSweeper(source, scheduler, SweeperConfig{Grace: 30 * time.Minute}, nil)
	s.now = func() time.Time { return now }

	queued, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if queued != 2 {
		t.Fatalf("expected 2 queued, got %d", queued)
	}
	if diff := cmp.Diff([]uint{4, 8}, scheduler.accepted); diff != "" {
		t.Fatalf("scheduled ids mismatch (-want +got):\n%s", diff)
	}
	if !source.before.Equal(now.Add(-30 * time.Minute)) {
		t.Fatalf("unexpected grace cutoff %s", source.before)
	}
	if source.maxAttempts != DefaultSweepMaxAttempts {
		t.Fatalf("expected default attempt cap, got %d", source.maxAttempts)
	}
	if diff := cmp.Diff(map[uint]int{4: 1, 8: 1}, source.attempts); diff != "" {
		t.Fatalf("recorded attempts mismatch (-want +got):\n%s", diff)
	}
}

// A candidate graded to 0 whose fetch keeps failing is retried MaxAttempts
// times and then left alone.
func TestSweepStopsAfterMaxAttempts(t *testing.T) {
	source := &stubPending{ids: []uint{42}}
	scheduler := &stubScheduler{capacity: 100}
	s := NewSweeper(source, scheduler, SweeperConfig{MaxAttempts: 2}, nil)

	var total int
	for range 5 {
		queued, err := s.Sweep(context.Background())
		if err != nil {
			t.Fatalf("sweep: %v", err)
		}
		total += queued
	}

	if total != 2 {
		t.Fatalf("expected 2 swept retries, got %d", total)
	}
	if diff := cmp.Diff([]uint{42, 42}, scheduler.accepted); diff != "" {
		t.Fatalf("scheduled ids mismatch (-want +got):\n%s", diff)
	}
}

func TestSweepToleratesRecordFailure(t *testing.T) {
	source := &stubPending{ids: []uint{7}, recordErr: errors.New("db down")}
	scheduler := &stubScheduler{capacity: 1}
	s := NewSweeper(source, scheduler, SweeperConfig{}, nil)

	queued, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if queued != 1 {
		t.Fatalf("expected 1 queued, got %d", queued)
	}
}

func TestSweepError(t *testing.T) {
	s := NewSweeper(&stubPending{err: errors.New("db down")}, &stubScheduler{}, SweeperConfig{}, nil)
	if _, err := s.Sweep(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSweeperRunRejectsBadSchedule(t *testing.T) {
	s := NewSweeper(&stubPending{}, &stubScheduler{}, SweeperConfig{Schedule: "every now and then"}, nil)
	if err := s.Run(context.Background()); err == nil {
		t.Fatalf("expected schedule parse error")
	}
}

func TestSweeperRunStops(t *testing.T) {
	s := NewSweeper(&stubPending{}, &stubScheduler{}, SweeperConfig{Schedule: "@every 1h"}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("sweeper did not stop")
	}
}
