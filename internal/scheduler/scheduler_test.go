package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type fakeDispatcher struct {
	calls atomic.Int64
	err   error
}

func (f *fakeDispatcher) DispatchDue(ctx context.Context) (int, error) {
	f.calls.Add(1)
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

func TestScheduler_Start(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dispatcher := &fakeDispatcher{}
	s := New(dispatcher, 5*time.Millisecond, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	deadline := time.After(time.Second)
	for dispatcher.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 dispatch runs, got %d", dispatcher.calls.Load())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
}

func TestScheduler_KeepsRunningAfterErrors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dispatcher := &fakeDispatcher{err: errors.New("db down")}
	s := New(dispatcher, 5*time.Millisecond, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)

	deadline := time.After(time.Second)
	for dispatcher.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected the loop to survive errors, got %d runs", dispatcher.calls.Load())
		case <-time.After(time.Millisecond):
		}
	}
}
