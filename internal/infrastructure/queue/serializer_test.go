package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func startSerializer(t *testing.T, workers int) *Serializer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	s := NewSerializer(workers, zerolog.Nop())
	s.Start(ctx)
	return s
}

func TestSerializer_ReturnsJobResult(t *testing.T) {
	s := startSerializer(t, 2)
	want := errors.New("boom")

	if err := s.Do(context.Background(), "application:1", func(context.Context) error { return want }); !errors.Is(err, want) {
		t.Fatalf("expected job error, got %v", err)
	}
	if err := s.Do(context.Background(), "application:1", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestSerializer_SameKeyNeverOverlaps(t *testing.T) {
	s := startSerializer(t, 4)

	var (
		running int32
		overlap int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Do(context.Background(), "application:7", func(context.Context) error {
				if atomic.AddInt32(&running, 1) > 1 {
					atomic.StoreInt32(&overlap, 1)
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&running, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	if overlap != 0 {
		t.Fatalf("jobs sharing a key ran concurrently")
	}
}

func TestSerializer_ShardIndexIsStable(t *testing.T) {
	s := NewSerializer(8, zerolog.Nop())
	for _, key := range []string{"application:1", "application:2", "application:999"} {
		first := s.shardIndex(key)
		if first < 0 || first >= 8 {
			t.Fatalf("index out of range for %s: %d", key, first)
		}
		if again := s.shardIndex(key); again != first {
			t.Fatalf("unstable index for %s: %d then %d", key, first, again)
		}
	}
}

func TestSerializer_DefaultWorkers(t *testing.T) {
	if got := len(NewSerializer(0, zerolog.Nop()).workers); got != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, got)
	}
}

func TestSerializer_StoppedRejectsWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewSerializer(1, zerolog.Nop())
	s.Start(ctx)
	cancel()
	<-s.stopped

	err := s.Do(context.Background(), "application:1", func(context.Context) error { return nil })
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestSerializer_StopWhileRunningReportsCommit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewSerializer(1, zerolog.Nop())
	s.Start(ctx)

	started := make(chan struct{})
	var committed int32
	done := make(chan error, 1)
	go func() {
		done <- s.Do(context.Background(), "application:1", func(context.Context) error {
			close(started)
			time.Sleep(50 * time.Millisecond)
			atomic.StoreInt32(&committed, 1)
			return nil
		})
	}()

	<-started
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("committed write reported as %v", err)
	}
	if atomic.LoadInt32(&committed) != 1 {
		t.Fatalf("running job did not complete")
	}
}

func TestSerializer_StopRefusesBufferedJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewSerializer(1, zerolog.Nop())
	s.Start(ctx)

	started := make(chan struct{})
	release := make(chan struct{})
	first := make(chan error, 1)
	go func() {
		first <- s.Do(context.Background(), "application:1", func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	var ranSecond int32
	second := make(chan error, 1)
	go func() {
		second <- s.Do(context.Background(), "application:1", func(context.Context) error {
			atomic.StoreInt32(&ranSecond, 1)
			return nil
		})
	}()
	deadline := time.Now().Add(time.Second)
	for len(s.workers[0]) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("second job never queued")
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	<-s.stopped
	close(release)

	if err := <-first; err != nil {
		t.Fatalf("running job: expected nil, got %v", err)
	}
	if err := <-second; !errors.Is(err, ErrStopped) {
		t.Fatalf("buffered job: expected ErrStopped, got %v", err)
	}
	if atomic.LoadInt32(&ranSecond) != 0 {
		t.Fatalf("buffered job must not run after stop")
	}
}

func TestSerializer_CancelledCallerDoesNotRun(t *testing.T) {
	s := startSerializer(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran int32
	err := s.Do(ctx, "application:1", func(context.Context) error {
		atomic.StoreInt32(&ran, 1)
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if atomic.LoadInt32(&ran) != 0 {
		t.Fatalf("job of a cancelled caller must not run")
	}
}
