package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/earnings-tracker/ledger-api/internal/api/metrics"
	"github.com/earnings-tracker/ledger-api/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// ErrStopped is returned by Do once the serializer has been shut down.
var ErrStopped = errors.New("write serializer stopped")

type job struct {
	ctx    context.Context
	key    string
	fn     func(ctx context.Context) error
	result chan error
}

// Serializer routes write jobs to a fixed set of workers using consistent
// hashing on the job key, so writes that share a key never run concurrently
// and execute in submission order.
//
// A job handed to a worker always gets an answer: it either runs to
// completion or, when it was still buffered at shutdown, fails with
// ErrStopped without running.
type Serializer struct {
	workers []chan job
	stopped chan struct{}
	log     zerolog.Logger

	// mu guards closed; submitters hold it shared while sending so that no
	// job can be enqueued after the workers start draining.
	mu     sync.RWMutex
	closed bool
}

// NewSerializer creates a Serializer with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewSerializer(numWorkers int, log zerolog.Logger) *Serializer {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	s := &Serializer{
		workers: make([]chan job, numWorkers),
		stopped: make(chan struct{}),
		log:     log,
	}
	for i := range s.workers {
		s.workers[i] = make(chan job, channelBuffer)
	}
	return s
}

// Start launches all worker goroutines. Once ctx is cancelled new jobs are
// refused, the job running on each worker finishes and buffered jobs are
// answered with ErrStopped.
func (s *Serializer) Start(ctx context.Context) {
	for i, ch := range s.workers {
		go s.runWorker(i, ch)
	}
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.stopped)
	}()
}

// Do runs fn on the worker responsible for key and waits for its result.
// Once the job is enqueued Do reports whatever the job returned, so a write
// that committed is never reported as failed.
func (s *Serializer) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	j := job{ctx: ctx, key: key, fn: fn, result: make(chan error, 1)}
	idx := s.shardIndex(key)

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrStopped
	}
	select {
	case s.workers[idx] <- j:
		metrics.WriteQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(s.workers[idx])))
	case <-ctx.Done():
		s.mu.RUnlock()
		return ctx.Err()
	}
	s.mu.RUnlock()

	return <-j.result
}

// shardIndex maps a key deterministically to a worker index.
func (s *Serializer) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(s.workers)))
}

func (s *Serializer) runWorker(id int, ch <-chan job) {
	depth := metrics.WriteQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-s.stopped:
			s.drain(id, ch)
			depth.Set(0)
			return
		case j := <-ch:
			depth.Set(float64(len(ch)))
			if s.isStopped() {
				j.result <- ErrStopped
				s.drain(id, ch)
				depth.Set(0)
				return
			}
			s.run(id, j)
		}
	}
}

func (s *Serializer) isStopped() bool {
	select {
	case <-s.stopped:
		return true
	default:
		return false
	}
}

func (s *Serializer) run(id int, j job) {
	// The submitter gave up before the job was picked up.
	if err := j.ctx.Err(); err != nil {
		j.result <- err
		return
	}
	err := j.fn(j.ctx)
	if err != nil {
		s.log.Debug().Err(err).
			Str("key", j.key).
			Int("worker_id", id).
			Msg("serialized write failed")
	}
	j.result <- err
}

// drain answers every job still buffered after stop without running it.
// No sends can happen any more, so an empty channel means done.
func (s *Serializer) drain(id int, ch <-chan job) {
	n := 0
	for {
		select {
		case j := <-ch:
			j.result <- ErrStopped
			n++
		default:
			if n > 0 {
				s.log.Warn().Int("worker_id", id).Int("dropped", n).Msg("pending writes refused at shutdown")
			}
			return
		}
	}
}

var _ ports.WriteSerializer = (*Serializer)(nil)
