package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"photo-catalog/internal/asset"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/metrics"
)

var log = logging.Component("scheduler")

// Job produces the encoded bytes for one request. It runs on a worker and
// must not touch catalog or cache state.
type Job func(ctx context.Context) ([]byte, error)

// Result is a completion accepted by the generation check.
type Result struct {
	Key        asset.Key
	Generation asset.Generation
	Data       []byte
	Err        error
}

// GenerationSource reports the current folder-session generation.
type GenerationSource interface {
	Current() asset.Generation
}

// Sink applies accepted results. Deliver is called with the coordinating lock held.
type Sink interface {
	Deliver(Result)
}

// Gate holds workers back before a job starts, e.g. under memory pressure.
// WaitIfPaused must return once ctx is done.
type Gate interface {
	WaitIfPaused(ctx context.Context) bool
}

// Config configures a Scheduler.
type Config struct {
	// Workers is the number of concurrent jobs.
	Workers int
	// Timeout is the soft limit for a running job; zero disables it.
	Timeout time.Duration
	// Lock is the coordinating lock that guards catalog and cache state.
	// Submit, CancelAll and Forget must be called with it held.
	Lock sync.Locker
	// Generations supplies the generation captured at submit and compared at completion.
	Generations GenerationSource
	// Sink receives results that pass the generation check.
	Sink Sink
	// Gate is optional.
	Gate Gate
}

type requestState int

const (
	statePending requestState = iota
	stateRunning
	stateDone
)

type request struct {
	key      asset.Key
	gen      asset.Generation
	priority asset.Priority
	seq      uint64
	job      Job
	handle   *Handle

	index   int
	state   requestState
	revoked bool
	expired bool
	started time.Time
	timer   *time.Timer
}

type completion struct {
	req  *request
	data []byte
	err  error
}

// Scheduler coalesces, prioritizes and dispatches derived-image work.
//
// Lock order is the coordinating lock first, then mu. Workers only ever take mu.
type Scheduler struct {
	cfg Config

	mu      sync.Mutex
	cond    *sync.Cond
	queue   requestQueue
	active  map[asset.Key]*request
	running int
	seq     uint64
	closed  bool

	results chan completion
	ctx     context.Context
	cancel  context.CancelFunc
	workers sync.WaitGroup
	done    chan struct{}
}

// New creates a scheduler and starts its workers and collector.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Lock == nil || cfg.Generations == nil || cfg.Sink == nil {
		return nil, fmt.Errorf("scheduler: lock, generation source and sink are required")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cfg:     cfg,
		active:  make(map[asset.Key]*request),
		results: make(chan completion, cfg.Workers),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)

	for i := 0; i < cfg.Workers; i++ {
		s.workers.Add(1)
		go s.worker(i)
	}
	go s.collect()

	log.Debug("started %d workers (timeout %s)", cfg.Workers, cfg.Timeout)
	return s, nil
}

// Submit returns the handle for key, coalescing with any pending or running
// request for the same key. A pending background request submitted again as
// foreground is promoted. The generation is captured now, not at completion.
func (s *Scheduler) Submit(key asset.Key, priority asset.Priority, job Job) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	variant := string(key.Variant)

	if r, ok := s.active[key]; ok {
		if r.state == statePending && priority > r.priority {
			r.priority = priority
			heap.Fix(&s.queue, r.index)
			metrics.SchedulerSubmitted.WithLabelValues(variant, "promoted").Inc()
		} else {
			metrics.SchedulerSubmitted.WithLabelValues(variant, "coalesced").Inc()
		}
		return r.handle
	}

	gen := s.cfg.Generations.Current()
	if s.closed {
		return Resolved(key, gen, nil, asset.ErrCanceled)
	}

	s.seq++
	r := &request{
		key:      key,
		gen:      gen,
		priority: priority,
		seq:      s.seq,
		job:      job,
		handle:   newHandle(key, gen),
		index:    -1,
	}
	heap.Push(&s.queue, r)
	s.active[key] = r
	s.updateGauges()
	metrics.SchedulerSubmitted.WithLabelValues(variant, "queued").Inc()

	s.cond.Signal()
	return r.handle
}

// CancelAll drops every pending request and marks every running request as
// superseded so its result is discarded on completion.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	var canceled []*request
	for s.queue.Len() > 0 {
		r := heap.Pop(&s.queue).(*request)
		r.state = stateDone
		canceled = append(canceled, r)
	}
	for key, r := range s.active {
		r.revoked = true
		delete(s.active, key)
	}
	s.updateGauges()
	s.mu.Unlock()

	s.resolveCanceled(canceled)
	if len(canceled) > 0 {
		log.Debug("canceled %d pending requests", len(canceled))
	}
}

// Forget drops pending work for id and revokes any running request for it.
func (s *Scheduler) Forget(id asset.ID) {
	s.mu.Lock()
	var canceled []*request
	for _, v := range asset.Variants {
		key := asset.Key{ID: id, Variant: v}
		r, ok := s.active[key]
		if !ok {
			continue
		}
		delete(s.active, key)
		if r.state == statePending {
			heap.Remove(&s.queue, r.index)
			r.state = stateDone
			canceled = append(canceled, r)
		} else {
			r.revoked = true
		}
	}
	s.updateGauges()
	s.mu.Unlock()

	s.resolveCanceled(canceled)
}

func (s *Scheduler) resolveCanceled(reqs []*request) {
	for _, r := range reqs {
		metrics.SchedulerCompleted.WithLabelValues(string(r.key.Variant), "canceled").Inc()
		r.handle.resolve(nil, asset.ErrCanceled)
	}
}

// Pending returns the number of queued requests.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// InFlight returns the number of running jobs, including revoked ones.
func (s *Scheduler) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Close stops the workers. Pending requests resolve with ErrCanceled and
// running jobs see a canceled context. Close must not be called with the
// coordinating lock held.
func (s *Scheduler) Close() {
	s.cfg.Lock.Lock()
	s.CancelAll()
	s.cfg.Lock.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()

	s.cancel()
	s.workers.Wait()
	close(s.results)
	<-s.done
}

func (s *Scheduler) updateGauges() {
	metrics.SchedulerPending.Set(float64(s.queue.Len()))
	metrics.SchedulerInFlight.Set(float64(s.running))
}

func (s *Scheduler) worker(n int) {
	defer s.workers.Done()

	for {
		if s.cfg.Gate != nil && !s.cfg.Gate.WaitIfPaused(s.ctx) && s.ctx.Err() != nil {
			return
		}

		r := s.next()
		if r == nil {
			return
		}

		data, err := r.job(s.ctx)
		metrics.SchedulerJobDuration.WithLabelValues(string(r.key.Variant)).Observe(time.Since(r.started).Seconds())
		if err != nil {
			log.Debug("worker %d: %s %s failed: %v", n, r.key.Variant, r.key.ID, err)
		}
		s.results <- completion{req: r, data: data, err: err}
	}
}

// next blocks until a request is available and marks it running.
// It returns nil once the scheduler is closed.
func (s *Scheduler) next() *request {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.queue.Len() == 0 && !s.closed {
		s.cond.Wait()
	}
	if s.closed {
		return nil
	}

	r := heap.Pop(&s.queue).(*request)
	r.state = stateRunning
	r.started = time.Now()
	s.running++
	if s.cfg.Timeout > 0 {
		r.timer = time.AfterFunc(s.cfg.Timeout, func() { s.expire(r) })
	}
	s.updateGauges()
	return r
}

func (s *Scheduler) collect() {
	defer close(s.done)
	for c := range s.results {
		s.complete(c)
	}
}

// complete applies a finished job. Results from a superseded generation or a
// revoked request are discarded without touching the sink.
func (s *Scheduler) complete(c completion) {
	s.cfg.Lock.Lock()
	defer s.cfg.Lock.Unlock()

	r := c.req
	variant := string(r.key.Variant)

	s.mu.Lock()
	if r.timer != nil {
		r.timer.Stop()
	}
	s.running--
	expired := r.expired
	revoked := r.revoked
	r.state = stateDone
	if s.active[r.key] == r {
		delete(s.active, r.key)
	}
	s.updateGauges()
	s.mu.Unlock()

	if expired {
		log.Debug("late result for %s %s dropped after timeout", r.key.Variant, r.key.ID)
		return
	}

	if revoked || r.gen != s.cfg.Generations.Current() {
		metrics.SchedulerCompleted.WithLabelValues(variant, "stale").Inc()
		r.handle.resolve(nil, asset.ErrStaleResult)
		return
	}

	status := "success"
	if c.err != nil {
		status = "failure"
	}
	metrics.SchedulerCompleted.WithLabelValues(variant, status).Inc()

	s.cfg.Sink.Deliver(Result{Key: r.key, Generation: r.gen, Data: c.data, Err: c.err})
	r.handle.resolve(c.data, c.err)
}

// expire frees the key of a job that exceeded the soft timeout. The job keeps
// running; its eventual result is dropped.
func (s *Scheduler) expire(r *request) {
	s.cfg.Lock.Lock()
	defer s.cfg.Lock.Unlock()

	s.mu.Lock()
	if r.state != stateRunning || r.expired {
		s.mu.Unlock()
		return
	}
	r.expired = true
	revoked := r.revoked
	if s.active[r.key] == r {
		delete(s.active, r.key)
	}
	s.mu.Unlock()

	variant := string(r.key.Variant)
	if revoked || r.gen != s.cfg.Generations.Current() {
		metrics.SchedulerCompleted.WithLabelValues(variant, "stale").Inc()
		r.handle.resolve(nil, asset.ErrStaleResult)
		return
	}

	err := fmt.Errorf("%s %s after %s: %w", r.key.Variant, r.key.ID, s.cfg.Timeout, asset.ErrTimeout)
	log.Warn("%v", err)
	metrics.SchedulerCompleted.WithLabelValues(variant, "timeout").Inc()

	s.cfg.Sink.Deliver(Result{Key: r.key, Generation: r.gen, Err: err})
	r.handle.resolve(nil, err)
}
