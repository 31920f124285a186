// Copyright 2026 Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"). You may not
// use this file except in compliance with the License. A copy of the
// License is located at
//
// http://aws.amazon.com/apache2.0/
//
// or in the "license" file accompanying this file. This file is distributed
// on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND,
// either express or implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package scheduler bounds how many deferred computations ("jobs") run
// concurrently in a single process, queues the rest, and guarantees
// orderly shutdown of everything it started: a fixed-size worker
// budget, a bounded backlog, and cooperative cancellation through
// context.Context.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/awslabs/taskscheduler/clock"
	"github.com/awslabs/taskscheduler/log"
)

// Unbounded disables the corresponding admission limit.
const Unbounded = -1

// UseSchedulerDefault, passed as a timeout to Job.Close, requests the
// owning Scheduler's configured CloseTimeout.
const UseSchedulerDefault time.Duration = -1

var (
	// ErrClosed is returned by Spawn and Shield once the scheduler has
	// been closed.
	ErrClosed = errors.New("scheduler: scheduler is closed")

	// ErrTimeout is returned by Job.Wait, Job.Close and
	// Scheduler.WaitAndClose when their bound elapses.
	ErrTimeout = errors.New("scheduler: timed out")
)

// Func is a deferred computation submitted to Spawn. ctx is canceled
// when the owning Job is closed or the scheduler shuts down.
type Func func(ctx context.Context) (any, error)

// Config holds the admission-control and shutdown knobs for a
// Scheduler. The zero value is not usable directly; start from
// DefaultConfig.
type Config struct {
	// Limit bounds the number of simultaneously Active jobs. Unbounded
	// disables the bound.
	Limit int

	// PendingLimit bounds the size of the pending backlog. 0 means the
	// backlog does not exist at all — spawners block until a worker
	// slot frees. Unbounded means no bound.
	PendingLimit int

	// CloseTimeout bounds how long Close waits for each job to react
	// to cancellation before reporting it as timed out. 0 means no
	// bound.
	CloseTimeout time.Duration

	// WaitTimeout bounds WaitAndClose when called with UseSchedulerDefault.
	// 0 means no bound.
	WaitTimeout time.Duration

	// ExceptionHandler, if non-nil, receives every routed failure
	// instead of the scheduler's built-in default (log at error level).
	ExceptionHandler ExceptionHandler
}

// DefaultConfig mirrors the defaults a host application gets when it
// does not override anything.
func DefaultConfig() Config {
	return Config{
		Limit:        100,
		PendingLimit: 10000,
		CloseTimeout: 100 * time.Millisecond,
		WaitTimeout:  60 * time.Second,
	}
}

// waiter is a Spawn call parked because both the active budget and the
// pending backlog are full.
type waiter struct {
	job      *Job
	wake     chan struct{}
	err      error
	startNow bool
}

// Scheduler admits, queues and supervises Jobs.
type Scheduler struct {
	mu           sync.Mutex
	jobs         map[*Job]struct{}
	pendingQueue []*Job
	waiters      []*waiter
	shields      map[*shieldHandle]struct{}
	closed       bool

	limit            int
	pendingLimit     int
	closeTimeout     time.Duration
	waitTimeout      time.Duration
	exceptionHandler ExceptionHandler

	log   log.T
	clock clock.Clock

	failedQueue    *unboundedJobQueue
	failedSinkDone chan struct{}

	rootCtx    context.Context
	rootCancel context.CancelFunc
}

// New builds a Scheduler. A nil logger defaults to log.Default(); a nil
// clock defaults to clock.Default.
func New(logger log.T, clk clock.Clock, cfg Config) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	if clk == nil {
		clk = clock.Default
	}
	rootCtx, rootCancel := context.WithCancel(context.Background())
	s := &Scheduler{
		jobs:             make(map[*Job]struct{}),
		shields:          make(map[*shieldHandle]struct{}),
		limit:            cfg.Limit,
		pendingLimit:     cfg.PendingLimit,
		closeTimeout:     cfg.CloseTimeout,
		waitTimeout:      cfg.WaitTimeout,
		exceptionHandler: cfg.ExceptionHandler,
		log:              logger,
		clock:            clk,
		failedQueue:      newUnboundedJobQueue(),
		failedSinkDone:   make(chan struct{}),
		rootCtx:          rootCtx,
		rootCancel:       rootCancel,
	}
	go s.runFailureSink()
	return s
}

// Spawn admits fn for execution. It starts immediately if there is
// spare active capacity, is parked in the pending backlog if that has
// room, or blocks the caller until either happens. Canceling ctx while
// blocked closes the not-yet-started Job and returns ctx.Err().
func Spawn(ctx context.Context, s *Scheduler, fn Func, name string) (*Job, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}

	job := newJob(s, fn, name)
	s.jobs[job] = struct{}{}
	admitted, startNow := s.tryAdmitLocked(job)
	if admitted {
		s.mu.Unlock()
		if startNow {
			job.start()
		}
		return job, nil
	}

	w := &waiter{job: job, wake: make(chan struct{})}
	s.waiters = append(s.waiters, w)
	s.mu.Unlock()

	select {
	case <-w.wake:
		return finishSpawn(job, w)
	case <-ctx.Done():
		s.mu.Lock()
		if idx := indexOfWaiter(s.waiters, w); idx >= 0 {
			s.waiters = append(s.waiters[:idx], s.waiters[idx+1:]...)
			delete(s.jobs, job)
			s.mu.Unlock()
			job.abandonUnstarted(ctx.Err())
			return nil, ctx.Err()
		}
		s.mu.Unlock()
		// The scheduler admitted us in the same instant the caller's
		// context fired; honor the admission rather than the cancel.
		<-w.wake
		return finishSpawn(job, w)
	}
}

// Spawn is a convenience method equivalent to calling the package-level
// Spawn(ctx, s, fn, name); it exists so *Scheduler satisfies callers
// that expect a Spawn method, such as periodic.Spawner.
func (s *Scheduler) Spawn(ctx context.Context, fn Func, name string) (*Job, error) {
	return Spawn(ctx, s, fn, name)
}

func finishSpawn(job *Job, w *waiter) (*Job, error) {
	if w.err != nil {
		return nil, w.err
	}
	if w.startNow {
		job.start()
	}
	return job, nil
}

func indexOfWaiter(waiters []*waiter, target *waiter) int {
	for i, w := range waiters {
		if w == target {
			return i
		}
	}
	return -1
}

// tryAdmitLocked decides whether job can be admitted right now, and if
// so, whether it should start immediately or be parked pending. Caller
// must hold s.mu.
func (s *Scheduler) tryAdmitLocked(job *Job) (admitted, startNow bool) {
	if s.limit == Unbounded || s.activeCountLocked() < s.limit {
		return true, true
	}
	if s.pendingLimit == Unbounded || len(s.pendingQueue) < s.pendingLimit {
		s.pendingQueue = append(s.pendingQueue, job)
		return true, false
	}
	return false, false
}

func (s *Scheduler) activeCountLocked() int {
	return len(s.jobs) - len(s.pendingQueue)
}

// onJobDone is the completion hook a Job calls on itself once its task
// settles. It removes the job from bookkeeping and promotes whatever
// pending jobs and waiters now fit.
func (s *Scheduler) onJobDone(j *Job) {
	s.mu.Lock()
	delete(s.jobs, j)
	s.admitFromQueueLocked()
	s.mu.Unlock()
}

func (s *Scheduler) admitFromQueueLocked() {
	for (s.limit == Unbounded || s.activeCountLocked() < s.limit) && len(s.pendingQueue) > 0 {
		next := s.pendingQueue[0]
		s.pendingQueue = s.pendingQueue[1:]
		if next.isClosed() {
			// Closed while parked; drop it, it counts against neither
			// active nor pending.
			continue
		}
		next.start()
	}

	for len(s.waiters) > 0 {
		w := s.waiters[0]
		admitted, startNow := s.tryAdmitLocked(w.job)
		if !admitted {
			break
		}
		s.waiters = s.waiters[1:]
		w.startNow = startNow
		close(w.wake)
	}
}

// Close immediately cancels every remaining job and shield, waiting up
// to CloseTimeout for each to settle, then tears down the failure sink.
// It is idempotent.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.rootCancel()

	jobs := make([]*Job, 0, len(s.jobs))
	for j := range s.jobs {
		jobs = append(jobs, j)
	}
	s.pendingQueue = nil

	shields := make([]*shieldHandle, 0, len(s.shields))
	for h := range s.shields {
		shields = append(shields, h)
	}

	waiters := s.waiters
	s.waiters = nil
	s.mu.Unlock()

	for _, w := range waiters {
		w.err = ErrClosed
		close(w.wake)
	}

	var wg sync.WaitGroup
	wg.Add(len(jobs) + len(shields))
	for _, j := range jobs {
		go func(j *Job) {
			defer wg.Done()
			j.closeForShutdown(s.closeTimeout)
		}(j)
	}
	for _, h := range shields {
		go func(h *shieldHandle) {
			defer wg.Done()
			s.waitShieldForShutdown(h, s.closeTimeout)
		}(h)
	}
	wg.Wait()

	// Some jobs/shields above may have ignored cancellation past their
	// close timeout and are still running in an orphaned goroutine.
	// Forget them unconditionally rather than waiting indefinitely:
	// once Close returns, jobs and shields are empty regardless.
	s.mu.Lock()
	s.jobs = make(map[*Job]struct{})
	s.shields = make(map[*shieldHandle]struct{})
	s.mu.Unlock()

	s.failedQueue.push(nil)
	<-s.failedSinkDone
}

// WaitAndClose waits for every live job and shield to finish on its
// own, then closes the scheduler. If timeout elapses first it falls
// through to Close, which forces cancellation. timeout ==
// UseSchedulerDefault uses the configured WaitTimeout; 0 means no
// bound.
func (s *Scheduler) WaitAndClose(timeout time.Duration) error {
	if timeout == UseSchedulerDefault {
		timeout = s.waitTimeout
	}

	var deadline <-chan time.Time
	if timeout > 0 {
		deadline = s.clock.After(timeout)
	}

	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil
		}
		if len(s.jobs) == 0 && len(s.shields) == 0 {
			s.mu.Unlock()
			break
		}
		doneChs := make([]<-chan struct{}, 0, len(s.jobs)+len(s.shields))
		for j := range s.jobs {
			doneChs = append(doneChs, j.done)
		}
		for h := range s.shields {
			doneChs = append(doneChs, h.done)
		}
		s.mu.Unlock()

		select {
		case <-anyDone(doneChs):
			continue
		case <-deadline:
			s.Close()
			return ErrTimeout
		}
	}

	s.Close()
	return nil
}

// CallExceptionHandler routes a failure context to the configured
// ExceptionHandler, or logs it at error level if none is configured.
func (s *Scheduler) CallExceptionHandler(ctx ExceptionContext) {
	s.mu.Lock()
	handler := s.exceptionHandler
	s.mu.Unlock()

	if handler != nil {
		handler(s, ctx)
		return
	}
	if ctx.Exception != nil {
		s.log.Errorf("%s: job=%v exception=%v", ctx.Message, ctx.Job, ctx.Exception)
	} else {
		s.log.Errorf("%s: job=%v", ctx.Message, ctx.Job)
	}
}

// ExceptionHandler accessor, limit, etc. — introspection surface.

func (s *Scheduler) ExceptionHandler() ExceptionHandler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exceptionHandler
}

func (s *Scheduler) Limit() int {
	return s.limit
}

func (s *Scheduler) PendingLimit() int {
	return s.pendingLimit
}

func (s *Scheduler) CloseTimeout() time.Duration {
	return s.closeTimeout
}

func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeCountLocked()
}

func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pendingQueue)
}

func (s *Scheduler) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Len returns the number of live jobs (pending + active).
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Contains reports whether job is still tracked by this scheduler.
func (s *Scheduler) Contains(job *Job) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[job]
	return ok
}

// Jobs returns a snapshot of the live jobs.
func (s *Scheduler) Jobs() []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Job, 0, len(s.jobs))
	for j := range s.jobs {
		out = append(out, j)
	}
	return out
}

func (s *Scheduler) String() string {
	s.mu.Lock()
	closed := s.closed
	n := len(s.jobs)
	s.mu.Unlock()
	if closed {
		return fmt.Sprintf("<Scheduler closed jobs=%d>", n)
	}
	return fmt.Sprintf("<Scheduler jobs=%d>", n)
}

// GoString matches String; Scheduler has no separate debug representation.
func (s *Scheduler) GoString() string {
	return s.String()
}

// anyDone fans multiple done channels into one that fires when any of
// them fires (or immediately, if chs is empty).
func anyDone(chs []<-chan struct{}) <-chan struct{} {
	out := make(chan struct{})
	if len(chs) == 0 {
		close(out)
		return out
	}
	var once sync.Once
	for _, ch := range chs {
		go func(c <-chan struct{}) {
			<-c
			once.Do(func() { close(out) })
		}(ch)
	}
	return out
}
