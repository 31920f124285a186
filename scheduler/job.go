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

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// State is a Job's position in the Pending -> Active -> Closed
// lifecycle.
type State int32

const (
	StatePending State = iota
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Job is a single admitted unit of work. It is created by Spawn and
// moves through Pending (waiting for a worker slot), Active (its Func
// is running) and Closed (it has a result, an error, or was canceled).
type Job struct {
	fn   Func
	name string

	mu       sync.Mutex
	sched    *Scheduler
	state    State
	explicit bool
	cancel   context.CancelFunc
	result   any
	err      error

	done chan struct{}
}

func newJob(s *Scheduler, fn Func, name string) *Job {
	return &Job{
		fn:    fn,
		name:  name,
		sched: s,
		state: StatePending,
		done:  make(chan struct{}),
	}
}

// start transitions the job from Pending to Active and launches its
// Func in a new goroutine, deriving its context from the scheduler's
// root context so scheduler shutdown cancels it. Safe to call at most
// once; later calls are no-ops.
func (j *Job) start() {
	j.mu.Lock()
	if j.state != StatePending {
		j.mu.Unlock()
		return
	}
	sched := j.sched
	j.mu.Unlock()

	parent := context.Background()
	if sched != nil {
		parent = sched.rootCtx
	}
	ctx, cancel := context.WithCancel(parent)

	j.mu.Lock()
	if j.state != StatePending {
		// lost a race with Close(); undo and bail.
		j.mu.Unlock()
		cancel()
		return
	}
	j.state = StateActive
	j.cancel = cancel
	fn := j.fn
	j.mu.Unlock()

	go j.run(ctx, fn)
}

func (j *Job) run(ctx context.Context, fn Func) {
	result, err := runRecovered(fn, ctx)
	j.finish(result, err)
}

// runRecovered executes fn, converting a panic into an error the same
// way a crashed goroutine would otherwise take the process down.
func runRecovered(fn func(ctx context.Context) (any, error), ctx context.Context) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scheduler: job panicked: %v", r)
		}
	}()
	return fn(ctx)
}

// finish is the completion hook run by the job's own goroutine once fn
// returns. Order matters: notify the scheduler so its queues can
// advance, then classify and route the outcome, then publish the
// result and close done.
func (j *Job) finish(result any, err error) {
	j.mu.Lock()
	sched := j.sched
	j.mu.Unlock()

	if sched != nil {
		sched.onJobDone(j)
	}

	j.mu.Lock()
	explicit := j.explicit
	j.mu.Unlock()

	canceled := errors.Is(err, context.Canceled)
	if err != nil && !canceled && !explicit && sched != nil {
		sched.CallExceptionHandler(ExceptionContext{
			Message:   "Job processing failed",
			Job:       j,
			Exception: err,
		})
		sched.failedQueue.push(j)
	}

	j.mu.Lock()
	j.result = result
	j.err = err
	j.sched = nil
	j.state = StateClosed
	done := j.done
	j.mu.Unlock()

	close(done)
}

// abandonUnstarted closes a job that was parked waiting for admission
// but whose spawner was canceled before a slot ever opened. No
// goroutine was ever started.
func (j *Job) abandonUnstarted(cause error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == StateClosed {
		return
	}
	j.state = StateClosed
	j.err = cause
	j.sched = nil
	close(j.done)
}

func (j *Job) isClosed() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state == StateClosed
}

// Wait blocks until the job finishes, times out, or ctx is canceled.
// timeout <= 0 means no timeout. Calling Wait marks the job explicit:
// any failure becomes Wait's return value instead of being routed to
// the scheduler's exception handler.
func (j *Job) Wait(ctx context.Context, timeout time.Duration) (any, error) {
	j.mu.Lock()
	j.explicit = true
	if j.state == StateClosed {
		result, err := j.result, j.err
		j.mu.Unlock()
		return result, err
	}
	done := j.done
	sched := j.sched
	j.mu.Unlock()

	clk := schedulerClock(sched)
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timeoutCh = clk.After(timeout)
	}

	select {
	case <-done:
		j.mu.Lock()
		result, err := j.result, j.err
		j.mu.Unlock()
		if err != nil && !errors.Is(err, context.Canceled) {
			_ = j.Close(0)
		}
		return result, err
	case <-timeoutCh:
		_ = j.Close(UseSchedulerDefault)
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close requests cancellation of the job and waits for it to settle.
// timeout == UseSchedulerDefault uses the owning scheduler's
// CloseTimeout; 0 means no bound. Idempotent: closing an already
// closed job is a no-op. A timeout elapsing here is surfaced to the
// caller as ErrTimeout.
func (j *Job) Close(timeout time.Duration) error {
	return j.close(timeout, false)
}

// closeForShutdown is the variant the scheduler uses when forcing
// every live job closed. A timeout here is routed to the exception
// handler instead of being returned, since there is no direct caller
// to surface it to.
func (j *Job) closeForShutdown(timeout time.Duration) error {
	return j.close(timeout, true)
}

func (j *Job) close(timeout time.Duration, fromScheduler bool) error {
	j.mu.Lock()
	if j.state == StateClosed {
		j.mu.Unlock()
		return nil
	}
	j.explicit = true
	wasPending := j.state == StatePending
	j.mu.Unlock()

	if wasPending {
		// Start-then-cancel: a job that never ran still goes through
		// the same completion path as one that did.
		j.start()
	}

	j.mu.Lock()
	cancel := j.cancel
	done := j.done
	sched := j.sched
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	effective := timeout
	if effective == UseSchedulerDefault {
		if sched != nil {
			effective = sched.closeTimeout
		} else {
			effective = 0
		}
	}

	clk := schedulerClock(sched)
	var timeoutCh <-chan time.Time
	if effective > 0 {
		timeoutCh = clk.After(effective)
	}

	select {
	case <-done:
		return nil
	case <-timeoutCh:
		if !fromScheduler {
			return ErrTimeout
		}
		if sched != nil {
			sched.CallExceptionHandler(ExceptionContext{
				Message: "Job closing timed out",
				Job:     j,
			})
		}
		// fn is still running past its close timeout, in a goroutine
		// this call no longer waits for. The scheduler is forgetting
		// this job regardless, so reflect that in its own state now
		// rather than leaving it Active until the orphaned goroutine
		// eventually calls finish() on its own.
		j.mu.Lock()
		if j.state != StateClosed {
			j.state = StateClosed
			j.err = ErrTimeout
			j.sched = nil
		}
		j.mu.Unlock()
		return nil
	}
}

func (j *Job) Name() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.name
}

func (j *Job) SetName(name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.name = name
}

func (j *Job) Active() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state == StateActive
}

func (j *Job) Pending() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state == StatePending
}

func (j *Job) Closed() bool {
	return j.isClosed()
}

func (j *Job) String() string {
	j.mu.Lock()
	state := j.state
	name := j.name
	j.mu.Unlock()
	if name == "" {
		name = fmt.Sprintf("%p", j.fn)
	}
	switch state {
	case StateClosed:
		return fmt.Sprintf("<Job closed coro=<%s>>", name)
	case StatePending:
		return fmt.Sprintf("<Job pending coro=<%s>>", name)
	default:
		return fmt.Sprintf("<Job coro=<%s>>", name)
	}
}

// GoString matches String; Job has no separate debug representation.
func (j *Job) GoString() string {
	return j.String()
}
