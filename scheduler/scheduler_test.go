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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/awslabs/taskscheduler/clock"
	"github.com/awslabs/taskscheduler/log"
)

func newTestScheduler(cfg Config) *Scheduler {
	return New(log.NewMock(), clock.Default, cfg)
}

// S1: spawning a function and waiting on it returns its result.
func TestSpawnWaitReturnsResult(t *testing.T) {
	s := newTestScheduler(DefaultConfig())
	defer s.Close()

	job, err := Spawn(context.Background(), s, func(ctx context.Context) (any, error) {
		return 1, nil
	}, "s1")
	assert.NoError(t, err)

	result, err := job.Wait(context.Background(), 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, result)
	assert.True(t, job.Closed())
}

// Jobs beyond Limit are parked pending, not started, until capacity
// frees.
func TestAdmissionParksBeyondLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limit = 1
	cfg.PendingLimit = 10
	s := newTestScheduler(cfg)
	defer s.Close()

	release := make(chan struct{})
	first, err := Spawn(context.Background(), s, func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	}, "first")
	assert.NoError(t, err)

	second, err := Spawn(context.Background(), s, func(ctx context.Context) (any, error) {
		return "second", nil
	}, "second")
	assert.NoError(t, err)

	assert.True(t, first.Active())
	assert.True(t, second.Pending())
	assert.Equal(t, 1, s.ActiveCount())
	assert.Equal(t, 1, s.PendingCount())

	close(release)
	_, err = first.Wait(context.Background(), 2*time.Second)
	assert.NoError(t, err)

	result, err := second.Wait(context.Background(), 2*time.Second)
	assert.NoError(t, err)
	assert.Equal(t, "second", result)
}

// A Spawn call that must wait (both active and pending are full) is
// abandoned cleanly if its context is canceled before capacity frees.
func TestSpawnWaitingIsCanceledByContext(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limit = 1
	cfg.PendingLimit = 0
	s := newTestScheduler(cfg)
	defer s.Close()

	release := make(chan struct{})
	_, err := Spawn(context.Background(), s, func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	}, "holder")
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	spawnErr := make(chan error, 1)
	go func() {
		_, err := Spawn(ctx, s, func(ctx context.Context) (any, error) {
			return nil, nil
		}, "waiter")
		spawnErr <- err
	}()

	// Give the waiter time to actually park before canceling it.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-spawnErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("canceled spawn never returned")
	}

	close(release)
}

// Spawning after Close is rejected.
func TestSpawnAfterCloseIsRejected(t *testing.T) {
	s := newTestScheduler(DefaultConfig())
	s.Close()

	_, err := Spawn(context.Background(), s, func(ctx context.Context) (any, error) {
		return nil, nil
	}, "late")
	assert.ErrorIs(t, err, ErrClosed)
}

// Close cancels every live job and reports jobs that miss the close
// timeout to the exception handler instead of hanging forever.
func TestCloseForcesCancellationAndTimesOutSlowJobs(t *testing.T) {
	var handled []ExceptionContext
	var mu sync.Mutex

	cfg := DefaultConfig()
	cfg.CloseTimeout = 20 * time.Millisecond
	cfg.ExceptionHandler = func(s *Scheduler, ctx ExceptionContext) {
		mu.Lock()
		handled = append(handled, ctx)
		mu.Unlock()
	}
	s := newTestScheduler(cfg)

	started := make(chan struct{})
	job, err := Spawn(context.Background(), s, func(ctx context.Context) (any, error) {
		close(started)
		<-ctx.Done()
		time.Sleep(200 * time.Millisecond) // ignores cancellation for a while
		return nil, ctx.Err()
	}, "stubborn")
	assert.NoError(t, err)
	<-started

	s.Close()

	assert.True(t, job.Closed())
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, handled, 1)
	assert.Equal(t, "Job closing timed out", handled[0].Message)
}

// A Func that returns a non-cancellation error without an explicit
// waiter is routed to the exception handler and does not propagate
// anywhere else.
func TestUnhandledFailureRoutesToExceptionHandler(t *testing.T) {
	handled := make(chan ExceptionContext, 1)
	cfg := DefaultConfig()
	cfg.ExceptionHandler = func(s *Scheduler, ctx ExceptionContext) {
		handled <- ctx
	}
	s := newTestScheduler(cfg)
	defer s.Close()

	boom := errors.New("boom")
	_, err := Spawn(context.Background(), s, func(ctx context.Context) (any, error) {
		return nil, boom
	}, "failer")
	assert.NoError(t, err)

	select {
	case ctx := <-handled:
		assert.Equal(t, "Job processing failed", ctx.Message)
		assert.ErrorIs(t, ctx.Exception, boom)
	case <-time.After(2 * time.Second):
		t.Fatal("exception handler was never invoked")
	}
}

// Waiting explicitly on a job that fails returns the error to the
// waiter instead of routing it to the exception handler.
func TestExplicitWaitSuppressesExceptionHandler(t *testing.T) {
	handlerCalled := false
	cfg := DefaultConfig()
	cfg.ExceptionHandler = func(s *Scheduler, ctx ExceptionContext) {
		handlerCalled = true
	}
	s := newTestScheduler(cfg)
	defer s.Close()

	boom := errors.New("boom")
	job, err := Spawn(context.Background(), s, func(ctx context.Context) (any, error) {
		return nil, boom
	}, "failer")
	assert.NoError(t, err)

	_, err = job.Wait(context.Background(), 2*time.Second)
	assert.ErrorIs(t, err, boom)
	assert.False(t, handlerCalled)
}

// Shield keeps the inner function running to completion even after
// the caller's context is canceled.
func TestShieldSurvivesCallerCancellation(t *testing.T) {
	s := newTestScheduler(DefaultConfig())
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	innerDone := make(chan struct{})

	go func() {
		_, err := s.Shield(ctx, func(ctx context.Context) (any, error) {
			time.Sleep(50 * time.Millisecond)
			close(innerDone)
			return "survived", nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-innerDone:
	case <-time.After(2 * time.Second):
		t.Fatal("shielded function was canceled along with its caller")
	}
}

// WaitAndClose returns once every job finishes on its own.
func TestWaitAndCloseWaitsForNaturalCompletion(t *testing.T) {
	s := newTestScheduler(DefaultConfig())

	done := make(chan struct{})
	_, err := Spawn(context.Background(), s, func(ctx context.Context) (any, error) {
		time.Sleep(20 * time.Millisecond)
		close(done)
		return nil, nil
	}, "quick")
	assert.NoError(t, err)

	err = s.WaitAndClose(2 * time.Second)
	assert.NoError(t, err)

	select {
	case <-done:
	default:
		t.Fatal("WaitAndClose returned before the job actually finished")
	}
	assert.True(t, s.Closed())
}

// WaitAndClose falls through to a forced Close once its timeout
// elapses, rather than waiting forever.
func TestWaitAndCloseTimesOutAndForces(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CloseTimeout = 10 * time.Millisecond
	s := newTestScheduler(cfg)

	job, err := Spawn(context.Background(), s, func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, "forever")
	assert.NoError(t, err)

	err = s.WaitAndClose(30 * time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.True(t, s.Closed())
	assert.True(t, job.Closed())
}

// Introspection reprs match the fixed forms used across the rest of
// the package's tests and documentation.
func TestStringForms(t *testing.T) {
	s := newTestScheduler(DefaultConfig())
	assert.Equal(t, "<Scheduler jobs=0>", s.String())

	job, err := Spawn(context.Background(), s, func(ctx context.Context) (any, error) {
		return nil, nil
	}, "")
	assert.NoError(t, err)
	_, _ = job.Wait(context.Background(), 2*time.Second)
	assert.Contains(t, job.String(), "<Job closed coro=<")

	s.Close()
	assert.Equal(t, "<Scheduler closed jobs=0>", s.String())
}

// A Wait timeout closes the job and returns ErrTimeout, using a mocked
// clock so the test does not depend on real elapsed time.
func TestWaitTimeout(t *testing.T) {
	mockClock := clock.NewMock()
	mockClock.On("After", mock.Anything).Return(mockClock.AfterChannel)

	s := New(log.NewMock(), mockClock, DefaultConfig())
	defer s.Close()

	job, err := Spawn(context.Background(), s, func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, "slow")
	assert.NoError(t, err)

	waitErr := make(chan error, 1)
	go func() {
		_, err := job.Wait(context.Background(), time.Second)
		waitErr <- err
	}()

	mockClock.AfterChannel <- time.Now()

	select {
	case err := <-waitErr:
		assert.ErrorIs(t, err, ErrTimeout)
	case <-time.After(2 * time.Second):
		t.Fatal("Wait never observed the mocked timeout")
	}
}
