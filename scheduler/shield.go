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
	"time"
)

// shieldHandle tracks one in-flight Shield call.
type shieldHandle struct {
	done   chan struct{}
	cancel context.CancelFunc
	result any
	err    error
}

// Shield runs fn to completion regardless of ctx being canceled: fn's
// own context is derived from the scheduler's root context, not ctx,
// so canceling the caller only stops the caller from waiting — it
// does not stop fn. fn is still canceled if the scheduler itself
// closes.
func (s *Scheduler) Shield(ctx context.Context, fn Func) (any, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	innerCtx, cancel := context.WithCancel(s.rootCtx)
	h := &shieldHandle{done: make(chan struct{}), cancel: cancel}
	s.shields[h] = struct{}{}
	s.mu.Unlock()

	go func() {
		defer close(h.done)
		defer s.removeShield(h)
		h.result, h.err = runRecovered(fn, innerCtx)
	}()

	select {
	case <-h.done:
		return h.result, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Scheduler) removeShield(h *shieldHandle) {
	s.mu.Lock()
	delete(s.shields, h)
	s.mu.Unlock()
}

// waitShieldForShutdown cancels a shielded operation and waits up to
// timeout for it to settle, routing a timeout to the exception
// handler the same way closeForShutdown does for jobs.
func (s *Scheduler) waitShieldForShutdown(h *shieldHandle, timeout time.Duration) {
	h.cancel()

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timeoutCh = s.clock.After(timeout)
	}

	select {
	case <-h.done:
	case <-timeoutCh:
		s.CallExceptionHandler(ExceptionContext{
			Message: "Shielded operation closing timed out",
		})
	}
}
