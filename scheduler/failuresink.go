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

import "sync"

// unboundedJobQueue is a FIFO of *Job with no capacity limit, used as
// the failure sink: every job whose Func failed without an explicit
// waiter is pushed here so a single background goroutine drains them.
// Push(nil) is the shutdown sentinel.
type unboundedJobQueue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []*Job
}

func newUnboundedJobQueue() *unboundedJobQueue {
	q := &unboundedJobQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *unboundedJobQueue) push(j *Job) {
	q.mu.Lock()
	q.items = append(q.items, j)
	q.mu.Unlock()
	q.cond.Signal()
}

// pop blocks until an item is available. ok is false only for the nil
// shutdown sentinel.
func (q *unboundedJobQueue) pop() (job *Job, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 {
		q.cond.Wait()
	}
	job = q.items[0]
	q.items = q.items[1:]
	return job, job != nil
}

// runFailureSink drains the failure queue until it sees the shutdown
// sentinel. Draining is deliberately a no-op beyond a debug log line:
// by the time a job lands here its result and error are already
// final, the sink exists to give shutdown a definite point to wait on
// rather than to do further work on the job.
func (s *Scheduler) runFailureSink() {
	defer close(s.failedSinkDone)
	for {
		job, ok := s.failedQueue.pop()
		if !ok {
			return
		}
		s.log.Debugf("scheduler: drained failed job %v", job)
	}
}
