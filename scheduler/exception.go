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

// ExceptionContext carries the details of a routed failure: either a
// Job's Func returning a non-cancellation error while nobody was
// waiting on it explicitly, or a Job/shield failing to settle within
// its close timeout.
type ExceptionContext struct {
	// Message is a short, fixed description of what went wrong, e.g.
	// "Job processing failed" or "Job closing timed out".
	Message string

	// Job is the job the failure is about. Nil for shield timeouts,
	// which have no Job of their own.
	Job *Job

	// Exception is the error the job's Func returned, if any. Nil for
	// close-timeout contexts — there the Func simply never returned in
	// time, there is no error value to report.
	Exception error
}

// ExceptionHandler receives every failure a Scheduler cannot hand back
// to an explicit waiter. The default, when none is configured, logs at
// error level.
type ExceptionHandler func(s *Scheduler, ctx ExceptionContext)
