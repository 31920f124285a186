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

// Package periodic runs a callback on a fixed interval, spawning each
// invocation through a scheduler.Scheduler so periodic work is subject
// to the same admission control as everything else the host runs.
package periodic

import (
	"context"
	"math/rand"
	"time"

	cronsched "github.com/carlescere/scheduler"

	"github.com/awslabs/taskscheduler/log"
	"github.com/awslabs/taskscheduler/scheduler"
)

const defaultJitterMillis = 30000

// Spawner is the subset of apphost.App (or scheduler.Scheduler)
// Reporter needs: somewhere to admit each tick's work.
type Spawner interface {
	Spawn(ctx context.Context, fn scheduler.Func, name string) (*scheduler.Job, error)
}

// Reporter runs fn every frequency, admitting each run through a
// Spawner rather than calling it directly.
type Reporter struct {
	log          log.T
	spawner      Spawner
	name         string
	job          *cronsched.Job
	jitterMillis int
}

// New builds a Reporter. jitterMillis, if positive, overrides the
// default jitter applied before each run to avoid every instance of a
// fleet waking in lockstep; 0 uses the package default.
func New(logger log.T, spawner Spawner, name string, jitterMillis int) *Reporter {
	if jitterMillis <= 0 {
		jitterMillis = defaultJitterMillis
	}
	return &Reporter{log: logger, spawner: spawner, name: name, jitterMillis: jitterMillis}
}

// Start schedules fn to run every frequencyMinutes, beginning
// immediately.
func (r *Reporter) Start(fn scheduler.Func, frequencyMinutes int) error {
	job, err := cronsched.Every(frequencyMinutes).Minutes().Run(func() {
		r.tick(fn)
	})
	if err != nil {
		return r.log.Errorf("periodic: unable to schedule %q: %v", r.name, err)
	}
	r.job = job
	return nil
}

func (r *Reporter) tick(fn scheduler.Func) {
	jitter(r.jitterMillis)

	job, err := r.spawner.Spawn(context.Background(), fn, r.name)
	if err != nil {
		r.log.Warnf("periodic: %q did not admit this run: %v", r.name, err)
		return
	}
	if _, err := job.Wait(context.Background(), 0); err != nil {
		r.log.Warnf("periodic: %q run failed: %v", r.name, err)
	}
}

// jitter sleeps a random duration up to maxMillis so that many
// instances of a fleet running the same Reporter don't all tick at
// once.
func jitter(maxMillis int) {
	if maxMillis <= 0 {
		return
	}
	time.Sleep(time.Duration(rand.Intn(maxMillis)) * time.Millisecond)
}

// Stop cancels future runs. Runs already admitted through the Spawner
// are unaffected; closing those down is the Spawner's job.
func (r *Reporter) Stop() {
	if r.job != nil {
		r.job.Quit <- true
	}
}

// RunNow skips the remaining wait and triggers an immediate run.
func (r *Reporter) RunNow() {
	if r.job != nil {
		r.job.SkipWait <- true
	}
}
