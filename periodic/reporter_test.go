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

package periodic

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/awslabs/taskscheduler/clock"
	"github.com/awslabs/taskscheduler/log"
	"github.com/awslabs/taskscheduler/scheduler"
)

func TestTickSpawnsAndWaitsOnEachRun(t *testing.T) {
	s := scheduler.New(log.NewMock(), clock.Default, scheduler.DefaultConfig())
	defer s.Close()

	var calls int32
	r := New(log.NewMock(), s, "probe", 1) // jitterMillis=1 keeps the test fast

	r.tick(func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	})

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTickSurvivesSpawnRejection(t *testing.T) {
	s := scheduler.New(log.NewMock(), clock.Default, scheduler.DefaultConfig())
	s.Close() // every future Spawn now fails with ErrClosed

	r := New(log.NewMock(), s, "probe", 1)

	done := make(chan struct{})
	go func() {
		r.tick(func(ctx context.Context) (any, error) {
			return nil, nil
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tick blocked instead of reporting a spawn rejection")
	}
}
