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

package apphost

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/awslabs/taskscheduler/clock"
	"github.com/awslabs/taskscheduler/log"
)

func newTestApp() *App {
	return New(log.NewMock(), clock.Default)
}

func TestSpawnBeforeSetupReturnsErrNotSetup(t *testing.T) {
	app := newTestApp()
	_, err := app.Spawn(context.Background(), func(ctx context.Context) (any, error) {
		return nil, nil
	}, "early")
	assert.ErrorIs(t, err, ErrNotSetup)
}

func TestSetupThenSpawnRunsAJob(t *testing.T) {
	app := newTestApp()
	app.Setup(DefaultConfig())
	defer app.Close()

	job, err := app.Spawn(context.Background(), func(ctx context.Context) (any, error) {
		return "ok", nil
	}, "job")
	assert.NoError(t, err)

	result, err := job.Wait(context.Background(), 2*time.Second)
	assert.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestAtomicSpawnsAndWaitsImmediately(t *testing.T) {
	app := newTestApp()
	app.Setup(DefaultConfig())
	defer app.Close()

	result, err := app.Atomic(context.Background(), func(ctx context.Context) (any, error) {
		return 42, nil
	}, 2*time.Second)
	assert.NoError(t, err)
	assert.Equal(t, 42, result)
}

func TestShieldBypassesAdmissionLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limit = 1
	cfg.PendingLimit = 0
	app := newTestApp()
	app.Setup(cfg)
	defer app.Close()

	release := make(chan struct{})
	_, err := app.Spawn(context.Background(), func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	}, "holder")
	assert.NoError(t, err)

	// With Limit 1 already taken and PendingLimit 0, Shield must still
	// run immediately since it does not go through admission at all.
	result, err := app.Shield(context.Background(), func(ctx context.Context) (any, error) {
		return "shielded", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "shielded", result)

	close(release)
}

func TestStartHotReloadPicksUpConfigChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scheduler.yaml")
	writeConfig(t, path, Config{Limit: 1, PendingLimit: 1, CloseTimeoutMS: 100, WaitTimeoutMS: 1000})

	app := newTestApp()
	err := app.StartHotReload(path)
	assert.NoError(t, err)
	defer app.Close()

	s, err := app.Scheduler()
	assert.NoError(t, err)
	assert.Equal(t, 1, s.Limit())

	writeConfig(t, path, Config{Limit: 5, PendingLimit: 5, CloseTimeoutMS: 100, WaitTimeoutMS: 1000})

	assert.Eventually(t, func() bool {
		s, err := app.Scheduler()
		return err == nil && s.Limit() == 5
	}, 2*time.Second, 10*time.Millisecond)
}

func writeConfig(t *testing.T, path string, cfg Config) {
	t.Helper()
	data := []byte(fmt.Sprintf(
		"limit: %d\npending_limit: %d\nclose_timeout_ms: %d\nwait_timeout_ms: %d\n",
		cfg.Limit, cfg.PendingLimit, cfg.CloseTimeoutMS, cfg.WaitTimeoutMS))
	assert.NoError(t, os.WriteFile(path, data, 0o644))
}
