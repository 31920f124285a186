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
	"errors"
	"sync"
	"time"

	"github.com/awslabs/taskscheduler/clock"
	"github.com/awslabs/taskscheduler/log"
	"github.com/awslabs/taskscheduler/scheduler"
)

// ErrNotSetup is returned by Scheduler, Spawn, Shield and Atomic when
// called before Setup or StartHotReload has run. Close and WaitAndClose
// do nothing in that case and report no error.
var ErrNotSetup = errors.New("apphost: scheduler not set up")

// App holds the single scheduler a host application shares across its
// request handlers and background loops. It supports replacing its
// scheduler at runtime in response to a config reload, draining the
// old one in the background rather than blocking the caller that
// triggered the reload.
type App struct {
	mu    sync.RWMutex
	sched *scheduler.Scheduler

	log   log.T
	clock clock.Clock

	configPath string
	watcher    *ConfigWatcher
}

// New builds an App with no scheduler configured yet; call Setup or
// StartHotReload before Spawn/Shield/Atomic.
func New(logger log.T, clk clock.Clock) *App {
	if logger == nil {
		logger = log.Default()
	}
	if clk == nil {
		clk = clock.Default
	}
	return &App{log: logger, clock: clk}
}

// Setup installs a scheduler built from cfg, replacing any previous
// one. The previous scheduler, if any, is drained in the background
// rather than closed immediately, so in-flight jobs get a chance to
// finish.
func (a *App) Setup(cfg Config) {
	sched := scheduler.New(a.log, a.clock, cfg.SchedulerConfig())

	a.mu.Lock()
	old := a.sched
	a.sched = sched
	a.mu.Unlock()

	if old != nil {
		go old.WaitAndClose(scheduler.UseSchedulerDefault)
	}
}

// StartHotReload loads cfg from path, calls Setup, and begins watching
// path for changes, reloading and re-Setup-ing on each one.
func (a *App) StartHotReload(path string) error {
	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}
	a.Setup(cfg)

	a.mu.Lock()
	a.configPath = path
	a.mu.Unlock()

	watcher := NewConfigWatcher(a.log, path, a.reloadFromDisk)
	watcher.Start()

	a.mu.Lock()
	a.watcher = watcher
	a.mu.Unlock()

	return nil
}

func (a *App) reloadFromDisk() {
	a.mu.RLock()
	path := a.configPath
	a.mu.RUnlock()

	cfg, err := LoadConfig(path)
	if err != nil {
		a.log.Warnf("apphost: reloading config from %v: %v", path, err)
		return
	}
	a.Setup(cfg)
}

// Scheduler returns the currently installed scheduler, or ErrNotSetup
// if none has been installed yet.
func (a *App) Scheduler() (*scheduler.Scheduler, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.sched == nil {
		return nil, ErrNotSetup
	}
	return a.sched, nil
}

// Spawn admits fn through the current scheduler.
func (a *App) Spawn(ctx context.Context, fn scheduler.Func, name string) (*scheduler.Job, error) {
	s, err := a.Scheduler()
	if err != nil {
		return nil, err
	}
	return scheduler.Spawn(ctx, s, fn, name)
}

// Shield runs fn through the current scheduler's Shield, bypassing
// admission control entirely.
func (a *App) Shield(ctx context.Context, fn scheduler.Func) (any, error) {
	s, err := a.Scheduler()
	if err != nil {
		return nil, err
	}
	return s.Shield(ctx, fn)
}

// Atomic spawns fn through the current scheduler (so it is still
// subject to Limit and PendingLimit) and waits for it immediately.
func (a *App) Atomic(ctx context.Context, fn scheduler.Func, timeout time.Duration) (any, error) {
	s, err := a.Scheduler()
	if err != nil {
		return nil, err
	}
	job, err := scheduler.Spawn(ctx, s, fn, "")
	if err != nil {
		return nil, err
	}
	return job.Wait(ctx, timeout)
}

// Close stops the config watcher, if any, and force-closes the
// current scheduler.
func (a *App) Close() {
	a.mu.Lock()
	watcher := a.watcher
	a.watcher = nil
	a.mu.Unlock()

	if watcher != nil {
		watcher.Stop()
	}
	if s, err := a.Scheduler(); err == nil {
		s.Close()
	}
}

// WaitAndClose stops the config watcher, if any, and waits for the
// current scheduler to drain before closing it.
func (a *App) WaitAndClose(timeout time.Duration) error {
	a.mu.Lock()
	watcher := a.watcher
	a.watcher = nil
	a.mu.Unlock()

	if watcher != nil {
		watcher.Stop()
	}
	s, err := a.Scheduler()
	if err != nil {
		return nil
	}
	return s.WaitAndClose(timeout)
}
