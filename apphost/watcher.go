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
	"path/filepath"
	"runtime/debug"

	"github.com/fsnotify/fsnotify"

	"github.com/awslabs/taskscheduler/log"
)

// ConfigWatcher watches a config file's parent directory (since
// fsnotify cannot watch a path that doesn't exist yet) and invokes
// onChange whenever the file is written, created or renamed into
// place.
type ConfigWatcher struct {
	path     string
	onChange func()
	log      log.T
	watcher  *fsnotify.Watcher
}

// NewConfigWatcher builds a watcher for path. Call Start to begin
// watching and Stop to release the underlying OS resources.
func NewConfigWatcher(logger log.T, path string, onChange func()) *ConfigWatcher {
	return &ConfigWatcher{path: path, onChange: onChange, log: logger}
}

// Start launches the watcher's event loop in the background.
func (w *ConfigWatcher) Start() {
	w.log.Debugf("starting config watcher on %v", w.path)

	dir := filepath.Dir(w.path)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.log.Errorf("initializing config watcher: %v", err)
		return
	}
	w.watcher = watcher

	go w.eventLoop()

	if err := w.watcher.Add(dir); err != nil {
		w.log.Warnf("adding directory %q to config watcher: %v", dir, err)
	}
}

func (w *ConfigWatcher) eventLoop() {
	defer func() {
		if r := recover(); r != nil {
			w.log.Errorf("config watcher panic: %v", r)
			w.log.Errorf("stacktrace:\n%s", debug.Stack())
		}
	}()
	for event := range w.watcher.Events {
		if event.Name != w.path {
			continue
		}
		if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
			w.log.Debugf("config file changed: %v", w.path)
			w.onChange()
		}
	}
}

// Stop closes the underlying watcher.
func (w *ConfigWatcher) Stop() {
	w.log.Infof("stopping config watcher on %v", w.path)
	if w.watcher != nil {
		if err := w.watcher.Close(); err != nil {
			w.log.Debugf("closing config watcher: %v", err)
		}
	}
}
