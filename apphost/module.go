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
	"fmt"

	"github.com/awslabs/taskscheduler/scheduler"
)

// StopType mirrors the host's two-tier shutdown request: a graceful
// stop that lets in-flight work finish, and a forced stop that does
// not.
type StopType string

const (
	StopTypeSoftStop StopType = "SoftStop"
	StopTypeHardStop StopType = "HardStop"
)

// Module adapts an App to a host's core-module lifecycle: a name, an
// Execute that starts the scheduler and returns, and a RequestStop a
// supervisor calls later to wind things down.
type Module struct {
	name       string
	app        *App
	configPath string
}

// NewModule builds a Module that loads its scheduler config from
// configPath and reloads it on every change.
func NewModule(name string, app *App, configPath string) *Module {
	return &Module{name: name, app: app, configPath: configPath}
}

func (m *Module) ModuleName() string {
	return m.name
}

// ModuleExecute starts the scheduler and its config watcher. It
// returns once setup completes; the scheduler and watcher continue
// running in the background until ModuleRequestStop is called.
func (m *Module) ModuleExecute() error {
	return m.app.StartHotReload(m.configPath)
}

// ModuleRequestStop maps a soft stop onto WaitAndClose (let in-flight
// jobs finish, within the scheduler's configured WaitTimeout) and a
// hard stop onto Close (cancel everything immediately).
func (m *Module) ModuleRequestStop(stopType StopType) error {
	switch stopType {
	case StopTypeSoftStop:
		return m.app.WaitAndClose(scheduler.UseSchedulerDefault)
	case StopTypeHardStop:
		m.app.Close()
		return nil
	default:
		return fmt.Errorf("apphost: unknown stop type %q", stopType)
	}
}
