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

// Package apphost adapts a scheduler.Scheduler to a host application:
// a YAML-backed configuration with hot reload, and a module the host's
// lifecycle manager can start and stop the way it stops any other
// long-running component.
package apphost

import (
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gopkg.in/yaml.v2"

	"github.com/awslabs/taskscheduler/internal/backoffconfig"
	"github.com/awslabs/taskscheduler/scheduler"
)

// Config is the on-disk shape of a scheduler's admission and shutdown
// settings.
type Config struct {
	Limit          int `yaml:"limit"`
	PendingLimit   int `yaml:"pending_limit"`
	CloseTimeoutMS int `yaml:"close_timeout_ms"`
	WaitTimeoutMS  int `yaml:"wait_timeout_ms"`
}

// SchedulerConfig converts the loaded Config into a scheduler.Config.
func (c Config) SchedulerConfig() scheduler.Config {
	return scheduler.Config{
		Limit:        c.Limit,
		PendingLimit: c.PendingLimit,
		CloseTimeout: time.Duration(c.CloseTimeoutMS) * time.Millisecond,
		WaitTimeout:  time.Duration(c.WaitTimeoutMS) * time.Millisecond,
	}
}

// DefaultConfig mirrors scheduler.DefaultConfig in the on-disk shape.
func DefaultConfig() Config {
	d := scheduler.DefaultConfig()
	return Config{
		Limit:          d.Limit,
		PendingLimit:   d.PendingLimit,
		CloseTimeoutMS: int(d.CloseTimeout / time.Millisecond),
		WaitTimeoutMS:  int(d.WaitTimeout / time.Millisecond),
	}
}

// LoadConfig reads and parses a YAML config file at path, retrying
// transient read failures (e.g. the file briefly missing mid-write)
// with bounded exponential backoff before giving up.
func LoadConfig(path string) (Config, error) {
	policy, err := backoffconfig.Default()
	if err != nil {
		return Config{}, fmt.Errorf("building retry policy: %w", err)
	}

	var cfg Config
	var lastErr error
	for {
		wait := policy.NextBackOff()
		data, readErr := os.ReadFile(path)
		if readErr == nil {
			if parseErr := yaml.Unmarshal(data, &cfg); parseErr != nil {
				return Config{}, fmt.Errorf("parsing %s: %w", path, parseErr)
			}
			return cfg, nil
		}
		lastErr = readErr
		if wait == backoff.Stop {
			return Config{}, fmt.Errorf("reading %s: %w (giving up after retries)", path, lastErr)
		}
		time.Sleep(wait)
	}
}
