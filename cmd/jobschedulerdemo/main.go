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

// Command jobschedulerdemo wires a Scheduler, its apphost adapter and
// a periodic reporter together into a minimal runnable example: spawn
// a handful of jobs, run a periodic background task, then shut down
// cleanly on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/awslabs/taskscheduler/apphost"
	"github.com/awslabs/taskscheduler/log"
	"github.com/awslabs/taskscheduler/periodic"
)

func main() {
	configPath := flag.String("config", "", "path to a scheduler config YAML file (optional)")
	flag.Parse()

	logger := log.Default()
	defer logger.Close()

	app := apphost.New(logger, nil)

	if *configPath != "" {
		if err := app.StartHotReload(*configPath); err != nil {
			logger.Errorf("loading config: %v", err)
			os.Exit(1)
		}
	} else {
		app.Setup(apphost.DefaultConfig())
	}

	reporter := periodic.New(logger, app, "heartbeat", 0)
	if err := reporter.Start(heartbeat(logger), 1); err != nil {
		logger.Errorf("starting periodic reporter: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for i := 0; i < 5; i++ {
		i := i
		_, err := app.Spawn(ctx, func(ctx context.Context) (any, error) {
			time.Sleep(200 * time.Millisecond)
			return fmt.Sprintf("work item %d done", i), nil
		}, fmt.Sprintf("work-%d", i))
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warnf("spawning work item %d: %v", i, err)
		}
	}

	<-ctx.Done()

	reporter.Stop()
	if err := app.WaitAndClose(30 * time.Second); err != nil {
		logger.Warnf("shutdown did not finish cleanly: %v", err)
	}
}

func heartbeat(logger log.T) func(ctx context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		logger.Debugf("heartbeat")
		return nil, nil
	}
}
