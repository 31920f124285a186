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

// Package clock provides the time abstraction used throughout the
// scheduler so that timeout-driven code paths can be exercised
// deterministically in tests.
package clock

import "time"

// Clock is the minimal time API the scheduler depends on.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives once the given duration has
	// elapsed. A non-positive duration fires on the next tick.
	After(d time.Duration) <-chan time.Time
}

// Default implements Clock by delegating to the time package.
var Default Clock = defaultClock{}

type defaultClock struct{}

func (defaultClock) Now() time.Time {
	return time.Now()
}

func (defaultClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
