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

// Package backoffconfig builds bounded exponential backoff policies for
// the transient retries apphost performs when reading a scheduler config
// file.
package backoffconfig

import (
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	multiplier        = 2.0
	maxIntervalMillis = 30_000
	jitterFactor      = 0.2
	maxDelayMillis    = 5 * 60 * 1000 // 5 minutes
	defaultInterval   = 100 * time.Millisecond
	defaultRetries    = 5
)

// Default returns a backoff policy with the package defaults: 100ms
// initial interval, 5 retries.
func Default() (*backoff.ExponentialBackOff, error) {
	return New(defaultInterval, defaultRetries)
}

// New returns an ExponentialBackOff configured so that, in the worst
// case (every attempt fails), it gives up after roughly maxRetries
// attempts rather than retrying indefinitely.
func New(initialInterval time.Duration, maxRetries int) (*backoff.ExponentialBackOff, error) {
	if initialInterval <= 0 {
		initialInterval = backoff.DefaultInitialInterval
	}

	maxRetries, err := bound(maxRetries, 1, 100)
	if err != nil {
		return nil, err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = initialInterval
	policy.MaxInterval = maxIntervalMillis * time.Millisecond
	policy.Multiplier = multiplier
	policy.RandomizationFactor = jitterFactor
	policy.MaxElapsedTime, err = maxElapsedTime(
		maxRetries,
		initialInterval,
		policy.MaxInterval,
		maxDelayMillis*time.Millisecond,
		multiplier,
		jitterFactor)
	if err != nil {
		return nil, err
	}

	policy.Reset()
	return policy, nil
}

// bound clamps number into [min, max].
func bound(number int, min int, max int) (int, error) {
	if max < min {
		return number, fmt.Errorf("min (%d) is greater than max (%d)", min, max)
	}
	switch {
	case number < min:
		return min, nil
	case number > max:
		return max, nil
	default:
		return number, nil
	}
}

// maxElapsedTime computes the maximum wall-clock time a caller should
// expect exponential backoff to take if every one of maxRetries
// attempts fails.
func maxElapsedTime(
	maxRetries int,
	initialInterval time.Duration,
	maximumInterval time.Duration,
	maximumElapsedTime time.Duration,
	growthFactor float64,
	jitter float64,
) (time.Duration, error) {
	if maxRetries <= 0 || maxRetries > 100 {
		return maximumElapsedTime, fmt.Errorf("maxRetries (%d) is out of range (0, 100]", maxRetries)
	}
	if initialInterval <= 0 {
		return maximumElapsedTime, errors.New("initialInterval must be positive")
	}
	if maximumInterval <= 0 {
		return maximumElapsedTime, errors.New("maximumInterval must be positive")
	}
	if growthFactor <= 1.0 || growthFactor > 10.0 {
		return maximumElapsedTime, fmt.Errorf("growthFactor (%f) is out of range (1.0, 10.0]", growthFactor)
	}
	if jitter < 0.0 || jitter > 1.0 {
		return maximumElapsedTime, fmt.Errorf("jitter (%f) is out of range [0.0, 1.0]", jitter)
	}

	intervalMillis := initialInterval.Milliseconds()
	maxElapsedMillis := intervalMillis
	maximumIntervalMillis := maximumInterval.Milliseconds()

	for retry := 1; retry < maxRetries; retry++ {
		nextIntervalMillis := float64(intervalMillis) * growthFactor
		intervalMillis = minInt64(int64(nextIntervalMillis), maximumIntervalMillis)
		maxElapsedMillis += intervalMillis
	}

	maxElapsedMillis = int64(float64(maxElapsedMillis) * (1.0 + jitter))
	maxElapsedMillis = minInt64(maxElapsedMillis, maximumElapsedTime.Milliseconds())
	return time.Duration(maxElapsedMillis) * time.Millisecond, nil
}

func minInt64(a, b int64) int64 {
	if b < a {
		return b
	}
	return a
}
