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

package clock

import (
	"time"

	"github.com/stretchr/testify/mock"
)

// Note: kept outside a _test.go file so every package that tests
// against a Clock can import it.

// Mock implements Clock with testify expectations, and an AfterChannel
// that tests can fire manually to control timeout races.
type Mock struct {
	mock.Mock
	AfterChannel chan time.Time
}

// NewMock creates a Mock whose AfterChannel is buffered with capacity 1.
func NewMock() *Mock {
	return &Mock{AfterChannel: make(chan time.Time, 1)}
}

// Now returns the value configured via On("Now").
func (m *Mock) Now() time.Time {
	return m.Called().Get(0).(time.Time)
}

// After returns the channel configured via On("After", d).
func (m *Mock) After(d time.Duration) <-chan time.Time {
	args := m.Called(d)
	return args.Get(0).(chan time.Time)
}
