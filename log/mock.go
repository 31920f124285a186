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

package log

import (
	"github.com/stretchr/testify/mock"
)

// Note: kept outside a _test.go file, like clock.Mock, so every
// package's tests can import it.

// Mock is a testify-mock-backed T for use in tests.
type Mock struct {
	mock.Mock
}

// NewMock returns a Mock with permissive default expectations set, so
// tests that don't care about logging calls don't need to set them up.
func NewMock() *Mock {
	m := new(Mock)
	m.On("Close").Return()
	m.On("Flush").Return()
	m.On("Trace", mock.Anything).Return()
	m.On("Debug", mock.Anything).Return()
	m.On("Info", mock.Anything).Return()
	m.On("Warn", mock.Anything).Return(nil)
	m.On("Error", mock.Anything).Return(nil)
	m.On("Tracef", mock.Anything, mock.Anything).Return()
	m.On("Debugf", mock.Anything, mock.Anything).Return()
	m.On("Infof", mock.Anything, mock.Anything).Return()
	m.On("Warnf", mock.Anything, mock.Anything).Return(nil)
	m.On("Errorf", mock.Anything, mock.Anything).Return(nil)
	return m
}

// WithContext returns the same mock; context is not tracked since tests
// assert on log calls directly.
func (m *Mock) WithContext(context ...string) T {
	return m
}

func (m *Mock) Tracef(format string, params ...interface{}) {
	m.Called(format, params)
}

func (m *Mock) Debugf(format string, params ...interface{}) {
	m.Called(format, params)
}

func (m *Mock) Infof(format string, params ...interface{}) {
	m.Called(format, params)
}

func (m *Mock) Warnf(format string, params ...interface{}) error {
	args := m.Called(format, params)
	return args.Error(0)
}

func (m *Mock) Errorf(format string, params ...interface{}) error {
	args := m.Called(format, params)
	return args.Error(0)
}

func (m *Mock) Trace(v ...interface{}) {
	m.Called(v)
}

func (m *Mock) Debug(v ...interface{}) {
	m.Called(v)
}

func (m *Mock) Info(v ...interface{}) {
	m.Called(v)
}

func (m *Mock) Warn(v ...interface{}) error {
	args := m.Called(v)
	return args.Error(0)
}

func (m *Mock) Error(v ...interface{}) error {
	args := m.Called(v)
	return args.Error(0)
}

func (m *Mock) Flush() {
	m.Called()
}

func (m *Mock) Close() {
	m.Called()
}
