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
	"fmt"
	"sync"

	"github.com/cihub/seelog"
)

// defaultConfig is the seelog configuration used when no override is
// supplied: console output at info level, line-buffered.
const defaultConfig = `
<seelog type="sync" minlevel="info">
	<outputs formatid="main">
		<console/>
	</outputs>
	<formats>
		<format id="main" format="%Date %Time [%LEVEL] %Msg%n"/>
	</formats>
</seelog>
`

// New builds a T backed by seelog, configured from the given seelog XML
// bytes. Passing nil uses defaultConfig.
func New(seelogConfig []byte) (T, error) {
	if seelogConfig == nil {
		seelogConfig = []byte(defaultConfig)
	}
	base, err := seelog.LoggerFromConfigAsBytes(seelogConfig)
	if err != nil {
		return nil, fmt.Errorf("parsing seelog config: %w", err)
	}
	// additional stack depth so seelog reports the caller of the
	// wrapper, not the wrapper itself.
	base.SetAdditionalStackDepth(2)
	return withContext(base, new(sync.Mutex)), nil
}

// Default builds a T using defaultConfig. It never fails.
func Default() T {
	logger, err := New(nil)
	if err != nil {
		// defaultConfig is a constant; a failure here is a programming error.
		panic(err)
	}
	return logger
}

func withContext(base seelog.LoggerInterface, mu *sync.Mutex, context ...string) T {
	return &wrapper{
		base:   base,
		mu:     mu,
		prefix: contextPrefix(context),
	}
}

func contextPrefix(context []string) string {
	prefix := ""
	for _, c := range context {
		prefix += c + " "
	}
	return prefix
}

// wrapper adapts a seelog.LoggerInterface to T, prefixing every message
// with the strings passed to the WithContext() call that created it.
// Calling WithContext on a wrapper replaces its prefix rather than
// extending it.
type wrapper struct {
	base   seelog.LoggerInterface
	mu     *sync.Mutex
	prefix string
}

func (w *wrapper) WithContext(context ...string) T {
	return withContext(w.base, w.mu, context...)
}

func (w *wrapper) Tracef(format string, params ...interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.base.Tracef(w.prefix+format, params...)
}

func (w *wrapper) Debugf(format string, params ...interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.base.Debugf(w.prefix+format, params...)
}

func (w *wrapper) Infof(format string, params ...interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.base.Infof(w.prefix+format, params...)
}

func (w *wrapper) Warnf(format string, params ...interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.base.Warnf(w.prefix+format, params...)
}

func (w *wrapper) Errorf(format string, params ...interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.base.Errorf(w.prefix+format, params...)
}

func (w *wrapper) Trace(v ...interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.base.Trace(w.prefixed(v)...)
}

func (w *wrapper) Debug(v ...interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.base.Debug(w.prefixed(v)...)
}

func (w *wrapper) Info(v ...interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.base.Info(w.prefixed(v)...)
}

func (w *wrapper) Warn(v ...interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.base.Warn(w.prefixed(v)...)
}

func (w *wrapper) Error(v ...interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.base.Error(w.prefixed(v)...)
}

func (w *wrapper) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.base.Flush()
}

func (w *wrapper) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.base.Close()
}

func (w *wrapper) prefixed(v []interface{}) []interface{} {
	if w.prefix == "" {
		return v
	}
	return append([]interface{}{w.prefix}, v...)
}
