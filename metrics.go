// Copyright 2019 The Metrics Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics provides call-site helpers that record measurements
// against a process-wide Recorder.
//
// Install the active recorder once at process start, before any recording:
//
//	r := expfmt.New()
//	if err := metrics.Install(r); err != nil {
//		...
//	}
//	metrics.Counter("requests.handled", 1)
//
// Helpers called before a recorder is installed are no-ops, not a crash.
// Helper dispatch is serialized by this package, so the helpers may be called
// from multiple goroutines even though the installed Recorder itself is
// single-writer.
package metrics

import (
	"errors"
	"sync"
	"time"

	"github.com/seeekr/metrics/log"
	"github.com/seeekr/metrics/model"
)

// ErrInstalled is returned by Install when a recorder is already installed.
var ErrInstalled = errors.New("metrics: a recorder is already installed")

var (
	mtx    sync.Mutex
	active model.Recorder
)

// Install sets the process-wide recorder the package helpers write through.
// Installation happens at most once; a second call fails with ErrInstalled.
func Install(r model.Recorder) error {
	mtx.Lock()
	defer mtx.Unlock()
	if active != nil {
		return ErrInstalled
	}
	active = r
	return nil
}

// Installed reports whether a recorder has been installed.
func Installed() bool {
	mtx.Lock()
	defer mtx.Unlock()
	return active != nil
}

// Counter records a counter increment.
func Counter(name string, value uint64, labels ...model.Label) {
	mtx.Lock()
	defer mtx.Unlock()
	if active == nil {
		return
	}
	active.RecordCounter(keyFor(name, labels), value)
}

// Gauge records the current value of a gauge.
func Gauge(name string, value int64, labels ...model.Label) {
	mtx.Lock()
	defer mtx.Unlock()
	if active == nil {
		return
	}
	active.RecordGauge(keyFor(name, labels), value)
}

// Value records a single histogram observation, such as a row count or a
// payload size.
func Value(name string, value uint64, labels ...model.Label) {
	recordHistogram(keyFor(name, labels), value)
}

// Timing records a duration as a histogram observation, in nanoseconds.
// Negative durations record as zero.
func Timing(name string, d time.Duration, labels ...model.Label) {
	if d < 0 {
		d = 0
	}
	recordHistogram(keyFor(name, labels), uint64(d.Nanoseconds()))
}

// Since records the time elapsed from start, in nanoseconds.
func Since(name string, start time.Time, labels ...model.Label) {
	Timing(name, time.Since(start), labels...)
}

func recordHistogram(key model.Key, value uint64) {
	mtx.Lock()
	defer mtx.Unlock()
	if active == nil {
		return
	}
	if err := active.RecordHistogram(key, []uint64{value}); err != nil {
		// The helpers have no error return; a value the recorder cannot
		// represent is a usage fault and must not vanish silently.
		log.With("metric", key.String()).Errorf("recording histogram value %d: %v", value, err)
	}
}

func keyFor(name string, labels []model.Label) model.Key {
	if len(labels) == 0 {
		return model.NewKey(name)
	}
	return model.NewKeyWithLabels(name, labels)
}
