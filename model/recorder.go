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

package model

// A Recorder accepts metric observations. It is the sole entry point
// application instrumentation writes through; exporters implement it.
//
// Recorders are not required to be safe for concurrent use. A single caller
// owns a Recorder between construction and export; concurrent recording needs
// external coordination (sharding or locking) supplied by the caller.
type Recorder interface {
	// RecordCounter records a counter increment. From the recorder's
	// perspective a counter and a gauge are both a single value tied to a
	// key; they are kept separate for the exporter's benefit.
	//
	// Repeated calls for the same key are independent events: the recorder
	// does not sum them. Callers that want a cumulative value sum before
	// recording.
	RecordCounter(key Key, value uint64)

	// RecordGauge records the current value of a gauge.
	RecordGauge(key Key, value int64)

	// RecordHistogram records a batch of histogram observations.
	//
	// This method may be called multiple times for the same key; recorders
	// accumulate all observed values for a key, so three single-value calls
	// are equivalent to one call carrying all three values. A value the
	// recorder cannot represent is reported as an error, never dropped.
	RecordHistogram(key Key, values []uint64) error
}
