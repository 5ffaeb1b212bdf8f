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

// Package sketch provides a mergeable, fixed-precision summary of a stream of
// integer observations. Insertion and quantile lookup cost O(log n) or better
// and memory stays bounded regardless of how many values are recorded; in
// exchange, quantile answers carry a bounded relative error set by the
// configured precision.
package sketch

import (
	"errors"
	"fmt"
	"math"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// ErrOutOfRange is returned by Record for a value the sketch cannot
// represent under its configured bounds.
var ErrOutOfRange = errors.New("value outside sketch range")

// Config bounds the representable value range and sets the precision of a
// Sketch. The zero value is not usable; start from DefaultConfig.
type Config struct {
	// MinValue is the lowest trackable value. Must be at least 1.
	MinValue uint64 `yaml:"min_value"`
	// MaxValue is the highest trackable value. Must be at least twice
	// MinValue. Recording above it fails with ErrOutOfRange.
	MaxValue uint64 `yaml:"max_value"`
	// SigFigs is the number of significant decimal digits preserved, in
	// [1, 5]. Higher precision costs memory.
	SigFigs int `yaml:"significant_figures"`
}

// DefaultConfig is wide enough that realistic latency (nanoseconds) and size
// values never fall out of range: 1 through 2^62 at 3 significant figures.
var DefaultConfig = Config{
	MinValue: 1,
	MaxValue: 1 << 62,
	SigFigs:  3,
}

// Validate checks the configuration, failing fast on degenerate bounds or
// precision.
func (c Config) Validate() error {
	if c.MinValue < 1 {
		return fmt.Errorf("sketch min value must be at least 1, got %d", c.MinValue)
	}
	if c.MaxValue > math.MaxInt64 {
		return fmt.Errorf("sketch max value %d exceeds %d", c.MaxValue, int64(math.MaxInt64))
	}
	if c.MaxValue < 2*c.MinValue {
		return fmt.Errorf("sketch max value %d must be at least twice min value %d", c.MaxValue, c.MinValue)
	}
	if c.SigFigs < 1 || c.SigFigs > 5 {
		return fmt.Errorf("sketch significant figures must be in [1, 5], got %d", c.SigFigs)
	}
	return nil
}

// A Sketch accumulates non-negative integer observations into an HDR
// histogram. It is not safe for concurrent use.
type Sketch struct {
	cfg  Config
	hist *hdrhistogram.Histogram
}

// New creates an empty Sketch. A degenerate configuration is a construction
// error, not a deferred one.
func New(cfg Config) (*Sketch, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Sketch{
		cfg:  cfg,
		hist: hdrhistogram.New(int64(cfg.MinValue), int64(cfg.MaxValue), cfg.SigFigs),
	}, nil
}

// Record inserts one observation. A value outside the configured range
// surfaces ErrOutOfRange; it is never silently dropped.
func (s *Sketch) Record(value uint64) error {
	if value > s.cfg.MaxValue {
		return fmt.Errorf("%w: %d > %d", ErrOutOfRange, value, s.cfg.MaxValue)
	}
	if err := s.hist.RecordValue(int64(value)); err != nil {
		return fmt.Errorf("%w: %d: %v", ErrOutOfRange, value, err)
	}
	return nil
}

// ValueAtQuantile approximates the q-th quantile of the recorded values, with
// q in [0, 1]: 0 is (approximately) the minimum, 1 the maximum. For a fixed
// set of recorded values the result is monotonic non-decreasing in q.
func (s *Sketch) ValueAtQuantile(q float64) uint64 {
	if q < 0 {
		q = 0
	}
	if q > 1 {
		q = 1
	}
	v := s.hist.ValueAtQuantile(q * 100)
	if v < 0 {
		return 0
	}
	return uint64(v)
}

// Len returns the total number of recorded observations.
func (s *Sketch) Len() uint64 {
	return uint64(s.hist.TotalCount())
}

// Merge folds all observations from o into s. Merging a sketch with a wider
// range than the receiver can track fails with ErrOutOfRange, leaving the
// receiver holding the subset that fit.
func (s *Sketch) Merge(o *Sketch) error {
	if dropped := s.hist.Merge(o.hist); dropped > 0 {
		return fmt.Errorf("%w: merge dropped %d observations", ErrOutOfRange, dropped)
	}
	return nil
}
