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

// Package quantile validates requested quantiles and precomputes their
// conventional display labels for summary output.
package quantile

import (
	"fmt"
	"strconv"
	"strings"
)

// A Quantile pairs a validated value in [0, 1] with its display label, e.g.
// 0.5 -> "0.5" and 1.0 -> "1". Quantiles are immutable after Parse.
type Quantile struct {
	value float64
	label string
}

// Value returns the quantile as a float in [0, 1].
func (q Quantile) Value() float64 { return q.value }

// Label returns the display string used as the quantile="..." label value.
// Trailing zeros are dropped: 0.900 renders as "0.9", 1.0 as "1".
func (q Quantile) Label() string { return q.label }

// String implements Stringer.
func (q Quantile) String() string { return q.label }

// Parse validates raw quantile values and computes their display labels.
//
// Values outside [0, 1] are rejected with an error rather than clamped, so a
// misconfigured quantile list fails at construction instead of producing
// silently wrong summaries. Order is preserved and duplicates pass through:
// callers asking for duplicate or unsorted quantiles get duplicate or
// unsorted summary lines, which is taken as intent.
func Parse(raw []float64) ([]Quantile, error) {
	qs := make([]Quantile, 0, len(raw))
	for _, v := range raw {
		if v < 0.0 || v > 1.0 {
			return nil, fmt.Errorf("quantile %v out of range [0, 1]", v)
		}
		qs = append(qs, Quantile{value: v, label: formatLabel(v)})
	}
	return qs, nil
}

// Defaults returns the default quantile values used when a caller supplies
// none: 0, 0.5, 0.9, 0.95, 0.99, 0.999 and 1.
func Defaults() []float64 {
	return []float64{0.0, 0.5, 0.9, 0.95, 0.99, 0.999, 1.0}
}

func formatLabel(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	// FormatFloat with -1 precision already drops trailing zeros, but keep
	// "0.0"-style inputs from surprising anyone who extends this.
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}
