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

package expfmt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/seeekr/metrics/model"
	"github.com/seeekr/metrics/quantile"
	"github.com/seeekr/metrics/sketch"
)

// ErrRendered is returned by Render when the renderer has already been
// finalized.
var ErrRendered = errors.New("renderer already finalized")

// now is swapped out in tests.
var now = time.Now

// Options configures a Renderer.
type Options struct {
	// Quantiles to emit for each histogram summary. Defaults to
	// quantile.Defaults() when empty.
	Quantiles []float64
	// Sketch bounds the value range and precision of histogram sketches.
	// Defaults to sketch.DefaultConfig when zero.
	Sketch sketch.Config
}

type histogramEntry struct {
	key    model.Key
	sum    uint64
	sketch *sketch.Sketch
}

// A Renderer accumulates recorded metrics and finalizes them into a single
// Prometheus text exposition payload. It implements model.Recorder.
//
// Counters and gauges are appended to the output immediately on every call,
// so repeated calls for one key produce repeated lines. Histogram values are
// aggregated per key into a sum and a sketch, and flushed as summary blocks
// by Render.
//
// A Renderer moves through two phases: accumulating (any interleaving of
// record calls) and finalized (after Render). Render consumes the internal
// state; after it, counter and gauge records are dropped and histogram
// records fail with ErrRendered. Derive a fresh Renderer with Clone instead
// of reusing a finalized one.
//
// A Renderer is not safe for concurrent use; one goroutine owns it between
// construction and Render.
type Renderer struct {
	quantiles []quantile.Quantile
	sketchCfg sketch.Config

	buf        strings.Builder
	histograms map[string]*histogramEntry
	order      []string
	rendered   bool
}

var _ model.Recorder = (*Renderer)(nil)

// New creates a Renderer with the default quantiles and sketch bounds.
func New() *Renderer {
	r, err := NewWithOptions(Options{})
	if err != nil {
		// The defaults are statically valid.
		panic(err)
	}
	return r
}

// NewWithQuantiles creates a Renderer emitting the given quantiles, which
// must all lie in [0, 1].
func NewWithQuantiles(quantiles []float64) (*Renderer, error) {
	return NewWithOptions(Options{Quantiles: quantiles})
}

// NewWithOptions creates a Renderer from opts. Invalid quantiles or a
// degenerate sketch configuration fail here, never later.
func NewWithOptions(opts Options) (*Renderer, error) {
	raw := opts.Quantiles
	if len(raw) == 0 {
		raw = quantile.Defaults()
	}
	qs, err := quantile.Parse(raw)
	if err != nil {
		return nil, err
	}
	cfg := opts.Sketch
	if cfg == (sketch.Config{}) {
		cfg = sketch.DefaultConfig
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Renderer{
		quantiles:  qs,
		sketchCfg:  cfg,
		histograms: make(map[string]*histogramEntry),
	}
	r.writeHeader()
	return r, nil
}

// Clone derives a fresh, empty Renderer with the same quantile and sketch
// configuration: a blank slate with a new header timestamp, not a snapshot
// of the receiver's state.
func (r *Renderer) Clone() *Renderer {
	n := &Renderer{
		quantiles:  r.quantiles,
		sketchCfg:  r.sketchCfg,
		histograms: make(map[string]*histogramEntry),
	}
	n.writeHeader()
	return n
}

func (r *Renderer) writeHeader() {
	ts := now().Unix()
	if ts < 0 {
		// Advisory only; a broken clock must not fail construction.
		ts = 0
	}
	fmt.Fprintf(&r.buf, "# metrics snapshot (ts=%d) (prometheus exposition format)", ts)
}

// RecordCounter appends a counter line pair to the output. Every call emits
// its own TYPE declaration and value line; same-key calls are not summed, as
// each recorded value is treated as an already-aggregated, point-in-time
// event. Calls on a finalized Renderer are dropped.
func (r *Renderer) RecordCounter(key model.Key, value uint64) {
	if r.rendered {
		return
	}
	name, labels := keyToParts(key)
	r.writeSimple(name, "counter", labels, strconv.FormatUint(value, 10))
}

// RecordGauge appends a gauge line pair to the output. Calls on a finalized
// Renderer are dropped.
func (r *Renderer) RecordGauge(key model.Key, value int64) {
	if r.rendered {
		return
	}
	name, labels := keyToParts(key)
	r.writeSimple(name, "gauge", labels, strconv.FormatInt(value, 10))
}

// RecordHistogram folds values into the key's running sum and sketch,
// creating both on first sight of the key. Values the sketch cannot
// represent surface sketch.ErrOutOfRange; values recorded before the
// failing one are retained. Calls on a finalized Renderer fail with
// ErrRendered.
func (r *Renderer) RecordHistogram(key model.Key, values []uint64) error {
	if r.rendered {
		return ErrRendered
	}
	e, err := r.entry(key)
	if err != nil {
		return err
	}
	for _, v := range values {
		if err := e.sketch.Record(v); err != nil {
			return fmt.Errorf("histogram %v: %w", key, err)
		}
		e.sum += v
	}
	return nil
}

func (r *Renderer) entry(key model.Key) (*histogramEntry, error) {
	id := mapKey(key)
	if e, ok := r.histograms[id]; ok {
		return e, nil
	}
	s, err := sketch.New(r.sketchCfg)
	if err != nil {
		return nil, err
	}
	e := &histogramEntry{key: key, sketch: s}
	r.histograms[id] = e
	r.order = append(r.order, id)
	return e, nil
}

// Render finalizes the renderer into the exposition payload, flushing one
// summary block per histogram key in first-recorded order. Rendering
// consumes the accumulated state; a second call returns ErrRendered instead
// of re-emitting stale or empty data.
func (r *Renderer) Render() (string, error) {
	if r.rendered {
		return "", ErrRendered
	}
	r.rendered = true

	for _, id := range r.order {
		e := r.histograms[id]
		name, labels := keyToParts(e.key)

		r.buf.WriteString("\n# TYPE ")
		r.buf.WriteString(name)
		r.buf.WriteString(" summary\n")

		for _, q := range r.quantiles {
			withQuantile := append(labels[:len(labels):len(labels)],
				fmt.Sprintf("quantile=%q", q.Label()))
			r.buf.WriteString(renderLabeled(name, withQuantile))
			r.buf.WriteByte(' ')
			r.buf.WriteString(strconv.FormatUint(e.sketch.ValueAtQuantile(q.Value()), 10))
			r.buf.WriteByte('\n')
		}

		r.buf.WriteString(renderLabeled(name+"_sum", labels))
		r.buf.WriteByte(' ')
		r.buf.WriteString(strconv.FormatUint(e.sum, 10))
		r.buf.WriteByte('\n')
		r.buf.WriteString(renderLabeled(name+"_count", labels))
		r.buf.WriteByte(' ')
		r.buf.WriteString(strconv.FormatUint(e.sketch.Len(), 10))
		r.buf.WriteByte('\n')
	}

	out := r.buf.String()
	r.buf.Reset()
	r.histograms = nil
	r.order = nil
	return out, nil
}

func (r *Renderer) writeSimple(name, kind string, labels []string, value string) {
	r.buf.WriteString("\n# TYPE ")
	r.buf.WriteString(name)
	r.buf.WriteByte(' ')
	r.buf.WriteString(kind)
	r.buf.WriteByte('\n')
	r.buf.WriteString(renderLabeled(name, labels))
	r.buf.WriteByte(' ')
	r.buf.WriteString(value)
	r.buf.WriteByte('\n')
}

// mapKey derives the histogram map key from a Key's structural identity.
// Every component is length-prefixed so two structurally unequal keys can
// never encode to the same string, unlike the diagnostic String format.
func mapKey(key model.Key) string {
	var b strings.Builder
	name := key.Name()
	fmt.Fprintf(&b, "%d:%s", len(name), name)
	for _, l := range key.Labels() {
		fmt.Fprintf(&b, "%d:%s%d:%s", len(l.Name()), l.Name(), len(l.Value()), l.Value())
	}
	return b.String()
}

// keyToParts splits a key into its exposition name and rendered label pairs.
// Prometheus metric names disallow dots, so they become underscores.
func keyToParts(key model.Key) (string, []string) {
	name := strings.ReplaceAll(key.Name(), ".", "_")
	kls := key.Labels()
	if len(kls) == 0 {
		return name, nil
	}
	labels := make([]string, 0, len(kls))
	for _, l := range kls {
		labels = append(labels, fmt.Sprintf("%s=%q", l.Name(), l.Value()))
	}
	return name, labels
}

func renderLabeled(name string, labels []string) string {
	if len(labels) == 0 {
		return name
	}
	return name + "{" + strings.Join(labels, ",") + "}"
}
