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
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seeekr/metrics/model"
	"github.com/seeekr/metrics/sketch"
)

func atTime(t *testing.T, ts int64) {
	t.Helper()
	old := now
	now = func() time.Time { return time.Unix(ts, 0) }
	t.Cleanup(func() { now = old })
}

func render(t *testing.T, r *Renderer) string {
	t.Helper()
	out, err := r.Render()
	require.NoError(t, err)
	return out
}

func TestHeader(t *testing.T) {
	atTime(t, 1560000000)

	out := render(t, New())
	assert.Equal(t, "# metrics snapshot (ts=1560000000) (prometheus exposition format)", out)
}

func TestHeaderClockBeforeEpoch(t *testing.T) {
	atTime(t, -1)

	out := render(t, New())
	assert.Contains(t, out, "(ts=0)")
}

func TestCounterRoundTrip(t *testing.T) {
	atTime(t, 1560000000)

	r := New()
	r.RecordCounter(model.NewKey("requests"), 42)

	expected := strings.Join([]string{
		"# metrics snapshot (ts=1560000000) (prometheus exposition format)",
		"",
		"# TYPE requests counter",
		"requests 42",
		"",
	}, "\n")
	if diff := cmp.Diff(expected, render(t, r)); diff != "" {
		t.Errorf("unexpected output (-want +got):\n%s", diff)
	}
}

func TestGaugeWithLabels(t *testing.T) {
	r := New()
	r.RecordGauge(model.NewKeyWithLabels("temp", []model.Label{
		model.NewLabel("room", "kitchen"),
	}), -3)

	out := render(t, r)
	assert.Contains(t, out, "# TYPE temp gauge\n")
	assert.Contains(t, out, `temp{room="kitchen"} -3`)
}

func TestCounterCallsAreIndependentLines(t *testing.T) {
	r := New()
	key := model.NewKey("events")
	r.RecordCounter(key, 1)
	r.RecordCounter(key, 2)

	out := render(t, r)
	assert.Equal(t, 2, strings.Count(out, "# TYPE events counter"))
	assert.Contains(t, out, "events 1\n")
	assert.Contains(t, out, "events 2\n")
	assert.NotContains(t, out, "events 3")
}

func TestNameEscaping(t *testing.T) {
	r := New()
	key := model.NewKeyWithLabels("service.latency", []model.Label{
		model.NewLabel("endpoint", "/v1"),
	})
	r.RecordCounter(key, 7)
	require.NoError(t, r.RecordHistogram(key, []uint64{5}))

	out := render(t, r)
	assert.NotContains(t, out, "service.latency")
	assert.Contains(t, out, "# TYPE service_latency counter")
	assert.Contains(t, out, "# TYPE service_latency summary")
	assert.Contains(t, out, "service_latency_sum")
	assert.Contains(t, out, "service_latency_count")
}

func TestHistogramSummary(t *testing.T) {
	r, err := NewWithQuantiles([]float64{0.0, 1.0})
	require.NoError(t, err)

	key := model.NewKey("latency")
	require.NoError(t, r.RecordHistogram(key, []uint64{10, 20, 30, 40}))

	out := render(t, r)
	assert.Contains(t, out, "# TYPE latency summary\n")
	assert.Contains(t, out, `latency{quantile="0"} 10`)
	assert.Contains(t, out, `latency{quantile="1"} 40`)
	assert.Contains(t, out, "latency_sum 100\n")
	assert.Contains(t, out, "latency_count 4\n")
}

func TestHistogramSummaryMergesQuantileLabelLast(t *testing.T) {
	r, err := NewWithQuantiles([]float64{0.5})
	require.NoError(t, err)

	key := model.NewKeyWithLabels("latency", []model.Label{
		model.NewLabel("endpoint", "/v1"),
		model.NewLabel("method", "GET"),
	})
	require.NoError(t, r.RecordHistogram(key, []uint64{100}))

	out := render(t, r)
	assert.Contains(t, out, `latency{endpoint="/v1",method="GET",quantile="0.5"} 100`)
	assert.Contains(t, out, `latency_sum{endpoint="/v1",method="GET"} 100`)
	assert.Contains(t, out, `latency_count{endpoint="/v1",method="GET"} 1`)
}

func TestHistogramAccumulatesAcrossCalls(t *testing.T) {
	batched, err := NewWithQuantiles([]float64{0.0, 0.5, 1.0})
	require.NoError(t, err)
	split, err := NewWithQuantiles([]float64{0.0, 0.5, 1.0})
	require.NoError(t, err)

	key := model.NewKey("latency")
	require.NoError(t, batched.RecordHistogram(key, []uint64{10, 20, 30}))
	for _, v := range []uint64{10, 20, 30} {
		require.NoError(t, split.RecordHistogram(key, []uint64{v}))
	}

	outBatched := render(t, batched)
	outSplit := render(t, split)

	// Identical state, so identical summary blocks; only the headers can
	// differ by timestamp.
	trim := func(s string) string {
		_, rest, _ := strings.Cut(s, "\n")
		return rest
	}
	if diff := cmp.Diff(trim(outBatched), trim(outSplit)); diff != "" {
		t.Errorf("batched and split recording diverged (-batched +split):\n%s", diff)
	}
	assert.Contains(t, outBatched, "latency_sum 60\n")
	assert.Contains(t, outBatched, "latency_count 3\n")
}

func TestHistogramKeysAreOrderSensitive(t *testing.T) {
	r := New()
	k1 := model.NewKeyWithLabels("latency", []model.Label{
		model.NewLabel("a", "1"), model.NewLabel("b", "2"),
	})
	k2 := model.NewKeyWithLabels("latency", []model.Label{
		model.NewLabel("b", "2"), model.NewLabel("a", "1"),
	})
	require.NoError(t, r.RecordHistogram(k1, []uint64{5}))
	require.NoError(t, r.RecordHistogram(k2, []uint64{9}))

	out := render(t, r)
	assert.Contains(t, out, `latency_count{a="1",b="2"} 1`)
	assert.Contains(t, out, `latency_count{b="2",a="1"} 1`)
}

func TestRecordHistogramOutOfRange(t *testing.T) {
	r, err := NewWithOptions(Options{
		Sketch: sketch.Config{MinValue: 1, MaxValue: 1000, SigFigs: 3},
	})
	require.NoError(t, err)

	key := model.NewKey("latency")
	err = r.RecordHistogram(key, []uint64{10, 1_000_000})
	require.ErrorIs(t, err, sketch.ErrOutOfRange)

	// The in-range value recorded before the fault is retained.
	out := render(t, r)
	assert.Contains(t, out, "latency_count 1\n")
	assert.Contains(t, out, "latency_sum 10\n")
}

func TestHistogramKeysWithCollidingDisplayStayDistinct(t *testing.T) {
	r, err := NewWithQuantiles([]float64{0.5})
	require.NoError(t, err)

	// Both keys render identically as Key(latency, [a = b]) in the
	// diagnostic format; structurally they are different series.
	labeled := model.NewKeyWithLabels("latency", []model.Label{model.NewLabel("a", "b")})
	unlabeled := model.NewKey("latency, [a = b]")
	require.NoError(t, r.RecordHistogram(labeled, []uint64{10}))
	require.NoError(t, r.RecordHistogram(unlabeled, []uint64{90}))

	out := render(t, r)
	assert.Contains(t, out, `latency_sum{a="b"} 10`)
	assert.Contains(t, out, `latency_count{a="b"} 1`)
	assert.NotContains(t, out, `latency_sum{a="b"} 100`)
	assert.NotContains(t, out, `latency_count{a="b"} 2`)
	assert.Equal(t, 2, strings.Count(out, "summary"))
}

func TestRecordAfterRenderDoesNotPanic(t *testing.T) {
	r := New()
	require.NoError(t, r.RecordHistogram(model.NewKey("latency"), []uint64{1}))
	_, err := r.Render()
	require.NoError(t, err)

	err = r.RecordHistogram(model.NewKey("latency"), []uint64{1})
	require.ErrorIs(t, err, ErrRendered)
	err = r.RecordHistogram(model.NewKey("fresh"), []uint64{1})
	require.ErrorIs(t, err, ErrRendered)

	// Counters and gauges have no error return; they are dropped.
	r.RecordCounter(model.NewKey("requests"), 1)
	r.RecordGauge(model.NewKey("depth"), -1)

	_, err = r.Render()
	require.ErrorIs(t, err, ErrRendered)
}

func TestRenderTwiceFails(t *testing.T) {
	r := New()
	r.RecordCounter(model.NewKey("requests"), 1)

	_, err := r.Render()
	require.NoError(t, err)

	_, err = r.Render()
	require.ErrorIs(t, err, ErrRendered)
}

func TestNewWithQuantilesRejectsOutOfRange(t *testing.T) {
	_, err := NewWithQuantiles([]float64{0.5, 1.5})
	require.Error(t, err)
}

func TestNewWithOptionsRejectsDegenerateSketch(t *testing.T) {
	_, err := NewWithOptions(Options{
		Sketch: sketch.Config{MinValue: 1, MaxValue: 1000, SigFigs: 9},
	})
	require.Error(t, err)
}

func TestClone(t *testing.T) {
	atTime(t, 100)
	r, err := NewWithQuantiles([]float64{0.5})
	require.NoError(t, err)
	r.RecordCounter(model.NewKey("requests"), 1)
	require.NoError(t, r.RecordHistogram(model.NewKey("latency"), []uint64{10}))

	atTime(t, 200)
	c := r.Clone()

	out := render(t, c)
	assert.Contains(t, out, "(ts=200)")
	assert.NotContains(t, out, "requests")
	assert.NotContains(t, out, "latency")

	// The clone inherits the quantile configuration.
	c2 := r.Clone()
	require.NoError(t, c2.RecordHistogram(model.NewKey("latency"), []uint64{10}))
	out2 := render(t, c2)
	assert.Contains(t, out2, `latency{quantile="0.5"} 10`)
	assert.NotContains(t, out2, `quantile="0.9"`)
}

func TestBlankLinePrecedesEachBlock(t *testing.T) {
	r := New()
	r.RecordCounter(model.NewKey("a"), 1)
	r.RecordGauge(model.NewKey("b"), 2)
	require.NoError(t, r.RecordHistogram(model.NewKey("c"), []uint64{3}))

	out := render(t, r)
	assert.Equal(t, 1, strings.Count(out, "\n\n# TYPE a counter"))
	assert.Equal(t, 1, strings.Count(out, "\n\n# TYPE b gauge"))
	assert.Equal(t, 1, strings.Count(out, "\n\n# TYPE c summary"))
}

func TestNegotiate(t *testing.T) {
	tests := []struct {
		accept   string
		expected Format
	}{
		{accept: "", expected: FmtText},
		{accept: "text/plain", expected: FmtText},
		{accept: "text/plain; version=0.0.4", expected: FmtText},
		{accept: "application/json", expected: FmtText},
		{accept: "application/json, text/plain;q=0.5", expected: FmtText},
	}
	for _, tc := range tests {
		h := make(map[string][]string)
		if tc.accept != "" {
			h["Accept"] = []string{tc.accept}
		}
		assert.Equal(t, tc.expected, Negotiate(h), "Accept: %q", tc.accept)
	}
}
