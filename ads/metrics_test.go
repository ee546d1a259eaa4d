// Copyright 2025 Edgeo SCADA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ads

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCounterAndGauge(t *testing.T) {
	var c Counter
	c.Inc()
	c.Add(4)
	assert.Equal(t, int64(5), c.Value())

	var g Gauge
	g.Inc()
	g.Inc()
	g.Dec()
	assert.Equal(t, int64(1), g.Value())
	g.Set(10)
	assert.Equal(t, int64(10), g.Value())
}

func TestLatencyHistogram(t *testing.T) {
	h := NewLatencyHistogram()
	stats := h.Stats()
	assert.Zero(t, stats.Count)
	assert.Zero(t, stats.Avg)

	h.Record(2 * time.Millisecond)
	h.Record(4 * time.Millisecond)
	h.Record(time.Hour)

	stats = h.Stats()
	assert.Equal(t, int64(3), stats.Count)
	assert.Equal(t, 2*time.Millisecond, stats.Min)
	assert.Equal(t, time.Hour, stats.Max)
	assert.Len(t, stats.Buckets, len(LatencyBounds)+1)
	assert.Equal(t, int64(1), stats.Buckets[len(LatencyBounds)])

	var total int64
	for _, n := range stats.Buckets {
		total += n
	}
	assert.Equal(t, int64(3), total)

	// the snapshot must not alias the live buckets
	stats.Buckets[0] = 99
	assert.NotEqual(t, int64(99), h.Stats().Buckets[0])
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	assert.Equal(t, m.startTime, m.LastActivity())

	m.Reads.Inc()
	m.NotificationsReceived.Add(3)
	m.ActiveSubscriptions.Set(2)
	m.RecordActivity()

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.Reads)
	assert.Equal(t, int64(3), snap.NotificationsReceived)
	assert.Equal(t, int64(2), snap.ActiveSubscriptions)
	assert.False(t, snap.LastActivity.Before(m.startTime))
}
