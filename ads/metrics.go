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
	"sync"
	"sync/atomic"
	"time"
)

// Counter is a thread-safe counter
type Counter struct {
	value atomic.Int64
}

// Add adds a delta to the counter
func (c *Counter) Add(delta int64) {
	c.value.Add(delta)
}

// Inc increments the counter by 1
func (c *Counter) Inc() {
	c.value.Add(1)
}

// Value returns the current counter value
func (c *Counter) Value() int64 {
	return c.value.Load()
}

// Gauge is a thread-safe gauge that can go up and down
type Gauge struct {
	value atomic.Int64
}

// Set sets the gauge value
func (g *Gauge) Set(value int64) {
	g.value.Store(value)
}

// Inc increments the gauge by 1
func (g *Gauge) Inc() {
	g.value.Add(1)
}

// Dec decrements the gauge by 1
func (g *Gauge) Dec() {
	g.value.Add(-1)
}

// Value returns the current gauge value
func (g *Gauge) Value() int64 {
	return g.value.Load()
}

// LatencyBounds are the upper bounds of the histogram buckets. Samples at or
// above the last bound land in a final overflow bucket.
var LatencyBounds = [...]time.Duration{
	time.Millisecond,
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
	time.Second,
}

// LatencyHistogram tracks latency measurements
type LatencyHistogram struct {
	mu      sync.Mutex
	count   int64
	sum     time.Duration
	min     time.Duration
	max     time.Duration
	buckets [len(LatencyBounds) + 1]int64
}

// NewLatencyHistogram creates a new latency histogram
func NewLatencyHistogram() *LatencyHistogram {
	return &LatencyHistogram{}
}

// Record records a latency measurement
func (h *LatencyHistogram) Record(d time.Duration) {
	idx := len(LatencyBounds)
	for i, bound := range LatencyBounds {
		if d < bound {
			idx = i
			break
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 || d < h.min {
		h.min = d
	}
	if d > h.max {
		h.max = d
	}
	h.count++
	h.sum += d
	h.buckets[idx]++
}

// Stats returns histogram statistics
func (h *LatencyHistogram) Stats() LatencyStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats := LatencyStats{
		Count:   h.count,
		Buckets: h.buckets[:],
	}
	stats.Buckets = append([]int64(nil), stats.Buckets...)

	if h.count > 0 {
		stats.Min = h.min
		stats.Max = h.max
		stats.Avg = h.sum / time.Duration(h.count)
	}
	return stats
}

// LatencyStats contains latency statistics
type LatencyStats struct {
	Count   int64
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	Buckets []int64
}

// Metrics holds manager metrics
type Metrics struct {
	// Connection metrics
	ConnectAttempts   Counter
	ConnectSuccesses  Counter
	ConnectFailures   Counter
	Disconnects       Counter
	ReconnectAttempts Counter
	Reconnects        Counter

	// Operation metrics
	Reads           Counter
	ReadsFailed     Counter
	Writes          Counter
	WritesFailed    Counter
	RejectedOffline Counter

	// Notification metrics
	Subscriptions         Counter
	SubscriptionsFailed   Counter
	NotificationsReceived Counter
	NotificationsDropped  Counter
	DecodeWarnings        Counter
	CallbackPanics        Counter

	// Latency of read and write calls
	RequestLatency *LatencyHistogram

	// Current state
	ActiveSubscriptions Gauge

	// Timestamps
	startTime    time.Time
	lastActivity atomic.Int64
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		RequestLatency: NewLatencyHistogram(),
		startTime:      time.Now(),
	}
}

// RecordActivity records the last activity time
func (m *Metrics) RecordActivity() {
	m.lastActivity.Store(time.Now().UnixNano())
}

// LastActivity returns the last activity time
func (m *Metrics) LastActivity() time.Time {
	ns := m.lastActivity.Load()
	if ns == 0 {
		return m.startTime
	}
	return time.Unix(0, ns)
}

// Uptime returns the time since metrics started
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}

// Snapshot returns a snapshot of current metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Uptime: m.Uptime(),

		ConnectAttempts:   m.ConnectAttempts.Value(),
		ConnectSuccesses:  m.ConnectSuccesses.Value(),
		ConnectFailures:   m.ConnectFailures.Value(),
		Disconnects:       m.Disconnects.Value(),
		ReconnectAttempts: m.ReconnectAttempts.Value(),
		Reconnects:        m.Reconnects.Value(),

		Reads:           m.Reads.Value(),
		ReadsFailed:     m.ReadsFailed.Value(),
		Writes:          m.Writes.Value(),
		WritesFailed:    m.WritesFailed.Value(),
		RejectedOffline: m.RejectedOffline.Value(),

		Subscriptions:         m.Subscriptions.Value(),
		SubscriptionsFailed:   m.SubscriptionsFailed.Value(),
		NotificationsReceived: m.NotificationsReceived.Value(),
		NotificationsDropped:  m.NotificationsDropped.Value(),
		DecodeWarnings:        m.DecodeWarnings.Value(),
		CallbackPanics:        m.CallbackPanics.Value(),

		LatencyStats: m.RequestLatency.Stats(),

		ActiveSubscriptions: m.ActiveSubscriptions.Value(),

		LastActivity: m.LastActivity(),
	}
}

// MetricsSnapshot is a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	Uptime time.Duration

	ConnectAttempts   int64
	ConnectSuccesses  int64
	ConnectFailures   int64
	Disconnects       int64
	ReconnectAttempts int64
	Reconnects        int64

	Reads           int64
	ReadsFailed     int64
	Writes          int64
	WritesFailed    int64
	RejectedOffline int64

	Subscriptions         int64
	SubscriptionsFailed   int64
	NotificationsReceived int64
	NotificationsDropped  int64
	DecodeWarnings        int64
	CallbackPanics        int64

	LatencyStats LatencyStats

	ActiveSubscriptions int64

	LastActivity time.Time
}
