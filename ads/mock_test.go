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
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

type mockTransport struct {
	mock.Mock

	mu       sync.Mutex
	handlers []NotificationHandler
}

func (t *mockTransport) Open(ctx context.Context) error {
	return t.Called(ctx).Error(0)
}

func (t *mockTransport) Close() error {
	return t.Called().Error(0)
}

func (t *mockTransport) ReadState(ctx context.Context) (State, error) {
	args := t.Called(ctx)
	return args.Get(0).(State), args.Error(1)
}

func (t *mockTransport) ReadByName(ctx context.Context, name string, size int) ([]byte, error) {
	args := t.Called(ctx, name, size)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (t *mockTransport) WriteByName(ctx context.Context, name string, data []byte) error {
	return t.Called(ctx, name, data).Error(0)
}

func (t *mockTransport) AddDeviceNotification(ctx context.Context, name string, size int, handler NotificationHandler) (NotificationHandle, error) {
	t.mu.Lock()
	t.handlers = append(t.handlers, handler)
	t.mu.Unlock()

	args := t.Called(ctx, name, size, mock.Anything)
	return args.Get(0).(NotificationHandle), args.Error(1)
}

func (t *mockTransport) DelDeviceNotification(ctx context.Context, handle NotificationHandle) error {
	return t.Called(ctx, handle).Error(0)
}

// deliver sends a sample through the most recently registered handler
func (t *mockTransport) deliver(handle uint32, data []byte) {
	t.mu.Lock()
	h := t.handlers[len(t.handlers)-1]
	t.mu.Unlock()
	h(handle, data)
}

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

// fakeScheduler records scheduled functions; tests fire them by hand
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &fakeTimer{delay: d, fn: f}
	s.timers = append(s.timers, t)
	return &fakeTimerHandle{s: s, t: t}
}

type fakeTimerHandle struct {
	s *fakeScheduler
	t *fakeTimer
}

func (h *fakeTimerHandle) Stop() bool {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	active := !h.t.stopped && !h.t.fired
	h.t.stopped = true
	return active
}

func (s *fakeScheduler) pending() []*fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

func (s *fakeScheduler) delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]time.Duration, len(s.timers))
	for i, t := range s.timers {
		out[i] = t.delay
	}
	return out
}

// fire runs the pending timer and reports whether there was one
func (s *fakeScheduler) fire() bool {
	s.mu.Lock()
	var next *fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			next = t
			break
		}
	}
	if next != nil {
		next.fired = true
	}
	s.mu.Unlock()

	if next == nil {
		return false
	}
	next.fn()
	return true
}

// take marks the pending timer as fired without running it, like a timer
// whose goroutine has not yet acquired the manager lock
func (s *fakeScheduler) take() *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			return t
		}
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type observerLog struct {
	mu     sync.Mutex
	events []bool
}

func (o *observerLog) record(connected bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, connected)
}

func (o *observerLog) get() []bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]bool(nil), o.events...)
}
