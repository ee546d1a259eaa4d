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
	"log/slog"
	"time"
)

// managerOptions holds configuration for the Manager
type managerOptions struct {
	// Reconnection
	scheduler   Scheduler
	resubscribe bool

	// Timeouts
	timeout           time.Duration
	firstValueTimeout time.Duration

	// Logging
	logger *slog.Logger
}

// defaultOptions returns the default manager options
func defaultOptions() *managerOptions {
	return &managerOptions{
		scheduler:         SystemScheduler,
		resubscribe:       true,
		timeout:           5 * time.Second,
		firstValueTimeout: 10 * time.Second,
		logger:            slog.Default(),
	}
}

// Option is a functional option for configuring the Manager
type Option func(*managerOptions)

// WithScheduler sets the scheduler used for reconnection attempts.
// A nil scheduler disables automatic reconnection.
func WithScheduler(s Scheduler) Option {
	return func(o *managerOptions) {
		o.scheduler = s
	}
}

// WithResubscribe controls whether notifications are registered again after
// the reconnection task reopens the session
func WithResubscribe(enable bool) Option {
	return func(o *managerOptions) {
		o.resubscribe = enable
	}
}

// WithTimeout sets the timeout applied to background transport calls
// (reconnection probes, resubscription and shutdown cleanup)
func WithTimeout(d time.Duration) Option {
	return func(o *managerOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithFirstValueTimeout sets the default wait used by SubscribeAndWait
func WithFirstValueTimeout(d time.Duration) Option {
	return func(o *managerOptions) {
		if d > 0 {
			o.firstValueTimeout = d
		}
	}
}

// WithLogger sets the logger for the manager
func WithLogger(logger *slog.Logger) Option {
	return func(o *managerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// SubscribeOptions holds configuration for a device notification
type SubscribeOptions struct {
	Size int
}

// SubscribeOption is a functional option for Subscribe
type SubscribeOption func(*SubscribeOptions)

// WithBufferSize sets the notification sample size. Only strings use it;
// the width of fixed-size types always comes from the type tag.
func WithBufferSize(size int) SubscribeOption {
	return func(o *SubscribeOptions) {
		if size > 0 {
			o.Size = size
		}
	}
}

// ReadOptions holds configuration for read and write operations
type ReadOptions struct {
	Size int
}

// ReadOption is a functional option for ReadByName and WriteByName
type ReadOption func(*ReadOptions)

// WithStringSize sets the buffer size of a string variable
func WithStringSize(size int) ReadOption {
	return func(o *ReadOptions) {
		if size > 0 {
			o.Size = size
		}
	}
}

func sampleSize(tag TypeTag, override int) int {
	if tag == TypeString && override > 0 {
		return override
	}
	return tag.Size()
}
