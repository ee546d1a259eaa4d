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

// Package sim provides an in-memory ADS controller implementing ads.Transport.
//
// Variables are held as raw little-endian bytes. Notifications are queued and
// delivered in order on a single goroutine, never on the caller's goroutine.
package sim

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/edgeo/drivers/ads/ads"
)

// Errors returned by the simulated controller
var (
	ErrOffline = errors.New("sim: controller offline")
	ErrNotOpen = errors.New("sim: session not open")
)

type subscription struct {
	handle  ads.NotificationHandle
	name    string
	size    int
	handler ads.NotificationHandler
}

type sample struct {
	handler ads.NotificationHandler
	handle  uint32
	data    []byte
}

// Controller is a simulated ADS device
type Controller struct {
	logger *slog.Logger

	mu         sync.Mutex
	vars       map[string][]byte
	subs       map[uint32]*subscription
	state      ads.State
	open       bool
	offline    bool
	nextHandle uint32

	queueMu sync.Mutex
	queue   []sample
	wake    chan struct{}

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the logger of the controller
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New starts a controller in the Run state with no variables
func New(opts ...Option) *Controller {
	c := &Controller{
		logger: slog.Default(),
		vars:   make(map[string][]byte),
		subs:   make(map[uint32]*subscription),
		state:  ads.StateRun,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.wg.Add(1)
	go c.deliverLoop()
	return c
}

// Stop ends notification delivery. Queued samples are discarded.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
	})
	c.wg.Wait()
}

// Open implements ads.Transport
func (c *Controller) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.offline {
		return ErrOffline
	}
	c.open = true
	return nil
}

// Close implements ads.Transport
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.open = false
	c.subs = make(map[uint32]*subscription)
	return nil
}

// ReadState implements ads.Transport
func (c *Controller) ReadState(ctx context.Context) (ads.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.readyLocked(ctx); err != nil {
		return ads.StateInvalid, err
	}
	return c.state, nil
}

// ReadByName implements ads.Transport
func (c *Controller) ReadByName(ctx context.Context, name string, size int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.readyLocked(ctx); err != nil {
		return nil, err
	}
	raw, err := c.lookupLocked(name, size)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(raw[:size]), nil
}

// WriteByName implements ads.Transport
func (c *Controller) WriteByName(ctx context.Context, name string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.readyLocked(ctx); err != nil {
		return err
	}
	if _, err := c.lookupLocked(name, len(data)); err != nil {
		return err
	}
	c.storeLocked(name, data)
	return nil
}

// AddDeviceNotification implements ads.Transport. The current value is
// queued as the first sample, as an on-change notification does on a real
// device.
func (c *Controller) AddDeviceNotification(ctx context.Context, name string, size int, handler ads.NotificationHandler) (ads.NotificationHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.readyLocked(ctx); err != nil {
		return ads.NotificationHandle{}, err
	}
	raw, err := c.lookupLocked(name, size)
	if err != nil {
		return ads.NotificationHandle{}, err
	}

	c.nextHandle++
	sub := &subscription{
		handle:  ads.NotificationHandle{Notification: c.nextHandle, User: c.nextHandle},
		name:    name,
		size:    size,
		handler: handler,
	}
	c.subs[sub.handle.Notification] = sub
	c.enqueue(sub, raw)

	c.logger.Debug("sim notification added",
		slog.Uint64("handle", uint64(sub.handle.Notification)),
		slog.String("variable", name),
	)
	return sub.handle, nil
}

// DelDeviceNotification implements ads.Transport
func (c *Controller) DelDeviceNotification(ctx context.Context, handle ads.NotificationHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.readyLocked(ctx); err != nil {
		return err
	}
	if _, ok := c.subs[handle.Notification]; !ok {
		return ads.NewDeviceError(ads.ErrorCodeNotifyHandleInvalid)
	}
	delete(c.subs, handle.Notification)
	return nil
}

// Define creates a zeroed variable of the given type. For strings size is
// the buffer size; it is ignored for other types.
func (c *Controller) Define(name string, tag ads.TypeTag, size int) error {
	if !tag.Valid() {
		return &ads.UnsupportedTypeError{Tag: tag}
	}
	if tag != ads.TypeString || size <= 0 {
		size = tag.Size()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.vars[name] = make([]byte, size)
	return nil
}

// Set changes a variable from the controller side, defining it if needed.
// Subscribers are notified when the stored bytes change.
func (c *Controller) Set(name string, tag ads.TypeTag, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := tag.Size()
	if existing, ok := c.vars[name]; ok && tag == ads.TypeString {
		size = len(existing)
	}
	data, err := ads.EncodeSize(tag, value, size)
	if err != nil {
		return err
	}
	if existing, ok := c.vars[name]; !ok || len(existing) != len(data) {
		c.vars[name] = make([]byte, len(data))
	}
	c.storeLocked(name, data)
	return nil
}

// Get returns a copy of the raw bytes of a variable
func (c *Controller) Get(name string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ok := c.vars[name]
	if !ok {
		return nil, false
	}
	return bytes.Clone(raw), true
}

// Symbols returns the variable names in sorted order
func (c *Controller) Symbols() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.vars))
	for name := range c.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetOffline simulates losing the link. Going offline drops the session and
// all of its notification handles; the client must open a new session.
func (c *Controller) SetOffline(offline bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.offline = offline
	if offline {
		c.open = false
		c.subs = make(map[uint32]*subscription)
	}
	c.logger.Debug("sim link changed", slog.Bool("offline", offline))
}

// SetState sets the reported device state
func (c *Controller) SetState(st ads.State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = st
}

// Subscriptions returns the number of live notification handles
func (c *Controller) Subscriptions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

func (c *Controller) readyLocked(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.offline {
		return ErrOffline
	}
	if !c.open {
		return ErrNotOpen
	}
	return nil
}

func (c *Controller) lookupLocked(name string, size int) ([]byte, error) {
	raw, ok := c.vars[name]
	if !ok {
		return nil, ads.NewDeviceError(ads.ErrorCodeSymbolNotFound)
	}
	if size <= 0 || size > len(raw) {
		return nil, ads.NewDeviceError(ads.ErrorCodeInvalidSize)
	}
	return raw, nil
}

// storeLocked overwrites the leading bytes of a variable and notifies its
// subscribers if anything changed
func (c *Controller) storeLocked(name string, data []byte) {
	raw := c.vars[name]
	if bytes.Equal(raw[:len(data)], data) {
		return
	}
	copy(raw, data)

	if !c.open || c.offline {
		return
	}
	for _, sub := range c.sortedSubsLocked() {
		if sub.name == name {
			c.enqueue(sub, raw)
		}
	}
}

func (c *Controller) sortedSubsLocked() []*subscription {
	subs := make([]*subscription, 0, len(c.subs))
	for _, sub := range c.subs {
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].handle.Notification < subs[j].handle.Notification
	})
	return subs
}

func (c *Controller) enqueue(sub *subscription, raw []byte) {
	c.queueMu.Lock()
	c.queue = append(c.queue, sample{
		handler: sub.handler,
		handle:  sub.handle.Notification,
		data:    bytes.Clone(raw[:sub.size]),
	})
	c.queueMu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Controller) deliverLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		case <-c.wake:
		}

		for {
			c.queueMu.Lock()
			if len(c.queue) == 0 {
				c.queueMu.Unlock()
				break
			}
			next := c.queue[0]
			c.queue = c.queue[1:]
			c.queueMu.Unlock()

			select {
			case <-c.done:
				return
			default:
			}
			next.handler(next.handle, next.data)
		}
	}
}
