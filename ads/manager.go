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
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Manager owns the session to one ADS controller.
//
// All transport calls and connection state changes are serialized by a
// single lock. Notification callbacks run synchronously on the transport's
// delivery goroutine, outside that lock, for every subscriber alike.
// Connection observers run while the lock is held; they may call Connected
// and SessionID but must hand any other Manager call off to their own
// goroutine.
type Manager struct {
	cfg       Config
	opts      *managerOptions
	transport Transport
	logger    *slog.Logger
	metrics   *Metrics

	mu       sync.Mutex
	state    connectionState
	registry *Registry

	connected atomic.Bool
	sessionID atomic.Value
}

// NewManager creates a manager for the controller described by cfg. The
// session is not opened until Open is called.
func NewManager(cfg Config, t Transport, opts ...Option) (*Manager, error) {
	if t == nil {
		return nil, ErrNilTransport
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	m := &Manager{
		cfg:       cfg,
		opts:      options,
		transport: t,
		logger:    options.logger.With(slog.String("target", cfg.String())),
		metrics:   NewMetrics(),
		registry:  NewRegistry(),
	}
	m.sessionID.Store("")
	return m, nil
}

// Config returns the target configuration
func (m *Manager) Config() Config {
	return m.cfg
}

// Metrics returns the manager metrics
func (m *Manager) Metrics() *Metrics {
	return m.metrics
}

// Connected reports the last known liveness without probing
func (m *Manager) Connected() bool {
	return m.connected.Load()
}

// SessionID returns the id of the current session, or "" before the first
// successful open. A new id is assigned on every (re)connection.
func (m *Manager) SessionID() string {
	return m.sessionID.Load().(string)
}

// RetryCount returns the number of failed reconnection attempts since the
// last successful connection
func (m *Manager) RetryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.retryCount
}

// ReconnectPending reports whether a reconnection attempt is scheduled
func (m *Manager) ReconnectPending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.pending != nil
}

// AddConnectionObserver registers fn for connected/disconnected edges
func (m *Manager) AddConnectionObserver(fn ConnectionObserver) ObserverID {
	return m.state.addObserver(fn)
}

// RemoveConnectionObserver unregisters an observer. Unknown ids are ignored.
func (m *Manager) RemoveConnectionObserver(id ObserverID) {
	m.state.removeObserver(id)
}

// Open establishes the session. A failure is not fatal: the manager stays
// disconnected and schedules a reconnection attempt.
func (m *Manager) Open(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.shutdown {
		return ErrShutdown
	}

	m.metrics.ConnectAttempts.Inc()
	if err := m.transport.Open(ctx); err != nil {
		m.metrics.ConnectFailures.Inc()
		m.logger.Error("failed to connect to ADS device", slog.String("error", err.Error()))
		m.markDisconnectedLocked()
		m.scheduleReconnectLocked()
		return &ProtocolError{Op: "open", Err: err}
	}

	m.metrics.ConnectSuccesses.Inc()
	m.newSessionLocked()
	m.logger.Info("connected to ADS device", slog.String("session_id", m.SessionID()))
	m.markConnectedLocked()
	return nil
}

// CheckConnection probes the controller and returns the resulting liveness.
// Observers are notified only when the state changes.
func (m *Manager) CheckConnection(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.shutdown {
		return false
	}

	if _, err := m.transport.ReadState(ctx); err != nil {
		if m.state.connected {
			m.logger.Error("lost connection to ADS device", slog.String("error", err.Error()))
		}
		m.markDisconnectedLocked()
		m.scheduleReconnectLocked()
		return false
	}

	if !m.state.connected {
		m.logger.Info("ADS connection restored")
	}
	m.markConnectedLocked()
	return true
}

// ReadState returns the controller state. Failures are handled like any
// other transport failure.
func (m *Manager) ReadState(ctx context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.readyLocked("read state", ""); err != nil {
		return StateInvalid, err
	}

	st, err := m.transport.ReadState(ctx)
	if err != nil {
		return StateInvalid, m.transportFailedLocked("read state", "", err)
	}
	return st, nil
}

// ReadByName reads and decodes a variable. While disconnected it fails with
// ErrNotConnected without touching the transport. The read is not retried.
func (m *Manager) ReadByName(ctx context.Context, name string, tag TypeTag, opts ...ReadOption) (any, error) {
	options := &ReadOptions{}
	for _, opt := range opts {
		opt(options)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.readyLocked("read", name); err != nil {
		return nil, err
	}

	m.metrics.Reads.Inc()
	start := time.Now()
	data, err := m.transport.ReadByName(ctx, name, sampleSize(tag, options.Size))
	m.metrics.RequestLatency.Record(time.Since(start))
	if err != nil {
		m.metrics.ReadsFailed.Inc()
		m.logger.Error("error reading variable", slog.String("variable", name), slog.String("error", err.Error()))
		return nil, m.transportFailedLocked("read", name, err)
	}
	m.metrics.RecordActivity()

	return Decode(tag, data)
}

// WriteByName encodes value as tag and writes it. While disconnected it fails
// with ErrNotConnected without touching the transport. The write is not retried.
func (m *Manager) WriteByName(ctx context.Context, name string, value any, tag TypeTag, opts ...ReadOption) error {
	options := &ReadOptions{}
	for _, opt := range opts {
		opt(options)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.readyLocked("write", name); err != nil {
		return err
	}

	data, err := EncodeSize(tag, value, sampleSize(tag, options.Size))
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	m.metrics.Writes.Inc()
	start := time.Now()
	err = m.transport.WriteByName(ctx, name, data)
	m.metrics.RequestLatency.Record(time.Since(start))
	if err != nil {
		m.metrics.WritesFailed.Inc()
		m.logger.Error("error writing variable", slog.String("variable", name), slog.String("error", err.Error()))
		return m.transportFailedLocked("write", name, err)
	}
	m.metrics.RecordActivity()
	return nil
}

// Subscribe registers an on-change device notification for a variable. The
// sample size is the width of tag, or the buffer size for strings.
func (m *Manager) Subscribe(ctx context.Context, name string, tag TypeTag, cb NotificationCallback, opts ...SubscribeOption) error {
	if cb == nil {
		return fmt.Errorf("ads: subscribe %s: nil callback", name)
	}

	options := &SubscribeOptions{}
	for _, opt := range opts {
		opt(options)
	}
	size := sampleSize(tag, options.Size)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.readyLocked("subscribe", name); err != nil {
		return err
	}

	handle, err := m.transport.AddDeviceNotification(ctx, name, size, m.Dispatch)
	if err != nil {
		m.metrics.SubscriptionsFailed.Inc()
		m.logger.Error("error subscribing to variable", slog.String("variable", name), slog.String("error", err.Error()))
		return m.transportFailedLocked("subscribe", name, err)
	}

	m.registry.Register(&Descriptor{
		Handle:   handle,
		Variable: name,
		Type:     tag,
		Size:     size,
		Callback: cb,
	})
	m.metrics.Subscriptions.Inc()
	m.metrics.ActiveSubscriptions.Inc()

	m.logger.Debug("added device notification",
		slog.Uint64("handle", uint64(handle.Notification)),
		slog.String("variable", name),
		slog.String("type", tag.String()),
	)
	return nil
}

// SubscribeAndWait subscribes and then waits for the first notification. It
// returns false with a nil error when the first-value timeout expires first.
func (m *Manager) SubscribeAndWait(ctx context.Context, name string, tag TypeTag, cb NotificationCallback, opts ...SubscribeOption) (bool, error) {
	if cb == nil {
		return false, fmt.Errorf("ads: subscribe %s: nil callback", name)
	}

	first := make(chan struct{})
	var once sync.Once
	wrapped := func(name string, value any) {
		cb(name, value)
		once.Do(func() { close(first) })
	}

	if err := m.Subscribe(ctx, name, tag, wrapped, opts...); err != nil {
		return false, err
	}

	timer := time.NewTimer(m.opts.firstValueTimeout)
	defer timer.Stop()

	select {
	case <-first:
		return true, nil
	case <-timer.C:
		m.logger.Debug("timeout during first update", slog.String("variable", name))
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Unsubscribe deletes every notification registered for the variable
func (m *Manager) Unsubscribe(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	descriptors := m.registry.ByName(name)
	if len(descriptors) == 0 {
		return fmt.Errorf("%w: %s", ErrNotSubscribed, name)
	}

	var errs []error
	for _, d := range descriptors {
		m.registry.Unregister(d.Handle.Notification)
		m.metrics.ActiveSubscriptions.Dec()

		// Handles of a dead session are already gone on the controller side.
		if !m.state.connected {
			continue
		}
		if err := m.transport.DelDeviceNotification(ctx, d.Handle); err != nil {
			m.logger.Error("error deleting device notification",
				slog.Uint64("handle", uint64(d.Handle.Notification)),
				slog.String("variable", name),
				slog.String("error", err.Error()),
			)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return &ProtocolError{Op: "unsubscribe", Variable: name, Err: errors.Join(errs...)}
	}
	return nil
}

// Dispatch routes a raw notification sample to its subscriber. It is the
// NotificationHandler handed to the transport. Samples for unknown handles
// are logged and dropped.
func (m *Manager) Dispatch(handle uint32, data []byte) {
	m.mu.Lock()
	d, ok := m.registry.Lookup(handle)
	m.mu.Unlock()

	m.metrics.NotificationsReceived.Inc()
	m.metrics.RecordActivity()

	if !ok {
		m.metrics.NotificationsDropped.Inc()
		m.logger.Warn("unknown device notification handle", slog.Uint64("handle", uint64(handle)))
		return
	}

	value, err := Decode(d.Type, data)
	if err != nil {
		m.metrics.DecodeWarnings.Inc()
		m.logger.Warn("no decoder available for this data type",
			slog.String("variable", d.Variable),
			slog.String("type", d.Type.String()),
			slog.Int("size", len(data)),
		)
		value = bytes.Clone(data)
	}

	m.invoke(d, value)
}

func (m *Manager) invoke(d *Descriptor, value any) {
	defer func() {
		if r := recover(); r != nil {
			m.metrics.CallbackPanics.Inc()
			m.logger.Error("notification callback failed",
				slog.String("variable", d.Variable),
				slog.String("error", fmt.Sprint(r)),
			)
		}
	}()
	d.Callback(d.Variable, value)
}

// Monitor calls CheckConnection every interval until ctx is done
func (m *Manager) Monitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, m.opts.timeout)
			m.CheckConnection(probeCtx)
			cancel()
		}
	}
}

// Shutdown cancels any pending reconnection, deletes every registered
// notification and closes the session. Individual delete failures are logged
// and collected in a *ShutdownError; cleanup continues past them. Calling
// Shutdown again is a no-op.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.shutdown {
		return nil
	}
	m.logger.Debug("shutting down ADS")
	m.state.shutdown = true

	m.cancelReconnectLocked()

	var shutdownErr ShutdownError
	for _, d := range m.registry.All() {
		m.logger.Debug("deleting device notification",
			slog.Uint64("handle", uint64(d.Handle.Notification)),
			slog.Uint64("user", uint64(d.Handle.User)),
		)
		if err := m.transport.DelDeviceNotification(ctx, d.Handle); err != nil {
			m.logger.Error("error deleting device notification",
				slog.Uint64("handle", uint64(d.Handle.Notification)),
				slog.String("variable", d.Variable),
				slog.String("error", err.Error()),
			)
			shutdownErr.Failures = append(shutdownErr.Failures, UnregisterFailure{
				Handle:   d.Handle,
				Variable: d.Variable,
				Err:      err,
			})
		}
	}
	m.registry.Reset()
	m.metrics.ActiveSubscriptions.Set(0)

	if err := m.transport.Close(); err != nil {
		m.logger.Error("error closing ADS session", slog.String("error", err.Error()))
		shutdownErr.CloseErr = err
	}
	m.state.connected = false
	m.connected.Store(false)

	if len(shutdownErr.Failures) > 0 || shutdownErr.CloseErr != nil {
		return &shutdownErr
	}
	return nil
}

// readyLocked rejects operations on a shut down or disconnected manager
func (m *Manager) readyLocked(op, name string) error {
	if m.state.shutdown {
		return ErrShutdown
	}
	if !m.state.connected {
		m.metrics.RejectedOffline.Inc()
		m.logger.Error("cannot "+op+": not connected", slog.String("variable", name))
		if name == "" {
			return fmt.Errorf("%w: %s", ErrNotConnected, op)
		}
		return fmt.Errorf("%w: %s %s", ErrNotConnected, op, name)
	}
	return nil
}

// transportFailedLocked turns a transport failure into a disconnect edge and
// a reconnection schedule
func (m *Manager) transportFailedLocked(op, name string, err error) error {
	m.markDisconnectedLocked()
	m.scheduleReconnectLocked()
	return &ProtocolError{Op: op, Variable: name, Err: err}
}

func (m *Manager) markConnectedLocked() {
	m.state.retryCount = 0
	m.cancelReconnectLocked()
	if m.state.connected {
		return
	}

	m.state.connected = true
	m.connected.Store(true)
	if m.state.unavailableLogged {
		m.logger.Info("ADS device is back online")
		m.state.unavailableLogged = false
	}
	m.state.notify(true, m.logger)
}

func (m *Manager) markDisconnectedLocked() {
	if !m.state.connected {
		return
	}

	m.state.connected = false
	m.connected.Store(false)
	m.metrics.Disconnects.Inc()
	m.logUnavailableLocked(nil)
	m.state.notify(false, m.logger)
}

func (m *Manager) logUnavailableLocked(err error) {
	if m.state.unavailableLogged {
		return
	}
	m.state.unavailableLogged = true
	if err != nil {
		m.logger.Info("ADS device is unavailable", slog.String("error", err.Error()))
		return
	}
	m.logger.Info("ADS device is unavailable")
}

func (m *Manager) newSessionLocked() {
	m.sessionID.Store(uuid.NewString())
}

// scheduleReconnectLocked arms the reconnection timer unless one is already
// pending, the manager is shut down or no scheduler is configured
func (m *Manager) scheduleReconnectLocked() {
	if m.opts.scheduler == nil || m.state.shutdown || m.state.pending != nil {
		return
	}

	delay := BackoffDelay(m.state.retryCount)
	m.logger.Debug("scheduling reconnection",
		slog.Duration("delay", delay),
		slog.Int("retry_count", m.state.retryCount),
	)
	m.state.gen++
	gen := m.state.gen
	m.state.pending = m.opts.scheduler.AfterFunc(delay, func() { m.reconnect(gen) })
}

// cancelReconnectLocked stops the pending reconnection. A task whose timer
// already fired sees a newer generation and returns without acting.
func (m *Manager) cancelReconnectLocked() {
	if m.state.pending == nil {
		return
	}
	m.state.pending.Stop()
	m.state.pending = nil
	m.state.gen++
}

// reconnect is the body of the scheduled reconnection task of generation gen
func (m *Manager) reconnect(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.state.gen {
		return
	}
	m.state.pending = nil
	if m.state.shutdown || m.state.connected {
		return
	}

	m.metrics.ReconnectAttempts.Inc()
	ctx, cancel := context.WithTimeout(context.Background(), m.opts.timeout)
	defer cancel()

	if err := m.reopenLocked(ctx); err != nil {
		m.state.retryCount++
		m.logger.Debug("reconnection attempt failed",
			slog.Int("retry_count", m.state.retryCount),
			slog.String("error", err.Error()),
		)
		m.logUnavailableLocked(err)
		m.scheduleReconnectLocked()
		return
	}

	m.metrics.Reconnects.Inc()
	m.newSessionLocked()
	m.logger.Info("reconnected to ADS device", slog.String("session_id", m.SessionID()))

	if m.opts.resubscribe {
		m.resubscribeLocked(ctx)
	} else {
		m.dropSubscriptionsLocked()
	}
	m.markConnectedLocked()
}

// reopenLocked replaces the session and verifies it with a state probe
func (m *Manager) reopenLocked(ctx context.Context) error {
	if err := m.transport.Close(); err != nil {
		m.logger.Debug("closing stale session failed", slog.String("error", err.Error()))
	}
	if err := m.transport.Open(ctx); err != nil {
		return err
	}
	if _, err := m.transport.ReadState(ctx); err != nil {
		return err
	}
	return nil
}

// dropSubscriptionsLocked forgets every descriptor; their handles died with
// the previous session
func (m *Manager) dropSubscriptionsLocked() {
	if m.registry.Len() == 0 {
		return
	}
	m.logger.Info("dropping device notifications of the previous session",
		slog.Int("count", m.registry.Len()),
	)
	m.registry.Reset()
	m.metrics.ActiveSubscriptions.Set(0)
}

// resubscribeLocked registers every descriptor on the new session. Handles
// from the old session are dead, so descriptors are rekeyed; one that cannot
// be registered again is dropped.
func (m *Manager) resubscribeLocked(ctx context.Context) {
	previous := m.registry.All()
	m.registry.Reset()

	for _, d := range previous {
		handle, err := m.transport.AddDeviceNotification(ctx, d.Variable, d.Size, m.Dispatch)
		if err != nil {
			m.metrics.ActiveSubscriptions.Dec()
			m.logger.Warn("dropping device notification after reconnect",
				slog.String("variable", d.Variable),
				slog.String("error", err.Error()),
			)
			continue
		}

		next := *d
		next.Handle = handle
		m.registry.Register(&next)
		m.logger.Debug("restored device notification",
			slog.Uint64("handle", uint64(handle.Notification)),
			slog.String("variable", d.Variable),
		)
	}
}
