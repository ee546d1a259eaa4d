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

import "context"

// NotificationHandle identifies a device notification registered with the transport
type NotificationHandle struct {
	Notification uint32
	User         uint32
}

// NotificationHandler receives the raw sample of a device notification.
// Transports call it from their own delivery goroutine, one sample at a time
// per handle, in the order the controller sent them.
type NotificationHandler func(handle uint32, data []byte)

// Transport is the ADS session the Manager drives. Implementations are not
// required to be safe for concurrent use; the Manager serializes every call
// except the delivery of notifications.
type Transport interface {
	// Open establishes the session. Calling Open on an open session is a no-op.
	Open(ctx context.Context) error

	// Close releases the session and invalidates its notification handles.
	// Closing a session that is not open is a no-op.
	Close() error

	// ReadState queries the controller state and doubles as a liveness probe.
	ReadState(ctx context.Context) (State, error)

	// ReadByName reads size bytes of the named variable.
	ReadByName(ctx context.Context, name string, size int) ([]byte, error)

	// WriteByName writes data to the named variable.
	WriteByName(ctx context.Context, name string, data []byte) error

	// AddDeviceNotification registers an on-change notification of size bytes.
	// The handler must not be invoked on the calling goroutine.
	AddDeviceNotification(ctx context.Context, name string, size int, handler NotificationHandler) (NotificationHandle, error)

	// DelDeviceNotification removes a notification registered on this session.
	DelDeviceNotification(ctx context.Context, handle NotificationHandle) error
}
