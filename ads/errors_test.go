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
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProtocolError(t *testing.T) {
	cause := NewDeviceError(ErrorCodeSymbolNotFound)
	err := error(&ProtocolError{Op: "read", Variable: "MAIN.x", Err: cause})

	assert.Equal(t, "ads: read MAIN.x: ads error 0x0710: symbol-not-found", err.Error())
	assert.True(t, IsProtocolError(err))
	assert.True(t, IsSymbolNotFound(err))
	assert.False(t, IsTimeout(err))
	assert.False(t, IsNotConnected(err))
	assert.ErrorIs(t, err, NewDeviceError(ErrorCodeSymbolNotFound))
	assert.NotErrorIs(t, err, NewDeviceError(ErrorCodeTimeout))

	plain := &ProtocolError{Op: "open", Err: errors.New("refused")}
	assert.Equal(t, "ads: open: refused", plain.Error())
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(NewDeviceError(ErrorCodeTimeout)))
	assert.True(t, IsTimeout(fmt.Errorf("wrapped: %w", NewDeviceError(ErrorCodeClientTimeout))))
	assert.False(t, IsTimeout(errors.New("timeout")))
}

func TestErrorCodeString(t *testing.T) {
	assert.Equal(t, "port-disconnected", ErrorCodePortDisconnected.String())
	assert.Equal(t, "error-code(0x1234)", ErrorCode(0x1234).String())
}

func TestShutdownError(t *testing.T) {
	first := errors.New("handle gone")
	closeErr := errors.New("router closed")
	err := &ShutdownError{
		Failures: []UnregisterFailure{
			{Handle: NotificationHandle{Notification: 2}, Variable: "MAIN.b", Err: first},
		},
		CloseErr: closeErr,
	}

	assert.Equal(t, "ads: shutdown incomplete: MAIN.b (handle 2): handle gone; close: router closed", err.Error())
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, closeErr)

	var target *ShutdownError
	require.True(t, errors.As(error(err), &target))
	assert.Len(t, target.Failures, 1)
}

func TestNotConnectedWrapping(t *testing.T) {
	err := fmt.Errorf("%w: read MAIN.x", ErrNotConnected)
	assert.True(t, IsNotConnected(err))
	assert.False(t, IsProtocolError(err))
}
