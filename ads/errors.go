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
	"strings"
)

// Sentinel errors
var (
	ErrNotConnected    = errors.New("ads: not connected")
	ErrProtocol        = errors.New("ads: protocol error")
	ErrUnknownHandle   = errors.New("ads: unknown notification handle")
	ErrUnsupportedType = errors.New("ads: unsupported type")
	ErrInvalidValue    = errors.New("ads: invalid value for type")
	ErrInvalidNetID    = errors.New("ads: invalid AMS net id")
	ErrInvalidPort     = errors.New("ads: invalid port")
	ErrShutdown        = errors.New("ads: manager shut down")
	ErrNotSubscribed   = errors.New("ads: variable not subscribed")
	ErrNilTransport    = errors.New("ads: transport is nil")
)

// ProtocolError wraps a failure reported by the transport during an operation
type ProtocolError struct {
	Op       string
	Variable string
	Err      error
}

func (e *ProtocolError) Error() string {
	if e.Variable != "" {
		return fmt.Sprintf("ads: %s %s: %v", e.Op, e.Variable, e.Err)
	}
	return fmt.Sprintf("ads: %s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}

// ErrorCode is an ADS return code
type ErrorCode uint32

const (
	ErrorCodeNoError              ErrorCode = 0x0000
	ErrorCodeInternal             ErrorCode = 0x0001
	ErrorCodeNoRuntime            ErrorCode = 0x0002
	ErrorCodeTargetPortNotFound   ErrorCode = 0x0006
	ErrorCodeTargetMachineMissing ErrorCode = 0x0007
	ErrorCodeUnknownCommand       ErrorCode = 0x0008
	ErrorCodeDeviceError          ErrorCode = 0x0700
	ErrorCodeServiceNotSupported  ErrorCode = 0x0701
	ErrorCodeInvalidIndexGroup    ErrorCode = 0x0702
	ErrorCodeInvalidIndexOffset   ErrorCode = 0x0703
	ErrorCodeInvalidAccess        ErrorCode = 0x0704
	ErrorCodeInvalidSize          ErrorCode = 0x0705
	ErrorCodeInvalidData          ErrorCode = 0x0706
	ErrorCodeNotReady             ErrorCode = 0x0707
	ErrorCodeBusy                 ErrorCode = 0x0708
	ErrorCodeSymbolNotFound       ErrorCode = 0x0710
	ErrorCodeSymbolVersionInvalid ErrorCode = 0x0711
	ErrorCodeInvalidState         ErrorCode = 0x0712
	ErrorCodeNotifyHandleInvalid  ErrorCode = 0x0714
	ErrorCodeTimeout              ErrorCode = 0x0719
	ErrorCodeClientTimeout        ErrorCode = 0x0745
	ErrorCodePortNotOpen          ErrorCode = 0x0748
	ErrorCodeNoAMSAddress         ErrorCode = 0x0749
	ErrorCodeNoRouterMemory       ErrorCode = 0x0750
	ErrorCodePortDisconnected     ErrorCode = 0x1861
)

func (c ErrorCode) String() string {
	names := map[ErrorCode]string{
		ErrorCodeNoError:              "no-error",
		ErrorCodeInternal:             "internal-error",
		ErrorCodeNoRuntime:            "no-runtime",
		ErrorCodeTargetPortNotFound:   "target-port-not-found",
		ErrorCodeTargetMachineMissing: "target-machine-not-found",
		ErrorCodeUnknownCommand:       "unknown-command",
		ErrorCodeDeviceError:          "device-error",
		ErrorCodeServiceNotSupported:  "service-not-supported",
		ErrorCodeInvalidIndexGroup:    "invalid-index-group",
		ErrorCodeInvalidIndexOffset:   "invalid-index-offset",
		ErrorCodeInvalidAccess:        "invalid-access",
		ErrorCodeInvalidSize:          "invalid-size",
		ErrorCodeInvalidData:          "invalid-data",
		ErrorCodeNotReady:             "not-ready",
		ErrorCodeBusy:                 "busy",
		ErrorCodeSymbolNotFound:       "symbol-not-found",
		ErrorCodeSymbolVersionInvalid: "symbol-version-invalid",
		ErrorCodeInvalidState:         "invalid-state",
		ErrorCodeNotifyHandleInvalid:  "notification-handle-invalid",
		ErrorCodeTimeout:              "device-timeout",
		ErrorCodeClientTimeout:        "client-timeout",
		ErrorCodePortNotOpen:          "port-not-open",
		ErrorCodeNoAMSAddress:         "no-ams-address",
		ErrorCodeNoRouterMemory:       "no-router-memory",
		ErrorCodePortDisconnected:     "port-disconnected",
	}
	if name, ok := names[c]; ok {
		return name
	}
	return fmt.Sprintf("error-code(0x%04x)", uint32(c))
}

// DeviceError is an ADS return code reported by the controller or router
type DeviceError struct {
	Code ErrorCode
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("ads error 0x%04x: %s", uint32(e.Code), e.Code)
}

func (e *DeviceError) Is(target error) bool {
	t, ok := target.(*DeviceError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDeviceError creates a new device error
func NewDeviceError(code ErrorCode) *DeviceError {
	return &DeviceError{Code: code}
}

// UnsupportedTypeError reports a tag/width combination the decoder does not handle
type UnsupportedTypeError struct {
	Tag  TypeTag
	Size int
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("ads: unsupported type %s with %d bytes", e.Tag, e.Size)
}

func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}

// UnregisterFailure records one notification that could not be deleted
type UnregisterFailure struct {
	Handle   NotificationHandle
	Variable string
	Err      error
}

// ShutdownError reports notifications that failed to unregister during shutdown
type ShutdownError struct {
	Failures []UnregisterFailure
	CloseErr error
}

func (e *ShutdownError) Error() string {
	parts := make([]string, 0, len(e.Failures)+1)
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s (handle %d): %v", f.Variable, f.Handle.Notification, f.Err))
	}
	if e.CloseErr != nil {
		parts = append(parts, fmt.Sprintf("close: %v", e.CloseErr))
	}
	return "ads: shutdown incomplete: " + strings.Join(parts, "; ")
}

func (e *ShutdownError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures)+1)
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	if e.CloseErr != nil {
		errs = append(errs, e.CloseErr)
	}
	return errs
}

// IsNotConnected returns true if the operation was rejected locally because the session is down
func IsNotConnected(err error) bool {
	return errors.Is(err, ErrNotConnected)
}

// IsProtocolError returns true if the transport reported the failure
func IsProtocolError(err error) bool {
	return errors.Is(err, ErrProtocol)
}

// IsSymbolNotFound returns true if the controller does not know the variable
func IsSymbolNotFound(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Code == ErrorCodeSymbolNotFound
	}
	return false
}

// IsTimeout returns true if the error is a device or client timeout
func IsTimeout(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Code == ErrorCodeTimeout || devErr.Code == ErrorCodeClientTimeout
	}
	return false
}
