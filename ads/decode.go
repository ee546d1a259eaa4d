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
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Decode converts a raw little-endian payload into the Go value for tag.
//
// Result types: bool, uint8 (byte, usint), int8 (sint), int16 (int),
// uint16 (uint, word), int32 (dint, time, date, dt, tod), uint32 (udint,
// dword), float32 (real), float64 (lreal) and string.
//
// Decode never fails outright. For an unknown tag or a payload shorter than
// the tag's width it returns the raw bytes together with an error matching
// ErrUnsupportedType.
func Decode(tag TypeTag, data []byte) (any, error) {
	if tag == TypeString {
		return DecodeString(data), nil
	}
	if !tag.Valid() || len(data) < tag.Size() {
		return data, &UnsupportedTypeError{Tag: tag, Size: len(data)}
	}

	le := binary.LittleEndian
	switch tag {
	case TypeBool:
		return data[0] != 0, nil
	case TypeByte, TypeUSInt:
		return data[0], nil
	case TypeSInt:
		return int8(data[0]), nil
	case TypeInt:
		return int16(le.Uint16(data)), nil
	case TypeUInt, TypeWord:
		return le.Uint16(data), nil
	case TypeDInt, TypeTime, TypeDate, TypeDateAndTime, TypeTimeOfDay:
		return int32(le.Uint32(data)), nil
	case TypeUDInt, TypeDWord:
		return le.Uint32(data), nil
	case TypeReal:
		return math.Float32frombits(le.Uint32(data)), nil
	case TypeLReal:
		return math.Float64frombits(le.Uint64(data)), nil
	}
	return data, &UnsupportedTypeError{Tag: tag, Size: len(data)}
}

// DecodeString decodes a null-terminated string, dropping invalid UTF-8
func DecodeString(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return strings.ToValidUTF8(string(data), "")
}

// Encode converts value into the wire representation of tag. Strings are
// null-padded to DefaultStringSize; use EncodeSize for other buffer sizes.
func Encode(tag TypeTag, value any) ([]byte, error) {
	return EncodeSize(tag, value, tag.Size())
}

// EncodeSize is Encode with an explicit buffer size for strings. The size is
// ignored for fixed-width tags.
func EncodeSize(tag TypeTag, value any, size int) ([]byte, error) {
	if !tag.Valid() {
		return nil, &UnsupportedTypeError{Tag: tag, Size: size}
	}

	if tag == TypeString {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s needs string, got %T", ErrInvalidValue, tag, value)
		}
		if size < 1 {
			size = DefaultStringSize
		}
		buf := make([]byte, size)
		copy(buf[:size-1], s)
		return buf, nil
	}

	buf := make([]byte, tag.Size())
	le := binary.LittleEndian

	switch tag {
	case TypeBool:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: %s needs bool, got %T", ErrInvalidValue, tag, value)
		}
		if b {
			buf[0] = 1
		}
		return buf, nil

	case TypeReal:
		f, err := toFloat(tag, value)
		if err != nil {
			return nil, err
		}
		if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
			return nil, fmt.Errorf("%w: %v overflows %s", ErrInvalidValue, value, tag)
		}
		le.PutUint32(buf, math.Float32bits(float32(f)))
		return buf, nil

	case TypeLReal:
		f, err := toFloat(tag, value)
		if err != nil {
			return nil, err
		}
		le.PutUint64(buf, math.Float64bits(f))
		return buf, nil
	}

	n, err := toInt(tag, value)
	if err != nil {
		return nil, err
	}
	lo, hi := intRange(tag)
	if n < lo || n > hi {
		return nil, fmt.Errorf("%w: %d out of range for %s", ErrInvalidValue, n, tag)
	}

	switch tag.Size() {
	case 1:
		buf[0] = byte(n)
	case 2:
		le.PutUint16(buf, uint16(n))
	case 4:
		le.PutUint32(buf, uint32(n))
	}
	return buf, nil
}

func intRange(tag TypeTag) (int64, int64) {
	switch tag {
	case TypeByte, TypeUSInt:
		return 0, math.MaxUint8
	case TypeSInt:
		return math.MinInt8, math.MaxInt8
	case TypeInt:
		return math.MinInt16, math.MaxInt16
	case TypeUInt, TypeWord:
		return 0, math.MaxUint16
	case TypeUDInt, TypeDWord:
		return 0, math.MaxUint32
	default:
		return math.MinInt32, math.MaxInt32
	}
}

func toInt(tag TypeTag, value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			break
		}
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			break
		}
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("%w: %s needs an integer, got %T", ErrInvalidValue, tag, value)
}

func toFloat(tag TypeTag, value any) (float64, error) {
	switch v := value.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	}
	if n, err := toInt(tag, value); err == nil {
		return float64(n), nil
	}
	return 0, fmt.Errorf("%w: %s needs a number, got %T", ErrInvalidValue, tag, value)
}
