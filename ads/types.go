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

// Package ads provides a session manager for TwinCAT ADS controllers.
//
// The Manager keeps one logical session to a controller alive, serializes
// named-variable reads and writes against it, reconnects with a fixed
// backoff when the transport fails and dispatches device notifications to
// subscribers. The wire protocol itself is provided by a Transport.
package ads

import "strings"

// DefaultPort is the standard ADS/AMS TCP port
const DefaultPort = 48898

// DefaultAMSPort is the AMS port of the first PLC runtime
const DefaultAMSPort = 851

// DefaultStringSize is the buffer size of a TwinCAT STRING (80 characters plus terminator)
const DefaultStringSize = 81

// TypeTag identifies the PLC data type of a variable.
//
// BYTE, WORD and DWORD are bit strings and decode unsigned: a BYTE holding
// 0xff reads as uint8(255). Use TypeSInt for a signed 8-bit value.
type TypeTag uint8

const (
	TypeBool TypeTag = iota
	TypeByte
	TypeInt
	TypeUInt
	TypeSInt
	TypeUSInt
	TypeDInt
	TypeUDInt
	TypeWord
	TypeDWord
	TypeReal
	TypeLReal
	TypeString
	TypeTime
	TypeDate
	TypeDateAndTime
	TypeTimeOfDay

	typeCount
)

var typeNames = [typeCount]string{
	TypeBool:        "bool",
	TypeByte:        "byte",
	TypeInt:         "int",
	TypeUInt:        "uint",
	TypeSInt:        "sint",
	TypeUSInt:       "usint",
	TypeDInt:        "dint",
	TypeUDInt:       "udint",
	TypeWord:        "word",
	TypeDWord:       "dword",
	TypeReal:        "real",
	TypeLReal:       "lreal",
	TypeString:      "string",
	TypeTime:        "time",
	TypeDate:        "date",
	TypeDateAndTime: "dt",
	TypeTimeOfDay:   "tod",
}

// Fixed byte widths. String is variable and bounded by the buffer size.
var typeSizes = [typeCount]int{
	TypeBool:        1,
	TypeByte:        1,
	TypeInt:         2,
	TypeUInt:        2,
	TypeSInt:        1,
	TypeUSInt:       1,
	TypeDInt:        4,
	TypeUDInt:       4,
	TypeWord:        2,
	TypeDWord:       4,
	TypeReal:        4,
	TypeLReal:       8,
	TypeString:      DefaultStringSize,
	TypeTime:        4,
	TypeDate:        4,
	TypeDateAndTime: 4,
	TypeTimeOfDay:   4,
}

// Valid reports whether t is a known type tag
func (t TypeTag) Valid() bool {
	return t < typeCount
}

func (t TypeTag) String() string {
	if !t.Valid() {
		return "unknown"
	}
	return typeNames[t]
}

// Size returns the byte width of the type. For TypeString it returns
// DefaultStringSize; unknown tags return 0.
func (t TypeTag) Size() int {
	if !t.Valid() {
		return 0
	}
	return typeSizes[t]
}

// ParseTypeTag parses a type name such as "dint" or "LREAL"
func ParseTypeTag(s string) (TypeTag, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range typeNames {
		if name == s {
			return TypeTag(i), true
		}
	}
	switch s {
	case "date_and_time":
		return TypeDateAndTime, true
	case "time_of_day":
		return TypeTimeOfDay, true
	}
	return 0, false
}

// TypeTags returns all known type tags in declaration order
func TypeTags() []TypeTag {
	tags := make([]TypeTag, typeCount)
	for i := range tags {
		tags[i] = TypeTag(i)
	}
	return tags
}

// State is the ADS state reported by a controller
type State uint16

const (
	StateInvalid      State = 0
	StateIdle         State = 1
	StateReset        State = 2
	StateInit         State = 3
	StateStart        State = 4
	StateRun          State = 5
	StateStop         State = 6
	StateSaveConfig   State = 7
	StateLoadConfig   State = 8
	StatePowerFailure State = 9
	StatePowerGood    State = 10
	StateError        State = 11
	StateShutdown     State = 12
	StateSuspend      State = 13
	StateResume       State = 14
	StateConfig       State = 15
	StateReconfig     State = 16
)

var stateNames = [...]string{
	StateInvalid:      "invalid",
	StateIdle:         "idle",
	StateReset:        "reset",
	StateInit:         "init",
	StateStart:        "start",
	StateRun:          "run",
	StateStop:         "stop",
	StateSaveConfig:   "save-config",
	StateLoadConfig:   "load-config",
	StatePowerFailure: "power-failure",
	StatePowerGood:    "power-good",
	StateError:        "error",
	StateShutdown:     "shutdown",
	StateSuspend:      "suspend",
	StateResume:       "resume",
	StateConfig:       "config",
	StateReconfig:     "reconfig",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}
