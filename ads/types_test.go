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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeTagSize(t *testing.T) {
	sizes := map[TypeTag]int{
		TypeBool:        1,
		TypeByte:        1,
		TypeSInt:        1,
		TypeUSInt:       1,
		TypeInt:         2,
		TypeUInt:        2,
		TypeWord:        2,
		TypeDInt:        4,
		TypeUDInt:       4,
		TypeDWord:       4,
		TypeReal:        4,
		TypeLReal:       8,
		TypeString:      DefaultStringSize,
		TypeTime:        4,
		TypeDate:        4,
		TypeDateAndTime: 4,
		TypeTimeOfDay:   4,
	}

	assert.Len(t, TypeTags(), len(sizes))
	for _, tag := range TypeTags() {
		assert.Equal(t, sizes[tag], tag.Size(), tag.String())
	}
	assert.Equal(t, 0, TypeTag(250).Size())
}

func TestParseTypeTag(t *testing.T) {
	tests := []struct {
		in   string
		want TypeTag
		ok   bool
	}{
		{"bool", TypeBool, true},
		{"DINT", TypeDInt, true},
		{" lreal ", TypeLReal, true},
		{"string", TypeString, true},
		{"dt", TypeDateAndTime, true},
		{"date_and_time", TypeDateAndTime, true},
		{"TIME_OF_DAY", TypeTimeOfDay, true},
		{"tod", TypeTimeOfDay, true},
		{"float", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseTypeTag(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}

func TestTypeTagString(t *testing.T) {
	for _, tag := range TypeTags() {
		parsed, ok := ParseTypeTag(tag.String())
		assert.True(t, ok)
		assert.Equal(t, tag, parsed)
	}
	assert.Equal(t, "unknown", TypeTag(99).String())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "run", StateRun.String())
	assert.Equal(t, "stop", StateStop.String())
	assert.Equal(t, "config", StateConfig.String())
	assert.Equal(t, "invalid", StateInvalid.String())
	assert.Equal(t, "reconfig", StateReconfig.String())
	assert.Equal(t, "unknown", State(StateReconfig+1).String())
	assert.Equal(t, "unknown", State(200).String())
}
