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
	"github.com/stretchr/testify/require"
)

func descriptor(handle uint32, name string) *Descriptor {
	return &Descriptor{
		Handle:   NotificationHandle{Notification: handle, User: handle + 100},
		Variable: name,
		Type:     TypeBool,
		Size:     1,
		Callback: func(string, any) {},
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 0, r.Len())

	r.Register(descriptor(3, "MAIN.b"))
	r.Register(descriptor(1, "MAIN.a"))
	r.Register(descriptor(2, "MAIN.a"))
	assert.Equal(t, 3, r.Len())

	d, ok := r.Lookup(3)
	require.True(t, ok)
	assert.Equal(t, "MAIN.b", d.Variable)

	_, ok = r.Lookup(42)
	assert.False(t, ok)

	byName := r.ByName("MAIN.a")
	require.Len(t, byName, 2)
	assert.Equal(t, uint32(1), byName[0].Handle.Notification)
	assert.Equal(t, uint32(2), byName[1].Handle.Notification)
	assert.Empty(t, r.ByName("MAIN.missing"))

	all := r.All()
	require.Len(t, all, 3)
	for i, d := range all {
		assert.Equal(t, uint32(i+1), d.Handle.Notification)
	}

	removed, ok := r.Unregister(1)
	require.True(t, ok)
	assert.Equal(t, "MAIN.a", removed.Variable)
	_, ok = r.Unregister(1)
	assert.False(t, ok)
	assert.Equal(t, 2, r.Len())

	r.Reset()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.All())
}

func TestRegistryReplacesHandle(t *testing.T) {
	r := NewRegistry()
	r.Register(descriptor(7, "MAIN.old"))
	r.Register(descriptor(7, "MAIN.new"))

	d, ok := r.Lookup(7)
	require.True(t, ok)
	assert.Equal(t, "MAIN.new", d.Variable)
	assert.Equal(t, 1, r.Len())
}
