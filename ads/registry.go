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

import "sort"

// NotificationCallback is called with the decoded value of a subscribed variable
type NotificationCallback func(name string, value any)

// Descriptor describes one registered device notification
type Descriptor struct {
	Handle   NotificationHandle
	Variable string
	Type     TypeTag
	Size     int
	Callback NotificationCallback
}

// Registry maps notification handles to their descriptors.
// It is not synchronized; the Manager guards it with its session lock.
type Registry struct {
	items map[uint32]*Descriptor
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{items: make(map[uint32]*Descriptor)}
}

// Register stores d under its notification handle, replacing any previous entry
func (r *Registry) Register(d *Descriptor) {
	r.items[d.Handle.Notification] = d
}

// Unregister removes and returns the descriptor for handle
func (r *Registry) Unregister(handle uint32) (*Descriptor, bool) {
	d, ok := r.items[handle]
	if ok {
		delete(r.items, handle)
	}
	return d, ok
}

// Lookup returns the descriptor for handle
func (r *Registry) Lookup(handle uint32) (*Descriptor, bool) {
	d, ok := r.items[handle]
	return d, ok
}

// ByName returns every descriptor subscribed to the variable, ordered by handle
func (r *Registry) ByName(name string) []*Descriptor {
	var out []*Descriptor
	for _, d := range r.items {
		if d.Variable == name {
			out = append(out, d)
		}
	}
	sortByHandle(out)
	return out
}

// All returns every descriptor ordered by handle
func (r *Registry) All() []*Descriptor {
	out := make([]*Descriptor, 0, len(r.items))
	for _, d := range r.items {
		out = append(out, d)
	}
	sortByHandle(out)
	return out
}

// Len returns the number of registered descriptors
func (r *Registry) Len() int {
	return len(r.items)
}

// Reset removes every descriptor
func (r *Registry) Reset() {
	r.items = make(map[uint32]*Descriptor)
}

func sortByHandle(ds []*Descriptor) {
	sort.Slice(ds, func(i, j int) bool {
		return ds[i].Handle.Notification < ds[j].Handle.Notification
	})
}
