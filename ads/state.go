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
	"fmt"
	"log/slog"
	"sync"
)

// ConnectionObserver is told about every connected/disconnected edge
type ConnectionObserver func(connected bool)

// ObserverID identifies a registered ConnectionObserver
type ObserverID uint64

type observerEntry struct {
	id ObserverID
	fn ConnectionObserver
}

// connectionState is mutated only under Manager.mu, except the observer
// list which has its own lock.
type connectionState struct {
	connected         bool
	retryCount        int
	unavailableLogged bool
	pending           Timer
	gen               uint64
	shutdown          bool

	observersMu sync.Mutex
	observers   []observerEntry
	nextID      ObserverID
}

func (s *connectionState) addObserver(fn ConnectionObserver) ObserverID {
	s.observersMu.Lock()
	defer s.observersMu.Unlock()

	s.nextID++
	s.observers = append(s.observers, observerEntry{id: s.nextID, fn: fn})
	return s.nextID
}

func (s *connectionState) removeObserver(id ObserverID) bool {
	s.observersMu.Lock()
	defer s.observersMu.Unlock()

	for i, o := range s.observers {
		if o.id == id {
			s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
			return true
		}
	}
	return false
}

// notify calls every observer in registration order. A panicking observer is
// logged and does not stop the others.
func (s *connectionState) notify(connected bool, logger *slog.Logger) {
	s.observersMu.Lock()
	observers := make([]observerEntry, len(s.observers))
	copy(observers, s.observers)
	s.observersMu.Unlock()

	for _, o := range observers {
		callObserver(o, connected, logger)
	}
}

func callObserver(o observerEntry, connected bool, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("connection observer failed",
				slog.Uint64("observer", uint64(o.id)),
				slog.String("error", fmt.Sprint(r)),
			)
		}
	}()
	o.fn(connected)
}
