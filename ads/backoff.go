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

import "time"

// BackoffTable holds the reconnection delays. The last entry is the cap.
var BackoffTable = [...]time.Duration{
	1 * time.Second,
	2 * time.Second,
	4 * time.Second,
	8 * time.Second,
	16 * time.Second,
	32 * time.Second,
	60 * time.Second,
}

// BackoffDelay returns the delay before reconnection attempt retryCount (0-based)
func BackoffDelay(retryCount int) time.Duration {
	idx := min(max(retryCount, 0), len(BackoffTable)-1)
	return BackoffTable[idx]
}

// Timer is a pending scheduled function
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. The Manager uses it for reconnection attempts.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type timeScheduler struct{}

func (timeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemScheduler schedules on the runtime timer heap
var SystemScheduler Scheduler = timeScheduler{}
