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
	"strconv"
	"strings"
)

// AMSNetID is the six-octet address of an ADS device
type AMSNetID [6]byte

// ParseAMSNetID parses an address of the form "5.12.34.56.1.1"
func ParseAMSNetID(s string) (AMSNetID, error) {
	var id AMSNetID
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != len(id) {
		return id, fmt.Errorf("%w: %q needs 6 octets", ErrInvalidNetID, s)
	}
	for i, part := range parts {
		n, err := strconv.ParseUint(part, 10, 8)
		if err != nil {
			return AMSNetID{}, fmt.Errorf("%w: %q octet %d", ErrInvalidNetID, s, i+1)
		}
		id[i] = byte(n)
	}
	return id, nil
}

func (id AMSNetID) String() string {
	return fmt.Sprintf("%d.%d.%d.%d.%d.%d", id[0], id[1], id[2], id[3], id[4], id[5])
}

// Config identifies the target controller
type Config struct {
	// NetID is the AMS net id of the target, e.g. "5.12.34.56.1.1"
	NetID string `mapstructure:"net_id" yaml:"net_id"`

	// Port is the AMS port of the target runtime
	Port int `mapstructure:"port" yaml:"port"`

	// IPAddress optionally routes to the target over this address
	IPAddress string `mapstructure:"ip_address" yaml:"ip_address,omitempty"`
}

// Validate checks the net id format and port range
func (c Config) Validate() error {
	if _, err := ParseAMSNetID(c.NetID); err != nil {
		return err
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}
	return nil
}

func (c Config) String() string {
	s := fmt.Sprintf("%s:%d", c.NetID, c.Port)
	if c.IPAddress != "" {
		s += " via " + c.IPAddress
	}
	return s
}
