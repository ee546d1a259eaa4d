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

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the controller state",
	Long: `State probes the controller and prints its ADS state together with the
session details.

Examples:
  edgeo-ads state
  edgeo-ads state -o json`,

	RunE: runState,
}

func runState(cmd *cobra.Command, args []string) error {
	s, err := createSession()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	defer s.close()

	ctx, cancel := context.WithTimeout(context.Background(), viper.GetDuration("timeout"))
	defer cancel()

	if err := s.connect(ctx); err != nil {
		return err
	}

	st, err := s.manager.ReadState(ctx)
	if err != nil {
		return fmt.Errorf("read state: %w", err)
	}

	cfg := s.manager.Config()
	fields := map[string]any{
		"net_id":     cfg.NetID,
		"port":       cfg.Port,
		"state":      st.String(),
		"connected":  s.manager.Connected(),
		"session_id": s.manager.SessionID(),
	}
	order := []string{"net_id", "port", "state", "connected", "session_id"}
	if cfg.IPAddress != "" {
		fields["ip_address"] = cfg.IPAddress
		order = append(order[:2], append([]string{"ip_address"}, order[2:]...)...)
	}

	return NewFormatter(viper.GetString("output")).PrintFields(fields, order)
}
