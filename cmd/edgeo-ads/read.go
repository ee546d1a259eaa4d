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
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edgeo/drivers/ads/ads"
)

var (
	readName       string
	readType       string
	readStringSize int
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read a PLC variable by name",
	Long: `Read reads a PLC variable by its symbol name and decodes it as the given type.

Supported types: bool, byte, int, uint, sint, usint, dint, udint, word, dword,
real, lreal, string, time, date, dt, tod.

Examples:
  # Read a DINT
  edgeo-ads read -n MAIN.nCounter -T dint

  # Read a STRING(20) as JSON
  edgeo-ads read -n MAIN.sMessage -T string --string-size 21 -o json`,

	RunE: runRead,
}

func init() {
	readCmd.Flags().StringVarP(&readName, "name", "n", "", "Variable name (e.g. MAIN.nCounter)")
	readCmd.Flags().StringVarP(&readType, "type", "T", "", "Variable type")
	readCmd.Flags().IntVar(&readStringSize, "string-size", ads.DefaultStringSize, "Buffer size of string variables")

	readCmd.MarkFlagRequired("name")
	readCmd.MarkFlagRequired("type")
}

func runRead(cmd *cobra.Command, args []string) error {
	tag, err := parseType(readType)
	if err != nil {
		return err
	}

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

	value, err := s.manager.ReadByName(ctx, readName, tag, ads.WithStringSize(readStringSize))
	if err != nil {
		return fmt.Errorf("read %s: %w", readName, err)
	}

	return NewFormatter(viper.GetString("output")).PrintValue(VariableValue{
		Time:     time.Now(),
		Variable: readName,
		Type:     tag.String(),
		Value:    value,
	})
}
