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
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edgeo/drivers/ads/ads"
)

var (
	writeName       string
	writeType       string
	writeValue      string
	writeStringSize int
	writeVerify     bool
)

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Write a PLC variable by name",
	Long: `Write encodes a value as the given type and writes it to a PLC variable.

Integers accept decimal or 0x-prefixed hex. Booleans accept true/false/1/0.

Examples:
  # Write an INT
  edgeo-ads write -n MAIN.nSpeed -T int -V 1500

  # Write a BOOL and read it back
  edgeo-ads write -n MAIN.bRunning -T bool -V false --verify

  # Write a STRING
  edgeo-ads write -n MAIN.sMessage -T string -V "line stopped"`,

	RunE: runWrite,
}

func init() {
	writeCmd.Flags().StringVarP(&writeName, "name", "n", "", "Variable name")
	writeCmd.Flags().StringVarP(&writeType, "type", "T", "", "Variable type")
	writeCmd.Flags().StringVarP(&writeValue, "value", "V", "", "Value to write")
	writeCmd.Flags().IntVar(&writeStringSize, "string-size", ads.DefaultStringSize, "Buffer size of string variables")
	writeCmd.Flags().BoolVar(&writeVerify, "verify", false, "Read the variable back after writing")

	writeCmd.MarkFlagRequired("name")
	writeCmd.MarkFlagRequired("type")
	writeCmd.MarkFlagRequired("value")
}

func runWrite(cmd *cobra.Command, args []string) error {
	tag, err := parseType(writeType)
	if err != nil {
		return err
	}
	value, err := parseValue(tag, writeValue)
	if err != nil {
		return fmt.Errorf("invalid value: %w", err)
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

	if err := s.manager.WriteByName(ctx, writeName, value, tag, ads.WithStringSize(writeStringSize)); err != nil {
		return fmt.Errorf("write %s: %w", writeName, err)
	}
	fmt.Printf("Wrote %s = %s\n", writeName, formatValue(value))

	if writeVerify {
		readBack, err := s.manager.ReadByName(ctx, writeName, tag, ads.WithStringSize(writeStringSize))
		if err != nil {
			return fmt.Errorf("verify %s: %w", writeName, err)
		}
		fmt.Printf("Read back %s = %s\n", writeName, formatValue(readBack))
	}
	return nil
}

// parseValue converts command line text into a value Encode accepts for tag
func parseValue(tag ads.TypeTag, s string) (any, error) {
	s = strings.TrimSpace(s)

	switch tag {
	case ads.TypeBool:
		return strconv.ParseBool(s)
	case ads.TypeString:
		return s, nil
	case ads.TypeReal:
		f, err := strconv.ParseFloat(s, 32)
		return float32(f), err
	case ads.TypeLReal:
		return strconv.ParseFloat(s, 64)
	case ads.TypeByte, ads.TypeUSInt, ads.TypeUInt, ads.TypeWord, ads.TypeUDInt, ads.TypeDWord:
		return strconv.ParseUint(s, 0, 32)
	case ads.TypeSInt, ads.TypeInt, ads.TypeDInt,
		ads.TypeTime, ads.TypeDate, ads.TypeDateAndTime, ads.TypeTimeOfDay:
		return strconv.ParseInt(s, 0, 32)
	}
	return nil, fmt.Errorf("%w: %s", ads.ErrUnsupportedType, tag)
}
