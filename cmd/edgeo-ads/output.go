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
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// OutputFormat represents output format types
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
	FormatRaw   OutputFormat = "raw"
)

// Formatter handles output formatting
type Formatter struct {
	format OutputFormat
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(format string) *Formatter {
	return &Formatter{
		format: OutputFormat(format),
		writer: os.Stdout,
	}
}

// SetWriter sets the output writer
func (f *Formatter) SetWriter(w io.Writer) {
	f.writer = w
}

// VariableValue is one decoded variable as printed by read and watch
type VariableValue struct {
	Time     time.Time `json:"time" yaml:"time"`
	Variable string    `json:"variable" yaml:"variable"`
	Type     string    `json:"type" yaml:"type"`
	Value    any       `json:"value" yaml:"value"`
	Changed  bool      `json:"changed,omitempty" yaml:"changed,omitempty"`
}

// PrintValue prints a decoded variable in the selected format
func (f *Formatter) PrintValue(v VariableValue) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.writer).Encode(v)
	case FormatYAML:
		return f.printYAML([]VariableValue{v})
	case FormatRaw:
		_, err := fmt.Fprintln(f.writer, rawValue(v.Value))
		return err
	default:
		f.PrintTable([]string{"VARIABLE", "TYPE", "VALUE"}, [][]string{
			{v.Variable, v.Type, formatValue(v.Value)},
		})
		return nil
	}
}

// PrintWatch prints one notification line
func (f *Formatter) PrintWatch(v VariableValue) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.writer).Encode(v)
	case FormatYAML:
		return f.printYAML([]VariableValue{v})
	case FormatRaw:
		_, err := fmt.Fprintln(f.writer, rawValue(v.Value))
		return err
	default:
		marker := " "
		if v.Changed {
			marker = "*"
		}
		_, err := fmt.Fprintf(f.writer, "[%s] %s %s = %s\n",
			v.Time.Format("15:04:05.000"), marker, v.Variable, formatValue(v.Value))
		return err
	}
}

// PrintFields prints a flat record, e.g. controller state or metrics
func (f *Formatter) PrintFields(fields map[string]any, order []string) error {
	switch f.format {
	case FormatJSON:
		enc := json.NewEncoder(f.writer)
		enc.SetIndent("", "  ")
		return enc.Encode(fields)
	case FormatYAML:
		return f.printYAML(fields)
	default:
		if order == nil {
			for k := range fields {
				order = append(order, k)
			}
			sort.Strings(order)
		}
		f.PrintKeyValue(fields, order)
		return nil
	}
}

func (f *Formatter) printYAML(v any) error {
	enc := yaml.NewEncoder(f.writer)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// PrintTable prints rows under aligned headers
func (f *Formatter) PrintTable(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], len(cell))
			}
		}
	}

	printRow := func(cells []string) {
		for i, cell := range cells {
			if i < len(widths) {
				fmt.Fprintf(f.writer, "%-*s ", widths[i], cell)
			}
		}
		fmt.Fprintln(f.writer)
	}

	printRow(headers)
	dashes := make([]string, len(headers))
	for i, w := range widths {
		dashes[i] = strings.Repeat("-", w)
	}
	printRow(dashes)
	for _, row := range rows {
		printRow(row)
	}
}

// PrintKeyValue prints key-value pairs in the given order
func (f *Formatter) PrintKeyValue(pairs map[string]any, order []string) {
	width := 0
	for _, key := range order {
		width = max(width, len(key))
	}
	for _, key := range order {
		if val, ok := pairs[key]; ok {
			fmt.Fprintf(f.writer, "%-*s: %v\n", width, key, val)
		}
	}
}

// formatValue renders a decoded value for humans. Raw bytes from an
// unsupported type are shown as hex.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "<nil>"
	case []byte:
		return hex.EncodeToString(x)
	case string:
		return fmt.Sprintf("%q", x)
	case float32:
		return fmt.Sprintf("%g", x)
	case float64:
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func rawValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return formatValue(v)
}
