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

package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/edgeo/drivers/ads/ads"
)

// Variable is one entry of a seed file
type Variable struct {
	Name  string `yaml:"name" mapstructure:"name"`
	Type  string `yaml:"type" mapstructure:"type"`
	Value any    `yaml:"value" mapstructure:"value"`
	Size  int    `yaml:"size,omitempty" mapstructure:"size"`
}

// LoadFile reads a YAML list of variables:
//
//	- name: MAIN.counter
//	  type: dint
//	  value: 42
func LoadFile(path string) ([]Variable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var vars []Variable
	if err := yaml.Unmarshal(data, &vars); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return vars, nil
}

// Seed defines every variable and sets its initial value
func (c *Controller) Seed(vars []Variable) error {
	for _, v := range vars {
		if v.Name == "" {
			return fmt.Errorf("sim: seed variable without name")
		}
		tag, ok := ads.ParseTypeTag(v.Type)
		if !ok {
			return fmt.Errorf("sim: %s: %w %q", v.Name, ads.ErrUnsupportedType, v.Type)
		}
		if err := c.Define(v.Name, tag, v.Size); err != nil {
			return err
		}
		if v.Value == nil {
			continue
		}
		if err := c.Set(v.Name, tag, v.Value); err != nil {
			return fmt.Errorf("sim: %s: %w", v.Name, err)
		}
	}
	return nil
}

// DefaultVariables is the symbol table used when no seed file is given
func DefaultVariables() []Variable {
	return []Variable{
		{Name: "MAIN.bRunning", Type: "bool", Value: true},
		{Name: "MAIN.nCounter", Type: "dint", Value: 0},
		{Name: "MAIN.nSpeed", Type: "int", Value: 1200},
		{Name: "MAIN.wStatus", Type: "word", Value: 0x0001},
		{Name: "MAIN.fTemperature", Type: "real", Value: 21.5},
		{Name: "MAIN.fPressure", Type: "lreal", Value: 1.013},
		{Name: "MAIN.sMessage", Type: "string", Value: "ready"},
		{Name: "MAIN.tCycle", Type: "time", Value: 10},
	}
}
