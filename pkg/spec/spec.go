// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package spec defines the decision-table model consumed by the analyzer: an
// ordered list of typed variables, an ordered list of rules pairing a
// boolean condition with an output value, and an optional default output.
// Tables are typically loaded from YAML.
package spec

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/consensys/go-dectab/pkg/expr"
)

// Spec is a complete decision-table specification.
type Spec struct {
	// Unique identifier of this table.
	Id string `yaml:"id"`
	// Human-readable name.
	Name string `yaml:"name,omitempty"`
	// Description of what this table decides.
	Description string `yaml:"description,omitempty"`
	// Input variables, in declaration order.
	Inputs []Variable `yaml:"inputs"`
	// Output variables, in declaration order.
	Outputs []Variable `yaml:"outputs,omitempty"`
	// Decision rules, in declaration order.
	Rules []Rule `yaml:"rules"`
	// Default output when no rule matches.
	Default *Output `yaml:"default,omitempty"`
}

// Variable is a named, typed slot.  Enum domains are finite and given;
// other types have an implicit infinite domain.
type Variable struct {
	Name string  `yaml:"name"`
	Type VarType `yaml:"type"`
	// For enums: the permitted values.
	Values []string `yaml:"values,omitempty"`
}

// VarType enumerates the variable types of the model.
type VarType string

const (
	// BOOL_TYPE is the boolean type.
	BOOL_TYPE VarType = "bool"
	// INT_TYPE is the integer type.
	INT_TYPE VarType = "int"
	// FLOAT_TYPE is the floating-point type.
	FLOAT_TYPE VarType = "float"
	// STRING_TYPE is the string type.
	STRING_TYPE VarType = "string"
	// ENUM_TYPE is a finite string domain given by Variable.Values.
	ENUM_TYPE VarType = "enum"
)

// Rule pairs a boolean condition with an output value.
type Rule struct {
	// Identifier of this rule, unique within the table.
	Id string `yaml:"id"`
	// Condition under which this rule matches.
	When When `yaml:"when"`
	// Output value produced when this rule matches.
	Then Output `yaml:"then"`
	// Priority (lower binds tighter).  It is read from and written to YAML
	// only; the analyzer does not use it, and first-match analysis orders
	// rules by declaration.
	Priority int `yaml:"priority,omitempty"`
	// Description of this rule.
	Description string `yaml:"description,omitempty"`
}

// When is a rule condition: either a single expression, or a list of
// expressions which are conjoined.
type When struct {
	clauses []string
}

// NewWhen constructs a condition from one or more clauses.
func NewWhen(clauses ...string) When {
	return When{clauses}
}

// Expr returns the condition as a single expression of the dialect, joining
// multiple clauses with "&&".
func (p *When) Expr() string {
	switch len(p.clauses) {
	case 0:
		return "true"
	case 1:
		return p.clauses[0]
	}
	//
	wrapped := make([]string, len(p.clauses))
	for i, c := range p.clauses {
		wrapped[i] = "(" + c + ")"
	}
	//
	return strings.Join(wrapped, " && ")
}

// UnmarshalYAML accepts either a scalar or a sequence of scalars.
func (p *When) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		p.clauses = []string{node.Value}
		return nil
	case yaml.SequenceNode:
		var clauses []string
		//
		if err := node.Decode(&clauses); err != nil {
			return err
		}
		//
		p.clauses = clauses
		//
		return nil
	}
	//
	return fmt.Errorf("line %d: expected expression or list of expressions", node.Line)
}

// MarshalYAML renders a single clause as a scalar, multiple as a sequence.
func (p When) MarshalYAML() (any, error) {
	if len(p.clauses) == 1 {
		return p.clauses[0], nil
	}
	//
	return p.clauses, nil
}

// Output wraps the scalar output symbol of a rule (or the default).
type Output struct {
	value expr.Value
}

// NewOutput constructs an output from a given value.
func NewOutput(value expr.Value) Output {
	return Output{value}
}

// Value returns the underlying output value.
func (p *Output) Value() expr.Value {
	return p.value
}

// UnmarshalYAML accepts any scalar and maps it onto the corresponding value.
func (p *Output) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected scalar output", node.Line)
	}
	//
	var (
		b bool
		i int64
		f float64
	)
	//
	switch {
	case node.Decode(&b) == nil && isBoolScalar(node):
		p.value = expr.BoolValue(b)
	case node.Decode(&i) == nil:
		p.value = expr.IntValue(i)
	case node.Decode(&f) == nil:
		p.value = expr.FloatValue(f)
	default:
		p.value = expr.StringValue(node.Value)
	}
	//
	return nil
}

// MarshalYAML renders the output as the corresponding YAML scalar.
func (p Output) MarshalYAML() (any, error) {
	switch p.value.Kind() {
	case expr.BOOL_VALUE:
		return p.value.AsBool(), nil
	case expr.INT_VALUE:
		return p.value.AsInt(), nil
	case expr.FLOAT_VALUE:
		return p.value.AsFloat(), nil
	default:
		return p.value.AsString(), nil
	}
}

// YAML decodes unquoted "true"/"false" as booleans, but also decodes them
// from explicit strings; this check keeps quoted strings as strings.
func isBoolScalar(node *yaml.Node) bool {
	return node.Tag == "!!bool"
}

// FromYaml parses a decision table from YAML bytes.
func FromYaml(bytes []byte) (Spec, error) {
	var spec Spec
	//
	if err := yaml.Unmarshal(bytes, &spec); err != nil {
		return spec, err
	}
	//
	return spec, nil
}

// ToYaml renders a decision table as YAML bytes.
func (p *Spec) ToYaml() ([]byte, error) {
	return yaml.Marshal(p)
}

// Variable looks a variable up by name, where the name of a dotted member
// path is its root segment.
func (p *Spec) Variable(name string) (Variable, bool) {
	root, _, _ := strings.Cut(name, ".")
	//
	for _, v := range p.Inputs {
		if v.Name == root {
			return v, true
		}
	}
	//
	return Variable{}, false
}

// Validate checks the structural part of the collaborator contract: unique
// rule identifiers, known variable types, enum domains present.  Conditions
// are checked against the declared variables when they are parsed.  All
// violations are reported, not just the first.
func (p *Spec) Validate() []error {
	var (
		errs []error
		ids  = make(map[string]bool)
	)
	//
	if p.Id == "" {
		errs = append(errs, fmt.Errorf("missing spec id"))
	}
	//
	for _, v := range p.Inputs {
		switch v.Type {
		case BOOL_TYPE, INT_TYPE, FLOAT_TYPE, STRING_TYPE:
			// fine
		case ENUM_TYPE:
			if len(v.Values) == 0 {
				errs = append(errs, fmt.Errorf("enum variable %q has no values", v.Name))
			}
		default:
			errs = append(errs, fmt.Errorf("variable %q has unknown type %q", v.Name, v.Type))
		}
	}
	//
	for _, r := range p.Rules {
		if r.Id == "" {
			errs = append(errs, fmt.Errorf("rule without id"))
			continue
		}
		//
		if ids[r.Id] {
			errs = append(errs, fmt.Errorf("duplicate rule id %q", r.Id))
		}
		//
		ids[r.Id] = true
	}
	//
	return errs
}
