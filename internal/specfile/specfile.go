// Package specfile defines the structural YAML format for binding
// definitions and calls.
//
// A specfile mirrors the engine's internal representation rather than any
// surface syntax: type expressions are trees of explicit nodes (var, seq,
// con, app, tuple, func, expand, map) and parameter lists name their slot
// forms directly. The format is consumed by the funvar CLI, the persistent
// binding cache, and scenario tests.
package specfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the top-level document.
type File struct {
	// Definitions lists the parameter-list definitions, each validated
	// once under its name.
	Definitions []Definition `yaml:"definitions"`

	// Specializations lists fixed-arity overloads of named definitions.
	// A call whose argument count matches a specialization's arity is
	// bound against the specialized list instead of the general one.
	Specializations []Specialization `yaml:"specializations,omitempty"`

	// Calls lists argument lists to bind against named definitions,
	// optionally with type expressions to resolve under the resulting
	// substitution.
	Calls []Call `yaml:"calls,omitempty"`
}

// Definition declares one parameter list.
type Definition struct {
	Name   string      `yaml:"name"`
	Params []ParamNode `yaml:"params"`
}

// Specialization declares a fixed-arity overload of a definition.
type Specialization struct {
	// Definition names the general definition this overload belongs to.
	Definition string `yaml:"definition"`

	// Arity is the exact argument count this overload handles.
	Arity int `yaml:"arity"`

	Params []ParamNode `yaml:"params"`
}

// Call describes one binding request.
type Call struct {
	// Definition names the definition to bind against.
	Definition string `yaml:"definition"`

	// Args is the supplied type-argument list. May be empty.
	Args []Node `yaml:"args"`

	// Resolve lists type expressions to substitute under the binding.
	Resolve []Node `yaml:"resolve,omitempty"`
}

// ParamNode declares one parameter slot. Exactly one of Var, Expand, Seq
// or Type selects the slot form.
type ParamNode struct {
	// Name is the surface parameter name, used only in reports.
	Name string `yaml:"name,omitempty"`

	// Rest marks a rest parameter: "positional" (*args style, captures
	// trailing positional arguments) or "keyword" (**kwargs style, never
	// consumes positional arguments).
	Rest string `yaml:"rest,omitempty"`

	// Var declares a fixed placeholder slot binding one argument.
	Var string `yaml:"var,omitempty"`

	// Expand declares the spread form of a sequence placeholder: the slot
	// captures a variable-length run of arguments.
	//
	//   - expand: Ts        # ...Ts
	Expand string `yaml:"expand,omitempty"`

	// Seq declares the bare (unexpanded) form of a sequence placeholder:
	// the slot takes exactly one argument, which must be a tuple.
	Seq string `yaml:"seq,omitempty"`

	// Type declares a concrete slot requiring a structural match.
	Type *Node `yaml:"type,omitempty"`

	// Kind optionally annotates Var with an explicit kind: "*", "[*]",
	// "?", or an arrow such as "* -> *". Only valid with Var.
	Kind string `yaml:"kind,omitempty"`
}

// Node is one structural type expression. Exactly one of the form fields
// is set.
type Node struct {
	// Var references a fixed placeholder by name.
	Var string `yaml:"var,omitempty"`

	// Seq references a sequence placeholder by name.
	Seq string `yaml:"seq,omitempty"`

	// Con names a concrete type or type constructor; Module optionally
	// qualifies it (user.Pair).
	Con    string `yaml:"con,omitempty"`
	Module string `yaml:"module,omitempty"`

	// Kind optionally annotates Con or Var ("*", "* -> *", "[*]", "?").
	Kind string `yaml:"kind,omitempty"`

	// App applies a constructor to arguments, e.g. (List Int):
	//
	//   app:
	//     ctor: { con: List }
	//     args: [ { con: Int } ]
	App *AppNode `yaml:"app,omitempty"`

	// Tuple is an explicit ordered type list. An empty elems list is the
	// empty tuple.
	Tuple *TupleNode `yaml:"tuple,omitempty"`

	// Func is a function type.
	Func *FuncNode `yaml:"func,omitempty"`

	// Expand spreads a sequence-denoting operand into the enclosing
	// argument list.
	Expand *Node `yaml:"expand,omitempty"`

	// Map applies a unary constructor elementwise over a sequence.
	Map *MapNode `yaml:"map,omitempty"`
}

// AppNode is a constructor application.
type AppNode struct {
	Ctor Node   `yaml:"ctor"`
	Args []Node `yaml:"args"`
}

// TupleNode is an explicit ordered type list.
type TupleNode struct {
	Elems []Node `yaml:"elems"`
}

// FuncNode is a function type. A nil Return is the unit return.
type FuncNode struct {
	Params   []Node `yaml:"params,omitempty"`
	Return   *Node  `yaml:"return,omitempty"`
	Variadic bool   `yaml:"variadic,omitempty"`
}

// MapNode applies Ctor elementwise over the sequence denoted by Seq.
type MapNode struct {
	Ctor Node `yaml:"ctor"`
	Seq  Node `yaml:"seq"`
}

// Load reads and parses a specfile.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading specfile %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses specfile content from bytes.
// The path argument is used only for error messages.
func Parse(data []byte, path string) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := f.validate(path); err != nil {
		return nil, err
	}
	return &f, nil
}

// Render serializes a file back to YAML. Parse(Render(f)) reproduces f.
func Render(f *File) ([]byte, error) {
	return yaml.Marshal(f)
}

// validate checks the document for semantic errors.
func (f *File) validate(path string) error {
	if len(f.Definitions) == 0 {
		return fmt.Errorf("%s: no definitions", path)
	}

	names := make(map[string]bool, len(f.Definitions))

	for i, def := range f.Definitions {
		if def.Name == "" {
			return fmt.Errorf("%s: definitions[%d]: name is required", path, i)
		}
		if names[def.Name] {
			return fmt.Errorf("%s: definitions[%d]: duplicate definition %q", path, i, def.Name)
		}
		names[def.Name] = true

		for j, p := range def.Params {
			at := fmt.Sprintf("definitions[%d].params[%d]", i, j)
			if err := checkParamNode(path, at, p); err != nil {
				return err
			}
		}
	}

	for i, sp := range f.Specializations {
		if sp.Definition == "" {
			return fmt.Errorf("%s: specializations[%d]: definition is required", path, i)
		}
		if !names[sp.Definition] {
			return fmt.Errorf("%s: specializations[%d]: unknown definition %q", path, i, sp.Definition)
		}
		if sp.Arity < 0 {
			return fmt.Errorf("%s: specializations[%d]: arity must be non-negative, got %d", path, i, sp.Arity)
		}
		for j, p := range sp.Params {
			at := fmt.Sprintf("specializations[%d].params[%d]", i, j)
			if err := checkParamNode(path, at, p); err != nil {
				return err
			}
		}
	}

	for i, call := range f.Calls {
		if call.Definition == "" {
			return fmt.Errorf("%s: calls[%d]: definition is required", path, i)
		}
		if !names[call.Definition] {
			return fmt.Errorf("%s: calls[%d]: unknown definition %q", path, i, call.Definition)
		}
		for j, arg := range call.Args {
			at := fmt.Sprintf("calls[%d].args[%d]", i, j)
			if err := checkNode(path, at, arg); err != nil {
				return err
			}
		}
		for j, r := range call.Resolve {
			at := fmt.Sprintf("calls[%d].resolve[%d]", i, j)
			if err := checkNode(path, at, r); err != nil {
				return err
			}
		}
	}

	return nil
}

// checkParamNode validates one parameter slot declaration.
func checkParamNode(path, at string, p ParamNode) error {
	formCount := 0
	if p.Var != "" {
		formCount++
	}
	if p.Expand != "" {
		formCount++
	}
	if p.Seq != "" {
		formCount++
	}
	if p.Type != nil {
		formCount++
	}
	if formCount == 0 {
		return fmt.Errorf("%s: %s: one of var, expand, seq or type is required", path, at)
	}
	if formCount > 1 {
		return fmt.Errorf("%s: %s: var, expand, seq and type are mutually exclusive", path, at)
	}
	if p.Kind != "" {
		if p.Var == "" {
			return fmt.Errorf("%s: %s: kind is only valid with var", path, at)
		}
		if _, err := parseKind(p.Kind); err != nil {
			return fmt.Errorf("%s: %s: %v", path, at, err)
		}
	}
	switch p.Rest {
	case "", "positional", "keyword":
	default:
		return fmt.Errorf("%s: %s: rest must be \"positional\" or \"keyword\", got %q", path, at, p.Rest)
	}
	if p.Type != nil {
		return checkNode(path, at+".type", *p.Type)
	}
	return nil
}

// checkNode validates one type expression node, recursively.
func checkNode(path, at string, n Node) error {
	formCount := 0
	if n.Var != "" {
		formCount++
	}
	if n.Seq != "" {
		formCount++
	}
	if n.Con != "" {
		formCount++
	}
	if n.App != nil {
		formCount++
	}
	if n.Tuple != nil {
		formCount++
	}
	if n.Func != nil {
		formCount++
	}
	if n.Expand != nil {
		formCount++
	}
	if n.Map != nil {
		formCount++
	}
	if formCount == 0 {
		return fmt.Errorf("%s: %s: empty type node (one of var, seq, con, app, tuple, func, expand, map)", path, at)
	}
	if formCount > 1 {
		return fmt.Errorf("%s: %s: type node forms are mutually exclusive", path, at)
	}
	if n.Module != "" && n.Con == "" {
		return fmt.Errorf("%s: %s: module is only valid with con", path, at)
	}
	if n.Kind != "" {
		if n.Con == "" && n.Var == "" {
			return fmt.Errorf("%s: %s: kind is only valid with con or var", path, at)
		}
		if _, err := parseKind(n.Kind); err != nil {
			return fmt.Errorf("%s: %s: %v", path, at, err)
		}
	}

	switch {
	case n.App != nil:
		if err := checkNode(path, at+".app.ctor", n.App.Ctor); err != nil {
			return err
		}
		for i, arg := range n.App.Args {
			if err := checkNode(path, fmt.Sprintf("%s.app.args[%d]", at, i), arg); err != nil {
				return err
			}
		}
	case n.Tuple != nil:
		for i, el := range n.Tuple.Elems {
			if err := checkNode(path, fmt.Sprintf("%s.tuple.elems[%d]", at, i), el); err != nil {
				return err
			}
		}
	case n.Func != nil:
		for i, p := range n.Func.Params {
			if err := checkNode(path, fmt.Sprintf("%s.func.params[%d]", at, i), p); err != nil {
				return err
			}
		}
		if n.Func.Return != nil {
			if err := checkNode(path, at+".func.return", *n.Func.Return); err != nil {
				return err
			}
		}
	case n.Expand != nil:
		return checkNode(path, at+".expand", *n.Expand)
	case n.Map != nil:
		if err := checkNode(path, at+".map.ctor", n.Map.Ctor); err != nil {
			return err
		}
		return checkNode(path, at+".map.seq", n.Map.Seq)
	}
	return nil
}
