// Package binder implements parameter-list validation and the positional
// matching algorithm that binds declared placeholders to supplied type
// arguments. A parameter list mixes fixed placeholders, concrete types and
// sequence placeholders; binding splits the argument run into a fixed
// prefix, an optional variable-length middle and a fixed suffix.
package binder

import (
	"strings"

	"github.com/funvibe/funvar/pkg/typesystem"
)

// SlotKind selects the variant of a parameter slot. Every component that
// consumes a ParamList switches exhaustively over these.
type SlotKind int

const (
	// SlotFixed binds a fixed placeholder to exactly one argument.
	SlotFixed SlotKind = iota

	// SlotConcrete binds nothing; the argument must match structurally.
	SlotConcrete

	// SlotExpand binds a sequence placeholder to a variable-length run of
	// the argument list, positionally.
	SlotExpand

	// SlotUnexpanded binds a sequence placeholder to exactly one argument,
	// which must itself be an explicit ordered type list (a tuple).
	SlotUnexpanded
)

func (k SlotKind) String() string {
	switch k {
	case SlotFixed:
		return "fixed"
	case SlotConcrete:
		return "concrete"
	case SlotExpand:
		return "expand"
	case SlotUnexpanded:
		return "unexpanded"
	}
	return "unknown"
}

// RestRole marks a parameter declared through a rest construct in the
// surface language. RestPositional is the *args-style capture of trailing
// positional arguments; RestKeyword is the **kwargs-style capture, which
// never consumes positional arguments.
type RestRole int

const (
	RestNone RestRole = iota
	RestPositional
	RestKeyword
)

func (r RestRole) String() string {
	switch r {
	case RestPositional:
		return "positional"
	case RestKeyword:
		return "keyword"
	}
	return "none"
}

// Param is one slot of a declared parameter list. Exactly one of Var, Con
// or Seq is meaningful, selected by Slot. Name is the surface parameter
// name and is used only in diagnostics.
type Param struct {
	Name string
	Slot SlotKind
	Rest RestRole

	Var typesystem.TVar    // SlotFixed
	Con typesystem.Type    // SlotConcrete
	Seq typesystem.TSeqVar // SlotExpand, SlotUnexpanded
}

// Fixed declares a slot binding a fixed placeholder.
func Fixed(v typesystem.TVar) Param {
	return Param{Slot: SlotFixed, Var: v}
}

// Concrete declares a slot requiring a structural match against t.
func Concrete(t typesystem.Type) Param {
	return Param{Slot: SlotConcrete, Con: t}
}

// Expand declares the spread form of a sequence placeholder: it captures a
// variable-length run of arguments.
func Expand(v typesystem.TSeqVar) Param {
	return Param{Slot: SlotExpand, Seq: v}
}

// Unexpanded declares the bare form of a sequence placeholder: it occupies
// one slot whose argument must be an explicit tuple.
func Unexpanded(v typesystem.TSeqVar) Param {
	return Param{Slot: SlotUnexpanded, Seq: v}
}

// WithName attaches a surface parameter name for diagnostics.
func (p Param) WithName(name string) Param {
	p.Name = name
	return p
}

// WithRest marks the parameter as a rest construct.
func (p Param) WithRest(role RestRole) Param {
	p.Rest = role
	return p
}

func (p Param) String() string {
	var b strings.Builder
	switch p.Rest {
	case RestPositional:
		b.WriteString("*")
	case RestKeyword:
		b.WriteString("**")
	}
	if p.Name != "" {
		b.WriteString(p.Name)
		b.WriteString(": ")
	}
	switch p.Slot {
	case SlotFixed:
		b.WriteString(p.Var.String())
	case SlotConcrete:
		b.WriteString(p.Con.String())
	case SlotExpand:
		b.WriteString("...")
		b.WriteString(p.Seq.String())
	case SlotUnexpanded:
		b.WriteString(p.Seq.String())
	}
	return b.String()
}

// ParamList is an ordered parameter list, created once at definition time
// and read-only afterwards.
type ParamList []Param

func (l ParamList) String() string {
	parts := make([]string, 0, len(l))
	for _, p := range l {
		parts = append(parts, p.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// variable reports whether p captures a variable-length run of positional
// arguments: the spread form, or any rest-positional parameter (a
// homogeneous rest also absorbs arbitrarily many arguments).
func (p Param) variable() bool {
	if p.Rest == RestKeyword {
		return false
	}
	return p.Slot == SlotExpand || p.Rest == RestPositional
}

// positional reports whether p occupies positional argument slots at all.
func (p Param) positional() bool {
	return p.Rest != RestKeyword
}
