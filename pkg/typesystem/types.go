package typesystem

import (
	"fmt"
	"strings"
)

// Type is the interface implemented by every type expression the engine
// manipulates. Types are immutable values; all operations return new ones.
type Type interface {
	String() string
	Kind() Kind
}

// TVar is a fixed placeholder: it binds to exactly one type.
type TVar struct {
	Name    string
	KindVal Kind
}

func (t TVar) String() string { return t.Name }

func (t TVar) Kind() Kind {
	if t.KindVal == nil {
		return Star
	}
	return t.KindVal
}

// TSeqVar is a sequence placeholder: it binds to an ordered sequence of
// zero or more types. A sequence placeholder is never interchangeable with
// a fixed one; the two occupy disjoint namespaces in a substitution.
type TSeqVar struct {
	Name string
}

func (t TSeqVar) String() string { return t.Name }
func (t TSeqVar) Kind() Kind     { return Seq }

// TCon is a concrete named type or type constructor (Int, List, user.Pair).
// KindVal is optional; a nil kind reads as *.
type TCon struct {
	Name    string
	Module  string
	KindVal Kind
}

func (t TCon) String() string {
	if t.Module != "" {
		return t.Module + "." + t.Name
	}
	return t.Name
}

func (t TCon) Kind() Kind {
	if t.KindVal == nil {
		return Star
	}
	return t.KindVal
}

// TApp applies a type constructor to arguments, e.g. (List Int).
type TApp struct {
	Constructor Type
	Args        []Type
}

func (t TApp) String() string {
	if len(t.Args) == 0 {
		return t.Constructor.String()
	}
	args := make([]string, 0, len(t.Args))
	for _, arg := range t.Args {
		args = append(args, arg.String())
	}
	return fmt.Sprintf("(%s %s)", t.Constructor.String(), strings.Join(args, " "))
}

func (t TApp) Kind() Kind {
	k := t.Constructor.Kind()
	for range t.Args {
		if _, ok := k.(KWildcard); ok {
			return AnyKind
		}
		arrow, ok := k.(KArrow)
		if !ok {
			return Star
		}
		k = arrow.Right
	}
	return k
}

// TTuple is an explicit ordered type list. Left unspread it is a proper
// tuple type; in a sequence position its elements are the sequence.
type TTuple struct {
	Elements []Type
}

func (t TTuple) String() string {
	elems := make([]string, 0, len(t.Elements))
	for _, el := range t.Elements {
		elems = append(elems, el.String())
	}
	return fmt.Sprintf("(%s)", strings.Join(elems, ", "))
}

func (t TTuple) Kind() Kind { return Star }

// TFunc is a function type. When IsVariadic is set the final parameter is
// the element type of the variadic tail.
type TFunc struct {
	Params     []Type
	ReturnType Type
	IsVariadic bool
}

func (t TFunc) String() string {
	params := make([]string, 0, len(t.Params))
	for i, p := range t.Params {
		if t.IsVariadic && i == len(t.Params)-1 {
			params = append(params, "..."+p.String())
			continue
		}
		params = append(params, p.String())
	}
	ret := "()"
	if t.ReturnType != nil {
		ret = t.ReturnType.String()
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(params, ", "), ret)
}

func (t TFunc) Kind() Kind { return Star }

// TExpand marks a spread: the operand's sequence is spliced into the
// surrounding type argument list. Operand must denote a sequence
// (TSeqVar, TTuple or TMap).
type TExpand struct {
	Operand Type
}

func (t TExpand) String() string { return "..." + t.Operand.String() }
func (t TExpand) Kind() Kind     { return Seq }

// TMap applies a unary type constructor elementwise over a sequence,
// e.g. (map List Ts) over [Int, Str] is the sequence (List Int), (List Str).
type TMap struct {
	Constructor Type
	Seq         Type
}

func (t TMap) String() string {
	return fmt.Sprintf("(map %s %s)", t.Constructor.String(), t.Seq.String())
}

func (t TMap) Kind() Kind { return Seq }

// FreeVars returns the fixed placeholders occurring in t, deduplicated in
// first-occurrence order.
func FreeVars(t Type) []TVar {
	var out []TVar
	seen := make(map[string]bool)
	walkType(t, func(n Type) {
		if v, ok := n.(TVar); ok && !seen[v.Name] {
			seen[v.Name] = true
			out = append(out, v)
		}
	})
	return out
}

// FreeSeqVars returns the sequence placeholders occurring in t, deduplicated
// in first-occurrence order.
func FreeSeqVars(t Type) []TSeqVar {
	var out []TSeqVar
	seen := make(map[string]bool)
	walkType(t, func(n Type) {
		if v, ok := n.(TSeqVar); ok && !seen[v.Name] {
			seen[v.Name] = true
			out = append(out, v)
		}
	})
	return out
}

// walkType visits t and every type it contains, parent before children.
func walkType(t Type, visit func(Type)) {
	if t == nil {
		return
	}
	visit(t)
	switch t := t.(type) {
	case TApp:
		walkType(t.Constructor, visit)
		for _, arg := range t.Args {
			walkType(arg, visit)
		}
	case TTuple:
		for _, el := range t.Elements {
			walkType(el, visit)
		}
	case TFunc:
		for _, p := range t.Params {
			walkType(p, visit)
		}
		walkType(t.ReturnType, visit)
	case TExpand:
		walkType(t.Operand, visit)
	case TMap:
		walkType(t.Constructor, visit)
		walkType(t.Seq, visit)
	}
}
