package binder

import (
	"fmt"

	"github.com/funvibe/funvar/pkg/typesystem"
)

// Bind matches a validated parameter list against an argument list and
// returns the substitution binding every placeholder, or a coded
// *typesystem.BindError. Arguments are plain types; an explicit ordered
// type list (the operand an unexpanded sequence slot expects) is a tuple.
//
// The match is a generalized rest capture: parameters before the unique
// variable-length region take the leading arguments, parameters after it
// take the trailing arguments, and the remainder, in original order,
// becomes the region's binding. A zero-length remainder is a valid
// binding, not an error. Keyword-rest parameters consume no positional
// arguments. Binding is deterministic with no backtracking: exactly one
// substitution or one error for a given input.
//
// Bind assumes Validate accepted the list; feeding it an invalid list is a
// programming error and the result is unspecified.
func Bind(list ParamList, args []typesystem.Type) (*typesystem.Subst, error) {
	prefix, region, suffix := split(list)

	k, m, n := len(prefix), len(suffix), len(args)
	if n < k+m {
		return nil, bindErrf(typesystem.ArityTooFew, -1,
			"%d arguments for %d fixed parameters", n, k+m)
	}
	if region == nil && n > k {
		return nil, bindErrf(typesystem.ArityTooMany, k,
			"%d arguments for %d parameters", n, k)
	}

	st := newBindState()
	for i, p := range prefix {
		if err := st.bindOne(p, args[i], i); err != nil {
			return nil, err
		}
	}
	for i, p := range suffix {
		if err := st.bindOne(p, args[n-m+i], n-m+i); err != nil {
			return nil, err
		}
	}
	if region != nil {
		if err := st.bindRegion(*region, args[k:n-m], k); err != nil {
			return nil, err
		}
	}
	return typesystem.NewSubst(st.vars, st.seqs), nil
}

// split partitions the positional parameters around the variable-length
// region, dropping keyword-rest entries, which never take positional
// arguments. region is nil when the list is fully fixed.
func split(list ParamList) (prefix []Param, region *Param, suffix []Param) {
	for _, p := range list {
		if !p.positional() {
			continue
		}
		if p.variable() && region == nil {
			r := p
			region = &r
			continue
		}
		if region == nil {
			prefix = append(prefix, p)
		} else {
			suffix = append(suffix, p)
		}
	}
	return prefix, region, suffix
}

// bindState accumulates placeholder bindings during one match. The maps are
// handed to NewSubst at the end, which copies them; nothing escapes.
type bindState struct {
	vars map[string]typesystem.Type
	seqs map[string][]typesystem.Type
}

func newBindState() *bindState {
	return &bindState{
		vars: make(map[string]typesystem.Type),
		seqs: make(map[string][]typesystem.Type),
	}
}

// bindOne matches a single fixed-position parameter against the argument at
// position pos.
func (st *bindState) bindOne(p Param, arg typesystem.Type, pos int) error {
	switch p.Slot {
	case SlotFixed:
		return st.bindVar(p.Var, arg, pos)

	case SlotConcrete:
		if !typesystem.Equal(p.Con, arg) {
			return bindErrf(typesystem.StructuralMismatch, pos,
				"expected %s, got %s", p.Con, arg)
		}
		return nil

	case SlotUnexpanded:
		tup, ok := arg.(typesystem.TTuple)
		if !ok {
			return bindErrf(typesystem.StructuralMismatch, pos,
				"sequence parameter %s needs an explicit type list, got %s", p.Seq, arg)
		}
		return st.bindSeq(p.Seq, tup.Elements, pos)
	}
	// A SlotExpand in a fixed position cannot survive Validate.
	return bindErrf(typesystem.StructuralMismatch, pos,
		"parameter %s cannot occupy a fixed position", p)
}

// bindRegion assigns the middle run of arguments to the variable-length
// parameter. start is the absolute position of the first middle argument.
func (st *bindState) bindRegion(p Param, middle []typesystem.Type, start int) error {
	switch p.Slot {
	case SlotExpand:
		return st.bindSeq(p.Seq, middle, start)

	case SlotConcrete:
		// Homogeneous rest over a concrete type: every captured argument
		// must match it structurally.
		for i, arg := range middle {
			if !typesystem.Equal(p.Con, arg) {
				return bindErrf(typesystem.StructuralMismatch, start+i,
					"rest parameter %s expected %s, got %s", p, p.Con, arg)
			}
		}
		return nil

	case SlotFixed:
		// Homogeneous rest over a fixed placeholder: all captured arguments
		// share one binding. An empty capture determines nothing, so unless
		// another occurrence already bound the placeholder the call is
		// underspecified.
		if len(middle) == 0 {
			if _, ok := st.vars[p.Var.Name]; ok {
				return nil
			}
			return bindErrf(typesystem.ArityTooFew, -1,
				"rest parameter %s captured no arguments to determine %s", p, p.Var)
		}
		for i, arg := range middle {
			if err := st.bindVar(p.Var, arg, start+i); err != nil {
				return err
			}
		}
		return nil
	}
	return bindErrf(typesystem.StructuralMismatch, start,
		"parameter %s cannot capture a variable-length run", p)
}

// bindVar records a fixed placeholder binding. A placeholder occurring in
// several slots must see structurally equal arguments; there is no
// unification pass to reconcile them.
func (st *bindState) bindVar(v typesystem.TVar, arg typesystem.Type, pos int) error {
	if prev, ok := st.vars[v.Name]; ok {
		if !typesystem.Equal(prev, arg) {
			return bindErrf(typesystem.StructuralMismatch, pos,
				"%s already bound to %s, got %s", v, prev, arg)
		}
		return nil
	}
	st.vars[v.Name] = arg
	return nil
}

// bindSeq records a sequence placeholder binding, elementwise-checked
// against any earlier occurrence.
func (st *bindState) bindSeq(v typesystem.TSeqVar, elems []typesystem.Type, pos int) error {
	if prev, ok := st.seqs[v.Name]; ok {
		if !typesystem.EqualSeq(prev, elems) {
			return bindErrf(typesystem.StructuralMismatch, pos,
				"%s already bound to a different sequence", v)
		}
		return nil
	}
	bound := make([]typesystem.Type, len(elems))
	copy(bound, elems)
	st.seqs[v.Name] = bound
	return nil
}

func bindErrf(code typesystem.Code, arg int, format string, fmtArgs ...interface{}) *typesystem.BindError {
	return &typesystem.BindError{Code: code, Arg: arg, Msg: fmt.Sprintf(format, fmtArgs...)}
}
