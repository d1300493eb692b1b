package binder

import (
	"fmt"

	"github.com/funvibe/funvar/pkg/typesystem"
)

// Validate checks a parameter list for well-formedness at definition time.
// It returns nil or a *typesystem.DefinitionError naming the first offending
// parameter. A list that fails validation must never reach Bind; callers
// cache the result against the definition for its whole lifetime.
//
// Rules:
//   - at most one variable-length region per list (a spread slot or a
//     rest-positional parameter), otherwise the split point of the argument
//     run would be ambiguous;
//   - a rest-positional parameter naming a sequence placeholder must use
//     the spread form, and only a rest-keyword parameter may follow it;
//   - a rest-keyword parameter may not involve a sequence placeholder in
//     any form and must be the final entry.
//
// Any number of unexpanded sequence slots is fine: each occupies exactly
// one explicitly supplied position.
func Validate(list ParamList) error {
	regionSeen := -1
	for i, p := range list {
		switch p.Rest {
		case RestPositional:
			if err := validateRestPositional(list, i); err != nil {
				return err
			}
		case RestKeyword:
			if err := validateRestKeyword(list, i); err != nil {
				return err
			}
		}

		if p.variable() {
			if regionSeen >= 0 {
				return defErrf(typesystem.MultipleExpansion, i,
					"parameter %s declares a second variable-length region (first at parameter %d)",
					p, regionSeen)
			}
			regionSeen = i
		}
	}
	return nil
}

func validateRestPositional(list ParamList, i int) error {
	p := list[i]
	switch p.Slot {
	case SlotUnexpanded:
		return defErrf(typesystem.InvalidVarargBinding, i,
			"rest parameter %s uses sequence placeholder %s unexpanded; spread it",
			p, p.Seq)
	case SlotConcrete:
		if vs := typesystem.FreeSeqVars(p.Con); len(vs) > 0 {
			return defErrf(typesystem.InvalidVarargBinding, i,
				"rest parameter %s buries sequence placeholder %s inside its type; spread it",
				p, vs[0])
		}
	}
	// Only the keyword rest may follow a positional rest, otherwise the
	// suffix would be consumed by the rest capture itself.
	for j := i + 1; j < len(list); j++ {
		if list[j].Rest != RestKeyword {
			return defErrf(typesystem.InvalidVarargBinding, i,
				"rest parameter %s must be the last positional parameter", p)
		}
	}
	return nil
}

func validateRestKeyword(list ParamList, i int) error {
	p := list[i]
	switch p.Slot {
	case SlotExpand, SlotUnexpanded:
		return defErrf(typesystem.InvalidKwargBinding, i,
			"keyword rest parameter %s may not be typed by sequence placeholder %s",
			p, p.Seq)
	case SlotConcrete:
		if vs := typesystem.FreeSeqVars(p.Con); len(vs) > 0 {
			return defErrf(typesystem.InvalidKwargBinding, i,
				"keyword rest parameter %s buries sequence placeholder %s inside its type",
				p, vs[0])
		}
	}
	if i != len(list)-1 {
		return defErrf(typesystem.InvalidKwargBinding, i,
			"keyword rest parameter %s must be the final parameter", p)
	}
	return nil
}

func defErrf(code typesystem.Code, param int, format string, args ...interface{}) *typesystem.DefinitionError {
	return &typesystem.DefinitionError{Code: code, Param: param, Msg: fmt.Sprintf(format, args...)}
}
