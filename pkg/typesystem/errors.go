package typesystem

import "fmt"

// Code names one rule of the engine's error taxonomy. Definition-time codes
// reject a parameter list before any call is attempted; call-time codes
// reject a single argument list against an accepted definition.
type Code string

const (
	// MultipleExpansion: a parameter list declares more than one
	// variable-length region, so argument partitioning is ambiguous.
	MultipleExpansion Code = "MultipleExpansion"

	// InvalidVarargBinding: a rest-positional parameter names a sequence
	// placeholder without spreading it, or is not the last positional
	// parameter.
	InvalidVarargBinding Code = "InvalidVarargBinding"

	// InvalidKwargBinding: a rest-keyword parameter involves a sequence
	// placeholder in any form, or is not the final parameter.
	InvalidKwargBinding Code = "InvalidKwargBinding"
)

const (
	// ArityTooFew: fewer arguments than the fixed parameters require.
	ArityTooFew Code = "ArityTooFew"

	// ArityTooMany: more arguments than the parameter list can absorb.
	ArityTooMany Code = "ArityTooMany"

	// StructuralMismatch: an argument's shape contradicts its parameter,
	// or a placeholder is rebound to a conflicting type.
	StructuralMismatch Code = "StructuralMismatch"

	// UnsupportedNesting: a sequence construct appears in a position where
	// no sequence can be consumed.
	UnsupportedNesting Code = "UnsupportedNesting"
)

// DefinitionError reports a parameter list rejected at definition time.
// Param is the index of the offending parameter.
type DefinitionError struct {
	Code  Code
	Param int
	Msg   string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("invalid definition: %s (param %d): %s", e.Code, e.Param, e.Msg)
}

// BindError reports an argument list rejected at call time. Arg is the index
// of the offending argument, or -1 when the failure has no single position.
type BindError struct {
	Code Code
	Arg  int
	Msg  string
}

func (e *BindError) Error() string {
	if e.Arg >= 0 {
		return fmt.Sprintf("cannot bind: %s (arg %d): %s", e.Code, e.Arg, e.Msg)
	}
	return fmt.Sprintf("cannot bind: %s: %s", e.Code, e.Msg)
}

func bindErrf(code Code, arg int, format string, args ...interface{}) *BindError {
	return &BindError{Code: code, Arg: arg, Msg: fmt.Sprintf(format, args...)}
}
