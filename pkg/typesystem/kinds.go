package typesystem

import "fmt"

// Kind classifies type expressions.
// * (Star) is the kind of proper types (Int, (List Int), tuples).
// [*] (Seq) is the kind of ordered type sequences.
// k1 -> k2 is the kind of type constructors (List, Result).
type Kind interface {
	String() string
	Equal(Kind) bool
}

// KStar represents the kind of a proper type (*).
type KStar struct{}

func (k KStar) String() string { return "*" }
func (k KStar) Equal(other Kind) bool {
	if _, ok := other.(KWildcard); ok {
		return true
	}
	_, ok := other.(KStar)
	return ok
}

// KSeq represents the kind of an ordered type sequence: the binding of a
// sequence placeholder, a spread, or a Map result.
type KSeq struct{}

func (k KSeq) String() string { return "[*]" }
func (k KSeq) Equal(other Kind) bool {
	if _, ok := other.(KWildcard); ok {
		return true
	}
	_, ok := other.(KSeq)
	return ok
}

// KWildcard represents a kind that matches any other kind.
// Used for placeholders whose kind is not pinned down by the front-end.
type KWildcard struct{}

func (k KWildcard) String() string        { return "?" }
func (k KWildcard) Equal(other Kind) bool { return true }

// KArrow represents a constructor kind (k1 -> k2).
type KArrow struct {
	Left  Kind
	Right Kind
}

func (k KArrow) String() string {
	return fmt.Sprintf("(%s -> %s)", k.Left.String(), k.Right.String())
}

func (k KArrow) Equal(other Kind) bool {
	if _, ok := other.(KWildcard); ok {
		return true
	}
	o, ok := other.(KArrow)
	if !ok {
		return false
	}
	return k.Left.Equal(o.Left) && k.Right.Equal(o.Right)
}

var Star Kind = KStar{}
var Seq Kind = KSeq{}
var AnyKind Kind = KWildcard{}

// MakeArrow builds an n-ary constructor kind.
// e.g. MakeArrow(Star, Star, Star) is * -> * -> *.
func MakeArrow(args ...Kind) Kind {
	if len(args) == 0 {
		return Star
	}
	if len(args) == 1 {
		return args[0]
	}
	return KArrow{Left: args[0], Right: MakeArrow(args[1:]...)}
}
