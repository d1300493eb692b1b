package typesystem

// Equal reports structural equality of two types. Kind annotations on
// placeholders and constructors do not participate.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch a := a.(type) {
	case TVar:
		bv, ok := b.(TVar)
		return ok && a.Name == bv.Name
	case TSeqVar:
		bv, ok := b.(TSeqVar)
		return ok && a.Name == bv.Name
	case TCon:
		bc, ok := b.(TCon)
		return ok && a.Name == bc.Name && a.Module == bc.Module
	case TApp:
		ba, ok := b.(TApp)
		return ok && Equal(a.Constructor, ba.Constructor) && EqualSeq(a.Args, ba.Args)
	case TTuple:
		bt, ok := b.(TTuple)
		return ok && EqualSeq(a.Elements, bt.Elements)
	case TFunc:
		bf, ok := b.(TFunc)
		return ok && a.IsVariadic == bf.IsVariadic &&
			EqualSeq(a.Params, bf.Params) && Equal(a.ReturnType, bf.ReturnType)
	case TExpand:
		be, ok := b.(TExpand)
		return ok && Equal(a.Operand, be.Operand)
	case TMap:
		bm, ok := b.(TMap)
		return ok && Equal(a.Constructor, bm.Constructor) && Equal(a.Seq, bm.Seq)
	}
	return false
}

// EqualSeq reports elementwise equality of two type sequences.
func EqualSeq(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
