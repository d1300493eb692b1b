package typesystem

// Expand returns the ordered sequence bound to v, exactly as it was bound.
// Binding an argument run to a sequence placeholder and expanding it again
// reproduces that run unchanged.
func Expand(v TSeqVar, s *Subst) ([]Type, error) {
	ts, ok := s.Seq(v.Name)
	if !ok {
		return nil, bindErrf(UnsupportedNesting, -1,
			"sequence placeholder %s is not bound", v.Name)
	}
	return append([]Type(nil), ts...), nil
}

// spliceCC resolves a type argument list, splicing every spread whose
// operand is known into the enclosing list. Spreads over operands the
// substitution does not cover yet are kept in place, partially resolved.
func spliceCC(elems []Type, s *Subst, visited map[string]bool) ([]Type, error) {
	out := make([]Type, 0, len(elems))
	for _, el := range elems {
		ex, ok := el.(TExpand)
		if !ok {
			rt, err := resolveCC(el, s, visited)
			if err != nil {
				return nil, err
			}
			out = append(out, rt)
			continue
		}
		seq, known, err := seqCC(ex.Operand, s, visited)
		if err != nil {
			return nil, err
		}
		if !known {
			op, err := partialSeqOperand(ex.Operand, s, visited)
			if err != nil {
				return nil, err
			}
			out = append(out, TExpand{Operand: op})
			continue
		}
		out = append(out, seq...)
	}
	return out, nil
}

// seqCC resolves an operand that denotes an ordered type sequence. The
// second result reports whether the sequence is fully known; false with a
// nil error means the operand is well formed but depends on an unbound
// placeholder. Operands that cannot denote a sequence at all are rejected
// with UnsupportedNesting.
func seqCC(t Type, s *Subst, visited map[string]bool) ([]Type, bool, error) {
	switch t := t.(type) {
	case TSeqVar:
		if visited[t.Name] {
			return nil, false, nil
		}
		ts, ok := s.Seq(t.Name)
		if !ok {
			return nil, false, nil
		}
		elems, err := spliceCC(ts, s, withVisited(visited, t.Name))
		if err != nil {
			return nil, false, err
		}
		return elems, true, nil

	case TTuple:
		elems, err := spliceCC(t.Elements, s, visited)
		if err != nil {
			return nil, false, err
		}
		return elems, true, nil

	case TExpand:
		return seqCC(t.Operand, s, visited)

	case TMap:
		ctor, err := resolveCC(t.Constructor, s, visited)
		if err != nil {
			return nil, false, err
		}
		inner, known, err := seqCC(t.Seq, s, visited)
		if err != nil || !known {
			return nil, false, err
		}
		mapped, err := mapOver(ctor, inner)
		if err != nil {
			return nil, false, err
		}
		return mapped, true, nil
	}
	return nil, false, bindErrf(UnsupportedNesting, -1,
		"%s does not denote a type sequence", t.String())
}

// partialSeqOperand resolves a sequence operand as far as the substitution
// allows while keeping it an operand, for re-resolution once the missing
// placeholders are bound.
func partialSeqOperand(t Type, s *Subst, visited map[string]bool) (Type, error) {
	switch t := t.(type) {
	case TSeqVar:
		return t, nil
	case TExpand:
		op, err := partialSeqOperand(t.Operand, s, visited)
		if err != nil {
			return nil, err
		}
		return TExpand{Operand: op}, nil
	case TMap:
		ctor, err := resolveCC(t.Constructor, s, visited)
		if err != nil {
			return nil, err
		}
		src, err := partialSeqOperand(t.Seq, s, visited)
		if err != nil {
			return nil, err
		}
		return TMap{Constructor: ctor, Seq: src}, nil
	}
	return resolveCC(t, s, visited)
}
