package typesystem

// Resolve substitutes bound placeholders throughout t, splices spreads whose
// operands are known, and evaluates Map expressions whose sources are known.
// Placeholders that s does not bind are left in place, so resolution against
// a partial substitution is total and can be repeated as bindings arrive.
//
// Two rewrites apply at sequence/type boundaries: a bound sequence
// placeholder used directly as a type becomes a tuple of its elements, and
// an unspread Map whose source is known becomes a tuple of the mapped
// elements. A spread outside a type argument list is rejected with
// UnsupportedNesting.
func Resolve(t Type, s *Subst) (Type, error) {
	return resolveCC(t, s, nil)
}

// resolveCC is Resolve with cycle detection: visited holds the placeholder
// names already expanded on the current path, so self-referential bindings
// terminate instead of recursing forever.
func resolveCC(t Type, s *Subst, visited map[string]bool) (Type, error) {
	if t == nil {
		return nil, nil
	}
	switch t := t.(type) {
	case TVar:
		if visited[t.Name] {
			return t, nil
		}
		rep, ok := s.Type(t.Name)
		if !ok {
			return t, nil
		}
		if rv, ok := rep.(TVar); ok && rv.Name == t.Name {
			return t, nil
		}
		return resolveCC(rep, s, withVisited(visited, t.Name))

	case TSeqVar:
		if visited[t.Name] {
			return t, nil
		}
		ts, ok := s.Seq(t.Name)
		if !ok {
			return t, nil
		}
		// A sequence in a type position reads as a tuple of its elements.
		elems, err := spliceCC(ts, s, withVisited(visited, t.Name))
		if err != nil {
			return nil, err
		}
		return TTuple{Elements: elems}, nil

	case TCon:
		return t, nil

	case TApp:
		ctor, err := resolveCC(t.Constructor, s, visited)
		if err != nil {
			return nil, err
		}
		args, err := spliceCC(t.Args, s, visited)
		if err != nil {
			return nil, err
		}
		// Collapse nested applications: ((Pair Int) Str) is (Pair Int Str).
		if inner, ok := ctor.(TApp); ok {
			merged := make([]Type, 0, len(inner.Args)+len(args))
			merged = append(merged, inner.Args...)
			merged = append(merged, args...)
			return TApp{Constructor: inner.Constructor, Args: merged}, nil
		}
		return TApp{Constructor: ctor, Args: args}, nil

	case TTuple:
		elems, err := spliceCC(t.Elements, s, visited)
		if err != nil {
			return nil, err
		}
		return TTuple{Elements: elems}, nil

	case TFunc:
		params, err := spliceCC(t.Params, s, visited)
		if err != nil {
			return nil, err
		}
		ret, err := resolveCC(t.ReturnType, s, visited)
		if err != nil {
			return nil, err
		}
		return TFunc{Params: params, ReturnType: ret, IsVariadic: t.IsVariadic}, nil

	case TExpand:
		return nil, bindErrf(UnsupportedNesting, -1,
			"spread %s used outside a type argument list", t.String())

	case TMap:
		ctor, err := resolveCC(t.Constructor, s, visited)
		if err != nil {
			return nil, err
		}
		seq, known, err := seqCC(t.Seq, s, visited)
		if err != nil {
			return nil, err
		}
		if !known {
			src, err := partialSeqOperand(t.Seq, s, visited)
			if err != nil {
				return nil, err
			}
			return TMap{Constructor: ctor, Seq: src}, nil
		}
		mapped, err := mapOver(ctor, seq)
		if err != nil {
			return nil, err
		}
		// An unspread Map with a known source reads as a tuple.
		return TTuple{Elements: mapped}, nil
	}
	return t, nil
}

func withVisited(visited map[string]bool, name string) map[string]bool {
	next := make(map[string]bool, len(visited)+1)
	for k, v := range visited {
		next[k] = v
	}
	next[name] = true
	return next
}
