package typesystem

// MapType applies a unary type constructor elementwise over a sequence and
// returns the resulting sequence. The result always has exactly as many
// elements as the source, including zero. The source may be a sequence
// placeholder, an explicit tuple, a spread, or a nested Map; it must be
// fully covered by s.
func MapType(ctor Type, source Type, s *Subst) ([]Type, error) {
	rctor, err := resolveCC(ctor, s, nil)
	if err != nil {
		return nil, err
	}
	seq, known, err := seqCC(source, s, nil)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, bindErrf(UnsupportedNesting, -1,
			"map source %s depends on an unbound placeholder", source.String())
	}
	return mapOver(rctor, seq)
}

func mapOver(ctor Type, seq []Type) ([]Type, error) {
	if err := checkCtor(ctor); err != nil {
		return nil, err
	}
	out := make([]Type, len(seq))
	for i, el := range seq {
		out[i] = applyCtor(ctor, el)
	}
	return out, nil
}

// checkCtor rejects map constructors that demonstrably cannot take one more
// argument. Placeholders and kind-unannotated constructors pass; the
// front-end owns their kinds.
func checkCtor(ctor Type) error {
	switch c := ctor.(type) {
	case TVar:
		return nil
	case TCon:
		if c.KindVal == nil {
			return nil
		}
		return checkCtorKind(ctor, c.KindVal)
	case TApp:
		switch head := c.Constructor.(type) {
		case TVar:
			return nil
		case TCon:
			if head.KindVal == nil {
				return nil
			}
		}
		return checkCtorKind(ctor, c.Kind())
	}
	return bindErrf(StructuralMismatch, -1,
		"%s is not a unary type constructor", ctor.String())
}

func checkCtorKind(ctor Type, k Kind) error {
	switch k := k.(type) {
	case KWildcard:
		return nil
	case KArrow:
		if !k.Left.Equal(Star) {
			return bindErrf(StructuralMismatch, -1,
				"constructor %s takes an argument of kind %s, not *",
				ctor.String(), k.Left.String())
		}
		return nil
	}
	return bindErrf(StructuralMismatch, -1,
		"%s has kind %s and cannot be applied", ctor.String(), k.String())
}

// applyCtor applies ctor to one element, extending an existing application
// rather than nesting a new one.
func applyCtor(ctor Type, elem Type) Type {
	if app, ok := ctor.(TApp); ok {
		args := make([]Type, 0, len(app.Args)+1)
		args = append(args, app.Args...)
		args = append(args, elem)
		return TApp{Constructor: app.Constructor, Args: args}
	}
	return TApp{Constructor: ctor, Args: []Type{elem}}
}
