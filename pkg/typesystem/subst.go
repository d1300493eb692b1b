package typesystem

import (
	"fmt"
	"sort"
	"strings"
)

// Subst is the result of one successful binding: an immutable mapping from
// placeholder names to bound values. Fixed placeholders map to single types,
// sequence placeholders to ordered type sequences. The two namespaces are
// disjoint. A nil *Subst is a valid empty substitution.
type Subst struct {
	vars map[string]Type
	seqs map[string][]Type
}

// NewSubst builds a substitution from the given bindings. Both maps and the
// sequence slices are copied, so later mutation of the inputs cannot leak in.
func NewSubst(vars map[string]Type, seqs map[string][]Type) *Subst {
	s := &Subst{
		vars: make(map[string]Type, len(vars)),
		seqs: make(map[string][]Type, len(seqs)),
	}
	for name, t := range vars {
		s.vars[name] = t
	}
	for name, ts := range seqs {
		s.seqs[name] = append([]Type(nil), ts...)
	}
	return s
}

// Type returns the binding for a fixed placeholder.
func (s *Subst) Type(name string) (Type, bool) {
	if s == nil {
		return nil, false
	}
	t, ok := s.vars[name]
	return t, ok
}

// Seq returns the binding for a sequence placeholder. The returned slice is
// shared; callers must not modify it.
func (s *Subst) Seq(name string) ([]Type, bool) {
	if s == nil {
		return nil, false
	}
	ts, ok := s.seqs[name]
	return ts, ok
}

// Len is the total number of bound placeholders.
func (s *Subst) Len() int {
	if s == nil {
		return 0
	}
	return len(s.vars) + len(s.seqs)
}

// VarNames returns the bound fixed-placeholder names in sorted order.
func (s *Subst) VarNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SeqNames returns the bound sequence-placeholder names in sorted order.
func (s *Subst) SeqNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.seqs))
	for name := range s.seqs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Subst) String() string {
	if s.Len() == 0 {
		return "{}"
	}
	parts := make([]string, 0, s.Len())
	for name, t := range s.vars {
		parts = append(parts, fmt.Sprintf("%s: %s", name, t.String()))
	}
	for name, ts := range s.seqs {
		elems := make([]string, 0, len(ts))
		for _, t := range ts {
			elems = append(elems, t.String())
		}
		parts = append(parts, fmt.Sprintf("%s: [%s]", name, strings.Join(elems, ", ")))
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ", ") + "}"
}
