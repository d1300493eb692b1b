// Package cache provides the memoization tiers for binding results: a
// process-local insert-if-absent map and an optional SQLite-backed store
// that survives across runs. Both tiers key entries by the definition
// identity and a canonical rendering of the argument list.
package cache

import (
	"strconv"
	"strings"
	"sync"

	"github.com/funvibe/funvar/pkg/binder"
	"github.com/funvibe/funvar/pkg/typesystem"
)

// ArgKey renders an argument list canonically. Structurally equal lists
// render identically and therefore share cache entries; distinct forms
// with the same display name (a placeholder T versus a concrete T) do not
// collide because every node carries a form tag.
func ArgKey(args []typesystem.Type) string {
	var b strings.Builder
	for i, a := range args {
		if i > 0 {
			b.WriteByte(' ')
		}
		writeKey(&b, a)
	}
	return b.String()
}

func writeKey(b *strings.Builder, t typesystem.Type) {
	switch t := t.(type) {
	case typesystem.TVar:
		b.WriteString("v:")
		b.WriteString(t.Name)
	case typesystem.TSeqVar:
		b.WriteString("s:")
		b.WriteString(t.Name)
	case typesystem.TCon:
		b.WriteString("c:")
		if t.Module != "" {
			b.WriteString(t.Module)
			b.WriteByte('.')
		}
		b.WriteString(t.Name)
	case typesystem.TApp:
		b.WriteString("a(")
		writeKey(b, t.Constructor)
		for _, arg := range t.Args {
			b.WriteByte(' ')
			writeKey(b, arg)
		}
		b.WriteByte(')')
	case typesystem.TTuple:
		b.WriteString("t(")
		for i, el := range t.Elements {
			if i > 0 {
				b.WriteByte(' ')
			}
			writeKey(b, el)
		}
		b.WriteByte(')')
	case typesystem.TFunc:
		b.WriteString("f")
		b.WriteString(strconv.FormatBool(t.IsVariadic))
		b.WriteByte('(')
		for i, p := range t.Params {
			if i > 0 {
				b.WriteByte(' ')
			}
			writeKey(b, p)
		}
		b.WriteString(")->")
		if t.ReturnType != nil {
			writeKey(b, t.ReturnType)
		}
	case typesystem.TExpand:
		b.WriteString("e(")
		writeKey(b, t.Operand)
		b.WriteByte(')')
	case typesystem.TMap:
		b.WriteString("m(")
		writeKey(b, t.Constructor)
		b.WriteByte(' ')
		writeKey(b, t.Seq)
		b.WriteByte(')')
	}
}

// ListKey renders a parameter list canonically, form-tagged the same way
// as ArgKey. Surface parameter names do not participate: they are
// diagnostics only and two lists differing just in names bind identically.
func ListKey(list binder.ParamList) string {
	var b strings.Builder
	for i, p := range list {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch p.Rest {
		case binder.RestPositional:
			b.WriteByte('*')
		case binder.RestKeyword:
			b.WriteString("**")
		}
		switch p.Slot {
		case binder.SlotFixed:
			b.WriteString("F(")
			writeKey(&b, p.Var)
		case binder.SlotConcrete:
			b.WriteString("C(")
			writeKey(&b, p.Con)
		case binder.SlotExpand:
			b.WriteString("E(")
			writeKey(&b, p.Seq)
		case binder.SlotUnexpanded:
			b.WriteString("U(")
			writeKey(&b, p.Seq)
		}
		b.WriteByte(')')
	}
	return b.String()
}

type memoKey struct {
	def  string
	args string
}

// Memo is the in-process tier. The first stored value for a key wins and
// later duplicates are discarded; that is sound because substitutions are
// immutable and duplicate computations of the same call produce equal
// values.
type Memo struct {
	m sync.Map
}

// Load returns the memoized substitution for one call.
func (c *Memo) Load(defID, argKey string) (*typesystem.Subst, bool) {
	v, ok := c.m.Load(memoKey{defID, argKey})
	if !ok {
		return nil, false
	}
	return v.(*typesystem.Subst), true
}

// LoadOrStore memoizes sub, or returns the value already memoized for the
// same call. The second result reports whether an entry was already
// present.
func (c *Memo) LoadOrStore(defID, argKey string, sub *typesystem.Subst) (*typesystem.Subst, bool) {
	v, loaded := c.m.LoadOrStore(memoKey{defID, argKey}, sub)
	return v.(*typesystem.Subst), loaded
}
