package engine_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/funvar/internal/cache"
	"github.com/funvibe/funvar/pkg/binder"
	"github.com/funvibe/funvar/pkg/engine"
	"github.com/funvibe/funvar/pkg/typesystem"
)

var (
	tInt  = typesystem.TCon{Name: "Int"}
	tStr  = typesystem.TCon{Name: "Str"}
	tBool = typesystem.TCon{Name: "Bool"}
)

func v(name string) typesystem.TVar { return typesystem.TVar{Name: name} }

func sq(name string) typesystem.TSeqVar { return typesystem.TSeqVar{Name: name} }

func args(ts ...typesystem.Type) []typesystem.Type { return ts }

func newEngine(t *testing.T, config engine.Config) *engine.Engine {
	t.Helper()
	e, err := engine.New(slogt.New(t), config)
	require.NoError(t, err)
	return e
}

func TestNewRejectsNegativeWorkers(t *testing.T) {
	_, err := engine.New(slogt.New(t), engine.Config{Workers: -1})
	require.Error(t, err)
}

func TestValidateDefinition(t *testing.T) {
	r := require.New(t)
	e := newEngine(t, engine.Config{})

	def, err := e.ValidateDefinition("pair", binder.ParamList{
		binder.Fixed(v("T1")),
		binder.Expand(sq("Ts")),
	})
	r.NoError(err)
	r.NotNil(def)
	r.NoError(def.Err())

	got, ok := e.Definition(def.ID)
	r.True(ok)
	r.Same(def, got)

	// The same name and list always get the same identity.
	again, err := e.ValidateDefinition("pair", binder.ParamList{
		binder.Fixed(v("T1")),
		binder.Expand(sq("Ts")),
	})
	r.NoError(err)
	r.Equal(def.ID, again.ID)

	// A different list does not.
	other, err := e.ValidateDefinition("pair", binder.ParamList{binder.Fixed(v("T1"))})
	r.NoError(err)
	r.NotEqual(def.ID, other.ID)
}

func TestValidateDefinitionTerminalFailure(t *testing.T) {
	r := require.New(t)
	e := newEngine(t, engine.Config{})

	def, err := e.ValidateDefinition("bad", binder.ParamList{
		binder.Expand(sq("Ts")),
		binder.Expand(sq("Us")),
	})
	r.Error(err)
	r.NotNil(def)

	var de *typesystem.DefinitionError
	r.ErrorAs(err, &de)
	r.Equal(typesystem.MultipleExpansion, de.Code)

	// The failure is terminal: every call repeats it.
	_, bindErr := e.BindCall(def, args(tInt))
	r.Equal(err, bindErr)
	_, bindErr = e.BindCall(def, nil)
	r.Equal(err, bindErr)

	// Specializing a failed definition repeats it too.
	r.Equal(err, e.Specialize(def, 1, binder.ParamList{binder.Fixed(v("A"))}))
}

func TestBindCallMemoized(t *testing.T) {
	r := require.New(t)
	e := newEngine(t, engine.Config{})

	def, err := e.ValidateDefinition("pair", binder.ParamList{
		binder.Fixed(v("T1")),
		binder.Expand(sq("Ts")),
	})
	r.NoError(err)

	s1, err := e.BindCall(def, args(tInt, tStr))
	r.NoError(err)
	s2, err := e.BindCall(def, args(tInt, tStr))
	r.NoError(err)
	r.Same(s1, s2)

	// Structurally equal arguments built independently share the entry.
	s3, err := e.BindCall(def, args(typesystem.TCon{Name: "Int"}, typesystem.TCon{Name: "Str"}))
	r.NoError(err)
	r.Same(s1, s3)

	// Different arguments do not.
	s4, err := e.BindCall(def, args(tBool, tStr))
	r.NoError(err)
	r.NotSame(s1, s4)

	got, ok := s1.Type("T1")
	r.True(ok)
	r.True(typesystem.Equal(got, tInt))
	ts, ok := s1.Seq("Ts")
	r.True(ok)
	r.True(typesystem.EqualSeq(ts, args(tStr)))
}

func TestBindCallConcurrent(t *testing.T) {
	r := require.New(t)
	e := newEngine(t, engine.Config{})

	def, err := e.ValidateDefinition("id", binder.ParamList{binder.Expand(sq("Ts"))})
	r.NoError(err)

	const workers = 16
	subs := make([]*typesystem.Subst, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sub, err := e.BindCall(def, args(tInt, tStr, tBool))
			if err != nil {
				t.Error(err)
				return
			}
			subs[i] = sub
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		r.Same(subs[0], subs[i])
	}
}

func TestBindCallErrors(t *testing.T) {
	r := require.New(t)
	e := newEngine(t, engine.Config{})

	def, err := e.ValidateDefinition("three", binder.ParamList{
		binder.Fixed(v("T1")),
		binder.Fixed(v("T2")),
		binder.Expand(sq("Ts")),
	})
	r.NoError(err)

	_, err = e.BindCall(def, args(tInt))
	var be *typesystem.BindError
	r.ErrorAs(err, &be)
	r.Equal(typesystem.ArityTooFew, be.Code)

	// Errors are not memoized; the call fails identically again.
	_, err = e.BindCall(def, args(tInt))
	r.ErrorAs(err, &be)
	r.Equal(typesystem.ArityTooFew, be.Code)

	fixed, err := e.ValidateDefinition("one", binder.ParamList{binder.Fixed(v("T"))})
	r.NoError(err)
	_, err = e.BindCall(fixed, args(tInt, tStr))
	r.ErrorAs(err, &be)
	r.Equal(typesystem.ArityTooMany, be.Code)
}

func TestSpecialization(t *testing.T) {
	r := require.New(t)
	e := newEngine(t, engine.Config{})

	def, err := e.ValidateDefinition("overloaded", binder.ParamList{binder.Expand(sq("Ts"))})
	r.NoError(err)
	r.NoError(e.Specialize(def, 2, binder.ParamList{
		binder.Fixed(v("A")),
		binder.Fixed(v("B")),
	}))

	// An exact arity match binds against the overload.
	sub, err := e.BindCall(def, args(tInt, tStr))
	r.NoError(err)
	a, ok := sub.Type("A")
	r.True(ok)
	r.True(typesystem.Equal(a, tInt))
	b, ok := sub.Type("B")
	r.True(ok)
	r.True(typesystem.Equal(b, tStr))
	_, ok = sub.Seq("Ts")
	r.False(ok)

	// Any other arity falls back to the general list.
	sub, err = e.BindCall(def, args(tInt, tStr, tBool))
	r.NoError(err)
	ts, ok := sub.Seq("Ts")
	r.True(ok)
	r.Len(ts, 3)

	// Zero is an arity like any other.
	sub, err = e.BindCall(def, nil)
	r.NoError(err)
	ts, ok = sub.Seq("Ts")
	r.True(ok)
	r.Empty(ts)
}

func TestSpecializeRejects(t *testing.T) {
	r := require.New(t)
	e := newEngine(t, engine.Config{})

	def, err := e.ValidateDefinition("f", binder.ParamList{binder.Expand(sq("Ts"))})
	r.NoError(err)
	r.NoError(e.Specialize(def, 1, binder.ParamList{binder.Fixed(v("A"))}))

	// Duplicate arity.
	r.Error(e.Specialize(def, 1, binder.ParamList{binder.Fixed(v("B"))}))

	// Negative arity.
	r.Error(e.Specialize(def, -1, binder.ParamList{binder.Fixed(v("B"))}))

	// The overload list is validated like any definition.
	err = e.Specialize(def, 2, binder.ParamList{
		binder.Expand(sq("Xs")),
		binder.Expand(sq("Ys")),
	})
	var de *typesystem.DefinitionError
	r.ErrorAs(err, &de)
	r.Equal(typesystem.MultipleExpansion, de.Code)
}

func TestEngineWithStore(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bindings.db")

	store, err := cache.OpenStore(path)
	r.NoError(err)
	e := newEngine(t, engine.Config{Store: store})

	def, err := e.ValidateDefinition("pair", binder.ParamList{
		binder.Fixed(v("T1")),
		binder.Expand(sq("Ts")),
	})
	r.NoError(err)

	_, err = e.BindCall(def, args(tInt, tStr, tBool))
	r.NoError(err)
	n, err := store.Count(ctx)
	r.NoError(err)
	r.Equal(1, n)
	r.NoError(store.Close())

	// A fresh engine on the same store finds the persisted binding: the
	// definition identity is deterministic, so the key matches.
	store2, err := cache.OpenStore(path)
	r.NoError(err)
	defer store2.Close()
	e2 := newEngine(t, engine.Config{Store: store2})

	def2, err := e2.ValidateDefinition("pair", binder.ParamList{
		binder.Fixed(v("T1")),
		binder.Expand(sq("Ts")),
	})
	r.NoError(err)
	r.Equal(def.ID, def2.ID)

	sub, err := e2.BindCall(def2, args(tInt, tStr, tBool))
	r.NoError(err)
	got, ok := sub.Type("T1")
	r.True(ok)
	r.True(typesystem.Equal(got, tInt))
	ts, ok := sub.Seq("Ts")
	r.True(ok)
	r.True(typesystem.EqualSeq(ts, args(tStr, tBool)))

	// Equal bindings computed fresh would be indistinguishable, so check
	// the store was not written again.
	n, err = store2.Count(ctx)
	r.NoError(err)
	r.Equal(1, n)

	// The store round-trip feeds the memo: the next call shares the
	// substitution pointer.
	sub2, err := e2.BindCall(def2, args(tInt, tStr, tBool))
	r.NoError(err)
	r.Same(sub, sub2)
}

func TestBindBatch(t *testing.T) {
	r := require.New(t)
	e := newEngine(t, engine.Config{Workers: 4})

	def, err := e.ValidateDefinition("pair", binder.ParamList{
		binder.Fixed(v("T1")),
		binder.Expand(sq("Ts")),
	})
	r.NoError(err)

	calls := []engine.Call{
		{Def: def, Args: args(tInt, tStr)},
		{Def: def, Args: args(tBool)},
		{Def: def, Args: nil}, // too few
		{Def: def, Args: args(tInt, tStr)},
	}
	results := e.BindBatch(context.Background(), calls)
	r.Len(results, len(calls))

	r.NoError(results[0].Err)
	got, _ := results[0].Sub.Type("T1")
	r.True(typesystem.Equal(got, tInt))

	r.NoError(results[1].Err)
	ts, ok := results[1].Sub.Seq("Ts")
	r.True(ok)
	r.Empty(ts)

	r.Nil(results[2].Sub)
	var be *typesystem.BindError
	r.ErrorAs(results[2].Err, &be)
	r.Equal(typesystem.ArityTooFew, be.Code)

	// Identical calls in one batch share the memoized substitution.
	r.NoError(results[3].Err)
	r.Same(results[0].Sub, results[3].Sub)
}

func TestBindBatchCancelled(t *testing.T) {
	r := require.New(t)
	e := newEngine(t, engine.Config{})

	def, err := e.ValidateDefinition("id", binder.ParamList{binder.Expand(sq("Ts"))})
	r.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := e.BindBatch(ctx, []engine.Call{
		{Def: def, Args: args(tInt)},
		{Def: def, Args: args(tStr)},
	})
	r.Len(results, 2)
	for _, res := range results {
		r.ErrorIs(res.Err, context.Canceled)
		r.Nil(res.Sub)
	}
}

func TestResolve(t *testing.T) {
	r := require.New(t)
	e := newEngine(t, engine.Config{})

	def, err := e.ValidateDefinition("wrap", binder.ParamList{binder.Expand(sq("Ts"))})
	r.NoError(err)
	sub, err := e.BindCall(def, args(tInt, tStr))
	r.NoError(err)

	// (Pair ...Ts) resolves with the spread spliced in.
	got, err := e.Resolve(typesystem.TApp{
		Constructor: typesystem.TCon{Name: "Pair"},
		Args:        []typesystem.Type{typesystem.TExpand{Operand: sq("Ts")}},
	}, sub)
	r.NoError(err)
	r.Equal("(Pair Int Str)", got.String())

	// A bare sequence placeholder resolves to the synthetic tuple.
	got, err = e.Resolve(sq("Ts"), sub)
	r.NoError(err)
	r.Equal("(Int, Str)", got.String())
}
