// Package engine ties the validator, binder and resolver together behind a
// registry of definitions with stable identities. It adds the surfaces a
// front-end needs around the pure core: terminal validation caching,
// per-arity specializations, memoized binding with an optional persistent
// store, and concurrent batch evaluation.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/funvibe/funvar/internal/cache"
	"github.com/funvibe/funvar/pkg/binder"
	"github.com/funvibe/funvar/pkg/typesystem"
)

// Config controls optional engine behavior.
type Config struct {
	// Store persists bindings across runs. Optional.
	Store *cache.Store

	// Workers bounds concurrent evaluations in BindBatch. Zero means one
	// worker per CPU.
	Workers int
}

func (c *Config) Validate(logger *slog.Logger) error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	return nil
}

// Definition is one registered parameter list with a stable identity.
// Validation runs exactly once, at registration; a rejected definition
// stays registered and every call against it repeats the same error.
type Definition struct {
	ID     uuid.UUID
	Name   string
	Params binder.ParamList

	err     error
	byArity map[int]specialization
}

// specialization is one fixed-arity overload. It carries its own identity
// so persisted bindings key on the list that actually served the call.
type specialization struct {
	id   uuid.UUID
	list binder.ParamList
}

// defNamespace scopes the deterministic definition identities.
var defNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("funvar.definition"))

// definitionID derives the identity of a named parameter list. The same
// name and list always yield the same id, so bindings persisted by the
// store stay addressable across runs.
func definitionID(name string, list binder.ParamList) uuid.UUID {
	return uuid.NewSHA1(defNamespace, []byte(name+"\x00"+cache.ListKey(list)))
}

// Err returns the terminal validation error, nil for a valid definition.
func (d *Definition) Err() error { return d.err }

// Engine is the facade over the three-function contract.
type Engine struct {
	logger *slog.Logger
	store  *cache.Store

	workers int

	mu   sync.RWMutex
	defs map[uuid.UUID]*Definition

	memo cache.Memo
}

func New(logger *slog.Logger, config Config) (*Engine, error) {
	if err := config.Validate(logger); err != nil {
		return nil, fmt.Errorf("failed to validate engine config: %w", err)
	}
	return &Engine{
		logger:  logger,
		store:   config.Store,
		workers: config.Workers,
		defs:    make(map[uuid.UUID]*Definition),
	}, nil
}

// ValidateDefinition registers a parameter list and validates it. The
// Definition is returned and registered even when validation fails, so
// callers can keep referring to it; the error is terminal for the
// definition's lifetime. Registering the same name and list again yields
// the same identity and replaces the registry entry.
func (e *Engine) ValidateDefinition(name string, list binder.ParamList) (*Definition, error) {
	def := &Definition{
		ID:     definitionID(name, list),
		Name:   name,
		Params: list,
		err:    binder.Validate(list),
	}

	e.mu.Lock()
	e.defs[def.ID] = def
	e.mu.Unlock()

	if def.err != nil {
		e.logger.Warn("definition rejected", "name", name, "id", def.ID, "err", def.err)
		return def, def.err
	}
	e.logger.Debug("definition validated", "name", name, "id", def.ID, "params", list.String())
	return def, nil
}

// Definition returns a registered definition by identity.
func (e *Engine) Definition(id uuid.UUID) (*Definition, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	def, ok := e.defs[id]
	return def, ok
}

// Specialize registers a fixed-arity overload of def. A call whose
// argument count equals arity binds against list instead of the general
// parameter list. Specializations belong to setup: register them before
// binding calls, a call already memoized under the general list is not
// re-evaluated.
func (e *Engine) Specialize(def *Definition, arity int, list binder.ParamList) error {
	if def.err != nil {
		return def.err
	}
	if arity < 0 {
		return fmt.Errorf("specialization arity must be non-negative, got %d", arity)
	}
	if err := binder.Validate(list); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := def.byArity[arity]; ok {
		return fmt.Errorf("%s already has a specialization for arity %d", def.Name, arity)
	}
	if def.byArity == nil {
		def.byArity = make(map[int]specialization)
	}
	id := definitionID(fmt.Sprintf("%s#%d", def.Name, arity), list)
	def.byArity[arity] = specialization{id: id, list: list}
	e.logger.Debug("specialization registered", "name", def.Name, "arity", arity, "params", list.String())
	return nil
}

// BindCall binds an argument list against def, selecting an exact-arity
// specialization when one is registered. Successful bindings are memoized:
// repeated identical calls return the same substitution, which is safe to
// share because substitutions are immutable.
func (e *Engine) BindCall(def *Definition, args []typesystem.Type) (*typesystem.Subst, error) {
	return e.bindCall(context.Background(), def, args)
}

func (e *Engine) bindCall(ctx context.Context, def *Definition, args []typesystem.Type) (*typesystem.Subst, error) {
	if def.err != nil {
		return nil, def.err
	}

	list, listID := e.listFor(def, len(args))
	argKey := cache.ArgKey(args)

	if sub, ok := e.memo.Load(listID, argKey); ok {
		return sub, nil
	}
	if e.store != nil {
		sub, ok, err := e.store.Get(ctx, listID, argKey)
		if err != nil {
			e.logger.Warn("binding store read failed", "name", def.Name, "err", err)
		} else if ok {
			sub, _ = e.memo.LoadOrStore(listID, argKey, sub)
			return sub, nil
		}
	}

	sub, err := binder.Bind(list, args)
	if err != nil {
		e.logger.Debug("call rejected", "name", def.Name, "args", len(args), "err", err)
		return nil, err
	}

	sub, loaded := e.memo.LoadOrStore(listID, argKey, sub)
	if !loaded && e.store != nil {
		if err := e.store.Put(ctx, listID, argKey, sub); err != nil {
			e.logger.Warn("binding store write failed", "name", def.Name, "err", err)
		}
	}
	e.logger.Debug("call bound", "name", def.Name, "args", len(args), "bindings", sub.Len())
	return sub, nil
}

// listFor selects the parameter list for an argument count: the exact
// arity specialization when registered, otherwise the general list. The
// returned id identifies the selected list for cache keying.
func (e *Engine) listFor(def *Definition, arity int) (binder.ParamList, string) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if sp, ok := def.byArity[arity]; ok {
		return sp.list, sp.id.String()
	}
	return def.Params, def.ID.String()
}

// Resolve applies a binding to a type expression: placeholders are
// replaced, spreads spliced into their argument lists and Map expressions
// evaluated.
func (e *Engine) Resolve(t typesystem.Type, s *typesystem.Subst) (typesystem.Type, error) {
	return typesystem.Resolve(t, s)
}
