package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/funvibe/funvar/internal/cache"
	"github.com/funvibe/funvar/internal/specfile"
	"github.com/funvibe/funvar/internal/term"
	"github.com/funvibe/funvar/pkg/engine"
	"github.com/funvibe/funvar/pkg/typesystem"
)

// report drives a specfile through the engine, printing one line per
// definition, specialization, call and resolution.
type report struct {
	p   *term.Printer
	eng *engine.Engine

	defs   map[string]*engine.Definition
	total  int
	failed int

	nDefs     int
	nSpecs    int
	nCalls    int
	nResolves int
}

func newReport(p *term.Printer, eng *engine.Engine) *report {
	return &report{p: p, eng: eng, defs: make(map[string]*engine.Definition)}
}

func (r *report) runFile(ctx context.Context, path string, store *cache.Store) error {
	f, err := specfile.Load(path)
	if err != nil {
		return err
	}

	r.p.Println(r.p.Bold(path))
	r.definitions(f)
	r.specializations(f)
	r.calls(f)
	r.summary(ctx, store)
	return nil
}

func (r *report) definitions(f *specfile.File) {
	for _, d := range f.Definitions {
		r.total++
		r.nDefs++
		list, err := specfile.DecodeParams(d.Params)
		if err != nil {
			r.fail("define %s: %v", d.Name, err)
			continue
		}
		def, err := r.eng.ValidateDefinition(d.Name, list)
		r.defs[d.Name] = def
		if err != nil {
			r.fail("define %s: %v", d.Name, err)
			continue
		}
		r.pass("define %s %s", d.Name, r.p.Dim(list.String()))
	}
}

func (r *report) specializations(f *specfile.File) {
	for _, sp := range f.Specializations {
		r.total++
		r.nSpecs++
		list, err := specfile.DecodeParams(sp.Params)
		if err != nil {
			r.fail("specialize %s/%d: %v", sp.Definition, sp.Arity, err)
			continue
		}
		if err := r.eng.Specialize(r.defs[sp.Definition], sp.Arity, list); err != nil {
			r.fail("specialize %s/%d: %v", sp.Definition, sp.Arity, err)
			continue
		}
		r.pass("specialize %s/%d %s", sp.Definition, sp.Arity, r.p.Dim(list.String()))
	}
}

func (r *report) calls(f *specfile.File) {
	for _, call := range f.Calls {
		r.total++
		r.nCalls++
		def := r.defs[call.Definition]
		args, err := specfile.DecodeTypes(call.Args)
		if err != nil {
			r.fail("bind %s: %v", call.Definition, err)
			continue
		}
		sub, err := r.eng.BindCall(def, args)
		if err != nil {
			r.fail("bind %s(%s): %v", call.Definition, renderTypes(args), err)
			continue
		}
		r.pass("bind %s(%s) %s", call.Definition, renderTypes(args), r.p.Cyan(sub.String()))
		r.resolves(call, sub)
	}
}

func (r *report) resolves(call specfile.Call, sub *typesystem.Subst) {
	for _, rn := range call.Resolve {
		r.total++
		r.nResolves++
		expr, err := specfile.DecodeType(rn)
		if err != nil {
			r.fail("resolve in %s: %v", call.Definition, err)
			continue
		}
		res, err := r.eng.Resolve(expr, sub)
		if err != nil {
			r.fail("resolve %s: %v", expr, err)
			continue
		}
		r.pass("resolve %s = %s", expr, res)
	}
}

func (r *report) summary(ctx context.Context, store *cache.Store) {
	r.p.Table(
		[]string{"definitions", "specializations", "calls", "resolutions", "failed"},
		[][]string{{
			strconv.Itoa(r.nDefs),
			strconv.Itoa(r.nSpecs),
			strconv.Itoa(r.nCalls),
			strconv.Itoa(r.nResolves),
			strconv.Itoa(r.failed),
		}},
	)
	if store != nil {
		if n, err := store.Count(ctx); err == nil {
			r.p.Printf("%d bindings persisted\n", n)
		}
	}
}

func (r *report) pass(format string, args ...interface{}) {
	r.p.Printf("%s %s\n", r.p.Green("✓"), fmt.Sprintf(format, args...))
}

func (r *report) fail(format string, args ...interface{}) {
	r.failed++
	r.p.Printf("%s %s\n", r.p.Red("✗"), fmt.Sprintf(format, args...))
}

func renderTypes(ts []typesystem.Type) string {
	parts := make([]string, 0, len(ts))
	for _, t := range ts {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, ", ")
}
