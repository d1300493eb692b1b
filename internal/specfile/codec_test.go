package specfile

import (
	"strings"
	"testing"

	"github.com/funvibe/funvar/pkg/binder"
	"github.com/funvibe/funvar/pkg/typesystem"
)

func TestDecodeType(t *testing.T) {
	listInt := typesystem.TApp{
		Constructor: typesystem.TCon{Name: "List"},
		Args:        []typesystem.Type{typesystem.TCon{Name: "Int"}},
	}

	tests := []struct {
		name string
		node Node
		want typesystem.Type
	}{
		{"var", Node{Var: "T"}, typesystem.TVar{Name: "T"}},
		{"seq", Node{Seq: "Ts"}, typesystem.TSeqVar{Name: "Ts"}},
		{"con", Node{Con: "Int"}, typesystem.TCon{Name: "Int"}},
		{"qualified con", Node{Con: "Pair", Module: "user"}, typesystem.TCon{Name: "Pair", Module: "user"}},
		{
			"app",
			Node{App: &AppNode{Ctor: Node{Con: "List"}, Args: []Node{{Con: "Int"}}}},
			listInt,
		},
		{
			"tuple",
			Node{Tuple: &TupleNode{Elems: []Node{{Con: "Int"}, {Var: "T"}}}},
			typesystem.TTuple{Elements: []typesystem.Type{
				typesystem.TCon{Name: "Int"}, typesystem.TVar{Name: "T"},
			}},
		},
		{
			"empty tuple",
			Node{Tuple: &TupleNode{Elems: []Node{}}},
			typesystem.TTuple{},
		},
		{
			"expand",
			Node{Expand: &Node{Seq: "Ts"}},
			typesystem.TExpand{Operand: typesystem.TSeqVar{Name: "Ts"}},
		},
		{
			"map",
			Node{Map: &MapNode{Ctor: Node{Con: "List"}, Seq: Node{Seq: "Ts"}}},
			typesystem.TMap{Constructor: typesystem.TCon{Name: "List"}, Seq: typesystem.TSeqVar{Name: "Ts"}},
		},
		{
			"nested app in tuple",
			Node{Tuple: &TupleNode{Elems: []Node{
				{App: &AppNode{Ctor: Node{Con: "List"}, Args: []Node{{Con: "Int"}}}},
			}}},
			typesystem.TTuple{Elements: []typesystem.Type{listInt}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeType(tt.node)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !typesystem.Equal(got, tt.want) {
				t.Errorf("DecodeType = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDecodeTypeFunc(t *testing.T) {
	ret := Node{Con: "Bool"}
	n := Node{Func: &FuncNode{
		Params:   []Node{{Con: "Int"}, {Var: "T"}},
		Return:   &ret,
		Variadic: true,
	}}
	got, err := DecodeType(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fn, ok := got.(typesystem.TFunc)
	if !ok {
		t.Fatalf("got %T, want TFunc", got)
	}
	if !fn.IsVariadic {
		t.Error("expected variadic")
	}
	if len(fn.Params) != 2 {
		t.Errorf("params len = %d, want 2", len(fn.Params))
	}
	if !typesystem.Equal(fn.ReturnType, typesystem.TCon{Name: "Bool"}) {
		t.Errorf("return = %s, want Bool", fn.ReturnType)
	}
}

func TestDecodeTypeKind(t *testing.T) {
	n := Node{Con: "List", Kind: "* -> *"}
	got, err := DecodeType(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	con, ok := got.(typesystem.TCon)
	if !ok {
		t.Fatalf("got %T, want TCon", got)
	}
	want := typesystem.KArrow{Left: typesystem.Star, Right: typesystem.Star}
	if !con.Kind().Equal(want) {
		t.Errorf("kind = %s, want %s", con.Kind(), want)
	}
}

func TestDecodeTypeEmpty(t *testing.T) {
	if _, err := DecodeType(Node{}); err == nil {
		t.Fatal("expected error for empty node")
	}
}

func TestEncodeTypeRoundTrip(t *testing.T) {
	ty := typesystem.TFunc{
		Params: []typesystem.Type{
			typesystem.TApp{
				Constructor: typesystem.TCon{Name: "Pair", Module: "user"},
				Args: []typesystem.Type{
					typesystem.TVar{Name: "T"},
					typesystem.TExpand{Operand: typesystem.TSeqVar{Name: "Ts"}},
				},
			},
			typesystem.TTuple{},
		},
		ReturnType: typesystem.TMap{
			Constructor: typesystem.TCon{Name: "List", KindVal: typesystem.MakeArrow(typesystem.Star, typesystem.Star)},
			Seq:         typesystem.TSeqVar{Name: "Ts"},
		},
		IsVariadic: true,
	}

	n, err := EncodeType(ty)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	back, err := DecodeType(n)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !typesystem.Equal(back, ty) {
		t.Errorf("round trip changed the type: %s -> %s", ty, back)
	}
}

func TestDecodeParams(t *testing.T) {
	nodes := []ParamNode{
		{Var: "T1"},
		{Type: &Node{Con: "Int"}},
		{Name: "rows", Expand: "Ts"},
		{Seq: "Us"},
		{Name: "kw", Rest: "keyword", Var: "K"},
	}
	list, err := DecodeParams(nodes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 5 {
		t.Fatalf("len = %d, want 5", len(list))
	}
	if list[0].Slot != binder.SlotFixed || list[0].Var.Name != "T1" {
		t.Errorf("params[0] = %s, want fixed T1", list[0])
	}
	if list[1].Slot != binder.SlotConcrete {
		t.Errorf("params[1].Slot = %s, want concrete", list[1].Slot)
	}
	if list[2].Slot != binder.SlotExpand || list[2].Name != "rows" {
		t.Errorf("params[2] = %s, want named expand", list[2])
	}
	if list[3].Slot != binder.SlotUnexpanded || list[3].Seq.Name != "Us" {
		t.Errorf("params[3] = %s, want unexpanded Us", list[3])
	}
	if list[4].Rest != binder.RestKeyword {
		t.Errorf("params[4].Rest = %s, want keyword", list[4].Rest)
	}

	if err := binder.Validate(list); err != nil {
		t.Errorf("decoded list should validate: %v", err)
	}
}

func TestDecodeParamsRestPositional(t *testing.T) {
	nodes := []ParamNode{
		{Var: "T1"},
		{Name: "args", Rest: "positional", Expand: "Ts"},
	}
	list, err := DecodeParams(nodes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list[1].Rest != binder.RestPositional {
		t.Errorf("rest = %s, want positional", list[1].Rest)
	}
	if list[1].String() != "*args: ...Ts" {
		t.Errorf("String = %q, want *args: ...Ts", list[1].String())
	}
}

func TestDecodeParamErrors(t *testing.T) {
	tests := []struct {
		name string
		node ParamNode
		msg  string
	}{
		{"no form", ParamNode{Name: "x"}, "required"},
		{"two forms", ParamNode{Var: "T", Seq: "Ts"}, "mutually exclusive"},
		{"kind on seq", ParamNode{Seq: "Ts", Kind: "*"}, "only valid with var"},
		{"bad rest", ParamNode{Var: "T", Rest: "trailing"}, "rest must be"},
		{"bad kind", ParamNode{Var: "T", Kind: "!!"}, "unknown kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeParams([]ParamNode{tt.node})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q does not mention %q", err, tt.msg)
			}
		})
	}
}

func TestEncodeParamsRoundTrip(t *testing.T) {
	list := binder.ParamList{
		binder.Fixed(typesystem.TVar{Name: "T1", KindVal: typesystem.Star}),
		binder.Concrete(typesystem.TApp{
			Constructor: typesystem.TCon{Name: "List"},
			Args:        []typesystem.Type{typesystem.TCon{Name: "Int"}},
		}),
		binder.Expand(typesystem.TSeqVar{Name: "Ts"}).WithName("rows"),
		binder.Unexpanded(typesystem.TSeqVar{Name: "Us"}),
		binder.Fixed(typesystem.TVar{Name: "K"}).WithName("kw").WithRest(binder.RestKeyword),
	}
	nodes, err := EncodeParams(list)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	back, err := DecodeParams(nodes)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(back) != len(list) {
		t.Fatalf("len = %d, want %d", len(back), len(list))
	}
	for i := range list {
		if back[i].String() != list[i].String() {
			t.Errorf("params[%d] = %s, want %s", i, back[i], list[i])
		}
		if back[i].Slot != list[i].Slot || back[i].Rest != list[i].Rest {
			t.Errorf("params[%d] slot/rest = %s/%s, want %s/%s",
				i, back[i].Slot, back[i].Rest, list[i].Slot, list[i].Rest)
		}
	}
}

func TestParseKind(t *testing.T) {
	arrow := typesystem.KArrow{Left: typesystem.Star, Right: typesystem.Star}

	tests := []struct {
		in   string
		want typesystem.Kind
	}{
		{"*", typesystem.Star},
		{"[*]", typesystem.Seq},
		{"?", typesystem.AnyKind},
		{"* -> *", arrow},
		{"*->*", arrow},
		{"(* -> *)", arrow},
		{"* -> * -> *", typesystem.KArrow{Left: typesystem.Star, Right: arrow}},
		{"(* -> *) -> *", typesystem.KArrow{Left: arrow, Right: typesystem.Star}},
		{"[*] -> *", typesystem.KArrow{Left: typesystem.Seq, Right: typesystem.Star}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseKind(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseKind(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}

	if k, err := parseKind(""); err != nil || k != nil {
		t.Errorf("parseKind(\"\") = %v, %v; want nil, nil", k, err)
	}
	for _, bad := range []string{"**", "-> *", "* ->", "(", "(*"} {
		if _, err := parseKind(bad); err == nil {
			t.Errorf("parseKind(%q): expected error", bad)
		}
	}
}

func TestKindStringRoundTrip(t *testing.T) {
	kinds := []typesystem.Kind{
		typesystem.Star,
		typesystem.Seq,
		typesystem.AnyKind,
		typesystem.MakeArrow(typesystem.Star, typesystem.Star),
		typesystem.MakeArrow(typesystem.Star, typesystem.Star, typesystem.Star),
		typesystem.KArrow{
			Left:  typesystem.KArrow{Left: typesystem.Star, Right: typesystem.Star},
			Right: typesystem.Star,
		},
	}
	for _, k := range kinds {
		s := kindString(k)
		back, err := parseKind(s)
		if err != nil {
			t.Fatalf("parseKind(%q): %v", s, err)
		}
		if !back.Equal(k) {
			t.Errorf("kind %s round-tripped to %s via %q", k, back, s)
		}
	}
}

func TestSubstCodec(t *testing.T) {
	sub := typesystem.NewSubst(
		map[string]typesystem.Type{
			"T1": typesystem.TCon{Name: "Int"},
			"T2": typesystem.TApp{
				Constructor: typesystem.TCon{Name: "List"},
				Args:        []typesystem.Type{typesystem.TCon{Name: "Str"}},
			},
		},
		map[string][]typesystem.Type{
			"Ts": {typesystem.TCon{Name: "Bool"}, typesystem.TCon{Name: "Float"}},
			"Us": {},
		},
	)

	data, err := EncodeSubst(sub)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	back, err := DecodeSubst(data)
	if err != nil {
		t.Fatalf("decode: %v\n%s", err, data)
	}

	if back.Len() != sub.Len() {
		t.Fatalf("Len = %d, want %d", back.Len(), sub.Len())
	}
	for _, name := range sub.VarNames() {
		want, _ := sub.Type(name)
		got, ok := back.Type(name)
		if !ok || !typesystem.Equal(got, want) {
			t.Errorf("var %s = %v, want %v", name, got, want)
		}
	}
	for _, name := range sub.SeqNames() {
		want, _ := sub.Seq(name)
		got, ok := back.Seq(name)
		if !ok || !typesystem.EqualSeq(got, want) {
			t.Errorf("seq %s = %v, want %v", name, got, want)
		}
	}

	// The empty sequence binding must survive as a binding, not vanish.
	if _, ok := back.Seq("Us"); !ok {
		t.Error("empty sequence binding Us was dropped")
	}
}

func TestDecodeSubstHandWritten(t *testing.T) {
	doc := `
vars:
  T1: { con: Int }
seqs:
  Ts:
    - con: Str
    - var: U
`
	sub, err := DecodeSubst([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, ok := sub.Type("T1"); !ok || !typesystem.Equal(got, typesystem.TCon{Name: "Int"}) {
		t.Errorf("T1 = %v", got)
	}
	ts, ok := sub.Seq("Ts")
	if !ok || len(ts) != 2 {
		t.Fatalf("Ts = %v", ts)
	}
	if !typesystem.Equal(ts[1], typesystem.TVar{Name: "U"}) {
		t.Errorf("Ts[1] = %s, want U", ts[1])
	}
}
