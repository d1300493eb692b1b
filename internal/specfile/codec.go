package specfile

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/funvar/pkg/binder"
	"github.com/funvibe/funvar/pkg/typesystem"
)

// DecodeType converts a structural node into the engine representation.
func DecodeType(n Node) (typesystem.Type, error) {
	switch {
	case n.Var != "":
		k, err := parseKind(n.Kind)
		if err != nil {
			return nil, err
		}
		return typesystem.TVar{Name: n.Var, KindVal: k}, nil

	case n.Seq != "":
		return typesystem.TSeqVar{Name: n.Seq}, nil

	case n.Con != "":
		k, err := parseKind(n.Kind)
		if err != nil {
			return nil, err
		}
		return typesystem.TCon{Name: n.Con, Module: n.Module, KindVal: k}, nil

	case n.App != nil:
		ctor, err := DecodeType(n.App.Ctor)
		if err != nil {
			return nil, err
		}
		args, err := decodeNodes(n.App.Args)
		if err != nil {
			return nil, err
		}
		return typesystem.TApp{Constructor: ctor, Args: args}, nil

	case n.Tuple != nil:
		elems, err := decodeNodes(n.Tuple.Elems)
		if err != nil {
			return nil, err
		}
		return typesystem.TTuple{Elements: elems}, nil

	case n.Func != nil:
		params, err := decodeNodes(n.Func.Params)
		if err != nil {
			return nil, err
		}
		var ret typesystem.Type
		if n.Func.Return != nil {
			ret, err = DecodeType(*n.Func.Return)
			if err != nil {
				return nil, err
			}
		}
		return typesystem.TFunc{Params: params, ReturnType: ret, IsVariadic: n.Func.Variadic}, nil

	case n.Expand != nil:
		op, err := DecodeType(*n.Expand)
		if err != nil {
			return nil, err
		}
		return typesystem.TExpand{Operand: op}, nil

	case n.Map != nil:
		ctor, err := DecodeType(n.Map.Ctor)
		if err != nil {
			return nil, err
		}
		seq, err := DecodeType(n.Map.Seq)
		if err != nil {
			return nil, err
		}
		return typesystem.TMap{Constructor: ctor, Seq: seq}, nil
	}
	return nil, fmt.Errorf("empty type node")
}

func decodeNodes(nodes []Node) ([]typesystem.Type, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	out := make([]typesystem.Type, 0, len(nodes))
	for i, n := range nodes {
		t, err := DecodeType(n)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// DecodeTypes converts a node list, as used for call arguments.
func DecodeTypes(nodes []Node) ([]typesystem.Type, error) {
	return decodeNodes(nodes)
}

// EncodeType converts an engine type into its structural node.
func EncodeType(t typesystem.Type) (Node, error) {
	switch t := t.(type) {
	case typesystem.TVar:
		return Node{Var: t.Name, Kind: kindString(t.KindVal)}, nil

	case typesystem.TSeqVar:
		return Node{Seq: t.Name}, nil

	case typesystem.TCon:
		return Node{Con: t.Name, Module: t.Module, Kind: kindString(t.KindVal)}, nil

	case typesystem.TApp:
		ctor, err := EncodeType(t.Constructor)
		if err != nil {
			return Node{}, err
		}
		args, err := encodeTypes(t.Args)
		if err != nil {
			return Node{}, err
		}
		return Node{App: &AppNode{Ctor: ctor, Args: args}}, nil

	case typesystem.TTuple:
		elems, err := encodeTypes(t.Elements)
		if err != nil {
			return Node{}, err
		}
		if elems == nil {
			elems = []Node{}
		}
		return Node{Tuple: &TupleNode{Elems: elems}}, nil

	case typesystem.TFunc:
		params, err := encodeTypes(t.Params)
		if err != nil {
			return Node{}, err
		}
		fn := &FuncNode{Params: params, Variadic: t.IsVariadic}
		if t.ReturnType != nil {
			ret, err := EncodeType(t.ReturnType)
			if err != nil {
				return Node{}, err
			}
			fn.Return = &ret
		}
		return Node{Func: fn}, nil

	case typesystem.TExpand:
		op, err := EncodeType(t.Operand)
		if err != nil {
			return Node{}, err
		}
		return Node{Expand: &op}, nil

	case typesystem.TMap:
		ctor, err := EncodeType(t.Constructor)
		if err != nil {
			return Node{}, err
		}
		seq, err := EncodeType(t.Seq)
		if err != nil {
			return Node{}, err
		}
		return Node{Map: &MapNode{Ctor: ctor, Seq: seq}}, nil
	}
	return Node{}, fmt.Errorf("cannot encode %T", t)
}

func encodeTypes(ts []typesystem.Type) ([]Node, error) {
	if len(ts) == 0 {
		return nil, nil
	}
	out := make([]Node, 0, len(ts))
	for i, t := range ts {
		n, err := EncodeType(t)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// DecodeParams converts slot declarations into a parameter list.
func DecodeParams(nodes []ParamNode) (binder.ParamList, error) {
	list := make(binder.ParamList, 0, len(nodes))
	for i, pn := range nodes {
		p, err := decodeParam(pn)
		if err != nil {
			return nil, fmt.Errorf("params[%d]: %w", i, err)
		}
		list = append(list, p)
	}
	return list, nil
}

func decodeParam(pn ParamNode) (binder.Param, error) {
	var p binder.Param
	formCount := 0
	if pn.Var != "" {
		formCount++
	}
	if pn.Expand != "" {
		formCount++
	}
	if pn.Seq != "" {
		formCount++
	}
	if pn.Type != nil {
		formCount++
	}
	if formCount == 0 {
		return p, fmt.Errorf("one of var, expand, seq or type is required")
	}
	if formCount > 1 {
		return p, fmt.Errorf("var, expand, seq and type are mutually exclusive")
	}
	if pn.Kind != "" && pn.Var == "" {
		return p, fmt.Errorf("kind is only valid with var")
	}

	switch {
	case pn.Var != "":
		k, err := parseKind(pn.Kind)
		if err != nil {
			return p, err
		}
		p = binder.Fixed(typesystem.TVar{Name: pn.Var, KindVal: k})
	case pn.Expand != "":
		p = binder.Expand(typesystem.TSeqVar{Name: pn.Expand})
	case pn.Seq != "":
		p = binder.Unexpanded(typesystem.TSeqVar{Name: pn.Seq})
	default:
		t, err := DecodeType(*pn.Type)
		if err != nil {
			return p, err
		}
		p = binder.Concrete(t)
	}

	if pn.Name != "" {
		p = p.WithName(pn.Name)
	}
	switch pn.Rest {
	case "":
	case "positional":
		p = p.WithRest(binder.RestPositional)
	case "keyword":
		p = p.WithRest(binder.RestKeyword)
	default:
		return p, fmt.Errorf("rest must be \"positional\" or \"keyword\", got %q", pn.Rest)
	}
	return p, nil
}

// EncodeParams converts a parameter list back into slot declarations.
func EncodeParams(list binder.ParamList) ([]ParamNode, error) {
	nodes := make([]ParamNode, 0, len(list))
	for i, p := range list {
		pn, err := encodeParam(p)
		if err != nil {
			return nil, fmt.Errorf("params[%d]: %w", i, err)
		}
		nodes = append(nodes, pn)
	}
	return nodes, nil
}

func encodeParam(p binder.Param) (ParamNode, error) {
	pn := ParamNode{Name: p.Name}
	switch p.Slot {
	case binder.SlotFixed:
		pn.Var = p.Var.Name
		pn.Kind = kindString(p.Var.KindVal)
	case binder.SlotConcrete:
		n, err := EncodeType(p.Con)
		if err != nil {
			return pn, err
		}
		pn.Type = &n
	case binder.SlotExpand:
		pn.Expand = p.Seq.Name
	case binder.SlotUnexpanded:
		pn.Seq = p.Seq.Name
	default:
		return pn, fmt.Errorf("unknown slot kind %d", p.Slot)
	}
	switch p.Rest {
	case binder.RestPositional:
		pn.Rest = "positional"
	case binder.RestKeyword:
		pn.Rest = "keyword"
	}
	return pn, nil
}

// substDoc is the YAML form of a substitution, used by the persistent
// cache and the service.
type substDoc struct {
	Vars map[string]Node   `yaml:"vars,omitempty"`
	Seqs map[string][]Node `yaml:"seqs,omitempty"`
}

// EncodeSubst serializes a substitution to YAML. Empty sequence bindings
// are preserved.
func EncodeSubst(s *typesystem.Subst) ([]byte, error) {
	var doc substDoc
	if names := s.VarNames(); len(names) > 0 {
		doc.Vars = make(map[string]Node, len(names))
		for _, name := range names {
			t, _ := s.Type(name)
			n, err := EncodeType(t)
			if err != nil {
				return nil, fmt.Errorf("encoding binding %s: %w", name, err)
			}
			doc.Vars[name] = n
		}
	}
	if names := s.SeqNames(); len(names) > 0 {
		doc.Seqs = make(map[string][]Node, len(names))
		for _, name := range names {
			ts, _ := s.Seq(name)
			ns, err := encodeTypes(ts)
			if err != nil {
				return nil, fmt.Errorf("encoding binding %s: %w", name, err)
			}
			if ns == nil {
				ns = []Node{}
			}
			doc.Seqs[name] = ns
		}
	}
	return yaml.Marshal(doc)
}

// DecodeSubst parses a substitution serialized by EncodeSubst.
func DecodeSubst(data []byte) (*typesystem.Subst, error) {
	var doc substDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing substitution: %w", err)
	}
	vars := make(map[string]typesystem.Type, len(doc.Vars))
	for name, n := range doc.Vars {
		t, err := DecodeType(n)
		if err != nil {
			return nil, fmt.Errorf("binding %s: %w", name, err)
		}
		vars[name] = t
	}
	seqs := make(map[string][]typesystem.Type, len(doc.Seqs))
	for name, ns := range doc.Seqs {
		ts, err := decodeNodes(ns)
		if err != nil {
			return nil, fmt.Errorf("binding %s: %w", name, err)
		}
		if ts == nil {
			ts = []typesystem.Type{}
		}
		seqs[name] = ts
	}
	return typesystem.NewSubst(vars, seqs), nil
}

// parseKind parses a kind annotation: "*" (proper type), "[*]" (type
// sequence), "?" (wildcard), or a right-associative arrow such as
// "* -> * -> *". An empty string is no annotation.
func parseKind(s string) (typesystem.Kind, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if i := arrowIndex(s); i >= 0 {
		left, err := parseKind(s[:i])
		if err != nil {
			return nil, err
		}
		right, err := parseKind(s[i+2:])
		if err != nil {
			return nil, err
		}
		if left == nil || right == nil {
			return nil, fmt.Errorf("invalid kind %q", s)
		}
		return typesystem.KArrow{Left: left, Right: right}, nil
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		return parseKind(s[1 : len(s)-1])
	}
	switch s {
	case "*":
		return typesystem.Star, nil
	case "[*]":
		return typesystem.Seq, nil
	case "?":
		return typesystem.AnyKind, nil
	}
	return nil, fmt.Errorf("unknown kind %q", s)
}

// arrowIndex finds the first top-level "->" outside parentheses, or -1.
func arrowIndex(s string) int {
	depth := 0
	for i := 0; i+1 < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case '-':
			if depth == 0 && s[i+1] == '>' {
				return i
			}
		}
	}
	return -1
}

// kindString renders a kind annotation, the inverse of parseKind. A nil
// kind renders as the empty string (no annotation).
func kindString(k typesystem.Kind) string {
	if k == nil {
		return ""
	}
	if a, ok := k.(typesystem.KArrow); ok {
		return a.Left.String() + " -> " + a.Right.String()
	}
	return k.String()
}
