package binder

import (
	"fmt"
	"testing"

	"github.com/funvibe/funvar/pkg/typesystem"
)

// FuzzBind drives the matcher with lists and argument runs derived from the
// fuzz input and checks totality: a validated list never panics and always
// yields exactly one of a substitution or a coded error, and a successful
// spread binding round-trips the middle run.
func FuzzBind(f *testing.F) {
	f.Add(uint8(2), uint8(1), true, uint8(4), uint16(0x2c5a))
	f.Add(uint8(0), uint8(0), true, uint8(0), uint16(0))
	f.Add(uint8(3), uint8(0), false, uint8(3), uint16(0xffff))
	f.Add(uint8(1), uint8(2), true, uint8(2), uint16(0x0101))
	f.Add(uint8(0), uint8(4), false, uint8(7), uint16(0x9e3d))

	palette := []typesystem.Type{
		typesystem.TCon{Name: "Int"},
		typesystem.TCon{Name: "Str"},
		typesystem.TCon{Name: "Bool"},
		typesystem.TTuple{Elements: []typesystem.Type{typesystem.TCon{Name: "Int"}}},
	}

	f.Fuzz(func(t *testing.T, kRaw, mRaw uint8, withRegion bool, nRaw uint8, shape uint16) {
		k := int(kRaw % 5)
		m := int(mRaw % 5)
		n := int(nRaw % 12)

		pick := func(i int) uint16 { return (shape >> (i % 16)) & 1 }

		var list ParamList
		for i := 0; i < k; i++ {
			list = append(list, fuzzParam(i, pick(i)))
		}
		if withRegion {
			list = append(list, Expand(typesystem.TSeqVar{Name: "Ts"}))
		}
		for i := 0; i < m; i++ {
			list = append(list, fuzzParam(k+i, pick(k+i)))
		}
		if err := Validate(list); err != nil {
			t.Fatalf("constructed list %s failed validation: %v", list, err)
		}

		args := make([]typesystem.Type, n)
		for i := range args {
			args[i] = palette[int(shape>>(i%14))%len(palette)]
		}

		sub, err := Bind(list, args)
		if (sub == nil) == (err == nil) {
			t.Fatalf("Bind(%s) returned sub=%v err=%v, want exactly one", list, sub, err)
		}
		if err != nil {
			be, ok := err.(*typesystem.BindError)
			if !ok {
				t.Fatalf("Bind(%s) error %v is not a *BindError", list, err)
			}
			switch be.Code {
			case typesystem.ArityTooFew, typesystem.ArityTooMany, typesystem.StructuralMismatch:
			default:
				t.Fatalf("unexpected error code %s", be.Code)
			}
			return
		}

		if withRegion {
			got, eerr := typesystem.Expand(typesystem.TSeqVar{Name: "Ts"}, sub)
			if eerr != nil {
				t.Fatalf("Expand after successful Bind: %v", eerr)
			}
			if !typesystem.EqualSeq(got, args[k:n-m]) {
				t.Errorf("round-trip: Expand = %v, want %v", got, args[k:n-m])
			}
		}
	})
}

// fuzzParam builds the fixed-position slot for index i: a fresh fixed
// placeholder or a concrete Int, depending on the shape bit.
func fuzzParam(i int, bit uint16) Param {
	if bit == 1 {
		return Concrete(typesystem.TCon{Name: "Int"})
	}
	return Fixed(typesystem.TVar{Name: fmt.Sprintf("T%d", i)})
}
