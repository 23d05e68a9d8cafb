package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rupertlssmith/gowam/internal/instr"
)

func TestNewStandardRegistersEveryFamily(t *testing.T) {
	tbl := NewStandard()

	cases := []struct {
		name  string
		arity int
		kind  Kind
	}{
		{"true", 0, KindControl},
		{"fail", 0, KindControl},
		{"!", 0, KindControl},
		{",", 2, KindControl},
		{";", 2, KindControl},
		{"call", 1, KindControl},
		{"is", 2, KindArithIs},
		{">", 2, KindArithCompare},
		{"=", 2, KindUnify},
		{"\\=", 2, KindUnify},
	}
	for _, c := range cases {
		e, ok := tbl.Lookup(c.name, c.arity)
		if assert.True(t, ok, "%s/%d should be registered", c.name, c.arity) {
			assert.Equal(t, c.kind, e.Kind, "%s/%d kind", c.name, c.arity)
		}
	}
}

func TestLookupMissesUserPredicate(t *testing.T) {
	tbl := NewStandard()
	_, ok := tbl.Lookup("append", 3)
	assert.False(t, ok)
}

func TestUnifyNegateFlag(t *testing.T) {
	tbl := NewStandard()
	eq, _ := tbl.Lookup("=", 2)
	neq, _ := tbl.Lookup("\\=", 2)
	assert.False(t, eq.Negate)
	assert.True(t, neq.Negate)
}

func TestArithmeticCompareKinds(t *testing.T) {
	tbl := NewStandard()
	want := map[string]instr.CompareKind{
		">":   instr.CompareGT,
		"<":   instr.CompareLT,
		">=":  instr.CompareGE,
		"=<":  instr.CompareLE,
		"=:=": instr.CompareArithEq,
		"=\\=": instr.CompareArithNeq,
	}
	for name, kind := range want {
		e, ok := tbl.Lookup(name, 2)
		if assert.True(t, ok, name) {
			assert.Equal(t, kind, e.Compare, name)
		}
	}
}

func TestAddOverwritesPriorEntry(t *testing.T) {
	tbl := New()
	tbl.Add(Entry{Name: "foo", Arity: 1, Kind: KindControl})
	tbl.Add(Entry{Name: "foo", Arity: 1, Kind: KindArithIs})
	e, ok := tbl.Lookup("foo", 1)
	if assert.True(t, ok) {
		assert.Equal(t, KindArithIs, e.Kind)
	}
}
