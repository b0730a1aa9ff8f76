package pybind

import (
	"testing"

	"github.com/funvibe/pyjox/internal/pybuiltin"
	"github.com/funvibe/pyjox/internal/pytype"
	"github.com/stretchr/testify/require"
)

func init() {
	pybuiltin.Register()
}

func simpleCode(t *testing.T, argcount, nlocals int, flags pybuiltin.CodeFlags, varnames []string) *pybuiltin.CodeObj {
	t.Helper()
	code, err := pybuiltin.NewCode(pybuiltin.CodeObj{
		Argcount: argcount,
		Nlocals:  nlocals,
		Flags:    flags,
		Bytecode: []byte{0, 0},
		Varnames: varnames,
		Name:     "f",
		Filename: "<test>",
	})
	require.NoError(t, err)
	return code
}

func TestBindPositionalOnly(t *testing.T) {
	code := simpleCode(t, 2, 2, pybuiltin.CodeOptimized, []string{"a", "b"})
	fastlocals := make([]pytype.Value, code.Nlocals)
	bound := make([]bool, code.Nlocals)

	err := Bind(fastlocals, bound, code, []pytype.Value{pytype.IntVal(1), pytype.IntVal(2)}, nil, nil, nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), fastlocals[0].AsInt())
	require.Equal(t, int64(2), fastlocals[1].AsInt())
}

func TestBindKeywordMatchesVarname(t *testing.T) {
	code := simpleCode(t, 2, 2, pybuiltin.CodeOptimized, []string{"a", "b"})
	fastlocals := make([]pytype.Value, code.Nlocals)
	bound := make([]bool, code.Nlocals)

	dv := pybuiltin.NewDict()
	kwargs, _ := pybuiltin.AsDict(dv)
	require.NoError(t, kwargs.Set(pybuiltin.NewStr("b"), pytype.IntVal(9)))

	err := Bind(fastlocals, bound, code, []pytype.Value{pytype.IntVal(1)}, kwargs, nil, nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), fastlocals[0].AsInt())
	require.Equal(t, int64(9), fastlocals[1].AsInt())
}

func TestBindMultipleValuesForArgumentErrors(t *testing.T) {
	code := simpleCode(t, 2, 2, pybuiltin.CodeOptimized, []string{"a", "b"})
	fastlocals := make([]pytype.Value, code.Nlocals)
	bound := make([]bool, code.Nlocals)

	dv := pybuiltin.NewDict()
	kwargs, _ := pybuiltin.AsDict(dv)
	require.NoError(t, kwargs.Set(pybuiltin.NewStr("a"), pytype.IntVal(9)))

	err := Bind(fastlocals, bound, code, []pytype.Value{pytype.IntVal(1), pytype.IntVal(2)}, kwargs, nil, nil)
	require.Error(t, err)
}

func TestBindDefaultsFillUnboundTail(t *testing.T) {
	code := simpleCode(t, 2, 2, pybuiltin.CodeOptimized, []string{"a", "b"})
	fastlocals := make([]pytype.Value, code.Nlocals)
	bound := make([]bool, code.Nlocals)

	err := Bind(fastlocals, bound, code, []pytype.Value{pytype.IntVal(1)}, nil, []pytype.Value{pytype.IntVal(42)}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(42), fastlocals[1].AsInt())
}

func TestBindMissingRequiredArgumentErrors(t *testing.T) {
	code := simpleCode(t, 2, 2, pybuiltin.CodeOptimized, []string{"a", "b"})
	fastlocals := make([]pytype.Value, code.Nlocals)
	bound := make([]bool, code.Nlocals)

	err := Bind(fastlocals, bound, code, nil, nil, nil, nil)
	require.Error(t, err)
}

func TestBindVarargsAbsorbsExcess(t *testing.T) {
	code, err := pybuiltin.NewCode(pybuiltin.CodeObj{
		Argcount: 1,
		Nlocals:  2,
		Flags:    pybuiltin.CodeOptimized | pybuiltin.CodeVarargs,
		Bytecode: []byte{0, 0},
		Varnames: []string{"a", "rest"},
		Name:     "f",
	})
	require.NoError(t, err)
	fastlocals := make([]pytype.Value, code.Nlocals)
	bound := make([]bool, code.Nlocals)

	err = Bind(fastlocals, bound, code, []pytype.Value{pytype.IntVal(1), pytype.IntVal(2), pytype.IntVal(3)}, nil, nil, nil)
	require.NoError(t, err)
	rest, ok := pybuiltin.AsTuple(fastlocals[1])
	require.True(t, ok)
	require.Len(t, rest.Elems, 2)
}

func TestBindTooManyPositionalWithoutVarargsErrors(t *testing.T) {
	code := simpleCode(t, 1, 1, pybuiltin.CodeOptimized, []string{"a"})
	fastlocals := make([]pytype.Value, code.Nlocals)
	bound := make([]bool, code.Nlocals)

	err := Bind(fastlocals, bound, code, []pytype.Value{pytype.IntVal(1), pytype.IntVal(2)}, nil, nil, nil)
	require.Error(t, err)
}

func TestApplyCell2ArgMovesBoundValueIntoCell(t *testing.T) {
	fastlocals := []pytype.Value{pytype.IntVal(7)}
	bound := []bool{true}
	cells := []pytype.Value{pybuiltin.NewCell()}

	ApplyCell2Arg(fastlocals, bound, cells, map[int]int{0: 0})

	cell, ok := pybuiltin.AsCell(cells[0])
	require.True(t, ok)
	got, err := cell.Get()
	require.NoError(t, err)
	require.Equal(t, int64(7), got.AsInt())
	require.False(t, bound[0])
}
