package main

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/require"
)

func parseDoc(t *testing.T, src string) *ast.CommentGroup {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "x.go", "package x\n"+src, parser.ParseComments)
	require.NoError(t, err)
	fn := file.Decls[0].(*ast.FuncDecl)
	return fn.Doc
}

func TestParseDirectiveFound(t *testing.T) {
	doc := parseDoc(t, "//pyjox:slot IntType SlotAdd\nfunc intAdd() {}\n")
	typeVar, slotID, found := parseDirective(doc)
	require.True(t, found)
	require.Equal(t, "IntType", typeVar)
	require.Equal(t, "SlotAdd", slotID)
}

func TestParseDirectiveAbsent(t *testing.T) {
	doc := parseDoc(t, "// just a normal comment\nfunc intAdd() {}\n")
	_, _, found := parseDirective(doc)
	require.False(t, found)
}

func TestGenerateRendersTemplate(t *testing.T) {
	src, err := generate("pybuiltin", []binding{
		{TypeVar: "IntType", SlotID: "SlotAdd", FuncName: "intAdd", OpType: "BinaryOp"},
	})
	require.NoError(t, err)
	require.Contains(t, src, "package pybuiltin")
	require.Contains(t, src, "must(IntType.DefineSlot(pytype.SlotAdd, pytype.BinaryOp(intAdd)))")
}

// Verifies inspect finds exactly the //pyjox:slot bindings none.go
// annotates -- the set zz_slots_generated.go's installGeneratedSlots
// is checked in as, standing in for a `go generate` run this pass
// never invokes.
func TestInspectDiscoversPybuiltinGeneratedSlotBindings(t *testing.T) {
	bindings, pkgName, err := inspect("github.com/funvibe/pyjox/internal/pybuiltin")
	require.NoError(t, err)
	require.Equal(t, "pybuiltin", pkgName)
	require.Equal(t, []binding{
		{TypeVar: "NoneType", SlotID: "SlotBool", FuncName: "noneBool", OpType: "UnaryOp"},
		{TypeVar: "NoneType", SlotID: "SlotRepr", FuncName: "noneRepr", OpType: "UnaryOp"},
		{TypeVar: "NotImplementedType", SlotID: "SlotBool", FuncName: "notImplementedBool", OpType: "UnaryOp"},
		{TypeVar: "NotImplementedType", SlotID: "SlotRepr", FuncName: "notImplementedRepr", OpType: "UnaryOp"},
	}, bindings)
}

func TestGenerateMatchesCheckedInZzSlotsGenerated(t *testing.T) {
	bindings, pkgName, err := inspect("github.com/funvibe/pyjox/internal/pybuiltin")
	require.NoError(t, err)

	src, err := generate(pkgName, bindings)
	require.NoError(t, err)
	require.Contains(t, src, "func installGeneratedSlots() {")
	require.Contains(t, src, "must(NoneType.DefineSlot(pytype.SlotBool, pytype.UnaryOp(noneBool)))")
	require.Contains(t, src, "must(NoneType.DefineSlot(pytype.SlotRepr, pytype.UnaryOp(noneRepr)))")
	require.Contains(t, src, "must(NotImplementedType.DefineSlot(pytype.SlotBool, pytype.UnaryOp(notImplementedBool)))")
	require.Contains(t, src, "must(NotImplementedType.DefineSlot(pytype.SlotRepr, pytype.UnaryOp(notImplementedRepr)))")
}
