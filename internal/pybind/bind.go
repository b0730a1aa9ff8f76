// Package pybind implements the argument binder of spec §4.F: mapping
// a call's positional/keyword arguments, plus a function's defaults
// and keyword-defaults, onto a frame's fast-locals array, in the
// single-pass order that determines which error is raised first.
//
// Grounded on the teacher's internal/vm/vm_calls.go callClosure, which
// does the same job for the teacher's simpler (no keyword-only, no
// positional-only) calling convention; generalized here to CPython
// 3.8's full parameter-kind taxonomy.
package pybind

import (
	"strings"

	"github.com/funvibe/pyjox/internal/pybuiltin"
	"github.com/funvibe/pyjox/internal/pyerr"
	"github.com/funvibe/pyjox/internal/pytype"
)

// Bind fills fastlocals/bound (both length code.Nlocals) from args and
// kwargs, applying defaults/kwdefaults for anything left unbound.
// kwargs, defaults, and kwdefaults may be nil (treated as empty).
func Bind(
	fastlocals []pytype.Value,
	bound []bool,
	code *pybuiltin.CodeObj,
	args []pytype.Value,
	kwargs *pybuiltin.DictObj,
	defaults []pytype.Value,
	kwdefaults *pybuiltin.DictObj,
) error {
	argcount := code.Argcount
	posonly := code.PosOnlyArgcount
	kwonly := code.KwOnlyArgcount
	hasVarargs := code.Flags.Has(pybuiltin.CodeVarargs)
	hasVarkw := code.Flags.Has(pybuiltin.CodeVarKeywords)

	// 1. positional arguments.
	n := len(args)
	if n > argcount {
		n = argcount
	}
	for i := 0; i < n; i++ {
		fastlocals[i] = args[i]
		bound[i] = true
	}

	// 2. VARARGS absorbs the excess; otherwise the error is deferred to
	// step 4, after keyword binding has had its say (spec ordering).
	if len(args) > argcount && hasVarargs {
		idx := argcount + kwonly
		fastlocals[idx] = pybuiltin.NewTuple(args[argcount:])
		bound[idx] = true
	}

	// 3. keyword arguments.
	if kwargs != nil {
		for _, key := range kwargs.Keys() {
			name, ok := pybuiltin.AsStrValue(key)
			if !ok {
				return pyerr.NewTypeError("keywords must be strings")
			}
			val, _, _ := kwargs.Get(key)
			if match := findVarname(code.Varnames, posonly, argcount+kwonly, name); match >= 0 {
				if bound[match] {
					return pyerr.NewTypeError("%s() got multiple values for argument '%s'", code.Name, name)
				}
				fastlocals[match] = val
				bound[match] = true
				continue
			}
			if hasVarkw {
				idx := argcount + kwonly
				if hasVarargs {
					idx++
				}
				if !bound[idx] {
					fastlocals[idx] = pybuiltin.NewDict()
					bound[idx] = true
				}
				d, _ := pybuiltin.AsDict(fastlocals[idx])
				if err := d.Set(key, val); err != nil {
					return err
				}
				continue
			}
			if findVarname(code.Varnames, 0, posonly, name) >= 0 {
				return pyerr.NewTypeError("%s() positional-only arguments passed by keyword: %s", code.Name, name)
			}
			return pyerr.NewTypeError("%s() got an unexpected keyword argument '%s'", code.Name, name)
		}
	}

	// 4. too-many-positional check.
	if len(args) > argcount && !hasVarargs {
		return tooManyPositionalError(code, len(args))
	}

	// 5. fill defaults.
	if len(defaults) > 0 {
		start := argcount - len(defaults)
		for i := start; i < argcount; i++ {
			if !bound[i] {
				fastlocals[i] = defaults[i-start]
				bound[i] = true
			}
		}
	}
	if kwdefaults != nil {
		for i := argcount; i < argcount+kwonly; i++ {
			if bound[i] {
				continue
			}
			if v, ok, _ := kwdefaults.Get(pybuiltin.NewStr(code.Varnames[i])); ok {
				fastlocals[i] = v
				bound[i] = true
			}
		}
	}

	// 6. missing-argument check.
	var missingPositional, missingKwOnly []string
	for i := 0; i < argcount; i++ {
		if !bound[i] {
			missingPositional = append(missingPositional, code.Varnames[i])
		}
	}
	for i := argcount; i < argcount+kwonly; i++ {
		if !bound[i] {
			missingKwOnly = append(missingKwOnly, code.Varnames[i])
		}
	}
	if len(missingPositional) > 0 || len(missingKwOnly) > 0 {
		return missingArgumentsError(code, missingPositional, missingKwOnly)
	}
	return nil
}

// findVarname searches code.Varnames[lo:hi] for name by string
// equality (spec's "pointer-equality as a fast path" is a teacher-
// language-level optimization that does not apply to Go strings).
func findVarname(varnames []string, lo, hi int, name string) int {
	if hi > len(varnames) {
		hi = len(varnames)
	}
	for i := lo; i < hi; i++ {
		if varnames[i] == name {
			return i
		}
	}
	return -1
}

func tooManyPositionalError(code *pybuiltin.CodeObj, given int) error {
	plural := "s"
	if code.Argcount == 1 {
		plural = ""
	}
	if code.KwOnlyArgcount > 0 {
		return pyerr.NewTypeError("%s() takes %d positional argument%s but %d positional arguments (and %d keyword-only argument%s) were given",
			code.Name, code.Argcount, plural, given, code.KwOnlyArgcount, pluralSuffix(make([]string, code.KwOnlyArgcount)))
	}
	return pyerr.NewTypeError("%s() takes %d positional argument%s but %d were given",
		code.Name, code.Argcount, plural, given)
}

func missingArgumentsError(code *pybuiltin.CodeObj, positional, kwOnly []string) error {
	var parts []string
	if len(positional) > 0 {
		parts = append(parts, "argument"+pluralSuffix(positional)+" "+joinNames(positional))
	}
	if len(kwOnly) > 0 {
		parts = append(parts, "keyword-only argument"+pluralSuffix(kwOnly)+" "+joinNames(kwOnly))
	}
	return pyerr.NewTypeError("%s() missing required %s", code.Name, strings.Join(parts, " and "))
}

func pluralSuffix(names []string) string {
	if len(names) == 1 {
		return ""
	}
	return "s"
}

// joinNames renders ['a','b','c'] as "'a', 'b', and 'c'" (CPython's
// missing-argument listing style), per spec §4.F step 6.
func joinNames(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	switch len(quoted) {
	case 1:
		return quoted[0]
	case 2:
		return quoted[0] + " and " + quoted[1]
	default:
		return strings.Join(quoted[:len(quoted)-1], ", ") + ", and " + quoted[len(quoted)-1]
	}
}

// ApplyCell2Arg moves bound parameter values into the cells the
// function's cell2arg map says alias them, nulling the fast-local
// (spec §4.F: "for each entry in cell2arg, move the fast-local value
// into the corresponding cell and null the fast-local"). cells must
// already be allocated (one CellObj Value per code.Cellvars entry);
// entries not present in cell2arg are left as the caller allocated
// them (empty cells, per spec's "allocate remaining cellvars without
// initial values").
func ApplyCell2Arg(fastlocals []pytype.Value, bound []bool, cells []pytype.Value, cell2arg map[int]int) {
	for cellIdx, argIdx := range cell2arg {
		if bound[argIdx] {
			cell, _ := pybuiltin.AsCell(cells[cellIdx])
			cell.Set(fastlocals[argIdx])
		}
		fastlocals[argIdx] = pytype.Value{}
		bound[argIdx] = false
	}
}
