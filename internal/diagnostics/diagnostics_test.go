package diagnostics

import (
	"testing"

	"github.com/funvibe/pyjox/internal/pybuiltin"
	"github.com/funvibe/pyjox/internal/pyerr"
	"github.com/funvibe/pyjox/internal/pyframe"
	"github.com/stretchr/testify/require"
)

func init() {
	// Pin color detection off regardless of the test runner's terminal,
	// so assertions on the rendered text don't depend on how `go test`
	// happens to be invoked.
	colorOnce.Do(func() { colorOn = false })
}

func TestFormatErrorNilReturnsEmptyString(t *testing.T) {
	require.Equal(t, "", FormatError(nil))
}

func TestFormatErrorRendersPyErrorKindAndMessage(t *testing.T) {
	err := pyerr.NewTypeError("unsupported operand type(s) for +: 'int' and 'str'")
	require.Equal(t, "TypeError: unsupported operand type(s) for +: 'int' and 'str'", FormatError(err))
}

func TestFormatErrorRendersNonPyErrorAsIs(t *testing.T) {
	err := pyerr.Internal("frame for %q ran past the end of its bytecode", "f")
	require.Contains(t, FormatError(err), "ran past the end of its bytecode")
}

func TestFormatTracebackWalksBackPointerChain(t *testing.T) {
	outerCode, err := pybuiltin.NewCode(pybuiltin.CodeObj{
		Name:        "outer",
		Filename:    "<test>",
		Bytecode:    []byte{0, 0},
		FirstLineNo: 1,
	})
	require.NoError(t, err)
	innerCode, err := pybuiltin.NewCode(pybuiltin.CodeObj{
		Name:        "inner",
		Filename:    "<test>",
		Bytecode:    []byte{0, 0},
		FirstLineNo: 2,
	})
	require.NoError(t, err)

	outer := &pyframe.Frame{Code: outerCode, TraceID: "t-outer"}
	inner := &pyframe.Frame{Code: innerCode, TraceID: "t-inner", Back: outer}

	out := FormatTraceback(inner, pyerr.NewValueError("boom"))
	require.Contains(t, out, "Traceback (most recent call last):")
	require.Contains(t, out, "outer")
	require.Contains(t, out, "inner")
	require.Contains(t, out, "t-outer")
	require.Contains(t, out, "t-inner")
	require.Contains(t, out, "ValueError: boom")

	outerIdx := indexOf(out, "outer")
	innerIdx := indexOf(out, "inner")
	require.Less(t, outerIdx, innerIdx, "outer frame must be printed before inner (most-recent-call-last)")
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
