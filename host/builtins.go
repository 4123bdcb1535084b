package host

import (
	"fmt"
	"io"
	"strings"

	"nilan/value"
)

// NewPrintln builds the `println` host function: its first argument is a
// format string containing "{}" placeholders, each substituted in order
// by the remaining arguments' String() representation, then written to w
// followed by a newline. Variadic to accept any number of placeholder
// arguments, grounded on the reference engine's println host function.
func NewPrintln(w io.Writer) Function {
	return Function{
		Name:     "println",
		Params:   []value.Kind{value.String},
		Variadic: true,
		Call: func(args []value.Value) (value.Value, bool) {
			if len(args) == 0 {
				return value.NullValue, false
			}
			format, ok := args[0].AsString()
			if !ok {
				return value.NullValue, false
			}
			var b strings.Builder
			parts := strings.Split(format, "{}")
			b.WriteString(parts[0])
			for i, rest := range parts[1:] {
				if i+1 < len(args) {
					b.WriteString(args[i+1].String())
				}
				b.WriteString(rest)
			}
			fmt.Fprintln(w, b.String())
			return value.NullValue, true
		},
	}
}
