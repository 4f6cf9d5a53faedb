package basis

import (
	"io"
	"strings"

	"github.com/turtacn/ibocheck/pkg/errors"
)

// Contraction is one contracted function of an extended basis: its angular
// momentum, the declared primitive count and the primitive lines verbatim
// (terminators stripped).
type Contraction struct {
	L          AngularMomentum
	Primitives int
	Data       []string
}

// Extended maps a lower-case element symbol to its contractions in file
// order.
type Extended map[string][]Contraction

// Count returns how many contractions of angular momentum l symbol has.
func (e Extended) Count(symbol string, l AngularMomentum) int {
	n := 0
	for _, c := range e[strings.ToLower(symbol)] {
		if c.L == l {
			n++
		}
	}
	return n
}

// ParseExtended reads an ANO-RCC style file.  After a header carrying marker,
// an optional "*" opens the element; the element closes at a lone "*", a "$"
// directive or the next header.  A shell declaration "n l" consumes the next n
// lines as its primitives.  When an element appears twice the first
// occurrence wins.
func ParseExtended(r io.Reader, marker string) (Extended, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeBasisParseFailed, "failed to read extended basis file")
	}

	out := Extended{}
	i := 0
	for i < len(lines) {
		sym, m, ok := ParseHeader(lines[i])
		if !ok || !strings.EqualFold(m, marker) {
			i++
			continue
		}
		i++
		if i < len(lines) && IsSeparator(lines[i]) {
			i++
		}

		var contractions []Contraction
	element:
		for i < len(lines) {
			line := lines[i]
			switch {
			case IsHeaderFor(line, marker), IsSentinel(line):
				break element
			case IsSeparator(line):
				i++
				break element
			}
			if sh, ok := ParseShell(line); ok {
				if i+sh.Count >= len(lines) {
					return nil, errors.Newf(errors.CodeBasisParseFailed,
						"element %q: %d %s primitives declared but file ends", sym, sh.Count, sh.L).
						WithDetail("marker=" + marker)
				}
				data := make([]string, 0, sh.Count)
				for j := 1; j <= sh.Count; j++ {
					data = append(data, strings.TrimRight(lines[i+j], "\r\n"))
				}
				contractions = append(contractions, Contraction{L: sh.L, Primitives: sh.Count, Data: data})
				i += sh.Count
			}
			i++
		}

		if _, seen := out[sym]; !seen {
			out[sym] = contractions
		}
	}
	return out, nil
}
