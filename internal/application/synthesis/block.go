// Package synthesis rebuilds the heavy-element entries of a minimal (MINAO)
// basis file from an extended ANO-RCC basis so that every occupied shell is
// spanned, which is what the IAO construction needs (nMINAO ≥ nOcc).
package synthesis

import (
	"fmt"
	"strings"

	"github.com/turtacn/ibocheck/internal/domain/basis"
	"github.com/turtacn/ibocheck/internal/domain/element"
	"github.com/turtacn/ibocheck/pkg/errors"
)

// Fixed layout the IBO localizer's reader expects.
const (
	headerFormat = "%s   %s\n"
	shellFormat  = "     %d   %s\n"
	dataFormat   = "         %18.8f%20.8f\n"
	separator    = "*\n"
)

// SynthesizeBlock builds a minimal-basis block for symbol holding, for each
// l in s, p, d, f, the first profile-many contractions of that l in their
// original order.  Two-column primitive lines are re-emitted in fixed width;
// any other primitive line is kept verbatim.
func SynthesizeBlock(symbol string, profile element.ShellProfile, contractions []basis.Contraction, marker string) (basis.Block, error) {
	sym := strings.ToLower(symbol)

	taken := [4]int{}
	selected := make([]basis.Contraction, 0, profile.S+profile.P+profile.D+profile.F)
	for _, c := range contractions {
		l := int(c.L)
		if l > 3 {
			continue
		}
		if taken[l] < profile.Needed(l) {
			selected = append(selected, c)
			taken[l]++
		}
	}

	for l := 0; l <= 3; l++ {
		if need := profile.Needed(l); taken[l] < need {
			return basis.Block{}, errors.Newf(errors.CodeInsufficientData,
				"element %s: need %d %s-type contractions but extended basis has %d",
				sym, need, basis.AngularMomentum(l).Letter(), taken[l]).
				WithDetail(fmt.Sprintf("element=%s l=%s needed=%d available=%d",
					sym, basis.AngularMomentum(l).Letter(), need, taken[l]))
		}
	}

	lines := []string{fmt.Sprintf(headerFormat, sym, marker), separator}
	for _, c := range selected {
		lines = append(lines, fmt.Sprintf(shellFormat, c.Primitives, c.L.Letter()))
		for _, d := range c.Data {
			if e, k, ok := basis.ParseData(d); ok {
				lines = append(lines, fmt.Sprintf(dataFormat, e, k))
			} else {
				lines = append(lines, d+"\n")
			}
		}
	}
	lines = append(lines, separator)

	return basis.Block{Symbol: sym, Marker: marker, Lines: lines}, nil
}
