// Package element holds the static chemistry tables ibocheck needs: the
// periodic table (symbol ↔ atomic number) and the occupied-shell profiles used
// to size a minimal basis for heavy elements.
package element

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/turtacn/ibocheck/pkg/errors"
)

// MaxZ is the highest atomic number in the periodic table below.
const MaxZ = 118

var symbols = [MaxZ + 1]string{"",
	"H", "He",
	"Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar",
	"K", "Ca", "Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn", "Ga", "Ge", "As", "Se", "Br", "Kr",
	"Rb", "Sr", "Y", "Zr", "Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd", "In", "Sn", "Sb", "Te", "I", "Xe",
	"Cs", "Ba",
	"La", "Ce", "Pr", "Nd", "Pm", "Sm", "Eu", "Gd", "Tb", "Dy", "Ho", "Er", "Tm", "Yb", "Lu",
	"Hf", "Ta", "W", "Re", "Os", "Ir", "Pt", "Au", "Hg", "Tl", "Pb", "Bi", "Po", "At", "Rn",
	"Fr", "Ra",
	"Ac", "Th", "Pa", "U", "Np", "Pu", "Am", "Cm", "Bk", "Cf", "Es", "Fm", "Md", "No", "Lr",
	"Rf", "Db", "Sg", "Bh", "Hs", "Mt", "Ds", "Rg", "Cn", "Nh", "Fl", "Mc", "Lv", "Ts", "Og",
}

var byLowerSymbol = func() map[string]int {
	m := make(map[string]int, MaxZ)
	for z := 1; z <= MaxZ; z++ {
		m[strings.ToLower(symbols[z])] = z
	}
	return m
}()

// AtomicNumber resolves a symbol case-insensitively.
func AtomicNumber(symbol string) (int, error) {
	if z, ok := byLowerSymbol[strings.ToLower(strings.TrimSpace(symbol))]; ok {
		return z, nil
	}
	return 0, errors.Newf(errors.CodeUnknownElement, "unknown element symbol %q", symbol)
}

// Symbol returns the conventionally capitalised symbol for z.
func Symbol(z int) (string, error) {
	if z < 1 || z > MaxZ {
		return "", errors.Newf(errors.CodeUnknownElement, "atomic number %d outside 1..%d", z, MaxZ)
	}
	return symbols[z], nil
}

// IsKnown reports whether symbol names a real element.
func IsKnown(symbol string) bool {
	_, ok := byLowerSymbol[strings.ToLower(strings.TrimSpace(symbol))]
	return ok
}

// Filename patterns tried in order against the lower-cased stem, e.g.
// "po2_0.scf.h5" has stem "po2_0.scf".
var filenamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^([a-z]{1,2})2[_\d]`),
	regexp.MustCompile(`^([a-z]{1,2})[_\d]`),
	regexp.MustCompile(`^([a-z]{1,2})\d`),
}

// DetectFromFilename guesses the element of a homonuclear calculation from a
// file name like "po2_0.scf.h5" or "n_eq.json".  The result is lower-case.
func DetectFromFilename(path string) (string, bool) {
	base := filepath.Base(path)
	stem := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
	for _, re := range filenamePatterns {
		m := re.FindStringSubmatch(stem)
		if m != nil && IsKnown(m[1]) {
			return m[1], true
		}
	}
	return "", false
}
