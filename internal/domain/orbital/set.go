// Package orbital partitions the molecular orbitals of one calculation into
// Core, Occupied Valence, Virtual Valence and Rydberg spaces.  Two policies are
// always evaluated side by side: the faithful policy reproduces the external
// IBO localizer, including its rank-based Rydberg budget that can spill into
// the occupied space, and the constrained policy honours the IAO constraint
// nMINAO ≥ nOcc.
package orbital

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/ibocheck/pkg/errors"
)

// Set holds one calculation's orbital energies (Hartree) and occupations,
// index-aligned, plus the size of the atomic basis spanning them.
type Set struct {
	Energies    []float64 `json:"energies" yaml:"energies"`
	Occupations []float64 `json:"occupations" yaml:"occupations"`
	NBasis      int       `json:"n_basis" yaml:"n_basis"`
}

// NewSet validates and copies its inputs.
func NewSet(energies, occupations []float64, nBasis int) (*Set, error) {
	if len(energies) != len(occupations) {
		return nil, errors.Newf(errors.CodeOrbitalInputInvalid,
			"energies (%d) and occupations (%d) differ in length", len(energies), len(occupations))
	}
	if nBasis < 0 {
		return nil, errors.Newf(errors.CodeOrbitalInputInvalid, "negative basis size %d", nBasis)
	}
	for i, o := range occupations {
		if o < 0 || math.IsNaN(o) {
			return nil, errors.Newf(errors.CodeOrbitalInputInvalid, "occupation[%d] = %g is not a non-negative number", i, o)
		}
		// Sorted needs a total order on energies.
		if e := energies[i]; math.IsNaN(e) || math.IsInf(e, 0) {
			return nil, errors.Newf(errors.CodeOrbitalInputInvalid, "energy[%d] = %g is not finite", i, e)
		}
	}
	return &Set{
		Energies:    append([]float64(nil), energies...),
		Occupations: append([]float64(nil), occupations...),
		NBasis:      nBasis,
	}, nil
}

// NBasisFromCoefficients derives the basis size from an MO coefficient
// matrix as floor(sqrt(rows*cols)), which is exact for the square matrices
// SCF codes write.
func NBasisFromCoefficients(c mat.Matrix) int {
	if c == nil {
		return 0
	}
	r, k := c.Dims()
	return int(math.Sqrt(float64(r * k)))
}

// Len is the number of molecular orbitals.
func (s Set) Len() int {
	n := len(s.Energies)
	if len(s.Occupations) < n {
		n = len(s.Occupations)
	}
	return n
}

// Sorted returns a copy ordered by ascending energy.  The sort is stable and
// occupations travel with their energies, so equal energies keep their
// original pairing and relative order.
func (s Set) Sorted() Set {
	n := s.Len()
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return s.Energies[idx[a]] < s.Energies[idx[b]]
	})

	out := Set{
		Energies:    make([]float64, n),
		Occupations: make([]float64, n),
		NBasis:      s.NBasis,
	}
	for i, j := range idx {
		out.Energies[i] = s.Energies[j]
		out.Occupations[i] = s.Occupations[j]
	}
	return out
}
