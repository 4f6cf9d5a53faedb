package orbital

import (
	"fmt"
	"math"
)

// Policy selects one of the two classifications carried by a Result.
type Policy int

const (
	// PolicyFaithful mirrors the external localizer: nRydberg = nBasis − nMINAO
	// orbitals taken from the top of the whole spectrum.
	PolicyFaithful Policy = iota
	// PolicyConstrained keeps nMINAO − nOcc virtual valence orbitals and
	// labels the remaining virtuals Rydberg.
	PolicyConstrained
)

func (p Policy) String() string {
	switch p {
	case PolicyFaithful:
		return "faithful"
	case PolicyConstrained:
		return "constrained"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy accepts "faithful" or "constrained" (alias "iao").
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "faithful", "serenity":
		return PolicyFaithful, nil
	case "constrained", "iao":
		return PolicyConstrained, nil
	}
	return 0, fmt.Errorf("unknown policy %q; expected faithful|constrained", s)
}

// Mask flags orbitals by index in energy order.
type Mask []bool

// Count returns the number of set entries.
func (m Mask) Count() int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

// Indices returns the set positions in ascending order.
func (m Mask) Indices() []int {
	out := make([]int, 0, m.Count())
	for i, v := range m {
		if v {
			out = append(out, i)
		}
	}
	return out
}

// And returns the element-wise conjunction of m and o.
func (m Mask) And(o Mask) Mask {
	out := make(Mask, len(m))
	for i := range m {
		out[i] = m[i] && i < len(o) && o[i]
	}
	return out
}

// Partition assigns orbitals to the four spaces.  Under the constrained policy
// every orbital is in exactly one mask; under the faithful policy an occupied
// orbital can be both Core (or OccupiedValence) and Rydberg.
type Partition struct {
	Core            Mask
	OccupiedValence Mask
	VirtualValence  Mask
	Rydberg         Mask
}

// Counts holds the derived scalars of one classification.
type Counts struct {
	NMO        int
	NBasis     int
	TotalMINAO int
	NOccupied  int
	NVirtual   int

	// NRydbergFaithful is max(0, NBasis − TotalMINAO) and is deliberately not
	// capped at NVirtual.
	NRydbergFaithful int

	// NValVirtConstrained is max(0, TotalMINAO − NOccupied).
	NValVirtConstrained int

	// NRydbergConstrained is max(0, NVirtual − NValVirtConstrained).
	NRydbergConstrained int
}

// FaithfulDiagnostics describes how the faithful partition breaks.
type FaithfulDiagnostics struct {
	// Overlap counts orbitals that are both Core and Rydberg-by-rank.
	Overlap int
	// OccupiedMarkedRydberg counts occupied orbitals selected as Rydberg.
	OccupiedMarkedRydberg int
	// Overflow is max(0, NRydbergFaithful − NVirtual).
	Overflow int
	// WillCrash is Overflow > 0.
	WillCrash bool
}

// Boundaries are reporting energies in Hartree; NaN when undefined.
type Boundaries struct {
	HOMO         float64
	LUMO         float64
	LUMOPlus5    float64
	LUMOPlus10   float64
	RydbergStart float64
	RydbergEnd   float64
	CoreMin      float64
	CoreMax      float64
	Gap          float64
}

func undefinedBoundaries() Boundaries {
	nan := math.NaN()
	return Boundaries{nan, nan, nan, nan, nan, nan, nan, nan, nan}
}

// Result is the complete output of Classify.
type Result struct {
	// Energies and Occupations are the inputs in ascending energy order; all
	// masks index into them.
	Energies    []float64
	Occupations []float64
	Occupied    Mask

	Counts

	Faithful    Partition
	Constrained Partition

	FaithfulDiagnostics

	// ConstraintViolated is TotalMINAO < NOccupied.
	ConstraintViolated bool
	// ImpossibleInput is TotalMINAO > NBasis.
	ImpossibleInput bool
	// PhysicallyUnbound is HOMO > 0: the SCF solution is unphysical and
	// spectrum plots should be skipped.
	PhysicallyUnbound bool

	Boundaries
}

// Partition returns the partition for p.
func (r *Result) Partition(p Policy) Partition {
	if p == PolicyConstrained {
		return r.Constrained
	}
	return r.Faithful
}

// Verdict is a short label for logs and metrics.
func (r *Result) Verdict() string {
	switch {
	case r.PhysicallyUnbound:
		return "unbound"
	case r.WillCrash:
		return "overflow"
	case r.ConstraintViolated:
		return "constraint_violated"
	}
	return "ok"
}
