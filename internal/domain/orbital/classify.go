package orbital

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultCoreCutoff separates core from valence occupied orbitals (Hartree).
const DefaultCoreCutoff = -5.0

// Options parameterise one classification.
type Options struct {
	// CoreCutoff: occupied orbitals strictly below it are Core.
	CoreCutoff float64
	// TotalMINAO is the minimal-basis size of the whole molecule.
	TotalMINAO int
	// OccupationThreshold: an orbital is occupied when its occupation is
	// strictly greater.  Zero reproduces the "occupation > 0" convention.
	OccupationThreshold float64
}

// DefaultOptions returns Options with the default core cutoff.
func DefaultOptions(totalMINAO int) Options {
	return Options{CoreCutoff: DefaultCoreCutoff, TotalMINAO: totalMINAO}
}

// TotalMINAOFor is perAtom × atoms for homonuclear molecules; atoms < 1 is
// treated as the dimer case.
func TotalMINAOFor(perAtom, atoms int) int {
	if atoms < 1 {
		atoms = 2
	}
	return perAtom * atoms
}

// Classify partitions set under both policies.  It never fails: degenerate
// input (no occupied or no virtual orbitals, zero MINAO, MINAO larger than the
// basis) is clamped and reported through flags on the Result.
func Classify(set Set, opts Options) *Result {
	s := set.Sorted()
	n := s.Len()

	r := &Result{
		Energies:    s.Energies,
		Occupations: s.Occupations,
		Occupied:    make(Mask, n),
		Boundaries:  undefinedBoundaries(),
	}

	for i, o := range s.Occupations {
		if o > opts.OccupationThreshold {
			r.Occupied[i] = true
		}
	}

	nOcc := r.Occupied.Count()
	r.Counts = Counts{
		NMO:                 n,
		NBasis:              s.NBasis,
		TotalMINAO:          opts.TotalMINAO,
		NOccupied:           nOcc,
		NVirtual:            n - nOcc,
		NRydbergFaithful:    max(0, s.NBasis-opts.TotalMINAO),
		NValVirtConstrained: max(0, opts.TotalMINAO-nOcc),
	}
	r.NRydbergConstrained = max(0, r.NVirtual-r.NValVirtConstrained)

	core, occVal := occupiedSpaces(s.Energies, r.Occupied, opts.CoreCutoff)
	r.Faithful = faithfulPartition(r.Occupied, core, occVal, r.NRydbergFaithful)
	r.Constrained = constrainedPartition(r.Occupied, core, occVal, r.NValVirtConstrained)

	r.Overlap = r.Faithful.Core.And(r.Faithful.Rydberg).Count()
	r.OccupiedMarkedRydberg = r.Occupied.And(r.Faithful.Rydberg).Count()
	r.Overflow = max(0, r.NRydbergFaithful-r.NVirtual)
	r.WillCrash = r.Overflow > 0

	r.ConstraintViolated = opts.TotalMINAO < nOcc
	r.ImpossibleInput = opts.TotalMINAO > s.NBasis

	r.Boundaries = boundaries(s.Energies, r)
	r.PhysicallyUnbound = !math.IsNaN(r.HOMO) && r.HOMO > 0

	return r
}

func occupiedSpaces(energies []float64, occupied Mask, cutoff float64) (core, occVal Mask) {
	core = make(Mask, len(energies))
	occVal = make(Mask, len(energies))
	for i, e := range energies {
		if !occupied[i] {
			continue
		}
		if e < cutoff {
			core[i] = true
		} else {
			occVal[i] = true
		}
	}
	return core, occVal
}

// faithfulPartition marks the top nRydberg orbitals of the whole spectrum as
// Rydberg, occupied ones included.
func faithfulPartition(occupied, core, occVal Mask, nRydberg int) Partition {
	n := len(occupied)
	p := Partition{
		Core:            core,
		OccupiedValence: occVal,
		VirtualValence:  make(Mask, n),
		Rydberg:         make(Mask, n),
	}
	for i := max(0, n-nRydberg); i < n; i++ {
		p.Rydberg[i] = true
	}
	for i := 0; i < n; i++ {
		if !occupied[i] && !p.Rydberg[i] {
			p.VirtualValence[i] = true
		}
	}
	return p
}

// constrainedPartition keeps the lowest nValVirt virtuals as valence and
// labels every other virtual Rydberg.
func constrainedPartition(occupied, core, occVal Mask, nValVirt int) Partition {
	n := len(occupied)
	p := Partition{
		Core:            core,
		OccupiedValence: occVal,
		VirtualValence:  make(Mask, n),
		Rydberg:         make(Mask, n),
	}
	taken := 0
	for i := 0; i < n; i++ {
		if occupied[i] {
			continue
		}
		if taken < nValVirt {
			p.VirtualValence[i] = true
			taken++
		} else {
			p.Rydberg[i] = true
		}
	}
	return p
}

func boundaries(energies []float64, r *Result) Boundaries {
	b := undefinedBoundaries()

	occE := pick(energies, r.Occupied)
	virtE := pick(energies, invert(r.Occupied))
	coreE := pick(energies, r.Faithful.Core)
	rydE := pick(energies, r.Faithful.Rydberg)

	if len(occE) > 0 {
		b.HOMO = floats.Max(occE)
	}
	// virtE is ascending because energies are.
	if len(virtE) > 0 {
		b.LUMO = virtE[0]
	}
	if len(virtE) > 5 {
		b.LUMOPlus5 = virtE[5]
	}
	if len(virtE) > 10 {
		b.LUMOPlus10 = virtE[10]
	}
	if len(rydE) > 0 {
		b.RydbergStart = floats.Min(rydE)
		b.RydbergEnd = floats.Max(rydE)
	}
	if len(coreE) > 0 {
		b.CoreMin = floats.Min(coreE)
		b.CoreMax = floats.Max(coreE)
	}
	if !math.IsNaN(b.HOMO) && !math.IsNaN(b.LUMO) {
		b.Gap = b.LUMO - b.HOMO
	}
	return b
}

func pick(values []float64, m Mask) []float64 {
	out := make([]float64, 0, len(values))
	for i, v := range values {
		if m[i] {
			out = append(out, v)
		}
	}
	return out
}

func invert(m Mask) Mask {
	out := make(Mask, len(m))
	for i, v := range m {
		out[i] = !v
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Energy-based Rydberg cutoff
// ─────────────────────────────────────────────────────────────────────────────

// DefaultRydbergEnergyCutoff is the proposed Rydberg threshold (Hartree).
const DefaultRydbergEnergyCutoff = 1.0

// CutoffProposal evaluates replacing the rank-based Rydberg budget with an
// energy threshold: every virtual at or above Cutoff becomes Rydberg.
type CutoffProposal struct {
	Cutoff           float64
	NVirtual         int
	NRydbergProposed int
	VirtualMin       float64
	VirtualMax       float64
	// WouldFix is true when the proposed budget fits inside a non-empty
	// virtual space.
	WouldFix bool
}

// ProposeEnergyCutoff evaluates an energy-based Rydberg threshold on r.
func ProposeEnergyCutoff(r *Result, cutoff float64) CutoffProposal {
	p := CutoffProposal{
		Cutoff:     cutoff,
		NVirtual:   r.NVirtual,
		VirtualMin: math.NaN(),
		VirtualMax: math.NaN(),
	}
	virtE := pick(r.Energies, invert(r.Occupied))
	for _, e := range virtE {
		if e >= cutoff {
			p.NRydbergProposed++
		}
	}
	if len(virtE) > 0 {
		p.VirtualMin = floats.Min(virtE)
		p.VirtualMax = floats.Max(virtE)
	}
	p.WouldFix = p.NVirtual > 0 && p.NRydbergProposed <= p.NVirtual
	return p
}
