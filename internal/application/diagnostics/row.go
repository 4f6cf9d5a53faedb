// Package diagnostics accumulates one summary row per classified molecule in
// an append-only table and derives the cross-molecule reports built from it.
package diagnostics

import (
	"math"
	"strconv"

	"github.com/turtacn/ibocheck/internal/domain/orbital"
	"github.com/turtacn/ibocheck/pkg/errors"
)

// NotAvailable marks an undefined energy.
const NotAvailable = "N/A"

// Columns is the fixed column order of the table.  Readers locate fields by
// name, so new columns are only ever appended.
var Columns = []string{
	"element",
	"n_mo",
	"n_basis",
	"minao_per_atom",
	"minao_total",
	"n_occupied",
	"n_virtual",
	"n_core",
	"n_occ_valence",
	"n_virt_valence",
	"n_rydberg",
	"nRydberg_calc",
	"overflow",
	"serenity_fails",
	"core_rydberg_overlap",
	"occ_marked_rydberg",
	"iao_satisfied",
	"n_val_virt_iao",
	"n_rydberg_iao",
	"physically_unbound",
	"homo",
	"lumo",
	"lumo_plus5",
	"lumo_plus10",
	"rydberg_start",
	"rydberg_end",
	"core_min",
	"core_max",
	"homo_lumo_gap",
}

// Row is one molecule's summary.  Space counts are those of the faithful
// policy; the *IAO fields describe the constrained policy.  Energies are
// Hartree and NaN when undefined.
type Row struct {
	Element      string `json:"element"`
	NMO          int    `json:"n_mo"`
	NBasis       int    `json:"n_basis"`
	MinaoPerAtom int    `json:"minao_per_atom"` // 0 when MinaoTotal was given and is not a multiple of the atom count
	MinaoTotal   int    `json:"minao_total"`
	NOccupied    int    `json:"n_occupied"`
	NVirtual     int    `json:"n_virtual"`

	NCore        int `json:"n_core"`
	NOccValence  int `json:"n_occ_valence"`
	NVirtValence int `json:"n_virt_valence"`
	NRydberg     int `json:"n_rydberg"`
	NRydbergCalc int `json:"nRydberg_calc"`
	Overflow     int `json:"overflow"`

	SerenityFails      bool `json:"serenity_fails"`
	CoreRydbergOverlap int  `json:"core_rydberg_overlap"`
	OccMarkedRydberg   int  `json:"occ_marked_rydberg"`

	IAOSatisfied bool `json:"iao_satisfied"`
	NValVirtIAO  int  `json:"n_val_virt_iao"`
	NRydbergIAO  int  `json:"n_rydberg_iao"`

	PhysicallyUnbound bool `json:"physically_unbound"`

	HOMO         float64 `json:"-"`
	LUMO         float64 `json:"-"`
	LUMOPlus5    float64 `json:"-"`
	LUMOPlus10   float64 `json:"-"`
	RydbergStart float64 `json:"-"`
	RydbergEnd   float64 `json:"-"`
	CoreMin      float64 `json:"-"`
	CoreMax      float64 `json:"-"`
	Gap          float64 `json:"-"`
}

// NewRow summarises r for identifier.
func NewRow(identifier string, perAtom int, r *orbital.Result) Row {
	f := r.Faithful
	return Row{
		Element:      identifier,
		NMO:          r.NMO,
		NBasis:       r.NBasis,
		MinaoPerAtom: perAtom,
		MinaoTotal:   r.TotalMINAO,
		NOccupied:    r.NOccupied,
		NVirtual:     r.NVirtual,

		NCore:        f.Core.Count(),
		NOccValence:  f.OccupiedValence.Count(),
		NVirtValence: f.VirtualValence.Count(),
		NRydberg:     f.Rydberg.Count(),
		NRydbergCalc: r.NRydbergFaithful,
		Overflow:     r.Overflow,

		SerenityFails:      r.WillCrash,
		CoreRydbergOverlap: r.Overlap,
		OccMarkedRydberg:   r.OccupiedMarkedRydberg,

		IAOSatisfied: !r.ConstraintViolated,
		NValVirtIAO:  r.NValVirtConstrained,
		NRydbergIAO:  r.NRydbergConstrained,

		PhysicallyUnbound: r.PhysicallyUnbound,

		HOMO:         r.HOMO,
		LUMO:         r.LUMO,
		LUMOPlus5:    r.LUMOPlus5,
		LUMOPlus10:   r.LUMOPlus10,
		RydbergStart: r.RydbergStart,
		RydbergEnd:   r.RydbergEnd,
		CoreMin:      r.CoreMin,
		CoreMax:      r.CoreMax,
		Gap:          r.Gap,
	}
}

// Values renders the row as text in Columns order.
func (r Row) Values() []string {
	return []string{
		r.Element,
		itoa(r.NMO),
		itoa(r.NBasis),
		itoa(r.MinaoPerAtom),
		itoa(r.MinaoTotal),
		itoa(r.NOccupied),
		itoa(r.NVirtual),
		itoa(r.NCore),
		itoa(r.NOccValence),
		itoa(r.NVirtValence),
		itoa(r.NRydberg),
		itoa(r.NRydbergCalc),
		itoa(r.Overflow),
		btoa(r.SerenityFails),
		itoa(r.CoreRydbergOverlap),
		itoa(r.OccMarkedRydberg),
		btoa(r.IAOSatisfied),
		itoa(r.NValVirtIAO),
		itoa(r.NRydbergIAO),
		btoa(r.PhysicallyUnbound),
		ftoa(r.HOMO),
		ftoa(r.LUMO),
		ftoa(r.LUMOPlus5),
		ftoa(r.LUMOPlus10),
		ftoa(r.RydbergStart),
		ftoa(r.RydbergEnd),
		ftoa(r.CoreMin),
		ftoa(r.CoreMax),
		ftoa(r.Gap),
	}
}

// ParseRow is the inverse of Values.  header maps column names to positions
// so tables written with extra trailing columns still read.
func ParseRow(header map[string]int, record []string) (Row, error) {
	p := rowParser{header: header, record: record}
	r := Row{
		Element:      p.text("element"),
		NMO:          p.integer("n_mo"),
		NBasis:       p.integer("n_basis"),
		MinaoPerAtom: p.integer("minao_per_atom"),
		MinaoTotal:   p.integer("minao_total"),
		NOccupied:    p.integer("n_occupied"),
		NVirtual:     p.integer("n_virtual"),

		NCore:        p.integer("n_core"),
		NOccValence:  p.integer("n_occ_valence"),
		NVirtValence: p.integer("n_virt_valence"),
		NRydberg:     p.integer("n_rydberg"),
		NRydbergCalc: p.integer("nRydberg_calc"),
		Overflow:     p.integer("overflow"),

		SerenityFails:      p.flag("serenity_fails"),
		CoreRydbergOverlap: p.integer("core_rydberg_overlap"),
		OccMarkedRydberg:   p.integer("occ_marked_rydberg"),

		IAOSatisfied: p.flag("iao_satisfied"),
		NValVirtIAO:  p.integer("n_val_virt_iao"),
		NRydbergIAO:  p.integer("n_rydberg_iao"),

		PhysicallyUnbound: p.flag("physically_unbound"),

		HOMO:         p.energy("homo"),
		LUMO:         p.energy("lumo"),
		LUMOPlus5:    p.energy("lumo_plus5"),
		LUMOPlus10:   p.energy("lumo_plus10"),
		RydbergStart: p.energy("rydberg_start"),
		RydbergEnd:   p.energy("rydberg_end"),
		CoreMin:      p.energy("core_min"),
		CoreMax:      p.energy("core_max"),
		Gap:          p.energy("homo_lumo_gap"),
	}
	if p.err != nil {
		return Row{}, p.err
	}
	return r, nil
}

// HeaderIndex maps each name in header to its position.
func HeaderIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	return idx
}

// rowParser keeps the first error so ParseRow reads as a flat literal.
type rowParser struct {
	header map[string]int
	record []string
	err    error
}

func (p *rowParser) text(col string) string {
	i, ok := p.header[col]
	if !ok || i >= len(p.record) {
		if p.err == nil {
			p.err = errors.Newf(errors.CodeDiagnosticsReadFailed, "missing column %q", col)
		}
		return ""
	}
	return p.record[i]
}

func (p *rowParser) integer(col string) int {
	s := p.text(col)
	if p.err != nil {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		p.fail(col, s)
	}
	return n
}

func (p *rowParser) flag(col string) bool {
	s := p.text(col)
	switch s {
	case "True", "true":
		return true
	case "False", "false", "":
		return false
	}
	p.fail(col, s)
	return false
}

func (p *rowParser) energy(col string) float64 {
	s := p.text(col)
	if p.err != nil {
		return math.NaN()
	}
	if s == NotAvailable || s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.fail(col, s)
		return math.NaN()
	}
	return f
}

func (p *rowParser) fail(col, value string) {
	if p.err == nil {
		p.err = errors.Newf(errors.CodeDiagnosticsReadFailed, "column %q: invalid value %q", col, value)
	}
}

func itoa(n int) string { return strconv.Itoa(n) }

func btoa(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func ftoa(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return NotAvailable
	}
	return strconv.FormatFloat(f, 'f', 6, 64)
}
