package diagnostics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/turtacn/ibocheck/internal/domain/element"
	"github.com/turtacn/ibocheck/internal/domain/orbital"
)

// ─────────────────────────────────────────────────────────────────────────────
// Crash report
// ─────────────────────────────────────────────────────────────────────────────

// Crash is one row the external localizer would fail on.
type Crash struct {
	Element      string `json:"element" yaml:"element"`
	Z            int    `json:"z" yaml:"z"`
	Overflow     int    `json:"overflow" yaml:"overflow"`
	NRydbergCalc int    `json:"nRydberg_calc" yaml:"nRydberg_calc"`
	NVirtual     int    `json:"n_virtual" yaml:"n_virtual"`
}

// CrashReport lists rows flagged serenity_fails ordered by atomic number.
// Identifiers that are not element symbols (after stripping a trailing
// multiplicity digit, e.g. "Rb2") sort last, by name.
func CrashReport(rows []Row) []Crash {
	var out []Crash
	for _, r := range rows {
		if !r.SerenityFails {
			continue
		}
		out = append(out, Crash{
			Element:      r.Element,
			Z:            identifierZ(r.Element),
			Overflow:     r.Overflow,
			NRydbergCalc: r.NRydbergCalc,
			NVirtual:     r.NVirtual,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return lessByZ(out[i].Z, out[j].Z, out[i].Element, out[j].Element)
	})
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Energy-cutoff comparison
// ─────────────────────────────────────────────────────────────────────────────

// Cutoff comparison statuses.
const (
	StatusOK         = "OK"
	StatusFixed      = "FIXED"
	StatusStillFails = "STILL FAILS"
)

// CutoffEntry compares the stored verdict for one identifier with an
// energy-based Rydberg threshold.
type CutoffEntry struct {
	Element          string  `json:"element" yaml:"element"`
	Z                int     `json:"z" yaml:"z"`
	HasRow           bool    `json:"has_row" yaml:"has_row"`
	FailsNow         bool    `json:"fails_now" yaml:"fails_now"`
	Overflow         int     `json:"overflow" yaml:"overflow"`
	NRydbergCalc     int     `json:"nRydberg_calc" yaml:"nRydberg_calc"`
	NVirtual         int     `json:"n_virtual" yaml:"n_virtual"`
	NRydbergProposed int     `json:"n_rydberg_proposed" yaml:"n_rydberg_proposed"`
	Cutoff           float64 `json:"cutoff" yaml:"cutoff"`
	Status           string  `json:"status" yaml:"status"`
	Reason           string  `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// CutoffComparison is the per-identifier table plus totals.
type CutoffComparison struct {
	Entries    []CutoffEntry `json:"entries" yaml:"entries"`
	OK         int           `json:"ok" yaml:"ok"`
	Fixed      int           `json:"fixed" yaml:"fixed"`
	StillFails int           `json:"still_fails" yaml:"still_fails"`
}

// CompareCutoff classifies every proposal: OK when the stored row does not
// fail (or there is no row), FIXED when it fails but the proposal fits in the
// virtual space, STILL FAILS otherwise.  When an identifier has several
// rows the latest one counts.
func CompareCutoff(rows []Row, proposals map[string]orbital.CutoffProposal) CutoffComparison {
	latest := make(map[string]Row, len(rows))
	for _, r := range rows {
		latest[strings.ToLower(r.Element)] = r
	}

	var c CutoffComparison
	for id, p := range proposals {
		e := CutoffEntry{
			Element:          id,
			Z:                identifierZ(id),
			NVirtual:         p.NVirtual,
			NRydbergProposed: p.NRydbergProposed,
			Cutoff:           p.Cutoff,
		}
		if row, ok := latest[strings.ToLower(id)]; ok {
			e.HasRow = true
			e.FailsNow = row.SerenityFails
			e.Overflow = row.Overflow
			e.NRydbergCalc = row.NRydbergCalc
		}

		switch {
		case !e.FailsNow:
			e.Status = StatusOK
			c.OK++
		case p.WouldFix:
			e.Status = StatusFixed
			e.Reason = fmt.Sprintf("nRydberg %d -> %d (nVirtual=%d)", e.NRydbergCalc, p.NRydbergProposed, p.NVirtual)
			c.Fixed++
		default:
			e.Status = StatusStillFails
			if p.NVirtual == 0 {
				e.Reason = "nVirtual=0"
			} else {
				e.Reason = fmt.Sprintf("nRydberg(%d) > nVirtual(%d)", p.NRydbergProposed, p.NVirtual)
			}
			c.StillFails++
		}
		c.Entries = append(c.Entries, e)
	}

	sort.Slice(c.Entries, func(i, j int) bool {
		return lessByZ(c.Entries[i].Z, c.Entries[j].Z, c.Entries[i].Element, c.Entries[j].Element)
	})
	return c
}

// identifierZ resolves "Rb", "rb" or "Rb2" to 37; 0 when unresolved.
func identifierZ(id string) int {
	sym := strings.TrimRight(id, "0123456789")
	z, err := element.AtomicNumber(sym)
	if err != nil {
		return 0
	}
	return z
}

func lessByZ(zi, zj int, ni, nj string) bool {
	switch {
	case zi == zj:
		return ni < nj
	case zi == 0:
		return false
	case zj == 0:
		return true
	}
	return zi < zj
}
