package synthesis

import (
	"strings"

	"github.com/turtacn/ibocheck/internal/domain/basis"
	"github.com/turtacn/ibocheck/internal/domain/element"
	"github.com/turtacn/ibocheck/pkg/errors"
)

// Budget statuses.
const (
	BudgetOK      = "OK"
	BudgetProblem = "PROBLEM"
)

// Budget checks nMINAO against nOcc for one closed-shell molecule.
type Budget struct {
	Name       string   `yaml:"name" json:"name"`
	Atoms      []string `yaml:"atoms" json:"atoms"`
	NMINAO     int      `yaml:"n_minao" json:"n_minao"`
	NElectrons int      `yaml:"n_electrons" json:"n_electrons"`
	NOccupied  int      `yaml:"n_occupied" json:"n_occupied"`
	NValVirt   int      `yaml:"n_val_virt" json:"n_val_virt"`
	Status     string   `yaml:"status" json:"status"`
}

// MoleculeBudget sums the minimal-basis size over atoms.  Atoms lighter than
// threshold take their count from minao; heavier atoms take the size the
// synthesizer produces for them.  nOcc is half the neutral electron count and
// the status is OK when nMINAO − nOcc is positive.
func MoleculeBudget(name string, atoms []string, minao *basis.File, threshold int) (Budget, error) {
	b := Budget{Name: name, Atoms: make([]string, 0, len(atoms))}

	for _, a := range atoms {
		sym := strings.ToLower(a)
		z, err := element.AtomicNumber(sym)
		if err != nil {
			return Budget{}, err
		}

		var n int
		if z >= threshold {
			if n, err = element.BasisFunctionCount(z); err != nil {
				return Budget{}, err
			}
		} else {
			block, ok := minao.Block(sym)
			if !ok {
				return Budget{}, errors.Newf(errors.CodeElementNotFound,
					"element %s not present in minimal basis", sym).
					WithDetail("molecule=" + name)
			}
			n = block.FunctionCount()
		}

		b.Atoms = append(b.Atoms, sym)
		b.NMINAO += n
		b.NElectrons += z
	}

	b.NOccupied = b.NElectrons / 2
	b.NValVirt = b.NMINAO - b.NOccupied
	b.Status = BudgetProblem
	if b.NValVirt > 0 {
		b.Status = BudgetOK
	}
	return b, nil
}
