package element

import (
	"fmt"

	"github.com/turtacn/ibocheck/pkg/errors"
)

// ShellProfile counts the occupied shells of each angular momentum in the
// neutral ground-state atom.
type ShellProfile struct {
	S, P, D, F int
}

// BasisFunctionCount is S + 3P + 5D + 7F.
func (p ShellProfile) BasisFunctionCount() int {
	return p.S + 3*p.P + 5*p.D + 7*p.F
}

// Needed returns the count for angular momentum index l (0..3), 0 otherwise.
func (p ShellProfile) Needed(l int) int {
	switch l {
	case 0:
		return p.S
	case 1:
		return p.P
	case 2:
		return p.D
	case 3:
		return p.F
	}
	return 0
}

func (p ShellProfile) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", p.S, p.P, p.D, p.F)
}

type shellRange struct {
	from, to int
	profile  ShellProfile
}

// shellTable covers Z = 37..96 with disjoint, inclusive ranges.
var shellTable = []shellRange{
	{37, 38, ShellProfile{5, 3, 1, 0}}, // Rb-Sr
	{39, 48, ShellProfile{5, 3, 2, 0}}, // Y-Cd
	{49, 54, ShellProfile{5, 4, 2, 0}}, // In-Xe
	{55, 56, ShellProfile{6, 4, 2, 0}}, // Cs-Ba
	{57, 71, ShellProfile{6, 4, 3, 1}}, // La-Lu
	{72, 80, ShellProfile{6, 4, 3, 1}}, // Hf-Hg
	{81, 86, ShellProfile{6, 5, 3, 1}}, // Tl-Rn
	{87, 88, ShellProfile{7, 5, 3, 1}}, // Fr-Ra
	{89, 96, ShellProfile{7, 5, 4, 2}}, // Ac-Cm
}

// Bounds of the shell table.
const (
	ProfileMinZ = 37
	ProfileMaxZ = 96
)

// Profile returns the occupied-shell profile for z, or UnsupportedElement.
func Profile(z int) (ShellProfile, error) {
	for _, r := range shellTable {
		if z >= r.from && z <= r.to {
			return r.profile, nil
		}
	}
	return ShellProfile{}, errors.Newf(errors.CodeUnsupportedElement,
		"no occupied-shell profile for Z=%d (supported %d..%d)", z, ProfileMinZ, ProfileMaxZ)
}

// BasisFunctionCount is Profile(z).BasisFunctionCount().
func BasisFunctionCount(z int) (int, error) {
	p, err := Profile(z)
	if err != nil {
		return 0, err
	}
	return p.BasisFunctionCount(), nil
}
