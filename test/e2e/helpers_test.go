package e2e_test

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const minaoFixture = `$basis
*
h   MINAO
*
    1  s
      3.42525091         0.15432897
*
$end
`

// extendedFixture carries the (5,3,1,0) contractions Rb needs.
func extendedFixture() string {
	var b strings.Builder
	b.WriteString("$basis\n*\nrb ANO-RCC\n*\n")
	shell := func(l string, k int) {
		fmt.Fprintf(&b, "    2  %s\n  %d.5  0.%d\n  0.%d5  1.0D-01\n", l, k+1, k+1, k+1)
	}
	for k := 0; k < 5; k++ {
		shell("s", k)
	}
	for k := 0; k < 3; k++ {
		shell("p", k)
	}
	shell("d", 0)
	b.WriteString("$end\n")
	return b.String()
}

// dimerOrbitals returns nOcc doubly occupied bound orbitals followed by
// nVirt virtuals.
func dimerOrbitals(nOcc, nVirt int) (energies, occupations []float64) {
	for i := 0; i < nOcc; i++ {
		energies = append(energies, -2.0+0.05*float64(i))
		occupations = append(occupations, 2)
	}
	for k := 0; k < nVirt; k++ {
		energies = append(energies, 0.1*float64(k+1))
		occupations = append(occupations, 0)
	}
	return energies, occupations
}

func getBody(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(env.baseURL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}
