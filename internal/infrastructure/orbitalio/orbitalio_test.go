package orbitalio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ibocheck/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_JSONWithNBasis(t *testing.T) {
	path := writeFile(t, "po2_0.json", `{
  "element": "Po",
  "atoms": 2,
  "energies": [0.5, -1.0, -20.0],
  "occupations": [0, 2, 2],
  "n_basis": 12
}`)
	m, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "po2_0", m.ID)
	assert.Equal(t, "po", m.Element)
	assert.Equal(t, 2, m.Atoms)
	assert.Equal(t, 12, m.Set.NBasis)
	assert.Equal(t, []float64{0.5, -1.0, -20.0}, m.Set.Energies)
}

func TestLoad_YAMLWithCoefficients(t *testing.T) {
	path := writeFile(t, "rb2.yaml", `
energies: [-1.0, 0.2, 0.4]
occupations: [2, 0, 0]
coefficients:
  - [1, 0, 0]
  - [0, 1, 0]
  - [0, 0, 1]
`)
	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Set.NBasis)
	assert.Empty(t, m.Element)
}

func TestLoad_NBasisWinsOverCoefficients(t *testing.T) {
	path := writeFile(t, "x.yml", `
energies: [-1.0]
occupations: [2]
n_basis: 7
coefficients: [[1]]
`)
	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, m.Set.NBasis)
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		name, file, content, contains string
	}{
		{"length mismatch", "a.json", `{"energies":[1,2],"occupations":[2],"n_basis":2}`, "differ in length"},
		{"no basis size", "b.json", `{"energies":[1],"occupations":[2]}`, "n_basis or coefficients"},
		{"ragged coefficients", "c.yaml", "energies: [1]\noccupations: [2]\ncoefficients: [[1, 2], [3]]\n", "row 1"},
		{"unknown field", "d.json", `{"energies":[1],"occupations":[2],"n_basis":1,"bogus":1}`, "malformed JSON"},
		{"negative occupation", "e.json", `{"energies":[1],"occupations":[-1],"n_basis":1}`, "occupation[0]"},
		{"nan energy", "g.yaml", "energies: [-1, .nan]\noccupations: [2, 0]\nn_basis: 2\n", "energy[1]"},
		{"infinite energy", "h.yaml", "energies: [-.inf, 1]\noccupations: [2, 0]\nn_basis: 2\n", "energy[0]"},
		{"bad extension", "f.h5", ``, "unsupported orbital file extension"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tc.file, tc.content))
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeOrbitalInputInvalid), err.Error())
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, errors.IsCode(err, errors.CodeIO))
}

func TestDecode_UnsupportedFormat(t *testing.T) {
	_, err := Decode(strings.NewReader("{}"), Format("toml"))
	assert.True(t, errors.IsCode(err, errors.CodeOrbitalInputInvalid))
}

func TestCoefficients(t *testing.T) {
	c, err := Coefficients([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	r, k := c.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, k)
	assert.Equal(t, 6.0, c.At(1, 2))

	_, err = Coefficients(nil)
	assert.Error(t, err)
}
