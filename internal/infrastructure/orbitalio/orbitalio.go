// Package orbitalio reads orbital dumps (energies, occupations and either the
// basis size or the MO coefficient matrix) written as JSON or YAML.
package orbitalio

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/turtacn/ibocheck/internal/domain/orbital"
	"github.com/turtacn/ibocheck/pkg/errors"
)

// Format of an orbital dump.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from the file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", errors.Newf(errors.CodeOrbitalInputInvalid, "unsupported orbital file extension %q", filepath.Ext(path)).
		WithDetail(path)
}

// Document is the on-disk shape.  Element and Atoms are optional hints for
// resolving the minimal-basis size.
type Document struct {
	Element      string      `json:"element,omitempty" yaml:"element,omitempty"`
	Atoms        int         `json:"atoms,omitempty" yaml:"atoms,omitempty"`
	Energies     []float64   `json:"energies" yaml:"energies"`
	Occupations  []float64   `json:"occupations" yaml:"occupations"`
	NBasis       *int        `json:"n_basis,omitempty" yaml:"n_basis,omitempty"`
	Coefficients [][]float64 `json:"coefficients,omitempty" yaml:"coefficients,omitempty"`
}

// Molecule is a loaded dump.
type Molecule struct {
	// ID is the file name without its extension.
	ID      string
	Path    string
	Element string
	Atoms   int
	Set     orbital.Set
}

// Load reads and validates the dump at path.
func Load(path string) (*Molecule, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "failed to read orbital file").WithDetail(path)
	}

	doc, err := Decode(bytes.NewReader(raw), format)
	if err != nil {
		return nil, withPath(err, path)
	}
	set, err := doc.Set()
	if err != nil {
		return nil, withPath(err, path)
	}

	base := filepath.Base(path)
	return &Molecule{
		ID:      strings.TrimSuffix(base, filepath.Ext(base)),
		Path:    path,
		Element: strings.ToLower(doc.Element),
		Atoms:   doc.Atoms,
		Set:     *set,
	}, nil
}

// Decode parses one document.
func Decode(r io.Reader, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, errors.CodeOrbitalInputInvalid, "malformed JSON orbital document").WithDetail(err.Error())
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, errors.CodeOrbitalInputInvalid, "malformed YAML orbital document").WithDetail(err.Error())
		}
	default:
		return nil, errors.Newf(errors.CodeOrbitalInputInvalid, "unsupported format %q", format)
	}
	return &doc, nil
}

// Set validates the document.  An explicit n_basis wins over the coefficient
// matrix.
func (d *Document) Set() (*orbital.Set, error) {
	nBasis, err := d.basisSize()
	if err != nil {
		return nil, err
	}
	return orbital.NewSet(d.Energies, d.Occupations, nBasis)
}

func (d *Document) basisSize() (int, error) {
	if d.NBasis != nil {
		return *d.NBasis, nil
	}
	if len(d.Coefficients) == 0 {
		return 0, errors.New(errors.CodeOrbitalInputInvalid, "either n_basis or coefficients is required")
	}
	c, err := Coefficients(d.Coefficients)
	if err != nil {
		return 0, err
	}
	return orbital.NBasisFromCoefficients(c), nil
}

// Coefficients packs a row-major 2-D array into a dense matrix.
func Coefficients(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.New(errors.CodeOrbitalInputInvalid, "empty coefficient matrix")
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, errors.Newf(errors.CodeOrbitalInputInvalid,
				"coefficient row %d has %d columns, expected %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

// withPath prefixes the error detail with the file it came from.
func withPath(err error, path string) error {
	var ae *errors.AppError
	if !errors.As(err, &ae) {
		return errors.Wrap(err, errors.CodeOrbitalInputInvalid, "invalid orbital file").WithDetail(path)
	}
	detail := path
	if ae.Detail != "" {
		detail += ": " + ae.Detail
	}
	return ae.WithDetail(detail)
}
