// Package basis reads and models fixed-format (Turbomole-style) basis-set text
// files such as Serenity's MINAO and ANO-RCC.  Every line belongs to exactly
// one kind (header, separator, sentinel, shell declaration, data, or free
// text) and each kind has its own tokenizer below so the grammar can be tested
// without any file I/O.
package basis

import (
	"strconv"
	"strings"
)

// ─────────────────────────────────────────────────────────────────────────────
// Angular momentum
// ─────────────────────────────────────────────────────────────────────────────

// AngularMomentum is the quantum number l of a shell.
type AngularMomentum int

const (
	S AngularMomentum = iota
	P
	D
	F
	G
	H
	I
)

const shellLetters = "spdfghi"

// ParseAngularMomentum maps a lower-case shell letter to its l value.
func ParseAngularMomentum(letter string) (AngularMomentum, bool) {
	if len(letter) != 1 {
		return 0, false
	}
	idx := strings.IndexByte(shellLetters, letter[0])
	if idx < 0 {
		return 0, false
	}
	return AngularMomentum(idx), true
}

// Letter returns the spectroscopic letter, or "?" when out of range.
func (l AngularMomentum) Letter() string {
	if l < S || l > I {
		return "?"
	}
	return shellLetters[l : l+1]
}

func (l AngularMomentum) String() string { return l.Letter() }

// Degeneracy is the number of spherical basis functions a shell of this
// angular momentum contributes: 2l+1.
func (l AngularMomentum) Degeneracy() int {
	return 2*int(l) + 1
}

// ─────────────────────────────────────────────────────────────────────────────
// Line kinds
// ─────────────────────────────────────────────────────────────────────────────

// Shell is a parsed "<count> <letter>" declaration.
type Shell struct {
	Count int
	L     AngularMomentum
}

// ParseHeader recognises an element header "<symbol> <marker> ...", where the
// symbol is one or two ASCII letters.  The symbol is returned lower-cased and
// the marker verbatim.
func ParseHeader(line string) (symbol, marker string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 || !isSymbol(fields[0]) {
		return "", "", false
	}
	return strings.ToLower(fields[0]), fields[1], true
}

// IsHeaderFor reports whether line is a header carrying marker
// (case-insensitive) for any element.
func IsHeaderFor(line, marker string) bool {
	_, m, ok := ParseHeader(line)
	return ok && strings.EqualFold(m, marker)
}

// ParseShell recognises a shell declaration: exactly a positive decimal
// integer followed by a single lower-case letter from "spdfghi".
func ParseShell(line string) (Shell, bool) {
	fields := strings.Fields(line)
	if len(fields) != 2 || !isDigits(fields[0]) {
		return Shell{}, false
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n <= 0 {
		return Shell{}, false
	}
	l, ok := ParseAngularMomentum(fields[1])
	if !ok {
		return Shell{}, false
	}
	return Shell{Count: n, L: l}, true
}

// ParseData recognises a primitive line holding exactly two floating-point
// values, exponent then coefficient.  Fortran "D" exponents are accepted.
func ParseData(line string) (exponent, coefficient float64, ok bool) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, false
	}
	e, err := parseFortranFloat(fields[0])
	if err != nil {
		return 0, 0, false
	}
	c, err := parseFortranFloat(fields[1])
	if err != nil {
		return 0, 0, false
	}
	return e, c, true
}

// IsSeparator reports whether line is a lone "*".
func IsSeparator(line string) bool {
	return strings.TrimSpace(line) == "*"
}

// IsSentinel reports whether line opens a "$" directive such as "$end".
func IsSentinel(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "$")
}

// IsEndSentinel reports whether line is exactly "$end".
func IsEndSentinel(line string) bool {
	return strings.TrimSpace(line) == "$end"
}

func isSymbol(s string) bool {
	if len(s) < 1 || len(s) > 2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func parseFortranFloat(s string) (float64, error) {
	s = strings.NewReplacer("D", "E", "d", "e").Replace(s)
	return strconv.ParseFloat(s, 64)
}
