package basis

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/turtacn/ibocheck/pkg/errors"
)

// CountFunctions returns the number of minimal-basis functions for one atom of
// symbol.  Scanning begins after the first header whose symbol matches
// (case-insensitively) and whose marker equals marker, and ends at the next
// header with the same marker or at the "$end" trailer, the same boundaries
// Parse uses.  Each shell declaration
// inside the block adds 2l+1; every other line is ignored.
func CountFunctions(r io.Reader, symbol, marker string) (int, error) {
	want := strings.ToLower(strings.TrimSpace(symbol))

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	inside, found := false, false
	total := 0
	for sc.Scan() {
		line := sc.Text()
		if !inside {
			sym, m, ok := ParseHeader(line)
			if ok && sym == want && strings.EqualFold(m, marker) {
				inside, found = true, true
			}
			continue
		}
		if IsHeaderFor(line, marker) || IsEndSentinel(line) {
			break
		}
		if sh, ok := ParseShell(line); ok {
			total += sh.L.Degeneracy()
		}
	}
	if err := sc.Err(); err != nil {
		return 0, errors.Wrap(err, errors.CodeBasisParseFailed, "failed to scan basis file")
	}
	if !found {
		return 0, errors.Newf(errors.CodeElementNotFound, "element %q not found", want).
			WithDetail("marker=" + marker)
	}
	return total, nil
}

// LookupFile opens path and runs CountFunctions on it.
func LookupFile(path, symbol, marker string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeBasisParseFailed, "failed to open basis file").
			WithDetail("path=" + path)
	}
	defer f.Close()

	n, err := CountFunctions(f, symbol, marker)
	if err != nil {
		var ae *errors.AppError
		if errors.As(err, &ae) && ae.Detail != "" {
			return 0, ae.WithDetail(ae.Detail + " path=" + path)
		}
		return 0, err
	}
	return n, nil
}

// CountLines sums 2l+1 over the shell declarations found in lines.
func CountLines(lines []string) int {
	total := 0
	for _, line := range lines {
		if sh, ok := ParseShell(line); ok {
			total += sh.L.Degeneracy()
		}
	}
	return total
}
