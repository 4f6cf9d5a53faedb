package basis

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/turtacn/ibocheck/pkg/errors"
)

// Block is one element's section of a basis file.  Lines[0] is the header and
// every line keeps its original terminator, so writing Lines back reproduces
// the input byte for byte.
type Block struct {
	Symbol string
	Marker string
	Lines  []string
}

// FunctionCount sums 2l+1 over the block's shell declarations.
func (b Block) FunctionCount() int {
	return CountLines(b.Lines)
}

// File is a basis file split into the text before the first header, the
// element blocks in file order, and the "$end" trailer.
type File struct {
	Preamble []string
	Blocks   []Block
	Trailer  []string
}

// Block returns the first block for symbol (case-insensitive).
func (f *File) Block(symbol string) (Block, bool) {
	want := strings.ToLower(symbol)
	for _, b := range f.Blocks {
		if b.Symbol == want {
			return b, true
		}
	}
	return Block{}, false
}

// Symbols lists block symbols in file order, duplicates included.
func (f *File) Symbols() []string {
	out := make([]string, 0, len(f.Blocks))
	for _, b := range f.Blocks {
		out = append(out, b.Symbol)
	}
	return out
}

// WriteTo writes the file verbatim.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	var n int64
	write := func(lines []string) error {
		for _, line := range lines {
			k, err := io.WriteString(w, line)
			n += int64(k)
			if err != nil {
				return err
			}
		}
		return nil
	}
	if err := write(f.Preamble); err != nil {
		return n, err
	}
	for _, b := range f.Blocks {
		if err := write(b.Lines); err != nil {
			return n, err
		}
	}
	if err := write(f.Trailer); err != nil {
		return n, err
	}
	return n, nil
}

// Bytes renders the file into memory.
func (f *File) Bytes() []byte {
	var buf bytes.Buffer
	_, _ = f.WriteTo(&buf)
	return buf.Bytes()
}

// Parse splits a basis file into preamble, blocks and trailer.  A block runs
// from its header to the next header carrying marker.  A "$end" line and
// everything after it form the trailer.
func Parse(r io.Reader, marker string) (*File, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeBasisParseFailed, "failed to read basis file")
	}

	f := &File{}
	var cur *Block
	flush := func() {
		if cur != nil {
			f.Blocks = append(f.Blocks, *cur)
			cur = nil
		}
	}

	for i, line := range lines {
		if IsEndSentinel(line) {
			flush()
			f.Trailer = append(f.Trailer, lines[i:]...)
			return f, nil
		}
		if sym, m, ok := ParseHeader(line); ok && strings.EqualFold(m, marker) {
			flush()
			cur = &Block{Symbol: sym, Marker: m, Lines: []string{line}}
			continue
		}
		if cur == nil {
			f.Preamble = append(f.Preamble, line)
			continue
		}
		cur.Lines = append(cur.Lines, line)
	}
	flush()
	return f, nil
}

// readLines splits r into lines, each keeping its "\n" (or "\r\n"); a final
// unterminated line is kept as is.
func readLines(r io.Reader) ([]string, error) {
	br := bufio.NewReader(r)
	var out []string
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			out = append(out, line)
		}
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
