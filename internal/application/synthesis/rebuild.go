package synthesis

import (
	"strings"

	"github.com/turtacn/ibocheck/internal/domain/basis"
	"github.com/turtacn/ibocheck/internal/domain/element"
	"github.com/turtacn/ibocheck/pkg/errors"
)

// Action records what happened to one heavy element.
type Action string

const (
	ActionReplace Action = "REPLACE"
	ActionAdd     Action = "ADD"
	ActionSkip    Action = "SKIP"
	ActionError   Action = "ERROR"
)

// Entry is one heavy element's line in the synthesis report.
type Entry struct {
	Symbol  string `yaml:"symbol" json:"symbol"`
	Z       int    `yaml:"z" json:"z"`
	Shells  string `yaml:"shells,omitempty" json:"shells,omitempty"`
	NewSize int    `yaml:"new_size,omitempty" json:"new_size,omitempty"`
	OldSize *int   `yaml:"old_size,omitempty" json:"old_size,omitempty"`
	Action  Action `yaml:"action" json:"action"`
	Reason  string `yaml:"reason,omitempty" json:"reason,omitempty"`
	Err     error  `yaml:"-" json:"-"`
}

// Options control Rebuild.
type Options struct {
	// Threshold is the first atomic number treated as heavy.
	Threshold int
	// Marker is written into synthesized headers, normally "MINAO".
	Marker string
}

// Outcome is the rebuilt file plus one Entry per heavy element considered.
type Outcome struct {
	File    *basis.File
	Entries []Entry
}

// ByAction returns the symbols of entries with action a, in Z order.
func (o *Outcome) ByAction(a Action) []string {
	var out []string
	for _, e := range o.Entries {
		if e.Action == a {
			out = append(out, e.Symbol)
		}
	}
	return out
}

// Rebuild produces the new minimal-basis file.  Blocks of elements lighter
// than the threshold, and blocks whose symbol is not an element, keep their
// original bytes and order.  Heavy elements follow in Z order: synthesized
// from ext when possible (REPLACE or ADD), otherwise the existing block is
// kept (SKIP when ext lacks the element, ERROR when synthesis failed).  The
// function is pure, and rebuilding its own output is a no-op.
func Rebuild(minao *basis.File, ext basis.Extended, opts Options) *Outcome {
	out := &basis.File{
		Preamble: minao.Preamble,
		Trailer:  minao.Trailer,
	}

	heavy := map[string]basis.Block{}
	for _, b := range minao.Blocks {
		z, err := element.AtomicNumber(b.Symbol)
		if err != nil || z < opts.Threshold {
			out.Blocks = append(out.Blocks, b)
			continue
		}
		if _, dup := heavy[b.Symbol]; !dup {
			heavy[b.Symbol] = b
		}
	}

	var entries []Entry
	for z := max(opts.Threshold, 1); z <= element.MaxZ; z++ {
		sym, _ := element.Symbol(z)
		entry, block, ok := rebuildOne(z, sym, heavy, ext, opts.Marker)
		entries = append(entries, entry)
		if ok {
			out.Blocks = append(out.Blocks, block)
		}
	}

	return &Outcome{File: out, Entries: entries}
}

func rebuildOne(z int, symbol string, heavy map[string]basis.Block, ext basis.Extended, marker string) (Entry, basis.Block, bool) {
	sym := strings.ToLower(symbol)
	entry := Entry{Symbol: sym, Z: z}

	old, hasOld := heavy[sym]
	if hasOld {
		n := old.FunctionCount()
		entry.OldSize = &n
	}

	contractions, inExt := ext[sym]
	if !inExt {
		entry.Action = ActionSkip
		entry.Reason = "not in extended basis"
		return entry, old, hasOld
	}

	profile, err := element.Profile(z)
	if err == nil {
		entry.Shells = profile.String()
		var block basis.Block
		block, err = SynthesizeBlock(sym, profile, contractions, marker)
		if err == nil {
			entry.NewSize = profile.BasisFunctionCount()
			entry.Action = ActionAdd
			if hasOld {
				entry.Action = ActionReplace
			}
			return entry, block, true
		}
	}

	entry.Action = ActionError
	entry.Err = err
	entry.Reason = errors.GetCode(err).String() + ": " + messageOf(err)
	return entry, old, hasOld
}

func messageOf(err error) string {
	var ae *errors.AppError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}
