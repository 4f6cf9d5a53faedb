package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/ibocheck/internal/application/synthesis"
	"github.com/turtacn/ibocheck/internal/domain/basis"
	"github.com/turtacn/ibocheck/internal/domain/element"
	"github.com/turtacn/ibocheck/pkg/errors"
)

// NewMinaoCmd groups the minimal-basis file commands.
func NewMinaoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "minao",
		Short: "Inspect and rebuild the minimal-basis (MINAO) file",
	}
	cmd.AddCommand(
		newMinaoCountCmd(),
		newMinaoProfileCmd(),
		newMinaoSynthesizeCmd(),
		newMinaoBudgetCmd(),
	)
	return cmd
}

// ─────────────────────────────────────────────────────────────────────────────
// minao count
// ─────────────────────────────────────────────────────────────────────────────

type functionCount struct {
	Element   string `json:"element" yaml:"element"`
	Functions int    `json:"functions" yaml:"functions"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

type countResult struct {
	File   string          `json:"file" yaml:"file"`
	Counts []functionCount `json:"counts" yaml:"counts"`
}

func (r countResult) TableHeaders() []string { return []string{"ELEMENT", "FUNCTIONS", "ERROR"} }

func (r countResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Counts))
	for _, c := range r.Counts {
		n := strconv.Itoa(c.Functions)
		if c.Error != "" {
			n = "-"
		}
		rows = append(rows, []string{c.Element, n, c.Error})
	}
	return rows
}

func newMinaoCountCmd() *cobra.Command {
	var file, marker string

	cmd := &cobra.Command{
		Use:   "count <element>...",
		Short: "Count the minimal-basis functions of one atom of each element",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			path := firstNonEmpty(file, cliCtx.Config.Basis.MinaoPath)
			mk := firstNonEmpty(marker, cliCtx.Config.Basis.MinaoMarker)

			res := countResult{File: path}
			failed := 0
			for _, sym := range args {
				c := functionCount{Element: sym}
				n, err := basis.LookupFile(path, sym, mk)
				if err != nil {
					c.Error = err.Error()
					failed++
				} else {
					c.Functions = n
				}
				res.Counts = append(res.Counts, c)
			}

			if err := PrintResult(cmd, res); err != nil {
				return err
			}
			if failed > 0 {
				return errors.Newf(errors.CodeElementNotFound, "%d of %d lookups failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "minimal-basis file (default: basis.minao_path)")
	cmd.Flags().StringVar(&marker, "marker", "", "basis marker in element headers (default: basis.minao_marker)")
	return cmd
}

// ─────────────────────────────────────────────────────────────────────────────
// minao profile
// ─────────────────────────────────────────────────────────────────────────────

type profileRow struct {
	Element   string `json:"element" yaml:"element"`
	Z         int    `json:"z" yaml:"z"`
	S         int    `json:"s" yaml:"s"`
	P         int    `json:"p" yaml:"p"`
	D         int    `json:"d" yaml:"d"`
	F         int    `json:"f" yaml:"f"`
	Functions int    `json:"functions" yaml:"functions"`
}

type profileResult []profileRow

func (r profileResult) TableHeaders() []string {
	return []string{"ELEMENT", "Z", "S", "P", "D", "F", "FUNCTIONS"}
}

func (r profileResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, p := range r {
		rows = append(rows, []string{
			p.Element, strconv.Itoa(p.Z),
			strconv.Itoa(p.S), strconv.Itoa(p.P), strconv.Itoa(p.D), strconv.Itoa(p.F),
			strconv.Itoa(p.Functions),
		})
	}
	return rows
}

func newMinaoProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile <element>...",
		Short: "Show the occupied-shell profile used to synthesize heavy elements",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := make(profileResult, 0, len(args))
			for _, sym := range args {
				z, err := element.AtomicNumber(sym)
				if err != nil {
					return err
				}
				p, err := element.Profile(z)
				if err != nil {
					return err
				}
				canonical, _ := element.Symbol(z)
				res = append(res, profileRow{
					Element: canonical, Z: z,
					S: p.S, P: p.P, D: p.D, F: p.F,
					Functions: p.BasisFunctionCount(),
				})
			}
			return PrintResult(cmd, res)
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// minao synthesize
// ─────────────────────────────────────────────────────────────────────────────

// synthesisOutput renders a report as a table while serialising as the
// report itself.
type synthesisOutput struct {
	report *synthesis.Report
}

func (o synthesisOutput) MarshalJSON() ([]byte, error)     { return json.Marshal(o.report) }
func (o synthesisOutput) MarshalYAML() (interface{}, error) { return o.report, nil }

func (o synthesisOutput) TableHeaders() []string {
	return []string{"ELEMENT", "Z", "SHELLS", "OLD", "NEW", "ACTION", "REASON"}
}

func (o synthesisOutput) TableRows() [][]string {
	rows := make([][]string, 0, len(o.report.Entries))
	for _, e := range o.report.Entries {
		old := "-"
		if e.OldSize != nil {
			old = strconv.Itoa(*e.OldSize)
		}
		size := "-"
		if e.NewSize > 0 {
			size = strconv.Itoa(e.NewSize)
		}
		rows = append(rows, []string{e.Symbol, strconv.Itoa(e.Z), e.Shells, old, size, string(e.Action), e.Reason})
	}
	return rows
}

func newMinaoSynthesizeCmd() *cobra.Command {
	var (
		minaoPath, extendedPath string
		dryRun                  bool
		molecules               []string
	)

	cmd := &cobra.Command{
		Use:   "synthesize",
		Short: "Rebuild heavy-element MINAO blocks from the extended basis",
		Long: "Rebuilds every element at or above basis.heavy_threshold by taking the leading\n" +
			"contractions of the extended basis for each occupied shell.  The original file is\n" +
			"backed up and replaced atomically unless --dry-run is given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			mols, err := parseMolecules(molecules)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			svc := synthesis.NewService(cliCtx.Config.Basis, cliCtx.Metrics, cliCtx.Logger)
			report, err := svc.Run(ctx, synthesis.Request{
				MinaoPath:    minaoPath,
				ExtendedPath: extendedPath,
				DryRun:       dryRun,
				Molecules:    mols,
			})
			if err != nil {
				return err
			}
			return PrintResult(cmd, synthesisOutput{report: report})
		},
	}

	cmd.Flags().StringVar(&minaoPath, "minao", "", "minimal-basis file to rebuild (default: basis.minao_path)")
	cmd.Flags().StringVar(&extendedPath, "extended", "", "extended basis file (default: basis.extended_path)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing")
	cmd.Flags().StringArrayVar(&molecules, "molecule", nil, "molecule to budget-check, e.g. Rb2=Rb,Rb (repeatable)")
	return cmd
}

// parseMolecules reads NAME=SYM,SYM,... specs.
func parseMolecules(specs []string) ([]synthesis.Molecule, error) {
	out := make([]synthesis.Molecule, 0, len(specs))
	for _, s := range specs {
		name, list, ok := strings.Cut(s, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" || strings.TrimSpace(list) == "" {
			return nil, errors.InvalidParam(fmt.Sprintf("invalid molecule %q; expected NAME=SYM,SYM,...", s))
		}
		var atoms []string
		for _, a := range strings.Split(list, ",") {
			if a = strings.TrimSpace(a); a != "" {
				atoms = append(atoms, a)
			}
		}
		out = append(out, synthesis.Molecule{Name: name, Atoms: atoms})
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// minao budget
// ─────────────────────────────────────────────────────────────────────────────

type budgetResult []synthesis.Budget

func (r budgetResult) TableHeaders() []string {
	return []string{"MOLECULE", "ATOMS", "N_MINAO", "N_ELECTRONS", "N_OCC", "N_VAL_VIRT", "STATUS"}
}

func (r budgetResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, b := range r {
		rows = append(rows, []string{
			b.Name, strings.Join(b.Atoms, ","),
			strconv.Itoa(b.NMINAO), strconv.Itoa(b.NElectrons), strconv.Itoa(b.NOccupied),
			strconv.Itoa(b.NValVirt), b.Status,
		})
	}
	return rows
}

func newMinaoBudgetCmd() *cobra.Command {
	var minaoPath string

	cmd := &cobra.Command{
		Use:   "budget <name> <element>...",
		Short: "Check nMINAO against the occupied count of a closed-shell molecule",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			svc := synthesis.NewService(cliCtx.Config.Basis, cliCtx.Metrics, cliCtx.Logger)
			budgets, err := svc.Budget(ctx, minaoPath, []synthesis.Molecule{{Name: args[0], Atoms: args[1:]}})
			if err != nil {
				return err
			}
			return PrintResult(cmd, budgetResult(budgets))
		},
	}

	cmd.Flags().StringVar(&minaoPath, "minao", "", "minimal-basis file (default: basis.minao_path)")
	return cmd
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
