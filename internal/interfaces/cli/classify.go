package cli

import (
	"math"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/turtacn/ibocheck/internal/application/analysis"
	"github.com/turtacn/ibocheck/internal/application/diagnostics"
	"github.com/turtacn/ibocheck/internal/domain/orbital"
	"github.com/turtacn/ibocheck/pkg/errors"
)

// sizingFlags are the minimal-basis sizing overrides shared by the commands
// that classify orbital files.
type sizingFlags struct {
	element      string
	minaoPerAtom int
	atoms        int
	totalMINAO   int
}

func (f *sizingFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.element, "element", "", "element symbol used to look up nMINAO per atom (default: from file)")
	fs.IntVar(&f.minaoPerAtom, "minao-per-atom", 0, "nMINAO per atom; skips the basis-file lookup")
	fs.IntVar(&f.atoms, "atoms", 0, "number of atoms (default: from file, then classifier.atoms)")
	fs.IntVar(&f.totalMINAO, "total-minao", 0, "nMINAO of the whole molecule; overrides per-atom sizing")
}

func (f *sizingFlags) sizing() analysis.Sizing {
	return analysis.Sizing{
		Element:      f.element,
		MinaoPerAtom: f.minaoPerAtom,
		Atoms:        f.atoms,
		TotalMINAO:   f.totalMINAO,
	}
}

// classifyRow is one molecule of the classify output.  Energies are nil
// when undefined so the JSON form stays valid.
type classifyRow struct {
	ID              string   `json:"id" yaml:"id"`
	Path            string   `json:"path,omitempty" yaml:"path,omitempty"`
	Element         string   `json:"element,omitempty" yaml:"element,omitempty"`
	Policy          string   `json:"policy,omitempty" yaml:"policy,omitempty"`
	NMO             int      `json:"n_mo" yaml:"n_mo"`
	NBasis          int      `json:"n_basis" yaml:"n_basis"`
	MinaoPerAtom    int      `json:"minao_per_atom" yaml:"minao_per_atom"`
	TotalMINAO      int      `json:"minao_total" yaml:"minao_total"`
	NOccupied       int      `json:"n_occupied" yaml:"n_occupied"`
	NVirtual        int      `json:"n_virtual" yaml:"n_virtual"`
	Core            int      `json:"core" yaml:"core"`
	OccupiedValence int      `json:"occupied_valence" yaml:"occupied_valence"`
	VirtualValence  int      `json:"virtual_valence" yaml:"virtual_valence"`
	Rydberg         int      `json:"rydberg" yaml:"rydberg"`
	Overflow        int      `json:"overflow" yaml:"overflow"`
	WillCrash       bool     `json:"will_crash" yaml:"will_crash"`
	Violated        bool     `json:"constraint_violated" yaml:"constraint_violated"`
	Impossible      bool     `json:"impossible_input" yaml:"impossible_input"`
	Unbound         bool     `json:"physically_unbound" yaml:"physically_unbound"`
	HOMO            *float64 `json:"homo,omitempty" yaml:"homo,omitempty"`
	LUMO            *float64 `json:"lumo,omitempty" yaml:"lumo,omitempty"`
	Gap             *float64 `json:"homo_lumo_gap,omitempty" yaml:"homo_lumo_gap,omitempty"`
	Verdict         string   `json:"verdict,omitempty" yaml:"verdict,omitempty"`
	Error           string   `json:"error,omitempty" yaml:"error,omitempty"`
}

func newClassifyRow(o *analysis.Outcome, policy orbital.Policy) classifyRow {
	row := classifyRow{ID: o.Identifier(), Path: o.Path, Element: o.Element}
	if o.Err != nil {
		row.ID = o.ID
		row.Error = o.Err.Error()
		return row
	}
	r := o.Result
	p := r.Partition(policy)
	row.Policy = policy.String()
	row.NMO, row.NBasis = r.NMO, r.NBasis
	row.MinaoPerAtom, row.TotalMINAO = o.MinaoPerAtom, r.TotalMINAO
	row.NOccupied, row.NVirtual = r.NOccupied, r.NVirtual
	row.Core = p.Core.Count()
	row.OccupiedValence = p.OccupiedValence.Count()
	row.VirtualValence = p.VirtualValence.Count()
	row.Rydberg = p.Rydberg.Count()
	row.Overflow, row.WillCrash = r.Overflow, r.WillCrash
	row.Violated, row.Impossible, row.Unbound = r.ConstraintViolated, r.ImpossibleInput, r.PhysicallyUnbound
	row.HOMO, row.LUMO, row.Gap = energyPtr(r.HOMO), energyPtr(r.LUMO), energyPtr(r.Gap)
	row.Verdict = r.Verdict()
	return row
}

func energyPtr(f float64) *float64 {
	if math.IsNaN(f) {
		return nil
	}
	return &f
}

type classifyResult struct {
	RunID     string        `json:"run_id" yaml:"run_id"`
	Molecules []classifyRow `json:"molecules" yaml:"molecules"`
	Failed    int           `json:"failed" yaml:"failed"`
}

func (r classifyResult) TableHeaders() []string {
	return []string{"MOLECULE", "N_MO", "N_BASIS", "MINAO", "N_OCC", "N_VIRT",
		"CORE", "OCC_VAL", "VIRT_VAL", "RYDBERG", "OVERFLOW", "VERDICT"}
}

func (r classifyResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Molecules))
	for _, m := range r.Molecules {
		if m.Error != "" {
			rows = append(rows, []string{m.ID, "-", "-", "-", "-", "-", "-", "-", "-", "-", "-", "error: " + m.Error})
			continue
		}
		rows = append(rows, []string{
			m.ID,
			strconv.Itoa(m.NMO), strconv.Itoa(m.NBasis), strconv.Itoa(m.TotalMINAO),
			strconv.Itoa(m.NOccupied), strconv.Itoa(m.NVirtual),
			strconv.Itoa(m.Core), strconv.Itoa(m.OccupiedValence),
			strconv.Itoa(m.VirtualValence), strconv.Itoa(m.Rydberg),
			strconv.Itoa(m.Overflow), m.Verdict,
		})
	}
	return rows
}

// NewClassifyCmd classifies orbital dumps and optionally records them.
func NewClassifyCmd() *cobra.Command {
	var (
		sz     sizingFlags
		policy string
		record bool
	)

	cmd := &cobra.Command{
		Use:   "classify <orbital-file>...",
		Short: "Partition molecular orbitals into core, valence and Rydberg spaces",
		Long: "Classifies each orbital dump (.json, .yaml) under both policies and prints the\n" +
			"partition selected by --policy.  With --record one diagnostics row per molecule\n" +
			"is appended to the configured table.  A file that cannot be classified is\n" +
			"reported and the rest of the batch continues.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			pol, err := orbital.ParsePolicy(policy)
			if err != nil {
				return errors.Wrap(err, errors.CodeInvalidParam, "invalid --policy")
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			var agg *diagnostics.Aggregator
			if record {
				sink, err := openSink(ctx, cliCtx.Config, cliCtx.Logger)
				if err != nil {
					return err
				}
				agg = diagnostics.NewAggregator(sink, cliCtx.Metrics, cliCtx.Logger)
				defer agg.Close()
			}

			svc := analysis.NewService(*cliCtx.Config, agg, cliCtx.Metrics, cliCtx.Logger)
			sum, err := svc.Run(ctx, analysis.BatchRequest{Paths: args, Sizing: sz.sizing(), Record: record})
			if err != nil {
				return err
			}

			res := classifyResult{RunID: sum.RunID, Failed: sum.Failed}
			for i := range sum.Outcomes {
				res.Molecules = append(res.Molecules, newClassifyRow(&sum.Outcomes[i], pol))
			}
			if err := PrintResult(cmd, res); err != nil {
				return err
			}
			if sum.Failed > 0 {
				return errors.Newf(errors.CodeOrbitalInputInvalid, "%d of %d molecules failed", sum.Failed, len(args))
			}
			return nil
		},
	}

	sz.bind(cmd.Flags())
	cmd.Flags().StringVar(&policy, "policy", "faithful", "partition to print (faithful, constrained)")
	cmd.Flags().BoolVar(&record, "record", false, "append one diagnostics row per molecule")
	return cmd
}
