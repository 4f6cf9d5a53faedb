package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/ibocheck/internal/application/analysis"
	"github.com/turtacn/ibocheck/internal/application/diagnostics"
	"github.com/turtacn/ibocheck/internal/domain/orbital"
	"github.com/turtacn/ibocheck/internal/infrastructure/monitoring/logging"
)

// NewReportCmd groups the reports built from the diagnostics table.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarise the diagnostics table",
	}
	cmd.AddCommand(newReportCrashesCmd(), newReportCutoffCmd())
	return cmd
}

// readRows loads every recorded diagnostics row.
func readRows(cmd *cobra.Command, cliCtx *CLIContext) ([]diagnostics.Row, error) {
	ctx, cancel := commandContext(cmd, cliCtx)
	defer cancel()

	sink, err := openSink(ctx, cliCtx.Config, cliCtx.Logger)
	if err != nil {
		return nil, err
	}
	agg := diagnostics.NewAggregator(sink, nil, cliCtx.Logger)
	defer agg.Close()
	return agg.Rows(ctx)
}

// ─────────────────────────────────────────────────────────────────────────────
// report crashes
// ─────────────────────────────────────────────────────────────────────────────

type crashResult []diagnostics.Crash

func (r crashResult) TableHeaders() []string {
	return []string{"ELEMENT", "Z", "OVERFLOW", "N_RYDBERG_CALC", "N_VIRTUAL"}
}

func (r crashResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, c := range r {
		z := "-"
		if c.Z > 0 {
			z = strconv.Itoa(c.Z)
		}
		rows = append(rows, []string{c.Element, z, strconv.Itoa(c.Overflow),
			strconv.Itoa(c.NRydbergCalc), strconv.Itoa(c.NVirtual)})
	}
	return rows
}

func newReportCrashesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crashes",
		Short: "List recorded molecules the localizer would fail on, by atomic number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			rows, err := readRows(cmd, cliCtx)
			if err != nil {
				return err
			}
			crashes := diagnostics.CrashReport(rows)
			cliCtx.Logger.Info("Crash report built",
				logging.Int("rows", len(rows)), logging.Int("crashes", len(crashes)))
			return PrintResult(cmd, crashResult(crashes))
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// report cutoff
// ─────────────────────────────────────────────────────────────────────────────

type cutoffResult diagnostics.CutoffComparison

func (r cutoffResult) TableHeaders() []string {
	return []string{"ELEMENT", "N_VIRTUAL", "N_RYDBERG_CALC", "N_RYDBERG_PROPOSED", "STATUS", "REASON"}
}

func (r cutoffResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Entries)+1)
	for _, e := range r.Entries {
		rows = append(rows, []string{e.Element, strconv.Itoa(e.NVirtual), strconv.Itoa(e.NRydbergCalc),
			strconv.Itoa(e.NRydbergProposed), e.Status, e.Reason})
	}
	return append(rows, []string{"TOTAL", "", "", "",
		fmt.Sprintf("ok=%d fixed=%d still_fails=%d", r.OK, r.Fixed, r.StillFails), ""})
}

func newReportCutoffCmd() *cobra.Command {
	var (
		sz     sizingFlags
		cutoff float64
	)

	cmd := &cobra.Command{
		Use:   "cutoff <orbital-file>...",
		Short: "Evaluate an energy-based Rydberg threshold against the recorded verdicts",
		Long: "Classifies each orbital dump, counts the virtuals at or above --cutoff and\n" +
			"compares the result with the latest recorded row for the same molecule:\n" +
			"OK when it did not fail, FIXED when the energy threshold fits the virtual\n" +
			"space, STILL FAILS otherwise.  Nothing is recorded.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			rows, err := readRows(cmd, cliCtx)
			if err != nil {
				return err
			}

			cfg := *cliCtx.Config
			if cmd.Flags().Changed("cutoff") {
				cfg.Classifier.RydbergEnergyCutoff = cutoff
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			svc := analysis.NewService(cfg, nil, cliCtx.Metrics, cliCtx.Logger)
			sum, err := svc.Run(ctx, analysis.BatchRequest{Paths: args, Sizing: sz.sizing()})
			if err != nil {
				return err
			}

			proposals := make(map[string]orbital.CutoffProposal, len(sum.Outcomes))
			for i := range sum.Outcomes {
				o := &sum.Outcomes[i]
				if o.Err == nil {
					proposals[o.Identifier()] = o.Proposal
				}
			}
			return PrintResult(cmd, cutoffResult(diagnostics.CompareCutoff(rows, proposals)))
		},
	}

	sz.bind(cmd.Flags())
	cmd.Flags().Float64Var(&cutoff, "cutoff", orbital.DefaultRydbergEnergyCutoff,
		"Rydberg energy threshold in Hartree (default: classifier.rydberg_energy_cutoff)")
	return cmd
}
