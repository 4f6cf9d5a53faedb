package diagnostics

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ibocheck/internal/domain/orbital"
	"github.com/turtacn/ibocheck/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ibocheck/internal/testutil"
	"github.com/turtacn/ibocheck/pkg/errors"
)

// MockSink is a testify mock of Sink.
type MockSink struct {
	mock.Mock
}

func (m *MockSink) Append(ctx context.Context, row Row) error {
	args := m.Called(ctx, row)
	return args.Error(0)
}

func (m *MockSink) ReadAll(ctx context.Context) ([]Row, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Row), args.Error(1)
}

func (m *MockSink) Close() error {
	return m.Called().Error(0)
}

type rowCounter struct{ rows []Row }

func (o *rowCounter) ObserveRow(r Row) { o.rows = append(o.rows, r) }

// crashing: 3 occupied, 3 virtual, nBasis 6, total MINAO 2, so the faithful
// budget of 4 Rydberg orbitals spills one into the occupied space.
func crashing(t *testing.T) *orbital.Result {
	t.Helper()
	set, err := orbital.NewSet(
		[]float64{-10, -1, -0.5, 0.2, 0.5, 2.0},
		[]float64{2, 2, 2, 0, 0, 0},
		6,
	)
	require.NoError(t, err)
	return orbital.Classify(*set, orbital.DefaultOptions(2))
}

func healthy(t *testing.T) *orbital.Result {
	t.Helper()
	set, err := orbital.NewSet(
		[]float64{-10, -1, 0.2, 0.5, 2.0, 3.0},
		[]float64{2, 2, 0, 0, 0, 0},
		6,
	)
	require.NoError(t, err)
	return orbital.Classify(*set, orbital.DefaultOptions(4))
}

// ─────────────────────────────────────────────────────────────────────────────
// Row
// ─────────────────────────────────────────────────────────────────────────────

func TestNewRow_Values(t *testing.T) {
	row := NewRow("Rb", 1, crashing(t))
	values := row.Values()
	require.Len(t, values, len(Columns))

	get := func(col string) string {
		return values[HeaderIndex(Columns)[col]]
	}
	assert.Equal(t, "Rb", get("element"))
	assert.Equal(t, "6", get("n_mo"))
	assert.Equal(t, "1", get("minao_per_atom"))
	assert.Equal(t, "2", get("minao_total"))
	assert.Equal(t, "3", get("n_occupied"))
	assert.Equal(t, "3", get("n_virtual"))
	assert.Equal(t, "1", get("n_core"))
	assert.Equal(t, "4", get("n_rydberg"))
	assert.Equal(t, "4", get("nRydberg_calc"))
	assert.Equal(t, "1", get("overflow"))
	assert.Equal(t, "True", get("serenity_fails"))
	assert.Equal(t, "1", get("occ_marked_rydberg"))
	assert.Equal(t, "False", get("iao_satisfied"))
	assert.Equal(t, "0", get("n_val_virt_iao"))
	assert.Equal(t, "3", get("n_rydberg_iao"))
	assert.Equal(t, "False", get("physically_unbound"))
	assert.Equal(t, "-0.500000", get("homo"))
	assert.Equal(t, "0.200000", get("lumo"))
	assert.Equal(t, NotAvailable, get("lumo_plus5"))
	assert.Equal(t, NotAvailable, get("lumo_plus10"))
	assert.Equal(t, "-0.500000", get("rydberg_start"))
	assert.Equal(t, "2.000000", get("rydberg_end"))
	assert.Equal(t, "-10.000000", get("core_min"))
	assert.Equal(t, "0.700000", get("homo_lumo_gap"))
}

func TestParseRow_RoundTrip(t *testing.T) {
	for _, r := range []*orbital.Result{crashing(t), healthy(t)} {
		row := NewRow("Po2", 2, r)
		back, err := ParseRow(HeaderIndex(Columns), row.Values())
		require.NoError(t, err)
		assert.Equal(t, row.Values(), back.Values())
		assert.True(t, math.IsNaN(back.LUMOPlus10))
	}
}

func TestParseRow_ExtraColumnsAndOrder(t *testing.T) {
	row := NewRow("Xe", 9, healthy(t))
	header := append([]string{"extra"}, Columns...)
	record := append([]string{"ignored"}, row.Values()...)

	back, err := ParseRow(HeaderIndex(header), record)
	require.NoError(t, err)
	assert.Equal(t, "Xe", back.Element)
	assert.Equal(t, 9, back.MinaoPerAtom)
}

func TestParseRow_Errors(t *testing.T) {
	values := NewRow("Xe", 9, healthy(t)).Values()

	bad := append([]string(nil), values...)
	bad[1] = "six"
	_, err := ParseRow(HeaderIndex(Columns), bad)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeDiagnosticsReadFailed))
	assert.Contains(t, err.Error(), "n_mo")

	_, err = ParseRow(HeaderIndex(Columns[:5]), values[:5])
	assert.True(t, errors.IsCode(err, errors.CodeDiagnosticsReadFailed))

	bad = append([]string(nil), values...)
	bad[13] = "maybe"
	_, err = ParseRow(HeaderIndex(Columns), bad)
	assert.Contains(t, err.Error(), "serenity_fails")
}

// ─────────────────────────────────────────────────────────────────────────────
// Aggregator
// ─────────────────────────────────────────────────────────────────────────────

func TestAggregator_Record(t *testing.T) {
	sink := new(MockSink)
	obs := &rowCounter{}
	agg := NewAggregator(sink, obs, logging.NewNopLogger())
	ctx := context.Background()

	sink.On("Append", ctx, mock.MatchedBy(func(r Row) bool {
		return r.Element == "Rb" && r.SerenityFails && r.MinaoPerAtom == 1
	})).Return(nil).Once()

	require.NoError(t, agg.Record(ctx, "Rb", 1, crashing(t)))
	sink.AssertExpectations(t)
	require.Len(t, obs.rows, 1)
	assert.Equal(t, 1, obs.rows[0].Overflow)
}

func TestAggregator_RecordSinkError(t *testing.T) {
	sink := new(MockSink)
	obs := &rowCounter{}
	logger := testutil.NewMockLogger()
	agg := NewAggregator(sink, obs, logger)
	ctx := context.Background()

	sink.On("Append", ctx, mock.Anything).
		Return(errors.New(errors.CodeDiagnosticsWriteFailed, "disk full")).Once()

	err := agg.Record(ctx, "Rb", 1, crashing(t))
	assert.True(t, errors.IsCode(err, errors.CodeDiagnosticsWriteFailed))
	assert.Empty(t, obs.rows)

	msg, ok := logger.Find("error", "failed to record diagnostics row")
	require.True(t, ok)
	v, _ := msg.Field(logging.KeyMolecule)
	assert.Equal(t, "Rb", v)
}

func TestAggregator_RowsAndClose(t *testing.T) {
	sink := new(MockSink)
	agg := NewAggregator(sink, nil, logging.NewNopLogger())
	ctx := context.Background()
	want := []Row{NewRow("Rb", 1, crashing(t))}

	sink.On("ReadAll", ctx).Return(want, nil).Once()
	sink.On("Close").Return(nil).Once()

	got, err := agg.Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, want[0].Values(), got[0].Values())
	require.NoError(t, agg.Close())
	sink.AssertExpectations(t)
}

// ─────────────────────────────────────────────────────────────────────────────
// Reports
// ─────────────────────────────────────────────────────────────────────────────

func TestCrashReport(t *testing.T) {
	bad := crashing(t)
	good := healthy(t)
	rows := []Row{
		NewRow("Po2", 1, bad),
		NewRow("Xe", 1, good),
		NewRow("molecule-x", 1, bad),
		NewRow("Rb", 1, bad),
	}

	crashes := CrashReport(rows)
	require.Len(t, crashes, 3)
	assert.Equal(t, "Rb", crashes[0].Element)
	assert.Equal(t, 37, crashes[0].Z)
	assert.Equal(t, "Po2", crashes[1].Element)
	assert.Equal(t, 84, crashes[1].Z)
	assert.Equal(t, "molecule-x", crashes[2].Element)
	assert.Equal(t, 0, crashes[2].Z)
	assert.Equal(t, 1, crashes[0].Overflow)
	assert.Equal(t, 4, crashes[0].NRydbergCalc)

	assert.Empty(t, CrashReport([]Row{NewRow("Xe", 1, good)}))
}

func TestCompareCutoff(t *testing.T) {
	bad := crashing(t)
	rows := []Row{
		NewRow("rb", 1, healthy(t)),
		NewRow("Rb", 1, bad), // latest row wins
		NewRow("Sr", 1, bad),
		NewRow("Xe", 1, healthy(t)),
	}
	proposals := map[string]orbital.CutoffProposal{
		"Rb": {Cutoff: 1, NVirtual: 3, NRydbergProposed: 1, WouldFix: true},
		"Sr": {Cutoff: 1, NVirtual: 0, NRydbergProposed: 0, WouldFix: false},
		"Xe": {Cutoff: 1, NVirtual: 4, NRydbergProposed: 2, WouldFix: true},
		"Kr": {Cutoff: 1, NVirtual: 4, NRydbergProposed: 2, WouldFix: true},
	}

	c := CompareCutoff(rows, proposals)
	require.Len(t, c.Entries, 4)
	assert.Equal(t, []string{"Kr", "Rb", "Sr", "Xe"},
		[]string{c.Entries[0].Element, c.Entries[1].Element, c.Entries[2].Element, c.Entries[3].Element})

	kr, rb, sr, xe := c.Entries[0], c.Entries[1], c.Entries[2], c.Entries[3]
	assert.Equal(t, StatusOK, kr.Status)
	assert.False(t, kr.HasRow)
	assert.Equal(t, StatusFixed, rb.Status)
	assert.Equal(t, "nRydberg 4 -> 1 (nVirtual=3)", rb.Reason)
	assert.Equal(t, StatusStillFails, sr.Status)
	assert.Equal(t, "nVirtual=0", sr.Reason)
	assert.Equal(t, StatusOK, xe.Status)

	assert.Equal(t, 2, c.OK)
	assert.Equal(t, 1, c.Fixed)
	assert.Equal(t, 1, c.StillFails)
}

func TestCompareCutoff_ProposalTooLarge(t *testing.T) {
	rows := []Row{NewRow("Rb", 1, crashing(t))}
	p := orbital.ProposeEnergyCutoff(crashing(t), 0.4)
	assert.Equal(t, 2, p.NRydbergProposed)
	assert.True(t, p.WouldFix)

	p.NRydbergProposed = p.NVirtual + 2
	p.WouldFix = false
	c := CompareCutoff(rows, map[string]orbital.CutoffProposal{"Rb": p})
	require.Len(t, c.Entries, 1)
	assert.Equal(t, StatusStillFails, c.Entries[0].Status)
	assert.Equal(t, "nRydberg(5) > nVirtual(3)", c.Entries[0].Reason)
}
