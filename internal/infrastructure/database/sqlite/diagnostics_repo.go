package sqlite

import (
	"context"
	"database/sql"
	"math"
	"strings"

	"github.com/turtacn/ibocheck/internal/application/diagnostics"
	"github.com/turtacn/ibocheck/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ibocheck/pkg/errors"
)

// DiagnosticsRepository is a diagnostics.Sink over the ibo_diagnostics table.
// It only ever inserts.
type DiagnosticsRepository struct {
	conn   *Connection
	logger logging.Logger
}

var _ diagnostics.Sink = (*DiagnosticsRepository)(nil)

// NewDiagnosticsRepository wraps an open connection.
func NewDiagnosticsRepository(conn *Connection, log logging.Logger) *DiagnosticsRepository {
	return &DiagnosticsRepository{conn: conn, logger: log}
}

var (
	columnList = quoteColumns(diagnostics.Columns)
	insertSQL  = "INSERT INTO ibo_diagnostics (" + columnList + ") VALUES (" +
		strings.TrimSuffix(strings.Repeat("?, ", len(diagnostics.Columns)), ", ") + ")"
	selectSQL = "SELECT " + columnList + " FROM ibo_diagnostics ORDER BY id"
)

// Append inserts row.
func (r *DiagnosticsRepository) Append(ctx context.Context, row diagnostics.Row) error {
	if _, err := r.conn.DB().ExecContext(ctx, insertSQL, rowArgs(row)...); err != nil {
		return errors.Wrap(err, errors.CodeDiagnosticsWriteFailed, "failed to insert diagnostics row").
			WithDetail("element=" + row.Element)
	}
	return nil
}

// ReadAll returns every row in insertion order.
func (r *DiagnosticsRepository) ReadAll(ctx context.Context) ([]diagnostics.Row, error) {
	rows, err := r.conn.DB().QueryContext(ctx, selectSQL)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDiagnosticsReadFailed, "failed to query diagnostics")
	}
	defer rows.Close()

	var out []diagnostics.Row
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeDiagnosticsReadFailed, "failed to scan diagnostics row")
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeDiagnosticsReadFailed, "failed to iterate diagnostics")
	}
	return out, nil
}

// Close closes the underlying connection.
func (r *DiagnosticsRepository) Close() error {
	return r.conn.Close()
}

// rowArgs lists row's values in diagnostics.Columns order.
func rowArgs(row diagnostics.Row) []any {
	return []any{
		row.Element,
		row.NMO,
		row.NBasis,
		row.MinaoPerAtom,
		row.MinaoTotal,
		row.NOccupied,
		row.NVirtual,
		row.NCore,
		row.NOccValence,
		row.NVirtValence,
		row.NRydberg,
		row.NRydbergCalc,
		row.Overflow,
		row.SerenityFails,
		row.CoreRydbergOverlap,
		row.OccMarkedRydberg,
		row.IAOSatisfied,
		row.NValVirtIAO,
		row.NRydbergIAO,
		row.PhysicallyUnbound,
		nullable(row.HOMO),
		nullable(row.LUMO),
		nullable(row.LUMOPlus5),
		nullable(row.LUMOPlus10),
		nullable(row.RydbergStart),
		nullable(row.RydbergEnd),
		nullable(row.CoreMin),
		nullable(row.CoreMax),
		nullable(row.Gap),
	}
}

func scanRow(rows *sql.Rows) (diagnostics.Row, error) {
	var (
		row      diagnostics.Row
		energies [9]sql.NullFloat64
	)
	err := rows.Scan(
		&row.Element,
		&row.NMO,
		&row.NBasis,
		&row.MinaoPerAtom,
		&row.MinaoTotal,
		&row.NOccupied,
		&row.NVirtual,
		&row.NCore,
		&row.NOccValence,
		&row.NVirtValence,
		&row.NRydberg,
		&row.NRydbergCalc,
		&row.Overflow,
		&row.SerenityFails,
		&row.CoreRydbergOverlap,
		&row.OccMarkedRydberg,
		&row.IAOSatisfied,
		&row.NValVirtIAO,
		&row.NRydbergIAO,
		&row.PhysicallyUnbound,
		&energies[0], &energies[1], &energies[2], &energies[3], &energies[4],
		&energies[5], &energies[6], &energies[7], &energies[8],
	)
	if err != nil {
		return diagnostics.Row{}, err
	}
	targets := []*float64{
		&row.HOMO, &row.LUMO, &row.LUMOPlus5, &row.LUMOPlus10,
		&row.RydbergStart, &row.RydbergEnd, &row.CoreMin, &row.CoreMax, &row.Gap,
	}
	for i, e := range energies {
		*targets[i] = math.NaN()
		if e.Valid {
			*targets[i] = e.Float64
		}
	}
	return row, nil
}

func nullable(f float64) sql.NullFloat64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

func quoteColumns(cols []string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = `"` + c + `"`
	}
	return strings.Join(q, ", ")
}
