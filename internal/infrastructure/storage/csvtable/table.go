// Package csvtable stores diagnostics rows in an append-only CSV file.  Every
// append takes an exclusive advisory lock on the file, so several processes
// in a batch can share one table without interleaving rows.
package csvtable

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/turtacn/ibocheck/internal/application/diagnostics"
	"github.com/turtacn/ibocheck/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ibocheck/pkg/errors"
)

// Table is a diagnostics.Sink backed by a CSV file.
type Table struct {
	path   string
	logger logging.Logger
	mu     sync.Mutex
}

var _ diagnostics.Sink = (*Table)(nil)

// Open prepares a table at path.  The file itself is created, with its
// header, by the first Append.
func Open(path string, logger logging.Logger) (*Table, error) {
	if path == "" {
		return nil, errors.InvalidParam("csv table path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, errors.CodeDiagnosticsWriteFailed, "failed to create table directory").WithDetail(dir)
		}
	}
	return &Table{path: path, logger: logger.With(logging.Path(path))}, nil
}

// Path returns the table file.
func (t *Table) Path() string { return t.path }

// Append writes one row, preceded by the header when the file is empty.
func (t *Table) Append(ctx context.Context, row diagnostics.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(err, errors.CodeDiagnosticsWriteFailed, "failed to open table").WithDetail(t.path)
	}
	defer f.Close()

	unlock, err := lock(f, unix.LOCK_EX)
	if err != nil {
		return errors.Wrap(err, errors.CodeDiagnosticsWriteFailed, "failed to lock table").WithDetail(t.path)
	}
	defer unlock()

	info, err := f.Stat()
	if err != nil {
		return errors.Wrap(err, errors.CodeDiagnosticsWriteFailed, "failed to stat table").WithDetail(t.path)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(diagnostics.Columns); err != nil {
			return errors.Wrap(err, errors.CodeDiagnosticsWriteFailed, "failed to write header").WithDetail(t.path)
		}
		t.logger.Info("diagnostics table created")
	}
	if err := w.Write(row.Values()); err != nil {
		return errors.Wrap(err, errors.CodeDiagnosticsWriteFailed, "failed to write row").WithDetail(t.path)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, errors.CodeDiagnosticsWriteFailed, "failed to flush row").WithDetail(t.path)
	}
	return nil
}

// ReadAll returns every row in file order; a missing file is an empty table.
func (t *Table) ReadAll(ctx context.Context) ([]diagnostics.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(t.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDiagnosticsReadFailed, "failed to open table").WithDetail(t.path)
	}
	defer f.Close()

	unlock, err := lock(f, unix.LOCK_SH)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDiagnosticsReadFailed, "failed to lock table").WithDetail(t.path)
	}
	defer unlock()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDiagnosticsReadFailed, "failed to read header").WithDetail(t.path)
	}
	idx := diagnostics.HeaderIndex(header)

	var rows []diagnostics.Row
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeDiagnosticsReadFailed, "malformed table").WithDetail(t.path)
		}
		row, err := diagnostics.ParseRow(idx, rec)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeDiagnosticsReadFailed, "malformed row").
				WithDetail(t.path + ":" + strconv.Itoa(line))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Close is a no-op; files are opened per operation.
func (t *Table) Close() error { return nil }

func lock(f *os.File, how int) (func(), error) {
	fd := int(f.Fd())
	for {
		err := unix.Flock(fd, how)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, err
		}
		return func() { _ = unix.Flock(fd, unix.LOCK_UN) }, nil
	}
}
