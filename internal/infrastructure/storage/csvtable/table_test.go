package csvtable

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ibocheck/internal/application/diagnostics"
	"github.com/turtacn/ibocheck/internal/domain/orbital"
	"github.com/turtacn/ibocheck/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ibocheck/pkg/errors"
)

func sampleRow(t *testing.T, id string) diagnostics.Row {
	t.Helper()
	set, err := orbital.NewSet([]float64{-10, -1, -0.5, 0.2, 0.5, 2.0}, []float64{2, 2, 2, 0, 0, 0}, 6)
	require.NoError(t, err)
	return diagnostics.NewRow(id, 1, orbital.Classify(*set, orbital.DefaultOptions(2)))
}

func TestTable_AppendWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "IBO_diagnostics.csv")
	tbl, err := Open(path, logging.NewNopLogger())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, tbl.Append(ctx, sampleRow(t, "Rb")))
	require.NoError(t, tbl.Append(ctx, sampleRow(t, "Sr")))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(diagnostics.Columns, ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Rb,6,6,1,2,3,3,"))
	assert.Contains(t, lines[1], ",True,")
	assert.Contains(t, lines[1], ",N/A,")
	assert.True(t, strings.HasPrefix(lines[2], "Sr,"))
}

func TestTable_AppendNeverRewrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.csv")
	tbl, err := Open(path, logging.NewNopLogger())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, tbl.Append(ctx, sampleRow(t, "Rb")))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	// A second handle sees the existing header.
	other, err := Open(path, logging.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, other.Append(ctx, sampleRow(t, "Cs")))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(after), string(before)))
}

func TestTable_ReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.csv")
	tbl, err := Open(path, logging.NewNopLogger())
	require.NoError(t, err)
	ctx := context.Background()

	rows, err := tbl.ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)

	want := []diagnostics.Row{sampleRow(t, "Rb"), sampleRow(t, "Po2")}
	for _, r := range want {
		require.NoError(t, tbl.Append(ctx, r))
	}

	rows, err = tbl.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for i := range want {
		assert.Equal(t, want[i].Values(), rows[i].Values())
	}
}

func TestTable_ReadAllMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.csv")
	content := strings.Join(diagnostics.Columns, ",") + "\nRb,not-a-number\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tbl, err := Open(path, logging.NewNopLogger())
	require.NoError(t, err)
	_, err = tbl.ReadAll(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeDiagnosticsReadFailed))
	assert.Contains(t, err.Error(), ":2")
}

func TestTable_ConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.csv")
	ctx := context.Background()

	const writers, perWriter = 8, 25
	base := sampleRow(t, "")
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		// Separate handles exercise the file lock, not just the mutex.
		tbl, err := Open(path, logging.NewNopLogger())
		require.NoError(t, err)
		wg.Add(1)
		go func(w int, tbl *Table) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				row := base
				row.Element = fmt.Sprintf("m%d-%d", w, i)
				assert.NoError(t, tbl.Append(ctx, row))
			}
		}(w, tbl)
	}
	wg.Wait()

	tbl, err := Open(path, logging.NewNopLogger())
	require.NoError(t, err)
	rows, err := tbl.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, writers*perWriter)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(raw), "n_mo"))
}

func TestTable_CancelledContext(t *testing.T) {
	tbl, err := Open(filepath.Join(t.TempDir(), "t.csv"), logging.NewNopLogger())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, tbl.Append(ctx, sampleRow(t, "Rb")), context.Canceled)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("", logging.NewNopLogger())
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}
