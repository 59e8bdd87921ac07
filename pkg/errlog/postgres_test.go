package errlog

import (
	"fmt"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestPostgres(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	p := newPostgresWithDB(db, zaptest.NewLogger(t))
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
	})
	return p, mock
}

func TestPostgres_AppendInsertsAndTrims(t *testing.T) {
	t.Parallel()

	p, mock := newTestPostgres(t)

	entry := NewEntry("fetch-quote", 4, "connection refused")

	mock.ExpectExec("INSERT INTO error_log").
		WithArgs(entry.ID, entry.Operation, entry.Attempts, entry.Message, entry.Timestamp).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM error_log").
		WithArgs(MaxEntries).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, p.Append(entry))
}

func TestPostgres_AppendInsertFailure(t *testing.T) {
	t.Parallel()

	p, mock := newTestPostgres(t)

	entry := NewEntry("fetch-quote", 1, "boom")

	mock.ExpectExec("INSERT INTO error_log").
		WillReturnError(fmt.Errorf("table missing"))

	err := p.Append(entry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert entry")
}

func TestPostgres_EntriesOrderedOldestFirst(t *testing.T) {
	t.Parallel()

	p, mock := newTestPostgres(t)

	older := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	rows := sqlmock.NewRows([]string{"id", "operation", "attempts", "message", "created_at"}).
		AddRow("id-1", "op-a", 2, "boom", older).
		AddRow("id-2", "op-b", 3, "down", newer)

	mock.ExpectQuery("SELECT id, operation, attempts, message, created_at").
		WillReturnRows(rows)

	entries, err := p.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "op-a", entries[0].Operation)
	assert.Equal(t, 3, entries[1].Attempts)
	assert.True(t, entries[0].Timestamp.Before(entries[1].Timestamp))
}

func TestPostgres_Clear(t *testing.T) {
	t.Parallel()

	p, mock := newTestPostgres(t)

	mock.ExpectExec("DELETE FROM error_log").
		WillReturnResult(sqlmock.NewResult(0, 12))

	require.NoError(t, p.Clear())
}

func TestPostgres_Close(t *testing.T) {
	t.Parallel()

	p, mock := newTestPostgres(t)

	mock.ExpectClose()

	require.NoError(t, p.Close())
}
