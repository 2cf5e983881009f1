package db

import (
	"context"
	"database/sql"

	_ "embed"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const deleteSnapshot = `
DELETE FROM snapshots WHERE subject = ? AND date = ?
`

type DeleteSnapshotParams struct {
	Subject string
	Date    string
}

func (q *Queries) DeleteSnapshot(ctx context.Context, arg DeleteSnapshotParams) error {
	_, err := q.db.ExecContext(ctx, deleteSnapshot, arg.Subject, arg.Date)
	return err
}

const createSnapshot = `
INSERT INTO snapshots (subject, date) VALUES (?, ?)
`

type CreateSnapshotParams struct {
	Subject string
	Date    string
}

func (q *Queries) CreateSnapshot(ctx context.Context, arg CreateSnapshotParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createSnapshot, arg.Subject, arg.Date)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getSnapshotId = `
SELECT id FROM snapshots WHERE subject = ? AND date = ?
`

type GetSnapshotIdParams struct {
	Subject string
	Date    string
}

func (q *Queries) GetSnapshotId(ctx context.Context, arg GetSnapshotIdParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, getSnapshotId, arg.Subject, arg.Date).Scan(&id)
	return id, err
}

const createSnapshotTable = `
INSERT INTO snapshot_tables (snapshot_id, kind, holder, position, columns, records)
VALUES (?, ?, ?, ?, ?, ?)
`

type CreateSnapshotTableParams struct {
	SnapshotID int64
	Kind       string
	Holder     string
	Position   int64
	Columns    string
	Records    string
}

func (q *Queries) CreateSnapshotTable(ctx context.Context, arg CreateSnapshotTableParams) error {
	_, err := q.db.ExecContext(
		ctx, createSnapshotTable,
		arg.SnapshotID, arg.Kind, arg.Holder, arg.Position, arg.Columns, arg.Records,
	)
	return err
}

const getSnapshotTables = `
SELECT kind, holder, position, columns, records
FROM snapshot_tables
WHERE snapshot_id = ?
ORDER BY position
`

type GetSnapshotTablesRow struct {
	Kind     string
	Holder   string
	Position int64
	Columns  string
	Records  string
}

func (q *Queries) GetSnapshotTables(ctx context.Context, snapshotID int64) ([]GetSnapshotTablesRow, error) {
	rows, err := q.db.QueryContext(ctx, getSnapshotTables, snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []GetSnapshotTablesRow
	for rows.Next() {
		var i GetSnapshotTablesRow
		err := rows.Scan(&i.Kind, &i.Holder, &i.Position, &i.Columns, &i.Records)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getLatestDate = `
SELECT date FROM snapshots WHERE subject = ? AND date < ? ORDER BY date DESC LIMIT 1
`

type GetLatestDateParams struct {
	Subject string
	Before  string
}

func (q *Queries) GetLatestDate(ctx context.Context, arg GetLatestDateParams) (string, error) {
	var date string
	err := q.db.QueryRowContext(ctx, getLatestDate, arg.Subject, arg.Before).Scan(&date)
	return date, err
}
