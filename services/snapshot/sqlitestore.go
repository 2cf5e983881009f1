package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"hkexwatch/lib/table"
	"hkexwatch/lib/timezone"
	"hkexwatch/services/snapshot/db"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("services/snapshot")

const (
	tableKindMain    = "main"
	tableKindDetails = "details"
)

// SqliteStore persists snapshots in sqlite (or a libsql DSN),
// delete-then-insert per (subject, day) so a re-run of the same day
// replaces rather than duplicates.
type SqliteStore struct {
	db  *sql.DB
	qry *db.Queries
}

func NewSqliteStore(database *sql.DB) SqliteStore {
	return SqliteStore{
		db:  database,
		qry: db.New(database),
	}
}

func (s SqliteStore) Put(ctx context.Context, snap *Snapshot) error {
	ctx, span := tracer.Start(ctx, "Put")
	defer span.End()
	span.SetAttributes(
		attribute.String("subject", snap.Subject),
		attribute.String("date", snap.Date.String()),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	err = txqry.DeleteSnapshot(ctx, db.DeleteSnapshotParams{
		Subject: snap.Subject,
		Date:    snap.Date.String(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	snapshotId, err := txqry.CreateSnapshot(ctx, db.CreateSnapshotParams{
		Subject: snap.Subject,
		Date:    snap.Date.String(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	err = createTable(ctx, txqry, snapshotId, tableKindMain, "", 0, snap.Main)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	for i, d := range snap.Details {
		err = createTable(ctx, txqry, snapshotId, tableKindDetails, d.Holder, int64(i+1), d.Table)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func createTable(ctx context.Context, qry *db.Queries, snapshotId int64, kind, holder string, position int64, t table.Table) error {
	columns, err := json.Marshal(t.Columns)
	if err != nil {
		return err
	}
	records, err := json.Marshal(t.Records)
	if err != nil {
		return err
	}
	return qry.CreateSnapshotTable(ctx, db.CreateSnapshotTableParams{
		SnapshotID: snapshotId,
		Kind:       kind,
		Holder:     holder,
		Position:   position,
		Columns:    string(columns),
		Records:    string(records),
	})
}

func (s SqliteStore) Get(ctx context.Context, subject string, date timezone.Date) (*Snapshot, error) {
	ctx, span := tracer.Start(ctx, "Get")
	defer span.End()
	span.SetAttributes(
		attribute.String("subject", subject),
		attribute.String("date", date.String()),
	)

	snapshotId, err := s.qry.GetSnapshotId(ctx, db.GetSnapshotIdParams{
		Subject: subject,
		Date:    date.String(),
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	rows, err := s.qry.GetSnapshotTables(ctx, snapshotId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	snap := &Snapshot{Subject: subject, Date: date}
	for _, r := range rows {
		var t table.Table
		err = json.Unmarshal([]byte(r.Columns), &t.Columns)
		if err != nil {
			return nil, fmt.Errorf("corrupt columns for %s on %s: %w", subject, date, err)
		}
		err = json.Unmarshal([]byte(r.Records), &t.Records)
		if err != nil {
			return nil, fmt.Errorf("corrupt records for %s on %s: %w", subject, date, err)
		}

		switch r.Kind {
		case tableKindMain:
			snap.Main = t
		case tableKindDetails:
			snap.Details = append(snap.Details, HolderDetails{Holder: r.Holder, Table: t})
		default:
			return nil, fmt.Errorf("unknown snapshot table kind %q", r.Kind)
		}
	}
	return snap, nil
}

func (s SqliteStore) Latest(ctx context.Context, subject string, before timezone.Date) (*Snapshot, error) {
	dateStr, err := s.qry.GetLatestDate(ctx, db.GetLatestDateParams{
		Subject: subject,
		Before:  before.String(),
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	date, err := timezone.ParseDate(dateStr)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, subject, date)
}
