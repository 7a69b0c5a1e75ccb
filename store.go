package eagerq

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

var createArchivedTasks = `create table if not exists archived_tasks (
		id TEXT not null primary key,
		kind TEXT not null,
		reason TEXT not null,
		record BLOB,
		archived_at TEXT not null default (strftime('%Y-%m-%dT%H:%M:%fZ'))
	) strict;`

type archivedRow struct {
	Id         string `db:"id"`
	Kind       string `db:"kind"`
	Reason     string `db:"reason"`
	Record     []byte `db:"record"`
	ArchivedAt string `db:"archived_at"`
}

// Archive is a SQLite-backed spill store for tasks evicted from a TaskQueue.
// DrainTo writes into it when a pool goes away with work still queued; an
// operator can then inspect the rows or hand them to Restore once a healthy
// pool is back.
type Archive struct {
	logger *slog.Logger
	db     *sqlx.DB
}

// NewArchive opens, creating it if needed, the archive database at dbPath. A
// nil logger falls back to a text logger on stdout.
func NewArchive(dbPath string, logger *slog.Logger) (*Archive, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}

	db, err := sqlx.Open("sqlite3", fmt.Sprintf("%s?cache=shared&mode=rwc&_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath))
	if err != nil {
		return nil, err
	}

	_, err = db.Exec("PRAGMA journal_size_limit = 67108864;")
	if err != nil {
		return nil, err
	}

	_, err = db.Exec("PRAGMA mmap_size = 134217728;")
	if err != nil {
		return nil, err
	}

	_, err = db.Exec("PRAGMA cache_size = 2000;")
	if err != nil {
		return nil, err
	}

	a := &Archive{db: db, logger: logger}

	ctx := context.Background()
	err = a.inTx(ctx, func(tx *sqlx.Tx) error {
		_, innerErr := tx.ExecContext(ctx, createArchivedTasks)
		return innerErr
	})

	return a, err
}

// Save persists one record.
func (a *Archive) Save(ctx context.Context, rec *Record) error {
	raw, err := rec.Marshal()
	if err != nil {
		return err
	}

	return a.inTx(ctx, func(tx *sqlx.Tx) error {
		writeQuery := `insert into archived_tasks (id, kind, reason, record, archived_at) values ($1, $2, $3, $4, $5)`
		_, innerErr := tx.ExecContext(ctx, writeQuery, rec.ID, rec.Kind, rec.Reason, raw, rec.ArchivedAt)
		if innerErr != nil {
			return innerErr
		}
		return nil
	})
}

// Get fetches one record by id. A missing id yields (nil, nil).
func (a *Archive) Get(ctx context.Context, id string) (rec *Record, err error) {
	getItemById := `select * from archived_tasks where id = $1`

	defer func() {
		if errors.Is(err, sql.ErrNoRows) {
			// we don't care about "sql: no rows in result set" errors
			err = nil
		}
	}()

	err = a.inTx(ctx, func(tx *sqlx.Tx) error {
		row := tx.QueryRowxContext(ctx, getItemById, id)
		if row.Err() != nil {
			return row.Err()
		}

		var rowValue archivedRow
		if rowScanErr := row.StructScan(&rowValue); rowScanErr != nil {
			return rowScanErr
		}

		decoded, decodeErr := unmarshalRecord(rowValue.Record)
		if decodeErr != nil {
			return decodeErr
		}

		rec = decoded
		return nil
	})

	return rec, err
}

// List returns every archived record, oldest first. ULIDs sort by creation
// time, so ordering by id is ordering by archival order.
func (a *Archive) List(ctx context.Context) (records []Record, err error) {
	getRecords := `select * from archived_tasks order by id asc;`

	err = a.inTx(ctx, func(tx *sqlx.Tx) error {
		rows, rowsErr := tx.QueryxContext(ctx, getRecords)
		if rowsErr != nil {
			return rowsErr
		}
		defer rows.Close()

		for rows.Next() {
			var rowValue archivedRow
			if rowScanErr := rows.StructScan(&rowValue); rowScanErr != nil {
				return rowScanErr
			}

			decoded, decodeErr := unmarshalRecord(rowValue.Record)
			if decodeErr != nil {
				return decodeErr
			}
			records = append(records, *decoded)
		}

		return rows.Err()
	})

	return records, err
}

// Delete removes one record from the archive.
func (a *Archive) Delete(ctx context.Context, id string) error {
	return a.inTx(ctx, func(tx *sqlx.Tx) error {
		_, innerErr := tx.ExecContext(ctx, `delete from archived_tasks where id = $1`, id)
		return innerErr
	})
}

// Purge drops every archived record and reports how many went.
func (a *Archive) Purge(ctx context.Context) (purged int64, err error) {
	err = a.inTx(ctx, func(tx *sqlx.Tx) error {
		res, innerErr := tx.ExecContext(ctx, `delete from archived_tasks`)
		if innerErr != nil {
			return innerErr
		}

		purged, innerErr = res.RowsAffected()
		return innerErr
	})
	if err != nil {
		return 0, err
	}

	a.logger.Info("purged archived tasks", "count", purged)
	return purged, nil
}

// Restore walks the archive oldest first and re-queues each record as a Job
// through the forced single-attempt path, so restores obey pool health but
// not the grow-first admission rule. Rebuilt jobs run the handler mux
// registers for their kind; records with no registered handler are skipped
// and left archived. Each successfully queued record is deleted.
//
// Restore returns the number of records queued. It stops without error when
// the queue fills up, leaving the remainder for a later pass.
func (a *Archive) Restore(ctx context.Context, q *TaskQueue, mux *Mux) (int, error) {
	records, err := a.List(ctx)
	if err != nil {
		return 0, err
	}

	restored := 0
	for i := range records {
		rec := records[i]

		h, ok := mux.lookup(rec.Kind)
		if !ok {
			a.logger.Warn("no handler for archived task", "id", rec.ID, "kind", rec.Kind)
			continue
		}

		job := NewJob(rec.Kind, rec.Payload, func() error {
			return h.ProcessRecord(context.Background(), &rec)
		}).WithTaskID(rec.ID)

		queued, forceErr := q.TryForceEnqueue(job)
		if forceErr != nil {
			return restored, forceErr
		}
		if !queued {
			// Queue full; the rest stays archived for a later pass.
			return restored, nil
		}

		if deleteErr := a.Delete(ctx, rec.ID); deleteErr != nil {
			return restored, deleteErr
		}
		restored++
	}

	a.logger.Info("restored archived tasks", "count", restored)
	return restored, nil
}

// Close releases the underlying database handle.
func (a *Archive) Close() error {
	return a.db.Close()
}

func (a *Archive) inTx(ctx context.Context, cb func(*sqlx.Tx) error) (err error) {
	tx, beginErr := a.db.BeginTxx(ctx, nil)
	if beginErr != nil {
		return fmt.Errorf("cannot start tx: %w", beginErr)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = rollback(tx, nil)
			panic(rec)
		}
	}()

	if err = cb(tx); err != nil {
		return rollback(tx, err)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("cannot commit tx: %w", commitErr)
	}

	return nil
}

func rollback(tx *sqlx.Tx, err error) error {
	if rollbackErr := tx.Rollback(); rollbackErr != nil {
		return fmt.Errorf("cannot roll back tx after error (tx error: %v), original error: %w", rollbackErr, err)
	}
	return err
}
