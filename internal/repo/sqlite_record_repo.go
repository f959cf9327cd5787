package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	dom "Vault/internal/domain"
	"Vault/internal/utils"
)

// SQLiteRecordRepo keeps each record as JSON text in the records table.
type SQLiteRecordRepo struct {
	db *sql.DB
}

func NewSQLiteRecordRepo(db *sql.DB) *SQLiteRecordRepo {
	return &SQLiteRecordRepo{db: db}
}

func (r *SQLiteRecordRepo) Find(ctx context.Context, f Filter) ([]dom.Record, error) {
	if f.ID != nil {
		rows, err := r.db.QueryContext(ctx, `SELECT doc FROM records WHERE json_extract(doc, '$.id') = ?`, *f.ID)
		if err != nil {
			return nil, fmt.Errorf("find records: %w", err)
		}
		return collectSQL(rows)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT doc FROM records`)
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}
	all, err := collectSQL(rows)
	if err != nil || f.NameContains == nil {
		return all, err
	}

	// SQLite's lower() only folds ASCII, so names are matched here.
	needle := strings.ToLower(*f.NameContains)
	matched := []dom.Record{}
	for _, rec := range all {
		if strings.Contains(strings.ToLower(rec.Name), needle) {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}

func (r *SQLiteRecordRepo) FindOne(ctx context.Context, id string) (dom.Record, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT doc FROM records WHERE json_extract(doc, '$.id') = ? LIMIT 1`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dom.Record{}, ErrNotFound
		}
		return dom.Record{}, fmt.Errorf("find record %s: %w", id, err)
	}
	return decodeDoc(raw)
}

func (r *SQLiteRecordRepo) InsertOne(ctx context.Context, rec dom.Record) error {
	doc, err := encodeDoc(rec)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `INSERT INTO records (doc) VALUES (?)`, doc); err != nil {
		if utils.IsSQLiteUniqueViolation(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("insert record %s: %w", rec.ID, err)
	}
	return nil
}

func (r *SQLiteRecordRepo) FindOneAndUpdateName(ctx context.Context, id, name string) (dom.Record, error) {
	query := `
		UPDATE records SET doc = json_set(doc, '$.name', ?)
		WHERE json_extract(doc, '$.id') = ?
		RETURNING doc`
	var raw string
	if err := r.db.QueryRowContext(ctx, query, name, id).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dom.Record{}, ErrNotFound
		}
		return dom.Record{}, fmt.Errorf("update record %s: %w", id, err)
	}
	return decodeDoc(raw)
}

func (r *SQLiteRecordRepo) DeleteOne(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM records WHERE seq = (SELECT seq FROM records WHERE json_extract(doc, '$.id') = ? LIMIT 1)`, id)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRecordRepo) FindSorted(ctx context.Context, key string, desc bool) ([]dom.Record, error) {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	// ->> with a plain text operand looks up an object key by label.
	query := fmt.Sprintf(`SELECT doc FROM records ORDER BY doc ->> ? %s, seq ASC`, dir)
	rows, err := r.db.QueryContext(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("sort records by %q: %w", key, err)
	}
	return collectSQL(rows)
}

func collectSQL(rows *sql.Rows) ([]dom.Record, error) {
	defer rows.Close()
	list := []dom.Record{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		rec, err := decodeDoc(raw)
		if err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}
