package repo

import (
	"context"
	"errors"
	"fmt"

	dom "Vault/internal/domain"
	"Vault/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRecordRepo keeps each record as a JSONB document in the records table.
type PGRecordRepo struct {
	db *pgxpool.Pool
}

func NewPGRecordRepo(db *pgxpool.Pool) *PGRecordRepo {
	return &PGRecordRepo{db: db}
}

func (r *PGRecordRepo) Find(ctx context.Context, f Filter) ([]dom.Record, error) {
	query := `SELECT doc::text FROM records`
	var args []any
	switch {
	case f.ID != nil:
		query += ` WHERE doc->>'id' = $1`
		args = append(args, *f.ID)
	case f.NameContains != nil:
		query += ` WHERE strpos(lower(doc->>'name'), lower($1::text)) > 0`
		args = append(args, *f.NameContains)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}
	return collectPG(rows)
}

func (r *PGRecordRepo) FindOne(ctx context.Context, id string) (dom.Record, error) {
	var raw string
	err := r.db.QueryRow(ctx, `SELECT doc::text FROM records WHERE doc->>'id' = $1 LIMIT 1`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Record{}, ErrNotFound
		}
		return dom.Record{}, fmt.Errorf("find record %s: %w", id, err)
	}
	return decodeDoc(raw)
}

func (r *PGRecordRepo) InsertOne(ctx context.Context, rec dom.Record) error {
	doc, err := encodeDoc(rec)
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, `INSERT INTO records (doc) VALUES ($1::text::jsonb)`, doc); err != nil {
		if utils.IsPGUniqueViolation(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("insert record %s: %w", rec.ID, err)
	}
	return nil
}

func (r *PGRecordRepo) FindOneAndUpdateName(ctx context.Context, id, name string) (dom.Record, error) {
	query := `
		UPDATE records SET doc = jsonb_set(doc, '{name}', to_jsonb($2::text))
		WHERE doc->>'id' = $1
		RETURNING doc::text`
	var raw string
	if err := r.db.QueryRow(ctx, query, id, name).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Record{}, ErrNotFound
		}
		return dom.Record{}, fmt.Errorf("update record %s: %w", id, err)
	}
	return decodeDoc(raw)
}

func (r *PGRecordRepo) DeleteOne(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM records WHERE seq = (SELECT seq FROM records WHERE doc->>'id' = $1 LIMIT 1)`, id)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRecordRepo) FindSorted(ctx context.Context, key string, desc bool) ([]dom.Record, error) {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	query := fmt.Sprintf(`SELECT doc::text FROM records ORDER BY (doc->>($1::text)) COLLATE "C" %s, seq ASC`, dir)
	rows, err := r.db.Query(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("sort records by %q: %w", key, err)
	}
	return collectPG(rows)
}

func collectPG(rows pgx.Rows) ([]dom.Record, error) {
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
