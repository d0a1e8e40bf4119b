package diary

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type entryRepoPG struct{ pool *pgxpool.Pool }

func NewEntryRepoPG(pool *pgxpool.Pool) EntryRepository { return &entryRepoPG{pool: pool} }

const entryCols = `id, patient_id, entry_date, mood, title, content, shared, created_at, updated_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.PatientID, &e.EntryDate, &e.Mood, &e.Title, &e.Content,
		&e.Shared, &e.CreatedAt, &e.UpdatedAt)
	return &e, err
}

func (r *entryRepoPG) Create(ctx context.Context, e *Entry) error {
	e.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO diary_entries (id, patient_id, entry_date, mood, title, content, shared)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		e.ID, e.PatientID, e.EntryDate, e.Mood, e.Title, e.Content, e.Shared,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
}

func (r *entryRepoPG) GetByIDForPatient(ctx context.Context, id, patientID uuid.UUID) (*Entry, error) {
	return scanEntry(r.pool.QueryRow(ctx,
		`SELECT `+entryCols+` FROM diary_entries WHERE id = $1 AND patient_id = $2`, id, patientID))
}

func (r *entryRepoPG) Update(ctx context.Context, e *Entry) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE diary_entries
		SET entry_date = $3, mood = $4, title = $5, content = $6, shared = $7, updated_at = now()
		WHERE id = $1 AND patient_id = $2
		RETURNING updated_at`,
		e.ID, e.PatientID, e.EntryDate, e.Mood, e.Title, e.Content, e.Shared,
	).Scan(&e.UpdatedAt)
	return err
}

func (r *entryRepoPG) Delete(ctx context.Context, id, patientID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM diary_entries WHERE id = $1 AND patient_id = $2`, id, patientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *entryRepoPG) ListForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Entry, int, error) {
	return r.list(ctx, `patient_id = $1`, patientID, limit, offset)
}

func (r *entryRepoPG) ListSharedForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Entry, int, error) {
	return r.list(ctx, `patient_id = $1 AND shared`, patientID, limit, offset)
}

func (r *entryRepoPG) list(ctx context.Context, where string, patientID uuid.UUID, limit, offset int) ([]*Entry, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM diary_entries WHERE `+where, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+entryCols+` FROM diary_entries WHERE `+where+`
		 ORDER BY entry_date DESC, created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}
