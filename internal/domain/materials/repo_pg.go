package materials

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

func uniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type materialRepoPG struct{ pool *pgxpool.Pool }

func NewMaterialRepoPG(pool *pgxpool.Pool) MaterialRepository { return &materialRepoPG{pool: pool} }

const materialCols = `id, title, description, url, content, created_by_id, created_at, updated_at`

func scanMaterial(row pgx.Row) (*Material, error) {
	var m Material
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.URL, &m.Content,
		&m.CreatedByID, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *materialRepoPG) Create(ctx context.Context, m *Material) error {
	m.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO reading_materials (id, title, description, url, content, created_by_id)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		m.ID, m.Title, m.Description, m.URL, m.Content, m.CreatedByID,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
}

func (r *materialRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Material, error) {
	return scanMaterial(r.pool.QueryRow(ctx,
		`SELECT `+materialCols+` FROM reading_materials WHERE id = $1`, id))
}

func (r *materialRepoPG) Update(ctx context.Context, m *Material) error {
	return r.pool.QueryRow(ctx, `
		UPDATE reading_materials
		SET title = $2, description = $3, url = $4, content = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		m.ID, m.Title, m.Description, m.URL, m.Content,
	).Scan(&m.UpdatedAt)
}

func (r *materialRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reading_materials WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *materialRepoPG) List(ctx context.Context, limit, offset int) ([]*Material, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reading_materials`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+materialCols+` FROM reading_materials ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}

type assignmentRepoPG struct{ pool *pgxpool.Pool }

func NewAssignmentRepoPG(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepoPG{pool: pool}
}

const assignmentCols = `a.id, a.material_id, a.patient_id, a.assigned_by_id, a.status, a.read_at, a.assigned_at`

func scanAssignment(row pgx.Row) (*Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.MaterialID, &a.PatientID, &a.AssignedByID,
		&a.Status, &a.ReadAt, &a.AssignedAt)
	return &a, err
}

func (r *assignmentRepoPG) Create(ctx context.Context, a *Assignment) error {
	a.ID = uuid.New()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO material_assignments (id, material_id, patient_id, assigned_by_id, status)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING assigned_at`,
		a.ID, a.MaterialID, a.PatientID, a.AssignedByID, a.Status,
	).Scan(&a.AssignedAt)
	if uniqueViolation(err) {
		return ErrAlreadyAssigned
	}
	return err
}

func (r *assignmentRepoPG) GetByIDForPatient(ctx context.Context, id, patientID uuid.UUID) (*Assignment, error) {
	return scanAssignment(r.pool.QueryRow(ctx,
		`SELECT `+assignmentCols+` FROM material_assignments a
		 WHERE a.id = $1 AND a.patient_id = $2`, id, patientID))
}

func (r *assignmentRepoPG) MarkRead(ctx context.Context, id, patientID uuid.UUID) (*Assignment, error) {
	return scanAssignment(r.pool.QueryRow(ctx, `
		UPDATE material_assignments a
		SET status = $3, read_at = COALESCE(a.read_at, now())
		WHERE a.id = $1 AND a.patient_id = $2
		RETURNING `+assignmentCols, id, patientID, AssignmentRead))
}

func (r *assignmentRepoPG) ListForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Assignment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM material_assignments WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+assignmentCols+`,
		       m.id, m.title, m.description, m.url, m.content, m.created_by_id, m.created_at, m.updated_at
		FROM material_assignments a
		JOIN reading_materials m ON m.id = a.material_id
		WHERE a.patient_id = $1
		ORDER BY a.assigned_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Assignment
	for rows.Next() {
		var a Assignment
		var m Material
		if err := rows.Scan(
			&a.ID, &a.MaterialID, &a.PatientID, &a.AssignedByID, &a.Status, &a.ReadAt, &a.AssignedAt,
			&m.ID, &m.Title, &m.Description, &m.URL, &m.Content, &m.CreatedByID, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		a.Material = &m
		items = append(items, &a)
	}
	return items, total, rows.Err()
}
