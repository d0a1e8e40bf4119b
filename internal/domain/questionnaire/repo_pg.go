package questionnaire

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

func uniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// -- questionnaires --

type questionnaireRepoPG struct{ pool *pgxpool.Pool }

func NewQuestionnaireRepoPG(pool *pgxpool.Pool) QuestionnaireRepository {
	return &questionnaireRepoPG{pool: pool}
}

const questionnaireCols = `id, title, description, items, status, created_by_id, created_at, updated_at`

func scanQuestionnaire(row pgx.Row) (*Questionnaire, error) {
	var q Questionnaire
	err := row.Scan(&q.ID, &q.Title, &q.Description, &q.Items, &q.Status,
		&q.CreatedByID, &q.CreatedAt, &q.UpdatedAt)
	return &q, err
}

func (r *questionnaireRepoPG) Create(ctx context.Context, q *Questionnaire) error {
	q.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO questionnaires (id, title, description, items, status, created_by_id)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		q.ID, q.Title, q.Description, q.Items, q.Status, q.CreatedByID,
	).Scan(&q.CreatedAt, &q.UpdatedAt)
}

func (r *questionnaireRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Questionnaire, error) {
	return scanQuestionnaire(r.pool.QueryRow(ctx,
		`SELECT `+questionnaireCols+` FROM questionnaires WHERE id = $1`, id))
}

func (r *questionnaireRepoPG) Update(ctx context.Context, q *Questionnaire) error {
	return r.pool.QueryRow(ctx, `
		UPDATE questionnaires
		SET title = $2, description = $3, items = $4, status = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		q.ID, q.Title, q.Description, q.Items, q.Status,
	).Scan(&q.UpdatedAt)
}

func (r *questionnaireRepoPG) List(ctx context.Context, status string, limit, offset int) ([]*Questionnaire, int, error) {
	where := `TRUE`
	args := []interface{}{}
	if status != "" {
		where = `status = $1`
		args = append(args, status)
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questionnaires WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM questionnaires WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		questionnaireCols, where, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Questionnaire
	for rows.Next() {
		q, err := scanQuestionnaire(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, q)
	}
	return items, total, rows.Err()
}

// -- assignments --

type assignmentRepoPG struct{ pool *pgxpool.Pool }

func NewAssignmentRepoPG(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepoPG{pool: pool}
}

const assignmentCols = `a.id, a.questionnaire_id, a.patient_id, a.assigned_by_id, a.status, a.assigned_at, a.completed_at`

func scanAssignment(row pgx.Row) (*Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.QuestionnaireID, &a.PatientID, &a.AssignedByID,
		&a.Status, &a.AssignedAt, &a.CompletedAt)
	return &a, err
}

func (r *assignmentRepoPG) Create(ctx context.Context, a *Assignment) error {
	a.ID = uuid.New()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO questionnaire_assignments (id, questionnaire_id, patient_id, assigned_by_id, status)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING assigned_at`,
		a.ID, a.QuestionnaireID, a.PatientID, a.AssignedByID, a.Status,
	).Scan(&a.AssignedAt)
	if uniqueViolation(err) {
		return ErrAlreadyAssigned
	}
	return err
}

func (r *assignmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Assignment, error) {
	return scanAssignment(r.pool.QueryRow(ctx,
		`SELECT `+assignmentCols+` FROM questionnaire_assignments a WHERE a.id = $1`, id))
}

func (r *assignmentRepoPG) GetByIDForPatient(ctx context.Context, id, patientID uuid.UUID) (*Assignment, error) {
	return scanAssignment(r.pool.QueryRow(ctx,
		`SELECT `+assignmentCols+` FROM questionnaire_assignments a
		 WHERE a.id = $1 AND a.patient_id = $2`, id, patientID))
}

func (r *assignmentRepoPG) Complete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE questionnaire_assignments
		SET status = $2, completed_at = now()
		WHERE id = $1`, id, AssignmentCompleted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *assignmentRepoPG) ListForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Assignment, int, error) {
	return r.list(ctx, `a.patient_id = $1`, patientID, limit, offset)
}

func (r *assignmentRepoPG) ListForQuestionnaire(ctx context.Context, questionnaireID uuid.UUID, limit, offset int) ([]*Assignment, int, error) {
	return r.list(ctx, `a.questionnaire_id = $1`, questionnaireID, limit, offset)
}

func (r *assignmentRepoPG) list(ctx context.Context, where string, arg interface{}, limit, offset int) ([]*Assignment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questionnaire_assignments a WHERE `+where, arg).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+assignmentCols+`,
		       q.id, q.title, q.description, q.items, q.status, q.created_by_id, q.created_at, q.updated_at
		FROM questionnaire_assignments a
		JOIN questionnaires q ON q.id = a.questionnaire_id
		WHERE `+where+`
		ORDER BY a.assigned_at DESC LIMIT $2 OFFSET $3`, arg, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Assignment
	for rows.Next() {
		var a Assignment
		var q Questionnaire
		if err := rows.Scan(
			&a.ID, &a.QuestionnaireID, &a.PatientID, &a.AssignedByID, &a.Status, &a.AssignedAt, &a.CompletedAt,
			&q.ID, &q.Title, &q.Description, &q.Items, &q.Status, &q.CreatedByID, &q.CreatedAt, &q.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		a.Questionnaire = &q
		items = append(items, &a)
	}
	return items, total, rows.Err()
}

func (r *assignmentRepoPG) CountOpenForPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questionnaire_assignments WHERE patient_id = $1 AND status = $2`,
		patientID, AssignmentAssigned).Scan(&n)
	return n, err
}

// -- responses --

type responseRepoPG struct{ pool *pgxpool.Pool }

func NewResponseRepoPG(pool *pgxpool.Pool) ResponseRepository {
	return &responseRepoPG{pool: pool}
}

func (r *responseRepoPG) Create(ctx context.Context, resp *Response) error {
	resp.ID = uuid.New()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO questionnaire_responses (id, assignment_id, answers)
		VALUES ($1,$2,$3)
		RETURNING submitted_at`,
		resp.ID, resp.AssignmentID, resp.Answers,
	).Scan(&resp.SubmittedAt)
	if uniqueViolation(err) {
		return ErrAlreadySubmitted
	}
	return err
}

func (r *responseRepoPG) GetByAssignment(ctx context.Context, assignmentID uuid.UUID) (*Response, error) {
	var resp Response
	err := r.pool.QueryRow(ctx, `
		SELECT id, assignment_id, answers, submitted_at
		FROM questionnaire_responses WHERE assignment_id = $1`, assignmentID,
	).Scan(&resp.ID, &resp.AssignmentID, &resp.Answers, &resp.SubmittedAt)
	return &resp, err
}
