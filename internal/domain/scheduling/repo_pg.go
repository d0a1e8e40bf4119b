package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

const appointmentCols = `id, patient_id, therapist_id, start_time, status, notes, created_by_id, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.TherapistID, &a.StartTime, &a.Status,
		&a.Notes, &a.CreatedByID, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

// slotTaken reports whether err is the partial unique index on
// (therapist_id, start_time) rejecting a double booking.
func slotTaken(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, therapist_id, start_time, status, notes, created_by_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.TherapistID, a.StartTime, a.Status, a.Notes, a.CreatedByID,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if slotTaken(err) {
		return ErrSlotTaken
	}
	return err
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id))
}

func (r *appointmentRepoPG) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments
		 WHERE id = $1 AND (patient_id = $2 OR therapist_id = $2)`, id, userID))
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET start_time = $2, status = $3, notes = $4, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, a.StartTime, a.Status, a.Notes,
	).Scan(&a.UpdatedAt)
	if slotTaken(err) {
		return ErrSlotTaken
	}
	return err
}

func (r *appointmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *appointmentRepoPG) ListForTherapist(ctx context.Context, therapistID uuid.UUID, patientID *uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	where := `therapist_id = $1`
	args := []interface{}{therapistID}
	if patientID != nil {
		args = append(args, *patientID)
		where += fmt.Sprintf(` AND patient_id = $%d`, len(args))
	}
	return r.list(ctx, where, args, limit, offset)
}

func (r *appointmentRepoPG) ListForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, `patient_id = $1`, []interface{}{patientID}, limit, offset)
}

func (r *appointmentRepoPG) list(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE %s ORDER BY start_time ASC LIMIT $%d OFFSET $%d`,
		appointmentCols, where, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func blockingStatusList() string {
	parts := make([]string, len(BlockingStatuses))
	for i, s := range BlockingStatuses {
		parts[i] = `'` + string(s) + `'`
	}
	return strings.Join(parts, ",")
}

func (r *appointmentRepoPG) ListBlockingBetween(ctx context.Context, therapistID uuid.UUID, from, to time.Time, excludeID *uuid.UUID) ([]*Appointment, error) {
	query := `SELECT ` + appointmentCols + ` FROM appointments
		WHERE therapist_id = $1 AND start_time >= $2 AND start_time < $3
		  AND status IN (` + blockingStatusList() + `)`
	args := []interface{}{therapistID, from, to}
	if excludeID != nil {
		args = append(args, *excludeID)
		query += fmt.Sprintf(` AND id <> $%d`, len(args))
	}
	query += ` ORDER BY start_time ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *appointmentRepoPG) CountByStatusForTherapist(ctx context.Context, therapistID uuid.UUID, status Status) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE therapist_id = $1 AND status = $2`,
		therapistID, status).Scan(&n)
	return n, err
}

func (r *appointmentRepoPG) NextForPatient(ctx context.Context, patientID uuid.UUID, after time.Time) (*Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments
		 WHERE patient_id = $1 AND start_time >= $2
		   AND status IN (`+blockingStatusList()+`)
		 ORDER BY start_time ASC LIMIT 1`, patientID, after))
}
