package safetyplan

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type planRepoPG struct{ pool *pgxpool.Pool }

func NewPlanRepoPG(pool *pgxpool.Pool) PlanRepository { return &planRepoPG{pool: pool} }

const planCols = `id, patient_id, created_by_id, status, warning_signs, coping_strategies,
	social_distractions, people_to_contact, professionals_to_contact, emergency_contacts,
	means_restriction, reasons_for_living, created_at, updated_at`

func scanPlan(row pgx.Row) (*Plan, error) {
	var p Plan
	err := row.Scan(&p.ID, &p.PatientID, &p.CreatedByID, &p.Status,
		&p.WarningSigns, &p.CopingStrategies, &p.SocialDistractions, &p.PeopleToContact,
		&p.ProfessionalsToContact, &p.EmergencyContacts, &p.MeansRestriction, &p.ReasonsForLiving,
		&p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *planRepoPG) Create(ctx context.Context, p *Plan) error {
	p.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO safety_plans (id, patient_id, created_by_id, status, warning_signs,
			coping_strategies, social_distractions, people_to_contact, professionals_to_contact,
			emergency_contacts, means_restriction, reasons_for_living)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at, updated_at`,
		p.ID, p.PatientID, p.CreatedByID, p.Status, p.WarningSigns,
		p.CopingStrategies, p.SocialDistractions, p.PeopleToContact, p.ProfessionalsToContact,
		p.EmergencyContacts, p.MeansRestriction, p.ReasonsForLiving,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *planRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Plan, error) {
	return scanPlan(r.pool.QueryRow(ctx,
		`SELECT `+planCols+` FROM safety_plans WHERE id = $1`, id))
}

func (r *planRepoPG) Update(ctx context.Context, p *Plan) error {
	return r.pool.QueryRow(ctx, `
		UPDATE safety_plans
		SET status = $2, warning_signs = $3, coping_strategies = $4, social_distractions = $5,
			people_to_contact = $6, professionals_to_contact = $7, emergency_contacts = $8,
			means_restriction = $9, reasons_for_living = $10, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.Status, p.WarningSigns, p.CopingStrategies, p.SocialDistractions,
		p.PeopleToContact, p.ProfessionalsToContact, p.EmergencyContacts,
		p.MeansRestriction, p.ReasonsForLiving,
	).Scan(&p.UpdatedAt)
}

func (r *planRepoPG) GetActiveForPatient(ctx context.Context, patientID uuid.UUID) (*Plan, error) {
	return scanPlan(r.pool.QueryRow(ctx,
		`SELECT `+planCols+` FROM safety_plans
		 WHERE patient_id = $1 AND status = $2
		 ORDER BY updated_at DESC LIMIT 1`, patientID, StatusActive))
}

func (r *planRepoPG) ListForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Plan, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM safety_plans WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+planCols+` FROM safety_plans WHERE patient_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *planRepoPG) DeactivateForPatient(ctx context.Context, patientID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE safety_plans SET status = $2, updated_at = now()
		 WHERE patient_id = $1 AND status = $3`,
		patientID, StatusInactive, StatusActive)
	return err
}
