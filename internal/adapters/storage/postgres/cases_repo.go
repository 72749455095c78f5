package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"treatment-cases/internal/adapters/storage/casedoc"
	"treatment-cases/internal/domain/cases"
)

type CasesRepo struct {
	db *sql.DB
}

func NewCasesRepo(db *sql.DB) *CasesRepo {
	return &CasesRepo{db: db}
}

const caseColumns = `
	id, patient_id,
	condition, condition_details,
	budget_min, budget_max,
	status, matched_clinic_id,
	approved_hospitals, status_history,
	admin_notes,
	created_at, updated_at,
	version
`

func (r *CasesRepo) Create(ctx context.Context, c cases.Case) error {
	quotes, err := casedoc.EncodeQuotes(c.ApprovedHospitals)
	if err != nil {
		return err
	}
	history, err := casedoc.EncodeHistory(c.StatusHistory)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO treatment_cases (`+caseColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9::jsonb,$10::jsonb,$11,$12,$13,0)
	`,
		c.ID,
		c.PatientID,
		c.Condition,
		c.ConditionDetails,
		toNullInt64(c.BudgetMin),
		toNullInt64(c.BudgetMax),
		string(c.Status),
		c.MatchedClinicID,
		quotes,
		history,
		c.AdminNotes,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

// Update es condicional a la versión leída. 0 filas => no existe o alguien guardó antes.
func (r *CasesRepo) Update(ctx context.Context, c cases.Case) error {
	quotes, err := casedoc.EncodeQuotes(c.ApprovedHospitals)
	if err != nil {
		return err
	}
	history, err := casedoc.EncodeHistory(c.StatusHistory)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE treatment_cases
		SET
			condition = $3,
			condition_details = $4,
			budget_min = $5,
			budget_max = $6,
			status = $7,
			matched_clinic_id = $8,
			approved_hospitals = $9::jsonb,
			status_history = $10::jsonb,
			admin_notes = $11,
			updated_at = $12,
			version = version + 1
		WHERE id = $1 AND version = $2
	`,
		c.ID,
		c.Version,
		c.Condition,
		c.ConditionDetails,
		toNullInt64(c.BudgetMin),
		toNullInt64(c.BudgetMax),
		string(c.Status),
		c.MatchedClinicID,
		quotes,
		history,
		c.AdminNotes,
		c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update case rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM treatment_cases WHERE id = $1)`, c.ID,
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return cases.ErrNotFound
	}
	return cases.ErrConflict
}

func (r *CasesRepo) GetByID(ctx context.Context, id string) (cases.Case, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return cases.Case{}, cases.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+caseColumns+`
		FROM treatment_cases
		WHERE id = $1
	`, id)

	c, err := scanCase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return cases.Case{}, cases.ErrNotFound
		}
		return cases.Case{}, err
	}
	return c, nil
}

func (r *CasesRepo) ListByPatient(ctx context.Context, patientID string) ([]cases.Case, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+caseColumns+`
		FROM treatment_cases
		WHERE patient_id = $1
		ORDER BY created_at ASC, id ASC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]cases.Case, 0)
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCase(s scanner) (cases.Case, error) {
	var (
		c          cases.Case
		status     string
		budgetMin  sql.NullInt64
		budgetMax  sql.NullInt64
		quotesRaw  []byte
		historyRaw []byte
	)
	if err := s.Scan(
		&c.ID,
		&c.PatientID,
		&c.Condition,
		&c.ConditionDetails,
		&budgetMin,
		&budgetMax,
		&status,
		&c.MatchedClinicID,
		&quotesRaw,
		&historyRaw,
		&c.AdminNotes,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.Version,
	); err != nil {
		return cases.Case{}, err
	}

	c.Status = cases.Status(status)
	c.BudgetMin = fromNullInt64(budgetMin)
	c.BudgetMax = fromNullInt64(budgetMax)

	var err error
	if c.ApprovedHospitals, err = casedoc.DecodeQuotes(quotesRaw); err != nil {
		return cases.Case{}, err
	}
	if c.StatusHistory, err = casedoc.DecodeHistory(historyRaw); err != nil {
		return cases.Case{}, err
	}
	return c, nil
}

func toNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func fromNullInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
