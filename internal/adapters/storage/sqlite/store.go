package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"treatment-cases/internal/adapters/storage/casedoc"
	"treatment-cases/internal/domain/cases"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS treatment_cases (
	id                 TEXT PRIMARY KEY,
	patient_id         TEXT NOT NULL,
	condition          TEXT NOT NULL,
	condition_details  TEXT NOT NULL DEFAULT '',
	budget_min         INTEGER NULL,
	budget_max         INTEGER NULL,
	status             TEXT NOT NULL,
	matched_clinic_id  TEXT NOT NULL DEFAULT '',
	approved_hospitals TEXT NOT NULL DEFAULT '[]',
	status_history     TEXT NOT NULL DEFAULT '[]',
	admin_notes        TEXT NOT NULL DEFAULT '',
	created_at         TEXT NOT NULL,
	updated_at         TEXT NOT NULL,
	version            INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS treatment_cases_patient_idx ON treatment_cases (patient_id, created_at);
`

// CasesRepo guarda cada caso como una fila; ledger e historial van como JSON.
type CasesRepo struct {
	db *sql.DB
}

// Open abre (o crea) la base en path y aplica el schema.
func Open(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		path = "treatment-cases.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// un solo writer: sqlite serializa escrituras igual, así evitamos SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := Migrate(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create treatment_cases: %w", err)
	}
	return nil
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
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,0)
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
		formatTime(c.CreatedAt),
		formatTime(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

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
			condition = ?,
			condition_details = ?,
			budget_min = ?,
			budget_max = ?,
			status = ?,
			matched_clinic_id = ?,
			approved_hospitals = ?,
			status_history = ?,
			admin_notes = ?,
			updated_at = ?,
			version = version + 1
		WHERE id = ? AND version = ?
	`,
		c.Condition,
		c.ConditionDetails,
		toNullInt64(c.BudgetMin),
		toNullInt64(c.BudgetMax),
		string(c.Status),
		c.MatchedClinicID,
		quotes,
		history,
		c.AdminNotes,
		formatTime(c.UpdatedAt),
		c.ID,
		c.Version,
	)
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update case rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM treatment_cases WHERE id = ?`, c.ID).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return cases.ErrNotFound
	}
	return cases.ErrConflict
}

func (r *CasesRepo) GetByID(ctx context.Context, id string) (cases.Case, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return cases.Case{}, cases.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM treatment_cases WHERE id = ?`, id)
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
		WHERE patient_id = ?
		ORDER BY created_at ASC, id ASC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

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
		quotesRaw  string
		historyRaw string
		createdAt  string
		updatedAt  string
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
		&createdAt,
		&updatedAt,
		&c.Version,
	); err != nil {
		return cases.Case{}, err
	}

	var err error
	c.Status = cases.Status(status)
	if budgetMin.Valid {
		v := budgetMin.Int64
		c.BudgetMin = &v
	}
	if budgetMax.Valid {
		v := budgetMax.Int64
		c.BudgetMax = &v
	}
	if c.ApprovedHospitals, err = casedoc.DecodeQuotes([]byte(quotesRaw)); err != nil {
		return cases.Case{}, err
	}
	if c.StatusHistory, err = casedoc.DecodeHistory([]byte(historyRaw)); err != nil {
		return cases.Case{}, err
	}
	if c.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return cases.Case{}, fmt.Errorf("parse created_at: %w", err)
	}
	if c.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return cases.Case{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return c, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func toNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
