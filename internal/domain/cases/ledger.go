package cases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"treatment-cases/internal/ports/clinics"
)

type QuoteInput struct {
	ClinicID          string `validate:"required"`
	QuotedPrice       int64  `validate:"gt=0"`
	TreatmentIncludes string `validate:"max=2000"`
	EstimatedDuration string `validate:"max=200"`
	Notes             string `validate:"max=2000"`
}

// AddQuote agrega (o reemplaza) la cotización de un hospital en el ledger del caso.
// Con al menos una cotización, un caso en submitted/reviewing pasa a hospital_matched.
func (s *Service) AddQuote(ctx context.Context, caseID string, in QuoteInput) (Case, error) {
	in.ClinicID = strings.TrimSpace(in.ClinicID)
	in.TreatmentIncludes = strings.TrimSpace(in.TreatmentIncludes)
	in.EstimatedDuration = strings.TrimSpace(in.EstimatedDuration)
	in.Notes = strings.TrimSpace(in.Notes)

	if err := s.validateStruct(in); err != nil {
		return Case{}, err
	}

	// estado antes que la clínica: un caso cerrado responde InvalidState sin tocar el directorio
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return Case{}, ErrInvalidInput
	}
	current, err := s.repo.GetByID(ctx, caseID)
	if err != nil {
		return Case{}, err
	}
	if !current.Status.AcceptsQuotes() {
		return Case{}, fmt.Errorf("%w: case in %s does not accept quotes", ErrInvalidState, current.Status)
	}

	snap, err := s.clinicSnapshot(ctx, in.ClinicID)
	if err != nil {
		return Case{}, err
	}

	return s.mutate(ctx, "add_quote", caseID, func(c *Case) error {
		if !c.Status.AcceptsQuotes() {
			return fmt.Errorf("%w: case in %s does not accept quotes", ErrInvalidState, c.Status)
		}

		now := s.now()
		q := HospitalQuote{
			ClinicID:          in.ClinicID,
			ClinicName:        snap.Name,
			City:              snap.City,
			QuotedPrice:       in.QuotedPrice,
			TreatmentIncludes: in.TreatmentIncludes,
			EstimatedDuration: in.EstimatedDuration,
			Notes:             in.Notes,
			ApprovedAt:        now,
		}

		// upsert: misma clínica reemplaza en su lugar, no duplica
		if i := c.QuoteIndex(in.ClinicID); i >= 0 {
			c.ApprovedHospitals[i] = q
		} else {
			c.ApprovedHospitals = append(c.ApprovedHospitals, q)
		}

		if c.Status == StatusSubmitted || c.Status == StatusReviewing {
			appendTransition(c, StatusHospitalMatched, msgHospitalMatched, now)
		}
		return nil
	})
}

// RemoveQuote saca una cotización del ledger. La clínica elegida por el paciente no se puede sacar.
// Si el ledger queda vacío en hospital_matched, el caso vuelve a reviewing.
func (s *Service) RemoveQuote(ctx context.Context, caseID, clinicID string) (Case, error) {
	clinicID = strings.TrimSpace(clinicID)
	if clinicID == "" {
		return Case{}, fmt.Errorf("%w: clinic_id required", ErrInvalidInput)
	}

	return s.mutate(ctx, "remove_quote", caseID, func(c *Case) error {
		if c.Status.Terminal() {
			return fmt.Errorf("%w: case is %s", ErrInvalidState, c.Status)
		}
		if c.MatchedClinicID != "" && c.MatchedClinicID == clinicID {
			return fmt.Errorf("%w: clinic %s was selected by the patient", ErrInvalidState, clinicID)
		}

		i := c.QuoteIndex(clinicID)
		if i < 0 {
			return fmt.Errorf("%w: quote for clinic %s", ErrNotFound, clinicID)
		}
		c.ApprovedHospitals = append(c.ApprovedHospitals[:i], c.ApprovedHospitals[i+1:]...)

		if len(c.ApprovedHospitals) == 0 && c.Status == StatusHospitalMatched {
			appendTransition(c, StatusReviewing, msgQuotesWithdrawn, s.now())
		}
		return nil
	})
}

func (s *Service) clinicSnapshot(ctx context.Context, clinicID string) (clinics.Snapshot, error) {
	if s.clinics == nil {
		return clinics.Snapshot{}, errors.New("clinic lookup not configured")
	}

	snap, err := s.clinics.Snapshot(ctx, clinicID)
	if err != nil {
		if errors.Is(err, clinics.ErrClinicNotFound) {
			return clinics.Snapshot{}, fmt.Errorf("%w: clinic %s", ErrNotFound, clinicID)
		}
		return clinics.Snapshot{}, fmt.Errorf("clinic lookup: %w", err)
	}
	return snap, nil
}
