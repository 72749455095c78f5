package cases

import (
	"context"
	"fmt"
	"strings"
)

// SelectHospital es la acción del paciente: elige una cotización del ledger.
// Match y transición a hospital_accepted van en el mismo Update, así nunca queda
// un caso aceptado sin clínica.
func (s *Service) SelectHospital(ctx context.Context, caseID, patientID, clinicID string) (Case, error) {
	patientID = strings.TrimSpace(patientID)
	clinicID = strings.TrimSpace(clinicID)
	if patientID == "" || clinicID == "" {
		return Case{}, ErrInvalidInput
	}

	return s.mutate(ctx, "select_hospital", caseID, func(c *Case) error {
		if c.PatientID != patientID {
			return ErrForbidden
		}
		if c.Status != StatusHospitalMatched {
			return fmt.Errorf("%w: case is %s", ErrInvalidState, c.Status)
		}

		q, ok := c.Quote(clinicID)
		if !ok {
			return fmt.Errorf("%w: quote for clinic %s", ErrNotFound, clinicID)
		}

		c.MatchedClinicID = clinicID
		appendTransition(c, StatusHospitalAccepted, selectionMessage(q), s.now())
		return nil
	})
}

func selectionMessage(q HospitalQuote) string {
	name := q.ClinicName
	if name == "" {
		name = q.ClinicID
	}
	if q.City == "" {
		return fmt.Sprintf("Patient selected %s", name)
	}
	return fmt.Sprintf("Patient selected %s (%s)", name, q.City)
}
