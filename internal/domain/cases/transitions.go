package cases

import (
	"context"
	"fmt"
	"strings"
)

// Advance es el comando del operador para mover el caso al siguiente estado.
// Solo se permite el sucesor inmediato o la cancelación desde submitted/reviewing/hospital_matched.
func (s *Service) Advance(ctx context.Context, caseID string, target Status, message string) (Case, error) {
	if !target.Valid() {
		return Case{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, target)
	}
	message = strings.TrimSpace(message)

	return s.mutate(ctx, "advance", caseID, func(c *Case) error {
		if !CanTransition(c.Status, target) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.Status, target)
		}

		switch target {
		case StatusHospitalMatched:
			// hospital_matched implica ledger no vacío; el mensaje siempre es el automático
			if len(c.ApprovedHospitals) == 0 {
				return fmt.Errorf("%w: no hospital quotes on case", ErrInvalidState)
			}
			message = msgHospitalMatched
		case StatusHospitalAccepted:
			// solo la selección del paciente escribe MatchedClinicID
			return fmt.Errorf("%w: %s requires patient selection", ErrInvalidState, target)
		case StatusCancelled:
			c.MatchedClinicID = ""
		}

		if requiresMessage(target) && message == "" {
			return fmt.Errorf("%w: message required for %s", ErrInvalidInput, target)
		}

		appendTransition(c, target, message, s.now())
		return nil
	})
}
