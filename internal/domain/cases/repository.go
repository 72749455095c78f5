package cases

import "context"

// Repository es el Case Store. Update es condicional a c.Version (concurrencia optimista):
// si otro writer guardó antes, devuelve ErrConflict y el caller recarga y reintenta.
type Repository interface {
	Create(ctx context.Context, c Case) error
	GetByID(ctx context.Context, id string) (Case, error)
	Update(ctx context.Context, c Case) error
	ListByPatient(ctx context.Context, patientID string) ([]Case, error)
}
