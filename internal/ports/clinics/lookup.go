package clinics

import (
	"context"
	"errors"
)

var ErrClinicNotFound = errors.New("clinic not found")

// Snapshot son los datos del hospital que se desnormalizan en cada cotización.
type Snapshot struct {
	Name string
	City string
}

// Lookup resuelve el snapshot de un hospital al momento de agregar una cotización.
type Lookup interface {
	Snapshot(ctx context.Context, clinicID string) (Snapshot, error)
}
