package notify

import (
	"context"
	"time"
)

// Notification es lo que el motor de casos manda en cada cambio de estado.
// Status va como string para no acoplar este port al dominio.
type Notification struct {
	CaseID     string
	PatientID  string
	Status     string
	Message    string
	OccurredAt time.Time
}

// Sender entrega notificaciones (email, push, webhook...). El mecanismo queda afuera del motor.
type Sender interface {
	Notify(ctx context.Context, n Notification) error
}
