// Package logsender es el backend de notificaciones para dev: solo loguea.
package logsender

import (
	"context"

	"treatment-cases/internal/platform/logger"
	"treatment-cases/internal/ports/notify"
)

type Sender struct {
	log logger.Logger
}

func New(log logger.Logger) *Sender {
	if log == nil {
		log = logger.Nop()
	}
	return &Sender{log: log}
}

func (s *Sender) Notify(_ context.Context, n notify.Notification) error {
	s.log.Info("patient notification", map[string]any{
		"case_id":     n.CaseID,
		"patient_id":  n.PatientID,
		"status":      n.Status,
		"message":     n.Message,
		"occurred_at": n.OccurredAt,
	})
	return nil
}
