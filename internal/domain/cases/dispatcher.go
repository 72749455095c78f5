package cases

import (
	"context"
	"sync"
	"time"

	"treatment-cases/internal/platform/logger"
	"treatment-cases/internal/platform/metrics"
	"treatment-cases/internal/ports/notify"
)

const DefaultNotifyTimeout = 10 * time.Second

// Dispatcher manda notificaciones fuera de banda.
// El estado del caso ya quedó guardado cuando se llama a Dispatch; una falla de envío
// solo se loguea y nunca vuelve al caller.
type Dispatcher struct {
	sender  notify.Sender
	log     logger.Logger
	timeout time.Duration

	wg sync.WaitGroup
}

func NewDispatcher(sender notify.Sender, log logger.Logger, timeout time.Duration) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	if timeout <= 0 {
		timeout = DefaultNotifyTimeout
	}
	return &Dispatcher{
		sender:  sender,
		log:     log,
		timeout: timeout,
	}
}

func (d *Dispatcher) Dispatch(n notify.Notification) {
	if d == nil || d.sender == nil {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		fields := map[string]any{
			"case_id": n.CaseID,
			"status":  n.Status,
		}

		defer func() {
			if r := recover(); r != nil {
				metrics.ObserveNotification("failed")
				d.log.Error("notification sender panicked", map[string]any{
					"case_id": n.CaseID,
					"status":  n.Status,
					"panic":   r,
				})
			}
		}()

		// contexto propio: el request que originó el cambio ya pudo haber terminado
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.sender.Notify(ctx, n); err != nil {
			metrics.ObserveNotification("failed")
			fields["error"] = err
			d.log.Warn("case notification failed", fields)
			return
		}

		metrics.ObserveNotification("sent")
		d.log.Debug("case notification sent", fields)
	}()
}

// Wait bloquea hasta que terminen los envíos en curso (shutdown y tests).
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
