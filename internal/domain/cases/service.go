package cases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"treatment-cases/internal/platform/logger"
	"treatment-cases/internal/platform/metrics"
	"treatment-cases/internal/ports/clinics"
	"treatment-cases/internal/ports/notify"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrConflict          = errors.New("conflict")
)

const (
	DefaultMaxRetries   = 5
	DefaultRetryBackoff = 10 * time.Millisecond
)

// Mensajes fijos de las transiciones automáticas.
const (
	msgSubmitted       = "Case submitted"
	msgHospitalMatched = "Hospital quotes ready for patient selection"
	msgQuotesWithdrawn = "All hospital quotes withdrawn; case returned to review"
)

type Options struct {
	Clinics  clinics.Lookup
	Notifier notify.Sender
	Logger   logger.Logger

	// MaxRetries acota los reintentos ante ErrConflict (0 => DefaultMaxRetries).
	MaxRetries   uint64
	RetryBackoff time.Duration

	NotifyTimeout time.Duration
}

type Service struct {
	repo       Repository
	clinics    clinics.Lookup
	dispatcher *Dispatcher
	log        logger.Logger
	validate   *validator.Validate

	now        func() time.Time
	maxRetries uint64
	backoff    time.Duration
}

func NewService(repo Repository, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}
	backoff := opts.RetryBackoff
	if backoff <= 0 {
		backoff = DefaultRetryBackoff
	}

	return &Service{
		repo:       repo,
		clinics:    opts.Clinics,
		dispatcher: NewDispatcher(opts.Notifier, log, opts.NotifyTimeout),
		log:        log,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		now:        time.Now,
		maxRetries: maxRetries,
		backoff:    backoff,
	}
}

// Wait espera las notificaciones pendientes.
func (s *Service) Wait() {
	s.dispatcher.Wait()
}

type CreateInput struct {
	PatientID        string `validate:"required"`
	Condition        string `validate:"required,max=500"`
	ConditionDetails string `validate:"max=5000"`
	BudgetMin        *int64 `validate:"omitempty,gte=0"`
	BudgetMax        *int64 `validate:"omitempty,gte=0"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Case, error) {
	in.PatientID = strings.TrimSpace(in.PatientID)
	in.Condition = strings.TrimSpace(in.Condition)
	in.ConditionDetails = strings.TrimSpace(in.ConditionDetails)

	if err := s.validateStruct(in); err != nil {
		return Case{}, err
	}
	if err := checkBudget(in.BudgetMin, in.BudgetMax); err != nil {
		return Case{}, err
	}

	now := s.now()
	c := Case{
		ID:               uuid.NewString(),
		PatientID:        in.PatientID,
		Condition:        in.Condition,
		ConditionDetails: in.ConditionDetails,
		BudgetMin:        in.BudgetMin,
		BudgetMax:        in.BudgetMax,
		Status:           StatusSubmitted,
		StatusHistory: []StatusEvent{
			{Status: StatusSubmitted, Message: msgSubmitted, Timestamp: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return Case{}, err
	}

	metrics.ObserveTransition("new", string(StatusSubmitted))
	s.notify(c, c.StatusHistory[0])
	return c, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Case, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Case{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]Case, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByPatient(ctx, patientID)
}

// DetailsInput usa punteros para PATCH real: nil = no tocar.
type DetailsInput struct {
	Condition        *string
	ConditionDetails *string
	BudgetMin        *int64
	BudgetMax        *int64
}

// UpdateDetails permite al paciente corregir su solicitud mientras nadie la tomó (submitted).
func (s *Service) UpdateDetails(ctx context.Context, caseID, patientID string, in DetailsInput) (Case, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return Case{}, ErrInvalidInput
	}

	return s.mutate(ctx, "update_details", caseID, func(c *Case) error {
		if c.PatientID != patientID {
			return ErrForbidden
		}
		if c.Status != StatusSubmitted {
			return fmt.Errorf("%w: details are editable only while %s", ErrInvalidState, StatusSubmitted)
		}

		if in.Condition != nil {
			v := strings.TrimSpace(*in.Condition)
			if v == "" {
				return fmt.Errorf("%w: condition required", ErrInvalidInput)
			}
			c.Condition = v
		}
		if in.ConditionDetails != nil {
			c.ConditionDetails = strings.TrimSpace(*in.ConditionDetails)
		}
		if in.BudgetMin != nil {
			v := *in.BudgetMin
			c.BudgetMin = &v
		}
		if in.BudgetMax != nil {
			v := *in.BudgetMax
			c.BudgetMax = &v
		}
		return checkBudget(c.BudgetMin, c.BudgetMax)
	})
}

// UpdateAdminNotes: notas internas del operador, independientes del estado.
func (s *Service) UpdateAdminNotes(ctx context.Context, caseID, notes string) (Case, error) {
	return s.mutate(ctx, "admin_notes", caseID, func(c *Case) error {
		c.AdminNotes = strings.TrimSpace(notes)
		return nil
	})
}

// mutate hace un ciclo load-mutate-save. Si el save pierde la carrera (ErrConflict)
// recarga y reintenta hasta maxRetries; el resto de errores sale sin reintento.
// Las transiciones nuevas se notifican recién después del save.
func (s *Service) mutate(ctx context.Context, op, caseID string, fn func(c *Case) error) (Case, error) {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return Case{}, ErrInvalidInput
	}

	var (
		saved    Case
		previous Status
		appended []StatusEvent
	)

	err := retry.Do(ctx, s.retryBackoff(), func(ctx context.Context) error {
		c, err := s.repo.GetByID(ctx, caseID)
		if err != nil {
			return err
		}

		previous = c.Status
		histLen := len(c.StatusHistory)

		if err := fn(&c); err != nil {
			return err
		}

		c.UpdatedAt = s.now()
		if err := s.repo.Update(ctx, c); err != nil {
			if errors.Is(err, ErrConflict) {
				metrics.ObserveConflict(op)
				s.log.Debug("case save conflict, retrying", map[string]any{
					"case_id":   caseID,
					"operation": op,
				})
				return retry.RetryableError(err)
			}
			return err
		}

		c.Version++
		saved = c
		appended = append([]StatusEvent(nil), c.StatusHistory[histLen:]...)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			s.log.Warn("case save retries exhausted", map[string]any{
				"case_id":   caseID,
				"operation": op,
			})
		}
		return Case{}, err
	}

	from := previous
	for _, ev := range appended {
		metrics.ObserveTransition(string(from), string(ev.Status))
		s.notify(saved, ev)
		from = ev.Status
	}

	return saved, nil
}

func (s *Service) retryBackoff() retry.Backoff {
	b := retry.NewConstant(s.backoff)
	if j := s.backoff / 2; j > 0 {
		b = retry.WithJitter(j, b)
	}
	return retry.WithMaxRetries(s.maxRetries, b)
}

func (s *Service) notify(c Case, ev StatusEvent) {
	s.dispatcher.Dispatch(notify.Notification{
		CaseID:     c.ID,
		PatientID:  c.PatientID,
		Status:     string(ev.Status),
		Message:    ev.Message,
		OccurredAt: ev.Timestamp,
	})
}

// appendTransition cambia el estado y agrega exactamente un evento al historial.
func appendTransition(c *Case, to Status, message string, at time.Time) {
	c.Status = to
	c.StatusHistory = append(c.StatusHistory, StatusEvent{
		Status:    to,
		Message:   message,
		Timestamp: at,
	})
}

func (s *Service) validateStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(parts, ", "))
}

func checkBudget(lo, hi *int64) error {
	if lo != nil && *lo < 0 {
		return fmt.Errorf("%w: budget_min must be >= 0", ErrInvalidInput)
	}
	if hi != nil && *hi < 0 {
		return fmt.Errorf("%w: budget_max must be >= 0", ErrInvalidInput)
	}
	if lo != nil && hi != nil && *lo > *hi {
		return fmt.Errorf("%w: budget_min must be <= budget_max", ErrInvalidInput)
	}
	return nil
}
