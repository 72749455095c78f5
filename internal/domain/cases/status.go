package cases

// Status es el estado del caso dentro del flujo de tratamiento.
// @Enum submitted, reviewing, hospital_matched, hospital_accepted, treatment_scheduled, treatment_in_progress, treatment_completed, cancelled
type Status string

const (
	StatusSubmitted           Status = "submitted"
	StatusReviewing           Status = "reviewing"
	StatusHospitalMatched     Status = "hospital_matched"
	StatusHospitalAccepted    Status = "hospital_accepted"
	StatusTreatmentScheduled  Status = "treatment_scheduled"
	StatusTreatmentInProgress Status = "treatment_in_progress"
	StatusTreatmentCompleted  Status = "treatment_completed"
	StatusCancelled           Status = "cancelled"
)

// forwardChain es el orden permitido hacia adelante.
var forwardChain = []Status{
	StatusSubmitted,
	StatusReviewing,
	StatusHospitalMatched,
	StatusHospitalAccepted,
	StatusTreatmentScheduled,
	StatusTreatmentInProgress,
	StatusTreatmentCompleted,
}

// transitions es la única tabla de transiciones legales vía Advance.
// La vuelta hospital_matched -> reviewing no está acá: solo la hace el ledger.
var transitions = func() map[Status][]Status {
	t := map[Status][]Status{}
	for i, s := range forwardChain {
		if i+1 < len(forwardChain) {
			t[s] = append(t[s], forwardChain[i+1])
		}
	}
	for _, s := range []Status{StatusSubmitted, StatusReviewing, StatusHospitalMatched} {
		t[s] = append(t[s], StatusCancelled)
	}
	t[StatusTreatmentCompleted] = nil
	t[StatusCancelled] = nil
	return t
}()

// Valid indica si s es uno de los estados conocidos.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal indica si el estado ya no admite cambios.
func (s Status) Terminal() bool {
	return s == StatusTreatmentCompleted || s == StatusCancelled
}

// Cancellable indica si el caso todavía puede cancelarse.
func (s Status) Cancellable() bool {
	return CanTransition(s, StatusCancelled)
}

// AcceptsQuotes indica si el ledger todavía admite cotizaciones nuevas.
func (s Status) AcceptsQuotes() bool {
	switch s {
	case StatusSubmitted, StatusReviewing, StatusHospitalMatched:
		return true
	default:
		return false
	}
}

// CanTransition responde si from -> to es el sucesor inmediato o una cancelación permitida.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedTransitions devuelve los destinos legales desde from.
func AllowedTransitions(from Status) []Status {
	return append([]Status(nil), transitions[from]...)
}

// requiresMessage: estos destinos exigen mensaje del operador.
func requiresMessage(s Status) bool {
	switch s {
	case StatusReviewing,
		StatusTreatmentScheduled,
		StatusTreatmentInProgress,
		StatusTreatmentCompleted,
		StatusCancelled:
		return true
	default:
		return false
	}
}
