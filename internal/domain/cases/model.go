package cases

import "time"

// HospitalQuote es la oferta de un hospital para un caso.
// ClinicName y City son un snapshot del hospital al momento de aprobar la cotización:
// si el listado del hospital cambia después, la cotización conserva lo ofrecido.
type HospitalQuote struct {
	ClinicID   string
	ClinicName string
	City       string

	QuotedPrice int64

	TreatmentIncludes string
	EstimatedDuration string
	Notes             string

	ApprovedAt time.Time
}

// StatusEvent es una entrada del historial. Nunca se modifica una vez escrita.
type StatusEvent struct {
	Status    Status
	Message   string
	Timestamp time.Time
}

// Case representa una solicitud de tratamiento de un paciente.
type Case struct {
	ID        string
	PatientID string

	Condition        string
	ConditionDetails string

	BudgetMin *int64
	BudgetMax *int64

	Status          Status
	MatchedClinicID string

	ApprovedHospitals []HospitalQuote
	StatusHistory     []StatusEvent

	AdminNotes string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Version es el token de concurrencia optimista leído en GetByID.
	Version int64
}

// QuoteIndex devuelve la posición de la cotización de clinicID o -1.
func (c Case) QuoteIndex(clinicID string) int {
	for i, q := range c.ApprovedHospitals {
		if q.ClinicID == clinicID {
			return i
		}
	}
	return -1
}

// Quote devuelve la cotización de clinicID si está en el ledger.
func (c Case) Quote(clinicID string) (HospitalQuote, bool) {
	i := c.QuoteIndex(clinicID)
	if i < 0 {
		return HospitalQuote{}, false
	}
	return c.ApprovedHospitals[i], true
}

// Clone copia los slices y punteros para que el caso no comparta memoria con el store.
func (c Case) Clone() Case {
	out := c
	if c.BudgetMin != nil {
		v := *c.BudgetMin
		out.BudgetMin = &v
	}
	if c.BudgetMax != nil {
		v := *c.BudgetMax
		out.BudgetMax = &v
	}
	out.ApprovedHospitals = append([]HospitalQuote(nil), c.ApprovedHospitals...)
	out.StatusHistory = append([]StatusEvent(nil), c.StatusHistory...)
	return out
}
