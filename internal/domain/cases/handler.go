package cases

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"treatment-cases/internal/middleware"
	"treatment-cases/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/cases", func(cr chi.Router) {
		// Paciente
		cr.Post("/", createCaseHandler(svc))
		cr.Get("/", listMyCasesHandler(svc))

		cr.Route("/{caseID}", func(one chi.Router) {
			// Dueño del caso u operador
			one.Get("/", getCaseHandler(svc))
			one.Patch("/", updateDetailsHandler(svc))

			// Operador
			one.With(middleware.RequireRole(auth.RoleOperator)).Post("/quotes", addQuoteHandler(svc))
			one.With(middleware.RequireRole(auth.RoleOperator)).Delete("/quotes/{clinicID}", removeQuoteHandler(svc))
			one.With(middleware.RequireRole(auth.RoleOperator)).Post("/status", advanceStatusHandler(svc))
			one.With(middleware.RequireRole(auth.RoleOperator)).Put("/admin-notes", adminNotesHandler(svc))

			// Paciente
			one.With(middleware.RequireRole(auth.RolePatient)).Post("/selection", selectHospitalHandler(svc))
		})
	})
}

type createCaseRequest struct {
	Condition        string `json:"condition"`
	ConditionDetails string `json:"condition_details"`
	BudgetMin        *int64 `json:"budget_min"`
	BudgetMax        *int64 `json:"budget_max"`
}

type updateDetailsRequest struct {
	Condition        *string `json:"condition"`
	ConditionDetails *string `json:"condition_details"`
	BudgetMin        *int64  `json:"budget_min"`
	BudgetMax        *int64  `json:"budget_max"`
}

type addQuoteRequest struct {
	ClinicID          string `json:"clinic_id"`
	QuotedPrice       int64  `json:"quoted_price"`
	TreatmentIncludes string `json:"treatment_includes"`
	EstimatedDuration string `json:"estimated_duration"`
	Notes             string `json:"notes"`
}

type advanceStatusRequest struct {
	Status  Status `json:"status" enums:"reviewing,hospital_matched,treatment_scheduled,treatment_in_progress,treatment_completed,cancelled"`
	Message string `json:"message"`
}

type adminNotesRequest struct {
	AdminNotes string `json:"admin_notes"`
}

type selectHospitalRequest struct {
	ClinicID string `json:"clinic_id"`
}

type quoteResponse struct {
	ClinicID          string    `json:"clinic_id"`
	ClinicName        string    `json:"clinic_name"`
	City              string    `json:"city"`
	QuotedPrice       int64     `json:"quoted_price"`
	TreatmentIncludes string    `json:"treatment_includes"`
	EstimatedDuration string    `json:"estimated_duration"`
	Notes             string    `json:"notes"`
	ApprovedAt        time.Time `json:"approved_at"`
}

type statusEventResponse struct {
	Status    Status    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// caseResponse es el caso devuelto por la API. admin_notes solo viaja a operadores.
type caseResponse struct {
	ID                string                `json:"id"`
	PatientID         string                `json:"patient_id"`
	Condition         string                `json:"condition"`
	ConditionDetails  string                `json:"condition_details"`
	BudgetMin         *int64                `json:"budget_min,omitempty"`
	BudgetMax         *int64                `json:"budget_max,omitempty"`
	Status            Status                `json:"status"`
	MatchedClinicID   string                `json:"matched_clinic_id,omitempty"`
	ApprovedHospitals []quoteResponse       `json:"approved_hospitals"`
	StatusHistory     []statusEventResponse `json:"status_history"`
	AdminNotes        *string               `json:"admin_notes,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// createCaseHandler godoc
// @Summary Crear caso de tratamiento
// @Description El paciente autenticado abre una solicitud de tratamiento. El caso arranca en `submitted`.
// @Tags cases
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body createCaseRequest true "Condición y presupuesto opcional"
// @Success 201 {object} caseResponse
// @Failure 400 {string} string "invalid json / validación"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /cases [post]
func createCaseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}
		if claims.IsOperator() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req createCaseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		c, err := svc.Create(r.Context(), CreateInput{
			PatientID:        claims.UserID,
			Condition:        req.Condition,
			ConditionDetails: req.ConditionDetails,
			BudgetMin:        req.BudgetMin,
			BudgetMax:        req.BudgetMax,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toCaseResponse(c, claims))
	}
}

func listMyCasesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		items, err := svc.ListByPatient(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]caseResponse, 0, len(items))
		for _, c := range items {
			out = append(out, toCaseResponse(c, claims))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getCaseHandler godoc
// @Summary Ver caso
// @Description Dueño del caso u operador. admin_notes solo se devuelve a operadores.
// @Tags cases
// @Produce json
// @Param caseID path string true "ID del caso"
// @Success 200 {object} caseResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /cases/{caseID} [get]
func getCaseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		c, err := svc.GetByID(r.Context(), chi.URLParam(r, "caseID"))
		if err != nil {
			writeError(w, err)
			return
		}

		// Operador bypass, paciente solo lo suyo
		if !claims.IsOperator() && c.PatientID != claims.UserID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		writeJSON(w, http.StatusOK, toCaseResponse(c, claims))
	}
}

func updateDetailsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		var req updateDetailsRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		c, err := svc.UpdateDetails(r.Context(), chi.URLParam(r, "caseID"), claims.UserID, DetailsInput{
			Condition:        req.Condition,
			ConditionDetails: req.ConditionDetails,
			BudgetMin:        req.BudgetMin,
			BudgetMax:        req.BudgetMax,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toCaseResponse(c, claims))
	}
}

// addQuoteHandler godoc
// @Summary Agregar cotización de hospital
// @Description Solo operadores. Si la clínica ya tiene cotización en el caso, se reemplaza.
// @Tags cases
// @Accept json
// @Produce json
// @Param caseID path string true "ID del caso"
// @Param payload body addQuoteRequest true "Cotización; quoted_price > 0"
// @Success 200 {object} caseResponse
// @Failure 400 {string} string "invalid json / validación"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "case or clinic not found"
// @Failure 409 {string} string "invalid state / conflict"
// @Router /cases/{caseID}/quotes [post]
func addQuoteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())

		var req addQuoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		c, err := svc.AddQuote(r.Context(), chi.URLParam(r, "caseID"), QuoteInput{
			ClinicID:          req.ClinicID,
			QuotedPrice:       req.QuotedPrice,
			TreatmentIncludes: req.TreatmentIncludes,
			EstimatedDuration: req.EstimatedDuration,
			Notes:             req.Notes,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toCaseResponse(c, claims))
	}
}

func removeQuoteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())

		c, err := svc.RemoveQuote(r.Context(), chi.URLParam(r, "caseID"), chi.URLParam(r, "clinicID"))
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toCaseResponse(c, claims))
	}
}

// advanceStatusHandler godoc
// @Summary Avanzar estado del caso
// @Description Solo operadores. Solo se permite el sucesor inmediato o `cancelled` antes de que el paciente elija hospital.
// @Tags cases
// @Accept json
// @Produce json
// @Param caseID path string true "ID del caso"
// @Param payload body advanceStatusRequest true "Estado destino y mensaje"
// @Success 200 {object} caseResponse
// @Failure 400 {string} string "invalid json / mensaje requerido"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Failure 409 {string} string "invalid transition / invalid state / conflict"
// @Router /cases/{caseID}/status [post]
func advanceStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())

		var req advanceStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		c, err := svc.Advance(r.Context(), chi.URLParam(r, "caseID"), req.Status, req.Message)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toCaseResponse(c, claims))
	}
}

func adminNotesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())

		var req adminNotesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		c, err := svc.UpdateAdminNotes(r.Context(), chi.URLParam(r, "caseID"), req.AdminNotes)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toCaseResponse(c, claims))
	}
}

// selectHospitalHandler godoc
// @Summary Elegir hospital
// @Description El paciente dueño del caso elige una de las cotizaciones aprobadas. El caso pasa a `hospital_accepted`.
// @Tags cases
// @Accept json
// @Produce json
// @Param caseID path string true "ID del caso"
// @Param payload body selectHospitalRequest true "Clínica elegida"
// @Success 200 {object} caseResponse
// @Failure 400 {string} string "invalid json"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "case or quote not found"
// @Failure 409 {string} string "invalid state / conflict"
// @Router /cases/{caseID}/selection [post]
func selectHospitalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())

		var req selectHospitalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		c, err := svc.SelectHospital(r.Context(), chi.URLParam(r, "caseID"), claims.UserID, req.ClinicID)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toCaseResponse(c, claims))
	}
}

func requireClaims(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return auth.Claims{}, false
	}
	return claims, true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toCaseResponse(c Case, claims auth.Claims) caseResponse {
	out := caseResponse{
		ID:                c.ID,
		PatientID:         c.PatientID,
		Condition:         c.Condition,
		ConditionDetails:  c.ConditionDetails,
		BudgetMin:         c.BudgetMin,
		BudgetMax:         c.BudgetMax,
		Status:            c.Status,
		MatchedClinicID:   c.MatchedClinicID,
		ApprovedHospitals: make([]quoteResponse, 0, len(c.ApprovedHospitals)),
		StatusHistory:     make([]statusEventResponse, 0, len(c.StatusHistory)),
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
	for _, q := range c.ApprovedHospitals {
		out.ApprovedHospitals = append(out.ApprovedHospitals, quoteResponse{
			ClinicID:          q.ClinicID,
			ClinicName:        q.ClinicName,
			City:              q.City,
			QuotedPrice:       q.QuotedPrice,
			TreatmentIncludes: q.TreatmentIncludes,
			EstimatedDuration: q.EstimatedDuration,
			Notes:             q.Notes,
			ApprovedAt:        q.ApprovedAt,
		})
	}
	for _, ev := range c.StatusHistory {
		out.StatusHistory = append(out.StatusHistory, statusEventResponse{
			Status:    ev.Status,
			Message:   ev.Message,
			Timestamp: ev.Timestamp,
		})
	}
	if claims.IsOperator() {
		notes := c.AdminNotes
		out.AdminNotes = &notes
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
