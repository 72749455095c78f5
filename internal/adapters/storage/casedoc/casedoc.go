// Package casedoc serializa el ledger y el historial de un caso como JSON
// para los stores SQL (jsonb en Postgres, TEXT en SQLite).
package casedoc

import (
	"encoding/json"
	"fmt"
	"time"

	"treatment-cases/internal/domain/cases"
)

type quoteDoc struct {
	ClinicID          string    `json:"clinic_id"`
	ClinicName        string    `json:"clinic_name"`
	City              string    `json:"city"`
	QuotedPrice       int64     `json:"quoted_price"`
	TreatmentIncludes string    `json:"treatment_includes,omitempty"`
	EstimatedDuration string    `json:"estimated_duration,omitempty"`
	Notes             string    `json:"notes,omitempty"`
	ApprovedAt        time.Time `json:"approved_at"`
}

type eventDoc struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func EncodeQuotes(in []cases.HospitalQuote) (string, error) {
	docs := make([]quoteDoc, 0, len(in))
	for _, q := range in {
		docs = append(docs, quoteDoc{
			ClinicID:          q.ClinicID,
			ClinicName:        q.ClinicName,
			City:              q.City,
			QuotedPrice:       q.QuotedPrice,
			TreatmentIncludes: q.TreatmentIncludes,
			EstimatedDuration: q.EstimatedDuration,
			Notes:             q.Notes,
			ApprovedAt:        q.ApprovedAt.UTC(),
		})
	}
	b, err := json.Marshal(docs)
	if err != nil {
		return "", fmt.Errorf("encode approved_hospitals: %w", err)
	}
	return string(b), nil
}

func DecodeQuotes(raw []byte) ([]cases.HospitalQuote, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var docs []quoteDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode approved_hospitals: %w", err)
	}
	out := make([]cases.HospitalQuote, 0, len(docs))
	for _, d := range docs {
		out = append(out, cases.HospitalQuote{
			ClinicID:          d.ClinicID,
			ClinicName:        d.ClinicName,
			City:              d.City,
			QuotedPrice:       d.QuotedPrice,
			TreatmentIncludes: d.TreatmentIncludes,
			EstimatedDuration: d.EstimatedDuration,
			Notes:             d.Notes,
			ApprovedAt:        d.ApprovedAt,
		})
	}
	return out, nil
}

func EncodeHistory(in []cases.StatusEvent) (string, error) {
	docs := make([]eventDoc, 0, len(in))
	for _, e := range in {
		docs = append(docs, eventDoc{
			Status:    string(e.Status),
			Message:   e.Message,
			Timestamp: e.Timestamp.UTC(),
		})
	}
	b, err := json.Marshal(docs)
	if err != nil {
		return "", fmt.Errorf("encode status_history: %w", err)
	}
	return string(b), nil
}

func DecodeHistory(raw []byte) ([]cases.StatusEvent, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var docs []eventDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode status_history: %w", err)
	}
	out := make([]cases.StatusEvent, 0, len(docs))
	for _, d := range docs {
		out = append(out, cases.StatusEvent{
			Status:    cases.Status(d.Status),
			Message:   d.Message,
			Timestamp: d.Timestamp,
		})
	}
	return out, nil
}
