// Package static es un directorio de clínicas en memoria (dev y tests).
package static

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"treatment-cases/internal/ports/clinics"
)

type Clinic struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
}

type Directory struct {
	mu   sync.RWMutex
	byID map[string]clinics.Snapshot
}

func New(list ...Clinic) *Directory {
	d := &Directory{byID: make(map[string]clinics.Snapshot, len(list))}
	for _, c := range list {
		d.Put(c)
	}
	return d
}

// Demo es lo que se carga en dev cuando no hay CLINICS_SEED_FILE.
func Demo() *Directory {
	return New(
		Clinic{ID: "apollo-chennai", Name: "Apollo Hospitals", City: "Chennai"},
		Clinic{ID: "bumrungrad-bkk", Name: "Bumrungrad International", City: "Bangkok"},
		Clinic{ID: "acibadem-ist", Name: "Acibadem Maslak", City: "Istanbul"},
	)
}

// LoadFile lee un JSON con la forma [{"id":"..","name":"..","city":".."}].
func LoadFile(path string) (*Directory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read clinics seed: %w", err)
	}
	var list []Clinic
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode clinics seed: %w", err)
	}
	return New(list...), nil
}

func (d *Directory) Put(c Clinic) {
	id := strings.TrimSpace(c.ID)
	if id == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byID[id] = clinics.Snapshot{
		Name: strings.TrimSpace(c.Name),
		City: strings.TrimSpace(c.City),
	}
}

func (d *Directory) Snapshot(_ context.Context, clinicID string) (clinics.Snapshot, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.byID[strings.TrimSpace(clinicID)]
	if !ok {
		return clinics.Snapshot{}, clinics.ErrClinicNotFound
	}
	return s, nil
}
