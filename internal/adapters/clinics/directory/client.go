// Package directory resuelve clínicas contra el servicio de directorio de hospitales.
package directory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"treatment-cases/internal/platform/httpclient"
	"treatment-cases/internal/ports/clinics"
)

var (
	ErrDirectoryNotConfigured = errors.New("clinic directory not configured")
	ErrDirectoryUnauthorized  = errors.New("clinic directory unauthorized")
	ErrDirectoryUpstream      = errors.New("clinic directory upstream error")
)

type Config struct {
	BaseURL string
	APIKey  string

	APIKeyHeader string
	Timeout      time.Duration
}

type Client struct {
	http *httpclient.Client
}

type clinicResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrDirectoryNotConfigured
	}
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	c, err := httpclient.New(httpclient.Options{
		BaseURL: cfg.BaseURL,
		Timeout: timeout,
		Headers: map[string]string{h: strings.TrimSpace(cfg.APIKey)},
	})
	if err != nil {
		return nil, err
	}
	return &Client{http: c}, nil
}

// Snapshot hace GET /v1/clinics/{id}. Un 404 es ErrClinicNotFound.
func (c *Client) Snapshot(ctx context.Context, clinicID string) (clinics.Snapshot, error) {
	clinicID = strings.TrimSpace(clinicID)
	if clinicID == "" {
		return clinics.Snapshot{}, clinics.ErrClinicNotFound
	}

	var out clinicResponse
	err := c.http.DoJSON(ctx, http.MethodGet, "/v1/clinics/"+url.PathEscape(clinicID), nil, &out)
	if err != nil {
		switch httpclient.StatusCode(err) {
		case http.StatusNotFound:
			return clinics.Snapshot{}, clinics.ErrClinicNotFound
		case http.StatusUnauthorized, http.StatusForbidden:
			return clinics.Snapshot{}, ErrDirectoryUnauthorized
		default:
			return clinics.Snapshot{}, fmt.Errorf("%w: %v", ErrDirectoryUpstream, err)
		}
	}

	name := strings.TrimSpace(out.Name)
	if name == "" {
		return clinics.Snapshot{}, fmt.Errorf("%w: clinic %s has no name", ErrDirectoryUpstream, clinicID)
	}
	return clinics.Snapshot{Name: name, City: strings.TrimSpace(out.City)}, nil
}
