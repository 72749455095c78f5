package webhook

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"treatment-cases/internal/platform/httpclient"
	"treatment-cases/internal/ports/notify"
)

var ErrNotConfigured = errors.New("notification webhook not configured")

type Config struct {
	URL     string
	Secret  string
	Timeout time.Duration
}

// Sender hace POST JSON de cada notificación al webhook configurado.
type Sender struct {
	url    string
	client *httpclient.Client
}

type payload struct {
	CaseID     string    `json:"case_id"`
	PatientID  string    `json:"patient_id"`
	Status     string    `json:"status"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

func New(cfg Config) (*Sender, error) {
	u := strings.TrimSpace(cfg.URL)
	if u == "" {
		return nil, ErrNotConfigured
	}

	headers := map[string]string{}
	if s := strings.TrimSpace(cfg.Secret); s != "" {
		headers["X-Webhook-Secret"] = s
	}

	c, err := httpclient.New(httpclient.Options{
		Timeout: cfg.Timeout,
		Headers: headers,
	})
	if err != nil {
		return nil, err
	}
	return &Sender{url: u, client: c}, nil
}

func (s *Sender) Notify(ctx context.Context, n notify.Notification) error {
	return s.client.DoJSON(ctx, http.MethodPost, s.url, payload{
		CaseID:     n.CaseID,
		PatientID:  n.PatientID,
		Status:     n.Status,
		Message:    n.Message,
		OccurredAt: n.OccurredAt.UTC(),
	}, nil)
}
