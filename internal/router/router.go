package router

import (
	"net/http"

	_ "treatment-cases/docs" // registra el swagger generado

	clinicsstatic "treatment-cases/internal/adapters/clinics/static"
	mem "treatment-cases/internal/adapters/storage/memory"
	"treatment-cases/internal/domain/cases"
	"treatment-cases/internal/middleware"
	"treatment-cases/internal/platform/logger"
	"treatment-cases/internal/ports/auth"
	"treatment-cases/internal/ports/clinics"
	"treatment-cases/internal/ports/notify"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)
	Logger       logger.Logger

	// Service ya armado (lo arma cmd/api). Si es nil se arma uno con lo de abajo.
	Service *cases.Service

	// Opcionales: sin Repo => in-memory, sin Clinics => directorio demo, sin Notifier => no se notifica.
	Repo     cases.Repository
	Clinics  clinics.Lookup
	Notifier notify.Sender
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog(log))
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	svc := opts.Service
	if svc == nil {
		svc = newService(opts, log)
	}

	cases.RegisterRoutes(r, svc)

	return r
}

func newService(opts Options, log logger.Logger) *cases.Service {
	repo := opts.Repo
	if repo == nil {
		repo = mem.NewCaseRepo()
	}
	lookup := opts.Clinics
	if lookup == nil {
		lookup = clinicsstatic.Demo()
	}
	return cases.NewService(repo, cases.Options{
		Clinics:  lookup,
		Notifier: opts.Notifier,
		Logger:   log,
	})
}
