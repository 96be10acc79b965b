package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"subtitle-translate/internal/config"
	"subtitle-translate/internal/infra/api/apiv1"
)

// NewRouter builds the full HTTP surface: ops endpoints plus the v1 job API.
func NewRouter(cfg config.ServerConfig, v1 *apiv1.Server, logger *zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		TraceID(),
		ClientIP(),
		RequestLog(logger),
		Recover(logger),
		Timeout(cfg.RequestTimeout),
	)
	r.Use(cors.Handler(CORSOptions(cfg.CORSOrigins)))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	apiv1.RegisterAPIV1(r, v1)
	return r
}

// CORSOptions allows the browser UI to call the API. Credentials are only
// allowed for an explicit origin list.
func CORSOptions(allowedOrigins []string) cors.Options {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowCreds := true
	for _, o := range allowedOrigins {
		if o == "*" {
			allowCreds = false
			break
		}
	}
	return cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", traceHeader},
		ExposedHeaders:   []string{"Content-Disposition", traceHeader},
		AllowCredentials: allowCreds,
		MaxAge:           300,
	}
}
