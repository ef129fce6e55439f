package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/edgeops/deploy/pkg/metrics"
	"github.com/edgeops/deploy/pkg/tools"
	"github.com/go-chi/chi"
	chi_middleware "github.com/go-chi/chi/middleware"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var requestTimeout = time.Minute * 5

// The identity record is supplied by an upstream authentication proxy
// through this header; extraction and verification happen there, not here.
const actorHeader = "X-Actor-Login"

type Config struct {
	Registry     *tools.Registry
	FrontendKeys []string
	MetricsPath  string
}

func New(cfg Config) chi.Router {
	router := chi.NewRouter()
	router.Use(
		RequestLogger(),
		PrometheusMiddleware("edgeopsd"),
		chi_middleware.StripSlashes,
	)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Mount /metrics endpoint with no authentication
	router.Get(cfg.MetricsPath, metrics.Handler().ServeHTTP)

	if len(cfg.FrontendKeys) == 0 {
		log.Error("No frontend keys configured; all tool invocations will be rejected")
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(
			PskValidatorMiddleware(cfg.FrontendKeys),
			chi_middleware.AllowContentType("application/json"),
			chi_middleware.Timeout(requestTimeout),
		)

		r.Get("/tools", listTools(cfg.Registry))
		r.Post("/tools/{name}", dispatchTool(cfg.Registry))
	})

	return router
}

func listTools(registry *tools.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(registry.List())
	}
}

type invocation struct {
	Params map[string]interface{} `json:"params"`
}

func dispatchTool(registry *tools.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		requestID, err := uuid.NewRandom()
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		logger := log.WithFields(log.Fields{
			"request_id": requestID.String(),
			"tool":       name,
			"actor":      r.Header.Get(actorHeader),
		})

		body := &invocation{}
		err = json.NewDecoder(r.Body).Decode(body)
		if err != nil {
			logger.Errorf("unable to decode request body: %s", err)
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(tools.Errf("unable to decode request body: %s", err))
			return
		}

		call := tools.Call{
			Identity: tools.Identity{Login: r.Header.Get(actorHeader)},
			Params:   body.Params,
		}

		result := registry.Dispatch(r.Context(), name, call)
		if result.IsError {
			logger.Errorf("tool invocation failed: %s", result.Content[0].Text)
		} else {
			logger.Infof("tool invocation succeeded")
		}

		// Tool errors are part of the envelope, not transport failures.
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}
