// Package handlers holds the HTTP entry points shared by the per-function binaries and
// the local development server.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Lllllllleong/marketingkitflow/internal/models"
	"github.com/Lllllllleong/marketingkitflow/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// KitService generates and regenerates marketing kits. *services.KitFunction satisfies it.
type KitService interface {
	Generate(ctx context.Context, req *models.GenerateKitRequest) (*models.GenerateKitResponse, error)
	Regenerate(ctx context.Context, req *models.RegenerateKitRequest) (*models.GenerateKitResponse, error)
}

// TourService serves the read-only property views. *services.TourFunction satisfies it.
type TourService interface {
	Tour(ctx context.Context, req *models.PropertyTourRequest) (*models.PropertyTourResponse, error)
	ListProperties(ctx context.Context, req *models.ListPropertiesRequest) (*models.ListPropertiesResponse, error)
}

// Getter returns the lazily initialized service, or the error from initializing it.
type Getter[T any] func() (T, error)

// GenerateKit handles POST requests for the new-listing flow.
func GenerateKit(get Getter[KitService]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, ok := resolve(w, get, "kit generator")
		if !ok {
			return
		}
		var req models.GenerateKitRequest
		if !decode(w, r, &req) {
			return
		}
		res, err := svc.Generate(r.Context(), &req)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, res)
	}
}

// RegenerateKit handles POST requests for the regeneration flow.
func RegenerateKit(get Getter[KitService]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, ok := resolve(w, get, "kit generator")
		if !ok {
			return
		}
		var req models.RegenerateKitRequest
		if !decode(w, r, &req) {
			return
		}
		res, err := svc.Regenerate(r.Context(), &req)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, res)
	}
}

// PropertyTour accepts GET ?propertyId= or a POSTed JSON body.
func PropertyTour(get Getter[TourService]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, ok := resolve(w, get, "property tour")
		if !ok {
			return
		}
		req := models.PropertyTourRequest{PropertyID: r.URL.Query().Get("propertyId")}
		if r.Method == http.MethodPost && !decode(w, r, &req) {
			return
		}
		res, err := svc.Tour(r.Context(), &req)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, res)
	}
}

// ListProperties accepts GET ?userId= or a POSTed JSON body.
func ListProperties(get Getter[TourService]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, ok := resolve(w, get, "property tour")
		if !ok {
			return
		}
		req := models.ListPropertiesRequest{UserID: r.URL.Query().Get("userId")}
		if r.Method == http.MethodPost && !decode(w, r, &req) {
			return
		}
		res, err := svc.ListProperties(r.Context(), &req)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, res)
	}
}

// Metrics exposes the Prometheus registry.
func Metrics() http.Handler {
	return promhttp.Handler()
}

// WriteJSON encodes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

// WriteError maps err to a status code and a user facing message.
func WriteError(w http.ResponseWriter, err error) {
	status := pipeline.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "error", err, "status", status)
	} else {
		slog.Warn("Request rejected", "error", err, "status", status)
	}
	WriteJSON(w, status, models.ErrorResponse{Status: "error", Message: pipeline.UserMessage(err)})
}

func resolve[T any](w http.ResponseWriter, get Getter[T], name string) (T, bool) {
	svc, err := get()
	if err != nil {
		slog.Error("Critical: service initialization failed", "service", name, "error", err)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return svc, false
	}
	return svc, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		slog.Warn("Could not decode request body", "error", err)
		WriteJSON(w, http.StatusBadRequest, models.ErrorResponse{Status: "error", Message: "Bad Request: could not parse JSON"})
		return false
	}
	return true
}
