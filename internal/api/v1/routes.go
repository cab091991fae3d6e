package v1

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mapgrid/tileserv/internal/logger"
	"github.com/mapgrid/tileserv/internal/service"
	"github.com/mapgrid/tileserv/internal/versions"
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Routes defines the routes for the tile API with dependency injection.
type Routes struct {
	service service.TileService
}

// NewRoutes creates a new Routes instance with the provided service.
func NewRoutes(svc service.TileService) *Routes {
	return &Routes{
		service: svc,
	}
}

// Router creates a new router for the tile API.
func Router(svc service.TileService) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()

	// Catalogs
	r.Get("/vector.json", routes.listTileJSON)
	r.Get("/index.json", routes.catalog)

	// Per-source endpoints. The id segment admits composite ids ("a,b").
	r.Get("/vector/{id}.json", routes.getTileJSON)
	r.Get(`/vector/{id}/{z:\d+}/{x:\d+}/{y:\d+}.pbf`, routes.getTile)

	// System endpoints
	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(svc))
	r.Get("/version", versionHandler)

	return r
}

// getTile handles GET /vector/{id}/{z}/{x}/{y}.pbf.
//
// Out-of-bounds coordinates and unknown sources are client-facing 404s;
// a storage failure other than a missing tile is a 500. The response body on
// error is the error message.
func (rr *Routes) getTile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// The route pattern guarantees non-negative integers.
	z, _ := strconv.Atoi(chi.URLParam(r, "z"))
	x, _ := strconv.Atoi(chi.URLParam(r, "x"))
	y, _ := strconv.Atoi(chi.URLParam(r, "y"))

	data, headers, err := rr.service.GetTile(r.Context(), id, z, x, y)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrSourceNotFound):
		rr.writeErrorResponse(w, "Not found", http.StatusNotFound)
		return
	case errors.Is(err, service.ErrOutOfBounds):
		rr.writeErrorResponse(w, "Out of bounds", http.StatusNotFound)
		return
	case errors.Is(err, service.ErrTileNotFound):
		rr.writeErrorResponse(w, err.Error(), http.StatusNotFound)
		return
	default:
		logger.Errorf("Failed to read tile %s %d/%d/%d: %v", id, z, x, y, err)
		rr.writeErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}

	for key, values := range headers {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logger.Errorf("Failed to write tile response: %v", err)
	}
}

// getTileJSON handles GET /vector/{id}.json.
func (rr *Routes) getTileJSON(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := rr.service.GetTileJSON(r.Context(), id, requestHost(r))
	if err != nil {
		if errors.Is(err, service.ErrSourceNotFound) {
			rr.writeErrorResponse(w, "Not found", http.StatusNotFound)
			return
		}
		logger.Errorf("Failed to get tilejson for %s: %v", id, err)
		rr.writeErrorResponse(w, "Failed to get source metadata", http.StatusInternalServerError)
		return
	}

	rr.writeJSONResponse(w, doc)
}

// listTileJSON handles GET /vector.json.
func (rr *Routes) listTileJSON(w http.ResponseWriter, r *http.Request) {
	docs, err := rr.service.ListTileJSON(r.Context(), requestHost(r))
	if err != nil {
		logger.Errorf("Failed to list sources: %v", err)
		rr.writeErrorResponse(w, "Failed to list sources", http.StatusInternalServerError)
		return
	}

	rr.writeJSONResponse(w, docs)
}

// catalog handles GET /index.json.
func (rr *Routes) catalog(w http.ResponseWriter, r *http.Request) {
	docs, err := rr.service.ListCatalog(r.Context(), requestHost(r))
	if err != nil {
		logger.Errorf("Failed to list catalog: %v", err)
		rr.writeErrorResponse(w, "Failed to list catalog", http.StatusInternalServerError)
		return
	}

	rr.writeJSONResponse(w, docs)
}

// requestHost extracts the scheme and host the client used, honoring a
// forwarding proxy's X-Forwarded-Proto.
func requestHost(r *http.Request) service.RequestHost {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return service.RequestHost{Scheme: scheme, Host: r.Host}
}

// healthHandler handles health check requests.
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// readinessHandler handles readiness check requests.
func readinessHandler(svc service.TileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.CheckReadiness(r.Context()); err != nil {
			errorResp := ErrorResponse{
				Error: "TileService not ready: " + err.Error(),
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			if encodeErr := json.NewEncoder(w).Encode(errorResp); encodeErr != nil {
				logger.Errorf("Failed to encode readiness error response: %v", encodeErr)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}
}

// versionHandler handles version information requests.
func versionHandler(w http.ResponseWriter, _ *http.Request) {
	info := versions.GetVersionInfo()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(info); err != nil {
		logger.Errorf("Failed to encode version info: %v", err)
	}
}

// writeJSONResponse writes a JSON response with the given data.
func (*Routes) writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Errorf("Failed to encode JSON response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response.
func (*Routes) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	errorResp := ErrorResponse{
		Error: message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(errorResp); err != nil {
		logger.Errorf("Failed to encode error response: %v", err)
	}
}
