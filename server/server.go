// Package server exposes a prepared snapshot over read-only JSON endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"usedcar-market/models"
	"usedcar-market/services"
	"usedcar-market/utils"
)

// Server serves one immutable snapshot. Handlers only read it, so no
// locking is needed.
type Server struct {
	snap   *services.Snapshot
	report *models.MarketReport
	logger *utils.Logger
}

// New creates a Server for snap. The market report is computed once.
func New(snap *services.Snapshot, logger *utils.Logger) *Server {
	return &Server{
		snap:   snap,
		report: services.NewReportService(logger).Generate(snap),
		logger: logger,
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.get(s.handleHealth))
	mux.HandleFunc("/listings", s.get(s.handleListings))
	mux.HandleFunc("/summary", s.get(s.handleSummary))
	mux.HandleFunc("/histogram", s.get(s.handleHistogram))
	mux.HandleFunc("/scatter", s.get(s.handleScatter))
	mux.HandleFunc("/options", s.get(s.handleOptions))
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("[server] Listening on http://%s (snapshot %s)", addr, s.snap.ID)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) get(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "snapshot": s.snap.ID})
}

type listingsResponse struct {
	Count    int                 `json:"count"`
	Params   models.FilterParams `json:"params"`
	Listings []models.Listing    `json:"listings"`
}

func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	params, err := ParseFilterParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out := services.Filter(s.snap.Listings, params)
	s.logger.Debug("[server] /listings %s -> %d rows", r.URL.RawQuery, len(out))
	writeJSON(w, http.StatusOK, listingsResponse{Count: len(out), Params: params, Listings: out})
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.report)
}

func (s *Server) handleHistogram(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dim := q.Get("by")
	if dim == "" {
		dim = services.DimManufacturer
	}
	params, err := ParseFilterParams(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	groups, err := services.Histogram(services.Filter(s.snap.Listings, params), dim)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"by": dim, "groups": groups})
}

func (s *Server) handleScatter(w http.ResponseWriter, r *http.Request) {
	params, err := ParseFilterParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, services.Scatter(services.Filter(s.snap.Listings, params)))
}

// handleOptions returns the values a client needs to populate its filter
// controls: distinct categories and the default price range.
func (s *Server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{}
	for _, dim := range []string{services.DimType, services.DimManufacturer, services.DimAgeCategory} {
		vals, err := services.Distinct(s.snap.Listings, dim)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp[dim] = vals
	}
	if min, max, ok := services.PriceBounds(s.snap.Listings); ok {
		resp["price_min"] = min
		resp["price_max"] = max
	}
	writeJSON(w, http.StatusOK, resp)
}

// ParseFilterParams reads filter parameters from a query string.
func ParseFilterParams(q url.Values) (models.FilterParams, error) {
	p := models.FilterParams{
		Type:         q.Get("type"),
		Manufacturer: q.Get("manufacturer"),
		AgeCategory:  q.Get("age_category"),
	}
	var err error
	if p.PriceMin, err = optFloatParam(q, "price_min"); err != nil {
		return p, err
	}
	if p.PriceMax, err = optFloatParam(q, "price_max"); err != nil {
		return p, err
	}
	if p.RecentOnly, err = boolParam(q, "recent"); err != nil {
		return p, err
	}
	if p.ElectricOnly, err = boolParam(q, "electric"); err != nil {
		return p, err
	}
	return p, services.ValidateParams(p)
}

func optFloatParam(q url.Values, key string) (*float64, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) {
		return nil, fmt.Errorf("invalid %s %q", key, raw)
	}
	return &v, nil
}

func boolParam(q url.Values, key string) (bool, error) {
	raw := q.Get(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
