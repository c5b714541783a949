package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/tournevent/fedexbridge/pkg/shipper"
	"github.com/tournevent/fedexbridge/pkg/shipper/fedex"
	"go.uber.org/zap"
)

// serviceDiscoverer is implemented by providers that can list live services.
type serviceDiscoverer interface {
	DiscoverServices(ctx context.Context) ([]fedex.RateQuote, error)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type validateRequest struct {
	OptionData map[string]any `json:"option_data"`
	Data       map[string]any `json:"data"`
}

type serviceResponse struct {
	ServiceCode       string  `json:"service_code"`
	ServiceName       string  `json:"service_name"`
	Price             *string `json:"price,omitempty"`
	EstimatedDelivery string  `json:"estimated_delivery,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleGetCredentials(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.admin.Resolve(r.Context()).Masked())
}

func (s *Server) handleSaveCredentials(w http.ResponseWriter, r *http.Request) {
	var creds shipper.Credentials
	if !s.decode(w, r, &creds) {
		return
	}

	start := time.Now()
	ok, err := s.admin.Save(r.Context(), creds)
	s.record("save_credentials", start, err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": ok})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	options, err := s.provider.FulfillmentOptions(r.Context())
	s.record("fulfillment_options", start, err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"options": options})
}

func (s *Server) handleCanCalculate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ok := s.provider.CanCalculate(r.Context())
	s.record("can_calculate", start, nil)

	writeJSON(w, http.StatusOK, map[string]bool{"can_calculate": ok})
}

func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	discoverer, ok := s.provider.(serviceDiscoverer)
	if !ok {
		s.writeError(w, r, shipper.NewShipperError(s.provider.Name(), shipper.CodeNotFound, "service discovery not supported"))
		return
	}

	start := time.Now()
	quotes, err := discoverer.DiscoverServices(r.Context())
	s.record("discover_services", start, err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	services := make([]serviceResponse, len(quotes))
	for i, q := range quotes {
		services[i] = serviceResponse{
			ServiceCode:       q.ServiceCode,
			ServiceName:       q.ServiceName,
			EstimatedDelivery: q.EstimatedDelivery,
		}
		if q.Price != nil {
			p := q.Price.String()
			services[i].Price = &p
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"services": services})
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req shipper.CalculatePriceRequest
	if !s.decode(w, r, &req) {
		return
	}

	start := time.Now()
	price, err := s.provider.CalculatePrice(r.Context(), &req)
	s.record("calculate_price", start, err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, price)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !s.decode(w, r, &req) {
		return
	}

	start := time.Now()
	ok, err := s.provider.ValidateFulfillmentData(r.Context(), req.OptionData, req.Data)
	s.record("validate_fulfillment_data", start, err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"valid": ok})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req shipper.CreateFulfillmentRequest
	if !s.decode(w, r, &req) {
		return
	}

	start := time.Now()
	result, err := s.provider.CreateFulfillment(r.Context(), &req)
	s.record("create_fulfillment", start, err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ============================================================================
// Helpers
// ============================================================================

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: errorBody{Code: shipper.CodeInvalidInput, Message: "Invalid JSON: " + err.Error()},
		})
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Ctx(r.Context()).Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}

	code := shipper.CodeOf(err)
	if code == "" {
		code = "INTERNAL"
	}
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: err.Error()}})
}

// statusFor maps provider error codes to HTTP status codes.
func statusFor(err error) int {
	var shipErr *shipper.ShipperError
	if !errors.As(err, &shipErr) {
		return http.StatusInternalServerError
	}

	switch shipErr.Code {
	case shipper.CodeConfiguration, shipper.CodeInvalidInput:
		return http.StatusBadRequest
	case shipper.CodeNotFound:
		return http.StatusNotFound
	case shipper.CodeRateMismatch:
		return http.StatusUnprocessableEntity
	case shipper.CodeAuth, shipper.CodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
