package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/fedexbridge/internal/server"
	"github.com/tournevent/fedexbridge/internal/store"
	"github.com/tournevent/fedexbridge/internal/telemetry"
	"github.com/tournevent/fedexbridge/pkg/shipper"
	"github.com/tournevent/fedexbridge/pkg/shipper/fedex"
	"github.com/tournevent/fedexbridge/pkg/shipper/mock"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, provider shipper.Shipper) *server.Server {
	t.Helper()

	logger := otelzap.New(zap.NewNop())
	admin := fedex.NewCredentialResolver(store.NewMemoryStore(), shipper.Credentials{WeightUnit: shipper.WeightLB}, logger)
	metrics := telemetry.NewMetricsWith(prometheus.NewRegistry())

	return server.New(server.Config{Port: 8080}, provider, admin, logger, metrics)
}

func do(t *testing.T, srv *server.Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, mock.New("test-shipper"))

	rec := do(t, srv, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	srv := newTestServer(t, mock.New("test-shipper"))

	rec := do(t, srv, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, mock.New("test-shipper"))

	rec := do(t, srv, http.MethodGet, "/fulfillment/calculate", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_Options(t *testing.T) {
	srv := newTestServer(t, mock.New("test-shipper"))

	rec := do(t, srv, http.MethodGet, "/fulfillment/options", "")

	require.Equal(t, http.StatusOK, rec.Code)
	options, ok := decodeBody(t, rec)["options"].([]any)
	require.True(t, ok)
	assert.Len(t, options, 2)
}

func TestServer_CanCalculate(t *testing.T) {
	provider := mock.New("test-shipper")
	provider.Enabled = false
	srv := newTestServer(t, provider)

	rec := do(t, srv, http.MethodGet, "/fulfillment/can-calculate", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["can_calculate"])
}

func TestServer_Validate(t *testing.T) {
	srv := newTestServer(t, mock.New("test-shipper"))

	rec := do(t, srv, http.MethodPost, "/fulfillment/validate", `{"option_data":{"service_code":"X"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["valid"])
}

func TestServer_Calculate(t *testing.T) {
	srv := newTestServer(t, mock.New("test-shipper"))

	body := `{"option_data":{"service_code":"STANDARD"},"context":{"items":[{"id":"li_1","quantity":1}]}}`
	rec := do(t, srv, http.MethodPost, "/fulfillment/calculate", body)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody(t, rec)
	assert.Equal(t, "15.82", resp["calculated_amount"])
	assert.Equal(t, true, resp["is_calculated_price_tax_inclusive"])
}

func TestServer_Calculate_InvalidJSON(t *testing.T) {
	srv := newTestServer(t, mock.New("test-shipper"))

	rec := do(t, srv, http.MethodPost, "/fulfillment/calculate", "invalid json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := decodeBody(t, rec)["error"].(map[string]any)
	assert.Equal(t, shipper.CodeInvalidInput, errBody["code"])
}

func TestServer_Create(t *testing.T) {
	srv := newTestServer(t, mock.New("test-shipper"))

	rec := do(t, srv, http.MethodPost, "/fulfillment/create", `{"items":[{"id":"li_1"}],"fulfillment":{"location_id":"sloc_1"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody(t, rec)
	labels := resp["labels"].([]any)
	require.Len(t, labels, 1)
	data := resp["data"].(map[string]any)
	assert.NotEmpty(t, data["tracking_number"])
}

func TestServer_ErrorStatusMapping(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{shipper.CodeConfiguration, http.StatusBadRequest},
		{shipper.CodeInvalidInput, http.StatusBadRequest},
		{shipper.CodeNotFound, http.StatusNotFound},
		{shipper.CodeRateMismatch, http.StatusUnprocessableEntity},
		{shipper.CodeAuth, http.StatusBadGateway},
		{shipper.CodeUpstream, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			provider := mock.New("test-shipper")
			provider.Err = shipper.NewShipperError("test-shipper", tt.code, "boom")
			srv := newTestServer(t, provider)

			rec := do(t, srv, http.MethodPost, "/fulfillment/create", `{"items":[]}`)

			assert.Equal(t, tt.want, rec.Code)
			errBody := decodeBody(t, rec)["error"].(map[string]any)
			assert.Equal(t, tt.code, errBody["code"])
			assert.Contains(t, errBody["message"], "boom")
		})
	}
}

func TestServer_AdminCredentials(t *testing.T) {
	srv := newTestServer(t, mock.New("test-shipper"))

	body := `{
		"is_enabled": true,
		"client_id": "client-id",
		"client_secret": "client-secret",
		"account_number": "740561073",
		"is_sandbox": true,
		"enable_logs": false,
		"weight_unit_of_measure": "KG"
	}`
	rec := do(t, srv, http.MethodPost, "/admin/fedex", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["success"])

	rec = do(t, srv, http.MethodGet, "/admin/fedex", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody(t, rec)
	assert.Equal(t, "client-id", resp["client_id"])
	assert.Equal(t, "KG", resp["weight_unit_of_measure"])
	assert.Equal(t, true, resp["is_sandbox"])
	assert.Equal(t, "********", resp["client_secret"])
}

func TestServer_AdminCredentials_Invalid(t *testing.T) {
	srv := newTestServer(t, mock.New("test-shipper"))

	body := `{"client_id":"x","client_secret":"client-secret","account_number":"740561073","weight_unit_of_measure":"OZ"}`
	rec := do(t, srv, http.MethodPost, "/admin/fedex", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := decodeBody(t, rec)["error"].(map[string]any)
	assert.Equal(t, shipper.CodeInvalidInput, errBody["code"])
	assert.Contains(t, errBody["message"], "client_id")
}

func TestServer_Services(t *testing.T) {
	logger := otelzap.New(zap.NewNop())
	provider := fedex.NewWithAPIClient(
		fedex.Config{Static: shipper.Credentials{ClientID: "id", ClientSecret: "secret", AccountNumber: "740561073"}},
		fedex.Deps{},
		fedex.NewMockAPIClient(),
		logger,
		nil,
	)
	srv := newTestServer(t, provider)

	rec := do(t, srv, http.MethodGet, "/fulfillment/services", "")

	require.Equal(t, http.StatusOK, rec.Code)
	services := decodeBody(t, rec)["services"].([]any)
	require.NotEmpty(t, services)
	first := services[0].(map[string]any)
	assert.Equal(t, "FEDEX_GROUND", first["service_code"])
	assert.Equal(t, "12.45", first["price"])
}

func TestServer_Services_Unsupported(t *testing.T) {
	srv := newTestServer(t, mock.New("test-shipper"))

	rec := do(t, srv, http.MethodGet, "/fulfillment/services", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_FedExNotConfigured(t *testing.T) {
	provider := fedex.NewWithAPIClient(fedex.Config{}, fedex.Deps{}, fedex.NewMockAPIClient(), otelzap.New(zap.NewNop()), nil)
	srv := newTestServer(t, provider)

	rec := do(t, srv, http.MethodGet, "/fulfillment/can-calculate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["can_calculate"])

	body := `{"option_data":{"service_code":"FEDEX_GROUND"},"context":{"items":[{"id":"li_1"}]}}`
	rec = do(t, srv, http.MethodPost, "/fulfillment/calculate", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := decodeBody(t, rec)["error"].(map[string]any)
	assert.Equal(t, shipper.CodeConfiguration, errBody["code"])
}
