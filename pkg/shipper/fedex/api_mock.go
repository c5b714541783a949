package fedex

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tournevent/fedexbridge/pkg/shipper"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnAuthenticate     func(ctx context.Context, baseURL, clientID, clientSecret string) (string, error)
	OnGetRates         func(ctx context.Context, sess Session, origin, destination Address, items []PackageLineItem) ([]RateQuote, error)
	OnCreateShipment   func(ctx context.Context, sess Session, params ShipmentParams) (*ShipmentResult, error)
	OnDiscoverServices func(ctx context.Context, sess Session, unit shipper.WeightUnit) ([]RateQuote, error)

	mu    sync.Mutex
	calls map[string]int
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{calls: make(map[string]int)}
}

// Calls returns how many times the named method has been invoked.
func (m *MockAPIClient) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockAPIClient) record(method string) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
	m.mu.Unlock()

	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
}

func simulatedError(status int) *shipper.ShipperError {
	return shipper.NewShipperError(carrierName, shipper.CodeUpstream, "Simulated API error").WithStatusCode(status)
}

// Authenticate returns a mock bearer token.
func (m *MockAPIClient) Authenticate(ctx context.Context, baseURL, clientID, clientSecret string) (string, error) {
	m.record("Authenticate")

	if m.OnAuthenticate != nil {
		return m.OnAuthenticate(ctx, baseURL, clientID, clientSecret)
	}
	if clientID == "" || clientSecret == "" {
		return "", shipper.NewShipperError(carrierName, shipper.CodeConfiguration, "client credentials are required")
	}

	return "mock-token-" + uuid.New().String()[:8], nil
}

// GetRates returns mock rate quotes.
func (m *MockAPIClient) GetRates(ctx context.Context, sess Session, origin, destination Address, items []PackageLineItem) ([]RateQuote, error) {
	m.record("GetRates")

	if m.SimulateErrors {
		return nil, simulatedError(500)
	}
	if m.OnGetRates != nil {
		return m.OnGetRates(ctx, sess, origin, destination, items)
	}
	if len(items) == 0 {
		return nil, shipper.NewShipperError(carrierName, shipper.CodeInvalidInput, "invalid items array")
	}

	return defaultQuotes(), nil
}

// CreateShipment creates a mock shipment.
func (m *MockAPIClient) CreateShipment(ctx context.Context, sess Session, params ShipmentParams) (*ShipmentResult, error) {
	m.record("CreateShipment")

	if m.SimulateErrors {
		return nil, simulatedError(500)
	}
	if m.OnCreateShipment != nil {
		return m.OnCreateShipment(ctx, sess, params)
	}

	trackingNumber := fmt.Sprintf("7946%08d", time.Now().UnixNano()%100000000)
	labelURL := fmt.Sprintf("https://wwwtest.fedex.com/document/v1/cache/retrieve/SH,%s_Merge_Label", trackingNumber)

	return &ShipmentResult{
		TrackingNumber: &trackingNumber,
		TrackingURL:    TrackingURL(&trackingNumber),
		LabelURL:       &labelURL,
	}, nil
}

// DiscoverServices returns the default mock services.
func (m *MockAPIClient) DiscoverServices(ctx context.Context, sess Session, unit shipper.WeightUnit) ([]RateQuote, error) {
	m.record("DiscoverServices")

	if m.SimulateErrors {
		return nil, simulatedError(500)
	}
	if m.OnDiscoverServices != nil {
		return m.OnDiscoverServices(ctx, sess, unit)
	}

	return defaultQuotes(), nil
}

func defaultQuotes() []RateQuote {
	ground := decimal.RequireFromString("12.45")
	express := decimal.RequireFromString("38.10")
	overnight := decimal.RequireFromString("71.92")

	return []RateQuote{
		{ServiceCode: "FEDEX_GROUND", ServiceName: "FedEx Ground", Price: &ground, EstimatedDelivery: "FIVE_DAYS"},
		{ServiceCode: "FEDEX_2_DAY", ServiceName: "FedEx 2Day", Price: &express, EstimatedDelivery: "TWO_DAYS"},
		{ServiceCode: "PRIORITY_OVERNIGHT", ServiceName: "FedEx Priority Overnight", Price: &overnight, EstimatedDelivery: "ONE_DAY"},
	}
}

// Ensure MockAPIClient implements APIClient interface
var _ APIClient = (*MockAPIClient)(nil)
