package fedex_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/fedexbridge/internal/catalog"
	"github.com/tournevent/fedexbridge/pkg/shipper"
	"github.com/tournevent/fedexbridge/pkg/shipper/fedex"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// fakeHost implements the host lookup ports from in-memory maps.
type fakeHost struct {
	locations map[string]*shipper.StockLocation
	options   map[string]*shipper.ShippingOption
	channels  map[string]*shipper.SalesChannel
}

func (h *fakeHost) RetrieveStockLocation(ctx context.Context, id string) (*shipper.StockLocation, error) {
	return h.locations[id], nil
}

func (h *fakeHost) RetrieveShippingOption(ctx context.Context, id string) (*shipper.ShippingOption, error) {
	return h.options[id], nil
}

func (h *fakeHost) RetrieveSalesChannel(ctx context.Context, id string) (*shipper.SalesChannel, error) {
	return h.channels[id], nil
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		locations: map[string]*shipper.StockLocation{
			"sloc_1": {
				ID:   "sloc_1",
				Name: "Main warehouse",
				Address: &shipper.Address{
					Address1:    "1 Dock Rd",
					City:        "Pompano Beach",
					Province:    "Florida",
					PostalCode:  "33064",
					CountryCode: "us",
				},
			},
			"sloc_nopostal": {
				ID:      "sloc_nopostal",
				Address: &shipper.Address{Address1: "2 Dock Rd", Province: "FL", CountryCode: "US"},
			},
		},
		options: map[string]*shipper.ShippingOption{
			"so_ground": {ID: "so_ground", Name: "Ground", Data: map[string]any{"carrier_code": "FEDEX_GROUND"}},
			"so_blank":  {ID: "so_blank", Name: "Blank"},
		},
		channels: map[string]*shipper.SalesChannel{
			"sc_1":       {ID: "sc_1", Name: "Webshop", Metadata: map[string]any{"phone": "5551234567"}},
			"sc_nophone": {ID: "sc_nophone", Name: "Kiosk"},
		},
	}
}

func testStatic() shipper.Credentials {
	return shipper.Credentials{
		Enabled:       true,
		ClientID:      "client-id",
		ClientSecret:  "client-secret",
		AccountNumber: "740561073",
		SandboxMode:   true,
		WeightUnit:    shipper.WeightLB,
	}
}

func newTestClient(api fedex.APIClient, static shipper.Credentials) *fedex.Client {
	host := newFakeHost()
	return fedex.NewWithAPIClient(
		fedex.Config{Static: static},
		fedex.Deps{Locations: host, Options: host, Channels: host},
		api,
		otelzap.New(zap.NewNop()),
		nil,
	)
}

func customerAddress() *shipper.Address {
	return &shipper.Address{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Phone:       "5559876543",
		Address1:    "350 5th Ave",
		City:        "New York",
		Province:    "New York",
		PostalCode:  "10118",
		CountryCode: "US",
	}
}

func priceRequest(serviceCode string) *shipper.CalculatePriceRequest {
	return &shipper.CalculatePriceRequest{
		OptionData: map[string]any{"service_code": serviceCode},
		Context: shipper.CartContext{
			Items:           []shipper.LineItem{{ID: "li_1", Quantity: 1, Variant: &shipper.Variant{Weight: 2}}},
			ShippingAddress: customerAddress(),
			FromLocation: &shipper.StockLocation{
				ID:      "sloc_1",
				Address: &shipper.Address{Province: "Florida", PostalCode: "33064", CountryCode: "US"},
			},
		},
	}
}

func fulfillmentRequest() *shipper.CreateFulfillmentRequest {
	return &shipper.CreateFulfillmentRequest{
		Items: []shipper.LineItem{{ID: "li_1", Quantity: 1, Variant: &shipper.Variant{Weight: 3, Length: 10, Width: 6, Height: 4}}},
		Order: &shipper.FulfillmentOrder{
			ID:              "order_1",
			SalesChannelID:  "sc_1",
			ShippingAddress: customerAddress(),
		},
		Fulfillment: shipper.FulfillmentInfo{
			ID:               "ful_1",
			LocationID:       "sloc_1",
			ShippingOptionID: "so_ground",
		},
	}
}

func TestClient_Name(t *testing.T) {
	client := newTestClient(fedex.NewMockAPIClient(), testStatic())
	assert.Equal(t, "fedex", client.Name())
}

func TestClient_BaseURL(t *testing.T) {
	client := newTestClient(fedex.NewMockAPIClient(), testStatic())
	assert.Equal(t, "https://apis-sandbox.fedex.com", client.BaseURL(true))
	assert.Equal(t, "https://apis.fedex.com", client.BaseURL(false))
}

func TestClient_CanCalculate(t *testing.T) {
	assert.True(t, newTestClient(fedex.NewMockAPIClient(), testStatic()).CanCalculate(context.Background()))

	disabled := testStatic()
	disabled.Enabled = false
	assert.False(t, newTestClient(fedex.NewMockAPIClient(), disabled).CanCalculate(context.Background()))
}

func TestClient_FulfillmentOptions(t *testing.T) {
	client := newTestClient(fedex.NewMockAPIClient(), testStatic())

	options, err := client.FulfillmentOptions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, fedex.ServiceOptions(), options)
}

func TestClient_ValidateFulfillmentData(t *testing.T) {
	client := newTestClient(fedex.NewMockAPIClient(), testStatic())

	ok, err := client.ValidateFulfillmentData(context.Background(), nil, map[string]any{"anything": 1})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClient_CalculatePrice_Success(t *testing.T) {
	mockAPI := fedex.NewMockAPIClient()
	var gotOrigin, gotDest fedex.Address
	var gotItems []fedex.PackageLineItem
	var gotSess fedex.Session
	mockAPI.OnGetRates = func(ctx context.Context, sess fedex.Session, origin, destination fedex.Address, items []fedex.PackageLineItem) ([]fedex.RateQuote, error) {
		gotSess, gotOrigin, gotDest, gotItems = sess, origin, destination, items
		ground := decimal.RequireFromString("14.27")
		return []fedex.RateQuote{
			{ServiceCode: "FEDEX_2_DAY", ServiceName: "FedEx 2Day"},
			{ServiceCode: "FEDEX_GROUND", ServiceName: "FedEx Ground", Price: &ground},
		}, nil
	}
	client := newTestClient(mockAPI, testStatic())

	price, err := client.CalculatePrice(context.Background(), priceRequest("FEDEX_GROUND"))

	require.NoError(t, err)
	assert.True(t, price.CalculatedAmount.Equal(decimal.RequireFromString("14.27")))
	assert.True(t, price.TaxInclusive)

	assert.Equal(t, "https://apis-sandbox.fedex.com", gotSess.BaseURL)
	assert.Equal(t, "740561073", gotSess.AccountNumber)
	assert.NotEmpty(t, gotSess.Token)
	assert.Equal(t, "FL", gotOrigin.StateOrProvinceCode)
	assert.Equal(t, "NY", gotDest.StateOrProvinceCode)
	assert.Empty(t, gotDest.City)
	require.Len(t, gotItems, 1)
	assert.Equal(t, fedex.Weight{Units: shipper.WeightLB, Value: 2}, gotItems[0].Weight)
}

func TestClient_CalculatePrice_RateMismatch(t *testing.T) {
	mockAPI := fedex.NewMockAPIClient()
	client := newTestClient(mockAPI, testStatic())

	price, err := client.CalculatePrice(context.Background(), priceRequest("NONEXISTENT"))

	assert.Nil(t, price)
	assert.True(t, errors.Is(err, shipper.ErrRateMismatch))
	assert.Contains(t, err.Error(), "FedEx calculate price failed")
}

func TestClient_CalculatePrice_NotConfigured(t *testing.T) {
	mockAPI := fedex.NewMockAPIClient()
	disabled := testStatic()
	disabled.Enabled = false
	client := newTestClient(mockAPI, disabled)

	_, err := client.CalculatePrice(context.Background(), priceRequest("FEDEX_GROUND"))

	assert.True(t, errors.Is(err, shipper.ErrConfiguration))
	assert.Zero(t, mockAPI.Calls("Authenticate"))
}

func TestClient_CalculatePrice_EmptyCart(t *testing.T) {
	mockAPI := fedex.NewMockAPIClient()
	client := newTestClient(mockAPI, testStatic())

	req := priceRequest("FEDEX_GROUND")
	req.Context.Items = nil

	_, err := client.CalculatePrice(context.Background(), req)

	assert.True(t, errors.Is(err, shipper.ErrInvalidInput))
	assert.Zero(t, mockAPI.Calls("Authenticate"))
	assert.Zero(t, mockAPI.Calls("GetRates"))
}

func TestClient_CalculatePrice_MissingAddress(t *testing.T) {
	mockAPI := fedex.NewMockAPIClient()
	client := newTestClient(mockAPI, testStatic())

	noDest := priceRequest("FEDEX_GROUND")
	noDest.Context.ShippingAddress.PostalCode = ""
	_, err := client.CalculatePrice(context.Background(), noDest)
	assert.True(t, errors.Is(err, shipper.ErrConfiguration))

	noOrigin := priceRequest("FEDEX_GROUND")
	noOrigin.Context.FromLocation = nil
	_, err = client.CalculatePrice(context.Background(), noOrigin)
	assert.True(t, errors.Is(err, shipper.ErrConfiguration))

	assert.Zero(t, mockAPI.Calls("Authenticate"))
}

func TestClient_CalculatePrice_AuthFailure(t *testing.T) {
	mockAPI := fedex.NewMockAPIClient()
	mockAPI.OnAuthenticate = func(ctx context.Context, baseURL, clientID, clientSecret string) (string, error) {
		return "", shipper.NewShipperError("fedex", shipper.CodeAuth, "Unauthorized").WithStatusCode(http.StatusUnauthorized)
	}
	client := newTestClient(mockAPI, testStatic())

	_, err := client.CalculatePrice(context.Background(), priceRequest("FEDEX_GROUND"))

	assert.True(t, errors.Is(err, shipper.ErrAuth))
	assert.Zero(t, mockAPI.Calls("GetRates"))
}

func TestClient_CalculatePrice_UpstreamError(t *testing.T) {
	mockAPI := fedex.NewMockAPIClient()
	mockAPI.SimulateErrors = true
	client := newTestClient(mockAPI, testStatic())

	price, err := client.CalculatePrice(context.Background(), priceRequest("FEDEX_GROUND"))

	assert.Nil(t, price)
	assert.True(t, errors.Is(err, shipper.ErrUpstream))
}

func TestClient_CalculatePrice_SlowUpstream(t *testing.T) {
	mockAPI := fedex.NewMockAPIClient()
	mockAPI.SimulateLatency = 20 * time.Millisecond
	client := newTestClient(mockAPI, testStatic())

	start := time.Now()
	price, err := client.CalculatePrice(context.Background(), priceRequest("FEDEX_GROUND"))

	require.NoError(t, err)
	assert.True(t, price.CalculatedAmount.Equal(decimal.RequireFromString("12.45")), "got %s", price.CalculatedAmount)
	// One token request and one rate request.
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestClient_CalculatePrice_UsesStoredCredentials(t *testing.T) {
	mockAPI := fedex.NewMockAPIClient()
	var gotID, gotBase string
	mockAPI.OnAuthenticate = func(ctx context.Context, baseURL, clientID, clientSecret string) (string, error) {
		gotID, gotBase = clientID, baseURL
		return "tok", nil
	}

	stored := storedCredentials()
	stored.SandboxMode = false
	host := newFakeHost()
	client := fedex.NewWithAPIClient(
		fedex.Config{Static: testStatic()},
		fedex.Deps{Store: &fakeStore{creds: &stored}, Locations: host, Options: host, Channels: host},
		mockAPI,
		otelzap.New(zap.NewNop()),
		nil,
	)

	_, err := client.CalculatePrice(context.Background(), priceRequest("FEDEX_GROUND"))

	require.NoError(t, err)
	assert.Equal(t, "db-id", gotID)
	assert.Equal(t, "https://apis.fedex.com", gotBase)
}

func TestClient_CreateFulfillment_Success(t *testing.T) {
	mockAPI := fedex.NewMockAPIClient()
	var got fedex.ShipmentParams
	mockAPI.OnCreateShipment = func(ctx context.Context, sess fedex.Session, params fedex.ShipmentParams) (*fedex.ShipmentResult, error) {
		got = params
		tn := "794644790138"
		label := "https://wwwtest.fedex.com/document/label.pdf"
		return &fedex.ShipmentResult{TrackingNumber: &tn, TrackingURL: fedex.TrackingURL(&tn), LabelURL: &label}, nil
	}
	client := newTestClient(mockAPI, testStatic())

	result, err := client.CreateFulfillment(context.Background(), fulfillmentRequest())

	require.NoError(t, err)
	require.Len(t, result.Labels, 1)
	assert.Equal(t, shipper.Label{
		TrackingNumber: "794644790138",
		TrackingURL:    "https://www.fedex.com/fedextrack/?trknbr=794644790138",
		LabelURL:       "https://wwwtest.fedex.com/document/label.pdf",
	}, result.Labels[0])
	assert.Equal(t, map[string]any{
		"tracking_number": "794644790138",
		"tracking_url":    "https://www.fedex.com/fedextrack/?trknbr=794644790138",
		"label_url":       "https://wwwtest.fedex.com/document/label.pdf",
	}, result.Data)

	assert.Equal(t, "FEDEX_GROUND", got.ServiceCode)
	assert.Equal(t, fedex.Address{
		StreetLines:         []string{"1 Dock Rd"},
		City:                "Pompano Beach",
		StateOrProvinceCode: "FL",
		PostalCode:          "33064",
		CountryCode:         "US",
	}, got.Origin)
	assert.Equal(t, fedex.Contact{PersonName: "Webshop", PhoneNumber: "5551234567"}, got.OriginContact)
	assert.Equal(t, "NY", got.Destination.StateOrProvinceCode)
	assert.Equal(t, fedex.Contact{PersonName: "Ada Lovelace", PhoneNumber: "5559876543"}, got.DestinationContact)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 1, got.Items[0].GroupPackageCount)
	assert.Equal(t, &fedex.Dimensions{Length: 10, Width: 6, Height: 4, Units: shipper.DimensionIN}, got.Items[0].Dimensions)
}

const numericCatalog = `
stock_locations:
  - id: sloc_1
    address:
      address_1: 1 Dock Rd
      city: Pompano Beach
      province: Florida
      postal_code: "33064"
      country_code: US
shipping_options:
  - id: so_ground
    name: Ground
    data:
      carrier_code: 92
sales_channels:
  - id: sc_1
    name: Webshop
    metadata:
      phone: 5551234567
`

func TestClient_CreateFulfillment_NumericCatalogValues(t *testing.T) {
	cat, err := catalog.Parse([]byte(numericCatalog))
	require.NoError(t, err)

	mockAPI := fedex.NewMockAPIClient()
	var got fedex.ShipmentParams
	mockAPI.OnCreateShipment = func(ctx context.Context, sess fedex.Session, params fedex.ShipmentParams) (*fedex.ShipmentResult, error) {
		got = params
		tn := "794644790138"
		return &fedex.ShipmentResult{TrackingNumber: &tn, TrackingURL: fedex.TrackingURL(&tn)}, nil
	}
	client := fedex.NewWithAPIClient(
		fedex.Config{Static: testStatic()},
		fedex.Deps{Locations: cat, Options: cat, Channels: cat},
		mockAPI,
		otelzap.New(zap.NewNop()),
		nil,
	)

	_, err = client.CreateFulfillment(context.Background(), fulfillmentRequest())

	require.NoError(t, err)
	assert.Equal(t, "92", got.ServiceCode)
	assert.Equal(t, fedex.Contact{PersonName: "Webshop", PhoneNumber: "5551234567"}, got.OriginContact)
}

func TestClient_CreateFulfillment_JSONNumberValues(t *testing.T) {
	host := newFakeHost()
	// encoding/json decodes unquoted numbers into float64.
	host.options["so_ground"].Data = map[string]any{"carrier_code": float64(92)}
	host.channels["sc_1"].Metadata = map[string]any{"phone": float64(5551234567)}

	mockAPI := fedex.NewMockAPIClient()
	var got fedex.ShipmentParams
	mockAPI.OnCreateShipment = func(ctx context.Context, sess fedex.Session, params fedex.ShipmentParams) (*fedex.ShipmentResult, error) {
		got = params
		return &fedex.ShipmentResult{}, nil
	}
	client := fedex.NewWithAPIClient(
		fedex.Config{Static: testStatic()},
		fedex.Deps{Locations: host, Options: host, Channels: host},
		mockAPI,
		otelzap.New(zap.NewNop()),
		nil,
	)

	_, err := client.CreateFulfillment(context.Background(), fulfillmentRequest())

	require.NoError(t, err)
	assert.Equal(t, "92", got.ServiceCode)
	assert.Equal(t, "5551234567", got.OriginContact.PhoneNumber)
}

func TestClient_CreateFulfillment_RecipientFromData(t *testing.T) {
	mockAPI := fedex.NewMockAPIClient()
	var got fedex.ShipmentParams
	mockAPI.OnCreateShipment = func(ctx context.Context, sess fedex.Session, params fedex.ShipmentParams) (*fedex.ShipmentResult, error) {
		got = params
		return &fedex.ShipmentResult{}, nil
	}
	client := newTestClient(mockAPI, testStatic())

	req := fulfillmentRequest()
	req.Order.ShippingAddress = nil
	req.Data = map[string]any{
		"to_address": map[string]any{
			"first_name":   "Grace",
			"last_name":    "Hopper",
			"address_1":    "1 Navy Way",
			"city":         "Arlington",
			"province":     "virginia",
			"postal_code":  "22202",
			"country_code": "us",
		},
	}

	result, err := client.CreateFulfillment(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "VA", got.Destination.StateOrProvinceCode)
	assert.Equal(t, "US", got.Destination.CountryCode)
	assert.Equal(t, "Grace Hopper", got.DestinationContact.PersonName)
	assert.Equal(t, "", result.Labels[0].TrackingNumber)
	assert.Equal(t, "", result.Labels[0].TrackingURL)
}

func TestClient_CreateFulfillment_PreconditionErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(req *shipper.CreateFulfillmentRequest)
		want   error
	}{
		{"no location id", func(r *shipper.CreateFulfillmentRequest) { r.Fulfillment.LocationID = "" }, shipper.ErrConfiguration},
		{"unknown location", func(r *shipper.CreateFulfillmentRequest) { r.Fulfillment.LocationID = "sloc_missing" }, shipper.ErrNotFound},
		{"location without postal code", func(r *shipper.CreateFulfillmentRequest) { r.Fulfillment.LocationID = "sloc_nopostal" }, shipper.ErrConfiguration},
		{"unknown shipping option", func(r *shipper.CreateFulfillmentRequest) { r.Fulfillment.ShippingOptionID = "so_missing" }, shipper.ErrNotFound},
		{"option without carrier code", func(r *shipper.CreateFulfillmentRequest) { r.Fulfillment.ShippingOptionID = "so_blank" }, shipper.ErrNotFound},
		{"unknown sales channel", func(r *shipper.CreateFulfillmentRequest) { r.Order.SalesChannelID = "sc_missing" }, shipper.ErrNotFound},
		{"channel without phone", func(r *shipper.CreateFulfillmentRequest) { r.Order.SalesChannelID = "sc_nophone" }, shipper.ErrConfiguration},
		{"no recipient", func(r *shipper.CreateFulfillmentRequest) { r.Order.ShippingAddress = nil }, shipper.ErrConfiguration},
		{"no items", func(r *shipper.CreateFulfillmentRequest) { r.Items = nil }, shipper.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAPI := fedex.NewMockAPIClient()
			client := newTestClient(mockAPI, testStatic())

			req := fulfillmentRequest()
			tt.mutate(req)

			result, err := client.CreateFulfillment(context.Background(), req)

			assert.Nil(t, result)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Zero(t, mockAPI.Calls("Authenticate"))
			assert.Zero(t, mockAPI.Calls("CreateShipment"))
		})
	}
}

func TestClient_CreateFulfillment_UpstreamError(t *testing.T) {
	mockAPI := fedex.NewMockAPIClient()
	mockAPI.SimulateErrors = true
	client := newTestClient(mockAPI, testStatic())

	result, err := client.CreateFulfillment(context.Background(), fulfillmentRequest())

	assert.Nil(t, result)
	assert.True(t, errors.Is(err, shipper.ErrUpstream))
	assert.Contains(t, err.Error(), "FedEx create fulfillment failed")
}

func TestClient_DiscoverServices(t *testing.T) {
	mockAPI := fedex.NewMockAPIClient()
	var gotUnit shipper.WeightUnit
	mockAPI.OnDiscoverServices = func(ctx context.Context, sess fedex.Session, unit shipper.WeightUnit) ([]fedex.RateQuote, error) {
		gotUnit = unit
		return []fedex.RateQuote{{ServiceCode: "FEDEX_GROUND", ServiceName: "FedEx Ground"}}, nil
	}

	// Disabled but complete credentials may still discover services.
	static := testStatic()
	static.Enabled = false
	static.WeightUnit = ""
	client := newTestClient(mockAPI, static)

	quotes, err := client.DiscoverServices(context.Background())

	require.NoError(t, err)
	assert.Len(t, quotes, 1)
	assert.Equal(t, shipper.WeightLB, gotUnit)
}

// End-to-end against the fake FedEx server.

func newHTTPBackedClient(t *testing.T, fake *fakeFedEx) *fedex.Client {
	t.Helper()

	host := newFakeHost()
	static := testStatic()
	static.SandboxMode = false
	return fedex.New(
		fedex.Config{Static: static, ProductionURL: fake.URL},
		fedex.Deps{Locations: host, Options: host, Channels: host},
		otelzap.New(zap.NewNop()),
		nil,
	)
}

func TestClient_HTTP_CalculatePrice(t *testing.T) {
	fake := newFakeFedEx(t)
	client := newHTTPBackedClient(t, fake)

	price, err := client.CalculatePrice(context.Background(), priceRequest("FEDEX_GROUND"))

	require.NoError(t, err)
	assert.Equal(t, "14.27", price.CalculatedAmount.String())
	assert.Equal(t, 1, fake.count("/oauth/token"))
	assert.Equal(t, 1, fake.count("/rate/v1/rates/quotes"))
}

func TestClient_HTTP_CreateFulfillment_MissingPostalCodeMakesNoCalls(t *testing.T) {
	fake := newFakeFedEx(t)
	client := newHTTPBackedClient(t, fake)

	req := fulfillmentRequest()
	req.Fulfillment.LocationID = "sloc_nopostal"

	_, err := client.CreateFulfillment(context.Background(), req)

	assert.True(t, errors.Is(err, shipper.ErrConfiguration))
	assert.Zero(t, fake.total())
}

func TestClient_HTTP_CreateFulfillment_ServerError(t *testing.T) {
	fake := newFakeFedEx(t)
	fake.respond("/ship/v1/shipments", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"errors":[{"code":"SYSTEM.UNEXPECTED.ERROR"}]}`)
	})
	client := newHTTPBackedClient(t, fake)

	result, err := client.CreateFulfillment(context.Background(), fulfillmentRequest())

	assert.Nil(t, result)
	assert.True(t, errors.Is(err, shipper.ErrUpstream))
	assert.Equal(t, 1, fake.count("/ship/v1/shipments"))
}
