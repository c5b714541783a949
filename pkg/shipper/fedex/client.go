// Package fedex provides the FedEx fulfillment provider: credential
// resolution, rate quotes and shipment creation against the FedEx REST API.
package fedex

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/tournevent/fedexbridge/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const carrierName = "fedex"

const (
	DefaultProductionURL = "https://apis.fedex.com"
	DefaultSandboxURL    = "https://apis-sandbox.fedex.com"
)

// Config holds FedEx configuration.
type Config struct {
	// Static is used whenever no complete credential record is stored.
	Static        shipper.Credentials
	ProductionURL string
	SandboxURL    string
	HTTPTimeout   time.Duration
	UseMock       bool
}

// Deps are the host collaborators the provider reads from.
type Deps struct {
	Store     shipper.CredentialStore
	Locations shipper.StockLocationService
	Options   shipper.ShippingOptionService
	Channels  shipper.SalesChannelService
}

// Client is the FedEx fulfillment provider.
type Client struct {
	config      Config
	apiClient   APIClient
	credentials *CredentialResolver
	locations   shipper.StockLocationService
	options     shipper.ShippingOptionService
	channels    shipper.SalesChannelService
	logger      *otelzap.Logger
	tracer      trace.Tracer
}

// New creates a new FedEx client.
func New(cfg Config, deps Deps, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			Timeout: cfg.HTTPTimeout,
			Logger:  logger,
		})
	}

	return NewWithAPIClient(cfg, deps, apiClient, logger, tracer)
}

// NewWithAPIClient creates a new FedEx client with a custom API client.
func NewWithAPIClient(cfg Config, deps Deps, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(carrierName)
	}
	if cfg.ProductionURL == "" {
		cfg.ProductionURL = DefaultProductionURL
	}
	if cfg.SandboxURL == "" {
		cfg.SandboxURL = DefaultSandboxURL
	}

	return &Client{
		config:      cfg,
		apiClient:   apiClient,
		credentials: NewCredentialResolver(deps.Store, cfg.Static, logger),
		locations:   deps.Locations,
		options:     deps.Options,
		channels:    deps.Channels,
		logger:      logger,
		tracer:      tracer,
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// Credentials returns the resolver backing this client.
func (c *Client) Credentials() *CredentialResolver {
	return c.credentials
}

// BaseURL returns the API root for the given mode.
func (c *Client) BaseURL(sandbox bool) string {
	if sandbox {
		return c.config.SandboxURL
	}
	return c.config.ProductionURL
}

// CanCalculate reports whether prices can be calculated with the resolved credentials.
func (c *Client) CanCalculate(ctx context.Context) bool {
	return c.credentials.Resolve(ctx).Usable()
}

// FulfillmentOptions lists every FedEx service from the mapping table.
func (c *Client) FulfillmentOptions(ctx context.Context) ([]shipper.FulfillmentOption, error) {
	return ServiceOptions(), nil
}

// ValidateFulfillmentData accepts any option data.
func (c *Client) ValidateFulfillmentData(ctx context.Context, optionData, data map[string]any) (bool, error) {
	return true, nil
}

// CalculatePrice quotes the service selected in the option data for a cart.
func (c *Client) CalculatePrice(ctx context.Context, req *shipper.CalculatePriceRequest) (*shipper.CalculatedPrice, error) {
	ctx, span := c.tracer.Start(ctx, "fedex.CalculatePrice")
	defer span.End()

	serviceCode := stringValue(req.OptionData, "service_code")
	span.SetAttributes(attribute.String("fedex.service_code", serviceCode))

	c.logger.Ctx(ctx).Info("Calculating FedEx price",
		zap.String("service_code", serviceCode),
		zap.Int("item_count", len(req.Context.Items)),
	)

	creds := c.credentials.Resolve(ctx)
	if !creds.Usable() {
		return nil, c.fail(ctx, span, "calculate price", notConfigured())
	}
	if len(req.Context.Items) == 0 {
		return nil, c.fail(ctx, span, "calculate price",
			shipper.NewShipperError(carrierName, shipper.CodeInvalidInput, "cart has no items"))
	}
	if serviceCode == "" {
		return nil, c.fail(ctx, span, "calculate price",
			shipper.NewShipperError(carrierName, shipper.CodeInvalidInput, "option data has no service_code"))
	}
	if err := requireAddress(req.Context.ShippingAddress, "shipping address"); err != nil {
		return nil, c.fail(ctx, span, "calculate price", err)
	}
	var origin *shipper.Address
	if req.Context.FromLocation != nil {
		origin = req.Context.FromLocation.Address
	}
	if err := requireAddress(origin, "from location address"); err != nil {
		return nil, c.fail(ctx, span, "calculate price", err)
	}

	sess, err := c.session(ctx, creds)
	if err != nil {
		return nil, c.fail(ctx, span, "calculate price", err)
	}

	quotes, err := c.apiClient.GetRates(ctx, sess,
		addressFromHost(origin, false),
		addressFromHost(req.Context.ShippingAddress, false),
		RateItems(req.Context.Items, creds.WeightUnit),
	)
	if err != nil {
		return nil, c.fail(ctx, span, "calculate price", err)
	}

	quote, ok := findQuote(quotes, serviceCode)
	if !ok {
		return nil, c.fail(ctx, span, "calculate price",
			shipper.NewShipperError(carrierName, shipper.CodeRateMismatch, "no rate returned for "+serviceCode))
	}
	if quote.Price == nil {
		return nil, c.fail(ctx, span, "calculate price",
			shipper.NewShipperError(carrierName, shipper.CodeUpstream, "rate for "+serviceCode+" has no net charge"))
	}

	c.logger.Ctx(ctx).Info("FedEx price calculated",
		zap.String("service_code", serviceCode),
		zap.String("amount", quote.Price.String()),
	)

	return &shipper.CalculatedPrice{
		CalculatedAmount: *quote.Price,
		TaxInclusive:     true,
	}, nil
}

// CreateFulfillment creates a FedEx shipment for a fulfillment and returns its label.
func (c *Client) CreateFulfillment(ctx context.Context, req *shipper.CreateFulfillmentRequest) (*shipper.CreateFulfillmentResult, error) {
	ctx, span := c.tracer.Start(ctx, "fedex.CreateFulfillment")
	defer span.End()

	span.SetAttributes(
		attribute.String("fulfillment.id", req.Fulfillment.ID),
		attribute.String("fulfillment.location_id", req.Fulfillment.LocationID),
	)

	c.logger.Ctx(ctx).Info("Creating FedEx fulfillment",
		zap.String("fulfillment_id", req.Fulfillment.ID),
		zap.String("location_id", req.Fulfillment.LocationID),
		zap.Int("item_count", len(req.Items)),
	)

	creds := c.credentials.Resolve(ctx)
	if !creds.Usable() {
		return nil, c.fail(ctx, span, "create fulfillment", notConfigured())
	}
	if len(req.Items) == 0 {
		return nil, c.fail(ctx, span, "create fulfillment",
			shipper.NewShipperError(carrierName, shipper.CodeInvalidInput, "fulfillment has no items"))
	}

	location, err := c.stockLocation(ctx, req.Fulfillment.LocationID)
	if err != nil {
		return nil, c.fail(ctx, span, "create fulfillment", err)
	}

	serviceCode, err := c.carrierCode(ctx, req.Fulfillment.ShippingOptionID)
	if err != nil {
		return nil, c.fail(ctx, span, "create fulfillment", err)
	}
	span.SetAttributes(attribute.String("fedex.service_code", serviceCode))

	origin, err := c.senderContact(ctx, req.Order)
	if err != nil {
		return nil, c.fail(ctx, span, "create fulfillment", err)
	}

	recipient, err := recipientAddress(req)
	if err != nil {
		return nil, c.fail(ctx, span, "create fulfillment", err)
	}

	sess, err := c.session(ctx, creds)
	if err != nil {
		return nil, c.fail(ctx, span, "create fulfillment", err)
	}

	result, err := c.apiClient.CreateShipment(ctx, sess, ShipmentParams{
		Origin:             addressFromHost(location.Address, true),
		OriginContact:      origin,
		Destination:        addressFromHost(recipient, true),
		DestinationContact: contactFromHost(recipient),
		Items:              ShipmentItems(req.Items, creds.WeightUnit),
		ServiceCode:        serviceCode,
	})
	if err != nil {
		return nil, c.fail(ctx, span, "create fulfillment", err)
	}

	label := shipmentToLabel(result)

	c.logger.Ctx(ctx).Info("FedEx fulfillment created",
		zap.String("fulfillment_id", req.Fulfillment.ID),
		zap.String("tracking_number", label.TrackingNumber),
	)

	return &shipper.CreateFulfillmentResult{
		Labels: []shipper.Label{label},
		Data: map[string]any{
			"tracking_number": label.TrackingNumber,
			"tracking_url":    label.TrackingURL,
			"label_url":       label.LabelURL,
		},
	}, nil
}

// DiscoverServices asks FedEx which services are available for the
// resolved account. Only the account fields need to be set.
func (c *Client) DiscoverServices(ctx context.Context) ([]RateQuote, error) {
	ctx, span := c.tracer.Start(ctx, "fedex.DiscoverServices")
	defer span.End()

	creds := c.credentials.Resolve(ctx)
	if !creds.Complete() {
		return nil, c.fail(ctx, span, "discover services", notConfigured())
	}

	sess, err := c.session(ctx, creds)
	if err != nil {
		return nil, c.fail(ctx, span, "discover services", err)
	}

	unit := creds.WeightUnit
	if unit == "" {
		unit = shipper.WeightLB
	}

	quotes, err := c.apiClient.DiscoverServices(ctx, sess, unit)
	if err != nil {
		return nil, c.fail(ctx, span, "discover services", err)
	}

	c.logger.Ctx(ctx).Info("FedEx services discovered", zap.Int("count", len(quotes)))
	return quotes, nil
}

// session authenticates and returns the values for the data calls that follow.
func (c *Client) session(ctx context.Context, creds shipper.Credentials) (Session, error) {
	baseURL := c.BaseURL(creds.SandboxMode)

	token, err := c.apiClient.Authenticate(ctx, baseURL, creds.ClientID, creds.ClientSecret)
	if err != nil {
		return Session{}, err
	}

	return Session{
		BaseURL:       baseURL,
		Token:         token,
		AccountNumber: creds.AccountNumber,
		Debug:         creds.LoggingEnabled,
	}, nil
}

func (c *Client) stockLocation(ctx context.Context, id string) (*shipper.StockLocation, error) {
	if id == "" {
		return nil, shipper.NewShipperError(carrierName, shipper.CodeConfiguration, "fulfillment has no location_id")
	}
	if c.locations == nil {
		return nil, shipper.NewShipperError(carrierName, shipper.CodeConfiguration, "no stock location service configured")
	}

	location, err := c.locations.RetrieveStockLocation(ctx, id)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, shipper.NewShipperError(carrierName, shipper.CodeNotFound, "stock location "+id+" not found")
	}
	if err := requireAddress(location.Address, "stock location "+id+" address"); err != nil {
		return nil, err
	}

	return location, nil
}

func (c *Client) carrierCode(ctx context.Context, optionID string) (string, error) {
	if optionID == "" {
		return "", shipper.NewShipperError(carrierName, shipper.CodeConfiguration, "fulfillment has no shipping_option_id")
	}
	if c.options == nil {
		return "", shipper.NewShipperError(carrierName, shipper.CodeConfiguration, "no shipping option service configured")
	}

	option, err := c.options.RetrieveShippingOption(ctx, optionID)
	if err != nil {
		return "", err
	}
	if option == nil {
		return "", shipper.NewShipperError(carrierName, shipper.CodeNotFound, "shipping option "+optionID+" not found")
	}

	code := stringValue(option.Data, "carrier_code")
	if code == "" {
		return "", shipper.NewShipperError(carrierName, shipper.CodeNotFound, "shipping option "+optionID+" has no carrier_code")
	}
	return code, nil
}

// senderContact builds the shipper contact from the order's sales channel.
func (c *Client) senderContact(ctx context.Context, order *shipper.FulfillmentOrder) (Contact, error) {
	if order == nil || order.SalesChannelID == "" {
		return Contact{}, shipper.NewShipperError(carrierName, shipper.CodeConfiguration, "order has no sales_channel_id")
	}
	if c.channels == nil {
		return Contact{}, shipper.NewShipperError(carrierName, shipper.CodeConfiguration, "no sales channel service configured")
	}

	channel, err := c.channels.RetrieveSalesChannel(ctx, order.SalesChannelID)
	if err != nil {
		return Contact{}, err
	}
	if channel == nil {
		return Contact{}, shipper.NewShipperError(carrierName, shipper.CodeNotFound, "sales channel "+order.SalesChannelID+" not found")
	}

	phone := stringValue(channel.Metadata, "phone")
	if phone == "" {
		return Contact{}, shipper.NewShipperError(carrierName, shipper.CodeConfiguration,
			"sales channel "+order.SalesChannelID+" has no phone in metadata")
	}

	return Contact{PersonName: channel.Name, PhoneNumber: phone}, nil
}

// fail logs err, marks the span and wraps err with the operation name.
func (c *Client) fail(ctx context.Context, span trace.Span, op string, err error) error {
	c.logger.Ctx(ctx).Error("FedEx "+op+" failed",
		zap.String("code", shipper.CodeOf(err)),
		zap.Error(err),
	)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	return fmt.Errorf("FedEx %s failed: %w", op, err)
}

// ============================================================================
// Conversion helpers
// ============================================================================

func notConfigured() error {
	return shipper.NewShipperError(carrierName, shipper.CodeConfiguration, "FedEx is not configured")
}

func requireAddress(a *shipper.Address, what string) error {
	if a == nil {
		return shipper.NewShipperError(carrierName, shipper.CodeConfiguration, what+" is required")
	}
	if a.Province == "" || a.PostalCode == "" || a.CountryCode == "" {
		return shipper.NewShipperError(carrierName, shipper.CodeConfiguration,
			what+" needs province, postal code and country code")
	}
	return nil
}

// recipientAddress prefers the order shipping address, then data["to_address"].
func recipientAddress(req *shipper.CreateFulfillmentRequest) (*shipper.Address, error) {
	var addr *shipper.Address
	if req.Order != nil && req.Order.ShippingAddress != nil {
		addr = req.Order.ShippingAddress
	} else if raw, ok := req.Data["to_address"]; ok && raw != nil {
		decoded, err := decodeAddress(raw)
		if err != nil {
			return nil, shipper.NewShipperError(carrierName, shipper.CodeInvalidInput, "invalid to_address").WithCause(err)
		}
		addr = decoded
	}

	if err := requireAddress(addr, "recipient address"); err != nil {
		return nil, err
	}
	return addr, nil
}

func decodeAddress(raw any) (*shipper.Address, error) {
	switch v := raw.(type) {
	case *shipper.Address:
		return v, nil
	case shipper.Address:
		return &v, nil
	}

	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var addr shipper.Address
	if err := json.Unmarshal(b, &addr); err != nil {
		return nil, err
	}
	return &addr, nil
}

func findQuote(quotes []RateQuote, serviceCode string) (RateQuote, bool) {
	for _, q := range quotes {
		if q.ServiceCode == serviceCode {
			return q, true
		}
	}
	return RateQuote{}, false
}

func shipmentToLabel(result *ShipmentResult) shipper.Label {
	var label shipper.Label
	if result == nil {
		return label
	}
	if result.TrackingNumber != nil {
		label.TrackingNumber = *result.TrackingNumber
	}
	if result.LabelURL != nil {
		label.LabelURL = *result.LabelURL
	}
	label.TrackingURL = result.TrackingURL
	return label
}

// stringValue renders a scalar from a host data bag as text. YAML and JSON
// decode unquoted phone numbers and codes as numbers.
func stringValue(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v)
	default:
		return ""
	}
}

// Ensure Client implements shipper.Shipper interface
var _ shipper.Shipper = (*Client)(nil)
