package fedex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tournevent/fedexbridge/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const (
	pickupDropoff      = "DROPOFF_AT_FEDEX_LOCATION"
	packagingOwn       = "YOUR_PACKAGING"
	trackingURLPattern = "https://www.fedex.com/fedextrack/?trknbr=%s"
)

// HTTPAPIClient is the production implementation of APIClient using HTTP.
type HTTPAPIClient struct {
	httpClient *http.Client
	logger     *otelzap.Logger
	now        func() time.Time
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	Timeout time.Duration // Zero leaves the http.Client default (no timeout)
	Logger  *otelzap.Logger
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	logger := cfg.Logger
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}

	return &HTTPAPIClient{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
		now:    time.Now,
	}
}

// Authenticate requests an OAuth token with the client-credentials grant.
// POST /oauth/token
func (c *HTTPAPIClient) Authenticate(ctx context.Context, baseURL, clientID, clientSecret string) (string, error) {
	if clientID == "" {
		return "", shipper.NewShipperError(carrierName, shipper.CodeConfiguration, "client ID is required")
	}
	if clientSecret == "" {
		return "", shipper.NewShipperError(carrierName, shipper.CodeConfiguration, "client secret is required")
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", shipper.NewShipperError(carrierName, shipper.CodeAuth, "auth request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return "", shipper.NewShipperError(carrierName, shipper.CodeAuth, "auth request failed: "+statusText(resp)).
			WithStatusCode(resp.StatusCode).
			WithCause(c.parseError(resp))
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", shipper.NewShipperError(carrierName, shipper.CodeAuth, "failed to decode token response").
			WithStatusCode(resp.StatusCode).
			WithCause(err)
	}
	if token.AccessToken == "" {
		return "", shipper.NewShipperError(carrierName, shipper.CodeAuth, "token response has no access_token").
			WithStatusCode(resp.StatusCode)
	}

	return token.AccessToken, nil
}

// GetRates fetches rate quotes from the Rate and Transit Times API.
// POST /rate/v1/rates/quotes
func (c *HTTPAPIClient) GetRates(ctx context.Context, sess Session, origin, destination Address, items []PackageLineItem) ([]RateQuote, error) {
	if len(items) == 0 {
		return nil, shipper.NewShipperError(carrierName, shipper.CodeInvalidInput, "invalid items array")
	}

	// Rates are keyed on the postal triple only.
	body := newRateRequest(sess.AccountNumber, rateAddress(origin), rateAddress(destination), items, true)

	return c.postRates(ctx, sess, body)
}

// DiscoverServices asks FedEx which services it offers for a minimal
// domestic parcel. The result is a deduplicated list of codes and names.
func (c *HTTPAPIClient) DiscoverServices(ctx context.Context, sess Session, unit shipper.WeightUnit) ([]RateQuote, error) {
	origin := Address{StateOrProvinceCode: "FL", PostalCode: "33064", CountryCode: "US"}
	destination := Address{StateOrProvinceCode: "FL", PostalCode: "33442", CountryCode: "US"}
	items := []PackageLineItem{{Weight: Weight{Units: unit, Value: 1}}}

	body := newRateRequest(sess.AccountNumber, origin, destination, items, false)

	return c.postRates(ctx, sess, body)
}

func (c *HTTPAPIClient) postRates(ctx context.Context, sess Session, body *rateRequest) ([]RateQuote, error) {
	if sess.Debug {
		c.logger.Ctx(ctx).Debug("FedEx rate quote request", zap.Any("payload", body))
	}

	resp, err := c.doRequest(ctx, sess, "/rate/v1/rates/quotes", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		raw, _ := io.ReadAll(resp.Body)
		if sess.Debug {
			c.logger.Ctx(ctx).Error("FedEx rate quote request failed",
				zap.Int("status", resp.StatusCode),
				zap.ByteString("body", raw),
			)
		}
		return nil, shipper.NewShipperError(carrierName, shipper.CodeUpstream, "rate quote request failed: "+statusText(resp)).
			WithStatusCode(resp.StatusCode).
			WithBody(string(raw))
	}

	var result rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, shipper.NewShipperError(carrierName, shipper.CodeUpstream, "failed to decode rate response").
			WithStatusCode(resp.StatusCode).
			WithCause(err)
	}

	if sess.Debug {
		c.logger.Ctx(ctx).Debug("FedEx rate quote response",
			zap.Int("rate_reply_details", len(result.Output.RateReplyDetails)),
		)
	}

	return convertRateReplies(result.Output.RateReplyDetails), nil
}

// CreateShipment creates a shipment and requests a hosted PDF label.
// POST /ship/v1/shipments
func (c *HTTPAPIClient) CreateShipment(ctx context.Context, sess Session, params ShipmentParams) (*ShipmentResult, error) {
	body := &shipmentRequest{
		AccountNumber:        accountNumber{Value: sess.AccountNumber},
		LabelResponseOptions: "URL_ONLY",
		RequestedShipment: requestedShipment{
			Shipper: party{Address: params.Origin, Contact: params.OriginContact},
			Recipients: []party{
				{Address: params.Destination, Contact: params.DestinationContact},
			},
			PickupType:                pickupDropoff,
			PackagingType:             packagingOwn,
			RequestedPackageLineItems: params.Items,
			ServiceType:               params.ServiceCode,
			ShipTimestamp:             c.now().UTC().Format(time.RFC3339),
			LabelSpecification: labelSpecification{
				ImageType:       "PDF",
				LabelStockType:  "PAPER_4X6",
				LabelFormatType: "COMMON2D",
				LabelRotation:   "NONE",
			},
			ShippingChargesPayment: chargesPayment{PaymentType: "SENDER"},
		},
	}
	body.RequestedShipment.ShippingChargesPayment.Payor.ResponsibleParty.AccountNumber = accountNumber{Value: sess.AccountNumber}

	if sess.Debug {
		c.logger.Ctx(ctx).Debug("FedEx create shipment payload", zap.Any("payload", body))
	}

	resp, err := c.doRequest(ctx, sess, "/ship/v1/shipments", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		raw, _ := io.ReadAll(resp.Body)
		if sess.Debug {
			c.logger.Ctx(ctx).Error("FedEx create shipment failed",
				zap.Int("status", resp.StatusCode),
				zap.ByteString("body", raw),
			)
		}
		return nil, shipper.NewShipperError(carrierName, shipper.CodeUpstream,
			fmt.Sprintf("create shipment failed [%d]: %s", resp.StatusCode, string(raw))).
			WithStatusCode(resp.StatusCode).
			WithBody(string(raw))
	}

	var result shipmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, shipper.NewShipperError(carrierName, shipper.CodeUpstream, "failed to decode shipment response").
			WithStatusCode(resp.StatusCode).
			WithCause(err)
	}

	if sess.Debug {
		c.logger.Ctx(ctx).Debug("FedEx create shipment response",
			zap.Int("transaction_shipments", len(result.Output.TransactionShipments)),
		)
	}

	return convertShipmentResponse(&result), nil
}

// ============================================================================
// Request builders and response conversion
// ============================================================================

func newRateRequest(account string, origin, destination Address, items []PackageLineItem, transitTimes bool) *rateRequest {
	return &rateRequest{
		AccountNumber:                accountNumber{Value: account},
		RateRequestControlParameters: rateControlParameters{ReturnTransitTimes: transitTimes},
		RequestedShipment: requestedRateShipment{
			Shipper:                   partyAddress{Address: origin},
			Recipient:                 partyAddress{Address: destination},
			PickupType:                pickupDropoff,
			PackagingType:             packagingOwn,
			RateRequestType:           []string{"ACCOUNT", "LIST"},
			RequestedPackageLineItems: items,
		},
	}
}

func rateAddress(a Address) Address {
	return Address{
		StateOrProvinceCode: a.StateOrProvinceCode,
		PostalCode:          a.PostalCode,
		CountryCode:         a.CountryCode,
	}
}

// convertRateReplies maps rate reply details to quotes, one per service code.
// A reply without a service name takes the catalog name for its code.
// The first rated shipment detail supplies the price.
// TODO: select the ACCOUNT rate explicitly once FedEx returns ACCOUNT and LIST tiers in separate entries.
func convertRateReplies(details []rateReplyDetail) []RateQuote {
	quotes := make([]RateQuote, 0, len(details))
	seen := make(map[string]struct{}, len(details))
	for _, d := range details {
		if _, ok := seen[d.ServiceType]; ok {
			continue
		}
		seen[d.ServiceType] = struct{}{}

		q := RateQuote{
			ServiceCode: d.ServiceType,
			ServiceName: d.ServiceName,
		}
		if q.ServiceName == "" {
			q.ServiceName, _ = ServiceName(d.ServiceType)
		}
		if len(d.RatedShipmentDetails) > 0 {
			q.Price = d.RatedShipmentDetails[0].TotalNetCharge
		}
		if d.Commit != nil && d.Commit.TransitDays != nil {
			q.EstimatedDelivery = d.Commit.TransitDays.Description
		}
		quotes = append(quotes, q)
	}
	return quotes
}

func convertShipmentResponse(resp *shipmentResponse) *ShipmentResult {
	result := &ShipmentResult{}
	if len(resp.Output.TransactionShipments) == 0 {
		return result
	}

	shipment := resp.Output.TransactionShipments[0]
	if shipment.MasterTrackingNumber != "" {
		tn := shipment.MasterTrackingNumber
		result.TrackingNumber = &tn
	}
	if len(shipment.PieceResponses) > 0 && len(shipment.PieceResponses[0].PackageDocuments) > 0 {
		if u := shipment.PieceResponses[0].PackageDocuments[0].URL; u != "" {
			result.LabelURL = &u
		}
	}
	result.TrackingURL = TrackingURL(result.TrackingNumber)

	return result
}

// TrackingURL returns the public tracking page for a tracking number,
// or "" when there is none.
func TrackingURL(trackingNumber *string) string {
	if trackingNumber == nil || *trackingNumber == "" {
		return ""
	}
	return fmt.Sprintf(trackingURLPattern, *trackingNumber)
}

// ============================================================================
// HTTP Helpers
// ============================================================================

// doRequest performs an authenticated JSON POST.
func (c *HTTPAPIClient) doRequest(ctx context.Context, sess Session, path string, body interface{}) (*http.Response, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sess.BaseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+sess.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-locale", "en_US")
	req.Header.Set("X-account-number", sess.AccountNumber)
	req.Header.Set("x-customer-transaction-id", uuid.New().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, shipper.NewShipperError(carrierName, shipper.CodeUpstream, "request to "+path+" failed").WithCause(err)
	}
	return resp, nil
}

// parseError extracts the FedEx error envelope from a response, if present.
func (c *HTTPAPIClient) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && len(apiErr.Errors) > 0 {
		return &apiErr
	}
	if len(body) == 0 {
		return nil
	}
	return fmt.Errorf("HTTP_%d: %s", resp.StatusCode, string(body))
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

// statusText mirrors the status line reason phrase, e.g. "Unauthorized".
func statusText(resp *http.Response) string {
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
