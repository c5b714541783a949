// Package mock provides a mock shipper implementation for testing.
package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tournevent/fedexbridge/pkg/shipper"
)

// Client is a mock shipper for testing. Set Err to make every
// fallible operation fail with it.
type Client struct {
	name string

	Enabled bool
	Err     error
	Amount  decimal.Decimal
}

// New creates a new mock shipper that can calculate prices.
func New(name string) *Client {
	return &Client{
		name:    name,
		Enabled: true,
		Amount:  decimal.RequireFromString("15.82"),
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return c.name
}

// CanCalculate reports the Enabled flag.
func (c *Client) CanCalculate(ctx context.Context) bool {
	return c.Enabled
}

// FulfillmentOptions returns two mock services.
func (c *Client) FulfillmentOptions(ctx context.Context) ([]shipper.FulfillmentOption, error) {
	if c.Err != nil {
		return nil, c.Err
	}

	return []shipper.FulfillmentOption{
		{ID: "STANDARD", Name: c.name + " Standard", CarrierCode: "STANDARD", CarrierName: c.name + " Standard", ServiceCode: "STANDARD"},
		{ID: "EXPRESS", Name: c.name + " Express", CarrierCode: "EXPRESS", CarrierName: c.name + " Express", ServiceCode: "EXPRESS"},
	}, nil
}

// ValidateFulfillmentData accepts everything.
func (c *Client) ValidateFulfillmentData(ctx context.Context, optionData, data map[string]any) (bool, error) {
	return true, nil
}

// CalculatePrice returns Amount for any request with items.
func (c *Client) CalculatePrice(ctx context.Context, req *shipper.CalculatePriceRequest) (*shipper.CalculatedPrice, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	if len(req.Context.Items) == 0 {
		return nil, shipper.NewShipperError(c.name, shipper.CodeInvalidInput, "cart has no items")
	}

	return &shipper.CalculatedPrice{CalculatedAmount: c.Amount, TaxInclusive: true}, nil
}

// CreateFulfillment returns a mock label.
func (c *Client) CreateFulfillment(ctx context.Context, req *shipper.CreateFulfillmentRequest) (*shipper.CreateFulfillmentResult, error) {
	if c.Err != nil {
		return nil, c.Err
	}

	trackingNumber := fmt.Sprintf("MOCK%d", time.Now().UnixNano()%1000000000)
	label := shipper.Label{
		TrackingNumber: trackingNumber,
		TrackingURL:    fmt.Sprintf("https://track.%s.mock/track/%s", c.name, trackingNumber),
		LabelURL:       fmt.Sprintf("https://labels.%s.mock/%s.pdf", c.name, trackingNumber),
	}

	return &shipper.CreateFulfillmentResult{
		Labels: []shipper.Label{label},
		Data: map[string]any{
			"tracking_number": label.TrackingNumber,
			"tracking_url":    label.TrackingURL,
			"label_url":       label.LabelURL,
		},
	}, nil
}

var _ shipper.Shipper = (*Client)(nil)
