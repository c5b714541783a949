// Package shipper provides the host-facing fulfillment provider abstraction.
package shipper

import (
	"context"
)

// Shipper defines the interface a fulfillment provider exposes to the host.
type Shipper interface {
	// Name returns the provider identifier (e.g., "fedex").
	Name() string

	// CanCalculate reports whether the provider is configured to quote prices.
	CanCalculate(ctx context.Context) bool

	// FulfillmentOptions lists the shipping services the provider offers.
	FulfillmentOptions(ctx context.Context) ([]FulfillmentOption, error)

	// ValidateFulfillmentData checks option data before a shipping option is created.
	ValidateFulfillmentData(ctx context.Context, optionData map[string]any, data map[string]any) (bool, error)

	// CalculatePrice quotes the price of a shipping option for a cart.
	CalculatePrice(ctx context.Context, req *CalculatePriceRequest) (*CalculatedPrice, error)

	// CreateFulfillment creates a shipment and returns the label record for the host.
	CreateFulfillment(ctx context.Context, req *CreateFulfillmentRequest) (*CreateFulfillmentResult, error)
}
