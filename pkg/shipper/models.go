package shipper

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// WeightUnit represents weight measurement unit.
type WeightUnit string

const (
	WeightLB WeightUnit = "LB"
	WeightKG WeightUnit = "KG"
)

// DimensionUnit represents dimension measurement unit.
type DimensionUnit string

const (
	DimensionIN DimensionUnit = "IN"
)

// Credentials is the merchant's carrier account configuration.
// Exactly one record is authoritative at any time.
type Credentials struct {
	Enabled        bool       `json:"is_enabled" yaml:"is_enabled"`
	ClientID       string     `json:"client_id" yaml:"client_id"`
	ClientSecret   string     `json:"client_secret" yaml:"client_secret"`
	AccountNumber  string     `json:"account_number" yaml:"account_number"`
	SandboxMode    bool       `json:"is_sandbox" yaml:"is_sandbox"`
	LoggingEnabled bool       `json:"enable_logs" yaml:"enable_logs"`
	WeightUnit     WeightUnit `json:"weight_unit_of_measure" yaml:"weight_unit_of_measure"`
}

// Masked returns a copy safe to display, with the client secret hidden.
func (c Credentials) Masked() Credentials {
	if c.ClientSecret != "" {
		c.ClientSecret = "********"
	}
	return c
}

// Complete reports whether the account fields needed to reach the carrier are all set.
func (c Credentials) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.AccountNumber != ""
}

// Usable reports whether the integration is active with these credentials.
func (c Credentials) Usable() bool {
	return c.Enabled && c.Complete() && c.WeightUnit != ""
}

// Validate checks the credentials submitted through the administrative surface.
func (c Credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ClientID, validation.Required, validation.Length(2, 100)),
		validation.Field(&c.ClientSecret, validation.Required, validation.Length(2, 100)),
		validation.Field(&c.AccountNumber, validation.Required, validation.Length(2, 100)),
		validation.Field(&c.WeightUnit, validation.Required, validation.In(WeightLB, WeightKG)),
	)
}

// Address is a host address record (customer shipping address or stock location address).
type Address struct {
	FirstName   string `json:"first_name,omitempty" yaml:"first_name"`
	LastName    string `json:"last_name,omitempty" yaml:"last_name"`
	Phone       string `json:"phone,omitempty" yaml:"phone"`
	Company     string `json:"company,omitempty" yaml:"company"`
	Address1    string `json:"address_1,omitempty" yaml:"address_1"`
	Address2    string `json:"address_2,omitempty" yaml:"address_2"`
	City        string `json:"city,omitempty" yaml:"city"`
	Province    string `json:"province,omitempty" yaml:"province"`
	PostalCode  string `json:"postal_code,omitempty" yaml:"postal_code"`
	CountryCode string `json:"country_code,omitempty" yaml:"country_code"`
}

// StockLocation is a warehouse or store the host ships from.
type StockLocation struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Address *Address `json:"address,omitempty" yaml:"address"`
}

// ShippingOption is a host shipping option; Data carries provider-specific values
// such as "carrier_code".
type ShippingOption struct {
	ID   string         `json:"id" yaml:"id"`
	Name string         `json:"name" yaml:"name"`
	Data map[string]any `json:"data,omitempty" yaml:"data"`
}

// SalesChannel is the storefront an order was placed through.
type SalesChannel struct {
	ID       string         `json:"id" yaml:"id"`
	Name     string         `json:"name" yaml:"name"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata"`
}

// Variant carries the physical attributes of a product variant. Zero means unknown.
type Variant struct {
	ID     string  `json:"id,omitempty"`
	Weight float64 `json:"weight,omitempty"`
	Length float64 `json:"length,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// LineItem is a cart or fulfillment line item.
type LineItem struct {
	ID       string   `json:"id,omitempty"`
	Title    string   `json:"title,omitempty"`
	Quantity int      `json:"quantity,omitempty"`
	Variant  *Variant `json:"variant,omitempty"`
}

// FulfillmentOption is a service the provider can fulfill with.
type FulfillmentOption struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CarrierCode string `json:"carrier_code"`
	CarrierName string `json:"carrier_name"`
	ServiceCode string `json:"service_code"`
}

// ============================================================================
// Request/Response Types
// ============================================================================

// CartContext is the cart state a price is calculated for.
type CartContext struct {
	Items           []LineItem     `json:"items"`
	ShippingAddress *Address       `json:"shipping_address,omitempty"`
	FromLocation    *StockLocation `json:"from_location,omitempty"`
}

// CalculatePriceRequest is the request for quoting a shipping option.
type CalculatePriceRequest struct {
	OptionData map[string]any `json:"option_data"`
	Data       map[string]any `json:"data,omitempty"`
	Context    CartContext    `json:"context"`
}

// CalculatedPrice is the quoted price of a shipping option.
type CalculatedPrice struct {
	CalculatedAmount decimal.Decimal `json:"calculated_amount"`
	TaxInclusive     bool            `json:"is_calculated_price_tax_inclusive"`
}

// FulfillmentOrder is the subset of the order a fulfillment needs.
type FulfillmentOrder struct {
	ID              string   `json:"id,omitempty"`
	SalesChannelID  string   `json:"sales_channel_id,omitempty"`
	ShippingAddress *Address `json:"shipping_address,omitempty"`
}

// FulfillmentInfo identifies where and how a fulfillment ships.
type FulfillmentInfo struct {
	ID               string `json:"id,omitempty"`
	LocationID       string `json:"location_id,omitempty"`
	ShippingOptionID string `json:"shipping_option_id,omitempty"`
}

// CreateFulfillmentRequest is the request for creating a fulfillment.
type CreateFulfillmentRequest struct {
	Data        map[string]any    `json:"data,omitempty"`
	Items       []LineItem        `json:"items"`
	Order       *FulfillmentOrder `json:"order,omitempty"`
	Fulfillment FulfillmentInfo   `json:"fulfillment"`
}

// Label is the label record attached to a fulfillment.
type Label struct {
	TrackingNumber string `json:"tracking_number"`
	TrackingURL    string `json:"tracking_url"`
	LabelURL       string `json:"label_url"`
}

// CreateFulfillmentResult is returned to the host after a shipment is created.
type CreateFulfillmentResult struct {
	Labels []Label        `json:"labels"`
	Data   map[string]any `json:"data"`
}
