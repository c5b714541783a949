package shipper

import (
	"context"
)

// CredentialStore persists the singleton credential record.
type CredentialStore interface {
	// Get returns the stored credentials, or nil when none have been saved.
	Get(ctx context.Context) (*Credentials, error)

	// Upsert updates the stored record if present, else creates it.
	Upsert(ctx context.Context, creds Credentials) (bool, error)
}

// StockLocationService looks up host stock locations.
type StockLocationService interface {
	// RetrieveStockLocation returns the location with its address, or nil when absent.
	RetrieveStockLocation(ctx context.Context, id string) (*StockLocation, error)
}

// ShippingOptionService looks up host shipping options.
type ShippingOptionService interface {
	// RetrieveShippingOption returns the option, or nil when absent.
	RetrieveShippingOption(ctx context.Context, id string) (*ShippingOption, error)
}

// SalesChannelService looks up host sales channels.
type SalesChannelService interface {
	// RetrieveSalesChannel returns the channel, or nil when absent.
	RetrieveSalesChannel(ctx context.Context, id string) (*SalesChannel, error)
}
