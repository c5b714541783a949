// Package catalog serves host records (stock locations, shipping options and
// sales channels) from a YAML file for the standalone service.
package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/tournevent/fedexbridge/pkg/shipper"
	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a catalog.
type File struct {
	StockLocations  []shipper.StockLocation  `yaml:"stock_locations"`
	ShippingOptions []shipper.ShippingOption `yaml:"shipping_options"`
	SalesChannels   []shipper.SalesChannel   `yaml:"sales_channels"`
}

// Catalog is a read-only index of host records keyed by id.
type Catalog struct {
	locations map[string]shipper.StockLocation
	options   map[string]shipper.ShippingOption
	channels  map[string]shipper.SalesChannel
}

// Load reads a catalog file. An empty path yields an empty catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return New(File{}), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a YAML catalog.
func Parse(raw []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	for _, l := range f.StockLocations {
		if l.ID == "" {
			return nil, fmt.Errorf("stock location %q has no id", l.Name)
		}
	}
	for _, o := range f.ShippingOptions {
		if o.ID == "" {
			return nil, fmt.Errorf("shipping option %q has no id", o.Name)
		}
	}
	for _, c := range f.SalesChannels {
		if c.ID == "" {
			return nil, fmt.Errorf("sales channel %q has no id", c.Name)
		}
	}

	return New(f), nil
}

// New indexes the records in f. Later duplicates replace earlier ones.
func New(f File) *Catalog {
	c := &Catalog{
		locations: make(map[string]shipper.StockLocation, len(f.StockLocations)),
		options:   make(map[string]shipper.ShippingOption, len(f.ShippingOptions)),
		channels:  make(map[string]shipper.SalesChannel, len(f.SalesChannels)),
	}
	for _, l := range f.StockLocations {
		c.locations[l.ID] = l
	}
	for _, o := range f.ShippingOptions {
		c.options[o.ID] = o
	}
	for _, ch := range f.SalesChannels {
		c.channels[ch.ID] = ch
	}
	return c
}

// RetrieveStockLocation returns the location, or nil when unknown.
func (c *Catalog) RetrieveStockLocation(ctx context.Context, id string) (*shipper.StockLocation, error) {
	l, ok := c.locations[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

// RetrieveShippingOption returns the option, or nil when unknown.
func (c *Catalog) RetrieveShippingOption(ctx context.Context, id string) (*shipper.ShippingOption, error) {
	o, ok := c.options[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

// RetrieveSalesChannel returns the channel, or nil when unknown.
func (c *Catalog) RetrieveSalesChannel(ctx context.Context, id string) (*shipper.SalesChannel, error) {
	ch, ok := c.channels[id]
	if !ok {
		return nil, nil
	}
	return &ch, nil
}

var (
	_ shipper.StockLocationService  = (*Catalog)(nil)
	_ shipper.ShippingOptionService = (*Catalog)(nil)
	_ shipper.SalesChannelService   = (*Catalog)(nil)
)
