package fedex

import (
	"strings"

	"github.com/tournevent/fedexbridge/pkg/shipper"
)

var usStateCodes = map[string]string{
	"alabama":              "AL",
	"alaska":               "AK",
	"arizona":              "AZ",
	"arkansas":             "AR",
	"california":           "CA",
	"colorado":             "CO",
	"connecticut":          "CT",
	"delaware":             "DE",
	"florida":              "FL",
	"georgia":              "GA",
	"hawaii":               "HI",
	"idaho":                "ID",
	"illinois":             "IL",
	"indiana":              "IN",
	"iowa":                 "IA",
	"kansas":               "KS",
	"kentucky":             "KY",
	"louisiana":            "LA",
	"maine":                "ME",
	"maryland":             "MD",
	"massachusetts":        "MA",
	"michigan":             "MI",
	"minnesota":            "MN",
	"mississippi":          "MS",
	"missouri":             "MO",
	"montana":              "MT",
	"nebraska":             "NE",
	"nevada":               "NV",
	"new hampshire":        "NH",
	"new jersey":           "NJ",
	"new mexico":           "NM",
	"new york":             "NY",
	"north carolina":       "NC",
	"north dakota":         "ND",
	"ohio":                 "OH",
	"oklahoma":             "OK",
	"oregon":               "OR",
	"pennsylvania":         "PA",
	"rhode island":         "RI",
	"south carolina":       "SC",
	"south dakota":         "SD",
	"tennessee":            "TN",
	"texas":                "TX",
	"utah":                 "UT",
	"vermont":              "VT",
	"virginia":             "VA",
	"washington":           "WA",
	"west virginia":        "WV",
	"wisconsin":            "WI",
	"wyoming":              "WY",
	"district of columbia": "DC",
}

// StateCode converts a US state name to its two-letter postal code.
// Unknown input (already a code, or a non-US province) is returned unchanged.
func StateCode(name string) string {
	if code, ok := usStateCodes[strings.ToLower(strings.TrimSpace(name))]; ok {
		return code
	}
	return name
}

// StreetLines returns the non-empty address lines in order.
func StreetLines(lines ...string) []string {
	result := make([]string, 0, len(lines))
	for _, l := range lines {
		if l != "" {
			result = append(result, l)
		}
	}
	return result
}

// addressFromHost maps a host address into a FedEx address. Street lines and
// city are only carried when withStreet is set; rate quotes use the postal triple.
func addressFromHost(a *shipper.Address, withStreet bool) Address {
	addr := Address{
		StateOrProvinceCode: StateCode(a.Province),
		PostalCode:          a.PostalCode,
		CountryCode:         strings.ToUpper(a.CountryCode),
	}
	if withStreet {
		addr.StreetLines = StreetLines(a.Address1, a.Address2)
		addr.City = a.City
	}
	return addr
}

func contactFromHost(a *shipper.Address) Contact {
	return Contact{
		PersonName:  strings.TrimSpace(a.FirstName + " " + a.LastName),
		PhoneNumber: a.Phone,
	}
}

// RateItems builds one weight-only package per line item.
func RateItems(items []shipper.LineItem, unit shipper.WeightUnit) []PackageLineItem {
	result := make([]PackageLineItem, len(items))
	for i, item := range items {
		var weight float64
		if item.Variant != nil {
			weight = item.Variant.Weight
		}
		result[i] = PackageLineItem{
			Weight: Weight{Units: unit, Value: orOne(weight)},
		}
	}
	return result
}

// ShipmentItems builds one package per line item with weight and dimensions.
// Missing values default to 1.
func ShipmentItems(items []shipper.LineItem, unit shipper.WeightUnit) []PackageLineItem {
	result := make([]PackageLineItem, len(items))
	for i, item := range items {
		var length, width, height, weight float64
		if item.Variant != nil {
			weight, length, width, height = item.Variant.Weight, item.Variant.Length, item.Variant.Width, item.Variant.Height
		}
		result[i] = PackageLineItem{
			GroupPackageCount: 1,
			Weight:            Weight{Units: unit, Value: orOne(weight)},
			Dimensions: &Dimensions{
				Length: orOne(length),
				Width:  orOne(width),
				Height: orOne(height),
				Units:  shipper.DimensionIN,
			},
		}
	}
	return result
}

func orOne(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v
}
