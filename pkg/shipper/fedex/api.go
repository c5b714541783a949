package fedex

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tournevent/fedexbridge/pkg/shipper"
)

// APIClient defines the interface for FedEx API operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// Authenticate exchanges client credentials for a bearer token.
	Authenticate(ctx context.Context, baseURL, clientID, clientSecret string) (string, error)

	// GetRates fetches rate quotes for a set of packages.
	GetRates(ctx context.Context, sess Session, origin, destination Address, items []PackageLineItem) ([]RateQuote, error)

	// CreateShipment creates a shipment and its label.
	CreateShipment(ctx context.Context, sess Session, params ShipmentParams) (*ShipmentResult, error)

	// DiscoverServices lists the services FedEx offers for a minimal parcel.
	DiscoverServices(ctx context.Context, sess Session, unit shipper.WeightUnit) ([]RateQuote, error)
}

// Session carries the per-operation values every authenticated call needs.
type Session struct {
	BaseURL       string
	Token         string
	AccountNumber string
	Debug         bool // Log request and response payloads
}

// ============================================================================
// Normalized carrier shapes
// ============================================================================

// Address is a FedEx address.
type Address struct {
	StreetLines         []string `json:"streetLines,omitempty"`
	City                string   `json:"city,omitempty"`
	StateOrProvinceCode string   `json:"stateOrProvinceCode"`
	PostalCode          string   `json:"postalCode"`
	CountryCode         string   `json:"countryCode"`
}

// Contact is a FedEx contact.
type Contact struct {
	PersonName  string `json:"personName"`
	PhoneNumber string `json:"phoneNumber"`
}

// Weight is a package weight.
type Weight struct {
	Units shipper.WeightUnit `json:"units"`
	Value float64            `json:"value"`
}

// Dimensions are package dimensions.
type Dimensions struct {
	Length float64               `json:"length"`
	Width  float64               `json:"width"`
	Height float64               `json:"height"`
	Units  shipper.DimensionUnit `json:"units"`
}

// PackageLineItem is one parcel in a rate or shipment request.
type PackageLineItem struct {
	GroupPackageCount int         `json:"groupPackageCount,omitempty"`
	Weight            Weight      `json:"weight"`
	Dimensions        *Dimensions `json:"dimensions,omitempty"`
}

// RateQuote is one service offered for a rate request.
type RateQuote struct {
	ServiceCode       string
	ServiceName       string
	Price             *decimal.Decimal
	EstimatedDelivery string
}

// ShipmentParams are the inputs of a shipment creation call.
type ShipmentParams struct {
	Origin             Address
	OriginContact      Contact
	Destination        Address
	DestinationContact Contact
	Items              []PackageLineItem
	ServiceCode        string
}

// ShipmentResult holds the identifiers returned for a created shipment.
// TrackingNumber and LabelURL are nil when the carrier omitted them.
type ShipmentResult struct {
	TrackingNumber *string
	TrackingURL    string
	LabelURL       *string
}

// ============================================================================
// API Request/Response Types (match FedEx REST API structure)
// ============================================================================

type accountNumber struct {
	Value string `json:"value"`
}

type partyAddress struct {
	Address Address `json:"address"`
}

type party struct {
	Address Address `json:"address"`
	Contact Contact `json:"contact"`
}

// rateRequest is the POST /rate/v1/rates/quotes body.
type rateRequest struct {
	AccountNumber                accountNumber         `json:"accountNumber"`
	RateRequestControlParameters rateControlParameters `json:"rateRequestControlParameters"`
	RequestedShipment            requestedRateShipment `json:"requestedShipment"`
}

type rateControlParameters struct {
	ReturnTransitTimes bool `json:"returnTransitTimes"`
}

type requestedRateShipment struct {
	Shipper                   partyAddress      `json:"shipper"`
	Recipient                 partyAddress      `json:"recipient"`
	PickupType                string            `json:"pickupType"`
	PackagingType             string            `json:"packagingType"`
	RateRequestType           []string          `json:"rateRequestType"`
	RequestedPackageLineItems []PackageLineItem `json:"requestedPackageLineItems"`
}

// rateResponse is the rate quote response body.
type rateResponse struct {
	Output struct {
		RateReplyDetails []rateReplyDetail `json:"rateReplyDetails"`
	} `json:"output"`
}

type rateReplyDetail struct {
	ServiceType          string                `json:"serviceType"`
	ServiceName          string                `json:"serviceName"`
	RatedShipmentDetails []ratedShipmentDetail `json:"ratedShipmentDetails"`
	Commit               *struct {
		TransitDays *struct {
			Description string `json:"description"`
		} `json:"transitDays"`
	} `json:"commit"`
}

type ratedShipmentDetail struct {
	RateType       string           `json:"rateType,omitempty"`
	TotalNetCharge *decimal.Decimal `json:"totalNetCharge"`
}

// shipmentRequest is the POST /ship/v1/shipments body.
type shipmentRequest struct {
	AccountNumber        accountNumber     `json:"accountNumber"`
	LabelResponseOptions string            `json:"labelResponseOptions"`
	RequestedShipment    requestedShipment `json:"requestedShipment"`
}

type requestedShipment struct {
	Shipper                   party              `json:"shipper"`
	Recipients                []party            `json:"recipients"`
	PickupType                string             `json:"pickupType"`
	PackagingType             string             `json:"packagingType"`
	RequestedPackageLineItems []PackageLineItem  `json:"requestedPackageLineItems"`
	ServiceType               string             `json:"serviceType"`
	ShipTimestamp             string             `json:"shipTimestamp"`
	LabelSpecification        labelSpecification `json:"labelSpecification"`
	ShippingChargesPayment    chargesPayment     `json:"shippingChargesPayment"`
}

type labelSpecification struct {
	ImageType       string `json:"imageType"`
	LabelStockType  string `json:"labelStockType"`
	LabelFormatType string `json:"labelFormatType"`
	LabelRotation   string `json:"labelRotation"`
}

type chargesPayment struct {
	PaymentType string `json:"paymentType"`
	Payor       payor  `json:"payor"`
}

type payor struct {
	ResponsibleParty struct {
		AccountNumber accountNumber `json:"accountNumber"`
	} `json:"responsibleParty"`
}

// shipmentResponse is the shipment creation response body.
type shipmentResponse struct {
	Output struct {
		TransactionShipments []transactionShipment `json:"transactionShipments"`
	} `json:"output"`
}

type transactionShipment struct {
	MasterTrackingNumber string          `json:"masterTrackingNumber"`
	ServiceType          string          `json:"serviceType"`
	PieceResponses       []pieceResponse `json:"pieceResponses"`
}

type pieceResponse struct {
	TrackingNumber   string            `json:"trackingNumber"`
	PackageDocuments []packageDocument `json:"packageDocuments"`
}

type packageDocument struct {
	ContentType string `json:"contentType"`
	DocType     string `json:"docType"`
	URL         string `json:"url"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// APIError is the FedEx error envelope.
type APIError struct {
	TransactionID string `json:"transactionId"`
	Errors        []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return "unknown FedEx error"
	}
	return e.Errors[0].Code + ": " + e.Errors[0].Message
}
