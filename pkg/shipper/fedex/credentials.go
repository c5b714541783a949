package fedex

import (
	"context"

	"github.com/tournevent/fedexbridge/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// CredentialResolver picks the credentials an operation runs with.
// A complete persisted record wins over the static configuration.
type CredentialResolver struct {
	store  shipper.CredentialStore
	static shipper.Credentials
	logger *otelzap.Logger
}

// NewCredentialResolver creates a resolver. store may be nil, in which case
// the static credentials are always used.
func NewCredentialResolver(store shipper.CredentialStore, static shipper.Credentials, logger *otelzap.Logger) *CredentialResolver {
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	return &CredentialResolver{
		store:  store,
		static: static,
		logger: logger,
	}
}

// Resolve returns the effective credentials. It never fails: store errors
// are logged and the static configuration is returned instead.
func (r *CredentialResolver) Resolve(ctx context.Context) shipper.Credentials {
	if r.store == nil {
		return r.static
	}

	stored, err := r.store.Get(ctx)
	if err != nil {
		r.logger.Ctx(ctx).Error("Failed to load FedEx credentials, using static configuration", zap.Error(err))
		return r.static
	}
	if stored == nil || !stored.Complete() {
		return r.static
	}

	return *stored
}

// Save validates and persists administrator-supplied credentials.
func (r *CredentialResolver) Save(ctx context.Context, creds shipper.Credentials) (bool, error) {
	if err := creds.Validate(); err != nil {
		return false, shipper.NewShipperError(carrierName, shipper.CodeInvalidInput, err.Error()).WithCause(err)
	}
	if r.store == nil {
		return false, shipper.NewShipperError(carrierName, shipper.CodeConfiguration, "no credential store configured")
	}

	ok, err := r.store.Upsert(ctx, creds)
	if err != nil {
		r.logger.Ctx(ctx).Error("Failed to save FedEx credentials", zap.Error(err))
		return false, err
	}

	r.logger.Ctx(ctx).Info("FedEx credentials saved",
		zap.Bool("enabled", creds.Enabled),
		zap.Bool("sandbox", creds.SandboxMode),
		zap.String("weight_unit", string(creds.WeightUnit)),
	)
	return ok, nil
}
