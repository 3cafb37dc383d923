package composer

import (
	"context"
	"errors"

	"zlagoda_console/internal/catalog"
	"zlagoda_console/internal/session"

	"go.uber.org/zap"
)

var ErrSignedOut = errors.New("sign in to create receipts")

type Loader interface {
	Load(ctx context.Context, opts catalog.Options) *catalog.Snapshot
}

type Identities interface {
	Identity() (session.Identity, bool)
}

// Factory opens drafts for the signed-in employee with fresh reference data.
type Factory struct {
	loader     Loader
	submitter  Submitter
	identities Identities
	logger     *zap.Logger
}

func NewFactory(loader Loader, submitter Submitter, identities Identities, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{loader: loader, submitter: submitter, identities: identities, logger: logger}
}

// Open loads products, cards and, for managers, the cashier roster, then
// starts an empty draft. Partial load failures are reported by the
// snapshot and do not prevent drafting.
func (f *Factory) Open(ctx context.Context) (*Composer, error) {
	seller, ok := f.identities.Identity()
	if !ok {
		return nil, ErrSignedOut
	}
	snap := f.loader.Load(ctx, catalog.Options{IncludeRoster: seller.Role != session.RoleCashier})
	return New(f.submitter, snap, seller, f.logger), nil
}
