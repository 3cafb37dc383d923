// Package catalog loads the reference data a receipt draft is built from.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"zlagoda_console/internal/session"
	"zlagoda_console/internal/zlagoda"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

type Source interface {
	StoreProductsWithDetails(ctx context.Context) ([]zlagoda.StoreProductDetails, error)
	Products(ctx context.Context) ([]zlagoda.Product, error)
	CustomerCards(ctx context.Context) ([]zlagoda.CustomerCard, error)
	Employees(ctx context.Context) ([]zlagoda.Employee, error)
}

// SourceError names the reference source that failed to load.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

type Options struct {
	// IncludeRoster fetches the employee list; only managers pick a cashier.
	IncludeRoster bool
}

type Loader struct {
	source Source
	logger *zap.Logger
}

func NewLoader(source Source, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{source: source, logger: logger.Named("catalog")}
}

// Load fetches every source concurrently. A failing source is recorded on
// the snapshot and does not keep the others from populating.
func (l *Loader) Load(ctx context.Context, opts Options) *Snapshot {
	snap := &Snapshot{}

	var wg conc.WaitGroup
	wg.Go(func() {
		snap.StoreProducts, snap.storeProductsErr = keepOnSuccess(l.source.StoreProductsWithDetails(ctx))
	})
	wg.Go(func() {
		snap.Products, snap.productsErr = keepOnSuccess(l.source.Products(ctx))
	})
	wg.Go(func() {
		snap.Cards, snap.cardsErr = keepOnSuccess(l.source.CustomerCards(ctx))
	})
	if opts.IncludeRoster {
		wg.Go(func() {
			snap.Roster, snap.rosterErr = keepOnSuccess(l.source.Employees(ctx))
		})
	}
	wg.Wait()

	snap.index()
	for _, err := range snap.Errors() {
		l.logger.Warn("reference data unavailable", zap.Error(err))
	}
	l.logger.Debug("reference data loaded",
		zap.Int("store_products", len(snap.StoreProducts)),
		zap.Int("products", len(snap.Products)),
		zap.Int("cards", len(snap.Cards)),
		zap.Int("roster", len(snap.Roster)),
	)
	return snap
}

type Snapshot struct {
	StoreProducts []zlagoda.StoreProductDetails
	Products      []zlagoda.Product
	Cards         []zlagoda.CustomerCard
	Roster        []zlagoda.Employee

	storeProductsErr error
	productsErr      error
	cardsErr         error
	rosterErr        error

	byUPC       map[string]zlagoda.StoreProductDetails
	byCard      map[string]zlagoda.CustomerCard
	productByID map[int]zlagoda.Product
}

// keepOnSuccess drops whatever a failed source returned alongside its error
// so lookups never see data the snapshot reports as unavailable.
func keepOnSuccess[T any](items []T, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Snapshot) index() {
	s.byUPC = make(map[string]zlagoda.StoreProductDetails, len(s.StoreProducts))
	for _, sp := range s.StoreProducts {
		s.byUPC[sp.UPC] = sp
	}
	s.byCard = make(map[string]zlagoda.CustomerCard, len(s.Cards))
	for _, c := range s.Cards {
		s.byCard[c.Number] = c
	}
	s.productByID = make(map[int]zlagoda.Product, len(s.Products))
	for _, p := range s.Products {
		s.productByID[p.ID] = p
	}
}

// Errors lists the sources that failed, in a fixed order.
func (s *Snapshot) Errors() []error {
	var errs []error
	for _, src := range []struct {
		name string
		err  error
	}{
		{"store products", s.storeProductsErr},
		{"products", s.productsErr},
		{"customer cards", s.cardsErr},
		{"employees", s.rosterErr},
	} {
		if src.err != nil {
			errs = append(errs, &SourceError{Source: src.name, Err: src.err})
		}
	}
	return errs
}

// StoreProduct has the signature of pricing.Lookup.
func (s *Snapshot) StoreProduct(upc string) (zlagoda.StoreProduct, bool) {
	d, ok := s.Details(upc)
	return d.StoreProduct, ok
}

func (s *Snapshot) Details(upc string) (zlagoda.StoreProductDetails, bool) {
	if s == nil || s.byUPC == nil {
		return zlagoda.StoreProductDetails{}, false
	}
	d, ok := s.byUPC[strings.TrimSpace(upc)]
	return d, ok
}

func (s *Snapshot) Card(number string) (zlagoda.CustomerCard, bool) {
	if s == nil || s.byCard == nil {
		return zlagoda.CustomerCard{}, false
	}
	c, ok := s.byCard[strings.TrimSpace(number)]
	return c, ok
}

// Characteristics prefers the joined store product details and falls back
// to the product list.
func (s *Snapshot) Characteristics(upc string) string {
	d, ok := s.Details(upc)
	if !ok {
		return ""
	}
	if d.Characteristics != "" {
		return d.Characteristics
	}
	return s.productByID[d.ProductID].Characteristics
}

// Cashiers is the roster restricted to cashiers, sorted by surname.
func (s *Snapshot) Cashiers() []zlagoda.Employee {
	if s == nil {
		return nil
	}
	out := make([]zlagoda.Employee, 0, len(s.Roster))
	for _, e := range s.Roster {
		if session.ParseRole(e.Role) == session.RoleCashier {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Surname < out[j].Surname
	})
	return out
}

func (s *Snapshot) Employee(id string) (zlagoda.Employee, bool) {
	if s == nil {
		return zlagoda.Employee{}, false
	}
	id = strings.TrimSpace(id)
	for _, e := range s.Roster {
		if e.ID == id {
			return e, true
		}
	}
	return zlagoda.Employee{}, false
}
