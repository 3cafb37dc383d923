package catalog

import (
	"context"
	"errors"
	"testing"

	"zlagoda_console/internal/zlagoda"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	storeProducts []zlagoda.StoreProductDetails
	products      []zlagoda.Product
	cards         []zlagoda.CustomerCard
	employees     []zlagoda.Employee
	cardsErr      error
	employeeCalls int
}

func (f *fakeSource) StoreProductsWithDetails(context.Context) ([]zlagoda.StoreProductDetails, error) {
	return f.storeProducts, nil
}

func (f *fakeSource) Products(context.Context) ([]zlagoda.Product, error) {
	return f.products, nil
}

func (f *fakeSource) CustomerCards(context.Context) ([]zlagoda.CustomerCard, error) {
	return f.cards, f.cardsErr
}

func (f *fakeSource) Employees(context.Context) ([]zlagoda.Employee, error) {
	f.employeeCalls++
	return f.employees, nil
}

func newSource() *fakeSource {
	return &fakeSource{
		storeProducts: []zlagoda.StoreProductDetails{{
			StoreProduct: zlagoda.StoreProduct{UPC: "000000000001", ProductID: 7, SellingPrice: decimal.NewFromInt(50)},
			ProductName:  "Milk",
		}},
		products: []zlagoda.Product{{ID: 7, Name: "Milk", Characteristics: "2.5%, 1l"}},
		cards:    []zlagoda.CustomerCard{{Number: "1234567890123", Percent: 10}},
		employees: []zlagoda.Employee{
			{ID: "E2", Surname: "Melnyk", Role: "Cashier"},
			{ID: "E1", Surname: "Bondar", Role: "cashier"},
			{ID: "E3", Surname: "Adamenko", Role: "Manager"},
		},
	}
}

func TestLoadIndexesEverySource(t *testing.T) {
	src := newSource()
	snap := NewLoader(src, nil).Load(context.Background(), Options{IncludeRoster: true})

	require.Empty(t, snap.Errors())
	sp, ok := snap.StoreProduct("000000000001")
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(50).Equal(sp.SellingPrice))
	assert.Equal(t, "2.5%, 1l", snap.Characteristics("000000000001"))

	card, ok := snap.Card("1234567890123")
	require.True(t, ok)
	assert.Equal(t, 10, card.Percent)

	cashiers := snap.Cashiers()
	require.Len(t, cashiers, 2)
	assert.Equal(t, "Bondar", cashiers[0].Surname)
	assert.Equal(t, "Melnyk", cashiers[1].Surname)
}

func TestLoadKeepsOtherSourcesOnFailure(t *testing.T) {
	src := newSource()
	src.cardsErr = errors.New("boom")

	snap := NewLoader(src, nil).Load(context.Background(), Options{})

	errs := snap.Errors()
	require.Len(t, errs, 1)
	var srcErr *SourceError
	require.ErrorAs(t, errs[0], &srcErr)
	assert.Equal(t, "customer cards", srcErr.Source)

	_, ok := snap.StoreProduct("000000000001")
	assert.True(t, ok)
	_, ok = snap.Card("1234567890123")
	assert.False(t, ok)
	assert.Empty(t, snap.Cards)
}

func TestLoadSkipsRosterUnlessAsked(t *testing.T) {
	src := newSource()
	snap := NewLoader(src, nil).Load(context.Background(), Options{})

	assert.Zero(t, src.employeeCalls)
	assert.Empty(t, snap.Cashiers())
}

func TestNilSnapshotLookups(t *testing.T) {
	var snap *Snapshot
	_, ok := snap.StoreProduct("x")
	assert.False(t, ok)
	_, ok = snap.Card("x")
	assert.False(t, ok)
	assert.Nil(t, snap.Cashiers())
}
