package sync

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"analytics-sync-service/internal/database"
	"analytics-sync-service/internal/source"
	"analytics-sync-service/internal/target"
)

// fakeSource is an in-memory Extractor. Each Since method returns rows
// whose change timestamp is strictly after the watermark, matching the
// contract the real reader's queries implement with `> ?`.
type fakeSource struct {
	customers      []source.Customer
	stores         []source.Store
	films          []source.Film
	actors         []source.Actor
	categories     []source.Category
	filmActors     []source.FilmActor
	filmCategories []source.FilmCategory
	rentals        []source.Rental
	payments       []source.Payment

	// fail forces the named table's extraction to error.
	fail map[string]error
}

var _ source.Extractor = (*fakeSource)(nil)

func filterAfter[T any](rows []T, ts func(T) time.Time, since time.Time) []T {
	var out []T
	for _, r := range rows {
		if ts(r).After(since) {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeSource) CustomersSince(_ context.Context, since time.Time) ([]source.Customer, error) {
	if err := f.fail["customer"]; err != nil {
		return nil, err
	}
	return filterAfter(f.customers, func(c source.Customer) time.Time { return c.LastUpdate }, since), nil
}

func (f *fakeSource) StoresSince(_ context.Context, since time.Time) ([]source.Store, error) {
	if err := f.fail["store"]; err != nil {
		return nil, err
	}
	return filterAfter(f.stores, func(s source.Store) time.Time { return s.LastUpdate }, since), nil
}

func (f *fakeSource) FilmsSince(_ context.Context, since time.Time) ([]source.Film, error) {
	if err := f.fail["film"]; err != nil {
		return nil, err
	}
	return filterAfter(f.films, func(fl source.Film) time.Time { return fl.LastUpdate }, since), nil
}

func (f *fakeSource) ActorsSince(_ context.Context, since time.Time) ([]source.Actor, error) {
	if err := f.fail["actor"]; err != nil {
		return nil, err
	}
	return filterAfter(f.actors, func(a source.Actor) time.Time { return a.LastUpdate }, since), nil
}

func (f *fakeSource) CategoriesSince(_ context.Context, since time.Time) ([]source.Category, error) {
	if err := f.fail["category"]; err != nil {
		return nil, err
	}
	return filterAfter(f.categories, func(c source.Category) time.Time { return c.LastUpdate }, since), nil
}

func (f *fakeSource) FilmActorsSince(_ context.Context, since time.Time) ([]source.FilmActor, error) {
	if err := f.fail["film_actor"]; err != nil {
		return nil, err
	}
	return filterAfter(f.filmActors, func(fa source.FilmActor) time.Time { return fa.LastUpdate }, since), nil
}

func (f *fakeSource) FilmCategoriesSince(_ context.Context, since time.Time) ([]source.FilmCategory, error) {
	if err := f.fail["film_category"]; err != nil {
		return nil, err
	}
	return filterAfter(f.filmCategories, func(fc source.FilmCategory) time.Time { return fc.LastUpdate }, since), nil
}

func (f *fakeSource) RentalsSince(_ context.Context, since time.Time) ([]source.Rental, error) {
	if err := f.fail["rental"]; err != nil {
		return nil, err
	}
	return filterAfter(f.rentals, func(r source.Rental) time.Time { return r.RentalDate }, since), nil
}

func (f *fakeSource) PaymentsSince(_ context.Context, since time.Time) ([]source.Payment, error) {
	if err := f.fail["payment"]; err != nil {
		return nil, err
	}
	return filterAfter(f.payments, func(p source.Payment) time.Time { return p.PaymentDate }, since), nil
}

// newTestMart opens a real analytics database in a temp dir with the
// calendar dimension covering the test window.
func newTestMart(t *testing.T) *target.SQLite {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "analytics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mart := target.NewSQLite(db)
	start := time.Date(2005, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2005, 7, 31, 0, 0, 0, 0, time.UTC)
	_, err = mart.EnsureDateDimension(context.Background(), start, end)
	require.NoError(t, err)
	return mart
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

// seedSource returns a small but fully connected rental world: three
// customers, one store, one film with an actor and a category, two
// rentals and one payment, all stamped at the given time.
func seedSource(at time.Time) *fakeSource {
	returned := at.Add(72 * time.Hour)
	return &fakeSource{
		customers: []source.Customer{
			{ID: 1, FirstName: "MARY", LastName: "SMITH", Active: true, City: "Sasebo", Country: "Japan", LastUpdate: at},
			{ID: 2, FirstName: "PATRICIA", LastName: "JOHNSON", Active: true, City: "San Bernardino", Country: "United States", LastUpdate: at},
			{ID: 3, FirstName: "LINDA", LastName: "WILLIAMS", Active: true, City: "Athenai", Country: "Greece", LastUpdate: at},
		},
		stores: []source.Store{
			{ID: 1, City: "Lethbridge", Country: "Canada", LastUpdate: at},
		},
		films: []source.Film{
			{ID: 10, Title: "ALADDIN CALENDAR", Rating: "NC-17", Length: 63, Language: "English", ReleaseYear: 2006, LastUpdate: at},
		},
		actors: []source.Actor{
			{ID: 5, FirstName: "JOHNNY", LastName: "LOLLOBRIGIDA", LastUpdate: at},
		},
		categories: []source.Category{
			{ID: 7, Name: "Drama", LastUpdate: at},
		},
		filmActors: []source.FilmActor{
			{FilmID: 10, ActorID: 5, LastUpdate: at},
		},
		filmCategories: []source.FilmCategory{
			{FilmID: 10, CategoryID: 7, LastUpdate: at},
		},
		rentals: []source.Rental{
			{ID: 100, RentalDate: at, ReturnDate: &returned, FilmID: 10, StoreID: 1, CustomerID: 1, StaffID: 1},
			{ID: 101, RentalDate: at, FilmID: 10, StoreID: 1, CustomerID: 2, StaffID: 2},
		},
		payments: []source.Payment{
			{ID: 200, PaymentDate: at, CustomerID: 1, StoreID: 1, StaffID: 1, Amount: 4.99},
		},
		fail: map[string]error{},
	}
}

// seedRental builds a rental against the seed world's film and store.
func seedRental(id int, at time.Time, customerID int) source.Rental {
	return source.Rental{
		ID:         id,
		RentalDate: at,
		FilmID:     10,
		StoreID:    1,
		CustomerID: customerID,
		StaffID:    1,
	}
}
