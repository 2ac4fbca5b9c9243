// Package source reads changed rows and aggregates from the operational
// rental-store database. All queries are read-only.
package source

import (
	"context"
	"time"
)

// Rows come back denormalized: lookup joins (address chain, language,
// inventory, staff) are resolved on the source side so the applier only
// deals in flat records.

type Customer struct {
	ID         int
	FirstName  string
	LastName   string
	Active     bool
	City       string
	Country    string
	LastUpdate time.Time
}

type Store struct {
	ID         int
	City       string
	Country    string
	LastUpdate time.Time
}

type Film struct {
	ID          int
	Title       string
	Rating      string
	Length      int
	Language    string
	ReleaseYear int
	LastUpdate  time.Time
}

type Actor struct {
	ID         int
	FirstName  string
	LastName   string
	LastUpdate time.Time
}

type Category struct {
	ID         int
	Name       string
	LastUpdate time.Time
}

type FilmActor struct {
	FilmID     int
	ActorID    int
	LastUpdate time.Time
}

type FilmCategory struct {
	FilmID     int
	CategoryID int
	LastUpdate time.Time
}

// Rental is an immutable event; RentalDate doubles as its change marker.
type Rental struct {
	ID         int
	RentalDate time.Time
	ReturnDate *time.Time
	FilmID     int
	StoreID    int
	CustomerID int
	StaffID    int
}

type Payment struct {
	ID          int
	PaymentDate time.Time
	CustomerID  int
	StoreID     int
	StaffID     int
	Amount      float64
}

// Extractor returns rows changed strictly after the given watermark,
// ordered by change timestamp then primary key. A row whose timestamp
// equals the watermark is considered already synced.
type Extractor interface {
	CustomersSince(ctx context.Context, since time.Time) ([]Customer, error)
	StoresSince(ctx context.Context, since time.Time) ([]Store, error)
	FilmsSince(ctx context.Context, since time.Time) ([]Film, error)
	ActorsSince(ctx context.Context, since time.Time) ([]Actor, error)
	CategoriesSince(ctx context.Context, since time.Time) ([]Category, error)
	FilmActorsSince(ctx context.Context, since time.Time) ([]FilmActor, error)
	FilmCategoriesSince(ctx context.Context, since time.Time) ([]FilmCategory, error)
	RentalsSince(ctx context.Context, since time.Time) ([]Rental, error)
	PaymentsSince(ctx context.Context, since time.Time) ([]Payment, error)
}

// Aggregator exposes the counts and sums the validator compares against
// the analytics side.
type Aggregator interface {
	CustomerCount(ctx context.Context) (int64, error)
	FilmCount(ctx context.Context) (int64, error)
	RentalCountSince(ctx context.Context, from time.Time) (int64, error)
	PaymentTotalSince(ctx context.Context, from time.Time) (float64, error)
	RentalCountByStore(ctx context.Context, from time.Time) (map[int]int64, error)
	PaymentTotalByStore(ctx context.Context, from time.Time) (map[int]float64, error)
}

// Reader is the full source surface.
type Reader interface {
	Extractor
	Aggregator
}
