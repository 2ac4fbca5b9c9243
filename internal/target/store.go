// Package target writes and queries the denormalized analytics store.
package target

import (
	"context"
	"database/sql"
	"time"
)

// SurrogateKey derives a stable analytics key from a source primary key.
// The trailing slot is reserved for a version suffix should versioned
// dimension history ever be introduced.
func SurrogateKey(id int) int64 {
	return int64(id)*100 + 1
}

type DimCustomer struct {
	Key        int64
	CustomerID int
	FirstName  string
	LastName   string
	Active     bool
	City       string
	Country    string
	LastUpdate time.Time
}

type DimStore struct {
	Key        int64
	StoreID    int
	City       string
	Country    string
	LastUpdate time.Time
}

type DimFilm struct {
	Key         int64
	FilmID      int
	Title       string
	Rating      string
	Length      int
	Language    string
	ReleaseYear int
	LastUpdate  time.Time
}

type DimActor struct {
	Key        int64
	ActorID    int
	FirstName  string
	LastName   string
	LastUpdate time.Time
}

type DimCategory struct {
	Key        int64
	CategoryID int
	Name       string
	LastUpdate time.Time
}

type BridgeFilmActor struct {
	FilmKey  int64
	ActorKey int64
}

type BridgeFilmCategory struct {
	FilmKey     int64
	CategoryKey int64
}

// FactRental is write-once, keyed by the source rental id. Date keys are
// nullable: an event outside the populated calendar range still lands.
type FactRental struct {
	RentalID        int
	DateKeyRented   sql.NullInt64
	DateKeyReturned sql.NullInt64
	FilmKey         int64
	StoreKey        int64
	CustomerKey     int64
	StaffID         int
	DurationDays    sql.NullInt64
}

type FactPayment struct {
	PaymentID   int
	DateKeyPaid sql.NullInt64
	CustomerKey int64
	StoreKey    int64
	StaffID     int
	Amount      float64
}

// Store is the write/read surface the sync engine and validator need.
// Dimension and bridge writes are Type-1 upserts; fact writes are
// insert-only and report whether a row was actually added.
type Store interface {
	UpsertCustomer(ctx context.Context, rec DimCustomer) error
	UpsertStore(ctx context.Context, rec DimStore) error
	UpsertFilm(ctx context.Context, rec DimFilm) error
	UpsertActor(ctx context.Context, rec DimActor) error
	UpsertCategory(ctx context.Context, rec DimCategory) error
	UpsertFilmActor(ctx context.Context, rec BridgeFilmActor) error
	UpsertFilmCategory(ctx context.Context, rec BridgeFilmCategory) error
	InsertRental(ctx context.Context, rec FactRental) (bool, error)
	InsertPayment(ctx context.Context, rec FactPayment) (bool, error)

	CustomerKeys(ctx context.Context) (map[int]int64, error)
	StoreKeys(ctx context.Context) (map[int]int64, error)
	FilmKeys(ctx context.Context) (map[int]int64, error)
	ActorKeys(ctx context.Context) (map[int]int64, error)
	CategoryKeys(ctx context.Context) (map[int]int64, error)
	DateKeys(ctx context.Context) (map[string]int64, error)

	EnsureDateDimension(ctx context.Context, start, end time.Time) (int, error)
	Reset(ctx context.Context) error

	CustomerCount(ctx context.Context) (int64, error)
	FilmCount(ctx context.Context) (int64, error)
	RentalCountSince(ctx context.Context, from time.Time) (int64, error)
	PaymentTotalSince(ctx context.Context, from time.Time) (float64, error)
	RentalCountByStore(ctx context.Context, from time.Time) (map[int]int64, error)
	PaymentTotalByStore(ctx context.Context, from time.Time) (map[int]float64, error)
}
