package sync

import (
	"context"
	"time"
)

// Kind tags a tracked table with its handling category. The applier
// branches on it: dimensions and bridges get Type-1 upserts, facts are
// insert-only.
type Kind int

const (
	KindDimension Kind = iota
	KindBridge
	KindFact
)

func (k Kind) String() string {
	switch k {
	case KindDimension:
		return "dimension"
	case KindBridge:
		return "bridge"
	case KindFact:
		return "fact"
	default:
		return "unknown"
	}
}

// Step is one tracked table's sync unit: extract everything changed after
// `since`, apply it to the analytics store.
type Step struct {
	Table string
	Kind  Kind
	Apply func(ctx context.Context, since time.Time) (Stats, error)
}

// steps returns the tracked tables in mandatory dependency order:
// dimensions, then bridges, then facts. Facts must come last so their
// key lookups resolve against dimensions loaded in the same run.
func (a *applier) steps() []Step {
	return []Step{
		{Table: "customer", Kind: KindDimension, Apply: a.syncCustomers},
		{Table: "store", Kind: KindDimension, Apply: a.syncStores},
		{Table: "film", Kind: KindDimension, Apply: a.syncFilms},
		{Table: "actor", Kind: KindDimension, Apply: a.syncActors},
		{Table: "category", Kind: KindDimension, Apply: a.syncCategories},
		{Table: "film_actor", Kind: KindBridge, Apply: a.syncFilmActors},
		{Table: "film_category", Kind: KindBridge, Apply: a.syncFilmCategories},
		{Table: "rental", Kind: KindFact, Apply: a.syncRentals},
		{Table: "payment", Kind: KindFact, Apply: a.syncPayments},
	}
}

// TrackedTables lists the logical source table names in sync order.
func TrackedTables() []string {
	return []string{
		"customer", "store", "film", "actor", "category",
		"film_actor", "film_category",
		"rental", "payment",
	}
}
