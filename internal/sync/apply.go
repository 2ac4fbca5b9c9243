package sync

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"analytics-sync-service/internal/source"
	"analytics-sync-service/internal/target"
)

// Stats summarizes one table's application pass.
type Stats struct {
	Extracted int `json:"extracted"`
	Applied   int `json:"applied"`
	Skipped   int `json:"skipped"` // referential gaps
}

// keyMaps caches the natural-key → surrogate-key lookups for the current
// run. Dimension syncs add to it as they insert, so facts applied later in
// the same run resolve rows that did not exist when the run began.
type keyMaps struct {
	customers  map[int]int64
	stores     map[int]int64
	films      map[int]int64
	actors     map[int]int64
	categories map[int]int64
	dates      map[string]int64
}

func loadKeyMaps(ctx context.Context, tgt target.Store) (*keyMaps, error) {
	k := &keyMaps{}
	var err error
	if k.customers, err = tgt.CustomerKeys(ctx); err != nil {
		return nil, fmt.Errorf("load customer keys: %w", err)
	}
	if k.stores, err = tgt.StoreKeys(ctx); err != nil {
		return nil, fmt.Errorf("load store keys: %w", err)
	}
	if k.films, err = tgt.FilmKeys(ctx); err != nil {
		return nil, fmt.Errorf("load film keys: %w", err)
	}
	if k.actors, err = tgt.ActorKeys(ctx); err != nil {
		return nil, fmt.Errorf("load actor keys: %w", err)
	}
	if k.categories, err = tgt.CategoryKeys(ctx); err != nil {
		return nil, fmt.Errorf("load category keys: %w", err)
	}
	if k.dates, err = tgt.DateKeys(ctx); err != nil {
		return nil, fmt.Errorf("load date keys: %w", err)
	}
	return k, nil
}

// dateKey resolves a timestamp against the calendar dimension. A nil or
// out-of-range date yields a NULL key, not an error.
func (k *keyMaps) dateKey(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	if key, ok := k.dates[t.Format("2006-01-02")]; ok {
		return sql.NullInt64{Int64: key, Valid: true}
	}
	return sql.NullInt64{}
}

// applier moves one run's change batches into the analytics store.
type applier struct {
	src  source.Extractor
	tgt  target.Store
	keys *keyMaps
	log  *zap.Logger
}

func (a *applier) syncCustomers(ctx context.Context, since time.Time) (Stats, error) {
	var st Stats
	rows, err := a.src.CustomersSince(ctx, since)
	if err != nil {
		return st, fmt.Errorf("%w: customers: %v", ErrSourceUnavailable, err)
	}
	st.Extracted = len(rows)

	for _, c := range rows {
		rec := target.DimCustomer{
			Key:        target.SurrogateKey(c.ID),
			CustomerID: c.ID,
			FirstName:  c.FirstName,
			LastName:   c.LastName,
			Active:     c.Active,
			City:       c.City,
			Country:    c.Country,
			LastUpdate: c.LastUpdate,
		}
		if err := a.tgt.UpsertCustomer(ctx, rec); err != nil {
			return st, fmt.Errorf("%w: %v", ErrTargetWrite, err)
		}
		a.keys.customers[c.ID] = rec.Key
		st.Applied++
	}
	return st, nil
}

func (a *applier) syncStores(ctx context.Context, since time.Time) (Stats, error) {
	var st Stats
	rows, err := a.src.StoresSince(ctx, since)
	if err != nil {
		return st, fmt.Errorf("%w: stores: %v", ErrSourceUnavailable, err)
	}
	st.Extracted = len(rows)

	for _, s := range rows {
		rec := target.DimStore{
			Key:        target.SurrogateKey(s.ID),
			StoreID:    s.ID,
			City:       s.City,
			Country:    s.Country,
			LastUpdate: s.LastUpdate,
		}
		if err := a.tgt.UpsertStore(ctx, rec); err != nil {
			return st, fmt.Errorf("%w: %v", ErrTargetWrite, err)
		}
		a.keys.stores[s.ID] = rec.Key
		st.Applied++
	}
	return st, nil
}

func (a *applier) syncFilms(ctx context.Context, since time.Time) (Stats, error) {
	var st Stats
	rows, err := a.src.FilmsSince(ctx, since)
	if err != nil {
		return st, fmt.Errorf("%w: films: %v", ErrSourceUnavailable, err)
	}
	st.Extracted = len(rows)

	for _, f := range rows {
		rec := target.DimFilm{
			Key:         target.SurrogateKey(f.ID),
			FilmID:      f.ID,
			Title:       f.Title,
			Rating:      f.Rating,
			Length:      f.Length,
			Language:    f.Language,
			ReleaseYear: f.ReleaseYear,
			LastUpdate:  f.LastUpdate,
		}
		if err := a.tgt.UpsertFilm(ctx, rec); err != nil {
			return st, fmt.Errorf("%w: %v", ErrTargetWrite, err)
		}
		a.keys.films[f.ID] = rec.Key
		st.Applied++
	}
	return st, nil
}

func (a *applier) syncActors(ctx context.Context, since time.Time) (Stats, error) {
	var st Stats
	rows, err := a.src.ActorsSince(ctx, since)
	if err != nil {
		return st, fmt.Errorf("%w: actors: %v", ErrSourceUnavailable, err)
	}
	st.Extracted = len(rows)

	for _, ac := range rows {
		rec := target.DimActor{
			Key:        target.SurrogateKey(ac.ID),
			ActorID:    ac.ID,
			FirstName:  ac.FirstName,
			LastName:   ac.LastName,
			LastUpdate: ac.LastUpdate,
		}
		if err := a.tgt.UpsertActor(ctx, rec); err != nil {
			return st, fmt.Errorf("%w: %v", ErrTargetWrite, err)
		}
		a.keys.actors[ac.ID] = rec.Key
		st.Applied++
	}
	return st, nil
}

func (a *applier) syncCategories(ctx context.Context, since time.Time) (Stats, error) {
	var st Stats
	rows, err := a.src.CategoriesSince(ctx, since)
	if err != nil {
		return st, fmt.Errorf("%w: categories: %v", ErrSourceUnavailable, err)
	}
	st.Extracted = len(rows)

	for _, c := range rows {
		rec := target.DimCategory{
			Key:        target.SurrogateKey(c.ID),
			CategoryID: c.ID,
			Name:       c.Name,
			LastUpdate: c.LastUpdate,
		}
		if err := a.tgt.UpsertCategory(ctx, rec); err != nil {
			return st, fmt.Errorf("%w: %v", ErrTargetWrite, err)
		}
		a.keys.categories[c.ID] = rec.Key
		st.Applied++
	}
	return st, nil
}

func (a *applier) syncFilmActors(ctx context.Context, since time.Time) (Stats, error) {
	var st Stats
	rows, err := a.src.FilmActorsSince(ctx, since)
	if err != nil {
		return st, fmt.Errorf("%w: film_actor: %v", ErrSourceUnavailable, err)
	}
	st.Extracted = len(rows)

	for _, fa := range rows {
		filmKey, okF := a.keys.films[fa.FilmID]
		actorKey, okA := a.keys.actors[fa.ActorID]
		if !okF || !okA {
			a.log.Warn("referential gap, skipping bridge row",
				zap.String("table", "film_actor"),
				zap.Int("film_id", fa.FilmID),
				zap.Int("actor_id", fa.ActorID))
			st.Skipped++
			continue
		}
		if err := a.tgt.UpsertFilmActor(ctx, target.BridgeFilmActor{FilmKey: filmKey, ActorKey: actorKey}); err != nil {
			return st, fmt.Errorf("%w: %v", ErrTargetWrite, err)
		}
		st.Applied++
	}
	return st, nil
}

func (a *applier) syncFilmCategories(ctx context.Context, since time.Time) (Stats, error) {
	var st Stats
	rows, err := a.src.FilmCategoriesSince(ctx, since)
	if err != nil {
		return st, fmt.Errorf("%w: film_category: %v", ErrSourceUnavailable, err)
	}
	st.Extracted = len(rows)

	for _, fc := range rows {
		filmKey, okF := a.keys.films[fc.FilmID]
		categoryKey, okC := a.keys.categories[fc.CategoryID]
		if !okF || !okC {
			a.log.Warn("referential gap, skipping bridge row",
				zap.String("table", "film_category"),
				zap.Int("film_id", fc.FilmID),
				zap.Int("category_id", fc.CategoryID))
			st.Skipped++
			continue
		}
		if err := a.tgt.UpsertFilmCategory(ctx, target.BridgeFilmCategory{FilmKey: filmKey, CategoryKey: categoryKey}); err != nil {
			return st, fmt.Errorf("%w: %v", ErrTargetWrite, err)
		}
		st.Applied++
	}
	return st, nil
}

func (a *applier) syncRentals(ctx context.Context, since time.Time) (Stats, error) {
	var st Stats
	rows, err := a.src.RentalsSince(ctx, since)
	if err != nil {
		return st, fmt.Errorf("%w: rentals: %v", ErrSourceUnavailable, err)
	}
	st.Extracted = len(rows)

	for _, r := range rows {
		filmKey, okF := a.keys.films[r.FilmID]
		storeKey, okS := a.keys.stores[r.StoreID]
		customerKey, okC := a.keys.customers[r.CustomerID]
		if !okF || !okS || !okC {
			a.log.Warn("referential gap, skipping fact row",
				zap.String("table", "rental"),
				zap.Int("rental_id", r.ID),
				zap.Bool("film_resolved", okF),
				zap.Bool("store_resolved", okS),
				zap.Bool("customer_resolved", okC))
			st.Skipped++
			continue
		}

		var duration sql.NullInt64
		if r.ReturnDate != nil {
			days := int64(r.ReturnDate.Sub(r.RentalDate).Hours() / 24)
			duration = sql.NullInt64{Int64: days, Valid: true}
		}

		rented := r.RentalDate
		rec := target.FactRental{
			RentalID:        r.ID,
			DateKeyRented:   a.keys.dateKey(&rented),
			DateKeyReturned: a.keys.dateKey(r.ReturnDate),
			FilmKey:         filmKey,
			StoreKey:        storeKey,
			CustomerKey:     customerKey,
			StaffID:         r.StaffID,
			DurationDays:    duration,
		}
		inserted, err := a.tgt.InsertRental(ctx, rec)
		if err != nil {
			return st, fmt.Errorf("%w: %v", ErrTargetWrite, err)
		}
		if inserted {
			st.Applied++
		}
	}
	return st, nil
}

func (a *applier) syncPayments(ctx context.Context, since time.Time) (Stats, error) {
	var st Stats
	rows, err := a.src.PaymentsSince(ctx, since)
	if err != nil {
		return st, fmt.Errorf("%w: payments: %v", ErrSourceUnavailable, err)
	}
	st.Extracted = len(rows)

	for _, p := range rows {
		customerKey, okC := a.keys.customers[p.CustomerID]
		storeKey, okS := a.keys.stores[p.StoreID]
		if !okC || !okS {
			a.log.Warn("referential gap, skipping fact row",
				zap.String("table", "payment"),
				zap.Int("payment_id", p.ID),
				zap.Bool("customer_resolved", okC),
				zap.Bool("store_resolved", okS))
			st.Skipped++
			continue
		}

		paid := p.PaymentDate
		rec := target.FactPayment{
			PaymentID:   p.ID,
			DateKeyPaid: a.keys.dateKey(&paid),
			CustomerKey: customerKey,
			StoreKey:    storeKey,
			StaffID:     p.StaffID,
			Amount:      p.Amount,
		}
		inserted, err := a.tgt.InsertPayment(ctx, rec)
		if err != nil {
			return st, fmt.Errorf("%w: %v", ErrTargetWrite, err)
		}
		if inserted {
			st.Applied++
		}
	}
	return st, nil
}
