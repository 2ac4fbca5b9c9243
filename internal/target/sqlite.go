package target

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"analytics-sync-service/internal/database"
	"analytics-sync-service/migrations"
)

const (
	dateLayout     = "2006-01-02"
	datetimeLayout = "2006-01-02 15:04:05"
)

// SQLite is the analytics store backed by the local SQLite database.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

var _ Store = (*SQLite)(nil)

func (s *SQLite) UpsertCustomer(ctx context.Context, rec DimCustomer) error {
	query := `INSERT INTO dim_customer (customer_key, customer_id, first_name, last_name, active, city, country, last_update)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(customer_id) DO UPDATE SET
			  first_name = excluded.first_name,
			  last_name = excluded.last_name,
			  active = excluded.active,
			  city = excluded.city,
			  country = excluded.country,
			  last_update = excluded.last_update`

	_, err := s.db.ExecContext(ctx, query,
		rec.Key, rec.CustomerID, rec.FirstName, rec.LastName, rec.Active,
		rec.City, rec.Country, rec.LastUpdate.Format(datetimeLayout))
	if err != nil {
		return fmt.Errorf("upsert dim_customer %d: %w", rec.CustomerID, err)
	}
	return nil
}

func (s *SQLite) UpsertStore(ctx context.Context, rec DimStore) error {
	query := `INSERT INTO dim_store (store_key, store_id, city, country, last_update)
			  VALUES (?, ?, ?, ?, ?)
			  ON CONFLICT(store_id) DO UPDATE SET
			  city = excluded.city,
			  country = excluded.country,
			  last_update = excluded.last_update`

	_, err := s.db.ExecContext(ctx, query,
		rec.Key, rec.StoreID, rec.City, rec.Country, rec.LastUpdate.Format(datetimeLayout))
	if err != nil {
		return fmt.Errorf("upsert dim_store %d: %w", rec.StoreID, err)
	}
	return nil
}

func (s *SQLite) UpsertFilm(ctx context.Context, rec DimFilm) error {
	query := `INSERT INTO dim_film (film_key, film_id, title, rating, length, language, release_year, last_update)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(film_id) DO UPDATE SET
			  title = excluded.title,
			  rating = excluded.rating,
			  length = excluded.length,
			  language = excluded.language,
			  release_year = excluded.release_year,
			  last_update = excluded.last_update`

	_, err := s.db.ExecContext(ctx, query,
		rec.Key, rec.FilmID, rec.Title, rec.Rating, rec.Length,
		rec.Language, rec.ReleaseYear, rec.LastUpdate.Format(datetimeLayout))
	if err != nil {
		return fmt.Errorf("upsert dim_film %d: %w", rec.FilmID, err)
	}
	return nil
}

func (s *SQLite) UpsertActor(ctx context.Context, rec DimActor) error {
	query := `INSERT INTO dim_actor (actor_key, actor_id, first_name, last_name, last_update)
			  VALUES (?, ?, ?, ?, ?)
			  ON CONFLICT(actor_id) DO UPDATE SET
			  first_name = excluded.first_name,
			  last_name = excluded.last_name,
			  last_update = excluded.last_update`

	_, err := s.db.ExecContext(ctx, query,
		rec.Key, rec.ActorID, rec.FirstName, rec.LastName, rec.LastUpdate.Format(datetimeLayout))
	if err != nil {
		return fmt.Errorf("upsert dim_actor %d: %w", rec.ActorID, err)
	}
	return nil
}

func (s *SQLite) UpsertCategory(ctx context.Context, rec DimCategory) error {
	query := `INSERT INTO dim_category (category_key, category_id, name, last_update)
			  VALUES (?, ?, ?, ?)
			  ON CONFLICT(category_id) DO UPDATE SET
			  name = excluded.name,
			  last_update = excluded.last_update`

	_, err := s.db.ExecContext(ctx, query,
		rec.Key, rec.CategoryID, rec.Name, rec.LastUpdate.Format(datetimeLayout))
	if err != nil {
		return fmt.Errorf("upsert dim_category %d: %w", rec.CategoryID, err)
	}
	return nil
}

func (s *SQLite) UpsertFilmActor(ctx context.Context, rec BridgeFilmActor) error {
	query := `INSERT INTO bridge_film_actor (film_key, actor_key) VALUES (?, ?)
			  ON CONFLICT(film_key, actor_key) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query, rec.FilmKey, rec.ActorKey)
	if err != nil {
		return fmt.Errorf("upsert bridge_film_actor (%d,%d): %w", rec.FilmKey, rec.ActorKey, err)
	}
	return nil
}

func (s *SQLite) UpsertFilmCategory(ctx context.Context, rec BridgeFilmCategory) error {
	query := `INSERT INTO bridge_film_category (film_key, category_key) VALUES (?, ?)
			  ON CONFLICT(film_key, category_key) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query, rec.FilmKey, rec.CategoryKey)
	if err != nil {
		return fmt.Errorf("upsert bridge_film_category (%d,%d): %w", rec.FilmKey, rec.CategoryKey, err)
	}
	return nil
}

// InsertRental is a no-op when the rental id already exists, so re-running
// a batch after a partial failure is safe.
func (s *SQLite) InsertRental(ctx context.Context, rec FactRental) (bool, error) {
	query := `INSERT INTO fact_rental (rental_id, date_key_rented, date_key_returned, film_key, store_key, customer_key, staff_id, rental_duration_days)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(rental_id) DO NOTHING`

	res, err := s.db.ExecContext(ctx, query,
		rec.RentalID, rec.DateKeyRented, rec.DateKeyReturned, rec.FilmKey,
		rec.StoreKey, rec.CustomerKey, rec.StaffID, rec.DurationDays)
	if err != nil {
		return false, fmt.Errorf("insert fact_rental %d: %w", rec.RentalID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert fact_rental %d: %w", rec.RentalID, err)
	}
	return n > 0, nil
}

func (s *SQLite) InsertPayment(ctx context.Context, rec FactPayment) (bool, error) {
	query := `INSERT INTO fact_payment (payment_id, date_key_paid, customer_key, store_key, staff_id, amount)
			  VALUES (?, ?, ?, ?, ?, ?)
			  ON CONFLICT(payment_id) DO NOTHING`

	res, err := s.db.ExecContext(ctx, query,
		rec.PaymentID, rec.DateKeyPaid, rec.CustomerKey, rec.StoreKey, rec.StaffID, rec.Amount)
	if err != nil {
		return false, fmt.Errorf("insert fact_payment %d: %w", rec.PaymentID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert fact_payment %d: %w", rec.PaymentID, err)
	}
	return n > 0, nil
}

func (s *SQLite) CustomerKeys(ctx context.Context) (map[int]int64, error) {
	return s.keyMap(ctx, `SELECT customer_id, customer_key FROM dim_customer`)
}

func (s *SQLite) StoreKeys(ctx context.Context) (map[int]int64, error) {
	return s.keyMap(ctx, `SELECT store_id, store_key FROM dim_store`)
}

func (s *SQLite) FilmKeys(ctx context.Context) (map[int]int64, error) {
	return s.keyMap(ctx, `SELECT film_id, film_key FROM dim_film`)
}

func (s *SQLite) ActorKeys(ctx context.Context) (map[int]int64, error) {
	return s.keyMap(ctx, `SELECT actor_id, actor_key FROM dim_actor`)
}

func (s *SQLite) CategoryKeys(ctx context.Context) (map[int]int64, error) {
	return s.keyMap(ctx, `SELECT category_id, category_key FROM dim_category`)
}

func (s *SQLite) keyMap(ctx context.Context, query string) (map[int]int64, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load key map: %w", err)
	}
	defer rows.Close()

	out := make(map[int]int64)
	for rows.Next() {
		var id int
		var key int64
		if err := rows.Scan(&id, &key); err != nil {
			return nil, fmt.Errorf("scan key map: %w", err)
		}
		out[id] = key
	}
	return out, rows.Err()
}

// DateKeys maps calendar dates (YYYY-MM-DD) to dim_date keys.
func (s *SQLite) DateKeys(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date, date_key FROM dim_date`)
	if err != nil {
		return nil, fmt.Errorf("load date keys: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var date string
		var key int64
		if err := rows.Scan(&date, &key); err != nil {
			return nil, fmt.Errorf("scan date keys: %w", err)
		}
		out[date] = key
	}
	return out, rows.Err()
}

// EnsureDateDimension populates dim_date for the given range if the table
// is empty. Returns the number of rows inserted (0 when already populated).
func (s *SQLite) EnsureDateDimension(ctx context.Context, start, end time.Time) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dim_date`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count dim_date: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	inserted := 0
	err := database.ExecTx(ctx, s.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO dim_date (date_key, date, year, quarter, month, day_of_month, day_of_week, is_weekend)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare dim_date insert: %w", err)
		}
		defer stmt.Close()

		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			weekday := d.Weekday()
			weekend := weekday == time.Saturday || weekday == time.Sunday
			quarter := (int(d.Month())-1)/3 + 1
			key := d.Year()*10000 + int(d.Month())*100 + d.Day()
			if _, err := stmt.ExecContext(ctx, key, d.Format(dateLayout),
				d.Year(), quarter, int(d.Month()), d.Day(), int(weekday), weekend); err != nil {
				return fmt.Errorf("insert dim_date %s: %w", d.Format(dateLayout), err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// Reset drops and recreates the analytics schema, discarding all data
// including watermarks and run history.
func (s *SQLite) Reset(ctx context.Context) error {
	return migrations.Reset(s.db)
}

func (s *SQLite) CustomerCount(ctx context.Context) (int64, error) {
	return s.scalarCount(ctx, `SELECT COUNT(*) FROM dim_customer`)
}

func (s *SQLite) FilmCount(ctx context.Context) (int64, error) {
	return s.scalarCount(ctx, `SELECT COUNT(*) FROM dim_film`)
}

func (s *SQLite) RentalCountSince(ctx context.Context, from time.Time) (int64, error) {
	return s.scalarCount(ctx,
		`SELECT COUNT(*) FROM fact_rental fr
		 JOIN dim_date d ON d.date_key = fr.date_key_rented
		 WHERE d.date >= ?`, from.Format(dateLayout))
}

func (s *SQLite) PaymentTotalSince(ctx context.Context, from time.Time) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(fp.amount), 0) FROM fact_payment fp
		 JOIN dim_date d ON d.date_key = fp.date_key_paid
		 WHERE d.date >= ?`, from.Format(dateLayout)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("query payment total: %w", err)
	}
	return total, nil
}

func (s *SQLite) RentalCountByStore(ctx context.Context, from time.Time) (map[int]int64, error) {
	query := `SELECT ds.store_id, COUNT(fr.rental_id)
			  FROM fact_rental fr
			  JOIN dim_store ds ON ds.store_key = fr.store_key
			  JOIN dim_date d ON d.date_key = fr.date_key_rented
			  WHERE d.date >= ?
			  GROUP BY ds.store_id`

	rows, err := s.db.QueryContext(ctx, query, from.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("query rentals per store: %w", err)
	}
	defer rows.Close()

	out := make(map[int]int64)
	for rows.Next() {
		var storeID int
		var count int64
		if err := rows.Scan(&storeID, &count); err != nil {
			return nil, fmt.Errorf("scan rentals per store: %w", err)
		}
		out[storeID] = count
	}
	return out, rows.Err()
}

func (s *SQLite) PaymentTotalByStore(ctx context.Context, from time.Time) (map[int]float64, error) {
	query := `SELECT ds.store_id, COALESCE(SUM(fp.amount), 0)
			  FROM fact_payment fp
			  JOIN dim_store ds ON ds.store_key = fp.store_key
			  JOIN dim_date d ON d.date_key = fp.date_key_paid
			  WHERE d.date >= ?
			  GROUP BY ds.store_id`

	rows, err := s.db.QueryContext(ctx, query, from.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("query payments per store: %w", err)
	}
	defer rows.Close()

	out := make(map[int]float64)
	for rows.Next() {
		var storeID int
		var total float64
		if err := rows.Scan(&storeID, &total); err != nil {
			return nil, fmt.Errorf("scan payments per store: %w", err)
		}
		out[storeID] = total
	}
	return out, rows.Err()
}

func (s *SQLite) scalarCount(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("query count: %w", err)
	}
	return n, nil
}
