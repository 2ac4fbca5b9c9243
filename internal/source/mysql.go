package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// MySQL reads from the operational database over database/sql.
type MySQL struct {
	db *sql.DB
}

func NewMySQL(db *sql.DB) *MySQL {
	return &MySQL{db: db}
}

var _ Reader = (*MySQL)(nil)

func (m *MySQL) CustomersSince(ctx context.Context, since time.Time) ([]Customer, error) {
	query := `SELECT c.customer_id, c.first_name, c.last_name, c.active, ci.city, co.country, c.last_update
			  FROM customer c
			  JOIN address a ON a.address_id = c.address_id
			  JOIN city ci ON ci.city_id = a.city_id
			  JOIN country co ON co.country_id = ci.country_id
			  WHERE c.last_update > ?
			  ORDER BY c.last_update, c.customer_id`

	rows, err := m.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Active, &c.City, &c.Country, &c.LastUpdate); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (m *MySQL) StoresSince(ctx context.Context, since time.Time) ([]Store, error) {
	query := `SELECT s.store_id, ci.city, co.country, s.last_update
			  FROM store s
			  JOIN address a ON a.address_id = s.address_id
			  JOIN city ci ON ci.city_id = a.city_id
			  JOIN country co ON co.country_id = ci.country_id
			  WHERE s.last_update > ?
			  ORDER BY s.last_update, s.store_id`

	rows, err := m.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query stores: %w", err)
	}
	defer rows.Close()

	var out []Store
	for rows.Next() {
		var s Store
		if err := rows.Scan(&s.ID, &s.City, &s.Country, &s.LastUpdate); err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (m *MySQL) FilmsSince(ctx context.Context, since time.Time) ([]Film, error) {
	query := `SELECT f.film_id, f.title, f.rating, f.length, l.name, f.release_year, f.last_update
			  FROM film f
			  JOIN language l ON l.language_id = f.language_id
			  WHERE f.last_update > ?
			  ORDER BY f.last_update, f.film_id`

	rows, err := m.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query films: %w", err)
	}
	defer rows.Close()

	var out []Film
	for rows.Next() {
		var f Film
		var rating sql.NullString
		var length, year sql.NullInt64
		if err := rows.Scan(&f.ID, &f.Title, &rating, &length, &f.Language, &year, &f.LastUpdate); err != nil {
			return nil, fmt.Errorf("scan film: %w", err)
		}
		f.Rating = rating.String
		f.Length = int(length.Int64)
		f.ReleaseYear = int(year.Int64)
		out = append(out, f)
	}
	return out, rows.Err()
}

func (m *MySQL) ActorsSince(ctx context.Context, since time.Time) ([]Actor, error) {
	query := `SELECT actor_id, first_name, last_name, last_update
			  FROM actor WHERE last_update > ?
			  ORDER BY last_update, actor_id`

	rows, err := m.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query actors: %w", err)
	}
	defer rows.Close()

	var out []Actor
	for rows.Next() {
		var a Actor
		if err := rows.Scan(&a.ID, &a.FirstName, &a.LastName, &a.LastUpdate); err != nil {
			return nil, fmt.Errorf("scan actor: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (m *MySQL) CategoriesSince(ctx context.Context, since time.Time) ([]Category, error) {
	query := `SELECT category_id, name, last_update
			  FROM category WHERE last_update > ?
			  ORDER BY last_update, category_id`

	rows, err := m.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.LastUpdate); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (m *MySQL) FilmActorsSince(ctx context.Context, since time.Time) ([]FilmActor, error) {
	query := `SELECT film_id, actor_id, last_update
			  FROM film_actor WHERE last_update > ?
			  ORDER BY last_update, film_id, actor_id`

	rows, err := m.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query film_actor: %w", err)
	}
	defer rows.Close()

	var out []FilmActor
	for rows.Next() {
		var fa FilmActor
		if err := rows.Scan(&fa.FilmID, &fa.ActorID, &fa.LastUpdate); err != nil {
			return nil, fmt.Errorf("scan film_actor: %w", err)
		}
		out = append(out, fa)
	}
	return out, rows.Err()
}

func (m *MySQL) FilmCategoriesSince(ctx context.Context, since time.Time) ([]FilmCategory, error) {
	query := `SELECT film_id, category_id, last_update
			  FROM film_category WHERE last_update > ?
			  ORDER BY last_update, film_id, category_id`

	rows, err := m.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query film_category: %w", err)
	}
	defer rows.Close()

	var out []FilmCategory
	for rows.Next() {
		var fc FilmCategory
		if err := rows.Scan(&fc.FilmID, &fc.CategoryID, &fc.LastUpdate); err != nil {
			return nil, fmt.Errorf("scan film_category: %w", err)
		}
		out = append(out, fc)
	}
	return out, rows.Err()
}

func (m *MySQL) RentalsSince(ctx context.Context, since time.Time) ([]Rental, error) {
	query := `SELECT r.rental_id, r.rental_date, r.return_date, i.film_id, i.store_id, r.customer_id, r.staff_id
			  FROM rental r
			  JOIN inventory i ON i.inventory_id = r.inventory_id
			  WHERE r.rental_date > ?
			  ORDER BY r.rental_date, r.rental_id`

	rows, err := m.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query rentals: %w", err)
	}
	defer rows.Close()

	var out []Rental
	for rows.Next() {
		var r Rental
		var returned sql.NullTime
		if err := rows.Scan(&r.ID, &r.RentalDate, &returned, &r.FilmID, &r.StoreID, &r.CustomerID, &r.StaffID); err != nil {
			return nil, fmt.Errorf("scan rental: %w", err)
		}
		if returned.Valid {
			t := returned.Time
			r.ReturnDate = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (m *MySQL) PaymentsSince(ctx context.Context, since time.Time) ([]Payment, error) {
	query := `SELECT p.payment_id, p.payment_date, p.customer_id, s.store_id, p.staff_id, p.amount
			  FROM payment p
			  JOIN staff s ON s.staff_id = p.staff_id
			  WHERE p.payment_date > ?
			  ORDER BY p.payment_date, p.payment_id`

	rows, err := m.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.PaymentDate, &p.CustomerID, &p.StoreID, &p.StaffID, &p.Amount); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (m *MySQL) CustomerCount(ctx context.Context) (int64, error) {
	return m.scalarCount(ctx, `SELECT COUNT(*) FROM customer`)
}

func (m *MySQL) FilmCount(ctx context.Context) (int64, error) {
	return m.scalarCount(ctx, `SELECT COUNT(*) FROM film`)
}

func (m *MySQL) RentalCountSince(ctx context.Context, from time.Time) (int64, error) {
	return m.scalarCount(ctx, `SELECT COUNT(*) FROM rental WHERE rental_date >= ?`, from)
}

func (m *MySQL) PaymentTotalSince(ctx context.Context, from time.Time) (float64, error) {
	var total float64
	err := m.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payment WHERE payment_date >= ?`, from).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("query payment total: %w", err)
	}
	return total, nil
}

func (m *MySQL) RentalCountByStore(ctx context.Context, from time.Time) (map[int]int64, error) {
	query := `SELECT i.store_id, COUNT(r.rental_id)
			  FROM rental r
			  JOIN inventory i ON i.inventory_id = r.inventory_id
			  WHERE r.rental_date >= ?
			  GROUP BY i.store_id`

	rows, err := m.db.QueryContext(ctx, query, from)
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

func (m *MySQL) PaymentTotalByStore(ctx context.Context, from time.Time) (map[int]float64, error) {
	query := `SELECT s.store_id, COALESCE(SUM(p.amount), 0)
			  FROM payment p
			  JOIN staff s ON s.staff_id = p.staff_id
			  WHERE p.payment_date >= ?
			  GROUP BY s.store_id`

	rows, err := m.db.QueryContext(ctx, query, from)
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

func (m *MySQL) scalarCount(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := m.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("query count: %w", err)
	}
	return n, nil
}
