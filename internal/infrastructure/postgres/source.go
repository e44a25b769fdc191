package postgres

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/grocerycalc/backend/internal/domain"
)

// Source reads and writes the products table directly over a Postgres connection
type Source struct {
	pool  *pgxpool.Pool
	table string
}

// Connect opens a pool and verifies it with a ping
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	return pool, nil
}

// NewSource wraps a pool. An empty table uses "products".
func NewSource(pool *pgxpool.Pool, table string) *Source {
	if table == "" {
		table = "products"
	}
	return &Source{pool: pool, table: table}
}

func (s *Source) ident() string {
	return pgx.Identifier{s.table}.Sanitize()
}

// row is a products row with loosely typed columns, cast to text in SQL
type row struct {
	ID        int64
	Name      *string
	Barcode   *string
	Price     *string
	DataAdded *time.Time
}

// mapRow coerces a scanned row into a Product
func mapRow(r row) (domain.Product, error) {
	p := domain.Product{ID: strconv.FormatInt(r.ID, 10)}
	if r.Name != nil {
		p.Name = strings.TrimSpace(*r.Name)
	}
	if r.Barcode != nil {
		p.Barcode = strings.TrimSpace(*r.Barcode)
	}
	if r.Price == nil {
		return domain.Product{}, fmt.Errorf("%w: product %s has no price", domain.ErrMalformedRecord, p.ID)
	}
	price, err := decimal.NewFromString(*r.Price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: product %s has invalid price %q", domain.ErrMalformedRecord, p.ID, *r.Price)
	}
	p.Price = price
	if r.DataAdded != nil {
		p.AddedAt = *r.DataAdded
	}
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// FetchAll returns every product ordered by data_added descending
func (s *Source) FetchAll(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, name, barcode::text, price::text, data_added
		FROM %s
		ORDER BY data_added DESC NULLS LAST
	`, s.ident()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.ID, &r.Name, &r.Barcode, &r.Price, &r.DataAdded); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
		}
		p, err := mapRow(r)
		if err != nil {
			log.Printf("[Postgres] Dropping row: %v", err)
			continue
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}

	out, dupes := domain.UniqueByID(out)
	for _, id := range dupes {
		log.Printf("[Postgres] Dropping duplicate product id %s", id)
	}
	return out, nil
}

// Insert creates a product and returns its id
func (s *Source) Insert(ctx context.Context, input domain.ProductInput) (string, error) {
	var id int64
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO %s (name, barcode, price) VALUES ($1, $2, $3::text::numeric)
		RETURNING id
	`, s.ident()), input.Name, input.Barcode, input.Price.String()).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	return strconv.FormatInt(id, 10), nil
}

// Update applies a partial edit; absent fields keep their value
func (s *Source) Update(ctx context.Context, id string, update domain.ProductUpdate) error {
	pk, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}

	var price *string
	if update.Price != nil {
		text := update.Price.String()
		price = &text
	}

	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`
		UPDATE %s SET
			name    = COALESCE($2::text, name),
			barcode = COALESCE($3::text, barcode),
			price   = COALESCE($4::text::numeric, price)
		WHERE id = $1
	`, s.ident()), pk, update.Name, update.Barcode, price)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	return nil
}

// Delete removes the product with the given id
func (s *Source) Delete(ctx context.Context, id string) error {
	pk, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}

	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.ident()), pk)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	return nil
}
