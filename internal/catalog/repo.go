package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a product id does not exist.
var ErrNotFound = errors.New("catalog: product not found")

// Product is the catalog row exposed to clients and embedded into cart lines.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       int64   `json:"price"`
	Image       string  `json:"image,omitempty"`
	Brand       string  `json:"brand,omitempty"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	InStock     bool    `json:"inStock"`
	IsPopular   bool    `json:"isPopular,omitempty"`
	IsNew       bool    `json:"isNew,omitempty"`
}

// ListParams captures filters for product listing.
type ListParams struct {
	Query    string
	Category string
	Brand    string
	InStock  *bool
	Sort     string
	Page     int
	Limit    int
}

// Repo is the catalog data access contract.
type Repo interface {
	ListProducts(ctx context.Context, params ListParams) ([]Product, int64, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	ListCategories(ctx context.Context) ([]string, error)
	ListBrands(ctx context.Context) ([]string, error)
}

// PGRepo implements Repo on Postgres.
type PGRepo struct {
	Pool *pgxpool.Pool
}

const productColumns = `id, name, price, image, brand, category, description, rating, in_stock, is_popular, is_new`

// ListProducts returns one page of products plus the total match count.
func (r *PGRepo) ListProducts(ctx context.Context, params ListParams) ([]Product, int64, error) {
	where, args := buildFilter(params)

	var total int64
	if err := r.Pool.QueryRow(ctx, `SELECT count(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products` + where + orderClause(params.Sort)
	offset := (params.Page - 1) * params.Limit
	if offset < 0 {
		offset = 0
	}
	args = append(args, params.Limit, offset)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0, params.Limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// GetProduct returns one product by id.
func (r *PGRepo) GetProduct(ctx context.Context, id string) (Product, error) {
	row := r.Pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// ListCategories returns the distinct categories in display order.
func (r *PGRepo) ListCategories(ctx context.Context) ([]string, error) {
	return r.listDistinct(ctx, `SELECT DISTINCT category FROM products WHERE category <> '' ORDER BY category`)
}

// ListBrands returns the distinct brands in display order.
func (r *PGRepo) ListBrands(ctx context.Context) ([]string, error) {
	return r.listDistinct(ctx, `SELECT DISTINCT brand FROM products WHERE brand <> '' ORDER BY brand`)
}

func (r *PGRepo) listDistinct(ctx context.Context, query string) ([]string, error) {
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list distinct: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func buildFilter(params ListParams) (string, []any) {
	var clauses []string
	var args []any
	next := func() string { return "$" + strconv.Itoa(len(args)) }

	if params.Query != "" {
		args = append(args, "%"+params.Query+"%")
		p := next()
		clauses = append(clauses, "(name ILIKE "+p+" OR description ILIKE "+p+")")
	}
	if params.Category != "" {
		args = append(args, params.Category)
		clauses = append(clauses, "category = "+next())
	}
	if params.Brand != "" {
		args = append(args, params.Brand)
		clauses = append(clauses, "brand = "+next())
	}
	if params.InStock != nil {
		args = append(args, *params.InStock)
		clauses = append(clauses, "in_stock = "+next())
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func orderClause(sort string) string {
	switch sort {
	case "price:asc":
		return " ORDER BY price ASC, name ASC"
	case "price:desc":
		return " ORDER BY price DESC, name ASC"
	case "rating:desc":
		return " ORDER BY rating DESC, name ASC"
	case "name:asc":
		return " ORDER BY name ASC"
	default:
		return " ORDER BY is_popular DESC, rating DESC, name ASC"
	}
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Price, &p.Image, &p.Brand, &p.Category,
		&p.Description, &p.Rating, &p.InStock, &p.IsPopular, &p.IsNew,
	)
	return p, err
}
