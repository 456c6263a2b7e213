package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/catalog"
)

const (
	itemColumns = `id, title, description, price, discount_price, category_id, label, slug, image`

	listItemsSQL = `SELECT ` + itemColumns + ` FROM items ORDER BY title LIMIT $1 OFFSET $2`

	listItemsByCategorySQL = `SELECT i.id, i.title, i.description, i.price, i.discount_price,
		i.category_id, i.label, i.slug, i.image
		FROM items i JOIN categories c ON c.id = i.category_id
		WHERE c.slug = $1 ORDER BY i.title LIMIT $2 OFFSET $3`

	searchItemsSQL = `SELECT ` + itemColumns + ` FROM items
		WHERE title ILIKE '%' || $1 || '%' ORDER BY title LIMIT $2 OFFSET $3`

	getItemBySlugSQL = `SELECT ` + itemColumns + ` FROM items WHERE slug = $1`

	getItemByIDSQL = `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	listCategoriesSQL = `SELECT id, name, slug FROM categories ORDER BY name`

	getCategorySQL = `SELECT id, name, slug FROM categories WHERE slug = $1`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// ListItems returns one page of the catalog ordered by title.
func (r *CatalogRepository) ListItems(ctx context.Context, page catalog.Page) ([]catalog.Item, error) {
	rows, err := r.pool.Query(ctx, listItemsSQL, page.Size, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return pgx.CollectRows(rows, scanItem)
}

// ListByCategory returns one page of items in the category identified by slug.
// Returns catalog.ErrCategoryNotFound when the category does not exist.
func (r *CatalogRepository) ListByCategory(ctx context.Context, categorySlug string, page catalog.Page) ([]catalog.Item, error) {
	if _, err := r.GetCategory(ctx, categorySlug); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, listItemsByCategorySQL, categorySlug, page.Size, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("listing items in category %q: %w", categorySlug, err)
	}
	return pgx.CollectRows(rows, scanItem)
}

// SearchItems returns items whose title contains the query, case-insensitive.
func (r *CatalogRepository) SearchItems(ctx context.Context, query string, page catalog.Page) ([]catalog.Item, error) {
	rows, err := r.pool.Query(ctx, searchItemsSQL, query, page.Size, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("searching items for %q: %w", query, err)
	}
	return pgx.CollectRows(rows, scanItem)
}

// GetBySlug returns a single item by its slug.
func (r *CatalogRepository) GetBySlug(ctx context.Context, slug string) (*catalog.Item, error) {
	return r.getItem(ctx, getItemBySlugSQL, slug)
}

// GetByID returns a single item by its identifier.
func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*catalog.Item, error) {
	return r.getItem(ctx, getItemByIDSQL, id)
}

func (r *CatalogRepository) getItem(ctx context.Context, sql, arg string) (*catalog.Item, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("getting item %q: %w", arg, err)
	}

	item, err := pgx.CollectExactlyOneRow(rows, scanItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting item %q: %w", arg, err)
	}
	return &item, nil
}

// ListCategories returns all categories ordered by name.
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return pgx.CollectRows(rows, scanCategory)
}

// GetCategory returns a single category by slug, or catalog.ErrCategoryNotFound.
func (r *CatalogRepository) GetCategory(ctx context.Context, slug string) (*catalog.Category, error) {
	rows, err := r.pool.Query(ctx, getCategorySQL, slug)
	if err != nil {
		return nil, fmt.Errorf("getting category %q: %w", slug, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("getting category %q: %w", slug, err)
	}
	return &c, nil
}

func scanItem(row pgx.CollectableRow) (catalog.Item, error) {
	var (
		i        catalog.Item
		price    decimal.Decimal
		discount *decimal.Decimal
		label    string
	)
	err := row.Scan(
		&i.ID, &i.Title, &i.Description, &price, &discount,
		&i.CategoryID, &label, &i.Slug, &i.Image,
	)
	i.Price = price
	i.DiscountPrice = discount
	i.Label = catalog.Label(label)
	return i, err
}

func scanCategory(row pgx.CollectableRow) (catalog.Category, error) {
	var c catalog.Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug)
	return c, err
}
