package repository

import (
	"context"
	"fmt"

	"github.com/xenking/storefront/internal/domain/catalog"
)

const (
	upsertCategorySQL = `INSERT INTO categories (id, name, slug) VALUES ($1, $2, $3)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name`

	upsertItemSQL = `INSERT INTO items
		(id, title, description, price, discount_price, category_id, label, slug, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (slug) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			discount_price = EXCLUDED.discount_price,
			category_id = EXCLUDED.category_id,
			label = EXCLUDED.label,
			image = EXCLUDED.image`
)

// UpsertCategory inserts a category or refreshes its name. Seed command only.
func (r *CatalogRepository) UpsertCategory(ctx context.Context, c *catalog.Category) error {
	_, err := r.pool.Exec(ctx, upsertCategorySQL, c.ID, c.Name, c.Slug)
	if err != nil {
		return fmt.Errorf("upserting category %q: %w", c.Slug, err)
	}
	return nil
}

// UpsertItem inserts an item or refreshes its mutable fields. Seed command only.
func (r *CatalogRepository) UpsertItem(ctx context.Context, i *catalog.Item) error {
	_, err := r.pool.Exec(ctx, upsertItemSQL,
		i.ID, i.Title, i.Description, i.Price, i.DiscountPrice,
		i.CategoryID, string(i.Label), i.Slug, i.Image,
	)
	if err != nil {
		return fmt.Errorf("upserting item %q: %w", i.Slug, err)
	}
	return nil
}
