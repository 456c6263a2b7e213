package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for catalog lookups.
var (
	ErrNotFound         = errors.New("item not found")
	ErrCategoryNotFound = errors.New("category not found")
)

// Label selects the badge shown next to an item in listings.
type Label string

const (
	LabelPrimary   Label = "primary"
	LabelSecondary Label = "secondary"
	LabelDanger    Label = "danger"
)

// Category groups items for browsing.
type Category struct {
	ID   string
	Name string
	Slug string
}

// Item is a purchasable catalog entry. DiscountPrice, when non-nil, is the
// effective unit price. Nothing enforces DiscountPrice <= Price.
type Item struct {
	ID            string
	Title         string
	Description   string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	CategoryID    string
	Label         Label
	Slug          string
	Image         string
}

// Discounted reports whether the item has a discount price set.
func (i Item) Discounted() bool {
	return i.DiscountPrice != nil
}

// EffectivePrice returns the discount price when set, the list price otherwise.
func (i Item) EffectivePrice() decimal.Decimal {
	if i.DiscountPrice != nil {
		return *i.DiscountPrice
	}
	return i.Price
}

// AmountSaved returns the per-unit saving against the list price, or zero when
// the item is not discounted.
func (i Item) AmountSaved() decimal.Decimal {
	if i.DiscountPrice == nil {
		return decimal.Zero
	}
	return i.Price.Sub(*i.DiscountPrice)
}

// Page addresses one slice of a paginated listing. Number is 1-based.
type Page struct {
	Number int
	Size   int
}

// Offset returns the row offset for the page.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// Repository defines read operations over the item catalog.
type Repository interface {
	ListItems(ctx context.Context, page Page) ([]Item, error)
	ListByCategory(ctx context.Context, categorySlug string, page Page) ([]Item, error)
	SearchItems(ctx context.Context, query string, page Page) ([]Item, error)
	GetBySlug(ctx context.Context, slug string) (*Item, error)
	GetByID(ctx context.Context, id string) (*Item, error)
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, slug string) (*Category, error)
}
