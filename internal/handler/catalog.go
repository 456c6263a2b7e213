package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/storefront/internal/domain/catalog"
)

// itemView is the JSON shape of a catalog item.
type itemView struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	DiscountPrice *float64 `json:"discount_price,omitempty"`
	Category      string   `json:"category"`
	Label         string   `json:"label"`
	Slug          string   `json:"slug"`
	Image         string   `json:"image"`
}

type categoryView struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (h *Handler) itemToView(i catalog.Item) itemView {
	v := itemView{
		ID:          i.ID,
		Title:       i.Title,
		Description: i.Description,
		Price:       i.Price.InexactFloat64(),
		Category:    i.CategoryID,
		Label:       string(i.Label),
		Slug:        i.Slug,
		Image:       h.imageURL(i.Image),
	}
	if i.DiscountPrice != nil {
		d := i.DiscountPrice.InexactFloat64()
		v.DiscountPrice = &d
	}
	return v
}

// imageURL prepends the configured base URL to relative image paths.
func (h *Handler) imageURL(path string) string {
	if h.cfg.ImageBaseURL == "" || path == "" || strings.Contains(path, "://") {
		return path
	}
	return strings.TrimSuffix(h.cfg.ImageBaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}

// ListItems serves the paginated catalog listing with optional category
// filter and case-insensitive title search.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	page := catalog.Page{Number: 1, Size: h.cfg.PageSize}
	if n, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && n > 0 {
		page.Number = n
	}
	if s, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && s > 0 && s <= 100 {
		page.Size = s
	}

	var (
		items []catalog.Item
		err   error
	)
	switch {
	case r.URL.Query().Get("category") != "":
		items, err = h.catalog.ListByCategory(r.Context(), r.URL.Query().Get("category"), page)
	case r.URL.Query().Get("q") != "":
		items, err = h.catalog.SearchItems(r.Context(), r.URL.Query().Get("q"), page)
	default:
		items, err = h.catalog.ListItems(r.Context(), page)
	}
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	views := make([]itemView, len(items))
	for i, item := range items {
		views[i] = h.itemToView(item)
	}
	respond(w, http.StatusOK, views)
}

// GetItem serves a single item by slug.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.catalog.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, h.itemToView(*item))
}

// ListCategories serves all categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	views := make([]categoryView, len(categories))
	for i, c := range categories {
		views[i] = categoryView{Name: c.Name, Slug: c.Slug}
	}
	respond(w, http.StatusOK, views)
}
