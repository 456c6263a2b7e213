package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/address"
	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/payment"
	"github.com/xenking/storefront/internal/domain/refund"
	"github.com/xenking/storefront/internal/domain/user"
)

// --- In-memory backing store shared by the mock repositories ---

type memStore struct {
	items     []catalog.Item
	coupons   map[string]*coupon.Coupon
	lines     map[string]*cart.Line
	orders    map[string]*cart.Order
	attached  map[string][]string
	addresses map[string]*address.Address
	payments  []*payment.Payment
	refunds   []*refund.Refund
	users     map[string]*user.User
	profiles  []*user.Profile
	tokens    []*auth.TokenInfo
}

func newMemStore() *memStore {
	return &memStore{
		coupons:   make(map[string]*coupon.Coupon),
		lines:     make(map[string]*cart.Line),
		orders:    make(map[string]*cart.Order),
		attached:  make(map[string][]string),
		addresses: make(map[string]*address.Address),
		users:     make(map[string]*user.User),
	}
}

type memCatalog struct{ s *memStore }

func (m *memCatalog) ListItems(_ context.Context, _ catalog.Page) ([]catalog.Item, error) {
	return m.s.items, nil
}

func (m *memCatalog) ListByCategory(_ context.Context, slug string, _ catalog.Page) ([]catalog.Item, error) {
	var out []catalog.Item
	for _, i := range m.s.items {
		if i.CategoryID == slug {
			out = append(out, i)
		}
	}
	return out, nil
}

func (m *memCatalog) SearchItems(_ context.Context, _ string, _ catalog.Page) ([]catalog.Item, error) {
	return m.s.items, nil
}

func (m *memCatalog) GetBySlug(_ context.Context, slug string) (*catalog.Item, error) {
	for i := range m.s.items {
		if m.s.items[i].Slug == slug {
			return &m.s.items[i], nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (m *memCatalog) GetByID(_ context.Context, id string) (*catalog.Item, error) {
	for i := range m.s.items {
		if m.s.items[i].ID == id {
			return &m.s.items[i], nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (m *memCatalog) ListCategories(_ context.Context) ([]catalog.Category, error) {
	return nil, nil
}

func (m *memCatalog) GetCategory(_ context.Context, _ string) (*catalog.Category, error) {
	return nil, catalog.ErrCategoryNotFound
}

type memCoupons struct{ s *memStore }

func (m *memCoupons) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	if c, ok := m.s.coupons[code]; ok {
		return c, nil
	}
	return nil, coupon.ErrNotFound
}

func (m *memCoupons) GetByID(_ context.Context, id string) (*coupon.Coupon, error) {
	for _, c := range m.s.coupons {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, coupon.ErrNotFound
}

type memLines struct{ s *memStore }

func (m *memLines) FindOpen(_ context.Context, userID, itemID string) (*cart.Line, error) {
	for _, l := range m.s.lines {
		if l.UserID == userID && l.ItemID == itemID && !l.Ordered {
			return l, nil
		}
	}
	return nil, cart.ErrLineNotFound
}

func (m *memLines) Create(_ context.Context, line *cart.Line) error {
	cp := *line
	m.s.lines[line.ID] = &cp
	return nil
}

func (m *memLines) UpdateQuantity(_ context.Context, lineID string, quantity int) error {
	m.s.lines[lineID].Quantity = quantity
	return nil
}

func (m *memLines) Delete(_ context.Context, lineID string) error {
	delete(m.s.lines, lineID)
	return nil
}

func (m *memLines) MarkOrdered(_ context.Context, lineIDs []string) error {
	for _, id := range lineIDs {
		if l, ok := m.s.lines[id]; ok {
			l.Ordered = true
		}
	}
	return nil
}

type memOrders struct{ s *memStore }

func (m *memOrders) FindOpen(_ context.Context, userID string) (*cart.Order, error) {
	for _, o := range m.s.orders {
		if o.UserID == userID && !o.Ordered {
			return o, nil
		}
	}
	return nil, cart.ErrNoActiveOrder
}

func (m *memOrders) FindByRefCode(_ context.Context, refCode string) (*cart.Order, error) {
	for _, o := range m.s.orders {
		if o.RefCode == refCode {
			return o, nil
		}
	}
	return nil, cart.ErrOrderNotFound
}

func (m *memOrders) FindUserOrder(_ context.Context, userID, refCode string) (*cart.Order, error) {
	for _, o := range m.s.orders {
		if o.UserID == userID && o.RefCode == refCode {
			return o, nil
		}
	}
	return nil, cart.ErrOrderNotFound
}

func (m *memOrders) ListFinalized(_ context.Context, userID string) ([]cart.Order, error) {
	var out []cart.Order
	for _, o := range m.s.orders {
		if o.UserID == userID && o.Ordered {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memOrders) Create(_ context.Context, order *cart.Order) error {
	cp := *order
	m.s.orders[order.ID] = &cp
	return nil
}

func (m *memOrders) AttachLine(_ context.Context, orderID, lineID string) error {
	m.s.attached[orderID] = append(m.s.attached[orderID], lineID)
	return nil
}

func (m *memOrders) DetachLine(_ context.Context, orderID, lineID string) error {
	ids := m.s.attached[orderID]
	for i, id := range ids {
		if id == lineID {
			m.s.attached[orderID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memOrders) ContainsItem(_ context.Context, orderID, itemID string) (bool, error) {
	for _, lineID := range m.s.attached[orderID] {
		if l, ok := m.s.lines[lineID]; ok && l.ItemID == itemID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memOrders) Lines(_ context.Context, orderID string) ([]cart.Line, error) {
	var out []cart.Line
	for _, lineID := range m.s.attached[orderID] {
		if l, ok := m.s.lines[lineID]; ok {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *memOrders) SetAddresses(_ context.Context, orderID, shippingID, billingID string) error {
	o := m.s.orders[orderID]
	o.ShippingAddressID = shippingID
	o.BillingAddressID = billingID
	return nil
}

func (m *memOrders) SetCoupon(_ context.Context, orderID, couponID string) error {
	m.s.orders[orderID].CouponID = couponID
	return nil
}

func (m *memOrders) Finalize(_ context.Context, params cart.FinalizeParams) error {
	o := m.s.orders[params.OrderID]
	o.Ordered = true
	o.PaymentID = params.PaymentID
	o.RefCode = params.RefCode
	at := params.OrderedAt
	o.OrderedAt = &at
	return nil
}

func (m *memOrders) SetRefundRequested(_ context.Context, orderID string) error {
	m.s.orders[orderID].RefundRequested = true
	return nil
}

func (m *memOrders) SetRefundGranted(_ context.Context, orderID string) error {
	m.s.orders[orderID].RefundGranted = true
	return nil
}

type memAddresses struct{ s *memStore }

func (m *memAddresses) Create(_ context.Context, a *address.Address) error {
	cp := *a
	m.s.addresses[a.ID] = &cp
	return nil
}

func (m *memAddresses) DefaultFor(_ context.Context, userID string, role address.Role) (*address.Address, error) {
	for _, a := range m.s.addresses {
		if a.UserID == userID && a.Role == role && a.Default {
			return a, nil
		}
	}
	return nil, address.ErrNoDefault
}

func (m *memAddresses) GetByID(_ context.Context, id string) (*address.Address, error) {
	if a, ok := m.s.addresses[id]; ok {
		return a, nil
	}
	return nil, address.ErrNoDefault
}

type memPayments struct{ s *memStore }

func (m *memPayments) Create(_ context.Context, p *payment.Payment) error {
	cp := *p
	m.s.payments = append(m.s.payments, &cp)
	return nil
}

type memRefunds struct{ s *memStore }

func (m *memRefunds) Create(_ context.Context, r *refund.Refund) error {
	cp := *r
	m.s.refunds = append(m.s.refunds, &cp)
	return nil
}

func (m *memRefunds) SetAccepted(_ context.Context, orderRef string) error {
	for _, r := range m.s.refunds {
		if r.OrderRef == orderRef {
			r.Accepted = true
		}
	}
	return nil
}

type memUsers struct{ s *memStore }

func (m *memUsers) Create(_ context.Context, u *user.User) error {
	if _, ok := m.s.users[u.Username]; ok {
		return user.ErrUsernameTaken
	}
	cp := *u
	m.s.users[u.Username] = &cp
	return nil
}

func (m *memUsers) CreateProfile(_ context.Context, p *user.Profile) error {
	cp := *p
	m.s.profiles = append(m.s.profiles, &cp)
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	for _, u := range m.s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

type memTokens struct{ s *memStore }

func (m *memTokens) FindByHash(_ context.Context, hash string) (*auth.TokenInfo, error) {
	for _, t := range m.s.tokens {
		if t.TokenHash == hash && t.Active {
			return t, nil
		}
	}
	return nil, auth.ErrTokenNotFound
}

func (m *memTokens) Create(_ context.Context, t *auth.TokenInfo) error {
	cp := *t
	m.s.tokens = append(m.s.tokens, &cp)
	return nil
}

type stubGateway struct {
	err error
}

func (g *stubGateway) Charge(_ context.Context, _ payment.ChargeRequest) (*payment.ChargeResult, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &payment.ChargeResult{ChargeID: "ch_test"}, nil
}

// --- Fixture ---

type fixture struct {
	store   *memStore
	gateway *stubGateway
	server  *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newMemStore()
	discounted := decimal.RequireFromString("30.00")
	store.items = []catalog.Item{
		{ID: "i1", Title: "Oxford shirt", Price: decimal.RequireFromString("40.00"), Slug: "oxford-shirt", Image: "items/oxford.jpg"},
		{ID: "i2", Title: "Field jacket", Price: decimal.RequireFromString("99.00"), DiscountPrice: &discounted, Slug: "field-jacket"},
	}
	store.coupons["SUMMER20"] = &coupon.Coupon{ID: "c1", Code: "SUMMER20", Amount: decimal.NewFromInt(20)}

	pepper := []byte("test-pepper")
	catalogRepo := &memCatalog{s: store}
	lines := &memLines{s: store}
	orders := &memOrders{s: store}
	gateway := &stubGateway{}

	cartSvc := cart.NewService(catalogRepo, lines, orders, &memCoupons{s: store})
	checkoutSvc := checkout.NewService(&memAddresses{s: store}, orders)
	paymentSvc := payment.NewService(cartSvc, orders, lines, &memPayments{s: store}, gateway, "usd")
	refundSvc := refund.NewService(orders, &memRefunds{s: store})
	userSvc := user.NewService(&memUsers{s: store}, &memTokens{s: store}, pepper)

	h := New(
		Config{PageSize: 10, ImageBaseURL: "https://cdn.test"},
		catalogRepo,
		cartSvc,
		checkoutSvc,
		paymentSvc,
		refundSvc,
		userSvc,
		orders,
	)
	authn := NewAuthenticator(&memTokens{s: store}, pepper)

	srv := httptest.NewServer(h.Routes(authn.Middleware))
	t.Cleanup(srv.Close)

	return &fixture{store: store, gateway: gateway, server: srv}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func (f *fixture) register(t *testing.T, username string) string {
	t.Helper()

	resp, body := f.do(t, http.MethodPost, "/users", "", map[string]string{
		"username": username,
		"password": "longenough",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func (f *fixture) checkoutBody() map[string]any {
	return map[string]any{
		"shipping":       map[string]any{"street": "1 Main St", "country": "US", "zip": "94107"},
		"billing":        map[string]any{"same_as_shipping": true},
		"payment_option": "card",
	}
}

// --- Tests ---

func TestRegisterAndAuthenticate(t *testing.T) {
	f := newFixture(t)

	token := f.register(t, "alice")

	// The returned token authenticates subsequent requests.
	resp, body := f.do(t, http.MethodPost, "/cart/oxford-shirt", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "item added to your cart", body["message"])
}

func TestRegister_DuplicateUsername(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice")

	resp, body := f.do(t, http.MethodPost, "/users", "", map[string]string{
		"username": "alice",
		"password": "longenough",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, float64(http.StatusConflict), body["code"])
}

func TestRegister_ShortPassword(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodPost, "/users", "", map[string]string{
		"username": "alice",
		"password": "short",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuth_MissingToken(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/cart", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "missing bearer token", body["message"])
}

func TestAuth_InvalidToken(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/cart", "deadbeef", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid session token", body["message"])
}

func TestListItems_ImageBaseURL(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.server.URL + "/products")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var items []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	require.Len(t, items, 2)
	assert.Equal(t, "https://cdn.test/items/oxford.jpg", items[0]["image"])
}

func TestGetItem_DiscountPrice(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/products/field-jacket", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 99.0, body["price"])
	assert.Equal(t, 30.0, body["discount_price"])
}

func TestGetItem_NotFound(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodGet, "/products/nope", "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAddToCart_RepeatAdd(t *testing.T) {
	f := newFixture(t)
	token := f.register(t, "alice")

	resp, _ := f.do(t, http.MethodPost, "/cart/oxford-shirt", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := f.do(t, http.MethodPost, "/cart/oxford-shirt", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "item quantity was updated", body["message"])
	assert.Equal(t, 2.0, body["quantity"])
}

func TestRemoveFromCart_NotInCart(t *testing.T) {
	f := newFixture(t)
	token := f.register(t, "alice")

	_, _ = f.do(t, http.MethodPost, "/cart/oxford-shirt", token, nil)

	resp, _ := f.do(t, http.MethodDelete, "/cart/field-jacket", token, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCartSummary_WithCoupon(t *testing.T) {
	f := newFixture(t)
	token := f.register(t, "alice")

	for range 3 {
		resp, _ := f.do(t, http.MethodPost, "/cart/oxford-shirt", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, _ := f.do(t, http.MethodPost, "/checkout/coupon", token, map[string]string{"code": "SUMMER20"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := f.do(t, http.MethodGet, "/cart", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 120.0, body["subtotal"])
	assert.Equal(t, 20.0, body["discount"])
	assert.Equal(t, 100.0, body["total"])
	assert.Equal(t, "SUMMER20", body["coupon_code"])
}

func TestApplyCoupon_UnknownCode(t *testing.T) {
	f := newFixture(t)
	token := f.register(t, "alice")

	_, _ = f.do(t, http.MethodPost, "/cart/oxford-shirt", token, nil)

	resp, _ := f.do(t, http.MethodPost, "/checkout/coupon", token, map[string]string{"code": "NOPE"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCheckout_ResolvesAddresses(t *testing.T) {
	f := newFixture(t)
	token := f.register(t, "alice")
	_, _ = f.do(t, http.MethodPost, "/cart/oxford-shirt", token, nil)

	resp, body := f.do(t, http.MethodPost, "/checkout", token, f.checkoutBody())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	shipping, _ := body["shipping"].(map[string]any)
	billing, _ := body["billing"].(map[string]any)
	require.NotNil(t, shipping)
	require.NotNil(t, billing)
	assert.Equal(t, "1 Main St", shipping["street"])
	assert.Equal(t, "1 Main St", billing["street"])
}

func TestCheckout_ValidationError(t *testing.T) {
	f := newFixture(t)
	token := f.register(t, "alice")
	_, _ = f.do(t, http.MethodPost, "/cart/oxford-shirt", token, nil)

	body := f.checkoutBody()
	body["shipping"] = map[string]any{"street": "1 Main St"}
	resp, out := f.do(t, http.MethodPost, "/checkout", token, body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out["message"], "shipping")
}

func TestCapturePayment_BeforeCheckout(t *testing.T) {
	f := newFixture(t)
	token := f.register(t, "alice")
	_, _ = f.do(t, http.MethodPost, "/cart/oxford-shirt", token, nil)

	resp, _ := f.do(t, http.MethodPost, "/payment", token, map[string]string{"token": "tok_visa"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCapturePayment_EmptyToken(t *testing.T) {
	f := newFixture(t)
	token := f.register(t, "alice")

	resp, _ := f.do(t, http.MethodPost, "/payment", token, map[string]string{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCapturePayment_Declined(t *testing.T) {
	f := newFixture(t)
	token := f.register(t, "alice")
	_, _ = f.do(t, http.MethodPost, "/cart/oxford-shirt", token, nil)
	resp, _ := f.do(t, http.MethodPost, "/checkout", token, f.checkoutBody())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	f.gateway.err = &payment.GatewayError{Kind: payment.KindCardDeclined, Message: "card_declined"}

	resp, body := f.do(t, http.MethodPost, "/payment", token, map[string]string{"token": "tok_visa"})
	require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, "Your card was declined", body["message"])
	assert.Empty(t, f.store.payments)
}

func TestFullPurchaseFlow(t *testing.T) {
	f := newFixture(t)
	token := f.register(t, "alice")

	_, _ = f.do(t, http.MethodPost, "/cart/oxford-shirt", token, nil)
	_, _ = f.do(t, http.MethodPost, "/cart/field-jacket", token, nil)

	resp, _ := f.do(t, http.MethodPost, "/checkout", token, f.checkoutBody())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := f.do(t, http.MethodPost, "/payment", token, map[string]string{"token": "tok_visa"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	refCode, _ := body["ref_code"].(string)
	require.Len(t, refCode, 20)
	// 40.00 + discounted 30.00.
	assert.Equal(t, 70.0, body["total"])

	// The cart is now empty.
	resp, _ = f.do(t, http.MethodGet, "/cart", token, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	// The order shows up in the history and by reference code.
	resp, _ = f.do(t, http.MethodGet, "/orders", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = f.do(t, http.MethodGet, "/orders/"+refCode, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 70.0, body["total"])

	// A refund request against the finalized order succeeds.
	resp, _ = f.do(t, http.MethodPost, "/refunds", token, map[string]string{
		"ref_code": refCode,
		"reason":   "wrong size",
		"email":    "alice@example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, f.store.refunds, 1)
}

func TestRequestRefund_MissingFields(t *testing.T) {
	f := newFixture(t)
	token := f.register(t, "alice")

	resp, _ := f.do(t, http.MethodPost, "/refunds", token, map[string]string{"reason": "x"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRequestRefund_UnknownRefCode(t *testing.T) {
	f := newFixture(t)
	token := f.register(t, "alice")

	resp, _ := f.do(t, http.MethodPost, "/refunds", token, map[string]string{
		"ref_code": "nope",
		"email":    "a@b.com",
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, f.store.refunds)
}

func TestGetOrder_OtherUsersOrderHidden(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	_, _ = f.do(t, http.MethodPost, "/cart/oxford-shirt", alice, nil)
	resp, _ := f.do(t, http.MethodPost, "/checkout", alice, f.checkoutBody())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body := f.do(t, http.MethodPost, "/payment", alice, map[string]string{"token": "tok_visa"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	refCode, _ := body["ref_code"].(string)

	resp, _ = f.do(t, http.MethodGet, "/orders/"+refCode, bob, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
