package checkout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/address"
	"github.com/xenking/storefront/internal/domain/cart"
)

// --- Mock implementations ---

type mockAddresses struct {
	created  []*address.Address
	defaults map[address.Role]*address.Address
}

func newMockAddresses() *mockAddresses {
	return &mockAddresses{defaults: make(map[address.Role]*address.Address)}
}

func (m *mockAddresses) Create(_ context.Context, a *address.Address) error {
	cp := *a
	m.created = append(m.created, &cp)
	return nil
}

func (m *mockAddresses) DefaultFor(_ context.Context, _ string, role address.Role) (*address.Address, error) {
	if a, ok := m.defaults[role]; ok {
		return a, nil
	}
	return nil, address.ErrNoDefault
}

func (m *mockAddresses) GetByID(_ context.Context, id string) (*address.Address, error) {
	for _, a := range m.created {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, address.ErrNoDefault
}

type mockOrders struct {
	open       *cart.Order
	shippingID string
	billingID  string
	setCalled  bool
}

func (m *mockOrders) FindOpen(_ context.Context, _ string) (*cart.Order, error) {
	if m.open == nil {
		return nil, cart.ErrNoActiveOrder
	}
	return m.open, nil
}

func (m *mockOrders) FindByRefCode(_ context.Context, _ string) (*cart.Order, error) {
	return nil, cart.ErrOrderNotFound
}

func (m *mockOrders) FindUserOrder(_ context.Context, _, _ string) (*cart.Order, error) {
	return nil, cart.ErrOrderNotFound
}

func (m *mockOrders) ListFinalized(_ context.Context, _ string) ([]cart.Order, error) {
	return nil, nil
}

func (m *mockOrders) Create(_ context.Context, _ *cart.Order) error { return nil }

func (m *mockOrders) AttachLine(_ context.Context, _, _ string) error { return nil }

func (m *mockOrders) DetachLine(_ context.Context, _, _ string) error { return nil }

func (m *mockOrders) ContainsItem(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}

func (m *mockOrders) Lines(_ context.Context, _ string) ([]cart.Line, error) { return nil, nil }

func (m *mockOrders) SetAddresses(_ context.Context, _, shippingID, billingID string) error {
	m.setCalled = true
	m.shippingID = shippingID
	m.billingID = billingID
	return nil
}

func (m *mockOrders) SetCoupon(_ context.Context, _, _ string) error { return nil }

func (m *mockOrders) Finalize(_ context.Context, _ cart.FinalizeParams) error { return nil }

func (m *mockOrders) SetRefundRequested(_ context.Context, _ string) error { return nil }

func (m *mockOrders) SetRefundGranted(_ context.Context, _ string) error { return nil }

// --- Helpers ---

func validShipping() AddressForm {
	return AddressForm{Street: "1 Main St", Country: "US", Zip: "94107"}
}

func openOrder() *cart.Order {
	return &cart.Order{ID: "o1", UserID: "u1"}
}

// --- Tests ---

func TestSubmit_NoActiveOrder(t *testing.T) {
	svc := NewService(newMockAddresses(), &mockOrders{})

	_, err := svc.Submit(context.Background(), "u1", Form{
		Shipping:      validShipping(),
		Billing:       AddressForm{SameAsShipping: true},
		PaymentOption: PaymentCard,
	})
	require.ErrorIs(t, err, cart.ErrNoActiveOrder)
}

func TestSubmit_NewAddressesBothRoles(t *testing.T) {
	addrs := newMockAddresses()
	orders := &mockOrders{open: openOrder()}
	svc := NewService(addrs, orders)

	res, err := svc.Submit(context.Background(), "u1", Form{
		Shipping: validShipping(),
		Billing:  AddressForm{Street: "2 Billing Rd", Country: "US", Zip: "10001"},

		PaymentOption: PaymentCard,
	})
	require.NoError(t, err)

	require.Len(t, addrs.created, 2)
	assert.Equal(t, address.RoleShipping, res.Shipping.Role)
	assert.Equal(t, address.RoleBilling, res.Billing.Role)
	assert.True(t, orders.setCalled)
	assert.Equal(t, res.Shipping.ID, orders.shippingID)
	assert.Equal(t, res.Billing.ID, orders.billingID)
}

func TestSubmit_BillingSameAsShipping(t *testing.T) {
	addrs := newMockAddresses()
	svc := NewService(addrs, &mockOrders{open: openOrder()})

	res, err := svc.Submit(context.Background(), "u1", Form{
		Shipping:      validShipping(),
		Billing:       AddressForm{SameAsShipping: true},
		PaymentOption: PaymentCard,
	})
	require.NoError(t, err)

	// A distinct billing row is created with the shipping fields copied over.
	require.Len(t, addrs.created, 2)
	assert.NotEqual(t, res.Shipping.ID, res.Billing.ID)
	assert.Equal(t, res.Shipping.Street, res.Billing.Street)
	assert.Equal(t, res.Shipping.Zip, res.Billing.Zip)
	assert.Equal(t, address.RoleBilling, res.Billing.Role)
}

func TestSubmit_UseDefaultShipping(t *testing.T) {
	addrs := newMockAddresses()
	def := &address.Address{ID: "a-def", UserID: "u1", Street: "Old St", Country: "US", Zip: "1", Role: address.RoleShipping, Default: true}
	addrs.defaults[address.RoleShipping] = def
	svc := NewService(addrs, &mockOrders{open: openOrder()})

	res, err := svc.Submit(context.Background(), "u1", Form{
		Shipping:      AddressForm{UseDefault: true},
		Billing:       AddressForm{SameAsShipping: true},
		PaymentOption: PaymentCard,
	})
	require.NoError(t, err)

	assert.Equal(t, "a-def", res.Shipping.ID)
	// Only the billing copy was created, the default was reused.
	require.Len(t, addrs.created, 1)
}

func TestSubmit_UseDefaultWithNoneOnFile(t *testing.T) {
	orders := &mockOrders{open: openOrder()}
	svc := NewService(newMockAddresses(), orders)

	_, err := svc.Submit(context.Background(), "u1", Form{
		Shipping:      AddressForm{UseDefault: true},
		Billing:       AddressForm{SameAsShipping: true},
		PaymentOption: PaymentCard,
	})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Message, "no default shipping address")
	assert.False(t, orders.setCalled)
}

func TestSubmit_MissingRequiredFields(t *testing.T) {
	orders := &mockOrders{open: openOrder()}
	svc := NewService(newMockAddresses(), orders)

	_, err := svc.Submit(context.Background(), "u1", Form{
		Shipping:      AddressForm{Street: "1 Main St"},
		Billing:       AddressForm{SameAsShipping: true},
		PaymentOption: PaymentCard,
	})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Message, "shipping")
	assert.False(t, orders.setCalled)
}

func TestSubmit_ApartmentOptional(t *testing.T) {
	svc := NewService(newMockAddresses(), &mockOrders{open: openOrder()})

	form := validShipping()
	form.Apartment = ""
	_, err := svc.Submit(context.Background(), "u1", Form{
		Shipping:      form,
		Billing:       AddressForm{SameAsShipping: true},
		PaymentOption: PaymentCard,
	})
	require.NoError(t, err)
}

func TestSubmit_SaveDefaultFlag(t *testing.T) {
	addrs := newMockAddresses()
	svc := NewService(addrs, &mockOrders{open: openOrder()})

	form := validShipping()
	form.SaveDefault = true
	_, err := svc.Submit(context.Background(), "u1", Form{
		Shipping:      form,
		Billing:       AddressForm{SameAsShipping: true},
		PaymentOption: PaymentCard,
	})
	require.NoError(t, err)

	require.NotEmpty(t, addrs.created)
	assert.True(t, addrs.created[0].Default)
}

func TestSubmit_WalletUnsupported(t *testing.T) {
	orders := &mockOrders{open: openOrder()}
	svc := NewService(newMockAddresses(), orders)

	_, err := svc.Submit(context.Background(), "u1", Form{
		Shipping:      validShipping(),
		Billing:       AddressForm{SameAsShipping: true},
		PaymentOption: PaymentWallet,
	})
	require.ErrorIs(t, err, ErrWalletUnsupported)
	assert.False(t, orders.setCalled)
}

func TestSubmit_InvalidPaymentOption(t *testing.T) {
	svc := NewService(newMockAddresses(), &mockOrders{open: openOrder()})

	_, err := svc.Submit(context.Background(), "u1", Form{
		Shipping:      validShipping(),
		Billing:       AddressForm{SameAsShipping: true},
		PaymentOption: "cheque",
	})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}
