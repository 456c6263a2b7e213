package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/storefront/internal/domain/address"
	"github.com/xenking/storefront/internal/domain/cart"
)

// PaymentOption selects how the resolved order will be paid.
type PaymentOption string

const (
	PaymentCard   PaymentOption = "card"
	PaymentWallet PaymentOption = "wallet"
)

// ErrWalletUnsupported is returned when the wallet payment option is chosen.
// The option is accepted by the form but has no capture flow behind it.
var ErrWalletUnsupported = errors.New("wallet payments are not yet supported")

// ValidationError carries a user-facing message about a rejected checkout form.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AddressForm holds the submitted fields and flags for one address role.
type AddressForm struct {
	Street    string
	Apartment string
	Country   string
	Zip       string
	// UseDefault resolves the role from the address on file instead of the fields.
	UseDefault bool
	// SaveDefault marks the newly created address as the role's default.
	SaveDefault bool
	// SameAsShipping duplicates the resolved shipping address. Billing only.
	SameAsShipping bool
}

// Form is the complete checkout submission.
type Form struct {
	Shipping      AddressForm
	Billing       AddressForm
	PaymentOption PaymentOption
}

// Result reports the resolved addresses after a successful checkout.
type Result struct {
	Order         *cart.Order
	Shipping      *address.Address
	Billing       *address.Address
	PaymentOption PaymentOption
}

// Service resolves checkout submissions against the user's open order.
type Service struct {
	addresses address.Repository
	orders    cart.OrderRepository
}

// NewService creates a checkout Service.
func NewService(addresses address.Repository, orders cart.OrderRepository) *Service {
	return &Service{addresses: addresses, orders: orders}
}

// Submit resolves the shipping then the billing address for the user's open
// order and persists both references on it. Any resolution failure leaves the
// order untouched. The payment option is validated last so address errors
// surface first, matching the form's field order.
func (s *Service) Submit(ctx context.Context, userID string, form Form) (*Result, error) {
	order, err := s.orders.FindOpen(ctx, userID)
	if err != nil {
		return nil, err
	}

	shipping, err := s.resolve(ctx, userID, address.RoleShipping, form.Shipping, nil)
	if err != nil {
		return nil, err
	}

	billing, err := s.resolve(ctx, userID, address.RoleBilling, form.Billing, shipping)
	if err != nil {
		return nil, err
	}

	switch form.PaymentOption {
	case PaymentCard:
	case PaymentWallet:
		return nil, ErrWalletUnsupported
	default:
		return nil, &ValidationError{Message: "invalid payment option selected"}
	}

	if err := s.orders.SetAddresses(ctx, order.ID, shipping.ID, billing.ID); err != nil {
		return nil, errors.Wrap(err, "set order addresses")
	}

	order.ShippingAddressID = shipping.ID
	order.BillingAddressID = billing.ID

	return &Result{
		Order:         order,
		Shipping:      shipping,
		Billing:       billing,
		PaymentOption: form.PaymentOption,
	}, nil
}

// resolve runs the per-role state machine: default on file, copy from
// shipping (billing only), or a freshly validated address.
func (s *Service) resolve(
	ctx context.Context,
	userID string,
	role address.Role,
	form AddressForm,
	shipping *address.Address,
) (*address.Address, error) {
	if form.UseDefault {
		a, err := s.addresses.DefaultFor(ctx, userID, role)
		if err != nil {
			if errors.Is(err, address.ErrNoDefault) {
				return nil, &ValidationError{
					Message: fmt.Sprintf("no default %s address available", role),
				}
			}
			return nil, errors.Wrapf(err, "default %s address", role)
		}
		return a, nil
	}

	if role == address.RoleBilling && form.SameAsShipping {
		dup := &address.Address{
			ID:        uuid.New().String(),
			UserID:    userID,
			Street:    shipping.Street,
			Apartment: shipping.Apartment,
			Country:   shipping.Country,
			Zip:       shipping.Zip,
			Role:      address.RoleBilling,
		}
		if err := s.addresses.Create(ctx, dup); err != nil {
			return nil, errors.Wrap(err, "copy shipping address")
		}
		return dup, nil
	}

	// Apartment is the only optional field.
	if strings.TrimSpace(form.Street) == "" ||
		strings.TrimSpace(form.Country) == "" ||
		strings.TrimSpace(form.Zip) == "" {
		return nil, &ValidationError{
			Message: fmt.Sprintf("please fill in the required %s address fields", role),
		}
	}

	a := &address.Address{
		ID:        uuid.New().String(),
		UserID:    userID,
		Street:    form.Street,
		Apartment: form.Apartment,
		Country:   form.Country,
		Zip:       form.Zip,
		Role:      role,
		Default:   form.SaveDefault,
	}
	if err := s.addresses.Create(ctx, a); err != nil {
		return nil, errors.Wrapf(err, "create %s address", role)
	}
	return a, nil
}
