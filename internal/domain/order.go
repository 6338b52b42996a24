package domain

import (
	"encoding/json"
	"time"

	"github.com/utafrali/cartql/internal/money"
)

// OrderStatus reflects the payment state of an order.
type OrderStatus string

const (
	OrderStatusUnpaid OrderStatus = "UNPAID"
	OrderStatusPaid   OrderStatus = "PAID"
)

// ValidOrderStatus reports whether s is a known status.
func ValidOrderStatus(s OrderStatus) bool {
	return s == OrderStatusUnpaid || s == OrderStatusPaid
}

// OrderItem is a frozen copy of a cart item. Order items are identical to
// cart items.
type OrderItem = CartItem

// Address is a shipping or billing address attached to an order.
type Address struct {
	Company    string `json:"company,omitempty"`
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Order is the immutable result of checking out a cart. Only Status and
// UpdatedAt change after creation.
type Order struct {
	ID               string          `json:"id"`
	CartID           string          `json:"cart_id"`
	Email            string          `json:"email"`
	Shipping         Address         `json:"shipping"`
	Billing          Address         `json:"billing"`
	Items            []OrderItem     `json:"items"`
	Currency         money.Currency  `json:"currency"`
	SubTotal         int64           `json:"sub_total"`
	ShippingTotal    int64           `json:"shipping_total"`
	TaxTotal         int64           `json:"tax_total"`
	GrandTotal       int64           `json:"grand_total"`
	TotalItems       int             `json:"total_items"`
	TotalUniqueItems int             `json:"total_unique_items"`
	Notes            string          `json:"notes,omitempty"`
	Attributes       []Attribute     `json:"attributes,omitempty"`
	Metadata         json.RawMessage `json:"metadata,omitempty"`
	Status           OrderStatus     `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// CheckoutDetails are the caller supplied parts of an order.
type CheckoutDetails struct {
	Email    string
	Shipping Address
	// Billing defaults to Shipping when nil.
	Billing *Address
	// Notes and Metadata default to the cart's values when nil.
	Notes    *string
	Metadata json.RawMessage
}

// NewOrderFromCart freezes cart into a new UNPAID order. Items, attributes
// and metadata are deep copied so later cart mutations cannot reach the order.
func NewOrderFromCart(id string, cart *Cart, d CheckoutDetails, now time.Time) *Order {
	billing := d.Shipping
	if d.Billing != nil {
		billing = *d.Billing
	}
	notes := cart.Notes
	if d.Notes != nil {
		notes = *d.Notes
	}
	metadata := cloneRaw(cart.Metadata)
	if d.Metadata != nil {
		metadata = cloneRaw(d.Metadata)
	}

	return &Order{
		ID:               id,
		CartID:           cart.ID,
		Email:            d.Email,
		Shipping:         d.Shipping,
		Billing:          billing,
		Items:            CloneItems(cart.Items),
		Currency:         cart.Currency,
		SubTotal:         cart.SubTotal(),
		ShippingTotal:    cart.ShippingTotal(),
		TaxTotal:         cart.TaxTotal(),
		GrandTotal:       cart.GrandTotal(),
		TotalItems:       cart.TotalItems(),
		TotalUniqueItems: cart.TotalUniqueItems(),
		Notes:            notes,
		Attributes:       CloneAttributes(cart.Attributes),
		Metadata:         metadata,
		Status:           OrderStatusUnpaid,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// CanTransitionTo reports whether the order may move to target. The only
// transition is UNPAID -> PAID.
func (o *Order) CanTransitionTo(target OrderStatus) bool {
	return o.Status == OrderStatusUnpaid && target == OrderStatusPaid
}

// Money wraps amount in the order currency.
func (o *Order) Money(amount int64) money.Money {
	return money.New(amount, o.Currency)
}

// Clone returns a deep copy of o.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	out := *o
	out.Items = CloneItems(o.Items)
	out.Attributes = CloneAttributes(o.Attributes)
	out.Metadata = cloneRaw(o.Metadata)
	return &out
}
