package http

import (
	"encoding/json"
	"time"

	"github.com/utafrali/cartql/internal/domain"
	"github.com/utafrali/cartql/internal/money"
)

// --- Response DTOs ---

// MoneyResponse is an amount in minor units with its display form.
type MoneyResponse struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Formatted string `json:"formatted"`
}

func newMoneyResponse(m money.Money) MoneyResponse {
	return MoneyResponse{Amount: m.Amount, Currency: m.Currency.Code, Formatted: m.Formatted()}
}

// ItemResponse is a cart or order item with its computed totals.
type ItemResponse struct {
	domain.CartItem
	UnitTotal MoneyResponse `json:"unit_total"`
	LineTotal MoneyResponse `json:"line_total"`
}

func newItemResponses(items []domain.CartItem, cur money.Currency) []ItemResponse {
	out := make([]ItemResponse, len(items))
	for i, it := range items {
		out[i] = ItemResponse{
			CartItem:  it,
			UnitTotal: newMoneyResponse(money.New(it.UnitTotal, cur)),
			LineTotal: newMoneyResponse(money.New(it.LineTotal(), cur)),
		}
	}
	return out
}

// CartResponse is the REST representation of a cart.
type CartResponse struct {
	ID               string             `json:"id"`
	Currency         money.Currency     `json:"currency"`
	Email            string             `json:"email,omitempty"`
	Items            []ItemResponse     `json:"items"`
	TotalItems       int                `json:"total_items"`
	TotalUniqueItems int                `json:"total_unique_items"`
	SubTotal         MoneyResponse      `json:"sub_total"`
	ShippingTotal    MoneyResponse      `json:"shipping_total"`
	TaxTotal         MoneyResponse      `json:"tax_total"`
	GrandTotal       MoneyResponse      `json:"grand_total"`
	IsEmpty          bool               `json:"is_empty"`
	Abandoned        bool               `json:"abandoned"`
	Attributes       []domain.Attribute `json:"attributes"`
	Metadata         json.RawMessage    `json:"metadata,omitempty"`
	Notes            string             `json:"notes,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

func newCartResponse(c *domain.Cart, now time.Time) CartResponse {
	attrs := c.Attributes
	if attrs == nil {
		attrs = []domain.Attribute{}
	}
	return CartResponse{
		ID:               c.ID,
		Currency:         c.Currency,
		Email:            c.Email,
		Items:            newItemResponses(c.Items, c.Currency),
		TotalItems:       c.TotalItems(),
		TotalUniqueItems: c.TotalUniqueItems(),
		SubTotal:         newMoneyResponse(c.Money(c.SubTotal())),
		ShippingTotal:    newMoneyResponse(c.Money(c.ShippingTotal())),
		TaxTotal:         newMoneyResponse(c.Money(c.TaxTotal())),
		GrandTotal:       newMoneyResponse(c.Money(c.GrandTotal())),
		IsEmpty:          c.IsEmpty(),
		Abandoned:        c.IsAbandoned(now),
		Attributes:       attrs,
		Metadata:         c.Metadata,
		Notes:            c.Notes,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

// OrderResponse is the REST representation of an order.
type OrderResponse struct {
	ID               string             `json:"id"`
	CartID           string             `json:"cart_id"`
	Email            string             `json:"email"`
	Status           domain.OrderStatus `json:"status"`
	Shipping         domain.Address     `json:"shipping"`
	Billing          domain.Address     `json:"billing"`
	Items            []ItemResponse     `json:"items"`
	Currency         money.Currency     `json:"currency"`
	SubTotal         MoneyResponse      `json:"sub_total"`
	ShippingTotal    MoneyResponse      `json:"shipping_total"`
	TaxTotal         MoneyResponse      `json:"tax_total"`
	GrandTotal       MoneyResponse      `json:"grand_total"`
	TotalItems       int                `json:"total_items"`
	TotalUniqueItems int                `json:"total_unique_items"`
	Notes            string             `json:"notes,omitempty"`
	Attributes       []domain.Attribute `json:"attributes"`
	Metadata         json.RawMessage    `json:"metadata,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

func newOrderResponse(o *domain.Order) OrderResponse {
	attrs := o.Attributes
	if attrs == nil {
		attrs = []domain.Attribute{}
	}
	return OrderResponse{
		ID:               o.ID,
		CartID:           o.CartID,
		Email:            o.Email,
		Status:           o.Status,
		Shipping:         o.Shipping,
		Billing:          o.Billing,
		Items:            newItemResponses(o.Items, o.Currency),
		Currency:         o.Currency,
		SubTotal:         newMoneyResponse(o.Money(o.SubTotal)),
		ShippingTotal:    newMoneyResponse(o.Money(o.ShippingTotal)),
		TaxTotal:         newMoneyResponse(o.Money(o.TaxTotal)),
		GrandTotal:       newMoneyResponse(o.Money(o.GrandTotal)),
		TotalItems:       o.TotalItems,
		TotalUniqueItems: o.TotalUniqueItems,
		Notes:            o.Notes,
		Attributes:       attrs,
		Metadata:         o.Metadata,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}
