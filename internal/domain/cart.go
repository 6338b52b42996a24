package domain

import (
	"encoding/json"
	"time"

	"github.com/utafrali/cartql/internal/money"
)

// AbandonAfter is how long a cart may go without an update before it
// counts as abandoned.
const AbandonAfter = 2 * time.Hour

// Limits applied to cart contents.
const (
	MaxItemQuantity = 10000
	MaxCartItems    = 250
)

// ItemType groups cart items into the total buckets.
type ItemType string

const (
	ItemTypeSKU      ItemType = "SKU"
	ItemTypeTax      ItemType = "TAX"
	ItemTypeShipping ItemType = "SHIPPING"
)

// ValidItemType reports whether t is one of the known item types.
func ValidItemType(t ItemType) bool {
	switch t {
	case ItemTypeSKU, ItemTypeTax, ItemTypeShipping:
		return true
	}
	return false
}

// Attribute is a custom key/value pair on a cart, item or order.
type Attribute struct {
	Key   string  `json:"key"`
	Value *string `json:"value,omitempty"`
}

// CartItem is one line in a cart. UnitTotal is the unit price in minor units.
type CartItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	Type        ItemType        `json:"type"`
	Images      []string        `json:"images,omitempty"`
	UnitTotal   int64           `json:"unit_total"`
	Quantity    int             `json:"quantity"`
	Attributes  []Attribute     `json:"attributes,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// LineTotal returns UnitTotal * Quantity.
func (i *CartItem) LineTotal() int64 {
	return i.UnitTotal * int64(i.Quantity)
}

// Cart is a mutable basket keyed by a caller chosen id. Version is bumped by
// the repository on every successful save.
type Cart struct {
	ID         string          `json:"id"`
	Currency   money.Currency  `json:"currency"`
	Email      string          `json:"email,omitempty"`
	Items      []CartItem      `json:"items"`
	Attributes []Attribute     `json:"attributes,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	Notes      string          `json:"notes,omitempty"`
	Version    int64           `json:"version"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// NewCart returns an empty cart created at now.
func NewCart(id string, currency money.Currency, now time.Time) *Cart {
	return &Cart{
		ID:        id,
		Currency:  currency,
		Items:     []CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// FindItemIndex returns the index of the item with the given id, or -1.
func (c *Cart) FindItemIndex(id string) int {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// TotalItems is the sum of all item quantities.
func (c *Cart) TotalItems() int {
	return totalQuantity(c.Items)
}

// TotalUniqueItems is the number of distinct items.
func (c *Cart) TotalUniqueItems() int {
	return len(c.Items)
}

// SubTotal sums the line totals of SKU items.
func (c *Cart) SubTotal() int64 { return sumByType(c.Items, ItemTypeSKU) }

// ShippingTotal sums the line totals of SHIPPING items.
func (c *Cart) ShippingTotal() int64 { return sumByType(c.Items, ItemTypeShipping) }

// TaxTotal sums the line totals of TAX items.
func (c *Cart) TaxTotal() int64 { return sumByType(c.Items, ItemTypeTax) }

// GrandTotal is SubTotal + ShippingTotal + TaxTotal.
func (c *Cart) GrandTotal() int64 {
	return c.SubTotal() + c.ShippingTotal() + c.TaxTotal()
}

// IsEmpty reports whether the cart has no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// IsAbandoned reports whether the cart was last updated more than
// AbandonAfter before now.
func (c *Cart) IsAbandoned(now time.Time) bool {
	return now.Sub(c.UpdatedAt) > AbandonAfter
}

// Money wraps amount in the cart currency.
func (c *Cart) Money(amount int64) money.Money {
	return money.New(amount, c.Currency)
}

// Touch sets UpdatedAt to now.
func (c *Cart) Touch(now time.Time) {
	c.UpdatedAt = now
}

// Clone returns a deep copy of c, so callers can mutate it without
// affecting snapshots held elsewhere.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	out.Items = CloneItems(c.Items)
	out.Attributes = CloneAttributes(c.Attributes)
	out.Metadata = cloneRaw(c.Metadata)
	return &out
}

// CloneItems deep copies items. A nil input yields an empty slice.
func CloneItems(items []CartItem) []CartItem {
	out := make([]CartItem, len(items))
	for i, it := range items {
		it.Images = cloneStrings(it.Images)
		it.Attributes = CloneAttributes(it.Attributes)
		it.Metadata = cloneRaw(it.Metadata)
		out[i] = it
	}
	return out
}

// CloneAttributes deep copies attrs, including the value pointers.
func CloneAttributes(attrs []Attribute) []Attribute {
	if attrs == nil {
		return nil
	}
	out := make([]Attribute, len(attrs))
	for i, a := range attrs {
		if a.Value != nil {
			v := *a.Value
			a.Value = &v
		}
		out[i] = a
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func cloneRaw(r json.RawMessage) json.RawMessage {
	if r == nil {
		return nil
	}
	return append(json.RawMessage(nil), r...)
}

func totalQuantity(items []CartItem) int {
	var n int
	for i := range items {
		n += items[i].Quantity
	}
	return n
}

func sumByType(items []CartItem, t ItemType) int64 {
	var total int64
	for i := range items {
		if items[i].Type == t {
			total += items[i].LineTotal()
		}
	}
	return total
}
