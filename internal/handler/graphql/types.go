package graphql

import (
	"fmt"
	"math"
	"time"

	gql "github.com/graph-gophers/graphql-go"

	"github.com/utafrali/cartql/internal/domain"
	"github.com/utafrali/cartql/internal/money"
)

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func int32Ptr(n int) *int32 {
	v := int32(n)
	return &v
}

func boolPtr(b bool) *bool { return &b }

type cartResolver struct {
	cart *domain.Cart
	now  func() time.Time
}

func (r *cartResolver) ID() gql.ID { return gql.ID(r.cart.ID) }

func (r *cartResolver) Currency() *currencyResolver {
	return &currencyResolver{c: r.cart.Currency}
}

func (r *cartResolver) Email() *string { return optional(r.cart.Email) }

func (r *cartResolver) TotalItems() *int32 { return int32Ptr(r.cart.TotalItems()) }

func (r *cartResolver) TotalUniqueItems() *int32 { return int32Ptr(r.cart.TotalUniqueItems()) }

func (r *cartResolver) Items() []*itemResolver {
	return newItemResolvers(r.cart.Items, r.cart.Currency)
}

func (r *cartResolver) SubTotal() *moneyResolver { return r.money(r.cart.SubTotal()) }

func (r *cartResolver) ShippingTotal() *moneyResolver { return r.money(r.cart.ShippingTotal()) }

func (r *cartResolver) TaxTotal() *moneyResolver { return r.money(r.cart.TaxTotal()) }

func (r *cartResolver) GrandTotal() *moneyResolver { return r.money(r.cart.GrandTotal()) }

func (r *cartResolver) IsEmpty() *bool { return boolPtr(r.cart.IsEmpty()) }

func (r *cartResolver) Abandoned() *bool { return boolPtr(r.cart.IsAbandoned(r.now())) }

func (r *cartResolver) Attributes() []*attributeResolver {
	return newAttributeResolvers(r.cart.Attributes)
}

func (r *cartResolver) Metadata() *JSON { return newJSON(r.cart.Metadata) }

func (r *cartResolver) Notes() *string { return optional(r.cart.Notes) }

func (r *cartResolver) CreatedAt() Date { return newDate(r.cart.CreatedAt) }

func (r *cartResolver) UpdatedAt() Date { return newDate(r.cart.UpdatedAt) }

func (r *cartResolver) money(amount int64) *moneyResolver {
	return &moneyResolver{m: r.cart.Money(amount)}
}

// nodeResolver resolves the Node interface. Cart is its only member.
type nodeResolver struct {
	cart *cartResolver
}

func (r *nodeResolver) ID() gql.ID { return r.cart.ID() }

func (r *nodeResolver) ToCart() (*cartResolver, bool) { return r.cart, r.cart != nil }

type currencyResolver struct {
	c money.Currency
}

func (r *currencyResolver) Code() *string { return optional(r.c.Code) }

func (r *currencyResolver) Symbol() *string { return &r.c.Symbol }

func (r *currencyResolver) ThousandsSeparator() *string { return &r.c.ThousandsSeparator }

func (r *currencyResolver) DecimalSeparator() *string { return &r.c.DecimalSeparator }

func (r *currencyResolver) DecimalDigits() *int32 { return int32Ptr(r.c.DecimalDigits) }

type moneyResolver struct {
	m money.Money
}

// Amount fails for amounts the 32-bit GraphQL Int cannot carry; the
// formatted value is still available.
func (r *moneyResolver) Amount() (*int32, error) {
	if r.m.Amount > math.MaxInt32 || r.m.Amount < math.MinInt32 {
		return nil, &resolverError{
			message: fmt.Sprintf("amount %d does not fit in Int, use formatted", r.m.Amount),
			code:    "AMOUNT_OUT_OF_RANGE",
		}
	}
	v := int32(r.m.Amount)
	return &v, nil
}

func (r *moneyResolver) Currency() *currencyResolver { return &currencyResolver{c: r.m.Currency} }

func (r *moneyResolver) Formatted() string { return r.m.Formatted() }

// itemResolver serves both CartItem and OrderItem.
type itemResolver struct {
	item     domain.CartItem
	currency money.Currency
}

func newItemResolvers(items []domain.CartItem, cur money.Currency) []*itemResolver {
	out := make([]*itemResolver, len(items))
	for i := range items {
		out[i] = &itemResolver{item: items[i], currency: cur}
	}
	return out
}

func (r *itemResolver) ID() gql.ID { return gql.ID(r.item.ID) }

func (r *itemResolver) Name() *string { return optional(r.item.Name) }

func (r *itemResolver) Description() *string { return optional(r.item.Description) }

func (r *itemResolver) Type() string { return string(r.item.Type) }

func (r *itemResolver) Images() *[]*string {
	if r.item.Images == nil {
		return nil
	}
	out := make([]*string, len(r.item.Images))
	for i := range r.item.Images {
		out[i] = &r.item.Images[i]
	}
	return &out
}

func (r *itemResolver) UnitTotal() *moneyResolver {
	return &moneyResolver{m: money.New(r.item.UnitTotal, r.currency)}
}

func (r *itemResolver) LineTotal() *moneyResolver {
	return &moneyResolver{m: money.New(r.item.LineTotal(), r.currency)}
}

func (r *itemResolver) Quantity() int32 { return int32(r.item.Quantity) }

func (r *itemResolver) Attributes() []*attributeResolver {
	return newAttributeResolvers(r.item.Attributes)
}

func (r *itemResolver) Metadata() *JSON { return newJSON(r.item.Metadata) }

func (r *itemResolver) CreatedAt() Date { return newDate(r.item.CreatedAt) }

func (r *itemResolver) UpdatedAt() Date { return newDate(r.item.UpdatedAt) }

// attributeResolver serves both CustomCartAttribute and CustomAttribute.
type attributeResolver struct {
	a domain.Attribute
}

func newAttributeResolvers(attrs []domain.Attribute) []*attributeResolver {
	out := make([]*attributeResolver, len(attrs))
	for i := range attrs {
		out[i] = &attributeResolver{a: attrs[i]}
	}
	return out
}

func (r *attributeResolver) Key() string { return r.a.Key }

func (r *attributeResolver) Value() *string { return r.a.Value }

type orderResolver struct {
	order *domain.Order
}

func (r *orderResolver) ID() gql.ID { return gql.ID(r.order.ID) }

func (r *orderResolver) CartID() gql.ID { return gql.ID(r.order.CartID) }

func (r *orderResolver) Email() string { return r.order.Email }

func (r *orderResolver) Shipping() *addressResolver { return &addressResolver{a: r.order.Shipping} }

func (r *orderResolver) Billing() *addressResolver { return &addressResolver{a: r.order.Billing} }

func (r *orderResolver) Items() []*itemResolver {
	return newItemResolvers(r.order.Items, r.order.Currency)
}

func (r *orderResolver) SubTotal() *moneyResolver { return r.money(r.order.SubTotal) }

func (r *orderResolver) ShippingTotal() *moneyResolver { return r.money(r.order.ShippingTotal) }

func (r *orderResolver) TaxTotal() *moneyResolver { return r.money(r.order.TaxTotal) }

func (r *orderResolver) GrandTotal() *moneyResolver { return r.money(r.order.GrandTotal) }

func (r *orderResolver) TotalItems() int32 { return int32(r.order.TotalItems) }

func (r *orderResolver) TotalUniqueItems() int32 { return int32(r.order.TotalUniqueItems) }

func (r *orderResolver) Notes() *string { return optional(r.order.Notes) }

func (r *orderResolver) Attributes() []*attributeResolver {
	return newAttributeResolvers(r.order.Attributes)
}

func (r *orderResolver) Metadata() *JSON { return newJSON(r.order.Metadata) }

func (r *orderResolver) Status() string { return string(r.order.Status) }

func (r *orderResolver) CreatedAt() Date { return newDate(r.order.CreatedAt) }

func (r *orderResolver) UpdatedAt() Date { return newDate(r.order.UpdatedAt) }

func (r *orderResolver) money(amount int64) *moneyResolver {
	return &moneyResolver{m: r.order.Money(amount)}
}

type addressResolver struct {
	a domain.Address
}

func (r *addressResolver) Company() *string { return optional(r.a.Company) }

func (r *addressResolver) Name() string { return r.a.Name }

func (r *addressResolver) Line1() string { return r.a.Line1 }

func (r *addressResolver) Line2() *string { return optional(r.a.Line2) }

func (r *addressResolver) City() string { return r.a.City }

func (r *addressResolver) State() *string { return optional(r.a.State) }

func (r *addressResolver) PostalCode() string { return r.a.PostalCode }

func (r *addressResolver) Country() string { return r.a.Country }

type orderConnectionResolver struct {
	orders  []domain.Order
	total   int
	page    int
	perPage int
}

func (r *orderConnectionResolver) Nodes() []*orderResolver {
	out := make([]*orderResolver, len(r.orders))
	for i := range r.orders {
		out[i] = &orderResolver{order: &r.orders[i]}
	}
	return out
}

func (r *orderConnectionResolver) TotalCount() int32 { return int32(r.total) }

func (r *orderConnectionResolver) Page() int32 { return int32(r.page) }

func (r *orderConnectionResolver) PerPage() int32 { return int32(r.perPage) }

type deletePayloadResolver struct {
	success bool
	message string
}

func (r *deletePayloadResolver) Success() bool { return r.success }

func (r *deletePayloadResolver) Message() *string { return optional(r.message) }
