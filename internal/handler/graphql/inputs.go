package graphql

import (
	gql "github.com/graph-gophers/graphql-go"

	"github.com/utafrali/cartql/internal/domain"
	"github.com/utafrali/cartql/internal/service"
)

type currencyInput struct {
	Code               *string
	Symbol             *string
	ThousandsSeparator *string
	DecimalSeparator   *string
	DecimalDigits      *int32
}

func (in *currencyInput) toService() *service.CurrencyInput {
	if in == nil {
		return nil
	}
	return &service.CurrencyInput{
		Code:               in.Code,
		Symbol:             in.Symbol,
		ThousandsSeparator: in.ThousandsSeparator,
		DecimalSeparator:   in.DecimalSeparator,
		DecimalDigits:      intPtr(in.DecimalDigits),
	}
}

type customAttributeInput struct {
	Key   string
	Value *string
}

// itemFields is shared by AddToCartInput and SetCartItemInput. Type and
// Quantity carry schema defaults, so graphql-go binds them as non-null.
type itemFields struct {
	ID          gql.ID
	Name        *string
	Description *string
	Type        string
	Images      *[]*string
	Price       int32
	Currency    *currencyInput
	Quantity    int32
	Attributes  *[]*customAttributeInput
	Metadata    *JSON
}

func (in itemFields) toService() service.ItemInput {
	typ := domain.ItemType(in.Type)
	qty := int(in.Quantity)
	out := service.ItemInput{
		ID:          string(in.ID),
		Name:        in.Name,
		Description: in.Description,
		Type:        &typ,
		Images:      stringList(in.Images),
		Price:       int64(in.Price),
		Currency:    in.Currency.toService(),
		Quantity:    &qty,
		Metadata:    in.Metadata.Raw(),
	}
	if in.Attributes != nil {
		out.Attributes = attributeList(*in.Attributes)
	}
	return out
}

type addToCartInput struct {
	CartID      gql.ID
	ID          gql.ID
	Name        *string
	Description *string
	Type        string
	Images      *[]*string
	Price       int32
	Currency    *currencyInput
	Quantity    int32
	Attributes  *[]*customAttributeInput
	Metadata    *JSON
}

func (in addToCartInput) item() itemFields {
	return itemFields{
		ID:          in.ID,
		Name:        in.Name,
		Description: in.Description,
		Type:        in.Type,
		Images:      in.Images,
		Price:       in.Price,
		Currency:    in.Currency,
		Quantity:    in.Quantity,
		Attributes:  in.Attributes,
		Metadata:    in.Metadata,
	}
}

type setCartItemsInput struct {
	CartID gql.ID
	Items  []itemFields
}

type updateCartItemInput struct {
	CartID      gql.ID
	ID          gql.ID
	Name        *string
	Description *string
	Type        *string
	Images      *[]*string
	Price       *int32
	Quantity    *int32
	Metadata    *JSON
}

func (in updateCartItemInput) toService() service.UpdateItemInput {
	out := service.UpdateItemInput{
		Name:        in.Name,
		Description: in.Description,
		Type:        itemType(in.Type),
		Quantity:    intPtr(in.Quantity),
		Metadata:    in.Metadata.Raw(),
	}
	if in.Images != nil {
		images := stringList(in.Images)
		out.Images = &images
	}
	if in.Price != nil {
		p := int64(*in.Price)
		out.Price = &p
	}
	return out
}

type updateItemQuantityInput struct {
	CartID gql.ID
	ID     gql.ID
	By     int32
}

type removeCartItemInput struct {
	CartID gql.ID
	ID     gql.ID
}

type cartIDInput struct {
	ID gql.ID
}

type updateCartInput struct {
	ID         gql.ID
	Currency   *currencyInput
	Email      *string
	Notes      *string
	Attributes *[]*customAttributeInput
	Metadata   *JSON
}

func (in updateCartInput) toService() service.UpdateCartInput {
	out := service.UpdateCartInput{
		Currency: in.Currency.toService(),
		Email:    in.Email,
		Notes:    in.Notes,
		Metadata: in.Metadata.Raw(),
	}
	if in.Attributes != nil {
		attrs := attributeList(*in.Attributes)
		out.Attributes = &attrs
	}
	return out
}

type addressInput struct {
	Company    *string
	Name       string
	Line1      string
	Line2      *string
	City       string
	State      *string
	PostalCode string
	Country    string
}

func (in addressInput) toService() service.AddressInput {
	return service.AddressInput{
		Company:    deref(in.Company),
		Name:       in.Name,
		Line1:      in.Line1,
		Line2:      deref(in.Line2),
		City:       in.City,
		State:      deref(in.State),
		PostalCode: in.PostalCode,
		Country:    in.Country,
	}
}

type checkoutInput struct {
	CartID   gql.ID
	Email    string
	Notes    *string
	Shipping addressInput
	Billing  *addressInput
	Metadata *JSON
}

func (in checkoutInput) toService() service.CheckoutInput {
	out := service.CheckoutInput{
		CartID:   string(in.CartID),
		Email:    in.Email,
		Notes:    in.Notes,
		Shipping: in.Shipping.toService(),
		Metadata: in.Metadata.Raw(),
	}
	if in.Billing != nil {
		billing := in.Billing.toService()
		out.Billing = &billing
	}
	return out
}

func itemType(s *string) *domain.ItemType {
	if s == nil {
		return nil
	}
	t := domain.ItemType(*s)
	return &t
}

func intPtr(v *int32) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// stringList flattens a nullable list of nullable strings, dropping nulls.
func stringList(in *[]*string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(*in))
	for _, s := range *in {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out
}

func attributeList(in []*customAttributeInput) []service.AttributeInput {
	out := make([]service.AttributeInput, 0, len(in))
	for _, a := range in {
		if a == nil {
			continue
		}
		out = append(out, service.AttributeInput{Key: a.Key, Value: a.Value})
	}
	return out
}
