package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/utafrali/cartql/internal/domain"
	"github.com/utafrali/cartql/internal/money"
	apperrors "github.com/utafrali/cartql/pkg/errors"
	"github.com/utafrali/cartql/pkg/validator"
)

func init() {
	validator.RegisterValidation("currency_code", money.IsSupported)
}

// CurrencyInput selects a currency by code and optionally overrides its
// formatting. A nil Code keeps the current (or default) currency.
type CurrencyInput struct {
	Code               *string `json:"code,omitempty" validate:"omitnil,currency_code"`
	Symbol             *string `json:"symbol,omitempty"`
	ThousandsSeparator *string `json:"thousands_separator,omitempty"`
	DecimalSeparator   *string `json:"decimal_separator,omitempty"`
	DecimalDigits      *int    `json:"decimal_digits,omitempty"`
}

// AttributeInput is a custom key/value pair.
type AttributeInput struct {
	Key   string  `json:"key" validate:"required"`
	Value *string `json:"value,omitempty"`
}

// ItemInput describes an item for AddItem and SetItems. Type defaults to SKU
// and Quantity to 1. Currency only applies when the call creates the cart.
// Price is capped at the GraphQL Int range so line and cart totals cannot
// overflow int64.
type ItemInput struct {
	ID          string           `json:"id" validate:"required"`
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Type        *domain.ItemType `json:"type,omitempty"`
	Images      []string         `json:"images,omitempty"`
	Price       int64            `json:"price" validate:"gte=0,lte=2147483647"`
	Currency    *CurrencyInput   `json:"currency,omitempty"`
	Quantity    *int             `json:"quantity,omitempty"`
	Attributes  []AttributeInput `json:"attributes,omitempty" validate:"dive"`
	Metadata    json.RawMessage  `json:"metadata,omitempty"`
}

// UpdateItemInput is a partial item update. Nil fields are left unchanged.
// A Quantity of zero or below removes the item.
type UpdateItemInput struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Type        *domain.ItemType `json:"type,omitempty"`
	Images      *[]string        `json:"images,omitempty"`
	Price       *int64           `json:"price,omitempty" validate:"omitnil,gte=0,lte=2147483647"`
	Quantity    *int             `json:"quantity,omitempty"`
	Metadata    json.RawMessage  `json:"metadata,omitempty"`
}

// UpdateCartInput is a partial cart update. Nil fields are left unchanged
// and an empty Email clears the cart's email.
type UpdateCartInput struct {
	Currency   *CurrencyInput    `json:"currency,omitempty"`
	Email      *string           `json:"email,omitempty"`
	Notes      *string           `json:"notes,omitempty"`
	Attributes *[]AttributeInput `json:"attributes,omitempty" validate:"omitnil,dive"`
	Metadata   json.RawMessage   `json:"metadata,omitempty"`
}

// AddressInput is a shipping or billing address.
type AddressInput struct {
	Company    string `json:"company,omitempty"`
	Name       string `json:"name" validate:"required"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

// normalize trims every field so blank values fail the required checks.
func (a *AddressInput) normalize() {
	for _, f := range []*string{&a.Company, &a.Name, &a.Line1, &a.Line2, &a.City, &a.State, &a.PostalCode, &a.Country} {
		*f = strings.TrimSpace(*f)
	}
}

func (a AddressInput) toDomain() domain.Address {
	return domain.Address{
		Company:    a.Company,
		Name:       a.Name,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

// CheckoutInput holds the parameters for converting a cart into an order.
// Billing defaults to Shipping; Notes and Metadata default to the cart's.
type CheckoutInput struct {
	CartID   string          `json:"cart_id" validate:"required"`
	Email    string          `json:"email" validate:"required,email"`
	Notes    *string         `json:"notes,omitempty"`
	Shipping AddressInput    `json:"shipping"`
	Billing  *AddressInput   `json:"billing,omitempty" validate:"omitnil"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// normalize trims the email and addresses ahead of validation. Billing is
// copied so the caller's value is left alone.
func (in *CheckoutInput) normalize() {
	in.Email = strings.TrimSpace(in.Email)
	in.Shipping.normalize()
	if in.Billing != nil {
		billing := *in.Billing
		billing.normalize()
		in.Billing = &billing
	}
}

// optionalEmail checks a trimmed email where empty means unset.
type optionalEmail struct {
	Email string `json:"email" validate:"omitempty,email"`
}

func (in *UpdateCartInput) validate() error {
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		in.Email = &email
		if err := validate(&optionalEmail{Email: email}); err != nil {
			return err
		}
	}
	if err := validate(in); err != nil {
		return err
	}
	return validateMetadata(in.Metadata)
}

// validate runs struct validation, marking failures as invalid input while
// keeping the per-field detail reachable through errors.As.
func validate(v any) error {
	if err := validator.Validate(v); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
	}
	return nil
}

func validateMetadata(raw json.RawMessage) error {
	if len(raw) > 0 && !json.Valid(raw) {
		return apperrors.InvalidInput("metadata must be valid JSON")
	}
	return nil
}

func validateItemType(t *domain.ItemType) error {
	if t != nil && !domain.ValidItemType(*t) {
		return apperrors.InvalidInput(fmt.Sprintf("unknown item type %q", *t))
	}
	return nil
}

func validateQuantity(q int) error {
	if q > domain.MaxItemQuantity {
		return apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", domain.MaxItemQuantity))
	}
	return nil
}

func (in *ItemInput) validate() error {
	if err := validate(in); err != nil {
		return err
	}
	if err := validateItemType(in.Type); err != nil {
		return err
	}
	if in.Quantity != nil {
		if *in.Quantity < 1 {
			return apperrors.InvalidInput("quantity must be at least 1")
		}
		if err := validateQuantity(*in.Quantity); err != nil {
			return err
		}
	}
	return validateMetadata(in.Metadata)
}

func (in *ItemInput) quantity() int {
	if in.Quantity == nil {
		return 1
	}
	return *in.Quantity
}

// newItem builds a cart item from the input, applying defaults.
func (in *ItemInput) newItem(now time.Time) domain.CartItem {
	item := domain.CartItem{
		ID:         in.ID,
		Type:       domain.ItemTypeSKU,
		UnitTotal:  in.Price,
		Quantity:   in.quantity(),
		CreatedAt:  now,
		UpdatedAt:  now,
		Images:     cloneImages(in.Images),
		Attributes: toAttributes(in.Attributes),
		Metadata:   cloneRaw(in.Metadata),
	}
	if in.Name != nil {
		item.Name = *in.Name
	}
	if in.Description != nil {
		item.Description = *in.Description
	}
	if in.Type != nil {
		item.Type = *in.Type
	}
	return item
}

// mergeInto applies the input's set fields to an existing item and adds
// its quantity.
func (in *ItemInput) mergeInto(item *domain.CartItem, now time.Time) error {
	qty := item.Quantity + in.quantity()
	if err := validateQuantity(qty); err != nil {
		return err
	}
	item.Quantity = qty
	item.UnitTotal = in.Price
	if in.Name != nil {
		item.Name = *in.Name
	}
	if in.Description != nil {
		item.Description = *in.Description
	}
	if in.Type != nil {
		item.Type = *in.Type
	}
	if in.Images != nil {
		item.Images = cloneImages(in.Images)
	}
	if in.Attributes != nil {
		item.Attributes = toAttributes(in.Attributes)
	}
	if in.Metadata != nil {
		item.Metadata = cloneRaw(in.Metadata)
	}
	item.UpdatedAt = now
	return nil
}

func (in *UpdateItemInput) validate() error {
	if err := validate(in); err != nil {
		return err
	}
	if err := validateItemType(in.Type); err != nil {
		return err
	}
	if in.Quantity != nil {
		if err := validateQuantity(*in.Quantity); err != nil {
			return err
		}
	}
	return validateMetadata(in.Metadata)
}

func toAttributes(in []AttributeInput) []domain.Attribute {
	if in == nil {
		return nil
	}
	out := make([]domain.Attribute, len(in))
	for i, a := range in {
		out[i] = domain.Attribute{Key: a.Key}
		if a.Value != nil {
			v := *a.Value
			out[i].Value = &v
		}
	}
	return out
}

func cloneImages(images []string) []string {
	if images == nil {
		return nil
	}
	return append([]string(nil), images...)
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}

// resolveCurrency applies in on top of base. A code in the input replaces
// base before the overrides are applied.
func resolveCurrency(in *CurrencyInput, base money.Currency) (money.Currency, error) {
	if in == nil {
		return base, nil
	}
	c := base
	if in.Code != nil {
		looked, ok := money.Lookup(*in.Code)
		if !ok {
			return money.Currency{}, apperrors.InvalidInput(fmt.Sprintf("unsupported currency code %q", *in.Code))
		}
		c = looked
	}
	if in.DecimalDigits != nil && (*in.DecimalDigits < 0 || *in.DecimalDigits > money.MaxDecimalDigits) {
		return money.Currency{}, apperrors.InvalidInput(fmt.Sprintf("decimal digits must be between 0 and %d", money.MaxDecimalDigits))
	}
	return c.With(money.Overrides{
		Symbol:             in.Symbol,
		ThousandsSeparator: in.ThousandsSeparator,
		DecimalSeparator:   in.DecimalSeparator,
		DecimalDigits:      in.DecimalDigits,
	}), nil
}
