package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/cartql/internal/domain"
	"github.com/utafrali/cartql/internal/repository/memory"
	apperrors "github.com/utafrali/cartql/pkg/errors"
	"github.com/utafrali/cartql/pkg/validator"
)

func newTestCartService(t *testing.T) (*CartService, *memory.CartRepository, *recordingPublisher, *testClock) {
	t.Helper()
	repo := memory.NewCartRepository()
	pub := &recordingPublisher{}
	clock := newTestClock()
	svc := NewCartService(repo, pub, usd, newTestLogger(), WithClock(clock.Now))
	return svc, repo, pub, clock
}

func sku(id string, price int64, qty int) ItemInput {
	return ItemInput{ID: id, Price: price, Quantity: ptr(qty)}
}

// ============================================================================
// GetCart
// ============================================================================

func TestGetCart_CreatesEmptyCart(t *testing.T) {
	svc, repo, _, clock := newTestCartService(t)
	ctx := context.Background()

	cart, err := svc.GetCart(ctx, "c1", nil)
	require.NoError(t, err)
	assert.Equal(t, "c1", cart.ID)
	assert.Equal(t, "USD", cart.Currency.Code)
	assert.True(t, cart.IsEmpty())
	assert.Equal(t, clock.Now(), cart.CreatedAt)
	assert.Equal(t, int64(1), cart.Version)
	assert.Equal(t, 1, repo.Len())

	again, err := svc.GetCart(ctx, "c1", nil)
	require.NoError(t, err)
	assert.Equal(t, cart, again)
}

func TestGetCart_CurrencyOnlyAppliesOnCreate(t *testing.T) {
	svc, _, _, _ := newTestCartService(t)
	ctx := context.Background()

	cart, err := svc.GetCart(ctx, "c1", &CurrencyInput{Code: ptr("eur"), Symbol: ptr("EUR ")})
	require.NoError(t, err)
	assert.Equal(t, "EUR", cart.Currency.Code)
	assert.Equal(t, "EUR ", cart.Currency.Symbol)

	cart, err = svc.GetCart(ctx, "c1", &CurrencyInput{Code: ptr("JPY")})
	require.NoError(t, err)
	assert.Equal(t, "EUR", cart.Currency.Code)
}

func TestGetCart_Validation(t *testing.T) {
	svc, _, _, _ := newTestCartService(t)

	_, err := svc.GetCart(context.Background(), " ", nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.GetCart(context.Background(), "c1", &CurrencyInput{Code: ptr("XYZ")})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.GetCart(context.Background(), "c1", &CurrencyInput{DecimalDigits: ptr(12)})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// ============================================================================
// AddItem
// ============================================================================

func TestAddItem_CreatesCartWithDefaults(t *testing.T) {
	svc, _, pub, _ := newTestCartService(t)

	cart, err := svc.AddItem(context.Background(), "c1", ItemInput{ID: "sku1", Price: 1000})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, domain.ItemTypeSKU, cart.Items[0].Type)
	assert.Equal(t, 1, cart.Items[0].Quantity)
	assert.Equal(t, []string{"cart.updated"}, pub.Events())
}

func TestAddItem_UsesItemCurrencyOnCreate(t *testing.T) {
	svc, _, _, _ := newTestCartService(t)
	ctx := context.Background()

	in := sku("sku1", 500, 1)
	in.Currency = &CurrencyInput{Code: ptr("GBP")}
	cart, err := svc.AddItem(ctx, "c1", in)
	require.NoError(t, err)
	assert.Equal(t, "GBP", cart.Currency.Code)

	in.Currency = &CurrencyInput{Code: ptr("JPY")}
	cart, err = svc.AddItem(ctx, "c1", in)
	require.NoError(t, err)
	assert.Equal(t, "GBP", cart.Currency.Code)
}

func TestAddItem_SameIDMergesAndSumsQuantity(t *testing.T) {
	svc, _, _, _ := newTestCartService(t)
	ctx := context.Background()

	quantities := []int{2, 3, 1, 7}
	var (
		cart *domain.Cart
		err  error
	)
	for _, q := range quantities {
		cart, err = svc.AddItem(ctx, "c1", sku("sku1", 1000, q))
		require.NoError(t, err)
	}

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 13, cart.Items[0].Quantity)
	assert.Equal(t, 13, cart.TotalItems())
	assert.Equal(t, 1, cart.TotalUniqueItems())
}

func TestAddItem_MergeUpdatesProvidedFields(t *testing.T) {
	svc, _, _, clock := newTestCartService(t)
	ctx := context.Background()

	first := sku("sku1", 1000, 1)
	first.Name = ptr("Mug")
	first.Images = []string{"a.png"}
	_, err := svc.AddItem(ctx, "c1", first)
	require.NoError(t, err)
	created := clock.Now()

	clock.Advance(time.Minute)
	second := sku("sku1", 1200, 1)
	second.Description = ptr("Large")
	cart, err := svc.AddItem(ctx, "c1", second)
	require.NoError(t, err)

	item := cart.Items[0]
	assert.Equal(t, "Mug", item.Name)
	assert.Equal(t, "Large", item.Description)
	assert.Equal(t, []string{"a.png"}, item.Images)
	assert.Equal(t, int64(1200), item.UnitTotal)
	assert.Equal(t, created, item.CreatedAt)
	assert.Equal(t, clock.Now(), item.UpdatedAt)
}

func TestAddItem_Validation(t *testing.T) {
	svc, repo, _, _ := newTestCartService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   ItemInput
	}{
		{"missing id", ItemInput{Price: 100}},
		{"negative price", ItemInput{ID: "x", Price: -1}},
		{"price above int range", ItemInput{ID: "x", Price: 1 << 31}},
		{"zero quantity", ItemInput{ID: "x", Quantity: ptr(0)}},
		{"too many", ItemInput{ID: "x", Quantity: ptr(domain.MaxItemQuantity + 1)}},
		{"bad type", ItemInput{ID: "x", Type: ptr(domain.ItemType("GIFT"))}},
		{"bad metadata", ItemInput{ID: "x", Metadata: json.RawMessage(`{oops`)}},
		{"bad currency", ItemInput{ID: "x", Currency: &CurrencyInput{Code: ptr("ZZZ")}}},
		{"attribute without key", ItemInput{ID: "x", Attributes: []AttributeInput{{Value: ptr("v")}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddItem(ctx, "c1", tt.in)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
	assert.Zero(t, repo.Len())
}

func TestAddItem_ValidationKeepsFieldDetail(t *testing.T) {
	svc, _, _, _ := newTestCartService(t)

	_, err := svc.AddItem(context.Background(), "c1", ItemInput{ID: "x", Price: -5})
	var valErr *validator.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Contains(t, valErr.Fields(), "price")
}

func TestAddItem_MaxPriceTotalsDoNotOverflow(t *testing.T) {
	svc, _, _, _ := newTestCartService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "c1", ItemInput{ID: "x", Price: 1<<62 + 1, Quantity: ptr(2)})
	var valErr *validator.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "must be less than or equal to 2147483647", valErr.Fields()["price"])

	items := make([]ItemInput, 0, domain.MaxCartItems)
	for i := 0; i < domain.MaxCartItems; i++ {
		items = append(items, sku(fmt.Sprintf("sku%d", i), 2147483647, domain.MaxItemQuantity))
	}
	cart, err := svc.SetItems(ctx, "c1", items)
	require.NoError(t, err)

	want := int64(2147483647) * domain.MaxItemQuantity * domain.MaxCartItems
	assert.Equal(t, want, cart.SubTotal())
	assert.Equal(t, want, cart.GrandTotal())
}

func TestAddItem_MergedQuantityLimit(t *testing.T) {
	svc, _, _, _ := newTestCartService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "c1", sku("sku1", 100, domain.MaxItemQuantity))
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, "c1", sku("sku1", 100, 1))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	cart, err := svc.GetCart(ctx, "c1", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxItemQuantity, cart.Items[0].Quantity)
}

func TestAddItem_CartItemLimit(t *testing.T) {
	svc, _, _, _ := newTestCartService(t)
	ctx := context.Background()

	items := make([]ItemInput, domain.MaxCartItems)
	for i := range items {
		items[i] = sku(fmt.Sprintf("sku%d", i), 100, 1)
	}
	_, err := svc.SetItems(ctx, "c1", items)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, "c1", sku("one-more", 100, 1))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	// Merging into an existing line is still allowed.
	_, err = svc.AddItem(ctx, "c1", sku("sku0", 100, 1))
	assert.NoError(t, err)
}

// ============================================================================
// Totals example
// ============================================================================

func TestExample_AddThenIncrement(t *testing.T) {
	svc, _, _, _ := newTestCartService(t)
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, "c1", sku("sku1", 1000, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(2000), cart.SubTotal())

	cart, err = svc.IncrementItemQuantity(ctx, "c1", "sku1", 3)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, int64(5000), cart.SubTotal())
}

func TestTotals_GrandTotalIsSumOfBuckets(t *testing.T) {
	svc, _, _, _ := newTestCartService(t)

	cart, err := svc.SetItems(context.Background(), "c1", []ItemInput{
		sku("a", 1999, 3),
		{ID: "ship", Price: 499, Type: ptr(domain.ItemTypeShipping)},
		{ID: "tax", Price: 600, Type: ptr(domain.ItemTypeTax)},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(5997), cart.SubTotal())
	assert.Equal(t, int64(499), cart.ShippingTotal())
	assert.Equal(t, int64(600), cart.TaxTotal())
	assert.Equal(t, cart.SubTotal()+cart.ShippingTotal()+cart.TaxTotal(), cart.GrandTotal())
	assert.Equal(t, 5, cart.TotalItems())
	assert.Equal(t, 3, cart.TotalUniqueItems())
}

// ============================================================================
// SetItems
// ============================================================================

func TestSetItems_ReplacesItems(t *testing.T) {
	svc, _, _, clock := newTestCartService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "c1", sku("keep", 100, 1))
	require.NoError(t, err)
	created := clock.Now()
	_, err = svc.AddItem(ctx, "c1", sku("drop", 100, 1))
	require.NoError(t, err)

	clock.Advance(time.Hour)
	cart, err := svc.SetItems(ctx, "c1", []ItemInput{sku("keep", 300, 4), sku("new", 50, 2)})
	require.NoError(t, err)

	require.Len(t, cart.Items, 2)
	assert.Equal(t, "keep", cart.Items[0].ID)
	assert.Equal(t, 4, cart.Items[0].Quantity)
	assert.Equal(t, created, cart.Items[0].CreatedAt)
	assert.Equal(t, "new", cart.Items[1].ID)
	assert.Equal(t, clock.Now(), cart.Items[1].CreatedAt)
}

func TestSetItems_EmptyListClearsItems(t *testing.T) {
	svc, _, _, _ := newTestCartService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "c1", sku("a", 100, 1))
	require.NoError(t, err)

	cart, err := svc.SetItems(ctx, "c1", nil)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestSetItems_RejectsDuplicatesAtomically(t *testing.T) {
	svc, _, _, _ := newTestCartService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "c1", sku("a", 100, 1))
	require.NoError(t, err)

	_, err = svc.SetItems(ctx, "c1", []ItemInput{sku("b", 1, 1), sku("b", 1, 1)})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	cart, err := svc.GetCart(ctx, "c1", nil)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "a", cart.Items[0].ID)
}

// ============================================================================
// UpdateItem / Increment / Decrement / Remove
// ============================================================================

func TestUpdateItem_PartialUpdate(t *testing.T) {
	svc, _, _, _ := newTestCartService(t)
	ctx := context.Background()

	in := sku("a", 100, 1)
	in.Name = ptr("Old")
	_, err := svc.AddItem(ctx, "c1", in)
	require.NoError(t, err)

	cart, err := svc.UpdateItem(ctx, "c1", "a", UpdateItemInput{
		Price:    ptr(int64(250)),
		Quantity: ptr(4),
		Type:     ptr(domain.ItemTypeShipping),
		Metadata: json.RawMessage(`{"gift":true}`),
	})
	require.NoError(t, err)

	item := cart.Items[0]
	assert.Equal(t, "Old", item.Name)
	assert.Equal(t, int64(250), item.UnitTotal)
	assert.Equal(t, 4, item.Quantity)
	assert.Equal(t, int64(1000), cart.ShippingTotal())
	assert.Zero(t, cart.SubTotal())
	assert.JSONEq(t, `{"gift":true}`, string(item.Metadata))
}

func TestUpdateItem_ZeroQuantityRemoves(t *testing.T) {
	svc, _, _, _ := newTestCartService(t)
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "c1", sku("a", 100, 3))
	require.NoError(t, err)

	cart, err := svc.UpdateItem(ctx, "c1", "a", UpdateItemInput{Quantity: ptr(0)})
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestUpdateItem_NotFound(t *testing.T) {
	svc, _, _, _ := newTestCartService(t)
	ctx := context.Background()

	_, err := svc.UpdateItem(ctx, "missing", "a", UpdateItemInput{Quantity: ptr(1)})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.AddItem(ctx, "c1", sku("a", 100, 1))
	require.NoError(t, err)
	_, err = svc.UpdateItem(ctx, "c1", "b", UpdateItemInput{Quantity: ptr(1)})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateItem_Validation(t *testing.T) {
	svc, _, _, _ := newTestCartService(t)
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "c1", sku("a", 100, 1))
	require.NoError(t, err)

	_, err = svc.UpdateItem(ctx, "c1", "a", UpdateItemInput{Price: ptr(int64(-1))})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = svc.UpdateItem(ctx, "c1", "a", UpdateItemInput{Price: ptr(int64(1) << 40)})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = svc.UpdateItem(ctx, "c1", "a", UpdateItemInput{Quantity: ptr(domain.MaxItemQuantity + 1)})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAdjustQuantity(t *testing.T) {
	tests := []struct {
		name      string
		start     int
		increment bool
		by        int
		wantQty   int
		removed   bool
		wantErr   error
	}{
		{"increment", 2, true, 3, 5, false, nil},
		{"negative increment", 5, true, -2, 3, false, nil},
		{"decrement", 5, false, 2, 3, false, nil},
		{"decrement to zero removes", 2, false, 2, 0, true, nil},
		{"decrement below zero removes", 2, false, 9, 0, true, nil},
		{"negative decrement adds", 2, false, -3, 5, false, nil},
		{"zero by", 2, true, 0, 0, false, apperrors.ErrInvalidInput},
		{"over limit", 2, true, domain.MaxItemQuantity, 0, false, apperrors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _, _ := newTestCartService(t)
			ctx := context.Background()
			_, err := svc.AddItem(ctx, "c1", sku("a", 100, tt.start))
			require.NoError(t, err)

			var cart *domain.Cart
			if tt.increment {
				cart, err = svc.IncrementItemQuantity(ctx, "c1", "a", tt.by)
			} else {
				cart, err = svc.DecrementItemQuantity(ctx, "c1", "a", tt.by)
			}
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.removed {
				assert.Equal(t, -1, cart.FindItemIndex("a"))
				return
			}
			assert.Equal(t, tt.wantQty, cart.Items[0].Quantity)
		})
	}
}

func TestAdjustQuantity_MissingItem(t *testing.T) {
	svc, _, _, _ := newTestCartService(t)
	ctx := context.Background()

	_, err := svc.IncrementItemQuantity(ctx, "c1", "a", 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.AddItem(ctx, "c1", sku("a", 100, 1))
	require.NoError(t, err)
	_, err = svc.DecrementItemQuantity(ctx, "c1", "b", 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRemoveItem(t *testing.T) {
	svc, _, _, _ := newTestCartService(t)
	ctx := context.Background()
	_, err := svc.SetItems(ctx, "c1", []ItemInput{sku("a", 1, 1), sku("b", 1, 1), sku("c", 1, 1)})
	require.NoError(t, err)

	cart, err := svc.RemoveItem(ctx, "c1", "b")
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, "a", cart.Items[0].ID)
	assert.Equal(t, "c", cart.Items[1].ID)
}

func TestRemoveItem_MissingItemLeavesCartUnchanged(t *testing.T) {
	svc, _, _, clock := newTestCartService(t)
	ctx := context.Background()
	before, err := svc.SetItems(ctx, "c1", []ItemInput{sku("a", 1, 1), sku("b", 1, 2)})
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = svc.RemoveItem(ctx, "c1", "nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	after, err := svc.GetCart(ctx, "c1", nil)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

// ============================================================================
// EmptyCart / UpdateCart / DeleteCart
// ============================================================================

func TestEmptyCart(t *testing.T) {
	svc, _, _, _ := newTestCartService(t)
	ctx := context.Background()

	_, err := svc.EmptyCart(ctx, "c1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.AddItem(ctx, "c1", sku("a", 1, 1))
	require.NoError(t, err)
	cart, err := svc.EmptyCart(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.NotNil(t, cart.Items)
}

func TestUpdateCart(t *testing.T) {
	svc, _, _, _ := newTestCartService(t)
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "c1", sku("a", 1234, 1))
	require.NoError(t, err)

	cart, err := svc.UpdateCart(ctx, "c1", UpdateCartInput{
		Currency:   &CurrencyInput{Code: ptr("EUR")},
		Email:      ptr(" ada@example.com "),
		Notes:      ptr("fragile"),
		Attributes: &[]AttributeInput{{Key: "gift", Value: ptr("yes")}},
		Metadata:   json.RawMessage(`{"ref":1}`),
	})
	require.NoError(t, err)

	assert.Equal(t, "EUR", cart.Currency.Code)
	assert.Equal(t, "ada@example.com", cart.Email)
	assert.Equal(t, "fragile", cart.Notes)
	require.Len(t, cart.Attributes, 1)
	assert.Equal(t, "gift", cart.Attributes[0].Key)
	assert.JSONEq(t, `{"ref":1}`, string(cart.Metadata))

	// Amounts are relabelled, not converted.
	assert.Equal(t, int64(1234), cart.SubTotal())
	assert.Equal(t, "12,34 €", cart.Money(cart.SubTotal()).Formatted())
	require.Len(t, cart.Items, 1)
}

func TestUpdateCart_OverridesKeepCurrentCode(t *testing.T) {
	svc, _, _, _ := newTestCartService(t)
	ctx := context.Background()
	_, err := svc.GetCart(ctx, "c1", &CurrencyInput{Code: ptr("GBP")})
	require.NoError(t, err)

	cart, err := svc.UpdateCart(ctx, "c1", UpdateCartInput{Currency: &CurrencyInput{DecimalDigits: ptr(0)}})
	require.NoError(t, err)
	assert.Equal(t, "GBP", cart.Currency.Code)
	assert.Equal(t, 0, cart.Currency.DecimalDigits)
}

func TestUpdateCart_Validation(t *testing.T) {
	svc, _, _, _ := newTestCartService(t)
	ctx := context.Background()
	_, err := svc.GetCart(ctx, "c1", nil)
	require.NoError(t, err)

	_, err = svc.UpdateCart(ctx, "c1", UpdateCartInput{Email: ptr("not-an-email")})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.UpdateCart(ctx, "c1", UpdateCartInput{Currency: &CurrencyInput{Code: ptr("NOPE")}})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.UpdateCart(ctx, "missing", UpdateCartInput{Notes: ptr("x")})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// Clearing the email is allowed.
	cart, err := svc.UpdateCart(ctx, "c1", UpdateCartInput{Email: ptr("")})
	require.NoError(t, err)
	assert.Empty(t, cart.Email)
}

func TestUpdateCart_EmailIsTrimmedAndClearable(t *testing.T) {
	svc, _, _, _ := newTestCartService(t)
	ctx := context.Background()

	_, err := svc.GetCart(ctx, "c1", nil)
	require.NoError(t, err)

	cart, err := svc.UpdateCart(ctx, "c1", UpdateCartInput{Email: ptr("\tgrace@example.com ")})
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", cart.Email)

	cart, err = svc.UpdateCart(ctx, "c1", UpdateCartInput{Email: ptr("   ")})
	require.NoError(t, err)
	assert.Empty(t, cart.Email)

	_, err = svc.UpdateCart(ctx, "c1", UpdateCartInput{Email: ptr(" nope ")})
	var valErr *validator.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, map[string]string{"email": "must be a valid email address"}, valErr.Fields())
}

func TestDeleteCart(t *testing.T) {
	svc, repo, pub, _ := newTestCartService(t)
	ctx := context.Background()
	_, err := svc.GetCart(ctx, "c1", nil)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCart(ctx, "c1"))
	assert.Zero(t, repo.Len())
	assert.Contains(t, pub.Events(), "cart.deleted")

	assert.ErrorIs(t, svc.DeleteCart(ctx, "c1"), apperrors.ErrNotFound)
}

// ============================================================================
// Lifecycle
// ============================================================================

func TestMutations_BumpUpdatedAt(t *testing.T) {
	svc, _, _, clock := newTestCartService(t)
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, "c1", sku("a", 1, 1))
	require.NoError(t, err)
	created := cart.CreatedAt

	clock.Advance(3 * time.Hour)
	assert.True(t, cart.IsAbandoned(clock.Now()))

	cart, err = svc.IncrementItemQuantity(ctx, "c1", "a", 1)
	require.NoError(t, err)
	assert.Equal(t, clock.Now(), cart.UpdatedAt)
	assert.Equal(t, created, cart.CreatedAt)
	assert.False(t, cart.IsAbandoned(clock.Now()))
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	repo := memory.NewCartRepository()
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewCartService(repo, pub, usd, newTestLogger())

	cart, err := svc.AddItem(context.Background(), "c1", sku("a", 1, 1))
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

// ============================================================================
// Concurrency
// ============================================================================

func TestSlowPublishDoesNotHoldCartLock(t *testing.T) {
	pub := newStallingPublisher()
	svc := NewCartService(memory.NewCartRepository(), pub, usd, newTestLogger())
	ctx := context.Background()

	first := make(chan error, 1)
	go func() {
		_, err := svc.AddItem(ctx, "c1", sku("a", 100, 1))
		first <- err
	}()
	<-pub.entered

	second := make(chan *domain.Cart, 1)
	go func() {
		cart, err := svc.AddItem(ctx, "c1", sku("a", 100, 1))
		assert.NoError(t, err)
		second <- cart
	}()

	select {
	case cart := <-second:
		require.NotNil(t, cart)
		assert.Equal(t, 2, cart.TotalItems())
	case <-time.After(2 * time.Second):
		t.Fatal("mutation waited on a pending cart.updated publish")
	}

	close(pub.release)
	require.NoError(t, <-first)
	assert.Equal(t, []string{"cart.updated", "cart.updated"}, pub.Events())
}

func TestConcurrentIncrementsDoNotLoseUpdates(t *testing.T) {
	svc, _, _, _ := newTestCartService(t)
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "c1", sku("a", 100, 1))
	require.NoError(t, err)

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.IncrementItemQuantity(ctx, "c1", "a", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	cart, err := svc.GetCart(ctx, "c1", nil)
	require.NoError(t, err)
	assert.Equal(t, workers+1, cart.Items[0].Quantity)
}

func TestConcurrentServicesShareStoreWithoutLostUpdates(t *testing.T) {
	repo := memory.NewCartRepository()
	ctx := context.Background()
	// Two services model two processes: their in-process locks are separate,
	// so only the version check protects the cart.
	a := NewCartService(repo, &recordingPublisher{}, usd, newTestLogger())
	b := NewCartService(repo, &recordingPublisher{}, usd, newTestLogger())
	_, err := a.AddItem(ctx, "c1", sku("x", 1, 1))
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 20; i++ {
		svc := a
		if i%2 == 1 {
			svc = b
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.IncrementItemQuantity(ctx, "c1", "x", 1)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, apperrors.ErrConflict)
		}()
	}
	wg.Wait()

	cart, err := a.GetCart(ctx, "c1", nil)
	require.NoError(t, err)
	assert.Equal(t, 1+succeeded, cart.Items[0].Quantity)
}

func TestMutation_RetriesOnVersionConflict(t *testing.T) {
	repo := new(mockCartRepository)
	svc := NewCartService(repo, &recordingPublisher{}, usd, newTestLogger())
	ctx := context.Background()

	stored := domain.NewCart("c1", usd, time.Now())
	stored.Items = []domain.CartItem{{ID: "a", Type: domain.ItemTypeSKU, UnitTotal: 1, Quantity: 1}}
	stored.Version = 7

	repo.On("Get", ctx, "c1").Return(stored, nil)
	repo.On("SaveIfVersion", ctx, mock.Anything, int64(7)).Return(false, nil).Once()
	repo.On("SaveIfVersion", ctx, mock.Anything, int64(7)).Return(true, nil).Once()

	cart, err := svc.IncrementItemQuantity(ctx, "c1", "a", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	repo.AssertNumberOfCalls(t, "Get", 2)
	repo.AssertNumberOfCalls(t, "SaveIfVersion", 2)
}

func TestMutation_ConflictAfterRetriesExhausted(t *testing.T) {
	repo := new(mockCartRepository)
	svc := NewCartService(repo, &recordingPublisher{}, usd, newTestLogger())
	ctx := context.Background()

	stored := domain.NewCart("c1", usd, time.Now())
	stored.Items = []domain.CartItem{{ID: "a", Type: domain.ItemTypeSKU, UnitTotal: 1, Quantity: 1}}
	stored.Version = 2

	repo.On("Get", ctx, "c1").Return(stored, nil)
	repo.On("SaveIfVersion", ctx, mock.Anything, int64(2)).Return(false, nil)

	_, err := svc.IncrementItemQuantity(ctx, "c1", "a", 1)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	repo.AssertNumberOfCalls(t, "SaveIfVersion", maxSaveRetries+1)
}

func TestMutation_StorageErrorIsWrapped(t *testing.T) {
	repo := new(mockCartRepository)
	svc := NewCartService(repo, &recordingPublisher{}, usd, newTestLogger())
	ctx := context.Background()

	repo.On("Get", ctx, "c1").Return(nil, errors.New("connection refused"))

	_, err := svc.AddItem(ctx, "c1", sku("a", 1, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get cart")
	assert.Equal(t, "INTERNAL_ERROR", apperrors.Code(err))
}
