package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/utafrali/cartql/internal/domain"
	"github.com/utafrali/cartql/internal/event"
	"github.com/utafrali/cartql/internal/money"
	"github.com/utafrali/cartql/internal/repository"
	apperrors "github.com/utafrali/cartql/pkg/errors"
)

// CartService implements the business logic for cart operations.
//
// Mutations run under a per-cart lock and save with an optimistic version
// check, retrying on conflicts with writers in other processes. A failed
// mutation never changes stored state.
type CartService struct {
	repo            repository.CartRepository
	publisher       event.Publisher
	logger          *slog.Logger
	defaultCurrency money.Currency
	locks           stripedLock
	now             func() time.Time
}

// NewCartService creates a new cart service. Carts created without a
// currency use defaultCurrency.
func NewCartService(repo repository.CartRepository, publisher event.Publisher, defaultCurrency money.Currency, logger *slog.Logger, opts ...Option) *CartService {
	o := applyOptions(opts)
	return &CartService{
		repo:            repo,
		publisher:       publisher,
		logger:          logger,
		defaultCurrency: defaultCurrency,
		now:             o.now,
	}
}

func validateCartID(id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.InvalidInput("cart id is required")
	}
	return nil
}

// GetCart returns the cart with the given id, creating and storing an empty
// one when it does not exist. currency only applies to a newly created cart.
func (s *CartService) GetCart(ctx context.Context, id string, currency *CurrencyInput) (*domain.Cart, error) {
	if err := validateCartID(id); err != nil {
		return nil, err
	}

	cart, err := s.repo.Get(ctx, id)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	cur, err := resolveCurrency(currency, s.defaultCurrency)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(id)
	defer unlock()

	cart = domain.NewCart(id, cur, s.now())
	ok, err := s.repo.SaveIfVersion(ctx, cart, 0)
	if err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	if !ok {
		// Created concurrently elsewhere.
		existing, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get cart: %w", err)
		}
		return existing, nil
	}

	s.logger.InfoContext(ctx, "cart created",
		slog.String("cart_id", id),
		slog.String("currency", cur.Code),
	)
	return cart, nil
}

// AddItem adds an item to the cart, creating the cart when absent. Adding
// an id that is already in the cart merges the input into the existing line
// and adds the quantities.
func (s *CartService) AddItem(ctx context.Context, cartID string, in ItemInput) (*domain.Cart, error) {
	if err := validateCartID(cartID); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	return s.mutate(ctx, "add_item", cartID, in.Currency, func(cart *domain.Cart, now time.Time) error {
		if idx := cart.FindItemIndex(in.ID); idx >= 0 {
			return in.mergeInto(&cart.Items[idx], now)
		}
		if len(cart.Items) >= domain.MaxCartItems {
			return apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d items", domain.MaxCartItems))
		}
		cart.Items = append(cart.Items, in.newItem(now))
		return nil
	})
}

// SetItems replaces every item in the cart, creating the cart when absent.
// Items already in the cart keep their creation time.
func (s *CartService) SetItems(ctx context.Context, cartID string, items []ItemInput) (*domain.Cart, error) {
	if err := validateCartID(cartID); err != nil {
		return nil, err
	}
	if len(items) > domain.MaxCartItems {
		return nil, apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d items", domain.MaxCartItems))
	}
	seen := make(map[string]struct{}, len(items))
	var currency *CurrencyInput
	for i := range items {
		if err := items[i].validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[items[i].ID]; dup {
			return nil, apperrors.InvalidInput(fmt.Sprintf("duplicate item id %q", items[i].ID))
		}
		seen[items[i].ID] = struct{}{}
		if currency == nil {
			currency = items[i].Currency
		}
	}

	return s.mutate(ctx, "set_items", cartID, currency, func(cart *domain.Cart, now time.Time) error {
		next := make([]domain.CartItem, len(items))
		for i := range items {
			next[i] = items[i].newItem(now)
			if idx := cart.FindItemIndex(items[i].ID); idx >= 0 {
				next[i].CreatedAt = cart.Items[idx].CreatedAt
			}
		}
		cart.Items = next
		return nil
	})
}

// UpdateItem applies a partial update to an existing item. Setting the
// quantity to zero or below removes the item.
func (s *CartService) UpdateItem(ctx context.Context, cartID, itemID string, in UpdateItemInput) (*domain.Cart, error) {
	if err := validateCartID(cartID); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	return s.mutateExisting(ctx, "update_item", cartID, func(cart *domain.Cart, now time.Time) error {
		idx, err := findItem(cart, itemID)
		if err != nil {
			return err
		}
		if in.Quantity != nil && *in.Quantity <= 0 {
			removeItemAt(cart, idx)
			return nil
		}

		item := &cart.Items[idx]
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
			item.Images = cloneImages(*in.Images)
		}
		if in.Price != nil {
			item.UnitTotal = *in.Price
		}
		if in.Quantity != nil {
			item.Quantity = *in.Quantity
		}
		if in.Metadata != nil {
			item.Metadata = cloneRaw(in.Metadata)
		}
		item.UpdatedAt = now
		return nil
	})
}

// IncrementItemQuantity adds by to the item's quantity. A quantity that
// drops to zero or below removes the item.
func (s *CartService) IncrementItemQuantity(ctx context.Context, cartID, itemID string, by int) (*domain.Cart, error) {
	return s.adjustQuantity(ctx, "increment_item_quantity", cartID, itemID, by)
}

// DecrementItemQuantity subtracts by from the item's quantity. A quantity
// that drops to zero or below removes the item.
func (s *CartService) DecrementItemQuantity(ctx context.Context, cartID, itemID string, by int) (*domain.Cart, error) {
	return s.adjustQuantity(ctx, "decrement_item_quantity", cartID, itemID, -by)
}

func (s *CartService) adjustQuantity(ctx context.Context, op, cartID, itemID string, delta int) (*domain.Cart, error) {
	if err := validateCartID(cartID); err != nil {
		return nil, err
	}
	if delta == 0 {
		return nil, apperrors.InvalidInput("by must not be zero")
	}

	return s.mutateExisting(ctx, op, cartID, func(cart *domain.Cart, now time.Time) error {
		idx, err := findItem(cart, itemID)
		if err != nil {
			return err
		}
		qty := cart.Items[idx].Quantity + delta
		if qty <= 0 {
			removeItemAt(cart, idx)
			return nil
		}
		if err := validateQuantity(qty); err != nil {
			return err
		}
		cart.Items[idx].Quantity = qty
		cart.Items[idx].UpdatedAt = now
		return nil
	})
}

// RemoveItem deletes an item from the cart.
func (s *CartService) RemoveItem(ctx context.Context, cartID, itemID string) (*domain.Cart, error) {
	if err := validateCartID(cartID); err != nil {
		return nil, err
	}

	return s.mutateExisting(ctx, "remove_item", cartID, func(cart *domain.Cart, _ time.Time) error {
		idx, err := findItem(cart, itemID)
		if err != nil {
			return err
		}
		removeItemAt(cart, idx)
		return nil
	})
}

// EmptyCart removes every item, keeping the cart itself.
func (s *CartService) EmptyCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	if err := validateCartID(cartID); err != nil {
		return nil, err
	}

	return s.mutateExisting(ctx, "empty_cart", cartID, func(cart *domain.Cart, _ time.Time) error {
		cart.Items = []domain.CartItem{}
		return nil
	})
}

// UpdateCart changes cart level fields. Items are not touched; a currency
// change relabels existing amounts without converting them.
func (s *CartService) UpdateCart(ctx context.Context, cartID string, in UpdateCartInput) (*domain.Cart, error) {
	if err := validateCartID(cartID); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	return s.mutateExisting(ctx, "update_cart", cartID, func(cart *domain.Cart, _ time.Time) error {
		if in.Currency != nil {
			cur, err := resolveCurrency(in.Currency, cart.Currency)
			if err != nil {
				return err
			}
			cart.Currency = cur
		}
		if in.Email != nil {
			cart.Email = *in.Email
		}
		if in.Notes != nil {
			cart.Notes = *in.Notes
		}
		if in.Attributes != nil {
			cart.Attributes = toAttributes(*in.Attributes)
		}
		if in.Metadata != nil {
			cart.Metadata = cloneRaw(in.Metadata)
		}
		return nil
	})
}

// DeleteCart removes the cart entirely.
func (s *CartService) DeleteCart(ctx context.Context, cartID string) error {
	if err := validateCartID(cartID); err != nil {
		return err
	}

	unlock := s.locks.lock(cartID)
	err := s.repo.Delete(ctx, cartID)
	unlock()
	if err != nil {
		cartMutationsTotal.WithLabelValues("delete_cart", "error").Inc()
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete cart: %w", err)
	}
	cartMutationsTotal.WithLabelValues("delete_cart", "ok").Inc()

	if err := s.publisher.PublishCartDeleted(ctx, cartID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.deleted event",
			slog.String("cart_id", cartID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart deleted", slog.String("cart_id", cartID))
	return nil
}

func findItem(cart *domain.Cart, itemID string) (int, error) {
	idx := cart.FindItemIndex(itemID)
	if idx < 0 {
		return -1, apperrors.NotFound("cart item", itemID)
	}
	return idx, nil
}

func removeItemAt(cart *domain.Cart, idx int) {
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
}

// mutateExisting is mutate for operations that require the cart to exist.
func (s *CartService) mutateExisting(ctx context.Context, op, cartID string, fn func(*domain.Cart, time.Time) error) (*domain.Cart, error) {
	return s.mutateCart(ctx, op, cartID, false, nil, fn)
}

// mutate is mutate for operations that create the cart when absent.
func (s *CartService) mutate(ctx context.Context, op, cartID string, currency *CurrencyInput, fn func(*domain.Cart, time.Time) error) (*domain.Cart, error) {
	return s.mutateCart(ctx, op, cartID, true, currency, fn)
}

// mutateCart applies fn under the cart lock and announces the saved cart
// once the lock is released.
func (s *CartService) mutateCart(ctx context.Context, op, cartID string, create bool, currency *CurrencyInput, fn func(*domain.Cart, time.Time) error) (_ *domain.Cart, err error) {
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		cartMutationsTotal.WithLabelValues(op, result).Inc()
	}()

	cart, err := s.saveLocked(ctx, op, cartID, create, currency, fn)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, op, cart)
	return cart, nil
}

// saveLocked loads the cart, applies fn to a private copy and saves it with
// a version check, retrying up to maxSaveRetries times on conflicts.
func (s *CartService) saveLocked(ctx context.Context, op, cartID string, create bool, currency *CurrencyInput, fn func(*domain.Cart, time.Time) error) (*domain.Cart, error) {
	unlock := s.locks.lock(cartID)
	defer unlock()

	for attempt := 0; attempt <= maxSaveRetries; attempt++ {
		now := s.now()

		cart, err := s.repo.Get(ctx, cartID)
		var expected int64
		switch {
		case err == nil:
			expected = cart.Version
		case errors.Is(err, apperrors.ErrNotFound) && create:
			cur, err := resolveCurrency(currency, s.defaultCurrency)
			if err != nil {
				return nil, err
			}
			cart = domain.NewCart(cartID, cur, now)
		case errors.Is(err, apperrors.ErrNotFound):
			return nil, err
		default:
			return nil, fmt.Errorf("get cart: %w", err)
		}

		if err := fn(cart, now); err != nil {
			return nil, err
		}
		cart.Touch(now)

		ok, err := s.repo.SaveIfVersion(ctx, cart, expected)
		if err != nil {
			return nil, fmt.Errorf("save cart: %w", err)
		}
		if ok {
			return cart, nil
		}

		cartConflictsTotal.WithLabelValues(op).Inc()
		s.logger.DebugContext(ctx, "cart version conflict, retrying",
			slog.String("cart_id", cartID),
			slog.String("operation", op),
			slog.Int("attempt", attempt+1),
		)
	}

	return nil, apperrors.Conflict(fmt.Sprintf("cart %s was modified concurrently, please retry", cartID))
}

// announce publishes cart.updated after a successful save. Publish
// failures are logged and never fail the mutation.
func (s *CartService) announce(ctx context.Context, op string, cart *domain.Cart) {
	if err := s.publisher.PublishCartUpdated(ctx, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("cart_id", cart.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart updated",
		slog.String("cart_id", cart.ID),
		slog.String("operation", op),
		slog.Int("total_items", cart.TotalItems()),
		slog.Int64("version", cart.Version),
	)
}
