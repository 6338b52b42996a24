package graphql

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gql "github.com/graph-gophers/graphql-go"

	"github.com/utafrali/cartql/internal/domain"
	"github.com/utafrali/cartql/internal/repository"
	"github.com/utafrali/cartql/internal/service"
	"github.com/utafrali/cartql/pkg/pagination"
)

// Resolver is the root resolver for Query and Mutation.
type Resolver struct {
	carts    *service.CartService
	checkout *service.CheckoutService
	orders   *service.OrderService
	logger   *slog.Logger
	now      func() time.Time
}

// NewResolver creates the root resolver.
func NewResolver(carts *service.CartService, checkout *service.CheckoutService, orders *service.OrderService, logger *slog.Logger) *Resolver {
	return &Resolver{
		carts:    carts,
		checkout: checkout,
		orders:   orders,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (r *Resolver) cart(ctx context.Context, c *domain.Cart, err error) (*cartResolver, error) {
	if err != nil {
		return nil, toResolverError(ctx, err, r.logger)
	}
	return &cartResolver{cart: c, now: r.now}, nil
}

func (r *Resolver) order(ctx context.Context, o *domain.Order, err error) (*orderResolver, error) {
	if err != nil {
		return nil, toResolverError(ctx, err, r.logger)
	}
	return &orderResolver{order: o}, nil
}

// --- Queries ---

type cartArgs struct {
	ID       gql.ID
	Currency *currencyInput
}

func (r *Resolver) Cart(ctx context.Context, args cartArgs) (*cartResolver, error) {
	c, err := r.carts.GetCart(ctx, string(args.ID), args.Currency.toService())
	return r.cart(ctx, c, err)
}

func (r *Resolver) Node(ctx context.Context, args cartArgs) (*nodeResolver, error) {
	c, err := r.Cart(ctx, args)
	if err != nil {
		return nil, err
	}
	return &nodeResolver{cart: c}, nil
}

func (r *Resolver) Order(ctx context.Context, args struct{ ID gql.ID }) (*orderResolver, error) {
	o, err := r.orders.GetOrder(ctx, string(args.ID))
	return r.order(ctx, o, err)
}

type ordersArgs struct {
	CartID  *gql.ID
	Email   *string
	Status  *string
	Page    int32
	PerPage int32
}

func (r *Resolver) Orders(ctx context.Context, args ordersArgs) (*orderConnectionResolver, error) {
	filter := repository.OrderFilter{
		Email:   args.Email,
		Page:    int(args.Page),
		PerPage: int(args.PerPage),
	}
	if args.CartID != nil {
		id := string(*args.CartID)
		filter.CartID = &id
	}
	if args.Status != nil {
		s := domain.OrderStatus(*args.Status)
		filter.Status = &s
	}

	orders, total, err := r.orders.ListOrders(ctx, filter)
	if err != nil {
		return nil, toResolverError(ctx, err, r.logger)
	}
	p := pagination.New(filter.Page, filter.PerPage)
	return &orderConnectionResolver{orders: orders, total: total, page: p.Page, perPage: p.PerPage}, nil
}

// --- Mutations ---

func (r *Resolver) AddItem(ctx context.Context, args struct{ Input addToCartInput }) (*cartResolver, error) {
	c, err := r.carts.AddItem(ctx, string(args.Input.CartID), args.Input.item().toService())
	return r.cart(ctx, c, err)
}

func (r *Resolver) SetItems(ctx context.Context, args struct{ Input setCartItemsInput }) (*cartResolver, error) {
	items := make([]service.ItemInput, len(args.Input.Items))
	for i := range args.Input.Items {
		items[i] = args.Input.Items[i].toService()
	}
	c, err := r.carts.SetItems(ctx, string(args.Input.CartID), items)
	return r.cart(ctx, c, err)
}

func (r *Resolver) UpdateItem(ctx context.Context, args struct{ Input updateCartItemInput }) (*cartResolver, error) {
	c, err := r.carts.UpdateItem(ctx, string(args.Input.CartID), string(args.Input.ID), args.Input.toService())
	return r.cart(ctx, c, err)
}

func (r *Resolver) IncrementItemQuantity(ctx context.Context, args struct{ Input updateItemQuantityInput }) (*cartResolver, error) {
	c, err := r.carts.IncrementItemQuantity(ctx, string(args.Input.CartID), string(args.Input.ID), int(args.Input.By))
	return r.cart(ctx, c, err)
}

func (r *Resolver) DecrementItemQuantity(ctx context.Context, args struct{ Input updateItemQuantityInput }) (*cartResolver, error) {
	c, err := r.carts.DecrementItemQuantity(ctx, string(args.Input.CartID), string(args.Input.ID), int(args.Input.By))
	return r.cart(ctx, c, err)
}

func (r *Resolver) RemoveItem(ctx context.Context, args struct{ Input removeCartItemInput }) (*cartResolver, error) {
	c, err := r.carts.RemoveItem(ctx, string(args.Input.CartID), string(args.Input.ID))
	return r.cart(ctx, c, err)
}

func (r *Resolver) EmptyCart(ctx context.Context, args struct{ Input cartIDInput }) (*cartResolver, error) {
	c, err := r.carts.EmptyCart(ctx, string(args.Input.ID))
	return r.cart(ctx, c, err)
}

func (r *Resolver) UpdateCart(ctx context.Context, args struct{ Input updateCartInput }) (*cartResolver, error) {
	c, err := r.carts.UpdateCart(ctx, string(args.Input.ID), args.Input.toService())
	return r.cart(ctx, c, err)
}

func (r *Resolver) DeleteCart(ctx context.Context, args struct{ Input cartIDInput }) (*deletePayloadResolver, error) {
	id := string(args.Input.ID)
	if err := r.carts.DeleteCart(ctx, id); err != nil {
		return nil, toResolverError(ctx, err, r.logger)
	}
	return &deletePayloadResolver{success: true, message: fmt.Sprintf("Cart %s deleted", id)}, nil
}

func (r *Resolver) Checkout(ctx context.Context, args struct{ Input checkoutInput }) (*orderResolver, error) {
	o, err := r.checkout.Checkout(ctx, args.Input.toService())
	return r.order(ctx, o, err)
}

func (r *Resolver) MarkOrderPaid(ctx context.Context, args struct{ Input struct{ ID gql.ID } }) (*orderResolver, error) {
	o, err := r.orders.MarkPaid(ctx, string(args.Input.ID))
	return r.order(ctx, o, err)
}
