package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/utafrali/cartql/pkg/slug"
)

type product struct {
	name     string
	variants []string
	price    int64 // minor units
}

var catalog = []product{
	{"Classic Cotton Tee", []string{"S", "M", "L", "XL"}, 1999},
	{"Merino Crew Sweater", []string{"M", "L"}, 8900},
	{"Slim Fit Jeans", []string{"30", "32", "34"}, 5900},
	{"Güneş Gözlüğü", nil, 12900},
	{"Crème Hand Soap", nil, 650},
	{"Canvas Tote Bag", nil, 2400},
	{"Trail Running Shoes", []string{"42", "43", "44"}, 11900},
	{"Ceramic Pour-Over Set", nil, 4500},
	{"Wool Beanie", []string{"Navy", "Grey"}, 2200},
	{"Smørrebrød Cookbook", nil, 3150},
}

var currencies = []string{"USD", "EUR", "GBP", "JPY", "TRY"}

// poster is the part of *httpclient.Client the seeder needs.
type poster interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

type stats struct {
	mu     sync.Mutex
	Carts  int
	Items  int
	Orders int
	Paid   int
}

func (s *stats) add(carts, items, orders, paid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Carts += carts
	s.Items += items
	s.Orders += orders
	s.Paid += paid
}

type seeder struct {
	cfg    config
	client poster
	logger *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func newSeeder(cfg config, client poster, logger *slog.Logger) *seeder {
	return &seeder{
		cfg:    cfg,
		client: client,
		logger: logger,
		rng:    rand.New(rand.NewPCG(cfg.RandSeed, cfg.RandSeed>>1)), // #nosec G404 -- sample data
	}
}

// Run creates cfg.Carts carts, checks out a share of them and marks a share
// of the resulting orders paid.
func (s *seeder) Run(ctx context.Context) (*stats, error) {
	st := &stats{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.cfg.Concurrency))

	for i := 0; i < s.cfg.Carts; i++ {
		plan := s.plan()
		g.Go(func() error {
			return s.seedCart(gctx, plan, st)
		})
	}

	if err := g.Wait(); err != nil {
		return st, err
	}
	return st, nil
}

type cartPlan struct {
	id       string
	currency string
	items    []map[string]any
	checkout bool
	pay      bool
}

// plan draws everything random up front so runs with the same seed are
// reproducible regardless of scheduling.
func (s *seeder) plan() cartPlan {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := cartPlan{
		id:       uuid.NewString(),
		currency: currencies[s.rng.IntN(len(currencies))],
	}

	picked := make(map[string]bool)
	for n := 1 + s.rng.IntN(4); n > 0; n-- {
		prod := catalog[s.rng.IntN(len(catalog))]
		variant := ""
		if len(prod.variants) > 0 {
			variant = prod.variants[s.rng.IntN(len(prod.variants))]
		}
		id := slug.Generate(prod.name, variant)
		if picked[id] {
			continue
		}
		picked[id] = true

		item := map[string]any{
			"id":       id,
			"name":     strings.TrimSpace(prod.name + " " + variant),
			"price":    prod.price,
			"quantity": 1 + s.rng.IntN(3),
		}
		p.items = append(p.items, item)
	}
	p.items = append(p.items, map[string]any{"id": "shipping", "name": "Standard shipping", "price": 499, "type": "SHIPPING"})

	p.checkout = s.rng.Float64() < s.cfg.CheckoutRatio
	p.pay = p.checkout && s.rng.Float64() < s.cfg.PaidRatio
	return p
}

func (s *seeder) seedCart(ctx context.Context, p cartPlan, st *stats) error {
	base := strings.TrimRight(s.cfg.APIURL, "/") + "/api/v1/carts/" + p.id

	if err := s.call(ctx, http.MethodGet, base+"?currency="+p.currency, nil, nil); err != nil {
		return fmt.Errorf("create cart %s: %w", p.id, err)
	}
	if err := s.call(ctx, http.MethodPut, base+"/items", map[string]any{"items": p.items}, nil); err != nil {
		return fmt.Errorf("set items on cart %s: %w", p.id, err)
	}

	orders, paid := 0, 0
	if p.checkout {
		var order struct {
			Data struct {
				ID string `json:"id"`
			} `json:"data"`
		}
		err := s.call(ctx, http.MethodPost, base+"/checkout", map[string]any{
			"email": "shopper+" + p.id[:8] + "@example.com",
			"shipping": map[string]any{
				"name": "Sample Shopper", "line1": "1 Market Street", "city": "Springfield",
				"postal_code": "12345", "country": "US",
			},
		}, &order)
		if err != nil {
			return fmt.Errorf("checkout cart %s: %w", p.id, err)
		}
		orders++

		if p.pay {
			orderURL := strings.TrimRight(s.cfg.APIURL, "/") + "/api/v1/orders/" + order.Data.ID + "/pay"
			if err := s.call(ctx, http.MethodPost, orderURL, nil, nil); err != nil {
				return fmt.Errorf("pay order %s: %w", order.Data.ID, err)
			}
			paid++
		}
	}

	st.add(1, len(p.items), orders, paid)
	s.logger.Debug("seeded cart",
		slog.String("cart_id", p.id),
		slog.Int("items", len(p.items)),
		slog.Bool("checked_out", p.checkout),
	)
	return nil
}

func (s *seeder) call(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, respBody)
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
