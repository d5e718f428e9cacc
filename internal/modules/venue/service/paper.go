package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"trade_guard/internal/models"

	"github.com/oklog/ulid/v2"
)

// Paper is the dry-run venue. It has no public order book: fills execute at
// the reference price plus a fixed markup, and the spread gate accounts for
// that same markup via its venue table.
type Paper struct {
	markupPct float64

	mu       sync.RWMutex
	balances map[string]float64
	prices   map[string]float64
	entropy  *rand.Rand
}

func NewPaper(markupPct float64) *Paper {
	return &Paper{
		markupPct: markupPct,
		balances:  map[string]float64{"USD": 10_000},
		prices:    make(map[string]float64),
		entropy:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (p *Paper) Name() string { return "paper" }

// SetPrice seeds the reference price, normally fed from a real ticker.
func (p *Paper) SetPrice(pair string, price float64) {
	p.mu.Lock()
	p.prices[pair] = price
	p.mu.Unlock()
}

func (p *Paper) Ticker(ctx context.Context, pair string) (models.Ticker, error) {
	p.mu.RLock()
	last := p.prices[pair]
	p.mu.RUnlock()
	if last <= 0 {
		return models.Ticker{}, fmt.Errorf("paper: no price for %s", pair)
	}
	// synthetic book: markup on both sides of the reference
	half := last * p.markupPct / 100 / 2
	return models.Ticker{Pair: pair, Bid: last - half, Ask: last + half, Last: last}, nil
}

func (p *Paper) Balances(ctx context.Context) (map[string]float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]float64, len(p.balances))
	for k, v := range p.balances {
		out[k] = v
	}
	return out, nil
}

func (p *Paper) PlaceOrder(ctx context.Context, intent models.OrderIntent) (models.VenueResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ref := p.prices[intent.Pair]
	if ref <= 0 {
		ref = intent.Price
	}
	if ref <= 0 {
		return models.VenueResponse{}, fmt.Errorf("paper: no reference price for %s", intent.Pair)
	}

	fill := ref
	switch intent.Side {
	case models.SideBuy:
		fill = ref * (1 + p.markupPct/100)
	case models.SideSell:
		fill = ref * (1 - p.markupPct/100)
	default:
		return models.VenueResponse{}, fmt.Errorf("paper: unknown side %q", intent.Side)
	}

	id := ulid.MustNew(ulid.Timestamp(time.Now()), p.entropy).String()
	return models.VenueResponse{
		OrderID:  id,
		Price:    fill,
		Volume:   intent.Volume,
		Notional: fill * intent.Volume,
	}, nil
}
