// Package market serves the mock stock quotes and financial news used by the
// dashboard widgets. Quotes jitter around fixed base prices on each refresh
// so the UI has something to animate without a paid data feed.
package market

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/smartbudget/smartbudget-server/internal/domain"
)

// maxJitterPercent bounds the per-refresh random walk to ±2% of base price.
const maxJitterPercent = 2.0

type baseQuote struct {
	symbol string
	name   string
	price  float64
}

var baseQuotes = []baseQuote{
	{symbol: "RELIANCE", name: "Reliance Industries", price: 2456.75},
	{symbol: "TATAMOTORS", name: "Tata Motors", price: 645.30},
	{symbol: "HDFCBANK", name: "HDFC Bank", price: 1542.60},
	{symbol: "INFY", name: "Infosys", price: 1456.25},
	{symbol: "TCS", name: "Tata Consultancy Services", price: 3678.90},
	{symbol: "WIPRO", name: "Wipro", price: 432.15},
}

// QuoteService holds the current quote snapshot and regenerates it on demand.
type QuoteService struct {
	mu      sync.RWMutex
	current []domain.Quote
	rng     *rand.Rand
	log     *slog.Logger
	now     func() time.Time
}

func NewQuoteService(log *slog.Logger) *QuoteService {
	if log == nil {
		log = slog.Default()
	}

	s := &QuoteService{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		log: log,
		now: time.Now,
	}
	s.Refresh(context.Background())

	return s
}

// Quotes returns the latest snapshot.
func (s *QuoteService) Quotes(_ context.Context) []domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	quotes := make([]domain.Quote, len(s.current))
	copy(quotes, s.current)

	return quotes
}

// Refresh regenerates the snapshot with new jittered prices and returns it.
func (s *QuoteService) Refresh(_ context.Context) []domain.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()

	refreshedAt := s.now().UTC().Format(time.RFC3339)
	quotes := make([]domain.Quote, 0, len(baseQuotes))
	for _, base := range baseQuotes {
		jitter := (s.rng.Float64()*2 - 1) * maxJitterPercent / 100
		price := round2(base.price * (1 + jitter))
		change := round2(price - base.price)

		quotes = append(quotes, domain.Quote{
			Symbol:         base.symbol,
			Name:           base.name,
			Price:          price,
			Change:         change,
			ChangePercent:  round2(change / base.price * 100),
			RefreshedAtUTC: refreshedAt,
		})
	}

	s.current = quotes
	s.log.Debug("market quotes refreshed", slog.Int("count", len(quotes)))

	return quotes
}

func round2(v float64) float64 {
	if v < 0 {
		return float64(int64(v*100-0.5)) / 100
	}
	return float64(int64(v*100+0.5)) / 100
}
