package market

import (
	"context"
	"time"

	"github.com/smartbudget/smartbudget-server/internal/domain"
)

type newsSeed struct {
	id       string
	title    string
	summary  string
	source   string
	url      string
	category string
	ageHours int
}

var newsSeeds = []newsSeed{
	{
		id:       "news-1",
		title:    "Sensex hits record high as IT stocks rally",
		summary:  "Indian benchmark indices closed at all-time highs, led by gains in information technology and banking stocks.",
		source:   "Market Watch",
		url:      "https://example.com/news/sensex-record-high",
		category: "markets",
		ageHours: 2,
	},
	{
		id:       "news-2",
		title:    "RBI keeps repo rate unchanged at 6.5%",
		summary:  "The central bank held its key lending rate steady for the eighth consecutive meeting, citing inflation concerns.",
		source:   "Finance Daily",
		url:      "https://example.com/news/rbi-repo-rate",
		category: "economy",
		ageHours: 5,
	},
	{
		id:       "news-3",
		title:    "Gold prices surge amid global uncertainty",
		summary:  "Gold touched a fresh peak as investors sought safe-haven assets following weak global cues.",
		source:   "Commodity Times",
		url:      "https://example.com/news/gold-surge",
		category: "commodities",
		ageHours: 8,
	},
	{
		id:       "news-4",
		title:    "SIP inflows cross record monthly levels",
		summary:  "Systematic investment plan contributions hit a new monthly record as retail participation in mutual funds deepens.",
		source:   "Fund Insight",
		url:      "https://example.com/news/sip-inflows",
		category: "mutual-funds",
		ageHours: 12,
	},
}

// NewsService serves the canned financial news feed. Timestamps are computed
// relative to now so the feed always looks fresh.
type NewsService struct {
	now func() time.Time
}

func NewNewsService() *NewsService {
	return &NewsService{now: time.Now}
}

// Latest returns the news feed, newest first.
func (s *NewsService) Latest(_ context.Context) []domain.NewsItem {
	now := s.now().UTC()
	items := make([]domain.NewsItem, 0, len(newsSeeds))
	for _, seed := range newsSeeds {
		items = append(items, domain.NewsItem{
			ID:          seed.id,
			Title:       seed.title,
			Summary:     seed.summary,
			Source:      seed.source,
			URL:         seed.url,
			Category:    seed.category,
			PublishedAt: now.Add(-time.Duration(seed.ageHours) * time.Hour),
		})
	}

	return items
}
