package domain

import "time"

// Quote is a single stock quote shown in the dashboard market widget.
type Quote struct {
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	Change         float64 `json:"change"`
	ChangePercent  float64 `json:"change_percent"`
	RefreshedAtUTC string  `json:"refreshed_at"`
}

// NewsItem is a financial news entry for the dashboard news widget.
type NewsItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	Category    string    `json:"category"`
	Image       string    `json:"image,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}
