// Package advisor implements the rule-based financial advisor chat.
package advisor

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Reply is a single advisor response.
type Reply struct {
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// rule maps message keywords to a canned piece of advice. Rules are checked
// in order; the first match wins.
type rule struct {
	keywords []string
	advice   string
}

var rules = []rule{
	{
		keywords: []string{"savings", "save"},
		advice:   "Based on your spending patterns, I recommend saving at least 20% of your income. Start with small, automatic transfers to a dedicated savings account.",
	},
	{
		keywords: []string{"invest", "investment"},
		advice:   "For beginners, consider index funds and SIPs. They offer diversification with lower risk. Start with an amount you are comfortable leaving invested for 5+ years.",
	},
	{
		keywords: []string{"debt", "loan"},
		advice:   "Prioritize paying off high-interest debt first. Consider the avalanche method: pay minimums on everything, then put extra money toward the highest-interest balance.",
	},
	{
		keywords: []string{"budget"},
		advice:   "Try the 50/30/20 rule: 50% for needs, 30% for wants, and 20% for savings and debt repayment. Track every expense for a month to see where your money actually goes.",
	},
}

const defaultAdvice = "I can help you with savings, investments, debt management, and budgeting. What would you like to know more about?"

// Engine matches incoming messages against the advice rules. A short think
// delay imitates a remote model so the chat UI can show its typing state.
type Engine struct {
	thinkDelay time.Duration
	log        *slog.Logger
	now        func() time.Time
}

func NewEngine(thinkDelay time.Duration, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}

	return &Engine{
		thinkDelay: thinkDelay,
		log:        log,
		now:        time.Now,
	}
}

// Ask returns advice for the message. It blocks for the configured think
// delay unless the context is cancelled first.
func (e *Engine) Ask(ctx context.Context, message string) (*Reply, error) {
	if e.thinkDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.thinkDelay):
		}
	}

	advice := e.match(message)
	e.log.Debug("advisor reply", slog.Int("message_len", len(message)))

	return &Reply{Text: advice, At: e.now().UTC()}, nil
}

func (e *Engine) match(message string) string {
	normalized := strings.ToLower(message)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(normalized, kw) {
				return r.advice
			}
		}
	}

	return defaultAdvice
}
