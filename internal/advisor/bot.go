package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	telebot "gopkg.in/telebot.v3"

	apperrors "github.com/smartbudget/smartbudget-server/internal/errors"
	"github.com/smartbudget/smartbudget-server/pkg/config"
)

const CommandStart = "/start"

const startMessage = "Hi! I am your SmartBudget advisor. Ask me about savings, investments, debt, or budgeting."

// Bot exposes the advisor engine over Telegram so advice is reachable away
// from the web UI.
type Bot struct {
	telebot    *telebot.Bot
	engine     *Engine
	errHandler *apperrors.Handler
	log        *slog.Logger
}

// NewBot builds a long-polling telegram bot bound to the advisor engine.
func NewBot(cfg config.Config, engine *Engine, errHandler *apperrors.Handler, log *slog.Logger) (*Bot, error) {
	if log == nil {
		log = slog.Default()
	}

	settings := telebot.Settings{
		Token: cfg.Advisor.Telegram.Token,
		Poller: &telebot.LongPoller{
			Timeout: cfg.Advisor.Telegram.Timeout,
		},
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	b := &Bot{
		telebot:    tb,
		engine:     engine,
		errHandler: errHandler,
		log:        log,
	}

	tb.Handle(CommandStart, b.wrap(b.handleStart))
	tb.Handle(telebot.OnText, b.wrap(b.handleText))

	return b, nil
}

// Start runs the telegram event loop. It blocks until Stop is called.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping advisor telegram bot...")
	b.telebot.Stop()
}

func (b *Bot) handleStart(c telebot.Context) error {
	return c.Send(startMessage)
}

func (b *Bot) handleText(c telebot.Context) error {
	reply, err := b.engine.Ask(context.Background(), c.Text())
	if err != nil {
		return err
	}

	return c.Send(reply.Text)
}

// wrap recovers panics and funnels handler errors through the centralized
// error handler so the user always gets a readable message.
func (b *Bot) wrap(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				b.log.Error("panic recovered in advisor handler",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)
				err = nil
			}
		}()

		if err := next(c); err != nil {
			userMsg := "Something went wrong. Please try again later."
			if b.errHandler != nil {
				if msg, _ := b.errHandler.Handle(context.Background(), err); msg != "" {
					userMsg = msg
				}
			}

			if sendErr := c.Send(userMsg); sendErr != nil {
				b.log.Error("failed to send advisor error reply", slog.Any("error", sendErr))
			}
		}

		return nil
	}
}
