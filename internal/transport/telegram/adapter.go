// Package telegram adapts the bot to Telegram: outbound alert delivery and
// the inbound command surface, over telebot's long poller.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"f1bot/internal/alert"
	"f1bot/pkg/logx"
)

type Config struct {
	Token       string
	ChatID      int64 // alert channel
	PollTimeout time.Duration
}

type Adapter struct {
	cfg Config
	log logx.Logger

	bot *tele.Bot
	// limiter paces outbound sends below Telegram's flood limits.
	limiter *rate.Limiter

	runMu   sync.Mutex
	running bool
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat id is empty")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Adapter{
		cfg:     cfg,
		log:     log,
		bot:     b,
		limiter: rate.NewLimiter(rate.Limit(3), 3),
	}, nil
}

// Start begins long polling. It returns once polling has been launched;
// polling itself stops when ctx is cancelled.
func (a *Adapter) Start(ctx context.Context) {
	a.runMu.Lock()
	if a.running {
		a.runMu.Unlock()
		return
	}
	a.running = true
	a.runMu.Unlock()

	go func() {
		<-ctx.Done()
		a.bot.Stop()
	}()
	go func() {
		a.log.Info("polling started")
		a.bot.Start() // blocks until Stop()
		a.log.Info("polling stopped")
	}()
}

func (a *Adapter) Stop() {
	a.runMu.Lock()
	wasRunning := a.running
	a.running = false
	a.runMu.Unlock()
	if wasRunning {
		a.bot.Stop()
	}
}

// Send delivers an alert payload to the configured alert channel.
// It implements alert.Sink.
func (a *Adapter) Send(ctx context.Context, p alert.Payload) error {
	var b strings.Builder
	b.WriteString(p.Title)
	if p.Description != "" {
		b.WriteString("\n")
		b.WriteString(p.Description)
	}
	fmt.Fprintf(&b, "\n\nLocation: %s\nEvent Type: %s\nTime: %s", p.Location, p.EventType, p.LocalTime)

	return a.sendText(ctx, a.cfg.ChatID, b.String(), nil)
}

const textLimit = 4000

func (a *Adapter) sendText(ctx context.Context, chatID int64, text string, opt *tele.SendOptions) error {
	chat := &tele.Chat{ID: chatID}
	for _, chunk := range splitText(text, textLimit) {
		if err := a.limiter.Wait(ctx); err != nil {
			return err
		}
		if _, err := a.bot.Send(chat, chunk, opt); err != nil {
			return err
		}
	}
	return nil
}

// splitText splits long messages into chunks under Telegram's size limit,
// preferring newline boundaries.
func splitText(s string, limit int) []string {
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}

	out := make([]string, 0, (len(rs)+limit-1)/limit)
	start := 0
	for start < len(rs) {
		end := start + limit
		if end > len(rs) {
			end = len(rs)
		}
		if end < len(rs) {
			for i := end - 1; i > start; i-- {
				if rs[i] == '\n' && i-start >= limit/3 {
					end = i + 1
					break
				}
			}
		}
		out = append(out, string(rs[start:end]))
		start = end
	}
	return out
}
