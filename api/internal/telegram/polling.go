package telegram

import (
	"context"
	"errors"
	"log"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"
)

// pollTimeout is the long-poll duration in seconds.
const pollTimeout = 30

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") { // HTTP 429 from Telegram
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

func clampDelay(d time.Duration) time.Duration {
	const (
		baseDelay = 1 * time.Second
		maxDelay  = 15 * time.Second
	)
	if d < baseDelay {
		return baseDelay
	}
	if d > maxDelay {
		return maxDelay
	}
	return d
}

// Run long-polls Telegram until ctx is cancelled. Updates are handled concurrently,
// at most MaxConcurrent at a time, and Run waits for in-flight handlers before returning.
func (r *Router) Run(ctx context.Context) error {
	log.Printf("✅ telegram bot @%s polling", r.Bot.Self.UserName)

	limit := r.MaxConcurrent
	if limit <= 0 {
		limit = 8
	}
	var g errgroup.Group
	g.SetLimit(limit)
	defer func() { _ = g.Wait() }()

	offset := 0
	for {
		if ctx.Err() != nil {
			log.Printf("polling: context cancelled")
			return nil
		}

		updates, err := r.getUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				log.Printf("polling: context cancelled")
				return nil
			}
			d := clampDelay(retryDelayFromError(err))
			log.Printf("polling error: %v; retry in %v", err, d)
			if !sleep(ctx, d) {
				return nil
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			g.Go(func() error {
				r.HandleUpdate(ctx, upd)
				return nil
			})
		}

		if len(updates) == 0 && !sleep(ctx, 200*time.Millisecond) {
			return nil
		}
	}
}

// getUpdates runs one long poll. GetUpdates takes no context, so on cancellation the
// poll is abandoned; updates it may return are not acknowledged and arrive again on restart.
func (r *Router) getUpdates(ctx context.Context, offset int) ([]tgbotapi.Update, error) {
	u := tgbotapi.NewUpdate(offset)
	u.Timeout = pollTimeout

	type result struct {
		updates []tgbotapi.Update
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		ups, err := r.Bot.GetUpdates(u)
		ch <- result{ups, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.updates, res.err
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
