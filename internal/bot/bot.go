// Package bot drives the polling cycle: search for new mentions, skip the
// already-answered ones, reconstruct each thread, generate a reply, post it,
// and record the tweet so restarts never answer it twice.
package bot

import (
	"context"
	"fmt"
	"time"

	"delib-reply-bot/internal/domain"
	"delib-reply-bot/internal/ledger"
	"delib-reply-bot/internal/observability"
	"delib-reply-bot/internal/reply"
	"delib-reply-bot/internal/twitter"

	"github.com/google/uuid"
)

// TweetAPI is the platform surface the loop needs; satisfied by *twitter.Client
type TweetAPI interface {
	SearchRecent(ctx context.Context, token, query string) ([]domain.Message, error)
	ConversationHistory(ctx context.Context, token, tweetID string, maxTweets int) ([]domain.Message, error)
	PostReply(ctx context.Context, token, inReplyToID, text string) error
}

// Config holds poll loop settings
type Config struct {
	TargetUsername  string
	TargetIDsFile   string
	PollingInterval time.Duration
	MaxHistory      int
}

// Bot runs the polling loop
type Bot struct {
	tokens    domain.TokenSource
	api       TweetAPI
	replied   *ledger.Ledger
	generator domain.ReplyGenerator
	cfg       Config
}

// New creates the bot
func New(tokens domain.TokenSource, api TweetAPI, replied *ledger.Ledger, generator domain.ReplyGenerator, cfg Config) *Bot {
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = 10
	}
	return &Bot{
		tokens:    tokens,
		api:       api,
		replied:   replied,
		generator: generator,
		cfg:       cfg,
	}
}

// Run polls until ctx is cancelled. Cycle failures are logged, never fatal:
// the next cycle is the retry mechanism.
func (b *Bot) Run(ctx context.Context) error {
	if err := ledger.EnsureTargetFile(b.cfg.TargetIDsFile); err != nil {
		return err
	}
	if err := b.replied.EnsureExists(); err != nil {
		return err
	}

	observability.Info("bot started", "interval", b.cfg.PollingInterval.String())

	for {
		cycleCtx := observability.WithCycleID(ctx, uuid.NewString())
		if err := b.cycle(cycleCtx); err != nil {
			observability.PollCyclesTotal.WithLabelValues("error").Inc()
			observability.FromContext(cycleCtx).Error("cycle failed", "error", err.Error())
		} else {
			observability.PollCyclesTotal.WithLabelValues("ok").Inc()
		}

		select {
		case <-ctx.Done():
			observability.Info("bot stopping")
			return ctx.Err()
		case <-time.After(b.cfg.PollingInterval):
		}
	}
}

// cycle runs one pass: token, ledgers, search, then each candidate tweet
func (b *Bot) cycle(ctx context.Context) error {
	log := observability.FromContext(ctx)

	token, err := b.tokens.Valid(ctx)
	if err != nil {
		return fmt.Errorf("obtain token: %w", err)
	}

	targetIDs, err := ledger.ReadTargetIDs(b.cfg.TargetIDsFile)
	if err != nil {
		return err
	}
	replied, err := b.replied.Load()
	if err != nil {
		return err
	}
	log.Debug("loaded replied tweet ids", "count", len(replied))

	query := twitter.BuildSearchQuery(b.cfg.TargetUsername, targetIDs)
	if query == "" {
		log.Warn("search query is empty, set TARGET_USERNAME or add target tweet ids")
		return nil
	}

	messages, err := b.api.SearchRecent(ctx, token, query)
	if err != nil {
		// No data this cycle; the next one retries
		return fmt.Errorf("search recent tweets: %w", err)
	}
	observability.SearchResultsTotal.Add(float64(len(messages)))

	for _, msg := range messages {
		b.process(observability.WithTweetID(ctx, msg.ID), token, msg, replied)
	}
	return nil
}

// process handles a single candidate tweet end to end
func (b *Bot) process(ctx context.Context, token string, msg domain.Message, replied map[string]struct{}) {
	log := observability.FromContext(ctx)

	if _, done := replied[msg.ID]; done {
		observability.DuplicateSkipsTotal.Inc()
		log.Debug("skipping tweet, already replied")
		return
	}

	log.Info("processing tweet",
		"username", msg.Username,
		"text", observability.Preview(msg.Text, 100))

	history, err := b.api.ConversationHistory(ctx, token, msg.ID, b.cfg.MaxHistory)
	if err != nil {
		// Treated as an empty conversation, not a reason to stay silent
		log.Warn("conversation history unavailable", "error", err.Error())
		history = nil
	}
	log.Info("conversation resolved", "history_len", len(history))

	replyText, err := b.generator.Generate(ctx, msg.Text, history)
	if err != nil {
		log.Warn("no reply generated", "error", err.Error())
		return
	}

	replyText = reply.RemoveMentionPrefix(replyText)
	if truncated := reply.TruncateReply(replyText); truncated != replyText {
		observability.RepliesTruncatedTotal.Inc()
		log.Info("reply truncated", "original_len", len([]rune(replyText)))
		replyText = truncated
	}

	if err := b.api.PostReply(ctx, token, msg.ID, replyText); err != nil {
		log.Error("posting reply failed", "error", err.Error())
		return
	}
	observability.RepliesPostedTotal.Inc()
	log.Info("reply posted", "reply", observability.Preview(replyText, 100))

	// Recorded only after the confirmed post. A crash in between is the
	// accepted at-least-once window.
	if err := b.replied.Record(msg.ID); err != nil {
		log.Error("recording replied tweet failed", "error", err.Error())
	}
	replied[msg.ID] = struct{}{}
}
