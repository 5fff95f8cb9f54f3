package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fftools/likebot/internal/logging"
	"github.com/fftools/likebot/internal/models"
	"github.com/fftools/likebot/internal/observability"
	"github.com/fftools/likebot/internal/services"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Issuer mints verification links for the /like command.
type Issuer interface {
	Issue(ctx context.Context, requesterID int64, requesterName, targetUID string, reply *models.ReplyTarget) (*services.IssuedLink, error)
}

// ReplyTargetSetter attaches the sent prompt message to a verification record.
type ReplyTargetSetter interface {
	SetReplyTarget(ctx context.Context, code string, reply models.ReplyTarget) error
}

// CommandLimiter throttles the /like command per user.
type CommandLimiter interface {
	Allow(ctx context.Context, userID int64) (bool, time.Duration)
}

const (
	usageText    = "❌ Use format: /like <region> <uid>"
	cooldownText = "⏳ Please wait %d seconds before requesting another like."
	startText    = "👋 Send /like <region> <uid> to get 1 free like for your profile."
	issueErrText = "❌ Could not create a verification link right now. Please try again later."
)

// Bot runs the Telegram side: the long-poll update loop, the /like command,
// and message delivery for the completion notifier.
type Bot struct {
	api            *tgbotapi.BotAPI
	issuer         Issuer
	records        ReplyTargetSetter
	limiter        CommandLimiter
	howToVerifyURL string
	ttl            time.Duration
	logger         *logging.SafeLogger
}

// New authenticates against the Telegram API and builds the bot.
func New(token string, issuer Issuer, records ReplyTargetSetter, limiter CommandLimiter, howToVerifyURL string, ttl time.Duration, logger *logging.SafeLogger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &Bot{
		api:            api,
		issuer:         issuer,
		records:        records,
		limiter:        limiter,
		howToVerifyURL: howToVerifyURL,
		ttl:            ttl,
		logger:         logger.Named("bot"),
	}, nil
}

// Run polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("bot started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "like":
		b.handleLike(ctx, msg)
	case "start", "help":
		b.reply(msg, startText)
	}
}

// handleLike validates arguments, applies the per-user cooldown, issues a
// verification link and sends the prompt, then records the sent message as
// the record's reply target.
func (b *Bot) handleLike(ctx context.Context, msg *tgbotapi.Message) {
	logger := b.logger.With(
		zap.Int64("user_id", msg.From.ID),
		zap.Int64("chat_id", msg.Chat.ID),
	)

	_, uid, err := parseLikeArgs(msg.CommandArguments())
	if err != nil {
		b.reply(msg, usageText)
		return
	}

	if ok, wait := b.limiter.Allow(ctx, msg.From.ID); !ok {
		seconds := int(wait.Round(time.Second).Seconds())
		if seconds < 1 {
			seconds = 1
		}
		b.reply(msg, fmt.Sprintf(cooldownText, seconds))
		return
	}

	name := msg.From.FirstName
	if name == "" {
		name = "User"
	}

	link, err := b.issuer.Issue(ctx, msg.From.ID, name, uid, &models.ReplyTarget{ChatID: msg.Chat.ID})
	if err != nil {
		logger.Error("failed to issue verification link", zap.Error(err))
		b.reply(msg, issueErrText)
		return
	}

	prompt := tgbotapi.NewMessage(msg.Chat.ID, BuildVerificationPrompt(name, link.ShortURL, b.ttl))
	prompt.ParseMode = tgbotapi.ModeMarkdown
	prompt.DisableWebPagePreview = true
	prompt.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("✅ Verify Now", link.ShortURL),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("❓ How to Verify?", b.howToVerifyURL),
		),
	)

	sent, err := b.api.Send(prompt)
	if err != nil {
		logger.Error("failed to send verification prompt", zap.Error(err))
		return
	}

	if err := b.records.SetReplyTarget(ctx, link.Code, models.ReplyTarget{
		ChatID:    sent.Chat.ID,
		MessageID: sent.MessageID,
	}); err != nil {
		// Completion falls back to a direct message in this case
		logger.Warn("failed to record reply target",
			zap.String("code", observability.MaskCode(link.Code)),
			zap.Error(err))
	}

	logger.Info("verification prompt sent",
		zap.String("code", observability.MaskCode(link.Code)),
		zap.String("target_uid", uid))
}

// reply sends a plain reply to the incoming message.
func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	m := tgbotapi.NewMessage(msg.Chat.ID, text)
	m.ReplyToMessageID = msg.MessageID
	if _, err := b.api.Send(m); err != nil {
		b.logger.Error("failed to send reply",
			zap.Int64("chat_id", msg.Chat.ID),
			zap.Error(err))
	}
}

// SendMessage implements services.ChatTransport.
func (b *Bot) SendMessage(chatID int64, text string) (int, error) {
	m := tgbotapi.NewMessage(chatID, text)
	m.ParseMode = tgbotapi.ModeMarkdown
	sent, err := b.api.Send(m)
	if err != nil {
		return 0, fmt.Errorf("telegram send message: %w", err)
	}
	return sent.MessageID, nil
}

// EditMessage implements services.ChatTransport.
func (b *Bot) EditMessage(chatID int64, messageID int, text string) error {
	m := tgbotapi.NewEditMessageText(chatID, messageID, text)
	m.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(m); err != nil {
		return fmt.Errorf("telegram edit message: %w", err)
	}
	return nil
}

// parseLikeArgs splits "/like <region> <uid>" arguments. The region is
// validated for presence only; the like API keys on the UID alone.
func parseLikeArgs(args string) (region, uid string, err error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return "", "", fmt.Errorf("expected <region> <uid>, got %d arguments", len(fields))
	}
	return fields[0], fields[1], nil
}

// BuildVerificationPrompt renders the message that accompanies a freshly
// issued verification link.
func BuildVerificationPrompt(name, link string, ttl time.Duration) string {
	return fmt.Sprintf(
		"🔒 *Verification Required*\n\n"+
			"Hello %s,\n\n"+
			"Please verify to get 1 free like.\n"+
			"🔗 %s\n\n"+
			"⏱️ *Link expires in %d minutes.*",
		name, link, int(ttl.Minutes()))
}
