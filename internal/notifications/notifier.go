// Package notifications delivers outbound Telegram messages and the live moderation feed.
package notifications

import (
	"context"
	"log/slog"
	"strings"

	"vacancyhub/internal/middleware"
	"vacancyhub/internal/models"
	"vacancyhub/internal/observability"
	"vacancyhub/internal/telegram"
)

const (
	// CaptionLimit is Telegram's photo caption limit in characters.
	CaptionLimit = 1024
	captionKeep  = CaptionLimit - 4
	ellipsis     = "…"

	acceptButton = "✅ Принять"
	rejectButton = "❌ Отклонить"
)

// MessageRef identifies a delivered Telegram message.
type MessageRef struct {
	ChatID    int64
	MessageID int64
}

// ChatInfo is the resolved identity of a public channel.
type ChatInfo struct {
	ID       int64
	Username string
	Title    string
}

// Post is a message body with an optional image. ImageData is uploaded when set,
// otherwise ImageURL is passed to Telegram.
type Post struct {
	Text      string
	ImageURL  string
	ImageData []byte
}

func (p Post) hasImage() bool {
	return len(p.ImageData) > 0 || p.ImageURL != ""
}

func (p Post) photo() telegram.Photo {
	return telegram.Photo{URL: p.ImageURL, Data: p.ImageData, Filename: "image.jpg"}
}

// QueueCard is a posting sent to the moderators' group.
type QueueCard struct {
	PostingID uint
	Kind      models.Kind
	Post
}

// Notifier is the outbound messaging surface. Every call may fail; callers log and
// carry on.
type Notifier interface {
	NotifyUser(ctx context.Context, telegramID int64, text string) error
	PostToModerationQueue(ctx context.Context, card QueueCard) (MessageRef, error)
	Publish(ctx context.Context, chatID int64, post Post) (MessageRef, error)
	ResolveChat(ctx context.Context, handle string) (ChatInfo, error)
}

// BotAPI is the subset of the Telegram client the notifier uses.
type BotAPI interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) (*telegram.Message, error)
	SendPhoto(ctx context.Context, chatID int64, photo telegram.Photo, caption string, markup *telegram.InlineKeyboardMarkup) (*telegram.Message, error)
	GetChat(ctx context.Context, chat string) (*telegram.Chat, error)
}

// TelegramNotifier sends through the Bot API.
type TelegramNotifier struct {
	bot            BotAPI
	groupID        int64
	callbackSecret string
}

func NewTelegramNotifier(bot BotAPI, groupID int64, callbackSecret string) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, groupID: groupID, callbackSecret: callbackSecret}
}

func (n *TelegramNotifier) NotifyUser(ctx context.Context, telegramID int64, text string) error {
	_, err := n.bot.SendMessage(ctx, telegramID, text, nil)
	if err != nil {
		recordFailure("notify_user")
	}
	return err
}

func (n *TelegramNotifier) PostToModerationQueue(ctx context.Context, card QueueCard) (MessageRef, error) {
	markup := ModerationKeyboard(n.callbackSecret, card.Kind, card.PostingID)
	ref, err := n.send(ctx, n.groupID, card.Post, markup)
	if err != nil {
		recordFailure("moderation_queue")
	}
	return ref, err
}

func (n *TelegramNotifier) Publish(ctx context.Context, chatID int64, post Post) (MessageRef, error) {
	ref, err := n.send(ctx, chatID, post, nil)
	if err != nil {
		recordFailure("publish")
	}
	return ref, err
}

func (n *TelegramNotifier) ResolveChat(ctx context.Context, handle string) (ChatInfo, error) {
	chat, err := n.bot.GetChat(ctx, "@"+strings.TrimPrefix(strings.TrimSpace(handle), "@"))
	if err != nil {
		recordFailure("resolve_chat")
		return ChatInfo{}, err
	}
	return ChatInfo{ID: chat.ID, Username: chat.Username, Title: chat.Title}, nil
}

// send delivers text, or a photo whose caption is cut to the limit with the full
// text following as a plain message.
func (n *TelegramNotifier) send(ctx context.Context, chatID int64, post Post, markup *telegram.InlineKeyboardMarkup) (MessageRef, error) {
	if !post.hasImage() {
		msg, err := n.bot.SendMessage(ctx, chatID, post.Text, markup)
		if err != nil {
			return MessageRef{}, err
		}
		return MessageRef{ChatID: msg.Chat.ID, MessageID: msg.MessageID}, nil
	}

	caption, overflow := SplitCaption(post.Text)
	msg, err := n.bot.SendPhoto(ctx, chatID, post.photo(), caption, markup)
	if err != nil {
		return MessageRef{}, err
	}
	ref := MessageRef{ChatID: msg.Chat.ID, MessageID: msg.MessageID}

	if overflow {
		if _, err := n.bot.SendMessage(ctx, chatID, post.Text, nil); err != nil {
			recordFailure("caption_followup")
			middleware.Logger.WarnContext(ctx, "caption follow-up message failed",
				slog.Int64("chat_id", chatID), slog.String("error", err.Error()))
		}
	}
	return ref, nil
}

// ModerationKeyboard builds the accept/reject buttons of a queue card.
func ModerationKeyboard(secret string, kind models.Kind, id uint) *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{{
			{Text: acceptButton, CallbackData: EncodeCallback(secret, ActionAccept, kind, id)},
			{Text: rejectButton, CallbackData: EncodeCallback(secret, ActionReject, kind, id)},
		}},
	}
}

func recordFailure(operation string) {
	observability.NotifierFailures.WithLabelValues(operation).Inc()
}

// NoopNotifier drops every message. Used when no bot token is configured.
type NoopNotifier struct{}

func (NoopNotifier) NotifyUser(ctx context.Context, telegramID int64, _ string) error {
	middleware.Logger.DebugContext(ctx, "notifier disabled, user message dropped", slog.Int64("telegram_id", telegramID))
	return ErrNotifierDisabled
}

func (NoopNotifier) PostToModerationQueue(ctx context.Context, card QueueCard) (MessageRef, error) {
	middleware.Logger.DebugContext(ctx, "notifier disabled, queue card dropped", slog.Uint64("posting_id", uint64(card.PostingID)))
	return MessageRef{}, ErrNotifierDisabled
}

func (NoopNotifier) Publish(ctx context.Context, chatID int64, _ Post) (MessageRef, error) {
	middleware.Logger.DebugContext(ctx, "notifier disabled, publication dropped", slog.Int64("chat_id", chatID))
	return MessageRef{}, ErrNotifierDisabled
}

func (NoopNotifier) ResolveChat(_ context.Context, _ string) (ChatInfo, error) {
	return ChatInfo{}, ErrNotifierDisabled
}
