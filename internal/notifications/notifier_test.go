package notifications

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"vacancyhub/internal/models"
	"vacancyhub/internal/telegram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	method string
	chatID int64
	text   string
	photo  telegram.Photo
	markup *telegram.InlineKeyboardMarkup
}

type fakeBot struct {
	mu        sync.Mutex
	sent      []sentMessage
	failOn    map[string]error
	nextID    int64
	chat      *telegram.Chat
	chatQuery string
}

func newFakeBot() *fakeBot {
	return &fakeBot{failOn: map[string]error{}, nextID: 100}
}

func (f *fakeBot) record(m sentMessage) (*telegram.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOn[m.method]; err != nil {
		return nil, err
	}
	f.sent = append(f.sent, m)
	f.nextID++
	return &telegram.Message{MessageID: f.nextID, Chat: telegram.Chat{ID: m.chatID}}, nil
}

func (f *fakeBot) SendMessage(_ context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) (*telegram.Message, error) {
	return f.record(sentMessage{method: "sendMessage", chatID: chatID, text: text, markup: markup})
}

func (f *fakeBot) SendPhoto(_ context.Context, chatID int64, photo telegram.Photo, caption string, markup *telegram.InlineKeyboardMarkup) (*telegram.Message, error) {
	return f.record(sentMessage{method: "sendPhoto", chatID: chatID, text: caption, photo: photo, markup: markup})
}

func (f *fakeBot) GetChat(_ context.Context, chat string) (*telegram.Chat, error) {
	f.chatQuery = chat
	if err := f.failOn["getChat"]; err != nil {
		return nil, err
	}
	return f.chat, nil
}

func TestSplitCaption(t *testing.T) {
	short := strings.Repeat("a", CaptionLimit)
	caption, overflow := SplitCaption(short)
	assert.Equal(t, short, caption)
	assert.False(t, overflow)

	long := strings.Repeat("ж", CaptionLimit+1)
	caption, overflow = SplitCaption(long)
	assert.True(t, overflow)
	assert.Equal(t, CaptionLimit-3, utf8.RuneCountInString(caption))
	assert.True(t, strings.HasSuffix(caption, "…"))
	assert.Equal(t, strings.Repeat("ж", CaptionLimit-4), strings.TrimSuffix(caption, "…"))
}

func TestTelegramNotifier_PublishText(t *testing.T) {
	bot := newFakeBot()
	n := NewTelegramNotifier(bot, -1001, "secret")

	ref, err := n.Publish(context.Background(), -200, Post{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, int64(-200), ref.ChatID)
	assert.Equal(t, int64(101), ref.MessageID)
	require.Len(t, bot.sent, 1)
	assert.Equal(t, "sendMessage", bot.sent[0].method)
	assert.Nil(t, bot.sent[0].markup)
}

func TestTelegramNotifier_PublishPhotoWithLongText(t *testing.T) {
	bot := newFakeBot()
	n := NewTelegramNotifier(bot, -1001, "secret")

	text := strings.Repeat("x", 2000)
	ref, err := n.Publish(context.Background(), -200, Post{Text: text, ImageData: []byte("jpg")})
	require.NoError(t, err)

	require.Len(t, bot.sent, 2)
	assert.Equal(t, "sendPhoto", bot.sent[0].method)
	assert.Equal(t, CaptionLimit-3, utf8.RuneCountInString(bot.sent[0].text))
	assert.Equal(t, []byte("jpg"), bot.sent[0].photo.Data)
	assert.Equal(t, "sendMessage", bot.sent[1].method)
	assert.Equal(t, text, bot.sent[1].text)
	assert.Equal(t, int64(101), ref.MessageID)
}

func TestTelegramNotifier_FollowUpFailureKeepsPhotoRef(t *testing.T) {
	bot := newFakeBot()
	bot.failOn["sendMessage"] = errors.New("flood")
	n := NewTelegramNotifier(bot, -1001, "secret")

	ref, err := n.Publish(context.Background(), -200, Post{Text: strings.Repeat("x", 1500), ImageURL: "https://cdn/x.jpg"})
	require.NoError(t, err)
	assert.Equal(t, int64(101), ref.MessageID)
}

func TestTelegramNotifier_PublishFailure(t *testing.T) {
	bot := newFakeBot()
	bot.failOn["sendMessage"] = &telegram.APIError{StatusCode: 403, Description: "bot is not a member"}
	n := NewTelegramNotifier(bot, -1001, "secret")

	_, err := n.Publish(context.Background(), -200, Post{Text: "x"})
	assert.Error(t, err)
}

func TestTelegramNotifier_ModerationQueue(t *testing.T) {
	bot := newFakeBot()
	n := NewTelegramNotifier(bot, -1001, "secret")

	ref, err := n.PostToModerationQueue(context.Background(), QueueCard{
		PostingID: 42,
		Kind:      models.KindJobVacancy,
		Post:      Post{Text: "card"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(-1001), ref.ChatID)

	require.Len(t, bot.sent, 1)
	markup := bot.sent[0].markup
	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 1)
	buttons := markup.InlineKeyboard[0]
	require.Len(t, buttons, 2)
	assert.Equal(t, "✅ Принять", buttons[0].Text)
	assert.Equal(t, "❌ Отклонить", buttons[1].Text)

	cb, err := ParseCallback("secret", buttons[0].CallbackData)
	require.NoError(t, err)
	assert.Equal(t, Callback{Action: ActionAccept, Kind: models.KindJobVacancy, PostingID: 42}, cb)

	cb, err = ParseCallback("secret", buttons[1].CallbackData)
	require.NoError(t, err)
	assert.Equal(t, ActionReject, cb.Action)
}

func TestTelegramNotifier_ResolveChat(t *testing.T) {
	bot := newFakeBot()
	bot.chat = &telegram.Chat{ID: -100555, Username: "jobs_kk", Title: "Jobs"}
	n := NewTelegramNotifier(bot, -1001, "secret")

	info, err := n.ResolveChat(context.Background(), "jobs_kk")
	require.NoError(t, err)
	assert.Equal(t, "@jobs_kk", bot.chatQuery)
	assert.Equal(t, int64(-100555), info.ID)

	_, err = n.ResolveChat(context.Background(), "@jobs_kk")
	require.NoError(t, err)
	assert.Equal(t, "@jobs_kk", bot.chatQuery)
}

func TestNoopNotifier(t *testing.T) {
	var n Notifier = NoopNotifier{}
	ctx := context.Background()

	assert.ErrorIs(t, n.NotifyUser(ctx, 1, "x"), ErrNotifierDisabled)
	_, err := n.PostToModerationQueue(ctx, QueueCard{PostingID: 1})
	assert.ErrorIs(t, err, ErrNotifierDisabled)
	_, err = n.Publish(ctx, 1, Post{})
	assert.ErrorIs(t, err, ErrNotifierDisabled)
	_, err = n.ResolveChat(ctx, "x")
	assert.ErrorIs(t, err, ErrNotifierDisabled)
}
