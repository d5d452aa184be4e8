package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"vacancyhub/internal/database"
	"vacancyhub/internal/models"
	"vacancyhub/internal/notifications"
	"vacancyhub/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	authorID         uint  = 1
	authorTelegramID int64 = 1001
	strangerID       uint  = 2
	noRegionAuthorID uint  = 3
	moderatorTID     int64 = 777
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(context.Background(), db))
	seedReference(t, db)
	return db
}

func seedReference(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&models.Country{ID: 5, Name: "Uzbekistan"}).Error)
	require.NoError(t, db.Create(&models.Region{ID: 7, CountryID: 5, Name: "Karakalpakstan"}).Error)
	require.NoError(t, db.Create(&models.Region{ID: 8, CountryID: 5, Name: "Khorezm"}).Error)
	require.NoError(t, db.Create(&models.Country{ID: 6, Name: "Kazakhstan"}).Error)
	require.NoError(t, db.Create(&models.Region{ID: 9, CountryID: 6, Name: "Almaty"}).Error)

	lang := "rus"
	contact := "+998 90 123 45 67"
	require.NoError(t, db.Create(&models.User{ID: authorID, TelegramID: authorTelegramID, LanguageCode: &lang, Contact: &contact}).Error)
	require.NoError(t, db.Create(&models.Client{UserID: authorID, CountryID: uintPtr(5), RegionID: uintPtr(7)}).Error)

	require.NoError(t, db.Create(&models.User{ID: strangerID, TelegramID: 2002, Contact: &contact}).Error)
	require.NoError(t, db.Create(&models.Client{UserID: strangerID, CountryID: uintPtr(5), RegionID: uintPtr(8)}).Error)

	require.NoError(t, db.Create(&models.User{ID: noRegionAuthorID, TelegramID: 3003, Contact: &contact}).Error)
	require.NoError(t, db.Create(&models.Client{UserID: noRegionAuthorID, CountryID: uintPtr(5)}).Error)
}

func uintPtr(v uint) *uint { return &v }

type sentText struct {
	ChatID int64
	Text   string
}

type publishedPost struct {
	ChatID int64
	Post   notifications.Post
}

// fakeNotifier records outbound messages; the *Err fields inject failures.
type fakeNotifier struct {
	mu        sync.Mutex
	texts     []sentText
	cards     []notifications.QueueCard
	published []publishedPost
	resolved  []string
	chats     map[string]notifications.ChatInfo
	nextMsgID int64

	notifyErr  error
	queueErr   error
	publishErr error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		chats: map[string]notifications.ChatInfo{
			"kk_jobs": {ID: -100700, Username: "kk_jobs"},
			"uz_jobs": {ID: -100500, Username: "uz_jobs"},
		},
		nextMsgID: 100,
	}
}

func (f *fakeNotifier) msgID() int64 {
	f.nextMsgID++
	return f.nextMsgID
}

func (f *fakeNotifier) NotifyUser(_ context.Context, telegramID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notifyErr != nil {
		return f.notifyErr
	}
	f.texts = append(f.texts, sentText{ChatID: telegramID, Text: text})
	return nil
}

func (f *fakeNotifier) PostToModerationQueue(_ context.Context, card notifications.QueueCard) (notifications.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queueErr != nil {
		return notifications.MessageRef{}, f.queueErr
	}
	f.cards = append(f.cards, card)
	return notifications.MessageRef{ChatID: -1001, MessageID: f.msgID()}, nil
}

func (f *fakeNotifier) Publish(_ context.Context, chatID int64, post notifications.Post) (notifications.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return notifications.MessageRef{}, f.publishErr
	}
	f.published = append(f.published, publishedPost{ChatID: chatID, Post: post})
	return notifications.MessageRef{ChatID: chatID, MessageID: f.msgID()}, nil
}

func (f *fakeNotifier) ResolveChat(_ context.Context, handle string) (notifications.ChatInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved = append(f.resolved, handle)
	info, ok := f.chats[strings.TrimPrefix(handle, "@")]
	if !ok {
		return notifications.ChatInfo{}, errors.New("telegram: chat not found")
	}
	return info, nil
}

func (f *fakeNotifier) snapshot() (texts []sentText, cards []notifications.QueueCard, published []publishedPost) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentText(nil), f.texts...),
		append([]notifications.QueueCard(nil), f.cards...),
		append([]publishedPost(nil), f.published...)
}

type fixture struct {
	db         *gorm.DB
	postings   repository.PostingRepository
	channels   repository.ChannelRepository
	users      repository.UserRepository
	notifier   *fakeNotifier
	moderation *ModerationService
	submission *SubmissionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	f := &fixture{
		db:       db,
		postings: repository.NewPostingRepository(db),
		channels: repository.NewChannelRepository(db, nil),
		users:    repository.NewUserRepository(db),
		notifier: newFakeNotifier(),
	}
	f.moderation = NewModerationService(f.postings, f.channels, f.users, f.notifier, nil, nil)
	f.submission = NewSubmissionService(f.postings, f.users, f.notifier, nil, nil, "")
	return f
}

func (f *fixture) addChannel(t *testing.T, countryID uint, regionID *uint, handle string) {
	t.Helper()
	require.NoError(t, f.channels.Create(context.Background(), &models.Channel{
		CountryID: countryID, RegionID: regionID, ChannelURL: handle, LanguageCode: "kaa",
	}))
}

// newPosting stores a NEW job vacancy directly, bypassing the submission flow.
func (f *fixture) newPosting(t *testing.T, regionID *uint) *models.JobVacancy {
	t.Helper()
	p := jobPayload()
	p.AuthorID = authorID
	p.CountryID = 5
	p.RegionID = regionID
	p.Contact = "+998 90 123 45 67"
	p.Status = models.StatusNew
	require.NoError(t, f.postings.Create(context.Background(), p))
	return p
}

func (f *fixture) reload(t *testing.T, kind models.Kind, id uint) *models.PostingBase {
	t.Helper()
	p, err := f.postings.GetByID(context.Background(), kind, id)
	require.NoError(t, err)
	return p.Base()
}

func jobPayload() *models.JobVacancy {
	return &models.JobVacancy{
		PositionTitle: "Backend developer",
		Address:       "Nukus, Dosnazarov 12",
		Requirements:  "Go, PostgreSQL",
		WorkSchedule:  "Mon-Fri 9:00-18:00",
		Salary:        "8 000 000 UZS",
	}
}
