package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"vacancyhub/internal/config"
	"vacancyhub/internal/database"
	"vacancyhub/internal/middleware"
	"vacancyhub/internal/models"
	"vacancyhub/internal/notifications"
	"vacancyhub/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testJWTSecret      = "test-secret-key-that-is-long-enough-32"
	testAPIKey         = "test-api-key"
	testCallbackSecret = "callback-secret"

	authorID         uint  = 1
	authorTelegramID int64 = 1001
	strangerID       uint  = 2
	strangerTID      int64 = 2002
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

	region := uint(7)
	country := uint(5)
	lang := "eng"
	contact := "+998 90 123 45 67"
	require.NoError(t, db.Create(&models.Country{ID: 5, Name: "Uzbekistan"}).Error)
	require.NoError(t, db.Create(&models.Region{ID: 7, CountryID: 5, Name: "Karakalpakstan"}).Error)
	require.NoError(t, db.Create(&models.User{ID: authorID, TelegramID: authorTelegramID, LanguageCode: &lang, Contact: &contact}).Error)
	require.NoError(t, db.Create(&models.Client{UserID: authorID, CountryID: &country, RegionID: &region}).Error)
	require.NoError(t, db.Create(&models.User{ID: strangerID, TelegramID: strangerTID, Contact: &contact}).Error)
	require.NoError(t, db.Create(&models.Client{UserID: strangerID, CountryID: &country, RegionID: &region}).Error)
	return db
}

// stubNotifier accepts everything and knows one public channel, @kk_jobs.
type stubNotifier struct {
	mu        sync.Mutex
	texts     map[int64][]string
	published []int64
	nextID    int64
}

func newStubNotifier() *stubNotifier {
	return &stubNotifier{texts: map[int64][]string{}, nextID: 500}
}

func (n *stubNotifier) NotifyUser(_ context.Context, telegramID int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.texts[telegramID] = append(n.texts[telegramID], text)
	return nil
}

func (n *stubNotifier) PostToModerationQueue(_ context.Context, _ notifications.QueueCard) (notifications.MessageRef, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	return notifications.MessageRef{ChatID: -1001, MessageID: n.nextID}, nil
}

func (n *stubNotifier) Publish(_ context.Context, chatID int64, _ notifications.Post) (notifications.MessageRef, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	n.published = append(n.published, chatID)
	return notifications.MessageRef{ChatID: chatID, MessageID: n.nextID}, nil
}

func (n *stubNotifier) ResolveChat(_ context.Context, handle string) (notifications.ChatInfo, error) {
	if strings.TrimPrefix(handle, "@") == "kk_jobs" {
		return notifications.ChatInfo{ID: -100700, Username: "kk_jobs"}, nil
	}
	return notifications.ChatInfo{}, errors.New("telegram: chat not found")
}

func (n *stubNotifier) textsFor(telegramID int64) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.texts[telegramID]...)
}

type testEnv struct {
	server   *Server
	app      *fiber.App
	db       *gorm.DB
	notifier *stubNotifier
	uploads  string
}

func newTestEnv(t *testing.T, rdb *redis.Client) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	uploads := t.TempDir()
	cfg := &config.Config{
		JWTSecret:      testJWTSecret,
		APIKey:         testAPIKey,
		CallbackSecret: testCallbackSecret,
		AllowedOrigins: "*",
		QueueLanguage:  "kaa",
	}
	notifier := newStubNotifier()

	s, err := NewServerWithDeps(cfg, Deps{
		DB:       db,
		Redis:    rdb,
		Notifier: notifier,
		Media:    storage.NewLocalStore(uploads, "http://localhost:8000"),
	})
	require.NoError(t, err)

	app := fiber.New()
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return &testEnv{server: s, app: app, db: db, notifier: notifier, uploads: uploads}
}

func bearer(t *testing.T, userID uint, telegramID int64) string {
	t.Helper()
	token, err := middleware.IssueAccessToken(testJWTSecret, userID, telegramID, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

// call sends a JSON request; headers are given as key, value pairs.
func (e *testEnv) call(t *testing.T, method, path string, body interface{}, headers ...string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return e.do(t, req)
}

func (e *testEnv) do(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func (e *testEnv) moderator(t *testing.T, path string, body interface{}) (int, []byte) {
	t.Helper()
	return e.call(t, http.MethodPost, path, body, "X-API-Key", testAPIKey)
}

// submitJob posts a minimal job vacancy as the author and returns its id.
func (e *testEnv) submitJob(t *testing.T) uint {
	t.Helper()
	status, raw := e.call(t, http.MethodPost, "/api/job_vacancy", map[string]interface{}{
		"position_title": "Backend developer",
		"address":        "Nukus, Dosnazarov 12",
		"requirements":   "Go, PostgreSQL",
		"work_schedule":  "5/2",
		"salary":         "1500 USD",
	}, "Authorization", bearer(t, authorID, authorTelegramID))
	require.Equal(t, http.StatusCreated, status, string(raw))

	var out SubmitResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	require.NotZero(t, out.ID)
	return out.ID
}

func (e *testEnv) addChannel(t *testing.T, regionID *uint, handle string) models.Channel {
	t.Helper()
	body := map[string]interface{}{"country_id": 5, "channel_url": handle}
	if regionID != nil {
		body["region_id"] = *regionID
	}
	status, raw := e.call(t, http.MethodPost, "/api/bot/channels", body, "X-API-Key", testAPIKey)
	require.Equal(t, http.StatusCreated, status, string(raw))

	var ch models.Channel
	require.NoError(t, json.Unmarshal(raw, &ch))
	return ch
}

func decodeError(t *testing.T, raw []byte) models.ErrorResponse {
	t.Helper()
	var out models.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func uintPtr(v uint) *uint { return &v }
