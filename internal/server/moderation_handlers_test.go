package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"vacancyhub/internal/models"
	"vacancyhub/internal/notifications"
	"vacancyhub/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApproveVacancy_PublishesAndRejectsSecondCall(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addChannel(t, uintPtr(7), "https://t.me/kk_jobs")
	id := env.submitJob(t)

	status, raw := env.moderator(t, "/api/moderation/approve", map[string]interface{}{
		"vacancy_type": "job", "vacancy_id": id, "moderator_tid": 777,
	})
	require.Equal(t, http.StatusOK, status, string(raw))

	var res service.ApproveResult
	require.NoError(t, json.Unmarshal(raw, &res))
	assert.True(t, res.Resolved)
	assert.True(t, res.Published)
	require.NotNil(t, res.ChannelChatID)
	assert.Equal(t, int64(-100700), *res.ChannelChatID)

	var stored models.JobVacancy
	require.NoError(t, env.db.First(&stored, id).Error)
	assert.Equal(t, models.StatusApproved, stored.Status)
	assert.True(t, stored.Published())

	status, raw = env.moderator(t, "/api/moderation/reject", map[string]interface{}{
		"vacancy_type": "job", "vacancy_id": id, "moderator_tid": 778, "reason": "late",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, models.CodeAlreadyResolved, decodeError(t, raw).Code)
}

func TestApproveVacancy_NoChannel(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.submitJob(t)

	status, raw := env.moderator(t, "/api/moderation/approve", map[string]interface{}{
		"vacancy_type": "job_vacancy", "vacancy_id": id, "moderator_tid": 777,
	})
	require.Equal(t, http.StatusOK, status, string(raw))

	var res service.ApproveResult
	require.NoError(t, json.Unmarshal(raw, &res))
	assert.True(t, res.Resolved)
	assert.False(t, res.Published)
	assert.Equal(t, service.ReasonChannelNotFound, res.Reason)
}

func TestApproveVacancy_CallbackData(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addChannel(t, uintPtr(7), "@kk_jobs")
	id := env.submitJob(t)

	rejectData := notifications.EncodeCallback(testCallbackSecret, notifications.ActionReject, models.KindJobVacancy, id)
	status, raw := env.moderator(t, "/api/moderation/approve", map[string]interface{}{
		"callback_data": rejectData, "moderator_tid": 777,
	})
	assert.Equal(t, http.StatusBadRequest, status, string(raw))

	forged := notifications.EncodeCallback("other-secret", notifications.ActionAccept, models.KindJobVacancy, id)
	status, _ = env.moderator(t, "/api/moderation/approve", map[string]interface{}{
		"callback_data": forged, "moderator_tid": 777,
	})
	assert.Equal(t, http.StatusBadRequest, status)

	data := notifications.EncodeCallback(testCallbackSecret, notifications.ActionAccept, models.KindJobVacancy, id)
	status, raw = env.moderator(t, "/api/moderation/approve", map[string]interface{}{
		"callback_data": data, "moderator_tid": 777,
	})
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Contains(t, string(raw), `"published":true`)
}

func TestRejectVacancy(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.submitJob(t)

	status, raw := env.moderator(t, "/api/moderation/reject", map[string]interface{}{
		"vacancy_type": "job", "vacancy_id": id, "moderator_tid": 777, "reason": "   ",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, decodeError(t, raw).Code)

	status, raw = env.moderator(t, "/api/moderation/reject", map[string]interface{}{
		"vacancy_type": "job", "vacancy_id": id, "moderator_tid": 777, "reason": "Salary is missing a currency",
	})
	require.Equal(t, http.StatusOK, status, string(raw))

	var res service.RejectResult
	require.NoError(t, json.Unmarshal(raw, &res))
	assert.True(t, res.Resolved)
	assert.True(t, res.Notified)

	texts := env.notifier.textsFor(authorTelegramID)
	require.NotEmpty(t, texts)
	assert.Contains(t, texts[len(texts)-1], "Salary is missing a currency")
}

func TestModerationRequests_Validation(t *testing.T) {
	env := newTestEnv(t, nil)

	cases := []struct {
		name   string
		path   string
		body   map[string]interface{}
		status int
		code   string
	}{
		{"missing moderator", "/api/moderation/approve", map[string]interface{}{"vacancy_type": "job", "vacancy_id": 1}, http.StatusBadRequest, models.CodeValidation},
		{"unknown kind", "/api/moderation/approve", map[string]interface{}{"vacancy_type": "gig", "vacancy_id": 1, "moderator_tid": 1}, http.StatusBadRequest, models.CodeValidation},
		{"missing id", "/api/moderation/approve", map[string]interface{}{"vacancy_type": "job", "moderator_tid": 1}, http.StatusBadRequest, models.CodeValidation},
		{"unknown vacancy", "/api/moderation/approve", map[string]interface{}{"vacancy_type": "job", "vacancy_id": 999, "moderator_tid": 1}, http.StatusNotFound, models.CodeNotFound},
		{"reject unknown vacancy", "/api/moderation/reject", map[string]interface{}{"vacancy_type": "intern", "vacancy_id": 999, "moderator_tid": 1, "reason": "x"}, http.StatusNotFound, models.CodeNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, raw := env.moderator(t, tc.path, tc.body)
			assert.Equal(t, tc.status, status, string(raw))
			assert.Equal(t, tc.code, decodeError(t, raw).Code)
		})
	}
}

func TestRepublishVacancy(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.submitJob(t)

	status, raw := env.moderator(t, "/api/moderation/republish", map[string]interface{}{
		"vacancy_type": "job", "vacancy_id": id,
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, models.CodeConflict, decodeError(t, raw).Code)

	status, _ = env.moderator(t, "/api/moderation/approve", map[string]interface{}{
		"vacancy_type": "job", "vacancy_id": id, "moderator_tid": 777,
	})
	require.Equal(t, http.StatusOK, status)

	env.addChannel(t, uintPtr(7), "kk_jobs")
	status, raw = env.moderator(t, "/api/moderation/republish", map[string]interface{}{
		"vacancy_type": "job", "vacancy_id": id,
	})
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Contains(t, string(raw), `"published":true`)

	status, raw = env.moderator(t, "/api/moderation/republish", map[string]interface{}{
		"vacancy_type": "job", "vacancy_id": id,
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, models.CodeAlreadyResolved, decodeError(t, raw).Code)
}

func TestModerationRoutes_RequireAPIKey(t *testing.T) {
	env := newTestEnv(t, nil)
	body := map[string]interface{}{"vacancy_type": "job", "vacancy_id": 1, "moderator_tid": 1}

	status, _ := env.call(t, http.MethodPost, "/api/moderation/approve", body)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.call(t, http.MethodPost, "/api/moderation/approve", body, "X-API-Key", "wrong")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.call(t, http.MethodGet, "/api/stats/postings", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGetPostingStats(t *testing.T) {
	env := newTestEnv(t, nil)
	env.submitJob(t)
	id := env.submitJob(t)
	status, _ := env.moderator(t, "/api/moderation/reject", map[string]interface{}{
		"vacancy_type": "job", "vacancy_id": id, "moderator_tid": 777, "reason": "duplicate",
	})
	require.Equal(t, http.StatusOK, status)

	status, raw := env.call(t, http.MethodGet, "/api/stats/postings", nil, "X-API-Key", testAPIKey)
	require.Equal(t, http.StatusOK, status, string(raw))

	var stats []service.KindStats
	require.NoError(t, json.Unmarshal(raw, &stats))
	require.Len(t, stats, len(models.Kinds))
	assert.Equal(t, models.KindJobVacancy, stats[0].Kind)
	assert.Equal(t, int64(2), stats[0].Total)
	assert.Equal(t, int64(1), stats[0].New)
	assert.Equal(t, int64(1), stats[0].Rejected)
	assert.Zero(t, stats[1].Total)
}
