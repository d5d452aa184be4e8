package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"vacancyhub/internal/i18n"
	"vacancyhub/internal/models"
	"vacancyhub/internal/notifications"
	"vacancyhub/internal/repository"
	"vacancyhub/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprove_PublishesToRegionalChannel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addChannel(t, 5, uintPtr(7), "@kk_jobs")
	p := f.newPosting(t, uintPtr(7))

	res, err := f.moderation.Approve(ctx, models.KindJobVacancy, p.ID, moderatorTID)
	require.NoError(t, err)
	assert.True(t, res.Resolved)
	assert.True(t, res.Published)
	assert.Empty(t, res.Reason)
	require.NotNil(t, res.ChannelChatID)
	assert.Equal(t, int64(-100700), *res.ChannelChatID)
	require.NotNil(t, res.MessageID)

	base := f.reload(t, models.KindJobVacancy, p.ID)
	assert.Equal(t, models.StatusApproved, base.Status)
	require.NotNil(t, base.ModeratorID)
	assert.Equal(t, moderatorTID, *base.ModeratorID)
	assert.Nil(t, base.RejectReason)
	require.True(t, base.Published())
	assert.Equal(t, *res.MessageID, *base.ChannelMessageID)

	texts, _, published := f.notifier.snapshot()
	require.Len(t, published, 1)
	assert.Equal(t, int64(-100700), published[0].ChatID)
	stored, err := f.postings.GetByID(ctx, models.KindJobVacancy, p.ID)
	require.NoError(t, err)
	assert.Equal(t, i18n.RenderChannelPost("kaa", stored).Text, published[0].Post.Text)

	require.Len(t, texts, 1)
	assert.Equal(t, authorTelegramID, texts[0].ChatID)
	assert.Equal(t, i18n.ApproveText("rus", p.ID, "kk_jobs"), texts[0].Text)
}

func TestApprove_SecondCallIsAlreadyResolved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addChannel(t, 5, uintPtr(7), "@kk_jobs")
	p := f.newPosting(t, uintPtr(7))

	_, err := f.moderation.Approve(ctx, models.KindJobVacancy, p.ID, moderatorTID)
	require.NoError(t, err)
	before := f.reload(t, models.KindJobVacancy, p.ID)

	_, err = f.moderation.Approve(ctx, models.KindJobVacancy, p.ID, 999)
	assert.True(t, models.IsCode(err, models.CodeAlreadyResolved), "got %v", err)
	_, err = f.moderation.Reject(ctx, models.KindJobVacancy, p.ID, 999, "late")
	assert.True(t, models.IsCode(err, models.CodeAlreadyResolved), "got %v", err)

	after := f.reload(t, models.KindJobVacancy, p.ID)
	assert.Equal(t, *before.ModeratorID, *after.ModeratorID)
	assert.Equal(t, *before.ChannelMessageID, *after.ChannelMessageID)
	assert.Nil(t, after.RejectReason)

	texts, _, published := f.notifier.snapshot()
	assert.Len(t, published, 1)
	assert.Len(t, texts, 1)
}

func TestApprove_NoChannel(t *testing.T) {
	f := newFixture(t)
	p := f.newPosting(t, uintPtr(8))
	f.addChannel(t, 5, uintPtr(7), "@kk_jobs")

	res, err := f.moderation.Approve(context.Background(), models.KindJobVacancy, p.ID, moderatorTID)
	require.NoError(t, err)
	assert.Equal(t, ApproveResult{Resolved: true, Reason: ReasonChannelNotFound}, res)

	base := f.reload(t, models.KindJobVacancy, p.ID)
	assert.Equal(t, models.StatusApproved, base.Status)
	assert.Nil(t, base.ChannelChatID)
	assert.Nil(t, base.ChannelMessageID)

	texts, _, published := f.notifier.snapshot()
	assert.Empty(t, published)
	assert.Empty(t, texts)
}

func TestApprove_NullRegionDoesNotFallBackToRegionalChannel(t *testing.T) {
	f := newFixture(t)
	f.addChannel(t, 5, uintPtr(7), "@kk_jobs")
	p := f.newPosting(t, nil)

	res, err := f.moderation.Approve(context.Background(), models.KindJobVacancy, p.ID, moderatorTID)
	require.NoError(t, err)
	assert.False(t, res.Published)
	assert.Equal(t, ReasonChannelNotFound, res.Reason)
}

func TestApprove_CountryWideChannelForNullRegion(t *testing.T) {
	f := newFixture(t)
	f.addChannel(t, 5, nil, "uz_jobs")
	p := f.newPosting(t, nil)

	res, err := f.moderation.Approve(context.Background(), models.KindJobVacancy, p.ID, moderatorTID)
	require.NoError(t, err)
	assert.True(t, res.Published)
	assert.Equal(t, int64(-100500), *res.ChannelChatID)
}

func TestApprove_PublishFailure(t *testing.T) {
	f := newFixture(t)
	f.addChannel(t, 5, uintPtr(7), "@kk_jobs")
	f.notifier.publishErr = errors.New("telegram: Forbidden: bot is not a member of the channel chat")
	p := f.newPosting(t, uintPtr(7))

	res, err := f.moderation.Approve(context.Background(), models.KindJobVacancy, p.ID, moderatorTID)
	require.NoError(t, err)
	assert.Equal(t, ApproveResult{Resolved: true, Reason: ReasonPublishFailed}, res)

	base := f.reload(t, models.KindJobVacancy, p.ID)
	assert.Equal(t, models.StatusApproved, base.Status)
	assert.False(t, base.Published())
	texts, _, _ := f.notifier.snapshot()
	assert.Empty(t, texts)
}

func TestApprove_UnresolvableChannel(t *testing.T) {
	f := newFixture(t)
	f.addChannel(t, 5, uintPtr(7), "@gone_channel")
	p := f.newPosting(t, uintPtr(7))

	res, err := f.moderation.Approve(context.Background(), models.KindJobVacancy, p.ID, moderatorTID)
	require.NoError(t, err)
	assert.False(t, res.Published)
	assert.Equal(t, ReasonPublishFailed, res.Reason)
	assert.Equal(t, models.StatusApproved, f.reload(t, models.KindJobVacancy, p.ID).Status)
}

func TestApprove_NotFoundAndBadKind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.moderation.Approve(ctx, models.KindJobVacancy, 404, moderatorTID)
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)

	_, err = f.moderation.Approve(ctx, models.Kind("blog"), 1, moderatorTID)
	assert.True(t, models.IsCode(err, models.CodeValidation), "got %v", err)

	p := f.newPosting(t, uintPtr(7))
	require.NoError(t, f.postings.SoftDelete(ctx, models.KindJobVacancy, p.ID))
	_, err = f.moderation.Approve(ctx, models.KindJobVacancy, p.ID, moderatorTID)
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)
}

func TestReject_StoresReasonVerbatimAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.newPosting(t, uintPtr(7))
	reason := "  Salary <missing>  "

	res, err := f.moderation.Reject(ctx, models.KindJobVacancy, p.ID, moderatorTID, reason)
	require.NoError(t, err)
	assert.Equal(t, RejectResult{Resolved: true, Notified: true}, res)

	base := f.reload(t, models.KindJobVacancy, p.ID)
	assert.Equal(t, models.StatusRejected, base.Status)
	require.NotNil(t, base.RejectReason)
	assert.Equal(t, reason, *base.RejectReason)
	assert.Equal(t, moderatorTID, *base.ModeratorID)
	assert.False(t, base.Published())

	texts, _, _ := f.notifier.snapshot()
	require.Len(t, texts, 1)
	assert.Equal(t, i18n.RejectText("rus", p.ID, reason), texts[0].Text)
	assert.Contains(t, texts[0].Text, "&lt;missing&gt;")

	_, err = f.moderation.Reject(ctx, models.KindJobVacancy, p.ID, 1, "another reason")
	assert.True(t, models.IsCode(err, models.CodeAlreadyResolved), "got %v", err)
	assert.Equal(t, reason, *f.reload(t, models.KindJobVacancy, p.ID).RejectReason)
}

func TestReject_BlankReason(t *testing.T) {
	f := newFixture(t)
	p := f.newPosting(t, uintPtr(7))

	_, err := f.moderation.Reject(context.Background(), models.KindJobVacancy, p.ID, moderatorTID, " \n\t ")
	assert.True(t, models.IsCode(err, models.CodeValidation), "got %v", err)
	assert.Equal(t, models.StatusNew, f.reload(t, models.KindJobVacancy, p.ID).Status)
}

func TestReject_BlankReasonOnResolvedPosting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.newPosting(t, uintPtr(7))
	_, err := f.moderation.Approve(ctx, models.KindJobVacancy, p.ID, moderatorTID)
	require.NoError(t, err)

	_, err = f.moderation.Reject(ctx, models.KindJobVacancy, p.ID, moderatorTID, "  ")
	assert.True(t, models.IsCode(err, models.CodeAlreadyResolved), "got %v", err)

	_, err = f.moderation.Reject(ctx, models.KindJobVacancy, 404, moderatorTID, "")
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)
	assert.Equal(t, models.StatusApproved, f.reload(t, models.KindJobVacancy, p.ID).Status)
}

func TestReject_NotifierFailure(t *testing.T) {
	f := newFixture(t)
	f.notifier.notifyErr = errors.New("telegram: Forbidden: bot was blocked by the user")
	p := f.newPosting(t, uintPtr(7))

	res, err := f.moderation.Reject(context.Background(), models.KindJobVacancy, p.ID, moderatorTID, "duplicate")
	require.NoError(t, err)
	assert.True(t, res.Resolved)
	assert.False(t, res.Notified)
	assert.Equal(t, models.StatusRejected, f.reload(t, models.KindJobVacancy, p.ID).Status)
}

func TestReject_DisabledBot(t *testing.T) {
	f := newFixture(t)
	svc := NewModerationService(f.postings, f.channels, f.users, notifications.NoopNotifier{}, nil, nil)
	p := f.newPosting(t, uintPtr(7))

	res, err := svc.Reject(context.Background(), models.KindJobVacancy, p.ID, moderatorTID, "duplicate")
	require.NoError(t, err)
	assert.Equal(t, RejectResult{Resolved: true, Notified: false}, res)
}

func TestModeration_ConcurrentApproveAndReject(t *testing.T) {
	f := newFixture(t)
	f.addChannel(t, 5, uintPtr(7), "@kk_jobs")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		p := f.newPosting(t, uintPtr(7))

		var wg sync.WaitGroup
		var approveErr, rejectErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, approveErr = f.moderation.Approve(ctx, models.KindJobVacancy, p.ID, 1)
		}()
		go func() {
			defer wg.Done()
			_, rejectErr = f.moderation.Reject(ctx, models.KindJobVacancy, p.ID, 2, "spam")
		}()
		wg.Wait()

		if approveErr == nil {
			assert.True(t, models.IsCode(rejectErr, models.CodeAlreadyResolved), "reject got %v", rejectErr)
			assert.Equal(t, models.StatusApproved, f.reload(t, models.KindJobVacancy, p.ID).Status)
		} else {
			require.NoError(t, rejectErr)
			assert.True(t, models.IsCode(approveErr, models.CodeAlreadyResolved), "approve got %v", approveErr)
			base := f.reload(t, models.KindJobVacancy, p.ID)
			assert.Equal(t, models.StatusRejected, base.Status)
			assert.False(t, base.Published())
		}
	}
}

func TestRepublish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.newPosting(t, uintPtr(7))

	_, err := f.moderation.Republish(ctx, models.KindJobVacancy, p.ID)
	assert.True(t, models.IsCode(err, models.CodeConflict), "got %v", err)

	res, err := f.moderation.Approve(ctx, models.KindJobVacancy, p.ID, moderatorTID)
	require.NoError(t, err)
	require.False(t, res.Published)

	f.addChannel(t, 5, uintPtr(7), "@kk_jobs")
	res, err = f.moderation.Republish(ctx, models.KindJobVacancy, p.ID)
	require.NoError(t, err)
	assert.True(t, res.Published)
	assert.True(t, f.reload(t, models.KindJobVacancy, p.ID).Published())

	_, err = f.moderation.Republish(ctx, models.KindJobVacancy, p.ID)
	assert.True(t, models.IsCode(err, models.CodeAlreadyResolved), "got %v", err)

	_, err = f.moderation.Republish(ctx, models.KindJobVacancy, 404)
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)

	_, _, published := f.notifier.snapshot()
	assert.Len(t, published, 1)
}

func TestRepublish_ConcurrentPostsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.newPosting(t, uintPtr(7))
	_, err := f.moderation.Approve(ctx, models.KindJobVacancy, p.ID, moderatorTID)
	require.NoError(t, err)
	f.addChannel(t, 5, uintPtr(7), "@kk_jobs")

	const workers = 6
	var wg sync.WaitGroup
	results := make([]ApproveResult, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.moderation.Republish(ctx, models.KindJobVacancy, p.ID)
		}(i)
	}
	wg.Wait()

	published := 0
	for i := range results {
		if errs[i] != nil {
			assert.True(t, models.IsCode(errs[i], models.CodeConflict) || models.IsCode(errs[i], models.CodeAlreadyResolved), "got %v", errs[i])
			continue
		}
		if results[i].Published {
			published++
		}
	}
	assert.Equal(t, 1, published)
	_, _, posts := f.notifier.snapshot()
	assert.Len(t, posts, 1)
}

func TestRepublish_ClaimHeldElsewhere(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.newPosting(t, uintPtr(7))
	res, err := f.moderation.Approve(ctx, models.KindJobVacancy, p.ID, moderatorTID)
	require.NoError(t, err)
	require.Equal(t, ReasonChannelNotFound, res.Reason)

	claimed, err := f.postings.ClaimPublication(ctx, models.KindJobVacancy, p.ID, time.Minute)
	require.NoError(t, err)
	require.True(t, claimed)

	f.addChannel(t, 5, uintPtr(7), "@kk_jobs")
	_, err = f.moderation.Republish(ctx, models.KindJobVacancy, p.ID)
	assert.True(t, models.IsCode(err, models.CodeConflict), "got %v", err)
	_, _, posts := f.notifier.snapshot()
	assert.Empty(t, posts)

	require.NoError(t, f.postings.ReleasePublication(ctx, models.KindJobVacancy, p.ID))
	res, err = f.moderation.Republish(ctx, models.KindJobVacancy, p.ID)
	require.NoError(t, err)
	assert.True(t, res.Published)
}

type lostPublicationRepo struct {
	repository.PostingRepository
}

func (lostPublicationRepo) SetPublication(context.Context, models.Kind, uint, int64, int64) (bool, error) {
	return false, errors.New("driver: bad connection")
}

func TestApprove_LinkNotRecorded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addChannel(t, 5, uintPtr(7), "@kk_jobs")
	svc := NewModerationService(lostPublicationRepo{f.postings}, f.channels, f.users, f.notifier, nil, nil)
	p := f.newPosting(t, uintPtr(7))

	res, err := svc.Approve(ctx, models.KindJobVacancy, p.ID, moderatorTID)
	require.NoError(t, err)
	assert.True(t, res.Published)
	assert.Equal(t, ReasonLinkNotRecorded, res.Reason)
	require.NotNil(t, res.ChannelChatID)
	require.NotNil(t, res.MessageID)
	assert.False(t, f.reload(t, models.KindJobVacancy, p.ID).Published())

	// The claim outlives the lost write, so a retry cannot post twice.
	_, err = svc.Republish(ctx, models.KindJobVacancy, p.ID)
	assert.True(t, models.IsCode(err, models.CodeConflict), "got %v", err)
	_, _, posts := f.notifier.snapshot()
	assert.Len(t, posts, 1)
}

func TestApprove_GrantWithStoredImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	store := storage.NewLocalStore(t.TempDir(), "https://jobs.example.com")
	require.NoError(t, store.Put(ctx, "grants/a.jpg", []byte("jpeg-bytes"), "image/jpeg"))
	svc := NewModerationService(f.postings, f.channels, f.users, f.notifier, store, nil)
	f.addChannel(t, 5, uintPtr(7), "@kk_jobs")

	key := "grants/a.jpg"
	grant := &models.OpportunitiesGrant{
		PostingBase: models.PostingBase{AuthorID: authorID, CountryID: 5, RegionID: uintPtr(7), Contact: "@grants_admin", Status: models.StatusNew},
		Content:     "Erasmus+ call for 2027",
		ImgPath:     &key,
	}
	require.NoError(t, f.postings.Create(ctx, grant))

	res, err := svc.Approve(ctx, models.KindOpportunitiesGrant, grant.ID, moderatorTID)
	require.NoError(t, err)
	assert.True(t, res.Published)

	_, _, published := f.notifier.snapshot()
	require.Len(t, published, 1)
	assert.Equal(t, []byte("jpeg-bytes"), published[0].Post.ImageData)
	assert.Contains(t, published[0].Post.Text, "Erasmus+ call for 2027")
}

func TestApprove_EmitsFeedEvent(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := newFixture(t)
	svc := NewModerationService(f.postings, f.channels, f.users, f.notifier, nil, notifications.NewEventBus(rdb))
	p := f.newPosting(t, uintPtr(7))

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, notifications.FeedChannel)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, models.KindJobVacancy, p.ID, moderatorTID)
	require.NoError(t, err)

	select {
	case msg := <-sub.Channel():
		var e notifications.Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &e))
		assert.Equal(t, notifications.EventApproved, e.Type)
		assert.Equal(t, models.KindJobVacancy, e.Kind)
		assert.Equal(t, p.ID, e.PostingID)
		require.NotNil(t, e.Published)
		assert.False(t, *e.Published)
		assert.Equal(t, ReasonChannelNotFound, e.Reason)
	case <-time.After(2 * time.Second):
		t.Fatal("no feed event received")
	}
}
