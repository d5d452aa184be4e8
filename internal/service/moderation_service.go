package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"vacancyhub/internal/i18n"
	"vacancyhub/internal/middleware"
	"vacancyhub/internal/models"
	"vacancyhub/internal/notifications"
	"vacancyhub/internal/observability"
	"vacancyhub/internal/repository"
	"vacancyhub/internal/storage"
	"vacancyhub/internal/validation"
)

// Reasons reported when an approved posting could not be published.
const (
	ReasonChannelNotFound = "channel_not_found"
	ReasonPublishFailed   = "publish_failed"
	ReasonInProgress      = "publish_in_progress"
	// ReasonLinkNotRecorded marks a post that reached the channel but whose
	// message id could not be stored.
	ReasonLinkNotRecorded = "link_not_recorded"
)

// publishClaimTTL is how long a publication claim holds before another
// publisher may take it over.
const publishClaimTTL = 2 * time.Minute

// ApproveResult is the outcome of Approve and Republish.
type ApproveResult struct {
	Resolved      bool   `json:"ok"`
	Published     bool   `json:"published"`
	ChannelChatID *int64 `json:"chat_id,omitempty"`
	MessageID     *int64 `json:"message_id,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// RejectResult is the outcome of Reject.
type RejectResult struct {
	Resolved bool `json:"ok"`
	Notified bool `json:"notified"`
}

// ModerationService moves postings out of NEW and publishes approved ones.
type ModerationService struct {
	postings repository.PostingRepository
	channels repository.ChannelRepository
	users    repository.UserRepository
	notifier notifications.Notifier
	media    storage.Store
	events   *notifications.EventBus
}

func NewModerationService(
	postings repository.PostingRepository,
	channels repository.ChannelRepository,
	users repository.UserRepository,
	notifier notifications.Notifier,
	media storage.Store,
	events *notifications.EventBus,
) *ModerationService {
	return &ModerationService{
		postings: postings,
		channels: channels,
		users:    users,
		notifier: notifier,
		media:    media,
		events:   events,
	}
}

// Approve marks a NEW posting APPROVED and publishes it to the channel of its
// location. Publication problems are reported in the result, not as errors.
func (s *ModerationService) Approve(ctx context.Context, kind models.Kind, id uint, moderatorID int64) (res ApproveResult, err error) {
	if err := checkKind(kind); err != nil {
		return ApproveResult{}, err
	}
	ctx, span := observability.StartSpan(ctx, "moderation.approve", string(kind), id)
	defer func() { observability.EndSpan(span, err) }()

	err = s.transition(ctx, "approve", kind, id, repository.Transition{
		To:          models.StatusApproved,
		ModeratorID: moderatorID,
	})
	if err != nil {
		return ApproveResult{}, err
	}

	res = ApproveResult{Resolved: true, Reason: ReasonPublishFailed}
	p, loadErr := s.postings.GetByID(ctx, kind, id)
	if loadErr != nil {
		middleware.Logger.ErrorContext(ctx, "reload approved posting failed",
			slog.String("kind", string(kind)), slog.Any("posting_id", id), slog.String("error", loadErr.Error()))
	} else {
		res = s.publish(ctx, p)
	}

	published := res.Published
	s.events.Emit(ctx, notifications.Event{
		Type:        notifications.EventApproved,
		Kind:        kind,
		PostingID:   id,
		Status:      models.StatusApproved,
		ModeratorID: &moderatorID,
		Published:   &published,
		Reason:      res.Reason,
	})
	return res, nil
}

// Reject marks a NEW posting REJECTED with the moderator's reason and tells the author.
func (s *ModerationService) Reject(ctx context.Context, kind models.Kind, id uint, moderatorID int64, reason string) (res RejectResult, err error) {
	if err := checkKind(kind); err != nil {
		return RejectResult{}, err
	}
	if err := validation.ValidateReason(reason); err != nil {
		if stateErr := s.checkPending(ctx, kind, id); stateErr != nil {
			return RejectResult{}, stateErr
		}
		return RejectResult{}, err
	}
	ctx, span := observability.StartSpan(ctx, "moderation.reject", string(kind), id)
	defer func() { observability.EndSpan(span, err) }()

	err = s.transition(ctx, "reject", kind, id, repository.Transition{
		To:          models.StatusRejected,
		ModeratorID: moderatorID,
		Reason:      &reason,
	})
	if err != nil {
		return RejectResult{}, err
	}

	res = RejectResult{Resolved: true}
	if p, loadErr := s.postings.GetByID(ctx, kind, id); loadErr == nil {
		res.Notified = s.notifyAuthor(ctx, p.Base().AuthorID, func(lang string) string {
			return i18n.RejectText(lang, id, reason)
		})
	} else {
		middleware.Logger.WarnContext(ctx, "reload rejected posting failed",
			slog.String("kind", string(kind)), slog.Any("posting_id", id), slog.String("error", loadErr.Error()))
	}

	s.events.Emit(ctx, notifications.Event{
		Type:        notifications.EventRejected,
		Kind:        kind,
		PostingID:   id,
		Status:      models.StatusRejected,
		ModeratorID: &moderatorID,
		Reason:      reason,
	})
	return res, nil
}

// Republish retries publication of an APPROVED posting that has no channel message.
func (s *ModerationService) Republish(ctx context.Context, kind models.Kind, id uint) (res ApproveResult, err error) {
	if err := checkKind(kind); err != nil {
		return ApproveResult{}, err
	}
	ctx, span := observability.StartSpan(ctx, "moderation.republish", string(kind), id)
	defer func() { observability.EndSpan(span, err) }()

	p, err := s.postings.GetByID(ctx, kind, id)
	if err != nil {
		err = postingError("republish", kind, id, err)
		return ApproveResult{}, err
	}
	base := p.Base()
	switch {
	case base.Status != models.StatusApproved:
		err = models.NewConflictError("only approved vacancies can be republished")
	case base.Published():
		err = models.NewAlreadyResolvedError(kind, id)
	}
	if err != nil {
		observability.ModerationTransitions.WithLabelValues("republish", string(kind), "refused").Inc()
		return ApproveResult{}, err
	}

	res = s.publish(ctx, p)
	if res.Reason == ReasonInProgress {
		observability.ModerationTransitions.WithLabelValues("republish", string(kind), "refused").Inc()
		err = models.NewConflictError("publication is already in progress")
		return ApproveResult{}, err
	}
	observability.ModerationTransitions.WithLabelValues("republish", string(kind), "ok").Inc()
	if res.Published {
		published := true
		s.events.Emit(ctx, notifications.Event{
			Type:      notifications.EventPublished,
			Kind:      kind,
			PostingID: id,
			Status:    models.StatusApproved,
			Published: &published,
		})
	}
	return res, nil
}

// checkPending reports why a posting cannot be moderated: it is gone or it
// already left NEW.
func (s *ModerationService) checkPending(ctx context.Context, kind models.Kind, id uint) error {
	p, err := s.postings.GetByID(ctx, kind, id)
	if err != nil {
		return postingError("reject", kind, id, err)
	}
	if p.Base().Status != models.StatusNew {
		return models.NewAlreadyResolvedError(kind, id)
	}
	return nil
}

func (s *ModerationService) transition(ctx context.Context, action string, kind models.Kind, id uint, t repository.Transition) error {
	err := s.postings.Transition(ctx, kind, id, t)
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, repository.ErrAlreadyResolved):
		outcome = "already_resolved"
	default:
		outcome = "error"
	}
	observability.ModerationTransitions.WithLabelValues(action, string(kind), outcome).Inc()
	return postingError(action, kind, id, err)
}

// publish claims the posting, then resolves its channel, sends the rendered post
// and records the channel message. Every failure is logged and folded into the
// result. Only the claim holder posts, so concurrent publishers cannot both reach
// the channel.
func (s *ModerationService) publish(ctx context.Context, p models.Posting) ApproveResult {
	kind := p.Kind()
	base := p.Base()
	res := ApproveResult{Resolved: true}
	logAttrs := []any{slog.String("kind", string(kind)), slog.Any("posting_id", base.ID)}

	claimed, err := s.postings.ClaimPublication(ctx, kind, base.ID, publishClaimTTL)
	if err != nil {
		return s.publishFailed(ctx, res, kind, "publication claim failed", err, logAttrs)
	}
	if !claimed {
		middleware.Logger.InfoContext(ctx, "publication claimed elsewhere", logAttrs...)
		res.Reason = ReasonInProgress
		return res
	}

	res = s.publishClaimed(ctx, p, logAttrs)
	if !res.Published {
		if err := s.postings.ReleasePublication(ctx, kind, base.ID); err != nil {
			middleware.Logger.WarnContext(ctx, "release publication claim failed", append(logAttrs, slog.String("error", err.Error()))...)
		}
	}
	return res
}

func (s *ModerationService) publishClaimed(ctx context.Context, p models.Posting, logAttrs []any) ApproveResult {
	kind := p.Kind()
	base := p.Base()
	res := ApproveResult{Resolved: true}

	ch, err := s.channels.Find(ctx, base.CountryID, base.RegionID)
	if err != nil {
		if repository.IsNotFound(err) {
			res.Reason = ReasonChannelNotFound
			observability.Publications.WithLabelValues(string(kind), ReasonChannelNotFound).Inc()
			middleware.Logger.InfoContext(ctx, "no channel for posting location", logAttrs...)
			return res
		}
		return s.publishFailed(ctx, res, kind, "channel lookup failed", err, logAttrs)
	}

	chat, err := s.notifier.ResolveChat(ctx, ch.Handle())
	if err != nil {
		return s.publishFailed(ctx, res, kind, "channel resolve failed", err, logAttrs)
	}

	post := outboundPost(ctx, s.media, i18n.RenderChannelPost(ch.LanguageCode, p))
	ref, err := s.notifier.Publish(ctx, chat.ID, post)
	if err != nil {
		return s.publishFailed(ctx, res, kind, "channel publish failed", err, logAttrs)
	}

	stored, err := s.postings.SetPublication(ctx, kind, base.ID, ref.ChatID, ref.MessageID)
	switch {
	case err != nil:
		middleware.Logger.ErrorContext(ctx, "store publication failed",
			append(logAttrs, slog.Int64("chat_id", ref.ChatID), slog.Int64("message_id", ref.MessageID), slog.String("error", err.Error()))...)
		res.Reason = ReasonLinkNotRecorded
	case !stored:
		middleware.Logger.WarnContext(ctx, "publication already recorded", logAttrs...)
	}

	res.Published = true
	res.ChannelChatID = &ref.ChatID
	res.MessageID = &ref.MessageID
	observability.Publications.WithLabelValues(string(kind), "published").Inc()

	handle := chat.Username
	if handle == "" {
		handle = ch.Handle()
	}
	s.notifyAuthor(ctx, base.AuthorID, func(lang string) string {
		return i18n.ApproveText(lang, base.ID, handle)
	})
	return res
}

func (s *ModerationService) publishFailed(ctx context.Context, res ApproveResult, kind models.Kind, msg string, err error, attrs []any) ApproveResult {
	middleware.Logger.WarnContext(ctx, msg, append(attrs, slog.String("error", err.Error()))...)
	observability.Publications.WithLabelValues(string(kind), ReasonPublishFailed).Inc()
	res.Reason = ReasonPublishFailed
	return res
}

// notifyAuthor sends a text rendered in the author's language and reports delivery.
func (s *ModerationService) notifyAuthor(ctx context.Context, authorID uint, text func(lang string) string) bool {
	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "load author failed", slog.Any("author_id", authorID), slog.String("error", err.Error()))
		return false
	}
	if err := s.notifier.NotifyUser(ctx, author.TelegramID, text(author.Language())); err != nil {
		middleware.Logger.WarnContext(ctx, "author notification failed", slog.Any("author_id", authorID), slog.String("error", err.Error()))
		return false
	}
	return true
}
