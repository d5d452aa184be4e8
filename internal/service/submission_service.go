package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"vacancyhub/internal/i18n"
	"vacancyhub/internal/middleware"
	"vacancyhub/internal/models"
	"vacancyhub/internal/notifications"
	"vacancyhub/internal/observability"
	"vacancyhub/internal/repository"
	"vacancyhub/internal/storage"
	"vacancyhub/internal/validation"
)

// DefaultQueueLanguage is the language moderation cards are rendered in.
const DefaultQueueLanguage = "kaa"

// SubmissionService stores author postings and sends them to the moderation queue.
type SubmissionService struct {
	postings  repository.PostingRepository
	users     repository.UserRepository
	notifier  notifications.Notifier
	media     storage.Store
	events    *notifications.EventBus
	queueLang string
}

func NewSubmissionService(
	postings repository.PostingRepository,
	users repository.UserRepository,
	notifier notifications.Notifier,
	media storage.Store,
	events *notifications.EventBus,
	queueLang string,
) *SubmissionService {
	if strings.TrimSpace(queueLang) == "" {
		queueLang = DefaultQueueLanguage
	}
	return &SubmissionService{
		postings:  postings,
		users:     users,
		notifier:  notifier,
		media:     media,
		events:    events,
		queueLang: queueLang,
	}
}

// Submit stores p as a NEW posting of authorID and returns its id. The
// acknowledgement and the moderation card are best-effort.
func (s *SubmissionService) Submit(ctx context.Context, authorID uint, p models.Posting) (uint, error) {
	if p == nil {
		return 0, models.NewValidationError("posting is required")
	}
	kind := p.Kind()

	author, err := s.users.GetWithProfile(ctx, authorID)
	if err != nil {
		if repository.IsNotFound(err) {
			return 0, models.NewUnauthorizedError("User not found")
		}
		return 0, models.NewInternalError(fmt.Errorf("load author %d: %w", authorID, err))
	}
	if missing := author.MissingProfileFields(); len(missing) > 0 {
		s.countSubmission(kind, "profile_incomplete")
		return 0, models.NewProfileIncompleteError(missing)
	}

	base := p.Base()
	*base = models.PostingBase{
		AuthorID:  author.ID,
		CountryID: base.CountryID,
		RegionID:  base.RegionID,
		Contact:   base.Contact,
		Status:    models.StatusNew,
	}
	if base.CountryID == 0 {
		base.CountryID = *author.Client.CountryID
		base.RegionID = author.Client.RegionID
	}
	if strings.TrimSpace(base.Contact) == "" && author.Contact != nil {
		base.Contact = *author.Contact
	}

	if err := validation.ValidatePosting(p); err != nil {
		s.countSubmission(kind, "invalid")
		return 0, err
	}
	if err := checkLocation(ctx, s.users, base.CountryID, base.RegionID); err != nil {
		s.countSubmission(kind, "invalid")
		return 0, err
	}
	if err := s.postings.Create(ctx, p); err != nil {
		s.countSubmission(kind, "error")
		return 0, models.NewInternalError(fmt.Errorf("create %s: %w", kind, err))
	}
	s.countSubmission(kind, "accepted")

	if err := s.notifier.NotifyUser(ctx, author.TelegramID, i18n.AckText(author.Language(), base.ID)); err != nil {
		middleware.Logger.WarnContext(ctx, "submission acknowledgement failed",
			slog.Any("posting_id", base.ID), slog.String("error", err.Error()))
	}
	s.enqueue(ctx, p)

	s.events.Emit(ctx, notifications.Event{
		Type:      notifications.EventSubmitted,
		Kind:      kind,
		PostingID: base.ID,
		Status:    models.StatusNew,
	})
	return base.ID, nil
}

// enqueue posts the moderation card and records where it landed.
func (s *SubmissionService) enqueue(ctx context.Context, p models.Posting) {
	base := p.Base()
	logAttrs := []any{slog.String("kind", string(p.Kind())), slog.Any("posting_id", base.ID)}

	country, region, err := s.users.LocationNames(ctx, base.CountryID, base.RegionID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "location lookup failed", append(logAttrs, slog.String("error", err.Error()))...)
	}
	rendered := i18n.RenderQueueCard(s.queueLang, p, i18n.Location{Country: country, Region: region})

	ref, err := s.notifier.PostToModerationQueue(ctx, notifications.QueueCard{
		PostingID: base.ID,
		Kind:      p.Kind(),
		Post:      outboundPost(ctx, s.media, rendered),
	})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "moderation card failed", append(logAttrs, slog.String("error", err.Error()))...)
		return
	}
	if err := s.postings.SetQueueLinkage(ctx, p.Kind(), base.ID, ref.ChatID, ref.MessageID); err != nil {
		middleware.Logger.ErrorContext(ctx, "store moderation card failed", append(logAttrs, slog.String("error", err.Error()))...)
		return
	}
	base.GroupChatID = &ref.ChatID
	base.GroupMessageID = &ref.MessageID
}

// ListMine returns the author's live postings of kind, newest first.
func (s *SubmissionService) ListMine(ctx context.Context, authorID uint, kind models.Kind) ([]models.Posting, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	items, err := s.postings.ListByAuthor(ctx, kind, authorID)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("list %s of %d: %w", kind, authorID, err))
	}
	return items, nil
}

// Update replaces the content and location of the author's own posting. Lifecycle
// fields are never touched.
func (s *SubmissionService) Update(ctx context.Context, authorID uint, id uint, p models.Posting) error {
	if p == nil {
		return models.NewValidationError("posting is required")
	}
	kind := p.Kind()
	existing, err := s.owned(ctx, "update", authorID, kind, id)
	if err != nil {
		return err
	}

	current := existing.Base()
	base := p.Base()
	*base = models.PostingBase{
		ID:        id,
		AuthorID:  current.AuthorID,
		CountryID: base.CountryID,
		RegionID:  base.RegionID,
		Contact:   base.Contact,
		Status:    current.Status,
		CreatedAt: current.CreatedAt,
	}
	if base.CountryID == 0 {
		base.CountryID = current.CountryID
		base.RegionID = current.RegionID
	}
	if strings.TrimSpace(base.Contact) == "" {
		base.Contact = current.Contact
	}
	if grant, ok := p.(*models.OpportunitiesGrant); ok && grant.ImgPath == nil {
		grant.ImgPath = existing.(*models.OpportunitiesGrant).ImgPath
	}

	if err := validation.ValidatePosting(p); err != nil {
		return err
	}
	if err := checkLocation(ctx, s.users, base.CountryID, base.RegionID); err != nil {
		return err
	}
	return postingError("update", kind, id, s.postings.UpdateContent(ctx, p))
}

// SoftDelete hides the author's posting. A channel message already published stays.
func (s *SubmissionService) SoftDelete(ctx context.Context, authorID uint, kind models.Kind, id uint) error {
	if _, err := s.owned(ctx, "delete", authorID, kind, id); err != nil {
		return err
	}
	return postingError("delete", kind, id, s.postings.SoftDelete(ctx, kind, id))
}

func (s *SubmissionService) owned(ctx context.Context, op string, authorID uint, kind models.Kind, id uint) (models.Posting, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	p, err := s.postings.GetByID(ctx, kind, id)
	if err != nil {
		return nil, postingError(op, kind, id, err)
	}
	if p.Base().AuthorID != authorID {
		return nil, models.NewForbiddenError("This vacancy does not belong to you")
	}
	return p, nil
}

func (s *SubmissionService) countSubmission(kind models.Kind, outcome string) {
	observability.Submissions.WithLabelValues(string(kind), outcome).Inc()
}
