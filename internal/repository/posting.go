package repository

import (
	"context"
	"fmt"
	"time"

	"vacancyhub/internal/models"
	"vacancyhub/internal/observability"

	"gorm.io/gorm"
)

// Transition describes a moderation decision applied to a NEW posting.
type Transition struct {
	To          models.Status
	ModeratorID int64
	// Reason is stored verbatim when set.
	Reason *string
}

// PostingRepository defines the data operations shared by every posting kind.
type PostingRepository interface {
	Create(ctx context.Context, p models.Posting) error
	GetByID(ctx context.Context, kind models.Kind, id uint) (models.Posting, error)
	ListByAuthor(ctx context.Context, kind models.Kind, authorID uint) ([]models.Posting, error)
	UpdateContent(ctx context.Context, p models.Posting) error
	SoftDelete(ctx context.Context, kind models.Kind, id uint) error
	Transition(ctx context.Context, kind models.Kind, id uint, t Transition) error
	ClaimPublication(ctx context.Context, kind models.Kind, id uint, stale time.Duration) (bool, error)
	ReleasePublication(ctx context.Context, kind models.Kind, id uint) error
	SetPublication(ctx context.Context, kind models.Kind, id uint, chatID, messageID int64) (bool, error)
	SetQueueLinkage(ctx context.Context, kind models.Kind, id uint, chatID, messageID int64) error
	CountByStatus(ctx context.Context, kind models.Kind) (map[models.Status]int64, error)
}

type postingRepository struct {
	db *gorm.DB
}

func NewPostingRepository(db *gorm.DB) PostingRepository {
	return &postingRepository{db: db}
}

func table(kind models.Kind) (string, error) {
	t := kind.Table()
	if t == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return t, nil
}

func (r *postingRepository) Create(ctx context.Context, p models.Posting) error {
	defer observability.TrackQuery("insert", p.Kind().Table())()
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *postingRepository) GetByID(ctx context.Context, kind models.Kind, id uint) (models.Posting, error) {
	if _, err := table(kind); err != nil {
		return nil, err
	}
	defer observability.TrackQuery("select", kind.Table())()

	p := kind.New()
	if err := r.db.WithContext(ctx).Where("is_delete = ?", false).First(p, id).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postingRepository) ListByAuthor(ctx context.Context, kind models.Kind, authorID uint) ([]models.Posting, error) {
	if _, err := table(kind); err != nil {
		return nil, err
	}
	defer observability.TrackQuery("select", kind.Table())()

	dest := kind.NewSlice()
	err := r.db.WithContext(ctx).
		Where("author_id = ? AND is_delete = ?", authorID, false).
		Order("created_at DESC, id DESC").
		Find(dest).Error
	if err != nil {
		return nil, err
	}
	return toPostings(dest), nil
}

func toPostings(dest interface{}) []models.Posting {
	out := []models.Posting{}
	switch rows := dest.(type) {
	case *[]*models.JobVacancy:
		for _, p := range *rows {
			out = append(out, p)
		}
	case *[]*models.Internship:
		for _, p := range *rows {
			out = append(out, p)
		}
	case *[]*models.OneTimeTask:
		for _, p := range *rows {
			out = append(out, p)
		}
	case *[]*models.OpportunitiesGrant:
		for _, p := range *rows {
			out = append(out, p)
		}
	}
	if out == nil {
		out = []models.Posting{}
	}
	return out
}

// UpdateContent writes the author-editable columns of p.
func (r *postingRepository) UpdateContent(ctx context.Context, p models.Posting) error {
	defer observability.TrackQuery("update", p.Kind().Table())()

	base := p.Base()
	base.UpdatedAt = time.Now().UTC()
	cols := append(p.ContentColumns(), "updated_at")

	res := r.db.WithContext(ctx).Model(p).
		Where("is_delete = ?", false).
		Select(cols).
		Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postingRepository) SoftDelete(ctx context.Context, kind models.Kind, id uint) error {
	t, err := table(kind)
	if err != nil {
		return err
	}
	defer observability.TrackQuery("update", t)()

	res := r.db.WithContext(ctx).Table(t).
		Where("id = ? AND is_delete = ?", id, false).
		Updates(map[string]interface{}{
			"is_delete":  true,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Transition moves a NEW posting to t.To with a single conditional update. Of two
// concurrent transitions exactly one matches the row; the other gets ErrAlreadyResolved.
func (r *postingRepository) Transition(ctx context.Context, kind models.Kind, id uint, t Transition) error {
	tbl, err := table(kind)
	if err != nil {
		return err
	}
	defer observability.TrackQuery("transition", tbl)()

	updates := map[string]interface{}{
		"status":       t.To,
		"moderator_id": t.ModeratorID,
		"updated_at":   time.Now().UTC(),
	}
	if t.Reason != nil {
		updates["reject_reason"] = *t.Reason
	}

	res := r.db.WithContext(ctx).Table(tbl).
		Where("id = ? AND status = ? AND is_delete = ?", id, models.StatusNew, false).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var statuses []string
	err = r.db.WithContext(ctx).Table(tbl).
		Where("id = ? AND is_delete = ?", id, false).
		Limit(1).
		Pluck("status", &statuses).Error
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		return ErrNotFound
	}
	return ErrAlreadyResolved
}

// ClaimPublication reserves an APPROVED, unpublished posting for a single
// publisher. A claim older than stale is taken over. It reports whether the
// caller holds the claim.
func (r *postingRepository) ClaimPublication(ctx context.Context, kind models.Kind, id uint, stale time.Duration) (bool, error) {
	tbl, err := table(kind)
	if err != nil {
		return false, err
	}
	defer observability.TrackQuery("update", tbl)()

	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Table(tbl).
		Where("id = ? AND status = ? AND is_delete = ? AND channel_message_id IS NULL", id, models.StatusApproved, false).
		Where("(publish_claimed_at IS NULL OR publish_claimed_at < ?)", now.Add(-stale)).
		Updates(map[string]interface{}{"publish_claimed_at": now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ReleasePublication drops the claim of a posting that is still unpublished.
func (r *postingRepository) ReleasePublication(ctx context.Context, kind models.Kind, id uint) error {
	tbl, err := table(kind)
	if err != nil {
		return err
	}
	defer observability.TrackQuery("update", tbl)()

	return r.db.WithContext(ctx).Table(tbl).
		Where("id = ? AND channel_message_id IS NULL", id).
		Updates(map[string]interface{}{"publish_claimed_at": nil}).Error
}

// SetPublication stores the channel message of an APPROVED posting that has none yet.
// It reports whether the row was updated.
func (r *postingRepository) SetPublication(ctx context.Context, kind models.Kind, id uint, chatID, messageID int64) (bool, error) {
	tbl, err := table(kind)
	if err != nil {
		return false, err
	}
	defer observability.TrackQuery("update", tbl)()

	res := r.db.WithContext(ctx).Table(tbl).
		Where("id = ? AND status = ? AND channel_chat_id IS NULL", id, models.StatusApproved).
		Updates(map[string]interface{}{
			"channel_chat_id":    chatID,
			"channel_message_id": messageID,
			"publish_claimed_at": nil,
			"updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *postingRepository) SetQueueLinkage(ctx context.Context, kind models.Kind, id uint, chatID, messageID int64) error {
	tbl, err := table(kind)
	if err != nil {
		return err
	}
	defer observability.TrackQuery("update", tbl)()

	return r.db.WithContext(ctx).Table(tbl).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"group_chat_id":    chatID,
			"group_message_id": messageID,
		}).Error
}

type statusCount struct {
	Status models.Status
	Count  int64
}

// CountByStatus counts live postings of kind grouped by status.
func (r *postingRepository) CountByStatus(ctx context.Context, kind models.Kind) (map[models.Status]int64, error) {
	tbl, err := table(kind)
	if err != nil {
		return nil, err
	}
	defer observability.TrackQuery("count", tbl)()

	var rows []statusCount
	err = r.db.WithContext(ctx).Table(tbl).
		Select("status, COUNT(*) AS count").
		Where("is_delete = ?", false).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
