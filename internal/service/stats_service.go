package service

import (
	"context"
	"fmt"

	"vacancyhub/internal/models"
	"vacancyhub/internal/repository"
)

// KindStats summarizes the live postings of one kind.
type KindStats struct {
	Kind     models.Kind `json:"kind"`
	Code     string      `json:"code"`
	Total    int64       `json:"total"`
	New      int64       `json:"new"`
	InReview int64       `json:"in_review"`
	Approved int64       `json:"approved"`
	Rejected int64       `json:"rejected"`
}

type StatsService struct {
	postings repository.PostingRepository
}

func NewStatsService(postings repository.PostingRepository) *StatsService {
	return &StatsService{postings: postings}
}

// Counts returns per-kind status counts in display order, soft-deleted rows excluded.
func (s *StatsService) Counts(ctx context.Context) ([]KindStats, error) {
	out := make([]KindStats, 0, len(models.Kinds))
	for _, kind := range models.Kinds {
		counts, err := s.postings.CountByStatus(ctx, kind)
		if err != nil {
			return nil, models.NewInternalError(fmt.Errorf("count %s: %w", kind, err))
		}
		st := KindStats{
			Kind:     kind,
			Code:     kind.Table(),
			New:      counts[models.StatusNew],
			InReview: counts[models.StatusInReview],
			Approved: counts[models.StatusApproved],
			Rejected: counts[models.StatusRejected],
		}
		for _, n := range counts {
			st.Total += n
		}
		out = append(out, st)
	}
	return out, nil
}
