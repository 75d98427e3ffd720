package check

import (
	"context"
	"time"

	"mlshield-controlplane/pkg/db/option"
	"mlshield-controlplane/pkg/errutil"
	"mlshield-controlplane/pkg/repository"
	"mlshield-controlplane/services/scoring"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// recentLimit caps the recent window returned by Stats.
const recentLimit = 50

type Stats struct {
	TotalChecks  int64    `json:"total_checks"`
	FlaggedCount int64    `json:"flagged_count"`
	Recent       []*Check `json:"recent_checks"`
}

type Service struct {
	db   *gorm.DB
	repo repository.Repository[Check]
}

type ServiceParams struct {
	fx.In
	DB *gorm.DB
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		repo: repository.ProvideStore[Check](p.DB),
	}
}

// Append records a scoring outcome with a server-assigned timestamp.
func (s *Service) Append(ctx context.Context, playerID string, result scoring.Result) error {
	record := &Check{
		PlayerID:    playerID,
		Timestamp:   time.Now(),
		Probability: result.Probability,
		AvgJerk:     result.AvgJerk,
		Verdict:     result.Verdict,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		zap.L().Error("failed to append check", zap.Error(err), zap.String("player_id", playerID))
		return errutil.Internal("storage failure", errutil.WithErr(err))
	}

	return nil
}

// Stats aggregates the log: total rows, rows above the cheat threshold, and the
// newest rows first, at most 50.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	total, err := s.repo.Count(ctx, &Check{})
	if err != nil {
		zap.L().Error("failed to count checks", zap.Error(err))
		return nil, errutil.Internal("storage failure", errutil.WithErr(err))
	}

	var flagged int64
	if err := s.db.WithContext(ctx).
		Model(&Check{}).
		Where("probability > ?", scoring.CheatThreshold).
		Count(&flagged).Error; err != nil {
		zap.L().Error("failed to count flagged checks", zap.Error(err))
		return nil, errutil.Internal("storage failure", errutil.WithErr(err))
	}

	recent, err := s.repo.Find(ctx, &Check{},
		option.OrderBy("seq DESC"),
		option.Limit(recentLimit),
	)
	if err != nil {
		zap.L().Error("failed to fetch recent checks", zap.Error(err))
		return nil, errutil.Internal("storage failure", errutil.WithErr(err))
	}

	return &Stats{
		TotalChecks:  total,
		FlaggedCount: flagged,
		Recent:       recent,
	}, nil
}
