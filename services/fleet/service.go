package fleet

import (
	"context"
	"strings"
	"time"

	"mlshield-controlplane/pkg/db/pagination"
	"mlshield-controlplane/pkg/errutil"
	"mlshield-controlplane/services/check"
	"mlshield-controlplane/services/scoring"
	"mlshield-controlplane/services/server"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Service validates external requests and sequences the credential store, the
// scorer and the check log. It is the only component callers talk to.
type Service struct {
	servers *server.Service
	checks  *check.Service
	scorer  scoring.Scorer
}

type ServiceParams struct {
	fx.In
	Servers *server.Service
	Checks  *check.Service
	Scorer  scoring.Scorer
}

func NewService(p ServiceParams) *Service {
	return &Service{
		servers: p.Servers,
		checks:  p.Checks,
		scorer:  p.Scorer,
	}
}

func (s *Service) RegisterServer(ctx context.Context, name string) (*server.Server, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errutil.ValidationFailed("name is required",
			errutil.WithDetails(errutil.Detail{Field: "name", Message: "must not be empty"}))
	}
	return s.servers.Create(ctx, name)
}

func (s *Service) ListServers(ctx context.Context, p pagination.Pagination) ([]*server.Server, *pagination.PageInfo, error) {
	return s.servers.List(ctx, p)
}

func (s *Service) GetServer(ctx context.Context, id string) (*server.Server, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return s.servers.Get(ctx, id)
}

func (s *Service) RotateServerKey(ctx context.Context, id string) (string, error) {
	if err := validateID(id); err != nil {
		return "", err
	}
	return s.servers.RotateKey(ctx, id)
}

// VerifyKey is the sole authentication primitive: it resolves an opaque bearer
// token to its deployment or fails with Unauthorized.
func (s *Service) VerifyKey(ctx context.Context, apiKey string) (*server.Server, error) {
	return s.servers.FindByKey(ctx, apiKey)
}

func (s *Service) RenewServer(ctx context.Context, id string) (time.Time, error) {
	if err := validateID(id); err != nil {
		return time.Time{}, err
	}
	return s.servers.Renew(ctx, id)
}

// Heartbeat records the current online-user count of a deployment. Negative
// counts are rejected before any mutation.
func (s *Service) Heartbeat(ctx context.Context, id string, onlineCount int) error {
	if err := validateID(id); err != nil {
		return err
	}
	if onlineCount < 0 {
		return errutil.ValidationFailed("online_count must be non-negative",
			errutil.WithDetails(errutil.Detail{Field: "online_count", Message: "must be >= 0"}))
	}
	return s.servers.Heartbeat(ctx, id, onlineCount)
}

// SubmitTelemetry scores a tick sequence, records the outcome in the check log
// and returns only the probability. Verdict and jerk feature are persisted but
// not echoed back.
func (s *Service) SubmitTelemetry(ctx context.Context, playerID string, ticks []scoring.TickSample) (float64, error) {
	if strings.TrimSpace(playerID) == "" {
		return 0, errutil.ValidationFailed("playerUuid is required",
			errutil.WithDetails(errutil.Detail{Field: "playerUuid", Message: "must not be empty"}))
	}

	result := s.scorer.Score(ticks)

	if err := s.checks.Append(ctx, playerID, result); err != nil {
		return 0, err
	}

	zap.L().Info("telemetry scored",
		zap.String("player_id", playerID),
		zap.Float64("probability", result.Probability),
		zap.Float64("avg_jerk", result.AvgJerk),
		zap.String("verdict", string(result.Verdict)),
	)

	return result.Probability, nil
}

func (s *Service) GetStats(ctx context.Context) (*check.Stats, error) {
	return s.checks.Stats(ctx)
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errutil.ValidationFailed("server id is required",
			errutil.WithDetails(errutil.Detail{Field: "id", Message: "must not be empty"}))
	}
	return nil
}
