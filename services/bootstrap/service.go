package bootstrap

import (
	"context"
	"time"

	"mlshield-controlplane/pkg/config"
	"mlshield-controlplane/pkg/repository"
	"mlshield-controlplane/pkg/security"
	"mlshield-controlplane/services/check"
	"mlshield-controlplane/services/server"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	trialServerName = "Trial Server"
	trialPeriod     = 3 * 24 * time.Hour
	trialLimitCount = 50
)

type Service struct {
	db     *gorm.DB
	config *config.Config
	repo   repository.Repository[server.Server]
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Config *config.Config
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:     p.DB,
		config: p.Config,
		repo:   repository.ProvideStore[server.Server](p.DB),
	}
}

func (s *Service) Migrate() error {
	if err := s.db.AutoMigrate(&server.Server{}, &check.Check{}); err != nil {
		zap.L().Error("[bootstrap] Failed to migrate schema", zap.Error(err))
		return err
	}

	if !s.config.Bootstrap.SeedTrialServer {
		return nil
	}

	return s.seedTrialServer(context.Background())
}

// seedTrialServer creates a short-lived trial deployment the first time the
// control plane starts against an empty store, so an operator can try the API
// before registering anything.
func (s *Service) seedTrialServer(ctx context.Context) error {
	count, err := s.repo.Count(ctx, &server.Server{})
	if err != nil {
		zap.L().Error("[bootstrap] Error counting servers", zap.Error(err))
		return err
	}

	if count > 0 {
		return nil
	}

	key, err := security.NewAPIKey()
	if err != nil {
		zap.L().Error("[bootstrap] Failed to generate trial api key", zap.Error(err))
		return err
	}

	trial := &server.Server{
		ID:             uuid.NewString(),
		Name:           trialServerName,
		APIKey:         key,
		LicenseType:    server.LicenseTrial,
		ExpirationDate: time.Now().Add(trialPeriod),
		Status:         server.StatusActive,
		OnlineCount:    0,
		LimitCount:     trialLimitCount,
	}

	if err := s.repo.Create(ctx, trial); err != nil {
		zap.L().Error("[bootstrap] Failed to create trial server", zap.Error(err))
		return err
	}

	zap.L().Info("[bootstrap] Trial server created",
		zap.String("server_id", trial.ID),
		zap.Time("expiration_date", trial.ExpirationDate),
	)

	return nil
}
