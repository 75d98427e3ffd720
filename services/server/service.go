package server

import (
	"context"
	"errors"
	"time"

	"mlshield-controlplane/pkg/db/option"
	"mlshield-controlplane/pkg/db/pagination"
	"mlshield-controlplane/pkg/errutil"
	"mlshield-controlplane/pkg/repository"
	"mlshield-controlplane/pkg/security"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LicensePeriod is the validity window granted on creation and per renewal.
const LicensePeriod = 30 * 24 * time.Hour

const defaultLimitCount = 100

// maxKeyAttempts bounds the collision-retry loop of key generation. A collision
// on 96 random bits is astronomically unlikely but must be handled, not assumed
// away.
const maxKeyAttempts = 5

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	repo repository.Repository[Server]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,
		repo: repository.ProvideStore[Server](p.DB),
	}
}

// Create registers a new deployment with a fresh identity, a unique API key
// and a standard 30-day license.
func (s *Service) Create(ctx context.Context, name string) (*Server, error) {
	record := &Server{
		ID:             s.node.Generate().String(),
		Name:           name,
		LicenseType:    LicenseStandard,
		ExpirationDate: time.Now().Add(LicensePeriod),
		Status:         StatusActive,
		OnlineCount:    0,
		LimitCount:     defaultLimitCount,
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		key, err := s.generateUniqueKey(ctx, tx)
		if err != nil {
			return err
		}
		record.APIKey = key

		return tx.Create(record).Error
	}); err != nil {
		zap.L().Error("failed to create server", zap.Error(err), zap.String("name", name))
		return nil, storageError(err)
	}

	zap.L().Info("server registered",
		zap.String("server_id", record.ID),
		zap.String("name", record.Name),
		zap.Time("expiration_date", record.ExpirationDate),
	)

	return record, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Server, error) {
	record, err := s.repo.FindOne(ctx, &Server{ID: id})
	if err != nil {
		zap.L().Error("failed to get server", zap.Error(err), zap.String("server_id", id))
		return nil, storageError(err)
	}
	if record == nil {
		return nil, errutil.NotFound("server not found")
	}
	return record, nil
}

func (s *Service) List(ctx context.Context, p pagination.Pagination) ([]*Server, *pagination.PageInfo, error) {
	records, err := s.repo.Find(ctx, &Server{},
		option.OrderBy("id"),
		option.ApplyPagination(p),
	)
	if err != nil {
		zap.L().Error("failed to list servers", zap.Error(err))
		return nil, nil, storageError(err)
	}

	records, pageInfo := pagination.BuildPageInfo(records, p.Limit, func(r *Server) string {
		return r.ID
	})

	return records, pageInfo, nil
}

// FindByKey resolves a deployment from its bearer token. The failure message is
// identical for malformed and unknown keys so a caller cannot tell the two
// apart.
func (s *Service) FindByKey(ctx context.Context, apiKey string) (*Server, error) {
	if apiKey == "" {
		return nil, errutil.Unauthorized("invalid api key")
	}

	record, err := s.repo.FindOne(ctx, &Server{APIKey: apiKey})
	if err != nil {
		zap.L().Error("failed to look up api key", zap.Error(err))
		return nil, storageError(err)
	}
	if record == nil {
		return nil, errutil.Unauthorized("invalid api key")
	}
	return record, nil
}

// RotateKey replaces the stored API key atomically. The previous key is invalid
// the moment the transaction commits.
func (s *Service) RotateKey(ctx context.Context, id string) (string, error) {
	var newKey string

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.WithTrx(tx).FindOne(ctx, &Server{ID: id})
		if err != nil {
			return err
		}
		if existing == nil {
			return errutil.NotFound("server not found")
		}

		newKey, err = s.generateUniqueKey(ctx, tx)
		if err != nil {
			return err
		}

		return tx.Model(&Server{}).Where("id = ?", id).Update("api_key", newKey).Error
	}); err != nil {
		return "", storageError(err)
	}

	zap.L().Info("api key rotated", zap.String("server_id", id))

	return newKey, nil
}

// Heartbeat overwrites the last reported online-user count. Range checking is
// the orchestrator's job; the store stays a dumb persistence layer.
func (s *Service) Heartbeat(ctx context.Context, id string, onlineCount int) error {
	res := s.db.WithContext(ctx).
		Model(&Server{}).
		Where("id = ?", id).
		Update("online_count", onlineCount)
	if res.Error != nil {
		zap.L().Error("failed to record heartbeat", zap.Error(res.Error), zap.String("server_id", id))
		return storageError(res.Error)
	}
	if res.RowsAffected == 0 {
		return errutil.NotFound("server not found")
	}
	return nil
}

// Renew extends the license. An expired license restarts from now; a live one
// stacks the new period on top of the remaining validity, rewarding early
// renewal. Status returns to Active either way.
func (s *Service) Renew(ctx context.Context, id string) (time.Time, error) {
	var newExpire time.Time

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.WithTrx(tx).FindOne(ctx, &Server{ID: id})
		if err != nil {
			return err
		}
		if existing == nil {
			return errutil.NotFound("server not found")
		}

		now := time.Now()
		if existing.ExpirationDate.Before(now) {
			newExpire = now.Add(LicensePeriod)
		} else {
			newExpire = existing.ExpirationDate.Add(LicensePeriod)
		}

		return tx.Model(&Server{}).Where("id = ?", id).Updates(map[string]interface{}{
			"expiration_date": newExpire,
			"status":          StatusActive,
		}).Error
	}); err != nil {
		return time.Time{}, storageError(err)
	}

	zap.L().Info("license renewed", zap.String("server_id", id), zap.Time("expiration_date", newExpire))

	return newExpire, nil
}

// generateUniqueKey draws fresh candidates until one is free of collisions,
// checked inside the caller's transaction.
func (s *Service) generateUniqueKey(ctx context.Context, tx *gorm.DB) (string, error) {
	for i := 0; i < maxKeyAttempts; i++ {
		key, err := security.NewAPIKey()
		if err != nil {
			return "", errutil.Internal("failed to generate api key", errutil.WithErr(err))
		}

		var n int64
		if err := tx.WithContext(ctx).Model(&Server{}).Where("api_key = ?", key).Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return key, nil
		}

		zap.L().Warn("api key collision detected, retrying", zap.Int("attempt", i+1))
	}

	return "", errutil.Internal("exhausted api key generation attempts")
}

// storageError passes through domain errors and wraps everything else as a
// storage failure.
func storageError(err error) error {
	var base errutil.BaseError
	if errors.As(err, &base) {
		return err
	}
	return errutil.Internal("storage failure", errutil.WithErr(err))
}
