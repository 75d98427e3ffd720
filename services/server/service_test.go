package server

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mlshield-controlplane/pkg/db/pagination"
	"mlshield-controlplane/pkg/errutil"
	"mlshield-controlplane/pkg/security"
	"mlshield-controlplane/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &Server{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParams{DB: db, Node: node})
}

func TestCreateDefaults(t *testing.T) {
	svc := newTestService(t)

	record, err := svc.Create(context.Background(), "Alpha")
	require.NoError(t, err)

	require.NotEmpty(t, record.ID)
	require.Equal(t, "Alpha", record.Name)
	require.Equal(t, LicenseStandard, record.LicenseType)
	require.Equal(t, StatusActive, record.Status)
	require.Equal(t, 0, record.OnlineCount)
	require.Equal(t, 100, record.LimitCount)
	require.WithinDuration(t, time.Now().Add(LicensePeriod), record.ExpirationDate, 5*time.Second)

	require.True(t, strings.HasPrefix(record.APIKey, security.APIKeyPrefix))
	require.Len(t, record.APIKey, len(security.APIKeyPrefix)+24)
}

func TestCreateKeysUnique(t *testing.T) {
	svc := newTestService(t)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		record, err := svc.Create(context.Background(), "srv")
		require.NoError(t, err)
		require.False(t, seen[record.APIKey], "duplicate api key issued")
		seen[record.APIKey] = true
	}
}

func TestConcurrentCreateAndRotateKeysUnique(t *testing.T) {
	svc := newTestService(t)

	seed, err := svc.Create(context.Background(), "seed")
	require.NoError(t, err)

	const workers = 10

	var wg sync.WaitGroup
	errs := make(chan error, workers+1)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), "srv")
			errs <- err
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.RotateKey(context.Background(), seed.ID)
		errs <- err
	}()

	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	records, _, err := svc.List(context.Background(), pagination.Pagination{})
	require.NoError(t, err)
	require.Len(t, records, workers+1)

	seen := make(map[string]bool)
	for _, r := range records {
		require.False(t, seen[r.APIKey], "duplicate api key issued")
		seen[r.APIKey] = true
	}
}

func TestGetNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusNotFound, base.Code)
}

func TestGetSuccess(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.Create(context.Background(), "Alpha")
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, created.APIKey, got.APIKey)
}

func TestListPagination(t *testing.T) {
	svc := newTestService(t)

	for i := 0; i < 5; i++ {
		_, err := svc.Create(context.Background(), "srv")
		require.NoError(t, err)
	}

	all, pageInfo, err := svc.List(context.Background(), pagination.Pagination{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	require.False(t, pageInfo.HasMore)

	page, pageInfo, err := svc.List(context.Background(), pagination.Pagination{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.True(t, pageInfo.HasMore)
	require.Equal(t, page[1].ID, pageInfo.NextCursor)

	rest, _, err := svc.List(context.Background(), pagination.Pagination{Limit: 10, Cursor: pageInfo.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest, 3)
}

func TestFindByKey(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.Create(context.Background(), "Alpha")
	require.NoError(t, err)

	got, err := svc.FindByKey(context.Background(), created.APIKey)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
}

func TestFindByKeyUnauthorized(t *testing.T) {
	svc := newTestService(t)

	for _, key := range []string{"", "mls_live_000000000000000000000000", "garbage"} {
		_, err := svc.FindByKey(context.Background(), key)
		require.Error(t, err)

		var base errutil.BaseError
		require.ErrorAs(t, err, &base)
		require.Equal(t, errutil.StatusUnauthorized, base.Code)
		// Identical message for malformed and unknown keys.
		require.Equal(t, "invalid api key", base.Message)
	}
}

func TestRotateKeyInvalidatesOldKey(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.Create(context.Background(), "Alpha")
	require.NoError(t, err)
	oldKey := created.APIKey

	newKey, err := svc.RotateKey(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotEqual(t, oldKey, newKey)
	require.True(t, strings.HasPrefix(newKey, security.APIKeyPrefix))

	_, err = svc.FindByKey(context.Background(), oldKey)
	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusUnauthorized, base.Code)

	got, err := svc.FindByKey(context.Background(), newKey)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
}

func TestRotateKeyNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.RotateKey(context.Background(), "missing")

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusNotFound, base.Code)
}

func TestHeartbeat(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.Create(context.Background(), "Alpha")
	require.NoError(t, err)

	require.NoError(t, svc.Heartbeat(context.Background(), created.ID, 42))

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, 42, got.OnlineCount)

	// A later heartbeat overwrites, not accumulates.
	require.NoError(t, svc.Heartbeat(context.Background(), created.ID, 7))

	// Repeating the same count is still a hit, not a missing server.
	require.NoError(t, svc.Heartbeat(context.Background(), created.ID, 7))

	got, err = svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, 7, got.OnlineCount)
}

func TestHeartbeatNotFound(t *testing.T) {
	svc := newTestService(t)

	err := svc.Heartbeat(context.Background(), "missing", 1)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusNotFound, base.Code)
}

func TestRenewExpiredStartsFromNow(t *testing.T) {
	db := testutil.NewTestDB(t, &Server{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	svc := NewService(ServiceParams{DB: db, Node: node})

	record := &Server{
		ID:             node.Generate().String(),
		Name:           "stale",
		APIKey:         "mls_live_aaaaaaaaaaaaaaaaaaaaaaaa",
		LicenseType:    LicenseStandard,
		ExpirationDate: time.Now().Add(-24 * time.Hour),
		Status:         StatusExpired,
	}
	require.NoError(t, db.Create(record).Error)

	newExpire, err := svc.Renew(context.Background(), record.ID)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(LicensePeriod), newExpire, 5*time.Second)

	got, err := svc.Get(context.Background(), record.ID)
	require.NoError(t, err)
	require.Equal(t, StatusActive, got.Status)
}

func TestRenewStacksOnRemainingValidity(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.Create(context.Background(), "Alpha")
	require.NoError(t, err)

	newExpire, err := svc.Renew(context.Background(), created.ID)
	require.NoError(t, err)

	require.WithinDuration(t, created.ExpirationDate.Add(LicensePeriod), newExpire, time.Second)
	require.True(t, newExpire.After(created.ExpirationDate))
}

func TestRenewNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Renew(context.Background(), "missing")

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusNotFound, base.Code)
}
