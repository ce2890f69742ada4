package handlers

import (
	"context"
	"net/http/httptest"
	"testing"

	"ContentNode/internal/config"
	"ContentNode/internal/repo"
	"ContentNode/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type noopFetcher struct{}

func (noopFetcher) Fetch(ctx context.Context, multihash, storagePath string, candidates []string) error {
	return nil
}

func (noopFetcher) FailureCount(string) int { return 0 }

// Полный цикл через настоящий маршрут /export: secondary импортирует
// состояние primary, повторный импорт без новых тиков — no-op.
func TestReplicationRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	seedWallet(t, env.db, "0xabc", 3)

	primary := httptest.NewServer(env.router.Router)
	defer primary.Close()

	secondaryDB := newTestDB(t)
	cfg := config.NewTestConfig()
	cfg.SelfEndpoint = "http://secondary.test"
	syncSvc := service.NewSyncService(
		repo.NewUserRepository(secondaryDB),
		repo.NewImportRepository(secondaryDB),
		repo.NewClockStore(secondaryDB),
		service.NewWalletLock(),
		service.NewNodeClient(cfg),
		noopFetcher{},
		service.NewStaticReplicaSet(nil),
		cfg,
		zap.NewNop().Sugar(),
	)
	ctx := context.Background()

	outcome, err := syncSvc.ImportFromPrimary(ctx, primary.URL, "0xabc", false)
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeSuccess, outcome)

	clock, err := repo.NewUserRepository(secondaryDB).LocalClock(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, 3, clock)

	// Secondary догнал primary: следующий импорт запрашивает окно за концом
	// журнала и короткозамыкается в "уже синхронизирован".
	outcome, err = syncSvc.ImportFromPrimary(ctx, primary.URL, "0xabc", false)
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeAlreadyUpToDate, outcome)
}
