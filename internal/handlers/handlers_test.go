package handlers

import (
	"context"
	"fmt"
	"testing"

	"ContentNode/internal/config"
	"ContentNode/internal/model"
	"ContentNode/internal/repo"
	"ContentNode/internal/service"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

var testDBSeq int

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDBSeq++
	dsn := fmt.Sprintf("file:handlertest%d?mode=memory&cache=shared", testDBSeq)
	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	db, err := gorm.Open(dial, &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite (modernc): %v", err)
	}
	if err := repo.Migrate(db); err != nil {
		t.Fatalf("failed to automigrate: %v", err)
	}
	return db
}

// okRunner — заглушка исполнителя заявок.
type okRunner struct{ ran chan *service.SyncJob }

func (r *okRunner) Run(ctx context.Context, job *service.SyncJob) service.SyncOutcome {
	if r.ran != nil {
		r.ran <- job
	}
	return service.OutcomeSuccess
}

type testEnv struct {
	router *Handler
	db     *gorm.DB
	cfg    *config.Config
	runner *okRunner
	queue  *service.SyncQueue
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	cfg := config.NewTestConfig()
	cfg.StorageDir = t.TempDir()
	sugar := zap.NewNop().Sugar()

	users := repo.NewUserRepository(db)
	files := repo.NewFileRepository(db)
	clocks := repo.NewClockStore(db)

	runner := &okRunner{ran: make(chan *service.SyncJob, 8)}
	queue := service.NewSyncQueue(runner, service.NewSyncDeduplicator(),
		service.NewJobHistory(10), 16, sugar)
	queue.Start(context.Background(), 1)
	t.Cleanup(queue.Stop)

	debouncer := service.NewDebouncer()
	t.Cleanup(debouncer.Stop)

	nodeClient := service.NewNodeClient(cfg)
	lock := service.NewWalletLock()

	h := NewHandler(Services{
		Export:    service.NewExportService(repo.NewExportRepository(db), clocks, cfg, sugar),
		Queue:     queue,
		Debouncer: debouncer,
		Metadata:  service.NewMetadataService(clocks, cfg.StorageDir, sugar),
		Quorum:    service.NewQuorumCoordinator(nodeClient, cfg, sugar),
		Replicas:  service.NewStaticReplicaSet(nil),
		Lock:      lock,
		History:   service.NewJobHistory(10),
		Blacklist: service.AllowAll{},
		Users:     users,
		Files:     files,
	}, sugar, cfg)

	return &testEnv{router: h, db: db, cfg: cfg, runner: runner, queue: queue}
}

// seedWallet накручивает кошельку n тиков clock.
func seedWallet(t *testing.T, db *gorm.DB, wallet string, n int) {
	t.Helper()
	clocks := repo.NewClockStore(db)
	for i := 0; i < n; i++ {
		_, err := clocks.RecordMutation(context.Background(), wallet, model.SourceTableFile,
			func(tx *gorm.DB, user *model.CNodeUser, clock int) error {
				return tx.Create(&model.File{
					ID:          fmt.Sprintf("seed-%s-%d", wallet, clock),
					UserID:      user.ID,
					Multihash:   fmt.Sprintf("mh-%d", clock),
					StoragePath: "p",
					Type:        model.FileTypeMetadata,
					Clock:       clock,
				}).Error
			})
		require.NoError(t, err)
	}
}
