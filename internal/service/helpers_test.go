package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ContentNode/internal/config"
	"ContentNode/internal/model"
	"ContentNode/internal/repo"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

var testDBSeq int

// newTestDB — in-memory SQLite (modernc.org/sqlite), отдельная БД на вызов.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDBSeq++
	dsn := fmt.Sprintf("file:svctest%d?mode=memory&cache=shared", testDBSeq)
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

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// seedWallet накручивает кошельку n тиков clock (по строке File на тик).
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

// fakeFetcher — заглушка ContentFetcher.
type fakeFetcher struct {
	fail  bool
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, multihash, storagePath string, candidates []string) error {
	f.calls++
	if f.fail {
		return fmt.Errorf("fetch %s: unavailable", multihash)
	}
	return nil
}

func (f *fakeFetcher) FailureCount(string) int { return 0 }

// fakePrimary — HTTP-заглушка primary, отдающая фиксированный экспорт.
type fakePrimary struct {
	payload *ExportPayload
	status  int
}

func (p *fakePrimary) start(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p.status != 0 && p.status != http.StatusOK {
			http.Error(w, "nope", p.status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(p.payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// exportOf собирает валидный wire-экспорт: records with clocks,
// source table File и по файлу на тик.
func exportOf(wallet string, clock int, recordClocks []int) *ExportPayload {
	u := ExportedUser{
		WalletPublicKey: wallet,
		Clock:           clock,
		ClockInfo: ClockInfo{
			RequestedClockRangeMin: 1,
			RequestedClockRangeMax: 10000,
			LocalClockMax:          clock,
		},
		ColivingUsers:   []WireColivingUser{},
		DigitalContents: []WireDigitalContent{},
		ContentLists:    []WireContentList{},
		Files:           []WireFile{},
		ClockRecords:    []WireClockRecord{},
	}
	for _, c := range recordClocks {
		u.ClockRecords = append(u.ClockRecords, WireClockRecord{Clock: c, SourceTable: model.SourceTableFile})
		u.Files = append(u.Files, WireFile{
			Multihash:   fmt.Sprintf("mh-%d", c),
			StoragePath: "p",
			Type:        model.FileTypeMetadata,
			Clock:       c,
		})
	}
	return &ExportPayload{Data: ExportData{CNodeUsers: map[string]ExportedUser{"remote-id": u}}}
}

// newSyncService собирает SyncService поверх тестовой БД и fakePrimary.
func newSyncService(t *testing.T, db *gorm.DB, fetcher ContentFetcher, cfg *config.Config) *SyncService {
	t.Helper()
	if cfg == nil {
		cfg = config.NewTestConfig()
	}
	cfg.SelfEndpoint = "http://self.test"
	return NewSyncService(
		repo.NewUserRepository(db),
		repo.NewImportRepository(db),
		repo.NewClockStore(db),
		NewWalletLock(),
		NewNodeClient(cfg),
		fetcher,
		NewStaticReplicaSet(nil),
		cfg,
		testLogger(),
	)
}
