package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ContentNode/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// seedUser создаёт пользователя с n тиками clock, по строке File на тик.
func seedUser(t *testing.T, db *gorm.DB, wallet string, n int) *model.CNodeUser {
	t.Helper()
	clocks := NewClockStore(db)
	ctx := context.Background()
	for i := 0; i < n; i++ {
		_, err := clocks.RecordMutation(ctx, wallet, model.SourceTableFile,
			func(tx *gorm.DB, user *model.CNodeUser, clock int) error {
				return tx.Create(&model.File{
					ID:          fmt.Sprintf("f-%s-%d", wallet, clock),
					UserID:      user.ID,
					Multihash:   "mh",
					StoragePath: "p",
					Type:        model.FileTypeMetadata,
					Clock:       clock,
				}).Error
			})
		require.NoError(t, err)
	}
	u, err := NewUserRepository(db).GetByWallet(ctx, wallet)
	require.NoError(t, err)
	require.NotNil(t, u)
	return u
}

func TestExportRepository_WindowAndClamp(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "0xabc", 8)
	r := NewExportRepository(db)

	states, err := r.FetchUserStates(context.Background(), []string{"0xabc"}, 3, 5)
	require.NoError(t, err)
	require.Len(t, states, 1)

	st := states[0]
	// clock обрезан границей окна, настоящий — в LocalClockMax
	assert.Equal(t, 5, st.User.Clock)
	assert.Equal(t, 8, st.LocalClockMax)

	require.Len(t, st.ClockRecords, 3)
	assert.Equal(t, 3, st.ClockRecords[0].Clock)
	assert.Equal(t, 5, st.ClockRecords[2].Clock)
	assert.Len(t, st.Files, 3)
}

func TestExportRepository_UnknownWalletSkipped(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "0xabc", 2)
	r := NewExportRepository(db)

	states, err := r.FetchUserStates(context.Background(), []string{"0xabc", "0xnobody"}, 1, 100)
	require.NoError(t, err)
	assert.Len(t, states, 1)
}

func TestImportRepository_ApplyUserState(t *testing.T) {
	db := newTestDB(t)
	r := NewImportRepository(db)
	ctx := context.Background()

	blockID := int64(42)
	st := &ImportState{
		User: model.CNodeUser{
			ID: "local-1", WalletPublicKey: "0xabc", Clock: 3, LatestBlockNumber: 10,
		},
		ClockRecords: []model.ClockRecord{
			{UserID: "local-1", Clock: 1, SourceTable: model.SourceTableFile},
			{UserID: "local-1", Clock: 2, SourceTable: model.SourceTableDigitalContent},
			{UserID: "local-1", Clock: 3, SourceTable: model.SourceTableFile},
		},
		Contents: []model.DigitalContent{
			{ID: "dc-1", UserID: "local-1", BlockchainID: blockID, Clock: 2, Title: "t"},
		},
		Files: []model.File{
			{ID: "f-1", UserID: "local-1", Multihash: "m1", StoragePath: "p1",
				Type: model.FileTypeMetadata, Clock: 1},
			{ID: "f-2", UserID: "local-1", Multihash: "m2", StoragePath: "p2",
				Type: model.FileTypeSegment, Clock: 3, DigitalContentBlockchainID: &blockID},
		},
	}
	require.NoError(t, r.ApplyUserState(ctx, st))

	var u model.CNodeUser
	require.NoError(t, db.Where("wallet_public_key = ?", "0xabc").First(&u).Error)
	assert.Equal(t, 3, u.Clock)

	var fileCount int64
	require.NoError(t, db.Model(&model.File{}).Count(&fileCount).Error)
	assert.EqualValues(t, 2, fileCount)
}

// Upsert: существующая локальная запись обновляется по кошельку,
// локальный id стабилен.
func TestImportRepository_ApplyUserState_UpsertKeepsLocalID(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db, "0xabc", 2)
	r := NewImportRepository(db)

	st := &ImportState{
		User: model.CNodeUser{ID: u.ID, WalletPublicKey: "0xabc", Clock: 3},
		ClockRecords: []model.ClockRecord{
			{UserID: u.ID, Clock: 3, SourceTable: model.SourceTableColivingUser},
		},
		ColivingUsers: []model.ColivingUser{
			{ID: "cu-1", UserID: u.ID, BlockchainID: 7, Clock: 3, Name: "n"},
		},
	}
	require.NoError(t, r.ApplyUserState(context.Background(), st))

	var users []model.CNodeUser
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, u.ID, users[0].ID)
	assert.Equal(t, 3, users[0].Clock)
}

// last_login_at — локальное поле узла; upsert импорта его не затирает.
func TestImportRepository_ApplyUserState_KeepsLastLogin(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db, "0xabc", 1)
	r := NewImportRepository(db)

	lastLogin := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, db.Model(&model.CNodeUser{}).
		Where("id = ?", u.ID).Update("last_login_at", lastLogin).Error)

	st := &ImportState{
		User: model.CNodeUser{ID: u.ID, WalletPublicKey: "0xabc", Clock: 2},
		ClockRecords: []model.ClockRecord{
			{UserID: u.ID, Clock: 2, SourceTable: model.SourceTableFile},
		},
	}
	require.NoError(t, r.ApplyUserState(context.Background(), st))

	var got model.CNodeUser
	require.NoError(t, db.Where("id = ?", u.ID).First(&got).Error)
	assert.Equal(t, 2, got.Clock)
	require.NotNil(t, got.LastLoginAt, "import must not null out last_login_at")
	assert.Equal(t, lastLogin.Unix(), got.LastLoginAt.Unix())
}

// Всё или ничего: дубль ClockRecord валит транзакцию, никакие строки
// попытки не видны.
func TestImportRepository_ApplyUserState_NoPartialApply(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db, "0xabc", 2)
	r := NewImportRepository(db)

	st := &ImportState{
		User: model.CNodeUser{ID: u.ID, WalletPublicKey: "0xabc", Clock: 3},
		ClockRecords: []model.ClockRecord{
			{UserID: u.ID, Clock: 2, SourceTable: model.SourceTableFile}, // дубль
		},
		Files: []model.File{
			{ID: "f-x", UserID: u.ID, Multihash: "m", StoragePath: "p",
				Type: model.FileTypeMetadata, Clock: 3},
		},
	}
	err := r.ApplyUserState(context.Background(), st)
	require.Error(t, err)

	var fileCount int64
	require.NoError(t, db.Model(&model.File{}).Where("id = ?", "f-x").Count(&fileCount).Error)
	assert.EqualValues(t, 0, fileCount)

	var recCount int64
	require.NoError(t, db.Model(&model.ClockRecord{}).Where("user_id = ?", u.ID).Count(&recCount).Error)
	assert.EqualValues(t, 2, recCount)
}
