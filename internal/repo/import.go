package repo

import (
	"context"
	"database/sql"

	"ContentNode/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ImportState — подготовленное к записи состояние пользователя из экспорта
// primary. Все строки уже перевешаны на локальный UserID: локальная
// идентичность стабильна, даже если на primary у пользователя другой id.
type ImportState struct {
	User          model.CNodeUser
	ClockRecords  []model.ClockRecord
	ColivingUsers []model.ColivingUser
	Contents      []model.DigitalContent
	ContentLists  []model.ContentList
	Files         []model.File
}

// ImportRepository применяет экспорт primary одной транзакцией.
type ImportRepository interface {
	// ApplyUserState — всё или ничего: upsert пользователя, bulk-вставка
	// ClockRecord и вставка строк в порядке зависимостей.
	ApplyUserState(ctx context.Context, st *ImportState) error
}

type importRepo struct {
	db *gorm.DB
}

func NewImportRepository(db *gorm.DB) ImportRepository {
	return &importRepo{db: db}
}

func (r *importRepo) ApplyUserState(ctx context.Context, st *ImportState) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Upsert строки пользователя: обновляем существующую локальную
		// запись по кошельку, иначе создаём. last_login_at не трогаем —
		// это локальное поле узла, экспорт его не переносит.
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "wallet_public_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"clock", "latest_block_number", "updated_at",
			}),
		}).Create(&st.User).Error
		if err != nil {
			return err
		}

		if len(st.ClockRecords) > 0 {
			if err := tx.Create(&st.ClockRecords).Error; err != nil {
				return err
			}
		}

		// Порядок вставки повторяет зависимости: сначала файлы без привязки
		// к контенту (метаданные, картинки), затем строки контента, затем
		// сегменты/транскоды, ссылающиеся на blockchain-id контента,
		// и последними профили.
		var unbound, bound []model.File
		for _, f := range st.Files {
			if f.DigitalContentBlockchainID == nil {
				unbound = append(unbound, f)
			} else {
				bound = append(bound, f)
			}
		}
		if len(unbound) > 0 {
			if err := tx.Create(&unbound).Error; err != nil {
				return err
			}
		}
		if len(st.Contents) > 0 {
			if err := tx.Create(&st.Contents).Error; err != nil {
				return err
			}
		}
		if len(st.ContentLists) > 0 {
			if err := tx.Create(&st.ContentLists).Error; err != nil {
				return err
			}
		}
		if len(bound) > 0 {
			if err := tx.Create(&bound).Error; err != nil {
				return err
			}
		}
		if len(st.ColivingUsers) > 0 {
			if err := tx.Create(&st.ColivingUsers).Error; err != nil {
				return err
			}
		}
		return nil
	}, txOptions(r.db, sql.LevelSerializable)...)
}
