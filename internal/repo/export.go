package repo

import (
	"context"
	"database/sql"

	"ContentNode/internal/model"

	"gorm.io/gorm"
)

// UserState — все строки одного пользователя в окне clock, снятые одной
// транзакцией. Слайсы упорядочены по clock по возрастанию.
type UserState struct {
	User          model.CNodeUser
	ColivingUsers []model.ColivingUser
	Contents      []model.DigitalContent
	ContentLists  []model.ContentList
	Files         []model.File
	ClockRecords  []model.ClockRecord

	// LocalClockMax — настоящий clock строки пользователя до клампинга
	// (User.Clock может быть обрезан сверху границей окна).
	LocalClockMax int
}

// ExportRepository снимает консистентный срез состояния пользователей.
type ExportRepository interface {
	// FetchUserStates читает состояние кошельков в окне [clockMin, clockMax]
	// в одной repeatable-read транзакции. Кошельки без записи пропускаются.
	FetchUserStates(ctx context.Context, wallets []string, clockMin, clockMax int) ([]UserState, error)
}

type exportRepo struct {
	db *gorm.DB
}

func NewExportRepository(db *gorm.DB) ExportRepository {
	return &exportRepo{db: db}
}

func (r *exportRepo) FetchUserStates(ctx context.Context, wallets []string, clockMin, clockMax int) ([]UserState, error) {
	var out []UserState
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, wallet := range wallets {
			var u model.CNodeUser
			res := tx.Where("wallet_public_key = ?", wallet).Limit(1).Find(&u)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}

			st := UserState{User: u, LocalClockMax: u.Clock}
			// Кламп: если настоящий clock выше окна, наружу отдаём границу —
			// сигнал вызывающему, что за окном есть ещё данные.
			if st.User.Clock > clockMax {
				st.User.Clock = clockMax
			}

			inWindow := tx.Where("user_id = ? AND clock BETWEEN ? AND ?", u.ID, clockMin, clockMax).
				Order("clock ASC")
			if err := inWindow.Session(&gorm.Session{}).Find(&st.ClockRecords).Error; err != nil {
				return err
			}
			if err := inWindow.Session(&gorm.Session{}).Find(&st.Files).Error; err != nil {
				return err
			}
			if err := inWindow.Session(&gorm.Session{}).Find(&st.ColivingUsers).Error; err != nil {
				return err
			}
			if err := inWindow.Session(&gorm.Session{}).Find(&st.Contents).Error; err != nil {
				return err
			}
			if err := inWindow.Session(&gorm.Session{}).Find(&st.ContentLists).Error; err != nil {
				return err
			}
			out = append(out, st)
		}
		return nil
	}, txOptions(r.db, sql.LevelRepeatableRead)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}
