package repo

import (
	"context"
	"database/sql"
	"fmt"

	"ContentNode/internal/model"

	"gorm.io/gorm"
)

// ClockStore владеет clock-значениями: это единственное место в коде,
// которому разрешено их менять. Каждая закоммиченная мутация пользователя
// получает ровно один тик clock и одну строку ClockRecord.
type ClockStore interface {
	// RecordMutation атомарно: clock+1, ClockRecord, затем write-колбек
	// с новым значением clock. Возвращает присвоенный clock.
	RecordMutation(ctx context.Context, wallet, sourceTable string,
		write func(tx *gorm.DB, user *model.CNodeUser, clock int) error) (int, error)

	// MaxRecordedClock — максимальный clock среди ClockRecord пользователя
	// (0, если записей нет).
	MaxRecordedClock(ctx context.Context, userID string) (int, error)

	// RepairUserClock пересчитывает clock пользователя из его ClockRecord.
	// Вызывается после любого отката транзакции, задевшего пользователя.
	RepairUserClock(ctx context.Context, userID string) (int, error)
}

type clockStore struct {
	db *gorm.DB
}

func NewClockStore(db *gorm.DB) ClockStore {
	return &clockStore{db: db}
}

func (s *clockStore) RecordMutation(ctx context.Context, wallet, sourceTable string,
	write func(tx *gorm.DB, user *model.CNodeUser, clock int) error) (int, error) {

	newClock := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := findOrCreateUser(tx, wallet)
		if err != nil {
			return err
		}
		// Инкремент выражением — строка блокируется на время транзакции,
		// параллельный тик того же пользователя дождётся коммита.
		res := tx.Model(&model.CNodeUser{}).Where("id = ?", u.ID).
			Update("clock", gorm.Expr("clock + 1"))
		if res.Error != nil {
			return res.Error
		}
		if err := tx.Where("id = ?", u.ID).First(u).Error; err != nil {
			return err
		}
		newClock = u.Clock

		rec := model.ClockRecord{UserID: u.ID, Clock: newClock, SourceTable: sourceTable}
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		if write != nil {
			return write(tx, u, newClock)
		}
		return nil
	}, txOptions(s.db, sql.LevelSerializable)...)
	if err != nil {
		return 0, err
	}
	return newClock, nil
}

func (s *clockStore) MaxRecordedClock(ctx context.Context, userID string) (int, error) {
	return maxRecordedClock(s.db.WithContext(ctx), userID)
}

func maxRecordedClock(tx *gorm.DB, userID string) (int, error) {
	var max sql.NullInt64
	err := tx.Model(&model.ClockRecord{}).Where("user_id = ?", userID).
		Select("MAX(clock)").Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64), nil
}

func (s *clockStore) RepairUserClock(ctx context.Context, userID string) (int, error) {
	repaired := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		max, err := maxRecordedClock(tx, userID)
		if err != nil {
			return err
		}
		res := tx.Model(&model.CNodeUser{}).Where("id = ?", userID).Update("clock", max)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("repair: user %s not found", userID)
		}
		repaired = max
		return nil
	})
	if err != nil {
		return 0, err
	}
	return repaired, nil
}
