package repo

import (
	"context"
	"errors"

	"ContentNode/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClockUnknown возвращается как локальный clock для кошелька без записи.
const ClockUnknown = -1

// UserRepository — доступ к CNodeUser.
type UserRepository interface {
	// GetByWallet возвращает пользователя или (nil, nil), если записи нет.
	GetByWallet(ctx context.Context, wallet string) (*model.CNodeUser, error)

	// LocalClock возвращает clock пользователя, либо ClockUnknown.
	LocalClock(ctx context.Context, wallet string) (int, error)

	// DeleteUserState полностью удаляет пользователя и все его строки
	// (forceResync). Одна транзакция: либо всё, либо ничего.
	DeleteUserState(ctx context.Context, wallet string) error
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByWallet(ctx context.Context, wallet string) (*model.CNodeUser, error) {
	var u model.CNodeUser
	err := r.db.WithContext(ctx).Where("wallet_public_key = ?", wallet).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) LocalClock(ctx context.Context, wallet string) (int, error) {
	u, err := r.GetByWallet(ctx, wallet)
	if err != nil {
		return ClockUnknown, err
	}
	if u == nil {
		return ClockUnknown, nil
	}
	return u.Clock, nil
}

func (r *userRepo) DeleteUserState(ctx context.Context, wallet string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u model.CNodeUser
		err := tx.Where("wallet_public_key = ?", wallet).First(&u).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // нечего удалять
		}
		if err != nil {
			return err
		}
		for _, m := range []any{
			&model.ColivingUser{}, &model.DigitalContent{}, &model.ContentList{},
			&model.File{}, &model.ClockRecord{},
		} {
			if err := tx.Where("user_id = ?", u.ID).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&u).Error
	})
}

// findOrCreateUser достаёт пользователя по кошельку внутри транзакции,
// создавая запись с clock=0 при первом обращении.
func findOrCreateUser(tx *gorm.DB, wallet string) (*model.CNodeUser, error) {
	var u model.CNodeUser
	err := tx.Where("wallet_public_key = ?", wallet).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		u = model.CNodeUser{
			ID:                uuid.NewString(),
			WalletPublicKey:   wallet,
			Clock:             0,
			LatestBlockNumber: -1,
		}
		if err := tx.Create(&u).Error; err != nil {
			return nil, err
		}
		return &u, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
