package model

import "time"

// CNodeUser — одна реплицируемая идентичность (кошелёк) на этом узле.
// Clock строго неубывающий: ровно +1 на каждую закоммиченную мутацию.
// Инвариант: Clock == max(clock) по ClockRecord пользователя (0, если записей нет).
type CNodeUser struct {
	ID              string `gorm:"primaryKey;type:uuid"`
	WalletPublicKey string `gorm:"not null;uniqueIndex"`

	Clock             int   `gorm:"not null;default:0"`
	LatestBlockNumber int64 `gorm:"not null;default:-1"` // последний наблюдавшийся номер блока в цепочке

	LastLoginAt *time.Time

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
