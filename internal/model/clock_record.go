package model

import "time"

// Имена таблиц-источников clock-тиков. Закрытое множество.
const (
	SourceTableColivingUser   = "ColivingUser"
	SourceTableDigitalContent = "DigitalContent"
	SourceTableContentList    = "ContentList"
	SourceTableFile           = "File"
)

// ClockRecord — append-only журнал: какая таблица породила данный тик clock.
// Для пользователя значения clock непрерывны начиная с 1, без дырок и дублей.
// Записи не обновляются и не удаляются, кроме полного удаления пользователя.
type ClockRecord struct {
	UserID string `gorm:"primaryKey;type:uuid"`
	Clock  int    `gorm:"primaryKey;autoIncrement:false"`

	SourceTable string `gorm:"not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}
