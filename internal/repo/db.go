package repo

import (
	"database/sql"

	"ContentNode/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDB открывает Postgres и прогоняет автомиграции моделей.
func InitDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate прогоняет автомиграции для всех моделей узла.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.CNodeUser{},
		&model.ClockRecord{},
		&model.File{},
		&model.ColivingUser{},
		&model.DigitalContent{},
		&model.ContentList{},
	)
}

// txOptions возвращает опции транзакции с заданным уровнем изоляции.
// SQLite (тесты) не принимает эти уровни — там работаем с дефолтом драйвера.
func txOptions(db *gorm.DB, level sql.IsolationLevel) []*sql.TxOptions {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return []*sql.TxOptions{{Isolation: level}}
}
