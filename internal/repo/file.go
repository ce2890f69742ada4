package repo

import (
	"context"
	"errors"

	"ContentNode/internal/model"

	"gorm.io/gorm"
)

// FileRepository — чтение File для раздачи контента.
type FileRepository interface {
	// GetByMultihash возвращает любую нескипнутую строку с этим multihash
	// или (nil, nil), если байтов на узле нет.
	GetByMultihash(ctx context.Context, multihash string) (*model.File, error)
}

type fileRepo struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepo{db: db}
}

func (r *fileRepo) GetByMultihash(ctx context.Context, multihash string) (*model.File, error) {
	var f model.File
	err := r.db.WithContext(ctx).
		Where("multihash = ? AND skipped = ?", multihash, false).
		First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}
