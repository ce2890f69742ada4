package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"ContentNode/internal/model"
	"ContentNode/internal/repo"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MetadataService — путь записи на primary: сохранить метаданные как
// content-addressed файл и проассоциировать их со строкой профиля.
// Каждая из двух мутаций получает свой тик clock через ClockStore.
type MetadataService struct {
	clocks     repo.ClockStore
	storageDir string
	logger     *zap.SugaredLogger
}

func NewMetadataService(clocks repo.ClockStore, storageDir string, logger *zap.SugaredLogger) *MetadataService {
	return &MetadataService{clocks: clocks, storageDir: storageDir, logger: logger}
}

// ColivingUserMetadata — поля профиля, которые узел понимает; остальное
// хранится только в самом файле метаданных.
type ColivingUserMetadata struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

// SaveColivingUserMetadata пишет файл метаданных и строку профиля.
// Возвращает multihash файла и clock пользователя после обеих мутаций.
func (s *MetadataService) SaveColivingUserMetadata(ctx context.Context, wallet string,
	blockchainID int64, metadata json.RawMessage) (string, int, error) {

	var parsed ColivingUserMetadata
	if err := json.Unmarshal(metadata, &parsed); err != nil {
		return "", 0, fmt.Errorf("parse metadata: %w", err)
	}

	multihash := Multihash(metadata)
	rel := StoragePathFor(multihash)
	full := filepath.Join(s.storageDir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", 0, fmt.Errorf("storage dir: %w", err)
	}
	if err := os.WriteFile(full, metadata, 0o644); err != nil {
		return "", 0, fmt.Errorf("write metadata file: %w", err)
	}

	// Тик 1: строка File с метаданными.
	var fileID string
	_, err := s.clocks.RecordMutation(ctx, wallet, model.SourceTableFile,
		func(tx *gorm.DB, user *model.CNodeUser, clock int) error {
			f := model.File{
				ID:          uuid.NewString(),
				UserID:      user.ID,
				Multihash:   multihash,
				StoragePath: rel,
				Type:        model.FileTypeMetadata,
				Clock:       clock,
			}
			fileID = f.ID
			return tx.Create(&f).Error
		})
	if err != nil {
		return "", 0, fmt.Errorf("record metadata file: %w", err)
	}

	// Тик 2: строка профиля, ссылающаяся на файл.
	clock, err := s.clocks.RecordMutation(ctx, wallet, model.SourceTableColivingUser,
		func(tx *gorm.DB, user *model.CNodeUser, clock int) error {
			cu := model.ColivingUser{
				ID:                uuid.NewString(),
				UserID:            user.ID,
				BlockchainID:      blockchainID,
				Clock:             clock,
				MetadataFileID:    &fileID,
				MetadataMultihash: multihash,
				Name:              parsed.Name,
				Bio:               parsed.Bio,
			}
			return tx.Create(&cu).Error
		})
	if err != nil {
		return "", 0, fmt.Errorf("record coliving user: %w", err)
	}

	s.logger.Infow("coliving user metadata saved",
		"wallet", wallet, "blockchainId", blockchainID, "multihash", multihash, "clock", clock)
	return multihash, clock, nil
}
