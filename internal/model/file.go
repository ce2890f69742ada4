package model

import "time"

// Типы файлов. Закрытое множество.
const (
	FileTypeMetadata     = "metadata"
	FileTypeSegment      = "content-segment"
	FileTypeTranscode320 = "transcode-320"
	FileTypeImage        = "image"
	FileTypeDir          = "directory"
)

// File — один физический content-addressed блоб (метаданные, сегмент,
// транскод, картинка). Skipped=true означает, что байты не удалось скачать
// при импорте, но строка сохранена ради непрерывности clock.
type File struct {
	ID     string `gorm:"primaryKey;type:uuid"`
	UserID string `gorm:"not null;index;type:uuid"`

	User *CNodeUser `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	Multihash   string `gorm:"not null;index"`
	StoragePath string `gorm:"not null"`
	Type        string `gorm:"not null"`
	Clock       int    `gorm:"not null"`

	// Ссылка на blockchain-id контента заполняется позже, при ассоциации
	// метаданных; clock строки при этом не меняется.
	DigitalContentBlockchainID *int64 `gorm:"index"`

	Skipped bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// IsContentBearing — несёт ли файл байты контента, которые secondary обязан
// попытаться скачать при импорте (каталоги байтов не несут).
func (f *File) IsContentBearing() bool {
	return f.Type != FileTypeDir
}
