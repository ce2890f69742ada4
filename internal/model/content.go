package model

import "time"

// Версионируемые метаданные. Каждая строка ключуется (UserID, BlockchainID)
// и различает исторические версии по Clock; "текущая" версия — строка с
// максимальным Clock для данного BlockchainID. Физически строки никогда
// не удаляются (история остаётся для аудита и replay).

// ColivingUser — профиль пользователя в сети.
type ColivingUser struct {
	ID     string `gorm:"primaryKey;type:uuid"`
	UserID string `gorm:"not null;index:idx_coliving_users_user_blockchain;type:uuid"`

	User *CNodeUser `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	BlockchainID int64 `gorm:"not null;index:idx_coliving_users_user_blockchain"`
	Clock        int   `gorm:"not null"`

	MetadataFileID    *string `gorm:"type:uuid"`
	MetadataMultihash string

	Name string
	Bio  string

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// DigitalContent — единица контента (трек/запись).
type DigitalContent struct {
	ID     string `gorm:"primaryKey;type:uuid"`
	UserID string `gorm:"not null;index:idx_digital_contents_user_blockchain;type:uuid"`

	User *CNodeUser `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	BlockchainID int64 `gorm:"not null;index:idx_digital_contents_user_blockchain"`
	Clock        int   `gorm:"not null"`

	MetadataFileID    *string `gorm:"type:uuid"`
	MetadataMultihash string

	Title         string
	CoverArtSizes string

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// ContentList — коллекция (плейлист/альбом).
type ContentList struct {
	ID     string `gorm:"primaryKey;type:uuid"`
	UserID string `gorm:"not null;index:idx_content_lists_user_blockchain;type:uuid"`

	User *CNodeUser `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	BlockchainID int64 `gorm:"not null;index:idx_content_lists_user_blockchain"`
	Clock        int   `gorm:"not null"`

	MetadataFileID    *string `gorm:"type:uuid"`
	MetadataMultihash string

	Name string

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
