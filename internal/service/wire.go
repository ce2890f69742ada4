package service

// Проводной формат /export. Ключи — контракт между узлами, менять нельзя.

type ExportPayload struct {
	Data ExportData `json:"data"`
}

type ExportData struct {
	// Ключ карты — локальный id пользователя на экспортирующем узле.
	// Импортирующая сторона на него не опирается: локальная идентичность
	// у каждого узла своя.
	CNodeUsers map[string]ExportedUser `json:"cnodeUsers"`
}

type ExportedUser struct {
	WalletPublicKey   string `json:"walletPublicKey"`
	Clock             int    `json:"clock"`
	LatestBlockNumber int64  `json:"latestBlockNumber"`

	ClockInfo ClockInfo `json:"clockInfo"`

	ColivingUsers   []WireColivingUser   `json:"colivingUsers"`
	DigitalContents []WireDigitalContent `json:"digitalContents"`
	ContentLists    []WireContentList    `json:"contentLists"`
	Files           []WireFile           `json:"files"`
	ClockRecords    []WireClockRecord    `json:"clockRecords"`
}

type ClockInfo struct {
	RequestedClockRangeMin int `json:"requestedClockRangeMin"`
	RequestedClockRangeMax int `json:"requestedClockRangeMax"`
	LocalClockMax          int `json:"localClockMax"`
}

type WireClockRecord struct {
	Clock       int    `json:"clock"`
	SourceTable string `json:"sourceTable"`
}

type WireFile struct {
	Multihash                  string `json:"multihash"`
	StoragePath                string `json:"storagePath"`
	Type                       string `json:"type"`
	Clock                      int    `json:"clock"`
	DigitalContentBlockchainID *int64 `json:"digitalContentBlockchainId,omitempty"`
	Skipped                    bool   `json:"skipped"`
}

type WireColivingUser struct {
	BlockchainID      int64  `json:"blockchainId"`
	Clock             int    `json:"clock"`
	MetadataMultihash string `json:"metadataMultihash"`
	Name              string `json:"name"`
	Bio               string `json:"bio"`
}

type WireDigitalContent struct {
	BlockchainID      int64  `json:"blockchainId"`
	Clock             int    `json:"clock"`
	MetadataMultihash string `json:"metadataMultihash"`
	Title             string `json:"title"`
	CoverArtSizes     string `json:"coverArtSizes"`
}

type WireContentList struct {
	BlockchainID      int64  `json:"blockchainId"`
	Clock             int    `json:"clock"`
	MetadataMultihash string `json:"metadataMultihash"`
	Name              string `json:"name"`
}
