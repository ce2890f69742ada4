package service

import (
	"time"

	"github.com/google/uuid"
)

// Типы синхронизаций.
const (
	SyncTypeManual    = "MANUAL"    // явный триггер (кворум-ожидание); не дедуплицируется
	SyncTypeRecurring = "RECURRING" // периодический/дебаунс-триггер; дедуплицируется
)

// SyncJob — эфемерная заявка на синхронизацию одного кошелька.
// Живёт в очереди воркеров; после обработки уходит только в историю.
type SyncJob struct {
	ID                string
	Wallet            string
	PrimaryEndpoint   string
	SecondaryEndpoint string // целевой secondary; на принимающей стороне — сам узел
	SyncType          string
	ForceResync       bool

	CreatedAt time.Time
}

func NewSyncJob(wallet, primary, secondary, syncType string, forceResync bool) *SyncJob {
	return &SyncJob{
		ID:                uuid.NewString(),
		Wallet:            wallet,
		PrimaryEndpoint:   primary,
		SecondaryEndpoint: secondary,
		SyncType:          syncType,
		ForceResync:       forceResync,
		CreatedAt:         time.Now().UTC(),
	}
}

// JobRecord — завершённая заявка в истории (только для наблюдаемости).
type JobRecord struct {
	Job        SyncJob
	Outcome    SyncOutcome
	FinishedAt time.Time
}
