package service

import "sync"

// SyncDeduplicator не даёт выставить вторую заявку того же вида на ту же
// пару (кошелёк, secondary), пока первая не завершилась. Явно инжектится
// всем потребителям — никакого глобального состояния уровня пакета.
type SyncDeduplicator struct {
	mu      sync.Mutex
	pending map[dedupKey]*SyncJob
}

type dedupKey struct {
	syncType  string
	wallet    string
	secondary string
}

func NewSyncDeduplicator() *SyncDeduplicator {
	return &SyncDeduplicator{pending: map[dedupKey]*SyncJob{}}
}

// GetOrRegister возвращает уже стоящую в очереди заявку того же ключа,
// либо регистрирует новую и возвращает nil. MANUAL-заявки никогда не
// дедуплицируются между собой: явный кворум-триггер всегда получает
// собственную заявку.
func (d *SyncDeduplicator) GetOrRegister(job *SyncJob) *SyncJob {
	if job.SyncType == SyncTypeManual {
		return nil
	}
	key := dedupKey{syncType: job.SyncType, wallet: job.Wallet, secondary: job.SecondaryEndpoint}

	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.pending[key]; ok {
		return existing
	}
	d.pending[key] = job
	return nil
}

// Clear снимает регистрацию после завершения заявки (успех или провал),
// чтобы следующий триггер мог встать в очередь.
func (d *SyncDeduplicator) Clear(job *SyncJob) {
	key := dedupKey{syncType: job.SyncType, wallet: job.Wallet, secondary: job.SecondaryEndpoint}

	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.pending[key]; ok && existing.ID == job.ID {
		delete(d.pending, key)
	}
}
