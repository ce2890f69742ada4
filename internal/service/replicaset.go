package service

import "sync"

// ReplicaSetResolver отдаёт эндпоинты replica set кошелька
// (primary + два secondary). Внешний коллаборатор: настоящая реализация
// ходит в discovery-слой, здесь — статическая карта с дефолтом.
type ReplicaSetResolver interface {
	Endpoints(wallet string) []string
}

// Blacklist — предикат "можно ли отдавать этот контент". Применяется при
// раздаче, но не при синхронизации: blacklist-состояние само реплицируется.
type Blacklist interface {
	IsServable(multihash string) bool
}

// NewStaticReplicaSet — резолвер с общим дефолтным набором эндпоинтов.
func NewStaticReplicaSet(fallback []string) *StaticReplicaSet {
	return &StaticReplicaSet{
		byWallet: map[string][]string{},
		fallback: fallback,
	}
}

// StaticReplicaSet — конфигурируемая реализация ReplicaSetResolver.
type StaticReplicaSet struct {
	mu       sync.RWMutex
	byWallet map[string][]string
	fallback []string
}

func (r *StaticReplicaSet) Set(wallet string, endpoints []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byWallet[wallet] = endpoints
}

func (r *StaticReplicaSet) Endpoints(wallet string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if eps, ok := r.byWallet[wallet]; ok {
		return eps
	}
	return r.fallback
}

// AllowAll — blacklist-заглушка, пропускающая всё.
type AllowAll struct{}

func (AllowAll) IsServable(string) bool { return true }
