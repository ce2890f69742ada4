package service

import "sync"

// WalletLock — взаимное исключение по кошельку. Держится на всё время
// импорта; защищает пользователя от двух конкурентных импортов и от гонки
// импорта с локальной записью.
//
// Интерфейс оставлен как шов для распределённой реализации; внутри одного
// процесса достаточно карты под мьютексом.
type WalletLock interface {
	// TryAcquire берёт лок без ожидания. false — лок уже занят,
	// вызывающий обязан отвалиться сразу (failure_sync_in_progress).
	TryAcquire(wallet string) bool

	// Release отпускает лок. Безопасен для не-взятого лока.
	Release(wallet string)

	// Held — занят ли лок (syncInProgress в clock_status).
	Held(wallet string) bool
}

type memoryWalletLock struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewWalletLock() WalletLock {
	return &memoryWalletLock{held: map[string]struct{}{}}
}

func (l *memoryWalletLock) TryAcquire(wallet string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[wallet]; ok {
		return false
	}
	l.held[wallet] = struct{}{}
	return true
}

func (l *memoryWalletLock) Release(wallet string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, wallet)
}

func (l *memoryWalletLock) Held(wallet string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[wallet]
	return ok
}
