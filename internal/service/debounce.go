package service

import (
	"sync"
	"time"
)

// Debouncer схлопывает частые повторные триггеры по одному кошельку:
// новый триггер отменяет и замещает уже взведённый таймер этого ключа.
type Debouncer struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewDebouncer() *Debouncer {
	return &Debouncer{timers: map[string]*time.Timer{}}
}

// Trigger взводит fn через delay, сбрасывая прежний таймер кошелька.
func (d *Debouncer) Trigger(wallet string, delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.timers[wallet]; ok {
		t.Stop()
	}
	d.timers[wallet] = time.AfterFunc(delay, func() {
		d.mu.Lock()
		delete(d.timers, wallet)
		d.mu.Unlock()
		fn()
	})
}

// Stop отменяет все взведённые таймеры (останов сервера).
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for w, t := range d.timers {
		t.Stop()
		delete(d.timers, w)
	}
}
